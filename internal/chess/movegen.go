package chess

type direction struct{ dRow, dCol int }

var (
	orthogonal = []direction{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagonal   = []direction{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	allEight   = append(append([]direction{}, orthogonal...), diagonal...)

	knightJumps = []direction{
		{2, 1}, {2, -1}, {-2, 1}, {-2, -1},
		{1, 2}, {1, -2}, {-1, 2}, {-1, -2},
	}
)

// PieceMoves returns every square the piece on sq can reach by its movement
// rule. It does not consult whose turn it is and does not filter moves that
// leave the mover's own king in check. An empty square yields an empty set.
func PieceMoves(b *Board, sq Square) MoveSet {
	moves := make(MoveSet)
	p := b.Piece(sq)
	if p.IsEmpty() {
		return moves
	}
	switch p.Type {
	case King:
		addSteps(moves, b, sq, p.Color, allEight)
	case Queen:
		addRays(moves, b, sq, p.Color, allEight)
	case Rook:
		addRays(moves, b, sq, p.Color, orthogonal)
	case Bishop:
		addRays(moves, b, sq, p.Color, diagonal)
	case Knight:
		addSteps(moves, b, sq, p.Color, knightJumps)
	case Pawn:
		addPawnMoves(moves, b, sq, p.Color)
	}
	return moves
}

// addSteps handles single-hop pieces: the target must be empty or hostile.
func addSteps(moves MoveSet, b *Board, from Square, c Color, dirs []direction) {
	for _, d := range dirs {
		to := from.offset(d.dRow, d.dCol)
		if !to.Valid() {
			continue
		}
		if occ := b.Piece(to); occ.IsEmpty() || occ.Color != c {
			moves.Add(Move{Start: from, End: to})
		}
	}
}

// addRays casts each direction until the edge or the first occupied square;
// a hostile blocker is included as a capture, a friendly one is not.
func addRays(moves MoveSet, b *Board, from Square, c Color, dirs []direction) {
	for _, d := range dirs {
		to := from.offset(d.dRow, d.dCol)
		for to.Valid() {
			occ := b.Piece(to)
			if occ.IsEmpty() {
				moves.Add(Move{Start: from, End: to})
				to = to.offset(d.dRow, d.dCol)
				continue
			}
			if occ.Color != c {
				moves.Add(Move{Start: from, End: to})
			}
			break
		}
	}
}

func pawnDirection(c Color) int {
	if c == White {
		return 1
	}
	return -1
}

func pawnStartRow(c Color) int {
	if c == White {
		return 2
	}
	return 7
}

func promotionRow(c Color) int {
	if c == White {
		return 8
	}
	return 1
}

func addPawnMoves(moves MoveSet, b *Board, from Square, c Color) {
	dir := pawnDirection(c)

	one := from.offset(dir, 0)
	if one.Valid() && b.Piece(one).IsEmpty() {
		addPawnMove(moves, from, one, c)
		two := one.offset(dir, 0)
		if from.Row == pawnStartRow(c) && two.Valid() && b.Piece(two).IsEmpty() {
			addPawnMove(moves, from, two, c)
		}
	}

	for _, dCol := range []int{-1, 1} {
		to := from.offset(dir, dCol)
		if !to.Valid() {
			continue
		}
		if occ := b.Piece(to); !occ.IsEmpty() && occ.Color != c {
			addPawnMove(moves, from, to, c)
		}
	}
}

// addPawnMove expands a last-rank arrival into one move per promotion type.
func addPawnMove(moves MoveSet, from, to Square, c Color) {
	if to.Row != promotionRow(c) {
		moves.Add(Move{Start: from, End: to})
		return
	}
	for _, t := range PromotionTypes {
		moves.Add(Move{Start: from, End: to, Promotion: t})
	}
}
