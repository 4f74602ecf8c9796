package chess

import "fmt"

// Status summarizes the position for the side to move.
type Status uint8

const (
	StatusOngoing Status = iota
	StatusCheck
	StatusCheckmate
	StatusStalemate
)

func (s Status) String() string {
	switch s {
	case StatusCheck:
		return "check"
	case StatusCheckmate:
		return "checkmate"
	case StatusStalemate:
		return "stalemate"
	default:
		return "ongoing"
	}
}

// Terminal reports whether the side to move has no legal move.
func (s Status) Terminal() bool { return s == StatusCheckmate || s == StatusStalemate }

// Game owns a board and whose turn it is. It has no internal locking: callers
// sharing one Game across goroutines must serialize access themselves.
type Game struct {
	board Board
	turn  Color
}

// NewGame starts from the standard position with white to move.
func NewGame() *Game {
	return &Game{board: NewBoard(), turn: White}
}

// NewGameFromBoard adopts a copy of b as the current position.
func NewGameFromBoard(b Board, turn Color) *Game {
	return &Game{board: b, turn: turn}
}

func (g *Game) Turn() Color { return g.turn }

// Board returns a copy of the current position.
func (g *Game) Board() Board { return g.board }

func (g *Game) Clone() *Game {
	c := *g
	return &c
}

// ValidMoves returns the legal moves of the piece on sq. An empty square or a
// piece of the side not to move yields an empty set, not an error.
func (g *Game) ValidMoves(sq Square) (MoveSet, error) {
	if !sq.Valid() {
		return nil, fmt.Errorf("valid moves from %s: %w", sq, ErrOutOfRange)
	}
	p := g.board.Piece(sq)
	if p.IsEmpty() || p.Color != g.turn {
		return make(MoveSet), nil
	}
	return g.legalFrom(sq, p.Color)
}

// MakeMove applies m for the side to move. On failure the game is unchanged.
func (g *Game) MakeMove(m Move) error {
	if !m.Start.Valid() || !m.End.Valid() {
		return fmt.Errorf("move %s: %w", m, ErrOutOfRange)
	}
	p := g.board.Piece(m.Start)
	if p.IsEmpty() {
		return fmt.Errorf("%w: no piece at %s", ErrIllegalMove, m.Start)
	}
	if p.Color != g.turn {
		return fmt.Errorf("%w: %s to move", ErrIllegalMove, g.turn)
	}
	legal, err := g.legalFrom(m.Start, p.Color)
	if err != nil {
		return err
	}
	if !legal.Contains(m) {
		return fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}

	placed := p
	if m.Promotion != NoPieceType {
		placed = Piece{Color: p.Color, Type: m.Promotion}
	}
	g.board.set(m.End, placed)
	g.board.set(m.Start, NoPiece)
	g.turn = g.turn.Other()
	return nil
}

// IsInCheck reports whether any piece of the other side attacks c's king.
func (g *Game) IsInCheck(c Color) (bool, error) {
	king, err := g.board.KingSquare(c)
	if err != nil {
		return false, err
	}
	attacked := false
	g.board.Each(func(sq Square, p Piece) {
		if attacked || p.Color == c {
			return
		}
		for m := range PieceMoves(&g.board, sq) {
			if m.End == king {
				attacked = true
				return
			}
		}
	})
	return attacked, nil
}

func (g *Game) IsInCheckmate(c Color) (bool, error) {
	inCheck, err := g.IsInCheck(c)
	if err != nil || !inCheck {
		return false, err
	}
	canMove, err := g.hasLegalMove(c)
	return !canMove, err
}

func (g *Game) IsInStalemate(c Color) (bool, error) {
	inCheck, err := g.IsInCheck(c)
	if err != nil || inCheck {
		return false, err
	}
	canMove, err := g.hasLegalMove(c)
	return !canMove, err
}

// Status evaluates check, checkmate and stalemate for the side to move.
func (g *Game) Status() (Status, error) {
	inCheck, err := g.IsInCheck(g.turn)
	if err != nil {
		return StatusOngoing, err
	}
	canMove, err := g.hasLegalMove(g.turn)
	if err != nil {
		return StatusOngoing, err
	}
	switch {
	case inCheck && !canMove:
		return StatusCheckmate, nil
	case !canMove:
		return StatusStalemate, nil
	case inCheck:
		return StatusCheck, nil
	default:
		return StatusOngoing, nil
	}
}

// LegalMoves lists every legal move of color c in a stable order,
// regardless of whose turn it is.
func (g *Game) LegalMoves(c Color) ([]Move, error) {
	var out []Move
	for _, sq := range g.squaresOf(c) {
		set, err := g.legalFrom(sq, c)
		if err != nil {
			return nil, err
		}
		out = append(out, set.Sorted()...)
	}
	sortMoves(out)
	return out, nil
}

func (g *Game) legalFrom(sq Square, mover Color) (MoveSet, error) {
	legal := make(MoveSet)
	for m := range PieceMoves(&g.board, sq) {
		ok, err := g.isLegal(m, mover)
		if err != nil {
			return nil, err
		}
		if ok {
			legal.Add(m)
		}
	}
	return legal, nil
}

func (g *Game) hasLegalMove(c Color) (bool, error) {
	for _, sq := range g.squaresOf(c) {
		for m := range PieceMoves(&g.board, sq) {
			ok, err := g.isLegal(m, c)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
	}
	return false, nil
}

// squaresOf snapshots the squares holding c's pieces, so callers may
// simulate moves while iterating.
func (g *Game) squaresOf(c Color) []Square {
	var out []Square
	g.board.Each(func(sq Square, p Piece) {
		if p.Color == c {
			out = append(out, sq)
		}
	})
	return out
}

// isLegal reports whether m leaves mover's king out of check.
func (g *Game) isLegal(m Move, mover Color) (bool, error) {
	var inCheck bool
	err := g.withMove(m, func() error {
		var err error
		inCheck, err = g.IsInCheck(mover)
		return err
	})
	if err != nil {
		return false, err
	}
	return !inCheck, nil
}

// withMove applies m to the board, runs fn, and restores both touched
// squares on every exit path, panics included. Promotion is ignored: the
// promoted piece stands on the same square and cannot change check exposure.
func (g *Game) withMove(m Move, fn func() error) error {
	start, end := g.board.Piece(m.Start), g.board.Piece(m.End)
	defer func() {
		g.board.set(m.Start, start)
		g.board.set(m.End, end)
	}()
	g.board.set(m.End, start)
	g.board.set(m.Start, NoPiece)
	return fn()
}
