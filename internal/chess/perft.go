package chess

// Perft counts the leaf nodes of the legal move tree to the given depth.
func Perft(g *Game, depth int) (uint64, error) {
	if depth <= 0 {
		return 1, nil
	}
	moves, err := g.LegalMoves(g.turn)
	if err != nil {
		return 0, err
	}
	if depth == 1 {
		return uint64(len(moves)), nil
	}
	var total uint64
	for _, m := range moves {
		next := g.Clone()
		if err := next.MakeMove(m); err != nil {
			return 0, err
		}
		n, err := Perft(next, depth-1)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// PerftDivide reports the perft count below each root move.
func PerftDivide(g *Game, depth int) (map[Move]uint64, error) {
	out := make(map[Move]uint64)
	if depth <= 0 {
		return out, nil
	}
	moves, err := g.LegalMoves(g.turn)
	if err != nil {
		return nil, err
	}
	for _, m := range moves {
		next := g.Clone()
		if err := next.MakeMove(m); err != nil {
			return nil, err
		}
		n, err := Perft(next, depth-1)
		if err != nil {
			return nil, err
		}
		out[m] = n
	}
	return out, nil
}
