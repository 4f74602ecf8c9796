package chess

import (
	"fmt"
	"strings"
)

// SAN renders m in standard algebraic notation for the current position.
// m must be legal for the side to move.
func (g *Game) SAN(m Move) (string, error) {
	p := g.board.Piece(m.Start)
	if p.IsEmpty() || p.Color != g.turn {
		return "", fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}
	legal, err := g.legalFrom(m.Start, p.Color)
	if err != nil {
		return "", err
	}
	if !legal.Contains(m) {
		return "", fmt.Errorf("%w: %s", ErrIllegalMove, m)
	}

	capture := !g.board.Piece(m.End).IsEmpty()
	var sb strings.Builder
	if p.Type == Pawn {
		if capture {
			sb.WriteByte(byte('a' + m.Start.Col - 1))
		}
	} else {
		sb.WriteString(p.Type.Letter())
		d, err := g.disambiguation(m, p)
		if err != nil {
			return "", err
		}
		sb.WriteString(d)
	}
	if capture {
		sb.WriteByte('x')
	}
	sb.WriteString(m.End.String())
	if m.Promotion != NoPieceType {
		sb.WriteByte('=')
		sb.WriteString(m.Promotion.Letter())
	}

	next := g.Clone()
	if err := next.MakeMove(m); err != nil {
		return "", err
	}
	status, err := next.Status()
	if err != nil {
		return "", err
	}
	switch status {
	case StatusCheckmate:
		sb.WriteByte('#')
	case StatusCheck:
		sb.WriteByte('+')
	}
	return sb.String(), nil
}

// disambiguation returns the file, rank, or both needed to tell m apart from
// same-type pieces that can also legally reach m.End.
func (g *Game) disambiguation(m Move, p Piece) (string, error) {
	var rivals []Square
	for _, sq := range g.squaresOf(p.Color) {
		if sq == m.Start || g.board.Piece(sq) != p {
			continue
		}
		legal, err := g.legalFrom(sq, p.Color)
		if err != nil {
			return "", err
		}
		for other := range legal {
			if other.End == m.End {
				rivals = append(rivals, sq)
				break
			}
		}
	}
	if len(rivals) == 0 {
		return "", nil
	}
	sameFile, sameRank := false, false
	for _, sq := range rivals {
		if sq.Col == m.Start.Col {
			sameFile = true
		}
		if sq.Row == m.Start.Row {
			sameRank = true
		}
	}
	file := string(rune('a' + m.Start.Col - 1))
	rank := string(rune('0' + m.Start.Row))
	switch {
	case !sameFile:
		return file, nil
	case !sameRank:
		return rank, nil
	default:
		return file + rank, nil
	}
}
