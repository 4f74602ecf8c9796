package chess

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidFEN = errors.New("invalid FEN")

// StartFEN is the standard starting position. Castling and en passant fields
// are always written as "-" because neither rule is modelled.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w - - 0 1"

// ParseFEN reads piece placement and side to move. The remaining fields
// (castling, en passant, clocks) are accepted and ignored.
func ParseFEN(fen string) (*Game, error) {
	parts := strings.Fields(fen)
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: need placement and side, got %d fields", ErrInvalidFEN, len(parts))
	}

	var b Board
	ranks := strings.Split(parts[0], "/")
	if len(ranks) != 8 {
		return nil, fmt.Errorf("%w: need 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}
	for i, rank := range ranks {
		row := 8 - i
		col := 1
		for _, r := range rank {
			if r >= '1' && r <= '8' {
				col += int(r - '0')
				continue
			}
			t := pieceTypeFromLetter(r)
			if t == NoPieceType {
				return nil, fmt.Errorf("%w: unexpected %q in rank %d", ErrInvalidFEN, r, row)
			}
			if col > 8 {
				return nil, fmt.Errorf("%w: rank %d overflows", ErrInvalidFEN, row)
			}
			c := Black
			if r >= 'A' && r <= 'Z' {
				c = White
			}
			b.set(Square{Row: row, Col: col}, Piece{Color: c, Type: t})
			col++
		}
		if col != 9 {
			return nil, fmt.Errorf("%w: rank %d has %d files", ErrInvalidFEN, row, col-1)
		}
	}

	var turn Color
	switch parts[1] {
	case "w":
		turn = White
	case "b":
		turn = Black
	default:
		return nil, fmt.Errorf("%w: side to move %q", ErrInvalidFEN, parts[1])
	}
	return NewGameFromBoard(b, turn), nil
}

// FEN encodes the position.
func (g *Game) FEN() string {
	var sb strings.Builder
	sb.WriteString(g.board.placement())
	if g.turn == White {
		sb.WriteString(" w")
	} else {
		sb.WriteString(" b")
	}
	sb.WriteString(" - - 0 1")
	return sb.String()
}

func (b *Board) placement() string {
	var sb strings.Builder
	for row := 8; row >= 1; row-- {
		empty := 0
		for col := 1; col <= 8; col++ {
			p := b.squares[row-1][col-1]
			if p.IsEmpty() {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteRune(p.FENRune())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if row > 1 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}
