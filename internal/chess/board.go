package chess

import (
	"fmt"
	"strings"
)

// Board is an 8x8 grid of optional pieces. It is a value type: every Board
// owns its own grid, assignment copies it, and == compares square by square.
type Board struct {
	squares [8][8]Piece
}

var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// NewBoard returns a board in the standard starting position.
func NewBoard() Board {
	var b Board
	b.Reset()
	return b
}

// AddPiece sets the square to p; NoPiece clears it.
func (b *Board) AddPiece(sq Square, p Piece) error {
	if !sq.Valid() {
		return fmt.Errorf("add piece at %s: %w", sq, ErrOutOfRange)
	}
	b.squares[sq.Row-1][sq.Col-1] = p
	return nil
}

// Piece returns the piece on sq, or NoPiece when the square is empty or off the board.
func (b *Board) Piece(sq Square) Piece {
	if !sq.Valid() {
		return NoPiece
	}
	return b.squares[sq.Row-1][sq.Col-1]
}

func (b *Board) Clear() {
	b.squares = [8][8]Piece{}
}

// Reset clears the board and places the standard starting position.
func (b *Board) Reset() {
	b.Clear()
	for col := 1; col <= 8; col++ {
		b.squares[0][col-1] = Piece{Color: White, Type: backRank[col-1]}
		b.squares[1][col-1] = Piece{Color: White, Type: Pawn}
		b.squares[6][col-1] = Piece{Color: Black, Type: Pawn}
		b.squares[7][col-1] = Piece{Color: Black, Type: backRank[col-1]}
	}
}

// set is the unchecked write used by move application; callers pass valid squares.
func (b *Board) set(sq Square, p Piece) {
	b.squares[sq.Row-1][sq.Col-1] = p
}

// Each visits every occupied square, row 1 first.
func (b *Board) Each(fn func(sq Square, p Piece)) {
	for row := 1; row <= 8; row++ {
		for col := 1; col <= 8; col++ {
			if p := b.squares[row-1][col-1]; !p.IsEmpty() {
				fn(Square{Row: row, Col: col}, p)
			}
		}
	}
}

// Count returns the number of pieces of color c.
func (b *Board) Count(c Color) int {
	n := 0
	b.Each(func(_ Square, p Piece) {
		if p.Color == c {
			n++
		}
	})
	return n
}

// KingSquare scans for the single king of color c.
func (b *Board) KingSquare(c Color) (Square, error) {
	var (
		found Square
		n     int
	)
	b.Each(func(sq Square, p Piece) {
		if p.Type == King && p.Color == c {
			found = sq
			n++
		}
	})
	if n != 1 {
		return Square{}, fmt.Errorf("%w: %d %s kings", ErrInvalidConfiguration, n, c)
	}
	return found, nil
}

// String draws the board from white's side, rank 8 on top.
func (b Board) String() string {
	var sb strings.Builder
	for row := 8; row >= 1; row-- {
		sb.WriteByte(byte('0' + row))
		sb.WriteByte(' ')
		for col := 1; col <= 8; col++ {
			sb.WriteRune(b.squares[row-1][col-1].FENRune())
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  abcdefgh")
	return sb.String()
}
