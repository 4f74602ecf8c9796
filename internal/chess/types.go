package chess

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrIllegalMove          = errors.New("illegal move")
	ErrOutOfRange           = errors.New("square out of range")
	ErrInvalidConfiguration = errors.New("invalid board configuration")
)

// Color identifies a side.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// ParseColor accepts "white"/"w" and "black"/"b" in any case.
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	default:
		return White, fmt.Errorf("unknown color %q", s)
	}
}

// PieceType is the kind of a piece. The zero value marks an empty square.
type PieceType uint8

const (
	NoPieceType PieceType = iota
	King
	Queen
	Rook
	Bishop
	Knight
	Pawn
)

// PromotionTypes are the piece types a pawn may become on the last rank.
var PromotionTypes = [...]PieceType{Queen, Rook, Bishop, Knight}

func (t PieceType) String() string {
	switch t {
	case King:
		return "king"
	case Queen:
		return "queen"
	case Rook:
		return "rook"
	case Bishop:
		return "bishop"
	case Knight:
		return "knight"
	case Pawn:
		return "pawn"
	default:
		return ""
	}
}

// Letter is the upper-case algebraic letter; pawns have none.
func (t PieceType) Letter() string {
	switch t {
	case King:
		return "K"
	case Queen:
		return "Q"
	case Rook:
		return "R"
	case Bishop:
		return "B"
	case Knight:
		return "N"
	default:
		return ""
	}
}

func pieceTypeFromLetter(r rune) PieceType {
	switch r {
	case 'k', 'K':
		return King
	case 'q', 'Q':
		return Queen
	case 'r', 'R':
		return Rook
	case 'b', 'B':
		return Bishop
	case 'n', 'N':
		return Knight
	case 'p', 'P':
		return Pawn
	default:
		return NoPieceType
	}
}

func parsePieceType(s string) (PieceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "king":
		return King, nil
	case "queen":
		return Queen, nil
	case "rook":
		return Rook, nil
	case "bishop":
		return Bishop, nil
	case "knight":
		return Knight, nil
	case "pawn":
		return Pawn, nil
	default:
		return NoPieceType, fmt.Errorf("unknown piece type %q", s)
	}
}

// Piece is a colored piece value. Two pieces are equal iff color and type match.
type Piece struct {
	Color Color
	Type  PieceType
}

// NoPiece is the empty-square value.
var NoPiece = Piece{}

func NewPiece(c Color, t PieceType) Piece { return Piece{Color: c, Type: t} }

func (p Piece) IsEmpty() bool { return p.Type == NoPieceType }

// FENRune is the FEN letter: upper case for white, lower case for black.
func (p Piece) FENRune() rune {
	var r rune
	switch p.Type {
	case King:
		r = 'k'
	case Queen:
		r = 'q'
	case Rook:
		r = 'r'
	case Bishop:
		r = 'b'
	case Knight:
		r = 'n'
	case Pawn:
		r = 'p'
	default:
		return '.'
	}
	if p.Color == White {
		r -= 'a' - 'A'
	}
	return r
}

func (p Piece) String() string {
	if p.IsEmpty() {
		return "empty"
	}
	return p.Color.String() + " " + p.Type.String()
}

// Square addresses the board by row (rank) and column (file), each 1..8.
type Square struct {
	Row int
	Col int
}

func NewSquare(row, col int) Square { return Square{Row: row, Col: col} }

func (s Square) Valid() bool {
	return s.Row >= 1 && s.Row <= 8 && s.Col >= 1 && s.Col <= 8
}

func (s Square) offset(dRow, dCol int) Square {
	return Square{Row: s.Row + dRow, Col: s.Col + dCol}
}

// String renders algebraic coordinates, e.g. "e4".
func (s Square) String() string {
	if !s.Valid() {
		return fmt.Sprintf("(%d,%d)", s.Row, s.Col)
	}
	return string([]byte{byte('a' + s.Col - 1), byte('0' + s.Row)})
}

// ParseSquare reads algebraic coordinates like "e4".
func ParseSquare(s string) (Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 {
		return Square{}, fmt.Errorf("%w: %q", ErrOutOfRange, s)
	}
	sq := Square{Row: int(s[1]-'0'), Col: int(s[0]-'a') + 1}
	if !sq.Valid() {
		return Square{}, fmt.Errorf("%w: %q", ErrOutOfRange, s)
	}
	return sq, nil
}
