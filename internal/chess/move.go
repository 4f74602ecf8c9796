package chess

import (
	"fmt"
	"sort"
	"strings"
)

// Move is an immutable (start, end, promotion) triple. Promotion is
// NoPieceType for every move except a pawn reaching the last rank.
type Move struct {
	Start     Square
	End       Square
	Promotion PieceType
}

func NewMove(start, end Square, promotion PieceType) Move {
	return Move{Start: start, End: end, Promotion: promotion}
}

// String renders coordinate notation: "e2e4", "e7e8q".
func (m Move) String() string {
	s := m.Start.String() + m.End.String()
	if m.Promotion != NoPieceType {
		s += strings.ToLower(m.Promotion.Letter())
	}
	return s
}

// ParseMove reads coordinate notation. The promotion suffix is optional.
func ParseMove(text string) (Move, error) {
	text = strings.ToLower(strings.TrimSpace(text))
	if len(text) != 4 && len(text) != 5 {
		return Move{}, fmt.Errorf("%w: malformed move %q", ErrIllegalMove, text)
	}
	start, err := ParseSquare(text[0:2])
	if err != nil {
		return Move{}, err
	}
	end, err := ParseSquare(text[2:4])
	if err != nil {
		return Move{}, err
	}
	m := Move{Start: start, End: end}
	if len(text) == 5 {
		t := pieceTypeFromLetter(rune(text[4]))
		if t == NoPieceType || t == King || t == Pawn {
			return Move{}, fmt.Errorf("%w: bad promotion %q", ErrIllegalMove, text[4:])
		}
		m.Promotion = t
	}
	return m, nil
}

// MoveSet is a deduplicating set of moves.
type MoveSet map[Move]struct{}

func (s MoveSet) Add(m Move) { s[m] = struct{}{} }

func (s MoveSet) Contains(m Move) bool {
	_, ok := s[m]
	return ok
}

func (s MoveSet) Len() int { return len(s) }

// Sorted returns the moves in a stable order (by start, end, promotion).
func (s MoveSet) Sorted() []Move {
	out := make([]Move, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	sortMoves(out)
	return out
}

// Ends returns the distinct destination squares.
func (s MoveSet) Ends() []Square {
	seen := make(map[Square]struct{}, len(s))
	out := make([]Square, 0, len(s))
	for _, m := range s.Sorted() {
		if _, ok := seen[m.End]; ok {
			continue
		}
		seen[m.End] = struct{}{}
		out = append(out, m.End)
	}
	return out
}

func sortMoves(moves []Move) {
	sort.Slice(moves, func(i, j int) bool {
		a, b := moves[i], moves[j]
		if a.Start != b.Start {
			return squareLess(a.Start, b.Start)
		}
		if a.End != b.End {
			return squareLess(a.End, b.End)
		}
		return a.Promotion < b.Promotion
	})
}

func squareLess(a, b Square) bool {
	if a.Row != b.Row {
		return a.Row < b.Row
	}
	return a.Col < b.Col
}
