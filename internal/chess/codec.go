package chess

import (
	"encoding/json"
	"fmt"
)

type pieceJSON struct {
	Color string `json:"color"`
	Type  string `json:"type"`
}

// MarshalJSON writes the grid as 8 rows of 8 optional pieces, row 1 first.
func (b Board) MarshalJSON() ([]byte, error) {
	var grid [8][8]*pieceJSON
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			p := b.squares[r][c]
			if p.IsEmpty() {
				continue
			}
			grid[r][c] = &pieceJSON{Color: p.Color.String(), Type: p.Type.String()}
		}
	}
	return json.Marshal(grid)
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var grid [8][8]*pieceJSON
	if err := json.Unmarshal(data, &grid); err != nil {
		return fmt.Errorf("decode board: %w", err)
	}
	var next Board
	for r := 0; r < 8; r++ {
		for c := 0; c < 8; c++ {
			pj := grid[r][c]
			if pj == nil {
				continue
			}
			color, err := ParseColor(pj.Color)
			if err != nil {
				return fmt.Errorf("decode board %s: %w", Square{Row: r + 1, Col: c + 1}, err)
			}
			t, err := parsePieceType(pj.Type)
			if err != nil {
				return fmt.Errorf("decode board %s: %w", Square{Row: r + 1, Col: c + 1}, err)
			}
			next.squares[r][c] = Piece{Color: color, Type: t}
		}
	}
	*b = next
	return nil
}

type gameJSON struct {
	Board Board  `json:"board"`
	Turn  string `json:"turn"`
}

func (g *Game) MarshalJSON() ([]byte, error) {
	return json.Marshal(gameJSON{Board: g.board, Turn: g.turn.String()})
}

func (g *Game) UnmarshalJSON(data []byte) error {
	var raw gameJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode game: %w", err)
	}
	turn, err := ParseColor(raw.Turn)
	if err != nil {
		return fmt.Errorf("decode game: %w", err)
	}
	g.board = raw.Board
	g.turn = turn
	return nil
}
