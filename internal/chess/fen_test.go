package chess

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestStartFENRoundTrip(t *testing.T) {
	g, err := ParseFEN(StartFEN)
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if g.Board() != NewBoard() || g.Turn() != White {
		t.Fatalf("start FEN does not match the starting position")
	}
	if got := NewGame().FEN(); got != StartFEN {
		t.Fatalf("FEN() = %q", got)
	}
}

func TestFENAfterMoves(t *testing.T) {
	g := NewGame()
	play(t, g, "e2e4", "c7c5", "g1f3")
	want := "rnbqkbnr/pp1ppppp/8/2p5/4P3/5N2/PPPP1PPP/RNBQKB1R b - - 0 1"
	if got := g.FEN(); got != want {
		t.Fatalf("FEN() = %q want %q", got, want)
	}
	back, err := ParseFEN(want)
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if back.Board() != g.Board() || back.Turn() != Black {
		t.Fatalf("round trip mismatch")
	}
}

func TestParseFENIgnoresTrailingFields(t *testing.T) {
	g, err := ParseFEN("4k3/8/8/8/8/8/8/4K3 b KQkq e3 12 40")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if g.Turn() != Black {
		t.Fatalf("expected black to move")
	}
	if !strings.HasSuffix(g.FEN(), " b - - 0 1") {
		t.Fatalf("FEN() = %q", g.FEN())
	}
}

func TestParseFENRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"8/8/8/8/8/8/8/8",
		"8/8/8/8/8/8/8 w",
		"9/8/8/8/8/8/8/8 w",
		"7/8/8/8/8/8/8/8 w",
		"8/8/8/8/8/8/8/8x w",
		"ppppppppp/8/8/8/8/8/8/8 w",
		"8/8/8/8/8/8/8/8 x",
	}
	for _, fen := range cases {
		if _, err := ParseFEN(fen); !errors.Is(err, ErrInvalidFEN) {
			t.Fatalf("ParseFEN(%q): expected ErrInvalidFEN, got %v", fen, err)
		}
	}
}

func TestGameJSONRoundTrip(t *testing.T) {
	g := NewGame()
	play(t, g, "d2d4", "g8f6", "c1g5")

	raw, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded Game
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != *g {
		t.Fatalf("decoded game differs:\n%s\nvs\n%s", decoded.FEN(), g.FEN())
	}

	var shape struct {
		Board [8][8]*struct {
			Color string `json:"color"`
			Type  string `json:"type"`
		} `json:"board"`
		Turn string `json:"turn"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		t.Fatalf("Unmarshal shape: %v", err)
	}
	if shape.Turn != "black" {
		t.Fatalf("turn = %q", shape.Turn)
	}
	if d4 := shape.Board[3][3]; d4 == nil || d4.Type != "pawn" {
		t.Fatalf("d4 = %+v", d4)
	}
	// row 1 first: [0][4] is e1.
	if k := shape.Board[0][4]; k == nil || k.Color != "white" || k.Type != "king" {
		t.Fatalf("e1 = %+v", k)
	}
	if shape.Board[4][4] != nil {
		t.Fatalf("e5 should be empty")
	}
}

func TestBoardJSONRejectsUnknownPiece(t *testing.T) {
	var grid [8][8]any
	grid[0][0] = map[string]string{"color": "white", "type": "wizard"}
	raw, err := json.Marshal(grid)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var b Board
	if err := json.Unmarshal(raw, &b); err == nil {
		t.Fatalf("expected error for unknown piece type")
	}
}

func TestSANBasics(t *testing.T) {
	g := NewGame()
	cases := []struct {
		move string
		san  string
	}{
		{"g1f3", "Nf3"},
		{"d7d5", "d5"},
		{"d2d4", "d4"},
		{"g8f6", "Nf6"},
		{"b1d2", "Nbd2"},
		{"c8g4", "Bg4"},
		{"e2e4", "e4"},
		{"d5e4", "dxe4"},
		{"d2e4", "Nxe4"},
	}
	for _, tc := range cases {
		m := mv(t, tc.move)
		got, err := g.SAN(m)
		if err != nil {
			t.Fatalf("SAN(%s): %v", tc.move, err)
		}
		if got != tc.san {
			t.Fatalf("SAN(%s) = %q want %q", tc.move, got, tc.san)
		}
		play(t, g, tc.move)
	}
}

func TestSANCheckMateAndPromotion(t *testing.T) {
	g := NewGame()
	play(t, g, "f2f3", "e7e5", "g2g4")
	got, err := g.SAN(mv(t, "d8h4"))
	if err != nil || got != "Qh4#" {
		t.Fatalf("SAN = %q, %v", got, err)
	}

	var b Board
	place(t, &b, "a7", White, Pawn)
	place(t, &b, "c1", White, King)
	place(t, &b, "e8", Black, King)
	p := NewGameFromBoard(b, White)
	got, err = p.SAN(mv(t, "a7a8q"))
	if err != nil || got != "a8=Q+" {
		t.Fatalf("SAN = %q, %v", got, err)
	}
	if _, err := p.SAN(mv(t, "a7a8")); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
}

func TestSANRankDisambiguation(t *testing.T) {
	var b Board
	place(t, &b, "a1", White, Rook)
	place(t, &b, "a5", White, Rook)
	place(t, &b, "h1", White, King)
	place(t, &b, "h8", Black, King)
	g := NewGameFromBoard(b, White)
	got, err := g.SAN(mv(t, "a1a3"))
	if err != nil || got != "R1a3" {
		t.Fatalf("SAN = %q, %v", got, err)
	}
}

func TestPerftStartPosition(t *testing.T) {
	want := []uint64{1, 20, 400, 8902}
	for depth, n := range want {
		got, err := Perft(NewGame(), depth)
		if err != nil {
			t.Fatalf("Perft(%d): %v", depth, err)
		}
		if got != n {
			t.Fatalf("Perft(%d) = %d want %d", depth, got, n)
		}
	}
}

func TestPerftDivideSumsToPerft(t *testing.T) {
	g := NewGame()
	div, err := PerftDivide(g, 2)
	if err != nil {
		t.Fatalf("PerftDivide: %v", err)
	}
	var sum uint64
	for m, n := range div {
		if n != 20 {
			t.Fatalf("%s: got %d want 20", m, n)
		}
		sum += n
	}
	if len(div) != 20 || sum != 400 {
		t.Fatalf("divide: %d roots, %d nodes", len(div), sum)
	}
}
