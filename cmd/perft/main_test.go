package main

import (
	"testing"

	"github.com/park285/cheese-chess/internal/chess"
)

func TestDivideParallelMatchesPerftDivide(t *testing.T) {
	g := chess.NewGame()
	want, err := chess.PerftDivide(g, 3)
	if err != nil {
		t.Fatalf("PerftDivide: %v", err)
	}
	got, err := divideParallel(g, 3, 4)
	if err != nil {
		t.Fatalf("divideParallel: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("root moves %d, want %d", len(got), len(want))
	}
	var total uint64
	for m, n := range want {
		if got[m] != n {
			t.Fatalf("%s: %d, want %d", m, got[m], n)
		}
		total += n
	}
	if total != 8902 {
		t.Fatalf("perft(3) = %d, want 8902", total)
	}
	if g.FEN() != chess.StartFEN {
		t.Fatalf("root game mutated: %s", g.FEN())
	}
}
