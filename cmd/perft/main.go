package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/park285/cheese-chess/internal/chess"
)

func main() {
	fen := flag.String("fen", chess.StartFEN, "FEN string (defaults to initial position)")
	depth := flag.Int("depth", 0, "Perft depth (required)")
	divide := flag.Bool("divide", false, "Print per-move node counts at root")
	jobs := flag.Int("jobs", runtime.NumCPU(), "Root moves searched in parallel")
	flag.Parse()

	if *depth <= 0 {
		fmt.Fprintln(os.Stderr, "-depth must be > 0")
		os.Exit(2)
	}
	game, err := chess.ParseFEN(*fen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ParseFEN error: %v\n", err)
		os.Exit(2)
	}

	start := time.Now()
	counts, err := divideParallel(game, *depth, *jobs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "perft error: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	moves := make([]chess.Move, 0, len(counts))
	var total uint64
	for m, n := range counts {
		moves = append(moves, m)
		total += n
	}
	if *divide {
		sort.Slice(moves, func(i, j int) bool { return moves[i].String() < moves[j].String() })
		for _, m := range moves {
			fmt.Printf("%s: %d\n", m, counts[m])
		}
	}
	nps := uint64(0)
	if secs := elapsed.Seconds(); secs > 0 {
		nps = uint64(float64(total) / secs)
	}
	fmt.Printf("Total: %d (%s nodes, %s, %s nps)\n", total, humanize.Comma(int64(total)), elapsed.Round(time.Millisecond), humanize.Comma(int64(nps)))
}

// divideParallel runs PerftDivide's per-root work on independent game copies.
func divideParallel(g *chess.Game, depth, jobs int) (map[chess.Move]uint64, error) {
	roots, err := g.LegalMoves(g.Turn())
	if err != nil {
		return nil, err
	}
	var (
		mu  sync.Mutex
		out = make(map[chess.Move]uint64, len(roots))
		eg  errgroup.Group
	)
	if jobs > 0 {
		eg.SetLimit(jobs)
	}
	for _, m := range roots {
		eg.Go(func() error {
			next := g.Clone()
			if err := next.MakeMove(m); err != nil {
				return err
			}
			n, err := chess.Perft(next, depth-1)
			if err != nil {
				return err
			}
			mu.Lock()
			out[m] = n
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
