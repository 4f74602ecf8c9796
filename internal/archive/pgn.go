package archive

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/cheese-chess/internal/chess"
	"github.com/park285/cheese-chess/internal/domain"
)

// BuildPGN renders rec as PGN from its SAN list.
func BuildPGN(rec *domain.GameRecord) string {
	if rec == nil {
		return ""
	}
	var b strings.Builder
	date := rec.EndedAt
	if date.IsZero() {
		date = time.Now()
	}
	result := rec.PGNResult()

	b.WriteString("[Event \"KakaoPvP\"]\n")
	b.WriteString("[Site \"Iris\"]\n")
	fmt.Fprintf(&b, "[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day())
	fmt.Fprintf(&b, "[White \"%s\"]\n", sanitizePGN(rec.WhiteName))
	fmt.Fprintf(&b, "[Black \"%s\"]\n", sanitizePGN(rec.BlackName))
	if m := strings.TrimSpace(rec.Method); m != "" {
		fmt.Fprintf(&b, "[Termination \"%s\"]\n", sanitizePGN(strings.ToLower(m)))
	}
	fmt.Fprintf(&b, "[Result \"%s\"]\n\n", result)

	for i := 0; i < len(rec.MovesSAN); i += 2 {
		fmt.Fprintf(&b, "%d. %s", i/2+1, strings.TrimSpace(rec.MovesSAN[i]))
		if i+1 < len(rec.MovesSAN) {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(rec.MovesSAN[i+1]))
		}
		b.WriteString(" ")
	}
	b.WriteString(result)
	return b.String()
}

// ReplaySAN rebuilds the SAN list from coordinate moves played from the
// standard start. Used when a record arrives without SAN.
func ReplaySAN(movesUCI []string) ([]string, error) {
	g := chess.NewGame()
	out := make([]string, 0, len(movesUCI))
	for i, s := range movesUCI {
		m, err := chess.ParseMove(s)
		if err != nil {
			return nil, fmt.Errorf("ply %d: %w", i+1, err)
		}
		san, err := g.SAN(m)
		if err != nil {
			return nil, fmt.Errorf("ply %d: %w", i+1, err)
		}
		if err := g.MakeMove(m); err != nil {
			return nil, fmt.Errorf("ply %d: %w", i+1, err)
		}
		out = append(out, san)
	}
	return out, nil
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
