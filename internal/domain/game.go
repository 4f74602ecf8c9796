package domain

import "time"

// Game results from white's point of view.
const (
	ResultWhite = "white"
	ResultBlack = "black"
	ResultDraw  = "draw"
)

// Termination methods.
const (
	MethodCheckmate = "checkmate"
	MethodStalemate = "stalemate"
	MethodResign    = "resign"
)

// GameRecord is a finished PvP game as archived.
type GameRecord struct {
	GameID     string    `json:"game_id"`
	WhiteID    string    `json:"white_id"`
	WhiteName  string    `json:"white_name"`
	BlackID    string    `json:"black_id"`
	BlackName  string    `json:"black_name"`
	OriginRoom string    `json:"origin_room"`
	Result     string    `json:"result"`
	Method     string    `json:"method"`
	MovesUCI   []string  `json:"moves_uci"`
	MovesSAN   []string  `json:"moves_san"`
	FinalFEN   string    `json:"final_fen"`
	PGN        string    `json:"pgn"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
}

func (r *GameRecord) Duration() time.Duration {
	d := r.EndedAt.Sub(r.StartedAt)
	if d < 0 {
		return 0
	}
	return d
}

// PGNResult maps Result to the PGN result token.
func (r *GameRecord) PGNResult() string {
	switch r.Result {
	case ResultWhite:
		return "1-0"
	case ResultBlack:
		return "0-1"
	case ResultDraw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// Involves reports whether playerID played either side.
func (r *GameRecord) Involves(playerID string) bool {
	return playerID != "" && (r.WhiteID == playerID || r.BlackID == playerID)
}

// Record tallies a player's archived results.
type Record struct {
	Wins   int
	Losses int
	Draws  int
}

// Tally counts wins, losses and draws for playerID across records.
func Tally(playerID string, records []*GameRecord) Record {
	var out Record
	for _, r := range records {
		if r == nil || !r.Involves(playerID) {
			continue
		}
		switch {
		case r.Result == ResultDraw:
			out.Draws++
		case (r.Result == ResultWhite) == (r.WhiteID == playerID):
			out.Wins++
		default:
			out.Losses++
		}
	}
	return out
}
