package chessdto

import "time"

// ArchivedGame is one finished game seen from the player whose history it is.
// Result is win, loss or draw from that player's side.
type ArchivedGame struct {
	GameID    string
	WhiteName string
	BlackName string
	Opponent  string
	Result    string
	Method    string
	MovesSAN  []string
	PGN       string
	StartedAt time.Time
	EndedAt   time.Time
	Duration  time.Duration
}

// PlayerHistory is a player's recent archived games with a result tally.
type PlayerHistory struct {
	PlayerID string
	Wins     int
	Losses   int
	Draws    int
	Games    []*ArchivedGame
}
