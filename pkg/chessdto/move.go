package chessdto

// MoveSummary describes one applied move.
type MoveSummary struct {
	View      *GameView
	Player    string
	PlayerSAN string
	PlayerUCI string
	Check     bool
	Finished  bool
}

// HintView lists the destinations of one piece.
type HintView struct {
	View    *GameView
	Square  string
	Targets []string
}
