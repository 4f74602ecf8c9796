package chessdto

type MaterialScore struct {
	White int
	Black int
}

type CapturedPieces struct {
	White []string
	Black []string
}

// GameView is a snapshot of a live PvP game prepared for presentation.
type GameView struct {
	GameID     string
	WhiteID    string
	WhiteName  string
	BlackID    string
	BlackName  string
	Turn       string
	Status     string
	Outcome    string
	Method     string
	Winner     string
	InCheck    bool
	MovesSAN   []string
	MovesUCI   []string
	FEN        string
	BoardImage []byte
	MoveCount  int
	Material   MaterialScore
	Captured   CapturedPieces
}

// PlayerName returns the display name of the given side.
func (v *GameView) PlayerName(color string) string {
	if v == nil {
		return ""
	}
	if color == "black" {
		return v.BlackName
	}
	return v.WhiteName
}

// Finished reports whether the game reached a terminal status.
func (v *GameView) Finished() bool {
	return v != nil && v.Status != "" && v.Status != "ACTIVE"
}
