package pvpchess

import (
	"errors"
	"time"

	"github.com/park285/cheese-chess/internal/chess"
)

// Color identifies chess side.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func colorOf(c chess.Color) Color {
	if c == chess.White {
		return White
	}
	return Black
}

func (c Color) engine() chess.Color {
	if c == Black {
		return chess.Black
	}
	return chess.White
}

// Status represents a PvP game lifecycle state.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusFinished Status = "FINISHED"
	StatusResigned Status = "RESIGNED"
	StatusDraw     Status = "DRAW"
)

// Game is the persisted state of a PvP match. FEN is authoritative; the move
// lists are kept for display and archiving.
type Game struct {
	ID          string    `json:"id"`
	FEN         string    `json:"fen"`
	MovesUCI    []string  `json:"moves_uci"`
	MovesSAN    []string  `json:"moves_san"`
	Turn        Color     `json:"turn"`
	Status      Status    `json:"status"`
	WhiteID     string    `json:"white_id"`
	WhiteName   string    `json:"white_name"`
	BlackID     string    `json:"black_id"`
	BlackName   string    `json:"black_name"`
	Challenger  string    `json:"challenger_id"`
	OriginRoom  string    `json:"origin_room"`
	ResolveRoom string    `json:"resolve_room"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Winner      string    `json:"winner,omitempty"`
	Outcome     string    `json:"outcome,omitempty"`
	Method      string    `json:"method,omitempty"`
	// 잡은 기물: CapturedByWhite는 백이 잡은 흑 기물
	CapturedByWhite []string `json:"captured_by_white,omitempty"`
	CapturedByBlack []string `json:"captured_by_black,omitempty"`
}

// InRoom reports whether room is one of the game's two rooms.
func (g *Game) InRoom(room string) bool {
	return room != "" && (g.OriginRoom == room || g.ResolveRoom == room)
}

// Rooms lists the distinct rooms the game is bound to.
func (g *Game) Rooms() []string {
	out := []string{g.OriginRoom}
	if g.ResolveRoom != "" && g.ResolveRoom != g.OriginRoom {
		out = append(out, g.ResolveRoom)
	}
	return out
}

// ViewerIn returns the participant who plays from room: the challenger in the
// origin room, the opponent in the other one. When both share a room the
// board is shown from fallback's side.
func (g *Game) ViewerIn(room, fallback string) string {
	if g.OriginRoom == g.ResolveRoom || g.Challenger == "" {
		return fallback
	}
	switch room {
	case g.OriginRoom:
		return g.Challenger
	case g.ResolveRoom:
		return g.opponentID(g.Challenger)
	default:
		return fallback
	}
}

// ColorOf returns the side userID plays, or "" for outsiders.
func (g *Game) ColorOf(userID string) Color {
	switch userID {
	case "":
		return ""
	case g.WhiteID:
		return White
	case g.BlackID:
		return Black
	default:
		return ""
	}
}

func (g *Game) NameOf(c Color) string {
	if c == Black {
		return g.BlackName
	}
	return g.WhiteName
}

func (g *Game) opponentID(userID string) string {
	switch userID {
	case g.WhiteID:
		return g.BlackID
	case g.BlackID:
		return g.WhiteID
	default:
		return ""
	}
}

// Challenge describes the two players of a new game.
type Challenge struct {
	OriginRoom     string
	ResolveRoom    string
	ChallengerID   string
	ChallengerName string
	TargetID       string
	TargetName     string
	// Color is the challenger's preference: white, black, or anything else for random.
	Color string
}

// MoveResult is returned by PlayMove.
type MoveResult struct {
	Game  *Game
	Move  chess.Move
	SAN   string
	Mover Color
	Check bool
}

func (r *MoveResult) Finished() bool { return r != nil && r.Game != nil && r.Game.Status != StatusActive }

// HintResult is returned by ValidMoves.
type HintResult struct {
	Game   *Game
	Square chess.Square
	Moves  []chess.Move
}

var (
	ErrNotInitialized = errors.New("pvp manager not initialized")
	ErrInvalidArgs    = errors.New("invalid arguments")
	ErrNoActiveGame   = errors.New("no active game")
	ErrNotParticipant = errors.New("user not in game")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrIllegalMove    = errors.New("illegal move")
	ErrMalformedMove  = errors.New("malformed move")
	ErrBadSquare      = errors.New("bad square")
	ErrConflict       = errors.New("concurrent update")
	ErrGameOver       = errors.New("game no longer active")
)
