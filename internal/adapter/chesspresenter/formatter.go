package chesspresenter

import (
	"strings"
	"time"

	"github.com/park285/cheese-chess/internal/msgcat"
	"github.com/park285/cheese-chess/internal/util"
	"github.com/park285/cheese-chess/pkg/chessdto"
)

const (
	recentMovesLimit    = 6
	capturedRecentLimit = 5
)

var errorKeys = map[string]string{
	chessdto.CodeNoGame:        "game.none",
	chessdto.CodeNotYourTurn:   "move.not_your_turn",
	chessdto.CodeIllegalMove:   "move.illegal",
	chessdto.CodeMalformedMove: "move.malformed",
	chessdto.CodeConflict:      "move.conflict",
	chessdto.CodeGameOver:      "game.finished",
	chessdto.CodeBadSquare:     "hint.bad_square",
	chessdto.CodeLobbyNotFound: "lobby.not_found",
	chessdto.CodeLobbyActive:   "lobby.active",
	chessdto.CodeLobbyWaiting:  "lobby.waiting",
	chessdto.CodeLobbyFull:     "lobby.full",
	chessdto.CodeSelfJoin:      "lobby.self_join",
	chessdto.CodeBusy:          "lobby.busy",
	chessdto.CodeNoArchive:     "history.unavailable",
}

// Formatter renders chess DTOs into Kakao-friendly text blocks.
type Formatter struct {
	cat    *msgcat.Catalog
	prefix string
}

func NewFormatter(cat *msgcat.Catalog, prefix string) *Formatter {
	return &Formatter{cat: cat, prefix: strings.TrimSpace(prefix)}
}

func (f *Formatter) Prefix() string {
	if f == nil {
		return ""
	}
	return f.prefix
}

func (f *Formatter) render(key string, data map[string]any) string {
	if f == nil || f.cat == nil {
		return key
	}
	return f.cat.MustRender(key, data)
}

func (f *Formatter) Help() string {
	return util.ApplySeeMoreWithHeader(f.render("help", map[string]any{"Prefix": f.Prefix()}))
}

func (f *Formatter) RoomNotAllowed() string {
	return f.render("error.room_not_allowed", nil)
}

func (f *Formatter) LobbyCreated(code, color string) string {
	return f.render("lobby.created", map[string]any{"Code": code, "Color": f.colorName(color), "Prefix": f.Prefix()})
}

func (f *Formatter) LobbyJoined(view *chessdto.GameView) string {
	if view == nil {
		return ""
	}
	return f.render("lobby.joined", map[string]any{"White": view.WhiteName, "Black": view.BlackName})
}

func (f *Formatter) LobbyCancelled(code string) string {
	return f.render("lobby.cancelled", map[string]any{"Code": code})
}

func (f *Formatter) LobbyList(entries []chessdto.LobbyEntry) string {
	if len(entries) == 0 {
		return f.render("lobby.list_empty", nil)
	}
	lines := []string{f.render("lobby.list_header", map[string]any{"Count": len(entries)})}
	for _, e := range entries {
		lines = append(lines, f.render("lobby.list_item", map[string]any{"Code": e.Code, "Creator": e.CreatorName}))
	}
	return strings.Join(lines, "\n")
}

// Move describes an applied move, then check or the final result.
func (f *Formatter) Move(summary *chessdto.MoveSummary) string {
	if summary == nil || summary.View == nil {
		return ""
	}
	view := summary.View
	lines := []string{f.render("move.played", map[string]any{
		"Player": summary.Player,
		"SAN":    summary.PlayerSAN,
		"Turn":   f.turnLabel(view),
	})}
	switch {
	case summary.Finished:
		lines = append(lines, f.outcome(view))
	case summary.Check:
		lines = append(lines, f.render("move.check", map[string]any{"Turn": f.colorName(view.Turn)}))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) Status(view *chessdto.GameView) string {
	if view == nil {
		return f.render("game.none", nil)
	}
	lines := []string{f.render("game.status", map[string]any{
		"White": view.WhiteName,
		"Black": view.BlackName,
		"Plies": view.MoveCount,
		"Turn":  f.turnLabel(view),
	})}
	if len(view.MovesSAN) > 0 {
		lines = append(lines, f.render("game.recent", map[string]any{"Moves": formatRecentMoves(view.MovesSAN)}))
	}
	lines = append(lines, f.render("game.material", map[string]any{"White": view.Material.White, "Black": view.Material.Black}))
	if captured := f.formatCaptured(view.Captured); captured != "" {
		lines = append(lines, f.render("game.captured", map[string]any{"Captured": captured}))
	}
	if view.Finished() {
		lines = append(lines, f.outcome(view))
	} else if view.InCheck {
		lines = append(lines, f.render("move.check", map[string]any{"Turn": f.colorName(view.Turn)}))
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) Resign(view *chessdto.GameView) string {
	if view == nil {
		return ""
	}
	return f.outcome(view)
}

func (f *Formatter) Hint(h *chessdto.HintView) string {
	if h == nil {
		return ""
	}
	if len(h.Targets) == 0 {
		return f.render("hint.none", map[string]any{"Square": h.Square})
	}
	return f.render("hint.moves", map[string]any{"Square": h.Square, "Targets": strings.Join(h.Targets, ", ")})
}

// History lists recent archived games behind Kakao's "see more" fold.
func (f *Formatter) History(h *chessdto.PlayerHistory) string {
	if h == nil || len(h.Games) == 0 {
		return f.render("history.empty", nil)
	}
	header := f.render("history.header", nil)
	lines := []string{f.render("history.tally", map[string]any{"Wins": h.Wins, "Losses": h.Losses, "Draws": h.Draws})}
	for _, g := range h.Games {
		lines = append(lines, f.render("history.item", map[string]any{
			"Date":     formatShortTime(g.EndedAt),
			"Result":   f.render("result."+g.Result, nil),
			"Opponent": g.Opponent,
			"Method":   f.methodName(g.Method),
			"Plies":    len(g.MovesSAN),
		}))
	}
	return util.ApplyKakaoSeeMorePadding(strings.Join(lines, "\n"), header)
}

// Error renders err as a user message.
func (f *Formatter) Error(err error) string {
	de := ToDomainError(err)
	key, ok := errorKeys[de.Code]
	if !ok {
		return f.render("error.generic", nil)
	}
	return f.render(key, map[string]any{"Code": de.Detail})
}

// outcome renders the terminal line of a finished game.
func (f *Formatter) outcome(view *chessdto.GameView) string {
	switch view.Method {
	case "checkmate":
		return f.render("game.checkmate", map[string]any{"Winner": view.PlayerName(view.Outcome)})
	case "stalemate":
		return f.render("game.stalemate", nil)
	case "resign":
		return f.render("game.resigned", map[string]any{
			"Winner": view.PlayerName(view.Outcome),
			"Loser":  view.PlayerName(otherColor(view.Outcome)),
		})
	default:
		return f.render("game.finished", nil)
	}
}

// turnLabel is "<color> (<name>)" of the side to move.
func (f *Formatter) turnLabel(view *chessdto.GameView) string {
	return f.colorName(view.Turn) + " (" + view.PlayerName(view.Turn) + ")"
}

func (f *Formatter) colorName(c string) string {
	switch c {
	case "white", "black", "random":
		return f.render("color."+c, nil)
	default:
		return c
	}
}

func (f *Formatter) methodName(m string) string {
	switch m {
	case "checkmate", "stalemate", "resign":
		return f.render("method."+m, nil)
	default:
		return m
	}
}

func (f *Formatter) formatCaptured(captured chessdto.CapturedPieces) string {
	white := formatCapturedSequence(recentPieces(captured.White, capturedRecentLimit))
	black := formatCapturedSequence(recentPieces(captured.Black, capturedRecentLimit))
	var parts []string
	if white != "" {
		parts = append(parts, f.colorName("white")+" "+white)
	}
	if black != "" {
		parts = append(parts, f.colorName("black")+" "+black)
	}
	return strings.Join(parts, " / ")
}

func otherColor(c string) string {
	if c == "white" {
		return "black"
	}
	return "white"
}

func formatRecentMoves(moves []string) string {
	if len(moves) <= recentMovesLimit {
		return strings.Join(moves, " ")
	}
	return "… " + strings.Join(moves[len(moves)-recentMovesLimit:], " ")
}

func formatShortTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return util.FormatKST(t, "01-02 15:04")
}

func formatCapturedSequence(order []string) string {
	tokens := make([]string, 0, len(order))
	for _, token := range order {
		if symbol := capturedSymbol(token); symbol != "" {
			tokens = append(tokens, symbol)
		}
	}
	return strings.Join(tokens, " ")
}

func capturedSymbol(piece string) string {
	switch strings.ToLower(strings.TrimSpace(piece)) {
	case "queen", "q":
		return "Q"
	case "rook", "r":
		return "R"
	case "bishop", "b":
		return "B"
	case "knight", "n":
		return "N"
	case "pawn", "p":
		return "P"
	default:
		return ""
	}
}

// recentPieces returns the last limit entries, newest first.
func recentPieces(order []string, limit int) []string {
	if len(order) > limit {
		order = order[len(order)-limit:]
	}
	result := make([]string, len(order))
	for i := range order {
		result[i] = order[len(order)-1-i]
	}
	return result
}
