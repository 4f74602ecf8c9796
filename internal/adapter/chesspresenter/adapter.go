package chesspresenter

import (
	"github.com/park285/cheese-chess/internal/domain"
	"github.com/park285/cheese-chess/internal/pvpchan"
	"github.com/park285/cheese-chess/pkg/chessdto"
)

// Player-side results in ArchivedGame.
const (
	ResultWin  = "win"
	ResultLoss = "loss"
	ResultDraw = "draw"
)

func ToLobbyEntries(list []*pvpchan.ChannelMeta) []chessdto.LobbyEntry {
	out := make([]chessdto.LobbyEntry, 0, len(list))
	for _, m := range list {
		if m == nil {
			continue
		}
		out = append(out, chessdto.LobbyEntry{Code: m.ID, CreatorName: m.CreatorName, CreatorRoom: m.CreatorRoom})
	}
	return out
}

// ToPlayerHistory converts archived records into playerID's history.
func ToPlayerHistory(playerID string, recs []*domain.GameRecord) *chessdto.PlayerHistory {
	tally := domain.Tally(playerID, recs)
	out := &chessdto.PlayerHistory{
		PlayerID: playerID,
		Wins:     tally.Wins,
		Losses:   tally.Losses,
		Draws:    tally.Draws,
		Games:    make([]*chessdto.ArchivedGame, 0, len(recs)),
	}
	for _, r := range recs {
		if r == nil || !r.Involves(playerID) {
			continue
		}
		out.Games = append(out.Games, toArchivedGame(playerID, r))
	}
	return out
}

func toArchivedGame(playerID string, r *domain.GameRecord) *chessdto.ArchivedGame {
	white := r.WhiteID == playerID
	g := &chessdto.ArchivedGame{
		GameID:    r.GameID,
		WhiteName: r.WhiteName,
		BlackName: r.BlackName,
		Opponent:  r.BlackName,
		Method:    r.Method,
		MovesSAN:  append([]string(nil), r.MovesSAN...),
		PGN:       r.PGN,
		StartedAt: r.StartedAt,
		EndedAt:   r.EndedAt,
		Duration:  r.Duration(),
	}
	if !white {
		g.Opponent = r.WhiteName
	}
	switch {
	case r.Result == domain.ResultDraw:
		g.Result = ResultDraw
	case (r.Result == domain.ResultWhite) == white:
		g.Result = ResultWin
	default:
		g.Result = ResultLoss
	}
	return g
}
