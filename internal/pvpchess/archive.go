package pvpchess

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/cheese-chess/internal/domain"
	"github.com/park285/cheese-chess/internal/obslog"
)

// Record converts a finished game into its archive form.
func (g *Game) Record() *domain.GameRecord {
	rec := &domain.GameRecord{
		GameID:     g.ID,
		WhiteID:    g.WhiteID,
		WhiteName:  g.WhiteName,
		BlackID:    g.BlackID,
		BlackName:  g.BlackName,
		OriginRoom: g.OriginRoom,
		MovesUCI:   append([]string(nil), g.MovesUCI...),
		MovesSAN:   append([]string(nil), g.MovesSAN...),
		FinalFEN:   g.FEN,
		StartedAt:  g.CreatedAt,
		EndedAt:    g.UpdatedAt,
	}
	switch g.Outcome {
	case string(White):
		rec.Result = domain.ResultWhite
	case string(Black):
		rec.Result = domain.ResultBlack
	case "draw":
		rec.Result = domain.ResultDraw
	}
	switch g.Method {
	case "checkmate":
		rec.Method = domain.MethodCheckmate
	case "stalemate":
		rec.Method = domain.MethodStalemate
	case "resign":
		rec.Method = domain.MethodResign
	}
	return rec
}

// persistIfFinal saves the final game result to the archive if one is attached.
// Failures are logged; the live record in Redis already carries the result.
func (m *Manager) persistIfFinal(ctx context.Context, g *Game) error {
	if m == nil || m.archive == nil || g == nil || g.Status == StatusActive {
		return nil
	}
	if err := m.archive.SaveResult(ctx, g.Record()); err != nil {
		obslog.L().Error("pvp_result_persist_error", zap.String("game_id", g.ID), zap.String("outcome", g.Outcome), zap.Error(err))
		return err
	}
	obslog.L().Info("pvp_result_persist", zap.String("game_id", g.ID), zap.String("outcome", g.Outcome), zap.String("method", g.Method))
	return nil
}

// History returns userID's most recent archived games, newest first.
func (m *Manager) History(ctx context.Context, userID string, limit int) ([]*domain.GameRecord, error) {
	if m == nil || m.archive == nil {
		return nil, ErrNotInitialized
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidArgs
	}
	return m.archive.RecentByPlayer(ctx, userID, limit)
}
