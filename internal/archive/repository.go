package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/cheese-chess/internal/config"
	"github.com/park285/cheese-chess/internal/domain"
)

var (
	ErrNotFound      = errors.New("archived game not found")
	ErrInvalidRecord = errors.New("invalid game record")
)

const defaultRecentLimit = 10

// Repository stores finished games. SaveResult is an upsert keyed by GameID.
type Repository interface {
	SaveResult(ctx context.Context, rec *domain.GameRecord) error
	Get(ctx context.Context, gameID string) (*domain.GameRecord, error)
	RecentByPlayer(ctx context.Context, playerID string, limit int) ([]*domain.GameRecord, error)
	Close() error
}

// Open picks the backend named by cfg.ArchiveBackend.
func Open(ctx context.Context, cfg *config.AppConfig) (Repository, error) {
	switch strings.ToLower(cfg.ArchiveBackend) {
	case config.ArchivePostgres:
		return NewPostgres(ctx, cfg.DatabaseURL)
	case config.ArchiveBadger:
		return NewBadger(cfg.ArchiveDir)
	case config.ArchiveMemory, "":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.ArchiveBackend)
	}
}

// prepare validates rec and fills timestamps, SAN and PGN when missing.
func prepare(rec *domain.GameRecord) error {
	if rec == nil || strings.TrimSpace(rec.GameID) == "" {
		return ErrInvalidRecord
	}
	if rec.EndedAt.IsZero() {
		rec.EndedAt = time.Now()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = rec.EndedAt
	}
	if len(rec.MovesSAN) == 0 && len(rec.MovesUCI) > 0 {
		san, err := ReplaySAN(rec.MovesUCI)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
		}
		rec.MovesSAN = san
	}
	if rec.PGN == "" {
		rec.PGN = BuildPGN(rec)
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultRecentLimit
	}
	return limit
}
