package archive

import (
	"context"
	"sort"
	"sync"

	"github.com/park285/cheese-chess/internal/domain"
)

// memory is the in-process archive used in development and tests.
type memory struct {
	mu    sync.RWMutex
	games map[string]*domain.GameRecord
}

func NewMemory() Repository {
	return &memory{games: make(map[string]*domain.GameRecord)}
}

func (m *memory) SaveResult(_ context.Context, rec *domain.GameRecord) error {
	if err := prepare(rec); err != nil {
		return err
	}
	cp := cloneRecord(rec)
	m.mu.Lock()
	m.games[rec.GameID] = cp
	m.mu.Unlock()
	return nil
}

func (m *memory) Get(_ context.Context, gameID string) (*domain.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[gameID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(g), nil
}

func (m *memory) RecentByPlayer(_ context.Context, playerID string, limit int) ([]*domain.GameRecord, error) {
	limit = clampLimit(limit)
	m.mu.RLock()
	items := make([]*domain.GameRecord, 0)
	for _, g := range m.games {
		if g.Involves(playerID) {
			items = append(items, cloneRecord(g))
		}
	}
	m.mu.RUnlock()
	sortRecent(items)
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memory) Close() error { return nil }

// sortRecent orders by EndedAt desc, then GameID for stability.
func sortRecent(items []*domain.GameRecord) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].GameID < items[j].GameID
	})
}

func cloneRecord(r *domain.GameRecord) *domain.GameRecord {
	cp := *r
	cp.MovesUCI = append([]string(nil), r.MovesUCI...)
	cp.MovesSAN = append([]string(nil), r.MovesSAN...)
	return &cp
}
