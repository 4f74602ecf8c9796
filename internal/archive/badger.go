package archive

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/park285/cheese-chess/internal/domain"
)

// Key layout:
//
//	game:<gameID>                               → JSON record
//	player:<hex playerID>:<endedAt ns, 20 digits>:<gameID> → gameID
const (
	gamePrefix   = "game:"
	playerPrefix = "player:"
)

type badgerRepo struct {
	db *badger.DB
}

// NewBadger opens (or creates) a Badger archive in dir. An empty dir opens
// an in-memory store.
func NewBadger(dir string) (Repository, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &badgerRepo{db: db}, nil
}

func (r *badgerRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func gameKey(id string) []byte { return []byte(gamePrefix + id) }

func playerKeyPrefix(playerID string) []byte {
	return []byte(playerPrefix + hex.EncodeToString([]byte(playerID)) + ":")
}

func playerKey(playerID string, rec *domain.GameRecord) []byte {
	return append(playerKeyPrefix(playerID), []byte(fmt.Sprintf("%020d:%s", rec.EndedAt.UnixNano(), rec.GameID))...)
}

func indexKeys(rec *domain.GameRecord) [][]byte {
	var keys [][]byte
	for _, id := range []string{rec.WhiteID, rec.BlackID} {
		if id != "" {
			keys = append(keys, playerKey(id, rec))
		}
	}
	return keys
}

func (r *badgerRepo) SaveResult(_ context.Context, rec *domain.GameRecord) error {
	if err := prepare(rec); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		// 덮어쓰기 전 기존 인덱스 제거
		prev, err := getRecord(txn, rec.GameID)
		switch {
		case err == nil:
			for _, k := range indexKeys(prev) {
				if err := txn.Delete(k); err != nil {
					return err
				}
			}
		case !errors.Is(err, ErrNotFound):
			return err
		}
		if err := txn.Set(gameKey(rec.GameID), data); err != nil {
			return err
		}
		for _, k := range indexKeys(rec) {
			if err := txn.Set(k, []byte(rec.GameID)); err != nil {
				return err
			}
		}
		return nil
	})
}

func getRecord(txn *badger.Txn, gameID string) (*domain.GameRecord, error) {
	item, err := txn.Get(gameKey(gameID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec domain.GameRecord
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", gameID, err)
	}
	return &rec, nil
}

func (r *badgerRepo) Get(_ context.Context, gameID string) (*domain.GameRecord, error) {
	var rec *domain.GameRecord
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = getRecord(txn, gameID)
		return err
	})
	return rec, err
}

func (r *badgerRepo) RecentByPlayer(ctx context.Context, playerID string, limit int) ([]*domain.GameRecord, error) {
	limit = clampLimit(limit)
	prefix := playerKeyPrefix(playerID)
	out := make([]*domain.GameRecord, 0, limit)
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte(nil), prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(out) < limit; it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var gameID string
			if err := it.Item().Value(func(val []byte) error {
				gameID = string(val)
				return nil
			}); err != nil {
				return err
			}
			rec, err := getRecord(txn, gameID)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
