package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/park285/cheese-chess/internal/domain"
	"github.com/park285/cheese-chess/internal/obslog"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS pvp_games (
	game_id       TEXT PRIMARY KEY,
	white_id      TEXT NOT NULL,
	white_name    TEXT NOT NULL DEFAULT '',
	black_id      TEXT NOT NULL,
	black_name    TEXT NOT NULL DEFAULT '',
	origin_room   TEXT NOT NULL DEFAULT '',
	result        TEXT NOT NULL,
	result_method TEXT NOT NULL DEFAULT '',
	moves_uci     JSONB NOT NULL DEFAULT '[]',
	moves_san     JSONB NOT NULL DEFAULT '[]',
	final_fen     TEXT NOT NULL DEFAULT '',
	pgn           TEXT NOT NULL DEFAULT '',
	started_at    TIMESTAMPTZ NOT NULL,
	ended_at      TIMESTAMPTZ NOT NULL,
	duration_ms   BIGINT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS pvp_games_white_idx ON pvp_games (white_id, ended_at DESC);
CREATE INDEX IF NOT EXISTS pvp_games_black_idx ON pvp_games (black_id, ended_at DESC);`

const selectColumns = `game_id, white_id, white_name, black_id, black_name, origin_room,
	result, result_method, moves_uci, moves_san, final_fen, pgn, started_at, ended_at`

type postgres struct {
	db *sql.DB
}

// NewPostgres opens the pool, pings and ensures the schema.
func NewPostgres(ctx context.Context, databaseURL string) (Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &postgres{db: db}, nil
}

func (r *postgres) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult upserts a final PvP game result into the database.
func (r *postgres) SaveResult(ctx context.Context, rec *domain.GameRecord) error {
	if err := prepare(rec); err != nil {
		return err
	}
	movesUCI, err := json.Marshal(nonNil(rec.MovesUCI))
	if err != nil {
		return fmt.Errorf("marshal moves_uci: %w", err)
	}
	movesSAN, err := json.Marshal(nonNil(rec.MovesSAN))
	if err != nil {
		return fmt.Errorf("marshal moves_san: %w", err)
	}

	const q = `INSERT INTO pvp_games (
		game_id, white_id, white_name, black_id, black_name, origin_room,
		result, result_method, moves_uci, moves_san, final_fen, pgn,
		started_at, ended_at, duration_ms
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::jsonb,$10::jsonb,$11,$12,$13,$14,$15)
	ON CONFLICT (game_id) DO UPDATE SET
		white_id=EXCLUDED.white_id,
		white_name=EXCLUDED.white_name,
		black_id=EXCLUDED.black_id,
		black_name=EXCLUDED.black_name,
		origin_room=EXCLUDED.origin_room,
		result=EXCLUDED.result,
		result_method=EXCLUDED.result_method,
		moves_uci=EXCLUDED.moves_uci,
		moves_san=EXCLUDED.moves_san,
		final_fen=EXCLUDED.final_fen,
		pgn=EXCLUDED.pgn,
		started_at=EXCLUDED.started_at,
		ended_at=EXCLUDED.ended_at,
		duration_ms=EXCLUDED.duration_ms`

	_, err = r.db.ExecContext(ctx, q,
		rec.GameID,
		rec.WhiteID, rec.WhiteName,
		rec.BlackID, rec.BlackName,
		rec.OriginRoom,
		rec.Result, strings.TrimSpace(rec.Method),
		string(movesUCI), string(movesSAN),
		rec.FinalFEN, rec.PGN,
		rec.StartedAt, rec.EndedAt, rec.Duration().Milliseconds(),
	)
	if err != nil {
		obslog.L().Warn("archive_save_failed", zap.String("backend", "postgres"), zap.String("game_id", rec.GameID), zap.Error(err))
		return fmt.Errorf("upsert pvp game: %w", err)
	}
	return nil
}

func (r *postgres) Get(ctx context.Context, gameID string) (*domain.GameRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM pvp_games WHERE game_id = $1`, gameID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rec, err
}

func (r *postgres) RecentByPlayer(ctx context.Context, playerID string, limit int) ([]*domain.GameRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM pvp_games
		WHERE white_id = $1 OR black_id = $1
		ORDER BY ended_at DESC, game_id
		LIMIT $2`, playerID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("select pvp games: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.GameRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*domain.GameRecord, error) {
	var (
		rec          domain.GameRecord
		movesUCIJSON []byte
		movesSANJSON []byte
	)
	err := s.Scan(
		&rec.GameID, &rec.WhiteID, &rec.WhiteName, &rec.BlackID, &rec.BlackName, &rec.OriginRoom,
		&rec.Result, &rec.Method, &movesUCIJSON, &movesSANJSON, &rec.FinalFEN, &rec.PGN,
		&rec.StartedAt, &rec.EndedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan pvp game: %w", err)
	}
	if err := json.Unmarshal(movesUCIJSON, &rec.MovesUCI); err != nil {
		return nil, fmt.Errorf("unmarshal moves_uci: %w", err)
	}
	if err := json.Unmarshal(movesSANJSON, &rec.MovesSAN); err != nil {
		return nil, fmt.Errorf("unmarshal moves_san: %w", err)
	}
	return &rec, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
