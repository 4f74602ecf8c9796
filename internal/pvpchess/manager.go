package pvpchess

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/cheese-chess/internal/archive"
	"github.com/park285/cheese-chess/internal/chess"
	"github.com/park285/cheese-chess/internal/obslog"
	"github.com/park285/cheese-chess/internal/render"
)

const defaultGameTTL = 24 * time.Hour

type Manager struct {
	rdb      *redis.Client
	renderer render.BoardRenderer
	archive  archive.Repository
	ttl      time.Duration
	now      func() time.Time
}

// NewManager builds a manager on an existing client. The client is shared
// with the lobby manager and is not closed by Close.
func NewManager(rdb *redis.Client) *Manager {
	return &Manager{
		rdb:      rdb,
		renderer: render.NewSVGBoardRenderer(),
		ttl:      defaultGameTTL,
		now:      time.Now,
	}
}

// AttachArchive wires a repository for persisting finished games.
func (m *Manager) AttachArchive(r archive.Repository) {
	if m != nil {
		m.archive = r
	}
}

// SetTTL changes how long game records and user indexes live in Redis.
func (m *Manager) SetTTL(d time.Duration) {
	if m != nil && d > 0 {
		m.ttl = d
	}
}

func (m *Manager) ready() error {
	if m == nil || m.rdb == nil {
		return ErrNotInitialized
	}
	return nil
}

// CreateGame starts a new game at the standard position.
func (m *Manager) CreateGame(ctx context.Context, c Challenge) (*Game, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	challengerID := strings.TrimSpace(c.ChallengerID)
	targetID := strings.TrimSpace(c.TargetID)
	if challengerID == "" || targetID == "" || challengerID == targetID {
		return nil, fmt.Errorf("%w: participants %q vs %q", ErrInvalidArgs, challengerID, targetID)
	}
	if strings.TrimSpace(c.OriginRoom) == "" {
		return nil, fmt.Errorf("%w: origin room required", ErrInvalidArgs)
	}

	whiteID, whiteName := challengerID, nameOr(c.ChallengerName, challengerID)
	blackID, blackName := targetID, nameOr(c.TargetName, targetID)
	switch strings.ToLower(strings.TrimSpace(c.Color)) {
	case "white", "w":
	case "black", "b":
		whiteID, whiteName, blackID, blackName = blackID, blackName, whiteID, whiteName
	default:
		if n, _ := rand.Int(rand.Reader, big.NewInt(2)); n != nil && n.Int64() == 0 {
			whiteID, whiteName, blackID, blackName = blackID, blackName, whiteID, whiteName
		}
	}

	now := m.now()
	resolve := strings.TrimSpace(c.ResolveRoom)
	if resolve == "" {
		resolve = strings.TrimSpace(c.OriginRoom)
	}
	g := &Game{
		ID:          "pvp-" + uuid.NewString(),
		FEN:         chess.StartFEN,
		MovesUCI:    []string{},
		MovesSAN:    []string{},
		Turn:        White,
		Status:      StatusActive,
		WhiteID:     whiteID,
		WhiteName:   whiteName,
		BlackID:     blackID,
		BlackName:   blackName,
		Challenger:  challengerID,
		OriginRoom:  strings.TrimSpace(c.OriginRoom),
		ResolveRoom: resolve,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := m.save(ctx, g); err != nil {
		return nil, err
	}
	if err := m.indexParticipants(ctx, g.ID, g.WhiteID, g.BlackID); err != nil {
		return nil, err
	}
	obslog.L().Info("pvp_game_create",
		zap.String("game_id", g.ID),
		zap.String("origin_room", g.OriginRoom),
		zap.String("resolve_room", g.ResolveRoom),
		zap.String("white_id", g.WhiteID),
		zap.String("black_id", g.BlackID),
	)
	return g, nil
}

func nameOr(name, fallback string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return fallback
}

// GetActiveGameByUser returns the most recently updated active game for a user, or nil.
func (m *Manager) GetActiveGameByUser(ctx context.Context, userID string) (*Game, error) {
	return m.activeGame(ctx, userID, "")
}

// GetActiveGameByUserInRoom narrows GetActiveGameByUser to games bound to room.
// 같은 사용자가 여러 방에서 동시에 대국할 수 있으므로 방 기준으로 고른다.
func (m *Manager) GetActiveGameByUserInRoom(ctx context.Context, userID, room string) (*Game, error) {
	room = strings.TrimSpace(room)
	if room == "" {
		return nil, nil
	}
	return m.activeGame(ctx, userID, room)
}

func (m *Manager) activeGame(ctx context.Context, userID, room string) (*Game, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}
	ids, err := m.rdb.SMembers(ctx, idxUserKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	var list []*Game
	for _, id := range ids {
		g, gerr := m.get(ctx, id)
		if gerr != nil || g == nil || g.Status != StatusActive {
			continue
		}
		if room != "" && !g.InRoom(room) {
			continue
		}
		list = append(list, g)
	}
	if len(list) == 0 {
		return nil, nil
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
	return list[0], nil
}

func (m *Manager) requireActive(ctx context.Context, userID, room string) (*Game, error) {
	var (
		g   *Game
		err error
	)
	if strings.TrimSpace(room) == "" {
		g, err = m.GetActiveGameByUser(ctx, userID)
	} else {
		g, err = m.GetActiveGameByUserInRoom(ctx, userID, room)
	}
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrNoActiveGame
	}
	return g, nil
}

// PlayMove applies a coordinate-notation move (e2e4, e7e8q) for userID in the
// game bound to room. The read-validate-write cycle runs under WATCH on the
// game key, so two requests racing on one game cannot both apply.
func (m *Manager) PlayMove(ctx context.Context, userID, room, text string) (*MoveResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrInvalidArgs
	}
	mv, err := chess.ParseMove(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMove, err)
	}
	g, err := m.requireActive(ctx, userID, room)
	if err != nil {
		return nil, err
	}

	gameK := gameKey(g.ID)
	var res *MoveResult
	txf := func(tx *redis.Tx) error {
		cur, err := loadTx(ctx, tx, gameK)
		if err != nil {
			return err
		}
		if cur.Status != StatusActive {
			return ErrGameOver
		}
		mover := cur.ColorOf(userID)
		if mover == "" {
			return ErrNotParticipant
		}
		if cur.Turn != mover {
			return ErrNotYourTurn
		}

		game, err := chess.ParseFEN(cur.FEN)
		if err != nil {
			return fmt.Errorf("game %s: %w", cur.ID, err)
		}
		if game.Turn() != mover.engine() {
			return fmt.Errorf("game %s: stored turn %s disagrees with FEN", cur.ID, cur.Turn)
		}
		san, err := game.SAN(mv)
		if err != nil {
			return illegal(mv, err)
		}
		board := game.Board()
		captured := board.Piece(mv.End)
		if err := game.MakeMove(mv); err != nil {
			return illegal(mv, err)
		}
		status, err := game.Status()
		if err != nil {
			return fmt.Errorf("game %s: %w", cur.ID, err)
		}

		cur.FEN = game.FEN()
		cur.Turn = colorOf(game.Turn())
		cur.MovesUCI = append(cur.MovesUCI, mv.String())
		cur.MovesSAN = append(cur.MovesSAN, san)
		cur.UpdatedAt = m.now()
		if !captured.IsEmpty() {
			if mover == White {
				cur.CapturedByWhite = append(cur.CapturedByWhite, captured.Type.String())
			} else {
				cur.CapturedByBlack = append(cur.CapturedByBlack, captured.Type.String())
			}
		}
		switch status {
		case chess.StatusCheckmate:
			cur.Status = StatusFinished
			cur.Winner = userID
			cur.Outcome = string(mover)
			cur.Method = "checkmate"
		case chess.StatusStalemate:
			cur.Status = StatusDraw
			cur.Outcome = "draw"
			cur.Method = "stalemate"
		}

		if err := m.writeTx(ctx, tx, cur); err != nil {
			return err
		}
		res = &MoveResult{Game: cur, Move: mv, SAN: san, Mover: mover, Check: status == chess.StatusCheck || status == chess.StatusCheckmate}
		return nil
	}
	// 트랜잭션 충돌 시 최신 상태로 한 번 더 판정
	for attempt := 1; attempt <= moveTxAttempts; attempt++ {
		err = m.rdb.Watch(ctx, txf, gameK)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, ErrConflict
		}
		if !errors.Is(err, ErrIllegalMove) && !errors.Is(err, ErrNotYourTurn) {
			obslog.L().Warn("pvp_move_error", zap.String("game_id", g.ID), zap.String("user_id", userID), zap.Error(err))
		}
		return nil, err
	}

	obslog.L().Info("pvp_move",
		zap.String("game_id", res.Game.ID),
		zap.String("user_id", userID),
		zap.String("uci", mv.String()),
		zap.String("san", res.SAN),
		zap.String("turn", string(res.Game.Turn)),
		zap.String("status", string(res.Game.Status)),
		zap.String("outcome", res.Game.Outcome),
	)
	if res.Finished() {
		_ = m.persistIfFinal(ctx, res.Game)
	}
	return res, nil
}

const moveTxAttempts = 2

func illegal(mv chess.Move, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrIllegalMove, mv, err)
}

// ValidMoves lists the legal moves of the piece on square in the user's game.
// Squares holding no piece of the side to move yield an empty list.
func (m *Manager) ValidMoves(ctx context.Context, userID, room, square string) (*HintResult, error) {
	sq, err := chess.ParseSquare(square)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSquare, err)
	}
	g, err := m.requireActive(ctx, userID, room)
	if err != nil {
		return nil, err
	}
	if g.ColorOf(strings.TrimSpace(userID)) == "" {
		return nil, ErrNotParticipant
	}
	game, err := chess.ParseFEN(g.FEN)
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", g.ID, err)
	}
	set, err := game.ValidMoves(sq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSquare, err)
	}
	return &HintResult{Game: g, Square: sq, Moves: set.Sorted()}, nil
}

// Resign ends the user's game in room with the opponent as winner.
func (m *Manager) Resign(ctx context.Context, userID, room string) (*Game, error) {
	userID = strings.TrimSpace(userID)
	g, err := m.requireActive(ctx, userID, room)
	if err != nil {
		return nil, err
	}
	gameK := gameKey(g.ID)
	err = m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := loadTx(ctx, tx, gameK)
		if err != nil {
			return err
		}
		if cur.Status != StatusActive {
			return ErrGameOver
		}
		loser := cur.ColorOf(userID)
		if loser == "" {
			return ErrNotParticipant
		}
		cur.Status = StatusResigned
		cur.Winner = cur.opponentID(userID)
		if loser == White {
			cur.Outcome = string(Black)
		} else {
			cur.Outcome = string(White)
		}
		cur.Method = "resign"
		cur.UpdatedAt = m.now()
		if err := m.writeTx(ctx, tx, cur); err != nil {
			return err
		}
		g = cur
		return nil
	}, gameK)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			return nil, ErrConflict
		}
		return nil, err
	}
	obslog.L().Info("pvp_resign",
		zap.String("game_id", g.ID),
		zap.String("resigner", userID),
		zap.String("winner", g.Winner),
	)
	_ = m.persistIfFinal(ctx, g)
	return g, nil
}

// Status returns the user's active game in room.
func (m *Manager) Status(ctx context.Context, userID, room string) (*Game, error) {
	return m.requireActive(ctx, userID, room)
}

// LoadGame returns the game by ID, or nil when it does not exist or expired.
func (m *Manager) LoadGame(ctx context.Context, id string) (*Game, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	return m.get(ctx, id)
}

// Persistence

func loadTx(ctx context.Context, tx *redis.Tx, key string) (*Game, error) {
	raw, err := tx.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNoActiveGame
	}
	if err != nil {
		return nil, err
	}
	var g Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return &g, nil
}

func (m *Manager) writeTx(ctx context.Context, tx *redis.Tx, g *Game) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return err
	}
	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, gameKey(g.ID), raw, m.ttl)
		pipe.Expire(ctx, idxUserKey(g.WhiteID), m.ttl)
		pipe.Expire(ctx, idxUserKey(g.BlackID), m.ttl)
		return nil
	})
	return err
}

func (m *Manager) save(ctx context.Context, g *Game) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return m.rdb.Set(ctx, gameKey(g.ID), raw, m.ttl).Err()
}

func (m *Manager) get(ctx context.Context, id string) (*Game, error) {
	raw, err := m.rdb.Get(ctx, gameKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var g Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (m *Manager) indexParticipants(ctx context.Context, id string, users ...string) error {
	for _, u := range users {
		if strings.TrimSpace(u) == "" {
			continue
		}
		key := idxUserKey(u)
		if err := m.rdb.SAdd(ctx, key, id).Err(); err != nil {
			return err
		}
		// 인덱스 키 TTL도 게임과 동일하게 갱신
		_ = m.rdb.Expire(ctx, key, m.ttl).Err()
	}
	return nil
}

func gameKey(id string) string         { return "pvp:game:" + strings.TrimSpace(id) }
func idxUserKey(userID string) string { return "pvp:index:user:" + strings.TrimSpace(userID) }
