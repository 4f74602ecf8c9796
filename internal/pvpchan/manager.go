package pvpchan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/cheese-chess/internal/obslog"
	"github.com/park285/cheese-chess/internal/pvpchess"
)

const codeAttempts = 5

type Manager struct {
	rdb   *redis.Client
	store *Store
	pvp   *pvpchess.Manager
	now   func() time.Time
}

// NewManager shares rdb with pvp. A non-positive ttl uses the default lobby lifetime.
func NewManager(rdb *redis.Client, pvp *pvpchess.Manager, ttl time.Duration) *Manager {
	return &Manager{rdb: rdb, store: NewStore(rdb, ttl), pvp: pvp, now: time.Now}
}

// Make opens a lobby channel and returns its CH-XXXXXX code.
func (m *Manager) Make(ctx context.Context, room, userID, userName string, color ColorChoice) (*MakeResult, error) {
	room, userID = strings.TrimSpace(room), strings.TrimSpace(userID)
	if room == "" || userID == "" {
		return nil, ErrInvalidArgs
	}
	// 동일 방에서 진행 중인 대국이 있으면 채널 생성 금지
	if g, _ := m.pvp.GetActiveGameByUserInRoom(ctx, userID, room); g != nil {
		return nil, ErrPlayerBusyInRoom
	}
	if code, err := m.openLobbyOf(ctx, userID); err != nil {
		return nil, err
	} else if code != "" {
		return nil, fmt.Errorf("%w: %s", ErrCreatorHasLobby, code)
	}

	for i := 0; i < codeAttempts; i++ {
		c, err := codeGen()
		if err != nil {
			return nil, err
		}
		ok, err := m.store.Reserve(ctx, c)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		meta := &ChannelMeta{
			ID:           c,
			State:        StateLobby,
			CreatedAt:    m.now(),
			CreatorID:    userID,
			CreatorName:  nameOr(userName, userID),
			CreatorRoom:  room,
			CreatorColor: color,
		}
		if err := m.store.SaveMeta(ctx, c, meta); err != nil {
			return nil, err
		}
		if err := m.store.AddRoom(ctx, c, room); err != nil {
			return nil, err
		}
		// creator is the first participant so the second join starts the game
		if err := m.store.AddParticipant(ctx, c, userID); err != nil {
			return nil, err
		}
		if err := m.store.AddLobby(ctx, c); err != nil {
			return nil, err
		}
		obslog.L().Info("lobby_make", zap.String("code", c), zap.String("room", room), zap.String("creator_id", userID))
		return &MakeResult{Code: c, Meta: meta}, nil
	}
	return nil, fmt.Errorf("failed to allocate channel code")
}

// openLobbyOf returns the code of a waiting channel created by userID, if any.
func (m *Manager) openLobbyOf(ctx context.Context, userID string) (string, error) {
	codes, err := m.store.CodesByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	for _, c := range codes {
		meta, err := m.store.LoadMeta(ctx, c)
		if err != nil {
			return "", err
		}
		if meta == nil {
			_ = m.store.RemoveUserCode(ctx, userID, c)
			continue
		}
		if meta.State == StateLobby && meta.CreatorID == userID {
			return c, nil
		}
	}
	return "", nil
}

// Join adds userID to the channel. The second participant starts the game.
func (m *Manager) Join(ctx context.Context, room, code, userID, userName string) (*JoinResult, error) {
	room, userID = strings.TrimSpace(room), strings.TrimSpace(userID)
	code = strings.ToUpper(strings.TrimSpace(code))
	if room == "" || code == "" || userID == "" {
		return nil, ErrInvalidArgs
	}
	meta, err := m.store.LoadMeta(ctx, code)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, ErrChannelGone
	}
	if meta.State != StateLobby {
		return nil, ErrChannelActive
	}
	if meta.CreatorID == userID {
		return nil, ErrSelfJoin
	}
	// 방 기준 중복 대국 금지
	if busy, _ := m.pvp.GetActiveGameByUserInRoom(ctx, userID, room); busy != nil {
		return nil, ErrPlayerBusyInRoom
	}
	if busy, _ := m.pvp.GetActiveGameByUserInRoom(ctx, meta.CreatorID, meta.CreatorRoom); busy != nil {
		return nil, ErrPlayerBusyInRoom
	}

	// WATCH participants so two racing joiners cannot both take the seat
	partKey := m.store.keyParticipants(code)
	err = m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		members, err := tx.SMembers(ctx, partKey).Result()
		if err != nil && err != redis.Nil {
			return err
		}
		for _, id := range members {
			if id == userID {
				return ErrSelfJoin
			}
		}
		if len(members) >= 2 {
			return ErrFull
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SAdd(ctx, partKey, userID)
			pipe.Expire(ctx, partKey, m.store.ttl)
			pipe.SAdd(ctx, m.store.keyRooms(code), room)
			pipe.Expire(ctx, m.store.keyRooms(code), m.store.ttl)
			pipe.SAdd(ctx, m.store.keyUserIdx(userID), code)
			pipe.Expire(ctx, m.store.keyUserIdx(userID), m.store.ttl)
			return nil
		})
		return err
	}, partKey)
	if err != nil {
		if errors.Is(err, redis.TxFailedErr) {
			err = ErrFull
		}
		obslog.L().Warn("lobby_join_error", zap.String("code", code), zap.String("room", room), zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	g, err := m.pvp.CreateGame(ctx, pvpchess.Challenge{
		OriginRoom:     meta.CreatorRoom,
		ResolveRoom:    room,
		ChallengerID:   meta.CreatorID,
		ChallengerName: meta.CreatorName,
		TargetID:       userID,
		TargetName:     nameOr(userName, userID),
		Color:          string(meta.CreatorColor),
	})
	if err != nil {
		// 좌석 반환: 대국이 없으면 채널은 다시 대기 상태
		keepRoom := room == meta.CreatorRoom
		if rerr := m.store.ReleaseSeat(ctx, code, userID, room, keepRoom); rerr != nil {
			obslog.L().Error("lobby_seat_release_error", zap.String("code", code), zap.String("user_id", userID), zap.Error(rerr))
		}
		obslog.L().Warn("lobby_join_error", zap.String("code", code), zap.String("room", room), zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	meta.WhiteID, meta.WhiteName = g.WhiteID, g.WhiteName
	meta.BlackID, meta.BlackName = g.BlackID, g.BlackName
	meta.State = StateActive
	meta.GameID = g.ID
	if err := m.store.SaveMeta(ctx, code, meta); err != nil {
		return nil, err
	}
	_ = m.store.RemoveLobby(ctx, code)
	obslog.L().Info("lobby_join",
		zap.String("code", code),
		zap.String("room", room),
		zap.String("user_id", userID),
		zap.String("game_id", g.ID),
		zap.String("white_id", g.WhiteID),
		zap.String("black_id", g.BlackID),
	)
	return &JoinResult{Started: true, GameID: g.ID, Meta: meta}, nil
}

// Cancel closes the waiting channel created by userID.
func (m *Manager) Cancel(ctx context.Context, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ErrInvalidArgs
	}
	code, err := m.openLobbyOf(ctx, userID)
	if err != nil {
		return "", err
	}
	if code == "" {
		return "", ErrChannelGone
	}
	if err := m.store.RemoveLobby(ctx, code); err != nil {
		return "", err
	}
	if err := m.store.Delete(ctx, code); err != nil {
		return "", err
	}
	_ = m.store.RemoveUserCode(ctx, userID, code)
	obslog.L().Info("lobby_cancel", zap.String("code", code), zap.String("creator_id", userID))
	return code, nil
}

func (m *Manager) Rooms(ctx context.Context, code string) ([]string, error) {
	return m.store.Rooms(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

// ListLobby returns waiting channels for listing.
func (m *Manager) ListLobby(ctx context.Context) ([]*ChannelMeta, error) {
	return m.store.ListLobby(ctx)
}

func nameOr(name, fallback string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return fallback
}
