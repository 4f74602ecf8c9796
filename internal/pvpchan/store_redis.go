package pvpchan

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultChannelTTL = 30 * time.Minute

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultChannelTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) keyMeta(code string) string         { return "ch:" + strings.TrimSpace(code) }
func (s *Store) keyRooms(code string) string        { return s.keyMeta(code) + ":rooms" }
func (s *Store) keyParticipants(code string) string { return s.keyMeta(code) + ":participants" }
func (s *Store) keyUserIdx(user string) string      { return "ch:index:user:" + strings.TrimSpace(user) }
func (s *Store) keyLobby() string                   { return "ch:lobby" }

// Reserve claims code if no channel uses it yet.
func (s *Store) Reserve(ctx context.Context, code string) (bool, error) {
	return s.rdb.SetNX(ctx, s.keyMeta(code), []byte("{}"), s.ttl).Result()
}

func (s *Store) SaveMeta(ctx context.Context, code string, meta *ChannelMeta) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.keyMeta(code), raw, s.ttl).Err(); err != nil {
		return err
	}
	// companions share the channel TTL
	_ = s.rdb.Expire(ctx, s.keyRooms(code), s.ttl).Err()
	_ = s.rdb.Expire(ctx, s.keyParticipants(code), s.ttl).Err()
	return nil
}

// LoadMeta returns nil, nil for a missing or still-reserved channel.
func (s *Store) LoadMeta(ctx context.Context, code string) (*ChannelMeta, error) {
	raw, err := s.rdb.Get(ctx, s.keyMeta(code)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m ChannelMeta
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if m.ID == "" {
		return nil, nil
	}
	return &m, nil
}

func (s *Store) Delete(ctx context.Context, code string) error {
	return s.rdb.Del(ctx, s.keyMeta(code), s.keyRooms(code), s.keyParticipants(code)).Err()
}

func (s *Store) AddRoom(ctx context.Context, code, room string) error {
	if strings.TrimSpace(room) == "" {
		return nil
	}
	if err := s.rdb.SAdd(ctx, s.keyRooms(code), room).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, s.keyRooms(code), s.ttl).Err()
}

func (s *Store) Rooms(ctx context.Context, code string) ([]string, error) {
	rooms, err := s.rdb.SMembers(ctx, s.keyRooms(code)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(rooms)
	return rooms, nil
}

func (s *Store) Participants(ctx context.Context, code string) ([]string, error) {
	return s.rdb.SMembers(ctx, s.keyParticipants(code)).Result()
}

func (s *Store) AddParticipant(ctx context.Context, code, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return nil
	}
	if err := s.rdb.SAdd(ctx, s.keyParticipants(code), userID).Err(); err != nil {
		return err
	}
	_ = s.rdb.Expire(ctx, s.keyParticipants(code), s.ttl).Err()
	// index by user → codes
	if err := s.rdb.SAdd(ctx, s.keyUserIdx(userID), code).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, s.keyUserIdx(userID), s.ttl).Err()
}

// ReleaseSeat undoes a join whose game could not be created. The room is
// kept when the creator sits in it too.
func (s *Store) ReleaseSeat(ctx context.Context, code, userID, room string, keepRoom bool) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, s.keyParticipants(code), userID)
		if !keepRoom {
			pipe.SRem(ctx, s.keyRooms(code), room)
		}
		pipe.SRem(ctx, s.keyUserIdx(userID), code)
		return nil
	})
	return err
}

func (s *Store) CodesByUser(ctx context.Context, userID string) ([]string, error) {
	return s.rdb.SMembers(ctx, s.keyUserIdx(userID)).Result()
}

func (s *Store) RemoveUserCode(ctx context.Context, userID, code string) error {
	return s.rdb.SRem(ctx, s.keyUserIdx(userID), code).Err()
}

// codeGen returns `CH-` + 6 upper alnum.
func codeGen() (string, error) {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = letters[int(b[i])%len(letters)]
	}
	return fmt.Sprintf("CH-%s", string(b)), nil
}

// Lobby index helpers
func (s *Store) AddLobby(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return nil
	}
	if err := s.rdb.SAdd(ctx, s.keyLobby(), code).Err(); err != nil {
		return err
	}
	_ = s.rdb.Expire(ctx, s.keyLobby(), s.ttl).Err()
	return nil
}

func (s *Store) RemoveLobby(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return nil
	}
	return s.rdb.SRem(ctx, s.keyLobby(), code).Err()
}

// ListLobby returns waiting channels, oldest first. Expired codes are pruned
// from the index as they are found.
func (s *Store) ListLobby(ctx context.Context) ([]*ChannelMeta, error) {
	codes, err := s.rdb.SMembers(ctx, s.keyLobby()).Result()
	if err != nil {
		return nil, err
	}
	var out []*ChannelMeta
	for _, c := range codes {
		m, err := s.LoadMeta(ctx, c)
		if err != nil {
			return nil, err
		}
		if m == nil {
			_ = s.RemoveLobby(ctx, c)
			continue
		}
		if m.State != StateLobby {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
