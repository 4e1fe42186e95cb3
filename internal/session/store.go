package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 72 * time.Hour

// Store keeps live sessions in Redis: the session JSON under
// session:game:<id>, a per-user index set of session IDs (players and
// creator), and a global index of open challenges still waiting for an
// acceptor. TTLs are refreshed on every write; finished games are archived
// to Postgres before they age out.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func gameKey(id string) string       { return "session:game:" + strings.TrimSpace(id) }
func userIdxKey(userID string) string { return "session:index:user:" + strings.TrimSpace(userID) }
func openIdxKey() string             { return "session:index:open" }

func (st *Store) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := st.rdb.Get(ctx, gameKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeSession(raw)
}

// Save writes the session and maintains all indexes. Used for the initial
// write at creation; later mutations go through WATCH transactions.
func (st *Store) Save(ctx context.Context, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := st.rdb.Set(ctx, gameKey(s.ID), raw, st.ttl).Err(); err != nil {
		return err
	}
	return st.Index(ctx, s)
}

// Index adds the session to its participant and open-challenge indexes.
func (st *Store) Index(ctx context.Context, s *Session) error {
	pipe := st.rdb.Pipeline()
	st.IndexInPipe(ctx, pipe, s)
	_, err := pipe.Exec(ctx)
	return err
}

// IndexInPipe queues the index writes on an open pipeline. Mutations call
// this alongside the game-key Set so the index TTLs are refreshed in step
// with the session itself; an index must never expire before its game.
func (st *Store) IndexInPipe(ctx context.Context, pipe redis.Pipeliner, s *Session) {
	for _, id := range s.participantIDs() {
		key := userIdxKey(id)
		pipe.SAdd(ctx, key, s.ID)
		pipe.Expire(ctx, key, st.ttl)
	}
	if s.IsOpenChallenge && s.Status == StatusPending && !s.Accepted {
		pipe.SAdd(ctx, openIdxKey(), s.ID)
		pipe.Expire(ctx, openIdxKey(), st.ttl)
	}
}

// SessionsByUser loads every indexed session for the user, pruning index
// entries whose session record has already expired.
func (st *Store) SessionsByUser(ctx context.Context, userID string) ([]*Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, nil
	}
	ids, err := st.rdb.SMembers(ctx, userIdxKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	var out []*Session
	for _, id := range ids {
		s, gerr := st.Get(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		if s == nil {
			_ = st.rdb.SRem(ctx, userIdxKey(userID), id).Err()
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// OpenChallenges loads every open challenge still pending acceptance.
func (st *Store) OpenChallenges(ctx context.Context) ([]*Session, error) {
	ids, err := st.rdb.SMembers(ctx, openIdxKey()).Result()
	if err != nil {
		return nil, err
	}
	var out []*Session
	for _, id := range ids {
		s, gerr := st.Get(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		if s == nil || !s.IsOpenChallenge || s.Status != StatusPending || s.Accepted {
			_ = st.rdb.SRem(ctx, openIdxKey(), id).Err()
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// TTL returns the configured session time-to-live.
func (st *Store) TTL() time.Duration { return st.ttl }

func decodeSession(raw []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// NewRedisClient connects to a redis:// or rediss:// URL and verifies the
// connection with a ping.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
