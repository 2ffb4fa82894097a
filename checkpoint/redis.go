package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tailored-agentic-units/agentgraph/graph"
)

// DefaultRedisPrefix namespaces the keys written by RedisStore.
const DefaultRedisPrefix = "agentgraph:"

const maxPutAttempts = 5

var errSequence = errors.New("sequence out of order")

// RedisStore keeps each session as a Redis list of JSON records and tracks
// session ids in a set. With a TTL, a session's list expires that long after
// its last checkpoint.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// OpenRedis connects to the server at rawURL and verifies it with PING.
func OpenRedis(ctx context.Context, rawURL, prefix string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStore(client, prefix, ttl), nil
}

// NewRedisStore wraps an existing client. An empty prefix selects
// DefaultRedisPrefix.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) listKey(sessionID string) string {
	return s.prefix + "checkpoints:" + sessionID
}

func (s *RedisStore) setKey() string {
	return s.prefix + "sessions"
}

// Put appends cp to its session's list. The sequence must be greater than
// the session's latest one.
func (s *RedisStore) Put(ctx context.Context, cp graph.Checkpoint) error {
	if cp.SessionID == "" {
		return fmt.Errorf("%w: checkpoint has no session id", ErrSaveFailed)
	}
	data, err := marshalRecord(cp)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	key := s.listKey(cp.SessionID)

	// WATCH makes the sequence check and the append one optimistic
	// transaction; a concurrent append to the same session retries the check.
	appendRecord := func(tx *redis.Tx) error {
		last, err := tx.LIndex(ctx, key, -1).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			prev, err := unmarshalRecord(last)
			if err != nil {
				return err
			}
			if prev.Sequence >= cp.Sequence {
				return fmt.Errorf("%w: sequence %d for session %s is not after %d",
					errSequence, cp.Sequence, cp.SessionID, prev.Sequence)
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.RPush(ctx, key, data)
			pipe.SAdd(ctx, s.setKey(), cp.SessionID)
			if s.ttl > 0 {
				pipe.Expire(ctx, key, s.ttl)
			}
			return nil
		})
		return err
	}

	for range maxPutAttempts {
		err = s.client.Watch(ctx, appendRecord, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	return nil
}

func (s *RedisStore) Latest(ctx context.Context, sessionID string) (graph.Checkpoint, error) {
	data, err := s.client.LIndex(ctx, s.listKey(sessionID), -1).Bytes()
	if errors.Is(err, redis.Nil) {
		return graph.Checkpoint{}, fmt.Errorf("%w: %s", graph.ErrCheckpointNotFound, sessionID)
	}
	if err != nil {
		return graph.Checkpoint{}, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	return unmarshalRecord(data)
}

func (s *RedisStore) History(ctx context.Context, sessionID string) ([]graph.Checkpoint, error) {
	items, err := s.client.LRange(ctx, s.listKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	out := make([]graph.Checkpoint, 0, len(items))
	for _, item := range items {
		cp, err := unmarshalRecord([]byte(item))
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

// Sessions returns the tracked sessions whose lists still exist. Ids of
// expired sessions are dropped from the set as a side effect.
func (s *RedisStore) Sessions(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.setKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	exists := make([]*redis.IntCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			exists[i] = pipe.Exists(ctx, s.listKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	live := make([]string, 0, len(ids))
	var stale []any
	for i, id := range ids {
		if exists[i].Val() > 0 {
			live = append(live, id)
		} else {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		s.client.SRem(ctx, s.setKey(), stale...)
	}

	slices.Sort(live)
	return live, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.listKey(sessionID))
		pipe.SRem(ctx, s.setKey(), sessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete failed: %s: %w", sessionID, err)
	}
	return nil
}
