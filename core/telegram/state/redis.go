package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/finbot/core/logger"
)

// RedisOptions configure NewRedisManager.
type RedisOptions struct {
	// Prefix is prepended to the user id to form the key; defaults to "session:".
	Prefix string
	// TTL expires abandoned conversations; zero keeps them until cleared.
	TTL time.Duration
}

type redisManager[T any] struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisManager returns a Manager that stores sessions as JSON values in Redis.
func NewRedisManager[T any](rdb redis.UniversalClient, opts RedisOptions) Manager[T] {
	if opts.Prefix == "" {
		opts.Prefix = "session:"
	}
	return &redisManager[T]{rdb: rdb, prefix: opts.Prefix, ttl: opts.TTL}
}

func (m *redisManager[T]) key(userID int64) string {
	return m.prefix + strconv.FormatInt(userID, 10)
}

func (m *redisManager[T]) Get(ctx context.Context, userID int64) (Session[T], error) {
	if userID == 0 {
		return idle[T](), ErrNoUser
	}
	raw, err := m.rdb.Get(ctx, m.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return idle[T](), nil
	}
	if err != nil {
		return idle[T](), fmt.Errorf("state: get session: %w", err)
	}
	var s Session[T]
	if err := json.Unmarshal(raw, &s); err != nil {
		// a payload written by an older build cannot be resumed; start over
		logger.Warn(ctx, "service.sessions", "session.decode.fail",
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		_ = m.rdb.Del(ctx, m.key(userID)).Err()
		return idle[T](), nil
	}
	return s, nil
}

func (m *redisManager[T]) Set(ctx context.Context, userID int64, s Session[T]) error {
	if userID == 0 {
		return ErrNoUser
	}
	if s.Idle() {
		return m.Clear(ctx, userID)
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("state: encode session: %w", err)
	}
	if err := m.rdb.Set(ctx, m.key(userID), raw, m.ttl).Err(); err != nil {
		return fmt.Errorf("state: set session: %w", err)
	}
	return nil
}

func (m *redisManager[T]) Clear(ctx context.Context, userID int64) error {
	if userID == 0 {
		return ErrNoUser
	}
	if err := m.rdb.Del(ctx, m.key(userID)).Err(); err != nil {
		return fmt.Errorf("state: clear session: %w", err)
	}
	return nil
}

func (m *redisManager[T]) Current(ctx context.Context, userID int64) (State, error) {
	s, err := m.Get(ctx, userID)
	return s.State, err
}
