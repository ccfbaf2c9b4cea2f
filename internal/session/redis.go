package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/todobot/core/logger"
)

// RedisStore keeps sessions as JSON values with a key TTL, so expiry needs
// no sweeper and sessions survive restarts.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// RedisOptions configures NewRedisClient.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects and pings the server.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

// NewRedisStore wraps an open client. ttl <= 0 stores keys without expiry.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, now: time.Now}
}

func (r *RedisStore) key(ownerID int64) string {
	return r.prefix + strconv.FormatInt(ownerID, 10)
}

// Get loads the session, returning an idle one on a miss.
func (r *RedisStore) Get(ctx context.Context, ownerID int64) (*Session, error) {
	data, err := r.client.Get(ctx, r.key(ownerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return New(ownerID), nil
		}
		return nil, r.fail(ctx, "get", ownerID, err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, r.fail(ctx, "decode", ownerID, err)
	}
	s.OwnerID = ownerID
	if s.Data == nil {
		s.Data = map[string]string{}
	}
	return &s, nil
}

// Save writes the session and refreshes its TTL. Idle sessions are deleted.
func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	if !s.Active() {
		return r.Clear(ctx, s.OwnerID)
	}
	s.UpdatedAt = r.now().UTC()
	data, err := json.Marshal(s)
	if err != nil {
		return r.fail(ctx, "encode", s.OwnerID, err)
	}
	if err := r.client.Set(ctx, r.key(s.OwnerID), data, r.ttl).Err(); err != nil {
		return r.fail(ctx, "set", s.OwnerID, err)
	}
	return nil
}

// Clear deletes the session key.
func (r *RedisStore) Clear(ctx context.Context, ownerID int64) error {
	if err := r.client.Del(ctx, r.key(ownerID)).Err(); err != nil {
		return r.fail(ctx, "del", ownerID, err)
	}
	return nil
}

func (r *RedisStore) fail(ctx context.Context, op string, ownerID int64, err error) error {
	logger.LogEvent(ctx, logger.Sessions, slog.LevelError, "session."+op,
		slog.String("status", "fail"),
		slog.String("backend", "redis"),
		slog.Int64("owner_id", ownerID),
		slog.String("err", err.Error()),
	)
	return &BackendError{Op: op, Err: err}
}
