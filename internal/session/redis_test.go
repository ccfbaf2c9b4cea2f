package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

func setupRedis(t *testing.T, prefix string) *RedisStore {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	client, err := NewRedisClient(ctx, RedisOptions{Addr: redisAddr()})
	if err != nil {
		t.Skipf("redis not available at %s: %v", redisAddr(), err)
	}
	cleanup := func() {
		keys, _ := client.Keys(context.Background(), prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(context.Background(), keys...)
		}
	}
	cleanup()
	t.Cleanup(func() {
		cleanup()
		_ = client.Close()
	})
	return NewRedisStore(client, prefix, time.Minute)
}

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := setupRedis(t, "todobot-test:rt:")

	got, err := r.Get(ctx, 42)
	require.NoError(t, err)
	assert.False(t, got.Active())

	s := New(42)
	s.State = stateAwaitingText
	s.SetValue("text", "Buy milk")
	require.NoError(t, r.Save(ctx, s))

	got, err = r.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, stateAwaitingText, got.State)
	v, _ := got.Value("text")
	assert.Equal(t, "Buy milk", v)

	ttl, err := r.client.TTL(ctx, r.key(42)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, r.Clear(ctx, 42))
	got, err = r.Get(ctx, 42)
	require.NoError(t, err)
	assert.False(t, got.Active())
}

func TestRedisSaveIdleDeletes(t *testing.T) {
	ctx := context.Background()
	r := setupRedis(t, "todobot-test:idle:")

	s := New(7)
	s.State = stateAwaitingText
	require.NoError(t, r.Save(ctx, s))
	s.Reset()
	require.NoError(t, r.Save(ctx, s))

	_, err := r.client.Get(ctx, r.key(7)).Result()
	assert.ErrorIs(t, err, redis.Nil)
}

func TestRedisDecodeFailureIsBackendError(t *testing.T) {
	ctx := context.Background()
	r := setupRedis(t, "todobot-test:bad:")
	require.NoError(t, r.client.Set(ctx, r.key(9), "{not json", time.Minute).Err())

	_, err := r.Get(ctx, 9)
	assert.ErrorIs(t, err, ErrBackend)
}

func TestRedisUnreachableIsBackendError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	r := NewRedisStore(client, "x:", time.Minute)

	_, err := r.Get(context.Background(), 1)
	assert.ErrorIs(t, err, ErrBackend)
}
