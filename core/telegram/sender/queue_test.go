package sender

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/todobot/core/config"
)

func TestQueueRunsJobs(t *testing.T) {
	q := NewQueue(Options{Workers: 2, QueueSize: 8})
	var wg sync.WaitGroup
	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		wg.Add(1)
		require.NoError(t, q.Enqueue(context.Background(), int64(i), "send.text", func() error {
			defer wg.Done()
			ran.Add(1)
			return nil
		}))
	}
	wg.Wait()
	q.Close()

	assert.Equal(t, int32(5), ran.Load())
	sent, failed := q.Stats()
	assert.Equal(t, uint64(5), sent)
	assert.Zero(t, failed)
}

func TestQueueRetriesTransientErrors(t *testing.T) {
	q := NewQueue(Options{Workers: 1, MaxRetries: 2, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, q.Enqueue(context.Background(), 1, "send.text", func() error {
		if calls.Add(1) < 3 {
			return &net.OpError{Op: "dial", Err: errors.New("refused")}
		}
		return nil
	}))
	q.Close()

	assert.Equal(t, int32(3), calls.Load())
	sent, failed := q.Stats()
	assert.Equal(t, uint64(1), sent)
	assert.Zero(t, failed)
}

func TestQueueDoesNotRetryPermanentErrors(t *testing.T) {
	q := NewQueue(Options{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond})
	var calls atomic.Int32
	require.NoError(t, q.Enqueue(context.Background(), 1, "send.text", func() error {
		calls.Add(1)
		return errors.New("telegram: chat not found (400)")
	}))
	q.Close()

	assert.Equal(t, int32(1), calls.Load())
	_, failed := q.Stats()
	assert.Equal(t, uint64(1), failed)
}

func TestQueueFullAndClosed(t *testing.T) {
	q := NewQueue(Options{Workers: 1, QueueSize: 1})
	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, q.Enqueue(context.Background(), 1, "block", func() error {
		close(started)
		<-release
		return nil
	}))
	<-started
	require.NoError(t, q.Enqueue(context.Background(), 1, "buffered", func() error { return nil }))
	assert.ErrorIs(t, q.Enqueue(context.Background(), 1, "overflow", func() error { return nil }), ErrQueueFull)

	close(release)
	q.Close()
	q.Close()
	assert.ErrorIs(t, q.Enqueue(context.Background(), 1, "late", func() error { return nil }), ErrQueueClosed)
}

func TestQueueKeepsOrderPerKey(t *testing.T) {
	q := NewQueue(Options{Workers: 4, QueueSize: 256})
	var mu sync.Mutex
	got := map[int64][]int{}
	for i := 0; i < 20; i++ {
		for _, chat := range []int64{-100, 7, 42} {
			i, chat := i, chat
			require.NoError(t, q.Enqueue(context.Background(), chat, "send.text", func() error {
				if i%3 == 0 {
					time.Sleep(time.Millisecond)
				}
				mu.Lock()
				got[chat] = append(got[chat], i)
				mu.Unlock()
				return nil
			}))
		}
	}
	q.Close()

	want := make([]int, 20)
	for i := range want {
		want[i] = i
	}
	for _, chat := range []int64{-100, 7, 42} {
		assert.Equal(t, want, got[chat], "chat %d", chat)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(coreconfig.SenderConfig{QueueSize: 10, Workers: 3, MaxRetries: 1, RetryBackoffMS: 250})
	assert.Equal(t, Options{QueueSize: 10, Workers: 3, MaxRetries: 1, RetryBackoff: 250 * time.Millisecond}, opts)

	d := Options{}.withDefaults()
	assert.Equal(t, 256, d.QueueSize)
	assert.Equal(t, 4, d.Workers)
}
