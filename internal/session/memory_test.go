package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stateAwaitingText State = "awaiting_task_text"

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newMemory(ttl time.Duration) (*MemoryStore, *clock) {
	c := &clock{t: time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)}
	m := NewMemoryStore(ttl)
	m.SetClock(c.now)
	return m, c
}

func TestMemoryGetMissingReturnsIdle(t *testing.T) {
	m, _ := newMemory(time.Minute)
	s, err := m.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), s.OwnerID)
	assert.Equal(t, StateIdle, s.State)
	assert.False(t, s.Active())
	assert.NotNil(t, s.Data)
}

func TestMemorySaveRoundTripIsCopied(t *testing.T) {
	ctx := context.Background()
	m, c := newMemory(time.Minute)

	s := New(42)
	s.State = stateAwaitingText
	s.SetValue("text", "Buy milk")
	require.NoError(t, m.Save(ctx, s))
	assert.Equal(t, c.t, s.UpdatedAt)

	s.SetValue("text", "changed after save")

	got, err := m.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, stateAwaitingText, got.State)
	v, ok := got.Value("text")
	require.True(t, ok)
	assert.Equal(t, "Buy milk", v)

	got.SetValue("text", "changed after get")
	again, err := m.Get(ctx, 42)
	require.NoError(t, err)
	v, _ = again.Value("text")
	assert.Equal(t, "Buy milk", v)
}

func TestMemorySaveIdleRemoves(t *testing.T) {
	ctx := context.Background()
	m, _ := newMemory(0)

	s := New(1)
	s.State = stateAwaitingText
	require.NoError(t, m.Save(ctx, s))
	assert.Equal(t, 1, m.Len())

	s.Reset()
	require.NoError(t, m.Save(ctx, s))
	assert.Equal(t, 0, m.Len())
}

func TestMemoryClearIsolatesOwners(t *testing.T) {
	ctx := context.Background()
	m, _ := newMemory(0)
	for _, id := range []int64{1, 2} {
		s := New(id)
		s.State = stateAwaitingText
		require.NoError(t, m.Save(ctx, s))
	}

	require.NoError(t, m.Clear(ctx, 1))

	one, err := m.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, one.Active())
	two, err := m.Get(ctx, 2)
	require.NoError(t, err)
	assert.True(t, two.Active())
}

func TestMemoryExpiryAndSweep(t *testing.T) {
	ctx := context.Background()
	m, c := newMemory(10 * time.Minute)

	old := New(1)
	old.State = stateAwaitingText
	require.NoError(t, m.Save(ctx, old))

	c.advance(6 * time.Minute)
	fresh := New(2)
	fresh.State = stateAwaitingText
	require.NoError(t, m.Save(ctx, fresh))

	c.advance(5 * time.Minute)

	got, err := m.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, got.Active(), "idle past ttl reads back idle")

	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())

	got, err = m.Get(ctx, 2)
	require.NoError(t, err)
	assert.True(t, got.Active())
}

func TestSweeperRejectsBadSchedule(t *testing.T) {
	_, err := NewSweeper(NewMemoryStore(time.Minute), "every now and then")
	require.Error(t, err)
}

func TestSweeperStartStop(t *testing.T) {
	sw, err := NewSweeper(NewMemoryStore(time.Minute), "@every 1m")
	require.NoError(t, err)
	sw.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sw.Stop(ctx)
	assert.NoError(t, ctx.Err())
}

func TestBackendErrorMatchesSentinel(t *testing.T) {
	cause := context.DeadlineExceeded
	err := error(&BackendError{Op: "get", Err: cause})
	assert.ErrorIs(t, err, ErrBackend)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "SESSION_BACKEND", err.(*BackendError).Code())
}
