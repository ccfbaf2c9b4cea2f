package middleware

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

type fakeContext struct {
	tele.Context
	upd   tele.Update
	store map[string]any
	sent  []any
}

func newFakeContext(userID int64, text string) *fakeContext {
	user := &tele.User{ID: userID}
	return &fakeContext{
		upd: tele.Update{ID: 1, Message: &tele.Message{
			Sender: user,
			Chat:   &tele.Chat{ID: userID, Type: tele.ChatPrivate},
			Text:   text,
		}},
		store: map[string]any{},
	}
}

func (f *fakeContext) Update() tele.Update { return f.upd }
func (f *fakeContext) Sender() *tele.User {
	if f.upd.Message == nil {
		return nil
	}
	return f.upd.Message.Sender
}
func (f *fakeContext) Chat() *tele.Chat {
	if f.upd.Message == nil {
		return nil
	}
	return f.upd.Message.Chat
}
func (f *fakeContext) Text() string {
	if f.upd.Message == nil {
		return ""
	}
	return f.upd.Message.Text
}
func (f *fakeContext) Get(key string) any    { return f.store[key] }
func (f *fakeContext) Set(key string, v any) { f.store[key] = v }
func (f *fakeContext) Send(what any, _ ...any) error {
	f.sent = append(f.sent, what)
	return nil
}

func TestRateLimitDropsBurst(t *testing.T) {
	now := time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)
	limited := 0
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Second,
		Now:       func() time.Time { return now },
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	handled := 0
	h := mw(func(tele.Context) error { handled++; return nil })

	require.NoError(t, h(newFakeContext(1, "a")))
	require.NoError(t, h(newFakeContext(1, "b")))
	require.NoError(t, h(newFakeContext(2, "c")))
	now = now.Add(time.Second)
	require.NoError(t, h(newFakeContext(1, "d")))

	assert.Equal(t, 3, handled)
	assert.Equal(t, 1, limited)
}

func TestRateLimitExcludesKinds(t *testing.T) {
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		Exclude:  map[string]struct{}{"message": {}},
	})
	handled := 0
	h := mw(func(tele.Context) error { handled++; return nil })
	for i := 0; i < 3; i++ {
		require.NoError(t, h(newFakeContext(1, "x")))
	}
	assert.Equal(t, 3, handled)
}

func TestRecoverTurnsPanicIntoError(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	err := h(newFakeContext(1, "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	plain := errors.New("plain")
	h = RecoverMiddleware(func(tele.Context) error { return plain })
	assert.ErrorIs(t, h(newFakeContext(1, "x")), plain)
}

func TestMetricsCountsSends(t *testing.T) {
	c := newFakeContext(1, "x")
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		_ = c.Send("one")
		return c.Send("two", &tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{}})
	})
	require.NoError(t, h(c))

	n, kb := GetCounters(c)
	assert.Equal(t, 2, n)
	assert.True(t, kb)
	assert.Len(t, c.sent, 2)
}

func TestLoggerMiddlewareSetsRID(t *testing.T) {
	c := newFakeContext(77, "/start")
	h := LoggerMiddleware(func(tele.Context) error { return nil })
	require.NoError(t, h(c))
	assert.Equal(t, "1:77:77", c.store["rid"])
}
