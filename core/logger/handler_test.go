package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLine(t *testing.T, format logFormat, emit func(*slog.Logger)) string {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	h := newStructuredHandler(handlerConfig{
		level:    slog.LevelDebug,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	})
	emit(slog.New(h))
	require.NoError(t, aw.Flush())
	require.NoError(t, aw.Close())
	return strings.TrimSpace(buf.String())
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	line := captureLine(t, formatKV, func(l *slog.Logger) {
		LogEvent(ctx, l.With("component", "fsm"), slog.LevelInfo, "fsm.transition",
			slog.String("status", "ok"),
			slog.Int64("owner_id", 7),
			slog.String("to_state", "awaiting_task_text"),
		)
	})

	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=fsm", "event=fsm.transition", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9", "owner_id=7", "to_state=awaiting_task_text"}
	require.GreaterOrEqual(t, len(tokens), len(expected), line)
	for i, prefix := range expected {
		assert.True(t, strings.HasPrefix(tokens[i], prefix), "token %d = %s, want prefix %s", i, tokens[i], prefix)
	}
}

func TestStructuredHandlerJSON(t *testing.T) {
	ctx := WithRID(context.Background(), "12:34:56")
	line := captureLine(t, formatJSON, func(l *slog.Logger) {
		LogEvent(ctx, l.With("component", "service.tasks"), slog.LevelError, "task.create",
			slog.String("status", "fail"),
			slog.Duration("duration", 1500*time.Microsecond),
			slog.String("err", "boom"),
		)
	})

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &decoded))
	assert.Equal(t, "ERROR", decoded["level"])
	assert.Equal(t, "service.tasks", decoded["component"])
	assert.Equal(t, "task.create", decoded["event"])
	assert.Equal(t, CompactRID("12:34:56"), decoded["rid"])
	assert.Equal(t, "12:34:56", decoded["rid_full"])
	assert.EqualValues(t, 2, decoded["duration_ms"])
	assert.Contains(t, decoded, "ts_unix_nano")
	assert.True(t, strings.HasPrefix(line, `{"ts":`), line)
}

func TestStructuredHandlerKVOmitsRIDFull(t *testing.T) {
	ctx := WithRID(context.Background(), "123:456:789")
	line := captureLine(t, formatKV, func(l *slog.Logger) {
		LogEvent(ctx, l, slog.LevelInfo, "rid.test")
	})
	assert.Contains(t, line, "rid="+CompactRID("123:456:789"))
	assert.NotContains(t, line, "rid_full=")
	assert.Contains(t, line, "component=app")
}

func TestStructuredHandlerGroupsAndEnums(t *testing.T) {
	line := captureLine(t, formatKV, func(l *slog.Logger) {
		l.WithGroup("redis").LogAttrs(context.Background(), slog.LevelWarn, "ping",
			slog.String("addr", "localhost:6379"),
		)
	})
	assert.Contains(t, line, "redis.addr=localhost:6379")
	assert.Contains(t, line, "event=ping")
	assert.Contains(t, line, "level=WARN")

	line = captureLine(t, formatKV, func(l *slog.Logger) {
		LogEvent(context.Background(), l, slog.LevelInfo, "enum.test",
			slog.String("status", "OK"),
			slog.String("outcome", "bogus"),
		)
	})
	assert.Contains(t, line, "status=ok")
	assert.NotContains(t, line, "outcome=")
}

func TestCompactRID(t *testing.T) {
	assert.Equal(t, "3f.c.1", CompactRID("123:12:1"))
	assert.Equal(t, "not-a-rid", CompactRID("not-a-rid"))
	assert.Equal(t, "a:b:c", CompactRID("a:b:c"))
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	got := []bool{s.Allow(), s.Allow(), s.Allow(), s.Allow()}
	assert.Equal(t, []bool{true, false, false, true}, got)

	s.Set(0, 0)
	assert.True(t, s.Allow())

	n, d := parseRatioSpec("25")
	assert.Equal(t, [2]int{1, 25}, [2]int{n, d})
	n, d = parseRatioSpec("2/5")
	assert.Equal(t, [2]int{2, 5}, [2]int{n, d})
}

func TestSanitizeLimit(t *testing.T) {
	assert.Equal(t, "abc", SanitizeLimit("a\x00b\u200bc", 10))
	assert.Equal(t, "Пр", SanitizeLimit("Привет", 2))
	assert.Equal(t, "", SanitizeLimit("x", 0))
}

func TestRedactToken(t *testing.T) {
	msg := `Post "https://api.telegram.org/bot123456:AA-bb_CC/sendMessage": dial tcp: i/o timeout`
	assert.Equal(t, `Post "https://api.telegram.org/bot<redacted>/sendMessage": dial tcp: i/o timeout`, RedactToken(msg))
}
