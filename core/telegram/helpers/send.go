package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/todobot/core/logger"
	"github.com/m3rciful/todobot/core/telegram/sender"
)

var queue atomic.Pointer[sender.Queue]

// SetQueue installs the asynchronous sender; nil makes sends synchronous.
func SetQueue(q *sender.Queue) {
	queue.Store(q)
}

func sendAsync(c tele.Context, action string, run func() error) error {
	q := queue.Load()
	if q == nil {
		return run()
	}
	ctx := BuildContext(c)
	_, chatID := IDs(c)
	err := q.Enqueue(ctx, chatID, action, run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("status", "skip"),
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

// SendText sends plain text (no parse mode) with optional reply markup.
// A nil markup leaves the current keyboard untouched.
func SendText(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	opts := &tele.SendOptions{ReplyMarkup: markup, DisableWebPagePreview: true}
	return sendAsync(c, "send.text", func() error {
		return c.Send(text, opts)
	})
}
