// Package telegram hosts the telebot runtime: poller, HTTP client, the
// asynchronous sender, middleware chain, routes and lifecycle hooks.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/todobot/core/config"
	"github.com/m3rciful/todobot/core/logger"
	tghelpers "github.com/m3rciful/todobot/core/telegram/helpers"
	"github.com/m3rciful/todobot/core/telegram/sender"
)

// Middleware is a named global middleware.
type Middleware struct {
	Name string
	Use  tele.MiddlewareFunc
}

// Route binds a handler to a telebot endpoint ("/add", tele.OnText, ...).
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions configures RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	Middlewares []Middleware
	Routes      []Route

	// Offline builds the bot without contacting Telegram, for tests.
	Offline bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime is handed to lifecycle hooks.
type Runtime struct {
	Bot      *tele.Bot
	Sender   *sender.Queue
	Registry *Registry
}

// RunTelegram starts the bot and blocks until ctx is done or the poller stops.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if opts.Config == nil {
		return errors.New("telegram: nil config provided")
	}
	cfg := opts.Config
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	buildStart := time.Now()
	poller := BuildPoller(cfg)
	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.Telegram.Token,
		Poller:  poller,
		Client:  BuildHTTPClient(longPollTimeout(cfg)),
		Offline: opts.Offline,
		OnError: onError,
	})
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %w", redacted(err))
	}

	mode := slog.String("mode", coreconfig.RunModeLongpoll)
	if wh, ok := poller.(*tele.Webhook); ok {
		mode = slog.String("mode", coreconfig.RunModeWebhook)
		logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "tg.mode", mode,
			slog.String("listen", wh.Listen),
			slog.String("public_url", wh.Endpoint.PublicURL),
			slog.Duration("duration", logger.Took(buildStart)),
		)
	} else {
		logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "tg.mode", mode,
			slog.Duration("timeout", longPollTimeout(cfg)),
			slog.Duration("duration", logger.Took(buildStart)),
		)
		if !opts.Offline {
			removeWebhook(ctx, bot, cfg.Telegram.DropPendingUpdates)
		}
	}

	queue := sender.NewQueue(sender.OptionsFromConfig(cfg.Sender))
	tghelpers.SetQueue(queue)
	defer func() {
		queue.Close()
		tghelpers.SetQueue(nil)
	}()

	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, route := range opts.Routes {
		if route.Endpoint != nil && route.Handler != nil {
			bot.Handle(route.Endpoint, route.Handler)
		}
	}
	if !opts.Offline {
		SetupCommands(bot, reg)
	}

	rt := Runtime{Bot: bot, Sender: queue, Registry: reg}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	runDone := make(chan struct{})
	go func() {
		bot.Start()
		close(runDone)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		bot.Stop()
		<-runDone
		if !errors.Is(ctx.Err(), context.Canceled) {
			runErr = ctx.Err()
		}
	case <-runDone:
	}

	if opts.OnStop != nil {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := opts.OnStop(stopCtx, rt); err != nil {
			return err
		}
	}

	sent, failed := queue.Stats()
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "tg.stop",
		slog.String("status", "ok"),
		slog.Uint64("sent", sent),
		slog.Uint64("send_failed", failed),
	)
	return runErr
}

func removeWebhook(ctx context.Context, bot *tele.Bot, dropPending bool) {
	if err := bot.RemoveWebhook(dropPending); err != nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "tg.delete_webhook",
			slog.String("status", "fail"),
			slog.String("err", logger.RedactToken(err.Error())),
		)
		return
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "tg.delete_webhook",
		slog.String("status", "ok"),
		slog.Bool("drop_pending", dropPending),
	)
}

// onError receives handler errors after the summary line was written, so
// it only logs at debug level.
func onError(err error, c tele.Context) {
	ctx := context.Background()
	if c != nil {
		ctx = tghelpers.BuildContext(c)
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "tg.handler_error",
		slog.String("status", "fail"),
		slog.String("err", logger.RedactToken(err.Error())),
	)
}

func redacted(err error) error {
	return errors.New(logger.RedactToken(err.Error()))
}
