// Package cmd holds the process entry shared by bot binaries: load config,
// bootstrap, run until a signal arrives.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m3rciful/todobot/core/buildinfo"
	coreconfig "github.com/m3rciful/todobot/core/config"
	"github.com/m3rciful/todobot/core/logger"
	coretelegram "github.com/m3rciful/todobot/core/telegram"
)

// DefaultConfigEnv names the variable holding the config path.
const DefaultConfigEnv = "CONFIG_PATH"

// ConfigCarrier exposes the embedded core configuration.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// App is what a binary hands back from Bootstrap.
type App interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
}

// Options control config loading, bootstrap and the run loop.
type Options struct {
	ConfigEnv   string
	DefaultPath string

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(cfg ConfigCarrier) (App, error)

	// Hooks below are replaced in tests.
	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
	Signals        []os.Signal
}

// ConfigPath resolves the config path from the environment or the default.
func (o Options) ConfigPath() (string, error) {
	env := o.ConfigEnv
	if env == "" {
		env = DefaultConfigEnv
	}
	if p := os.Getenv(env); p != "" {
		return p, nil
	}
	if o.DefaultPath != "" {
		return o.DefaultPath, nil
	}
	return "", fmt.Errorf("cmd: config path not set via %s", env)
}

// Run loads the config, bootstraps the app and blocks in the Telegram runtime.
func Run(opts Options) error {
	if opts.LoadConfig == nil || opts.Bootstrap == nil {
		return errors.New("cmd: LoadConfig and Bootstrap are required")
	}
	path, err := opts.ConfigPath()
	if err != nil {
		return err
	}

	// The structured logger is not up yet.
	log.Printf("todobot %s: loading config %s", buildinfo.String(), path)
	cfg, err := opts.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("cmd: load config: %w", err)
	}
	if cfg == nil || cfg.CoreConfig() == nil {
		return errors.New("cmd: config has no core section")
	}

	app, err := opts.Bootstrap(cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap: %w", err)
	}

	shutdown := opts.ShutdownLogger
	if shutdown == nil {
		shutdown = logger.Shutdown
	}
	defer func() {
		if err := shutdown(); err != nil {
			log.Printf("logger shutdown: %v", err)
		}
	}()

	runOpts, err := app.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options: %w", err)
	}
	wrapLifecycle(&runOpts, time.Now())

	signals := opts.Signals
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ctx, cancel := signal.NotifyContext(context.Background(), signals...)
	defer cancel()

	run := opts.RunTelegram
	if run == nil {
		run = coretelegram.RunTelegram
	}
	return run(ctx, runOpts)
}

// wrapLifecycle adds ready and shutdown events around the app's hooks.
func wrapLifecycle(opts *coretelegram.RunOptions, startedAt time.Time) {
	onStart := opts.OnStart
	opts.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if onStart != nil {
			if err := onStart(ctx, rt); err != nil {
				return err
			}
		}
		logger.Info(ctx, "app", "ready",
			slog.String("version", buildinfo.String()),
			slog.Duration("startup", logger.RoundMS(time.Since(startedAt))),
		)
		return nil
	}

	onStop := opts.OnStop
	opts.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.Info(ctx, "app", "shutdown",
			slog.Duration("uptime", logger.RoundMS(time.Since(startedAt))),
		)
		if onStop != nil {
			return onStop(ctx, rt)
		}
		return nil
	}
}
