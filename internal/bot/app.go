// Package bot assembles todobot: stores, the dispatcher and the Telegram
// runtime options.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/todobot/core/bootstrap"
	"github.com/m3rciful/todobot/core/logger"
	"github.com/m3rciful/todobot/internal/config"
	"github.com/m3rciful/todobot/internal/dispatch"
	"github.com/m3rciful/todobot/internal/flow"
	"github.com/m3rciful/todobot/internal/session"
	"github.com/m3rciful/todobot/internal/task"
	"github.com/m3rciful/todobot/migrations"
)

// App holds the wired application. Handlers reach everything through it.
type App struct {
	cfg        *config.Config
	db         *sqlx.DB
	tasks      task.Store
	sessions   session.Store
	memory     *session.MemoryStore
	redis      *redis.Client
	sweeper    *session.Sweeper
	dispatcher *dispatch.Dispatcher
}

// Bootstrap runs the shared bootstrap pipeline and wires the App on top.
func Bootstrap(cfg *config.Config) (*App, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:     cfg.CoreConfig(),
		Database:   cfg.Database,
		Migrations: migrations.FS,
	})
	if err != nil {
		return nil, err
	}
	app, err := New(cfg, res.DB)
	if err != nil {
		_ = res.DB.Close()
		return nil, err
	}
	return app, nil
}

// New wires stores and the dispatcher over an open, migrated database.
func New(cfg *config.Config, db *sqlx.DB) (*App, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("bot: config and database are required")
	}
	loc := cfg.Tasks.Location()
	a := &App{
		cfg:   cfg,
		db:    db,
		tasks: task.NewSQLStore(db, task.WithLocation(loc)),
	}

	switch cfg.Sessions.Backend {
	case config.SessionsRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client, err := session.NewRedisClient(ctx, session.RedisOptions{
			Addr:     cfg.Sessions.Redis.Addr,
			Password: cfg.Sessions.Redis.Password,
			DB:       cfg.Sessions.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("bot: session backend: %w", err)
		}
		a.redis = client
		a.sessions = session.NewRedisStore(client, cfg.Sessions.Redis.Prefix, cfg.Sessions.TTL)
	default:
		a.memory = session.NewMemoryStore(cfg.Sessions.TTL)
		sweeper, err := session.NewSweeper(a.memory, cfg.Sessions.Sweep)
		if err != nil {
			return nil, fmt.Errorf("bot: %w", err)
		}
		a.sessions = a.memory
		a.sweeper = sweeper
	}

	engine := flow.NewEngine(a.tasks, flow.WithLocation(loc))
	a.dispatcher = dispatch.New(a.tasks, a.sessions, engine, dispatch.Info{
		RepositoryURL: cfg.Info.RepositoryURL,
		ReviewContact: cfg.Info.ReviewContact,
		DonateURL:     cfg.Info.DonateURL,
	})

	logger.Info(context.Background(), "app", "wired",
		slog.String("status", "ok"),
		slog.String("driver", cfg.Database.Driver),
		slog.String("backend", cfg.Sessions.Backend),
		slog.String("timezone", loc.String()),
		slog.Duration("session_ttl", cfg.Sessions.TTL),
	)
	return a, nil
}

// Dispatcher exposes the message dispatcher.
func (a *App) Dispatcher() *dispatch.Dispatcher { return a.dispatcher }

// Close releases the session backend and the database.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
