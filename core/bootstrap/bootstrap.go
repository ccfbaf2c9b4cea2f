// Package bootstrap prepares shared infrastructure before the bot starts:
// logging, the SQL connection and schema migrations.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/todobot/core/config"
	coredatabase "github.com/m3rciful/todobot/core/database"
	"github.com/m3rciful/todobot/core/logger"
)

// Options control the bootstrap pipeline. Nil funcs use the core defaults.
type Options struct {
	Config   *coreconfig.Config
	Database coredatabase.Config
	// Migrations holds per-driver migration directories (postgres/, sqlite/).
	Migrations fs.FS

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coredatabase.Config) (*sqlx.DB, error)
	Migrate    func(*sqlx.DB, coredatabase.Config, fs.FS) error
}

// Result exposes what the pipeline initialized.
type Result struct {
	DB *sqlx.DB
}

// Run initializes the logger, connects to the database and applies migrations.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, errors.New("bootstrap: nil config provided")
	}
	if opts.Migrations == nil {
		return nil, errors.New("bootstrap: no migrations provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	start := time.Now()
	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(opts.Database)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(db, opts.Database, opts.Migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}
	logger.LogEvent(context.Background(), logger.DB, slog.LevelInfo, "bootstrap.done",
		slog.String("status", "ok"),
		slog.String("driver", opts.Database.Driver),
		slog.Duration("duration", logger.Took(start)),
	)
	return &Result{DB: db}, nil
}
