package database

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/todobot/core/logger"
)

// RunMigrations applies every up migration found under fsys/<driver>.
// SQLite migrations run on db itself so in-memory databases see the schema;
// PostgreSQL migrations use their own connection built from cfg.
func RunMigrations(db *sqlx.DB, cfg Config, fsys fs.FS) error {
	if err := cfg.Normalize(); err != nil {
		return err
	}
	dir := cfg.Driver
	files := listMigrationFiles(fsys, dir)
	preview, truncated := logger.SummarizeStrings(files, 6)
	logger.MIG.Debug("migrations resolved",
		slog.String("event", "resolve"),
		slog.String("driver", cfg.Driver),
		slog.Int("files_total", len(files)),
		slog.String("files_preview", preview),
		slog.Bool("files_truncated", truncated),
	)

	src, err := iofs.New(fsys, dir)
	if err != nil {
		return migrateFailed("source", fmt.Errorf("open migrations %s: %w", dir, err))
	}

	var m *migrate.Migrate
	switch cfg.Driver {
	case DriverSQLite:
		if db == nil {
			return migrateFailed("init", errors.New("sqlite migrations need an open database"))
		}
		drv, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
		if err != nil {
			return migrateFailed("init", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, DriverSQLite, drv)
		if err != nil {
			return migrateFailed("init", err)
		}
	default:
		if err := WaitForPostgres(cfg.DSN(), 30*time.Second); err != nil {
			return migrateFailed("wait", fmt.Errorf("database not ready: %w", err))
		}
		m, err = migrate.NewWithSourceInstance("iofs", src, cfg.URL())
		if err != nil {
			return migrateFailed("init", err)
		}
		defer m.Close()
	}

	fromVer, _, _ := m.Version()
	start := time.Now()
	upErr := m.Up()
	took := time.Since(start)
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		logger.MIG.Error("migration failed",
			slog.String("event", "apply"),
			slog.String("err", upErr.Error()),
			slog.Duration("duration", logger.RoundMS(took)),
		)
		return fmt.Errorf("migration execution failed: %w", upErr)
	}

	toVer, _, _ := m.Version()
	applied := appliedBetween(files, uint64(fromVer), uint64(toVer))
	if len(applied) > 0 {
		names, cut := logger.SummarizeStrings(applied, 6)
		logger.MIG.Debug("applied files",
			slog.String("event", "apply"),
			slog.Int("files_total", len(applied)),
			slog.String("files_preview", names),
			slog.Bool("files_truncated", cut),
		)
	}
	logger.MIG.Info("migrations summary",
		slog.String("event", "summary"),
		slog.String("driver", cfg.Driver),
		slog.Uint64("from_ver", uint64(fromVer)),
		slog.Uint64("to_ver", uint64(toVer)),
		slog.Int("files", len(applied)),
		slog.Duration("duration", logger.RoundMS(took)),
	)
	return nil
}

func migrateFailed(stage string, err error) error {
	logger.MIG.Error("migrations not started",
		slog.String("event", "db.migrate"),
		slog.String("stage", stage),
		slog.String("err", err.Error()),
	)
	return fmt.Errorf("migrations %s: %w", stage, err)
}

func listMigrationFiles(fsys fs.FS, dir string) []string {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func parseVersion(name string) uint64 {
	head, _, _ := strings.Cut(name, "_")
	v, _ := strconv.ParseUint(head, 10, 64)
	return v
}

func appliedBetween(files []string, from, to uint64) []string {
	var out []string
	for _, f := range files {
		if v := parseVersion(f); v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
