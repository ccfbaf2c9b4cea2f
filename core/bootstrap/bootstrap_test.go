package bootstrap

import (
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/todobot/core/config"
	coredatabase "github.com/m3rciful/todobot/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunMigratesSQLite(t *testing.T) {
	migrations := fstest.MapFS{
		"sqlite/0001_init.up.sql":   {Data: []byte("CREATE TABLE t (id INTEGER PRIMARY KEY);")},
		"sqlite/0001_init.down.sql": {Data: []byte("DROP TABLE t;")},
	}
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: ":memory:"},
		Migrations: migrations,
		LoggerInit: noLogger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.DB.Close() })

	var n int
	require.NoError(t, res.DB.Get(&n, "SELECT COUNT(*) FROM t"))
	assert.Zero(t, n)
}

func TestRunStopsOnFailures(t *testing.T) {
	_, err := Run(Options{})
	require.Error(t, err)

	boom := errors.New("boom")
	_, err = Run(Options{Config: &coreconfig.Config{}, Migrations: fstest.MapFS{}, LoggerInit: func(*coreconfig.Config) error { return boom }})
	require.ErrorIs(t, err, boom)

	migrated := false
	_, err = Run(Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: ":memory:"},
		Migrations: fstest.MapFS{},
		LoggerInit: noLogger,
		Migrate: func(*sqlx.DB, coredatabase.Config, fs.FS) error {
			migrated = true
			return boom
		},
	})
	require.ErrorIs(t, err, boom)
	assert.True(t, migrated)
}
