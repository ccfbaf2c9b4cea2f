package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/m3rciful/todobot/core/logger"
)

// Sweeper runs MemoryStore.Sweep on a cron schedule.
type Sweeper struct {
	cron  *cron.Cron
	store *MemoryStore
}

// NewSweeper schedules store sweeps. spec accepts standard five-field cron
// expressions and descriptors such as "@every 1m".
func NewSweeper(store *MemoryStore, spec string) (*Sweeper, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { store.Sweep() }); err != nil {
		return nil, fmt.Errorf("session sweep schedule %q: %w", spec, err)
	}
	return &Sweeper{cron: c, store: store}, nil
}

// Start begins the schedule in its own goroutine.
func (s *Sweeper) Start() {
	s.cron.Start()
	logger.LogEvent(context.Background(), logger.Sessions, slog.LevelInfo, "session.sweeper",
		slog.String("status", "start"),
		slog.String("backend", "memory"),
	)
}

// Stop halts the schedule and waits for a running sweep to finish or ctx to end.
func (s *Sweeper) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	logger.LogEvent(context.Background(), logger.Sessions, slog.LevelInfo, "session.sweeper",
		slog.String("status", "stop"),
		slog.String("backend", "memory"),
	)
}
