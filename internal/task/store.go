package task

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/todobot/core/lockmap"
	"github.com/m3rciful/todobot/core/logger"
)

const orderByPosition = `ORDER BY (deadline IS NULL), deadline ASC, created_at ASC, id ASC`

// SQLStore implements Store on top of sqlx; queries are written with "?"
// placeholders and rebound for the connected driver.
type SQLStore struct {
	db    *sqlx.DB
	locks *lockmap.Map
	now   func() time.Time
	loc   *time.Location
}

// Option customizes an SQLStore.
type Option func(*SQLStore)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *SQLStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the timezone used for date-only deadline checks.
func WithLocation(loc *time.Location) Option {
	return func(s *SQLStore) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewSQLStore wraps an open database that already has the tasks schema.
func NewSQLStore(db *sqlx.DB, opts ...Option) *SQLStore {
	s := &SQLStore{
		db:    db,
		locks: lockmap.New(),
		now:   time.Now,
		loc:   time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates and inserts a task. The row is committed before it is returned.
func (s *SQLStore) Create(ctx context.Context, ownerID int64, text string, deadline *time.Time) (Task, error) {
	text = strings.TrimSpace(text)
	if err := ValidateText(text); err != nil {
		return Task{}, err
	}
	now := s.now()
	t := Task{
		OwnerID:   ownerID,
		Text:      text,
		CreatedAt: now.UTC().Truncate(time.Second),
	}
	var deadlineArg any
	if deadline != nil {
		if err := ValidateDeadline(*deadline, now, s.loc); err != nil {
			return Task{}, err
		}
		d := deadline.UTC().Truncate(time.Second)
		t.Deadline = &d
		deadlineArg = d
	}

	q := s.db.Rebind(`INSERT INTO tasks (owner_id, text, created_at, deadline) VALUES (?, ?, ?, ?) RETURNING id`)
	start := time.Now()
	if err := s.db.QueryRowxContext(ctx, q, t.OwnerID, t.Text, t.CreatedAt, deadlineArg).Scan(&t.ID); err != nil {
		return Task{}, s.fail(ctx, "create", ownerID, err)
	}
	logger.LogEvent(ctx, logger.Tasks, slog.LevelInfo, "task.create",
		slog.String("status", "ok"),
		slog.Int64("owner_id", ownerID),
		slog.Int64("task_id", t.ID),
		slog.Bool("has_deadline", t.Deadline != nil),
		slog.Duration("duration", logger.Took(start)),
	)
	return t, nil
}

// List returns the owner's tasks in position order; never nil.
func (s *SQLStore) List(ctx context.Context, ownerID int64) ([]Task, error) {
	q := s.db.Rebind(`SELECT id, owner_id, text, created_at, deadline FROM tasks WHERE owner_id = ? ` + orderByPosition)
	tasks := []Task{}
	if err := s.db.SelectContext(ctx, &tasks, q, ownerID); err != nil {
		return nil, s.fail(ctx, "list", ownerID, err)
	}
	return tasks, nil
}

// Count returns how many tasks the owner has.
func (s *SQLStore) Count(ctx context.Context, ownerID int64) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(*) FROM tasks WHERE owner_id = ?`), ownerID); err != nil {
		return 0, s.fail(ctx, "count", ownerID, err)
	}
	return n, nil
}

// DeleteByPosition removes the task currently shown at position. Lookup and
// delete run in one transaction while holding the owner's lock, so two
// concurrent requests from the same owner never resolve against a stale order.
func (s *SQLStore) DeleteByPosition(ctx context.Context, ownerID int64, position int) (bool, error) {
	if position < 1 {
		return false, nil
	}
	unlock := s.locks.Lock(ownerID)
	defer unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, s.fail(ctx, "delete_by_position", ownerID, err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	q := tx.Rebind(`SELECT id FROM tasks WHERE owner_id = ? ` + orderByPosition + ` LIMIT 1 OFFSET ?`)
	if err := tx.GetContext(ctx, &id, q, ownerID, position-1); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, s.fail(ctx, "delete_by_position", ownerID, err)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM tasks WHERE id = ? AND owner_id = ?`), id, ownerID); err != nil {
		return false, s.fail(ctx, "delete_by_position", ownerID, err)
	}
	if err := tx.Commit(); err != nil {
		return false, s.fail(ctx, "delete_by_position", ownerID, err)
	}
	logger.LogEvent(ctx, logger.Tasks, slog.LevelInfo, "task.delete",
		slog.String("status", "ok"),
		slog.Int64("owner_id", ownerID),
		slog.Int64("task_id", id),
		slog.Int("position", position),
	)
	return true, nil
}

// DeleteByID removes a task only when it belongs to ownerID.
func (s *SQLStore) DeleteByID(ctx context.Context, ownerID, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM tasks WHERE id = ? AND owner_id = ?`), id, ownerID)
	if err != nil {
		return false, s.fail(ctx, "delete_by_id", ownerID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, s.fail(ctx, "delete_by_id", ownerID, err)
	}
	if n > 0 {
		logger.LogEvent(ctx, logger.Tasks, slog.LevelInfo, "task.delete",
			slog.String("status", "ok"),
			slog.Int64("owner_id", ownerID),
			slog.Int64("task_id", id),
		)
	}
	return n > 0, nil
}

func (s *SQLStore) fail(ctx context.Context, op string, ownerID int64, err error) error {
	logger.LogEvent(ctx, logger.Tasks, slog.LevelError, "task."+op,
		slog.String("status", "fail"),
		slog.Int64("owner_id", ownerID),
		slog.String("err", err.Error()),
	)
	return &StoreError{Op: op, Err: err}
}
