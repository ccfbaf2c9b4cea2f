// Package task owns to-do records: validation, durable storage and the
// per-owner ordering that defines list positions.
package task

import (
	"context"
	"time"
)

// MaxTextLength is the upper bound for Task.Text, counted in characters.
const MaxTextLength = 500

// Task is a single to-do item belonging to one Telegram user.
type Task struct {
	ID        int64      `db:"id"`
	OwnerID   int64      `db:"owner_id"`
	Text      string     `db:"text"`
	CreatedAt time.Time  `db:"created_at"`
	Deadline  *time.Time `db:"deadline"`
}

// Overdue reports whether the deadline lies strictly before now.
func (t Task) Overdue(now time.Time) bool {
	return t.Deadline != nil && t.Deadline.Before(now)
}

// Store is the task persistence contract. List order is deadline ascending
// with undated tasks last, then creation order; positions are 1-based
// indexes into that order and are recomputed on every call.
type Store interface {
	Create(ctx context.Context, ownerID int64, text string, deadline *time.Time) (Task, error)
	List(ctx context.Context, ownerID int64) ([]Task, error)
	Count(ctx context.Context, ownerID int64) (int, error)
	DeleteByPosition(ctx context.Context, ownerID int64, position int) (bool, error)
	DeleteByID(ctx context.Context, ownerID, id int64) (bool, error)
}
