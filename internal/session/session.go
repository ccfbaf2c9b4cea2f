// Package session keeps per-user conversation state between messages.
// Backends are interchangeable; the dispatcher owns the per-user locking.
package session

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"
)

// State identifies a conversation step.
type State string

// StateIdle means no flow is active for the user.
const StateIdle State = "idle"

// ErrBackend marks failures of the session storage itself.
var ErrBackend = errors.New("session backend")

// BackendError wraps a storage failure; errors.Is(err, ErrBackend) holds for it.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("session %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() []error { return []error{ErrBackend, e.Err} }

// Code is picked up by the handler summary logger as err_code.
func (e *BackendError) Code() string { return "SESSION_BACKEND" }

// Session is the conversation record of one user.
type Session struct {
	OwnerID   int64             `json:"owner_id"`
	State     State             `json:"state"`
	Data      map[string]string `json:"data,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// New returns an idle session for ownerID.
func New(ownerID int64) *Session {
	return &Session{OwnerID: ownerID, State: StateIdle, Data: map[string]string{}}
}

// Active reports whether a flow is in progress.
func (s *Session) Active() bool {
	return s != nil && s.State != "" && s.State != StateIdle
}

// Value returns a stored flow value.
func (s *Session) Value(key string) (string, bool) {
	if s == nil || s.Data == nil {
		return "", false
	}
	v, ok := s.Data[key]
	return v, ok
}

// SetValue stores a flow value.
func (s *Session) SetValue(key, value string) {
	if s.Data == nil {
		s.Data = map[string]string{}
	}
	s.Data[key] = value
}

// Reset returns the session to idle and drops its data.
func (s *Session) Reset() {
	s.State = StateIdle
	s.Data = map[string]string{}
}

func (s *Session) clone() *Session {
	c := *s
	c.Data = maps.Clone(s.Data)
	if c.Data == nil {
		c.Data = map[string]string{}
	}
	return &c
}

// Store persists sessions. Get never returns nil: a missing or expired
// session comes back idle.
type Store interface {
	Get(ctx context.Context, ownerID int64) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context, ownerID int64) error
}
