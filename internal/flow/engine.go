package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/todobot/core/logger"
	"github.com/m3rciful/todobot/internal/session"
	"github.com/m3rciful/todobot/internal/task"
)

type step func(ctx context.Context, s *session.Session, input string) (Reply, error)

// Engine drives the add and delete conversations against a task store.
// It mutates the session it is given; persisting it is the caller's job.
type Engine struct {
	tasks task.Store
	loc   *time.Location
	now   func() time.Time
	steps map[session.State]step
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLocation sets the timezone for "today", "tomorrow" and custom dates.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// NewEngine builds an Engine over tasks.
func NewEngine(tasks task.Store, opts ...Option) *Engine {
	e := &Engine{
		tasks: tasks,
		loc:   time.Local,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.steps = map[session.State]step{
		StateAwaitingTaskText:       e.onTaskText,
		StateAwaitingDeadlineChoice: e.onDeadlineChoice,
		StateAwaitingCustomDate:     e.onCustomDate,
		StateAwaitingDeleteTarget:   e.onDeleteTarget,
	}
	return e
}

// Location returns the timezone used for deadlines.
func (e *Engine) Location() *time.Location { return e.loc }

// Now returns the engine clock reading.
func (e *Engine) Now() time.Time { return e.now() }

// Handles reports whether st has a step.
func (e *Engine) Handles(st session.State) bool {
	_, ok := e.steps[st]
	return ok
}

// BeginAdd starts the add flow, dropping whatever flow was active.
func (e *Engine) BeginAdd(ctx context.Context, s *session.Session) Reply {
	s.Reset()
	e.move(ctx, s, StateAwaitingTaskText)
	return Reply{Text: msgAskText, RemoveKeyboard: true}
}

// BeginDelete starts the delete flow. With no tasks the session stays idle.
func (e *Engine) BeginDelete(ctx context.Context, s *session.Session) (Reply, error) {
	s.Reset()
	tasks, err := e.tasks.List(ctx, s.OwnerID)
	if err != nil {
		return e.abort(ctx, s, err)
	}
	if len(tasks) == 0 {
		return reply(msgNothingToDelete, MainKeyboard()), nil
	}
	e.move(ctx, s, StateAwaitingDeleteTarget)
	return reply(fmt.Sprintf(msgAskPosition, FormatList(tasks, e.now(), e.loc)), BackKeyboard()), nil
}

// Advance feeds input to the step of the session's current state. Input in
// a state without a step is a programming error and resets the session.
func (e *Engine) Advance(ctx context.Context, s *session.Session, input string) (Reply, error) {
	st, ok := e.steps[s.State]
	if !ok {
		from := s.State
		s.Reset()
		return TryLater(), fmt.Errorf("flow: no step for state %q", from)
	}
	return st(ctx, s, input)
}

func (e *Engine) onTaskText(ctx context.Context, s *session.Session, input string) (Reply, error) {
	s.SetValue(keyText, input)
	e.move(ctx, s, StateAwaitingDeadlineChoice)
	return reply(msgAskDeadline, DeadlineKeyboard()), nil
}

func (e *Engine) onDeadlineChoice(ctx context.Context, s *session.Session, input string) (Reply, error) {
	today := e.now().In(e.loc)
	switch normalizeChoice(input) {
	case choiceToday:
		return e.create(ctx, s, task.EndOfDay(today, e.loc))
	case choiceTomorrow:
		return e.create(ctx, s, task.EndOfDay(today.AddDate(0, 0, 1), e.loc))
	case choiceCustom:
		e.move(ctx, s, StateAwaitingCustomDate)
		return reply(msgAskDate, BackKeyboard()), nil
	}
	return reply(msgPickDeadline, DeadlineKeyboard()), nil
}

func (e *Engine) onCustomDate(ctx context.Context, s *session.Session, input string) (Reply, error) {
	if IsBack(input) {
		e.move(ctx, s, StateAwaitingDeadlineChoice)
		return reply(msgAskDeadline, DeadlineKeyboard()), nil
	}
	deadline, ok := ParseDay(input, e.loc)
	if !ok {
		return reply(msgBadDate, BackKeyboard()), nil
	}
	if err := task.ValidateDeadline(deadline, e.now(), e.loc); err != nil {
		return reply(msgPastDate, BackKeyboard()), nil
	}
	return e.create(ctx, s, deadline)
}

func (e *Engine) onDeleteTarget(ctx context.Context, s *session.Session, input string) (Reply, error) {
	if IsBack(input) {
		e.finish(ctx, s)
		return reply(msgDeleteCancelled, MainKeyboard()), nil
	}
	pos, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return reply(msgNotNumber, BackKeyboard()), nil
	}
	deleted, err := e.tasks.DeleteByPosition(ctx, s.OwnerID, pos)
	if err != nil {
		return e.abort(ctx, s, err)
	}
	if !deleted {
		n, err := e.tasks.Count(ctx, s.OwnerID)
		if err != nil {
			return e.abort(ctx, s, err)
		}
		if n == 0 {
			e.finish(ctx, s)
			return reply(msgNothingToDelete, MainKeyboard()), nil
		}
		return reply(fmt.Sprintf(msgNoSuchPosition, pos, n), BackKeyboard()), nil
	}
	e.finish(ctx, s)
	return reply(fmt.Sprintf(msgDeleted, pos), MainKeyboard()), nil
}

func (e *Engine) create(ctx context.Context, s *session.Session, deadline time.Time) (Reply, error) {
	text, _ := s.Value(keyText)
	t, err := e.tasks.Create(ctx, s.OwnerID, text, &deadline)
	if err == nil {
		e.finish(ctx, s)
		return reply(fmt.Sprintf(msgAdded, t.Text, FormatDeadline(*t.Deadline, e.loc)), MainKeyboard()), nil
	}
	ve, ok := task.IsValidation(err)
	if !ok {
		return e.abort(ctx, s, err)
	}
	switch {
	case ve.Field == task.FieldText && ve.Reason == task.ReasonTooLong:
		return e.retryText(ctx, s, fmt.Sprintf(msgLongText, task.MaxTextLength)), nil
	case ve.Field == task.FieldText:
		return e.retryText(ctx, s, msgEmptyText), nil
	case s.State == StateAwaitingCustomDate:
		return reply(msgPastDate, BackKeyboard()), nil
	default:
		return reply(msgPickDeadline, DeadlineKeyboard()), nil
	}
}

// retryText sends the user back to the text prompt after the store rejected it.
func (e *Engine) retryText(ctx context.Context, s *session.Session, msg string) Reply {
	delete(s.Data, keyText)
	e.move(ctx, s, StateAwaitingTaskText)
	return Reply{Text: msg, RemoveKeyboard: true}
}

// abort handles backend failures at a terminal step: the session is dropped
// and the user gets an opaque reply. err is returned for the caller to log.
func (e *Engine) abort(ctx context.Context, s *session.Session, err error) (Reply, error) {
	logger.LogEvent(ctx, logger.FSM, slog.LevelWarn, "fsm.abort",
		slog.String("status", "fail"),
		slog.Int64("owner_id", s.OwnerID),
		slog.String("flow", FlowOf(s.State)),
		slog.String("state", string(s.State)),
		slog.String("err", err.Error()),
	)
	s.Reset()
	return TryLater(), err
}

func (e *Engine) finish(ctx context.Context, s *session.Session) {
	e.move(ctx, s, StateIdle)
	s.Reset()
}

func (e *Engine) move(ctx context.Context, s *session.Session, to session.State) {
	from := s.State
	s.State = to
	flow := FlowOf(to)
	if flow == "" {
		flow = FlowOf(from)
	}
	logger.LogEvent(ctx, logger.FSM, slog.LevelDebug, "fsm.transition",
		slog.String("status", "ok"),
		slog.Int64("owner_id", s.OwnerID),
		slog.String("flow", flow),
		slog.String("from_state", string(from)),
		slog.String("to_state", string(to)),
	)
}
