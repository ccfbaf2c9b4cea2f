package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/todobot/core/database"
	"github.com/m3rciful/todobot/internal/flow"
	"github.com/m3rciful/todobot/internal/session"
	"github.com/m3rciful/todobot/internal/task"
	"github.com/m3rciful/todobot/migrations"
)

var testNow = time.Date(2026, time.October, 16, 15, 4, 0, 0, time.UTC)

type fixture struct {
	d        *Dispatcher
	tasks    *task.SQLStore
	sessions *session.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := database.Config{Driver: database.DriverSQLite, Path: ":memory:"}
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrations(db, cfg, migrations.FS))

	clock := func() time.Time { return testNow }
	tasks := task.NewSQLStore(db, task.WithClock(clock), task.WithLocation(time.UTC))
	sessions := session.NewMemoryStore(30 * time.Minute)
	engine := flow.NewEngine(tasks, flow.WithClock(clock), flow.WithLocation(time.UTC))
	d := New(tasks, sessions, engine, Info{RepositoryURL: "https://example.org/todobot"})
	return &fixture{d: d, tasks: tasks, sessions: sessions}
}

func (f *fixture) send(t *testing.T, owner int64, texts ...string) Reply {
	t.Helper()
	var r Reply
	for _, text := range texts {
		var err error
		r, err = f.d.Handle(context.Background(), Message{OwnerID: owner, Text: text, Kind: KindText})
		require.NoError(t, err, "message %q", text)
	}
	return r
}

func (f *fixture) state(t *testing.T, owner int64) session.State {
	t.Helper()
	s, err := f.sessions.Get(context.Background(), owner)
	require.NoError(t, err)
	return s.State
}

func TestAddTodayScenario(t *testing.T) {
	f := newFixture(t)
	r := f.send(t, 42, "/add", "Buy milk", "Today 🕒")

	assert.Contains(t, r.Text, "Buy milk")
	assert.Equal(t, flow.StateIdle, f.state(t, 42))
	assert.Equal(t, 0, f.sessions.Len())

	list, err := f.tasks.List(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(42), list[0].OwnerID)
	assert.Equal(t, "Buy milk", list[0].Text)
	assert.True(t, list[0].Deadline.Equal(time.Date(2026, time.October, 16, 23, 59, 0, 0, time.UTC)))
}

func TestAddCustomDateScenario(t *testing.T) {
	f := newFixture(t)
	f.send(t, 42, "/add", "Write report", "Custom date 📆", "31.12.2099")

	list, err := f.tasks.List(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Write report", list[0].Text)
	assert.True(t, list[0].Deadline.Equal(time.Date(2099, time.December, 31, 23, 59, 0, 0, time.UTC)))
}

func TestDeleteOutOfRangeScenario(t *testing.T) {
	f := newFixture(t)
	f.send(t, 42, "/add", "one", "Today", "/add", "two", "Tomorrow")

	f.send(t, 42, "/delete")
	r := f.send(t, 42, "5")

	assert.Contains(t, r.Text, "#5")
	assert.Equal(t, flow.StateAwaitingDeleteTarget, f.state(t, 42))
	n, err := f.tasks.Count(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDeleteBackScenario(t *testing.T) {
	f := newFixture(t)
	f.send(t, 42, "/add", "one", "Today")

	f.send(t, 42, "/delete", "↩️ Back")

	assert.Equal(t, flow.StateIdle, f.state(t, 42))
	n, err := f.tasks.Count(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDeleteByPositionUsesListOrder(t *testing.T) {
	f := newFixture(t)
	f.send(t, 42,
		"/add", "later", "Custom date", "01.01.2030",
		"/add", "sooner", "Today",
	)

	f.send(t, 42, "/delete", "1")

	list, err := f.tasks.List(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "later", list[0].Text)
}

func TestCommandAbortsActiveFlow(t *testing.T) {
	f := newFixture(t)
	f.send(t, 42, "/add", "half-typed")
	require.Equal(t, flow.StateAwaitingDeadlineChoice, f.state(t, 42))

	r := f.send(t, 42, "/list")
	assert.Equal(t, flow.StateIdle, f.state(t, 42))
	assert.Contains(t, r.Text, "no tasks")

	f.send(t, 42, "/add", "fresh")
	r = f.send(t, 42, "/add")
	assert.Equal(t, flow.StateAwaitingTaskText, f.state(t, 42))
	assert.True(t, r.RemoveKeyboard)

	f.send(t, 42, "/start")
	assert.Equal(t, flow.StateIdle, f.state(t, 42))
}

func TestSlashTextInsideFlowIsInput(t *testing.T) {
	f := newFixture(t)
	r := f.send(t, 42, "/add", "/etc/hosts cleanup")
	assert.NotEqual(t, msgUnknownCommand, r.Text)
	require.Equal(t, flow.StateAwaitingDeadlineChoice, f.state(t, 42))

	f.send(t, 42, "Today 🕒")
	list, err := f.tasks.List(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "/etc/hosts cleanup", list[0].Text)

	f.send(t, 42, "/add", "x", "Custom date 📆")
	r = f.send(t, 42, "/31.12.2099")
	assert.Equal(t, flow.StateAwaitingCustomDate, f.state(t, 42))
	assert.NotEqual(t, msgUnknownCommand, r.Text)
}

func TestListFormatting(t *testing.T) {
	f := newFixture(t)
	past := testNow.Add(-2 * time.Hour)
	_, err := f.tasks.Create(context.Background(), 42, "overdue one", &past)
	require.NoError(t, err)
	f.send(t, 42, "/add", "tomorrow one", "Tomorrow 📅")

	r := f.send(t, 42, "/list")
	assert.Contains(t, r.Text, "1. overdue one  deadline 16.10.2026 13:04 ⚠️ overdue")
	assert.Contains(t, r.Text, "2. tomorrow one  deadline 17.10.2026 23:59")
	assert.NotContains(t, r.Text, "23:59 ⚠️")
}

func TestOwnersAreIsolated(t *testing.T) {
	f := newFixture(t)
	f.send(t, 1, "/add", "mine", "Today")
	f.send(t, 2, "/add")

	r := f.send(t, 2, "/list")
	assert.NotContains(t, r.Text, "mine")

	f.send(t, 2, "/delete")
	assert.Equal(t, flow.StateIdle, f.state(t, 2))
	assert.Equal(t, flow.StateIdle, f.state(t, 1))
}

func TestFallbacks(t *testing.T) {
	f := newFixture(t)

	r := f.send(t, 7, "hello there")
	assert.Equal(t, msgIdleHint, r.Text)

	r = f.send(t, 7, "/frobnicate")
	assert.Equal(t, msgUnknownCommand, r.Text)

	r, err := f.d.Handle(context.Background(), Message{OwnerID: 7, Kind: KindOther})
	require.NoError(t, err)
	assert.Equal(t, msgTextOnly, r.Text)

	f.send(t, 7, "/add")
	r, err = f.d.Handle(context.Background(), Message{OwnerID: 7, Kind: KindOther})
	require.NoError(t, err)
	assert.Equal(t, msgTextOnly, r.Text)
	assert.Equal(t, flow.StateAwaitingTaskText, f.state(t, 7))
}

func TestInfoCommands(t *testing.T) {
	f := newFixture(t)
	assert.Contains(t, f.send(t, 1, "/contribute").Text, "https://example.org/todobot")
	assert.Contains(t, f.send(t, 1, "/donate").Text, msgNotConfigured)
	assert.Equal(t, msgHelp, f.send(t, 1, "/help@todo_bot").Text)
}

func TestCommandsMenu(t *testing.T) {
	f := newFixture(t)
	var names []string
	for _, c := range f.d.Commands() {
		names = append(names, c.Name)
		assert.NotEmpty(t, c.Description)
	}
	assert.Equal(t, []string{"start", "help", "add", "list", "delete", "contribute", "review", "donate"}, names)
}

func TestConcurrentOwners(t *testing.T) {
	f := newFixture(t)
	var wg sync.WaitGroup
	for owner := int64(1); owner <= 8; owner++ {
		wg.Add(1)
		go func(owner int64) {
			defer wg.Done()
			for _, text := range []string{"/add", fmt.Sprintf("task of %d", owner), "Today"} {
				_, err := f.d.Handle(context.Background(), Message{OwnerID: owner, Text: text, Kind: KindText})
				assert.NoError(t, err)
			}
		}(owner)
	}
	wg.Wait()

	for owner := int64(1); owner <= 8; owner++ {
		list, err := f.tasks.List(context.Background(), owner)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, fmt.Sprintf("task of %d", owner), list[0].Text)
	}
}

type failingSessions struct{ err error }

func (f failingSessions) Get(context.Context, int64) (*session.Session, error) {
	return nil, &session.BackendError{Op: "get", Err: f.err}
}
func (f failingSessions) Save(context.Context, *session.Session) error { return nil }
func (f failingSessions) Clear(context.Context, int64) error           { return nil }

func TestSessionBackendFailureIsOpaque(t *testing.T) {
	f := newFixture(t)
	d := New(f.tasks, failingSessions{err: errors.New("connection refused")}, f.d.engine, Info{})

	r, err := d.Handle(context.Background(), Message{OwnerID: 1, Text: "/add", Kind: KindText})
	require.ErrorIs(t, err, session.ErrBackend)
	assert.Equal(t, flow.TryLater(), r)
}

func TestParseCommand(t *testing.T) {
	cases := map[string]string{
		"/add":             "add",
		"  /List  ":        "list",
		"/delete@todo_bot": "delete",
		"/help me":         "help",
	}
	for in, want := range cases {
		got, ok := parseCommand(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	for _, in := range []string{"", "/", "add", "Buy /milk", "/@bot"} {
		_, ok := parseCommand(in)
		assert.False(t, ok, in)
	}
}
