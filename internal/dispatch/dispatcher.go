package dispatch

import (
	"context"
	"log/slog"

	"github.com/m3rciful/todobot/core/lockmap"
	"github.com/m3rciful/todobot/core/logger"
	"github.com/m3rciful/todobot/internal/flow"
	"github.com/m3rciful/todobot/internal/session"
	"github.com/m3rciful/todobot/internal/task"
)

// Dispatcher is safe for concurrent use. Messages from one owner are
// handled one at a time; different owners proceed in parallel.
type Dispatcher struct {
	tasks    task.Store
	sessions session.Store
	engine   *flow.Engine
	info     Info
	locks    *lockmap.Map
	commands map[string]command
	menu     []Command
}

// New wires a Dispatcher.
func New(tasks task.Store, sessions session.Store, engine *flow.Engine, info Info) *Dispatcher {
	d := &Dispatcher{
		tasks:    tasks,
		sessions: sessions,
		engine:   engine,
		info:     info,
		locks:    lockmap.New(),
		commands: map[string]command{},
	}
	for _, c := range d.commandTable() {
		d.commands[c.Name] = c
		d.menu = append(d.menu, c.Command)
	}
	return d
}

// Commands lists the slash commands in menu order.
func (d *Dispatcher) Commands() []Command {
	out := make([]Command, len(d.menu))
	copy(out, d.menu)
	return out
}

// Handle processes one message. The reply is always usable; a non-nil error
// reports a backend failure that was already turned into an opaque reply.
func (d *Dispatcher) Handle(ctx context.Context, msg Message) (Reply, error) {
	if msg.Kind != KindText {
		return Reply{Text: msgTextOnly}, nil
	}

	unlock := d.locks.Lock(msg.OwnerID)
	defer unlock()

	s, err := d.sessions.Get(ctx, msg.OwnerID)
	if err != nil {
		return flow.TryLater(), err
	}
	s.OwnerID = msg.OwnerID
	wasActive := s.Active()

	reply, err := d.route(ctx, s, msg.Text)
	if saveErr := d.save(ctx, s, wasActive); saveErr != nil && err == nil {
		return flow.TryLater(), saveErr
	}
	return reply, err
}

func (d *Dispatcher) route(ctx context.Context, s *session.Session, text string) (Reply, error) {
	if name, ok := parseCommand(text); ok {
		c, known := d.commands[name]
		if !known {
			// Inside a flow, slash text is ordinary input ("/etc/hosts cleanup").
			if s.Active() && d.engine.Handles(s.State) {
				return d.engine.Advance(ctx, s, text)
			}
			return Reply{Text: msgUnknownCommand}, nil
		}
		if s.Active() {
			logger.LogEvent(ctx, logger.FSM, slog.LevelInfo, "fsm.interrupt",
				slog.String("status", "ok"),
				slog.Int64("owner_id", s.OwnerID),
				slog.String("flow", flow.FlowOf(s.State)),
				slog.String("state", string(s.State)),
				slog.String("command", name),
			)
			s.Reset()
		}
		return c.run(ctx, s)
	}
	if s.Active() && d.engine.Handles(s.State) {
		return d.engine.Advance(ctx, s, text)
	}
	if s.Active() {
		s.Reset()
	}
	return Reply{Text: msgIdleHint, Keyboard: flow.MainKeyboard()}, nil
}

func (d *Dispatcher) save(ctx context.Context, s *session.Session, wasActive bool) error {
	switch {
	case s.Active():
		return d.sessions.Save(ctx, s)
	case wasActive:
		return d.sessions.Clear(ctx, s.OwnerID)
	}
	return nil
}
