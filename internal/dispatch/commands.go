package dispatch

import (
	"context"
	"fmt"

	"github.com/m3rciful/todobot/internal/flow"
	"github.com/m3rciful/todobot/internal/session"
)

// Command describes a slash command for the chat menu.
type Command struct {
	Name        string
	Description string
}

// Info holds the links shown by the informational commands.
type Info struct {
	RepositoryURL string
	ReviewContact string
	DonateURL     string
}

type commandFunc func(ctx context.Context, s *session.Session) (Reply, error)

type command struct {
	Command
	run commandFunc
}

func (d *Dispatcher) commandTable() []command {
	return []command{
		{Command{"start", "Start the bot"}, d.start},
		{Command{"help", "Show available commands"}, d.help},
		{Command{"add", "Add a new task"}, d.beginAdd},
		{Command{"list", "Show all tasks"}, d.list},
		{Command{"delete", "Delete a task by number"}, d.beginDelete},
		{Command{"contribute", "Contribute to the project repository"}, d.contribute},
		{Command{"review", "Send a review to the author"}, d.review},
		{Command{"donate", "Donate"}, d.donate},
	}
}

func (d *Dispatcher) start(_ context.Context, s *session.Session) (Reply, error) {
	s.Reset()
	return Reply{Text: msgWelcome, Keyboard: flow.MainKeyboard()}, nil
}

func (d *Dispatcher) help(_ context.Context, s *session.Session) (Reply, error) {
	s.Reset()
	return Reply{Text: msgHelp}, nil
}

func (d *Dispatcher) beginAdd(ctx context.Context, s *session.Session) (Reply, error) {
	return d.engine.BeginAdd(ctx, s), nil
}

func (d *Dispatcher) beginDelete(ctx context.Context, s *session.Session) (Reply, error) {
	return d.engine.BeginDelete(ctx, s)
}

func (d *Dispatcher) list(ctx context.Context, s *session.Session) (Reply, error) {
	s.Reset()
	tasks, err := d.tasks.List(ctx, s.OwnerID)
	if err != nil {
		return flow.TryLater(), err
	}
	return Reply{
		Text:     flow.FormatList(tasks, d.engine.Now(), d.engine.Location()),
		Keyboard: flow.MainKeyboard(),
	}, nil
}

func (d *Dispatcher) contribute(_ context.Context, s *session.Session) (Reply, error) {
	s.Reset()
	return Reply{Text: link(msgContribute, d.info.RepositoryURL)}, nil
}

func (d *Dispatcher) review(_ context.Context, s *session.Session) (Reply, error) {
	s.Reset()
	return Reply{Text: link(msgReview, d.info.ReviewContact)}, nil
}

func (d *Dispatcher) donate(_ context.Context, s *session.Session) (Reply, error) {
	s.Reset()
	return Reply{Text: link(msgDonate, d.info.DonateURL)}, nil
}

func link(format, target string) string {
	if target == "" {
		target = msgNotConfigured
	}
	return fmt.Sprintf(format, target)
}
