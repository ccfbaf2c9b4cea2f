package bot

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/todobot/core/logger"
	tghelpers "github.com/m3rciful/todobot/core/telegram/helpers"
	"github.com/m3rciful/todobot/core/telegram/keyboard"
	"github.com/m3rciful/todobot/internal/dispatch"
)

const (
	msgNoSender = "I can only talk to users in a private chat."
	msgSlowDown = "⏳ Too many messages, please slow down."
)

// handle is the single inbound handler: commands, free text and media all
// pass through the dispatcher.
func (a *App) handle(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user := c.Sender()
	if user == nil {
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "update.no_sender",
			slog.String("status", "skip"),
		)
		if c.Chat() == nil {
			return nil
		}
		return tghelpers.SendText(c, msgNoSender, nil)
	}

	reply, err := a.dispatcher.Handle(ctx, messageFrom(user.ID, c))
	if sendErr := render(c, reply); sendErr != nil && err == nil {
		err = sendErr
	}
	return err
}

func messageFrom(ownerID int64, c tele.Context) dispatch.Message {
	msg := dispatch.Message{OwnerID: ownerID, Kind: dispatch.KindOther}
	if m := c.Message(); m != nil && m.Text != "" {
		msg.Kind = dispatch.KindText
		msg.Text = m.Text
	}
	return msg
}

func render(c tele.Context, r dispatch.Reply) error {
	if r.Text == "" {
		return nil
	}
	return tghelpers.SendText(c, r.Text, keyboard.Markup(r.Keyboard, r.RemoveKeyboard))
}

func slowDown(c tele.Context) error {
	return tghelpers.SendText(c, msgSlowDown, nil)
}
