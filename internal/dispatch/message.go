// Package dispatch routes one inbound chat message to a command or to the
// sender's active conversation and returns the reply to send.
package dispatch

import (
	"strings"

	"github.com/m3rciful/todobot/internal/flow"
)

// Kind classifies inbound messages.
type Kind string

const (
	// KindText is a plain text message, commands included.
	KindText Kind = "text"
	// KindOther covers media, stickers, documents and the like.
	KindOther Kind = "other"
)

// Message is the transport-neutral inbound message.
type Message struct {
	OwnerID int64
	Text    string
	Kind    Kind
}

// Reply is what the gateway renders back to the user.
type Reply = flow.Reply

// parseCommand splits "/add@todo_bot extra" into "add". The second result is
// false for input that is not a command.
func parseCommand(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") || len(text) == 1 {
		return "", false
	}
	name := strings.Fields(text[1:])[0]
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return "", false
	}
	return strings.ToLower(name), true
}
