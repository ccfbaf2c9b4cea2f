// Package flow is the conversation state machine behind /add and /delete.
// Each state has one step; a step reads the user's input, mutates the
// session and returns the reply to send.
package flow

import "github.com/m3rciful/todobot/internal/session"

// Conversation states. StateIdle doubles as "no session".
const (
	StateIdle                   session.State = session.StateIdle
	StateAwaitingTaskText       session.State = "awaiting_task_text"
	StateAwaitingDeadlineChoice session.State = "awaiting_deadline_choice"
	StateAwaitingCustomDate     session.State = "awaiting_custom_date"
	StateAwaitingDeleteTarget   session.State = "awaiting_delete_target"
)

// Session data keys.
const (
	keyText = "text"
)

// Flow names, used in logs.
const (
	FlowAdd    = "add"
	FlowDelete = "delete"
)

// FlowOf returns the flow a state belongs to, or "" for idle.
func FlowOf(st session.State) string {
	switch st {
	case StateAwaitingTaskText, StateAwaitingDeadlineChoice, StateAwaitingCustomDate:
		return FlowAdd
	case StateAwaitingDeleteTarget:
		return FlowDelete
	}
	return ""
}
