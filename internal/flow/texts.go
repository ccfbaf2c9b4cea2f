package flow

const (
	msgAskText         = "✏️ Send the task text."
	msgAskDeadline     = "⏰ When is it due? Pick a deadline:"
	msgPickDeadline    = "Please pick one of the buttons: Today, Tomorrow or Custom date."
	msgAskDate         = "📆 Send the date as DD.MM.YYYY, or press ↩️ Back."
	msgBadDate         = "❌ I can't read that date. Use DD.MM.YYYY, for example 31.12.2026."
	msgPastDate        = "❌ That date has already passed. Send today's date or a later one."
	msgEmptyText       = "❌ The task text is empty. Send the task text again."
	msgLongText        = "❌ The task text is longer than %d characters. Send a shorter text."
	msgAdded           = "✅ Task added: %s\nDeadline: %s"
	msgNothingToDelete = "📭 You have no tasks, nothing to delete."
	msgAskPosition     = "🗑 Send the number of the task to delete, or press ↩️ Back.\n\n%s"
	msgNotNumber       = "❌ Send the task number as digits, for example 1."
	msgNoSuchPosition  = "❌ There is no task #%d. Send a number from 1 to %d, or press ↩️ Back."
	msgDeleted         = "🗑 Task #%d deleted."
	msgDeleteCancelled = "↩️ Deletion cancelled."
	msgTryLater        = "⚠️ Something went wrong on our side. Please try again later."
	msgListHeader      = "📋 Your tasks:"
	msgListEmpty       = "📭 You have no tasks yet. Use /add to create one."
	msgOverdue         = "⚠️ overdue"
)

// TryLater is the opaque reply used for backend failures.
func TryLater() Reply {
	return Reply{Text: msgTryLater, Keyboard: MainKeyboard()}
}
