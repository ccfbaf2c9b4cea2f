package dispatch

const (
	msgWelcome = "📝 Welcome to the To-Do List bot!\n" +
		"Use the menu on the left or the buttons below."
	msgHelp = "ℹ️ Available commands:\n" +
		"/add - add a new task\n" +
		"/list - show all tasks\n" +
		"/delete - delete a task by its number\n" +
		"/help - show this message\n" +
		"/contribute - project repository\n" +
		"/review - send a review to the author\n" +
		"/donate - support the project"
	msgIdleHint       = "🤔 I didn't get that. Use /add to create a task or /help to see all commands."
	msgUnknownCommand = "🤔 Unknown command. Send /help to see what I can do."
	msgTextOnly       = "📎 I can only read text messages. Use /help to see the commands."
	msgContribute     = "🛠 The project is open source, contributions are welcome:\n%s"
	msgReview         = "💬 Reviews and ideas go to the author:\n%s"
	msgDonate         = "☕ Support the project:\n%s"
	msgNotConfigured  = "This link is not configured yet."
)
