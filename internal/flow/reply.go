package flow

// Reply is a transport-neutral answer: text plus an optional reply keyboard.
// RemoveKeyboard hides a previously shown keyboard when Keyboard is empty.
type Reply struct {
	Text           string
	Keyboard       [][]string
	RemoveKeyboard bool
}

// Button labels.
const (
	BtnToday      = "Today 🕒"
	BtnTomorrow   = "Tomorrow 📅"
	BtnCustomDate = "Custom date 📆"
	BtnBack       = "↩️ Back"
)

// MainKeyboard is shown on /start and after a flow finishes.
func MainKeyboard() [][]string {
	return [][]string{
		{"/add", "/list"},
		{"/delete", "/help"},
	}
}

// DeadlineKeyboard offers the deadline choices.
func DeadlineKeyboard() [][]string {
	return [][]string{
		{BtnToday, BtnTomorrow},
		{BtnCustomDate},
	}
}

// BackKeyboard offers the single back button.
func BackKeyboard() [][]string {
	return [][]string{{BtnBack}}
}

func reply(text string, keyboard [][]string) Reply {
	return Reply{Text: text, Keyboard: keyboard}
}
