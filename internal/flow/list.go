package flow

import (
	"fmt"
	"strings"
	"time"

	"github.com/m3rciful/todobot/internal/task"
)

// FormatList renders tasks as numbered lines; numbers are list positions.
func FormatList(tasks []task.Task, now time.Time, loc *time.Location) string {
	if len(tasks) == 0 {
		return msgListEmpty
	}
	var b strings.Builder
	b.WriteString(msgListHeader)
	for i, t := range tasks {
		b.WriteString("\n")
		b.WriteString(FormatLine(i+1, t, now, loc))
	}
	return b.String()
}

// FormatLine renders one task at position pos.
func FormatLine(pos int, t task.Task, now time.Time, loc *time.Location) string {
	line := fmt.Sprintf("%d. %s", pos, t.Text)
	if t.Deadline == nil {
		return line
	}
	line += "  deadline " + FormatDeadline(*t.Deadline, loc)
	if t.Overdue(now) {
		line += " " + msgOverdue
	}
	return line
}
