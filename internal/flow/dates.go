package flow

import (
	"strings"
	"time"
	"unicode"
)

const dateTimeLayout = "02.01.2006 15:04"

var dayLayouts = []string{
	"02.01.2006",
	"2.1.2006",
}

// ParseDay reads a DD.MM.YYYY date (leading zeros optional) and returns
// 23:59 of that day in loc.
func ParseDay(input string, loc *time.Location) (time.Time, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dayLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 0, 0, loc), true
		}
	}
	return time.Time{}, false
}

// FormatDeadline renders a deadline in loc for user-facing text.
func FormatDeadline(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateTimeLayout)
}

// normalizeChoice lowercases input and strips emoji and punctuation, so
// "Today 🕒", "today" and "TODAY" compare equal.
func normalizeChoice(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

var (
	choiceToday    = normalizeChoice(BtnToday)
	choiceTomorrow = normalizeChoice(BtnTomorrow)
	choiceCustom   = normalizeChoice(BtnCustomDate)
	choiceBack     = normalizeChoice(BtnBack)
)

// IsBack reports whether input is the back token.
func IsBack(input string) bool {
	return normalizeChoice(input) == choiceBack
}
