package task

import (
	"strings"
	"time"
	"unicode/utf8"
)

// ValidateText checks the 1..MaxTextLength rule on the trimmed text.
func ValidateText(text string) error {
	text = strings.TrimSpace(text)
	switch n := utf8.RuneCountInString(text); {
	case n == 0:
		return &ValidationError{Field: FieldText, Reason: ReasonEmpty}
	case n > MaxTextLength:
		return &ValidationError{Field: FieldText, Reason: ReasonTooLong}
	}
	return nil
}

// ValidateDeadline rejects deadlines whose calendar date, in loc, is before
// the date of now. Any time later today is accepted.
func ValidateDeadline(deadline, now time.Time, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}
	if StartOfDay(deadline, loc).Before(StartOfDay(now, loc)) {
		return &ValidationError{Field: FieldDeadline, Reason: ReasonPastDeadline}
	}
	return nil
}

// StartOfDay returns midnight of t's date in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// EndOfDay returns 23:59 of t's date in loc, the deadline used for day-only input.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 0, 0, loc)
}
