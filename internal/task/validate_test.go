package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDeadlineUsesCalendarDate(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	now := time.Date(2026, time.October, 16, 0, 30, 0, 0, loc)

	assert.NoError(t, ValidateDeadline(now.Add(-20*time.Minute), now, loc))
	assert.NoError(t, ValidateDeadline(EndOfDay(now, loc), now, loc))
	// 23:30 of the previous local day, although the same UTC date as now.
	err := ValidateDeadline(now.Add(-time.Hour), now, loc)
	ve, ok := IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, ReasonPastDeadline, ve.Reason)
	assert.Equal(t, "INVALID_DEADLINE_PAST_DEADLINE", ve.Code())
}

func TestEndOfDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	got := EndOfDay(time.Date(2026, time.October, 17, 2, 0, 0, 0, time.UTC), loc)
	assert.Equal(t, time.Date(2026, time.October, 16, 23, 59, 0, 0, loc), got)
}

func TestOverdue(t *testing.T) {
	now := time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)
	assert.True(t, Task{Deadline: &past}.Overdue(now))
	assert.False(t, Task{Deadline: &future}.Overdue(now))
	assert.False(t, Task{}.Overdue(now))
}
