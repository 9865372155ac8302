package domain_test

import (
	"testing"
	"time"

	recurrenceDomain "github.com/qnz18/qzwhatnext/internal/recurrence/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreset_ValidateRejectsUntilBeforeStart(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	p := recurrenceDomain.Preset{Frequency: recurrenceDomain.FrequencyDaily, Interval: 1, StartDate: &start, UntilDate: &until}

	err := p.Validate()

	require.ErrorIs(t, err, recurrenceDomain.ErrUntilBeforeStart)
}

func TestWeekdayFromTime(t *testing.T) {
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, recurrenceDomain.Monday, recurrenceDomain.WeekdayFromTime(monday))

	sunday := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, recurrenceDomain.Sunday, recurrenceDomain.WeekdayFromTime(sunday))
}

func TestFlexibilityWindowForDay_NightSpansMidnight(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	start, end, ok := recurrenceDomain.FlexibilityWindowForDay(day, recurrenceDomain.WindowNight)

	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 2, 21, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 3, 2, 0, 0, 0, time.UTC), end)
}

func TestFlexibilityWindowForDay_MorningWithinSameDay(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	start, end, ok := recurrenceDomain.FlexibilityWindowForDay(day, recurrenceDomain.WindowMorning)

	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 2, 6, 30, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC), end)
}

func TestFlexibilityWindowForDay_UnknownWindow(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	_, _, ok := recurrenceDomain.FlexibilityWindowForDay(day, recurrenceDomain.TimeOfDayWindow("BOGUS"))

	assert.False(t, ok)
}
