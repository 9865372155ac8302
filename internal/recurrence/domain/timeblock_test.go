package domain_test

import (
	"testing"
	"time"

	recurrenceDomain "github.com/qnz18/qzwhatnext/internal/recurrence/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecurringTimeBlock_RejectsEmptyTitle(t *testing.T) {
	p := recurrenceDomain.Preset{Frequency: recurrenceDomain.FrequencyDaily, Interval: 1}

	_, err := recurrenceDomain.NewRecurringTimeBlock(uuid.New(), " ", p, recurrenceDomain.NewClockTime(23, 0), recurrenceDomain.NewClockTime(7, 0))

	require.ErrorIs(t, err, recurrenceDomain.ErrEmptyTitle)
}

func TestRecurringTimeBlock_OccursOn_DailyEveryDay(t *testing.T) {
	p := recurrenceDomain.Preset{Frequency: recurrenceDomain.FrequencyDaily, Interval: 1}
	b, err := recurrenceDomain.NewRecurringTimeBlock(uuid.New(), "Bed time", p, recurrenceDomain.NewClockTime(23, 0), recurrenceDomain.NewClockTime(7, 0))
	require.NoError(t, err)

	assert.True(t, b.OccursOn(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)))
	assert.True(t, b.OccursOn(time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)))
}

func TestRecurringTimeBlock_OccursOn_WeeklyByWeekday(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := recurrenceDomain.Preset{
		Frequency: recurrenceDomain.FrequencyWeekly,
		Interval:  1,
		ByWeekday: []recurrenceDomain.Weekday{recurrenceDomain.Tuesday, recurrenceDomain.Thursday},
		StartDate: &start,
	}
	b, err := recurrenceDomain.NewRecurringTimeBlock(uuid.New(), "Kids practice", p, recurrenceDomain.NewClockTime(16, 30), recurrenceDomain.NewClockTime(17, 30))
	require.NoError(t, err)

	tuesday := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	wednesday := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	assert.True(t, b.OccursOn(tuesday))
	assert.False(t, b.OccursOn(wednesday))
}

func TestRecurringTimeBlock_OccursOn_RespectsPauseAndBounds(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	p := recurrenceDomain.Preset{Frequency: recurrenceDomain.FrequencyDaily, Interval: 1, StartDate: &start, UntilDate: &until}
	b, err := recurrenceDomain.NewRecurringTimeBlock(uuid.New(), "Bed time", p, recurrenceDomain.NewClockTime(23, 0), recurrenceDomain.NewClockTime(7, 0))
	require.NoError(t, err)

	assert.False(t, b.OccursOn(time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)))
	assert.True(t, b.OccursOn(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)))
	assert.False(t, b.OccursOn(time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)))

	b.Pause()
	assert.False(t, b.OccursOn(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)))
}

func TestRecurringTimeBlock_OccursOn_IntervalSkip(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	p := recurrenceDomain.Preset{Frequency: recurrenceDomain.FrequencyDaily, Interval: 2, StartDate: &start}
	b, err := recurrenceDomain.NewRecurringTimeBlock(uuid.New(), "Alternate day block", p, recurrenceDomain.NewClockTime(22, 0), recurrenceDomain.NewClockTime(23, 0))
	require.NoError(t, err)

	assert.True(t, b.OccursOn(start))
	assert.False(t, b.OccursOn(start.AddDate(0, 0, 1)))
	assert.True(t, b.OccursOn(start.AddDate(0, 0, 2)))
}
