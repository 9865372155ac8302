package domain_test

import (
	"testing"
	"time"

	recurrenceDomain "github.com/qnz18/qzwhatnext/internal/recurrence/domain"
	taskDomain "github.com/qnz18/qzwhatnext/internal/tasks/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailyPreset() recurrenceDomain.Preset {
	return recurrenceDomain.Preset{Frequency: recurrenceDomain.FrequencyDaily, Interval: 1}
}

func TestNewRecurringTaskSeries_RejectsEmptyTitle(t *testing.T) {
	_, err := recurrenceDomain.NewRecurringTaskSeries(uuid.New(), "   ", dailyPreset())

	require.ErrorIs(t, err, recurrenceDomain.ErrEmptyTitle)
}

func TestNewRecurringTaskSeries_RejectsNonPositiveInterval(t *testing.T) {
	p := dailyPreset()
	p.Interval = 0

	_, err := recurrenceDomain.NewRecurringTaskSeries(uuid.New(), "Take vitamins", p)

	require.ErrorIs(t, err, recurrenceDomain.ErrInvalidInterval)
}

func TestRecurringTaskSeries_PauseResume(t *testing.T) {
	s, err := recurrenceDomain.NewRecurringTaskSeries(uuid.New(), "Take vitamins", dailyPreset())
	require.NoError(t, err)

	s.Pause()
	assert.True(t, s.Paused())

	s.Resume()
	assert.False(t, s.Paused())
}

func TestRecurringTaskSeries_NewOccurrence_LinksBackToSeries(t *testing.T) {
	s, err := recurrenceDomain.NewRecurringTaskSeries(uuid.New(), "Take vitamins", dailyPreset())
	require.NoError(t, err)
	s.SetCategory(taskDomain.CategoryHealth)
	s.SetEstimatedDuration(15)

	occDay := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	occurrence, err := s.NewOccurrence(occDay)
	require.NoError(t, err)

	require.NotNil(t, occurrence.RecurrenceSeriesID())
	assert.Equal(t, s.ID(), *occurrence.RecurrenceSeriesID())
	require.NotNil(t, occurrence.RecurrenceOccurrenceStart())
	assert.Equal(t, occDay, *occurrence.RecurrenceOccurrenceStart())
	assert.Equal(t, taskDomain.CategoryHealth, occurrence.Category())
	assert.Equal(t, 15, occurrence.EstimatedDurationMin())
}

func TestRecurringTaskSeries_NewOccurrence_AppliesTimeOfDayWindow(t *testing.T) {
	p := dailyPreset()
	window := recurrenceDomain.WindowMorning
	p.TimeOfDayWindow = &window

	s, err := recurrenceDomain.NewRecurringTaskSeries(uuid.New(), "Take vitamins", p)
	require.NoError(t, err)

	occDay := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	occurrence, err := s.NewOccurrence(occDay)
	require.NoError(t, err)

	require.NotNil(t, occurrence.FlexibilityWindow())
	assert.Equal(t, time.Date(2026, 3, 2, 6, 30, 0, 0, time.UTC), occurrence.FlexibilityWindow().Start)
	assert.Equal(t, time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC), occurrence.FlexibilityWindow().End)
}
