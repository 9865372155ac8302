package application_test

import (
	"testing"
	"time"

	recurrenceApp "github.com/qnz18/qzwhatnext/internal/recurrence/application"
	recurrenceDomain "github.com/qnz18/qzwhatnext/internal/recurrence/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var parseNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestParse_RejectsEmptyInstruction(t *testing.T) {
	_, err := recurrenceApp.Parse("  ", parseNow)
	require.Error(t, err)
}

func TestParse_BedTimeDailyTimeBlock(t *testing.T) {
	p, err := recurrenceApp.Parse("bed time every day from 11pm to 7am", parseNow)
	require.NoError(t, err)

	assert.Equal(t, recurrenceApp.EntityKindTimeBlock, p.EntityKind)
	assert.Equal(t, recurrenceDomain.FrequencyDaily, p.Preset.Frequency)
	require.NotNil(t, p.Preset.TimeStart)
	require.NotNil(t, p.Preset.TimeEnd)
	assert.Equal(t, 23, p.Preset.TimeStart.Hour())
	assert.Equal(t, 7, p.Preset.TimeEnd.Hour())
}

func TestParse_WeekdayTimeBlockWithAt(t *testing.T) {
	p, err := recurrenceApp.Parse("kids practice tues at 4:30", parseNow)
	require.NoError(t, err)

	assert.Equal(t, recurrenceApp.EntityKindTimeBlock, p.EntityKind)
	assert.Equal(t, recurrenceDomain.FrequencyWeekly, p.Preset.Frequency)
	require.Len(t, p.Preset.ByWeekday, 1)
	assert.Equal(t, recurrenceDomain.Tuesday, p.Preset.ByWeekday[0])
	require.NotNil(t, p.Preset.TimeStart)
	assert.Equal(t, 16, p.Preset.TimeStart.Hour())
	assert.Equal(t, 30, p.Preset.TimeStart.Minute())
	require.NotNil(t, p.Preset.TimeEnd)
	assert.Equal(t, 17, p.Preset.TimeEnd.Hour())
}

func TestParse_VitaminsEveryMorningTaskSeries(t *testing.T) {
	p, err := recurrenceApp.Parse("take my vitamins every morning", parseNow)
	require.NoError(t, err)

	assert.Equal(t, recurrenceApp.EntityKindTaskSeries, p.EntityKind)
	assert.Equal(t, recurrenceDomain.FrequencyDaily, p.Preset.Frequency)
	require.NotNil(t, p.Preset.TimeOfDayWindow)
	assert.Equal(t, recurrenceDomain.WindowMorning, *p.Preset.TimeOfDayWindow)
}

func TestParse_GymThreeTimesPerWeek(t *testing.T) {
	p, err := recurrenceApp.Parse("go to the gym 3 times per week", parseNow)
	require.NoError(t, err)

	assert.Equal(t, recurrenceApp.EntityKindTaskSeries, p.EntityKind)
	assert.Equal(t, recurrenceDomain.FrequencyWeekly, p.Preset.Frequency)
	require.NotNil(t, p.Preset.CountPerPeriod)
	assert.Equal(t, 3, *p.Preset.CountPerPeriod)
	assert.Empty(t, p.Preset.ByWeekday)
}

func TestParse_ReplaceAirFiltersEveryThreeMonths(t *testing.T) {
	p, err := recurrenceApp.Parse("replace air filters every 3 months", parseNow)
	require.NoError(t, err)

	assert.Equal(t, recurrenceApp.EntityKindTaskSeries, p.EntityKind)
	assert.Equal(t, recurrenceDomain.FrequencyMonthly, p.Preset.Frequency)
	assert.Equal(t, 3, p.Preset.Interval)
}

func TestParse_FlushWaterHeaterOncePerYear(t *testing.T) {
	p, err := recurrenceApp.Parse("flush water heater once per year in the fall", parseNow)
	require.NoError(t, err)

	assert.Equal(t, recurrenceApp.EntityKindTaskSeries, p.EntityKind)
	assert.Equal(t, recurrenceDomain.FrequencyYearly, p.Preset.Frequency)
}

func TestParse_AIExcludedLeadingDot(t *testing.T) {
	p, err := recurrenceApp.Parse(".take my vitamins every morning", parseNow)
	require.NoError(t, err)

	assert.True(t, p.AIExcluded)
	assert.Equal(t, "take my vitamins every morning", p.Title)
}

func TestParse_WeeklyTimeBlockWithoutWeekdayFails(t *testing.T) {
	_, err := recurrenceApp.Parse("something weekly from 2pm to 3pm", parseNow)
	require.Error(t, err)
}
