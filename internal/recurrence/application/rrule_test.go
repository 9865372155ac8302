package application_test

import (
	"testing"
	"time"

	recurrenceApp "github.com/qnz18/qzwhatnext/internal/recurrence/application"
	recurrenceDomain "github.com/qnz18/qzwhatnext/internal/recurrence/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teambition/rrule-go"
)

func TestExportRRULE_DailyNoExtras(t *testing.T) {
	p := recurrenceDomain.Preset{Frequency: recurrenceDomain.FrequencyDaily, Interval: 1}

	got := recurrenceApp.ExportRRULE(p)

	assert.Equal(t, "FREQ=DAILY", got)
}

func TestExportRRULE_WeeklyWithIntervalAndByDay(t *testing.T) {
	p := recurrenceDomain.Preset{
		Frequency: recurrenceDomain.FrequencyWeekly,
		Interval:  2,
		ByWeekday: []recurrenceDomain.Weekday{recurrenceDomain.Tuesday, recurrenceDomain.Thursday},
	}

	got := recurrenceApp.ExportRRULE(p)

	assert.Equal(t, "FREQ=WEEKLY;INTERVAL=2;BYDAY=TU,TH", got)
}

func TestExportRRULE_WithUntilDate(t *testing.T) {
	until := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	p := recurrenceDomain.Preset{Frequency: recurrenceDomain.FrequencyMonthly, Interval: 1, UntilDate: &until}

	got := recurrenceApp.ExportRRULE(p)

	assert.Equal(t, "FREQ=MONTHLY;UNTIL=20261231T235959Z", got)
}

// TestExportRRULE_RoundTripsThroughRRuleLibrary validates that every string
// this package emits parses as a well-formed RRULE value, even though the
// application never reparses its own output.
func TestExportRRULE_RoundTripsThroughRRuleLibrary(t *testing.T) {
	until := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	p := recurrenceDomain.Preset{
		Frequency: recurrenceDomain.FrequencyWeekly,
		Interval:  1,
		ByWeekday: []recurrenceDomain.Weekday{recurrenceDomain.Monday, recurrenceDomain.Wednesday, recurrenceDomain.Friday},
		UntilDate: &until,
	}

	rule := recurrenceApp.ExportRRULE(p)

	_, err := rrule.StrToRRule(rule)
	require.NoError(t, err)
}
