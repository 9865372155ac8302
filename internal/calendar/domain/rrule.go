package domain

import (
	"time"

	recurrenceDomain "github.com/qnz18/qzwhatnext/internal/recurrence/domain"
	"github.com/teambition/rrule-go"
)

var weekdayToRRule = map[recurrenceDomain.Weekday]rrule.Weekday{
	recurrenceDomain.Monday:    rrule.MO,
	recurrenceDomain.Tuesday:   rrule.TU,
	recurrenceDomain.Wednesday: rrule.WE,
	recurrenceDomain.Thursday:  rrule.TH,
	recurrenceDomain.Friday:    rrule.FR,
	recurrenceDomain.Saturday:  rrule.SA,
	recurrenceDomain.Sunday:    rrule.SU,
}

var frequencyToRRule = map[recurrenceDomain.Frequency]rrule.Frequency{
	recurrenceDomain.FrequencyDaily:   rrule.DAILY,
	recurrenceDomain.FrequencyWeekly:  rrule.WEEKLY,
	recurrenceDomain.FrequencyMonthly: rrule.MONTHLY,
	recurrenceDomain.FrequencyYearly:  rrule.YEARLY,
}

// BuildRRule renders a recurrence preset as an RFC 5545 RRULE string for a
// recurring time block's calendar event. This is export-only: the gateway
// never re-parses an RRULE it reads back from the provider, since the
// preset stored in the database is always the source of truth.
func BuildRRule(preset recurrenceDomain.Preset, dtstart time.Time) (string, error) {
	opts := rrule.ROption{
		Freq:     frequencyToRRule[preset.Frequency],
		Interval: preset.Interval,
		Dtstart:  dtstart,
	}
	if preset.UntilDate != nil {
		opts.Until = *preset.UntilDate
	}
	if len(preset.ByWeekday) > 0 {
		days := make([]rrule.Weekday, 0, len(preset.ByWeekday))
		for _, wd := range preset.ByWeekday {
			days = append(days, weekdayToRRule[wd])
		}
		opts.Byweekday = days
	}

	rule, err := rrule.NewRRule(opts)
	if err != nil {
		return "", err
	}
	return rule.String(), nil
}
