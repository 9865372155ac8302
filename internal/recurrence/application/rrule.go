package application

import (
	"fmt"
	"strconv"
	"strings"

	recurrenceDomain "github.com/qnz18/qzwhatnext/internal/recurrence/domain"
)

var weekdayRRuleTokens = map[recurrenceDomain.Weekday]string{
	recurrenceDomain.Monday:    "MO",
	recurrenceDomain.Tuesday:   "TU",
	recurrenceDomain.Wednesday: "WE",
	recurrenceDomain.Thursday:  "TH",
	recurrenceDomain.Friday:    "FR",
	recurrenceDomain.Saturday:  "SA",
	recurrenceDomain.Sunday:    "SU",
}

var frequencyRRuleTokens = map[recurrenceDomain.Frequency]string{
	recurrenceDomain.FrequencyDaily:   "DAILY",
	recurrenceDomain.FrequencyWeekly:  "WEEKLY",
	recurrenceDomain.FrequencyMonthly: "MONTHLY",
	recurrenceDomain.FrequencyYearly:  "YEARLY",
}

// ExportRRULE converts a preset to an RRULE value string (without the
// leading "RRULE:" prefix), for one-way display on exported calendar
// events. The string is never parsed back into a preset; presets are the
// source of truth and RRULE is a read-only projection of them.
func ExportRRULE(p recurrenceDomain.Preset) string {
	var parts []string
	parts = append(parts, "FREQ="+frequencyRRuleTokens[p.Frequency])

	if p.Interval != 0 && p.Interval != 1 {
		parts = append(parts, "INTERVAL="+strconv.Itoa(p.Interval))
	}

	if len(p.ByWeekday) > 0 {
		tokens := make([]string, 0, len(p.ByWeekday))
		for _, d := range p.ByWeekday {
			tokens = append(tokens, weekdayRRuleTokens[d])
		}
		parts = append(parts, "BYDAY="+strings.Join(tokens, ","))
	}

	if p.UntilDate != nil {
		parts = append(parts, fmt.Sprintf("UNTIL=%sT235959Z", p.UntilDate.Format("20060102")))
	}

	return strings.Join(parts, ";")
}
