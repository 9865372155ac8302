// Package persistence implements SQLite-backed repositories for the
// recurrence context, hand-written against database.Executor since the
// generated sqlc package this schema would otherwise use does not exist.
package persistence

import (
	"encoding/json"
	"time"

	recurrenceDomain "github.com/qnz18/qzwhatnext/internal/recurrence/domain"
)

// presetRow is the JSON-serializable shape of a Preset. clockTime is
// unexported in the domain package, so TimeStart/TimeEnd round-trip through
// NewClockTime/Hour/Minute rather than through struct tags.
type presetRow struct {
	Frequency       recurrenceDomain.Frequency   `json:"frequency"`
	Interval        int                          `json:"interval"`
	ByWeekday       []recurrenceDomain.Weekday   `json:"by_weekday,omitempty"`
	CountPerPeriod  *int                         `json:"count_per_period,omitempty"`
	TimeStartHour   *int                         `json:"time_start_hour,omitempty"`
	TimeStartMinute *int                         `json:"time_start_minute,omitempty"`
	TimeEndHour     *int                         `json:"time_end_hour,omitempty"`
	TimeEndMinute   *int                         `json:"time_end_minute,omitempty"`
	TimeOfDayWindow *recurrenceDomain.TimeOfDayWindow `json:"time_of_day_window,omitempty"`
	StartDate       *time.Time                   `json:"start_date,omitempty"`
	UntilDate       *time.Time                   `json:"until_date,omitempty"`
}

func encodePreset(p recurrenceDomain.Preset) ([]byte, error) {
	row := presetRow{
		Frequency:       p.Frequency,
		Interval:        p.Interval,
		ByWeekday:       p.ByWeekday,
		CountPerPeriod:  p.CountPerPeriod,
		TimeOfDayWindow: p.TimeOfDayWindow,
		StartDate:       p.StartDate,
		UntilDate:       p.UntilDate,
	}
	if p.TimeStart != nil {
		h, m := p.TimeStart.Hour(), p.TimeStart.Minute()
		row.TimeStartHour, row.TimeStartMinute = &h, &m
	}
	if p.TimeEnd != nil {
		h, m := p.TimeEnd.Hour(), p.TimeEnd.Minute()
		row.TimeEndHour, row.TimeEndMinute = &h, &m
	}
	return json.Marshal(row)
}

func decodePreset(raw []byte) (recurrenceDomain.Preset, error) {
	var row presetRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return recurrenceDomain.Preset{}, err
	}
	p := recurrenceDomain.Preset{
		Frequency:       row.Frequency,
		Interval:        row.Interval,
		ByWeekday:       row.ByWeekday,
		CountPerPeriod:  row.CountPerPeriod,
		TimeOfDayWindow: row.TimeOfDayWindow,
		StartDate:       row.StartDate,
		UntilDate:       row.UntilDate,
	}
	if row.TimeStartHour != nil && row.TimeStartMinute != nil {
		ct := recurrenceDomain.NewClockTime(*row.TimeStartHour, *row.TimeStartMinute)
		p.TimeStart = &ct
	}
	if row.TimeEndHour != nil && row.TimeEndMinute != nil {
		ct := recurrenceDomain.NewClockTime(*row.TimeEndHour, *row.TimeEndMinute)
		p.TimeEnd = &ct
	}
	return p, nil
}
