// Package domain holds the recurrence data model: presets, recurring task
// series, and recurring time blocks.
package domain

import (
	"errors"
	"time"
)

var ErrUntilBeforeStart = errors.New("until_date must not precede start_date")

// Frequency is the recurrence cadence.
type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyYearly  Frequency = "YEARLY"
)

// Weekday is an ISO-ish weekday code, matching iCalendar BYDAY tokens.
type Weekday string

const (
	Monday    Weekday = "MO"
	Tuesday   Weekday = "TU"
	Wednesday Weekday = "WE"
	Thursday  Weekday = "TH"
	Friday    Weekday = "FR"
	Saturday  Weekday = "SA"
	Sunday    Weekday = "SU"
)

// WeekdayFromTime returns the Weekday code for a date's day of week.
func WeekdayFromTime(t time.Time) Weekday {
	switch t.Weekday() {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

// TimeOfDayWindow names a coarse part of the day used by task-series
// flexibility derivation.
type TimeOfDayWindow string

const (
	WindowWakeUp   TimeOfDayWindow = "WAKE_UP"
	WindowMorning  TimeOfDayWindow = "MORNING"
	WindowAfternoon TimeOfDayWindow = "AFTERNOON"
	WindowEvening  TimeOfDayWindow = "EVENING"
	WindowNight    TimeOfDayWindow = "NIGHT"
)

// windowBounds is the fixed time-of-day → clock-time table. Night spans
// midnight (end is on the following day).
var windowBounds = map[TimeOfDayWindow][2]clockTime{
	WindowWakeUp:    {clockTime{5, 0}, clockTime{6, 30}},
	WindowMorning:   {clockTime{6, 30}, clockTime{11, 0}},
	WindowAfternoon: {clockTime{11, 0}, clockTime{17, 0}},
	WindowEvening:   {clockTime{17, 0}, clockTime{21, 0}},
	WindowNight:     {clockTime{21, 0}, clockTime{2, 0}},
}

type clockTime struct {
	hour, minute int
}

// FlexibilityWindowForDay returns the [start, end) instant pair a
// time-of-day window resolves to on a given calendar day.
func FlexibilityWindowForDay(day time.Time, window TimeOfDayWindow) (time.Time, time.Time, bool) {
	bounds, ok := windowBounds[window]
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	y, m, d := day.Date()
	loc := day.Location()
	start := time.Date(y, m, d, bounds[0].hour, bounds[0].minute, 0, 0, loc)
	end := time.Date(y, m, d, bounds[1].hour, bounds[1].minute, 0, 0, loc)
	if !end.After(start) {
		end = end.Add(24 * time.Hour)
	}
	return start, end, true
}

// Preset fully describes a recurrence rule shared by task series and time
// blocks.
type Preset struct {
	Frequency       Frequency
	Interval        int
	ByWeekday       []Weekday
	CountPerPeriod  *int
	TimeStart       *clockTime
	TimeEnd         *clockTime
	TimeOfDayWindow *TimeOfDayWindow
	StartDate       *time.Time
	UntilDate       *time.Time
}

// NewClockTime builds a clock-time value (hour/minute only, no date).
func NewClockTime(hour, minute int) clockTime { return clockTime{hour: hour, minute: minute} }

func (c clockTime) Hour() int   { return c.hour }
func (c clockTime) Minute() int { return c.minute }

// Validate enforces the until_date >= start_date invariant.
func (p Preset) Validate() error {
	if p.StartDate != nil && p.UntilDate != nil && p.UntilDate.Before(*p.StartDate) {
		return ErrUntilBeforeStart
	}
	return nil
}
