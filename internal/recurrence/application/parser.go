// Package application implements the recurrence engine: parsing capture
// instructions into presets, materializing habit occurrences, and exporting
// presets as RRULE strings for calendar display.
package application

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	recurrenceDomain "github.com/qnz18/qzwhatnext/internal/recurrence/domain"
)

// ParseError reports an instruction the parser could not resolve; Missing
// lists the missing field names so API handlers can surface a structured
// 400.
type ParseError struct {
	Message string
	Missing []string
}

func (e *ParseError) Error() string { return e.Message }

func newParseError(msg string, missing ...string) *ParseError {
	return &ParseError{Message: msg, Missing: missing}
}

// EntityKind names what a parsed capture instruction produces.
type EntityKind string

const (
	EntityKindTaskSeries EntityKind = "task_series"
	EntityKindTimeBlock  EntityKind = "time_block"
)

// ParsedCapture is the structured result of parsing a free-text capture
// instruction.
type ParsedCapture struct {
	EntityKind EntityKind
	Title      string
	Preset     recurrenceDomain.Preset
	AIExcluded bool
}

var weekdayAliases = []struct {
	pattern *regexp.Regexp
	day     recurrenceDomain.Weekday
}{
	{regexp.MustCompile(`(?i)\b(mon|monday)\b`), recurrenceDomain.Monday},
	{regexp.MustCompile(`(?i)\b(tue|tues|tuesday)\b`), recurrenceDomain.Tuesday},
	{regexp.MustCompile(`(?i)\b(wed|weds|wednesday)\b`), recurrenceDomain.Wednesday},
	{regexp.MustCompile(`(?i)\b(thu|thur|thurs|thursday)\b`), recurrenceDomain.Thursday},
	{regexp.MustCompile(`(?i)\b(fri|friday)\b`), recurrenceDomain.Friday},
	{regexp.MustCompile(`(?i)\b(sat|saturday)\b`), recurrenceDomain.Saturday},
	{regexp.MustCompile(`(?i)\b(sun|sunday)\b`), recurrenceDomain.Sunday},
}

func extractWeekdays(text string) []recurrenceDomain.Weekday {
	var out []recurrenceDomain.Weekday
	seen := map[recurrenceDomain.Weekday]bool{}
	for _, alias := range weekdayAliases {
		if alias.pattern.MatchString(text) && !seen[alias.day] {
			seen[alias.day] = true
			out = append(out, alias.day)
		}
	}
	return out
}

var timeTokenRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)

type parseContext int

const (
	contextRange parseContext = iota
	contextWeekdayTime
)

func parseTimeToken(token string, ctx parseContext) (hour, minute int, err error) {
	m := timeTokenRe.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return 0, 0, errors.New("could not parse time")
	}
	h, _ := strconv.Atoi(m[1])
	minute = 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	ampm := strings.ToLower(m[3])
	if h < 0 || h > 23 || minute < 0 || minute > 59 {
		return 0, 0, errors.New("invalid time")
	}

	if ampm != "" {
		if h == 12 {
			h = 0
		}
		if ampm == "pm" {
			h += 12
		}
	} else if ctx == contextWeekdayTime && h >= 1 && h <= 7 {
		h += 12
	}

	if h > 23 {
		return 0, 0, errors.New("invalid time")
	}
	return h, minute, nil
}

var timeRangeSplitRe = regexp.MustCompile(`(?i)(.+?)\s*(?:to|-|\x{2013}|\x{2014})\s*(.+)`)

func extractTimeRange(text string) (startHour, startMin, endHour, endMin int, ok bool) {
	m := timeRangeSplitRe.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, 0, 0, false
	}
	h1, m1, err1 := parseTimeToken(m[1], contextRange)
	h2, m2, err2 := parseTimeToken(m[2], contextRange)
	if err1 != nil || err2 != nil {
		return 0, 0, 0, 0, false
	}
	return h1, m1, h2, m2, true
}

var (
	durationMinutesRe = regexp.MustCompile(`(?i)\bfor\s+(\d+(?:\.\d+)?)\s*(min|mins|minute|minutes)\b`)
	durationHoursRe   = regexp.MustCompile(`(?i)\bfor\s+(\d+(?:\.\d+)?)\s*(hr|hrs|hour|hours)\b`)
)

func extractDurationMinutes(text string) (int, bool) {
	lower := strings.ToLower(text)
	if m := durationMinutesRe.FindStringSubmatch(lower); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		minutes := int(v + 0.5)
		if minutes < 1 {
			minutes = 1
		}
		return minutes, true
	}
	if m := durationHoursRe.FindStringSubmatch(lower); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		minutes := int(v*60 + 0.5)
		if minutes < 1 {
			minutes = 1
		}
		return minutes, true
	}
	return 0, false
}

func detectTimeOfDayWindow(text string) (recurrenceDomain.TimeOfDayWindow, bool) {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "wake up"), strings.Contains(t, "wakeup"), strings.Contains(t, "wake-up"):
		return recurrenceDomain.WindowWakeUp, true
	case strings.Contains(t, "morning"):
		return recurrenceDomain.WindowMorning, true
	case strings.Contains(t, "afternoon"):
		return recurrenceDomain.WindowAfternoon, true
	case strings.Contains(t, "evening"):
		return recurrenceDomain.WindowEvening, true
	case strings.Contains(t, "night"):
		return recurrenceDomain.WindowNight, true
	}
	return "", false
}

var (
	everyNRe    = regexp.MustCompile(`(?i)\bevery\s+(\d+)\s+(day|days|week|weeks|month|months|year|years)\b`)
	dailyRe     = regexp.MustCompile(`(?i)\bevery\s+day\b|\bdaily\b`)
	weeklyRe    = regexp.MustCompile(`(?i)\bevery\s+week\b|\bweekly\b|\bper\s+week\b`)
	monthlyRe   = regexp.MustCompile(`(?i)\bevery\s+month\b|\bmonthly\b`)
	yearlyRe    = regexp.MustCompile(`(?i)\bevery\s+year\b|\byearly\b|\bper\s+year\b`)
	onceYearRe  = regexp.MustCompile(`(?i)\bonce\s+per\s+year\b`)
	countWeekRe = regexp.MustCompile(`(?i)\b(\d+)\s*(x|times)\s*(per\s*)?week\b`)
	atClauseRe  = regexp.MustCompile(`(?i)\bat\s+(.+)$`)
)

// Parse converts a free-text capture instruction into a structured preset.
// Parsing is deterministic: the same input always produces the same output
// or the same structured error.
func Parse(text string, now time.Time) (*ParsedCapture, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil, newParseError("instruction is required", "instruction")
	}

	aiExcluded := strings.HasPrefix(raw, ".")
	normalized := strings.TrimSpace(strings.TrimLeft(raw, "."))
	title := normalized

	weekdays := extractWeekdays(normalized)
	rangeH1, rangeM1, rangeH2, rangeM2, hasRange := extractTimeRange(normalized)
	durationMin, hasDuration := extractDurationMinutes(normalized)

	var weekdayHour, weekdayMinute int
	hasWeekdayTime := false
	if len(weekdays) > 0 {
		if m := atClauseRe.FindStringSubmatch(normalized); m != nil {
			if h, mi, err := parseTimeToken(m[1], contextWeekdayTime); err == nil {
				weekdayHour, weekdayMinute, hasWeekdayTime = h, mi, true
			}
		}
		if !hasWeekdayTime && !hasRange {
			matches := timeTokenRe.FindAllString(normalized, -1)
			if len(matches) > 0 {
				if h, mi, err := parseTimeToken(matches[len(matches)-1], contextWeekdayTime); err == nil {
					weekdayHour, weekdayMinute, hasWeekdayTime = h, mi, true
				}
			}
		}
	}

	isTimeBlock := hasRange || (len(weekdays) > 0 && hasWeekdayTime)
	entityKind := EntityKindTaskSeries
	if isTimeBlock {
		entityKind = EntityKindTimeBlock
	}

	var freq recurrenceDomain.Frequency
	interval := 1
	freqSet := false
	if m := everyNRe.FindStringSubmatch(normalized); m != nil {
		interval, _ = strconv.Atoi(m[1])
		switch {
		case strings.Contains(m[2], "day"):
			freq = recurrenceDomain.FrequencyDaily
		case strings.Contains(m[2], "week"):
			freq = recurrenceDomain.FrequencyWeekly
		case strings.Contains(m[2], "month"):
			freq = recurrenceDomain.FrequencyMonthly
		case strings.Contains(m[2], "year"):
			freq = recurrenceDomain.FrequencyYearly
		}
		freqSet = true
	}
	if !freqSet {
		switch {
		case dailyRe.MatchString(normalized):
			freq, freqSet = recurrenceDomain.FrequencyDaily, true
		case weeklyRe.MatchString(normalized):
			freq, freqSet = recurrenceDomain.FrequencyWeekly, true
		case monthlyRe.MatchString(normalized):
			freq, freqSet = recurrenceDomain.FrequencyMonthly, true
		case yearlyRe.MatchString(normalized):
			freq, freqSet = recurrenceDomain.FrequencyYearly, true
		}
	}
	if !freqSet && onceYearRe.MatchString(normalized) {
		freq, freqSet = recurrenceDomain.FrequencyYearly, true
	}
	if !freqSet {
		if len(weekdays) > 0 {
			freq = recurrenceDomain.FrequencyWeekly
		} else {
			freq = recurrenceDomain.FrequencyDaily
		}
	}

	var countPerPeriod *int
	if m := countWeekRe.FindStringSubmatch(normalized); m != nil {
		n, _ := strconv.Atoi(m[1])
		countPerPeriod = &n
		freq = recurrenceDomain.FrequencyWeekly
	}

	var todWindow *recurrenceDomain.TimeOfDayWindow
	if entityKind == EntityKindTaskSeries {
		if w, ok := detectTimeOfDayWindow(normalized); ok {
			todWindow = &w
		}
	}

	startDate := dateOnly(now)

	preset := recurrenceDomain.Preset{
		Frequency: freq,
		Interval:  interval,
		StartDate: &startDate,
	}
	if freq == recurrenceDomain.FrequencyWeekly && len(weekdays) > 0 && countPerPeriod == nil {
		preset.ByWeekday = weekdays
	}
	preset.CountPerPeriod = countPerPeriod
	preset.TimeOfDayWindow = todWindow

	if entityKind == EntityKindTimeBlock {
		if hasRange {
			t1 := recurrenceDomain.NewClockTime(rangeH1, rangeM1)
			t2 := recurrenceDomain.NewClockTime(rangeH2, rangeM2)
			preset.TimeStart = &t1
			preset.TimeEnd = &t2
		} else if hasWeekdayTime {
			t1 := recurrenceDomain.NewClockTime(weekdayHour, weekdayMinute)
			preset.TimeStart = &t1
		}

		if preset.TimeStart == nil {
			return nil, newParseError("time block needs a start time", "time_start")
		}
		if preset.TimeEnd == nil {
			if hasDuration {
				endH, endM := addMinutes(preset.TimeStart.Hour(), preset.TimeStart.Minute(), durationMin)
				t2 := recurrenceDomain.NewClockTime(endH, endM)
				preset.TimeEnd = &t2
			} else {
				t2 := recurrenceDomain.NewClockTime((preset.TimeStart.Hour()+1)%24, preset.TimeStart.Minute())
				preset.TimeEnd = &t2
			}
		}

		if freq == recurrenceDomain.FrequencyWeekly && len(preset.ByWeekday) == 0 {
			if len(weekdays) == 0 {
				return nil, newParseError("weekly time block needs a weekday", "by_weekday")
			}
			preset.ByWeekday = weekdays
		}
	}

	return &ParsedCapture{
		EntityKind: entityKind,
		Title:      title,
		Preset:     preset,
		AIExcluded: aiExcluded,
	}, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func addMinutes(hour, minute, delta int) (int, int) {
	total := hour*60 + minute + delta
	total = ((total % 1440) + 1440) % 1440
	return total / 60, total % 60
}
