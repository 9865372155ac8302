package application

import (
	"context"
	"sort"
	"time"

	recurrenceDomain "github.com/qnz18/qzwhatnext/internal/recurrence/domain"
	taskDomain "github.com/qnz18/qzwhatnext/internal/tasks/domain"
	"github.com/google/uuid"
)

// Materializer turns active recurring series into concrete task
// occurrences within a bounded window. It enforces the habit invariant:
// at most one OPEN task per series at a time, and overdue OPEN occurrences
// roll forward to MISSED rather than accumulate.
type Materializer struct {
	series recurrenceDomain.SeriesRepository
	tasks  taskDomain.Repository
}

func NewMaterializer(series recurrenceDomain.SeriesRepository, tasks taskDomain.Repository) *Materializer {
	return &Materializer{series: series, tasks: tasks}
}

// Result summarizes one materialization pass.
type Result struct {
	Created      int
	RolledToMiss int
}

// Materialize creates missing task occurrences for a user's active series
// within [windowStart, windowEnd), after first rolling forward any OPEN
// recurrence-linked task whose occurrence window ended before windowStart.
func (m *Materializer) Materialize(ctx context.Context, userID uuid.UUID, windowStart, windowEnd time.Time) (Result, error) {
	var result Result

	pastDue, err := m.tasks.OpenOccurrencesPastWindow(ctx, userID, windowStart)
	if err != nil {
		return result, err
	}
	for _, t := range pastDue {
		if err := t.MarkMissed(); err != nil {
			continue
		}
		if err := m.tasks.Save(ctx, t); err != nil {
			continue
		}
		result.RolledToMiss++
	}

	seriesRows, err := m.series.ListActive(ctx, userID)
	if err != nil {
		return result, err
	}

	startDay := dateOnly(windowStart)
	endDay := dateOnly(windowEnd)

	for _, s := range seriesRows {
		existing, err := m.tasks.OpenOccurrenceForSeries(ctx, userID, s.ID())
		if err != nil {
			continue
		}
		if existing != nil {
			continue
		}

		preset := s.Preset()
		var occurrenceDay time.Time
		var found bool

		if preset.Frequency == recurrenceDomain.FrequencyWeekly && preset.CountPerPeriod != nil {
			occurrenceDay, found = nextCountPerWeekDay(preset, startDay, endDay)
		} else {
			occurrenceDay, found = nextOccurrenceDay(preset, startDay, endDay)
		}
		if !found {
			continue
		}

		task, err := s.NewOccurrence(occurrenceDay)
		if err != nil {
			continue
		}
		if err := m.tasks.Save(ctx, task); err != nil {
			continue
		}
		result.Created++
	}

	return result, nil
}

// occursOnDay mirrors the reference materializer's per-frequency occurrence
// check: DAILY/WEEKLY/MONTHLY/YEARLY all anchor to start_date (or the day
// itself, absent a start_date) and gate on the interval.
func occursOnDay(p recurrenceDomain.Preset, day time.Time) bool {
	if p.StartDate != nil && day.Before(dateOnly(*p.StartDate)) {
		return false
	}
	if p.UntilDate != nil && day.After(dateOnly(*p.UntilDate)) {
		return false
	}

	switch p.Frequency {
	case recurrenceDomain.FrequencyDaily:
		anchor := day
		if p.StartDate != nil {
			anchor = *p.StartDate
		}
		delta := daysBetween(anchor, day)
		return delta >= 0 && delta%p.Interval == 0

	case recurrenceDomain.FrequencyWeekly:
		anchor := day
		if p.StartDate != nil {
			anchor = *p.StartDate
		}
		weekDelta := daysBetween(anchor, day) / 7
		if weekDelta < 0 || weekDelta%p.Interval != 0 {
			return false
		}
		if len(p.ByWeekday) > 0 {
			wd := recurrenceDomain.WeekdayFromTime(day)
			for _, w := range p.ByWeekday {
				if w == wd {
					return true
				}
			}
			return false
		}
		return true

	case recurrenceDomain.FrequencyMonthly:
		anchor := day
		if p.StartDate != nil {
			anchor = *p.StartDate
		}
		if day.Day() != anchor.Day() {
			return false
		}
		months := (day.Year()-anchor.Year())*12 + int(day.Month()-anchor.Month())
		return months >= 0 && months%p.Interval == 0

	case recurrenceDomain.FrequencyYearly:
		anchor := day
		if p.StartDate != nil {
			anchor = *p.StartDate
		}
		if day.Month() != anchor.Month() || day.Day() != anchor.Day() {
			return false
		}
		years := day.Year() - anchor.Year()
		return years >= 0 && years%p.Interval == 0

	default:
		return false
	}
}

// nextOccurrenceDay finds the earliest day in [start, end) the preset
// occurs on. Habit semantics materialize only the next occurrence, never
// the whole window at once.
func nextOccurrenceDay(p recurrenceDomain.Preset, start, end time.Time) (time.Time, bool) {
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		if occursOnDay(p, day) {
			return day, true
		}
	}
	return time.Time{}, false
}

// nextCountPerWeekDay chooses the next day from the first in-window ISO
// week's evenly-spaced pick set, per chooseDaysInWeek.
func nextCountPerWeekDay(p recurrenceDomain.Preset, start, end time.Time) (time.Time, bool) {
	anchor := start
	if p.StartDate != nil {
		anchor = *p.StartDate
	}

	weekMap := map[[2]int][]time.Time{}
	var weekKeys [][2]int
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		if p.StartDate != nil && day.Before(dateOnly(*p.StartDate)) {
			continue
		}
		if p.UntilDate != nil && day.After(dateOnly(*p.UntilDate)) {
			continue
		}
		weekDelta := daysBetween(anchor, day) / 7
		if weekDelta < 0 || weekDelta%p.Interval != 0 {
			continue
		}
		year, week := day.ISOWeek()
		key := [2]int{year, week}
		if _, ok := weekMap[key]; !ok {
			weekKeys = append(weekKeys, key)
		}
		weekMap[key] = append(weekMap[key], day)
	}
	if len(weekKeys) == 0 {
		return time.Time{}, false
	}
	sort.Slice(weekKeys, func(i, j int) bool {
		if weekKeys[i][0] != weekKeys[j][0] {
			return weekKeys[i][0] < weekKeys[j][0]
		}
		return weekKeys[i][1] < weekKeys[j][1]
	})

	firstWeek := weekMap[weekKeys[0]]
	sort.Slice(firstWeek, func(i, j int) bool { return firstWeek[i].Before(firstWeek[j]) })
	n := 1
	if p.CountPerPeriod != nil {
		n = *p.CountPerPeriod
	}
	chosen := chooseDaysInWeek(firstWeek, n)
	if len(chosen) == 0 {
		return time.Time{}, false
	}
	return chosen[0], true
}

// chooseDaysInWeek picks n days from a sorted slice, spread as evenly as
// possible by index. Collisions from rounding are resolved by scanning
// forward, then backward, for the nearest unused day.
func chooseDaysInWeek(days []time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	if len(days) <= n {
		out := make([]time.Time, len(days))
		copy(out, days)
		return out
	}

	step := 0.0
	if n > 1 {
		step = float64(len(days)-1) / float64(n-1)
	}

	used := make([]bool, len(days))
	picks := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		idx := 0
		if n > 1 {
			idx = int(float64(i)*step + 0.5)
		}
		if idx < 0 {
			idx = 0
		}
		if idx > len(days)-1 {
			idx = len(days) - 1
		}
		if used[idx] {
			j := idx
			for j < len(days) && used[j] {
				j++
			}
			if j >= len(days) {
				j = idx
				for j >= 0 && used[j] {
					j--
				}
			}
			if j >= 0 && j < len(days) {
				idx = j
			}
		}
		used[idx] = true
		picks = append(picks, days[idx])
	}
	sort.Slice(picks, func(i, j int) bool { return picks[i].Before(picks[j]) })
	return picks
}

func daysBetween(a, b time.Time) int {
	return int(dateOnly(b).Sub(dateOnly(a)).Hours() / 24)
}
