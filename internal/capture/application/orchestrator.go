// Package application implements the capture orchestrator: the single
// entry point that turns one free-text instruction into a task, a
// recurring series, a recurring time block, or a one-off calendar event.
package application

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	calendarDomain "github.com/qnz18/qzwhatnext/internal/calendar/domain"
	recurrenceApp "github.com/qnz18/qzwhatnext/internal/recurrence/application"
	recurrenceDomain "github.com/qnz18/qzwhatnext/internal/recurrence/domain"
	taskDomain "github.com/qnz18/qzwhatnext/internal/tasks/domain"
	"github.com/google/uuid"
)

// ErrPast is returned when a one-off calendar event would resolve to an
// instant already in the past.
var ErrPast = errors.New("PAST")

// EntityKind names what a capture instruction produced, exposed to the
// HTTP layer as the response's entity_kind field.
type EntityKind string

const (
	EntityKindTaskSeries  EntityKind = "task_series"
	EntityKindTimeBlock   EntityKind = "time_block"
	EntityKindCalendarEvent EntityKind = "calendar_event"
	EntityKindTask        EntityKind = "task"
)

// Result is the outcome of dispatching one capture instruction.
type Result struct {
	Action          string
	EntityKind      EntityKind
	EntityID        uuid.UUID
	TasksCreated    int
	CalendarEventID string
}

// GatewayFactory resolves an authenticated calendar gateway for a user, for
// the time-block write-through and one-off event paths.
type GatewayFactory func(ctx context.Context, userID uuid.UUID) (calendarDomain.Gateway, error)

// Orchestrator coordinates the recurrence parser, the series/time-block
// repositories, the materializer, and the calendar gateway behind a single
// Capture call.
type Orchestrator struct {
	series       recurrenceDomain.SeriesRepository
	timeBlocks   recurrenceDomain.TimeBlockRepository
	tasks        taskDomain.Repository
	materializer *recurrenceApp.Materializer
	gateways     GatewayFactory
	clock        func() time.Time
}

func New(
	series recurrenceDomain.SeriesRepository,
	timeBlocks recurrenceDomain.TimeBlockRepository,
	tasks taskDomain.Repository,
	materializer *recurrenceApp.Materializer,
	gateways GatewayFactory,
	clock func() time.Time,
) *Orchestrator {
	if clock == nil {
		clock = time.Now
	}
	return &Orchestrator{series: series, timeBlocks: timeBlocks, tasks: tasks, materializer: materializer, gateways: gateways, clock: clock}
}

var (
	recurrenceSignalRe = regexp.MustCompile(`(?i)\b(daily|weekly|monthly|yearly|per\s+week|per\s+year|every\s+day|every\s+week|every\s+month|every\s+year|every\s+\d+\s+(day|days|week|weeks|month|months|year|years)|\d+\s*(x|times)\s*(per\s*)?week|mon|monday|tue|tues|tuesday|wed|weds|wednesday|thu|thur|thurs|thursday|fri|friday|sat|saturday|sun|sunday)\b`)
	nextWeekdayRe      = regexp.MustCompile(`(?i)\bnext\s+(mon|monday|tue|tues|tuesday|wed|weds|wednesday|thu|thur|thurs|thursday|fri|friday|sat|saturday|sun|sunday)\b`)
	nextWeekRe         = regexp.MustCompile(`(?i)\bnext\s+week\b`)
	tomorrowRe         = regexp.MustCompile(`(?i)\btomorrow\b`)
	sometimeRe         = regexp.MustCompile(`(?i)\bsometime\b`)
)

var weekdayNumber = map[string]time.Weekday{
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "weds": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
	"sun": time.Sunday, "sunday": time.Sunday,
}

// Capture dispatches a single instruction. When entityID names an existing
// series or time block, that stored entity is saved again as it is and the
// result's Action is "updated"; the parsed title and preset are not applied
// to it. An entityID that matches nothing creates a new entity, still
// reported as "updated".
func (o *Orchestrator) Capture(ctx context.Context, userID uuid.UUID, instruction string, entityID *uuid.UUID, calendarID string) (*Result, error) {
	now := o.clock().UTC()
	raw := strings.TrimSpace(instruction)

	if !recurrenceSignalRe.MatchString(raw) {
		if m := nextWeekdayRe.FindStringSubmatch(raw); m != nil {
			return o.captureOneOffEvent(ctx, userID, raw, m[1], now, calendarID)
		}
		return o.capturePlainTask(ctx, userID, raw, now)
	}

	parsed, err := recurrenceApp.Parse(raw, now)
	if err != nil {
		return nil, err
	}

	switch parsed.EntityKind {
	case recurrenceApp.EntityKindTaskSeries:
		return o.captureTaskSeries(ctx, userID, parsed, entityID, now)
	default:
		return o.captureTimeBlock(ctx, userID, parsed, entityID, now, calendarID)
	}
}

func (o *Orchestrator) captureTaskSeries(ctx context.Context, userID uuid.UUID, parsed *recurrenceApp.ParsedCapture, entityID *uuid.UUID, now time.Time) (*Result, error) {
	var s *recurrenceDomain.RecurringTaskSeries
	var err error

	if entityID != nil {
		s, err = o.series.FindByID(ctx, userID, *entityID)
		if err != nil {
			return nil, fmt.Errorf("capture: find series: %w", err)
		}
	}
	if s == nil {
		s, err = recurrenceDomain.NewRecurringTaskSeries(userID, parsed.Title, parsed.Preset)
		if err != nil {
			return nil, err
		}
	}
	if err := o.series.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("capture: save series: %w", err)
	}

	materializeResult, err := o.materializer.Materialize(ctx, userID, now, now.AddDate(0, 0, 7))
	if err != nil {
		return nil, fmt.Errorf("capture: materialize: %w", err)
	}

	action := "created"
	if entityID != nil {
		action = "updated"
	}
	return &Result{
		Action:       action,
		EntityKind:   EntityKindTaskSeries,
		EntityID:     s.ID(),
		TasksCreated: materializeResult.Created,
	}, nil
}

func (o *Orchestrator) captureTimeBlock(ctx context.Context, userID uuid.UUID, parsed *recurrenceApp.ParsedCapture, entityID *uuid.UUID, now time.Time, calendarID string) (*Result, error) {
	var b *recurrenceDomain.RecurringTimeBlock
	var err error

	if entityID != nil {
		b, err = o.timeBlocks.FindByID(ctx, userID, *entityID)
		if err != nil {
			return nil, fmt.Errorf("capture: find time block: %w", err)
		}
	}
	if b == nil {
		b, err = recurrenceDomain.NewRecurringTimeBlock(userID, parsed.Title, parsed.Preset, *parsed.Preset.TimeStart, *parsed.Preset.TimeEnd)
		if err != nil {
			return nil, err
		}
	}
	if err := o.timeBlocks.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("capture: save time block: %w", err)
	}

	result := &Result{Action: "created", EntityKind: EntityKindTimeBlock, EntityID: b.ID()}
	if entityID != nil {
		result.Action = "updated"
	}

	if o.gateways == nil {
		return result, nil
	}
	gw, err := o.gateways(ctx, userID)
	if err != nil {
		// No connected calendar: the time block still exists locally as a
		// reservation; the write-through simply doesn't happen yet.
		return result, nil
	}

	dtstart := nextOccurrenceInstant(b, now)
	rrule, err := calendarDomain.BuildRRule(b.Preset(), dtstart)
	if err != nil {
		return nil, fmt.Errorf("capture: build rrule: %w", err)
	}
	duration := clockSpan(b.TimeStart().Hour(), b.TimeStart().Minute(), b.TimeEnd().Hour(), b.TimeEnd().Minute())

	event := &calendarDomain.Event{
		Summary: b.Title(),
		Start:   dtstart,
		End:     dtstart.Add(duration),
		RRule:   rrule,
		Private: map[string]string{calendarDomain.MetaTimeBlockID: b.ID().String()},
	}

	var written *calendarDomain.Event
	if entityID != nil {
		// Update path always patches the existing event; a missing event
		// is recreated rather than failing the capture.
		written, err = gw.PatchEvent(ctx, calendarID, event)
		if errors.Is(err, calendarDomain.ErrEventNotFound) {
			written, err = gw.InsertEvent(ctx, calendarID, event)
		}
	} else {
		written, err = gw.InsertEvent(ctx, calendarID, event)
	}
	if err != nil {
		return nil, fmt.Errorf("capture: write-through calendar event: %w", err)
	}
	result.CalendarEventID = written.ID
	return result, nil
}

func (o *Orchestrator) captureOneOffEvent(ctx context.Context, userID uuid.UUID, raw, weekdayToken string, now time.Time, calendarID string) (*Result, error) {
	hour, minute, hasTime := extractClockTimeFromInstruction(raw)
	if !hasTime {
		hour, minute = 9, 0
	}

	target := nextWeekdayOccurrence(now, weekdayNumber[strings.ToLower(weekdayToken)], hour, minute)
	if !target.After(now) {
		return nil, ErrPast
	}

	if o.gateways == nil {
		return nil, calendarDomain.ErrNotConnected
	}
	gw, err := o.gateways(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("capture: resolve calendar gateway: %w", err)
	}

	title := strings.TrimSpace(nextWeekdayRe.ReplaceAllString(raw, ""))
	if title == "" {
		title = "Event"
	}
	event := &calendarDomain.Event{
		Summary: title,
		Start:   target,
		End:     target.Add(time.Hour),
	}
	created, err := gw.InsertEvent(ctx, calendarID, event)
	if err != nil {
		return nil, fmt.Errorf("capture: insert one-off event: %w", err)
	}

	return &Result{
		Action:          "created",
		EntityKind:      EntityKindCalendarEvent,
		CalendarEventID: created.ID,
	}, nil
}

func (o *Orchestrator) capturePlainTask(ctx context.Context, userID uuid.UUID, raw string, now time.Time) (*Result, error) {
	aiExcluded := strings.HasPrefix(raw, ".")
	title := strings.TrimSpace(strings.TrimLeft(raw, "."))
	if title == "" {
		return nil, errors.New("instruction is required")
	}

	t, err := taskDomain.NewTask(userID, "capture", title)
	if err != nil {
		return nil, err
	}
	if aiExcluded {
		t.SetAIExcluded(true)
	}

	switch {
	case nextWeekRe.MatchString(raw):
		startAfter := dateOnly(now).AddDate(0, 0, 7)
		t.SetStartAfter(&startAfter)
	case tomorrowRe.MatchString(raw):
		startAfter := dateOnly(now).AddDate(0, 0, 1)
		t.SetStartAfter(&startAfter)
	case sometimeRe.MatchString(raw):
		startAfter := dateOnly(now).AddDate(0, 0, 1)
		t.SetStartAfter(&startAfter)
	}

	if err := o.tasks.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("capture: save task: %w", err)
	}
	return &Result{Action: "created", EntityKind: EntityKindTask, EntityID: t.ID()}, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

var clockTimeInInstructionRe = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)

func extractClockTimeFromInstruction(raw string) (hour, minute int, ok bool) {
	m := clockTimeInInstructionRe.FindStringSubmatch(raw)
	if m == nil {
		return 0, 0, false
	}
	hour = atoiSafe(m[1])
	if m[2] != "" {
		minute = atoiSafe(m[2])
	}
	if strings.EqualFold(m[3], "pm") && hour != 12 {
		hour += 12
	}
	if strings.EqualFold(m[3], "am") && hour == 12 {
		hour = 0
	}
	return hour, minute, true
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// nextWeekdayOccurrence returns the next instant the given weekday and
// clock time occur at or after now's calendar day, strictly in the future
// relative to a weekday match on today.
func nextWeekdayOccurrence(now time.Time, weekday time.Weekday, hour, minute int) time.Time {
	daysAhead := (int(weekday) - int(now.Weekday()) + 7) % 7
	candidate := time.Date(now.Year(), now.Month(), now.Day()+daysAhead, hour, minute, 0, 0, now.Location())
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// nextOccurrenceInstant resolves the first calendar instant a recurring
// time block's preset occurs at, for use as the exported RRULE's DTSTART.
func nextOccurrenceInstant(b *recurrenceDomain.RecurringTimeBlock, now time.Time) time.Time {
	day := dateOnly(now)
	for i := 0; i < 14; i++ {
		if b.OccursOn(day) {
			return time.Date(day.Year(), day.Month(), day.Day(), b.TimeStart().Hour(), b.TimeStart().Minute(), 0, 0, day.Location())
		}
		day = day.AddDate(0, 0, 1)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), b.TimeStart().Hour(), b.TimeStart().Minute(), 0, 0, now.Location())
}

func clockSpan(startHour, startMinute, endHour, endMinute int) time.Duration {
	startMin := startHour*60 + startMinute
	endMin := endHour*60 + endMinute
	if endMin <= startMin {
		endMin += 24 * 60
	}
	return time.Duration(endMin-startMin) * time.Minute
}
