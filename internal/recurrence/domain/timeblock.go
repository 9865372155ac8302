package domain

import (
	"strings"
	"time"

	sharedDomain "github.com/qnz18/qzwhatnext/internal/shared/domain"
	"github.com/google/uuid"
)

// RecurringTimeBlock is a hard, non-movable reservation — sleep, work
// hours, a standing commute — that the scheduler treats as an obstacle
// rather than as a placeable task. It never materializes a task occurrence;
// the reconciler and scheduler both read it purely as a reservation source.
type RecurringTimeBlock struct {
	sharedDomain.BaseAggregateRoot

	userID uuid.UUID
	title  string
	preset Preset

	timeStart clockTime
	timeEnd   clockTime

	paused    bool
	deletedAt *time.Time
}

// NewRecurringTimeBlock defines a new standing reservation. The preset's
// ByWeekday (for WEEKLY frequency) or full-week default (for DAILY)
// determines which days it applies to; timeStart/timeEnd give the daily
// clock-time span, which may cross midnight.
func NewRecurringTimeBlock(userID uuid.UUID, title string, preset Preset, timeStart, timeEnd clockTime) (*RecurringTimeBlock, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if preset.Interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if err := preset.Validate(); err != nil {
		return nil, err
	}

	b := &RecurringTimeBlock{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		userID:            userID,
		title:             title,
		preset:            preset,
		timeStart:         timeStart,
		timeEnd:           timeEnd,
	}
	b.AddDomainEvent(NewTimeBlockCreated(b.ID(), b.title))
	return b, nil
}

func (b *RecurringTimeBlock) UserID() uuid.UUID { return b.userID }
func (b *RecurringTimeBlock) Title() string     { return b.title }
func (b *RecurringTimeBlock) Preset() Preset    { return b.preset }
func (b *RecurringTimeBlock) TimeStart() clockTime { return b.timeStart }
func (b *RecurringTimeBlock) TimeEnd() clockTime   { return b.timeEnd }
func (b *RecurringTimeBlock) Paused() bool      { return b.paused }
func (b *RecurringTimeBlock) IsDeleted() bool   { return b.deletedAt != nil }
func (b *RecurringTimeBlock) DeletedAt() *time.Time { return b.deletedAt }

func (b *RecurringTimeBlock) Pause() {
	b.paused = true
	b.Touch()
}

func (b *RecurringTimeBlock) Resume() {
	b.paused = false
	b.Touch()
}

func (b *RecurringTimeBlock) SoftDelete(now time.Time) {
	if b.IsDeleted() {
		return
	}
	b.deletedAt = &now
	b.Touch()
}

// OccursOn reports whether this block applies to the given calendar day,
// honoring interval-skipping relative to StartDate for WEEKLY/period-based
// presets and the explicit StartDate/UntilDate bounds.
func (b *RecurringTimeBlock) OccursOn(day time.Time) bool {
	if b.paused || b.IsDeleted() {
		return false
	}
	p := b.preset
	if p.StartDate != nil && day.Before(dateOnly(*p.StartDate)) {
		return false
	}
	if p.UntilDate != nil && day.After(dateOnly(*p.UntilDate)) {
		return false
	}

	switch p.Frequency {
	case FrequencyDaily:
		return intervalMatches(p, day, 1)
	case FrequencyWeekly:
		if len(p.ByWeekday) > 0 {
			wd := WeekdayFromTime(day)
			found := false
			for _, w := range p.ByWeekday {
				if w == wd {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return intervalMatches(p, day, 7)
	default:
		return false
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// intervalMatches checks the Nth-unit interval-skip rule: with Interval=2 on
// a DAILY frequency, the block applies every other day counted from
// StartDate (or from day itself if StartDate is unset).
func intervalMatches(p Preset, day time.Time, unitDays int) bool {
	if p.Interval <= 1 {
		return true
	}
	anchor := day
	if p.StartDate != nil {
		anchor = *p.StartDate
	}
	daysSince := int(dateOnly(day).Sub(dateOnly(anchor)).Hours() / 24)
	period := p.Interval * unitDays
	mod := daysSince % period
	if mod < 0 {
		mod += period
	}
	return mod < unitDays
}

// RehydrateRecurringTimeBlock recreates a time block from persisted state.
func RehydrateRecurringTimeBlock(
	id, userID uuid.UUID,
	title string,
	preset Preset,
	timeStart, timeEnd clockTime,
	paused bool,
	deletedAt *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) *RecurringTimeBlock {
	entity := sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)
	return &RecurringTimeBlock{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(entity, version),
		userID:            userID,
		title:             title,
		preset:            preset,
		timeStart:         timeStart,
		timeEnd:           timeEnd,
		paused:            paused,
		deletedAt:         deletedAt,
	}
}
