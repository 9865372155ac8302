package domain

import (
	"errors"
	"time"

	sharedDomain "github.com/qnz18/qzwhatnext/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrInvalidTimeRange = errors.New("end time must be after start time")
	ErrBlockLocked      = errors.New("block is locked and cannot be moved by the system")
)

// EntityType names what a block represents.
type EntityType string

const (
	EntityTypeTask       EntityType = "task"
	EntityTypeTransition EntityType = "transition"
)

// ScheduledBy records who placed the block.
type ScheduledBy string

const (
	ScheduledBySystem ScheduledBy = "system"
	ScheduledByUser   ScheduledBy = "user"
)

// ScheduledBlock is a half-open [StartTime, EndTime) placement of an entity
// (usually a task) on the user's timeline. Blocks for the same task follow
// one another in order and may be separated by a reservation; their union
// equals the scheduled portion of the task's estimated duration. Locked blocks are never moved or deleted by the
// system — only the reconciler's calendar-metadata columns are updated on
// them.
type ScheduledBlock struct {
	sharedDomain.BaseEntity

	userID      uuid.UUID
	entityType  EntityType
	entityID    uuid.UUID
	startTime   time.Time
	endTime     time.Time
	scheduledBy ScheduledBy
	locked      bool

	calendarEventID        *string
	calendarEventETag      *string
	calendarEventUpdatedAt *time.Time
}

// NewScheduledBlock creates a system-placed block.
func NewScheduledBlock(userID uuid.UUID, entityType EntityType, entityID uuid.UUID, start, end time.Time, by ScheduledBy) (*ScheduledBlock, error) {
	if !end.After(start) {
		return nil, ErrInvalidTimeRange
	}
	return &ScheduledBlock{
		BaseEntity:  sharedDomain.NewBaseEntity(),
		userID:      userID,
		entityType:  entityType,
		entityID:    entityID,
		startTime:   start,
		endTime:     end,
		scheduledBy: by,
		locked:      false,
	}, nil
}

// Getters
func (b *ScheduledBlock) UserID() uuid.UUID            { return b.userID }
func (b *ScheduledBlock) EntityType() EntityType        { return b.entityType }
func (b *ScheduledBlock) EntityID() uuid.UUID          { return b.entityID }
func (b *ScheduledBlock) StartTime() time.Time         { return b.startTime }
func (b *ScheduledBlock) EndTime() time.Time           { return b.endTime }
func (b *ScheduledBlock) ScheduledByWhom() ScheduledBy { return b.scheduledBy }
func (b *ScheduledBlock) Locked() bool                 { return b.locked }
func (b *ScheduledBlock) CalendarEventID() *string     { return b.calendarEventID }
func (b *ScheduledBlock) CalendarEventETag() *string   { return b.calendarEventETag }
func (b *ScheduledBlock) CalendarEventUpdatedAt() *time.Time { return b.calendarEventUpdatedAt }

func (b *ScheduledBlock) Duration() time.Duration { return b.endTime.Sub(b.startTime) }

// OverlapsInterval reports whether this block overlaps the half-open
// interval [start, end).
func (b *ScheduledBlock) OverlapsInterval(start, end time.Time) bool {
	return b.startTime.Before(end) && b.endTime.After(start)
}

// Lock freezes the block so the scheduler never moves or deletes it again.
// Used by the reconciler when it observes a user edit to the calendar event.
func (b *ScheduledBlock) Lock() {
	b.locked = true
	b.Touch()
}

func (b *ScheduledBlock) Unlock() {
	b.locked = false
	b.Touch()
}

// Reschedule moves an unlocked block to a new time. Locked blocks reject
// system-driven moves; callers that need to import a user edit should call
// ImportExternalTimes instead, which moves the block and locks it.
func (b *ScheduledBlock) Reschedule(newStart, newEnd time.Time) error {
	if b.locked {
		return ErrBlockLocked
	}
	if !newEnd.After(newStart) {
		return ErrInvalidTimeRange
	}
	b.startTime = newStart
	b.endTime = newEnd
	b.Touch()
	return nil
}

// ImportExternalTimes overwrites the block's time range from an external
// calendar edit and locks it, per the reconciler's import rule.
func (b *ScheduledBlock) ImportExternalTimes(newStart, newEnd time.Time) error {
	if !newEnd.After(newStart) {
		return ErrInvalidTimeRange
	}
	b.startTime = newStart
	b.endTime = newEnd
	b.locked = true
	b.Touch()
	return nil
}

// SetCalendarMetadata records the external calendar event identity after a
// successful reconciler write. Permitted even on locked blocks.
func (b *ScheduledBlock) SetCalendarMetadata(eventID, etag string, updatedAt time.Time) {
	b.calendarEventID = &eventID
	b.calendarEventETag = &etag
	b.calendarEventUpdatedAt = &updatedAt
	b.Touch()
}

// ClearCalendarMetadata forgets a deleted/cancelled event's identity so the
// next reconcile pass recreates it.
func (b *ScheduledBlock) ClearCalendarMetadata() {
	b.calendarEventID = nil
	b.calendarEventETag = nil
	b.calendarEventUpdatedAt = nil
	b.Touch()
}

// RehydrateScheduledBlock recreates a block from persisted state.
func RehydrateScheduledBlock(
	id, userID uuid.UUID,
	entityType EntityType,
	entityID uuid.UUID,
	start, end time.Time,
	by ScheduledBy,
	locked bool,
	calendarEventID, calendarEventETag *string,
	calendarEventUpdatedAt *time.Time,
	createdAt, updatedAt time.Time,
) *ScheduledBlock {
	return &ScheduledBlock{
		BaseEntity:             sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		userID:                 userID,
		entityType:             entityType,
		entityID:               entityID,
		startTime:              start,
		endTime:                end,
		scheduledBy:            by,
		locked:                 locked,
		calendarEventID:        calendarEventID,
		calendarEventETag:      calendarEventETag,
		calendarEventUpdatedAt: calendarEventUpdatedAt,
	}
}
