// Package domain defines the calendar-side abstractions the reconciler and
// capture orchestrator depend on: a transport-agnostic Gateway interface
// plus the event shape and private-metadata keys that mark a calendar
// event as owned by this system.
package domain

import (
	"context"
	"errors"
	"time"
)

// Metadata keys stamped into a calendar event's private extended
// properties. managed=1 marks a block-backed event the system may move or
// delete on its own; a recurring time block's event carries only
// MetaTimeBlockID and is never marked managed, since it represents
// user-reserved time the system must not touch.
const (
	MetaTaskID      = "qzwhatnext_task_id"
	MetaBlockID     = "qzwhatnext_block_id"
	MetaTimeBlockID = "qzwhatnext_time_block_id"
	MetaManaged     = "qzwhatnext_managed"
)

var (
	// ErrEventNotFound signals a 404/410 from the provider; callers treat
	// this as "the event is gone" rather than a hard failure.
	ErrEventNotFound = errors.New("calendar event not found")
	// ErrNotConnected signals no usable OAuth token exists for the user.
	ErrNotConnected = errors.New("calendar not connected")
	// ErrInvalidGrant signals the stored refresh token was rejected;
	// callers must delete the token row and surface a reconnect prompt.
	ErrInvalidGrant = errors.New("calendar refresh token rejected")
)

// Event is the gateway's provider-agnostic view of a calendar event.
type Event struct {
	ID        string
	Summary   string
	Start     time.Time
	End       time.Time
	Status    string // "confirmed", "cancelled", ...
	ETag      string
	Updated   time.Time
	Private   map[string]string
	RRule     string // set on insert for a recurring series; empty for one-off events
}

// IsManaged reports whether this event was created by the system for a
// scheduled block (as opposed to a recurring-time-block reservation or an
// event the system has never touched).
func (e Event) IsManaged() bool {
	return e.Private[MetaManaged] == "1"
}

// FreeBusyInterval is a single reserved [Start, End) instant pair returned
// by the provider's free/busy query.
type FreeBusyInterval struct {
	Start time.Time
	End   time.Time
}

// Gateway abstracts a single user's connected calendar. Every method is a
// suspension point; implementations must apply the reconciler's bounded
// per-call timeout and translate provider 404/410 into ErrEventNotFound.
type Gateway interface {
	// GetEvent fetches a single event by ID. Returns ErrEventNotFound if
	// the event is gone; an event the provider still returns as cancelled
	// is returned as it is.
	GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error)

	// ListEvents lists events in [start, end), including their private
	// extended properties, so callers can distinguish managed events from
	// plain reservations.
	ListEvents(ctx context.Context, calendarID string, start, end time.Time) ([]*Event, error)

	// InsertEvent creates a new event and returns it with its assigned ID
	// and ETag populated.
	InsertEvent(ctx context.Context, calendarID string, event *Event) (*Event, error)

	// PatchEvent updates an existing event's time range, summary, and/or
	// private metadata.
	PatchEvent(ctx context.Context, calendarID string, event *Event) (*Event, error)

	// DeleteEvent removes an event. A 404/410 response is treated as
	// success, matching the reconciler's idempotence requirement.
	DeleteEvent(ctx context.Context, calendarID, eventID string) error

	// FreeBusy returns busy intervals in [start, end) for the calendar.
	FreeBusy(ctx context.Context, calendarID string, start, end time.Time) ([]FreeBusyInterval, error)

	// Timezone returns the calendar's configured IANA timezone name.
	Timezone(ctx context.Context, calendarID string) (string, error)
}
