package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists Tasks, scoped to a user.
type Repository interface {
	Save(ctx context.Context, task *Task) error
	FindByID(ctx context.Context, userID, id uuid.UUID) (*Task, error)
	// ListOpen returns non-deleted OPEN tasks for a user, newest first.
	ListOpen(ctx context.Context, userID uuid.UUID) ([]*Task, error)
	// ListAll returns non-deleted tasks regardless of status, newest first.
	ListAll(ctx context.Context, userID uuid.UUID) ([]*Task, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// OpenOccurrenceForSeries returns the single OPEN task linked to a
	// recurring series, if one exists. Enforces the habit
	// non-accumulation invariant.
	OpenOccurrenceForSeries(ctx context.Context, userID, seriesID uuid.UUID) (*Task, error)

	// OpenOccurrencesPastWindow returns OPEN recurrence-linked tasks whose
	// occurrence window ended before cutoff, for roll-forward to MISSED.
	OpenOccurrencesPastWindow(ctx context.Context, userID uuid.UUID, cutoff time.Time) ([]*Task, error)
}
