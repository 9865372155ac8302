package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists ScheduledBlocks, scoped to a user.
type Repository interface {
	// ReplaceUnlocked deletes every unlocked block for the user and
	// inserts the new set, within a single transaction. Locked blocks
	// are left untouched. This is the only write path the scheduler
	// rebuild uses.
	ReplaceUnlocked(ctx context.Context, userID uuid.UUID, newBlocks []*ScheduledBlock) error

	ListForUser(ctx context.Context, userID uuid.UUID) ([]*ScheduledBlock, error)
	ListInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*ScheduledBlock, error)
	FindByID(ctx context.Context, userID, id uuid.UUID) (*ScheduledBlock, error)
	FindByEntityID(ctx context.Context, userID, entityID uuid.UUID) ([]*ScheduledBlock, error)

	Save(ctx context.Context, block *ScheduledBlock) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
