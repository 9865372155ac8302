package domain

import (
	"context"

	"github.com/google/uuid"
)

// SeriesRepository persists RecurringTaskSeries aggregates.
type SeriesRepository interface {
	Save(ctx context.Context, series *RecurringTaskSeries) error
	FindByID(ctx context.Context, userID, id uuid.UUID) (*RecurringTaskSeries, error)
	ListActive(ctx context.Context, userID uuid.UUID) ([]*RecurringTaskSeries, error)
	ListAll(ctx context.Context, userID uuid.UUID) ([]*RecurringTaskSeries, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// TimeBlockRepository persists RecurringTimeBlock aggregates.
type TimeBlockRepository interface {
	Save(ctx context.Context, block *RecurringTimeBlock) error
	FindByID(ctx context.Context, userID, id uuid.UUID) (*RecurringTimeBlock, error)
	ListActive(ctx context.Context, userID uuid.UUID) ([]*RecurringTimeBlock, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
