package domain

import (
	sharedDomain "github.com/qnz18/qzwhatnext/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateTypeSeries    = "RecurringTaskSeries"
	AggregateTypeTimeBlock = "RecurringTimeBlock"

	RoutingKeySeriesCreated    = "recurrence.series.created"
	RoutingKeySeriesPaused     = "recurrence.series.paused"
	RoutingKeySeriesResumed    = "recurrence.series.resumed"
	RoutingKeyOccurrenceMissed = "recurrence.occurrence.missed"
	RoutingKeyTimeBlockCreated = "recurrence.timeblock.created"
)

// SeriesCreated is emitted when a new recurring task series is defined.
type SeriesCreated struct {
	sharedDomain.BaseEvent
	Title string `json:"title"`
}

func NewSeriesCreated(seriesID uuid.UUID, title string) SeriesCreated {
	return SeriesCreated{
		BaseEvent: sharedDomain.NewBaseEvent(seriesID, AggregateTypeSeries, RoutingKeySeriesCreated),
		Title:     title,
	}
}

// SeriesPaused is emitted when a series stops materializing new occurrences.
type SeriesPaused struct {
	sharedDomain.BaseEvent
}

func NewSeriesPaused(seriesID uuid.UUID) SeriesPaused {
	return SeriesPaused{BaseEvent: sharedDomain.NewBaseEvent(seriesID, AggregateTypeSeries, RoutingKeySeriesPaused)}
}

// SeriesResumed is emitted when a paused series resumes materialization.
type SeriesResumed struct {
	sharedDomain.BaseEvent
}

func NewSeriesResumed(seriesID uuid.UUID) SeriesResumed {
	return SeriesResumed{BaseEvent: sharedDomain.NewBaseEvent(seriesID, AggregateTypeSeries, RoutingKeySeriesResumed)}
}

// OccurrenceMissed is emitted when the materializer rolls an overdue open
// occurrence forward to MISSED.
type OccurrenceMissed struct {
	sharedDomain.BaseEvent
	TaskID uuid.UUID `json:"task_id"`
}

func NewOccurrenceMissed(seriesID, taskID uuid.UUID) OccurrenceMissed {
	return OccurrenceMissed{
		BaseEvent: sharedDomain.NewBaseEvent(seriesID, AggregateTypeSeries, RoutingKeyOccurrenceMissed),
		TaskID:    taskID,
	}
}

// TimeBlockCreated is emitted when a new recurring, non-movable reservation
// is defined.
type TimeBlockCreated struct {
	sharedDomain.BaseEvent
	Title string `json:"title"`
}

func NewTimeBlockCreated(blockID uuid.UUID, title string) TimeBlockCreated {
	return TimeBlockCreated{
		BaseEvent: sharedDomain.NewBaseEvent(blockID, AggregateTypeTimeBlock, RoutingKeyTimeBlockCreated),
		Title:     title,
	}
}
