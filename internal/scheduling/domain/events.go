package domain

import (
	sharedDomain "github.com/qnz18/qzwhatnext/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "ScheduledBlock"

	RoutingKeyBlockScheduled   = "scheduling.block.scheduled"
	RoutingKeyBlockRescheduled = "scheduling.block.rescheduled"
	RoutingKeyBlockLocked      = "scheduling.block.locked"
	RoutingKeyBlockOverflowed  = "scheduling.block.overflowed"
)

// BlockScheduled is emitted when a new block is placed on the timeline.
type BlockScheduled struct {
	sharedDomain.BaseEvent
	EntityID uuid.UUID `json:"entity_id"`
}

func NewBlockScheduled(blockID, entityID uuid.UUID) BlockScheduled {
	return BlockScheduled{
		BaseEvent: sharedDomain.NewBaseEvent(blockID, AggregateType, RoutingKeyBlockScheduled),
		EntityID:  entityID,
	}
}

// BlockRescheduled is emitted when a block moves, whether system- or
// reconciler-driven.
type BlockRescheduled struct {
	sharedDomain.BaseEvent
}

func NewBlockRescheduled(blockID uuid.UUID) BlockRescheduled {
	return BlockRescheduled{BaseEvent: sharedDomain.NewBaseEvent(blockID, AggregateType, RoutingKeyBlockRescheduled)}
}

// BlockLocked is emitted when the reconciler imports an external edit.
type BlockLocked struct {
	sharedDomain.BaseEvent
}

func NewBlockLocked(blockID uuid.UUID) BlockLocked {
	return BlockLocked{BaseEvent: sharedDomain.NewBaseEvent(blockID, AggregateType, RoutingKeyBlockLocked)}
}

// BlockOverflowed is emitted for a task that could not fit in the horizon.
type BlockOverflowed struct {
	sharedDomain.BaseEvent
	TaskID uuid.UUID `json:"task_id"`
}

func NewBlockOverflowed(taskID uuid.UUID) BlockOverflowed {
	return BlockOverflowed{
		BaseEvent: sharedDomain.NewBaseEvent(taskID, AggregateType, RoutingKeyBlockOverflowed),
		TaskID:    taskID,
	}
}
