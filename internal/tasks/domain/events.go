package domain

import (
	sharedDomain "github.com/qnz18/qzwhatnext/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Task"

	RoutingKeyTaskCreated   = "tasks.task.created"
	RoutingKeyTaskCompleted = "tasks.task.completed"
	RoutingKeyTaskMissed    = "tasks.task.missed"
	RoutingKeyTaskDeleted   = "tasks.task.deleted"
)

// Created is emitted when a new task enters the system.
type Created struct {
	sharedDomain.BaseEvent
	Title    string `json:"title"`
	Category string `json:"category"`
}

func NewCreated(taskID uuid.UUID, title, category string) Created {
	return Created{
		BaseEvent: sharedDomain.NewBaseEvent(taskID, AggregateType, RoutingKeyTaskCreated),
		Title:     title,
		Category:  category,
	}
}

// Completed is emitted when a task transitions to COMPLETED.
type Completed struct {
	sharedDomain.BaseEvent
}

func NewCompleted(taskID uuid.UUID) Completed {
	return Completed{BaseEvent: sharedDomain.NewBaseEvent(taskID, AggregateType, RoutingKeyTaskCompleted)}
}

// Missed is emitted when a habit occurrence rolls forward to MISSED.
type Missed struct {
	sharedDomain.BaseEvent
}

func NewMissed(taskID uuid.UUID) Missed {
	return Missed{BaseEvent: sharedDomain.NewBaseEvent(taskID, AggregateType, RoutingKeyTaskMissed)}
}

// Deleted is emitted on soft delete.
type Deleted struct {
	sharedDomain.BaseEvent
}

func NewDeleted(taskID uuid.UUID) Deleted {
	return Deleted{BaseEvent: sharedDomain.NewBaseEvent(taskID, AggregateType, RoutingKeyTaskDeleted)}
}
