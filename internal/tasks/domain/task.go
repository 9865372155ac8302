package domain

import (
	"strings"
	"time"

	sharedDomain "github.com/qnz18/qzwhatnext/internal/shared/domain"
	"github.com/google/uuid"
)

// Default and clamping constants mirrored from the legacy constants table.
const (
	DefaultDurationMinutes     = 30
	DefaultDurationConfidence  = 0.5
	DefaultRiskScore           = 0.3
	DefaultImpactScore         = 0.3
	MinDurationMinutes         = 5
	MaxDurationMinutes         = 600
	DurationRoundingIncrement  = 15
)

// FlexibilityWindow bounds when a task may be placed by the scheduler. End
// may be before Start in wall-clock terms when the window spans midnight;
// callers must compare against Start plus at most 24h, never End directly.
type FlexibilityWindow struct {
	Start time.Time
	End   time.Time
}

// Task is the central schedulable unit of work.
type Task struct {
	sharedDomain.BaseAggregateRoot

	userID uuid.UUID

	sourceType string
	sourceID   *string

	title    string
	notes    string
	category Category
	energy   EnergyIntensity

	estimatedDurationMin int
	durationConfidence   float64
	riskScore            float64
	impactScore          float64

	deadline          *time.Time
	startAfter        *time.Time
	dueBy             *time.Time
	flexibilityWindow *FlexibilityWindow

	status    Status
	deletedAt *time.Time

	aiExcluded           bool
	manualPriorityLocked bool
	userLocked           bool
	manuallyScheduled    bool

	recurrenceSeriesID        *uuid.UUID
	recurrenceOccurrenceStart *time.Time
}

// NewTask constructs an OPEN task with the default duration, confidence,
// risk and impact scores; a title beginning with "." marks it AI-excluded.
// A duration is set afterwards through SetEstimatedDuration, which clamps it
// to [MinDurationMinutes, MaxDurationMinutes] and rounds it up to a multiple
// of DurationRoundingIncrement.
func NewTask(userID uuid.UUID, sourceType, title string) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	t := &Task{
		BaseAggregateRoot:    sharedDomain.NewBaseAggregateRoot(),
		userID:               userID,
		sourceType:           sourceType,
		title:                title,
		category:             CategoryUnknown,
		energy:               EnergyMedium,
		estimatedDurationMin: DefaultDurationMinutes,
		durationConfidence:   DefaultDurationConfidence,
		riskScore:            DefaultRiskScore,
		impactScore:          DefaultImpactScore,
		status:               StatusOpen,
		aiExcluded:           strings.HasPrefix(title, "."),
	}

	t.AddDomainEvent(NewCreated(t.ID(), t.title, string(t.category)))
	return t, nil
}

// Getters

func (t *Task) UserID() uuid.UUID                       { return t.userID }
func (t *Task) SourceType() string                      { return t.sourceType }
func (t *Task) SourceID() *string                       { return t.sourceID }
func (t *Task) Title() string                           { return t.title }
func (t *Task) Notes() string                            { return t.notes }
func (t *Task) Category() Category                      { return t.category }
func (t *Task) EnergyIntensity() EnergyIntensity         { return t.energy }
func (t *Task) EstimatedDurationMin() int                { return t.estimatedDurationMin }
func (t *Task) DurationConfidence() float64              { return t.durationConfidence }
func (t *Task) RiskScore() float64                       { return t.riskScore }
func (t *Task) ImpactScore() float64                     { return t.impactScore }
func (t *Task) Deadline() *time.Time                     { return t.deadline }
func (t *Task) StartAfter() *time.Time                   { return t.startAfter }
func (t *Task) DueBy() *time.Time                        { return t.dueBy }
func (t *Task) FlexibilityWindow() *FlexibilityWindow    { return t.flexibilityWindow }
func (t *Task) Status() Status                           { return t.status }
func (t *Task) DeletedAt() *time.Time                    { return t.deletedAt }
func (t *Task) AIExcluded() bool                         { return t.aiExcluded }
func (t *Task) ManualPriorityLocked() bool                { return t.manualPriorityLocked }
func (t *Task) UserLocked() bool                          { return t.userLocked }
func (t *Task) ManuallyScheduled() bool                  { return t.manuallyScheduled }
func (t *Task) RecurrenceSeriesID() *uuid.UUID           { return t.recurrenceSeriesID }
func (t *Task) RecurrenceOccurrenceStart() *time.Time    { return t.recurrenceOccurrenceStart }
func (t *Task) IsOpen() bool                             { return t.status == StatusOpen }
func (t *Task) IsCompleted() bool                        { return t.status == StatusCompleted }
func (t *Task) IsMissed() bool                           { return t.status == StatusMissed }
func (t *Task) IsDeleted() bool                          { return t.deletedAt != nil }

// clampDuration rounds a raw duration into the legal band.
func clampDuration(min int) int {
	if min <= 0 {
		return DefaultDurationMinutes
	}
	if min < MinDurationMinutes {
		min = MinDurationMinutes
	}
	if min > MaxDurationMinutes {
		min = MaxDurationMinutes
	}
	remainder := min % DurationRoundingIncrement
	if remainder != 0 {
		min += DurationRoundingIncrement - remainder
	}
	return min
}

// SetEstimatedDuration validates and clamps the duration before storing it.
func (t *Task) SetEstimatedDuration(minutes int, confidence float64) error {
	if minutes <= 0 {
		return ErrInvalidDuration
	}
	if confidence < 0 || confidence > 1 {
		return ErrInvalidScore
	}
	t.estimatedDurationMin = clampDuration(minutes)
	t.durationConfidence = confidence
	t.Touch()
	return nil
}

// SetCategory updates the task category, normalizing legacy aliases.
func (t *Task) SetCategory(category Category) {
	t.category = NormalizeCategory(string(category))
	t.Touch()
}

// SetEnergyIntensity updates the expected effort level.
func (t *Task) SetEnergyIntensity(e EnergyIntensity) {
	t.energy = e
	t.Touch()
}

// SetNotes updates free-form notes.
func (t *Task) SetNotes(notes string) {
	t.notes = notes
	t.Touch()
}

// SetRiskScore updates the urgency-by-risk signal used by tiering.
func (t *Task) SetRiskScore(score float64) error {
	if score < 0 || score > 1 {
		return ErrInvalidScore
	}
	t.riskScore = score
	t.Touch()
	return nil
}

// SetImpactScore updates the urgency-by-impact signal used by tiering.
func (t *Task) SetImpactScore(score float64) error {
	if score < 0 || score > 1 {
		return ErrInvalidScore
	}
	t.impactScore = score
	t.Touch()
	return nil
}

// SetDeadline sets or clears the hard deadline.
func (t *Task) SetDeadline(deadline *time.Time) {
	t.deadline = deadline
	t.Touch()
}

// SetStartAfter sets or clears the earliest-placement lower bound honored
// by the scheduler cursor.
func (t *Task) SetStartAfter(startAfter *time.Time) {
	t.startAfter = startAfter
	t.Touch()
}

// SetDueBy sets or clears the soft due date used by ranking's urgency key.
func (t *Task) SetDueBy(dueBy *time.Time) {
	t.dueBy = dueBy
	t.Touch()
}

// SetFlexibilityWindow sets or clears the placement window. The window may
// span midnight (End's wall-clock time may be numerically before Start's);
// ErrInvalidFlexWindow is returned unless End is after Start. The length of
// the window is not checked.
func (t *Task) SetFlexibilityWindow(w *FlexibilityWindow) error {
	if w != nil && !w.End.After(w.Start) {
		return ErrInvalidFlexWindow
	}
	t.flexibilityWindow = w
	t.Touch()
	return nil
}

// SetAIExcluded explicitly flags or unflags the task for AI exclusion. A
// leading "." in the title always excludes regardless of this flag; see
// the ai-exclusion gate.
func (t *Task) SetAIExcluded(excluded bool) {
	t.aiExcluded = excluded
	t.Touch()
}

// LockPriority sets the manual-priority-locked flag, which is persisted with
// the task; tiering, ranking and the scheduler do not read it.
func (t *Task) LockPriority() {
	t.manualPriorityLocked = true
	t.Touch()
}

func (t *Task) UnlockPriority() {
	t.manualPriorityLocked = false
	t.Touch()
}

// MarkUserLocked freezes the task's current scheduled position, mirroring a
// calendar-side edit the reconciler observed.
func (t *Task) MarkUserLocked(locked bool) {
	t.userLocked = locked
	t.Touch()
}

// MarkManuallyScheduled flags the task as placed outside the scheduler's
// control; the scheduler skips tasks with this flag set.
func (t *Task) MarkManuallyScheduled(manual bool) {
	t.manuallyScheduled = manual
	t.Touch()
}

// LinkRecurrence associates this task with a materialized habit occurrence.
func (t *Task) LinkRecurrence(seriesID uuid.UUID, occurrenceStart time.Time) {
	id := seriesID
	start := occurrenceStart
	t.recurrenceSeriesID = &id
	t.recurrenceOccurrenceStart = &start
	t.Touch()
}

// Complete transitions the task to COMPLETED.
func (t *Task) Complete() error {
	if t.IsDeleted() {
		return ErrTaskDeleted
	}
	if t.IsCompleted() {
		return ErrTaskAlreadyComplete
	}
	t.status = StatusCompleted
	t.Touch()
	t.AddDomainEvent(NewCompleted(t.ID()))
	return nil
}

// MarkMissed transitions an overdue OPEN habit occurrence to MISSED. This is
// the materializer's roll-forward step; it is a no-op if already missed.
func (t *Task) MarkMissed() error {
	if t.IsDeleted() {
		return ErrTaskDeleted
	}
	if t.status == StatusMissed {
		return nil
	}
	t.status = StatusMissed
	t.Touch()
	t.AddDomainEvent(NewMissed(t.ID()))
	return nil
}

// SoftDelete marks the task deleted without purging it; purge is explicit.
func (t *Task) SoftDelete(now time.Time) {
	if t.IsDeleted() {
		return
	}
	t.deletedAt = &now
	t.Touch()
	t.AddDomainEvent(NewDeleted(t.ID()))
}

// Restore undoes a soft delete.
func (t *Task) Restore() {
	t.deletedAt = nil
	t.Touch()
}

// RehydrateTask recreates a task from persisted state. No domain events are
// raised; callers loading rows back from storage are not the audience for
// creation/completion notifications.
func RehydrateTask(
	id, userID uuid.UUID,
	sourceType string,
	sourceID *string,
	title, notes string,
	category Category,
	energy EnergyIntensity,
	estimatedDurationMin int,
	durationConfidence, riskScore, impactScore float64,
	deadline, startAfter, dueBy *time.Time,
	flexibilityWindow *FlexibilityWindow,
	status Status,
	deletedAt *time.Time,
	aiExcluded, manualPriorityLocked, userLocked, manuallyScheduled bool,
	recurrenceSeriesID *uuid.UUID,
	recurrenceOccurrenceStart *time.Time,
	createdAt, updatedAt time.Time,
	version int,
) *Task {
	entity := sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)
	return &Task{
		BaseAggregateRoot:         sharedDomain.RehydrateBaseAggregateRoot(entity, version),
		userID:                    userID,
		sourceType:                sourceType,
		sourceID:                  sourceID,
		title:                     title,
		notes:                     notes,
		category:                  NormalizeCategory(string(category)),
		energy:                    energy,
		estimatedDurationMin:      estimatedDurationMin,
		durationConfidence:        durationConfidence,
		riskScore:                 riskScore,
		impactScore:               impactScore,
		deadline:                  deadline,
		startAfter:                startAfter,
		dueBy:                     dueBy,
		flexibilityWindow:         flexibilityWindow,
		status:                    status,
		deletedAt:                 deletedAt,
		aiExcluded:                aiExcluded,
		manualPriorityLocked:      manualPriorityLocked,
		userLocked:                userLocked,
		manuallyScheduled:         manuallyScheduled,
		recurrenceSeriesID:        recurrenceSeriesID,
		recurrenceOccurrenceStart: recurrenceOccurrenceStart,
	}
}
