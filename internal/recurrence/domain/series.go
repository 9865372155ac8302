package domain

import (
	"strings"
	"time"

	sharedDomain "github.com/qnz18/qzwhatnext/internal/shared/domain"
	taskDomain "github.com/qnz18/qzwhatnext/internal/tasks/domain"
	"github.com/google/uuid"
)

// RecurringTaskSeries is a habit definition: a template that the
// materializer expands into at most one OPEN task occurrence at a time.
// Unlike a calendar recurrence, series never accumulate backlog — a missed
// occurrence rolls forward to MISSED rather than stacking another OPEN copy
// alongside it.
type RecurringTaskSeries struct {
	sharedDomain.BaseAggregateRoot

	userID uuid.UUID

	title    string
	category taskDomain.Category
	energy   taskDomain.EnergyIntensity

	estimatedDurationMin int
	preset               Preset

	paused    bool
	deletedAt *time.Time
}

// NewRecurringTaskSeries defines a new habit series.
func NewRecurringTaskSeries(userID uuid.UUID, title string, preset Preset) (*RecurringTaskSeries, error) {
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

	s := &RecurringTaskSeries{
		BaseAggregateRoot:    sharedDomain.NewBaseAggregateRoot(),
		userID:               userID,
		title:                title,
		category:             taskDomain.CategoryUnknown,
		energy:               taskDomain.EnergyMedium,
		estimatedDurationMin: taskDomain.DefaultDurationMinutes,
		preset:               preset,
	}
	s.AddDomainEvent(NewSeriesCreated(s.ID(), s.title))
	return s, nil
}

func (s *RecurringTaskSeries) UserID() uuid.UUID                     { return s.userID }
func (s *RecurringTaskSeries) Title() string                         { return s.title }
func (s *RecurringTaskSeries) Category() taskDomain.Category         { return s.category }
func (s *RecurringTaskSeries) EnergyIntensity() taskDomain.EnergyIntensity { return s.energy }
func (s *RecurringTaskSeries) EstimatedDurationMin() int             { return s.estimatedDurationMin }
func (s *RecurringTaskSeries) Preset() Preset                        { return s.preset }
func (s *RecurringTaskSeries) Paused() bool                          { return s.paused }
func (s *RecurringTaskSeries) IsDeleted() bool                       { return s.deletedAt != nil }
func (s *RecurringTaskSeries) DeletedAt() *time.Time                 { return s.deletedAt }

func (s *RecurringTaskSeries) SetCategory(c taskDomain.Category) {
	s.category = taskDomain.NormalizeCategory(string(c))
	s.Touch()
}

func (s *RecurringTaskSeries) SetEnergyIntensity(e taskDomain.EnergyIntensity) {
	s.energy = e
	s.Touch()
}

func (s *RecurringTaskSeries) SetEstimatedDuration(minutes int) {
	if minutes <= 0 {
		minutes = taskDomain.DefaultDurationMinutes
	}
	s.estimatedDurationMin = minutes
	s.Touch()
}

func (s *RecurringTaskSeries) Pause() {
	if s.paused {
		return
	}
	s.paused = true
	s.Touch()
	s.AddDomainEvent(NewSeriesPaused(s.ID()))
}

func (s *RecurringTaskSeries) Resume() {
	if !s.paused {
		return
	}
	s.paused = false
	s.Touch()
	s.AddDomainEvent(NewSeriesResumed(s.ID()))
}

func (s *RecurringTaskSeries) SoftDelete(now time.Time) {
	if s.IsDeleted() {
		return
	}
	s.deletedAt = &now
	s.Touch()
}

// NewOccurrence builds the next task occurrence for a given scheduled start
// date, linking it back to this series for non-accumulation tracking.
func (s *RecurringTaskSeries) NewOccurrence(occurrenceStart time.Time) (*taskDomain.Task, error) {
	t, err := taskDomain.NewTask(s.userID, "recurrence", s.title)
	if err != nil {
		return nil, err
	}
	t.SetCategory(s.category)
	t.SetEnergyIntensity(s.energy)
	if err := t.SetEstimatedDuration(s.estimatedDurationMin, taskDomain.DefaultDurationConfidence); err != nil {
		return nil, err
	}
	if s.preset.TimeOfDayWindow != nil {
		if start, end, ok := FlexibilityWindowForDay(occurrenceStart, *s.preset.TimeOfDayWindow); ok {
			_ = t.SetFlexibilityWindow(&taskDomain.FlexibilityWindow{Start: start, End: end})
		}
	}
	t.LinkRecurrence(s.ID(), occurrenceStart)
	return t, nil
}

// RehydrateRecurringTaskSeries recreates a series from persisted state.
func RehydrateRecurringTaskSeries(
	id, userID uuid.UUID,
	title string,
	category taskDomain.Category,
	energy taskDomain.EnergyIntensity,
	estimatedDurationMin int,
	preset Preset,
	paused bool,
	deletedAt *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) *RecurringTaskSeries {
	entity := sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)
	return &RecurringTaskSeries{
		BaseAggregateRoot:    sharedDomain.RehydrateBaseAggregateRoot(entity, version),
		userID:               userID,
		title:                title,
		category:             category,
		energy:               energy,
		estimatedDurationMin: estimatedDurationMin,
		preset:               preset,
		paused:               paused,
		deletedAt:            deletedAt,
	}
}
