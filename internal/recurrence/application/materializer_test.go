package application_test

import (
	"context"
	"testing"
	"time"

	recurrenceApp "github.com/qnz18/qzwhatnext/internal/recurrence/application"
	recurrenceDomain "github.com/qnz18/qzwhatnext/internal/recurrence/domain"
	taskDomain "github.com/qnz18/qzwhatnext/internal/tasks/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeSeriesRepo struct {
	active []*recurrenceDomain.RecurringTaskSeries
}

func (f *fakeSeriesRepo) Save(ctx context.Context, s *recurrenceDomain.RecurringTaskSeries) error {
	return nil
}
func (f *fakeSeriesRepo) FindByID(ctx context.Context, userID, id uuid.UUID) (*recurrenceDomain.RecurringTaskSeries, error) {
	return nil, recurrenceDomain.ErrSeriesNotFound
}
func (f *fakeSeriesRepo) ListActive(ctx context.Context, userID uuid.UUID) ([]*recurrenceDomain.RecurringTaskSeries, error) {
	return f.active, nil
}
func (f *fakeSeriesRepo) ListAll(ctx context.Context, userID uuid.UUID) ([]*recurrenceDomain.RecurringTaskSeries, error) {
	return f.active, nil
}
func (f *fakeSeriesRepo) Delete(ctx context.Context, userID, id uuid.UUID) error { return nil }

type fakeTaskRepo struct {
	saved         []*taskDomain.Task
	openForSeries map[uuid.UUID]*taskDomain.Task
	pastWindow    []*taskDomain.Task
}

func (f *fakeTaskRepo) Save(ctx context.Context, task *taskDomain.Task) error {
	f.saved = append(f.saved, task)
	return nil
}
func (f *fakeTaskRepo) FindByID(ctx context.Context, userID, id uuid.UUID) (*taskDomain.Task, error) {
	return nil, taskDomain.ErrTaskNotFound
}
func (f *fakeTaskRepo) ListOpen(ctx context.Context, userID uuid.UUID) ([]*taskDomain.Task, error) {
	return nil, nil
}
func (f *fakeTaskRepo) ListAll(ctx context.Context, userID uuid.UUID) ([]*taskDomain.Task, error) {
	return nil, nil
}
func (f *fakeTaskRepo) Delete(ctx context.Context, userID, id uuid.UUID) error { return nil }
func (f *fakeTaskRepo) OpenOccurrenceForSeries(ctx context.Context, userID, seriesID uuid.UUID) (*taskDomain.Task, error) {
	if f.openForSeries == nil {
		return nil, nil
	}
	return f.openForSeries[seriesID], nil
}
func (f *fakeTaskRepo) OpenOccurrencesPastWindow(ctx context.Context, userID uuid.UUID, cutoff time.Time) ([]*taskDomain.Task, error) {
	return f.pastWindow, nil
}

func TestMaterialize_CreatesOneOccurrenceForDailySeries(t *testing.T) {
	userID := uuid.New()
	preset := recurrenceDomain.Preset{Frequency: recurrenceDomain.FrequencyDaily, Interval: 1}
	series, err := recurrenceDomain.NewRecurringTaskSeries(userID, "Take vitamins", preset)
	require.NoError(t, err)

	seriesRepo := &fakeSeriesRepo{active: []*recurrenceDomain.RecurringTaskSeries{series}}
	taskRepo := &fakeTaskRepo{}
	m := recurrenceApp.NewMaterializer(seriesRepo, taskRepo)

	windowStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	windowEnd := windowStart.AddDate(0, 0, 7)

	result, err := m.Materialize(context.Background(), userID, windowStart, windowEnd)
	require.NoError(t, err)

	require.Equal(t, 1, result.Created)
	require.Len(t, taskRepo.saved, 1)
	require.NotNil(t, taskRepo.saved[0].RecurrenceSeriesID())
	require.Equal(t, series.ID(), *taskRepo.saved[0].RecurrenceSeriesID())
}

func TestMaterialize_SkipsSeriesWithOpenOccurrence(t *testing.T) {
	userID := uuid.New()
	preset := recurrenceDomain.Preset{Frequency: recurrenceDomain.FrequencyDaily, Interval: 1}
	series, err := recurrenceDomain.NewRecurringTaskSeries(userID, "Take vitamins", preset)
	require.NoError(t, err)

	existing, err := taskDomain.NewTask(userID, "recurrence", "Take vitamins")
	require.NoError(t, err)

	seriesRepo := &fakeSeriesRepo{active: []*recurrenceDomain.RecurringTaskSeries{series}}
	taskRepo := &fakeTaskRepo{openForSeries: map[uuid.UUID]*taskDomain.Task{series.ID(): existing}}
	m := recurrenceApp.NewMaterializer(seriesRepo, taskRepo)

	windowStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	result, err := m.Materialize(context.Background(), userID, windowStart, windowStart.AddDate(0, 0, 7))
	require.NoError(t, err)

	require.Equal(t, 0, result.Created)
	require.Empty(t, taskRepo.saved)
}

func TestMaterialize_RollsOverdueOpenOccurrenceToMissed(t *testing.T) {
	userID := uuid.New()
	overdue, err := taskDomain.NewTask(userID, "recurrence", "Take vitamins")
	require.NoError(t, err)

	seriesRepo := &fakeSeriesRepo{}
	taskRepo := &fakeTaskRepo{pastWindow: []*taskDomain.Task{overdue}}
	m := recurrenceApp.NewMaterializer(seriesRepo, taskRepo)

	windowStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	result, err := m.Materialize(context.Background(), userID, windowStart, windowStart.AddDate(0, 0, 7))
	require.NoError(t, err)

	require.Equal(t, 1, result.RolledToMiss)
	require.True(t, overdue.IsMissed())
	require.Len(t, taskRepo.saved, 1)
}

func TestMaterialize_WeeklyCountPerPeriodPicksEarliestWeek(t *testing.T) {
	userID := uuid.New()
	n := 2
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	preset := recurrenceDomain.Preset{
		Frequency:      recurrenceDomain.FrequencyWeekly,
		Interval:       1,
		CountPerPeriod: &n,
		StartDate:      &start,
	}
	series, err := recurrenceDomain.NewRecurringTaskSeries(userID, "Go to the gym", preset)
	require.NoError(t, err)

	seriesRepo := &fakeSeriesRepo{active: []*recurrenceDomain.RecurringTaskSeries{series}}
	taskRepo := &fakeTaskRepo{}
	m := recurrenceApp.NewMaterializer(seriesRepo, taskRepo)

	result, err := m.Materialize(context.Background(), userID, start, start.AddDate(0, 0, 7))
	require.NoError(t, err)

	require.Equal(t, 1, result.Created)
	require.NotNil(t, taskRepo.saved[0].RecurrenceOccurrenceStart())
	occStart := *taskRepo.saved[0].RecurrenceOccurrenceStart()
	require.False(t, occStart.Before(start))
	require.True(t, occStart.Before(start.AddDate(0, 0, 7)))
}
