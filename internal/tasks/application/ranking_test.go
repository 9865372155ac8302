package application_test

import (
	"testing"
	"time"

	"github.com/qnz18/qzwhatnext/internal/tasks/application"
	taskdomain "github.com/qnz18/qzwhatnext/internal/tasks/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRank_OrdersByTierThenUrgency(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	work, err := taskdomain.NewTask(uuid.New(), "manual", "Work task")
	require.NoError(t, err)
	work.SetCategory(taskdomain.CategoryWork)

	health, err := taskdomain.NewTask(uuid.New(), "manual", "Health task")
	require.NoError(t, err)
	health.SetCategory(taskdomain.CategoryHealth)

	ranked := application.Rank([]*taskdomain.Task{work, health}, now, time.UTC)

	require.Len(t, ranked, 2)
	require.Equal(t, health.ID(), ranked[0].ID())
	require.Equal(t, work.ID(), ranked[1].ID())
}

func TestRank_IsStableOnTies(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var tasks []*taskdomain.Task
	for i := 0; i < 5; i++ {
		tsk, err := taskdomain.NewTask(uuid.New(), "manual", "Identical tier task")
		require.NoError(t, err)
		tasks = append(tasks, tsk)
	}

	ranked := application.Rank(tasks, now, time.UTC)
	for i := range tasks {
		require.Equal(t, tasks[i].ID(), ranked[i].ID())
	}
}

func TestRank_DeadlineBeatsDueBy(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	withDueBy, err := taskdomain.NewTask(uuid.New(), "manual", "Due by task")
	require.NoError(t, err)
	due := now.Add(1 * time.Hour)
	withDueBy.SetDueBy(&due)

	withDeadline, err := taskdomain.NewTask(uuid.New(), "manual", "Deadline task")
	require.NoError(t, err)
	deadline := now.Add(30 * 24 * time.Hour)
	withDeadline.SetDeadline(&deadline)

	ranked := application.Rank([]*taskdomain.Task{withDueBy, withDeadline}, now, time.UTC)

	require.Equal(t, withDeadline.ID(), ranked[0].ID())
	require.Equal(t, withDueBy.ID(), ranked[1].ID())
}
