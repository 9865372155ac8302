package application_test

import (
	"testing"
	"time"

	"github.com/qnz18/qzwhatnext/internal/tasks/application"
	taskdomain "github.com/qnz18/qzwhatnext/internal/tasks/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTask(t *testing.T, category taskdomain.Category) *taskdomain.Task {
	tsk, err := taskdomain.NewTask(uuid.New(), "manual", "Test task")
	require.NoError(t, err)
	tsk.SetCategory(category)
	return tsk
}

func TestTier_DeadlineProximityOverridesCategory(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tsk := newTask(t, taskdomain.CategoryHome)
	deadline := now.Add(2 * time.Hour)
	tsk.SetDeadline(&deadline)

	require.Equal(t, application.TierDeadlineProximity, application.Tier(tsk, now))
}

func TestTier_DeadlineBeyond24hDoesNotOverride(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tsk := newTask(t, taskdomain.CategoryHome)
	deadline := now.Add(48 * time.Hour)
	tsk.SetDeadline(&deadline)

	require.Equal(t, application.TierOther, application.Tier(tsk, now))
}

func TestTier_HighRisk(t *testing.T) {
	now := time.Now()
	tsk := newTask(t, taskdomain.CategoryHome)
	require.NoError(t, tsk.SetRiskScore(0.7))

	require.Equal(t, application.TierHighRisk, application.Tier(tsk, now))
}

func TestTier_HighImpact(t *testing.T) {
	now := time.Now()
	tsk := newTask(t, taskdomain.CategoryHome)
	require.NoError(t, tsk.SetRiskScore(0))
	require.NoError(t, tsk.SetImpactScore(0.7))

	require.Equal(t, application.TierHighImpact, application.Tier(tsk, now))
}

func TestTier_CategoryOrdering(t *testing.T) {
	now := time.Now()
	cases := []struct {
		category taskdomain.Category
		want     int
	}{
		{taskdomain.CategoryChild, application.TierChild},
		{taskdomain.CategoryHealth, application.TierHealth},
		{taskdomain.CategoryWork, application.TierWork},
		{taskdomain.CategoryPersonal, application.TierPersonal},
		{taskdomain.CategoryIdeas, application.TierPersonal},
		{taskdomain.CategoryFamily, application.TierFamily},
		{taskdomain.CategoryHome, application.TierOther},
		{taskdomain.CategoryAdmin, application.TierOther},
		{taskdomain.CategoryUnknown, application.TierOther},
	}

	for _, tc := range cases {
		tsk := newTask(t, tc.category)
		require.NoError(t, tsk.SetRiskScore(0))
		require.NoError(t, tsk.SetImpactScore(0))
		require.Equal(t, tc.want, application.Tier(tsk, now), "category %s", tc.category)
	}
}

func TestTier_LegacyCategoryAliasesResolveBeforeTiering(t *testing.T) {
	now := time.Now()
	tsk := newTask(t, taskdomain.Category("stress"))
	require.NoError(t, tsk.SetRiskScore(0))
	require.NoError(t, tsk.SetImpactScore(0))

	require.Equal(t, application.TierPersonal, application.Tier(tsk, now))
}
