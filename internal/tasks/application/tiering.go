package application

import (
	"time"

	taskdomain "github.com/qnz18/qzwhatnext/internal/tasks/domain"
)

// Tier numbers, lower is higher priority. Assignment is the first matching
// rule in fixed order: deadline proximity, then risk, then impact, then a
// fixed category ordering.
const (
	TierDeadlineProximity = 1
	TierHighRisk          = 2
	TierHighImpact        = 3
	TierChild             = 4
	TierHealth            = 5
	TierWork              = 6
	TierPersonal          = 7
	TierFamily            = 8
	TierOther             = 9
)

const (
	deadlineProximityWindow = 24 * time.Hour
	highRiskThreshold       = 0.7
	highImpactThreshold     = 0.7
)

// Tier assigns exactly one tier (1..9) to a task. It is pure except for the
// injected clock; the same (task, now) always yields the same tier.
func Tier(task *taskdomain.Task, now time.Time) int {
	if d := task.Deadline(); d != nil {
		untilDeadline := d.Sub(now)
		if untilDeadline > 0 && untilDeadline <= deadlineProximityWindow {
			return TierDeadlineProximity
		}
	}
	if task.RiskScore() >= highRiskThreshold {
		return TierHighRisk
	}
	if task.ImpactScore() >= highImpactThreshold {
		return TierHighImpact
	}

	switch task.Category() {
	case taskdomain.CategoryChild:
		return TierChild
	case taskdomain.CategoryHealth:
		return TierHealth
	case taskdomain.CategoryWork:
		return TierWork
	case taskdomain.CategoryPersonal, taskdomain.CategoryIdeas:
		return TierPersonal
	case taskdomain.CategoryFamily:
		return TierFamily
	default:
		return TierOther
	}
}
