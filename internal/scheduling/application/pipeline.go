package application

import (
	"context"
	"time"

	schedulingDomain "github.com/qnz18/qzwhatnext/internal/scheduling/domain"
	taskApp "github.com/qnz18/qzwhatnext/internal/tasks/application"
	taskDomain "github.com/qnz18/qzwhatnext/internal/tasks/domain"
	"github.com/google/uuid"
)

// Rebuild ranks every open task for userID, places the ones without an
// active locked block into the horizon starting at now, and persists the
// result as the new set of unlocked blocks (locked blocks are left
// untouched by ReplaceUnlocked). It is the composition the HTTP layer's
// POST /schedule calls; the pure ranking and placement steps it wires stay
// in tasks/application and scheduling/application respectively.
func Rebuild(ctx context.Context, userID uuid.UUID, tasks taskDomain.Repository, blocks schedulingDomain.Repository, now time.Time, horizonDays int, loc *time.Location) (Result, error) {
	open, err := tasks.ListOpen(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	existing, err := blocks.ListForUser(ctx, userID)
	if err != nil {
		return Result{}, err
	}

	lockedEntities := make(map[uuid.UUID]bool)
	reservations := make([]schedulingDomain.Reservation, 0, len(existing))
	for _, b := range existing {
		if !b.Locked() {
			continue
		}
		reservations = append(reservations, schedulingDomain.Reservation{Start: b.StartTime(), End: b.EndTime()})
		if b.EntityType() == schedulingDomain.EntityTypeTask {
			lockedEntities[b.EntityID()] = true
		}
	}

	placeable := make([]*taskDomain.Task, 0, len(open))
	for _, t := range open {
		if lockedEntities[t.ID()] {
			continue
		}
		placeable = append(placeable, t)
	}

	ranked := taskApp.Rank(placeable, now, loc)

	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	horizon := Horizon{Start: now, End: now.AddDate(0, 0, horizonDays)}

	result := Schedule(userID, ranked, horizon, reservations)

	if err := blocks.ReplaceUnlocked(ctx, userID, result.ScheduledBlocks); err != nil {
		return Result{}, err
	}

	return result, nil
}
