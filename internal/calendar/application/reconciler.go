// Package application implements the calendar reconciler: the component
// that keeps one calendar event per scheduled block, imports user edits as
// locks, and recreates events the user or provider deleted out from under
// it.
package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	calendarDomain "github.com/qnz18/qzwhatnext/internal/calendar/domain"
	schedulingApp "github.com/qnz18/qzwhatnext/internal/scheduling/application"
	schedulingDomain "github.com/qnz18/qzwhatnext/internal/scheduling/domain"
	taskApp "github.com/qnz18/qzwhatnext/internal/tasks/application"
	taskDomain "github.com/qnz18/qzwhatnext/internal/tasks/domain"
	"github.com/google/uuid"
)

// ErrCalendarNotConnected names a calendar that is not connected. The
// reconciler does not return it itself (a missing token reaches it from
// the gateway factory as calendarDomain.ErrNotConnected); the HTTP sync
// handler treats either error as a reconnect prompt.
var ErrCalendarNotConnected = errors.New("CALENDAR_NOT_CONNECTED")

// GatewayFactory resolves an authenticated calendar gateway for a user,
// refreshing the access token as needed. The container's factory returns
// calendarDomain.ErrNotConnected when no token is stored and
// calendarDomain.ErrInvalidGrant when the refresh token is rejected; the
// reconciler passes either back to its caller unchanged.
type GatewayFactory func(ctx context.Context, userID uuid.UUID) (calendarDomain.Gateway, error)

// Result summarizes one reconcile pass.
type Result struct {
	Inserted int
	Patched  int
	Imported int
	Deleted  int
	Overflow []*taskDomain.Task
}

// Reconciler syncs the scheduled-block plan for a user to their connected
// calendar, per reconcile pass.
type Reconciler struct {
	gateways  GatewayFactory
	tasks     taskDomain.Repository
	blocks    schedulingDomain.Repository
	clock     func() time.Time
	horizonDays int
}

// New builds a reconciler. clock defaults to time.Now if nil.
func New(gateways GatewayFactory, tasks taskDomain.Repository, blocks schedulingDomain.Repository, clock func() time.Time) *Reconciler {
	if clock == nil {
		clock = time.Now
	}
	return &Reconciler{gateways: gateways, tasks: tasks, blocks: blocks, clock: clock, horizonDays: schedulingApp.DefaultHorizonDays}
}

// Reconcile runs one full pass for a user: rebuild the plan, diff it
// against the calendar, write the differences, and delete orphaned managed
// events. Running it twice with no external changes performs zero insert
// or patch calls on the second run.
func (r *Reconciler) Reconcile(ctx context.Context, userID uuid.UUID, calendarID string) (*Result, error) {
	gw, err := r.gateways(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := r.clock().UTC()
	horizon := schedulingApp.Horizon{Start: now, End: now.Add(time.Duration(r.horizonDays) * 24 * time.Hour)}

	openTasks, err := r.tasks.ListOpen(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reconciler: list open tasks: %w", err)
	}
	_, schedulable := taskApp.FilterAIExcluded(openTasks)
	// AI exclusion only gates inference; the reconciler itself still
	// schedules excluded tasks, so use both partitions' union in original
	// order rather than dropping excluded tasks from the plan.
	schedulable = openTasks

	existingBlocks, err := r.blocks.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reconciler: list blocks: %w", err)
	}

	lockedBlocks := make([]*schedulingDomain.ScheduledBlock, 0)
	lockedEntityIDs := make(map[uuid.UUID]bool)
	for _, b := range existingBlocks {
		if b.Locked() {
			lockedBlocks = append(lockedBlocks, b)
			lockedEntityIDs[b.EntityID()] = true
		}
	}

	var toSchedule []*taskDomain.Task
	for _, t := range schedulable {
		if lockedEntityIDs[t.ID()] {
			continue
		}
		toSchedule = append(toSchedule, t)
	}

	events, err := gw.ListEvents(ctx, calendarID, horizon.Start, horizon.End)
	if err != nil {
		return nil, fmt.Errorf("reconciler: list events: %w", err)
	}

	reservations := make([]schedulingDomain.Reservation, 0, len(events)+len(lockedBlocks))
	for _, ev := range events {
		if ev.IsManaged() {
			continue
		}
		reservations = append(reservations, schedulingDomain.Reservation{Start: ev.Start, End: ev.End})
	}
	for _, b := range lockedBlocks {
		reservations = append(reservations, schedulingDomain.Reservation{Start: b.StartTime(), End: b.EndTime()})
	}

	ranked := taskApp.Rank(toSchedule, now, nil)
	planResult := schedulingApp.Schedule(userID, ranked, horizon, reservations)

	if err := r.blocks.ReplaceUnlocked(ctx, userID, planResult.ScheduledBlocks); err != nil {
		return nil, fmt.Errorf("reconciler: replace unlocked blocks: %w", err)
	}

	plan := append(append([]*schedulingDomain.ScheduledBlock{}, planResult.ScheduledBlocks...), lockedBlocks...)
	sort.Slice(plan, func(i, j int) bool {
		if !plan[i].StartTime().Equal(plan[j].StartTime()) {
			return plan[i].StartTime().Before(plan[j].StartTime())
		}
		return plan[i].ID().String() < plan[j].ID().String()
	})

	result := &Result{Overflow: planResult.OverflowTasks}
	if err := r.diffAndWrite(ctx, gw, calendarID, plan, result); err != nil {
		return result, err
	}
	if err := r.deleteOrphans(ctx, gw, calendarID, horizon, plan); err != nil {
		return result, err
	}
	return result, nil
}

func (r *Reconciler) diffAndWrite(ctx context.Context, gw calendarDomain.Gateway, calendarID string, plan []*schedulingDomain.ScheduledBlock, result *Result) error {
	for _, block := range plan {
		if block.CalendarEventID() == nil {
			if err := r.createEvent(ctx, gw, calendarID, block, result); err != nil {
				return err
			}
			continue
		}

		existing, err := gw.GetEvent(ctx, calendarID, *block.CalendarEventID())
		if errors.Is(err, calendarDomain.ErrEventNotFound) || (existing != nil && existing.Status == "cancelled") {
			if err := r.createEvent(ctx, gw, calendarID, block, result); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("reconciler: get event %s: %w", *block.CalendarEventID(), err)
		}

		changedTime := !existing.Start.Equal(block.StartTime()) || !existing.End.Equal(block.EndTime())
		etagChanged := block.CalendarEventETag() == nil || *block.CalendarEventETag() != existing.ETag
		if changedTime && etagChanged {
			// The provider's copy moved independently of our last write:
			// a user edit. Import it and lock the block so the scheduler
			// never fights the user over this slot again.
			if err := block.ImportExternalTimes(existing.Start, existing.End); err != nil {
				return err
			}
			block.SetCalendarMetadata(existing.ID, existing.ETag, existing.Updated)
			if err := r.blocks.Save(ctx, block); err != nil {
				return err
			}
			result.Imported++
			continue
		}

		if changedTime {
			updated, err := gw.PatchEvent(ctx, calendarID, blockToEvent(block))
			if err != nil {
				return fmt.Errorf("reconciler: patch event: %w", err)
			}
			block.SetCalendarMetadata(updated.ID, updated.ETag, updated.Updated)
			if err := r.blocks.Save(ctx, block); err != nil {
				return err
			}
			result.Patched++
		}
	}
	return nil
}

func (r *Reconciler) createEvent(ctx context.Context, gw calendarDomain.Gateway, calendarID string, block *schedulingDomain.ScheduledBlock, result *Result) error {
	created, err := gw.InsertEvent(ctx, calendarID, blockToEvent(block))
	if err != nil {
		return fmt.Errorf("reconciler: insert event: %w", err)
	}
	block.SetCalendarMetadata(created.ID, created.ETag, created.Updated)
	if err := r.blocks.Save(ctx, block); err != nil {
		return err
	}
	result.Inserted++
	return nil
}

func blockToEvent(block *schedulingDomain.ScheduledBlock) *calendarDomain.Event {
	ev := &calendarDomain.Event{
		Summary: "Scheduled block",
		Start:   block.StartTime(),
		End:     block.EndTime(),
		Private: map[string]string{
			calendarDomain.MetaBlockID: block.ID().String(),
			calendarDomain.MetaManaged: "1",
		},
	}
	if block.EntityType() == schedulingDomain.EntityTypeTask {
		ev.Private[calendarDomain.MetaTaskID] = block.EntityID().String()
	}
	if id := block.CalendarEventID(); id != nil {
		ev.ID = *id
	}
	return ev
}

// deleteOrphans removes managed events whose block_id no longer appears in
// the current plan. A 404/410 on delete is treated as success by the
// gateway implementation.
func (r *Reconciler) deleteOrphans(ctx context.Context, gw calendarDomain.Gateway, calendarID string, horizon schedulingApp.Horizon, plan []*schedulingDomain.ScheduledBlock) error {
	planBlockIDs := make(map[string]bool, len(plan))
	for _, b := range plan {
		planBlockIDs[b.ID().String()] = true
	}

	events, err := gw.ListEvents(ctx, calendarID, horizon.Start, horizon.End)
	if err != nil {
		return fmt.Errorf("reconciler: list events for orphan sweep: %w", err)
	}
	for _, ev := range events {
		if !ev.IsManaged() {
			continue
		}
		blockID, ok := ev.Private[calendarDomain.MetaBlockID]
		if !ok || planBlockIDs[blockID] {
			continue
		}
		if err := gw.DeleteEvent(ctx, calendarID, ev.ID); err != nil {
			return fmt.Errorf("reconciler: delete orphan event %s: %w", ev.ID, err)
		}
	}
	return nil
}
