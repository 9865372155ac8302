// Package application implements the scheduling engine: a deterministic,
// greedy placement of ranked tasks into a bounded time horizon that avoids
// reserved intervals and preserves already-placed locked blocks.
//
// The algorithm is ported line-for-line in spirit from the reference
// implementation's schedule_tasks/next_available_time cursor walk, extended
// with start_after lower bounds, flexibility windows, and manually-scheduled
// skipping per the current specification.
package application

import (
	"time"

	schedulingDomain "github.com/qnz18/qzwhatnext/internal/scheduling/domain"
	taskDomain "github.com/qnz18/qzwhatnext/internal/tasks/domain"
	"github.com/google/uuid"
)

// Granularity is the maximum block length and the placement grid; every
// emitted block starts on a Granularity boundary relative to the horizon start.
const Granularity = 30 * time.Minute

// blockIDNamespace seeds deterministicBlockID, a stable ID per (task,
// occurrence index) that is carried only as the BlockScheduled event's
// identifier. The ScheduledBlock entities themselves get fresh random IDs
// from NewScheduledBlock, so a rebuild of an unchanged plan does not
// reproduce block IDs.
var blockIDNamespace = uuid.MustParse("5f1a9b2e-0c1a-4e8c-9c2b-6a3d7e9f1b2c")

func deterministicBlockID(taskID uuid.UUID, occurrenceIndex int) uuid.UUID {
	name := taskID.String() + ":" + time.Duration(occurrenceIndex).String()
	return uuid.NewSHA1(blockIDNamespace, []byte(name))
}

// Result is the outcome of one scheduling pass.
type Result struct {
	ScheduledBlocks []*schedulingDomain.ScheduledBlock
	OverflowTasks   []*taskDomain.Task
	HorizonStart    time.Time
}

// Horizon is the bounded [Start, End) window tasks are placed into.
type Horizon struct {
	Start time.Time
	End   time.Time
}

// DefaultHorizonDays is the horizon length the reconciler uses. The rebuild
// paths in the HTTP and CLI adapters take config.ReconcileHorizonDays
// instead.
const DefaultHorizonDays = 7

// blocksNeeded returns the number of Granularity-sized blocks
// needed to cover minutes.
func blocksNeeded(minutes int) int {
	g := int(Granularity.Minutes())
	if minutes <= 0 {
		return 1
	}
	return (minutes + g - 1) / g
}

// cursor advances a placement pointer past reservations.
type cursor struct {
	reservations []schedulingDomain.Reservation
}

// nextAvailable returns the earliest start at/after t that fits a
// blockDuration-sized slot without overlapping any reservation. Mirrors the
// reference next_available_time loop: if t falls inside a reservation, jump
// to its end; if the candidate block would cross into the next reservation,
// jump past that reservation too.
func (c *cursor) nextAvailable(t time.Time, blockDuration time.Duration) time.Time {
	if len(c.reservations) == 0 {
		return t
	}
	for {
		moved := false
		blockEnd := t.Add(blockDuration)
		for _, r := range c.reservations {
			if !r.End.After(t) {
				continue
			}
			if !r.Start.After(t) && t.Before(r.End) {
				t = r.End
				moved = true
				break
			}
			if t.Before(r.Start) && blockEnd.After(r.Start) {
				t = r.End
				moved = true
				break
			}
		}
		if !moved {
			return t
		}
	}
}

// Schedule places ranked tasks into the horizon, skipping tasks that are
// manually_scheduled, and returns the newly placed blocks plus any tasks
// that overflowed the horizon.
//
// reservations need not be sorted or deduplicated. Schedule takes no
// locked blocks of its own: the caller passes them in as reservations and
// leaves their owning tasks out of rankedTasks.
func Schedule(userID uuid.UUID, rankedTasks []*taskDomain.Task, horizon Horizon, reservations []schedulingDomain.Reservation) Result {
	result := Result{HorizonStart: horizon.Start}

	c := &cursor{reservations: schedulingDomain.NormalizeReservations(reservations)}
	t := horizon.Start

	for _, task := range rankedTasks {
		if task.ManuallyScheduled() {
			continue
		}

		taskStart := t
		if sa := task.StartAfter(); sa != nil && sa.After(taskStart) {
			taskStart = *sa
		}

		windowEnd := horizon.End
		if fw := task.FlexibilityWindow(); fw != nil {
			if fw.Start.After(taskStart) {
				taskStart = fw.Start
			}
			if fw.End.Before(windowEnd) {
				windowEnd = fw.End
			}
		}

		blocksCount := blocksNeeded(task.EstimatedDurationMin())
		totalDuration := time.Duration(blocksCount) * Granularity

		if taskStart.Add(totalDuration).After(windowEnd) {
			result.OverflowTasks = append(result.OverflowTasks, task)
			continue
		}

		remaining := task.EstimatedDurationMin()
		cur := taskStart
		var placed []*schedulingDomain.ScheduledBlock
		occurrence := 0
		for remaining > 0 {
			blockMinutes := remaining
			if blockMinutes > int(Granularity.Minutes()) {
				blockMinutes = int(Granularity.Minutes())
			}
			blockDuration := time.Duration(blockMinutes) * time.Minute
			for {
				next := c.nextAvailable(cur, blockDuration)
				if off := next.Sub(horizon.Start) % Granularity; off > 0 {
					next = next.Add(Granularity - off)
				}
				if next.Equal(cur) {
					break
				}
				cur = next
			}
			blockEnd := cur.Add(blockDuration)

			if blockEnd.After(windowEnd) {
				placed = nil
				break
			}

			block, err := schedulingDomain.NewScheduledBlock(userID, schedulingDomain.EntityTypeTask, task.ID(), cur, blockEnd, schedulingDomain.ScheduledBySystem)
			if err != nil {
				break
			}
			block.AddDomainEvent(schedulingDomain.NewBlockScheduled(deterministicBlockID(task.ID(), occurrence), task.ID()))
			placed = append(placed, block)

			cur = blockEnd
			remaining -= blockMinutes
			occurrence++
		}

		if placed == nil {
			result.OverflowTasks = append(result.OverflowTasks, task)
			continue
		}

		result.ScheduledBlocks = append(result.ScheduledBlocks, placed...)
		t = cur
	}

	return result
}

// RoundToGranularity rounds a timestamp down to the nearest Granularity
// boundary. No code in this module calls it.
func RoundToGranularity(ts time.Time) time.Time {
	g := int(Granularity.Minutes())
	minute := (ts.Minute() / g) * g
	return time.Date(ts.Year(), ts.Month(), ts.Day(), ts.Hour(), minute, 0, 0, ts.Location())
}
