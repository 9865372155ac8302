package application

import (
	"math"
	"sort"
	"time"

	taskdomain "github.com/qnz18/qzwhatnext/internal/tasks/domain"
)

// urgency is the secondary sort key: a (class, timestamp) pair where a lower
// class always sorts before a higher one, and within the same class the
// timestamp breaks the tie. Class 0 = has a deadline, 1 = has a due date
// only, 2 = neither (timestamp is +Inf, always last).
type urgency struct {
	class int
	ts    float64
}

func (u urgency) less(other urgency) bool {
	if u.class != other.class {
		return u.class < other.class
	}
	return u.ts < other.ts
}

func endOfLocalDay(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.In(loc).Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), loc)
}

func urgencyOf(task *taskdomain.Task, loc *time.Location) urgency {
	if d := task.Deadline(); d != nil {
		return urgency{class: 0, ts: float64(d.UnixNano())}
	}
	if d := task.DueBy(); d != nil {
		eod := endOfLocalDay(*d, loc)
		return urgency{class: 1, ts: float64(eod.UnixNano())}
	}
	return urgency{class: 2, ts: math.Inf(1)}
}

// Rank stably sorts tasks by (tier asc, urgency asc, created_at asc, id
// asc). now is the clock used for tiering; timezone is the user's calendar
// timezone used to resolve due_by end-of-day; it falls back to UTC if nil.
// Ranking is a pure function: concurrent calls over identical inputs return
// identical orderings, and ties preserve input order (stability).
func Rank(tasks []*taskdomain.Task, now time.Time, timezone *time.Location) []*taskdomain.Task {
	loc := timezone
	if loc == nil {
		loc = time.UTC
	}

	ranked := make([]*taskdomain.Task, len(tasks))
	copy(ranked, tasks)

	tiers := make(map[*taskdomain.Task]int, len(tasks))
	urgencies := make(map[*taskdomain.Task]urgency, len(tasks))
	for _, t := range tasks {
		tiers[t] = Tier(t, now)
		urgencies[t] = urgencyOf(t, loc)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if tiers[a] != tiers[b] {
			return tiers[a] < tiers[b]
		}
		ua, ub := urgencies[a], urgencies[b]
		if ua != ub {
			return ua.less(ub)
		}
		ca, cb := a.CreatedAt(), b.CreatedAt()
		if !ca.Equal(cb) {
			return ca.Before(cb)
		}
		return a.ID().String() < b.ID().String()
	})

	return ranked
}
