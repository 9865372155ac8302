package api

import (
	"errors"
	"net/http"
	"time"

	calendarApp "github.com/qnz18/qzwhatnext/internal/calendar/application"
	calendarDomain "github.com/qnz18/qzwhatnext/internal/calendar/domain"
	schedulingApp "github.com/qnz18/qzwhatnext/internal/scheduling/application"
	schedulingDomain "github.com/qnz18/qzwhatnext/internal/scheduling/domain"
	"github.com/google/uuid"
)

// blockView is the wire shape a scheduled block is rendered as.
type blockView struct {
	ID              string    `json:"id"`
	EntityType      string    `json:"entity_type"`
	EntityID        string    `json:"entity_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Locked          bool      `json:"locked"`
	CalendarEventID *string   `json:"calendar_event_id,omitempty"`
}

func toBlockView(b *schedulingDomain.ScheduledBlock) blockView {
	return blockView{
		ID:              b.ID().String(),
		EntityType:      string(b.EntityType()),
		EntityID:        b.EntityID().String(),
		StartTime:       b.StartTime(),
		EndTime:         b.EndTime(),
		Locked:          b.Locked(),
		CalendarEventID: b.CalendarEventID(),
	}
}

// scheduleResponse is the wire shape for both RebuildSchedule and
// GetSchedule, matching the response the HTTP surface promises: blocks,
// overflow task ids, the horizon start, and the overflow tasks' titles for
// display without a second round trip.
type scheduleResponse struct {
	Blocks      []blockView `json:"blocks"`
	Overflow    []string    `json:"overflow"`
	StartTime   time.Time   `json:"start_time"`
	TaskTitles  []string    `json:"task_titles"`
}

// RebuildSchedule handles POST /schedule.
func (h *Handler) RebuildSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	open, err := h.c.TaskRepo.ListOpen(ctx, h.c.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(open) == 0 {
		writeError(w, http.StatusBadRequest, "no open tasks to schedule")
		return
	}

	now := time.Now().UTC()
	result, err := schedulingApp.Rebuild(ctx, h.c.UserID, h.c.TaskRepo, h.c.BlockRepo, now, h.c.Config.ReconcileHorizonDays, time.UTC)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toScheduleResponse(result))
}

// GetSchedule handles GET /schedule.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	blocks, err := h.c.BlockRepo.ListForUser(ctx, h.c.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(blocks) == 0 {
		writeError(w, http.StatusNotFound, "no schedule has been built yet")
		return
	}

	views := make([]blockView, 0, len(blocks))
	var start time.Time
	for i, b := range blocks {
		views = append(views, toBlockView(b))
		if i == 0 || b.StartTime().Before(start) {
			start = b.StartTime()
		}
	}

	writeJSON(w, http.StatusOK, scheduleResponse{Blocks: views, Overflow: []string{}, StartTime: start, TaskTitles: []string{}})
}

func toScheduleResponse(result schedulingApp.Result) scheduleResponse {
	views := make([]blockView, 0, len(result.ScheduledBlocks))
	for _, b := range result.ScheduledBlocks {
		views = append(views, toBlockView(b))
	}
	overflowIDs := make([]string, 0, len(result.OverflowTasks))
	titles := make([]string, 0, len(result.OverflowTasks))
	for _, t := range result.OverflowTasks {
		overflowIDs = append(overflowIDs, t.ID().String())
		titles = append(titles, t.Title())
	}
	return scheduleResponse{
		Blocks:     views,
		Overflow:   overflowIDs,
		StartTime:  result.HorizonStart,
		TaskTitles: titles,
	}
}

// resolveCalendarID returns the user's configured calendar ID, falling back
// to the container's default when no per-user setting has been saved yet.
func (h *Handler) resolveCalendarID(r *http.Request) string {
	if h.c.SettingsService == nil {
		return h.c.Config.GoogleCalendarID
	}
	id, err := h.c.SettingsService.GetCalendarID(r.Context(), h.c.UserID)
	if err != nil || id == "" {
		return h.c.Config.GoogleCalendarID
	}
	return id
}

type syncCalendarResponse struct {
	EventsCreated int      `json:"events_created"`
	EventIDs      []string `json:"event_ids"`
}

// SyncCalendar handles POST /sync-calendar.
func (h *Handler) SyncCalendar(w http.ResponseWriter, r *http.Request) {
	if h.c.Reconciler == nil {
		writeError(w, http.StatusBadRequest, "calendar sync is not configured")
		return
	}

	ctx := r.Context()
	calendarID := h.resolveCalendarID(r)

	result, err := h.c.Reconciler.Reconcile(ctx, h.c.UserID, calendarID)
	if err != nil {
		if errors.Is(err, calendarApp.ErrCalendarNotConnected) || errors.Is(err, calendarDomain.ErrNotConnected) {
			writeError(w, http.StatusBadRequest, "calendar is not connected")
			return
		}
		if errors.Is(err, calendarDomain.ErrInvalidGrant) {
			writeError(w, http.StatusBadRequest, "calendar authorization expired, reconnect required")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	blocks, err := h.c.BlockRepo.ListForUser(ctx, h.c.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	eventIDs := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if id := b.CalendarEventID(); id != nil {
			eventIDs = append(eventIDs, *id)
		}
	}

	writeJSON(w, http.StatusOK, syncCalendarResponse{
		EventsCreated: result.Inserted,
		EventIDs:      eventIDs,
	})
}

// LockBlock handles POST /schedule/blocks/{id}/lock.
func (h *Handler) LockBlock(w http.ResponseWriter, r *http.Request) {
	h.toggleBlockLock(w, r, true)
}

// UnlockBlock handles POST /schedule/blocks/{id}/unlock.
func (h *Handler) UnlockBlock(w http.ResponseWriter, r *http.Request) {
	h.toggleBlockLock(w, r, false)
}

func (h *Handler) toggleBlockLock(w http.ResponseWriter, r *http.Request, lock bool) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid block id")
		return
	}

	ctx := r.Context()
	block, err := h.c.BlockRepo.FindByID(ctx, h.c.UserID, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if block == nil {
		writeError(w, http.StatusNotFound, "scheduled block not found")
		return
	}

	if lock {
		block.Lock()
	} else {
		block.Unlock()
	}
	if err := h.c.BlockRepo.Save(ctx, block); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toBlockView(block))
}

// captureRequest is the POST /capture body.
type captureRequest struct {
	Instruction string     `json:"instruction"`
	EntityID    *uuid.UUID `json:"entity_id"`
}

type captureResponse struct {
	Action          string `json:"action"`
	EntityKind      string `json:"entity_kind"`
	EntityID        string `json:"entity_id,omitempty"`
	TasksCreated    int    `json:"tasks_created,omitempty"`
	CalendarEventID string `json:"calendar_event_id,omitempty"`
}

// Capture handles POST /capture.
func (h *Handler) Capture(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Instruction == "" {
		writeError(w, http.StatusBadRequest, "instruction is required")
		return
	}

	calendarID := h.resolveCalendarID(r)
	result, err := h.c.Capture.Capture(r.Context(), h.c.UserID, req.Instruction, req.EntityID, calendarID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := captureResponse{
		Action:          result.Action,
		EntityKind:      string(result.EntityKind),
		TasksCreated:    result.TasksCreated,
		CalendarEventID: result.CalendarEventID,
	}
	if result.EntityID != uuid.Nil {
		resp.EntityID = result.EntityID.String()
	}
	writeJSON(w, http.StatusOK, resp)
}
