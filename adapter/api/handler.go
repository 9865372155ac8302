package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/qnz18/qzwhatnext/internal/app"
	taskDomain "github.com/qnz18/qzwhatnext/internal/tasks/domain"
	"github.com/google/uuid"
)

// Handler implements every HTTP operation against a single app.Container.
type Handler struct {
	c      *app.Container
	logger *slog.Logger
}

// NewHandler builds a Handler bound to container.
func NewHandler(container *app.Container, logger *slog.Logger) *Handler {
	return &Handler{c: container, logger: logger}
}

func (h *Handler) decode(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func pathID(r *http.Request) (uuid.UUID, bool) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	return id, err == nil
}

// fetchTask loads a task by ID regardless of soft-delete state, turning a
// not-found row (the repository's nil, nil) into ErrTaskNotFound so every
// caller can handle both failure modes through mapTaskError.
func (h *Handler) fetchTask(r *http.Request, id uuid.UUID) (*taskDomain.Task, error) {
	t, err := h.c.TaskRepo.FindByID(r.Context(), h.c.UserID, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, taskDomain.ErrTaskNotFound
	}
	return t, nil
}

// fetchActiveTask is fetchTask plus a not-found result for a soft-deleted
// task, for endpoints that operate only on live tasks.
func (h *Handler) fetchActiveTask(r *http.Request, id uuid.UUID) (*taskDomain.Task, error) {
	t, err := h.fetchTask(r, id)
	if err != nil {
		return nil, err
	}
	if t.IsDeleted() {
		return nil, taskDomain.ErrTaskNotFound
	}
	return t, nil
}

func mapTaskError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, taskDomain.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, taskDomain.ErrEmptyTitle),
		errors.Is(err, taskDomain.ErrInvalidDuration),
		errors.Is(err, taskDomain.ErrInvalidScore),
		errors.Is(err, taskDomain.ErrInvalidFlexWindow),
		errors.Is(err, taskDomain.ErrTaskAlreadyComplete),
		errors.Is(err, taskDomain.ErrTaskDeleted):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// taskView is the wire shape every task-returning endpoint emits.
type taskView struct {
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	Notes                string     `json:"notes"`
	Category             string     `json:"category"`
	Energy               string     `json:"energy"`
	EstimatedDurationMin int        `json:"estimated_duration_min"`
	RiskScore            float64    `json:"risk_score"`
	ImpactScore          float64    `json:"impact_score"`
	Deadline             *time.Time `json:"deadline,omitempty"`
	DueBy                *time.Time `json:"due_by,omitempty"`
	Status               string     `json:"status"`
	AIExcluded           bool       `json:"ai_excluded"`
	ManuallyScheduled    bool       `json:"manually_scheduled"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func toTaskView(t *taskDomain.Task) taskView {
	return taskView{
		ID:                   t.ID().String(),
		Title:                t.Title(),
		Notes:                t.Notes(),
		Category:             string(t.Category()),
		Energy:               string(t.EnergyIntensity()),
		EstimatedDurationMin: t.EstimatedDurationMin(),
		RiskScore:            t.RiskScore(),
		ImpactScore:          t.ImpactScore(),
		Deadline:             t.Deadline(),
		DueBy:                t.DueBy(),
		Status:               string(t.Status()),
		AIExcluded:           t.AIExcluded(),
		ManuallyScheduled:    t.ManuallyScheduled(),
		CreatedAt:            t.CreatedAt(),
		UpdatedAt:            t.UpdatedAt(),
	}
}

type createTaskRequest struct {
	Title    string     `json:"title"`
	Notes    string     `json:"notes"`
	Deadline *time.Time `json:"deadline"`
	Duration int        `json:"duration"`
	Category string     `json:"category"`
}

// CreateTask handles POST /tasks.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	t, err := taskDomain.NewTask(h.c.UserID, "manual", req.Title)
	if err != nil {
		mapTaskError(w, err)
		return
	}
	if req.Notes != "" {
		t.SetNotes(req.Notes)
	}
	if req.Category != "" {
		t.SetCategory(taskDomain.Category(req.Category))
	}
	if req.Deadline != nil {
		t.SetDeadline(req.Deadline)
	}
	if req.Duration > 0 {
		if err := t.SetEstimatedDuration(req.Duration, taskDomain.DefaultDurationConfidence); err != nil {
			mapTaskError(w, err)
			return
		}
	}

	if err := h.c.TaskRepo.Save(ctx, t); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, toTaskView(t))
}

// ListTasks handles GET /tasks.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.c.TaskRepo.ListAll(r.Context(), h.c.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, toTaskView(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": views})
}

// GetTask handles GET /tasks/{id}.
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	t, err := h.fetchActiveTask(r, id)
	if err != nil {
		mapTaskError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskView(t))
}

type updateTaskRequest struct {
	Title    *string    `json:"title"`
	Notes    *string    `json:"notes"`
	Category *string    `json:"category"`
	Energy   *string    `json:"energy"`
	Deadline *time.Time `json:"deadline"`
	DueBy    *time.Time `json:"due_by"`
	Duration *int       `json:"duration"`
}

// UpdateTask handles PUT /tasks/{id}.
func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	var req updateTaskRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	t, err := h.fetchActiveTask(r, id)
	if err != nil {
		mapTaskError(w, err)
		return
	}

	if req.Notes != nil {
		t.SetNotes(*req.Notes)
	}
	if req.Category != nil {
		t.SetCategory(taskDomain.Category(*req.Category))
	}
	if req.Energy != nil {
		t.SetEnergyIntensity(taskDomain.EnergyIntensity(strings.ToUpper(*req.Energy)))
	}
	if req.Deadline != nil {
		t.SetDeadline(req.Deadline)
	}
	if req.DueBy != nil {
		t.SetDueBy(req.DueBy)
	}
	if req.Duration != nil {
		if err := t.SetEstimatedDuration(*req.Duration, t.DurationConfidence()); err != nil {
			mapTaskError(w, err)
			return
		}
	}

	if err := h.c.TaskRepo.Save(ctx, t); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toTaskView(t))
}

// cascadeDeleteBlocks removes every scheduled block tied to a task; used on
// soft-delete and purge alike, since neither leaves behind a dangling
// entity reference.
func (h *Handler) cascadeDeleteBlocks(r *http.Request, taskID uuid.UUID) error {
	blocks, err := h.c.BlockRepo.FindByEntityID(r.Context(), h.c.UserID, taskID)
	if err != nil {
		return err
	}
	for _, b := range blocks {
		if err := h.c.BlockRepo.Delete(r.Context(), h.c.UserID, b.ID()); err != nil {
			return err
		}
	}
	return nil
}

// SoftDeleteTask handles DELETE /tasks/{id}.
func (h *Handler) SoftDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	ctx := r.Context()
	t, err := h.fetchActiveTask(r, id)
	if err != nil {
		mapTaskError(w, err)
		return
	}
	t.SoftDelete(time.Now().UTC())
	if err := h.c.TaskRepo.Save(ctx, t); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.cascadeDeleteBlocks(r, id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RestoreTask handles POST /tasks/{id}/restore.
func (h *Handler) RestoreTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	ctx := r.Context()
	t, err := h.fetchTask(r, id)
	if err != nil {
		mapTaskError(w, err)
		return
	}
	t.Restore()
	if err := h.c.TaskRepo.Save(ctx, t); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toTaskView(t))
}

// PurgeTask handles DELETE /tasks/{id}/purge.
func (h *Handler) PurgeTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	ctx := r.Context()
	if _, err := h.fetchTask(r, id); err != nil {
		mapTaskError(w, err)
		return
	}
	if err := h.cascadeDeleteBlocks(r, id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := h.c.TaskRepo.Delete(ctx, h.c.UserID, id); err != nil {
		mapTaskError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bulkTaskRequest struct {
	TaskIDs []string `json:"task_ids"`
}

type bulkTaskResponse struct {
	AffectedCount int      `json:"affected_count"`
	NotFoundIDs   []string `json:"not_found_ids"`
}

func (h *Handler) bulkApply(r *http.Request, apply func(t *taskDomain.Task) error) (bulkTaskResponse, error) {
	var req bulkTaskRequest
	if err := h.decode(r, &req); err != nil {
		return bulkTaskResponse{}, ErrBadRequest
	}

	resp := bulkTaskResponse{NotFoundIDs: []string{}}
	for _, raw := range req.TaskIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			resp.NotFoundIDs = append(resp.NotFoundIDs, raw)
			continue
		}
		t, err := h.fetchTask(r, id)
		if err != nil {
			resp.NotFoundIDs = append(resp.NotFoundIDs, raw)
			continue
		}
		if err := apply(t); err != nil {
			return bulkTaskResponse{}, err
		}
		resp.AffectedCount++
	}
	return resp, nil
}

// BulkDeleteTasks handles POST /tasks/bulk_delete.
func (h *Handler) BulkDeleteTasks(w http.ResponseWriter, r *http.Request) {
	resp, err := h.bulkApply(r, func(t *taskDomain.Task) error {
		t.SoftDelete(time.Now().UTC())
		if err := h.c.TaskRepo.Save(r.Context(), t); err != nil {
			return err
		}
		return h.cascadeDeleteBlocks(r, t.ID())
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// BulkRestoreTasks handles POST /tasks/bulk_restore.
func (h *Handler) BulkRestoreTasks(w http.ResponseWriter, r *http.Request) {
	resp, err := h.bulkApply(r, func(t *taskDomain.Task) error {
		t.Restore()
		return h.c.TaskRepo.Save(r.Context(), t)
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// BulkPurgeTasks handles POST /tasks/bulk_purge.
func (h *Handler) BulkPurgeTasks(w http.ResponseWriter, r *http.Request) {
	resp, err := h.bulkApply(r, func(t *taskDomain.Task) error {
		if err := h.cascadeDeleteBlocks(r, t.ID()); err != nil {
			return err
		}
		return h.c.TaskRepo.Delete(r.Context(), h.c.UserID, t.ID())
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type addSmartRequest struct {
	Notes string `json:"notes"`
}

// smartTitle derives a title from free-text notes: the trimmed text before
// the first newline or period (the whole trimmed notes when that is empty),
// capped at 120 runes.
func smartTitle(notes string) string {
	line := notes
	if idx := strings.IndexAny(notes, "\n."); idx >= 0 {
		line = notes[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		line = strings.TrimSpace(notes)
	}
	runes := []rune(line)
	if len(runes) > 120 {
		line = string(runes[:120])
	}
	return line
}

// AddSmartTask handles POST /tasks/add_smart.
func (h *Handler) AddSmartTask(w http.ResponseWriter, r *http.Request) {
	var req addSmartRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	title := smartTitle(req.Notes)
	t, err := taskDomain.NewTask(h.c.UserID, "smart", title)
	if err != nil {
		mapTaskError(w, err)
		return
	}
	t.SetNotes(req.Notes)
	t.SetCategory(taskDomain.NormalizeCategory(categoryKeyword(req.Notes)))

	if err := h.c.TaskRepo.Save(r.Context(), t); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toTaskView(t))
}

// categoryKeyword guesses a category from a small keyword table; notes that
// match nothing fall through to UNKNOWN via NormalizeCategory.
func categoryKeyword(notes string) string {
	lower := strings.ToLower(notes)
	switch {
	case strings.Contains(lower, "kid") || strings.Contains(lower, "school") || strings.Contains(lower, "child"):
		return "CHILD"
	case strings.Contains(lower, "doctor") || strings.Contains(lower, "gym") || strings.Contains(lower, "health"):
		return "HEALTH"
	case strings.Contains(lower, "work") || strings.Contains(lower, "meeting") || strings.Contains(lower, "project"):
		return "WORK"
	case strings.Contains(lower, "family"):
		return "FAMILY"
	case strings.Contains(lower, "idea"):
		return "IDEAS"
	case strings.Contains(lower, "clean") || strings.Contains(lower, "home") || strings.Contains(lower, "house"):
		return "HOME"
	case strings.Contains(lower, "bill") || strings.Contains(lower, "admin") || strings.Contains(lower, "paperwork"):
		return "ADMIN"
	default:
		return "UNKNOWN"
	}
}
