// Package persistence implements a SQLite-backed Task repository, hand
// written against database.Executor rather than generated sqlc code: this
// schema has no corresponding generated package.
package persistence

import (
	"context"
	"time"

	"github.com/qnz18/qzwhatnext/internal/shared/infrastructure/database"
	taskDomain "github.com/qnz18/qzwhatnext/internal/tasks/domain"
	"github.com/google/uuid"
)

// SQLiteTaskRepository persists Task aggregates for local (SQLite) mode.
type SQLiteTaskRepository struct {
	exec database.Executor
}

// NewSQLiteTaskRepository builds a task repository bound to exec, which may
// be the bare connection or an open transaction.
func NewSQLiteTaskRepository(exec database.Executor) *SQLiteTaskRepository {
	return &SQLiteTaskRepository{exec: exec}
}

const taskColumns = `
	id, user_id, source_type, source_id, title, notes, category, energy,
	estimated_duration_min, duration_confidence, risk_score, impact_score,
	deadline, start_after, due_by, flex_window_start, flex_window_end,
	status, deleted_at, ai_excluded, manual_priority_locked, user_locked,
	manually_scheduled, recurrence_series_id, recurrence_occurrence_start,
	version, created_at, updated_at
`

func (r *SQLiteTaskRepository) Save(ctx context.Context, task *taskDomain.Task) error {
	var flexStart, flexEnd *time.Time
	if fw := task.FlexibilityWindow(); fw != nil {
		flexStart, flexEnd = &fw.Start, &fw.End
	}
	var seriesID *string
	if sid := task.RecurrenceSeriesID(); sid != nil {
		s := sid.String()
		seriesID = &s
	}

	_, err := r.exec.Exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_id = excluded.source_id,
			title = excluded.title,
			notes = excluded.notes,
			category = excluded.category,
			energy = excluded.energy,
			estimated_duration_min = excluded.estimated_duration_min,
			duration_confidence = excluded.duration_confidence,
			risk_score = excluded.risk_score,
			impact_score = excluded.impact_score,
			deadline = excluded.deadline,
			start_after = excluded.start_after,
			due_by = excluded.due_by,
			flex_window_start = excluded.flex_window_start,
			flex_window_end = excluded.flex_window_end,
			status = excluded.status,
			deleted_at = excluded.deleted_at,
			ai_excluded = excluded.ai_excluded,
			manual_priority_locked = excluded.manual_priority_locked,
			user_locked = excluded.user_locked,
			manually_scheduled = excluded.manually_scheduled,
			recurrence_series_id = excluded.recurrence_series_id,
			recurrence_occurrence_start = excluded.recurrence_occurrence_start,
			version = excluded.version,
			updated_at = excluded.updated_at
	`,
		task.ID().String(), task.UserID().String(), task.SourceType(), task.SourceID(),
		task.Title(), task.Notes(), string(task.Category()), string(task.EnergyIntensity()),
		task.EstimatedDurationMin(), task.DurationConfidence(), task.RiskScore(), task.ImpactScore(),
		task.Deadline(), task.StartAfter(), task.DueBy(), flexStart, flexEnd,
		string(task.Status()), task.DeletedAt(), task.AIExcluded(), task.ManualPriorityLocked(),
		task.UserLocked(), task.ManuallyScheduled(), seriesID, task.RecurrenceOccurrenceStart(),
		task.Version(), task.CreatedAt(), task.UpdatedAt(),
	)
	return err
}

// FindByID returns a task regardless of soft-delete state, so restore and
// purge can operate on it; callers that must exclude deleted tasks check
// IsDeleted() themselves.
func (r *SQLiteTaskRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*taskDomain.Task, error) {
	row := r.exec.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks WHERE id = ? AND user_id = ?
	`, id.String(), userID.String())
	return scanTask(row)
}

func (r *SQLiteTaskRepository) ListOpen(ctx context.Context, userID uuid.UUID) ([]*taskDomain.Task, error) {
	return r.listWhere(ctx, `user_id = ? AND deleted_at IS NULL AND status = ? ORDER BY created_at DESC`, userID.String(), string(taskDomain.StatusOpen))
}

func (r *SQLiteTaskRepository) ListAll(ctx context.Context, userID uuid.UUID) ([]*taskDomain.Task, error) {
	return r.listWhere(ctx, `user_id = ? AND deleted_at IS NULL ORDER BY created_at DESC`, userID.String())
}

func (r *SQLiteTaskRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	_, err := r.exec.Exec(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id.String(), userID.String())
	return err
}

func (r *SQLiteTaskRepository) OpenOccurrenceForSeries(ctx context.Context, userID, seriesID uuid.UUID) (*taskDomain.Task, error) {
	row := r.exec.QueryRow(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = ? AND recurrence_series_id = ? AND status = ? AND deleted_at IS NULL
		LIMIT 1
	`, userID.String(), seriesID.String(), string(taskDomain.StatusOpen))
	return scanTask(row)
}

func (r *SQLiteTaskRepository) OpenOccurrencesPastWindow(ctx context.Context, userID uuid.UUID, cutoff time.Time) ([]*taskDomain.Task, error) {
	cutoffDay := time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, cutoff.Location())
	return r.listWhere(ctx, `
		user_id = ? AND status = ? AND deleted_at IS NULL
		AND recurrence_series_id IS NOT NULL AND recurrence_occurrence_start IS NOT NULL
		AND (
			(flex_window_end IS NOT NULL AND flex_window_end < ?)
			OR (flex_window_end IS NULL AND recurrence_occurrence_start < ?)
		)
		ORDER BY recurrence_occurrence_start ASC
	`, userID.String(), string(taskDomain.StatusOpen), cutoff, cutoffDay)
}

func (r *SQLiteTaskRepository) listWhere(ctx context.Context, where string, args ...any) ([]*taskDomain.Task, error) {
	rows, err := r.exec.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*taskDomain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

type taskScanner interface {
	Scan(dest ...any) error
}

func scanTask(row taskScanner) (*taskDomain.Task, error) {
	var (
		idStr, userIDStr, sourceType, title, notes, category, energy, status string
		sourceID                                                             *string
		estimatedDurationMin                                                 int
		durationConfidence, riskScore, impactScore                           float64
		deadline, startAfter, dueBy, flexStart, flexEnd, deletedAt           *time.Time
		aiExcluded, manualPriorityLocked, userLocked, manuallyScheduled      bool
		seriesIDStr                                                          *string
		occurrenceStart                                                      *time.Time
		version                                                              int
		createdAt, updatedAt                                                 time.Time
	)
	if err := row.Scan(
		&idStr, &userIDStr, &sourceType, &sourceID, &title, &notes, &category, &energy,
		&estimatedDurationMin, &durationConfidence, &riskScore, &impactScore,
		&deadline, &startAfter, &dueBy, &flexStart, &flexEnd,
		&status, &deletedAt, &aiExcluded, &manualPriorityLocked, &userLocked,
		&manuallyScheduled, &seriesIDStr, &occurrenceStart,
		&version, &createdAt, &updatedAt,
	); err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, err
	}

	var flexWindow *taskDomain.FlexibilityWindow
	if flexStart != nil && flexEnd != nil {
		flexWindow = &taskDomain.FlexibilityWindow{Start: *flexStart, End: *flexEnd}
	}

	var seriesID *uuid.UUID
	if seriesIDStr != nil {
		parsed, err := uuid.Parse(*seriesIDStr)
		if err != nil {
			return nil, err
		}
		seriesID = &parsed
	}

	return taskDomain.RehydrateTask(
		id, userID, sourceType, sourceID, title, notes,
		taskDomain.NormalizeCategory(category), taskDomain.EnergyIntensity(energy),
		estimatedDurationMin, durationConfidence, riskScore, impactScore,
		deadline, startAfter, dueBy, flexWindow,
		taskDomain.Status(status), deletedAt,
		aiExcluded, manualPriorityLocked, userLocked, manuallyScheduled,
		seriesID, occurrenceStart,
		createdAt, updatedAt, version,
	), nil
}
