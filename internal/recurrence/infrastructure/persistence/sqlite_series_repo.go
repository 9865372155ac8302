package persistence

import (
	"context"
	"time"

	recurrenceDomain "github.com/qnz18/qzwhatnext/internal/recurrence/domain"
	"github.com/qnz18/qzwhatnext/internal/shared/infrastructure/database"
	taskDomain "github.com/qnz18/qzwhatnext/internal/tasks/domain"
	"github.com/google/uuid"
)

// SQLiteSeriesRepository persists RecurringTaskSeries aggregates against a
// database.Executor, so it works unmodified inside a transaction or on the
// bare connection.
type SQLiteSeriesRepository struct {
	exec database.Executor
}

// NewSQLiteSeriesRepository builds a series repository bound to exec.
func NewSQLiteSeriesRepository(exec database.Executor) *SQLiteSeriesRepository {
	return &SQLiteSeriesRepository{exec: exec}
}

func (r *SQLiteSeriesRepository) Save(ctx context.Context, series *recurrenceDomain.RecurringTaskSeries) error {
	presetJSON, err := encodePreset(series.Preset())
	if err != nil {
		return err
	}

	_, err = r.exec.Exec(ctx, `
		INSERT INTO recurring_task_series (
			id, user_id, title, category, energy, estimated_duration_min,
			preset_json, paused, deleted_at, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			category = excluded.category,
			energy = excluded.energy,
			estimated_duration_min = excluded.estimated_duration_min,
			preset_json = excluded.preset_json,
			paused = excluded.paused,
			deleted_at = excluded.deleted_at,
			version = excluded.version,
			updated_at = excluded.updated_at
	`,
		series.ID().String(), series.UserID().String(), series.Title(),
		string(series.Category()), string(series.EnergyIntensity()), series.EstimatedDurationMin(),
		string(presetJSON), series.Paused(), series.DeletedAt(), series.Version(),
		series.CreatedAt(), series.UpdatedAt(),
	)
	return err
}

func (r *SQLiteSeriesRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*recurrenceDomain.RecurringTaskSeries, error) {
	row := r.exec.QueryRow(ctx, `
		SELECT id, user_id, title, category, energy, estimated_duration_min,
		       preset_json, paused, deleted_at, version, created_at, updated_at
		FROM recurring_task_series
		WHERE id = ? AND user_id = ?
	`, id.String(), userID.String())
	return scanSeries(row)
}

func (r *SQLiteSeriesRepository) ListActive(ctx context.Context, userID uuid.UUID) ([]*recurrenceDomain.RecurringTaskSeries, error) {
	rows, err := r.exec.Query(ctx, `
		SELECT id, user_id, title, category, energy, estimated_duration_min,
		       preset_json, paused, deleted_at, version, created_at, updated_at
		FROM recurring_task_series
		WHERE user_id = ? AND deleted_at IS NULL AND paused = 0
		ORDER BY created_at DESC
	`, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSeriesRows(rows)
}

func (r *SQLiteSeriesRepository) ListAll(ctx context.Context, userID uuid.UUID) ([]*recurrenceDomain.RecurringTaskSeries, error) {
	rows, err := r.exec.Query(ctx, `
		SELECT id, user_id, title, category, energy, estimated_duration_min,
		       preset_json, paused, deleted_at, version, created_at, updated_at
		FROM recurring_task_series
		WHERE user_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC
	`, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSeriesRows(rows)
}

func (r *SQLiteSeriesRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	_, err := r.exec.Exec(ctx, `DELETE FROM recurring_task_series WHERE id = ? AND user_id = ?`, id.String(), userID.String())
	return err
}

func scanSeriesRows(rows database.Rows) ([]*recurrenceDomain.RecurringTaskSeries, error) {
	var out []*recurrenceDomain.RecurringTaskSeries
	for rows.Next() {
		series, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, series)
	}
	return out, rows.Err()
}

type seriesScanner interface {
	Scan(dest ...any) error
}

func scanSeries(row seriesScanner) (*recurrenceDomain.RecurringTaskSeries, error) {
	var (
		idStr, userIDStr, title, category, energy, presetJSON string
		estimatedDurationMin, version                         int
		paused                                                bool
		deletedAt                                              *time.Time
		createdAt, updatedAt                                  time.Time
	)
	if err := row.Scan(&idStr, &userIDStr, &title, &category, &energy, &estimatedDurationMin,
		&presetJSON, &paused, &deletedAt, &version, &createdAt, &updatedAt); err != nil {
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
	preset, err := decodePreset([]byte(presetJSON))
	if err != nil {
		return nil, err
	}

	return recurrenceDomain.RehydrateRecurringTaskSeries(
		id, userID, title,
		taskDomain.NormalizeCategory(category), taskDomain.EnergyIntensity(energy), estimatedDurationMin,
		preset, paused, deletedAt, version, createdAt, updatedAt,
	), nil
}
