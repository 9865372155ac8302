package persistence

import (
	"context"
	"time"

	recurrenceDomain "github.com/qnz18/qzwhatnext/internal/recurrence/domain"
	"github.com/qnz18/qzwhatnext/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLiteTimeBlockRepository persists RecurringTimeBlock aggregates. Clock
// times are stored as minutes-since-midnight (0-1439) and reconstructed
// through NewClockTime, the only public constructor for the domain's
// unexported clockTime type.
type SQLiteTimeBlockRepository struct {
	exec database.Executor
}

// NewSQLiteTimeBlockRepository builds a time-block repository bound to exec.
func NewSQLiteTimeBlockRepository(exec database.Executor) *SQLiteTimeBlockRepository {
	return &SQLiteTimeBlockRepository{exec: exec}
}

func clockToMinutes(h, m int) int { return h*60 + m }

func (r *SQLiteTimeBlockRepository) Save(ctx context.Context, block *recurrenceDomain.RecurringTimeBlock) error {
	presetJSON, err := encodePreset(block.Preset())
	if err != nil {
		return err
	}

	_, err = r.exec.Exec(ctx, `
		INSERT INTO recurring_time_blocks (
			id, user_id, title, preset_json, time_start_minute, time_end_minute,
			paused, deleted_at, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			preset_json = excluded.preset_json,
			time_start_minute = excluded.time_start_minute,
			time_end_minute = excluded.time_end_minute,
			paused = excluded.paused,
			deleted_at = excluded.deleted_at,
			version = excluded.version,
			updated_at = excluded.updated_at
	`,
		block.ID().String(), block.UserID().String(), block.Title(), string(presetJSON),
		clockToMinutes(block.TimeStart().Hour(), block.TimeStart().Minute()),
		clockToMinutes(block.TimeEnd().Hour(), block.TimeEnd().Minute()),
		block.Paused(), block.DeletedAt(), block.Version(), block.CreatedAt(), block.UpdatedAt(),
	)
	return err
}

func (r *SQLiteTimeBlockRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*recurrenceDomain.RecurringTimeBlock, error) {
	row := r.exec.QueryRow(ctx, `
		SELECT id, user_id, title, preset_json, time_start_minute, time_end_minute,
		       paused, deleted_at, version, created_at, updated_at
		FROM recurring_time_blocks
		WHERE id = ? AND user_id = ?
	`, id.String(), userID.String())
	return scanTimeBlock(row)
}

func (r *SQLiteTimeBlockRepository) ListActive(ctx context.Context, userID uuid.UUID) ([]*recurrenceDomain.RecurringTimeBlock, error) {
	rows, err := r.exec.Query(ctx, `
		SELECT id, user_id, title, preset_json, time_start_minute, time_end_minute,
		       paused, deleted_at, version, created_at, updated_at
		FROM recurring_time_blocks
		WHERE user_id = ? AND deleted_at IS NULL AND paused = 0
		ORDER BY created_at DESC
	`, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*recurrenceDomain.RecurringTimeBlock
	for rows.Next() {
		block, err := scanTimeBlock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, block)
	}
	return out, rows.Err()
}

func (r *SQLiteTimeBlockRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	_, err := r.exec.Exec(ctx, `DELETE FROM recurring_time_blocks WHERE id = ? AND user_id = ?`, id.String(), userID.String())
	return err
}

func scanTimeBlock(row seriesScanner) (*recurrenceDomain.RecurringTimeBlock, error) {
	var (
		idStr, userIDStr, title, presetJSON string
		startMinute, endMinute, version      int
		paused                               bool
		deletedAt                            *time.Time
		createdAt, updatedAt                 time.Time
	)
	if err := row.Scan(&idStr, &userIDStr, &title, &presetJSON, &startMinute, &endMinute,
		&paused, &deletedAt, &version, &createdAt, &updatedAt); err != nil {
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

	timeStart := recurrenceDomain.NewClockTime(startMinute/60, startMinute%60)
	timeEnd := recurrenceDomain.NewClockTime(endMinute/60, endMinute%60)

	return recurrenceDomain.RehydrateRecurringTimeBlock(
		id, userID, title, preset, timeStart, timeEnd, paused, deletedAt, version, createdAt, updatedAt,
	), nil
}
