package persistence

import (
	"context"
	"time"

	"github.com/qnz18/qzwhatnext/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLiteSettingsRepository implements settings.Repository against a single
// row per user, created lazily on first write.
type SQLiteSettingsRepository struct {
	exec database.Executor
}

// NewSQLiteSettingsRepository builds a settings repository bound to exec.
func NewSQLiteSettingsRepository(exec database.Executor) *SQLiteSettingsRepository {
	return &SQLiteSettingsRepository{exec: exec}
}

func (r *SQLiteSettingsRepository) GetCalendarID(ctx context.Context, userID uuid.UUID) (string, error) {
	var calendarID string
	row := r.exec.QueryRow(ctx, `SELECT calendar_id FROM settings WHERE user_id = ?`, userID.String())
	if err := row.Scan(&calendarID); err != nil {
		if database.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return calendarID, nil
}

func (r *SQLiteSettingsRepository) SetCalendarID(ctx context.Context, userID uuid.UUID, calendarID string) error {
	_, err := r.exec.Exec(ctx, `
		INSERT INTO settings (user_id, calendar_id, delete_missing, updated_at)
		VALUES (?, ?, 0, ?)
		ON CONFLICT(user_id) DO UPDATE SET calendar_id = excluded.calendar_id, updated_at = excluded.updated_at
	`, userID.String(), calendarID, time.Now().UTC())
	return err
}

func (r *SQLiteSettingsRepository) GetDeleteMissing(ctx context.Context, userID uuid.UUID) (bool, error) {
	var deleteMissing bool
	row := r.exec.QueryRow(ctx, `SELECT delete_missing FROM settings WHERE user_id = ?`, userID.String())
	if err := row.Scan(&deleteMissing); err != nil {
		if database.IsNoRows(err) {
			return false, nil
		}
		return false, err
	}
	return deleteMissing, nil
}

func (r *SQLiteSettingsRepository) SetDeleteMissing(ctx context.Context, userID uuid.UUID, deleteMissing bool) error {
	_, err := r.exec.Exec(ctx, `
		INSERT INTO settings (user_id, calendar_id, delete_missing, updated_at)
		VALUES (?, '', ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET delete_missing = excluded.delete_missing, updated_at = excluded.updated_at
	`, userID.String(), deleteMissing, time.Now().UTC())
	return err
}
