// Package persistence implements a SQLite-backed ScheduledBlock repository,
// hand written against database.Executor since this schema has no
// generated sqlc counterpart.
package persistence

import (
	"context"
	"time"

	schedulingDomain "github.com/qnz18/qzwhatnext/internal/scheduling/domain"
	"github.com/qnz18/qzwhatnext/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLiteBlockRepository persists ScheduledBlock entities for local mode.
type SQLiteBlockRepository struct {
	conn database.Connection
}

// NewSQLiteBlockRepository builds a block repository bound to the
// connection. ReplaceUnlocked needs a transaction of its own, so this
// repository holds the connection rather than a bare Executor.
func NewSQLiteBlockRepository(conn database.Connection) *SQLiteBlockRepository {
	return &SQLiteBlockRepository{conn: conn}
}

const blockColumns = `
	id, user_id, entity_type, entity_id, start_time, end_time, scheduled_by,
	locked, calendar_event_id, calendar_event_etag, calendar_event_updated_at,
	created_at, updated_at
`

func saveBlock(ctx context.Context, exec database.Executor, block *schedulingDomain.ScheduledBlock) error {
	_, err := exec.Exec(ctx, `
		INSERT INTO scheduled_blocks (`+blockColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			scheduled_by = excluded.scheduled_by,
			locked = excluded.locked,
			calendar_event_id = excluded.calendar_event_id,
			calendar_event_etag = excluded.calendar_event_etag,
			calendar_event_updated_at = excluded.calendar_event_updated_at,
			updated_at = excluded.updated_at
	`,
		block.ID().String(), block.UserID().String(), string(block.EntityType()), block.EntityID().String(),
		block.StartTime(), block.EndTime(), string(block.ScheduledByWhom()), block.Locked(),
		block.CalendarEventID(), block.CalendarEventETag(), block.CalendarEventUpdatedAt(),
		block.CreatedAt(), block.UpdatedAt(),
	)
	return err
}

func (r *SQLiteBlockRepository) Save(ctx context.Context, block *schedulingDomain.ScheduledBlock) error {
	return saveBlock(ctx, r.conn, block)
}

// ReplaceUnlocked deletes every unlocked block for the user and inserts the
// new set inside one transaction, leaving locked blocks untouched. This is
// the only write path the scheduler rebuild uses.
func (r *SQLiteBlockRepository) ReplaceUnlocked(ctx context.Context, userID uuid.UUID, newBlocks []*schedulingDomain.ScheduledBlock) error {
	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM scheduled_blocks WHERE user_id = ? AND locked = 0`, userID.String()); err != nil {
		return err
	}
	for _, block := range newBlocks {
		if err := saveBlock(ctx, tx, block); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *SQLiteBlockRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*schedulingDomain.ScheduledBlock, error) {
	return r.listWhere(ctx, `user_id = ? ORDER BY start_time ASC`, userID.String())
}

func (r *SQLiteBlockRepository) ListInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]*schedulingDomain.ScheduledBlock, error) {
	return r.listWhere(ctx, `user_id = ? AND start_time < ? AND end_time > ? ORDER BY start_time ASC`, userID.String(), end, start)
}

func (r *SQLiteBlockRepository) FindByID(ctx context.Context, userID, id uuid.UUID) (*schedulingDomain.ScheduledBlock, error) {
	row := r.conn.QueryRow(ctx, `SELECT `+blockColumns+` FROM scheduled_blocks WHERE id = ? AND user_id = ?`, id.String(), userID.String())
	return scanBlock(row)
}

func (r *SQLiteBlockRepository) FindByEntityID(ctx context.Context, userID, entityID uuid.UUID) ([]*schedulingDomain.ScheduledBlock, error) {
	return r.listWhere(ctx, `user_id = ? AND entity_id = ? ORDER BY start_time ASC`, userID.String(), entityID.String())
}

func (r *SQLiteBlockRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM scheduled_blocks WHERE id = ? AND user_id = ?`, id.String(), userID.String())
	return err
}

func (r *SQLiteBlockRepository) listWhere(ctx context.Context, where string, args ...any) ([]*schedulingDomain.ScheduledBlock, error) {
	rows, err := r.conn.Query(ctx, `SELECT `+blockColumns+` FROM scheduled_blocks WHERE `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*schedulingDomain.ScheduledBlock
	for rows.Next() {
		block, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, block)
	}
	return out, rows.Err()
}

type blockScanner interface {
	Scan(dest ...any) error
}

func scanBlock(row blockScanner) (*schedulingDomain.ScheduledBlock, error) {
	var (
		idStr, userIDStr, entityType, entityIDStr, scheduledBy string
		startTime, endTime                                     time.Time
		locked                                                 bool
		calendarEventID, calendarEventETag                     *string
		calendarEventUpdatedAt                                 *time.Time
		createdAt, updatedAt                                   time.Time
	)
	if err := row.Scan(
		&idStr, &userIDStr, &entityType, &entityIDStr, &startTime, &endTime, &scheduledBy,
		&locked, &calendarEventID, &calendarEventETag, &calendarEventUpdatedAt,
		&createdAt, &updatedAt,
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
	entityID, err := uuid.Parse(entityIDStr)
	if err != nil {
		return nil, err
	}

	return schedulingDomain.RehydrateScheduledBlock(
		id, userID, schedulingDomain.EntityType(entityType), entityID,
		startTime, endTime, schedulingDomain.ScheduledBy(scheduledBy), locked,
		calendarEventID, calendarEventETag, calendarEventUpdatedAt,
		createdAt, updatedAt,
	), nil
}
