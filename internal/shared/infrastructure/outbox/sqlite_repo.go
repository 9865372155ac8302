package outbox

import (
	"context"
	"time"

	"github.com/qnz18/qzwhatnext/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLiteRepository implements Repository by hand against database.Executor,
// the same abstraction every other bounded context's SQLite repository
// uses, rather than a generated query layer.
type SQLiteRepository struct {
	exec database.Executor
}

// NewSQLiteRepository creates a new SQLite outbox repository.
func NewSQLiteRepository(exec database.Executor) *SQLiteRepository {
	return &SQLiteRepository{exec: exec}
}

// Save stores a new outbox message.
func (r *SQLiteRepository) Save(ctx context.Context, msg *Message) error {
	result, err := r.exec.Exec(ctx, `
		INSERT INTO outbox (
			event_id, aggregate_type, aggregate_id, event_type, routing_key,
			payload, metadata, created_at, next_retry_at, dead_lettered_at, dead_letter_reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		msg.EventID.String(), msg.AggregateType, msg.AggregateID.String(), msg.EventType, msg.RoutingKey,
		string(msg.Payload), nullableString(msg.Metadata), msg.CreatedAt, msg.NextRetryAt, msg.DeadLetteredAt, msg.DeadLetterReason,
	)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	msg.ID = id
	return nil
}

// SaveBatch stores multiple outbox messages. The caller is expected to
// already hold a transaction in ctx (via the unit of work) when atomicity
// across messages is required.
func (r *SQLiteRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	for _, msg := range msgs {
		if err := r.Save(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// GetUnpublished retrieves unpublished messages ordered by creation time.
func (r *SQLiteRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	rows, err := r.exec.Query(ctx, `
		SELECT id, event_id, aggregate_type, aggregate_id, event_type, routing_key,
		       payload, metadata, created_at, published_at, next_retry_at, retry_count,
		       last_error, dead_lettered_at, dead_letter_reason
		FROM outbox
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY created_at
		LIMIT ?
	`, time.Now().UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMessages(rows)
}

// MarkPublished marks a message as successfully published.
func (r *SQLiteRepository) MarkPublished(ctx context.Context, id int64) error {
	_, err := r.exec.Exec(ctx, `UPDATE outbox SET published_at = ?, dead_lettered_at = NULL WHERE id = ?`, time.Now().UTC(), id)
	return err
}

// MarkFailed records a publish failure with error message.
func (r *SQLiteRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	_, err := r.exec.Exec(ctx, `
		UPDATE outbox
		SET retry_count = retry_count + 1,
			last_error = ?,
			next_retry_at = ?
		WHERE id = ?
	`, errMsg, nextRetryAt, id)
	return err
}

// MarkDead marks a message as dead-lettered.
func (r *SQLiteRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	_, err := r.exec.Exec(ctx, `
		UPDATE outbox
		SET dead_lettered_at = ?,
			dead_letter_reason = ?
		WHERE id = ?
	`, time.Now().UTC(), reason, id)
	return err
}

// GetFailed retrieves failed messages eligible for retry.
func (r *SQLiteRepository) GetFailed(ctx context.Context, maxRetries, limit int) ([]*Message, error) {
	rows, err := r.exec.Query(ctx, `
		SELECT id, event_id, aggregate_type, aggregate_id, event_type, routing_key,
		       payload, metadata, created_at, published_at, next_retry_at, retry_count,
		       last_error, dead_lettered_at, dead_letter_reason
		FROM outbox
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND retry_count > 0
		  AND retry_count < ?
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY created_at
		LIMIT ?
	`, maxRetries, time.Now().UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMessages(rows)
}

// DeleteOld removes successfully published messages older than the
// retention period.
func (r *SQLiteRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays)
	result, err := r.exec.Exec(ctx, `DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *SQLiteRepository) scanMessages(rows database.Rows) ([]*Message, error) {
	var messages []*Message
	for rows.Next() {
		var (
			id                                    int64
			eventIDStr, aggregateIDStr            string
			aggregateType, eventType, routingKey  string
			payload                               string
			metadata                              *string
			createdAt                             time.Time
			publishedAt, nextRetryAt              *time.Time
			retryCount                            int
			lastError                             *string
			deadLetteredAt                        *time.Time
			deadLetterReason                      *string
		)
		if err := rows.Scan(&id, &eventIDStr, &aggregateType, &aggregateIDStr, &eventType, &routingKey,
			&payload, &metadata, &createdAt, &publishedAt, &nextRetryAt, &retryCount,
			&lastError, &deadLetteredAt, &deadLetterReason); err != nil {
			return nil, err
		}

		eventID, err := uuid.Parse(eventIDStr)
		if err != nil {
			return nil, err
		}
		aggregateID, err := uuid.Parse(aggregateIDStr)
		if err != nil {
			return nil, err
		}

		msg := &Message{
			ID:               id,
			EventID:          eventID,
			AggregateType:    aggregateType,
			AggregateID:      aggregateID,
			EventType:        eventType,
			RoutingKey:       routingKey,
			Payload:          []byte(payload),
			CreatedAt:        createdAt,
			PublishedAt:      publishedAt,
			NextRetryAt:      nextRetryAt,
			RetryCount:       retryCount,
			LastError:        lastError,
			DeadLetteredAt:   deadLetteredAt,
			DeadLetterReason: deadLetterReason,
		}
		if metadata != nil {
			msg.Metadata = []byte(*metadata)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func nullableString(b []byte) *string {
	if len(b) == 0 {
		return nil
	}
	s := string(b)
	return &s
}
