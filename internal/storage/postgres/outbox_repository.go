package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/parceltrack/internal/domain"
)

// Статусы outbox_messages; переход возможен только из pending.
const (
	outboxPending = "pending"
	outboxSent    = "sent"
	outboxFailed  = "failed"
)

const (
	outboxColumns     = `id, aggregate_type, aggregate_id, tracking_code, event_type, payload`
	defaultPullLimit  = 100
	maxPullLimit      = 1000
	outboxEventsTable = "outbox_messages"
)

type outboxRepository struct {
	db *sql.DB
}

// NewOutboxRepository создаёт PostgreSQL-реализацию outbox событий о заказах.
func NewOutboxRepository(store *Store) domain.OutboxRepository {
	return &outboxRepository{db: store.DB()}
}

func (r *outboxRepository) Enqueue(msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	ctx, cancel := withTimeout(context.Background())
	defer cancel()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.TrackingCode = domain.NormalizeTrackingCode(msg.TrackingCode)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO `+outboxEventsTable+` (`+outboxColumns+`, status) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		msg.ID, msg.AggregateType, msg.AggregateID, msg.TrackingCode, msg.EventType, msg.Payload, outboxPending,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.OutboxMessage{}, fmt.Errorf("enqueue order event %s: duplicate outbox id", msg.ID)
		}
		return domain.OutboxMessage{}, fmt.Errorf("enqueue order event %s: %w", msg.ID, err)
	}
	return msg, nil
}

// PullPending возвращает pending-события в порядке постановки; limit ограничен сверху.
func (r *outboxRepository) PullPending(limit int) ([]domain.OutboxMessage, error) {
	ctx, cancel := withTimeout(context.Background())
	defer cancel()

	switch {
	case limit <= 0:
		limit = defaultPullLimit
	case limit > maxPullLimit:
		limit = maxPullLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+outboxColumns+` FROM `+outboxEventsTable+`
		WHERE status = $1
		ORDER BY created_at, id
		LIMIT $2`,
		outboxPending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("pull pending order events: %w", err)
	}
	defer rows.Close()

	var events []domain.OutboxMessage
	for rows.Next() {
		var msg domain.OutboxMessage
		if err := rows.Scan(&msg.ID, &msg.AggregateType, &msg.AggregateID, &msg.TrackingCode, &msg.EventType, &msg.Payload); err != nil {
			return nil, fmt.Errorf("scan order event: %w", err)
		}
		events = append(events, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order events: %w", err)
	}
	return events, nil
}

func (r *outboxRepository) Stats() (domain.OutboxStats, error) {
	ctx, cancel := withTimeout(context.Background())
	defer cancel()

	var (
		stats  domain.OutboxStats
		oldest sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MIN(created_at) FROM `+outboxEventsTable+` WHERE status = $1`,
		outboxPending,
	).Scan(&stats.PendingCount, &oldest)
	if err != nil {
		return domain.OutboxStats{}, fmt.Errorf("order events backlog: %w", err)
	}
	if oldest.Valid {
		stats.OldestPendingAt = oldest.Time.UTC()
	}
	return stats, nil
}

// MarkSent фиксирует публикацию и время published_at.
func (r *outboxRepository) MarkSent(id string) error {
	return r.finish(id, outboxSent, `published_at = NOW()`)
}

// MarkFailed переводит событие в failed; повторно оно не выбирается.
func (r *outboxRepository) MarkFailed(id string) error {
	return r.finish(id, outboxFailed, `published_at = NULL`)
}

// finish завершает pending-событие. Неизвестный id или уже завершённое событие дают ErrOutboxPublish.
func (r *outboxRepository) finish(id, status, extra string) error {
	ctx, cancel := withTimeout(context.Background())
	defer cancel()

	res, err := r.db.ExecContext(ctx,
		`UPDATE `+outboxEventsTable+`
		SET status = $2, attempt_count = attempt_count + 1, updated_at = NOW(), `+extra+`
		WHERE id = $1 AND status = $3`,
		id, status, outboxPending,
	)
	if err != nil {
		return fmt.Errorf("mark order event %s as %s: %w", id, status, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark order event %s as %s: %w", id, status, err)
	}
	if affected == 0 {
		return domain.ErrOutboxPublish
	}
	return nil
}

var _ domain.OutboxRepository = (*outboxRepository)(nil)
