// Package postgres - OutboxRepository для Transactional Outbox Pattern.
//
// Transactional Outbox Pattern:
//  1. В той же транзакции, что и изменение баланса, событие пишется в outbox
//  2. Relay (messaging.OutboxRelay) читает записи и публикует в NATS
//  3. После подтверждения брокера запись помечается PUBLISHED
//
// Доставка at-least-once: consumers должны быть идемпотентными по event id.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/events"
)

// Compile-time check
var _ ports.OutboxRepository = (*OutboxRepository)(nil)
var _ ports.EventPublisher = (*OutboxRepository)(nil) // OutboxRepository также является EventPublisher

// Статусы записей outbox
const (
	outboxPending   = "PENDING"
	outboxPublished = "PUBLISHED"
	outboxFailed    = "FAILED"
)

// OutboxRepository реализует ports.OutboxRepository.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

// NewOutboxRepository создаёт новый OutboxRepository.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

// Save сохраняет событие в outbox таблицу.
// Должно выполняться в той же транзакции, что и бизнес-операция!
func (r *OutboxRepository) Save(ctx context.Context, event events.DomainEvent) error {
	q := getQuerier(ctx, r.pool)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = q.Exec(ctx, query,
		event.EventID(),
		aggregateType(event.EventType()),
		event.AggregateID(),
		event.EventType(),
		payload,
		outboxPending,
		event.OccurredAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to save event to outbox: %w", err)
	}

	return nil
}

// Publish реализует EventPublisher: в Outbox pattern это запись в БД.
func (r *OutboxRepository) Publish(ctx context.Context, event events.DomainEvent) error {
	return r.Save(ctx, event)
}

// PublishBatch сохраняет несколько событий; ошибка любого проваливает всю batch.
func (r *OutboxRepository) PublishBatch(ctx context.Context, eventsList []events.DomainEvent) error {
	for _, event := range eventsList {
		if err := r.Save(ctx, event); err != nil {
			return fmt.Errorf("failed to publish event %s: %w", event.EventType(), err)
		}
	}
	return nil
}

// FindUnpublished возвращает PENDING записи в порядке создания.
// FOR UPDATE SKIP LOCKED: параллельные relay не берут одни и те же строки.
func (r *OutboxRepository) FindUnpublished(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	q := getQuerier(ctx, r.pool)

	query := `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, attempts
		FROM outbox
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`

	rows, err := q.Query(ctx, query, outboxPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find unpublished events: %w", err)
	}
	defer rows.Close()

	messages := make([]ports.OutboxMessage, 0)
	for rows.Next() {
		var (
			id, aggregateID uuid.UUID
			msg             ports.OutboxMessage
		)
		if err := rows.Scan(&id, &msg.AggregateType, &aggregateID, &msg.EventType, &msg.Payload, &msg.Attempts); err != nil {
			return nil, fmt.Errorf("failed to scan outbox row: %w", err)
		}
		msg.ID = id.String()
		msg.AggregateID = aggregateID.String()
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox rows: %w", err)
	}

	return messages, nil
}

// MarkPublished помечает событие как опубликованное.
func (r *OutboxRepository) MarkPublished(ctx context.Context, eventID string) error {
	q := getQuerier(ctx, r.pool)

	eventUUID, err := uuid.Parse(eventID)
	if err != nil {
		return fmt.Errorf("invalid event ID: %w", err)
	}

	query := `
		UPDATE outbox
		SET status = $2, published_at = $3
		WHERE id = $1 AND status = $4
	`

	result, err := q.Exec(ctx, query, eventUUID, outboxPublished, time.Now().UTC(), outboxPending)
	if err != nil {
		return fmt.Errorf("failed to mark event as published: %w", err)
	}

	if result.RowsAffected() == 0 {
		return errors.New("event not found or already published")
	}

	return nil
}

// MarkFailed увеличивает attempts. Запись остаётся PENDING, пока attempts
// меньше maxAttempts, затем переходит в FAILED.
func (r *OutboxRepository) MarkFailed(ctx context.Context, eventID string, reason string, maxAttempts int) error {
	q := getQuerier(ctx, r.pool)

	eventUUID, err := uuid.Parse(eventID)
	if err != nil {
		return fmt.Errorf("invalid event ID: %w", err)
	}

	query := `
		UPDATE outbox
		SET attempts = attempts + 1,
			last_error = $2,
			status = CASE WHEN attempts + 1 >= $3 THEN $4 ELSE status END,
			failed_at = CASE WHEN attempts + 1 >= $3 THEN $5 ELSE failed_at END
		WHERE id = $1
	`

	_, err = q.Exec(ctx, query, eventUUID, reason, maxAttempts, outboxFailed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark event as failed: %w", err)
	}

	return nil
}

// CleanupPublished удаляет опубликованные записи старше retentionDays.
func (r *OutboxRepository) CleanupPublished(ctx context.Context, retentionDays int) (int64, error) {
	q := getQuerier(ctx, r.pool)

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	result, err := q.Exec(ctx, `DELETE FROM outbox WHERE status = $1 AND published_at < $2`, outboxPublished, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup published events: %w", err)
	}

	return result.RowsAffected(), nil
}

// aggregateType - префикс типа события до точки: "wallet.credited" -> "wallet".
func aggregateType(eventType string) string {
	prefix, _, found := strings.Cut(eventType, ".")
	if !found || prefix == "" {
		return "unknown"
	}
	return prefix
}
