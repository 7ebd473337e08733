// Package ports - EventPublisher для публикации domain events.
//
// Pattern: Transactional Outbox
//   - Use case пишет событие в outbox в той же транзакции, что и изменение баланса
//   - Relay читает outbox и публикует в брокер (NATS)
package ports

import (
	"context"

	"github.com/Haleralex/walletledger/internal/domain/events"
)

// EventPublisher определяет контракт для публикации domain events.
//
// В приложении реализуется OutboxRepository: Publish внутри UnitOfWork
// означает "записать в outbox", а не "отправить в сеть".
type EventPublisher interface {
	// Publish публикует одно событие.
	// At-least-once delivery: consumers должны быть идемпотентными.
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch публикует несколько событий за один вызов.
	// Если одно событие не удалось сохранить, вся batch проваливается.
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// OutboxMessage - запись outbox, готовая к отправке в брокер.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	Attempts      int
}

// OutboxRepository - хранилище Transactional Outbox.
type OutboxRepository interface {
	EventPublisher

	// Save сохраняет событие в outbox таблицу.
	// Должно выполняться в той же транзакции, что и бизнес-операция!
	Save(ctx context.Context, event events.DomainEvent) error

	// FindUnpublished возвращает неопубликованные записи (FOR UPDATE SKIP LOCKED).
	// Вызывать внутри UnitOfWork, чтобы несколько relay не взяли одну запись.
	FindUnpublished(ctx context.Context, limit int) ([]OutboxMessage, error)

	// MarkPublished помечает событие как опубликованное.
	MarkPublished(ctx context.Context, eventID string) error

	// MarkFailed увеличивает счётчик попыток; после maxAttempts запись
	// переводится в FAILED и больше не выбирается.
	MarkFailed(ctx context.Context, eventID string, reason string, maxAttempts int) error

	// CleanupPublished удаляет опубликованные записи старше retentionDays.
	CleanupPublished(ctx context.Context, retentionDays int) (int64, error)
}

// MessageBroker - транспорт, в который relay отправляет события из outbox.
type MessageBroker interface {
	// Publish отправляет payload в subject. Возвращает ошибку, если брокер
	// не подтвердил приём.
	Publish(ctx context.Context, subject string, payload []byte, headers map[string]string) error
}
