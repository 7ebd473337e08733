package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Haleralex/walletledger/internal/application/ports"
)

// Значения по умолчанию для relay
const (
	DefaultSubjectPrefix = "walletledger"
	DefaultBatchSize     = 100
	DefaultMaxAttempts   = 10
)

// Заголовки сообщений в брокере
const (
	HeaderMessageID   = "Nats-Msg-Id" // JetStream дедуплицирует по нему
	HeaderEventType   = "Event-Type"
	HeaderAggregateID = "Aggregate-Id"
)

var relayedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "walletledger",
		Subsystem: "outbox",
		Name:      "relayed_total",
		Help:      "Outbox messages handed to the broker, by result",
	},
	[]string{"result"}, // published, failed
)

// RelayReport - итог одного прогона relay.
type RelayReport struct {
	Fetched   int `json:"fetched"`
	Published int `json:"published"`
	Failed    int `json:"failed"`
}

// RelayConfig - параметры OutboxRelay.
type RelayConfig struct {
	SubjectPrefix string
	BatchSize     int
	MaxAttempts   int
}

// OutboxRelay переносит PENDING записи outbox в брокер.
//
// Одна пачка = одна транзакция: FindUnpublished берёт строки под
// FOR UPDATE SKIP LOCKED, поэтому параллельные relay не дублируют отправку.
// Доставка at-least-once: сбой после Publish, но до COMMIT, приведёт к
// повторной отправке с тем же Nats-Msg-Id.
type OutboxRelay struct {
	outbox ports.OutboxRepository
	uow    ports.UnitOfWork
	broker ports.MessageBroker
	cfg    RelayConfig
	logger *slog.Logger
}

// NewOutboxRelay создаёт relay.
func NewOutboxRelay(
	outbox ports.OutboxRepository,
	uow ports.UnitOfWork,
	broker ports.MessageBroker,
	cfg RelayConfig,
	logger *slog.Logger,
) *OutboxRelay {
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = DefaultSubjectPrefix
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OutboxRelay{
		outbox: outbox,
		uow:    uow,
		broker: broker,
		cfg:    cfg,
		logger: logger,
	}
}

// Subject возвращает subject для типа события: walletledger.wallet.credited.
func (r *OutboxRelay) Subject(eventType string) string {
	return r.cfg.SubjectPrefix + "." + eventType
}

// RelayOnce отправляет одну пачку.
// Ошибка брокера по отдельному сообщению не прерывает пачку: запись
// получает MarkFailed и будет повторена. Ошибка БД откатывает всю пачку.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (RelayReport, error) {
	var report RelayReport

	err := r.uow.Execute(ctx, func(txCtx context.Context) error {
		messages, err := r.outbox.FindUnpublished(txCtx, r.cfg.BatchSize)
		if err != nil {
			return err
		}
		report.Fetched = len(messages)

		for _, msg := range messages {
			headers := map[string]string{
				HeaderMessageID:   msg.ID,
				HeaderEventType:   msg.EventType,
				HeaderAggregateID: msg.AggregateID,
			}

			if pubErr := r.broker.Publish(txCtx, r.Subject(msg.EventType), msg.Payload, headers); pubErr != nil {
				r.logger.WarnContext(ctx, "outbox publish failed",
					slog.String("event_id", msg.ID),
					slog.String("event_type", msg.EventType),
					slog.Int("attempt", msg.Attempts+1),
					slog.String("error", pubErr.Error()),
				)
				if err := r.outbox.MarkFailed(txCtx, msg.ID, pubErr.Error(), r.cfg.MaxAttempts); err != nil {
					return fmt.Errorf("failed to mark outbox message %s failed: %w", msg.ID, err)
				}
				relayedTotal.WithLabelValues("failed").Inc()
				report.Failed++
				continue
			}

			if err := r.outbox.MarkPublished(txCtx, msg.ID); err != nil {
				return fmt.Errorf("failed to mark outbox message %s published: %w", msg.ID, err)
			}
			relayedTotal.WithLabelValues("published").Inc()
			report.Published++
		}

		return nil
	})
	if err != nil {
		return RelayReport{}, err
	}

	if report.Fetched > 0 {
		r.logger.InfoContext(ctx, "outbox batch relayed",
			slog.Int("fetched", report.Fetched),
			slog.Int("published", report.Published),
			slog.Int("failed", report.Failed),
		)
	}

	return report, nil
}
