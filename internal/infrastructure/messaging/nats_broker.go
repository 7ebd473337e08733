// Package messaging - доставка событий из outbox во внешний брокер.
//
// Компоненты:
//   - NATSBroker: ports.MessageBroker поверх core NATS (publish + flush)
//   - OutboxRelay: переносит PENDING записи outbox в брокер
package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Haleralex/walletledger/internal/application/ports"
)

// Compile-time check
var _ ports.MessageBroker = (*NATSBroker)(nil)

// defaultFlushTimeout используется, если в context нет deadline.
const defaultFlushTimeout = 5 * time.Second

// NATSConfig - параметры подключения к NATS.
type NATSConfig struct {
	URL           string
	ClientName    string
	ConnectWait   time.Duration
	MaxReconnects int
	ReconnectWait time.Duration
}

// NATSBroker публикует сообщения в NATS.
type NATSBroker struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// ConnectNATS подключается к серверу NATS.
func ConnectNATS(cfg NATSConfig, logger *slog.Logger) (*NATSBroker, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []nats.Option{
		nats.Name(cfg.ClientName),
		nats.Timeout(cfg.ConnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", cfg.URL, err)
	}

	logger.Info("connected to nats", slog.String("url", conn.ConnectedUrl()))
	return NewNATSBroker(conn, logger), nil
}

// NewNATSBroker оборачивает готовое соединение.
func NewNATSBroker(conn *nats.Conn, logger *slog.Logger) *NATSBroker {
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSBroker{conn: conn, logger: logger}
}

// Publish отправляет сообщение и ждёт flush: ответ сервера подтверждает,
// что сообщение дошло до брокера.
func (b *NATSBroker) Publish(ctx context.Context, subject string, payload []byte, headers map[string]string) error {
	msg := nats.NewMsg(subject)
	msg.Data = payload
	for k, v := range headers {
		msg.Header.Set(k, v)
	}

	if err := b.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultFlushTimeout)
		defer cancel()
	}

	if err := b.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("nats flush failed for %s: %w", subject, err)
	}

	return nil
}

// HealthCheck проверяет состояние соединения.
func (b *NATSBroker) HealthCheck(_ context.Context) error {
	if status := b.conn.Status(); status != nats.CONNECTED {
		return fmt.Errorf("nats connection is %s", status)
	}
	return nil
}

// Close дожидается отправки буфера и закрывает соединение.
func (b *NATSBroker) Close() {
	if err := b.conn.Drain(); err != nil {
		b.logger.Warn("nats drain failed", slog.String("error", err.Error()))
		b.conn.Close()
	}
}
