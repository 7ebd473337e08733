// Package postgres - GatewayCallbackRepository implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/entities"
	domainErrors "github.com/Haleralex/walletledger/internal/domain/errors"
)

// Compile-time check
var _ ports.GatewayCallbackRepository = (*GatewayCallbackRepository)(nil)

// GatewayCallbackRepository хранит webhook'и платёжного шлюза.
// Payload лежит в JSONB как прислал провайдер.
type GatewayCallbackRepository struct {
	pool *pgxpool.Pool
}

// NewGatewayCallbackRepository создаёт новый GatewayCallbackRepository.
func NewGatewayCallbackRepository(pool *pgxpool.Pool) *GatewayCallbackRepository {
	return &GatewayCallbackRepository{pool: pool}
}

// Save вставляет callback. Повтор (provider, event_id) - ErrEntityAlreadyExists.
func (r *GatewayCallbackRepository) Save(ctx context.Context, cb *entities.GatewayCallback) error {
	q := getQuerier(ctx, r.pool)

	query := `
		INSERT INTO gateway_callbacks (id, provider, event_id, reference, event, successful, payload, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	payload := []byte(cb.Payload())
	if len(payload) == 0 {
		payload = []byte(`{}`)
	}

	_, err := q.Exec(ctx, query,
		cb.ID(), cb.Provider(), cb.EventID(), cb.Reference(), cb.Event(), cb.IsSuccessful(), payload, cb.ReceivedAt(),
	)
	if err != nil {
		if isUniqueViolation(err, "gateway_callbacks_provider_event_unique") {
			return fmt.Errorf("gateway callback %s/%s: %w", cb.Provider(), cb.EventID(), domainErrors.ErrEntityAlreadyExists)
		}
		return fmt.Errorf("failed to save gateway callback: %w", err)
	}

	return nil
}

// FindByProviderEvent находит callback по идентификатору события провайдера.
func (r *GatewayCallbackRepository) FindByProviderEvent(ctx context.Context, provider, eventID string) (*entities.GatewayCallback, error) {
	q := getQuerier(ctx, r.pool)

	query := `
		SELECT id, provider, event_id, reference, event, successful, payload, received_at
		FROM gateway_callbacks
		WHERE provider = $1 AND event_id = $2
	`

	var (
		id                           uuid.UUID
		prov, evID, reference, event string
		successful                   bool
		payload                      []byte
		receivedAt                   time.Time
	)

	err := q.QueryRow(ctx, query, provider, eventID).Scan(&id, &prov, &evID, &reference, &event, &successful, &payload, &receivedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("gateway callback %s/%s: %w", provider, eventID, domainErrors.ErrEntityNotFound)
		}
		return nil, fmt.Errorf("failed to find gateway callback: %w", err)
	}

	return entities.ReconstructGatewayCallback(id, prov, evID, reference, event, successful, payload, receivedAt), nil
}
