package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
)

// DepositRequest - запрос на инициализацию пополнения через платёжный шлюз.
type DepositRequest struct {
	Reference string
	Email     string
	Amount    valueobjects.Money
	Metadata  map[string]interface{}
}

// DepositSession - ответ шлюза: куда перенаправить пользователя.
type DepositSession struct {
	AuthorizationURL string
	AccessCode       string
	Raw              json.RawMessage // ответ шлюза как есть
}

// GatewayError - ошибка шлюза с его ответом как есть.
// Use case кладёт Payload в метаданные транзакции без изменений.
type GatewayError struct {
	StatusCode int
	Payload    json.RawMessage
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return "payment gateway error: " + e.Err.Error()
	}
	return "payment gateway error"
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// PaymentGateway - порт к внешнему платёжному провайдеру.
type PaymentGateway interface {
	// InitializeDeposit открывает checkout-сессию у провайдера.
	// Ошибки провайдера возвращаются как *GatewayError.
	InitializeDeposit(ctx context.Context, req DepositRequest) (*DepositSession, error)
}

// DistributedLock - взаимное исключение между репликами (scheduler, relay).
type DistributedLock interface {
	// TryLock пытается взять блокировку на ttl. Возвращает false, если она уже занята.
	// release освобождает блокировку только если она всё ещё наша.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}
