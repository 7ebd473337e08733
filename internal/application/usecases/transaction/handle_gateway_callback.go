package transaction

import (
	"context"
	stdErrors "errors"
	"fmt"

	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/application/ledger"
	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/entities"
	"github.com/Haleralex/walletledger/internal/domain/errors"
	"github.com/Haleralex/walletledger/internal/domain/events"
)

// HandleGatewayCallbackUseCase - обработка webhook'а платёжного шлюза.
//
// Сценарий:
//  1. Повторное событие (provider + event_id уже сохранены) - no-op, Duplicate=true
//  2. Сохранить callback, заблокировать транзакцию по reference, связать их
//  3. Успех: pending -> successful, баланс меняется через BalanceMutator
//  4. Неуспех: payload шлюза сохраняется в metadata как есть, pending -> failed
//
// Транзакция, уже находящаяся в финальном статусе, не меняет статус:
// callback лишь сохраняется и привязывается.
type HandleGatewayCallbackUseCase struct {
	callbackRepo     ports.GatewayCallbackRepository
	transactionRepo  ports.TransactionRepository
	notificationRepo ports.NotificationRepository
	mutator          *ledger.BalanceMutator
	eventPublisher   ports.EventPublisher
	uow              ports.UnitOfWork
}

// NewHandleGatewayCallbackUseCase создаёт новый use case.
func NewHandleGatewayCallbackUseCase(
	callbackRepo ports.GatewayCallbackRepository,
	transactionRepo ports.TransactionRepository,
	notificationRepo ports.NotificationRepository,
	mutator *ledger.BalanceMutator,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
) *HandleGatewayCallbackUseCase {
	return &HandleGatewayCallbackUseCase{
		callbackRepo:     callbackRepo,
		transactionRepo:  transactionRepo,
		notificationRepo: notificationRepo,
		mutator:          mutator,
		eventPublisher:   eventPublisher,
		uow:              uow,
	}
}

// Execute обрабатывает callback.
func (uc *HandleGatewayCallbackUseCase) Execute(ctx context.Context, cmd dtos.GatewayCallbackCommand) (*dtos.GatewayCallbackResultDTO, error) {
	callback, err := entities.NewGatewayCallback(cmd.Provider, cmd.EventID, cmd.Reference, cmd.Event, cmd.Successful, cmd.Payload)
	if err != nil {
		return nil, err
	}

	result := &dtos.GatewayCallbackResultDTO{}

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		// 1. Дедупликация
		if _, err := uc.callbackRepo.FindByProviderEvent(txCtx, cmd.Provider, cmd.EventID); err == nil {
			result.Duplicate = true
			return nil
		} else if !errors.IsNotFound(err) {
			return fmt.Errorf("failed to check callback: %w", err)
		}

		// 2. Транзакция и callback
		tx, err := uc.transactionRepo.FindByReferenceForUpdate(txCtx, cmd.Reference)
		if err != nil {
			if errors.IsNotFound(err) {
				return errors.ErrTransactionNotFound
			}
			return fmt.Errorf("failed to load transaction: %w", err)
		}

		if err := uc.callbackRepo.Save(txCtx, callback); err != nil {
			return err
		}
		tx.LinkGatewayCallback(callback.ID())

		// 3-4. Статус
		if tx.IsPending() {
			if callback.IsSuccessful() {
				err = tx.MarkSuccessful()
			} else {
				tx.RecordGatewayFailure(callback.DecodedPayload())
				err = tx.MarkFailed(fmt.Sprintf("gateway event %s", callback.Event()))
			}
			if err != nil {
				return err
			}
		} else if !callback.IsSuccessful() {
			tx.RecordGatewayFailure(callback.DecodedPayload())
		}

		if err := settle(txCtx, tx, settleDeps{
			transactions:  uc.transactionRepo,
			notifications: uc.notificationRepo,
			mutator:       uc.mutator,
			publisher:     uc.eventPublisher,
		}); err != nil {
			return err
		}

		processed := events.NewGatewayCallbackProcessed(callback.ID(), callback.Provider(), callback.EventID(), tx.ID(), callback.IsSuccessful())
		if err := uc.eventPublisher.Publish(txCtx, processed); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}

		result.Transaction = dtos.MapTransactionToDTO(tx)
		return nil
	})

	// Параллельная доставка того же события успела сохранить callback
	if stdErrors.Is(err, errors.ErrEntityAlreadyExists) {
		return &dtos.GatewayCallbackResultDTO{Duplicate: true}, nil
	}
	if err != nil {
		return nil, err
	}

	return result, nil
}
