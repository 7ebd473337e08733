package transaction

import (
	"context"
	"fmt"

	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/application/ledger"
	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/entities"
	"github.com/Haleralex/walletledger/internal/domain/errors"
	"github.com/Haleralex/walletledger/internal/domain/events"
)

// UpdateTransactionStatusUseCase - use case для смены статуса транзакции.
//
// Сценарий:
//  1. Заблокировать транзакцию (SELECT ... FOR UPDATE)
//  2. Перевести в новый статус (повтор того же статуса - no-op)
//  3. pending -> successful: применить эффект к балансу
//  4. Сохранить, записать события
//
// Нехватка средств при pending -> successful откатывает всё:
// транзакция остаётся pending, статус failed не выставляется.
type UpdateTransactionStatusUseCase struct {
	transactionRepo  ports.TransactionRepository
	notificationRepo ports.NotificationRepository
	mutator          *ledger.BalanceMutator
	eventPublisher   ports.EventPublisher
	uow              ports.UnitOfWork
}

// NewUpdateTransactionStatusUseCase создаёт новый use case.
func NewUpdateTransactionStatusUseCase(
	transactionRepo ports.TransactionRepository,
	notificationRepo ports.NotificationRepository,
	mutator *ledger.BalanceMutator,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
) *UpdateTransactionStatusUseCase {
	return &UpdateTransactionStatusUseCase{
		transactionRepo:  transactionRepo,
		notificationRepo: notificationRepo,
		mutator:          mutator,
		eventPublisher:   eventPublisher,
		uow:              uow,
	}
}

// Execute выполняет смену статуса.
func (uc *UpdateTransactionStatusUseCase) Execute(ctx context.Context, cmd dtos.UpdateTransactionStatusCommand) (*dtos.TransactionDTO, error) {
	txID, err := dtos.ParseID("transaction_id", cmd.TransactionID)
	if err != nil {
		return nil, err
	}
	status, err := entities.ParseTransactionStatus(cmd.Status)
	if err != nil {
		return nil, errors.ValidationError{Field: "status", Message: fmt.Sprintf("unsupported status: %s", cmd.Status)}
	}

	var result *dtos.TransactionDTO

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		tx, err := uc.transactionRepo.FindByIDForUpdate(txCtx, txID)
		if err != nil {
			if errors.IsNotFound(err) {
				return errors.ErrTransactionNotFound
			}
			return fmt.Errorf("failed to load transaction: %w", err)
		}

		if err := applyStatus(tx, status, cmd.Reason); err != nil {
			return err
		}

		if err := settle(txCtx, tx, settleDeps{
			transactions:  uc.transactionRepo,
			notifications: uc.notificationRepo,
			mutator:       uc.mutator,
			publisher:     uc.eventPublisher,
		}); err != nil {
			return err
		}

		result = dtos.MapTransactionToDTO(tx)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func applyStatus(tx *entities.Transaction, status entities.TransactionStatus, reason string) error {
	switch status {
	case entities.TransactionStatusFailed:
		if tx.Status() == entities.TransactionStatusFailed {
			return nil
		}
		return tx.MarkFailed(reason)
	default:
		return tx.TransitionTo(status)
	}
}

// settleDeps - зависимости общего шага сохранения транзакции.
type settleDeps struct {
	transactions  ports.TransactionRepository
	notifications ports.NotificationRepository
	mutator       *ledger.BalanceMutator
	publisher     ports.EventPublisher
}

// settle применяет эффект к балансу, сохраняет транзакцию и пишет события
// о смене статуса. Вызывается внутри UnitOfWork.
func settle(ctx context.Context, tx *entities.Transaction, deps settleDeps) error {
	changed := tx.Status() != tx.PersistedStatus()

	if _, err := deps.mutator.Apply(ctx, tx); err != nil {
		return err
	}
	if err := deps.transactions.Save(ctx, tx); err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	if !changed {
		return nil
	}

	var eventType string
	switch tx.Status() {
	case entities.TransactionStatusSuccessful:
		eventType = events.EventTypeTransactionSucceeded
	case entities.TransactionStatusFailed:
		eventType = events.EventTypeTransactionFailed
		if err := notifyFailed(ctx, deps.notifications, tx); err != nil {
			return err
		}
	case entities.TransactionStatusCancelled:
		eventType = events.EventTypeTransactionCancelled
	default:
		return nil
	}

	if err := deps.publisher.Publish(ctx, transactionEvent(eventType, tx)); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func notifyFailed(ctx context.Context, repo ports.NotificationRepository, tx *entities.Transaction) error {
	message := fmt.Sprintf("Your %s of %s (ref %s) failed.", tx.Type(), tx.Amount(), tx.Reference())
	if reason := tx.FailureReason(); reason != "" {
		message = fmt.Sprintf("%s Reason: %s", message, reason)
	}

	n, err := entities.NewNotification(tx.UserID(), entities.NotificationTransactionFailed, "Transaction failed", message)
	if err != nil {
		return err
	}
	if err := repo.Save(ctx, n); err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}
