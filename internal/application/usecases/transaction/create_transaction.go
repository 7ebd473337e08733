// Package transaction содержит use cases для работы с транзакциями.
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
	"github.com/google/uuid"
)

// CreateTransactionUseCase - use case для создания транзакции.
//
// Сценарий:
//  1. Проверить reference (идемпотентность)
//  2. Найти кошелёк (указанный или кошелёк пользователя)
//  3. Создать Transaction entity (pending или сразу successful)
//  4. Для successful - применить эффект к балансу через BalanceMutator
//  5. Сохранить транзакцию, записать события в outbox
//
// Бизнес-правила:
//   - Повторный запрос с тем же reference возвращает сохранённую транзакцию без изменений
//   - Нехватка средств - ErrInsufficientFunds, ничего не сохраняется
type CreateTransactionUseCase struct {
	walletRepo      ports.WalletRepository
	transactionRepo ports.TransactionRepository
	mutator         *ledger.BalanceMutator
	eventPublisher  ports.EventPublisher
	uow             ports.UnitOfWork
}

// NewCreateTransactionUseCase создаёт новый use case.
func NewCreateTransactionUseCase(
	walletRepo ports.WalletRepository,
	transactionRepo ports.TransactionRepository,
	mutator *ledger.BalanceMutator,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
) *CreateTransactionUseCase {
	return &CreateTransactionUseCase{
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		mutator:         mutator,
		eventPublisher:  eventPublisher,
		uow:             uow,
	}
}

// Execute выполняет создание транзакции.
func (uc *CreateTransactionUseCase) Execute(ctx context.Context, cmd dtos.CreateTransactionCommand) (*dtos.TransactionDTO, error) {
	userID, err := dtos.ParseID("user_id", cmd.UserID)
	if err != nil {
		return nil, err
	}
	walletID, err := dtos.ParseOptionalID("wallet_id", cmd.WalletID)
	if err != nil {
		return nil, err
	}
	planID, err := dtos.ParseOptionalID("savings_plan_id", cmd.SavingsPlanID)
	if err != nil {
		return nil, err
	}

	txType, err := entities.ParseTransactionType(cmd.Type)
	if err != nil {
		return nil, errors.ValidationError{Field: "type", Message: fmt.Sprintf("unsupported transaction type: %s", cmd.Type)}
	}

	status := entities.TransactionStatusPending
	if cmd.Status != "" {
		status, err = entities.ParseTransactionStatus(cmd.Status)
		if err != nil || status.IsFinal() && status != entities.TransactionStatusSuccessful {
			return nil, errors.ValidationError{Field: "status", Message: "transactions are created as pending or successful"}
		}
	}

	var result *dtos.TransactionDTO

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		// 1. Проверка идемпотентности
		existing, err := uc.transactionRepo.FindByReference(txCtx, cmd.Reference)
		if err != nil && !errors.IsNotFound(err) {
			return fmt.Errorf("failed to check reference: %w", err)
		}
		if existing != nil {
			result = dtos.MapTransactionToDTO(existing)
			return nil
		}

		// 2. Кошелёк
		wallet, err := uc.loadWallet(txCtx, userID, walletID)
		if err != nil {
			return err
		}

		currency, err := dtos.ParseCurrency(cmd.CurrencyCode, wallet.Currency())
		if err != nil {
			return err
		}
		amount, err := dtos.ParseMoney("amount", cmd.Amount, currency)
		if err != nil {
			return err
		}

		// 3. Транзакция
		tx, err := entities.NewTransaction(userID, wallet.ID(), cmd.Reference, txType, amount)
		if err != nil {
			return err
		}
		if planID != nil {
			if err := tx.LinkSavingsPlan(*planID); err != nil {
				return err
			}
		}
		if len(cmd.Metadata) > 0 {
			tx.MergeMetadata(cmd.Metadata)
		}
		if status == entities.TransactionStatusSuccessful {
			if err := tx.MarkSuccessful(); err != nil {
				return err
			}
		}

		// 4. Баланс
		if _, err := uc.mutator.Apply(txCtx, tx); err != nil {
			return err
		}

		// 5. Сохранение и события
		if err := uc.transactionRepo.Save(txCtx, tx); err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}

		eventList := []events.DomainEvent{transactionEvent(events.EventTypeTransactionCreated, tx)}
		if tx.IsSuccessful() {
			eventList = append(eventList, transactionEvent(events.EventTypeTransactionSucceeded, tx))
		}
		if err := uc.eventPublisher.PublishBatch(txCtx, eventList); err != nil {
			return fmt.Errorf("failed to publish events: %w", err)
		}

		result = dtos.MapTransactionToDTO(tx)
		return nil
	})

	// Параллельный запрос с тем же reference успел сохранить транзакцию раньше
	if stdErrors.Is(err, errors.ErrDuplicateReference) {
		existing, findErr := uc.transactionRepo.FindByReference(ctx, cmd.Reference)
		if findErr == nil {
			return dtos.MapTransactionToDTO(existing), nil
		}
	}
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (uc *CreateTransactionUseCase) loadWallet(ctx context.Context, userID uuid.UUID, walletID *uuid.UUID) (*entities.Wallet, error) {
	var (
		wallet *entities.Wallet
		err    error
	)
	if walletID != nil {
		wallet, err = uc.walletRepo.FindByID(ctx, *walletID)
	} else {
		wallet, err = uc.walletRepo.FindByUserID(ctx, userID)
	}
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	if wallet.UserID() != userID {
		return nil, fmt.Errorf("%w: wallet %s does not belong to user %s",
			errors.ErrWalletMisconfigured, wallet.ID(), userID)
	}
	return wallet, nil
}

// transactionEvent строит событие жизненного цикла транзакции.
func transactionEvent(eventType string, tx *entities.Transaction) events.DomainEvent {
	return events.NewTransactionEvent(eventType, tx.ID(), tx.UserID(), tx.WalletID(),
		string(tx.Type()), string(tx.Status()), tx.Amount(), tx.Reference(), tx.FailureReason())
}
