package transaction

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"

	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/entities"
	"github.com/Haleralex/walletledger/internal/domain/errors"
	"github.com/Haleralex/walletledger/internal/domain/events"
	"github.com/google/uuid"
)

// InitiateDepositUseCase - пополнение кошелька через платёжный шлюз.
//
// Сценарий:
//  1. Создать pending deposit (идемпотентно по reference)
//  2. Вызвать шлюз вне БД-транзакции
//  3. Записать ответ шлюза в metadata транзакции
//
// Баланс здесь не меняется никогда: зачисление происходит только
// по успешному callback'у шлюза. Ошибка шлюза сохраняется как есть,
// транзакция остаётся pending, AuthorizationURL в ответе пуст.
type InitiateDepositUseCase struct {
	userRepo        ports.UserRepository
	walletRepo      ports.WalletRepository
	transactionRepo ports.TransactionRepository
	gateway         ports.PaymentGateway
	eventPublisher  ports.EventPublisher
	uow             ports.UnitOfWork
}

// NewInitiateDepositUseCase создаёт новый use case.
func NewInitiateDepositUseCase(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	transactionRepo ports.TransactionRepository,
	gateway ports.PaymentGateway,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
) *InitiateDepositUseCase {
	return &InitiateDepositUseCase{
		userRepo:        userRepo,
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		gateway:         gateway,
		eventPublisher:  eventPublisher,
		uow:             uow,
	}
}

// Execute выполняет инициализацию пополнения.
func (uc *InitiateDepositUseCase) Execute(ctx context.Context, cmd dtos.InitiateDepositCommand) (*dtos.DepositInitiatedDTO, error) {
	userID, err := dtos.ParseID("user_id", cmd.UserID)
	if err != nil {
		return nil, err
	}

	reference := cmd.Reference
	if reference == "" {
		reference = "dep_" + uuid.NewString()
	}

	user, err := uc.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	// 1. Pending deposit
	var (
		tx      *entities.Transaction
		created bool
	)
	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		existing, err := uc.transactionRepo.FindByReference(txCtx, reference)
		if err != nil && !errors.IsNotFound(err) {
			return fmt.Errorf("failed to check reference: %w", err)
		}
		if existing != nil {
			tx = existing
			return nil
		}

		wallet, err := uc.walletRepo.FindByUserID(txCtx, userID)
		if err != nil {
			if errors.IsNotFound(err) {
				return errors.ErrWalletNotFound
			}
			return fmt.Errorf("failed to load wallet: %w", err)
		}
		currency, err := dtos.ParseCurrency(cmd.CurrencyCode, wallet.Currency())
		if err != nil {
			return err
		}
		if err := wallet.CheckUsable(currency); err != nil {
			return err
		}
		amount, err := dtos.ParseMoney("amount", cmd.Amount, currency)
		if err != nil {
			return err
		}

		tx, err = entities.NewTransaction(userID, wallet.ID(), reference, entities.TransactionTypeDeposit, amount)
		if err != nil {
			return err
		}
		if err := uc.transactionRepo.Save(txCtx, tx); err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}
		created = true
		return uc.eventPublisher.Publish(txCtx, transactionEvent(events.EventTypeTransactionCreated, tx))
	})
	if err != nil {
		return nil, err
	}

	// Повтор запроса: шлюз уже вызывался для этой транзакции
	if !created || !tx.IsPending() {
		return &dtos.DepositInitiatedDTO{Transaction: dtos.ToTransactionDTO(tx)}, nil
	}

	// 2. Шлюз
	session, gwErr := uc.gateway.InitializeDeposit(ctx, ports.DepositRequest{
		Reference: tx.Reference(),
		Email:     user.Email(),
		Amount:    tx.Amount(),
		Metadata:  map[string]interface{}{"transaction_id": tx.ID().String()},
	})

	// 3. Ответ шлюза в metadata
	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		locked, err := uc.transactionRepo.FindByIDForUpdate(txCtx, tx.ID())
		if err != nil {
			return fmt.Errorf("failed to reload transaction: %w", err)
		}
		if gwErr != nil {
			locked.RecordGatewayFailure(gatewayErrorPayload(gwErr))
		} else {
			locked.SetMetadata(entities.MetadataGatewayData, rawOrString(session.Raw))
		}
		if err := uc.transactionRepo.Save(txCtx, locked); err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}
		tx = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &dtos.DepositInitiatedDTO{Transaction: dtos.ToTransactionDTO(tx)}
	if gwErr == nil {
		result.AuthorizationURL = session.AuthorizationURL
		result.AccessCode = session.AccessCode
	}
	return result, nil
}

// gatewayErrorPayload возвращает ответ шлюза как есть, а если его нет - текст ошибки.
func gatewayErrorPayload(err error) interface{} {
	var gwErr *ports.GatewayError
	if stdErrors.As(err, &gwErr) && len(gwErr.Payload) > 0 {
		return rawOrString(gwErr.Payload)
	}
	return map[string]interface{}{"error": err.Error()}
}

func rawOrString(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return raw
	}
	return string(raw)
}
