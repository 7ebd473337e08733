// Package wallet содержит use cases для работы с кошельками.
package wallet

import (
	"context"
	"fmt"

	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/entities"
	"github.com/Haleralex/walletledger/internal/domain/errors"
	"github.com/Haleralex/walletledger/internal/domain/events"
	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// CreateWalletUseCase - use case для создания кошелька.
//
// Сценарий:
//  1. Загрузить пользователя
//  2. Проверить, что у пользователя ещё нет кошелька
//  3. Создать кошелёк с нулевым балансом
//  4. Сохранить в БД, опубликовать WalletCreated
//
// Бизнес-правила:
//   - У пользователя ровно один кошелёк
type CreateWalletUseCase struct {
	userRepo       ports.UserRepository
	walletRepo     ports.WalletRepository
	eventPublisher ports.EventPublisher
	uow            ports.UnitOfWork
}

// NewCreateWalletUseCase создаёт новый use case.
func NewCreateWalletUseCase(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
) *CreateWalletUseCase {
	return &CreateWalletUseCase{
		userRepo:       userRepo,
		walletRepo:     walletRepo,
		eventPublisher: eventPublisher,
		uow:            uow,
	}
}

// Execute выполняет создание кошелька.
func (uc *CreateWalletUseCase) Execute(ctx context.Context, cmd dtos.CreateWalletCommand) (*dtos.WalletDTO, error) {
	userID, err := dtos.ParseID("user_id", cmd.UserID)
	if err != nil {
		return nil, err
	}
	currency, err := dtos.ParseCurrency(cmd.CurrencyCode, valueobjects.Currency{})
	if err != nil {
		return nil, err
	}
	if currency.IsZero() {
		return nil, errors.ValidationError{Field: "currency_code", Message: "currency is required"}
	}

	var result *dtos.WalletDTO

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		// 1. Пользователь
		if _, err := uc.userRepo.FindByID(txCtx, userID); err != nil {
			if errors.IsNotFound(err) {
				return errors.ErrUserNotFound
			}
			return fmt.Errorf("failed to load user: %w", err)
		}

		wallet, err := CreateFor(txCtx, uc.walletRepo, uc.eventPublisher, userID, currency)
		if err != nil {
			return err
		}

		dto := dtos.ToWalletDTO(wallet)
		result = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// CreateFor создаёт и сохраняет кошелёк пользователя внутри уже открытой транзакции.
// Используется также при регистрации пользователя.
func CreateFor(
	ctx context.Context,
	walletRepo ports.WalletRepository,
	publisher ports.EventPublisher,
	userID uuid.UUID,
	currency valueobjects.Currency,
) (*entities.Wallet, error) {
	exists, err := walletRepo.ExistsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check wallet existence: %w", err)
	}
	if exists {
		return nil, errors.ErrWalletAlreadyExists
	}

	wallet, err := entities.NewWallet(userID, currency)
	if err != nil {
		return nil, err
	}
	if err := walletRepo.Save(ctx, wallet); err != nil {
		return nil, fmt.Errorf("failed to save wallet: %w", err)
	}

	event := events.NewWalletCreated(wallet.ID(), userID, currency)
	if err := publisher.Publish(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to publish WalletCreated event: %w", err)
	}
	return wallet, nil
}
