// Package user содержит use cases для работы с пользователями.
//
// Pattern: Use Case (Interactor)
//   - Оркестрирует domain entities
//   - Управляет транзакциями
//   - Публикует события
package user

import (
	"context"
	"fmt"

	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/application/usecases/wallet"
	"github.com/Haleralex/walletledger/internal/domain/entities"
	"github.com/Haleralex/walletledger/internal/domain/errors"
	"github.com/Haleralex/walletledger/internal/domain/events"
	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
)

// CreateUserUseCase - use case для регистрации пользователя.
//
// Сценарий:
//  1. Проверить уникальность email
//  2. Создать и сохранить User
//  3. Открыть кошелёк пользователя (валюта из команды или по умолчанию)
//  4. Опубликовать UserCreated и WalletCreated
//
// Транзакция: пользователь без кошелька не сохраняется никогда.
type CreateUserUseCase struct {
	userRepo        ports.UserRepository
	walletRepo      ports.WalletRepository
	eventPublisher  ports.EventPublisher
	uow             ports.UnitOfWork
	defaultCurrency valueobjects.Currency
}

// NewCreateUserUseCase создаёт новый use case.
func NewCreateUserUseCase(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
	defaultCurrency valueobjects.Currency,
) *CreateUserUseCase {
	return &CreateUserUseCase{
		userRepo:        userRepo,
		walletRepo:      walletRepo,
		eventPublisher:  eventPublisher,
		uow:             uow,
		defaultCurrency: defaultCurrency,
	}
}

// Execute выполняет use case.
//
// Errors:
//   - ErrUserAlreadyExists: email уже используется
//   - ValidationError: невалидные данные
func (uc *CreateUserUseCase) Execute(ctx context.Context, cmd dtos.CreateUserCommand) (*dtos.UserCreatedDTO, error) {
	currency, err := dtos.ParseCurrency(cmd.CurrencyCode, uc.defaultCurrency)
	if err != nil {
		return nil, err
	}

	var result *dtos.UserCreatedDTO

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		// 1. Email должен быть уникальным
		exists, err := uc.userRepo.ExistsByEmail(txCtx, cmd.Email)
		if err != nil {
			return fmt.Errorf("failed to check email uniqueness: %w", err)
		}
		if exists {
			return fmt.Errorf("%w: %s", errors.ErrUserAlreadyExists, cmd.Email)
		}

		// 2. Пользователь (валидация внутри entity)
		user, err := entities.NewUser(cmd.Email, cmd.FullName)
		if err != nil {
			return err
		}
		if err := uc.userRepo.Save(txCtx, user); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
		if err := uc.eventPublisher.Publish(txCtx, events.NewUserCreated(user.ID(), user.Email(), user.FullName())); err != nil {
			return fmt.Errorf("failed to publish UserCreated event: %w", err)
		}

		// 3. Кошелёк
		w, err := wallet.CreateFor(txCtx, uc.walletRepo, uc.eventPublisher, user.ID(), currency)
		if err != nil {
			return err
		}

		result = &dtos.UserCreatedDTO{
			User:   dtos.ToUserDTO(user),
			Wallet: dtos.ToWalletDTO(w),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
