package savings

import (
	"context"
	"fmt"

	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/entities"
	"github.com/Haleralex/walletledger/internal/domain/errors"
	"github.com/Haleralex/walletledger/internal/domain/events"
	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
)

// CreateSavingsPlanUseCase - use case для создания плана накоплений.
//
// Сценарий:
//  1. Найти кошелёк пользователя (план всегда в его валюте)
//  2. Построить расписание и вычислить сумму списания за период
//  3. Сохранить план, опубликовать SavingsPlanCreated
type CreateSavingsPlanUseCase struct {
	walletRepo     ports.WalletRepository
	planRepo       ports.SavingsPlanRepository
	eventPublisher ports.EventPublisher
	uow            ports.UnitOfWork
}

// NewCreateSavingsPlanUseCase создаёт новый use case.
func NewCreateSavingsPlanUseCase(
	walletRepo ports.WalletRepository,
	planRepo ports.SavingsPlanRepository,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
) *CreateSavingsPlanUseCase {
	return &CreateSavingsPlanUseCase{
		walletRepo:     walletRepo,
		planRepo:       planRepo,
		eventPublisher: eventPublisher,
		uow:            uow,
	}
}

// Execute выполняет создание плана.
func (uc *CreateSavingsPlanUseCase) Execute(ctx context.Context, cmd dtos.CreateSavingsPlanCommand) (*dtos.SavingsPlanDTO, error) {
	userID, err := dtos.ParseID("user_id", cmd.UserID)
	if err != nil {
		return nil, err
	}
	sched, err := buildSchedule(cmd.Frequency, cmd.StartDate, cmd.EndDate)
	if err != nil {
		return nil, err
	}

	var result *dtos.SavingsPlanDTO

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		// 1. Кошелёк
		wallet, err := uc.walletRepo.FindByUserID(txCtx, userID)
		if err != nil {
			if errors.IsNotFound(err) {
				return errors.ErrWalletNotFound
			}
			return fmt.Errorf("failed to load wallet: %w", err)
		}
		if err := wallet.CheckUsable(wallet.Currency()); err != nil {
			return err
		}

		// 2. План
		target, err := dtos.ParseMoney("target_amount", cmd.TargetAmount, wallet.Currency())
		if err != nil {
			return err
		}
		plan, err := entities.NewSavingsPlan(userID, wallet.ID(), cmd.Name, target, sched)
		if err != nil {
			return err
		}

		// 3. Сохранение
		if err := uc.planRepo.Save(txCtx, plan); err != nil {
			return fmt.Errorf("failed to save savings plan: %w", err)
		}
		event := events.NewSavingsPlanEvent(events.EventTypeSavingsPlanCreated, plan.ID(), userID,
			valueobjects.Money{}, plan.AmountSaved(), plan.Target(), nil, "")
		if err := uc.eventPublisher.Publish(txCtx, event); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}

		dto := dtos.ToSavingsPlanDTO(plan)
		result = &dto
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
