package savings

import (
	"context"
	"fmt"

	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/events"
	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
)

// ReschedulePlanUseCase меняет цель и расписание активного плана.
// Сумма списания пересчитывается; если уже накоплено не меньше новой цели,
// план сразу завершается.
type ReschedulePlanUseCase struct {
	planRepo         ports.SavingsPlanRepository
	notificationRepo ports.NotificationRepository
	eventPublisher   ports.EventPublisher
	uow              ports.UnitOfWork
}

// NewReschedulePlanUseCase создаёт новый use case.
func NewReschedulePlanUseCase(
	planRepo ports.SavingsPlanRepository,
	notificationRepo ports.NotificationRepository,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
) *ReschedulePlanUseCase {
	return &ReschedulePlanUseCase{
		planRepo:         planRepo,
		notificationRepo: notificationRepo,
		eventPublisher:   eventPublisher,
		uow:              uow,
	}
}

// Execute выполняет перепланирование.
func (uc *ReschedulePlanUseCase) Execute(ctx context.Context, cmd dtos.ReschedulePlanCommand) (*dtos.SavingsPlanDTO, error) {
	planID, err := dtos.ParseID("plan_id", cmd.PlanID)
	if err != nil {
		return nil, err
	}
	sched, err := buildSchedule(cmd.Frequency, cmd.StartDate, cmd.EndDate)
	if err != nil {
		return nil, err
	}

	var result *dtos.SavingsPlanDTO

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		plan, err := loadPlan(txCtx, uc.planRepo, planID, true)
		if err != nil {
			return err
		}
		target, err := dtos.ParseMoney("target_amount", cmd.TargetAmount, plan.Currency())
		if err != nil {
			return err
		}

		completed, err := plan.Reschedule(target, sched)
		if err != nil {
			return err
		}
		if err := uc.planRepo.Save(txCtx, plan); err != nil {
			return fmt.Errorf("failed to save savings plan: %w", err)
		}

		if completed {
			event := events.NewSavingsPlanEvent(events.EventTypeSavingsPlanCompleted, plan.ID(), plan.UserID(),
				valueobjects.Money{}, plan.AmountSaved(), plan.Target(), nil, "target lowered")
			if err := uc.eventPublisher.Publish(txCtx, event); err != nil {
				return fmt.Errorf("failed to publish event: %w", err)
			}
			if err := notifyCompleted(txCtx, uc.notificationRepo, plan); err != nil {
				return err
			}
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

// CancelSavingsPlanUseCase отменяет активный план. Накопленное не возвращается.
type CancelSavingsPlanUseCase struct {
	planRepo       ports.SavingsPlanRepository
	eventPublisher ports.EventPublisher
	uow            ports.UnitOfWork
}

// NewCancelSavingsPlanUseCase создаёт новый use case.
func NewCancelSavingsPlanUseCase(
	planRepo ports.SavingsPlanRepository,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
) *CancelSavingsPlanUseCase {
	return &CancelSavingsPlanUseCase{
		planRepo:       planRepo,
		eventPublisher: eventPublisher,
		uow:            uow,
	}
}

// Execute выполняет отмену.
func (uc *CancelSavingsPlanUseCase) Execute(ctx context.Context, cmd dtos.CancelSavingsPlanCommand) (*dtos.SavingsPlanDTO, error) {
	planID, err := dtos.ParseID("plan_id", cmd.PlanID)
	if err != nil {
		return nil, err
	}

	var result *dtos.SavingsPlanDTO

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		plan, err := loadPlan(txCtx, uc.planRepo, planID, true)
		if err != nil {
			return err
		}
		if err := plan.Cancel(); err != nil {
			return err
		}
		if err := uc.planRepo.Save(txCtx, plan); err != nil {
			return fmt.Errorf("failed to save savings plan: %w", err)
		}

		event := events.NewSavingsPlanEvent(events.EventTypeSavingsPlanCancelled, plan.ID(), plan.UserID(),
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
