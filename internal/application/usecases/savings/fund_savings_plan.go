package savings

import (
	"context"
	"fmt"

	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/application/ledger"
	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/entities"
	"github.com/Haleralex/walletledger/internal/domain/errors"
	"github.com/Haleralex/walletledger/internal/domain/events"
	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// FundSavingsPlanUseCase - ручное пополнение плана из кошелька.
// Единственный способ пополнить one_time план.
//
// Сценарий:
//  1. Заблокировать план, проверить что он активен
//  2. Сумма - из команды или следующее плановое списание
//  3. Создать successful savings_funding транзакцию и провести её через BalanceMutator
//    (мутатор списывает кошелёк и учитывает пополнение в плане)
//
// Повторный запрос с тем же reference возвращает сохранённый результат.
type FundSavingsPlanUseCase struct {
	planRepo         ports.SavingsPlanRepository
	transactionRepo  ports.TransactionRepository
	notificationRepo ports.NotificationRepository
	mutator          *ledger.BalanceMutator
	eventPublisher   ports.EventPublisher
	uow              ports.UnitOfWork
}

// NewFundSavingsPlanUseCase создаёт новый use case.
func NewFundSavingsPlanUseCase(
	planRepo ports.SavingsPlanRepository,
	transactionRepo ports.TransactionRepository,
	notificationRepo ports.NotificationRepository,
	mutator *ledger.BalanceMutator,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
) *FundSavingsPlanUseCase {
	return &FundSavingsPlanUseCase{
		planRepo:         planRepo,
		transactionRepo:  transactionRepo,
		notificationRepo: notificationRepo,
		mutator:          mutator,
		eventPublisher:   eventPublisher,
		uow:              uow,
	}
}

// Execute выполняет пополнение.
func (uc *FundSavingsPlanUseCase) Execute(ctx context.Context, cmd dtos.FundSavingsPlanCommand) (*dtos.FundingResultDTO, error) {
	planID, err := dtos.ParseID("plan_id", cmd.PlanID)
	if err != nil {
		return nil, err
	}

	reference := cmd.Reference
	if reference == "" {
		reference = "fund_" + uuid.NewString()
	}

	var result *dtos.FundingResultDTO

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		// Идемпотентность
		existing, err := uc.transactionRepo.FindByReference(txCtx, reference)
		if err != nil && !errors.IsNotFound(err) {
			return fmt.Errorf("failed to check reference: %w", err)
		}
		if existing != nil {
			plan, err := loadPlan(txCtx, uc.planRepo, planID, false)
			if err != nil {
				return err
			}
			result = &dtos.FundingResultDTO{Plan: dtos.ToSavingsPlanDTO(plan), Transaction: dtos.ToTransactionDTO(existing)}
			return nil
		}

		// 1. План
		plan, err := loadPlan(txCtx, uc.planRepo, planID, true)
		if err != nil {
			return err
		}
		if !plan.IsActive() {
			return &errors.BusinessRuleViolation{
				Rule:    "SAVINGS_PLAN_NOT_ACTIVE",
				Message: "only active savings plans can be funded",
				Context: map[string]interface{}{"planID": plan.ID().String(), "status": plan.Status()},
				Err:     errors.ErrSavingsPlanNotActive,
			}
		}

		// 2. Сумма
		amount, err := uc.fundingAmount(plan, cmd.Amount)
		if err != nil {
			return err
		}

		// 3. Транзакция через мутатор
		tx, err := entities.NewTransaction(plan.UserID(), plan.WalletID(), reference, entities.TransactionTypeSavingsFunding, amount)
		if err != nil {
			return err
		}
		if err := tx.LinkSavingsPlan(plan.ID()); err != nil {
			return err
		}
		if err := tx.MarkSuccessful(); err != nil {
			return err
		}

		outcome, err := uc.mutator.Apply(txCtx, tx)
		if err != nil {
			return err
		}
		if err := uc.transactionRepo.Save(txCtx, tx); err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}

		txEvents := []events.DomainEvent{
			events.NewTransactionEvent(events.EventTypeTransactionCreated, tx.ID(), tx.UserID(), tx.WalletID(),
				string(tx.Type()), string(tx.Status()), tx.Amount(), tx.Reference(), ""),
			events.NewTransactionEvent(events.EventTypeTransactionSucceeded, tx.ID(), tx.UserID(), tx.WalletID(),
				string(tx.Type()), string(tx.Status()), tx.Amount(), tx.Reference(), ""),
		}
		if err := uc.eventPublisher.PublishBatch(txCtx, txEvents); err != nil {
			return fmt.Errorf("failed to publish events: %w", err)
		}

		funded := outcome.Plan
		if outcome.PlanCompleted {
			if err := notifyCompleted(txCtx, uc.notificationRepo, funded); err != nil {
				return err
			}
		}

		result = &dtos.FundingResultDTO{Plan: dtos.ToSavingsPlanDTO(funded), Transaction: dtos.ToTransactionDTO(tx)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (uc *FundSavingsPlanUseCase) fundingAmount(plan *entities.SavingsPlan, requested string) (valueobjects.Money, error) {
	if requested == "" {
		return plan.NextDeduction()
	}
	amount, err := dtos.ParseMoney("amount", requested, plan.Currency())
	if err != nil {
		return valueobjects.Money{}, err
	}
	if !amount.IsPositive() {
		return valueobjects.Money{}, errors.ValidationError{Field: "amount", Message: "amount must be positive"}
	}
	return amount, nil
}
