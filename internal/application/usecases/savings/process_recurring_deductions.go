package savings

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/application/ledger"
	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/entities"
	"github.com/Haleralex/walletledger/internal/domain/errors"
	"github.com/Haleralex/walletledger/internal/domain/events"
	"github.com/Haleralex/walletledger/internal/domain/schedule"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultBatchSize - размер страницы кандидатов; прогон читает страницы до конца.
const DefaultBatchSize = 500

var (
	deductionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletledger",
			Subsystem: "savings",
			Name:      "deductions_total",
			Help:      "Scheduled savings deductions, by result",
		},
		[]string{"result"}, // succeeded, failed, skipped
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "walletledger",
			Subsystem: "savings",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of one recurring deduction sweep",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

type deductionResult string

const (
	resultSucceeded deductionResult = "succeeded"
	resultFailed    deductionResult = "failed"
	resultSkipped   deductionResult = "skipped"
)

// ProcessRecurringDeductionsUseCase - тело планировщика регулярных списаний.
//
// Для каждого активного recurring плана, у которого наступил срок:
//  1. Отдельный UnitOfWork на план (ошибка одного плана не трогает остальные)
//  2. Successful savings_funding транзакция с reference
//     savings-<plan id>-<yyyymmdd даты периода> (повторный прогон идемпотентен)
//  3. BalanceMutator списывает кошелёк и учитывает пополнение плана
//  4. Маркер последнего списания сдвигается на дату периода
//
// Успех и неуспех записываются уведомлениями, наружу ошибки не выходят.
// Кошелёк не найден / неисправен - лог и пропуск. Маркер сдвигается только
// при успехе, поэтому пропущенный период будет повторён следующим прогоном.
type ProcessRecurringDeductionsUseCase struct {
	planRepo         ports.SavingsPlanRepository
	transactionRepo  ports.TransactionRepository
	notificationRepo ports.NotificationRepository
	mutator          *ledger.BalanceMutator
	eventPublisher   ports.EventPublisher
	uow              ports.UnitOfWork
	logger           *slog.Logger
}

// NewProcessRecurringDeductionsUseCase создаёт новый use case.
func NewProcessRecurringDeductionsUseCase(
	planRepo ports.SavingsPlanRepository,
	transactionRepo ports.TransactionRepository,
	notificationRepo ports.NotificationRepository,
	mutator *ledger.BalanceMutator,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
	logger *slog.Logger,
) *ProcessRecurringDeductionsUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessRecurringDeductionsUseCase{
		planRepo:         planRepo,
		transactionRepo:  transactionRepo,
		notificationRepo: notificationRepo,
		mutator:          mutator,
		eventPublisher:   eventPublisher,
		uow:              uow,
		logger:           logger,
	}
}

// DeductionReference - reference транзакции, закрывающей период occurrence.
func DeductionReference(planID uuid.UUID, occurrence time.Time) string {
	return fmt.Sprintf("savings-%s-%s", planID, schedule.Date(occurrence).Format("20060102"))
}

// Execute выполняет один прогон за дату cmd.AsOf.
// Ошибка возвращается только если не удалось получить список кандидатов.
func (uc *ProcessRecurringDeductionsUseCase) Execute(ctx context.Context, cmd dtos.ProcessRecurringDeductionsCommand) (*dtos.DeductionReportDTO, error) {
	started := time.Now()
	defer func() { sweepDuration.Observe(time.Since(started).Seconds()) }()

	asOf := cmd.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	asOf = schedule.Date(asOf)

	batch := cmd.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	report := &dtos.DeductionReportDTO{AsOf: asOf}

	// Keyset-пагинация: планы, списанные в этом прогоне, страницу не сдвигают
	var after *ports.PlanCursor
	for ctx.Err() == nil {
		candidates, err := uc.planRepo.FindDueCandidates(ctx, asOf, after, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to load due savings plans: %w", err)
		}
		report.Scanned += len(candidates)

		for _, candidate := range candidates {
			if ctx.Err() != nil {
				break
			}
			if _, due := candidate.DueOccurrence(asOf); !due {
				continue
			}
			report.Due++

			switch uc.processPlan(ctx, candidate, asOf) {
			case resultSucceeded:
				report.Succeeded++
			case resultFailed:
				report.Failed++
			case resultSkipped:
				report.Skipped++
			}
		}

		if len(candidates) < batch {
			break
		}
		after = ports.CursorAfter(candidates[len(candidates)-1])
	}

	uc.logger.InfoContext(ctx, "recurring deductions processed",
		slog.String("as_of", asOf.Format(dtos.DateLayout)),
		slog.Int("scanned", report.Scanned),
		slog.Int("due", report.Due),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
		slog.Int("skipped", report.Skipped),
	)

	return report, nil
}

func (uc *ProcessRecurringDeductionsUseCase) processPlan(ctx context.Context, candidate *entities.SavingsPlan, asOf time.Time) deductionResult {
	logger := uc.logger.With(slog.String("plan_id", candidate.ID().String()))

	result, err := uc.deduct(ctx, candidate.ID(), asOf)
	if err == nil {
		deductionsTotal.WithLabelValues(string(result)).Inc()
		return result
	}

	if errors.IsWalletUnusable(err) || stdErrors.Is(err, errors.ErrSavingsPlanNotFound) {
		logger.WarnContext(ctx, "savings deduction skipped", slog.String("error", err.Error()))
		deductionsTotal.WithLabelValues(string(resultSkipped)).Inc()
		return resultSkipped
	}

	logger.InfoContext(ctx, "savings deduction failed", slog.String("error", err.Error()))
	if recErr := uc.recordFailure(ctx, candidate, err); recErr != nil {
		logger.ErrorContext(ctx, "failed to record deduction failure", slog.String("error", recErr.Error()))
	}
	deductionsTotal.WithLabelValues(string(resultFailed)).Inc()
	return resultFailed
}

// deduct выполняет одно списание в собственном UnitOfWork.
func (uc *ProcessRecurringDeductionsUseCase) deduct(ctx context.Context, planID uuid.UUID, asOf time.Time) (deductionResult, error) {
	result := resultSucceeded

	err := uc.uow.Execute(ctx, func(txCtx context.Context) error {
		plan, err := loadPlan(txCtx, uc.planRepo, planID, true)
		if err != nil {
			return err
		}

		// Повторная проверка под блокировкой: другой прогон мог успеть раньше
		occurrence, due := plan.DueOccurrence(asOf)
		if !due {
			result = resultSkipped
			return nil
		}

		reference := DeductionReference(plan.ID(), occurrence)
		if _, err := uc.transactionRepo.FindByReference(txCtx, reference); err == nil {
			result = resultSkipped
			return nil
		} else if !errors.IsNotFound(err) {
			return fmt.Errorf("failed to check reference: %w", err)
		}

		amount, err := plan.NextDeduction()
		if err != nil {
			return err
		}

		tx, err := entities.NewTransaction(plan.UserID(), plan.WalletID(), reference, entities.TransactionTypeSavingsFunding, amount)
		if err != nil {
			return err
		}
		if err := tx.LinkSavingsPlan(plan.ID()); err != nil {
			return err
		}
		tx.SetMetadata("occurrence", occurrence.Format(dtos.DateLayout))
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

		funded := outcome.Plan
		funded.AdvanceDeductionMarker(occurrence)
		if err := uc.planRepo.Save(txCtx, funded); err != nil {
			return fmt.Errorf("failed to save savings plan: %w", err)
		}

		if err := uc.eventPublisher.Publish(txCtx, events.NewTransactionEvent(events.EventTypeTransactionSucceeded,
			tx.ID(), tx.UserID(), tx.WalletID(), string(tx.Type()), string(tx.Status()), tx.Amount(), tx.Reference(), "")); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}

		if err := notify(txCtx, uc.notificationRepo, funded.UserID(), entities.NotificationSavingsDeductionSucceeded,
			"Savings deduction",
			fmt.Sprintf("%s was moved to your savings plan %q. Saved so far: %s of %s.",
				amount, funded.Name(), funded.AmountSaved(), funded.Target())); err != nil {
			return err
		}
		if outcome.PlanCompleted {
			return notifyCompleted(txCtx, uc.notificationRepo, funded)
		}
		return nil
	})

	return result, err
}

// recordFailure записывает уведомление и событие о неудачном списании.
// Выполняется в отдельном UnitOfWork: основной уже откатан.
func (uc *ProcessRecurringDeductionsUseCase) recordFailure(ctx context.Context, plan *entities.SavingsPlan, cause error) error {
	amount, err := plan.NextDeduction()
	if err != nil {
		return err
	}

	reason := "deduction failed"
	if errors.IsInsufficientFunds(cause) {
		reason = "insufficient funds"
	}

	return uc.uow.Execute(ctx, func(txCtx context.Context) error {
		if err := notify(txCtx, uc.notificationRepo, plan.UserID(), entities.NotificationSavingsDeductionFailed,
			"Savings deduction failed",
			fmt.Sprintf("We could not move %s to your savings plan %q: %s.", amount, plan.Name(), reason)); err != nil {
			return err
		}

		event := events.NewSavingsPlanEvent(events.EventTypeSavingsDeductionFailed, plan.ID(), plan.UserID(),
			amount, plan.AmountSaved(), plan.Target(), nil, reason)
		return uc.eventPublisher.Publish(txCtx, event)
	})
}
