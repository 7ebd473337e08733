// Package ledger - единственное место, где меняется баланс кошелька.
//
// BalanceMutator вызывается use case'ами при сохранении транзакции:
//  1. Проверить, нужно ли применять эффект (создание как successful или pending -> successful)
//  2. Заблокировать строку кошелька (SELECT ... FOR UPDATE)
//  3. Credit или Debit по типу транзакции
//  4. Для savings_funding - заблокировать план и учесть пополнение
//  5. Записать события в outbox
//
// Все шаги выполняются в транзакции вызывающего UnitOfWork. При ошибке
// вызывающий код получает её как есть и UnitOfWork делает rollback.
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/entities"
	"github.com/Haleralex/walletledger/internal/domain/errors"
	"github.com/Haleralex/walletledger/internal/domain/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// mutationsTotal считает применённые изменения баланса
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletledger",
			Subsystem: "ledger",
			Name:      "balance_mutations_total",
			Help:      "Balance mutations applied, by direction and transaction type",
		},
		[]string{"direction", "type", "currency"},
	)

	// rejectedTotal считает отклонённые мутации по причине
	rejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletledger",
			Subsystem: "ledger",
			Name:      "balance_mutations_rejected_total",
			Help:      "Balance mutations rejected, by reason",
		},
		[]string{"reason"},
	)
)

// Outcome описывает, что сделал Apply.
type Outcome struct {
	Applied       bool                  // баланс изменён
	Wallet        *entities.Wallet      // кошелёк после изменения (nil если !Applied)
	Plan          *entities.SavingsPlan // план, получивший пополнение (если есть)
	PlanCompleted bool                  // пополнение довело план до цели
}

// BalanceMutator применяет эффект транзакции к балансу ровно один раз.
type BalanceMutator struct {
	walletRepo ports.WalletRepository
	planRepo   ports.SavingsPlanRepository
	publisher  ports.EventPublisher
	logger     *slog.Logger
}

// NewBalanceMutator создаёт мутатор.
func NewBalanceMutator(
	walletRepo ports.WalletRepository,
	planRepo ports.SavingsPlanRepository,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) *BalanceMutator {
	if logger == nil {
		logger = slog.Default()
	}
	return &BalanceMutator{
		walletRepo: walletRepo,
		planRepo:   planRepo,
		publisher:  publisher,
		logger:     logger,
	}
}

// Apply применяет эффект транзакции к кошельку.
//
// Должен вызываться внутри UnitOfWork, до Save транзакции. Если транзакция
// не требует применения (pending, failed, повторное сохранение successful) -
// no-op. Статус транзакции не меняется: при нехватке средств возвращается
// ErrInsufficientFunds, и вызывающий UnitOfWork откатывает всё целиком.
func (m *BalanceMutator) Apply(ctx context.Context, tx *entities.Transaction) (*Outcome, error) {
	if !tx.RequiresBalanceApplication() {
		return &Outcome{}, nil
	}

	wallet, err := m.walletRepo.FindByIDForUpdate(ctx, tx.WalletID())
	if err != nil {
		if errors.IsNotFound(err) {
			rejectedTotal.WithLabelValues("wallet_not_found").Inc()
			return nil, fmt.Errorf("%w: %s", errors.ErrWalletNotFound, tx.WalletID())
		}
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}

	if wallet.UserID() != tx.UserID() {
		rejectedTotal.WithLabelValues("wallet_misconfigured").Inc()
		return nil, fmt.Errorf("%w: wallet %s does not belong to user %s",
			errors.ErrWalletMisconfigured, wallet.ID(), tx.UserID())
	}

	direction := "debit"
	if tx.Type().IsCredit() {
		direction = "credit"
		err = wallet.Credit(tx.Amount())
	} else {
		err = wallet.Debit(tx.Amount())
	}
	if err != nil {
		switch {
		case errors.IsInsufficientFunds(err):
			rejectedTotal.WithLabelValues("insufficient_funds").Inc()
		case errors.IsWalletUnusable(err):
			rejectedTotal.WithLabelValues("wallet_misconfigured").Inc()
		}
		return nil, err
	}

	if err := m.walletRepo.Save(ctx, wallet); err != nil {
		return nil, fmt.Errorf("failed to save wallet: %w", err)
	}

	outcome := &Outcome{Applied: true, Wallet: wallet}
	eventList := []events.DomainEvent{m.balanceEvent(direction, wallet, tx)}

	if tx.Type() == entities.TransactionTypeSavingsFunding && tx.SavingsPlanID() != nil {
		plan, completed, err := m.fundPlan(ctx, wallet, tx)
		if err != nil {
			return nil, err
		}
		outcome.Plan = plan
		outcome.PlanCompleted = completed

		txID := tx.ID()
		eventList = append(eventList, events.NewSavingsPlanEvent(
			events.EventTypeSavingsPlanFunded, plan.ID(), plan.UserID(),
			tx.Amount(), plan.AmountSaved(), plan.Target(), &txID, ""))
		if completed {
			eventList = append(eventList, events.NewSavingsPlanEvent(
				events.EventTypeSavingsPlanCompleted, plan.ID(), plan.UserID(),
				tx.Amount(), plan.AmountSaved(), plan.Target(), &txID, ""))
		}
	}

	if err := m.publisher.PublishBatch(ctx, eventList); err != nil {
		return nil, fmt.Errorf("failed to publish balance events: %w", err)
	}

	mutationsTotal.WithLabelValues(direction, string(tx.Type()), tx.Amount().Currency().Code()).Inc()
	m.logger.DebugContext(ctx, "balance mutation applied",
		slog.String("wallet_id", wallet.ID().String()),
		slog.String("transaction_id", tx.ID().String()),
		slog.String("direction", direction),
		slog.String("amount", tx.Amount().String()),
		slog.String("balance", wallet.Balance().String()),
	)

	return outcome, nil
}

func (m *BalanceMutator) fundPlan(ctx context.Context, wallet *entities.Wallet, tx *entities.Transaction) (*entities.SavingsPlan, bool, error) {
	plan, err := m.planRepo.FindByIDForUpdate(ctx, *tx.SavingsPlanID())
	if err != nil {
		return nil, false, fmt.Errorf("failed to lock savings plan: %w", err)
	}
	if plan.WalletID() != wallet.ID() {
		return nil, false, fmt.Errorf("%w: savings plan %s is funded from wallet %s",
			errors.ErrWalletMisconfigured, plan.ID(), plan.WalletID())
	}

	completed, err := plan.RecordFunding(tx.Amount())
	if err != nil {
		return nil, false, err
	}
	if err := m.planRepo.Save(ctx, plan); err != nil {
		return nil, false, fmt.Errorf("failed to save savings plan: %w", err)
	}
	return plan, completed, nil
}

func (m *BalanceMutator) balanceEvent(direction string, wallet *entities.Wallet, tx *entities.Transaction) events.DomainEvent {
	if direction == "credit" {
		return events.NewWalletCredited(wallet.ID(), tx.ID(), string(tx.Type()), tx.Amount(), wallet.Balance())
	}
	return events.NewWalletDebited(wallet.ID(), tx.ID(), string(tx.Type()), tx.Amount(), wallet.Balance())
}
