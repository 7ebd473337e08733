package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/errors"
)

// ReconcileWalletUseCase сверяет баланс кошелька с журналом транзакций:
// balance == Σ успешных кредитов - Σ успешных дебетов.
//
// Чтение идёт в одной транзакции с блокировкой кошелька, чтобы
// параллельная мутация не попала между чтением баланса и сумм.
type ReconcileWalletUseCase struct {
	walletRepo      ports.WalletRepository
	transactionRepo ports.TransactionRepository
	uow             ports.UnitOfWork
}

// NewReconcileWalletUseCase создаёт новый use case.
func NewReconcileWalletUseCase(
	walletRepo ports.WalletRepository,
	transactionRepo ports.TransactionRepository,
	uow ports.UnitOfWork,
) *ReconcileWalletUseCase {
	return &ReconcileWalletUseCase{
		walletRepo:      walletRepo,
		transactionRepo: transactionRepo,
		uow:             uow,
	}
}

// Execute выполняет сверку.
func (uc *ReconcileWalletUseCase) Execute(ctx context.Context, query dtos.ReconcileWalletQuery) (*dtos.ReconciliationDTO, error) {
	walletID, err := dtos.ParseID("wallet_id", query.WalletID)
	if err != nil {
		return nil, err
	}

	var result *dtos.ReconciliationDTO

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		wallet, err := uc.walletRepo.FindByIDForUpdate(txCtx, walletID)
		if err != nil {
			if errors.IsNotFound(err) {
				return errors.ErrWalletNotFound
			}
			return fmt.Errorf("failed to load wallet: %w", err)
		}

		credits, debits, err := uc.transactionRepo.SumSuccessful(txCtx, walletID)
		if err != nil {
			return fmt.Errorf("failed to sum transactions: %w", err)
		}

		places := wallet.Currency().MinorUnits()
		expected := credits.Amount().Sub(debits.Amount())
		drift := wallet.Balance().Amount().Sub(expected)

		result = &dtos.ReconciliationDTO{
			WalletID:     wallet.ID().String(),
			CurrencyCode: wallet.Currency().Code(),
			Balance:      wallet.Balance().AmountString(),
			Credits:      credits.AmountString(),
			Debits:       debits.AmountString(),
			Expected:     expected.StringFixed(places),
			Drift:        drift.StringFixed(places),
			Balanced:     drift.IsZero(),
			CheckedAt:    time.Now().UTC(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
