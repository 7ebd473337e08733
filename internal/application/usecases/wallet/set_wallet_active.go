package wallet

import (
	"context"
	"fmt"

	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/errors"
	"github.com/Haleralex/walletledger/internal/domain/events"
)

// SetWalletActiveUseCase включает или выключает кошелёк.
// Выключенный кошелёк не принимает мутаций баланса; сам баланс не меняется.
type SetWalletActiveUseCase struct {
	walletRepo     ports.WalletRepository
	eventPublisher ports.EventPublisher
	uow            ports.UnitOfWork
}

// NewSetWalletActiveUseCase создаёт новый use case.
func NewSetWalletActiveUseCase(
	walletRepo ports.WalletRepository,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
) *SetWalletActiveUseCase {
	return &SetWalletActiveUseCase{
		walletRepo:     walletRepo,
		eventPublisher: eventPublisher,
		uow:            uow,
	}
}

// Execute выполняет смену флага активности.
func (uc *SetWalletActiveUseCase) Execute(ctx context.Context, cmd dtos.SetWalletActiveCommand) (*dtos.WalletDTO, error) {
	walletID, err := dtos.ParseID("wallet_id", cmd.WalletID)
	if err != nil {
		return nil, err
	}

	var result *dtos.WalletDTO

	err = uc.uow.Execute(ctx, func(txCtx context.Context) error {
		wallet, err := uc.walletRepo.FindByIDForUpdate(txCtx, walletID)
		if err != nil {
			if errors.IsNotFound(err) {
				return errors.ErrWalletNotFound
			}
			return fmt.Errorf("failed to load wallet: %w", err)
		}

		if wallet.IsActive() != cmd.Active {
			if cmd.Active {
				wallet.Activate()
			} else {
				wallet.Deactivate()
			}
			if err := uc.walletRepo.Save(txCtx, wallet); err != nil {
				return fmt.Errorf("failed to save wallet: %w", err)
			}
			if err := uc.eventPublisher.Publish(txCtx, events.NewWalletStatusChanged(wallet.ID(), cmd.Active)); err != nil {
				return fmt.Errorf("failed to publish event: %w", err)
			}
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
