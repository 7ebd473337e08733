package wallet

import (
	"context"
	"fmt"

	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/entities"
	"github.com/Haleralex/walletledger/internal/domain/errors"
)

// GetWalletUseCase - use case для получения кошелька по ID или по пользователю.
type GetWalletUseCase struct {
	walletRepo ports.WalletRepository
}

// NewGetWalletUseCase создаёт новый use case.
func NewGetWalletUseCase(walletRepo ports.WalletRepository) *GetWalletUseCase {
	return &GetWalletUseCase{
		walletRepo: walletRepo,
	}
}

// Execute возвращает кошелёк по ID.
func (uc *GetWalletUseCase) Execute(ctx context.Context, query dtos.GetWalletQuery) (*dtos.WalletDTO, error) {
	walletID, err := dtos.ParseID("wallet_id", query.WalletID)
	if err != nil {
		return nil, err
	}

	wallet, err := uc.walletRepo.FindByID(ctx, walletID)
	return toDTO(wallet, err)
}

// ByUser возвращает кошелёк пользователя.
func (uc *GetWalletUseCase) ByUser(ctx context.Context, query dtos.GetWalletByUserQuery) (*dtos.WalletDTO, error) {
	userID, err := dtos.ParseID("user_id", query.UserID)
	if err != nil {
		return nil, err
	}

	wallet, err := uc.walletRepo.FindByUserID(ctx, userID)
	return toDTO(wallet, err)
}

func toDTO(wallet *entities.Wallet, err error) (*dtos.WalletDTO, error) {
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	dto := dtos.ToWalletDTO(wallet)
	return &dto, nil
}
