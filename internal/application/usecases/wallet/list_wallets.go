package wallet

import (
	"context"
	"fmt"

	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
)

// ListWalletsUseCase - use case для получения списка кошельков с фильтрацией.
type ListWalletsUseCase struct {
	walletRepo ports.WalletRepository
}

// NewListWalletsUseCase создаёт новый use case.
func NewListWalletsUseCase(walletRepo ports.WalletRepository) *ListWalletsUseCase {
	return &ListWalletsUseCase{
		walletRepo: walletRepo,
	}
}

// Execute возвращает список кошельков с фильтрацией и пагинацией.
func (uc *ListWalletsUseCase) Execute(ctx context.Context, query dtos.ListWalletsQuery) (*dtos.WalletListDTO, error) {
	filter := ports.WalletFilter{Active: query.Active}

	if query.CurrencyCode != nil {
		currency, err := dtos.ParseCurrency(*query.CurrencyCode, valueobjects.Currency{})
		if err != nil {
			return nil, err
		}
		filter.Currency = &currency
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}

	wallets, err := uc.walletRepo.List(ctx, filter, query.Offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}

	return &dtos.WalletListDTO{
		Wallets: dtos.ToWalletDTOList(wallets),
		Offset:  query.Offset,
		Limit:   limit,
	}, nil
}
