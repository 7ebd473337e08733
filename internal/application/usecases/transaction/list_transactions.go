package transaction

import (
	"context"
	"fmt"

	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/entities"
	"github.com/Haleralex/walletledger/internal/domain/errors"
)

// DefaultPageSize - размер страницы, если limit не указан.
const DefaultPageSize = 20

// ListTransactionsUseCase - use case для получения списка транзакций с фильтрацией.
type ListTransactionsUseCase struct {
	transactionRepo ports.TransactionRepository
}

// NewListTransactionsUseCase создаёт новый use case.
func NewListTransactionsUseCase(transactionRepo ports.TransactionRepository) *ListTransactionsUseCase {
	return &ListTransactionsUseCase{
		transactionRepo: transactionRepo,
	}
}

// Execute возвращает страницу транзакций (новые сверху) и общее число по фильтру.
func (uc *ListTransactionsUseCase) Execute(ctx context.Context, query dtos.ListTransactionsQuery) (*dtos.TransactionListDTO, error) {
	filter, err := buildFilter(query)
	if err != nil {
		return nil, err
	}

	limit := query.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}

	transactions, err := uc.transactionRepo.List(ctx, filter, query.Offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	total, err := uc.transactionRepo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	return &dtos.TransactionListDTO{
		Transactions: dtos.ToTransactionDTOList(transactions),
		TotalCount:   total,
		Offset:       query.Offset,
		Limit:        limit,
	}, nil
}

func buildFilter(query dtos.ListTransactionsQuery) (ports.TransactionFilter, error) {
	var filter ports.TransactionFilter

	if query.UserID != nil {
		id, err := dtos.ParseID("user_id", *query.UserID)
		if err != nil {
			return filter, err
		}
		filter.UserID = &id
	}
	if query.WalletID != nil {
		id, err := dtos.ParseID("wallet_id", *query.WalletID)
		if err != nil {
			return filter, err
		}
		filter.WalletID = &id
	}
	if query.SavingsPlanID != nil {
		id, err := dtos.ParseID("savings_plan_id", *query.SavingsPlanID)
		if err != nil {
			return filter, err
		}
		filter.SavingsPlanID = &id
	}

	if query.Type != nil {
		txType, err := entities.ParseTransactionType(*query.Type)
		if err != nil {
			return filter, errors.ValidationError{Field: "type", Message: fmt.Sprintf("unsupported transaction type: %s", *query.Type)}
		}
		filter.Type = &txType
	}
	if query.Status != nil {
		status, err := entities.ParseTransactionStatus(*query.Status)
		if err != nil {
			return filter, errors.ValidationError{Field: "status", Message: fmt.Sprintf("unsupported status: %s", *query.Status)}
		}
		filter.Status = &status
	}

	return filter, nil
}
