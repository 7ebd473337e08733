package transaction

import (
	"context"
	"fmt"

	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/entities"
	"github.com/Haleralex/walletledger/internal/domain/errors"
)

// GetTransactionUseCase - use case для получения транзакции по ID или reference.
type GetTransactionUseCase struct {
	transactionRepo ports.TransactionRepository
}

// NewGetTransactionUseCase создаёт новый use case.
func NewGetTransactionUseCase(transactionRepo ports.TransactionRepository) *GetTransactionUseCase {
	return &GetTransactionUseCase{
		transactionRepo: transactionRepo,
	}
}

// Execute возвращает транзакцию по ID.
func (uc *GetTransactionUseCase) Execute(ctx context.Context, query dtos.GetTransactionQuery) (*dtos.TransactionDTO, error) {
	txID, err := dtos.ParseID("transaction_id", query.TransactionID)
	if err != nil {
		return nil, err
	}

	tx, err := uc.transactionRepo.FindByID(ctx, txID)
	return found(tx, err)
}

// ByReference возвращает транзакцию по внешнему reference.
func (uc *GetTransactionUseCase) ByReference(ctx context.Context, query dtos.GetTransactionByReferenceQuery) (*dtos.TransactionDTO, error) {
	if query.Reference == "" {
		return nil, errors.ValidationError{Field: "reference", Message: "reference is required"}
	}

	tx, err := uc.transactionRepo.FindByReference(ctx, query.Reference)
	return found(tx, err)
}

func found(tx *entities.Transaction, err error) (*dtos.TransactionDTO, error) {
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	return dtos.MapTransactionToDTO(tx), nil
}
