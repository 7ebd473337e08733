// Package postgres - UnitOfWork implementation для PostgreSQL.
//
// Usage:
//
//	err := uow.Execute(ctx, func(txCtx context.Context) error {
//	    wallet, err := walletRepo.FindByIDForUpdate(txCtx, walletID) // row lock
//	    if err != nil {
//	        return err // ROLLBACK
//	    }
//	    if err := wallet.Debit(amount); err != nil {
//	        return err // ROLLBACK, баланс не тронут
//	    }
//	    return walletRepo.Save(txCtx, wallet) // COMMIT
//	})
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/walletledger/internal/application/ports"
)

// Compile-time check
var _ ports.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWork реализует ports.UnitOfWork с PostgreSQL транзакциями.
//
// Изоляция READ COMMITTED: сериализацию изменений баланса обеспечивают
// блокировки строк (FOR UPDATE), а не уровень изоляции.
type UnitOfWork struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
}

// NewUnitOfWork создаёт новый UnitOfWork.
func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{
		pool: pool,
		opts: pgx.TxOptions{
			IsoLevel: pgx.ReadCommitted,
		},
	}
}

// Execute выполняет функцию внутри транзакции.
//
// Поведение:
//   - Если ctx уже содержит транзакцию: fn выполняется в ней
//   - Если fn возвращает nil: COMMIT
//   - Если fn возвращает error: ROLLBACK
//   - Если panic: ROLLBACK + re-panic
func (u *UnitOfWork) Execute(ctx context.Context, fn func(context.Context) error) error {
	if hasTx(ctx) {
		// PostgreSQL не поддерживает вложенные транзакции, только savepoints
		return fn(ctx)
	}

	tx, err := u.pool.BeginTx(ctx, u.opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	txCtx := injectTx(ctx, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ExecuteWithResult выполняет функцию и возвращает результат.
func (u *UnitOfWork) ExecuteWithResult(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	var result interface{}

	err := u.Execute(ctx, func(txCtx context.Context) error {
		var fnErr error
		result, fnErr = fn(txCtx)
		return fnErr
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}
