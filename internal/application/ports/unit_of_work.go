// Package ports - UnitOfWork паттерн для управления транзакциями.
//
// Pattern: Unit of Work
//   - Один UnitOfWork = одна БД-транзакция
//   - Блокировки строк (FOR UPDATE) держатся до commit/rollback
//   - Автоматический rollback при ошибке
package ports

import "context"

// UnitOfWork определяет контракт для управления транзакциями.
//
// Пример использования:
//
//	err := uow.Execute(ctx, func(txCtx context.Context) error {
//	    wallet, err := walletRepo.FindByIDForUpdate(txCtx, walletID)
//	    if err != nil {
//	        return err // rollback
//	    }
//	    if err := wallet.Debit(amount); err != nil {
//	        return err // rollback, баланс в БД не тронут
//	    }
//	    return walletRepo.Save(txCtx, wallet)
//	})
type UnitOfWork interface {
	// Execute выполняет функцию внутри транзакции.
	//
	// Поведение:
	// - Если ctx уже содержит транзакцию, fn выполняется в ней (вложенный вызов)
	// - Если fn возвращает error: ROLLBACK
	// - Если fn возвращает nil: COMMIT
	//
	// Все операции внутри fn должны использовать переданный txCtx!
	Execute(ctx context.Context, fn func(context.Context) error) error

	// ExecuteWithResult аналогичен Execute, но возвращает результат.
	ExecuteWithResult(ctx context.Context, fn func(context.Context) (interface{}, error)) (interface{}, error)
}
