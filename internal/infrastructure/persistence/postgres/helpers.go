// Package postgres - вспомогательные функции для работы с PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
)

// txKey - ключ для хранения транзакции в context.
type txKey struct{}

// injectTx добавляет транзакцию в context.
// Используется UnitOfWork для передачи транзакции в repositories.
func injectTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// extractTx извлекает транзакцию из context.
// Возвращает nil если транзакции нет.
func extractTx(ctx context.Context) pgx.Tx {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	if !ok {
		return nil
	}
	return tx
}

// hasTx проверяет наличие транзакции в context.
func hasTx(ctx context.Context) bool {
	return extractTx(ctx) != nil
}

// querier - абстракция для выполнения запросов.
// Позволяет использовать как pool, так и transaction.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// getQuerier возвращает транзакцию из context или pool.
// Все репозитории пакета ходят в БД только через него.
func getQuerier(ctx context.Context, pool *pgxpool.Pool) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return pool
}

// rowScanner - общий интерфейс pgx.Row и pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// PostgreSQL error codes
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// isPgError проверяет, является ли ошибка PostgreSQL ошибкой с определённым кодом.
func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == code
}

// isUniqueViolation проверяет, является ли ошибка нарушением UNIQUE constraint.
// constraintName - опциональное имя constraint для проверки.
func isUniqueViolation(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}

	// Если указано имя constraint, проверяем его
	if constraintName != "" {
		return strings.Contains(pgErr.ConstraintName, constraintName)
	}
	return true
}

// isForeignKeyViolation проверяет нарушение foreign key constraint.
func isForeignKeyViolation(err error) bool {
	return isPgError(err, pgForeignKeyViolation)
}

// isCheckViolation проверяет нарушение CHECK constraint.
func isCheckViolation(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgCheckViolation {
		return false
	}
	return constraintName == "" || strings.Contains(pgErr.ConstraintName, constraintName)
}

// moneyFromColumn собирает Money из NUMERIC, прочитанного как ::text.
// Чтение через текст сохраняет точность без промежуточного float.
func moneyFromColumn(amount, currencyCode string) (valueobjects.Money, error) {
	currency, err := valueobjects.NewCurrency(currencyCode)
	if err != nil {
		return valueobjects.Money{}, fmt.Errorf("invalid currency in database: %w", err)
	}
	money, err := valueobjects.NewMoney(amount, currency)
	if err != nil {
		return valueobjects.Money{}, fmt.Errorf("invalid amount in database: %w", err)
	}
	return money, nil
}

// paginate добавляет OFFSET/LIMIT к запросу с позиционными аргументами.
func paginate(query string, args []any, offset, limit int) (string, []any) {
	n := len(args)
	query += fmt.Sprintf(" OFFSET $%d LIMIT $%d", n+1, n+2)
	return query, append(args, offset, limit)
}
