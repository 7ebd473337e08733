// Package postgres - WalletRepository implementation with row locks and version check.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/entities"
	domainErrors "github.com/Haleralex/walletledger/internal/domain/errors"
)

// Compile-time check
var _ ports.WalletRepository = (*WalletRepository)(nil)

// WalletRepository реализует ports.WalletRepository.
//
// Особенности:
//   - Баланс в NUMERIC(20,4), читается как ::text
//   - FindByIDForUpdate берёт row lock до конца транзакции
//   - UPDATE проверяет version (вторая линия защиты поверх блокировки)
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository создаёт новый WalletRepository.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

const walletColumns = `id, user_id, currency, balance::text, is_active, version, created_at, updated_at`

// Save: version 0 - INSERT, иначе UPDATE с проверкой версии.
func (r *WalletRepository) Save(ctx context.Context, wallet *entities.Wallet) error {
	q := getQuerier(ctx, r.pool)

	if wallet.Version() == 0 {
		return r.insert(ctx, q, wallet)
	}
	return r.update(ctx, q, wallet)
}

func (r *WalletRepository) insert(ctx context.Context, q querier, wallet *entities.Wallet) error {
	query := `
		INSERT INTO wallets (id, user_id, currency, balance, is_active, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := q.Exec(ctx, query,
		wallet.ID(),
		wallet.UserID(),
		wallet.Currency().Code(),
		wallet.Balance().Amount(),
		wallet.IsActive(),
		wallet.Version(),
		wallet.CreatedAt(),
		wallet.UpdatedAt(),
	)

	if err != nil {
		if isUniqueViolation(err, "wallets_user_unique") {
			return domainErrors.ErrWalletAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return domainErrors.NewDomainError("USER_NOT_FOUND", "user not found", domainErrors.ErrUserNotFound)
		}
		return fmt.Errorf("failed to insert wallet: %w", err)
	}

	return nil
}

func (r *WalletRepository) update(ctx context.Context, q querier, wallet *entities.Wallet) error {
	query := `
		UPDATE wallets SET
			balance = $2,
			is_active = $3,
			version = $4,
			updated_at = $5
		WHERE id = $1 AND version = $6
	`

	// Версия в entity уже увеличена операцией, в БД ожидается предыдущая
	expectedVersion := wallet.Version() - 1

	result, err := q.Exec(ctx, query,
		wallet.ID(),
		wallet.Balance().Amount(),
		wallet.IsActive(),
		wallet.Version(),
		wallet.UpdatedAt(),
		expectedVersion,
	)

	if err != nil {
		if isCheckViolation(err, "wallets_balance_non_negative") {
			return domainErrors.NewInsufficientFunds(wallet.ID().String(), "", wallet.Balance().AmountString())
		}
		return fmt.Errorf("failed to update wallet: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domainErrors.NewConcurrencyError(
			"Wallet",
			wallet.ID().String(),
			fmt.Sprintf("wallet was modified by another transaction (expected version: %d)", expectedVersion),
		)
	}

	return nil
}

func (r *WalletRepository) findOne(ctx context.Context, query string, arg any) (*entities.Wallet, error) {
	q := getQuerier(ctx, r.pool)

	wallet, err := scanWallet(q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	}
	return wallet, nil
}

// FindByID загружает кошелёк без блокировки.
func (r *WalletRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	return r.findOne(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, id)
}

// FindByIDForUpdate загружает кошелёк с SELECT ... FOR UPDATE.
// Вне UnitOfWork блокировка снимается сразу после запроса.
func (r *WalletRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	return r.findOne(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1 FOR UPDATE`, id)
}

// FindByUserID возвращает кошелёк пользователя.
func (r *WalletRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	return r.findOne(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1`, userID)
}

// ExistsByUserID проверяет наличие кошелька у пользователя.
func (r *WalletRepository) ExistsByUserID(ctx context.Context, userID uuid.UUID) (bool, error) {
	q := getQuerier(ctx, r.pool)

	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM wallets WHERE user_id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check wallet existence: %w", err)
	}

	return exists, nil
}

// List возвращает кошельки с фильтрацией и пагинацией.
func (r *WalletRepository) List(ctx context.Context, filter ports.WalletFilter, offset, limit int) ([]*entities.Wallet, error) {
	q := getQuerier(ctx, r.pool)

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE 1=1`
	args := []any{}

	if filter.Currency != nil {
		args = append(args, filter.Currency.Code())
		query += fmt.Sprintf(" AND currency = $%d", len(args))
	}

	if filter.Active != nil {
		args = append(args, *filter.Active)
		query += fmt.Sprintf(" AND is_active = $%d", len(args))
	}

	query, args = paginate(query+" ORDER BY created_at DESC", args, offset, limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	wallets := make([]*entities.Wallet, 0)
	for rows.Next() {
		wallet, err := scanWallet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallet row: %w", err)
		}
		wallets = append(wallets, wallet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet rows: %w", err)
	}

	return wallets, nil
}

// scanWallet сканирует одну строку в Wallet entity.
func scanWallet(row rowScanner) (*entities.Wallet, error) {
	var (
		id, userID            uuid.UUID
		currencyCode, balance string
		isActive              bool
		version               int64
		createdAt, updatedAt  time.Time
	)

	if err := row.Scan(&id, &userID, &currencyCode, &balance, &isActive, &version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	money, err := moneyFromColumn(balance, currencyCode)
	if err != nil {
		return nil, err
	}

	return entities.ReconstructWallet(id, userID, money.Currency(), money, isActive, version, createdAt, updatedAt), nil
}
