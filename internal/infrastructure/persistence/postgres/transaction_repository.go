// Package postgres - TransactionRepository implementation.
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
	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
)

// Compile-time check
var _ ports.TransactionRepository = (*TransactionRepository)(nil)

// creditTypes - типы, увеличивающие баланс (для сверки).
var creditTypes = func() []string {
	all := []entities.TransactionType{
		entities.TransactionTypeDeposit, entities.TransactionTypeWithdrawal, entities.TransactionTypeTransfer,
		entities.TransactionTypePayment, entities.TransactionTypeRefund, entities.TransactionTypeSavingsFunding,
	}
	out := make([]string, 0, len(all))
	for _, t := range all {
		if t.IsCredit() {
			out = append(out, string(t))
		}
	}
	return out
}()

// TransactionRepository реализует ports.TransactionRepository.
//
// reference уникален (transactions_reference_unique): повторная вставка
// превращается в ErrDuplicateReference, что и даёт идемпотентность create.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository создаёт новый TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, user_id, wallet_id, reference, type, status, amount::text, currency,
	savings_plan_id, gateway_callback_id, metadata, created_at, updated_at`

// Save вставляет новую транзакцию или обновляет статус, связи и метаданные.
func (r *TransactionRepository) Save(ctx context.Context, tx *entities.Transaction) error {
	q := getQuerier(ctx, r.pool)

	metadata, err := tx.MetadataJSON()
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	if tx.IsNew() {
		err = r.insert(ctx, q, tx, metadata)
	} else {
		err = r.update(ctx, q, tx, metadata)
	}
	if err != nil {
		return err
	}

	// До коммита UoW: при откате объект tx устаревает, его перечитывают
	tx.MarkPersisted()
	return nil
}

func (r *TransactionRepository) insert(ctx context.Context, q querier, tx *entities.Transaction, metadata []byte) error {
	query := `
		INSERT INTO transactions (
			id, user_id, wallet_id, reference, type, status, amount, currency,
			savings_plan_id, gateway_callback_id, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := q.Exec(ctx, query,
		tx.ID(),
		tx.UserID(),
		tx.WalletID(),
		tx.Reference(),
		string(tx.Type()),
		string(tx.Status()),
		tx.Amount().Amount(),
		tx.Amount().Currency().Code(),
		tx.SavingsPlanID(),
		tx.GatewayCallbackID(),
		metadata,
		tx.CreatedAt(),
		tx.UpdatedAt(),
	)

	if err != nil {
		if isUniqueViolation(err, "transactions_reference_unique") {
			return fmt.Errorf("%w: %s", domainErrors.ErrDuplicateReference, tx.Reference())
		}
		if isForeignKeyViolation(err) {
			return domainErrors.NewDomainError("INVALID_REFERENCE", "transaction refers to a missing wallet, user or plan", domainErrors.ErrWalletNotFound)
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

func (r *TransactionRepository) update(ctx context.Context, q querier, tx *entities.Transaction, metadata []byte) error {
	query := `
		UPDATE transactions SET
			status = $2,
			savings_plan_id = $3,
			gateway_callback_id = $4,
			metadata = $5,
			updated_at = $6
		WHERE id = $1
	`

	result, err := q.Exec(ctx, query,
		tx.ID(),
		string(tx.Status()),
		tx.SavingsPlanID(),
		tx.GatewayCallbackID(),
		metadata,
		tx.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domainErrors.ErrTransactionNotFound
	}

	return nil
}

func (r *TransactionRepository) findOne(ctx context.Context, query string, arg any) (*entities.Transaction, error) {
	q := getQuerier(ctx, r.pool)

	tx, err := scanTransaction(q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return tx, nil
}

// FindByID загружает транзакцию по ID.
func (r *TransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	return r.findOne(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
}

// FindByIDForUpdate загружает транзакцию с блокировкой строки.
func (r *TransactionRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	return r.findOne(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id)
}

// FindByReference находит транзакцию по ключу идемпотентности.
func (r *TransactionRepository) FindByReference(ctx context.Context, reference string) (*entities.Transaction, error) {
	return r.findOne(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE reference = $1`, reference)
}

// FindByReferenceForUpdate - то же с блокировкой строки (webhook шлюза).
func (r *TransactionRepository) FindByReferenceForUpdate(ctx context.Context, reference string) (*entities.Transaction, error) {
	return r.findOne(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE reference = $1 FOR UPDATE`, reference)
}

// whereClause строит WHERE по фильтру.
func whereClause(filter ports.TransactionFilter) (string, []any) {
	where := ` WHERE 1=1`
	args := []any{}

	add := func(column string, value any) {
		args = append(args, value)
		where += fmt.Sprintf(" AND %s = $%d", column, len(args))
	}

	if filter.UserID != nil {
		add("user_id", *filter.UserID)
	}
	if filter.WalletID != nil {
		add("wallet_id", *filter.WalletID)
	}
	if filter.SavingsPlanID != nil {
		add("savings_plan_id", *filter.SavingsPlanID)
	}
	if filter.Type != nil {
		add("type", string(*filter.Type))
	}
	if filter.Status != nil {
		add("status", string(*filter.Status))
	}

	return where, args
}

// List возвращает транзакции под фильтром, новые первыми.
func (r *TransactionRepository) List(ctx context.Context, filter ports.TransactionFilter, offset, limit int) ([]*entities.Transaction, error) {
	q := getQuerier(ctx, r.pool)

	where, args := whereClause(filter)
	query, args := paginate(`SELECT `+transactionColumns+` FROM transactions`+where+` ORDER BY created_at DESC, id`, args, offset, limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]*entities.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}

// Count возвращает количество транзакций под фильтром.
func (r *TransactionRepository) Count(ctx context.Context, filter ports.TransactionFilter) (int64, error) {
	q := getQuerier(ctx, r.pool)

	where, args := whereClause(filter)

	var count int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

// SumSuccessful возвращает суммы успешных кредитов и дебетов кошелька.
func (r *TransactionRepository) SumSuccessful(ctx context.Context, walletID uuid.UUID) (valueobjects.Money, valueobjects.Money, error) {
	q := getQuerier(ctx, r.pool)

	query := `
		SELECT w.currency,
			COALESCE(SUM(t.amount) FILTER (WHERE t.type = ANY($2)), 0)::text,
			COALESCE(SUM(t.amount) FILTER (WHERE t.type <> ALL($2)), 0)::text
		FROM wallets w
		LEFT JOIN transactions t ON t.wallet_id = w.id AND t.status = 'successful'
		WHERE w.id = $1
		GROUP BY w.currency
	`

	var currency, credits, debits string
	if err := q.QueryRow(ctx, query, walletID, creditTypes).Scan(&currency, &credits, &debits); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return valueobjects.Money{}, valueobjects.Money{}, domainErrors.ErrWalletNotFound
		}
		return valueobjects.Money{}, valueobjects.Money{}, fmt.Errorf("failed to sum transactions: %w", err)
	}

	creditSum, err := moneyFromColumn(credits, currency)
	if err != nil {
		return valueobjects.Money{}, valueobjects.Money{}, err
	}
	debitSum, err := moneyFromColumn(debits, currency)
	if err != nil {
		return valueobjects.Money{}, valueobjects.Money{}, err
	}
	return creditSum, debitSum, nil
}

// SumPlanFunding возвращает сумму успешных savings_funding транзакций плана.
func (r *TransactionRepository) SumPlanFunding(ctx context.Context, planID uuid.UUID) (valueobjects.Money, error) {
	q := getQuerier(ctx, r.pool)

	query := `
		SELECT p.currency, COALESCE(SUM(t.amount), 0)::text
		FROM savings_plans p
		LEFT JOIN transactions t ON t.savings_plan_id = p.id
			AND t.status = 'successful' AND t.type = 'savings_funding'
		WHERE p.id = $1
		GROUP BY p.currency
	`

	var currency, total string
	if err := q.QueryRow(ctx, query, planID).Scan(&currency, &total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return valueobjects.Money{}, domainErrors.ErrSavingsPlanNotFound
		}
		return valueobjects.Money{}, fmt.Errorf("failed to sum plan funding: %w", err)
	}

	return moneyFromColumn(total, currency)
}

// scanTransaction сканирует одну строку в Transaction entity.
func scanTransaction(row rowScanner) (*entities.Transaction, error) {
	var (
		id, userID, walletID           uuid.UUID
		reference, txType, status      string
		amount, currency               string
		savingsPlanID, gatewayCallback *uuid.UUID
		metadata                       []byte
		createdAt, updatedAt           time.Time
	)

	err := row.Scan(
		&id, &userID, &walletID, &reference, &txType, &status, &amount, &currency,
		&savingsPlanID, &gatewayCallback, &metadata, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	money, err := moneyFromColumn(amount, currency)
	if err != nil {
		return nil, err
	}

	tx, err := entities.ReconstructTransaction(id, userID, walletID, reference,
		entities.TransactionType(txType), entities.TransactionStatus(status), money,
		savingsPlanID, gatewayCallback, metadata, createdAt, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid metadata in database: %w", err)
	}
	return tx, nil
}
