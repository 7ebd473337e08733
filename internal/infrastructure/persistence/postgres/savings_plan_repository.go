// Package postgres - SavingsPlanRepository implementation.
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
	"github.com/Haleralex/walletledger/internal/domain/schedule"
)

// Compile-time check
var _ ports.SavingsPlanRepository = (*SavingsPlanRepository)(nil)

// SavingsPlanRepository реализует ports.SavingsPlanRepository.
type SavingsPlanRepository struct {
	pool *pgxpool.Pool
}

// NewSavingsPlanRepository создаёт новый SavingsPlanRepository.
func NewSavingsPlanRepository(pool *pgxpool.Pool) *SavingsPlanRepository {
	return &SavingsPlanRepository{pool: pool}
}

const savingsPlanColumns = `id, user_id, wallet_id, name, currency, target_amount::text, amount_saved::text,
	deduction_amount::text, frequency, start_date, end_date, status, last_deduction_date, created_at, updated_at`

// Save сохраняет план (UPSERT по id).
func (r *SavingsPlanRepository) Save(ctx context.Context, plan *entities.SavingsPlan) error {
	q := getQuerier(ctx, r.pool)

	sched := plan.Schedule()

	query := `
		INSERT INTO savings_plans (
			id, user_id, wallet_id, name, currency, target_amount, amount_saved, deduction_amount,
			frequency, start_date, end_date, status, last_deduction_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			target_amount = EXCLUDED.target_amount,
			amount_saved = EXCLUDED.amount_saved,
			deduction_amount = EXCLUDED.deduction_amount,
			frequency = EXCLUDED.frequency,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			status = EXCLUDED.status,
			last_deduction_date = EXCLUDED.last_deduction_date,
			updated_at = EXCLUDED.updated_at
	`

	_, err := q.Exec(ctx, query,
		plan.ID(),
		plan.UserID(),
		plan.WalletID(),
		plan.Name(),
		plan.Currency().Code(),
		plan.Target().Amount(),
		plan.AmountSaved().Amount(),
		plan.DeductionAmount().Amount(),
		string(sched.Frequency()),
		sched.StartDate(),
		sched.EndDate(),
		string(plan.Status()),
		plan.LastDeductionDate(),
		plan.CreatedAt(),
		plan.UpdatedAt(),
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return domainErrors.ErrWalletNotFound
		}
		return fmt.Errorf("failed to save savings plan: %w", err)
	}

	return nil
}

func (r *SavingsPlanRepository) findOne(ctx context.Context, query string, arg any) (*entities.SavingsPlan, error) {
	q := getQuerier(ctx, r.pool)

	plan, err := scanSavingsPlan(q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrSavingsPlanNotFound
		}
		return nil, fmt.Errorf("failed to find savings plan: %w", err)
	}
	return plan, nil
}

// FindByID загружает план по ID.
func (r *SavingsPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.SavingsPlan, error) {
	return r.findOne(ctx, `SELECT `+savingsPlanColumns+` FROM savings_plans WHERE id = $1`, id)
}

// FindByIDForUpdate загружает план с блокировкой строки.
func (r *SavingsPlanRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.SavingsPlan, error) {
	return r.findOne(ctx, `SELECT `+savingsPlanColumns+` FROM savings_plans WHERE id = $1 FOR UPDATE`, id)
}

// FindDueCandidates возвращает страницу активных recurring планов, чей диапазон
// содержит asOf и которые за asOf ещё не списывались. Keyset по (created_at, id).
func (r *SavingsPlanRepository) FindDueCandidates(ctx context.Context, asOf time.Time, after *ports.PlanCursor, limit int) ([]*entities.SavingsPlan, error) {
	query := `
		SELECT ` + savingsPlanColumns + `
		FROM savings_plans
		WHERE status = 'active'
			AND frequency <> 'one_time'
			AND start_date <= $1 AND end_date >= $1
			AND (last_deduction_date IS NULL OR last_deduction_date < $1)`
	args := []any{schedule.Date(asOf)}

	if after != nil {
		args = append(args, after.CreatedAt, after.ID)
		query += ` AND (created_at, id) > ($2, $3)`
	}

	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at, id LIMIT $%d", len(args))

	return r.query(ctx, query, args...)
}

// List возвращает планы пользователя (status == nil - все).
func (r *SavingsPlanRepository) List(ctx context.Context, userID uuid.UUID, status *entities.SavingsPlanStatus, offset, limit int) ([]*entities.SavingsPlan, error) {
	query := `SELECT ` + savingsPlanColumns + ` FROM savings_plans WHERE user_id = $1`
	args := []any{userID}

	if status != nil {
		args = append(args, string(*status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	query, args = paginate(query+" ORDER BY created_at DESC", args, offset, limit)
	return r.query(ctx, query, args...)
}

func (r *SavingsPlanRepository) query(ctx context.Context, query string, args ...any) ([]*entities.SavingsPlan, error) {
	q := getQuerier(ctx, r.pool)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query savings plans: %w", err)
	}
	defer rows.Close()

	plans := make([]*entities.SavingsPlan, 0)
	for rows.Next() {
		plan, err := scanSavingsPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan savings plan row: %w", err)
		}
		plans = append(plans, plan)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating savings plan rows: %w", err)
	}

	return plans, nil
}

// scanSavingsPlan сканирует одну строку в SavingsPlan entity.
func scanSavingsPlan(row rowScanner) (*entities.SavingsPlan, error) {
	var (
		id, userID, walletID     uuid.UUID
		name, currency           string
		target, saved, deduction string
		frequency, status        string
		startDate, endDate       time.Time
		lastDeduction            *time.Time
		createdAt, updatedAt     time.Time
	)

	err := row.Scan(
		&id, &userID, &walletID, &name, &currency, &target, &saved, &deduction,
		&frequency, &startDate, &endDate, &status, &lastDeduction, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	targetMoney, err := moneyFromColumn(target, currency)
	if err != nil {
		return nil, err
	}
	savedMoney, err := moneyFromColumn(saved, currency)
	if err != nil {
		return nil, err
	}
	deductionMoney, err := moneyFromColumn(deduction, currency)
	if err != nil {
		return nil, err
	}

	if lastDeduction != nil {
		d := schedule.Date(*lastDeduction)
		lastDeduction = &d
	}

	sched := schedule.Reconstruct(schedule.Frequency(frequency), schedule.Date(startDate), schedule.Date(endDate))

	return entities.ReconstructSavingsPlan(id, userID, walletID, name, targetMoney, savedMoney, sched,
		deductionMoney, entities.SavingsPlanStatus(status), lastDeduction, createdAt, updatedAt), nil
}
