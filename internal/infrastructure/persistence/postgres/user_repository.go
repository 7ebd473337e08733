// Package postgres - UserRepository implementation.
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

// Compile-time check: UserRepository implements ports.UserRepository
var _ ports.UserRepository = (*UserRepository)(nil)

// UserRepository реализует ports.UserRepository с использованием PostgreSQL.
//
// Transaction-aware: автоматически использует транзакцию из context если есть.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository создаёт новый UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, email, full_name, created_at, updated_at`

// Save сохраняет пользователя (UPSERT по id).
func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	q := getQuerier(ctx, r.pool)

	query := `
		INSERT INTO users (id, email, full_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			full_name = EXCLUDED.full_name,
			updated_at = EXCLUDED.updated_at
	`

	_, err := q.Exec(ctx, query,
		user.ID(),
		user.Email(),
		user.FullName(),
		user.CreatedAt(),
		user.UpdatedAt(),
	)

	if err != nil {
		if isUniqueViolation(err, "users_email_unique") {
			return fmt.Errorf("%s: %w", user.Email(), domainErrors.ErrUserAlreadyExists)
		}
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

// scanUser сканирует строку в domain entity User.
func scanUser(scanner rowScanner) (*entities.User, error) {
	var (
		userID               uuid.UUID
		email, fullName      string
		createdAt, updatedAt time.Time
	)

	if err := scanner.Scan(&userID, &email, &fullName, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	return entities.ReconstructUser(userID, email, fullName, createdAt, updatedAt), nil
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg any) (*entities.User, error) {
	q := getQuerier(ctx, r.pool)

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	user, err := scanUser(q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// FindByID загружает пользователя по ID.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return r.findOne(ctx, "id = $1", id)
}

// FindByEmail загружает пользователя по email (без учёта регистра).
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.findOne(ctx, "lower(email) = lower($1)", email)
}

// ExistsByEmail проверяет существование пользователя по email.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	q := getQuerier(ctx, r.pool)

	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1))`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return exists, nil
}

// List возвращает список пользователей с пагинацией.
func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]*entities.User, error) {
	q := getQuerier(ctx, r.pool)

	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC OFFSET $1 LIMIT $2`

	rows, err := q.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*entities.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}
