// Package postgres - NotificationRepository implementation.
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
var _ ports.NotificationRepository = (*NotificationRepository)(nil)

// NotificationRepository реализует ports.NotificationRepository.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository создаёт новый NotificationRepository.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

const notificationColumns = `id, user_id, kind, title, message, is_read, created_at`

// Save вставляет уведомление или обновляет флаг прочтения.
func (r *NotificationRepository) Save(ctx context.Context, n *entities.Notification) error {
	q := getQuerier(ctx, r.pool)

	query := `
		INSERT INTO notifications (id, user_id, kind, title, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET is_read = EXCLUDED.is_read
	`

	_, err := q.Exec(ctx, query,
		n.ID(), n.UserID(), string(n.Kind()), n.Title(), n.Message(), n.IsRead(), n.CreatedAt(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domainErrors.ErrUserNotFound
		}
		return fmt.Errorf("failed to save notification: %w", err)
	}

	return nil
}

// FindByID загружает уведомление по ID.
func (r *NotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Notification, error) {
	q := getQuerier(ctx, r.pool)

	n, err := scanNotification(q.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}
	return n, nil
}

// ListByUser возвращает уведомления пользователя, новые первыми.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, offset, limit int) ([]*entities.Notification, error) {
	q := getQuerier(ctx, r.pool)

	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND is_read = FALSE`
	}
	query, args := paginate(query+` ORDER BY created_at DESC`, []any{userID}, offset, limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]*entities.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		out = append(out, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}

	return out, nil
}

func scanNotification(row rowScanner) (*entities.Notification, error) {
	var (
		id, userID           uuid.UUID
		kind, title, message string
		read                 bool
		createdAt            time.Time
	)

	if err := row.Scan(&id, &userID, &kind, &title, &message, &read, &createdAt); err != nil {
		return nil, err
	}

	return entities.ReconstructNotification(id, userID, entities.NotificationKind(kind), title, message, read, createdAt), nil
}
