package savings

import (
	"context"
	"fmt"

	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/errors"
)

// ListNotificationsUseCase возвращает уведомления пользователя.
type ListNotificationsUseCase struct {
	notificationRepo ports.NotificationRepository
}

// NewListNotificationsUseCase создаёт новый use case.
func NewListNotificationsUseCase(notificationRepo ports.NotificationRepository) *ListNotificationsUseCase {
	return &ListNotificationsUseCase{notificationRepo: notificationRepo}
}

// Execute возвращает страницу уведомлений, новые первыми.
func (uc *ListNotificationsUseCase) Execute(ctx context.Context, query dtos.ListNotificationsQuery) (*dtos.NotificationListDTO, error) {
	userID, err := dtos.ParseID("user_id", query.UserID)
	if err != nil {
		return nil, err
	}

	limit := query.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}

	list, err := uc.notificationRepo.ListByUser(ctx, userID, query.UnreadOnly, query.Offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return &dtos.NotificationListDTO{
		Notifications: dtos.ToNotificationDTOList(list),
		Offset:        query.Offset,
		Limit:         limit,
	}, nil
}

// MarkNotificationReadUseCase отмечает уведомление прочитанным.
// Чужое уведомление выглядит как несуществующее.
type MarkNotificationReadUseCase struct {
	notificationRepo ports.NotificationRepository
}

// NewMarkNotificationReadUseCase создаёт новый use case.
func NewMarkNotificationReadUseCase(notificationRepo ports.NotificationRepository) *MarkNotificationReadUseCase {
	return &MarkNotificationReadUseCase{notificationRepo: notificationRepo}
}

// Execute выполняет отметку.
func (uc *MarkNotificationReadUseCase) Execute(ctx context.Context, cmd dtos.MarkNotificationReadCommand) (*dtos.NotificationDTO, error) {
	userID, err := dtos.ParseID("user_id", cmd.UserID)
	if err != nil {
		return nil, err
	}
	id, err := dtos.ParseID("notification_id", cmd.NotificationID)
	if err != nil {
		return nil, err
	}

	n, err := uc.notificationRepo.FindByID(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to load notification: %w", err)
	}
	if n.UserID() != userID {
		return nil, errors.ErrNotificationNotFound
	}

	if !n.IsRead() {
		n.MarkRead()
		if err := uc.notificationRepo.Save(ctx, n); err != nil {
			return nil, fmt.Errorf("failed to save notification: %w", err)
		}
	}

	dto := dtos.ToNotificationDTO(n)
	return &dto, nil
}
