// Package savings содержит use cases планов накоплений и уведомлений,
// включая тело планировщика регулярных списаний.
package savings

import (
	"context"
	"fmt"

	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/entities"
	"github.com/Haleralex/walletledger/internal/domain/errors"
	"github.com/Haleralex/walletledger/internal/domain/schedule"
	"github.com/google/uuid"
)

// DefaultPageSize - размер страницы, если limit не указан.
const DefaultPageSize = 20

func buildSchedule(frequency, start, end string) (schedule.Schedule, error) {
	f, err := schedule.ParseFrequency(frequency)
	if err != nil {
		return schedule.Schedule{}, errors.ValidationError{Field: "frequency", Message: err.Error()}
	}
	startDate, err := dtos.ParseDate(start)
	if err != nil {
		return schedule.Schedule{}, errors.ValidationError{Field: "start_date", Message: "expected YYYY-MM-DD"}
	}
	endDate, err := dtos.ParseDate(end)
	if err != nil {
		return schedule.Schedule{}, errors.ValidationError{Field: "end_date", Message: "expected YYYY-MM-DD"}
	}
	return schedule.New(f, startDate, endDate)
}

func loadPlan(ctx context.Context, repo ports.SavingsPlanRepository, id uuid.UUID, forUpdate bool) (*entities.SavingsPlan, error) {
	var (
		plan *entities.SavingsPlan
		err  error
	)
	if forUpdate {
		plan, err = repo.FindByIDForUpdate(ctx, id)
	} else {
		plan, err = repo.FindByID(ctx, id)
	}
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.ErrSavingsPlanNotFound
		}
		return nil, fmt.Errorf("failed to load savings plan: %w", err)
	}
	return plan, nil
}

func notify(ctx context.Context, repo ports.NotificationRepository, userID uuid.UUID, kind entities.NotificationKind, title, message string) error {
	n, err := entities.NewNotification(userID, kind, title, message)
	if err != nil {
		return err
	}
	if err := repo.Save(ctx, n); err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

func notifyCompleted(ctx context.Context, repo ports.NotificationRepository, plan *entities.SavingsPlan) error {
	return notify(ctx, repo, plan.UserID(), entities.NotificationSavingsPlanCompleted,
		"Savings goal reached",
		fmt.Sprintf("Your savings plan %q reached its target of %s.", plan.Name(), plan.Target()))
}
