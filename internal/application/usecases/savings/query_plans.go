package savings

import (
	"context"
	"fmt"

	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/entities"
	"github.com/Haleralex/walletledger/internal/domain/errors"
)

// GetSavingsPlanUseCase возвращает план по ID.
type GetSavingsPlanUseCase struct {
	planRepo ports.SavingsPlanRepository
}

// NewGetSavingsPlanUseCase создаёт новый use case.
func NewGetSavingsPlanUseCase(planRepo ports.SavingsPlanRepository) *GetSavingsPlanUseCase {
	return &GetSavingsPlanUseCase{planRepo: planRepo}
}

// Execute возвращает план.
func (uc *GetSavingsPlanUseCase) Execute(ctx context.Context, query dtos.GetSavingsPlanQuery) (*dtos.SavingsPlanDTO, error) {
	planID, err := dtos.ParseID("plan_id", query.PlanID)
	if err != nil {
		return nil, err
	}

	plan, err := loadPlan(ctx, uc.planRepo, planID, false)
	if err != nil {
		return nil, err
	}

	dto := dtos.ToSavingsPlanDTO(plan)
	return &dto, nil
}

// ListSavingsPlansUseCase возвращает планы пользователя.
type ListSavingsPlansUseCase struct {
	planRepo ports.SavingsPlanRepository
}

// NewListSavingsPlansUseCase создаёт новый use case.
func NewListSavingsPlansUseCase(planRepo ports.SavingsPlanRepository) *ListSavingsPlansUseCase {
	return &ListSavingsPlansUseCase{planRepo: planRepo}
}

// Execute возвращает страницу планов, новые первыми.
func (uc *ListSavingsPlansUseCase) Execute(ctx context.Context, query dtos.ListSavingsPlansQuery) (*dtos.SavingsPlanListDTO, error) {
	userID, err := dtos.ParseID("user_id", query.UserID)
	if err != nil {
		return nil, err
	}

	var status *entities.SavingsPlanStatus
	if query.Status != nil {
		s := entities.SavingsPlanStatus(*query.Status)
		if !s.IsValid() {
			return nil, errors.ValidationError{Field: "status", Message: fmt.Sprintf("unsupported status: %s", *query.Status)}
		}
		status = &s
	}

	limit := query.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}

	plans, err := uc.planRepo.List(ctx, userID, status, query.Offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list savings plans: %w", err)
	}

	return &dtos.SavingsPlanListDTO{
		Plans:  dtos.ToSavingsPlanDTOList(plans),
		Offset: query.Offset,
		Limit:  limit,
	}, nil
}
