package user

import (
	"context"
	"fmt"

	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/domain/errors"
)

// GetUserUseCase - use case для получения пользователя по ID.
type GetUserUseCase struct {
	userRepo ports.UserRepository
}

// NewGetUserUseCase создаёт новый use case.
func NewGetUserUseCase(userRepo ports.UserRepository) *GetUserUseCase {
	return &GetUserUseCase{
		userRepo: userRepo,
	}
}

// Execute возвращает пользователя по ID.
func (uc *GetUserUseCase) Execute(ctx context.Context, query dtos.GetUserQuery) (*dtos.UserDTO, error) {
	userID, err := dtos.ParseID("user_id", query.UserID)
	if err != nil {
		return nil, err
	}

	user, err := uc.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	result := dtos.ToUserDTO(user)
	return &result, nil
}
