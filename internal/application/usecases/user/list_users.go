package user

import (
	"context"
	"fmt"

	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/application/ports"
)

// ListUsersUseCase - use case для получения списка пользователей с пагинацией.
type ListUsersUseCase struct {
	userRepo ports.UserRepository
}

// NewListUsersUseCase создаёт новый use case.
func NewListUsersUseCase(userRepo ports.UserRepository) *ListUsersUseCase {
	return &ListUsersUseCase{
		userRepo: userRepo,
	}
}

// Execute возвращает список пользователей с пагинацией.
func (uc *ListUsersUseCase) Execute(ctx context.Context, query dtos.ListUsersQuery) (*dtos.UserListDTO, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}

	users, err := uc.userRepo.List(ctx, query.Offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return &dtos.UserListDTO{
		Users:  dtos.ToUserDTOList(users),
		Offset: query.Offset,
		Limit:  limit,
	}, nil
}
