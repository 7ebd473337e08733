// Package dtos определяет Data Transfer Objects для передачи данных между слоями.
//
// Domain entities не выходят за пределы application layer:
//   - API может иметь более простое представление (деньги - десятичные строки)
//   - Entities могут меняться независимо от контракта API
//
// Pattern: Data Transfer Object + Command/Query
package dtos

import "time"

// ============================================
// Commands (Write операции - изменяют состояние)
// ============================================

// CreateUserCommand - команда для создания пользователя вместе с кошельком.
type CreateUserCommand struct {
	Email        string `json:"email" validate:"required,email"`
	FullName     string `json:"full_name" validate:"required,min=2,max=100"`
	CurrencyCode string `json:"currency_code" validate:"omitempty,currency"` // по умолчанию - валюта из конфига
}

// ============================================
// Queries (Read операции - не изменяют состояние)
// ============================================

// GetUserQuery - запрос для получения пользователя по ID.
type GetUserQuery struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// ListUsersQuery - запрос для получения списка пользователей.
type ListUsersQuery struct {
	Offset int `json:"offset" validate:"min=0"`
	Limit  int `json:"limit" validate:"min=1,max=100"`
}

// ============================================
// Response DTOs (Результаты операций)
// ============================================

// UserDTO - представление пользователя для API.
type UserDTO struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserListDTO - результат для списка пользователей.
type UserListDTO struct {
	Users  []UserDTO `json:"users"`
	Offset int       `json:"offset"`
	Limit  int       `json:"limit"`
}

// UserCreatedDTO - результат создания пользователя: пользователь и его кошелёк.
type UserCreatedDTO struct {
	User   UserDTO   `json:"user"`
	Wallet WalletDTO `json:"wallet"`
}
