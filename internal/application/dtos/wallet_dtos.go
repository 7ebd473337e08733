// Package dtos - Wallet DTOs для передачи данных о кошельках.
package dtos

import "time"

// ============================================
// Commands (Write операции)
// ============================================

// CreateWalletCommand - команда для создания кошелька (один на пользователя).
type CreateWalletCommand struct {
	UserID       string `json:"user_id" validate:"required,uuid"`
	CurrencyCode string `json:"currency_code" validate:"required,currency"`
}

// SetWalletActiveCommand - команда для включения/выключения кошелька.
type SetWalletActiveCommand struct {
	WalletID string `json:"wallet_id" validate:"required,uuid"`
	Active   bool   `json:"active"`
}

// ============================================
// Queries (Read операции)
// ============================================

// GetWalletQuery - запрос для получения кошелька по ID.
type GetWalletQuery struct {
	WalletID string `json:"wallet_id" validate:"required,uuid"`
}

// GetWalletByUserQuery - запрос кошелька пользователя.
type GetWalletByUserQuery struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// ListWalletsQuery - запрос списка кошельков (для операторов).
type ListWalletsQuery struct {
	CurrencyCode *string `json:"currency_code,omitempty" validate:"omitempty,currency"`
	Active       *bool   `json:"active,omitempty"`
	Offset       int     `json:"offset" validate:"min=0"`
	Limit        int     `json:"limit" validate:"min=0,max=100"`
}

// ReconcileWalletQuery - запрос на сверку баланса с журналом транзакций.
type ReconcileWalletQuery struct {
	WalletID string `json:"wallet_id" validate:"required,uuid"`
}

// ============================================
// Response DTOs
// ============================================

// WalletDTO - представление кошелька для API.
type WalletDTO struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	CurrencyCode string    `json:"currency_code"`
	Balance      string    `json:"balance"` // Decimal string: "100.50"
	IsActive     bool      `json:"is_active"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// WalletListDTO - результат для списка кошельков.
type WalletListDTO struct {
	Wallets []WalletDTO `json:"wallets"`
	Offset  int         `json:"offset"`
	Limit   int         `json:"limit"`
}

// ReconciliationDTO - результат сверки.
// Expected = Σ credits - Σ debits по успешным транзакциям; Drift = Balance - Expected.
type ReconciliationDTO struct {
	WalletID     string    `json:"wallet_id"`
	CurrencyCode string    `json:"currency_code"`
	Balance      string    `json:"balance"`
	Credits      string    `json:"credits"`
	Debits       string    `json:"debits"`
	Expected     string    `json:"expected"`
	Drift        string    `json:"drift"`
	Balanced     bool      `json:"balanced"`
	CheckedAt    time.Time `json:"checked_at"`
}
