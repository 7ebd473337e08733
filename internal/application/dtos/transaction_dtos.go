// Package dtos - Transaction DTOs для передачи данных о транзакциях.
package dtos

import (
	"encoding/json"
	"time"
)

// ============================================
// Commands (Write операции)
// ============================================

// CreateTransactionCommand - команда для создания транзакции.
//
// Reference - ключ идемпотентности: повтор с тем же reference возвращает
// уже сохранённую транзакцию без изменений.
type CreateTransactionCommand struct {
	UserID        string                 `json:"user_id" validate:"required,uuid"`
	WalletID      string                 `json:"wallet_id,omitempty" validate:"omitempty,uuid"` // пусто - кошелёк пользователя
	Type          string                 `json:"type" validate:"required,oneof=deposit withdrawal transfer payment refund savings_funding"`
	Amount        string                 `json:"amount" validate:"required,amount"`
	CurrencyCode  string                 `json:"currency_code,omitempty" validate:"omitempty,currency"` // пусто - валюта кошелька
	Reference     string                 `json:"reference" validate:"required,max=255"`
	Status        string                 `json:"status,omitempty" validate:"omitempty,oneof=pending successful"`
	SavingsPlanID string                 `json:"savings_plan_id,omitempty" validate:"omitempty,uuid"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// UpdateTransactionStatusCommand - команда для смены статуса pending транзакции.
type UpdateTransactionStatusCommand struct {
	TransactionID string `json:"transaction_id" validate:"required,uuid"`
	Status        string `json:"status" validate:"required,oneof=pending successful failed cancelled"`
	Reason        string `json:"reason,omitempty" validate:"max=500"`
}

// InitiateDepositCommand - команда на пополнение через платёжный шлюз.
type InitiateDepositCommand struct {
	UserID       string `json:"user_id" validate:"required,uuid"`
	Amount       string `json:"amount" validate:"required,amount"`
	CurrencyCode string `json:"currency_code,omitempty" validate:"omitempty,currency"`
	Reference    string `json:"reference,omitempty" validate:"max=255"` // пусто - сгенерировать
}

// GatewayCallbackCommand - webhook платёжного шлюза.
type GatewayCallbackCommand struct {
	Provider   string          `json:"provider" validate:"required"`
	EventID    string          `json:"event_id" validate:"required"`
	Reference  string          `json:"reference" validate:"required"`
	Event      string          `json:"event" validate:"required"`
	Successful bool            `json:"successful"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// ============================================
// Queries (Read операции)
// ============================================

// GetTransactionQuery - запрос транзакции по ID.
type GetTransactionQuery struct {
	TransactionID string `json:"transaction_id" validate:"required,uuid"`
}

// GetTransactionByReferenceQuery - запрос по reference.
type GetTransactionByReferenceQuery struct {
	Reference string `json:"reference" validate:"required"`
}

// ListTransactionsQuery - запрос списка транзакций с фильтрацией.
type ListTransactionsQuery struct {
	UserID        *string `json:"user_id,omitempty" validate:"omitempty,uuid"`
	WalletID      *string `json:"wallet_id,omitempty" validate:"omitempty,uuid"`
	SavingsPlanID *string `json:"savings_plan_id,omitempty" validate:"omitempty,uuid"`
	Type          *string `json:"type,omitempty" validate:"omitempty,oneof=deposit withdrawal transfer payment refund savings_funding"`
	Status        *string `json:"status,omitempty" validate:"omitempty,oneof=pending successful failed cancelled"`
	Offset        int     `json:"offset" validate:"min=0"`
	Limit         int     `json:"limit" validate:"min=0,max=100"`
}

// ============================================
// Response DTOs
// ============================================

// TransactionDTO - представление транзакции для API.
type TransactionDTO struct {
	ID                string                 `json:"id"`
	UserID            string                 `json:"user_id"`
	WalletID          string                 `json:"wallet_id"`
	Reference         string                 `json:"reference"`
	Type              string                 `json:"type"`
	Status            string                 `json:"status"`
	Amount            string                 `json:"amount"`
	CurrencyCode      string                 `json:"currency_code"`
	SavingsPlanID     *string                `json:"savings_plan_id,omitempty"`
	GatewayCallbackID *string                `json:"gateway_callback_id,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
	FailureReason     string                 `json:"failure_reason,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// TransactionListDTO - результат для списка транзакций.
type TransactionListDTO struct {
	Transactions []TransactionDTO `json:"transactions"`
	TotalCount   int64            `json:"total_count"`
	Offset       int              `json:"offset"`
	Limit        int              `json:"limit"`
}

// DepositInitiatedDTO - результат InitiateDeposit.
// AuthorizationURL пуст, если шлюз вернул ошибку (она лежит в metadata транзакции).
type DepositInitiatedDTO struct {
	Transaction      TransactionDTO `json:"transaction"`
	AuthorizationURL string         `json:"authorization_url,omitempty"`
	AccessCode       string         `json:"access_code,omitempty"`
}

// GatewayCallbackResultDTO - результат обработки webhook.
type GatewayCallbackResultDTO struct {
	Duplicate   bool            `json:"duplicate"`
	Transaction *TransactionDTO `json:"transaction,omitempty"`
}
