// Package dtos - Savings plan и Notification DTOs.
package dtos

import "time"

// ============================================
// Commands (Write операции)
// ============================================

// CreateSavingsPlanCommand - команда для создания плана накоплений.
// Даты в формате YYYY-MM-DD; EndDate обязателен для recurring планов.
type CreateSavingsPlanCommand struct {
	UserID       string `json:"user_id" validate:"required,uuid"`
	Name         string `json:"name" validate:"required,max=120"`
	TargetAmount string `json:"target_amount" validate:"required,amount"`
	Frequency    string `json:"frequency" validate:"required,oneof=one_time daily weekly monthly"`
	StartDate    string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// ReschedulePlanCommand - изменение цели и расписания активного плана.
type ReschedulePlanCommand struct {
	PlanID       string `json:"plan_id" validate:"required,uuid"`
	TargetAmount string `json:"target_amount" validate:"required,amount"`
	Frequency    string `json:"frequency" validate:"required,oneof=one_time daily weekly monthly"`
	StartDate    string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate      string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// FundSavingsPlanCommand - ручное пополнение плана из кошелька.
// Пустой Amount - следующее плановое списание (с учётом остатка до цели).
type FundSavingsPlanCommand struct {
	PlanID    string `json:"plan_id" validate:"required,uuid"`
	Amount    string `json:"amount,omitempty" validate:"omitempty,amount"`
	Reference string `json:"reference,omitempty" validate:"max=255"`
}

// CancelSavingsPlanCommand - отмена плана.
type CancelSavingsPlanCommand struct {
	PlanID string `json:"plan_id" validate:"required,uuid"`
}

// ProcessRecurringDeductionsCommand - запуск планировщика за дату AsOf.
type ProcessRecurringDeductionsCommand struct {
	AsOf      time.Time
	BatchSize int
}

// MarkNotificationReadCommand - отметить уведомление прочитанным.
type MarkNotificationReadCommand struct {
	UserID         string `json:"user_id" validate:"required,uuid"`
	NotificationID string `json:"notification_id" validate:"required,uuid"`
}

// ============================================
// Queries (Read операции)
// ============================================

// GetSavingsPlanQuery - запрос плана по ID.
type GetSavingsPlanQuery struct {
	PlanID string `json:"plan_id" validate:"required,uuid"`
}

// ListSavingsPlansQuery - планы пользователя.
type ListSavingsPlansQuery struct {
	UserID string  `json:"user_id" validate:"required,uuid"`
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=active completed cancelled"`
	Offset int     `json:"offset" validate:"min=0"`
	Limit  int     `json:"limit" validate:"min=0,max=100"`
}

// ListNotificationsQuery - уведомления пользователя.
type ListNotificationsQuery struct {
	UserID     string `json:"user_id" validate:"required,uuid"`
	UnreadOnly bool   `json:"unread_only"`
	Offset     int    `json:"offset" validate:"min=0"`
	Limit      int    `json:"limit" validate:"min=0,max=100"`
}

// ============================================
// Response DTOs
// ============================================

// SavingsPlanDTO - представление плана для API.
type SavingsPlanDTO struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	WalletID          string    `json:"wallet_id"`
	Name              string    `json:"name"`
	CurrencyCode      string    `json:"currency_code"`
	TargetAmount      string    `json:"target_amount"`
	AmountSaved       string    `json:"amount_saved"`
	RemainingAmount   string    `json:"remaining_amount"`
	DeductionAmount   string    `json:"deduction_amount"`
	Frequency         string    `json:"frequency"`
	StartDate         string    `json:"start_date"`
	EndDate           string    `json:"end_date"`
	NumberOfPeriods   int64     `json:"number_of_periods"`
	NextDueDate       *string   `json:"next_due_date,omitempty"`
	LastDeductionDate *string   `json:"last_deduction_date,omitempty"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// SavingsPlanListDTO - список планов.
type SavingsPlanListDTO struct {
	Plans  []SavingsPlanDTO `json:"plans"`
	Offset int              `json:"offset"`
	Limit  int              `json:"limit"`
}

// FundingResultDTO - результат пополнения плана.
type FundingResultDTO struct {
	Plan        SavingsPlanDTO `json:"plan"`
	Transaction TransactionDTO `json:"transaction"`
}

// DeductionReportDTO - итог одного прогона планировщика.
type DeductionReportDTO struct {
	AsOf      time.Time `json:"as_of"`
	Scanned   int       `json:"scanned"`   // кандидатов из БД
	Due       int       `json:"due"`       // из них подошёл срок
	Succeeded int       `json:"succeeded"` // списано
	Failed    int       `json:"failed"`    // не хватило средств и т.п. (уведомление отправлено)
	Skipped   int       `json:"skipped"`   // кошелёк не найден/неисправен, уже списано
}

// NotificationDTO - уведомление пользователя.
type NotificationDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationListDTO - список уведомлений.
type NotificationListDTO struct {
	Notifications []NotificationDTO `json:"notifications"`
	Offset        int               `json:"offset"`
	Limit         int               `json:"limit"`
}
