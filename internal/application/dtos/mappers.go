// Package dtos - Mappers для конвертации domain entities в DTOs.
//
// Pattern: Mapper/Converter
// Отделяет domain representation от API representation
package dtos

import (
	"time"

	"github.com/Haleralex/walletledger/internal/domain/entities"
	"github.com/Haleralex/walletledger/internal/domain/schedule"
)

// DateLayout - формат календарных дат в API (start/end/next due).
const DateLayout = "2006-01-02"

// ============================================
// User Mappers
// ============================================

// ToUserDTO конвертирует domain entity User в DTO.
func ToUserDTO(user *entities.User) UserDTO {
	return UserDTO{
		ID:        user.ID().String(),
		Email:     user.Email(),
		FullName:  user.FullName(),
		CreatedAt: user.CreatedAt(),
		UpdatedAt: user.UpdatedAt(),
	}
}

// ToUserDTOList конвертирует список users.
func ToUserDTOList(users []*entities.User) []UserDTO {
	result := make([]UserDTO, len(users))
	for i, user := range users {
		result[i] = ToUserDTO(user)
	}
	return result
}

// ============================================
// Wallet Mappers
// ============================================

// ToWalletDTO конвертирует domain entity Wallet в DTO.
func ToWalletDTO(wallet *entities.Wallet) WalletDTO {
	return WalletDTO{
		ID:           wallet.ID().String(),
		UserID:       wallet.UserID().String(),
		CurrencyCode: wallet.Currency().Code(),
		Balance:      wallet.Balance().AmountString(),
		IsActive:     wallet.IsActive(),
		Version:      wallet.Version(),
		CreatedAt:    wallet.CreatedAt(),
		UpdatedAt:    wallet.UpdatedAt(),
	}
}

// ToWalletDTOList конвертирует список wallets.
func ToWalletDTOList(wallets []*entities.Wallet) []WalletDTO {
	result := make([]WalletDTO, len(wallets))
	for i, wallet := range wallets {
		result[i] = ToWalletDTO(wallet)
	}
	return result
}

// ============================================
// Transaction Mappers
// ============================================

// ToTransactionDTO конвертирует domain entity Transaction в DTO.
func ToTransactionDTO(tx *entities.Transaction) TransactionDTO {
	dto := TransactionDTO{
		ID:            tx.ID().String(),
		UserID:        tx.UserID().String(),
		WalletID:      tx.WalletID().String(),
		Reference:     tx.Reference(),
		Type:          string(tx.Type()),
		Status:        string(tx.Status()),
		Amount:        tx.Amount().AmountString(),
		CurrencyCode:  tx.Amount().Currency().Code(),
		FailureReason: tx.FailureReason(),
		CreatedAt:     tx.CreatedAt(),
		UpdatedAt:     tx.UpdatedAt(),
	}

	if metadata := tx.Metadata(); len(metadata) > 0 {
		dto.Metadata = metadata
	}
	if planID := tx.SavingsPlanID(); planID != nil {
		s := planID.String()
		dto.SavingsPlanID = &s
	}
	if callbackID := tx.GatewayCallbackID(); callbackID != nil {
		s := callbackID.String()
		dto.GatewayCallbackID = &s
	}

	return dto
}

// ToTransactionDTOList конвертирует список transactions.
func ToTransactionDTOList(transactions []*entities.Transaction) []TransactionDTO {
	result := make([]TransactionDTO, len(transactions))
	for i, tx := range transactions {
		result[i] = ToTransactionDTO(tx)
	}
	return result
}

// MapTransactionToDTO - вариант ToTransactionDTO, возвращающий указатель.
func MapTransactionToDTO(tx *entities.Transaction) *TransactionDTO {
	dto := ToTransactionDTO(tx)
	return &dto
}

// ============================================
// Savings Mappers
// ============================================

// ToSavingsPlanDTO конвертирует план в DTO, включая вычисляемые поля
// (остаток, число периодов, следующая дата списания).
func ToSavingsPlanDTO(plan *entities.SavingsPlan) SavingsPlanDTO {
	sched := plan.Schedule()
	dto := SavingsPlanDTO{
		ID:              plan.ID().String(),
		UserID:          plan.UserID().String(),
		WalletID:        plan.WalletID().String(),
		Name:            plan.Name(),
		CurrencyCode:    plan.Currency().Code(),
		TargetAmount:    plan.Target().AmountString(),
		AmountSaved:     plan.AmountSaved().AmountString(),
		RemainingAmount: plan.RemainingAmount().AmountString(),
		DeductionAmount: plan.DeductionAmount().AmountString(),
		Frequency:       string(sched.Frequency()),
		StartDate:       sched.StartDate().Format(DateLayout),
		EndDate:         sched.EndDate().Format(DateLayout),
		NumberOfPeriods: sched.NumberOfPeriods(),
		Status:          string(plan.Status()),
		CreatedAt:       plan.CreatedAt(),
		UpdatedAt:       plan.UpdatedAt(),
	}

	if last := plan.LastDeductionDate(); last != nil {
		dto.LastDeductionDate = formatDate(*last)
	}
	if plan.IsActive() && sched.IsRecurring() {
		if next, ok := sched.NextDue(plan.LastDeductionDate()); ok {
			dto.NextDueDate = formatDate(next)
		}
	}

	return dto
}

// ToSavingsPlanDTOList конвертирует список планов.
func ToSavingsPlanDTOList(plans []*entities.SavingsPlan) []SavingsPlanDTO {
	result := make([]SavingsPlanDTO, len(plans))
	for i, p := range plans {
		result[i] = ToSavingsPlanDTO(p)
	}
	return result
}

// ToNotificationDTO конвертирует уведомление.
func ToNotificationDTO(n *entities.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID().String(),
		UserID:    n.UserID().String(),
		Kind:      string(n.Kind()),
		Title:     n.Title(),
		Message:   n.Message(),
		Read:      n.IsRead(),
		CreatedAt: n.CreatedAt(),
	}
}

// ToNotificationDTOList конвертирует список уведомлений.
func ToNotificationDTOList(list []*entities.Notification) []NotificationDTO {
	result := make([]NotificationDTO, len(list))
	for i, n := range list {
		result[i] = ToNotificationDTO(n)
	}
	return result
}

// ============================================
// Helper functions
// ============================================

func formatDate(t time.Time) *string {
	s := schedule.Date(t).Format(DateLayout)
	return &s
}

// ParseDate разбирает дату YYYY-MM-DD; пустая строка - нулевое время.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
