// Package entities - SavingsPlan is a commitment to move money out of a wallet
// toward a target, once or on a recurring schedule.
package entities

import (
	"strings"
	"time"

	"github.com/Haleralex/walletledger/internal/domain/errors"
	"github.com/Haleralex/walletledger/internal/domain/schedule"
	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// SavingsPlanStatus represents the lifecycle of a savings plan.
type SavingsPlanStatus string

const (
	SavingsPlanStatusActive    SavingsPlanStatus = "active"
	SavingsPlanStatusCompleted SavingsPlanStatus = "completed"
	SavingsPlanStatusCancelled SavingsPlanStatus = "cancelled"
)

// IsValid checks if the plan status is valid.
func (s SavingsPlanStatus) IsValid() bool {
	switch s {
	case SavingsPlanStatusActive, SavingsPlanStatusCompleted, SavingsPlanStatusCancelled:
		return true
	default:
		return false
	}
}

// SavingsPlan aggregates the funding progress of one savings goal.
//
// Invariants:
//   - amountSaved equals the sum of successful savings_funding transactions
//   linked to the plan (maintained by RecordFunding, called from the ledger)
//   - status is completed exactly when amountSaved >= target
//   - deductionAmount is recomputed whenever target or schedule change
type SavingsPlan struct {
	id       uuid.UUID
	userID   uuid.UUID
	walletID uuid.UUID
	name     string

	target          valueobjects.Money
	amountSaved     valueobjects.Money
	schedule        schedule.Schedule
	deductionAmount valueobjects.Money
	status          SavingsPlanStatus

	lastDeductionDate *time.Time

	createdAt time.Time
	updatedAt time.Time
}

// NewSavingsPlan creates an active plan and computes its per-period deduction.
func NewSavingsPlan(
	userID, walletID uuid.UUID,
	name string,
	target valueobjects.Money,
	sched schedule.Schedule,
) (*SavingsPlan, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.ValidationError{Field: "name", Message: "name is required"}
	}
	if !target.IsPositive() {
		return nil, errors.ValidationError{Field: "targetAmount", Message: "target amount must be positive"}
	}
	if sched.Frequency() == "" {
		return nil, errors.ValidationError{Field: "schedule", Message: "schedule is required"}
	}

	deduction, err := schedule.DeductionAmount(target, sched)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &SavingsPlan{
		id:              uuid.New(),
		userID:          userID,
		walletID:        walletID,
		name:            name,
		target:          target,
		amountSaved:     valueobjects.Zero(target.Currency()),
		schedule:        sched,
		deductionAmount: deduction,
		status:          SavingsPlanStatusActive,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

// ReconstructSavingsPlan reconstructs a SavingsPlan from stored data.
func ReconstructSavingsPlan(
	id, userID, walletID uuid.UUID,
	name string,
	target, amountSaved valueobjects.Money,
	sched schedule.Schedule,
	deductionAmount valueobjects.Money,
	status SavingsPlanStatus,
	lastDeductionDate *time.Time,
	createdAt, updatedAt time.Time,
) *SavingsPlan {
	return &SavingsPlan{
		id:                id,
		userID:            userID,
		walletID:          walletID,
		name:              name,
		target:            target,
		amountSaved:       amountSaved,
		schedule:          sched,
		deductionAmount:   deductionAmount,
		status:            status,
		lastDeductionDate: lastDeductionDate,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// Getters

func (p *SavingsPlan) ID() uuid.UUID { return p.id }
func (p *SavingsPlan) UserID() uuid.UUID { return p.userID }
func (p *SavingsPlan) WalletID() uuid.UUID { return p.walletID }
func (p *SavingsPlan) Name() string { return p.name }
func (p *SavingsPlan) Target() valueobjects.Money { return p.target }
func (p *SavingsPlan) AmountSaved() valueobjects.Money { return p.amountSaved }
func (p *SavingsPlan) Schedule() schedule.Schedule { return p.schedule }
func (p *SavingsPlan) DeductionAmount() valueobjects.Money { return p.deductionAmount }
func (p *SavingsPlan) Status() SavingsPlanStatus { return p.status }
func (p *SavingsPlan) LastDeductionDate() *time.Time { return p.lastDeductionDate }
func (p *SavingsPlan) CreatedAt() time.Time { return p.createdAt }
func (p *SavingsPlan) UpdatedAt() time.Time { return p.updatedAt }

// Currency returns the plan's currency (the target's currency).
func (p *SavingsPlan) Currency() valueobjects.Currency {
	return p.target.Currency()
}

func (p *SavingsPlan) IsActive() bool {
	return p.status == SavingsPlanStatusActive
}

func (p *SavingsPlan) IsCompleted() bool {
	return p.status == SavingsPlanStatusCompleted
}

// RemainingAmount is what is still missing to reach the target (never negative).
func (p *SavingsPlan) RemainingAmount() valueobjects.Money {
	remaining, err := p.target.SubtractFloor(p.amountSaved)
	if err != nil {
		return valueobjects.Zero(p.target.Currency())
	}
	return remaining
}

// NextDeduction is the amount the scheduler should debit next: the per-period
// deduction capped at the remaining amount.
func (p *SavingsPlan) NextDeduction() (valueobjects.Money, error) {
	return p.deductionAmount.Min(p.RemainingAmount())
}

// DueOccurrence reports whether a recurring deduction is due on asOf and which
// occurrence date it settles.
func (p *SavingsPlan) DueOccurrence(asOf time.Time) (time.Time, bool) {
	if !p.IsActive() || !p.schedule.IsRecurring() {
		return time.Time{}, false
	}
	return p.schedule.IsDue(p.lastDeductionDate, asOf)
}

// RecordFunding adds a successful funding amount to the plan.
// Returns true when this funding completed the plan.
func (p *SavingsPlan) RecordFunding(amount valueobjects.Money) (bool, error) {
	if !p.IsActive() {
		return false, &errors.BusinessRuleViolation{
			Rule:    "SAVINGS_PLAN_NOT_ACTIVE",
			Message: "only active savings plans can be funded",
			Context: map[string]interface{}{"planID": p.id.String(), "status": p.status},
			Err:     errors.ErrSavingsPlanNotActive,
		}
	}
	if !amount.IsPositive() {
		return false, errors.ValidationError{Field: "amount", Message: "funding amount must be positive"}
	}

	saved, err := p.amountSaved.Add(amount)
	if err != nil {
		return false, err
	}

	p.amountSaved = saved
	p.updatedAt = time.Now().UTC()
	return p.completeIfReached()
}

// AdvanceDeductionMarker records the occurrence date settled by the last
// successful scheduled deduction.
func (p *SavingsPlan) AdvanceDeductionMarker(occurrence time.Time) {
	d := schedule.Date(occurrence)
	p.lastDeductionDate = &d
	p.updatedAt = time.Now().UTC()
}

// Reschedule changes target and schedule and recomputes the per-period deduction.
func (p *SavingsPlan) Reschedule(target valueobjects.Money, sched schedule.Schedule) (bool, error) {
	if !p.IsActive() {
		return false, &errors.BusinessRuleViolation{
			Rule:    "SAVINGS_PLAN_NOT_ACTIVE",
			Message: "only active savings plans can be rescheduled",
			Context: map[string]interface{}{"planID": p.id.String(), "status": p.status},
			Err:     errors.ErrSavingsPlanNotActive,
		}
	}
	if !target.IsPositive() {
		return false, errors.ValidationError{Field: "targetAmount", Message: "target amount must be positive"}
	}
	if !target.Currency().Equals(p.target.Currency()) {
		return false, errors.ValidationError{Field: "currency", Message: "target currency cannot change"}
	}

	deduction, err := schedule.DeductionAmount(target, sched)
	if err != nil {
		return false, err
	}

	p.target = target
	p.schedule = sched
	p.deductionAmount = deduction
	p.updatedAt = time.Now().UTC()
	return p.completeIfReached()
}

// Cancel stops the plan. Saved funds are not returned automatically.
func (p *SavingsPlan) Cancel() error {
	if !p.IsActive() {
		return &errors.BusinessRuleViolation{
			Rule:    "SAVINGS_PLAN_NOT_ACTIVE",
			Message: "only active savings plans can be cancelled",
			Context: map[string]interface{}{"planID": p.id.String(), "status": p.status},
			Err:     errors.ErrSavingsPlanNotActive,
		}
	}
	p.status = SavingsPlanStatusCancelled
	p.updatedAt = time.Now().UTC()
	return nil
}

func (p *SavingsPlan) completeIfReached() (bool, error) {
	reached, err := p.amountSaved.GreaterThanOrEqual(p.target)
	if err != nil {
		return false, err
	}
	if reached {
		p.status = SavingsPlanStatusCompleted
	}
	return reached, nil
}
