// Package entities - Wallet is the per-user stored balance.
// It enforces the non-negative balance rule for every debit.
package entities

import (
	"fmt"
	"time"

	"github.com/Haleralex/walletledger/internal/domain/errors"
	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// Wallet represents a user's single balance in one currency.
//
// Entity Pattern:
//   - Has identity (ID), owned 1:1 by a User
//   - Enforces invariants (balance >= 0, currency match, active flag)
//   - version is bumped on every change and checked by the repository;
//   version 0 means the wallet has never been stored
type Wallet struct {
	id       uuid.UUID
	userID   uuid.UUID
	currency valueobjects.Currency
	balance  valueobjects.Money
	isActive bool
	version  int64

	createdAt time.Time
	updatedAt time.Time
}

// NewWallet creates a new active wallet with zero balance.
//
// Business Rules:
//   - User must exist (checked by application layer)
//   - Currency must be supported
//   - One wallet per user (checked by repository)
func NewWallet(userID uuid.UUID, currency valueobjects.Currency) (*Wallet, error) {
	if userID == uuid.Nil {
		return nil, errors.ValidationError{Field: "userID", Message: "owner is required"}
	}
	if currency.IsZero() {
		return nil, errors.ValidationError{Field: "currency", Message: "currency is required"}
	}

	now := time.Now().UTC()
	return &Wallet{
		id:        uuid.New(),
		userID:    userID,
		currency:  currency,
		balance:   valueobjects.Zero(currency),
		isActive:  true,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructWallet reconstructs a Wallet from stored data.
func ReconstructWallet(
	id, userID uuid.UUID,
	currency valueobjects.Currency,
	balance valueobjects.Money,
	isActive bool,
	version int64,
	createdAt, updatedAt time.Time,
) *Wallet {
	return &Wallet{
		id:        id,
		userID:    userID,
		currency:  currency,
		balance:   balance,
		isActive:  isActive,
		version:   version,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// Getters

func (w *Wallet) ID() uuid.UUID {
	return w.id
}

func (w *Wallet) UserID() uuid.UUID {
	return w.userID
}

func (w *Wallet) Currency() valueobjects.Currency {
	return w.currency
}

func (w *Wallet) Balance() valueobjects.Money {
	return w.balance
}

func (w *Wallet) IsActive() bool {
	return w.isActive
}

func (w *Wallet) Version() int64 {
	return w.version
}

func (w *Wallet) CreatedAt() time.Time {
	return w.createdAt
}

func (w *Wallet) UpdatedAt() time.Time {
	return w.updatedAt
}

// Business Methods

// CheckUsable verifies the wallet can take a mutation in the given currency.
// Both failures are reported as ErrWalletMisconfigured.
func (w *Wallet) CheckUsable(currency valueobjects.Currency) error {
	if !w.isActive {
		return errors.ErrWalletNotActive
	}
	if !w.currency.Equals(currency) {
		return fmt.Errorf("%w: wallet currency %s, transaction currency %s",
			errors.ErrWalletMisconfigured, w.currency.Code(), currency.Code())
	}
	return nil
}

// HasSufficientBalance checks if the wallet holds at least amount.
func (w *Wallet) HasSufficientBalance(amount valueobjects.Money) (bool, error) {
	return w.balance.GreaterThanOrEqual(amount)
}

// Credit adds funds to the wallet.
func (w *Wallet) Credit(amount valueobjects.Money) error {
	if err := w.CheckUsable(amount.Currency()); err != nil {
		return err
	}

	newBalance, err := w.balance.Add(amount)
	if err != nil {
		return err
	}

	w.balance = newBalance
	w.version++
	w.updatedAt = time.Now().UTC()
	return nil
}

// Debit subtracts funds from the wallet.
// If the balance would go negative it returns an INSUFFICIENT_FUNDS violation
// and leaves the balance untouched.
func (w *Wallet) Debit(amount valueobjects.Money) error {
	if err := w.CheckUsable(amount.Currency()); err != nil {
		return err
	}

	hasSufficient, err := w.HasSufficientBalance(amount)
	if err != nil {
		return err
	}
	if !hasSufficient {
		return errors.NewInsufficientFunds(w.id.String(), w.balance.AmountString(), amount.AmountString())
	}

	newBalance, err := w.balance.Subtract(amount)
	if err != nil {
		return err
	}

	w.balance = newBalance
	w.version++
	w.updatedAt = time.Now().UTC()
	return nil
}

// Activate re-enables mutations on the wallet.
func (w *Wallet) Activate() {
	if w.isActive {
		return
	}
	w.isActive = true
	w.version++
	w.updatedAt = time.Now().UTC()
}

// Deactivate blocks all balance mutations until the wallet is activated again.
func (w *Wallet) Deactivate() {
	if !w.isActive {
		return
	}
	w.isActive = false
	w.version++
	w.updatedAt = time.Now().UTC()
}
