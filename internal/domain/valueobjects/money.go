// Package valueobjects - Money combines a fixed-point amount and a currency
// so that amounts in different currencies can never be mixed by accident.
package valueobjects

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money represents a non-negative monetary amount with its currency.
//
// Value Object Pattern:
//   - Immutable: All operations return new Money instances
//   - Self-validating: Cannot create negative Money
//   - Type-safe: Prevents mixing currencies
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// Common domain errors for Money operations
var (
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrCurrencyMismatch   = errors.New("cannot operate on different currencies")
	ErrInsufficientAmount = errors.New("insufficient amount")
	ErrInvalidAmount      = errors.New("invalid amount format")
)

// NewMoney creates a Money instance from a decimal string (e.g. "100.50").
//
// Returns error if the amount cannot be parsed, is negative or is finer
// than the currency's minor unit.
func NewMoney(amountStr string, currency Currency) (Money, error) {
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amountStr)
	}
	return NewMoneyFromDecimal(amount, currency)
}

// NewMoneyFromDecimal creates Money from an already parsed decimal.
//
// The amount must be representable in the currency's minor unit: "1.005" NGN
// and "1.5" JPY are rejected, "1.500" NGN is accepted.
func NewMoneyFromDecimal(amount decimal.Decimal, currency Currency) (Money, error) {
	if amount.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	if !amount.Equal(amount.Truncate(currency.MinorUnits())) {
		return Money{}, fmt.Errorf("%w: %s has more than %d decimal places for %s",
			ErrInvalidAmount, amount.String(), currency.MinorUnits(), currency.Code())
	}
	return Money{amount: amount, currency: currency}, nil
}

// NewMoneyFromMinor creates Money from the smallest currency unit (kobo, cents).
//
// Example:
//
//	NewMoneyFromMinor(10050, NGN) // ₦100.50
func NewMoneyFromMinor(minor int64, currency Currency) (Money, error) {
	if minor < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{
		amount:   decimal.New(minor, -currency.MinorUnits()),
		currency: currency,
	}, nil
}

// MustNewMoney panics on invalid input. Intended for tests and fixtures.
func MustNewMoney(amountStr string, currency Currency) Money {
	m, err := NewMoney(amountStr, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero creates a zero money amount for the given currency.
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Currency returns the currency of this money.
func (m Money) Currency() Currency {
	return m.currency
}

// Amount returns the underlying decimal amount.
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// String returns the amount with the currency's minor unit precision, e.g. "100.50 NGN".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.AmountString(), m.currency.Code())
}

// AmountString returns the amount formatted with the currency's minor unit precision.
func (m Money) AmountString() string {
	return m.amount.StringFixed(m.currency.MinorUnits())
}

// MinorUnits returns the amount in the smallest currency unit, truncating
// anything below it.
func (m Money) MinorUnits() int64 {
	return m.amount.Shift(m.currency.MinorUnits()).IntPart()
}

// Add returns a new Money with the sum of two amounts.
func (m Money) Add(other Money) (Money, error) {
	if !m.currency.Equals(other.currency) {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract returns a new Money with the difference.
// Returns ErrInsufficientAmount if the result would be negative.
func (m Money) Subtract(other Money) (Money, error) {
	if !m.currency.Equals(other.currency) {
		return Money{}, ErrCurrencyMismatch
	}

	diff := m.amount.Sub(other.amount)
	if diff.IsNegative() {
		return Money{}, ErrInsufficientAmount
	}
	return Money{amount: diff, currency: m.currency}, nil
}

// SubtractFloor returns m - other, or zero when other is larger.
func (m Money) SubtractFloor(other Money) (Money, error) {
	diff, err := m.Subtract(other)
	if errors.Is(err, ErrInsufficientAmount) {
		return Zero(m.currency), nil
	}
	return diff, err
}

// DivideRoundUp splits the amount into n equal parts, rounding each part up
// to the currency's minor unit so that n parts always cover the whole.
func (m Money) DivideRoundUp(n int64) (Money, error) {
	if n <= 0 {
		return Money{}, fmt.Errorf("%w: divisor must be positive, got %d", ErrInvalidAmount, n)
	}

	scale := m.currency.MinorUnits()
	minor := m.amount.Shift(scale).Div(decimal.NewFromInt(n)).Ceil()
	return Money{amount: minor.Shift(-scale), currency: m.currency}, nil
}

// Min returns the smaller of two amounts.
func (m Money) Min(other Money) (Money, error) {
	less, err := m.LessThan(other)
	if err != nil {
		return Money{}, err
	}
	if less {
		return m, nil
	}
	return other, nil
}

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// GreaterThan checks if this money is greater than another.
func (m Money) GreaterThan(other Money) (bool, error) {
	if !m.currency.Equals(other.currency) {
		return false, ErrCurrencyMismatch
	}
	return m.amount.GreaterThan(other.amount), nil
}

// GreaterThanOrEqual checks if this money is >= another.
func (m Money) GreaterThanOrEqual(other Money) (bool, error) {
	if !m.currency.Equals(other.currency) {
		return false, ErrCurrencyMismatch
	}
	return m.amount.GreaterThanOrEqual(other.amount), nil
}

// LessThan checks if this money is less than another.
func (m Money) LessThan(other Money) (bool, error) {
	if !m.currency.Equals(other.currency) {
		return false, ErrCurrencyMismatch
	}
	return m.amount.LessThan(other.amount), nil
}

// Equals checks if two money values are equal (amount and currency).
// 1.5 and 1.50 are equal.
func (m Money) Equals(other Money) bool {
	return m.currency.Equals(other.currency) && m.amount.Equal(other.amount)
}
