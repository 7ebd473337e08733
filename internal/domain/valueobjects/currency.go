// Package valueobjects contains immutable value objects that represent domain concepts
// without identity. They are compared by their values, not by identity.
package valueobjects

import (
	"errors"
	"strings"
)

// Currency represents a monetary currency code (ISO 4217) together with
// the number of digits in its minor unit.
//
// Value Object Pattern: No identity, compared by value, immutable.
type Currency struct {
	code       string
	minorUnits int32
}

// Predefined supported currencies.
var (
	NGN = Currency{code: "NGN", minorUnits: 2}
	USD = Currency{code: "USD", minorUnits: 2}
	EUR = Currency{code: "EUR", minorUnits: 2}
	GBP = Currency{code: "GBP", minorUnits: 2}
	JPY = Currency{code: "JPY", minorUnits: 0}
)

// supportedCurrencies is the whitelist of allowed currencies keyed by code.
var supportedCurrencies = map[string]Currency{
	NGN.code: NGN,
	USD.code: USD,
	EUR.code: EUR,
	GBP.code: GBP,
	JPY.code: JPY,
}

// ErrInvalidCurrency is returned when an invalid currency code is provided.
var ErrInvalidCurrency = errors.New("invalid currency code")

// NewCurrency creates a new Currency value object with validation.
// The code is matched case-insensitively.
//
// Example:
//
//	curr, err := NewCurrency("ngn")
//	if err != nil {
//	    // handle error
//	}
func NewCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	curr, ok := supportedCurrencies[code]
	if !ok {
		return Currency{}, ErrInvalidCurrency
	}
	return curr, nil
}

// MustNewCurrency panics on invalid input.
// Use only in initialization code where invalid input indicates a programming error.
func MustNewCurrency(code string) Currency {
	curr, err := NewCurrency(code)
	if err != nil {
		panic(err)
	}
	return curr
}

// IsSupportedCurrency reports whether code names a supported currency.
func IsSupportedCurrency(code string) bool {
	_, err := NewCurrency(code)
	return err == nil
}

// MaxMinorUnits returns the largest minor unit precision among supported currencies.
func MaxMinorUnits() int32 {
	var max int32
	for _, c := range supportedCurrencies {
		if c.minorUnits > max {
			max = c.minorUnits
		}
	}
	return max
}

// Code returns the ISO 4217 currency code.
func (c Currency) Code() string {
	return c.code
}

// MinorUnits returns the number of decimal places of the currency's minor unit
// (2 for kobo/cents, 0 for yen).
func (c Currency) MinorUnits() int32 {
	return c.minorUnits
}

// Equals checks if two currencies are the same.
func (c Currency) Equals(other Currency) bool {
	return c.code == other.code
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return c.code
}

// IsZero checks if this is an uninitialized currency.
func (c Currency) IsZero() bool {
	return c.code == ""
}
