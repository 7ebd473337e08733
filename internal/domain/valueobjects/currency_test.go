// Package valueobjects_test demonstrates testing value objects.
package valueobjects_test

import (
	"testing"

	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
)

// TestNewCurrency_Success tests successful currency creation.
func TestNewCurrency_Success(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		want      string
		wantMinor int32
	}{
		{name: "NGN", code: "NGN", want: "NGN", wantMinor: 2},
		{name: "USD", code: "USD", want: "USD", wantMinor: 2},
		{name: "EUR lowercase", code: "eur", want: "EUR", wantMinor: 2},
		{name: "GBP with spaces", code: " GBP ", want: "GBP", wantMinor: 2},
		{name: "JPY has no minor unit", code: "JPY", want: "JPY", wantMinor: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			curr, err := valueobjects.NewCurrency(tt.code)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if curr.Code() != tt.want {
				t.Errorf("Code() = %v, want %v", curr.Code(), tt.want)
			}
			if curr.MinorUnits() != tt.wantMinor {
				t.Errorf("MinorUnits() = %v, want %v", curr.MinorUnits(), tt.wantMinor)
			}
		})
	}
}

// TestNewCurrency_Invalid tests invalid currency codes.
func TestNewCurrency_Invalid(t *testing.T) {
	for _, code := range []string{"XXX", "INVALID", "", "BTC", "123"} {
		t.Run(code, func(t *testing.T) {
			_, err := valueobjects.NewCurrency(code)
			if err != valueobjects.ErrInvalidCurrency {
				t.Errorf("Expected ErrInvalidCurrency, got %v", err)
			}
		})
	}
}

func TestMustNewCurrency_Panics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for unsupported currency")
		}
	}()
	valueobjects.MustNewCurrency("DOGE")
}

func TestCurrency_Equals(t *testing.T) {
	if !valueobjects.NGN.Equals(valueobjects.MustNewCurrency("ngn")) {
		t.Error("NGN should equal parsed ngn")
	}
	if valueobjects.NGN.Equals(valueobjects.USD) {
		t.Error("NGN should not equal USD")
	}
	if !(valueobjects.Currency{}).IsZero() {
		t.Error("zero Currency should report IsZero")
	}
}
