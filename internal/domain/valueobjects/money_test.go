// Package valueobjects_test covers Money arithmetic.
// Domain tests have no external dependencies.
package valueobjects_test

import (
	"errors"
	"testing"

	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
)

// TestNewMoney_Success tests successful money creation.
func TestNewMoney_Success(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency valueobjects.Currency
		want     string
	}{
		{name: "Valid NGN amount", amount: "100.50", currency: valueobjects.NGN, want: "100.50 NGN"},
		{name: "Zero amount", amount: "0", currency: valueobjects.EUR, want: "0.00 EUR"},
		{name: "Whole yen", amount: "1500", currency: valueobjects.JPY, want: "1500 JPY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			money, err := valueobjects.NewMoney(tt.amount, tt.currency)
			if err != nil {
				t.Fatalf("NewMoney() error = %v", err)
			}
			if money.String() != tt.want {
				t.Errorf("String() = %q, want %q", money.String(), tt.want)
			}
		})
	}
}

// TestNewMoney_NegativeAmount tests that negative amounts are rejected.
func TestNewMoney_NegativeAmount(t *testing.T) {
	_, err := valueobjects.NewMoney("-0.01", valueobjects.NGN)
	if !errors.Is(err, valueobjects.ErrNegativeAmount) {
		t.Errorf("Expected ErrNegativeAmount, got %v", err)
	}
}

func TestNewMoney_InvalidFormat(t *testing.T) {
	for _, s := range []string{"", "abc", "1,000"} {
		_, err := valueobjects.NewMoney(s, valueobjects.NGN)
		if !errors.Is(err, valueobjects.ErrInvalidAmount) {
			t.Errorf("NewMoney(%q): expected ErrInvalidAmount, got %v", s, err)
		}
	}
}

func TestNewMoney_PrecisionBeyondMinorUnit(t *testing.T) {
	tests := []struct {
		amount   string
		currency valueobjects.Currency
	}{
		{"1.005", valueobjects.NGN},
		{"0.00001", valueobjects.NGN},
		{"0.001", valueobjects.USD},
		{"1.5", valueobjects.JPY},
	}

	for _, tt := range tests {
		_, err := valueobjects.NewMoney(tt.amount, tt.currency)
		if !errors.Is(err, valueobjects.ErrInvalidAmount) {
			t.Errorf("NewMoney(%q, %s): expected ErrInvalidAmount, got %v", tt.amount, tt.currency, err)
		}
	}
}

// Trailing zeros come back from NUMERIC columns and are not extra precision.
func TestNewMoney_TrailingZerosAccepted(t *testing.T) {
	for _, tt := range []struct {
		amount   string
		currency valueobjects.Currency
		want     string
	}{
		{"100.5000", valueobjects.NGN, "100.50"},
		{"1500.0000", valueobjects.JPY, "1500"},
	} {
		m, err := valueobjects.NewMoney(tt.amount, tt.currency)
		if err != nil {
			t.Fatalf("NewMoney(%q): %v", tt.amount, err)
		}
		if m.AmountString() != tt.want {
			t.Errorf("AmountString() = %s, want %s", m.AmountString(), tt.want)
		}
	}
}

func TestNewMoneyFromMinor(t *testing.T) {
	m, err := valueobjects.NewMoneyFromMinor(10050, valueobjects.NGN)
	if err != nil {
		t.Fatal(err)
	}
	if m.AmountString() != "100.50" {
		t.Errorf("AmountString() = %s, want 100.50", m.AmountString())
	}
	if m.MinorUnits() != 10050 {
		t.Errorf("MinorUnits() = %d, want 10050", m.MinorUnits())
	}
}

// TestMoney_Add_DecimalPrecision guards against float drift (0.1 + 0.2).
func TestMoney_Add_DecimalPrecision(t *testing.T) {
	a := valueobjects.MustNewMoney("0.1", valueobjects.USD)
	b := valueobjects.MustNewMoney("0.2", valueobjects.USD)

	sum, err := a.Add(b)
	if err != nil {
		t.Fatal(err)
	}
	if !sum.Equals(valueobjects.MustNewMoney("0.3", valueobjects.USD)) {
		t.Errorf("0.1 + 0.2 = %s, want 0.30 USD", sum)
	}
}

func TestMoney_CurrencyMismatch(t *testing.T) {
	ngn := valueobjects.MustNewMoney("10", valueobjects.NGN)
	usd := valueobjects.MustNewMoney("10", valueobjects.USD)

	if _, err := ngn.Add(usd); !errors.Is(err, valueobjects.ErrCurrencyMismatch) {
		t.Errorf("Add: expected ErrCurrencyMismatch, got %v", err)
	}
	if _, err := ngn.Subtract(usd); !errors.Is(err, valueobjects.ErrCurrencyMismatch) {
		t.Errorf("Subtract: expected ErrCurrencyMismatch, got %v", err)
	}
	if _, err := ngn.LessThan(usd); !errors.Is(err, valueobjects.ErrCurrencyMismatch) {
		t.Errorf("LessThan: expected ErrCurrencyMismatch, got %v", err)
	}
}

func TestMoney_Subtract(t *testing.T) {
	balance := valueobjects.MustNewMoney("50.00", valueobjects.NGN)

	rest, err := balance.Subtract(valueobjects.MustNewMoney("49.99", valueobjects.NGN))
	if err != nil {
		t.Fatal(err)
	}
	if rest.AmountString() != "0.01" {
		t.Errorf("got %s, want 0.01", rest.AmountString())
	}

	_, err = balance.Subtract(valueobjects.MustNewMoney("50.01", valueobjects.NGN))
	if !errors.Is(err, valueobjects.ErrInsufficientAmount) {
		t.Errorf("Expected ErrInsufficientAmount, got %v", err)
	}

	floor, err := balance.SubtractFloor(valueobjects.MustNewMoney("80", valueobjects.NGN))
	if err != nil || !floor.IsZero() {
		t.Errorf("SubtractFloor = %v, %v; want zero", floor, err)
	}
}

func TestMoney_DivideRoundUp(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency valueobjects.Currency
		parts    int64
		want     string
	}{
		{name: "exact split", amount: "90.00", currency: valueobjects.NGN, parts: 3, want: "30.00"},
		{name: "repeating decimal rounds up", amount: "100", currency: valueobjects.NGN, parts: 3, want: "33.34"},
		{name: "sub-kobo remainder rounds up", amount: "10.00", currency: valueobjects.NGN, parts: 7, want: "1.43"},
		{name: "zero minor units", amount: "1000", currency: valueobjects.JPY, parts: 3, want: "334"},
		{name: "single part", amount: "12.34", currency: valueobjects.USD, parts: 1, want: "12.34"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valueobjects.MustNewMoney(tt.amount, tt.currency)
			got, err := m.DivideRoundUp(tt.parts)
			if err != nil {
				t.Fatal(err)
			}
			if got.AmountString() != tt.want {
				t.Errorf("DivideRoundUp(%d) = %s, want %s", tt.parts, got.AmountString(), tt.want)
			}
		})
	}

	if _, err := valueobjects.Zero(valueobjects.NGN).DivideRoundUp(0); err == nil {
		t.Error("expected error for zero divisor")
	}
}

func TestMoney_Min(t *testing.T) {
	a := valueobjects.MustNewMoney("5", valueobjects.NGN)
	b := valueobjects.MustNewMoney("7", valueobjects.NGN)

	got, err := b.Min(a)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equals(a) {
		t.Errorf("Min = %s, want %s", got, a)
	}
}
