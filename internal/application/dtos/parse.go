package dtos

import (
	"fmt"

	"github.com/Haleralex/walletledger/internal/domain/errors"
	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// ParseID разбирает UUID из команды; ошибка - ValidationError по полю field.
func ParseID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, errors.ValidationError{
			Field:   field,
			Message: fmt.Sprintf("invalid %s format", field),
		}
	}
	return id, nil
}

// ParseOptionalID - как ParseID, но пустая строка даёт nil.
func ParseOptionalID(field, value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := ParseID(field, value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// ParseMoney разбирает десятичную сумму в валюте currency.
func ParseMoney(field, amount string, currency valueobjects.Currency) (valueobjects.Money, error) {
	m, err := valueobjects.NewMoney(amount, currency)
	if err != nil {
		return valueobjects.Money{}, errors.ValidationError{
			Field:   field,
			Message: fmt.Sprintf("invalid amount: %v", err),
		}
	}
	return m, nil
}

// ParseCurrency разбирает код валюты; пустой код даёт fallback.
func ParseCurrency(code string, fallback valueobjects.Currency) (valueobjects.Currency, error) {
	if code == "" {
		return fallback, nil
	}
	c, err := valueobjects.NewCurrency(code)
	if err != nil {
		return valueobjects.Currency{}, errors.ValidationError{
			Field:   "currency_code",
			Message: fmt.Sprintf("unsupported currency: %s", code),
		}
	}
	return c, nil
}
