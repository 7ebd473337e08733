// Package handlers содержит HTTP handlers для REST API.
//
// Handler - это Adapter в терминах Clean Architecture:
//   - Принимает HTTP запрос
//   - Преобразует в Command/Query DTO
//   - Вызывает Use Case
//   - Преобразует результат в HTTP ответ
package handlers

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/Haleralex/walletledger/internal/adapters/http/common"
	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
)

// ============================================
// Custom Validator Setup
// ============================================

var setupOnce sync.Once

// SetupValidator настраивает кастомные валидаторы для Gin.
func SetupValidator() {
	setupOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			// Используем json tag для имён полей в ошибках
			v.RegisterTagNameFunc(func(fld reflect.StructField) string {
				for _, tag := range []string{"json", "form", "uri"} {
					name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
					if name == "-" {
						return ""
					}
					if name != "" {
						return name
					}
				}
				return fld.Name
			})

			_ = v.RegisterValidation("currency", validateCurrency)
			_ = v.RegisterValidation("amount", validateAmount)
			_ = v.RegisterValidation("date", validateDate)
		}
	})
}

// ============================================
// Custom Validators
// ============================================

// validateCurrency - поддерживаемый ISO 4217 код ровно в верхнем регистре.
// Домен принимает "ngn", API - нет: код в запросе совпадает с кодом в ответе.
func validateCurrency(fl validator.FieldLevel) bool {
	code := fl.Field().String()
	return code == strings.ToUpper(code) && code == strings.TrimSpace(code) &&
		valueobjects.IsSupportedCurrency(code)
}

// amountPattern - десятичная строка без знака и экспоненты.
var amountPattern = regexp.MustCompile(`^\d{1,18}(\.\d+)?$`)

// validateAmount - положительная десятичная сумма ("100.50").
//
// Параметр тега - имя поля с кодом валюты (amount=CurrencyCode): число знаков
// после точки ограничено минорной единицей этой валюты. Без параметра или без
// кода - максимумом по поддерживаемым валютам; точную проверку для валюты
// кошелька делает домен (valueobjects.NewMoney).
func validateAmount(fl validator.FieldLevel) bool {
	amount := fl.Field().String()
	if !amountPattern.MatchString(amount) {
		return false
	}
	d, err := decimal.NewFromString(amount)
	if err != nil || !d.IsPositive() {
		return false
	}
	return decimalPlaces(amount) <= amountScale(fl)
}

func decimalPlaces(amount string) int32 {
	_, frac, found := strings.Cut(amount, ".")
	if !found {
		return 0
	}
	return int32(len(strings.TrimRight(frac, "0")))
}

func amountScale(fl validator.FieldLevel) int32 {
	scale := valueobjects.MaxMinorUnits()
	if fl.Param() == "" {
		return scale
	}
	parent := reflect.Indirect(fl.Parent())
	if parent.Kind() != reflect.Struct {
		return scale
	}
	field := parent.FieldByName(fl.Param())
	if !field.IsValid() || field.Kind() != reflect.String {
		return scale
	}
	if currency, err := valueobjects.NewCurrency(field.String()); err == nil {
		return currency.MinorUnits()
	}
	return scale
}

// datePattern - YYYY-MM-DD.
var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func validateDate(fl validator.FieldLevel) bool {
	return datePattern.MatchString(fl.Field().String())
}

// ============================================
// Validation Error Handling
// ============================================

// HandleValidationErrors преобразует ошибки валидации в HTTP ответ.
func HandleValidationErrors(c *gin.Context, err error) {
	var fieldErrors []common.FieldError

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, fieldErr := range validationErrors {
			fieldErrors = append(fieldErrors, common.FieldError{
				Field:   fieldErr.Field(),
				Message: getValidationMessage(fieldErr),
				Code:    fieldErr.Tag(),
			})
		}
	}

	if len(fieldErrors) == 0 {
		common.BadRequestResponse(c, "Invalid request body: "+err.Error())
		return
	}

	common.ValidationErrorResponse(c, fieldErrors)
}

// getValidationMessage возвращает человекочитаемое сообщение об ошибке.
func getValidationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "uuid":
		return "Invalid UUID format"
	case "min":
		return "Value is too short (minimum: " + fe.Param() + ")"
	case "max":
		return "Value is too long (maximum: " + fe.Param() + ")"
	case "len":
		return "Value must be exactly " + fe.Param() + " characters"
	case "oneof":
		return "Value must be one of: " + fe.Param()
	case "currency":
		return "Unsupported currency code"
	case "amount":
		return "Invalid amount (use a positive decimal like '100.50')"
	case "date":
		return "Invalid date (use YYYY-MM-DD)"
	default:
		return "Invalid value"
	}
}

// ============================================
// Request Parsing Helpers
// ============================================

// BindJSON биндит JSON тело запроса.
// Возвращает false если была ошибка (ответ уже отправлен).
func BindJSON[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// BindQuery биндит query параметры.
func BindQuery[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// BindURI биндит URI параметры.
func BindURI[T any](c *gin.Context, req *T) bool {
	if err := c.ShouldBindUri(req); err != nil {
		HandleValidationErrors(c, err)
		return false
	}
	return true
}

// ============================================
// Pagination Helper
// ============================================

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// PaginationParams - параметры пагинации из query string.
type PaginationParams struct {
	Page    int
	PerPage int
}

// DefaultPaginationParams возвращает параметры по умолчанию.
func DefaultPaginationParams() PaginationParams {
	return PaginationParams{Page: 1, PerPage: defaultPerPage}
}

// Offset вычисляет offset для SQL запроса.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// ParsePagination парсит параметры пагинации; некорректные значения заменяются дефолтами.
func ParsePagination(c *gin.Context) PaginationParams {
	params := DefaultPaginationParams()

	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		params.Page = p
	}
	if pp, err := strconv.Atoi(c.Query("per_page")); err == nil && pp > 0 && pp <= maxPerPage {
		params.PerPage = pp
	}

	return params
}

// BuildMeta создаёт мета-информацию для пагинированного ответа.
// total < 0 - общее количество неизвестно (списки без COUNT).
func BuildMeta(params PaginationParams, total int) *common.APIMeta {
	meta := &common.APIMeta{
		Page:    params.Page,
		PerPage: params.PerPage,
	}
	if total < 0 {
		return meta
	}

	meta.Total = total
	meta.TotalPages = total / params.PerPage
	if total%params.PerPage > 0 {
		meta.TotalPages++
	}
	return meta
}
