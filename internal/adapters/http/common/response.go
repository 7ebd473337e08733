// Package common содержит общие типы для HTTP слоя.
//
// Вынесен в отдельный пакет чтобы избежать циклических импортов
// между handlers и основным http пакетом.
package common

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Haleralex/walletledger/internal/application/ports"
	domainerrors "github.com/Haleralex/walletledger/internal/domain/errors"
)

// ============================================
// Standard API Response Format
// ============================================

// APIResponse - стандартный формат ответа API.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Meta      *APIMeta    `json:"meta,omitempty"`
	RequestID string      `json:"request_id"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIMeta - мета-информация для пагинации.
type APIMeta struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	Total      int `json:"total,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
}

// APIError - структура ошибки API.
type APIError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Fields     []FieldError           `json:"fields,omitempty"`
	RetryAfter int                    `json:"retry_after,omitempty"`
}

// FieldError - ошибка конкретного поля.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ============================================
// Error Codes
// ============================================

const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"
	ErrCodeBusinessRule     = "BUSINESS_RULE_VIOLATION"
	ErrCodeDuplicateRequest = "DUPLICATE_REQUEST"
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeConcurrency      = "CONCURRENCY_ERROR"
	ErrCodeTimeout          = "TIMEOUT"
	ErrCodeUnavailable      = "SERVICE_UNAVAILABLE"
	ErrCodeGateway          = "GATEWAY_ERROR"
	ErrCodeInvalidSignature = "INVALID_SIGNATURE"
)

// ============================================
// Request ID
// ============================================

const RequestIDKey = "X-Request-ID"

// GetRequestID возвращает Request ID из контекста.
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// SetRequestID устанавливает Request ID в контекст.
func SetRequestID(c *gin.Context, id string) {
	c.Set(RequestIDKey, id)
	c.Header(RequestIDKey, id)
}

// ============================================
// Response Helpers
// ============================================

// Success отправляет успешный ответ.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success:   true,
		Data:      data,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// SuccessWithMeta отправляет успешный ответ с мета-информацией.
func SuccessWithMeta(c *gin.Context, statusCode int, data interface{}, meta *APIMeta) {
	c.JSON(statusCode, APIResponse{
		Success:   true,
		Data:      data,
		Meta:      meta,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// Error отправляет ответ с ошибкой.
func Error(c *gin.Context, statusCode int, apiError *APIError) {
	c.JSON(statusCode, APIResponse{
		Success:   false,
		Error:     apiError,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// ============================================
// Error Response Helpers
// ============================================

// ValidationErrorResponse создаёт ответ для ошибок валидации.
func ValidationErrorResponse(c *gin.Context, fields []FieldError) {
	Error(c, http.StatusBadRequest, &APIError{
		Code:    ErrCodeValidation,
		Message: "Request validation failed",
		Fields:  fields,
	})
}

// NotFoundResponse создаёт ответ для 404.
func NotFoundResponse(c *gin.Context, resource string) {
	Error(c, http.StatusNotFound, &APIError{
		Code:    ErrCodeNotFound,
		Message: resource + " not found",
		Details: map[string]interface{}{
			"resource": resource,
		},
	})
}

// BadRequestResponse создаёт ответ для некорректного запроса.
func BadRequestResponse(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, &APIError{
		Code:    ErrCodeBadRequest,
		Message: message,
	})
}

// UnauthorizedResponse создаёт ответ для 401.
func UnauthorizedResponse(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, &APIError{
		Code:    ErrCodeUnauthorized,
		Message: message,
	})
}

// ForbiddenResponse создаёт ответ для 403.
func ForbiddenResponse(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, &APIError{
		Code:    ErrCodeForbidden,
		Message: message,
	})
}

// ConflictResponse создаёт ответ для 409.
func ConflictResponse(c *gin.Context, message string) {
	Error(c, http.StatusConflict, &APIError{
		Code:    ErrCodeConflict,
		Message: message,
	})
}

// TooManyRequestsResponse создаёт ответ для rate limiting.
func TooManyRequestsResponse(c *gin.Context, retryAfter int) {
	Error(c, http.StatusTooManyRequests, &APIError{
		Code:       ErrCodeTooManyRequests,
		Message:    "Too many requests, please try again later",
		RetryAfter: retryAfter,
	})
}

// InternalErrorResponse создаёт ответ для внутренней ошибки.
func InternalErrorResponse(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, &APIError{
		Code:    ErrCodeInternal,
		Message: message,
	})
}

// ============================================
// Domain Error to HTTP Error Mapper
// ============================================

// notFoundResources - ресурс для 404 по sentinel-ошибке.
var notFoundResources = []struct {
	err      error
	resource string
}{
	{domainerrors.ErrUserNotFound, "User"},
	{domainerrors.ErrWalletNotFound, "Wallet"},
	{domainerrors.ErrTransactionNotFound, "Transaction"},
	{domainerrors.ErrSavingsPlanNotFound, "Savings plan"},
	{domainerrors.ErrNotificationNotFound, "Notification"},
}

// HandleDomainError преобразует domain error в HTTP response.
func HandleDomainError(c *gin.Context, err error) {
	// 1. ValidationError / ValidationErrors
	var valErrs domainerrors.ValidationErrors
	if errors.As(err, &valErrs) {
		fields := make([]FieldError, 0, len(valErrs))
		for _, v := range valErrs {
			fields = append(fields, FieldError{Field: v.Field, Message: v.Message, Code: "invalid"})
		}
		ValidationErrorResponse(c, fields)
		return
	}
	var valErr domainerrors.ValidationError
	if errors.As(err, &valErr) {
		ValidationErrorResponse(c, []FieldError{
			{Field: valErr.Field, Message: valErr.Message, Code: "invalid"},
		})
		return
	}

	// 2. BusinessRuleViolation (в т.ч. INSUFFICIENT_FUNDS)
	var brv *domainerrors.BusinessRuleViolation
	if errors.As(err, &brv) {
		Error(c, http.StatusUnprocessableEntity, &APIError{
			Code:    ErrCodeBusinessRule,
			Message: brv.Message,
			Details: map[string]interface{}{
				"rule":    brv.Rule,
				"context": brv.Context,
			},
		})
		return
	}

	// 3. ConcurrencyError
	if domainerrors.IsConcurrencyError(err) {
		Error(c, http.StatusConflict, &APIError{
			Code:    ErrCodeConcurrency,
			Message: "Resource was modified by another request, please retry",
			Details: map[string]interface{}{
				"retryable": true,
			},
		})
		return
	}

	// 4. NotFound
	if domainerrors.IsNotFound(err) {
		resource := "Resource"
		for _, nf := range notFoundResources {
			if errors.Is(err, nf.err) {
				resource = nf.resource
				break
			}
		}
		NotFoundResponse(c, resource)
		return
	}

	// 5. Ошибки шлюза
	var gwErr *ports.GatewayError
	if errors.As(err, &gwErr) {
		Error(c, http.StatusBadGateway, &APIError{
			Code:    ErrCodeGateway,
			Message: "Payment gateway request failed",
		})
		return
	}
	if errors.Is(err, domainerrors.ErrGatewayUnavailable) {
		Error(c, http.StatusServiceUnavailable, &APIError{
			Code:    ErrCodeUnavailable,
			Message: err.Error(),
		})
		return
	}

	// 6. Sentinel-ошибки домена
	switch {
	case errors.Is(err, domainerrors.ErrEntityAlreadyExists),
		errors.Is(err, domainerrors.ErrDuplicateReference),
		errors.Is(err, domainerrors.ErrInvalidStatusTransition):
		ConflictResponse(c, rootMessage(err))
		return
	case errors.Is(err, domainerrors.ErrInsufficientFunds),
		errors.Is(err, domainerrors.ErrWalletMisconfigured),
		errors.Is(err, domainerrors.ErrSavingsPlanNotActive):
		Error(c, http.StatusUnprocessableEntity, &APIError{
			Code:    ErrCodeBusinessRule,
			Message: rootMessage(err),
		})
		return
	case errors.Is(err, domainerrors.ErrInvalidEntityID),
		errors.Is(err, domainerrors.ErrInvalidEmail),
		errors.Is(err, domainerrors.ErrInvalidSchedule),
		errors.Is(err, domainerrors.ErrInvalidTransactionType),
		errors.Is(err, domainerrors.ErrInvalidTransactionStatus):
		BadRequestResponse(c, rootMessage(err))
		return
	}

	// 7. DomainError с произвольным кодом
	var domainErr *domainerrors.DomainError
	if errors.As(err, &domainErr) {
		Error(c, http.StatusBadRequest, &APIError{
			Code:    domainErr.Code,
			Message: domainErr.Message,
		})
		return
	}

	// 8. Default: Internal Server Error
	InternalErrorResponse(c, "An unexpected error occurred")
}

// rootMessage возвращает сообщение DomainError, если он есть в цепочке.
func rootMessage(err error) string {
	var domainErr *domainerrors.DomainError
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}
	return err.Error()
}
