// Package middleware содержит HTTP middleware для обработки запросов.
//
// Middleware в Gin - это функции, которые выполняются до/после handlers.
// Они используются для cross-cutting concerns: логирование, auth, tracing.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Haleralex/walletledger/internal/adapters/http/common"
	"github.com/Haleralex/walletledger/internal/pkg/logger"
)

const (
	// RequestIDHeader - имя заголовка для Request ID
	RequestIDHeader = "X-Request-ID"
	// CorrelationIDHeader - сквозной ID цепочки вызовов между сервисами
	CorrelationIDHeader = "X-Correlation-ID"
	// RequestIDContextKey - ключ для хранения Request ID в контексте
	RequestIDContextKey = common.RequestIDKey

	maxRequestIDLength = 128
)

// RequestID middleware добавляет уникальный ID к каждому запросу.
//
// Если клиент передаёт X-Request-ID - используем его, иначе генерируем UUID.
// X-Correlation-ID по умолчанию равен Request ID. Оба значения попадают
// в context запроса, поэтому логгер добавляет их к каждой записи.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.New().String()
		}

		correlationID := c.GetHeader(CorrelationIDHeader)
		if correlationID == "" || len(correlationID) > maxRequestIDLength {
			correlationID = requestID
		}

		common.SetRequestID(c, requestID)
		c.Header(CorrelationIDHeader, correlationID)

		ctx := logger.WithRequestID(c.Request.Context(), requestID)
		ctx = logger.WithCorrelationID(ctx, correlationID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetRequestID извлекает Request ID из контекста Gin.
func GetRequestID(c *gin.Context) string {
	return common.GetRequestID(c)
}
