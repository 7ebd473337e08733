// Package middleware - Recovery middleware для обработки паник.
package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/Haleralex/walletledger/internal/adapters/http/common"
)

// RecoveryConfig - конфигурация для recovery middleware.
type RecoveryConfig struct {
	Logger           *slog.Logger
	EnableStackTrace bool // Включать stack trace в логи
}

// DefaultRecoveryConfig - конфигурация по умолчанию.
func DefaultRecoveryConfig() *RecoveryConfig {
	return &RecoveryConfig{
		Logger:           slog.Default(),
		EnableStackTrace: true,
	}
}

// Recovery перехватывает панику handler'а.
//
// Паника логируется, считается в walletledger_http_panics_total и
// превращается в 500 в общем формате ответа. Незакоммиченная транзакция
// БД откатывается UnitOfWork'ом ещё до этой точки.
// http.ErrAbortHandler пробрасывается дальше: net/http так обрывает соединение.
func Recovery(config *RecoveryConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultRecoveryConfig()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rec)
			}

			attrs := []slog.Attr{
				slog.String("error", fmt.Sprint(rec)),
				slog.String("path", c.Request.URL.Path),
				slog.String("route", c.FullPath()),
				slog.String("method", c.Request.Method),
				slog.String("client_ip", c.ClientIP()),
			}
			if config.EnableStackTrace {
				attrs = append(attrs, slog.String("stack", string(debug.Stack())))
			}

			config.Logger.LogAttrs(c.Request.Context(), slog.LevelError, "panic recovered", attrs...)
			httpPanicsTotal.WithLabelValues(c.Request.Method, routeLabel(c)).Inc()

			// Заголовки уже ушли клиенту: второй ответ записать нельзя
			if c.Writer.Written() {
				c.Abort()
				return
			}
			common.InternalErrorResponse(c, "An unexpected error occurred")
			c.Abort()
		}()

		c.Next()
	}
}
