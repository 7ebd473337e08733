// Package middleware - Logging middleware для структурированного логирования.
package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// bodyPeekLimit - сколько байт тела читается для reference и лога.
const bodyPeekLimit = 64 << 10

// redactedValue подставляется вместо чувствительных полей тела.
const redactedValue = "[REDACTED]"

// LoggingConfig - конфигурация для logging middleware.
type LoggingConfig struct {
	Logger         *slog.Logger
	SkipPaths      []string // Пути для пропуска логирования (e.g., /health)
	LogRequestBody bool     // Логировать тело запроса (после redaction)
	MaxBodySize    int      // Максимальный размер тела в логе
	RedactFields   []string // JSON поля, которые не попадают в лог
}

// DefaultLoggingConfig - конфигурация по умолчанию.
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Logger:         slog.Default(),
		SkipPaths:      []string{"/health", "/live", "/ready", "/metrics"},
		LogRequestBody: false,
		MaxBodySize:    1024, // 1KB
		RedactFields:   defaultRedactFields(),
	}
}

func defaultRedactFields() []string {
	return []string{"password", "secret", "token", "authorization", "card_number", "cvv", "pin"}
}

// Logging пишет одну запись на HTTP запрос.
//
// Для POST/PUT/PATCH с JSON телом в запись попадает поле reference
// (ключ идемпотентности транзакции), чтобы повтор запроса находился по логам.
// Уровень: 5xx - ERROR, 4xx - WARN, остальное INFO.
func Logging(config *LoggingConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultLoggingConfig()
	}
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = 1024
	}
	if config.RedactFields == nil {
		config.RedactFields = defaultRedactFields()
	}

	skip := make(map[string]bool, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skip[path] = true
	}
	redact := make(map[string]bool, len(config.RedactFields))
	for _, field := range config.RedactFields {
		redact[strings.ToLower(field)] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()

		var body []byte
		if hasPayload(c.Request) {
			body = peekBody(c.Request)
		}

		c.Next()

		status := c.Writer.Status()
		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("route", c.FullPath()),
			slog.String("query", c.Request.URL.RawQuery),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()),
			slog.Int("response_size", c.Writer.Size()),
		}

		if len(body) > 0 {
			reference, logged := summarizeBody(body, redact)
			if reference != "" {
				attrs = append(attrs, slog.String("reference", reference))
			}
			if config.LogRequestBody {
				attrs = append(attrs, slog.String("request_body", truncateString(logged, config.MaxBodySize)))
			}
		}

		if len(c.Errors) > 0 {
			attrs = append(attrs, slog.String("errors", c.Errors.String()))
		}

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		// request_id, correlation_id, user_id и trace_id добавляет logger.ContextHandler
		config.Logger.LogAttrs(c.Request.Context(), level, "http request", attrs...)
	}
}

func hasPayload(r *http.Request) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return false
	}
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// peekBody читает начало тела и возвращает его обратно в запрос целиком.
func peekBody(r *http.Request) []byte {
	head, _ := io.ReadAll(io.LimitReader(r.Body, bodyPeekLimit))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}
	return head
}

// summarizeBody достаёт reference и возвращает тело с замазанными полями.
// Не-JSON тело логируется как есть.
func summarizeBody(body []byte, redact map[string]bool) (reference, logged string) {
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", string(body)
	}

	if ref, ok := fields["reference"].(string); ok {
		reference = ref
	}
	for key := range fields {
		if redact[strings.ToLower(key)] {
			fields[key] = redactedValue
		}
	}

	out, err := json.Marshal(fields)
	if err != nil {
		return reference, ""
	}
	return reference, string(out)
}

// truncateString обрезает строку до максимальной длины.
func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...[truncated]"
}
