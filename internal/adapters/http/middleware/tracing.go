package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDHeader - ID трейса в ответе, для поиска запроса в коллекторе.
const TraceIDHeader = "X-Trace-ID"

// Tracing открывает span на каждый запрос (otelgin) и возвращает trace id
// клиенту. Провайдер берётся глобальный: без экспортёра это no-op.
func Tracing(serviceName string, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}

	return otelgin.Middleware(serviceName,
		otelgin.WithFilter(func(r *http.Request) bool {
			return !skip[r.URL.Path]
		}),
	)
}

// TraceIDResponse выставляет X-Trace-ID, если в контексте есть валидный span.
// Ставится после Tracing.
func TraceIDResponse() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.IsValid() {
			c.Header(TraceIDHeader, sc.TraceID().String())
		}
		c.Next()
	}
}
