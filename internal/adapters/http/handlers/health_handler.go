// Package handlers - Health check handlers.
//
// Health checks позволяют оркестраторам (Kubernetes, Docker Swarm)
// проверять состояние приложения.
//
// Два типа health checks:
//   - Liveness: Приложение работает? (если нет - restart)
//   - Readiness: Приложение готово принимать трафик? (если нет - no traffic)
package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// checkTimeout - таймаут одной проверки зависимости.
const checkTimeout = 2 * time.Second

// HealthChecker проверяет одну зависимость (postgres, nats, redis).
type HealthChecker func(ctx context.Context) error

// HealthConfig - конфигурация HealthHandler.
type HealthConfig struct {
	Version   string
	BuildTime string
	// Checks - обязательные зависимости; любая ошибка делает /ready 503
	Checks map[string]HealthChecker
	// Stats - дополнительная информация для /health/detailed (статистика пула)
	Stats func() map[string]interface{}
}

// HealthHandler обрабатывает health check запросы.
type HealthHandler struct {
	config    HealthConfig
	startTime time.Time
}

// NewHealthHandler создаёт новый HealthHandler.
func NewHealthHandler(config HealthConfig) *HealthHandler {
	return &HealthHandler{
		config:    config,
		startTime: time.Now(),
	}
}

// ============================================
// Response Types
// ============================================

// HealthResponse - ответ health check.
type HealthResponse struct {
	Status    string                 `json:"status"` // "healthy", "unhealthy"
	Version   string                 `json:"version"`
	BuildTime string                 `json:"build_time"`
	Uptime    string                 `json:"uptime"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]string      `json:"checks,omitempty"`
	Stats     map[string]interface{} `json:"stats,omitempty"`
}

// ReadinessResponse - ответ readiness check.
type ReadinessResponse struct {
	Ready     bool              `json:"ready"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

// ============================================
// HTTP Handlers
// ============================================

// Health возвращает базовый health статус.
//
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Version:   h.config.Version,
		BuildTime: h.config.BuildTime,
		Uptime:    h.uptime(),
		Timestamp: time.Now().UTC(),
	})
}

// Ready проверяет готовность приложения.
//
// @Summary Readiness check
// @Tags Health
// @Produce json
// @Success 200 {object} ReadinessResponse
// @Failure 503 {object} ReadinessResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	checks, ok := h.runChecks(c.Request.Context())

	statusCode := http.StatusOK
	if !ok {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, ReadinessResponse{
		Ready:     ok,
		Checks:    checks,
		Timestamp: time.Now().UTC(),
	})
}

// Live возвращает статус "живости" приложения.
//
// @Summary Liveness check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// DetailedHealth возвращает проверки зависимостей и статистику.
//
// @Summary Detailed health check
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health/detailed [get]
func (h *HealthHandler) DetailedHealth(c *gin.Context) {
	checks, ok := h.runChecks(c.Request.Context())

	status := "healthy"
	if !ok {
		status = "unhealthy"
	}

	resp := HealthResponse{
		Status:    status,
		Version:   h.config.Version,
		BuildTime: h.config.BuildTime,
		Uptime:    h.uptime(),
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	}
	if h.config.Stats != nil {
		resp.Stats = h.config.Stats()
	}

	c.JSON(http.StatusOK, resp)
}

// runChecks выполняет проверки последовательно в стабильном порядке.
func (h *HealthHandler) runChecks(ctx context.Context) (map[string]string, bool) {
	names := make([]string, 0, len(h.config.Checks))
	for name := range h.config.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	allOK := true
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := h.config.Checks[name](checkCtx)
		cancel()

		if err != nil {
			checks[name] = "unhealthy: " + err.Error()
			allOK = false
			continue
		}
		checks[name] = "healthy"
	}
	return checks, allOK
}

func (h *HealthHandler) uptime() string {
	return time.Since(h.startTime).Round(time.Second).String()
}

// RegisterRoutes регистрирует health check маршруты.
//
// Routes:
//   - GET /health          - Basic health check
//   - GET /health/detailed - Dependencies and pool stats
//   - GET /ready           - Readiness probe
//   - GET /live            - Liveness probe
func (h *HealthHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)
	router.GET("/health/detailed", h.DetailedHealth)
	router.GET("/ready", h.Ready)
	router.GET("/live", h.Live)
}
