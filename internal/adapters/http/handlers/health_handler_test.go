package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHealthRouter(config HealthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHealthHandler(config).RegisterRoutes(router)
	return router
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthHandler_Health(t *testing.T) {
	router := newHealthRouter(HealthConfig{Version: "1.2.3", BuildTime: "2024-01-01"})

	w := get(router, "/health")

	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Empty(t, resp.Checks)
}

func TestHealthHandler_Live(t *testing.T) {
	w := get(newHealthRouter(HealthConfig{}), "/live")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alive")
}

func TestHealthHandler_Ready(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }

	t.Run("AllHealthy", func(t *testing.T) {
		router := newHealthRouter(HealthConfig{Checks: map[string]HealthChecker{"postgres": ok, "nats": ok}})

		w := get(router, "/ready")

		require.Equal(t, http.StatusOK, w.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Ready)
		assert.Equal(t, map[string]string{"postgres": "healthy", "nats": "healthy"}, resp.Checks)
	})

	t.Run("OneUnhealthy", func(t *testing.T) {
		router := newHealthRouter(HealthConfig{Checks: map[string]HealthChecker{
			"postgres": ok,
			"redis":    func(ctx context.Context) error { return errors.New("connection refused") },
		}})

		w := get(router, "/ready")

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp ReadinessResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Ready)
		assert.Equal(t, "healthy", resp.Checks["postgres"])
		assert.Equal(t, "unhealthy: connection refused", resp.Checks["redis"])
	})

	t.Run("CheckGetsDeadline", func(t *testing.T) {
		var deadline time.Time
		router := newHealthRouter(HealthConfig{Checks: map[string]HealthChecker{
			"postgres": func(ctx context.Context) error {
				deadline, _ = ctx.Deadline()
				return nil
			},
		}})

		get(router, "/ready")

		assert.WithinDuration(t, time.Now().Add(checkTimeout), deadline, time.Second)
	})
}

func TestHealthHandler_DetailedHealth(t *testing.T) {
	router := newHealthRouter(HealthConfig{
		Version: "1.0.0",
		Checks: map[string]HealthChecker{
			"postgres": func(ctx context.Context) error { return errors.New("timeout") },
		},
		Stats: func() map[string]interface{} {
			return map[string]interface{}{"total_conns": 4}
		},
	})

	w := get(router, "/health/detailed")

	// detailed отвечает 200 даже при сбое зависимостей
	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "unhealthy: timeout", resp.Checks["postgres"])
	assert.EqualValues(t, 4, resp.Stats["total_conns"])
}
