// Package middleware - Rate Limiting middleware.
//
// Token bucket (golang.org/x/time/rate) на каждый ключ: IP или пользователь.
// Лимитеры хранятся в памяти процесса, неактивные удаляются при обращениях.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig - конфигурация для rate limiting.
type RateLimitConfig struct {
	// RequestsPerMinute - устойчивая скорость пополнения корзины
	RequestsPerMinute int
	// Burst - размер корзины
	Burst int
	// KeyFunc - ключ лимитирования, по умолчанию IP адрес
	KeyFunc func(*gin.Context) string
	// IdleTTL - через сколько удалять неактивный лимитер
	IdleTTL time.Duration
	// OnLimitReached - callback при достижении лимита
	OnLimitReached func(*gin.Context)
}

// DefaultRateLimitConfig - конфигурация по умолчанию.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerMinute: 100,
		Burst:             20,
		KeyFunc:           func(c *gin.Context) string { return c.ClientIP() },
		IdleTTL:           10 * time.Minute,
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter хранит лимитеры по ключам.
type rateLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*limiterEntry
	limit       rate.Limit
	burst       int
	idleTTL     time.Duration
	lastCleanup time.Time
	now         func() time.Time
}

func newRateLimiter(config *RateLimitConfig) *rateLimiter {
	burst := config.Burst
	if burst <= 0 {
		burst = 1
	}
	idleTTL := config.IdleTTL
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}

	return &rateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(float64(config.RequestsPerMinute) / 60),
		burst:    burst,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// reserve пытается взять токен. Возвращает остаток и задержку до следующего токена при отказе.
func (rl *rateLimiter) reserve(key string) (allowed bool, remaining int, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.cleanupLocked(now)

	entry, ok := rl.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = now

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, 0, time.Minute
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, 0, delay
	}

	tokens := entry.limiter.TokensAt(now)
	if tokens < 0 {
		tokens = 0
	}
	return true, int(math.Floor(tokens)), 0
}

// cleanupLocked удаляет лимитеры, не использовавшиеся дольше idleTTL.
func (rl *rateLimiter) cleanupLocked(now time.Time) {
	if now.Sub(rl.lastCleanup) < rl.idleTTL {
		return
	}
	rl.lastCleanup = now
	for key, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > rl.idleTTL {
			delete(rl.limiters, key)
		}
	}
}

// size - число активных лимитеров.
func (rl *rateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// RateLimit middleware для ограничения количества запросов.
//
// Headers:
//   - X-RateLimit-Limit: запросов в минуту
//   - X-RateLimit-Remaining: оставшиеся токены в корзине
//   - Retry-After: секунд до следующего токена (при 429)
func RateLimit(config *RateLimitConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	if config.KeyFunc == nil {
		config.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}

	return rateLimitHandler(config, newRateLimiter(config))
}

func rateLimitHandler(config *RateLimitConfig, limiter *rateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining, retryAfter := limiter.reserve(config.KeyFunc(c))

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.RequestsPerMinute))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			retrySeconds := int(math.Ceil(retryAfter.Seconds()))
			if retrySeconds < 1 {
				retrySeconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(retrySeconds))

			if config.OnLimitReached != nil {
				config.OnLimitReached(c)
			}

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":        "TOO_MANY_REQUESTS",
					"message":     "Rate limit exceeded, please try again later",
					"retry_after": retrySeconds,
				},
				"request_id": GetRequestID(c),
				"timestamp":  time.Now().UTC(),
			})
			return
		}

		c.Next()
	}
}

// ============================================
// Endpoint-specific rate limiters
// ============================================

// UserOrIPKey - по user ID если авторизован, иначе по IP.
func UserOrIPKey(c *gin.Context) string {
	if IsAuthenticated(c) {
		return "user:" + c.GetString(AuthUserIDKey)
	}
	return "ip:" + c.ClientIP()
}

// FinancialRateLimit - лимит для операций с деньгами (транзакции, пополнения, накопления).
func FinancialRateLimit(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		perMinute = 30
	}
	return RateLimit(&RateLimitConfig{
		RequestsPerMinute: perMinute,
		Burst:             max(perMinute/6, 1),
		KeyFunc:           UserOrIPKey,
	})
}
