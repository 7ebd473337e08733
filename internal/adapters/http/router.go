// Package http - Router configuration for REST API.
//
// Router собирает все handlers и middleware в единую точку входа.
//
// Pattern: Composition Root
//   - Все зависимости собираются здесь
//   - Handlers получают только нужные им use cases
//   - Middleware применяется к соответствующим группам routes
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Haleralex/walletledger/internal/adapters/http/common"
	"github.com/Haleralex/walletledger/internal/adapters/http/handlers"
	"github.com/Haleralex/walletledger/internal/adapters/http/middleware"
)

// probePaths - служебные пути без логов, трейсов и rate limit.
var probePaths = []string{"/health", "/health/detailed", "/live", "/ready", "/metrics"}

// ============================================
// Router Configuration
// ============================================

// RouterConfig - конфигурация роутера.
type RouterConfig struct {
	// Logger для middleware
	Logger *slog.Logger
	// Environment (development, staging, production)
	Environment string
	// ServiceName - имя сервиса в трейсах
	ServiceName string
	// TracingEnabled - открывать span на каждый запрос
	TracingEnabled bool
	// Health - проверки зависимостей и версия
	Health handlers.HealthConfig
	// CORS; nil - DefaultCORSConfig
	CORS *middleware.CORSConfig
	// TokenValidator - проверка Bearer токена; nil - auth выключен
	TokenValidator middleware.TokenValidator
	// RateLimit - глобальный лимит; nil - лимит выключен
	RateLimit *middleware.RateLimitConfig
	// FinancialPerMinute - лимит на операции с деньгами
	FinancialPerMinute int
}

// DefaultRouterConfig - конфигурация по умолчанию для development.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		Logger:             slog.Default(),
		Environment:        "development",
		ServiceName:        "walletledger",
		Health:             handlers.HealthConfig{Version: "dev", BuildTime: "unknown"},
		RateLimit:          middleware.DefaultRateLimitConfig(),
		FinancialPerMinute: 30,
	}
}

// ============================================
// Use Case Providers
// ============================================

// UserUseCases - provider для user use cases.
type UserUseCases struct {
	CreateUser handlers.CreateUserUseCase
	GetUser    handlers.GetUserUseCase
	ListUsers  handlers.ListUsersUseCase
}

// WalletUseCases - provider для wallet use cases.
type WalletUseCases struct {
	CreateWallet    handlers.CreateWalletUseCase
	GetWallet       handlers.GetWalletUseCase
	ListWallets     handlers.ListWalletsUseCase
	SetWalletActive handlers.SetWalletActiveUseCase
	ReconcileWallet handlers.ReconcileWalletUseCase
}

// TransactionUseCases - provider для transaction use cases.
type TransactionUseCases struct {
	CreateTransaction handlers.CreateTransactionUseCase
	UpdateStatus      handlers.UpdateTransactionStatusUseCase
	GetTransaction    handlers.GetTransactionUseCase
	ListTransactions  handlers.ListTransactionsUseCase
}

// PaymentUseCases - provider для пополнений через платёжный шлюз.
type PaymentUseCases struct {
	InitiateDeposit handlers.InitiateDepositUseCase
	HandleCallback  handlers.HandleGatewayCallbackUseCase
	Webhook         handlers.WebhookConfig
}

// ============================================
// Router Builder
// ============================================

// RouterBuilder - builder для создания роутера.
//
// Pattern: Builder
//   - Позволяет пошагово настроить роутер
//   - Проще тестировать
//   - Можно переиспользовать части конфигурации
type RouterBuilder struct {
	config       *RouterConfig
	users        *UserUseCases
	wallets      *WalletUseCases
	transactions *TransactionUseCases
	payments     *PaymentUseCases
	savings      *handlers.SavingsUseCases
}

// NewRouterBuilder создаёт новый builder.
func NewRouterBuilder(config *RouterConfig) *RouterBuilder {
	if config == nil {
		config = DefaultRouterConfig()
	}
	return &RouterBuilder{
		config: config,
	}
}

// WithUserUseCases добавляет user use cases.
func (b *RouterBuilder) WithUserUseCases(useCases *UserUseCases) *RouterBuilder {
	b.users = useCases
	return b
}

// WithWalletUseCases добавляет wallet use cases.
func (b *RouterBuilder) WithWalletUseCases(useCases *WalletUseCases) *RouterBuilder {
	b.wallets = useCases
	return b
}

// WithTransactionUseCases добавляет transaction use cases.
func (b *RouterBuilder) WithTransactionUseCases(useCases *TransactionUseCases) *RouterBuilder {
	b.transactions = useCases
	return b
}

// WithPaymentUseCases добавляет пополнения и webhook шлюза.
func (b *RouterBuilder) WithPaymentUseCases(useCases *PaymentUseCases) *RouterBuilder {
	b.payments = useCases
	return b
}

// WithSavingsUseCases добавляет планы накоплений и уведомления.
func (b *RouterBuilder) WithSavingsUseCases(useCases *handlers.SavingsUseCases) *RouterBuilder {
	b.savings = useCases
	return b
}

// authEnabled - задан ли валидатор токенов.
func (b *RouterBuilder) authEnabled() bool {
	return b.config.TokenValidator != nil
}

// privileged - middleware для маршрутов admin/service. Без auth ролей нет.
func (b *RouterBuilder) privileged() []gin.HandlerFunc {
	if !b.authEnabled() {
		return nil
	}
	return []gin.HandlerFunc{middleware.RequireRole(middleware.RoleAdmin, middleware.RoleService)}
}

// Build создаёт сконфигурированный Gin Engine.
func (b *RouterBuilder) Build() *gin.Engine {
	if b.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Создаём router без default middleware
	router := gin.New()

	// Настраиваем кастомные валидаторы
	handlers.SetupValidator()

	// ============================================
	// Global Middleware
	// ============================================

	// 1. Request ID (нужен всем остальным)
	router.Use(middleware.RequestID())

	// 2. Tracing
	if b.config.TracingEnabled {
		router.Use(middleware.Tracing(b.config.ServiceName, probePaths...))
		router.Use(middleware.TraceIDResponse())
	}

	// 3. Logging
	router.Use(middleware.Logging(&middleware.LoggingConfig{
		Logger:      b.config.Logger,
		SkipPaths:   probePaths,
		MaxBodySize: 1024,
	}))

	// 4. Recovery - внутри Logging, чтобы 500 попал в лог запроса
	router.Use(middleware.Recovery(&middleware.RecoveryConfig{
		Logger:           b.config.Logger,
		EnableStackTrace: b.config.Environment != "production",
	}))

	// 5. Metrics (Prometheus)
	router.Use(middleware.Metrics())

	// 6. CORS
	cors := b.config.CORS
	if cors == nil {
		cors = middleware.DefaultCORSConfig()
	}
	router.Use(middleware.CORS(cors))

	// ============================================
	// Metrics & Health (no auth, no rate limit)
	// ============================================

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.NewHealthHandler(b.config.Health).RegisterRoutes(router)

	// ============================================
	// API v1 Routes
	// ============================================

	v1 := router.Group("/api/v1")
	if b.config.RateLimit != nil {
		v1.Use(middleware.RateLimit(b.config.RateLimit))
	}

	var paymentHandler *handlers.PaymentHandler
	if b.payments != nil {
		paymentHandler = handlers.NewPaymentHandler(b.payments.InitiateDeposit, b.payments.HandleCallback, b.payments.Webhook)
		// Webhook подписан шлюзом, Bearer токена у него нет
		paymentHandler.RegisterWebhookRoutes(v1)
	}

	api := v1.Group("")
	if b.authEnabled() {
		api.Use(middleware.Auth(&middleware.AuthConfig{TokenValidator: b.config.TokenValidator}))
	}
	financial := middleware.FinancialRateLimit(b.config.FinancialPerMinute)
	privileged := b.privileged()

	if b.users != nil {
		handlers.NewUserHandler(b.users.CreateUser, b.users.GetUser, b.users.ListUsers).
			RegisterRoutes(api, privileged...)
	}

	if b.wallets != nil {
		handlers.NewWalletHandler(
			b.wallets.CreateWallet,
			b.wallets.GetWallet,
			b.wallets.ListWallets,
			b.wallets.SetWalletActive,
			b.wallets.ReconcileWallet,
		).RegisterRoutes(api, privileged...)
	}

	if b.transactions != nil {
		handlers.NewTransactionHandler(
			b.transactions.CreateTransaction,
			b.transactions.UpdateStatus,
			b.transactions.GetTransaction,
			b.transactions.ListTransactions,
		).RegisterRoutes(api, financial, privileged...)
	}

	if paymentHandler != nil {
		paymentHandler.RegisterRoutes(api, financial)
	}

	if b.savings != nil {
		handlers.NewSavingsHandler(*b.savings).RegisterRoutes(api, financial, privileged...)
	}

	// ============================================
	// 404 Handler
	// ============================================

	router.NoRoute(func(c *gin.Context) {
		common.Error(c, http.StatusNotFound, &common.APIError{
			Code:    common.ErrCodeNotFound,
			Message: "Endpoint not found",
			Details: map[string]interface{}{
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			},
		})
	})

	return router
}

// NewRouter создаёт роутер с базовой конфигурацией (для простых случаев).
func NewRouter(config *RouterConfig) *gin.Engine {
	return NewRouterBuilder(config).Build()
}
