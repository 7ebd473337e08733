// Package container - Dependency Injection container for the application.
//
// Container управляет жизненным циклом всех зависимостей:
//   - Создание (хранилище, брокер, блокировки, шлюз, use cases, HTTP)
//   - Доступ (getters)
//   - Закрытие (cleanup в обратном порядке)
//
// Pattern: Composition Root
//   - Все зависимости собираются в одном месте
//   - Легко тестировать (memory driver, подмена шлюза и блокировки)
//   - Легко заменять реализации
package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Haleralex/walletledger/internal/adapters/http"
	"github.com/Haleralex/walletledger/internal/adapters/http/handlers"
	"github.com/Haleralex/walletledger/internal/adapters/http/middleware"
	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/application/ledger"
	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/application/usecases/savings"
	"github.com/Haleralex/walletledger/internal/application/usecases/transaction"
	"github.com/Haleralex/walletledger/internal/application/usecases/user"
	"github.com/Haleralex/walletledger/internal/application/usecases/wallet"
	"github.com/Haleralex/walletledger/internal/config"
	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
	"github.com/Haleralex/walletledger/internal/infrastructure/gateway"
	"github.com/Haleralex/walletledger/internal/infrastructure/lock"
	"github.com/Haleralex/walletledger/internal/infrastructure/messaging"
	"github.com/Haleralex/walletledger/internal/infrastructure/persistence/memory"
	"github.com/Haleralex/walletledger/internal/infrastructure/persistence/postgres"
	"github.com/Haleralex/walletledger/internal/pkg/logger"
	"github.com/Haleralex/walletledger/internal/pkg/tracing"
	"github.com/Haleralex/walletledger/internal/scheduler"
)

// ============================================
// Use case groups
// ============================================

// UserUseCases - use cases пользователей.
type UserUseCases struct {
	Create *user.CreateUserUseCase
	Get    *user.GetUserUseCase
	List   *user.ListUsersUseCase
}

// WalletUseCases - use cases кошельков.
type WalletUseCases struct {
	Create    *wallet.CreateWalletUseCase
	Get       *wallet.GetWalletUseCase
	List      *wallet.ListWalletsUseCase
	SetActive *wallet.SetWalletActiveUseCase
	Reconcile *wallet.ReconcileWalletUseCase
}

// TransactionUseCases - use cases транзакций и шлюза.
type TransactionUseCases struct {
	Create          *transaction.CreateTransactionUseCase
	Get             *transaction.GetTransactionUseCase
	List            *transaction.ListTransactionsUseCase
	UpdateStatus    *transaction.UpdateTransactionStatusUseCase
	InitiateDeposit *transaction.InitiateDepositUseCase
	HandleCallback  *transaction.HandleGatewayCallbackUseCase
}

// SavingsUseCases - use cases планов накоплений и уведомлений.
type SavingsUseCases struct {
	Create            *savings.CreateSavingsPlanUseCase
	Get               *savings.GetSavingsPlanUseCase
	List              *savings.ListSavingsPlansUseCase
	Reschedule        *savings.ReschedulePlanUseCase
	Fund              *savings.FundSavingsPlanUseCase
	Cancel            *savings.CancelSavingsPlanUseCase
	ProcessDeductions *savings.ProcessRecurringDeductionsUseCase
	ListNotifications *savings.ListNotificationsUseCase
	MarkRead          *savings.MarkNotificationReadUseCase
}

// ============================================
// Container
// ============================================

// Container - DI контейнер приложения.
type Container struct {
	config *config.Config
	logger *slog.Logger

	// Infrastructure
	pool            *pgxpool.Pool
	store           *memory.Store
	redisClient     *redis.Client
	broker          *messaging.NATSBroker
	logFile         io.Closer
	tracingShutdown tracing.ShutdownFunc

	// Repositories
	userRepo         ports.UserRepository
	walletRepo       ports.WalletRepository
	transactionRepo  ports.TransactionRepository
	planRepo         ports.SavingsPlanRepository
	notificationRepo ports.NotificationRepository
	callbackRepo     ports.GatewayCallbackRepository
	outboxRepo       *postgres.OutboxRepository

	// Unit of Work
	uow ports.UnitOfWork

	// Event Publisher (outbox или память)
	eventPublisher ports.EventPublisher

	// Services
	gateway ports.PaymentGateway
	lock    ports.DistributedLock
	mutator *ledger.BalanceMutator

	// Use Cases
	users        UserUseCases
	wallets      WalletUseCases
	transactions TransactionUseCases
	savings      SavingsUseCases

	// Background
	relay     *messaging.OutboxRelay
	scheduler *scheduler.Scheduler

	// HTTP
	httpServer *http.Server
}

// New создаёт новый контейнер с заданной конфигурацией.
func New(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// ============================================
// Initialization
// ============================================

// Initialize инициализирует все зависимости.
//
// При ошибке уже открытые ресурсы закрываются.
func (c *Container) Initialize(ctx context.Context) (err error) {
	if c.logger == nil {
		if c.logger, err = c.initLogger(); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
	}
	c.logger.Info("Initializing application container...",
		slog.String("environment", c.config.App.Environment),
		slog.String("storage", c.config.Database.Driver),
	)

	defer func() {
		if err != nil {
			_ = c.closeResources(context.Background())
		}
	}()

	// 1. Tracing
	if err := c.initTracing(ctx); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	// 2. Storage
	if err := c.initStorage(ctx); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.logger.Info("Storage initialized", slog.String("driver", c.config.Database.Driver))

	// 3. Lock, broker, gateway
	if err := c.initServices(ctx); err != nil {
		return err
	}

	// 4. Use Cases
	if err := c.initUseCases(); err != nil {
		return fmt.Errorf("failed to initialize use cases: %w", err)
	}
	c.logger.Info("Use cases initialized")

	// 5. Scheduler
	if err := c.initScheduler(); err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	// 6. HTTP Server
	c.initHTTPServer()
	c.logger.Info("Container initialization complete")
	return nil
}

// initLogger инициализирует логгер (pkg/logger) и делает его глобальным.
func (c *Container) initLogger() (*slog.Logger, error) {
	var output io.Writer = os.Stdout
	switch c.config.Log.Output {
	case "stderr":
		output = os.Stderr
	case "file":
		f, err := os.OpenFile(c.config.Log.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		c.logFile = f
		output = f
	}

	l := logger.New(&logger.Config{
		Level:     c.config.Log.Level,
		Format:    c.config.Log.Format,
		Output:    output,
		AddSource: c.config.App.Debug,
	})
	slog.SetDefault(l)
	return l, nil
}

// initTracing ставит глобальный TracerProvider; выключенный tracing - только пропагаторы.
func (c *Container) initTracing(ctx context.Context) error {
	serviceName := c.config.Tracing.ServiceName
	if serviceName == "" {
		serviceName = c.config.App.Name
	}

	shutdown, err := tracing.Setup(ctx, tracing.Config{
		Enabled:        c.config.Tracing.Enabled,
		ServiceName:    serviceName,
		ServiceVersion: c.config.App.Version,
		Environment:    c.config.App.Environment,
		Endpoint:       c.config.Tracing.Endpoint,
		Insecure:       c.config.Tracing.Insecure,
		SampleRatio:    c.config.Tracing.SampleRatio,
	})
	if err != nil {
		return err
	}
	c.tracingShutdown = shutdown
	return nil
}

// initStorage выбирает хранилище по драйверу.
func (c *Container) initStorage(ctx context.Context) error {
	switch c.config.Database.Driver {
	case config.DriverMemory:
		c.initMemoryRepositories()
		return nil
	case config.DriverPostgres:
		if c.pool == nil {
			pool, err := postgres.NewConnectionPool(ctx, postgres.Config{
				Host:            c.config.Database.Host,
				Port:            c.config.Database.Port,
				Database:        c.config.Database.Database,
				User:            c.config.Database.User,
				Password:        c.config.Database.Password,
				SSLMode:         c.config.Database.SSLMode,
				MaxConns:        c.config.Database.MaxConnections,
				MinConns:        c.config.Database.MinConnections,
				MaxConnLifetime: c.config.Database.MaxConnLifetime,
				MaxConnIdleTime: c.config.Database.MaxConnIdleTime,
				ConnectTimeout:  c.config.Database.ConnectTimeout,
			})
			if err != nil {
				return err
			}
			c.pool = pool
		}
		c.initPostgresRepositories()
		return nil
	default:
		return fmt.Errorf("unknown database driver: %q", c.config.Database.Driver)
	}
}

// initPostgresRepositories инициализирует репозитории PostgreSQL.
func (c *Container) initPostgresRepositories() {
	c.userRepo = postgres.NewUserRepository(c.pool)
	c.walletRepo = postgres.NewWalletRepository(c.pool)
	c.transactionRepo = postgres.NewTransactionRepository(c.pool)
	c.planRepo = postgres.NewSavingsPlanRepository(c.pool)
	c.notificationRepo = postgres.NewNotificationRepository(c.pool)
	c.callbackRepo = postgres.NewGatewayCallbackRepository(c.pool)
	c.outboxRepo = postgres.NewOutboxRepository(c.pool)

	// Unit of Work
	c.uow = postgres.NewUnitOfWork(c.pool)

	// Event Publisher (OutboxRepository реализует интерфейс)
	if c.eventPublisher == nil {
		c.eventPublisher = c.outboxRepo
	}
}

// initMemoryRepositories инициализирует in-memory хранилище (тесты, локальный запуск).
func (c *Container) initMemoryRepositories() {
	c.store = memory.NewStore()
	c.userRepo = c.store.Users()
	c.walletRepo = c.store.Wallets()
	c.transactionRepo = c.store.Transactions()
	c.planRepo = c.store.SavingsPlans()
	c.notificationRepo = c.store.Notifications()
	c.callbackRepo = c.store.GatewayCallbacks()
	c.uow = c.store.UnitOfWork()

	if c.eventPublisher == nil {
		c.eventPublisher = c.store.Publisher()
	}
}

// initServices поднимает блокировку, брокер и шлюз.
func (c *Container) initServices(ctx context.Context) error {
	// Распределённая блокировка планировщика
	if c.lock == nil {
		if c.config.Redis.Enabled() {
			client, err := lock.NewRedisClient(ctx, lock.RedisConfig{
				Addr:        c.config.Redis.Addr,
				Password:    c.config.Redis.Password,
				DB:          c.config.Redis.DB,
				DialTimeout: c.config.Redis.DialTimeout,
			})
			if err != nil {
				return fmt.Errorf("failed to initialize redis: %w", err)
			}
			c.redisClient = client
			c.lock = lock.NewRedisLock(client, c.config.Redis.KeyPrefix)
			c.logger.Info("Redis lock enabled", slog.String("addr", c.config.Redis.Addr))
		} else {
			c.lock = lock.NewLocalLock()
		}
	}

	// Outbox relay в NATS (только поверх postgres outbox)
	if c.config.NATS.Enabled() && c.outboxRepo != nil {
		broker, err := messaging.ConnectNATS(messaging.NATSConfig{
			URL:           c.config.NATS.URL,
			ClientName:    c.config.NATS.ClientName,
			ConnectWait:   c.config.NATS.ConnectWait,
			MaxReconnects: c.config.NATS.MaxReconnects,
			ReconnectWait: c.config.NATS.ReconnectWait,
		}, c.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize nats: %w", err)
		}
		c.broker = broker
		c.relay = messaging.NewOutboxRelay(c.outboxRepo, c.uow, broker, messaging.RelayConfig{
			SubjectPrefix: c.config.NATS.SubjectPrefix,
			BatchSize:     c.config.Scheduler.BatchSize,
			MaxAttempts:   c.config.NATS.MaxAttempts,
		}, c.logger.With(slog.String("component", "outbox_relay")))
	}

	// Платёжный шлюз
	if c.gateway == nil {
		if c.config.Gateway.Enabled() {
			c.gateway = gateway.NewPaystackClient(gateway.Config{
				BaseURL:     c.config.Gateway.BaseURL,
				SecretKey:   c.config.Gateway.SecretKey,
				CallbackURL: c.config.Gateway.CallbackURL,
				Timeout:     c.config.Gateway.Timeout,
			})
		} else {
			c.logger.Warn("Payment gateway is not configured, deposits are disabled")
			c.gateway = gateway.Disabled{}
		}
	}

	return nil
}

// initUseCases инициализирует use cases.
func (c *Container) initUseCases() error {
	defaultCurrency, err := valueobjects.NewCurrency(c.config.App.DefaultCurrency)
	if err != nil {
		return err
	}

	c.mutator = ledger.NewBalanceMutator(c.walletRepo, c.planRepo, c.eventPublisher, c.logger)

	// User Use Cases
	c.users = UserUseCases{
		Create: user.NewCreateUserUseCase(c.userRepo, c.walletRepo, c.eventPublisher, c.uow, defaultCurrency),
		Get:    user.NewGetUserUseCase(c.userRepo),
		List:   user.NewListUsersUseCase(c.userRepo),
	}

	// Wallet Use Cases
	c.wallets = WalletUseCases{
		Create:    wallet.NewCreateWalletUseCase(c.userRepo, c.walletRepo, c.eventPublisher, c.uow),
		Get:       wallet.NewGetWalletUseCase(c.walletRepo),
		List:      wallet.NewListWalletsUseCase(c.walletRepo),
		SetActive: wallet.NewSetWalletActiveUseCase(c.walletRepo, c.eventPublisher, c.uow),
		Reconcile: wallet.NewReconcileWalletUseCase(c.walletRepo, c.transactionRepo, c.uow),
	}

	// Transaction Use Cases
	c.transactions = TransactionUseCases{
		Create: transaction.NewCreateTransactionUseCase(
			c.walletRepo, c.transactionRepo, c.mutator, c.eventPublisher, c.uow,
		),
		Get:  transaction.NewGetTransactionUseCase(c.transactionRepo),
		List: transaction.NewListTransactionsUseCase(c.transactionRepo),
		UpdateStatus: transaction.NewUpdateTransactionStatusUseCase(
			c.transactionRepo, c.notificationRepo, c.mutator, c.eventPublisher, c.uow,
		),
		InitiateDeposit: transaction.NewInitiateDepositUseCase(
			c.userRepo, c.walletRepo, c.transactionRepo, c.gateway, c.eventPublisher, c.uow,
		),
		HandleCallback: transaction.NewHandleGatewayCallbackUseCase(
			c.callbackRepo, c.transactionRepo, c.notificationRepo, c.mutator, c.eventPublisher, c.uow,
		),
	}

	// Savings Use Cases
	c.savings = SavingsUseCases{
		Create: savings.NewCreateSavingsPlanUseCase(c.walletRepo, c.planRepo, c.eventPublisher, c.uow),
		Get:    savings.NewGetSavingsPlanUseCase(c.planRepo),
		List:   savings.NewListSavingsPlansUseCase(c.planRepo),
		Reschedule: savings.NewReschedulePlanUseCase(
			c.planRepo, c.notificationRepo, c.eventPublisher, c.uow,
		),
		Fund: savings.NewFundSavingsPlanUseCase(
			c.planRepo, c.transactionRepo, c.notificationRepo, c.mutator, c.eventPublisher, c.uow,
		),
		Cancel: savings.NewCancelSavingsPlanUseCase(c.planRepo, c.eventPublisher, c.uow),
		ProcessDeductions: savings.NewProcessRecurringDeductionsUseCase(
			c.planRepo, c.transactionRepo, c.notificationRepo, c.mutator, c.eventPublisher, c.uow,
			c.logger.With(slog.String("component", "deductions")),
		),
		ListNotifications: savings.NewListNotificationsUseCase(c.notificationRepo),
		MarkRead:          savings.NewMarkNotificationReadUseCase(c.notificationRepo),
	}

	return nil
}

// initScheduler регистрирует cron-задачи списаний и relay.
func (c *Container) initScheduler() error {
	// Typed nil в интерфейсе сломал бы проверку relay != nil
	var relay scheduler.OutboxRelayer
	if c.relay != nil {
		relay = c.relay
	}

	s, err := scheduler.New(scheduler.Config{
		Enabled:       c.config.Scheduler.Enabled,
		DeductionSpec: c.config.Scheduler.DeductionSpec,
		RelaySpec:     c.config.Scheduler.RelaySpec,
		LockTTL:       c.config.Scheduler.LockTTL,
		BatchSize:     c.config.Scheduler.BatchSize,
		RunOnStart:    c.config.Scheduler.RunOnStart,
	}, c.savings.ProcessDeductions, relay, c.lock, c.logger.With(slog.String("component", "scheduler")))
	if err != nil {
		return err
	}
	c.scheduler = s
	return nil
}

// healthChecks - зависимости, без которых сервис не готов.
func (c *Container) healthChecks() map[string]handlers.HealthChecker {
	checks := make(map[string]handlers.HealthChecker)
	if c.pool != nil {
		checks["postgres"] = func(ctx context.Context) error { return postgres.HealthCheck(ctx, c.pool) }
	}
	if c.broker != nil {
		checks["nats"] = c.broker.HealthCheck
	}
	if c.redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return c.redisClient.Ping(ctx).Err() }
	}
	return checks
}

// healthStats - статистика пула для /health/detailed.
func (c *Container) healthStats() map[string]interface{} {
	stats := map[string]interface{}{
		"storage":   c.config.Database.Driver,
		"scheduler": c.config.Scheduler.Enabled,
		"gateway":   c.config.Gateway.Enabled(),
	}
	if c.pool != nil {
		stats["pool"] = postgres.GetPoolStats(c.pool)
	}
	return stats
}

// webhookConfig - проверка подписи и разбор webhook'а Paystack.
func (c *Container) webhookConfig() handlers.WebhookConfig {
	secret := c.config.Gateway.SecretKey
	return handlers.WebhookConfig{
		Provider:        gateway.Provider,
		SignatureHeader: gateway.SignatureHeader,
		Verify: func(body []byte, signature string) bool {
			// Без ключа подпись проверить нечем
			return secret != "" && gateway.VerifySignature(secret, body, signature)
		},
		Parse: func(body []byte) (dtos.GatewayCallbackCommand, error) {
			event, err := gateway.ParseWebhook(body)
			if err != nil {
				return dtos.GatewayCallbackCommand{}, err
			}
			return dtos.GatewayCallbackCommand{
				EventID:    event.EventID,
				Reference:  event.Reference,
				Event:      event.Event,
				Successful: event.Successful,
				Payload:    event.Payload,
			}, nil
		},
	}
}

// initHTTPServer инициализирует HTTP сервер.
func (c *Container) initHTTPServer() {
	var tokenValidator middleware.TokenValidator
	if c.config.Auth.Enabled {
		tokenValidator = middleware.NewJWTValidator(c.config.Auth.JWTSecret, c.config.Auth.JWTIssuer)
	} else {
		c.logger.Warn("Authentication is disabled")
	}

	var rateLimit *middleware.RateLimitConfig
	if c.config.RateLimit.Enabled {
		rateLimit = &middleware.RateLimitConfig{
			RequestsPerMinute: c.config.RateLimit.RequestsPerMinute,
			Burst:             c.config.RateLimit.BurstSize,
			KeyFunc:           middleware.UserOrIPKey,
			IdleTTL:           c.config.RateLimit.CleanupInterval,
		}
	}

	serviceName := c.config.Tracing.ServiceName
	if serviceName == "" {
		serviceName = c.config.App.Name
	}

	routerConfig := &http.RouterConfig{
		Logger:         c.logger,
		Environment:    c.config.App.Environment,
		ServiceName:    serviceName,
		TracingEnabled: c.config.Tracing.Enabled,
		Health: handlers.HealthConfig{
			Version:   c.config.App.Version,
			BuildTime: c.config.App.BuildTime,
			Checks:    c.healthChecks(),
			Stats:     c.healthStats,
		},
		CORS: middleware.NewCORSConfig(
			c.config.CORS.AllowedOrigins,
			c.config.CORS.AllowedMethods,
			c.config.CORS.AllowedHeaders,
			c.config.CORS.ExposedHeaders,
			c.config.CORS.AllowCredentials,
			c.config.CORS.MaxAge,
		),
		TokenValidator:     tokenValidator,
		RateLimit:          rateLimit,
		FinancialPerMinute: c.config.RateLimit.FinancialOpsPerMin,
	}

	router := http.NewRouterBuilder(routerConfig).
		WithUserUseCases(&http.UserUseCases{
			CreateUser: c.users.Create,
			GetUser:    c.users.Get,
			ListUsers:  c.users.List,
		}).
		WithWalletUseCases(&http.WalletUseCases{
			CreateWallet:    c.wallets.Create,
			GetWallet:       c.wallets.Get,
			ListWallets:     c.wallets.List,
			SetWalletActive: c.wallets.SetActive,
			ReconcileWallet: c.wallets.Reconcile,
		}).
		WithTransactionUseCases(&http.TransactionUseCases{
			CreateTransaction: c.transactions.Create,
			UpdateStatus:      c.transactions.UpdateStatus,
			GetTransaction:    c.transactions.Get,
			ListTransactions:  c.transactions.List,
		}).
		WithPaymentUseCases(&http.PaymentUseCases{
			InitiateDeposit: c.transactions.InitiateDeposit,
			HandleCallback:  c.transactions.HandleCallback,
			Webhook:         c.webhookConfig(),
		}).
		WithSavingsUseCases(&handlers.SavingsUseCases{
			Create:            c.savings.Create,
			Get:               c.savings.Get,
			List:              c.savings.List,
			Reschedule:        c.savings.Reschedule,
			Fund:              c.savings.Fund,
			Cancel:            c.savings.Cancel,
			ProcessDeductions: c.savings.ProcessDeductions,
			ListNotifications: c.savings.ListNotifications,
			MarkRead:          c.savings.MarkRead,
		}).
		Build()

	c.httpServer = http.NewServer(&http.ServerConfig{
		Host:              c.config.Server.Host,
		Port:              strconv.Itoa(c.config.Server.Port),
		ReadTimeout:       c.config.Server.ReadTimeout,
		ReadHeaderTimeout: http.DefaultServerConfig().ReadHeaderTimeout,
		WriteTimeout:      c.config.Server.WriteTimeout,
		IdleTimeout:       c.config.Server.IdleTimeout,
		ShutdownTimeout:   c.config.Server.ShutdownTimeout,
		Logger:            c.logger,
	}, router)
}

// ============================================
// Getters
// ============================================

// Config возвращает конфигурацию.
func (c *Container) Config() *config.Config { return c.config }

// Logger возвращает логгер.
func (c *Container) Logger() *slog.Logger { return c.logger }

// Pool возвращает пул соединений к БД (nil для memory).
func (c *Container) Pool() *pgxpool.Pool { return c.pool }

// Store возвращает in-memory хранилище (nil для postgres).
func (c *Container) Store() *memory.Store { return c.store }

// HTTPServer возвращает HTTP сервер.
func (c *Container) HTTPServer() *http.Server { return c.httpServer }

// Scheduler возвращает планировщик.
func (c *Container) Scheduler() *scheduler.Scheduler { return c.scheduler }

// UnitOfWork возвращает Unit of Work.
func (c *Container) UnitOfWork() ports.UnitOfWork { return c.uow }

// Users возвращает use cases пользователей.
func (c *Container) Users() UserUseCases { return c.users }

// Wallets возвращает use cases кошельков.
func (c *Container) Wallets() WalletUseCases { return c.wallets }

// Transactions возвращает use cases транзакций.
func (c *Container) Transactions() TransactionUseCases { return c.transactions }

// Savings возвращает use cases накоплений.
func (c *Container) Savings() SavingsUseCases { return c.savings }

// ============================================
// Run & Shutdown
// ============================================

// Run запускает планировщик и HTTP сервер; блокируется до отмены ctx.
func (c *Container) Run(ctx context.Context) error {
	c.logger.Info("Starting walletledger API server",
		slog.String("version", c.config.App.Version),
		slog.String("environment", c.config.App.Environment),
		slog.String("address", c.config.Server.Address()),
	)

	c.scheduler.Start()
	return c.httpServer.RunWithContext(ctx)
}

// Shutdown выполняет graceful shutdown всех компонентов.
//
// Порядок: HTTP, планировщик (дожидается текущего прогона), NATS, Redis,
// tracing (flush), пул БД.
func (c *Container) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down container...")

	var errs []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}

	if err := c.closeResources(ctx); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("shutdown errors: %w", err)
	}

	c.logger.Info("Container shutdown complete")
	return nil
}

// closeResources закрывает всё, кроме HTTP сервера.
func (c *Container) closeResources(ctx context.Context) error {
	var errs []error

	if c.scheduler != nil {
		if err := c.scheduler.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("scheduler: %w", err))
		}
	}

	if c.broker != nil {
		c.broker.Close()
		c.broker = nil
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
		c.redisClient = nil
	}

	if c.tracingShutdown != nil {
		if err := c.tracingShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracing: %w", err))
		}
		c.tracingShutdown = nil
	}

	if c.pool != nil {
		// Graceful close с таймаутом
		done := make(chan struct{})
		go func() {
			c.pool.Close()
			close(done)
		}()

		select {
		case <-done:
			c.logger.Info("Database connection closed")
		case <-ctx.Done():
			c.logger.Warn("Database close timeout")
		}
		c.pool = nil
	}

	if c.logFile != nil {
		_ = c.logFile.Close()
		c.logFile = nil
	}

	return errors.Join(errs...)
}

// ============================================
// Builder Pattern (Alternative)
// ============================================

// ContainerBuilder - builder для создания контейнера с кастомными компонентами.
type ContainerBuilder struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	eventPublisher ports.EventPublisher
	gateway        ports.PaymentGateway
	lock           ports.DistributedLock
}

// NewBuilder создаёт новый builder.
func NewBuilder(cfg *config.Config) *ContainerBuilder {
	return &ContainerBuilder{
		cfg: cfg,
	}
}

// WithLogger устанавливает кастомный логгер.
func (b *ContainerBuilder) WithLogger(logger *slog.Logger) *ContainerBuilder {
	b.logger = logger
	return b
}

// WithPool устанавливает готовый пул соединений (postgres driver).
func (b *ContainerBuilder) WithPool(pool *pgxpool.Pool) *ContainerBuilder {
	b.pool = pool
	return b
}

// WithEventPublisher устанавливает кастомный event publisher.
func (b *ContainerBuilder) WithEventPublisher(ep ports.EventPublisher) *ContainerBuilder {
	b.eventPublisher = ep
	return b
}

// WithGateway подменяет платёжный шлюз.
func (b *ContainerBuilder) WithGateway(g ports.PaymentGateway) *ContainerBuilder {
	b.gateway = g
	return b
}

// WithLock подменяет блокировку планировщика.
func (b *ContainerBuilder) WithLock(l ports.DistributedLock) *ContainerBuilder {
	b.lock = l
	return b
}

// Build создаёт и инициализирует контейнер.
func (b *ContainerBuilder) Build(ctx context.Context) (*Container, error) {
	c := New(b.cfg)
	c.logger = b.logger
	c.pool = b.pool
	c.eventPublisher = b.eventPublisher
	c.gateway = b.gateway
	c.lock = b.lock

	if err := c.Initialize(ctx); err != nil {
		return nil, err
	}
	return c, nil
}
