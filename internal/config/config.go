// Package config - Application configuration management.
//
// Использует Viper для:
//   - Загрузки из YAML файлов
//   - Переменных окружения
//   - Значений по умолчанию
//
// Порядок приоритета (от высшего к низшему):
//  1. Environment variables
//  2. Config file
//  3. Default values
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Haleralex/walletledger/internal/domain/valueobjects"
)

// ============================================
// Main Configuration
// ============================================

// Config - главная структура конфигурации приложения.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
}

// ============================================
// App Configuration
// ============================================

// AppConfig - конфигурация приложения.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"` // development, staging, production
	Debug       bool   `mapstructure:"debug"`
	BuildTime   string `mapstructure:"build_time"`
	GitCommit   string `mapstructure:"git_commit"`

	// DefaultCurrency - валюта кошелька, создаваемого вместе с пользователем.
	DefaultCurrency string `mapstructure:"default_currency"`
}

// IsDevelopment возвращает true если окружение development.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction возвращает true если окружение production.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

// ============================================
// Server Configuration
// ============================================

// ServerConfig - конфигурация HTTP сервера.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address возвращает полный адрес сервера.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ============================================
// Database Configuration
// ============================================

// Драйверы хранилища
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DatabaseConfig - конфигурация базы данных.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres, memory
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConnections  int32         `mapstructure:"max_connections"`
	MinConnections  int32         `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
}

// DSN возвращает строку подключения к PostgreSQL.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
		c.SSLMode,
	)
}

// ============================================
// Auth Configuration
// ============================================

// AuthConfig - конфигурация аутентификации.
//
// Токены выпускает внешний identity provider, сервис только проверяет
// подпись HS256 и issuer.
type AuthConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	JWTSecret         string        `mapstructure:"jwt_secret"`
	JWTIssuer         string        `mapstructure:"jwt_issuer"`
	AccessTokenExpiry time.Duration `mapstructure:"access_token_expiry"`
}

// ============================================
// CORS Configuration
// ============================================

// CORSConfig - конфигурация CORS.
type CORSConfig struct {
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	AllowedMethods   []string      `mapstructure:"allowed_methods"`
	AllowedHeaders   []string      `mapstructure:"allowed_headers"`
	ExposedHeaders   []string      `mapstructure:"exposed_headers"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

// ============================================
// Rate Limit Configuration
// ============================================

// RateLimitConfig - конфигурация rate limiting.
type RateLimitConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	RequestsPerMinute  int           `mapstructure:"requests_per_minute"`
	BurstSize          int           `mapstructure:"burst_size"`
	FinancialOpsPerMin int           `mapstructure:"financial_ops_per_min"`
	CleanupInterval    time.Duration `mapstructure:"cleanup_interval"`
}

// ============================================
// Log Configuration
// ============================================

// LogConfig - конфигурация логирования.
type LogConfig struct {
	Level    string `mapstructure:"level"`     // debug, info, warn, error
	Format   string `mapstructure:"format"`    // json, text
	Output   string `mapstructure:"output"`    // stdout, stderr, file
	FilePath string `mapstructure:"file_path"` // для output=file, дозапись
}

// ============================================
// Scheduler Configuration
// ============================================

// SchedulerConfig - фоновые списания и outbox relay.
type SchedulerConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DeductionSpec string        `mapstructure:"deduction_spec"` // cron spec, e.g. "@every 1h"
	RelaySpec     string        `mapstructure:"relay_spec"`     // пусто - relay выключен
	LockTTL       time.Duration `mapstructure:"lock_ttl"`
	BatchSize     int           `mapstructure:"batch_size"`
	RunOnStart    bool          `mapstructure:"run_on_start"`
}

// ============================================
// Redis Configuration
// ============================================

// RedisConfig - Redis для распределённой блокировки планировщика.
// Пустой Addr - используется локальная блокировка процесса.
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
}

// Enabled возвращает true если Redis настроен.
func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// ============================================
// NATS Configuration
// ============================================

// NATSConfig - брокер для outbox relay. Пустой URL - relay выключен.
type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	ClientName    string        `mapstructure:"client_name"`
	SubjectPrefix string        `mapstructure:"subject_prefix"`
	ConnectWait   time.Duration `mapstructure:"connect_wait"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
}

// Enabled возвращает true если NATS настроен.
func (c *NATSConfig) Enabled() bool {
	return c.URL != ""
}

// ============================================
// Tracing Configuration
// ============================================

// TracingConfig - экспорт трейсов OpenTelemetry (OTLP/HTTP).
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"` // host:port коллектора
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
	ServiceName string  `mapstructure:"service_name"`
}

// ============================================
// Gateway Configuration
// ============================================

// GatewayConfig - платёжный шлюз для пополнений.
// Пустой SecretKey - пополнения через шлюз отключены.
type GatewayConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	SecretKey   string        `mapstructure:"secret_key"`
	CallbackURL string        `mapstructure:"callback_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Enabled возвращает true если ключ шлюза задан.
func (c *GatewayConfig) Enabled() bool {
	return c.SecretKey != ""
}

// ============================================
// Configuration Loading
// ============================================

// EnvPrefix - префикс переменных окружения (WALLETLEDGER_SERVER_PORT и т.д.).
const EnvPrefix = "WALLETLEDGER"

// Load загружает конфигурацию из файла и переменных окружения.
//
// configPath - путь к директории с конфигурацией (например, "configs")
// configName - имя файла конфигурации без расширения (например, "config")
//
// Поддерживаемые форматы: yaml, json, toml
func Load(configPath, configName string) (*Config, error) {
	v := viper.New()

	// Устанавливаем defaults
	setDefaults(v)

	// Настраиваем Viper
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/walletledger")

	// Переменные окружения
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	// Читаем конфигурационный файл
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Файл не найден - используем defaults и env vars
	}

	// Парсим в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Валидируем конфигурацию
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv загружает конфигурацию только из переменных окружения.
func LoadFromEnv() (*Config, error) {
	v := viper.New()

	// Устанавливаем defaults
	setDefaults(v)

	// Переменные окружения
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific env vars
	bindEnvVars(v)

	// Парсим в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Валидируем конфигурацию
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults устанавливает значения по умолчанию.
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "walletledger")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.default_currency", "NGN")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.database", "walletledger")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")
	v.SetDefault("database.connect_timeout", "5s")

	// Auth defaults
	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.jwt_secret", defaultJWTSecret)
	v.SetDefault("auth.jwt_issuer", "walletledger")
	v.SetDefault("auth.access_token_expiry", "15m")

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"})
	v.SetDefault("cors.exposed_headers", []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", "12h")

	// Rate Limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_minute", 100)
	v.SetDefault("rate_limit.burst_size", 20)
	v.SetDefault("rate_limit.financial_ops_per_min", 30)
	v.SetDefault("rate_limit.cleanup_interval", "1m")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	// Scheduler defaults
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.deduction_spec", "@every 1h")
	v.SetDefault("scheduler.relay_spec", "@every 10s")
	v.SetDefault("scheduler.lock_ttl", "10m")
	v.SetDefault("scheduler.batch_size", 500)
	v.SetDefault("scheduler.run_on_start", true)

	// Redis defaults (пустой addr - локальная блокировка)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.key_prefix", "walletledger:lock:")

	// NATS defaults (пустой url - relay выключен)
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.client_name", "walletledger")
	v.SetDefault("nats.subject_prefix", "walletledger")
	v.SetDefault("nats.connect_wait", "5s")
	v.SetDefault("nats.max_reconnects", 60)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.max_attempts", 10)

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.sample_ratio", 1.0)
	v.SetDefault("tracing.service_name", "walletledger")

	// Gateway defaults
	v.SetDefault("gateway.base_url", "https://api.paystack.co")
	v.SetDefault("gateway.secret_key", "")
	v.SetDefault("gateway.timeout", "15s")
}

// bindEnvVars привязывает короткие имена переменных окружения
// (docker-compose, PaaS) к ключам конфигурации.
func bindEnvVars(v *viper.Viper) {
	// Database (обычно передаётся через env в production)
	_ = v.BindEnv("database.host", "WALLETLEDGER_DATABASE_HOST", "DB_HOST")
	_ = v.BindEnv("database.port", "WALLETLEDGER_DATABASE_PORT", "DB_PORT")
	_ = v.BindEnv("database.user", "WALLETLEDGER_DATABASE_USER", "DB_USER")
	_ = v.BindEnv("database.password", "WALLETLEDGER_DATABASE_PASSWORD", "DB_PASSWORD")
	_ = v.BindEnv("database.database", "WALLETLEDGER_DATABASE_DATABASE", "DB_NAME")

	// Auth
	_ = v.BindEnv("auth.jwt_secret", "WALLETLEDGER_AUTH_JWT_SECRET", "JWT_SECRET")

	// Server
	_ = v.BindEnv("server.port", "WALLETLEDGER_SERVER_PORT", "PORT")

	// App
	_ = v.BindEnv("app.environment", "WALLETLEDGER_APP_ENVIRONMENT", "ENVIRONMENT", "ENV")

	// Внешние сервисы
	_ = v.BindEnv("redis.addr", "WALLETLEDGER_REDIS_ADDR", "REDIS_ADDR")
	_ = v.BindEnv("nats.url", "WALLETLEDGER_NATS_URL", "NATS_URL")
	_ = v.BindEnv("gateway.secret_key", "WALLETLEDGER_GATEWAY_SECRET_KEY", "PAYSTACK_SECRET_KEY")
	_ = v.BindEnv("tracing.endpoint", "WALLETLEDGER_TRACING_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// ============================================
// Configuration Validation
// ============================================

const defaultJWTSecret = "change-me-in-production"

// Validate валидирует конфигурацию.
func (c *Config) Validate() error {
	// Проверяем критичные настройки в production
	if c.App.IsProduction() {
		if c.Auth.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT secret must be changed in production")
		}

		if !c.Auth.Enabled {
			return fmt.Errorf("auth must be enabled in production")
		}

		if c.Database.Driver == DriverMemory {
			return fmt.Errorf("memory storage is not allowed in production")
		}
	}

	if _, err := valueobjects.NewCurrency(c.App.DefaultCurrency); err != nil {
		return fmt.Errorf("invalid default currency: %w", err)
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database driver: %q", c.Database.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required when auth is enabled")
	}

	if c.Scheduler.Enabled && c.Scheduler.DeductionSpec == "" {
		return fmt.Errorf("scheduler deduction spec is required")
	}

	if c.Scheduler.BatchSize < 0 {
		return fmt.Errorf("invalid scheduler batch size: %d", c.Scheduler.BatchSize)
	}

	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing sample ratio must be within [0, 1]: %v", c.Tracing.SampleRatio)
	}

	if c.Log.Output == "file" && c.Log.FilePath == "" {
		return fmt.Errorf("log file path is required for file output")
	}

	if c.NATS.Enabled() && c.Database.Driver == DriverMemory {
		return fmt.Errorf("outbox relay requires the postgres driver")
	}

	return nil
}

// ============================================
// Development Helpers
// ============================================

// Development возвращает конфигурацию для разработки.
func Development() *Config {
	return &Config{
		App: AppConfig{
			Name:            "walletledger",
			Version:         "dev",
			Environment:     "development",
			Debug:           true,
			DefaultCurrency: "NGN",
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          DriverPostgres,
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Password:        "postgres",
			Database:        "walletledger",
			SSLMode:         "disable",
			MaxConnections:  10,
			MinConnections:  2,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
			ConnectTimeout:  5 * time.Second,
		},
		Auth: AuthConfig{
			Enabled:           true,
			JWTSecret:         "dev-secret-key",
			JWTIssuer:         "walletledger-dev",
			AccessTokenExpiry: 15 * time.Minute,
		},
		CORS: CORSConfig{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Enabled:            true,
			RequestsPerMinute:  100,
			BurstSize:          20,
			FinancialOpsPerMin: 30,
			CleanupInterval:    time.Minute,
		},
		Log: LogConfig{
			Level:  "debug",
			Format: "text",
			Output: "stdout",
		},
		Scheduler: SchedulerConfig{
			Enabled:       true,
			DeductionSpec: "@every 1h",
			RelaySpec:     "@every 10s",
			LockTTL:       10 * time.Minute,
			BatchSize:     500,
			RunOnStart:    true,
		},
		Redis: RedisConfig{
			DialTimeout: 5 * time.Second,
			KeyPrefix:   "walletledger:lock:",
		},
		NATS: NATSConfig{
			ClientName:    "walletledger",
			SubjectPrefix: "walletledger",
			ConnectWait:   5 * time.Second,
			MaxReconnects: 60,
			ReconnectWait: 2 * time.Second,
			MaxAttempts:   10,
		},
		Tracing: TracingConfig{
			Endpoint:    "localhost:4318",
			Insecure:    true,
			SampleRatio: 1,
			ServiceName: "walletledger",
		},
		Gateway: GatewayConfig{
			BaseURL: "https://api.paystack.co",
			Timeout: 15 * time.Second,
		},
	}
}

// Test возвращает конфигурацию для тестов.
func Test() *Config {
	cfg := Development()
	cfg.App.Environment = "test"
	cfg.Database.Driver = DriverMemory
	cfg.Database.Database = "walletledger_test"
	cfg.Log.Level = "error" // Меньше шума в тестах
	cfg.Scheduler.Enabled = false
	return cfg
}
