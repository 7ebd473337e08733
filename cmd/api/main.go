package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Haleralex/walletledger/internal/config"
	"github.com/Haleralex/walletledger/internal/container"
)

func main() {
	var (
		configPath string
		configName string
		envFile    string
	)

	flag.StringVar(&configPath, "config-path", "./configs", "Directory with the config file")
	flag.StringVar(&configName, "config-name", "config", "Config file name without extension")
	flag.StringVar(&envFile, "env-file", ".env", "Optional .env file with WALLETLEDGER_* variables")
	flag.Parse()

	// .env необязателен: в контейнере переменные приходят из окружения
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		log.Fatalf("failed to load %s: %v", envFile, err)
	}

	// 1. Configuration
	cfg, err := config.Load(configPath, configName)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// 2. Container (logger, storage, use cases, HTTP)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := container.New(cfg)
	if err := app.Initialize(ctx); err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	logger := app.Logger()

	// 3. Run until SIGINT/SIGTERM
	runErr := app.Run(ctx)
	if runErr != nil {
		logger.Error("Server error", slog.String("error", runErr.Error()))
	}

	// 4. Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if runErr != nil {
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
