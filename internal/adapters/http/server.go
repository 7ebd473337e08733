// Package http - HTTP Server configuration and lifecycle management.
//
// Server управляет жизненным циклом HTTP сервера:
//   - Graceful startup
//   - Graceful shutdown
//   - Timeout configuration
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// ============================================
// Server Configuration
// ============================================

// ServerConfig - конфигурация HTTP сервера.
type ServerConfig struct {
	// Host для прослушивания (e.g., "0.0.0.0", "localhost")
	Host string
	// Port для прослушивания; "0" - любой свободный
	Port string
	// ReadTimeout - максимальное время чтения запроса
	ReadTimeout time.Duration
	// ReadHeaderTimeout - время на чтение заголовков (slowloris)
	ReadHeaderTimeout time.Duration
	// WriteTimeout - максимальное время записи ответа
	WriteTimeout time.Duration
	// IdleTimeout - максимальное время ожидания следующего запроса
	IdleTimeout time.Duration
	// ShutdownTimeout - время на graceful shutdown
	ShutdownTimeout time.Duration
	// Logger для логирования
	Logger *slog.Logger
}

// DefaultServerConfig - конфигурация по умолчанию.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:              "0.0.0.0",
		Port:              "8080",
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		Logger:            slog.Default(),
	}
}

// Address возвращает адрес для прослушивания.
func (c *ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// ============================================
// Server
// ============================================

// Server - HTTP сервер с graceful shutdown.
type Server struct {
	config     *ServerConfig
	httpServer *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// NewServer создаёт новый HTTP сервер.
func NewServer(config *ServerConfig, handler http.Handler) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Server{
		config: config,
		httpServer: &http.Server{
			Addr:              config.Address(),
			Handler:           handler,
			ReadTimeout:       config.ReadTimeout,
			ReadHeaderTimeout: config.ReadHeaderTimeout,
			WriteTimeout:      config.WriteTimeout,
			IdleTimeout:       config.IdleTimeout,
		},
	}
}

// Listen занимает порт. Отдельно от Serve, чтобы ошибка bind была видна сразу.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Address(), err)
	}
	s.listener = ln
	return nil
}

// Addr - фактический адрес после Listen (нужен при порте "0").
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return s.config.Address()
	}
	return s.listener.Addr().String()
}

// Start запускает сервер и блокируется до Shutdown.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.config.Logger.Info("Starting HTTP server",
		slog.String("address", s.Addr()),
	)

	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown выполняет graceful shutdown сервера.
func (s *Server) Shutdown(ctx context.Context) error {
	s.config.Logger.Info("Shutting down HTTP server...")

	shutdownCtx := ctx
	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.config.Logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		return err
	}

	s.config.Logger.Info("HTTP server stopped gracefully")
	return nil
}

// RunWithContext запускает сервер и останавливает его при отмене ctx.
//
// Сигналы ОС обрабатывает вызывающий (signal.NotifyContext в main).
func (s *Server) RunWithContext(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		s.config.Logger.Info("Context cancelled, initiating shutdown")
	}

	// Родительский ctx уже отменён, на shutdown нужен свой
	if err := s.Shutdown(context.Background()); err != nil {
		return err
	}
	return <-errChan
}
