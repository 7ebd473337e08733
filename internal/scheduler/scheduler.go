// Package scheduler - фоновые задачи по расписанию.
//
// Задачи:
//   - savings-deductions: регулярные списания в накопительные планы
//   - outbox-relay: перенос событий из outbox в брокер (если настроен)
//
// Каденс задаёт robfig/cron/v3. Перед запуском задача берёт распределённую
// блокировку, поэтому при нескольких репликах работает только одна.
// Списания запускаются сразу при старте, затем по расписанию.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"

	"github.com/Haleralex/walletledger/internal/application/dtos"
	"github.com/Haleralex/walletledger/internal/application/ports"
	"github.com/Haleralex/walletledger/internal/infrastructure/messaging"
)

// Ключи блокировок
const (
	DeductionsLockKey = "savings-deductions"
	RelayLockKey      = "outbox-relay"
)

// DefaultDeductionSpec - раз в час.
const DefaultDeductionSpec = "@every 1h"

// ErrLockHeld - задачу выполняет другая реплика.
var ErrLockHeld = errors.New("job lock is held by another instance")

var jobRunsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "walletledger",
		Subsystem: "scheduler",
		Name:      "job_runs_total",
		Help:      "Scheduled job runs, by job and result",
	},
	[]string{"job", "result"}, // ok, error, skipped
)

// DeductionRunner - тело задачи списаний (savings.ProcessRecurringDeductionsUseCase).
type DeductionRunner interface {
	Execute(ctx context.Context, cmd dtos.ProcessRecurringDeductionsCommand) (*dtos.DeductionReportDTO, error)
}

// OutboxRelayer - тело задачи relay (messaging.OutboxRelay).
type OutboxRelayer interface {
	RelayOnce(ctx context.Context) (messaging.RelayReport, error)
}

// Config - параметры планировщика.
type Config struct {
	Enabled       bool
	DeductionSpec string        // cron spec, по умолчанию @every 1h
	RelaySpec     string        // пусто - relay не запускается
	LockTTL       time.Duration // должен превышать время прогона
	BatchSize     int
	RunOnStart    bool
}

// Scheduler управляет cron-задачами.
type Scheduler struct {
	cfg        Config
	cron       *cron.Cron
	deductions DeductionRunner
	relay      OutboxRelayer
	lock       ports.DistributedLock
	logger     *slog.Logger
	now        func() time.Time

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New создаёт планировщик и регистрирует задачи. relay может быть nil.
func New(cfg Config, deductions DeductionRunner, relay OutboxRelayer, lock ports.DistributedLock, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DeductionSpec == "" {
		cfg.DeductionSpec = DefaultDeductionSpec
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}

	cronLogger := &slogCronLogger{logger: logger.With(slog.String("component", "cron"))}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		cfg:        cfg,
		deductions: deductions,
		relay:      relay,
		lock:       lock,
		logger:     logger,
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
	}

	if _, err := s.cron.AddFunc(cfg.DeductionSpec, func() { _, _ = s.RunDeductions(s.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid deduction schedule %q: %w", cfg.DeductionSpec, err)
	}

	if relay != nil && cfg.RelaySpec != "" {
		if _, err := s.cron.AddFunc(cfg.RelaySpec, func() { _, _ = s.RunRelay(s.ctx) }); err != nil {
			cancel()
			return nil, fmt.Errorf("invalid relay schedule %q: %w", cfg.RelaySpec, err)
		}
	}

	return s, nil
}

// Start запускает cron и, если включено, сразу выполняет списания.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.Enabled {
		s.logger.Info("scheduler disabled, not starting")
		return
	}
	if s.running {
		return
	}
	s.running = true

	if s.cfg.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			_, _ = s.RunDeductions(s.ctx)
		}()
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		slog.String("deductions", s.cfg.DeductionSpec),
		slog.String("relay", s.cfg.RelaySpec),
	)
}

// Stop останавливает cron и ждёт завершения текущих задач или ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	cronDone := s.cron.Stop()
	s.cancel()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// RunDeductions выполняет один прогон списаний под блокировкой.
// Возвращает ErrLockHeld, если прогон уже идёт на другой реплике.
func (s *Scheduler) RunDeductions(ctx context.Context) (*dtos.DeductionReportDTO, error) {
	var report *dtos.DeductionReportDTO

	err := s.withLock(ctx, "savings-deductions", DeductionsLockKey, func(ctx context.Context) error {
		var err error
		report, err = s.deductions.Execute(ctx, dtos.ProcessRecurringDeductionsCommand{
			AsOf:      s.now().UTC(),
			BatchSize: s.cfg.BatchSize,
		})
		if err != nil {
			return err
		}

		s.logger.InfoContext(ctx, "savings deductions processed",
			slog.Time("as_of", report.AsOf),
			slog.Int("scanned", report.Scanned),
			slog.Int("due", report.Due),
			slog.Int("succeeded", report.Succeeded),
			slog.Int("failed", report.Failed),
			slog.Int("skipped", report.Skipped),
		)
		return nil
	})

	return report, err
}

// RunRelay выполняет один прогон relay под блокировкой.
func (s *Scheduler) RunRelay(ctx context.Context) (messaging.RelayReport, error) {
	var report messaging.RelayReport
	if s.relay == nil {
		return report, nil
	}

	err := s.withLock(ctx, "outbox-relay", RelayLockKey, func(ctx context.Context) error {
		var err error
		report, err = s.relay.RelayOnce(ctx)
		return err
	})

	return report, err
}

func (s *Scheduler) withLock(ctx context.Context, job, key string, fn func(context.Context) error) error {
	release, ok, err := s.lock.TryLock(ctx, key, s.cfg.LockTTL)
	if err != nil {
		jobRunsTotal.WithLabelValues(job, "error").Inc()
		s.logger.ErrorContext(ctx, "failed to acquire job lock", slog.String("job", job), slog.String("error", err.Error()))
		return err
	}
	if !ok {
		jobRunsTotal.WithLabelValues(job, "skipped").Inc()
		s.logger.DebugContext(ctx, "job lock held elsewhere, skipping", slog.String("job", job))
		return ErrLockHeld
	}
	defer func() {
		// Снимаем блокировку даже если ctx уже отменён
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release job lock", slog.String("job", job), slog.String("error", err.Error()))
		}
	}()

	if err := fn(ctx); err != nil {
		jobRunsTotal.WithLabelValues(job, "error").Inc()
		s.logger.ErrorContext(ctx, "scheduled job failed", slog.String("job", job), slog.String("error", err.Error()))
		return err
	}

	jobRunsTotal.WithLabelValues(job, "ok").Inc()
	return nil
}

// slogCronLogger адаптирует slog к cron.Logger.
type slogCronLogger struct {
	logger *slog.Logger
}

func (l *slogCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l *slogCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
