package travelpulse

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/traveloure/traveloure-api/app/observability/metrics"
)

// SchedulerConfig carries the timing knobs of the background city refresh.
type SchedulerConfig struct {
	InitialDelay time.Duration
	Interval     time.Duration
}

// SchedulerStatus is a point-in-time snapshot for the status endpoint.
type SchedulerStatus struct {
	IsRunning bool       `json:"isRunning"`
	LastRunAt *time.Time `json:"lastRunAt"`
	NextRunAt *time.Time `json:"nextRunAt"`
}

// ManualRefreshResult reports the outcome of an on-demand refresh trigger.
type ManualRefreshResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Scheduler refreshes stale city AI profiles once after a startup delay and
// then on a fixed interval. A run already in progress makes a new tick a
// no-op rather than a queued or concurrent pass.
type Scheduler struct {
	logger     *slog.Logger
	service    Service
	appMetrics *metrics.AppMetrics
	cfg        SchedulerConfig

	cron         *cron.Cron
	initialTimer *time.Timer
	isRunning    atomic.Bool
	started      atomic.Bool

	mu        sync.Mutex
	lastRunAt *time.Time
	nextRunAt *time.Time
}

// NewScheduler builds a stopped scheduler. appMetrics may be nil in tests.
func NewScheduler(service Service, cfg SchedulerConfig, appMetrics *metrics.AppMetrics, logger *slog.Logger) *Scheduler {
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 5 * time.Minute
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	return &Scheduler{
		logger:     logger,
		service:    service,
		appMetrics: appMetrics,
		cfg:        cfg,
		cron:       cron.New(),
	}
}

// Start arms the first run and the recurring interval. Calling Start twice is
// a no-op.
func (s *Scheduler) Start() {
	if !s.started.CompareAndSwap(false, true) {
		s.logger.Info("City refresh scheduler already running")
		return
	}

	next := time.Now().Add(s.cfg.InitialDelay)
	s.setNextRunAt(next)
	s.logger.Info("Starting city refresh scheduler",
		slog.Time("first_run_at", next),
		slog.Duration("interval", s.cfg.Interval),
	)

	s.initialTimer = time.AfterFunc(s.cfg.InitialDelay, func() {
		s.RunRefresh(context.Background())
		s.cron.Schedule(cron.Every(s.cfg.Interval), cron.FuncJob(func() {
			s.RunRefresh(context.Background())
		}))
		s.cron.Start()
	})
}

// Stop halts future runs. A pass already underway finishes on its own.
func (s *Scheduler) Stop() {
	if !s.started.CompareAndSwap(true, false) {
		return
	}
	if s.initialTimer != nil {
		s.initialTimer.Stop()
	}
	s.cron.Stop()
	s.logger.Info("City refresh scheduler stopped")
}

// RunRefresh executes one full pass: prune expired cache rows, then refresh
// one batch of stale city profiles. Overlapping invocations are skipped.
func (s *Scheduler) RunRefresh(ctx context.Context) RefreshResult {
	if !s.isRunning.CompareAndSwap(false, true) {
		s.logger.InfoContext(ctx, "City refresh already in progress, skipping")
		return RefreshResult{}
	}
	defer s.isRunning.Store(false)

	now := time.Now()
	s.setLastRunAt(now)
	s.setNextRunAt(now.Add(s.cfg.Interval))

	if _, err := s.service.CleanupExpired(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Failed to prune expired intelligence rows", slog.Any("error", err))
	}

	result, err := s.service.RefreshStaleAICities(ctx)
	outcome := "success"
	if err != nil {
		outcome = "error"
		s.logger.ErrorContext(ctx, "City refresh pass failed", slog.Any("error", err))
		result = RefreshResult{Errors: result.Errors + 1, Refreshed: result.Refreshed}
	} else {
		s.logger.InfoContext(ctx, "City refresh pass completed",
			slog.Int("refreshed", result.Refreshed),
			slog.Int("errors", result.Errors),
		)
	}

	if s.appMetrics != nil {
		s.appMetrics.SchedulerRunsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
	return result
}

// TriggerManual refreshes one named city immediately, or forces a full batch
// pass when no city is given. Both paths share the regular update routine.
func (s *Scheduler) TriggerManual(ctx context.Context, city, country string) ManualRefreshResult {
	if city != "" && country != "" {
		s.logger.InfoContext(ctx, "Manual city refresh triggered",
			slog.String("city", city),
			slog.String("country", country),
		)
		profile, err := s.service.UpdateCityWithAI(ctx, city, country)
		if err != nil {
			return ManualRefreshResult{
				Success: false,
				Message: fmt.Sprintf("Failed to update %s: %v", city, err),
			}
		}
		return ManualRefreshResult{
			Success: true,
			Message: fmt.Sprintf("Successfully updated %s with AI intelligence", city),
			Data:    profile,
		}
	}

	s.logger.InfoContext(ctx, "Manual refresh triggered for all stale cities")
	result := s.RunRefresh(ctx)
	return ManualRefreshResult{
		Success: result.Errors == 0,
		Message: fmt.Sprintf("Refreshed %d cities with %d errors", result.Refreshed, result.Errors),
		Data:    result,
	}
}

// Status reports the scheduler's current state.
func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SchedulerStatus{
		IsRunning: s.isRunning.Load(),
		LastRunAt: s.lastRunAt,
		NextRunAt: s.nextRunAt,
	}
}

func (s *Scheduler) setLastRunAt(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRunAt = &t
}

func (s *Scheduler) setNextRunAt(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRunAt = &t
}
