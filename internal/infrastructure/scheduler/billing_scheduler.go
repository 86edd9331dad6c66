// Package scheduler runs the worker's periodic jobs.
package scheduler

import (
	"context"
	"sync"
	"time"

	apptenant "github.com/smartedu/backend/internal/application/tenant"
	"go.uber.org/zap"
)

// RenewalProcessor runs one billing sweep
type RenewalProcessor interface {
	ProcessRenewals(ctx context.Context, asOf time.Time) (*apptenant.RenewalSummary, error)
}

// StatsReporter logs delivery statistics
type StatsReporter interface {
	LogStats(ctx context.Context) error
}

// BillingSchedulerConfig holds configuration for the billing scheduler
type BillingSchedulerConfig struct {
	// Enabled determines if the sweep loop is active
	Enabled bool

	// SweepInterval is the time between two billing sweeps
	SweepInterval time.Duration

	// SweepTimeout bounds one sweep
	SweepTimeout time.Duration

	// StatsInterval is the time between two outbox stats reports; zero turns them off
	StatsInterval time.Duration

	// RunOnStart runs a sweep as soon as the scheduler starts
	RunOnStart bool
}

// DefaultBillingSchedulerConfig returns default configuration
func DefaultBillingSchedulerConfig() BillingSchedulerConfig {
	return BillingSchedulerConfig{
		Enabled:       true,
		SweepInterval: time.Hour,
		SweepTimeout:  10 * time.Minute,
		StatsInterval: 5 * time.Minute,
		RunOnStart:    true,
	}
}

// BillingScheduler renews and expires subscriptions on a fixed interval and
// periodically reports outbox statistics.
type BillingScheduler struct {
	renewals  RenewalProcessor
	stats     StatsReporter
	logger    *zap.Logger
	config    BillingSchedulerConfig
	now       func() time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewBillingScheduler creates a new billing scheduler. stats may be nil.
func NewBillingScheduler(
	renewals RenewalProcessor,
	stats StatsReporter,
	logger *zap.Logger,
	config BillingSchedulerConfig,
) *BillingScheduler {
	defaults := DefaultBillingSchedulerConfig()
	if config.SweepInterval <= 0 {
		config.SweepInterval = defaults.SweepInterval
	}
	if config.SweepTimeout <= 0 {
		config.SweepTimeout = defaults.SweepTimeout
	}
	return &BillingScheduler{
		renewals: renewals,
		stats:    stats,
		logger:   logger.Named("billing-scheduler"),
		config:   config,
		now:      time.Now,
	}
}

// Start starts the scheduler loops
func (s *BillingScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Billing scheduler is disabled")
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runSweeps(ctx)

	if s.stats != nil && s.config.StatsInterval > 0 {
		s.wg.Add(1)
		go s.runStats(ctx)
	}

	s.logger.Info("Billing scheduler started",
		zap.Duration("sweep_interval", s.config.SweepInterval),
		zap.Duration("stats_interval", s.config.StatsInterval),
		zap.Bool("run_on_start", s.config.RunOnStart),
	)
	return nil
}

// Stop gracefully stops the scheduler, bounded by ctx
func (s *BillingScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.cancel()
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Billing scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Billing scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *BillingScheduler) runSweeps(ctx context.Context) {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.executeSweep(ctx)
	}

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Billing sweep loop stopping")
			return
		case <-ticker.C:
			s.executeSweep(ctx)
		}
	}
}

func (s *BillingScheduler) runStats(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.stats.LogStats(ctx); err != nil {
				s.logger.Error("Outbox stats report failed", zap.Error(err))
			}
		}
	}
}

// executeSweep runs one billing sweep as of today
func (s *BillingScheduler) executeSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	startTime := time.Now()
	summary, err := s.renewals.ProcessRenewals(sweepCtx, s.now())
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Billing sweep failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	s.logger.Debug("Billing sweep completed",
		zap.Duration("duration", duration),
		zap.Int("renewed", summary.Renewed),
		zap.Int("expired", summary.Expired),
	)
}

// TriggerImmediateSweep runs a sweep now, outside the interval
func (s *BillingScheduler) TriggerImmediateSweep(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	s.logger.Info("Triggering immediate billing sweep")

	go func() {
		defer s.wg.Done()
		s.executeSweep(ctx)
	}()
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *BillingScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
