package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apptenant "github.com/smartedu/backend/internal/application/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeRenewals struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (f *fakeRenewals) ProcessRenewals(_ context.Context, asOf time.Time) (*apptenant.RenewalSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, asOf)
	if f.err != nil {
		return nil, f.err
	}
	return &apptenant.RenewalSummary{AsOf: asOf, Renewed: 2, Expired: 1}, nil
}

func (f *fakeRenewals) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeStats struct {
	calls atomic.Int32
	err   error
}

func (f *fakeStats) LogStats(context.Context) error {
	f.calls.Add(1)
	return f.err
}

func TestDefaultBillingSchedulerConfig(t *testing.T) {
	cfg := DefaultBillingSchedulerConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, time.Hour, cfg.SweepInterval)
	assert.Equal(t, 10*time.Minute, cfg.SweepTimeout)
	assert.Equal(t, 5*time.Minute, cfg.StatsInterval)
	assert.True(t, cfg.RunOnStart)
}

func TestNewBillingScheduler_FillsZeroDurations(t *testing.T) {
	s := NewBillingScheduler(&fakeRenewals{}, nil, zap.NewNop(), BillingSchedulerConfig{Enabled: true})

	assert.Equal(t, time.Hour, s.config.SweepInterval)
	assert.Equal(t, 10*time.Minute, s.config.SweepTimeout)
}

func TestBillingScheduler_Disabled(t *testing.T) {
	renewals := &fakeRenewals{}
	s := NewBillingScheduler(renewals, nil, zap.NewNop(), BillingSchedulerConfig{Enabled: false, RunOnStart: true})

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.TriggerImmediateSweep(context.Background()), ErrSchedulerNotRunning)
	assert.NoError(t, s.Stop(context.Background()))
	assert.Zero(t, renewals.count())
}

func TestBillingScheduler_SweepsOnInterval(t *testing.T) {
	renewals := &fakeRenewals{}
	stats := &fakeStats{}
	s := NewBillingScheduler(renewals, stats, zap.NewNop(), BillingSchedulerConfig{
		Enabled:       true,
		SweepInterval: 10 * time.Millisecond,
		StatsInterval: 10 * time.Millisecond,
		RunOnStart:    true,
	})
	fixed := time.Date(2026, 3, 31, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()), "second start is a no-op")
	assert.True(t, s.IsRunning())

	assert.Eventually(t, func() bool { return renewals.count() >= 3 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return stats.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop(context.Background()))
	assert.False(t, s.IsRunning())

	renewals.mu.Lock()
	defer renewals.mu.Unlock()
	for _, asOf := range renewals.calls {
		assert.Equal(t, fixed, asOf)
	}
}

func TestBillingScheduler_TriggerImmediateSweep(t *testing.T) {
	renewals := &fakeRenewals{}
	s := NewBillingScheduler(renewals, nil, zap.NewNop(), BillingSchedulerConfig{
		Enabled:       true,
		SweepInterval: time.Hour,
	})

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })

	require.NoError(t, s.TriggerImmediateSweep(context.Background()))
	assert.Eventually(t, func() bool { return renewals.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestBillingScheduler_FailuresAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	renewals := &fakeRenewals{err: errors.New("database unavailable")}
	stats := &fakeStats{err: errors.New("database unavailable")}
	s := NewBillingScheduler(renewals, stats, zap.New(core), BillingSchedulerConfig{
		Enabled:       true,
		SweepInterval: time.Hour,
		StatsInterval: 10 * time.Millisecond,
		RunOnStart:    true,
	})

	require.NoError(t, s.Start(context.Background()))
	assert.Eventually(t, func() bool {
		return logs.FilterMessage("Billing sweep failed").Len() == 1 &&
			logs.FilterMessage("Outbox stats report failed").Len() >= 1
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
}

func TestBillingScheduler_StopTimeout(t *testing.T) {
	block := make(chan struct{})
	s := NewBillingScheduler(blockingRenewals{block}, nil, zap.NewNop(), BillingSchedulerConfig{
		Enabled:       true,
		SweepInterval: time.Hour,
		SweepTimeout:  time.Hour,
		RunOnStart:    true,
	})
	require.NoError(t, s.Start(context.Background()))
	defer close(block)

	time.Sleep(10 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)
}

type blockingRenewals struct {
	block chan struct{}
}

func (b blockingRenewals) ProcessRenewals(context.Context, time.Time) (*apptenant.RenewalSummary, error) {
	<-b.block
	return &apptenant.RenewalSummary{}, nil
}
