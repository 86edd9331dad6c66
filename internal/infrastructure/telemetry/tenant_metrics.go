package telemetry

import (
	"context"

	"github.com/smartedu/backend/internal/domain/shared"
	"github.com/smartedu/backend/internal/domain/tenant"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of the tenant metrics
const MeterName = "saas-admin/tenant"

// TenantMetrics turns tenant and subscription events into metrics.
// It subscribes to every topic on the event bus.
//
// Metrics:
//   - tenant.lifecycle.events: events seen, by event_type
//   - tenant.active: tenants currently ACTIVE, moved by activate/suspend/delete
//   - subscription.plan.changes: upgrades and downgrades, by old_plan and plan
type TenantMetrics struct {
	events      *Counter
	active      *UpDownCounter
	planChanges *Counter
}

// NewTenantMetrics creates the instruments on meter.
func NewTenantMetrics(meter metric.Meter) (*TenantMetrics, error) {
	events, err := NewCounter(meter, "tenant.lifecycle.events",
		"Tenant and subscription domain events handled", "{event}")
	if err != nil {
		return nil, err
	}
	active, err := NewUpDownCounter(meter, "tenant.active",
		"Tenants in ACTIVE status", "{tenant}")
	if err != nil {
		return nil, err
	}
	planChanges, err := NewCounter(meter, "subscription.plan.changes",
		"Subscription upgrades and downgrades", "{change}")
	if err != nil {
		return nil, err
	}

	return &TenantMetrics{
		events:      events,
		active:      active,
		planChanges: planChanges,
	}, nil
}

// EventTypes returns nil: every event is counted.
func (m *TenantMetrics) EventTypes() []string {
	return nil
}

// Handle records the metrics for one event. It never fails on unknown events.
func (m *TenantMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	m.events.Inc(ctx, AttrEventType.String(event.EventType()))

	switch e := event.(type) {
	case *tenant.TenantActivatedEvent:
		m.active.Add(ctx, 1)
	case *tenant.TenantSuspendedEvent:
		m.active.Add(ctx, -1)
	case *tenant.TenantDeletedEvent:
		if e.Status == tenant.TenantStatusActive {
			m.active.Add(ctx, -1)
		}
	case *tenant.SubscriptionPlanChangedEvent:
		m.planChanges.Inc(ctx,
			AttrEventType.String(e.EventType()),
			AttrOldPlan.String(string(e.OldPlan)),
			AttrPlan.String(string(e.NewPlan)),
		)
	}
	return nil
}

var _ shared.EventHandler = (*TenantMetrics)(nil)
