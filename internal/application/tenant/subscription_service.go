package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/smartedu/backend/internal/domain/shared"
	"github.com/smartedu/backend/internal/domain/shared/valueobject"
	"github.com/smartedu/backend/internal/domain/tenant"
	"github.com/smartedu/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SubscriptionService manages tenant subscriptions and the billing sweep
type SubscriptionService struct {
	subscriptionRepo tenant.SubscriptionRepository
	tenantRepo       tenant.TenantRepository
	publisher        shared.EventPublisher
	logger           *zap.Logger
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(
	subscriptionRepo tenant.SubscriptionRepository,
	tenantRepo tenant.TenantRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		tenantRepo:       tenantRepo,
		publisher:        publisher,
		logger:           logger,
	}
}

// CreateSubscription subscribes an existing tenant to a plan
func (s *SubscriptionService) CreateSubscription(ctx context.Context, cmd CreateSubscriptionCommand) (_ *SubscriptionDTO, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "subscription", "create_subscription",
		telemetry.SpanAttrTenantID, cmd.TenantID,
		telemetry.SpanAttrPlan, cmd.Plan)
	defer func() { telemetry.End(span, err) }()

	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	tenantID, err := valueobject.ParseTenantID(cmd.TenantID)
	if err != nil {
		return nil, err
	}

	if _, err := s.tenantRepo.FindByID(ctx, tenantID); err != nil {
		return nil, notFound(err, tenant.AggregateTypeTenant, cmd.TenantID)
	}

	active, err := s.subscriptionRepo.FindActiveByTenantID(ctx, tenantID)
	switch {
	case err == nil:
		return nil, shared.NewBusinessRuleViolation(tenant.RuleSingleActiveSubscription,
			"Tenant already has an active subscription", active.ID.String())
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	var opts []tenant.SubscriptionOption
	if cmd.AutoRenew != nil {
		opts = append(opts, tenant.WithAutoRenew(*cmd.AutoRenew))
	}

	sub, err := tenant.NewSubscription(tenantID,
		tenant.SubscriptionPlan(cmd.Plan),
		tenant.BillingPeriod(cmd.BillingPeriod),
		cmd.StartDate,
		opts...)
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info("Subscription created",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("tenant_id", cmd.TenantID),
		zap.String("plan", cmd.Plan),
		zap.String("price", sub.Price.String()))

	return ToSubscriptionDTO(sub), nil
}

// UpgradePlan moves an active subscription to a higher plan
func (s *SubscriptionService) UpgradePlan(ctx context.Context, cmd ChangePlanCommand) (*SubscriptionDTO, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, cmd.SubscriptionID, "Subscription upgraded", func(sub *tenant.Subscription) error {
		return sub.Upgrade(tenant.SubscriptionPlan(cmd.Plan))
	})
}

// DowngradePlan moves an active subscription to a lower plan
func (s *SubscriptionService) DowngradePlan(ctx context.Context, cmd ChangePlanCommand) (*SubscriptionDTO, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return s.mutate(ctx, cmd.SubscriptionID, "Subscription downgraded", func(sub *tenant.Subscription) error {
		return sub.Downgrade(tenant.SubscriptionPlan(cmd.Plan))
	})
}

// CancelSubscription ends a subscription today
func (s *SubscriptionService) CancelSubscription(ctx context.Context, subscriptionID string) (*SubscriptionDTO, error) {
	return s.mutate(ctx, subscriptionID, "Subscription cancelled", func(sub *tenant.Subscription) error {
		return sub.Cancel()
	})
}

// SuspendSubscription pauses an active subscription
func (s *SubscriptionService) SuspendSubscription(ctx context.Context, subscriptionID string) (*SubscriptionDTO, error) {
	return s.mutate(ctx, subscriptionID, "Subscription suspended", func(sub *tenant.Subscription) error {
		return sub.Suspend()
	})
}

// ReactivateSubscription restarts a suspended or expired subscription
func (s *SubscriptionService) ReactivateSubscription(ctx context.Context, subscriptionID string) (*SubscriptionDTO, error) {
	return s.mutate(ctx, subscriptionID, "Subscription reactivated", func(sub *tenant.Subscription) error {
		return sub.Reactivate()
	})
}

// RenewSubscription starts a new billing period from today
func (s *SubscriptionService) RenewSubscription(ctx context.Context, subscriptionID string) (*SubscriptionDTO, error) {
	return s.mutate(ctx, subscriptionID, "Subscription renewed", func(sub *tenant.Subscription) error {
		return sub.Renew()
	})
}

// SetAutoRenew turns auto-renew on or off
func (s *SubscriptionService) SetAutoRenew(ctx context.Context, subscriptionID string, autoRenew bool) (*SubscriptionDTO, error) {
	return s.mutate(ctx, subscriptionID, "Subscription auto-renew changed", func(sub *tenant.Subscription) error {
		sub.SetAutoRenew(autoRenew)
		return nil
	})
}

// GetSubscription retrieves a subscription by ID
func (s *SubscriptionService) GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionDTO, error) {
	sub, err := s.load(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	return ToSubscriptionDTO(sub), nil
}

// GetActiveSubscription retrieves the active subscription of a tenant
func (s *SubscriptionService) GetActiveSubscription(ctx context.Context, tenantID string) (*SubscriptionDTO, error) {
	id, err := valueobject.ParseTenantID(tenantID)
	if err != nil {
		return nil, err
	}

	sub, err := s.subscriptionRepo.FindActiveByTenantID(ctx, id)
	if err != nil {
		return nil, notFound(err, tenant.AggregateTypeSubscription, tenantID)
	}
	return ToSubscriptionDTO(sub), nil
}

// ListSubscriptions retrieves all subscriptions of a tenant, newest first
func (s *SubscriptionService) ListSubscriptions(ctx context.Context, tenantID string) ([]SubscriptionDTO, error) {
	id, err := valueobject.ParseTenantID(tenantID)
	if err != nil {
		return nil, err
	}

	subs, err := s.subscriptionRepo.FindByTenantID(ctx, id)
	if err != nil {
		return nil, err
	}

	dtos := make([]SubscriptionDTO, len(subs))
	for i, sub := range subs {
		dtos[i] = *ToSubscriptionDTO(sub)
	}
	return dtos, nil
}

// ProcessRenewals renews auto-renewing subscriptions due on or before asOf
// and expires the non-renewing ones whose end date has passed.
//
// Each subscription is saved on its own. A subscription changed concurrently
// is skipped and picked up by the next sweep; other failures are counted and
// do not stop the sweep.
func (s *SubscriptionService) ProcessRenewals(ctx context.Context, asOf time.Time) (_ *RenewalSummary, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "subscription", "process_renewals")
	defer func() { telemetry.End(span, err) }()

	summary := &RenewalSummary{AsOf: tenant.DateOf(asOf)}

	due, err := s.subscriptionRepo.FindByNextBillingDate(ctx, summary.AsOf)
	if err != nil {
		return nil, err
	}
	for _, sub := range due {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		s.tally(ctx, summary, sub, &summary.Renewed, "renew", func() error {
			return sub.RenewOn(summary.AsOf)
		})
	}

	expiring, err := s.subscriptionRepo.FindExpiringBefore(ctx, summary.AsOf)
	if err != nil {
		return summary, err
	}
	for _, sub := range expiring {
		if sub.AutoRenew {
			continue
		}
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		s.tally(ctx, summary, sub, &summary.Expired, "expire", func() error {
			return sub.Expire(summary.AsOf)
		})
	}

	telemetry.SetAttributes(span,
		"renewed", summary.Renewed,
		"expired", summary.Expired,
		"failed", summary.Failed)
	s.logger.Info("Billing sweep finished",
		zap.Time("as_of", summary.AsOf),
		zap.Int("renewed", summary.Renewed),
		zap.Int("expired", summary.Expired),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))

	return summary, nil
}

func (s *SubscriptionService) tally(ctx context.Context, summary *RenewalSummary, sub *tenant.Subscription, counter *int, action string, change func() error) {
	err := change()
	if err == nil {
		err = s.save(ctx, sub)
	}

	switch {
	case err == nil:
		*counter++
	case errors.Is(err, shared.ErrConcurrencyConflict):
		summary.Skipped++
		s.logger.Warn("Subscription changed during billing sweep",
			zap.String("subscription_id", sub.ID.String()),
			zap.String("action", action),
			zap.Error(err))
	default:
		summary.Failed++
		s.logger.Error("Billing sweep action failed",
			zap.String("subscription_id", sub.ID.String()),
			zap.String("action", action),
			zap.Error(err))
	}
}

func (s *SubscriptionService) mutate(ctx context.Context, subscriptionID, message string, change func(*tenant.Subscription) error) (*SubscriptionDTO, error) {
	sub, err := s.load(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	if err := change(sub); err != nil {
		return nil, err
	}

	if err := s.save(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info(message,
		zap.String("subscription_id", subscriptionID),
		zap.String("plan", sub.Plan.String()),
		zap.String("status", sub.Status.String()),
		zap.Int("version", sub.GetVersion()))

	return ToSubscriptionDTO(sub), nil
}

func (s *SubscriptionService) load(ctx context.Context, subscriptionID string) (*tenant.Subscription, error) {
	id, err := uuid.Parse(subscriptionID)
	if err != nil {
		return nil, shared.NewInvalidArgumentError("Invalid subscription id: " + subscriptionID)
	}

	sub, err := s.subscriptionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, tenant.AggregateTypeSubscription, subscriptionID)
	}
	return sub, nil
}

func (s *SubscriptionService) save(ctx context.Context, sub *tenant.Subscription) error {
	if err := s.subscriptionRepo.Save(ctx, sub); err != nil {
		s.logger.Error("Failed to save subscription",
			zap.String("subscription_id", sub.ID.String()),
			zap.Int("version", sub.GetVersion()),
			zap.Error(err))
		return err
	}
	return publishPending(ctx, s.publisher, s.logger, sub)
}
