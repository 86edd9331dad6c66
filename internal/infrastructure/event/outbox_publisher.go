package event

import (
	"context"
	"fmt"

	"github.com/smartedu/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// OutboxEventPublisher publishes domain events by writing them to the outbox.
// Delivery to handlers happens later, through the OutboxProcessor.
type OutboxEventPublisher struct {
	db         *gorm.DB
	serializer *EventSerializer
	maxRetries int
}

// OutboxPublisherOption configures an OutboxEventPublisher
type OutboxPublisherOption func(*OutboxEventPublisher)

// WithMaxRetries sets the delivery attempts before an entry is dead-lettered
func WithMaxRetries(n int) OutboxPublisherOption {
	return func(p *OutboxEventPublisher) {
		if n > 0 {
			p.maxRetries = n
		}
	}
}

// NewOutboxEventPublisher creates a new outbox publisher
func NewOutboxEventPublisher(db *gorm.DB, serializer *EventSerializer, opts ...OutboxPublisherOption) *OutboxEventPublisher {
	p := &OutboxEventPublisher{
		db:         db,
		serializer: serializer,
		maxRetries: shared.DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish writes the events to the outbox in one transaction. Either all of
// them are enqueued or none is.
func (p *OutboxEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return p.PublishWithTx(ctx, tx, events...)
	})
}

// PublishWithTx writes the events to the outbox inside the caller's transaction
func (p *OutboxEventPublisher) PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, event := range events {
		if !p.serializer.IsRegistered(event.EventType()) {
			return fmt.Errorf("%w: %s", ErrUnknownEventType, event.EventType())
		}
		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return err
		}

		entry := shared.NewOutboxEntry(event, payload)
		entry.MaxRetries = p.maxRetries
		entries = append(entries, entry)
	}

	return NewGormOutboxRepository(tx).Save(ctx, entries...)
}

// SaveEvents implements shared.OutboxEventSaver for repositories that already
// hold a transaction
func (p *OutboxEventPublisher) SaveEvents(ctx context.Context, txProvider any, events ...shared.DomainEvent) error {
	tx, ok := txProvider.(*gorm.DB)
	if !ok {
		return fmt.Errorf("txProvider must be a *gorm.DB, got %T", txProvider)
	}
	return p.PublishWithTx(ctx, tx, events...)
}

var (
	_ shared.EventPublisher   = (*OutboxEventPublisher)(nil)
	_ shared.OutboxEventSaver = (*OutboxEventPublisher)(nil)
)
