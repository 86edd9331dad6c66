package tenant

import (
	"context"
	"errors"
	"fmt"

	"github.com/smartedu/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// publishPending publishes the aggregate's buffered events and clears the
// buffer once the publisher accepted them. On failure the buffer is kept so
// the caller can retry the publish.
//
// The aggregate is already saved at this point. A crash between the save and
// this call loses the events; nothing here compensates for that.
func publishPending(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, agg shared.AggregateRoot) error {
	events := agg.GetDomainEvents()
	if len(events) == 0 {
		return nil
	}

	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Error("Failed to publish domain events",
			zap.String("aggregate_id", agg.GetID().String()),
			zap.Int("event_count", len(events)),
			zap.Error(err))
		return fmt.Errorf("publish %d events for %s: %w: %w", len(events), agg.GetID(), shared.ErrEventPublishing, err)
	}

	agg.ClearDomainEvents()
	return nil
}

// notFound turns the repository's absent marker into a typed not found error
func notFound(err error, entityType, id string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError(entityType, id)
	}
	return err
}
