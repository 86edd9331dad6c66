package shared

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventStore keeps a queryable history of published domain events
type EventStore interface {
	// Store appends an event to the history
	Store(ctx context.Context, event DomainEvent) error
	// EventsForAggregate returns the events of one aggregate in occurrence order
	EventsForAggregate(ctx context.Context, aggregateID uuid.UUID, aggregateType string) ([]DomainEvent, error)
	// EventsByTimeRange returns events that occurred in [start, end)
	EventsByTimeRange(ctx context.Context, start, end time.Time) ([]DomainEvent, error)
	// EventsByTopic returns events with the given type
	EventsByTopic(ctx context.Context, topic string) ([]DomainEvent, error)
	// EventByID returns a single event, or ErrNotFound
	EventByID(ctx context.Context, eventID uuid.UUID) (DomainEvent, error)
}
