package shared

import "context"

// EventHandler consumes domain events. EventTypes lists the topics it wants;
// nil or empty means every topic.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventPublisher hands events to a transport, in order. Publishing several
// events at once is the publish-all form.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber manages handler registrations. Subscribe without explicit
// topics falls back to the handler's EventTypes.
type EventSubscriber interface {
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus is a publisher that subscribers can register on
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// OutboxEventSaver enqueues events inside a transaction the caller already
// holds, so the aggregate row and its outbox rows commit together. tx is the
// persistence layer's transaction handle.
type OutboxEventSaver interface {
	SaveEvents(ctx context.Context, tx any, events ...DomainEvent) error
}
