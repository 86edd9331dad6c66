package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/smartedu/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultRelayChannel is the channel prefix used when none is configured
const DefaultRelayChannel = "tenant-events"

// RelayMessage is the envelope published on Redis for every relayed event
type RelayMessage struct {
	EventID       uuid.UUID       `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	SchemaVersion int             `json:"schema_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// RedisEventRelay is an event handler that forwards domain events to Redis
// pub/sub, one channel per topic: "<prefix>:<event type>"
type RedisEventRelay struct {
	client     redis.UniversalClient
	serializer *EventSerializer
	prefix     string
	topics     []string
	logger     *zap.Logger
}

// NewRedisEventRelay creates a relay for the given topics. An empty topic list
// relays every event.
func NewRedisEventRelay(client redis.UniversalClient, serializer *EventSerializer, prefix string, topics []string, logger *zap.Logger) *RedisEventRelay {
	if prefix == "" {
		prefix = DefaultRelayChannel
	}
	return &RedisEventRelay{
		client:     client,
		serializer: serializer,
		prefix:     prefix,
		topics:     topics,
		logger:     logger.Named("redis_relay"),
	}
}

// Channel returns the Redis channel an event type is published on
func (r *RedisEventRelay) Channel(eventType string) string {
	return r.prefix + ":" + eventType
}

// EventTypes returns the relayed topics
func (r *RedisEventRelay) EventTypes() []string {
	return r.topics
}

// Handle publishes the event envelope. Having no subscribers is not an error.
func (r *RedisEventRelay) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := r.serializer.Serialize(event)
	if err != nil {
		return err
	}

	msg, err := json.Marshal(RelayMessage{
		EventID:       event.EventID(),
		EventType:     event.EventType(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		TenantID:      event.TenantID(),
		SchemaVersion: event.SchemaVersion(),
		OccurredAt:    event.OccurredAt(),
		Payload:       payload,
	})
	if err != nil {
		return fmt.Errorf("encode relay message: %w", err)
	}

	channel := r.Channel(event.EventType())
	receivers, err := r.client.Publish(ctx, channel, msg).Result()
	if err != nil {
		return fmt.Errorf("publish %s to redis: %w", event.EventType(), err)
	}

	r.logger.Debug("Event relayed",
		zap.String("channel", channel),
		zap.String("event_id", event.EventID().String()),
		zap.Int64("receivers", receivers),
	)
	return nil
}

var _ shared.EventHandler = (*RedisEventRelay)(nil)
