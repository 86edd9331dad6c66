package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/smartedu/backend/internal/domain/shared"
	"github.com/smartedu/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormEventStore implements shared.EventStore on the outbox table.
// In outbox mode every published event already has a row there; Store adds
// rows for events that bypassed the outbox, marked as sent. History is kept
// as long as the outbox cleanup retention.
type GormEventStore struct {
	db         *gorm.DB
	serializer *EventSerializer
}

// NewGormEventStore creates a new event store
func NewGormEventStore(db *gorm.DB, serializer *EventSerializer) *GormEventStore {
	return &GormEventStore{db: db, serializer: serializer}
}

// Store records an event. Storing an event ID twice is a no-op.
func (s *GormEventStore) Store(ctx context.Context, event shared.DomainEvent) error {
	payload, err := s.serializer.Serialize(event)
	if err != nil {
		return err
	}

	entry := shared.NewOutboxEntry(event, payload)
	entry.MarkSent()

	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(models.OutboxEntryModelFromDomain(entry)).Error
	if err != nil {
		return fmt.Errorf("store event %s: %w: %w", event.EventID(), shared.ErrDatabase, err)
	}
	return nil
}

// EventsForAggregate returns the events of one aggregate in occurrence order
func (s *GormEventStore) EventsForAggregate(ctx context.Context, aggregateID uuid.UUID, aggregateType string) ([]shared.DomainEvent, error) {
	return s.query(ctx, "aggregate_id = ? AND aggregate_type = ?", aggregateID, aggregateType)
}

// EventsByTimeRange returns events that occurred in [start, end)
func (s *GormEventStore) EventsByTimeRange(ctx context.Context, start, end time.Time) ([]shared.DomainEvent, error) {
	return s.query(ctx, "occurred_at >= ? AND occurred_at < ?", start, end)
}

// EventsByTopic returns events with the given type
func (s *GormEventStore) EventsByTopic(ctx context.Context, topic string) ([]shared.DomainEvent, error) {
	return s.query(ctx, "event_type = ?", topic)
}

// EventByID returns a single event, or shared.ErrNotFound
func (s *GormEventStore) EventByID(ctx context.Context, eventID uuid.UUID) (shared.DomainEvent, error) {
	var row models.OutboxEntryModel
	if err := s.db.WithContext(ctx).Where("event_id = ?", eventID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("find event: %w: %w", shared.ErrDatabase, err)
	}
	return s.serializer.Deserialize(row.EventType, row.Payload)
}

func (s *GormEventStore) query(ctx context.Context, where string, args ...any) ([]shared.DomainEvent, error) {
	var rows []models.OutboxEntryModel
	if err := s.db.WithContext(ctx).
		Where(where, args...).
		Order("occurred_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query events: %w: %w", shared.ErrDatabase, err)
	}

	events := make([]shared.DomainEvent, 0, len(rows))
	for _, row := range rows {
		event, err := s.serializer.Deserialize(row.EventType, row.Payload)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

// EventRecorder is a bus subscriber that appends every delivered event to an
// EventStore. Only direct delivery needs it: outbox rows are the history.
type EventRecorder struct {
	store shared.EventStore
}

// NewEventRecorder creates a recorder for store
func NewEventRecorder(store shared.EventStore) *EventRecorder {
	return &EventRecorder{store: store}
}

// EventTypes returns nil: every event is recorded
func (r *EventRecorder) EventTypes() []string {
	return nil
}

// Handle stores the event
func (r *EventRecorder) Handle(ctx context.Context, event shared.DomainEvent) error {
	return r.store.Store(ctx, event)
}

var (
	_ shared.EventStore   = (*GormEventStore)(nil)
	_ shared.EventHandler = (*EventRecorder)(nil)
)
