package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	PersistedVersion() int
	MarkPersisted()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot provides common fields for aggregate roots.
//
// Version is bumped by every state-changing business method. persistedVersion
// remembers the version that storage held when the aggregate was loaded or last
// saved, so repositories can issue a compare-and-swap on it. Zero means the
// aggregate has never been stored.
//
// The event buffer is owned by a single writer and is not synchronised.
type BaseAggregateRoot struct {
	BaseEntity
	Version          int
	persistedVersion int
	domainEvents     []DomainEvent
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion increments the version number
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
}

// RestoreVersion sets the version read from storage
func (a *BaseAggregateRoot) RestoreVersion(version int) {
	a.Version = version
	a.persistedVersion = version
}

// PersistedVersion returns the version storage is expected to hold
func (a *BaseAggregateRoot) PersistedVersion() int {
	return a.persistedVersion
}

// IsNew reports whether the aggregate has never been stored
func (a *BaseAggregateRoot) IsNew() bool {
	return a.persistedVersion == 0
}

// MarkPersisted records that the current version has been written
func (a *BaseAggregateRoot) MarkPersisted() {
	a.persistedVersion = a.Version
}

// AddDomainEvent adds a domain event to be published. Nil events are ignored.
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	if event == nil {
		return
	}
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns a copy of the pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	events := make([]DomainEvent, len(a.domainEvents))
	copy(events, a.domainEvents)
	return events
}

// HasDomainEvents reports whether events are waiting to be published
func (a *BaseAggregateRoot) HasDomainEvents() bool {
	return len(a.domainEvents) > 0
}

// ClearDomainEvents clears the pending domain events.
// Call only after the events were confirmed published.
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return NewBaseAggregateRootWithID(uuid.New())
}

// NewBaseAggregateRootWithID creates a new base aggregate root with a caller-assigned ID
func NewBaseAggregateRootWithID(id uuid.UUID) BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   NewBaseEntityWithID(id),
		Version:      1,
		domainEvents: make([]DomainEvent, 0),
	}
}
