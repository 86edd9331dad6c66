// Package models holds the GORM rows behind the tenant aggregates and the
// outbox. Domain types carry no ORM tags; each model converts with
// FromDomain/ToDomain and the repositories only ever touch models.
//
// Tables:
//   - tenants, tenant_features: TenantModel, TenantFeatureModel
//   - subscriptions: SubscriptionModel
//   - outbox_events: OutboxEntryModel, shared by the outbox and the event store
//
// The schema itself is owned by the SQL files under migrations/; AutoMigrate
// is only used by sqlite-backed tests.
package models
