package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/smartedu/backend/internal/domain/shared"
)

// TenantID identifies a tenant
type TenantID struct {
	value uuid.UUID
}

// NewTenantID generates a random TenantID
func NewTenantID() TenantID {
	return TenantID{value: uuid.New()}
}

// TenantIDFrom wraps an existing UUID
func TenantIDFrom(id uuid.UUID) TenantID {
	return TenantID{value: id}
}

// ParseTenantID parses the canonical string form
func ParseTenantID(s string) (TenantID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return TenantID{}, shared.NewInvalidArgumentError(fmt.Sprintf("Invalid tenant id: %s", s))
	}
	return TenantID{value: id}, nil
}

// UUID returns the underlying UUID
func (id TenantID) UUID() uuid.UUID {
	return id.value
}

// String returns the canonical string form
func (id TenantID) String() string {
	return id.value.String()
}

// IsZero returns true for the nil UUID
func (id TenantID) IsZero() bool {
	return id.value == uuid.Nil
}

// Equals compares identifiers
func (id TenantID) Equals(other TenantID) bool {
	return id.value == other.value
}

// MarshalJSON implements json.Marshaler
func (id TenantID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.value.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (id *TenantID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTenantID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Value implements driver.Valuer for database storage
func (id TenantID) Value() (driver.Value, error) {
	return id.value.String(), nil
}

// Scan implements sql.Scanner for database retrieval
func (id *TenantID) Scan(value any) error {
	var u uuid.UUID
	if err := u.Scan(value); err != nil {
		return fmt.Errorf("cannot scan %T into TenantID: %w", value, err)
	}
	id.value = u
	return nil
}
