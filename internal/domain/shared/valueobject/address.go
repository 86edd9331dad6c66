package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/smartedu/backend/internal/domain/shared"
)

// DefaultCountry is used when no country option is given
const DefaultCountry = "Moçambique"

// Address is a value object representing a postal address.
// It is immutable - all operations return new Address instances.
// City and country are required; the other parts are optional.
type Address struct {
	street       string
	neighborhood string
	city         string
	province     string
	postalCode   string
	country      string
}

// AddressOption is a functional option for configuring Address
type AddressOption func(*Address)

// WithStreet sets the street line
func WithStreet(street string) AddressOption {
	return func(a *Address) {
		a.street = strings.TrimSpace(street)
	}
}

// WithNeighborhood sets the neighborhood (bairro)
func WithNeighborhood(neighborhood string) AddressOption {
	return func(a *Address) {
		a.neighborhood = strings.TrimSpace(neighborhood)
	}
}

// WithProvince sets the province
func WithProvince(province string) AddressOption {
	return func(a *Address) {
		a.province = strings.TrimSpace(province)
	}
}

// WithPostalCode sets the postal code for the address
func WithPostalCode(postalCode string) AddressOption {
	return func(a *Address) {
		a.postalCode = strings.TrimSpace(postalCode)
	}
}

// WithCountry sets the country, replacing DefaultCountry
func WithCountry(country string) AddressOption {
	return func(a *Address) {
		a.country = strings.TrimSpace(country)
	}
}

// NewAddress creates a new Address. City is required; country defaults to DefaultCountry.
func NewAddress(city string, opts ...AddressOption) (Address, error) {
	addr := Address{
		city:    strings.TrimSpace(city),
		country: DefaultCountry,
	}
	for _, opt := range opts {
		opt(&addr)
	}

	if addr.city == "" {
		return Address{}, shared.NewInvalidArgumentError("City is required")
	}
	if addr.country == "" {
		return Address{}, shared.NewInvalidArgumentError("Country is required")
	}
	if len(addr.postalCode) > 20 {
		return Address{}, shared.NewInvalidArgumentError("Postal code cannot exceed 20 characters")
	}
	return addr, nil
}

// Street returns the street line
func (a Address) Street() string {
	return a.street
}

// Neighborhood returns the neighborhood
func (a Address) Neighborhood() string {
	return a.neighborhood
}

// City returns the city
func (a Address) City() string {
	return a.city
}

// Province returns the province
func (a Address) Province() string {
	return a.province
}

// PostalCode returns the postal code
func (a Address) PostalCode() string {
	return a.postalCode
}

// Country returns the country
func (a Address) Country() string {
	return a.country
}

// IsEmpty returns true for the zero Address
func (a Address) IsEmpty() bool {
	return a == Address{}
}

// FullAddress returns the address on one line:
// "street, neighborhood, city, province postalCode, country"
// with absent optional parts left out.
func (a Address) FullAddress() string {
	if a.IsEmpty() {
		return ""
	}

	var sb strings.Builder
	if a.street != "" {
		sb.WriteString(a.street)
		sb.WriteString(", ")
	}
	if a.neighborhood != "" {
		sb.WriteString(a.neighborhood)
		sb.WriteString(", ")
	}
	sb.WriteString(a.city)
	if a.province != "" {
		sb.WriteString(", ")
		sb.WriteString(a.province)
	}
	if a.postalCode != "" {
		sb.WriteString(" ")
		sb.WriteString(a.postalCode)
	}
	sb.WriteString(", ")
	sb.WriteString(a.country)
	return sb.String()
}

// String returns a string representation of the address
func (a Address) String() string {
	return a.FullAddress()
}

// Equals returns true if all parts are equal
func (a Address) Equals(other Address) bool {
	return a == other
}

// Options returns the options that rebuild this address.
// Callers use it to derive a changed copy:
//
//	updated, err := valueobject.NewAddress(addr.City(), append(addr.Options(), valueobject.WithStreet("Av. 24 de Julho"))...)
func (a Address) Options() []AddressOption {
	return []AddressOption{
		WithStreet(a.street),
		WithNeighborhood(a.neighborhood),
		WithProvince(a.province),
		WithPostalCode(a.postalCode),
		WithCountry(a.country),
	}
}

// addressJSON is used for JSON marshaling/unmarshaling
type addressJSON struct {
	Street       string `json:"street,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	City         string `json:"city"`
	Province     string `json:"province,omitempty"`
	PostalCode   string `json:"postalCode,omitempty"`
	Country      string `json:"country"`
}

// MarshalJSON implements json.Marshaler
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(addressJSON{
		Street:       a.street,
		Neighborhood: a.neighborhood,
		City:         a.city,
		Province:     a.province,
		PostalCode:   a.postalCode,
		Country:      a.country,
	})
}

// UnmarshalJSON implements json.Unmarshaler. It goes through NewAddress so
// the same validation applies.
func (a *Address) UnmarshalJSON(data []byte) error {
	var v addressJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == (addressJSON{}) {
		*a = Address{}
		return nil
	}

	addr, err := NewAddress(v.City,
		WithStreet(v.Street),
		WithNeighborhood(v.Neighborhood),
		WithProvince(v.Province),
		WithPostalCode(v.PostalCode),
		WithCountry(v.Country),
	)
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

// Value implements driver.Valuer, storing the address as JSON
func (a Address) Value() (driver.Value, error) {
	if a.IsEmpty() {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for database retrieval
func (a *Address) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*a = Address{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}

	if len(data) == 0 || string(data) == "null" {
		*a = Address{}
		return nil
	}
	return json.Unmarshal(data, a)
}
