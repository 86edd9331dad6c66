package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/smartedu/backend/internal/domain/shared"
)

// PhoneType classifies a phone number
type PhoneType string

const (
	PhoneTypeMobile        PhoneType = "MOBILE"
	PhoneTypeLandline      PhoneType = "LANDLINE"
	PhoneTypeInternational PhoneType = "INTERNATIONAL"
)

// Mozambique country calling code, prepended to bare national numbers
const mozambiqueCallingCode = "258"

var (
	phoneStrip          = regexp.MustCompile(`[^\d+]`)
	nationalMobile      = regexp.MustCompile(`^8[2-7]\d{7}$`)
	nationalLandline    = regexp.MustCompile(`^2[1-9]\d{6}$`)
	mozambiqueMobile    = regexp.MustCompile(`^(\+258|258)?8[2-7]\d{7}$`)
	mozambiqueLandline  = regexp.MustCompile(`^(\+258|258)?2[1-9]\d{6}$`)
	internationalNumber = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
)

// Phone is a normalized phone number. Bare Mozambican national numbers get
// the 258 calling code; other numbers must be in international + form.
type Phone struct {
	value     string
	phoneType PhoneType
}

// NewPhone normalizes and validates a phone number
func NewPhone(value string) (Phone, error) {
	if strings.TrimSpace(value) == "" {
		return Phone{}, shared.NewInvalidArgumentError("Phone number cannot be empty")
	}

	normalized := normalizePhone(value)
	phoneType, ok := classifyPhone(normalized)
	if !ok {
		return Phone{}, shared.NewInvalidArgumentError(fmt.Sprintf("Invalid phone number format: %s", value))
	}
	return Phone{value: normalized, phoneType: phoneType}, nil
}

// MustNewPhone creates a Phone and panics on invalid input
func MustNewPhone(value string) Phone {
	p, err := NewPhone(value)
	if err != nil {
		panic(err)
	}
	return p
}

func normalizePhone(raw string) string {
	cleaned := phoneStrip.ReplaceAllString(raw, "")
	if nationalMobile.MatchString(cleaned) || nationalLandline.MatchString(cleaned) {
		return mozambiqueCallingCode + cleaned
	}
	return cleaned
}

func classifyPhone(p string) (PhoneType, bool) {
	switch {
	case mozambiqueMobile.MatchString(p):
		return PhoneTypeMobile, true
	case mozambiqueLandline.MatchString(p):
		return PhoneTypeLandline, true
	case internationalNumber.MatchString(p):
		return PhoneTypeInternational, true
	default:
		return "", false
	}
}

// IsValidPhone reports whether the raw input normalizes to a valid number
func IsValidPhone(raw string) bool {
	_, ok := classifyPhone(normalizePhone(raw))
	return ok
}

// String returns the normalized number
func (p Phone) String() string {
	return p.value
}

// Type returns the number classification
func (p Phone) Type() PhoneType {
	return p.phoneType
}

// Formatted returns the number for display.
// Mozambican numbers in 258XXXXXXXXX form render as "+258 XX XXX XXXX".
func (p Phone) Formatted() string {
	v := p.value
	switch {
	case v == "":
		return ""
	case strings.HasPrefix(v, mozambiqueCallingCode) && len(v) == 12:
		return "+" + v[0:3] + " " + v[3:5] + " " + v[5:8] + " " + v[8:]
	case strings.HasPrefix(v, "+"):
		return v
	default:
		return "+" + v
	}
}

// IsZero returns true for the zero Phone
func (p Phone) IsZero() bool {
	return p.value == ""
}

// Equals compares normalized numbers
func (p Phone) Equals(other Phone) bool {
	return p.value == other.value
}

// MarshalJSON implements json.Marshaler
func (p Phone) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (p *Phone) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*p = Phone{}
		return nil
	}
	parsed, err := NewPhone(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Value implements driver.Valuer for database storage
func (p Phone) Value() (driver.Value, error) {
	if p.value == "" {
		return nil, nil
	}
	return p.value, nil
}

// Scan implements sql.Scanner for database retrieval
func (p *Phone) Scan(value any) error {
	var s string
	switch v := value.(type) {
	case nil:
		*p = Phone{}
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Phone", value)
	}
	parsed, err := NewPhone(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
