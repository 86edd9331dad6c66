package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/smartedu/backend/internal/domain/shared"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@(?:[A-Za-z0-9-]+\.)+[A-Za-z]{2,}$`)

// Email is a normalized (trimmed, lowercased) email address
type Email struct {
	value string
}

// NewEmail validates and normalizes an email address
func NewEmail(value string) (Email, error) {
	if strings.TrimSpace(value) == "" {
		return Email{}, shared.NewInvalidArgumentError("Email cannot be empty")
	}
	if strings.IndexFunc(value, unicode.IsSpace) >= 0 {
		return Email{}, shared.NewInvalidArgumentError("Email address cannot contain spaces")
	}

	normalized := strings.ToLower(strings.TrimSpace(value))
	if !IsValidEmail(normalized) {
		return Email{}, shared.NewInvalidArgumentError(fmt.Sprintf("Invalid email format: %s", value))
	}
	return Email{value: normalized}, nil
}

// MustNewEmail creates an Email and panics on invalid input
func MustNewEmail(value string) Email {
	e, err := NewEmail(value)
	if err != nil {
		panic(err)
	}
	return e
}

// IsValidEmail reports whether s is an acceptable address after normalization
func IsValidEmail(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || strings.Contains(s, "..") {
		return false
	}
	return emailPattern.MatchString(s)
}

// String returns the normalized address
func (e Email) String() string {
	return e.value
}

// Domain returns the part after '@'
func (e Email) Domain() string {
	if i := strings.IndexByte(e.value, '@'); i >= 0 {
		return e.value[i+1:]
	}
	return ""
}

// LocalPart returns the part before '@'
func (e Email) LocalPart() string {
	if i := strings.IndexByte(e.value, '@'); i >= 0 {
		return e.value[:i]
	}
	return ""
}

// IsZero returns true for the zero Email
func (e Email) IsZero() bool {
	return e.value == ""
}

// Equals returns true if both addresses are equal
func (e Email) Equals(other Email) bool {
	return e.value == other.value
}

// MarshalJSON implements json.Marshaler
func (e Email) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (e *Email) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*e = Email{}
		return nil
	}
	parsed, err := NewEmail(s)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// Value implements driver.Valuer for database storage
func (e Email) Value() (driver.Value, error) {
	if e.value == "" {
		return nil, nil
	}
	return e.value, nil
}

// Scan implements sql.Scanner for database retrieval
func (e *Email) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*e = Email{}
		return nil
	case string:
		return e.scanString(v)
	case []byte:
		return e.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Email", value)
	}
}

func (e *Email) scanString(s string) error {
	parsed, err := NewEmail(s)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
