package valueobject

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/smartedu/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPhone(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantValue     string
		wantType      PhoneType
		wantFormatted string
	}{
		{"national mobile", "841234567", "258841234567", PhoneTypeMobile, "+258 84 123 4567"},
		{"national mobile with separators", "84 123-4567", "258841234567", PhoneTypeMobile, "+258 84 123 4567"},
		{"mobile with calling code", "258 87 123 4567", "258871234567", PhoneTypeMobile, "+258 87 123 4567"},
		{"mobile with plus", "+258 82 123 4567", "+258821234567", PhoneTypeMobile, "+258821234567"},
		{"national landline", "21 123 456", "25821123456", PhoneTypeLandline, "+25821123456"},
		{"international", "+44 20 7946 0958", "+442079460958", PhoneTypeInternational, "+442079460958"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			phone, err := NewPhone(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValue, phone.String())
			assert.Equal(t, tt.wantType, phone.Type())
			assert.Equal(t, tt.wantFormatted, phone.Formatted())
			assert.True(t, IsValidPhone(tt.input))
		})
	}
}

func TestNewPhone_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		errContains string
	}{
		{"empty", "", "cannot be empty"},
		{"blank", "  ", "cannot be empty"},
		{"letters only", "abc", "Invalid phone number format"},
		{"too short", "12345", "Invalid phone number format"},
		{"mobile prefix out of range", "891234567", "Invalid phone number format"},
		{"plus zero", "+0123456", "Invalid phone number format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPhone(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, shared.ErrInvalidArgument))
			assert.Contains(t, err.Error(), tt.errContains)
			assert.False(t, IsValidPhone(tt.input))
		})
	}
}

func TestPhone_EqualsAndZero(t *testing.T) {
	assert.True(t, MustNewPhone("841234567").Equals(MustNewPhone("258 84 123 4567")))
	assert.False(t, MustNewPhone("841234567").Equals(MustNewPhone("851234567")))

	var zero Phone
	assert.True(t, zero.IsZero())
	assert.Empty(t, zero.Formatted())
	assert.Panics(t, func() { MustNewPhone("x") })
}

func TestPhone_JSONAndSQL(t *testing.T) {
	phone := MustNewPhone("841234567")

	data, err := json.Marshal(phone)
	require.NoError(t, err)
	assert.JSONEq(t, `"258841234567"`, string(data))

	var decoded Phone
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, phone.Equals(decoded))
	assert.Equal(t, PhoneTypeMobile, decoded.Type())

	v, err := phone.Value()
	require.NoError(t, err)
	assert.Equal(t, "258841234567", v)

	var scanned Phone
	require.NoError(t, scanned.Scan("258841234567"))
	assert.True(t, phone.Equals(scanned))
	require.NoError(t, scanned.Scan(nil))
	assert.True(t, scanned.IsZero())
	assert.Error(t, scanned.Scan(1.5))
}
