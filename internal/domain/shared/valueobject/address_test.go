package valueobject

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/smartedu/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAddress(t *testing.T) {
	tests := []struct {
		name        string
		city        string
		opts        []AddressOption
		wantErr     bool
		errContains string
		wantFull    string
	}{
		{
			name:     "city only uses default country",
			city:     "Maputo",
			wantFull: "Maputo, Moçambique",
		},
		{
			name: "all parts",
			city: "Maputo",
			opts: []AddressOption{
				WithStreet("Av. Julius Nyerere 123"),
				WithNeighborhood("Polana"),
				WithProvince("Maputo Cidade"),
				WithPostalCode("1100"),
				WithCountry("Moçambique"),
			},
			wantFull: "Av. Julius Nyerere 123, Polana, Maputo, Maputo Cidade 1100, Moçambique",
		},
		{
			name:     "postal code without province",
			city:     "Beira",
			opts:     []AddressOption{WithPostalCode("2100")},
			wantFull: "Beira 2100, Moçambique",
		},
		{
			name:     "trims parts",
			city:     "  Nampula ",
			opts:     []AddressOption{WithStreet("  Rua 1  "), WithCountry(" Portugal ")},
			wantFull: "Rua 1, Nampula, Portugal",
		},
		{
			name:        "blank city",
			city:        "   ",
			wantErr:     true,
			errContains: "City is required",
		},
		{
			name:        "blank country",
			city:        "Maputo",
			opts:        []AddressOption{WithCountry(" ")},
			wantErr:     true,
			errContains: "Country is required",
		},
		{
			name:        "postal code too long",
			city:        "Maputo",
			opts:        []AddressOption{WithPostalCode("123456789012345678901")},
			wantErr:     true,
			errContains: "Postal code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := NewAddress(tt.city, tt.opts...)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, shared.ErrInvalidArgument))
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFull, addr.FullAddress())
			assert.Equal(t, tt.wantFull, addr.String())
		})
	}
}

func TestAddress_FullAddressOrdersCityBeforeCountry(t *testing.T) {
	cities := []string{"Maputo", "Beira", "Quelimane"}
	countries := []string{"Moçambique", "Portugal", "Brasil"}
	streets := []string{"", "Rua A"}

	for _, city := range cities {
		for _, country := range countries {
			for _, street := range streets {
				addr, err := NewAddress(city, WithStreet(street), WithCountry(country))
				require.NoError(t, err)

				full := addr.FullAddress()
				cityAt := strings.Index(full, city)
				countryAt := strings.Index(full, ", "+country)
				require.GreaterOrEqual(t, cityAt, 0)
				require.Greater(t, countryAt, cityAt)
			}
		}
	}
}

func TestAddress_Accessors(t *testing.T) {
	addr, err := NewAddress("Maputo",
		WithStreet("Rua 1"),
		WithNeighborhood("Sommerschield"),
		WithProvince("Maputo"),
		WithPostalCode("1101"),
	)
	require.NoError(t, err)

	assert.Equal(t, "Rua 1", addr.Street())
	assert.Equal(t, "Sommerschield", addr.Neighborhood())
	assert.Equal(t, "Maputo", addr.City())
	assert.Equal(t, "Maputo", addr.Province())
	assert.Equal(t, "1101", addr.PostalCode())
	assert.Equal(t, DefaultCountry, addr.Country())
	assert.False(t, addr.IsEmpty())
}

func TestAddress_Equals(t *testing.T) {
	a, _ := NewAddress("Maputo", WithStreet("Rua 1"))
	b, _ := NewAddress("Maputo", WithStreet("Rua 1"))
	c, _ := NewAddress("Maputo", WithStreet("Rua 2"))

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
}

func TestAddress_Options(t *testing.T) {
	original, err := NewAddress("Maputo", WithStreet("Rua 1"), WithProvince("Maputo"))
	require.NoError(t, err)

	moved, err := NewAddress(original.City(), append(original.Options(), WithStreet("Rua 2"))...)
	require.NoError(t, err)

	assert.Equal(t, "Rua 2", moved.Street())
	assert.Equal(t, "Maputo", moved.Province())
	assert.Equal(t, "Rua 1", original.Street())
}

func TestAddress_JSONRoundTrip(t *testing.T) {
	addr, err := NewAddress("Maputo", WithStreet("Rua 1"), WithPostalCode("1100"))
	require.NoError(t, err)

	data, err := json.Marshal(addr)
	require.NoError(t, err)

	var decoded Address
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, addr.Equals(decoded))

	var invalid Address
	assert.Error(t, json.Unmarshal([]byte(`{"city":"","country":"X"}`), &invalid))
}

func TestAddress_Scan(t *testing.T) {
	addr, err := NewAddress("Maputo", WithNeighborhood("Polana"))
	require.NoError(t, err)

	v, err := addr.Value()
	require.NoError(t, err)

	var scanned Address
	require.NoError(t, scanned.Scan(v))
	assert.True(t, addr.Equals(scanned))

	var empty Address
	require.NoError(t, empty.Scan(nil))
	assert.True(t, empty.IsEmpty())
	assert.Error(t, empty.Scan(42))

	v, err = Address{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
