package valueobject

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/smartedu/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(t *testing.T, s string) Money {
	t.Helper()
	m, err := NewMoneyFromString(s)
	require.NoError(t, err)
	return m
}

func TestNewMoney(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		wantErr     bool
		errContains string
	}{
		{"zero", "0", false, ""},
		{"positive", "29.99", false, ""},
		{"more than two places kept as given", "85.4715", false, ""},
		{"negative", "-0.01", true, "non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMoney(decimal.RequireFromString(tt.amount))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, shared.ErrInvalidArgument))
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.True(t, m.Amount().Equal(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestNewMoneyFromString(t *testing.T) {
	t.Run("rejects non-numeric input", func(t *testing.T) {
		_, err := NewMoneyFromString("abc")
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidArgument))
	})

	t.Run("must variant panics on invalid input", func(t *testing.T) {
		assert.Panics(t, func() { MustNewMoneyFromString("-1") })
	})
}

func TestMoney_Add(t *testing.T) {
	tests := []struct {
		a, b, want string
	}{
		{"29.99", "0.01", "30.00"},
		{"0.005", "0", "0.00"},
		{"0.015", "0", "0.02"},
		{"1.125", "1", "2.12"},
	}

	for _, tt := range tests {
		got := money(t, tt.a).Add(money(t, tt.b))
		assert.Equal(t, tt.want, got.String(), "%s + %s", tt.a, tt.b)
	}
}

func TestMoney_Subtract(t *testing.T) {
	tests := []struct {
		name    string
		a, b    string
		want    string
		wantErr bool
	}{
		{"larger minus smaller", "100.00", "29.99", "70.01", false},
		{"equal amounts", "29.99", "29.99", "0.00", false},
		{"rounds half to even", "10.125", "0", "10.12", false},
		{"result would be negative", "10.00", "10.01", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := money(t, tt.a).Subtract(money(t, tt.b))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, shared.ErrInvalidArgument))
				assert.Contains(t, err.Error(), "cannot be negative")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
			assert.False(t, got.Amount().IsNegative())
		})
	}
}

func TestMoney_Subtract_NeverNegative(t *testing.T) {
	amounts := []string{"0", "0.01", "0.5", "1", "29.99", "99.995", "1000"}
	for _, a := range amounts {
		for _, b := range amounts {
			ma, mb := money(t, a), money(t, b)
			got, err := ma.Subtract(mb)
			if mb.GreaterThan(ma) {
				assert.Error(t, err, "%s - %s", a, b)
				continue
			}
			require.NoError(t, err, "%s - %s", a, b)
			assert.False(t, got.Amount().IsNegative())
			assert.True(t, got.Amount().Equal(got.Amount().RoundBank(2)))
		}
	}
}

func TestMoney_Multiply(t *testing.T) {
	t.Run("integer multiplier", func(t *testing.T) {
		got, err := money(t, "29.99").Multiply(3)
		require.NoError(t, err)
		assert.Equal(t, "89.97", got.String())
	})

	t.Run("negative multiplier fails", func(t *testing.T) {
		_, err := money(t, "29.99").Multiply(-1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidArgument))
	})

	t.Run("decimal multiplier rounds half to even", func(t *testing.T) {
		tests := []struct {
			amount, factor, want string
		}{
			{"29.99", "2.85", "85.47"},
			{"99.99", "2.85", "284.97"},
			{"29.99", "10", "299.90"},
			{"0.05", "0.5", "0.02"},
			{"0.15", "0.5", "0.08"},
		}
		for _, tt := range tests {
			got, err := money(t, tt.amount).MultiplyDecimal(decimal.RequireFromString(tt.factor))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String(), "%s x %s", tt.amount, tt.factor)
		}
	})

	t.Run("negative decimal multiplier fails", func(t *testing.T) {
		_, err := money(t, "1").MultiplyDecimal(decimal.NewFromInt(-2))
		assert.Error(t, err)
	})
}

func TestMoney_Comparisons(t *testing.T) {
	assert.True(t, money(t, "29.9").Equals(money(t, "29.90")))
	assert.False(t, money(t, "29.90").Equals(money(t, "29.91")))
	assert.True(t, Zero().IsZero())
	assert.False(t, Zero().IsPositive())
	assert.True(t, money(t, "0.01").IsPositive())
	assert.True(t, money(t, "2").GreaterThan(money(t, "1.99")))
}

func TestMoney_JSON(t *testing.T) {
	t.Run("marshals amount as string", func(t *testing.T) {
		data, err := json.Marshal(money(t, "29.99"))
		require.NoError(t, err)
		assert.JSONEq(t, `"29.99"`, string(data))
	})

	t.Run("accepts string and number", func(t *testing.T) {
		var a, b Money
		require.NoError(t, json.Unmarshal([]byte(`"12.50"`), &a))
		require.NoError(t, json.Unmarshal([]byte(`12.5`), &b))
		assert.True(t, a.Equals(b))
	})

	t.Run("rejects negative amounts", func(t *testing.T) {
		var m Money
		assert.Error(t, json.Unmarshal([]byte(`"-1"`), &m))
	})
}

func TestMoney_Scan(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    string
		wantErr bool
	}{
		{"nil", nil, "0.00", false},
		{"string", "99.99", "99.99", false},
		{"bytes", []byte("299.99"), "299.99", false},
		{"float", 10.5, "10.50", false},
		{"int", int64(7), "7.00", false},
		{"negative", "-1.00", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Money
			err := m.Scan(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.String())
		})
	}

	v, err := money(t, "29.99").Value()
	require.NoError(t, err)
	assert.Equal(t, "29.99", v)
}
