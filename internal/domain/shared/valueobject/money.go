package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/smartedu/backend/internal/domain/shared"
)

// MoneyScale is the number of decimal places kept by arithmetic results
const MoneyScale int32 = 2

// Money is a non-negative monetary amount.
// It is immutable - all operations return new Money instances.
// Arithmetic results are rounded to two places with round-half-to-even.
type Money struct {
	amount decimal.Decimal
}

// NewMoney creates Money from a decimal amount
func NewMoney(amount decimal.Decimal) (Money, error) {
	if amount.IsNegative() {
		return Money{}, shared.NewInvalidArgumentError("Amount must be non-negative")
	}
	return Money{amount: amount}, nil
}

// NewMoneyFromString creates Money from a string representation
func NewMoneyFromString(amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, shared.NewInvalidArgumentError(fmt.Sprintf("invalid amount %q", amount))
	}
	return NewMoney(d)
}

// MustNewMoneyFromString is NewMoneyFromString for package-level constants.
// It panics on invalid input.
func MustNewMoneyFromString(amount string) Money {
	m, err := NewMoneyFromString(amount)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns zero money
func Zero() Money {
	return Money{amount: decimal.Zero}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is greater than zero
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// GreaterThan returns true if this Money is greater than the other
func (m Money) GreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

// Add returns the rounded sum
func (m Money) Add(other Money) Money {
	return Money{amount: round(m.amount.Add(other.amount))}
}

// Subtract returns the rounded difference.
// Fails if the result would be negative.
func (m Money) Subtract(other Money) (Money, error) {
	result := m.amount.Sub(other.amount)
	if result.IsNegative() {
		return Money{}, shared.NewInvalidArgumentError("Resulting amount cannot be negative")
	}
	return Money{amount: round(result)}, nil
}

// Multiply returns the rounded product with an integer multiplier
func (m Money) Multiply(multiplier int) (Money, error) {
	if multiplier < 0 {
		return Money{}, shared.NewInvalidArgumentError("Multiplier must be non-negative")
	}
	return Money{amount: round(m.amount.Mul(decimal.NewFromInt(int64(multiplier))))}, nil
}

// MultiplyDecimal returns the rounded product with a decimal factor
func (m Money) MultiplyDecimal(factor decimal.Decimal) (Money, error) {
	if factor.IsNegative() {
		return Money{}, shared.NewInvalidArgumentError("Multiplier must be non-negative")
	}
	return Money{amount: round(m.amount.Mul(factor))}, nil
}

// Equals compares amounts numerically, so 29.9 equals 29.90
func (m Money) Equals(other Money) bool {
	return m.amount.Equal(other.amount)
}

// String returns the amount with two decimal places
func (m Money) String() string {
	return m.amount.StringFixed(MoneyScale)
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(MoneyScale)
}

// MarshalJSON encodes the amount as a JSON string to keep precision
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.amount.String())
}

// UnmarshalJSON accepts a JSON string or number and rejects negative amounts
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid money amount: %w", err)
	}
	parsed, err := NewMoney(d)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer for database storage
func (m Money) Value() (driver.Value, error) {
	return m.amount.String(), nil
}

// Scan implements sql.Scanner for database retrieval
func (m *Money) Scan(value any) error {
	var d decimal.Decimal
	if value == nil {
		*m = Zero()
		return nil
	}
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("cannot scan %T into Money: %w", value, err)
	}
	parsed, err := NewMoney(d)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
