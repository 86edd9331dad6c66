package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Is(t *testing.T) {
	err := NewInvalidArgumentError("Email cannot be empty")

	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Email cannot be empty", err.Error())

	wrapped := fmt.Errorf("creating tenant: %w", err)
	assert.True(t, errors.Is(wrapped, ErrInvalidArgument))
}

func TestBusinessRuleViolation(t *testing.T) {
	err := NewBusinessRuleViolation("TenantActivation", "Tenant can only be activated from PENDING status", "ACTIVE")

	assert.True(t, errors.Is(err, ErrBusinessRule))
	assert.False(t, errors.Is(err, ErrInvalidArgument))
	assert.Contains(t, err.Error(), "TenantActivation")
	assert.Contains(t, err.Error(), "ACTIVE")

	var rule *BusinessRuleViolation
	require.True(t, errors.As(fmt.Errorf("wrap: %w", err), &rule))
	assert.Equal(t, "TenantActivation", rule.Rule)
	assert.Equal(t, "ACTIVE", rule.Value)
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("Tenant", "abc")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "Tenant not found: abc", err.Error())
}

func TestConcurrencyError(t *testing.T) {
	t.Run("with known actual version", func(t *testing.T) {
		err := NewConcurrencyError("Tenant", "abc", 2, 3)
		assert.True(t, errors.Is(err, ErrConcurrencyConflict))
		assert.Contains(t, err.Error(), "expected version 2, actual 3")
	})

	t.Run("with unknown actual version", func(t *testing.T) {
		err := NewConcurrencyError("Tenant", "abc", 2, -1)
		assert.NotContains(t, err.Error(), "actual")
	})
}

func TestValidationError(t *testing.T) {
	err := NewValidationError()
	assert.False(t, err.HasErrors())
	assert.Equal(t, "validation failed", err.Error())

	err.Add("name", "is required")
	err.Add("name", "must be at least 2 characters")
	err.Add("email", "must be a valid email address")

	assert.True(t, err.HasErrors())
	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.Equal(t, []string{"is required", "must be at least 2 characters"}, err.FieldMessages()["name"])
	assert.Contains(t, err.Error(), "email: must be a valid email address")
}

func TestInfrastructureCategories(t *testing.T) {
	err := fmt.Errorf("%w: saving tenant: %w", ErrDatabase, errors.New("connection reset"))

	assert.True(t, errors.Is(err, ErrDatabase))
	assert.False(t, errors.Is(err, ErrEventPublishing))
}
