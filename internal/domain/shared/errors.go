package shared

import (
	"fmt"
	"strings"
)

// Error codes shared by all domain errors
const (
	CodeInvalidArgument  = "INVALID_ARGUMENT"
	CodeBusinessRule     = "BUSINESS_RULE_VIOLATION"
	CodeNotFound         = "NOT_FOUND"
	CodeAlreadyExists    = "ALREADY_EXISTS"
	CodeConcurrency      = "CONCURRENCY_CONFLICT"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeDatabase         = "DATABASE_ERROR"
	CodeEventPublishing  = "EVENT_PUBLISHING_ERROR"
	CodeExternalService  = "EXTERNAL_SERVICE_ERROR"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code.
// This lets callers match any error of a category with errors.Is(err, ErrInvalidArgument).
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewInvalidArgumentError creates an error for malformed input detected locally
func NewInvalidArgumentError(message string) *DomainError {
	return NewDomainError(CodeInvalidArgument, message)
}

// Common domain errors
var (
	ErrInvalidArgument     = NewDomainError(CodeInvalidArgument, "Invalid argument")
	ErrBusinessRule        = NewDomainError(CodeBusinessRule, "Business rule violated")
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrency, "Resource was modified by another process")
	ErrValidationFailed    = NewDomainError(CodeValidationFailed, "Validation failed")
)

// Infrastructure error categories. Adapters wrap their failures with these
// so that callers can classify them without importing driver packages.
var (
	ErrDatabase        = NewDomainError(CodeDatabase, "Database operation failed")
	ErrEventPublishing = NewDomainError(CodeEventPublishing, "Event publishing failed")
	ErrExternalService = NewDomainError(CodeExternalService, "External service call failed")
)

// BusinessRuleViolation is returned when a state-machine precondition or
// another named business rule does not hold. Value carries the offending
// value, usually the current status.
type BusinessRuleViolation struct {
	Rule    string
	Message string
	Value   any
}

// NewBusinessRuleViolation creates a new business rule violation
func NewBusinessRuleViolation(rule, message string, value any) *BusinessRuleViolation {
	return &BusinessRuleViolation{
		Rule:    rule,
		Message: message,
		Value:   value,
	}
}

// Error implements the error interface
func (e *BusinessRuleViolation) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("business rule violation [%s]: %s", e.Rule, e.Message)
	}
	return fmt.Sprintf("business rule violation [%s]: %s (value: %v)", e.Rule, e.Message, e.Value)
}

// Is matches ErrBusinessRule
func (e *BusinessRuleViolation) Is(target error) bool {
	return target == ErrBusinessRule
}

// NotFoundError is returned when a lookup by identifier finds nothing
type NotFoundError struct {
	EntityType string
	ID         string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(entityType, id string) *NotFoundError {
	return &NotFoundError{
		EntityType: entityType,
		ID:         id,
	}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.EntityType, e.ID)
}

// Is matches ErrNotFound
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConcurrencyError is returned by repositories when a versioned write finds
// that the stored version no longer matches the expected one.
// ActualVersion is -1 when the stored version could not be determined.
type ConcurrencyError struct {
	EntityType      string
	ID              string
	ExpectedVersion int
	ActualVersion   int
}

// NewConcurrencyError creates a new concurrency error
func NewConcurrencyError(entityType, id string, expected, actual int) *ConcurrencyError {
	return &ConcurrencyError{
		EntityType:      entityType,
		ID:              id,
		ExpectedVersion: expected,
		ActualVersion:   actual,
	}
}

// Error implements the error interface
func (e *ConcurrencyError) Error() string {
	if e.ActualVersion < 0 {
		return fmt.Sprintf("%s %s was modified concurrently (expected version %d)",
			e.EntityType, e.ID, e.ExpectedVersion)
	}
	return fmt.Sprintf("%s %s was modified concurrently (expected version %d, actual %d)",
		e.EntityType, e.ID, e.ExpectedVersion, e.ActualVersion)
}

// Is matches ErrConcurrencyConflict
func (e *ConcurrencyError) Is(target error) bool {
	return target == ErrConcurrencyConflict
}

// FieldError is a single field-level validation failure
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates field-level failures into one result
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// NewValidationError creates a validation error from field failures
func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

// Add appends a field failure
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any field failed
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// FieldMessages groups messages by field name
func (e *ValidationError) FieldMessages() map[string][]string {
	out := make(map[string][]string, len(e.Fields))
	for _, f := range e.Fields {
		out[f.Field] = append(out[f.Field], f.Message)
	}
	return out
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is matches ErrValidationFailed
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
