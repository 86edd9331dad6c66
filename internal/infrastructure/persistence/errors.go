package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/smartedu/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// SQLSTATE unique_violation
const pgUniqueViolation = "23505"

// uniqueViolation reports the violated constraint when err is a unique-key
// violation from either the pgx driver used by GORM or lib/pq.
func uniqueViolation(err error) (constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

// wrapDBError tags unexpected driver failures with shared.ErrDatabase.
// Domain errors and context errors pass through untouched.
func wrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *shared.DomainError
	var ruleErr *shared.BusinessRuleViolation
	var conflictErr *shared.ConcurrencyError
	switch {
	case errors.As(err, &domainErr), errors.As(err, &ruleErr), errors.As(err, &conflictErr):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	}
	return fmt.Errorf("%s: %w: %w", op, shared.ErrDatabase, err)
}
