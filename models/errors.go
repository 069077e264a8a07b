package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when an operation targets a record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrProductNotFound is returned when a product is not found.
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	// ErrCategoryNotFound is returned when a category is not found.
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)

	ErrValidation = errors.New("validation failed")
	ErrConstraint = errors.New("constraint violation")

	// ErrImmutableField is returned when a partial update names a field that is
	// assigned by the system and can never change.
	ErrImmutableField = errors.New("field is immutable")
	ErrUnknownField   = errors.New("unknown field")
)

// ConstraintError reports a uniqueness or integrity rule rejected by the database.
type ConstraintError struct {
	Entity string
	Field  string
	Err    error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s with this %s already exists", e.Entity, e.Field)
}

func (e *ConstraintError) Is(target error) bool {
	return target == ErrConstraint
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

const pgUniqueViolation = "23505"

// isUniqueViolation recognises duplicate-key errors from every driver we run on.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
