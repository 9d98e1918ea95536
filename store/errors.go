package store

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors the handlers translate to HTTP statuses. Anything else
// coming out of a store is treated as a transient storage failure and
// surfaced as a retryable server error.
var (
	// ErrInvalidInput marks a malformed argument rejected before any SQL runs.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownVisitor marks a fact insert whose visitor_id has no ledger row.
	ErrUnknownVisitor = errors.New("unknown visitor")

	// ErrNotFound marks a lookup for a visitor that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail marks an admin create with an already-registered email.
	ErrDuplicateEmail = errors.New("email already registered")
)

// PostgreSQL error codes we map to sentinels.
const (
	pqForeignKeyViolation = "23503"
	pqUniqueViolation     = "23505"
)

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqForeignKeyViolation
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}
