package database

import (
	"github.com/lib/pq"

	"github.com/forkpoint/forkpoint-backend/pkg/errors"
)

// IsRetryable reports whether a PostgreSQL error is transient and the
// statement can safely be retried (serialization failures, deadlocks,
// connection problems).
func IsRetryable(err error) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return false
	}

	switch pqErr.Code {
	case "40001", // serialization_failure
		"40P01", // deadlock_detected
		"08000", // connection_exception
		"08006", // connection_failure
		"57P03": // cannot_connect_now
		return true
	}
	return false
}

// WrapError converts a failed statement's error into an AppError. Known
// constraint violations map to their specific error, transient failures
// become retryable store errors, and other server-side errors are internal:
// retrying a syntax or type error only repeats it.
func WrapError(err error) *errors.AppError {
	if mapped := MapPQError(err); mapped != nil {
		return mapped
	}
	if _, ok := err.(*pq.Error); ok && !IsRetryable(err) {
		return errors.Internal("database statement failed")
	}
	return errors.StoreError(err)
}

// MapPQError converts a PostgreSQL error to an AppError with a meaningful
// message. Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict("a document with this id already exists")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}
