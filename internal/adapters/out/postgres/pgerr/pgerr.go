// Package pgerr classifies PostgreSQL errors reported by github.com/lib/pq.
package pgerr

import (
	"errors"

	"github.com/lib/pq"
)

// Condition names from the PostgreSQL error code appendix.
const (
	UniqueViolation      = "unique_violation"
	ForeignKeyViolation  = "foreign_key_violation"
	LockNotAvailable     = "lock_not_available"
	SerializationFailure = "serialization_failure"
	DeadlockDetected     = "deadlock_detected"
	QueryCanceled        = "query_canceled"
)

// Condition returns the condition name of the *pq.Error in err's chain, or "".
func Condition(err error) string {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return ""
	}
	return pqErr.Code.Name()
}

// Constraint returns the violated constraint of the *pq.Error in err's chain, or "".
func Constraint(err error) string {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return ""
	}
	return pqErr.Constraint
}

func IsUniqueViolation(err error) bool {
	return Condition(err) == UniqueViolation
}

func IsForeignKeyViolation(err error) bool {
	return Condition(err) == ForeignKeyViolation
}

func IsLockNotAvailable(err error) bool {
	return Condition(err) == LockNotAvailable
}

// IsRetryable reports failures that a fresh transaction may not hit again.
func IsRetryable(err error) bool {
	switch Condition(err) {
	case SerializationFailure, DeadlockDetected:
		return true
	default:
		return false
	}
}
