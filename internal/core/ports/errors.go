package ports

import "errors"

// Errors returned by repositories and units of work. Adapters wrap driver errors
// with these so the application layer can branch without knowing the database.
var (
	ErrProductNotFound        = errors.New("product not found")
	ErrProductAlreadyExists   = errors.New("product already exists")
	ErrBatchNotFound          = errors.New("batch not found")
	ErrOrderLineAlreadyExists = errors.New("order line already exists")

	// ErrVersionConflict means another transaction advanced the product first.
	// Retrying with a fresh unit of work is safe.
	ErrVersionConflict = errors.New("product version conflict")

	// ErrLockNotAvailable means the product row lock was not granted in time.
	ErrLockNotAvailable = errors.New("product lock not available")
)
