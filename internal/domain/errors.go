package domain

import "errors"

// Typed failure taxonomy for registry operations. Every failed operation
// returns one of these (possibly wrapped); nothing is thrown or retried.
var (
	// ErrUnauthorized is returned when the caller is not the registry owner
	// on a mutating operation.
	ErrUnauthorized = errors.New("caller is not the registry owner")

	// ErrNotFound is returned when a referenced infrastructure id is absent
	// on verify.
	ErrNotFound = errors.New("infrastructure record not found")

	// ErrAlreadyVerified is returned when verify is called on a record whose
	// status is no longer pending.
	ErrAlreadyVerified = errors.New("infrastructure record already verified")

	// ErrMetricNotFound is returned when a referenced metric id is absent on
	// update.
	ErrMetricNotFound = errors.New("performance metric not found")

	// ErrInvalidThreshold is returned when thresholdMin >= thresholdMax on
	// metric registration, or allocatedAmount > maxCapacity on allocation.
	ErrInvalidThreshold = errors.New("invalid threshold bounds")

	// ErrValueTooLong is returned when a string argument exceeds its bounded
	// length. Oversized input is rejected at the call boundary, before any
	// registry is touched.
	ErrValueTooLong = errors.New("string value exceeds bounded length")
)
