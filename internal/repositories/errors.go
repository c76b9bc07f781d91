package repositories

import "errors"

// Sentinel errors shared by the repository implementations. Services
// branch on these to map store-level failures to user-facing outcomes.
var (
	// ErrProductNotFound is returned when a product id does not resolve.
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock is returned when a guarded stock decrement
	// cannot be satisfied without going negative.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrOrderNotFound covers both a missing order and an order owned by
	// another user; callers must not be able to tell the two apart.
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderNotCancellable is returned when an order is not in the
	// pending state, including when it has already been cancelled.
	ErrOrderNotCancellable = errors.New("order is not cancellable")
)
