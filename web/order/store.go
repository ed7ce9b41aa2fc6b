package order

import (
	"context"

	"upi-gateway/web/db"
)

// Swap is a guarded status move. UTR, when non-empty, is written together
// with the status but only if the stored UTR is still empty — the first
// submitted claim is never overwritten.
type Swap struct {
	From []db.OrderStatus
	To   db.OrderStatus
	UTR  string
}

// Store is the durable source of truth for orders. Implementations must
// provide insert-if-absent semantics on the public id and atomic
// compare-and-swap on status, so concurrent submissions and verifications
// cannot race a row into an inconsistent state.
type Store interface {
	// Insert persists a new order, failing with ErrConflict when the
	// public id is already taken.
	Insert(ctx context.Context, o *db.Order) error

	// Get returns the order for a public id, or ErrNotFound.
	Get(ctx context.Context, publicID string) (db.Order, error)

	// Transition applies swap atomically. It returns false (with no
	// error) when the guard did not match; the caller decides whether
	// that is a lost race or a hard failure.
	Transition(ctx context.Context, publicID string, swap Swap) (bool, error)
}
