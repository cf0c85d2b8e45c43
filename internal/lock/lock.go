// Package lock serializes ledger closures against entry writes.
//
// A single shop-wide lock is enough: closures are rare, and entry writes only
// hold it for the duration of the closed-day check plus the insert.
package lock

import (
	"context"
	"errors"
)

// ClosureKey is the key of the shop-wide closure lock
const ClosureKey = "ledger:closure"

// ErrNotAcquired is returned when the lock is still held by someone else
// after the wait budget is spent
var ErrNotAcquired = errors.New("lock not acquired")

// Lock is a held lock
type Lock interface {
	Release(ctx context.Context) error
}

// Locker hands out the closure lock
type Locker interface {
	Acquire(ctx context.Context) (Lock, error)
}
