// Package lock provides per-resource mutual exclusion for the reservation
// path. Two implementations exist: a quorum-based Redlock provider and an
// optimistic no-op provider. Callers must treat the two acquire failures
// differently: ErrLockHeld means another live holder owns the resource,
// ErrUnavailable means the lock service itself cannot arbitrate and the
// caller may fall back to an unlocked conditional write.
package lock

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrLockHeld is returned when another holder legitimately owns the lock.
	ErrLockHeld = errors.New("lock held by another holder")

	// ErrUnavailable is returned when the lock service cannot be reached or
	// cannot form a quorum. It is an internal signal, never a user-facing
	// error on its own.
	ErrUnavailable = errors.New("lock service unavailable")
)

// Handle represents an acquired lock. Release is idempotent from the
// caller's point of view: releasing a lease that already expired
// server-side is not an error.
type Handle interface {
	Release(ctx context.Context) error
}

// Provider grants time-bounded exclusive ownership of a resource key.
type Provider interface {
	Acquire(ctx context.Context, key string, lease time.Duration) (Handle, error)
}
