// Package lock provides keyed mutual exclusion, in process or across replicas via Redis.
// This is part of the platform layer and contains no business logic.
package lock

import (
	"context"
	"errors"
)

// ErrNotHeld is returned when releasing a lock that expired or was taken over.
var ErrNotHeld = errors.New("lock not held")

// Unlock releases a held lock.
type Unlock func(ctx context.Context) error

// Locker acquires exclusive access to a key, blocking until it is free
// or ctx is done.
type Locker interface {
	Acquire(ctx context.Context, key string) (Unlock, error)
}
