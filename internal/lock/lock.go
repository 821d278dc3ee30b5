// Package lock keeps two local purges of the same bucket from overlapping.
package lock

import (
	"context"
	"errors"
)

// ErrLocked is returned by Acquire when another live process holds the lock.
var ErrLocked = errors.New("bucket is locked by another purge")

type Locker interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}
