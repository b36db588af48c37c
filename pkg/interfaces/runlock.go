package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrRunInProgress reports that another migration run currently holds the run lock.
var ErrRunInProgress = errors.New("faqmigrate: a migration run is already in progress")

// RunLock is an exclusive-run guard with a safe expiry so a crashed run never
// blocks subsequent runs forever.
type RunLock interface {
	// Acquire takes the lock for owner unless another owner holds an unexpired lease.
	Acquire(ctx context.Context, owner string, ttl time.Duration) (bool, error)
	// Release drops the lock when it is still held by owner.
	Release(ctx context.Context, owner string) error
}
