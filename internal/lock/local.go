package lock

import (
	"context"
	"time"
)

// LocalLocker is an in-process lock for single-replica deployments
type LocalLocker struct {
	sem  chan struct{}
	wait time.Duration
}

// NewLocalLocker creates a LocalLocker; wait bounds how long Acquire blocks
func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{
		sem:  make(chan struct{}, 1),
		wait: wait,
	}
}

// Acquire blocks until the lock is free, the wait budget runs out, or ctx is done
func (l *LocalLocker) Acquire(ctx context.Context) (Lock, error) {
	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case l.sem <- struct{}{}:
		return &localLock{sem: l.sem}, nil
	case <-timer.C:
		return nil, ErrNotAcquired
	case <-ctx.Done():
		return nil, ErrNotAcquired
	}
}

type localLock struct {
	sem chan struct{}
}

func (l *localLock) Release(_ context.Context) error {
	select {
	case <-l.sem:
	default:
	}
	return nil
}
