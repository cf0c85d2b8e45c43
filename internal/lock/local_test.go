package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker_AcquireRelease(t *testing.T) {
	locker := NewLocalLocker(50 * time.Millisecond)
	ctx := context.Background()

	held, err := locker.Acquire(ctx)
	require.NoError(t, err)
	require.NoError(t, held.Release(ctx))

	held, err = locker.Acquire(ctx)
	require.NoError(t, err)
	assert.NoError(t, held.Release(ctx))
}

func TestLocalLocker_TimesOutWhileHeld(t *testing.T) {
	locker := NewLocalLocker(20 * time.Millisecond)
	ctx := context.Background()

	held, err := locker.Acquire(ctx)
	require.NoError(t, err)
	defer held.Release(ctx)

	_, err = locker.Acquire(ctx)
	assert.ErrorIs(t, err, ErrNotAcquired)
}

func TestLocalLocker_CancelledContext(t *testing.T) {
	locker := NewLocalLocker(time.Second)

	held, err := locker.Acquire(context.Background())
	require.NoError(t, err)
	defer held.Release(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = locker.Acquire(ctx)
	assert.ErrorIs(t, err, ErrNotAcquired)
}

func TestLocalLocker_MutualExclusion(t *testing.T) {
	locker := NewLocalLocker(5 * time.Second)
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			held, err := locker.Acquire(ctx)
			if err != nil {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			held.Release(ctx)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInside))
}
