package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker_SerializesSameKey(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, "vendor-1", time.Second)
			require.NoError(t, err)
			defer release()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}

func TestLocalLocker_RespectsContextCancellation(t *testing.T) {
	l := NewLocalLocker()

	release, err := l.Acquire(context.Background(), "tier-config", time.Second)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = l.Acquire(ctx, "tier-config", time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLocalLocker_DoubleReleaseIsHarmless(t *testing.T) {
	l := NewLocalLocker()

	release, err := l.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)
	release()
	release()

	release2, err := l.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)
	release2()
}

func TestLocalLocker_RejectsEmptyKey(t *testing.T) {
	_, err := NewLocalLocker().Acquire(context.Background(), "", time.Second)
	assert.ErrorIs(t, err, ErrEmptyKey)
}
