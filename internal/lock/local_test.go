package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerSerializesSameKey(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, []string{"kind:foot"})
	require.NoError(t, err)

	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(timeout, []string{"kind:foot", "master:X"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// неудачная попытка не должна оставить master:X захваченным
	other, err := l.Acquire(ctx, []string{"master:X"})
	require.NoError(t, err)
	require.NoError(t, other(ctx))

	require.NoError(t, release(ctx))
	again, err := l.Acquire(ctx, []string{"kind:foot"})
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestLocalLockerDisjointKeysDoNotBlock(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	a, err := l.Acquire(ctx, []string{"kind:foot"})
	require.NoError(t, err)
	b, err := l.Acquire(ctx, []string{"kind:body"})
	require.NoError(t, err)

	require.NoError(t, a(ctx))
	require.NoError(t, b(ctx))
}

func TestLocalLockerReleaseIsIdempotent(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	release, err := l.Acquire(ctx, []string{"k", "k"})
	require.NoError(t, err)
	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx))

	again, err := l.Acquire(ctx, []string{"k"})
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}

func TestLocalLockerMutualExclusion(t *testing.T) {
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
		go func(i int) {
			defer wg.Done()
			keys := []string{"kind:body", "kind:foot"}
			if i%2 == 0 {
				keys = []string{"kind:foot", "kind:body"}
			}
			release, err := l.Acquire(ctx, keys)
			if !assert.NoError(t, err) {
				return
			}
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
			_ = release(ctx)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}
