package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 11, 23, 12, 0, 0, 0, time.UTC)}
}

func TestTimed_TTLBoundary(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	c := NewTimed[string](DefaultTTL).WithClock(clock.Now)

	c.Set(ctx, "network", "v1")

	clock.Advance(299 * time.Second)
	v, ok := c.Get(ctx, "network")
	require.True(t, ok)
	assert.Equal(t, "v1", v)

	clock.Advance(2 * time.Second)
	_, ok = c.Get(ctx, "network")
	assert.False(t, ok, "entry must expire after 300s")
}

func TestTimed_SetReplacesWholeEntry(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	c := NewTimed[[]int](time.Minute).WithClock(clock.Now)

	c.Set(ctx, "k", []int{1})
	clock.Advance(59 * time.Second)
	c.Set(ctx, "k", []int{2, 3})
	clock.Advance(30 * time.Second)

	v, ok := c.Get(ctx, "k")
	require.True(t, ok, "refresh resets fetchedAt")
	assert.Equal(t, []int{2, 3}, v)
	assert.Equal(t, 1, c.Len())
}

func TestTimed_MissingKey(t *testing.T) {
	c := NewTimed[int](time.Minute)
	v, ok := c.Get(context.Background(), "nope")
	assert.False(t, ok)
	assert.Zero(t, v)
}

func TestGetOrFetch(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	c := NewTimed[int](DefaultTTL).WithClock(clock.Now)

	var calls int32
	fetch := func(context.Context) (int, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}

	v, err := GetOrFetch[int](ctx, c, "pools", fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	clock.Advance(299 * time.Second)
	v, err = GetOrFetch[int](ctx, c, "pools", fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	clock.Advance(2 * time.Second)
	v, err = GetOrFetch[int](ctx, c, "pools", fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestGetOrFetch_ErrorLeavesCacheUntouched(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	c := NewTimed[string](time.Minute).WithClock(clock.Now)
	c.Set(ctx, "k", "old")
	clock.Advance(2 * time.Minute)

	boom := errors.New("boom")
	_, err := GetOrFetch[string](ctx, c, "k", func(context.Context) (string, error) {
		return "", boom
	})
	require.ErrorIs(t, err, boom)

	c.WithClock(func() time.Time { return clock.Now().Add(-2 * time.Minute) })
	v, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "old", v)
}

func TestGetOrFetch_CancelledFetch(t *testing.T) {
	c := NewTimed[string](time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := GetOrFetch[string](ctx, c, "k", func(ctx context.Context) (string, error) {
		return "", ctx.Err()
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, c.Len())
}

func TestTimed_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewTimed[int](time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c.Set(ctx, "k", i)
		}(i)
		go func() {
			defer wg.Done()
			_, _ = c.Get(ctx, "k")
		}()
	}
	wg.Wait()

	_, ok := c.Get(ctx, "k")
	assert.True(t, ok)
}
