package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type poolSnapshot struct {
	Asset string `json:"asset"`
	Depth string `json:"depth"`
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisTimed_RoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)
	clock := newClock()

	c := NewRedisTimed[[]poolSnapshot](client, "maya:pools", DefaultTTL).WithClock(clock.Now)
	want := []poolSnapshot{{Asset: "BTC.BTC", Depth: "100"}}
	c.Set(ctx, "default", want)

	clock.Advance(299 * time.Second)
	got, ok := c.Get(ctx, "default")
	require.True(t, ok)
	assert.Equal(t, want, got)

	clock.Advance(2 * time.Second)
	_, ok = c.Get(ctx, "default")
	assert.False(t, ok)
}

func TestRedisTimed_ServerSideExpiry(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)

	c := NewRedisTimed[string](client, "maya:network", time.Minute)
	c.Set(ctx, "default", "x")
	assert.True(t, mr.Exists("maya:network:default"))

	mr.FastForward(61 * time.Second)
	assert.False(t, mr.Exists("maya:network:default"))
}

func TestRedisTimed_FailuresAreMisses(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)

	c := NewRedisTimed[string](client, "p", time.Minute)
	require.NoError(t, mr.Set("p:garbage", "{not json"))
	_, ok := c.Get(ctx, "garbage")
	assert.False(t, ok)

	mr.Close()
	_, ok = c.Get(ctx, "anything")
	assert.False(t, ok)
}

func TestNew_SelectsBackend(t *testing.T) {
	_, client := newRedis(t)

	_, isRedis := New[int]("redis", client, "p", time.Minute).(*RedisTimed[int])
	assert.True(t, isRedis)

	_, isMemory := New[int]("redis", nil, "p", time.Minute).(*Timed[int])
	assert.True(t, isMemory)

	_, isMemory = New[int]("memory", client, "p", time.Minute).(*Timed[int])
	assert.True(t, isMemory)
}
