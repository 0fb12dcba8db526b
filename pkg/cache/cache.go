package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL 网络级慢变数据的缓存时长
const DefaultTTL = 300 * time.Second

// Clock 返回当前时间, 测试中可替换
type Clock func() time.Time

// Cache 带过期时间的键值缓存. 读取永不报错, 未命中或过期都返回 false.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool)
	Set(ctx context.Context, key string, value T)
}

var _ Cache[any] = (*Timed[any])(nil)

// entry 缓存条目, 只在 Timed 内部可见
type entry[T any] struct {
	value     T
	fetchedAt time.Time
}

// Timed 并发安全的内存缓存. 过期在读取时惰性判断, 没有后台清理.
type Timed[T any] struct {
	ttl time.Duration
	now Clock

	mu      sync.RWMutex
	entries map[string]entry[T]
}

// NewTimed 创建内存缓存
func NewTimed[T any](ttl time.Duration) *Timed[T] {
	return &Timed[T]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry[T]),
	}
}

// WithClock 替换时钟
func (c *Timed[T]) WithClock(clock Clock) *Timed[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = clock
	return c
}

// TTL 返回缓存时长
func (c *Timed[T]) TTL() time.Duration {
	return c.ttl
}

// Get 读取未过期的值
func (c *Timed[T]) Get(_ context.Context, key string) (T, bool) {
	var zero T

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	// expired entries stay until the next Set overwrites them
	if c.now().Sub(e.fetchedAt) >= c.ttl {
		return zero, false
	}
	return e.value, true
}

// Set 整条替换缓存值
func (c *Timed[T]) Set(_ context.Context, key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[T]{value: value, fetchedAt: c.now()}
}

// Len 当前条目数 (包含已过期但未被覆盖的)
func (c *Timed[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetOrFetch 命中直接返回, 否则调用 fetch 并写入缓存.
// fetch 失败时缓存保持原状, 并发未命中可能各自发起请求.
func GetOrFetch[T any](ctx context.Context, c Cache[T], key string, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(ctx, key); ok {
		return v, nil
	}

	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	c.Set(ctx, key, v)
	return v, nil
}
