package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chain-gateway/pkg/config"
	"chain-gateway/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Connect 建立Redis连接并检查连通性
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connected successfully")
	return client, nil
}

var _ Cache[any] = (*RedisTimed[any])(nil)

// redisEnvelope Redis中保存的条目
type redisEnvelope[T any] struct {
	Value     T         `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
}

// RedisTimed 以Redis为后端的缓存, 多实例共享同一份网络数据.
// Redis 故障一律按未命中处理.
type RedisTimed[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    Clock
}

// NewRedisTimed 创建Redis缓存, prefix 用于隔离不同数据种类
func NewRedisTimed[T any](client *redis.Client, prefix string, ttl time.Duration) *RedisTimed[T] {
	return &RedisTimed[T]{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock 替换时钟
func (c *RedisTimed[T]) WithClock(clock Clock) *RedisTimed[T] {
	c.now = clock
	return c
}

func (c *RedisTimed[T]) key(key string) string {
	return c.prefix + ":" + key
}

// Get 读取缓存
func (c *RedisTimed[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T

	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warnf("redis cache get %s: %v", c.key(key), err)
		}
		return zero, false
	}

	var env redisEnvelope[T]
	if err := json.Unmarshal(data, &env); err != nil {
		logger.Warnf("redis cache decode %s: %v", c.key(key), err)
		return zero, false
	}
	if c.now().Sub(env.FetchedAt) >= c.ttl {
		return zero, false
	}
	return env.Value, true
}

// Set 写入缓存, Redis 侧同样设置过期
func (c *RedisTimed[T]) Set(ctx context.Context, key string, value T) {
	data, err := json.Marshal(redisEnvelope[T]{Value: value, FetchedAt: c.now()})
	if err != nil {
		logger.Warnf("redis cache encode %s: %v", c.key(key), err)
		return
	}
	if err := c.client.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		logger.Warnf("redis cache set %s: %v", c.key(key), err)
	}
}

// New 按后端类型创建缓存, client 为空时退回内存实现
func New[T any](backend string, client *redis.Client, prefix string, ttl time.Duration) Cache[T] {
	if backend == "redis" && client != nil {
		return NewRedisTimed[T](client, prefix, ttl)
	}
	return NewTimed[T](ttl)
}
