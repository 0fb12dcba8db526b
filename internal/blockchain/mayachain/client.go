package mayachain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"chain-gateway/internal/blockchain"
	"chain-gateway/pkg/cache"
	"chain-gateway/pkg/config"
	"chain-gateway/pkg/httpclient"
	"chain-gateway/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const clientIDHeader = "X-Client-ID"

// 缓存键
const (
	keyNetwork   = "network"
	keyHealth    = "health"
	keyPools     = "pools"
	keyMimir     = "mimir"
	keyPoolStats = "pool-stats"
)

// Client mayanode 和 midgard 的 REST 客户端. network/health/pools/mimir/默认周期的池子统计缓存 300 秒.
type Client struct {
	nodeURL    string
	midgardURL string
	http       *httpclient.Client
	log        *zap.SugaredLogger

	network   cache.Cache[*Network]
	health    cache.Cache[*Health]
	pools     cache.Cache[[]Pool]
	mimir     cache.Cache[map[string]int64]
	poolStats cache.Cache[[]PoolStats]
}

type clientOptions struct {
	backend string
	redis   *redis.Client
	ttl     time.Duration
	clock   cache.Clock
}

// Option 客户端选项
type Option func(*clientOptions)

// WithCacheBackend 指定缓存后端, "redis" 时多实例共享缓存
func WithCacheBackend(backend string, rdb *redis.Client, ttl time.Duration) Option {
	return func(o *clientOptions) {
		o.backend = backend
		o.redis = rdb
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithClock 替换内存缓存的时钟
func WithClock(clock cache.Clock) Option {
	return func(o *clientOptions) { o.clock = clock }
}

func newCache[T any](o *clientOptions, name string) cache.Cache[T] {
	c := cache.New[T](o.backend, o.redis, "maya:"+name, o.ttl)
	if t, ok := c.(*cache.Timed[T]); ok && o.clock != nil {
		t.WithClock(o.clock)
	}
	return c
}

// NewClient 创建 MayaChain 客户端, 所有请求带 X-Client-ID
func NewClient(cfg config.MayaConfig, client *httpclient.Client, opts ...Option) *Client {
	o := &clientOptions{backend: "memory", ttl: cache.DefaultTTL}
	for _, opt := range opts {
		opt(o)
	}

	if cfg.ClientID != "" {
		client = client.With(httpclient.WithHeader(clientIDHeader, cfg.ClientID))
	}
	return &Client{
		nodeURL:    strings.TrimRight(cfg.NodeURL, "/"),
		midgardURL: strings.TrimRight(cfg.MidgardURL, "/"),
		http:       client,
		log:        logger.Named("mayachain"),
		network:    newCache[*Network](o, keyNetwork),
		health:     newCache[*Health](o, keyHealth),
		pools:      newCache[[]Pool](o, keyPools),
		mimir:      newCache[map[string]int64](o, keyMimir),
		poolStats:  newCache[[]PoolStats](o, keyPoolStats),
	}
}

// Network 全网信息 (缓存)
func (c *Client) Network(ctx context.Context) (*Network, error) {
	return cache.GetOrFetch(ctx, c.network, keyNetwork, func(ctx context.Context) (*Network, error) {
		var out Network
		if err := c.getJSON(ctx, "fetch network", c.midgardURL+"/v2/network", &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
}

// Health midgard 同步状态 (缓存)
func (c *Client) Health(ctx context.Context) (*Health, error) {
	return cache.GetOrFetch(ctx, c.health, keyHealth, c.FetchHealth)
}

// FetchHealth 不经过缓存直接读取
func (c *Client) FetchHealth(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.getJSON(ctx, "fetch health", c.midgardURL+"/v2/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Pools mayanode 池子列表 (缓存)
func (c *Client) Pools(ctx context.Context) ([]Pool, error) {
	return cache.GetOrFetch(ctx, c.pools, keyPools, func(ctx context.Context) ([]Pool, error) {
		var out []Pool
		if err := c.getJSON(ctx, "fetch pools", c.nodeURL+"/mayachain/pools", &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// Mimir 治理参数 (缓存)
func (c *Client) Mimir(ctx context.Context) (map[string]int64, error) {
	return cache.GetOrFetch(ctx, c.mimir, keyMimir, func(ctx context.Context) (map[string]int64, error) {
		out := map[string]int64{}
		if err := c.getJSON(ctx, "fetch mimir", c.nodeURL+"/mayachain/mimir", &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// PoolStats 池子统计. 只有默认周期 (period 为空) 的结果会被缓存.
func (c *Client) PoolStats(ctx context.Context, period string) ([]PoolStats, error) {
	fetch := func(ctx context.Context) ([]PoolStats, error) {
		u := c.midgardURL + "/v2/pools"
		if period != "" {
			u += "?period=" + url.QueryEscape(period)
		}
		var out []PoolStats
		if err := c.getJSON(ctx, "fetch pool stats", u, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	if period != "" {
		return fetch(ctx)
	}
	return cache.GetOrFetch(ctx, c.poolStats, keyPoolStats, fetch)
}

// Node 单个节点详情
func (c *Client) Node(ctx context.Context, nodeAddress string) (*Node, error) {
	var out Node
	if err := c.getJSON(ctx, "fetch node", c.nodeURL+"/mayachain/node/"+url.PathEscape(nodeAddress), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Nodes 全部节点
func (c *Client) Nodes(ctx context.Context) ([]Node, error) {
	var out []Node
	if err := c.getJSON(ctx, "fetch nodes", c.nodeURL+"/mayachain/nodes", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MemberDetails 地址的 LP 仓位
func (c *Client) MemberDetails(ctx context.Context, address string) (*MemberDetails, error) {
	var out MemberDetails
	if err := c.getJSON(ctx, "fetch member", c.midgardURL+"/v2/member/"+url.PathEscape(address), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CacaoPoolMember 地址在 CACAO 池的存取记录
func (c *Client) CacaoPoolMember(ctx context.Context, address string) (*CacaoPoolMember, error) {
	var out CacaoPoolMember
	if err := c.getJSON(ctx, "fetch cacao pool member", c.midgardURL+"/v2/cacaopool/"+url.PathEscape(address), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CacaoPoolHistory 按天统计的 CACAO 池深度和份额
func (c *Client) CacaoPoolHistory(ctx context.Context, count int) (*CacaoPoolHistory, error) {
	var out CacaoPoolHistory
	u := fmt.Sprintf("%s/v2/history/cacaopool?interval=day&count=%d", c.midgardURL, count)
	if err := c.getJSON(ctx, "fetch cacao pool history", u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// NativeTxFee 原生交易手续费, 节点未返回时使用默认值
func (c *Client) NativeTxFee(ctx context.Context) (uint64, error) {
	const op = "fetch native tx fee"

	var out nodeNetworkResponse
	if err := c.getJSON(ctx, op, c.nodeURL+"/mayachain/network", &out); err != nil {
		return 0, err
	}
	if out.NativeTxFeeCacao == "" {
		return DefaultNativeTxFee, nil
	}
	fee, err := strconv.ParseUint(out.NativeTxFeeCacao, 10, 64)
	if err != nil {
		return 0, blockchain.NewDecodeError(op, err)
	}
	return fee, nil
}

func (c *Client) getJSON(ctx context.Context, op, rawURL string, out interface{}) error {
	resp, err := c.http.Get(ctx, rawURL)
	if err != nil {
		return blockchain.NewNetworkError(op, err)
	}
	if err := resp.Err(); err != nil {
		return blockchain.NewNetworkError(op, err)
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return blockchain.NewDecodeError(op, err)
	}
	return nil
}
