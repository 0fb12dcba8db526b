package app

import (
	"context"
	"fmt"

	"chain-gateway/internal/blockchain/cosmos"
	"chain-gateway/internal/gateway"
	"chain-gateway/internal/monitor"
	"chain-gateway/pkg/cache"
	"chain-gateway/pkg/config"
	"chain-gateway/pkg/database"
	"chain-gateway/pkg/httpclient"
	"chain-gateway/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// App 进程共享的依赖
type App struct {
	Config   *config.Config
	Gateways *gateway.Gateways
	Monitor  *monitor.Service

	redis   *redis.Client
	closers []func()
}

// Option 构建选项
type Option func(*options)

type options struct {
	sinks    []monitor.StatusSink
	registry prometheus.Registerer
	metrics  bool
}

// WithStatusSink 监控结果额外写入的接收方
func WithStatusSink(sink monitor.StatusSink) Option {
	return func(o *options) { o.sinks = append(o.sinks, sink) }
}

// WithoutMetrics 不注册 prometheus 指标, 用于命令行工具
func WithoutMetrics() Option {
	return func(o *options) { o.metrics = false }
}

// New 按配置连接数据库/Redis 并构建全部网关和监控服务.
// 数据库和 Redis 都是可选的, 未启用时分别退化为内存实现.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := &options{registry: prometheus.DefaultRegisterer, metrics: true}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{Config: cfg}

	var (
		denomStore cosmos.DenomTraceStore
		heads      = monitor.NewMemoryRepository()
	)
	if cfg.Database.Enabled {
		if err := database.Init(cfg.Database); err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		a.closers = append(a.closers, func() { _ = database.Close() })
		if err := database.AutoMigrate(&cosmos.IBCDenomTrace{}, &monitor.ChainHead{}); err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		denomStore = cosmos.NewDenomTraceRepository(database.GetDB())
		heads = monitor.NewRepository(database.GetDB())
	}

	if cfg.Cache.Backend == "redis" {
		client, err := cache.Connect(ctx, cfg.Redis)
		if err != nil {
			logger.Warnf("Redis unavailable, falling back to in-memory cache: %v", err)
			cfg.Cache.Backend = "memory"
		} else {
			a.redis = client
			a.closers = append(a.closers, func() { _ = client.Close() })
		}
	}

	var httpOpts []httpclient.Option
	var monitorOpts []monitor.Option
	if o.metrics {
		httpOpts = append(httpOpts, httpclient.WithMetrics(httpclient.DefaultMetrics()))
		monitorOpts = append(monitorOpts, monitor.WithMetrics(monitor.NewMetrics(o.registry)))
	}

	a.Gateways = gateway.Build(ctx, cfg, gateway.Deps{
		HTTP:       httpclient.New(cfg.HTTPClient, httpOpts...),
		DenomStore: denomStore,
		Redis:      a.redis,
	})

	monitorOpts = append(monitorOpts, monitor.WithTimeout(cfg.Monitor.Timeout))
	for _, sink := range o.sinks {
		monitorOpts = append(monitorOpts, monitor.WithStatusSink(sink))
	}
	a.Monitor = monitor.NewService(a.Gateways.Factory.Gateways(), heads, monitorOpts...)

	return a, nil
}

// Close 按打开的逆序释放资源
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
