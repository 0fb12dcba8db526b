package monitor

import (
	"context"
	"sync"
	"time"

	"chain-gateway/internal/blockchain"
	"chain-gateway/pkg/logger"

	"go.uber.org/zap"
)

const saveTimeout = 5 * time.Second

// StatusSink 接收每条链的健康状态, gRPC health 服务实现该接口
type StatusSink interface {
	SetChainStatus(chain blockchain.Chain, healthy bool)
}

// Service 定时探测各链最新区块
type Service struct {
	gateways []blockchain.Gateway
	repo     Repository
	metrics  *Metrics
	sinks    []StatusSink
	timeout  time.Duration
	now      func() time.Time
	log      *zap.SugaredLogger
}

// Option 服务选项
type Option func(*Service)

// WithMetrics 记录 prometheus 指标
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithStatusSink 增加状态接收方
func WithStatusSink(sink StatusSink) Option {
	return func(s *Service) { s.sinks = append(s.sinks, sink) }
}

// WithTimeout 单条链的探测超时
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithClock 替换时钟
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService 创建探测服务
func NewService(gateways []blockchain.Gateway, repo Repository, opts ...Option) *Service {
	s := &Service{
		gateways: gateways,
		repo:     repo,
		timeout:  10 * time.Second,
		now:      time.Now,
		log:      logger.Named("monitor"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Probe 并发探测全部链, 返回本轮结果. 单条链失败不影响其他链.
func (s *Service) Probe(ctx context.Context) []ChainHead {
	results := make([]ChainHead, len(s.gateways))

	var wg sync.WaitGroup
	for i, g := range s.gateways {
		wg.Add(1)
		go func(i int, g blockchain.Gateway) {
			defer wg.Done()
			results[i] = s.probeOne(ctx, g)
		}(i, g)
	}
	wg.Wait()

	return results
}

func (s *Service) probeOne(ctx context.Context, g blockchain.Gateway) ChainHead {
	probeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := s.now()
	block, err := g.FetchLatestBlock(probeCtx)
	elapsed := s.now().Sub(start)

	head := ChainHead{
		Chain:         g.Chain().String(),
		LatencyMillis: elapsed.Milliseconds(),
		ObservedAt:    s.now(),
	}
	if err != nil {
		head.Error = err.Error()
		s.log.Warnw("chain probe failed", "chain", head.Chain, "error", err)
	} else {
		head.Healthy = true
		head.Height = block.Height
		head.BlockTimeMillis = block.TimestampMillis
	}

	s.metrics.observe(&head, elapsed)
	for _, sink := range s.sinks {
		sink.SetChainStatus(g.Chain(), head.Healthy)
	}
	// 写入不受探测超时影响
	saveCtx, saveCancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer saveCancel()
	if err := s.repo.SaveHead(saveCtx, &head); err != nil {
		s.log.Errorw("save chain head failed", "chain", head.Chain, "error", err)
	}
	return head
}

// Heads 最近一次记录的链头
func (s *Service) Heads(ctx context.Context) ([]*ChainHead, error) {
	return s.repo.ListHeads(ctx)
}

// Run 按间隔循环探测, ctx 取消后返回
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	heads := s.Probe(ctx)
	healthy := 0
	for _, h := range heads {
		if h.Healthy {
			healthy++
		}
	}
	s.log.Debugw("chain probe finished", "healthy", healthy, "total", len(heads))
}
