package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"chain-gateway/pkg/config"
	"chain-gateway/pkg/tracing"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/puzpuzpuz/xsync"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const maxBodySize = 10 << 20

// Doer 发送HTTP请求, *http.Client 满足该接口
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response 已读取完毕的上游响应
type Response struct {
	StatusCode int
	Body       []byte
}

// OK 状态码是否在 200-299
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// StatusError 非2xx响应
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Status code: %d, %s", e.StatusCode, e.Body)
}

// Err 非2xx时返回 *StatusError
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return &StatusError{StatusCode: r.StatusCode, Body: string(r.Body)}
}

// Client 上游区块链节点的HTTP客户端. 每个 host 单独限流.
type Client struct {
	doer     Doer
	headers  http.Header
	rps      rate.Limit
	burst    int
	limiters *xsync.MapOf[string, *rate.Limiter]
	metrics  *Metrics
}

// Option 客户端选项
type Option func(*Client)

// WithDoer 替换底层发送实现
func WithDoer(d Doer) Option {
	return func(c *Client) { c.doer = d }
}

// WithHeader 为每个请求附加请求头
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Set(key, value) }
}

// WithRateLimit 每个 host 的限流, rps <= 0 表示不限流
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.rps = rate.Limit(rps)
		c.burst = burst
	}
}

// WithMetrics 记录上游请求指标
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewRetryClient 创建 retryablehttp 客户端. 默认不重试, 非2xx响应原样返回.
func NewRetryClient(cfg config.HTTPClientConfig) *retryablehttp.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = cfg.RetryWaitMin
	rc.RetryWaitMax = cfg.RetryWaitMax
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = nil
	return rc
}

// New 创建客户端
func New(cfg config.HTTPClientConfig, opts ...Option) *Client {
	c := &Client{
		doer:     NewRetryClient(cfg).StandardClient(),
		headers:  make(http.Header),
		rps:      rate.Limit(cfg.HostRPS),
		burst:    cfg.HostBurst,
		limiters: xsync.NewMapOf[*rate.Limiter](),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// With 派生一个共享限流器和指标, 但附加额外请求头的客户端
func (c *Client) With(opts ...Option) *Client {
	clone := *c
	clone.headers = c.headers.Clone()
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

func (c *Client) limiter(host string) *rate.Limiter {
	if c.rps <= 0 {
		return nil
	}
	if l, ok := c.limiters.Load(host); ok {
		return l
	}
	burst := c.burst
	if burst < 1 {
		burst = 1
	}
	l, _ := c.limiters.LoadOrStore(host, rate.NewLimiter(c.rps, burst))
	return l
}

// Get 发送GET请求
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, rawURL, nil)
}

// Post 发送原始JSON请求体
func (c *Client) Post(ctx context.Context, rawURL string, body []byte) (*Response, error) {
	return c.Do(ctx, http.MethodPost, rawURL, body)
}

// PostJSON 序列化 v 后发送
func (c *Client) PostJSON(ctx context.Context, rawURL string, v interface{}) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return c.Do(ctx, http.MethodPost, rawURL, body)
}

// Do 发送请求并读取完整响应体. 只有传输层失败才返回 error, 非2xx由调用方判断.
func (c *Client) Do(ctx context.Context, method, rawURL string, body []byte) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	ctx, span := tracing.Tracer().Start(ctx, "upstream "+method)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.host", u.Host),
		attribute.String("http.path", u.Path),
	)

	if l := c.limiter(u.Host); l != nil {
		if err := l.Wait(ctx); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, err
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	resp, err := c.doer.Do(req)
	if err != nil {
		c.metrics.observe(u.Host, method, "error", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	c.metrics.observe(u.Host, method, fmt.Sprintf("%d", resp.StatusCode), time.Since(start))
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}
