package httpclient

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 上游请求指标
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics 创建并注册指标
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chain_gateway_upstream_requests_total",
				Help: "Upstream node requests by host, method and status",
			},
			[]string{"host", "method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chain_gateway_upstream_request_duration_seconds",
				Help:    "Upstream node request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"host"},
		),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics 注册到全局 registry 的指标, 只注册一次
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

func (m *Metrics) observe(host, method, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(host, method, status).Inc()
	m.duration.WithLabelValues(host).Observe(elapsed.Seconds())
}
