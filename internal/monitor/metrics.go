package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 链头探测指标
type Metrics struct {
	height   *prometheus.GaugeVec
	healthy  *prometheus.GaugeVec
	failures *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics 创建并注册指标
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		height: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "chain_gateway_chain_head_height",
			Help: "Latest observed block height per chain",
		}, []string{"chain"}),
		healthy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "chain_gateway_chain_healthy",
			Help: "1 if the last probe of the chain succeeded",
		}, []string{"chain"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chain_gateway_chain_probe_failures_total",
			Help: "Failed chain head probes",
		}, []string{"chain"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chain_gateway_chain_probe_duration_seconds",
			Help:    "Chain head probe latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"chain"}),
	}
	reg.MustRegister(m.height, m.healthy, m.failures, m.latency)
	return m
}

func (m *Metrics) observe(head *ChainHead, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(head.Chain).Observe(elapsed.Seconds())
	if !head.Healthy {
		m.healthy.WithLabelValues(head.Chain).Set(0)
		m.failures.WithLabelValues(head.Chain).Inc()
		return
	}
	m.healthy.WithLabelValues(head.Chain).Set(1)
	m.height.WithLabelValues(head.Chain).Set(float64(head.Height))
}
