package grpc

import (
	"sync"

	"chain-gateway/internal/blockchain"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthSink 把链探测结果写入 gRPC health 服务.
// 服务名为链标识和链族, 链族下任一条链不健康即为 NOT_SERVING.
type HealthSink struct {
	server *health.Server

	mu     sync.Mutex
	chains map[blockchain.Chain]bool
}

// NewHealthSink 创建健康状态接收方, 所有链初始为 UNKNOWN
func NewHealthSink() *HealthSink {
	s := &HealthSink{
		server: health.NewServer(),
		chains: make(map[blockchain.Chain]bool),
	}
	for _, c := range blockchain.Chains() {
		s.server.SetServingStatus(c.String(), healthpb.HealthCheckResponse_UNKNOWN)
	}
	return s
}

// Server 底层 health 服务
func (s *HealthSink) Server() *health.Server { return s.server }

// SetChainStatus 更新链和所属链族的状态
func (s *HealthSink) SetChainStatus(chain blockchain.Chain, healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chains[chain] = healthy
	s.server.SetServingStatus(chain.String(), servingStatus(healthy))

	family, ok := chain.Family()
	if !ok {
		return
	}
	familyHealthy := true
	for c, h := range s.chains {
		if f, _ := c.Family(); f == family && !h {
			familyHealthy = false
			break
		}
	}
	s.server.SetServingStatus(string(family), servingStatus(familyHealthy))
}

// Shutdown 所有服务置为 NOT_SERVING
func (s *HealthSink) Shutdown() {
	s.server.Shutdown()
}

func servingStatus(healthy bool) healthpb.HealthCheckResponse_ServingStatus {
	if healthy {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}
