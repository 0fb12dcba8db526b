package grpc

import (
	"net"
	"strconv"

	"chain-gateway/pkg/logger"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Server gRPC服务器
type Server struct {
	grpcServer *grpc.Server
	listener   net.Listener
	health     *HealthSink
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port      int
	JWTSecret string
}

// NewServer 创建gRPC服务器
func NewServer(cfg ServerConfig, health *HealthSink) (*Server, error) {
	lis, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.Port))
	if err != nil {
		return nil, err
	}
	return newServer(lis, cfg, health), nil
}

func newServer(lis net.Listener, cfg ServerConfig, health *HealthSink) *Server {
	SetJWTSecret(cfg.JWTSecret)

	// 创建gRPC服务器，添加拦截器
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor,
			LoggingInterceptor,
			AuthInterceptor,
		),
		grpc.ChainStreamInterceptor(
			StreamAuthInterceptor,
		),
	)

	healthpb.RegisterHealthServer(grpcServer, health.Server())

	// 注册反射服务，方便调试
	reflection.Register(grpcServer)

	return &Server{
		grpcServer: grpcServer,
		listener:   lis,
		health:     health,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	logger.Infof("gRPC server listening on %s", s.listener.Addr().String())
	return s.grpcServer.Serve(s.listener)
}

// Stop 停止服务器
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
