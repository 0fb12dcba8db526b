package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcserver "chain-gateway/api/grpc"
	"chain-gateway/api/routers"
	"chain-gateway/internal/app"
	"chain-gateway/pkg/config"
	"chain-gateway/pkg/logger"
	"chain-gateway/pkg/tracing"

	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	logger.Init(cfg.App.Env)
	defer logger.Sync()
	if cfg.App.LogLevel != "" {
		if err := logger.SetLevel(cfg.App.LogLevel); err != nil {
			logger.Warnf("Invalid LOG_LEVEL %q: %v", cfg.App.LogLevel, err)
		}
	}

	logger.Infof("Starting %s v%s", cfg.App.Name, cfg.App.Version)

	shutdownTracing := tracing.Init(cfg.Tracing)
	defer shutdownTracing()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 链健康状态同时暴露给 gRPC health
	health := grpcserver.NewHealthSink()

	a, err := app.New(ctx, cfg, app.WithStatusSink(health))
	if err != nil {
		logger.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	// 初始化Gin
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// HTTP服务器 (Gin)
	httpRouter := routers.SetupRouter(&routers.Services{
		Gateways: a.Gateways.Factory,
		Tron:     a.Gateways.Tron,
		Maya:     a.Gateways.Maya,
		Monitor:  a.Monitor,
	}, routers.RouterConfig{
		JWTSecret:      cfg.JWT.Secret,
		RateLimitRPS:   cfg.App.RateLimitRPS,
		RateLimitBurst: cfg.App.RateLimitBurst,
	})
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      httpRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// gRPC服务器
	grpcSrv, err := grpcserver.NewServer(grpcserver.ServerConfig{
		Port:      cfg.App.GRPCPort,
		JWTSecret: cfg.JWT.Secret,
	}, health)
	if err != nil {
		logger.Fatalf("Failed to create gRPC server: %v", err)
	}

	// 链头探测
	go a.Monitor.Run(ctx, cfg.Monitor.Interval)

	// 启动HTTP服务器
	go func() {
		logger.Infof("HTTP server (Gin) listening on port %d", cfg.App.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// 启动gRPC服务器
	go func() {
		if err := grpcSrv.Start(); err != nil {
			logger.Fatalf("Failed to start gRPC server: %v", err)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down servers...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// 关闭HTTP服务器
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP server forced to shutdown: %v", err)
	}

	// 关闭gRPC服务器
	grpcSrv.Stop()

	logger.Info("Servers exited")
}
