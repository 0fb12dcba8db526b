package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"chain-gateway/internal/app"
	"chain-gateway/pkg/config"
	"chain-gateway/pkg/logger"
	"chain-gateway/pkg/tracing"
)

// worker 只做链头探测, 结果写入数据库供 API 节点读取
func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	logger.Init(cfg.App.Env)
	defer logger.Sync()

	logger.Info("Starting worker...")

	shutdownTracing := tracing.Init(cfg.Tracing)
	defer shutdownTracing()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	if !cfg.Database.Enabled {
		logger.Warnf("DB_ENABLED is false, chain heads are kept in memory only")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Monitor.Run(ctx, cfg.Monitor.Interval)
	}()

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()
	<-done
	logger.Info("Worker exited")
}
