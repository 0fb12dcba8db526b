package routers

import (
	"net/http"
	"time"

	"chain-gateway/internal/blockchain/mayachain"
	"chain-gateway/internal/blockchain/tron"
	"chain-gateway/internal/gateway"
	"chain-gateway/internal/monitor"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services 服务集合
type Services struct {
	Gateways *gateway.Factory
	Tron     *tron.Gateway
	Maya     *mayachain.Service
	Monitor  *monitor.Service
}

// RouterConfig 路由配置
type RouterConfig struct {
	JWTSecret      string
	RateLimitRPS   float64
	RateLimitBurst int
}

// SetupRouter 设置路由
func SetupRouter(svc *Services, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(RecoveryMiddleware())
	router.Use(CORSMiddleware())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	apiV1 := router.Group("/api/v1")
	apiV1.Use(TracingMiddleware())
	apiV1.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	{
		chainHandler := NewChainHandler(svc.Gateways, svc.Monitor)
		chainHandler.Register(apiV1)

		if svc.Tron != nil {
			NewTronHandler(svc.Tron).Register(apiV1)
		}
		if svc.Maya != nil {
			NewMayaHandler(svc.Maya).Register(apiV1)
		}

		// Protected routes
		protected := apiV1.Group("")
		protected.Use(AuthMiddleware(cfg.JWTSecret))
		{
			chainHandler.RegisterBroadcast(protected)
		}
	}

	return router
}
