package routers

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"chain-gateway/pkg/httputil"
	"chain-gateway/pkg/logger"
	"chain-gateway/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const requestIDHeader = "X-Request-ID"

// AuthMiddleware JWT认证中间件, 只接受 HMAC 签名
func AuthMiddleware(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			httputil.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		if sub, err := token.Claims.GetSubject(); err == nil && sub != "" {
			c.Set("subject", sub)
		}
		c.Next()
	}
}

// CORSMiddleware CORS中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// visitorIdleTTL 超过该时长没有请求的IP会被清理
const visitorIdleTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// visitorLimiters 每个IP一个令牌桶, 空闲的桶定期清理
type visitorLimiters struct {
	rps       rate.Limit
	burst     int
	idle      time.Duration
	now       func() time.Time
	visitors  *xsync.MapOf[string, *visitor]
	lastSweep atomic.Int64
}

func newVisitorLimiters(rps float64, burst int, idle time.Duration, now func() time.Time) *visitorLimiters {
	v := &visitorLimiters{
		rps:      rate.Limit(rps),
		burst:    burst,
		idle:     idle,
		now:      now,
		visitors: xsync.NewMapOf[*visitor](),
	}
	v.lastSweep.Store(now().UnixNano())
	return v
}

func (v *visitorLimiters) get(ip string) *rate.Limiter {
	now := v.now()
	v.sweep(now)
	vis, _ := v.visitors.LoadOrCompute(ip, func() *visitor {
		return &visitor{limiter: rate.NewLimiter(v.rps, v.burst)}
	})
	vis.lastSeen.Store(now.UnixNano())
	return vis.limiter
}

// sweep 每个 idle 周期最多执行一次
func (v *visitorLimiters) sweep(now time.Time) {
	last := v.lastSweep.Load()
	if now.UnixNano()-last < int64(v.idle) || !v.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	cutoff := now.Add(-v.idle).UnixNano()
	v.visitors.Range(func(ip string, vis *visitor) bool {
		if vis.lastSeen.Load() < cutoff {
			v.visitors.Delete(ip)
		}
		return true
	})
}

func (v *visitorLimiters) size() int { return v.visitors.Size() }

// RateLimitMiddleware 按客户端IP的令牌桶限流
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return rateLimit(newVisitorLimiters(rps, burst, visitorIdleTTL, time.Now))
}

func rateLimit(visitors *visitorLimiters) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !visitors.get(c.ClientIP()).Allow() {
			httputil.TooManyRequests(c, "too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequestIDMiddleware 透传或生成请求ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// TracingMiddleware 每个请求一个 span
func TracingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		ctx, span := tracing.Tracer().Start(c.Request.Context(), c.Request.Method+" "+route)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		if status >= 500 {
			span.SetStatus(codes.Error, strconv.Itoa(status))
		}
	}
}

// LoggerMiddleware 访问日志
func LoggerMiddleware() gin.HandlerFunc {
	log := logger.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []interface{}{
			"request_id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			log.Warnw(c.Errors.String(), fields...)
			return
		}
		log.Infow("request", fields...)
	}
}

// RecoveryMiddleware 恢复中间件
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.Recovery()
}
