package grpc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chain-gateway/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey string

const subjectKey contextKey = "subject"

var jwtSecret []byte

// publicPrefixes 不需要认证的服务
var publicPrefixes = []string{
	"/grpc.health.v1.Health/",
	"/grpc.reflection.",
}

// SetJWTSecret 设置JWT密钥
func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

// SubjectFromContext 从上下文获取调用方
func SubjectFromContext(ctx context.Context) (string, error) {
	sub, ok := ctx.Value(subjectKey).(string)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "caller not authenticated")
	}
	return sub, nil
}

func isPublic(method string) bool {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(method, p) {
			return true
		}
	}
	return false
}

// authenticate 校验 metadata 中的 Bearer token, 返回带调用方的上下文
func authenticate(ctx context.Context) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing metadata")
	}

	authHeaders := md.Get("authorization")
	if len(authHeaders) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing authorization header")
	}

	tokenString, ok := strings.CutPrefix(authHeaders[0], "Bearer ")
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "invalid authorization header")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	if sub, err := token.Claims.GetSubject(); err == nil && sub != "" {
		ctx = context.WithValue(ctx, subjectKey, sub)
	}
	return ctx, nil
}

// AuthInterceptor 认证拦截器
func AuthInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if isPublic(info.FullMethod) {
		return handler(ctx, req)
	}
	ctx, err := authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

// LoggingInterceptor 日志拦截器
func LoggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	log := logger.Named("grpc")
	if err != nil {
		log.Warnw("call failed", "method", info.FullMethod, "code", status.Code(err).String(), "error", err, "latency", time.Since(start))
	} else {
		log.Debugw("call", "method", info.FullMethod, "latency", time.Since(start))
	}
	return resp, err
}

// RecoveryInterceptor 恢复拦截器
func RecoveryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("gRPC %s panic: %v", info.FullMethod, r)
			err = status.Errorf(codes.Internal, "panic: %v", r)
		}
	}()
	return handler(ctx, req)
}

// StreamAuthInterceptor 流式认证拦截器, health Watch 和反射不需要认证
func StreamAuthInterceptor(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	if isPublic(info.FullMethod) {
		return handler(srv, ss)
	}
	if _, err := authenticate(ss.Context()); err != nil {
		return err
	}
	return handler(srv, ss)
}
