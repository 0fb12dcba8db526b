package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"chain-gateway/internal/blockchain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func startTestServer(t *testing.T, sink *HealthSink) healthpb.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := newServer(lis, ServerConfig{JWTSecret: "secret"}, sink)
	go func() { _ = srv.Start() }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.DialContext(context.Background(), "bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func check(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err, service)
	return resp.Status
}

func TestHealth_ChainAndFamilyStatus(t *testing.T) {
	sink := NewHealthSink()
	client := startTestServer(t, sink)

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_UNKNOWN, check(t, client, "gaia"))

	sink.SetChainStatus(blockchain.Gaia, true)
	sink.SetChainStatus(blockchain.Osmosis, true)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, "gaia"))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, "cosmos"))

	sink.SetChainStatus(blockchain.Osmosis, false)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, "osmosis"))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, "cosmos"))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, "gaia"))

	sink.SetChainStatus(blockchain.Tron, true)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, "tron"))
}

func TestHealth_UnknownService(t *testing.T) {
	client := startTestServer(t, NewHealthSink())

	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "bitcoin"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestAuthInterceptor(t *testing.T) {
	SetJWTSecret("secret")
	info := &grpc.UnaryServerInfo{FullMethod: "/gateway.v1.Chain/Broadcast"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return SubjectFromContext(ctx)
	}

	_, err := AuthInterceptor(context.Background(), nil, info, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "signer-1"})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+signed))

	resp, err := AuthInterceptor(ctx, nil, info, handler)
	require.NoError(t, err)
	assert.Equal(t, "signer-1", resp)

	bad := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer nope"))
	_, err = AuthInterceptor(bad, nil, info, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	public := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}
	_, err = AuthInterceptor(context.Background(), nil, public, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})
	assert.NoError(t, err)
}

func TestRecoveryInterceptor(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/gateway.v1.Chain/Panic"}
	_, err := RecoveryInterceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		panic("boom")
	})
	assert.Equal(t, codes.Internal, status.Code(err))
}
