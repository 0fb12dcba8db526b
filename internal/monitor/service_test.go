package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"chain-gateway/internal/blockchain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stubGateway struct {
	blockchain.Gateway
	chain  blockchain.Chain
	height uint64
	err    error
	hang   bool
}

func (g *stubGateway) Chain() blockchain.Chain { return g.chain }

func (g *stubGateway) FetchLatestBlock(ctx context.Context) (*blockchain.BlockInfo, error) {
	if g.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if g.err != nil {
		return nil, g.err
	}
	return &blockchain.BlockInfo{Height: g.height, TimestampMillis: 1_700_000_000_000}, nil
}

type recordingSink struct {
	mu     sync.Mutex
	status map[blockchain.Chain]bool
}

func (s *recordingSink) SetChainStatus(chain blockchain.Chain, healthy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == nil {
		s.status = map[blockchain.Chain]bool{}
	}
	s.status[chain] = healthy
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&ChainHead{}))
	return db
}

func TestProbe_RecordsHeads(t *testing.T) {
	gaia := &stubGateway{chain: blockchain.Gaia, height: 100}
	tron := &stubGateway{chain: blockchain.Tron, err: errors.New("connection refused")}
	reg := prometheus.NewRegistry()
	sink := &recordingSink{}
	svc := NewService([]blockchain.Gateway{gaia, tron}, NewRepository(newTestDB(t)),
		WithMetrics(NewMetrics(reg)), WithStatusSink(sink), WithTimeout(time.Second))
	ctx := context.Background()

	heads := svc.Probe(ctx)
	require.Len(t, heads, 2)
	assert.True(t, heads[0].Healthy)
	assert.EqualValues(t, 100, heads[0].Height)
	assert.False(t, heads[1].Healthy)
	assert.Equal(t, "connection refused", heads[1].Error)

	assert.Equal(t, map[blockchain.Chain]bool{blockchain.Gaia: true, blockchain.Tron: false}, sink.status)
	assert.Equal(t, 100.0, testutil.ToFloat64(svc.metrics.height.WithLabelValues("gaia")))
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.failures.WithLabelValues("tron")))

	stored, err := svc.Heads(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "gaia", stored[0].Chain)
	assert.Equal(t, "tron", stored[1].Chain)
}

func TestRepository_FailureKeepsLastHeight(t *testing.T) {
	for name, repo := range map[string]Repository{
		"gorm":   NewRepository(newTestDB(t)),
		"memory": NewMemoryRepository(),
	} {
		ctx := context.Background()
		require.NoError(t, repo.SaveHead(ctx, &ChainHead{Chain: "osmosis", Height: 10, Healthy: true, ObservedAt: time.Now()}), name)
		require.NoError(t, repo.SaveHead(ctx, &ChainHead{Chain: "osmosis", Height: 12, Healthy: true, ObservedAt: time.Now()}), name)
		require.NoError(t, repo.SaveHead(ctx, &ChainHead{Chain: "osmosis", Error: "timeout", ObservedAt: time.Now()}), name)

		head, err := repo.GetHead(ctx, "osmosis")
		require.NoError(t, err, name)
		assert.EqualValues(t, 12, head.Height, name)
		assert.False(t, head.Healthy, name)
		assert.Equal(t, "timeout", head.Error, name)

		missing, err := repo.GetHead(ctx, "noble")
		require.NoError(t, err, name)
		assert.Nil(t, missing, name)
	}
}

func TestProbe_TimeoutStoresUnhealthyHead(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	healthy := NewService([]blockchain.Gateway{&stubGateway{chain: blockchain.Gaia, height: 10}}, repo)
	healthy.Probe(ctx)

	hanging := NewService([]blockchain.Gateway{&stubGateway{chain: blockchain.Gaia, hang: true}}, repo,
		WithTimeout(50*time.Millisecond))
	heads := hanging.Probe(ctx)
	require.Len(t, heads, 1)
	assert.False(t, heads[0].Healthy)
	assert.Contains(t, heads[0].Error, context.DeadlineExceeded.Error())

	stored, err := repo.GetHead(ctx, "gaia")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.False(t, stored.Healthy, "a timed-out probe must overwrite the healthy row")
	assert.Contains(t, stored.Error, context.DeadlineExceeded.Error())
	assert.EqualValues(t, 10, stored.Height)
}

func TestRun_StopsOnCancel(t *testing.T) {
	gaia := &stubGateway{chain: blockchain.Gaia, height: 1}
	repo := NewMemoryRepository()
	svc := NewService([]blockchain.Gateway{gaia}, repo)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		head, _ := repo.GetHead(context.Background(), "gaia")
		return head != nil
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
