package mayachain

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"chain-gateway/internal/blockchain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quoteServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/mayachain/quote/swap", r.URL.Path)
		assert.Equal(t, "vultisig", r.Header.Get("X-Client-ID"))
		q := r.URL.Query()
		assert.Equal(t, "MAYA.CACAO", q.Get("from_asset"))
		assert.Equal(t, "BTC.BTC", q.Get("to_asset"))
		assert.Equal(t, "10000000000", q.Get("amount"))
		assert.Equal(t, "bc1qdest", q.Get("destination"))
		assert.Equal(t, "1", q.Get("streaming_interval"))
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

var testQuoteRequest = SwapQuoteRequest{
	FromAsset:         "MAYA.CACAO",
	ToAsset:           "BTC.BTC",
	Amount:            "10000000000",
	Destination:       "bc1qdest",
	StreamingInterval: 1,
}

func TestClient_SwapQuote(t *testing.T) {
	srv := quoteServer(t, http.StatusOK, `{
		"inbound_address":"maya1inbound",
		"expected_amount_out":"12345",
		"fees":{"asset":"BTC.BTC","outbound":"100","total":"150","total_bps":12},
		"memo":"=:BTC.BTC:bc1qdest",
		"expiry":1700000900,
		"recommended_min_amount_in":"500000000"
	}`)
	c := newTestClient(t, srv)

	quote, err := c.SwapQuote(context.Background(), testQuoteRequest)
	require.NoError(t, err)
	assert.Equal(t, "12345", quote.ExpectedAmountOut)
	assert.Equal(t, "=:BTC.BTC:bc1qdest", quote.Memo)
	assert.Equal(t, "150", quote.Fees.Total)
	assert.Equal(t, 12, quote.Fees.TotalBps)
}

func TestClient_SwapQuoteErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		code     int
		sentinel error
	}{
		{"amount too small", http.StatusBadRequest, `{"code":3,"message":"not enough asset to pay for fees","details":[]}`, 3, ErrSwapAmountTooSmall},
		{"unknown pool", http.StatusBadRequest, `{"code":3,"message":"failed to simulate swap: bad to asset: BTC.XYZ"}`, 3, ErrNoLiquidityPool},
		{"error field only", http.StatusInternalServerError, `{"error":"Invalid symbol"}`, 0, ErrNoLiquidityPool},
		{"ok status carrying error", http.StatusOK, `{"error":"trading is halted"}`, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, quoteServer(t, tt.status, tt.body))

			_, err := c.SwapQuote(context.Background(), testQuoteRequest)
			var swapErr *SwapError
			require.True(t, errors.As(err, &swapErr), "got %v", err)
			assert.Equal(t, tt.code, swapErr.Code)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			} else {
				assert.NotErrorIs(t, err, ErrSwapAmountTooSmall)
				assert.NotErrorIs(t, err, ErrNoLiquidityPool)
			}
		})
	}
}

func TestClient_SwapQuoteUpstreamDown(t *testing.T) {
	c := newTestClient(t, quoteServer(t, http.StatusBadGateway, `<html>bad gateway</html>`))

	_, err := c.SwapQuote(context.Background(), testQuoteRequest)
	var ne *blockchain.NetworkError
	assert.True(t, errors.As(err, &ne))
}

func TestService_DepositAssets(t *testing.T) {
	up, srv := newUpstream(t, map[string]string{
		"/mayachain/pools": `[
			{"asset":"BTC.BTC","status":"Available","bondable":true},
			{"asset":"ETH.ETH","status":"Available","bondable":false},
			{"asset":"KUJI.KUJI","status":"Staged","bondable":true}
		]`,
	})
	svc := NewService(newTestClient(t, srv))
	ctx := context.Background()

	assets, err := svc.DepositAssets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC.BTC", "KUJI.KUJI"}, assets)

	_, err = svc.DepositAssets(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, up.count("/mayachain/pools"), "pools are served from cache")
}
