package tron

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"chain-gateway/internal/blockchain"
	"chain-gateway/pkg/config"
	"chain-gateway/pkg/httpclient"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usdtContract = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"

func testAddress(t *testing.T, fill byte) string {
	t.Helper()
	raw := make([]byte, rawAddressLen)
	raw[0] = addressPrefix
	for i := 1; i < len(raw); i++ {
		raw[i] = fill
	}
	addr, err := EncodeAddress(raw)
	require.NoError(t, err)
	return addr
}

func newTestGateway(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Gateway, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := httpclient.New(config.HTTPClientConfig{Timeout: 5 * time.Second})
	return NewGateway(srv.URL, client, opts...), &hits
}

type fakeEVM struct {
	out  []byte
	err  error
	msgs []ethereum.CallMsg
}

func (f *fakeEVM) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.msgs = append(f.msgs, msg)
	return f.out, f.err
}

func TestAddressCodec(t *testing.T) {
	raw, err := DecodeAddress(usdtContract)
	require.NoError(t, err)
	assert.Equal(t, "41a614f803b6fd780986a42c78ec9c7f77e6ded13c", hex.EncodeToString(raw))

	encoded, err := EncodeAddress(raw)
	require.NoError(t, err)
	assert.Equal(t, usdtContract, encoded)

	fromHex, err := DecodeAddress("41a614f803b6fd780986a42c78ec9c7f77e6ded13c")
	require.NoError(t, err)
	assert.Equal(t, raw, fromHex)

	for _, bad := range []string{"", "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6u", "T0OIl", "TR7NHqjeKQ"} {
		_, err := DecodeAddress(bad)
		assert.ErrorIs(t, err, blockchain.ErrInvalidAddress, bad)
		assert.False(t, ValidateAddress(bad), bad)
	}

	_, err = EncodeAddress([]byte{0x42, 0x01})
	assert.ErrorIs(t, err, blockchain.ErrInvalidAddress)
}

func TestSelector(t *testing.T) {
	assert.Equal(t, "a9059cbb", hex.EncodeToString(Selector(transferSignature)))
	assert.Equal(t, "70a08231", hex.EncodeToString(Selector(balanceOfSignature)))
}

func TestEncodeTransferParameter(t *testing.T) {
	param, err := EncodeTransferParameter(usdtContract, big.NewInt(1_000_000))
	require.NoError(t, err)

	assert.Len(t, param, 128)
	assert.Equal(t,
		"000000000000000000000000a614f803b6fd780986a42c78ec9c7f77e6ded13c"+
			"00000000000000000000000000000000000000000000000000000000000f4240",
		param)

	_, err = EncodeTransferParameter("nope", big.NewInt(1))
	assert.ErrorIs(t, err, blockchain.ErrInvalidAddress)
}

func TestEstimateTRC20Fee(t *testing.T) {
	owner := testAddress(t, 0x11)
	to := testAddress(t, 0x22)

	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wallet/triggerconstantcontract", r.URL.Path)
		var req triggerConstantRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, owner, req.OwnerAddress)
		assert.Equal(t, usdtContract, req.ContractAddress)
		assert.Equal(t, "transfer(address,uint256)", req.FunctionSelector)
		assert.True(t, req.Visible)
		assert.Len(t, req.Parameter, 128)
		_, _ = io.WriteString(w, `{"result":{"result":true},"energy_used":100,"energy_penalty":50,"constant_result":[""]}`)
	})

	fee, err := g.EstimateTRC20Fee(context.Background(), owner, usdtContract, to, big.NewInt(5))
	require.NoError(t, err)
	assert.EqualValues(t, 42000, fee)

	estimate, err := g.EstimateFee(context.Background(), blockchain.TransactionIntent{
		From:   owner,
		To:     to,
		Amount: "5",
		Asset:  blockchain.Asset{ContractAddress: usdtContract},
	})
	require.NoError(t, err)
	assert.Equal(t, &blockchain.FeeEstimate{Amount: "42000", Denom: NativeDenom}, estimate)
}

func TestEstimateFee_RejectsInvalidAmount(t *testing.T) {
	g, hits := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {})

	for _, amount := range []string{"1.5", "-3", "abc", ""} {
		_, err := g.EstimateFee(context.Background(), blockchain.TransactionIntent{
			From:   testAddress(t, 0x11),
			To:     testAddress(t, 0x22),
			Amount: amount,
			Asset:  blockchain.Asset{ContractAddress: usdtContract},
		})
		assert.ErrorIs(t, err, blockchain.ErrInvalidAmount, amount)
		var ae *blockchain.InvalidAmountError
		if assert.True(t, errors.As(err, &ae)) {
			assert.Equal(t, amount, ae.Amount)
		}
	}
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestEstimateFee_Native(t *testing.T) {
	g, hits := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wallet/getchainparameters", r.URL.Path)
		_, _ = io.WriteString(w, `{"chainParameter":[{"key":"getMemoFee","value":2000000},{"key":"getTransactionFee","value":1000}]}`)
	})
	ctx := context.Background()

	plain, err := g.EstimateFee(ctx, blockchain.TransactionIntent{Asset: blockchain.Asset{Native: true}})
	require.NoError(t, err)
	assert.Equal(t, "100000", plain.Amount)
	assert.Zero(t, atomic.LoadInt32(hits), "plain transfers use the fixed estimate")

	withMemo, err := g.EstimateFee(ctx, blockchain.TransactionIntent{Memo: "hello", Asset: blockchain.Asset{Native: true}})
	require.NoError(t, err)
	assert.Equal(t, "2100000", withMemo.Amount)
	assert.Equal(t, NativeDenom, withMemo.Denom)
}

func TestChainParameters_Defaults(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"chainParameter":[{"key":"getMemoFee"},{"key":"getCreateAccountFee","value":200000}]}`)
	})

	params, err := g.FetchChainParameters(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1000, params.BandwidthFeePrice())
	assert.EqualValues(t, 1_000_000, params.MemoFee())
	assert.EqualValues(t, 200_000, params.CreateAccountFee())
	assert.EqualValues(t, 1_000_000, params.CreateAccountFeeInContract())
}

func TestBroadcastTransaction(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		txHash  string
		message string
	}{
		{"accepted", http.StatusOK, `{"result":true,"txid":"abc123"}`, "abc123", ""},
		{"hex message", http.StatusOK, `{"code":"SIGERROR","message":"` + hex.EncodeToString([]byte("validate signature error")) + `"}`, "", "validate signature error"},
		{"plain message", http.StatusOK, `{"result":false,"message":"dup transaction"}`, "", "dup transaction"},
		{"result without txid", http.StatusOK, `{"result":true}`, "", "Unknown error"},
		{"http error", http.StatusBadGateway, `upstream down`, "", "Status code: 502, upstream down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/wallet/broadcasttransaction", r.URL.Path)
				body, _ := io.ReadAll(r.Body)
				assert.JSONEq(t, `{"txID":"abc123","raw_data":{}}`, string(body))
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			res, err := g.BroadcastTransaction(context.Background(), `{"txID":"abc123","raw_data":{}}`)
			if tt.txHash != "" {
				require.NoError(t, err)
				assert.Equal(t, tt.txHash, res.TxHash)
				return
			}
			var be *blockchain.BroadcastError
			require.True(t, errors.As(err, &be), "got %v", err)
			assert.Equal(t, tt.message, be.Message)
		})
	}
}

func TestFetchAccountInfo(t *testing.T) {
	addr := testAddress(t, 0x33)
	body := `{}`
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wallet/getaccount", r.URL.Path)
		_, _ = io.WriteString(w, body)
	})
	ctx := context.Background()

	info, err := g.FetchAccountInfo(ctx, addr)
	require.NoError(t, err)
	assert.Nil(t, info, "inactive accounts have no info")

	body = `{"address":"` + addr + `","balance":1500000}`
	info, err = g.FetchAccountInfo(ctx, addr)
	require.NoError(t, err)
	assert.Equal(t, &blockchain.AccountInfo{}, info)

	balances, err := g.FetchBalances(ctx, addr, blockchain.Asset{Native: true})
	require.NoError(t, err)
	assert.Equal(t, []blockchain.Balance{{Denom: "TRX", Amount: "1500000"}}, balances)

	_, err = g.FetchAccountInfo(ctx, "not-an-address")
	assert.ErrorIs(t, err, blockchain.ErrInvalidAddress)
}

func TestFetchStakedBalances(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{
			"address":"x",
			"frozenV2":[{"amount":10},{"type":"BANDWIDTH","amount":5},{"type":"ENERGY","amount":7},{"type":"TRON_POWER","amount":99}],
			"unfrozenV2":[{"unfreeze_amount":3,"unfreeze_expire_time":1},{"unfreeze_amount":4}]
		}`)
	})

	staked, err := g.FetchStakedBalances(context.Background(), testAddress(t, 0x44))
	require.NoError(t, err)
	assert.Equal(t, &StakedBalances{Bandwidth: 15, Energy: 7, Unfreezing: 7}, staked)
}

func TestFetchAccountResources(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wallet/getaccountresource", r.URL.Path)
		_, _ = io.WriteString(w, `{"freeNetUsed":100,"freeNetLimit":600,"NetUsed":10,"NetLimit":50,"EnergyUsed":20,"EnergyLimit":1000}`)
	})

	res, err := g.FetchAccountResources(context.Background(), testAddress(t, 0x55))
	require.NoError(t, err)
	assert.EqualValues(t, 540, res.AvailableBandwidth())
	assert.EqualValues(t, 980, res.AvailableEnergy())
}

func TestFetchBlockHeader(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wallet/getnowblock", r.URL.Path)
		_, _ = io.WriteString(w, `{"blockID":"00","block_header":{"raw_data":{"number":123,"txTrieRoot":"aa","witness_address":"41bb","parentHash":"cc","version":30,"timestamp":1699999999000}}}`)
	}, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	header, err := g.FetchBlockHeader(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 123, header.Number)
	assert.EqualValues(t, now.UnixMilli(), header.Timestamp)
	assert.EqualValues(t, now.Add(time.Hour).UnixMilli(), header.Expiration)
	assert.Equal(t, "cc", header.ParentHash)

	block, err := g.FetchLatestBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, &blockchain.BlockInfo{Height: 123, TimestampMillis: 1699999999000}, block)
}

func TestFetchBlockHeader_Malformed(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"blockID":"00"}`)
	})

	_, err := g.FetchBlockHeader(context.Background())
	var de *blockchain.DecodeError
	assert.True(t, errors.As(err, &de))
}

func TestReadCalls_NonSuccessStatus(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := g.FetchChainParameters(context.Background())
	var ne *blockchain.NetworkError
	require.True(t, errors.As(err, &ne))
	var se *httpclient.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
}

func TestFetchTRC20Balance(t *testing.T) {
	owner := testAddress(t, 0x66)
	evm := &fakeEVM{out: common.LeftPadBytes(big.NewInt(12345).Bytes(), 32)}
	g, hits := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {}, WithEVMCaller(evm))
	ctx := context.Background()

	balances, err := g.FetchBalances(ctx, owner, blockchain.Asset{ContractAddress: usdtContract})
	require.NoError(t, err)
	assert.Equal(t, []blockchain.Balance{{Denom: usdtContract, Amount: "12345"}}, balances)
	assert.Zero(t, atomic.LoadInt32(hits))

	require.Len(t, evm.msgs, 1)
	assert.Equal(t, common.HexToAddress("a614f803b6fd780986a42c78ec9c7f77e6ded13c"), *evm.msgs[0].To)
	assert.Equal(t, "70a08231", hex.EncodeToString(evm.msgs[0].Data[:4]))
	assert.Len(t, evm.msgs[0].Data, 36)

	evm.out = nil
	amount, err := g.FetchTRC20Balance(ctx, owner, usdtContract)
	require.NoError(t, err)
	assert.Equal(t, "0", amount)

	evm.err = errors.New("connection refused")
	_, err = g.FetchTRC20Balance(ctx, owner, usdtContract)
	var ne *blockchain.NetworkError
	assert.True(t, errors.As(err, &ne))
}

func TestFetchTRC20Balance_WithoutRPC(t *testing.T) {
	g, _ := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := g.FetchTRC20Balance(context.Background(), testAddress(t, 0x77), usdtContract)
	assert.ErrorIs(t, err, blockchain.ErrUnsupportedChain)
}
