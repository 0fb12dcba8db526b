package cosmos

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"chain-gateway/internal/blockchain"
	"chain-gateway/pkg/httpclient"
	"chain-gateway/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	ibcPrefix          = "ibc/"
	ibcTimeoutDuration = 10 * time.Minute
	broadcastModeSync  = "BROADCAST_MODE_SYNC"

	// 已在 mempool 中, 交易已被链接收
	codeTxInMempoolCache = 19
	// gRPC Unimplemented
	codeNotImplemented = 12
)

// DenomTraceStore 已解析的 IBC 溯源持久化, 溯源结果不会变化
type DenomTraceStore interface {
	Get(ctx context.Context, chain blockchain.Chain, hash string) (*blockchain.IbcDenomTrace, error)
	Save(ctx context.Context, chain blockchain.Chain, hash string, trace blockchain.IbcDenomTrace) error
}

// Gateway Cosmos-SDK 链网关, 行为只由 EndpointSet 区分
type Gateway struct {
	endpoints EndpointSet
	http      *httpclient.Client
	store     DenomTraceStore
	now       func() time.Time
	log       *zap.SugaredLogger
}

var (
	_ blockchain.Gateway     = (*Gateway)(nil)
	_ blockchain.DenomTracer = (*Gateway)(nil)
)

// Option 网关选项
type Option func(*Gateway)

// WithDenomTraceStore 使用持久化的溯源存储
func WithDenomTraceStore(store DenomTraceStore) Option {
	return func(g *Gateway) { g.store = store }
}

// WithLogger 替换日志
func WithLogger(log *zap.SugaredLogger) Option {
	return func(g *Gateway) { g.log = log }
}

// WithClock 替换时钟
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// NewGateway 创建网关
func NewGateway(endpoints EndpointSet, client *httpclient.Client, opts ...Option) *Gateway {
	g := &Gateway{
		endpoints: endpoints,
		http:      client,
		now:       time.Now,
		log:       logger.Named("cosmos").With("chain", endpoints.Chain),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Chain 链标识
func (g *Gateway) Chain() blockchain.Chain { return g.endpoints.Chain }

// Endpoints 当前配置
func (g *Gateway) Endpoints() EndpointSet { return g.endpoints }

// IsBankDenom 判断资产是否走 bank 模块查询.
// 原生币, ibc/、factory/ 代币, 以及不含 terra 的 denom 都走 bank, 其余视为 CW20 合约.
func IsBankDenom(asset blockchain.Asset) bool {
	token := tokenID(asset)
	if asset.Native || token == "" {
		return true
	}
	return strings.Contains(token, "ibc/") ||
		strings.Contains(token, "factory/") ||
		!strings.Contains(token, "terra")
}

func tokenID(asset blockchain.Asset) string {
	if asset.ContractAddress != "" {
		return asset.ContractAddress
	}
	return asset.Denom
}

// FetchBalances 获取余额
func (g *Gateway) FetchBalances(ctx context.Context, address string, asset blockchain.Asset) ([]blockchain.Balance, error) {
	if IsBankDenom(asset) {
		return g.fetchBankBalances(ctx, address)
	}
	if !g.endpoints.SupportsWasm {
		return nil, &blockchain.UnsupportedChainError{Chain: g.endpoints.Chain.String(), Feature: "cw20 balance"}
	}

	contract := tokenID(asset)
	amount, err := g.fetchWasmBalance(ctx, address, contract)
	if err != nil {
		return nil, err
	}
	return []blockchain.Balance{{Denom: contract, Amount: amount}}, nil
}

func (g *Gateway) fetchBankBalances(ctx context.Context, address string) ([]blockchain.Balance, error) {
	const op = "fetch balances"

	resp, err := g.get(ctx, op, g.endpoints.BalancesURL(address))
	if err != nil {
		return nil, err
	}

	var body balancesResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, blockchain.NewDecodeError(op, err)
	}
	if body.Balances == nil {
		return nil, blockchain.NewDecodeError(op, errors.New("missing balances field"))
	}

	out := make([]blockchain.Balance, 0, len(body.Balances))
	for _, b := range body.Balances {
		out = append(out, blockchain.Balance{Denom: b.Denom, Amount: b.Amount})
	}
	return out, nil
}

// WasmBalanceQuery 构造 base64 编码的 CW20 余额查询
func WasmBalanceQuery(address string) string {
	payload, _ := json.Marshal(map[string]map[string]string{
		"balance": {"address": address},
	})
	return base64.StdEncoding.EncodeToString(payload)
}

func (g *Gateway) fetchWasmBalance(ctx context.Context, address, contract string) (string, error) {
	const op = "fetch wasm balance"

	resp, err := g.get(ctx, op, g.endpoints.WasmQueryURL(contract, WasmBalanceQuery(address)))
	if err != nil {
		return "", err
	}
	return parseWasmBalance(resp.Body)
}

// parseWasmBalance 缺失字段视为零余额, 无法解析的响应返回 DecodeError
func parseWasmBalance(data []byte) (string, error) {
	const op = "fetch wasm balance"

	var body wasmBalanceResponse
	if err := json.Unmarshal(data, &body); err != nil {
		return "", blockchain.NewDecodeError(op, err)
	}
	if body.Data == nil || len(body.Data.Balance) == 0 || string(body.Data.Balance) == "null" {
		return "0", nil
	}

	var raw string
	if err := json.Unmarshal(body.Data.Balance, &raw); err != nil {
		// some contracts return a bare number
		raw = string(body.Data.Balance)
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return "", blockchain.NewDecodeError(op, fmt.Errorf("balance %q is not numeric", raw))
	}
	return amount.String(), nil
}

// FetchAccountInfo 获取 account_number 和 sequence, 未上链账户返回 nil
func (g *Gateway) FetchAccountInfo(ctx context.Context, address string) (*blockchain.AccountInfo, error) {
	const op = "fetch account"

	resp, err := g.http.Get(ctx, g.endpoints.AccountURL(address))
	if err != nil {
		return nil, blockchain.NewNetworkError(op, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err := resp.Err(); err != nil {
		return nil, blockchain.NewNetworkError(op, err)
	}
	return parseAccount(resp.Body)
}

func parseAccount(data []byte) (*blockchain.AccountInfo, error) {
	const op = "fetch account"

	var body accountResponse
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, blockchain.NewDecodeError(op, err)
	}
	if body.Account == nil {
		return nil, nil
	}

	acc := &body.Account.baseAccount
	switch {
	case body.Account.BaseAccount != nil:
		acc = body.Account.BaseAccount
	case body.Account.BaseVestingAccount != nil && body.Account.BaseVestingAccount.BaseAccount != nil:
		acc = body.Account.BaseVestingAccount.BaseAccount
	}

	return ToAccountInfo(op, acc.AccountNumber, acc.Sequence)
}

// ToAccountInfo 解析字符串形式的账户号. sequence 缺省为 0, account_number 必须存在
func ToAccountInfo(op, accountNumber, sequence string) (*blockchain.AccountInfo, error) {
	num, err := strconv.ParseUint(accountNumber, 10, 64)
	if err != nil {
		return nil, blockchain.NewDecodeError(op, fmt.Errorf("account_number %q: %w", accountNumber, err))
	}
	if sequence == "" {
		sequence = "0"
	}
	seq, err := strconv.ParseUint(sequence, 10, 64)
	if err != nil {
		return nil, blockchain.NewDecodeError(op, fmt.Errorf("sequence %q: %w", sequence, err))
	}
	return &blockchain.AccountInfo{AccountNumber: num, Sequence: seq}, nil
}

// BroadcastTransaction 广播交易. signedPayload 可以是完整的广播 JSON, 也可以是 base64 的 tx_bytes.
func (g *Gateway) BroadcastTransaction(ctx context.Context, signedPayload string) (*blockchain.BroadcastResult, error) {
	body, err := broadcastBody(signedPayload)
	if err != nil {
		return nil, err
	}

	resp, err := g.http.Post(ctx, g.endpoints.BroadcastURL(), body)
	if err != nil {
		return nil, blockchain.NewNetworkError("broadcast", err)
	}
	return InterpretBroadcast(g.log, resp)
}

func broadcastBody(signedPayload string) ([]byte, error) {
	trimmed := strings.TrimSpace(signedPayload)
	if trimmed == "" {
		return nil, &blockchain.BroadcastError{Message: "empty transaction payload"}
	}
	if strings.HasPrefix(trimmed, "{") {
		return []byte(trimmed), nil
	}
	return json.Marshal(broadcastRequest{TxBytes: trimmed, Mode: broadcastModeSync})
}

// InterpretBroadcast 解释 Cosmos 广播响应: code 0 或 19 且带 txhash 为成功
func InterpretBroadcast(log *zap.SugaredLogger, resp *httpclient.Response) (*blockchain.BroadcastResult, error) {
	if err := resp.Err(); err != nil {
		return nil, &blockchain.BroadcastError{Message: err.Error()}
	}

	var body broadcastResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, blockchain.NewDecodeError("broadcast", err)
	}

	tx := body.TxResponse
	if tx != nil && tx.TxHash != "" {
		switch tx.Code {
		case 0:
			return &blockchain.BroadcastResult{TxHash: tx.TxHash}, nil
		case codeTxInMempoolCache:
			log.Warnw("transaction already in mempool, treating as accepted", "txhash", tx.TxHash)
			return &blockchain.BroadcastResult{TxHash: tx.TxHash}, nil
		}
	}
	return nil, &blockchain.BroadcastError{Message: string(resp.Body)}
}

// EstimateFee Cosmos 链使用固定手续费
func (g *Gateway) EstimateFee(_ context.Context, _ blockchain.TransactionIntent) (*blockchain.FeeEstimate, error) {
	return &blockchain.FeeEstimate{
		Amount:   strconv.FormatUint(g.endpoints.FeeAmount, 10),
		Denom:    g.endpoints.FeeDenom,
		GasLimit: g.endpoints.GasLimit,
	}, nil
}

// FetchIbcDenomTrace 解析 IBC 代币来源. 尽力而为: 任何失败都返回 nil.
func (g *Gateway) FetchIbcDenomTrace(ctx context.Context, hash string) *blockchain.IbcDenomTrace {
	hash = strings.TrimPrefix(hash, ibcPrefix)
	if hash == "" || !g.endpoints.SupportsDenomTrace {
		return nil
	}

	if g.store != nil {
		trace, err := g.store.Get(ctx, g.endpoints.Chain, hash)
		if err != nil {
			g.log.Warnw("denom trace store lookup failed", "hash", hash, "error", err)
		} else if trace != nil {
			return trace
		}
	}

	resp, err := g.http.Get(ctx, g.endpoints.DenomTraceURL(hash))
	if err != nil {
		g.log.Warnw("denom trace request failed", "hash", hash, "error", err)
		return nil
	}

	trace := g.interpretDenomTrace(hash, resp.Body)
	if trace != nil && g.store != nil {
		if err := g.store.Save(ctx, g.endpoints.Chain, hash, *trace); err != nil {
			g.log.Warnw("denom trace store save failed", "hash", hash, "error", err)
		}
	}
	return trace
}

const msgDenomTraceUnimplemented = "denom trace endpoint not implemented"

func (g *Gateway) interpretDenomTrace(hash string, data []byte) *blockchain.IbcDenomTrace {
	var body denomTraceResponse
	if err := json.Unmarshal(data, &body); err != nil {
		g.log.Warnw("denom trace decode failed", "hash", hash, "error", err)
		return nil
	}

	switch {
	case body.DenomTrace != nil:
		return &blockchain.IbcDenomTrace{Path: body.DenomTrace.Path, BaseDenom: body.DenomTrace.BaseDenom}
	case body.Code != nil && *body.Code == codeNotImplemented:
		g.log.Infow(msgDenomTraceUnimplemented, "hash", hash, "message", body.Message)
	case body.Error != nil:
		g.log.Infow(msgDenomTraceUnimplemented, "hash", hash, "message", *body.Error)
	default:
		g.log.Warnw("denom trace unexpected response", "hash", hash, "code", body.Code, "message", body.Message)
	}
	return nil
}

// FetchLatestBlock 获取最新区块高度与时间
func (g *Gateway) FetchLatestBlock(ctx context.Context) (*blockchain.BlockInfo, error) {
	const op = "fetch latest block"

	resp, err := g.get(ctx, op, g.endpoints.LatestBlockURL())
	if err != nil {
		return nil, err
	}

	var body latestBlockResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, blockchain.NewDecodeError(op, err)
	}

	var header *blockHeader
	switch {
	case body.SdkBlock != nil && body.SdkBlock.Header.Height != "":
		header = &body.SdkBlock.Header
	case body.Block != nil:
		header = &body.Block.Header
	default:
		return nil, blockchain.NewDecodeError(op, errors.New("missing block header"))
	}

	height, err := strconv.ParseUint(header.Height, 10, 64)
	if err != nil {
		return nil, blockchain.NewDecodeError(op, fmt.Errorf("height %q: %w", header.Height, err))
	}

	info := &blockchain.BlockInfo{Height: height}
	if header.Time != "" {
		ts, err := time.Parse(time.RFC3339Nano, header.Time)
		if err != nil {
			return nil, blockchain.NewDecodeError(op, fmt.Errorf("time %q: %w", header.Time, err))
		}
		info.TimestampMillis = uint64(ts.UnixMilli())
	}
	return info, nil
}

// IbcTimeout IBC 转账的超时信息
type IbcTimeout struct {
	Height       uint64 `json:"height"`
	TimeoutNanos uint64 `json:"timeout_nanos"`
}

// String 签名层使用的 "<height>_<nanos>" 形式
func (t IbcTimeout) String() string {
	return fmt.Sprintf("%d_%d", t.Height, t.TimeoutNanos)
}

// FetchIbcTimeout 最新高度加上十分钟后的纳秒时间戳
func (g *Gateway) FetchIbcTimeout(ctx context.Context) (*IbcTimeout, error) {
	block, err := g.FetchLatestBlock(ctx)
	if err != nil {
		return nil, err
	}
	return &IbcTimeout{
		Height:       block.Height,
		TimeoutNanos: uint64(g.now().Add(ibcTimeoutDuration).UnixNano()),
	}, nil
}

func (g *Gateway) get(ctx context.Context, op, url string) (*httpclient.Response, error) {
	resp, err := g.http.Get(ctx, url)
	if err != nil {
		return nil, blockchain.NewNetworkError(op, err)
	}
	if err := resp.Err(); err != nil {
		return nil, blockchain.NewNetworkError(op, err)
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, blockchain.NewDecodeError(op, errors.New("empty response body"))
	}
	return resp, nil
}
