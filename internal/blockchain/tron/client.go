package tron

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"chain-gateway/internal/blockchain"
	"chain-gateway/pkg/httpclient"
	"chain-gateway/pkg/logger"

	"github.com/ethereum/go-ethereum"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// NativeDenom 原生币以 SUN 计价
	NativeDenom = "TRX"

	// EnergyPriceSun 每单位能量的价格
	EnergyPriceSun = 280
	// DefaultTransferFeeSun 原生 TRX 转账的固定手续费估算
	DefaultTransferFeeSun = 100_000

	expirationWindow = time.Hour
)

// EVMCaller Tron 的 EVM 兼容 JSON-RPC, *ethclient.Client 满足该接口
type EVMCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Gateway Tron 网关
type Gateway struct {
	baseURL string
	http    *httpclient.Client
	evm     EVMCaller
	now     func() time.Time
	log     *zap.SugaredLogger
}

var _ blockchain.Gateway = (*Gateway)(nil)

// Option 网关选项
type Option func(*Gateway)

// WithEVMCaller TRC20 余额查询使用的 JSON-RPC 客户端
func WithEVMCaller(evm EVMCaller) Option {
	return func(g *Gateway) { g.evm = evm }
}

// WithClock 替换时钟
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// NewGateway 创建 Tron 网关
func NewGateway(baseURL string, client *httpclient.Client, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    client,
		now:     time.Now,
		log:     logger.Named("tron"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Chain 链标识
func (g *Gateway) Chain() blockchain.Chain { return blockchain.Tron }

// FetchBalances 原生 TRX 走 getaccount, TRC20 走 balanceOf 常量调用
func (g *Gateway) FetchBalances(ctx context.Context, address string, asset blockchain.Asset) ([]blockchain.Balance, error) {
	if asset.ContractAddress == "" || asset.Native {
		acc, err := g.fetchAccount(ctx, address)
		if err != nil {
			return nil, err
		}
		return []blockchain.Balance{{Denom: NativeDenom, Amount: strconv.FormatInt(acc.Balance, 10)}}, nil
	}

	amount, err := g.FetchTRC20Balance(ctx, address, asset.ContractAddress)
	if err != nil {
		return nil, err
	}
	return []blockchain.Balance{{Denom: asset.ContractAddress, Amount: amount}}, nil
}

// FetchTRC20Balance 通过 EVM 兼容接口调用 balanceOf(address)
func (g *Gateway) FetchTRC20Balance(ctx context.Context, address, contract string) (string, error) {
	const op = "fetch trc20 balance"

	owner, err := toEVMAddress(address)
	if err != nil {
		return "", err
	}
	token, err := toEVMAddress(contract)
	if err != nil {
		return "", err
	}
	if g.evm == nil {
		return "", &blockchain.UnsupportedChainError{Chain: blockchain.Tron.String(), Feature: "trc20 balance"}
	}

	out, err := g.evm.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: balanceOfCallData(owner),
	}, nil)
	if err != nil {
		return "", blockchain.NewNetworkError(op, err)
	}
	if len(out) == 0 {
		return "0", nil
	}
	if len(out) < wordSize {
		return "", blockchain.NewDecodeError(op, fmt.Errorf("short return data: %d bytes", len(out)))
	}
	return new(big.Int).SetBytes(out[:wordSize]).String(), nil
}

func (g *Gateway) fetchAccount(ctx context.Context, address string) (*accountResponse, error) {
	const op = "fetch account"

	if _, err := DecodeAddress(address); err != nil {
		return nil, err
	}
	var acc accountResponse
	if err := g.post(ctx, op, "/wallet/getaccount", accountRequest{Address: address, Visible: true}, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// FetchAccountInfo Tron 没有 account_number/sequence, 已激活账户返回零值, 未激活返回 nil
func (g *Gateway) FetchAccountInfo(ctx context.Context, address string) (*blockchain.AccountInfo, error) {
	acc, err := g.fetchAccount(ctx, address)
	if err != nil {
		return nil, err
	}
	if acc.Address == "" {
		return nil, nil
	}
	return &blockchain.AccountInfo{}, nil
}

// FetchStakedBalances 质押 2.0 下冻结的 TRX
func (g *Gateway) FetchStakedBalances(ctx context.Context, address string) (*StakedBalances, error) {
	acc, err := g.fetchAccount(ctx, address)
	if err != nil {
		return nil, err
	}

	out := &StakedBalances{}
	for _, f := range acc.FrozenV2 {
		switch f.Type {
		case "", ResourceBandwidth:
			out.Bandwidth += f.Amount
		case ResourceEnergy:
			out.Energy += f.Amount
		}
	}
	for _, u := range acc.UnfrozenV2 {
		out.Unfreezing += u.UnfreezeAmount
	}
	return out, nil
}

// FetchAccountResources 带宽/能量额度
func (g *Gateway) FetchAccountResources(ctx context.Context, address string) (*AccountResources, error) {
	if _, err := DecodeAddress(address); err != nil {
		return nil, err
	}
	var res AccountResources
	if err := g.post(ctx, "fetch account resources", "/wallet/getaccountresource", accountRequest{Address: address, Visible: true}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// FetchChainParameters 链参数
func (g *Gateway) FetchChainParameters(ctx context.Context) (*ChainParameters, error) {
	var body chainParametersResponse
	if err := g.getJSON(ctx, "fetch chain parameters", "/wallet/getchainparameters", &body); err != nil {
		return nil, err
	}

	params := &ChainParameters{values: make(map[string]int64, len(body.ChainParameter))}
	for _, p := range body.ChainParameter {
		if p.Value != nil {
			params.values[p.Key] = *p.Value
		}
	}
	return params, nil
}

// FetchBlockHeader 当前区块头, 过期时间为当前时间加一小时
func (g *Gateway) FetchBlockHeader(ctx context.Context) (*BlockHeader, error) {
	const op = "fetch now block"

	var body nowBlockResponse
	if err := g.getJSON(ctx, op, "/wallet/getnowblock", &body); err != nil {
		return nil, err
	}
	if body.BlockHeader == nil || body.BlockHeader.RawData == nil {
		return nil, blockchain.NewDecodeError(op, errors.New("missing block_header.raw_data"))
	}

	raw := body.BlockHeader.RawData
	now := g.now()
	return &BlockHeader{
		Timestamp:       uint64(now.UnixMilli()),
		Expiration:      uint64(now.Add(expirationWindow).UnixMilli()),
		Number:          raw.Number,
		Version:         raw.Version,
		TxTrieRoot:      raw.TxTrieRoot,
		ParentHash:      raw.ParentHash,
		WitnessAddress:  raw.WitnessAddress,
		HeaderTimestamp: raw.Timestamp,
	}, nil
}

// FetchLatestBlock 最新区块
func (g *Gateway) FetchLatestBlock(ctx context.Context) (*blockchain.BlockInfo, error) {
	header, err := g.FetchBlockHeader(ctx)
	if err != nil {
		return nil, err
	}
	return &blockchain.BlockInfo{Height: header.Number, TimestampMillis: header.HeaderTimestamp}, nil
}

// EstimateFee 原生转账用固定费用 (带备注时加备注费), TRC20 通过模拟执行估算能量
func (g *Gateway) EstimateFee(ctx context.Context, intent blockchain.TransactionIntent) (*blockchain.FeeEstimate, error) {
	if intent.Asset.ContractAddress == "" || intent.Asset.Native {
		fee := int64(DefaultTransferFeeSun)
		if intent.Memo != "" {
			params, err := g.FetchChainParameters(ctx)
			if err != nil {
				return nil, err
			}
			fee += params.MemoFee()
		}
		return &blockchain.FeeEstimate{Amount: strconv.FormatInt(fee, 10), Denom: NativeDenom}, nil
	}

	amount, err := parseAmount(intent.Amount)
	if err != nil {
		return nil, err
	}
	fee, err := g.EstimateTRC20Fee(ctx, intent.From, intent.Asset.ContractAddress, intent.To, amount)
	if err != nil {
		return nil, err
	}
	return &blockchain.FeeEstimate{Amount: strconv.FormatInt(fee, 10), Denom: NativeDenom}, nil
}

func parseAmount(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, &blockchain.InvalidAmountError{Amount: s, Reason: err.Error()}
	}
	if d.IsNegative() || !d.Equal(d.Truncate(0)) {
		return nil, &blockchain.InvalidAmountError{Amount: s, Reason: "must be a non-negative integer in the smallest unit"}
	}
	return d.BigInt(), nil
}

// EstimateTRC20Fee 模拟 transfer(address,uint256), 费用 = (energy_used + energy_penalty) * 280
func (g *Gateway) EstimateTRC20Fee(ctx context.Context, owner, contract, to string, amount *big.Int) (int64, error) {
	const op = "simulate trc20 transfer"

	if _, err := DecodeAddress(owner); err != nil {
		return 0, err
	}
	if _, err := DecodeAddress(contract); err != nil {
		return 0, err
	}
	parameter, err := EncodeTransferParameter(to, amount)
	if err != nil {
		return 0, err
	}

	var body triggerConstantResponse
	err = g.post(ctx, op, "/wallet/triggerconstantcontract", triggerConstantRequest{
		OwnerAddress:     owner,
		ContractAddress:  contract,
		FunctionSelector: transferSignature,
		Parameter:        parameter,
		Visible:          true,
	}, &body)
	if err != nil {
		return 0, err
	}
	if body.Result != nil && !body.Result.Result && body.Result.Message != "" {
		return 0, blockchain.NewDecodeError(op, errors.New(decodeMessage(body.Result.Message)))
	}

	return EnergyFee(body.EnergyUsed, body.EnergyPenalty), nil
}

// EnergyFee 能量消耗折算 SUN
func EnergyFee(energyUsed, energyPenalty int64) int64 {
	return (energyUsed + energyPenalty) * EnergyPriceSun
}

// BroadcastTransaction 广播已签名的交易 JSON. 只有 result 为 true 且带 txid 才算成功.
func (g *Gateway) BroadcastTransaction(ctx context.Context, signedPayload string) (*blockchain.BroadcastResult, error) {
	resp, err := g.http.Post(ctx, g.baseURL+"/wallet/broadcasttransaction", []byte(signedPayload))
	if err != nil {
		return nil, blockchain.NewNetworkError("broadcast", err)
	}
	if err := resp.Err(); err != nil {
		return nil, &blockchain.BroadcastError{Message: err.Error()}
	}

	var body broadcastResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, blockchain.NewDecodeError("broadcast", err)
	}
	if body.Result && body.TxID != "" {
		return &blockchain.BroadcastResult{TxHash: body.TxID}, nil
	}

	msg := decodeMessage(body.Message)
	if msg == "" {
		msg = "Unknown error"
	}
	g.log.Warnw("tron broadcast rejected", "code", body.Code, "message", msg)
	return nil, &blockchain.BroadcastError{Message: msg}
}

// decodeMessage Tron 的错误信息通常是 hex 编码的文本
func decodeMessage(msg string) string {
	if b, err := hex.DecodeString(msg); err == nil && len(b) > 0 && utf8.Valid(b) {
		return string(b)
	}
	return msg
}

func (g *Gateway) post(ctx context.Context, op, path string, req, out interface{}) error {
	resp, err := g.http.PostJSON(ctx, g.baseURL+path, req)
	if err != nil {
		return blockchain.NewNetworkError(op, err)
	}
	return decodeResponse(op, resp, out)
}

func (g *Gateway) getJSON(ctx context.Context, op, path string, out interface{}) error {
	resp, err := g.http.Get(ctx, g.baseURL+path)
	if err != nil {
		return blockchain.NewNetworkError(op, err)
	}
	return decodeResponse(op, resp, out)
}

func decodeResponse(op string, resp *httpclient.Response, out interface{}) error {
	if err := resp.Err(); err != nil {
		return blockchain.NewNetworkError(op, err)
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return blockchain.NewDecodeError(op, err)
	}
	return nil
}
