package mayachain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"chain-gateway/internal/blockchain"
	"chain-gateway/internal/blockchain/cosmos"
)

// Gateway MayaChain 的链操作, 账户模型和广播沿用 Cosmos-SDK
type Gateway struct {
	client *Client
}

var _ blockchain.Gateway = (*Gateway)(nil)

// NewGateway 创建 MayaChain 网关
func NewGateway(client *Client) *Gateway {
	return &Gateway{client: client}
}

// Chain 链标识
func (g *Gateway) Chain() blockchain.Chain { return blockchain.MayaChain }

// FetchBalances bank 模块下的全部余额
func (g *Gateway) FetchBalances(ctx context.Context, address string, _ blockchain.Asset) ([]blockchain.Balance, error) {
	var body struct {
		Balances []blockchain.Balance `json:"balances"`
	}
	u := g.client.nodeURL + "/cosmos/bank/v1beta1/balances/" + url.PathEscape(address)
	if err := g.client.getJSON(ctx, "fetch balances", u, &body); err != nil {
		return nil, err
	}
	if body.Balances == nil {
		return []blockchain.Balance{}, nil
	}
	return body.Balances, nil
}

// FetchAccountInfo 读取 result.value, 404 或地址为空表示未上链
func (g *Gateway) FetchAccountInfo(ctx context.Context, address string) (*blockchain.AccountInfo, error) {
	const op = "fetch account"

	resp, err := g.client.http.Get(ctx, g.client.nodeURL+"/auth/accounts/"+url.PathEscape(address))
	if err != nil {
		return nil, blockchain.NewNetworkError(op, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err := resp.Err(); err != nil {
		return nil, blockchain.NewNetworkError(op, err)
	}

	var body accountResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, blockchain.NewDecodeError(op, err)
	}
	v := body.Result.Value
	if v.Address == "" {
		return nil, nil
	}
	return cosmos.ToAccountInfo(op, v.AccountNumber, v.Sequence)
}

// BroadcastTransaction 广播已签名的交易 JSON, code 0 和 19 视为成功
func (g *Gateway) BroadcastTransaction(ctx context.Context, signedPayload string) (*blockchain.BroadcastResult, error) {
	if signedPayload == "" {
		return nil, &blockchain.BroadcastError{Message: "empty transaction payload"}
	}
	resp, err := g.client.http.Post(ctx, g.client.nodeURL+"/cosmos/tx/v1beta1/txs", []byte(signedPayload))
	if err != nil {
		return nil, blockchain.NewNetworkError("broadcast", err)
	}
	return cosmos.InterpretBroadcast(g.client.log, resp)
}

// EstimateFee 链上配置的原生交易费
func (g *Gateway) EstimateFee(ctx context.Context, _ blockchain.TransactionIntent) (*blockchain.FeeEstimate, error) {
	fee, err := g.client.NativeTxFee(ctx)
	if err != nil {
		return nil, err
	}
	return &blockchain.FeeEstimate{Amount: strconv.FormatUint(fee, 10), Denom: NativeDenom}, nil
}

// FetchLatestBlock midgard 记录的最新 mayanode 区块, 不走缓存
func (g *Gateway) FetchLatestBlock(ctx context.Context) (*blockchain.BlockInfo, error) {
	health, err := g.client.FetchHealth(ctx)
	if err != nil {
		return nil, err
	}
	last := health.LastMayaNode
	return &blockchain.BlockInfo{Height: uint64(last.Height), TimestampMillis: uint64(last.Timestamp) * 1000}, nil
}
