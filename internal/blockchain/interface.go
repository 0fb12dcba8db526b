package blockchain

import "context"

// Gateway 区块链网关接口, 每个链族一个实现
type Gateway interface {
	// Chain 网关服务的链标识
	Chain() Chain

	// FetchBalances 获取地址余额, asset 决定查询路径
	FetchBalances(ctx context.Context, address string, asset Asset) ([]Balance, error)

	// FetchAccountInfo 获取签名所需的账户信息, 从未上链的地址返回 nil, nil
	FetchAccountInfo(ctx context.Context, address string) (*AccountInfo, error)

	// BroadcastTransaction 广播已签名交易
	BroadcastTransaction(ctx context.Context, signedPayload string) (*BroadcastResult, error)

	// EstimateFee 估算手续费, 单位为链的最小单位
	EstimateFee(ctx context.Context, intent TransactionIntent) (*FeeEstimate, error)

	// FetchLatestBlock 获取最新区块
	FetchLatestBlock(ctx context.Context) (*BlockInfo, error)
}

// DenomTracer IBC 代币溯源能力, Cosmos 链族实现
type DenomTracer interface {
	// FetchIbcDenomTrace 解析 ibc/<hash>, 无法解析时返回 nil 而不是错误
	FetchIbcDenomTrace(ctx context.Context, hash string) *IbcDenomTrace
}

// Balance 余额, 金额为十进制字符串
type Balance struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// Asset 待查询的资产
type Asset struct {
	Denom           string `json:"denom,omitempty"`
	ContractAddress string `json:"contract_address,omitempty"`
	Native          bool   `json:"native,omitempty"`
}

// AccountInfo 账户序号信息, 不缓存
type AccountInfo struct {
	AccountNumber uint64 `json:"account_number"`
	Sequence      uint64 `json:"sequence"`
}

// BlockInfo 区块信息
type BlockInfo struct {
	Height          uint64 `json:"height"`
	TimestampMillis uint64 `json:"timestamp_millis"`
}

// IbcDenomTrace IBC 代币来源
type IbcDenomTrace struct {
	Path      string `json:"path"`
	BaseDenom string `json:"base_denom"`
}

// BroadcastResult 广播结果
type BroadcastResult struct {
	TxHash string `json:"tx_hash"`
}

// TransactionIntent 待估算手续费的交易意图
type TransactionIntent struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Amount      string `json:"amount"`
	Asset       Asset  `json:"asset"`
	Memo        string `json:"memo,omitempty"`
	IBCTransfer bool   `json:"ibc_transfer,omitempty"`
}

// FeeEstimate 手续费估算
type FeeEstimate struct {
	Amount   string `json:"amount"`
	Denom    string `json:"denom"`
	GasLimit uint64 `json:"gas_limit,omitempty"`
}
