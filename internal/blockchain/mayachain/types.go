package mayachain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Network midgard /v2/network 中用到的字段
type Network struct {
	BondingAPY      string `json:"bondingAPY"`
	LiquidityAPY    string `json:"liquidityAPY"`
	NextChurnHeight string `json:"nextChurnHeight"`
}

// Health midgard /v2/health
type Health struct {
	Database      bool     `json:"database"`
	InSync        bool     `json:"inSync"`
	LastMayaNode  HeightTS `json:"lastMayaNode"`
	LastFetched   HeightTS `json:"lastFetched"`
	LastCommitted HeightTS `json:"lastCommitted"`
}

// HeightTS 高度和秒级时间戳
type HeightTS struct {
	Height    int64 `json:"height"`
	Timestamp int64 `json:"timestamp"`
}

// Pool mayanode /mayachain/pools
type Pool struct {
	Asset        string `json:"asset"`
	Status       string `json:"status"`
	BalanceAsset string `json:"balance_asset"`
	BalanceCacao string `json:"balance_cacao"`
	LPUnits      string `json:"LP_units"`
	PoolUnits    string `json:"pool_units"`
	Bondable     bool   `json:"bondable"`
}

// PoolStats midgard /v2/pools
type PoolStats struct {
	Asset                          string `json:"asset"`
	AssetDepth                     string `json:"assetDepth"`
	RuneDepth                      string `json:"runeDepth"`
	LiquidityUnits                 string `json:"liquidityUnits"`
	AnnualPercentageRate           string `json:"annualPercentageRate"`
	PoolAPY                        string `json:"poolAPY"`
	AssetPrice                     string `json:"assetPrice"`
	AssetPriceUSD                  string `json:"assetPriceUSD"`
	Status                         string `json:"status"`
	SynthUnits                     string `json:"synthUnits"`
	SynthSupply                    string `json:"synthSupply"`
	EarningsAnnualAsPercentOfDepth string `json:"earningsAnnualAsPercentOfDepth"`
	LpLuvi                         string `json:"lpLuvi"`
	SaversAPR                      string `json:"saversAPR"`
	Units                          string `json:"units"`
}

// IsAvailable 池子是否处于 available 状态
func (p PoolStats) IsAvailable() bool {
	return p.Status == "available"
}

// Node mayanode 节点
type Node struct {
	NodeAddress   string        `json:"node_address"`
	Status        string        `json:"status"`
	Bond          string        `json:"bond"`
	CurrentAward  string        `json:"current_award"`
	BondProviders BondProviders `json:"bond_providers"`
}

// BondProviders 节点的质押提供者, node_operator_fee 单位为基点
type BondProviders struct {
	NodeOperatorFee string         `json:"node_operator_fee"`
	Providers       []BondProvider `json:"providers"`
}

// BondProvider 单个质押提供者
type BondProvider struct {
	BondAddress string `json:"bond_address"`
	Bond        string `json:"bond"`
}

// MemberDetails midgard /v2/member/{address}
type MemberDetails struct {
	Pools []MemberPool `json:"pools"`
}

// MemberPool 地址在某个池子的流动性
type MemberPool struct {
	Pool           string `json:"pool"`
	RuneAdded      string `json:"runeAdded"`
	AssetAdded     string `json:"assetAdded"`
	RunePending    string `json:"runePending"`
	AssetPending   string `json:"assetPending"`
	LiquidityUnits string `json:"liquidityUnits"`
	DateFirstAdded string `json:"dateFirstAdded"`
	DateLastAdded  string `json:"dateLastAdded"`
}

// CacaoPoolMember midgard /v2/cacaopool/{address}
type CacaoPoolMember struct {
	CacaoAddress      string `json:"cacaoAddress"`
	CacaoDeposit      string `json:"cacaoDeposit"`
	CacaoWithdrawn    string `json:"cacaoWithdrawn"`
	LiquidityUnits    string `json:"liquidityUnits"`
	LastDepositHeight string `json:"lastDepositHeight"`
}

// CacaoPoolHistory midgard /v2/history/cacaopool
type CacaoPoolHistory struct {
	Intervals []CacaoPoolInterval `json:"intervals"`
}

// CacaoPoolInterval 单个统计区间
type CacaoPoolInterval struct {
	StartTime      string `json:"startTime"`
	EndTime        string `json:"endTime"`
	CacaoDepth     string `json:"cacaoDepth"`
	CacaoPoolUnits string `json:"cacaoPoolUnits"`
}

// BondMetrics 某地址在某节点的质押收益
type BondMetrics struct {
	MyBond     decimal.Decimal `json:"my_bond"`
	MyAward    decimal.Decimal `json:"my_award"`
	APR        float64         `json:"apr"`
	NodeStatus string          `json:"node_status"`
}

// BondedNode 地址质押过的节点
type BondedNode struct {
	Status  string          `json:"status"`
	Address string          `json:"address"`
	Bond    decimal.Decimal `json:"bond"`
}

// BondedNodes 地址的全部质押
type BondedNodes struct {
	TotalBonded decimal.Decimal `json:"total_bonded"`
	Nodes       []BondedNode    `json:"nodes"`
}

// NetworkBondInfo 全网质押年化和下次轮换时间
type NetworkBondInfo struct {
	APR           float64    `json:"apr"`
	NextChurnDate *time.Time `json:"next_churn_date,omitempty"`
}

// 质押资格不通过的原因
const (
	ReasonNotWhitelisted = "not whitelisted"
	ReasonNodeAtCapacity = "node at capacity"
)

// Eligibility 质押资格检查结果
type Eligibility struct {
	Eligible      bool   `json:"eligible"`
	Reason        string `json:"reason,omitempty"`
	ProviderCount int    `json:"provider_count"`
	MaxProviders  int    `json:"max_providers"`
}

// LiquidityPosition 某地址在某池子的 LP 仓位
type LiquidityPosition struct {
	RuneRedeemValue  string    `json:"rune_redeem_value"`
	AssetRedeemValue string    `json:"asset_redeem_value"`
	PoolStats        PoolStats `json:"pool_stats"`
}

// CacaoPoolPosition CACAO 池仓位, 金额单位为 CACAO
type CacaoPoolPosition struct {
	Address      string          `json:"address"`
	StakedAmount decimal.Decimal `json:"staked_amount"`
	UserUnits    decimal.Decimal `json:"user_units"`
	NetDeposit   decimal.Decimal `json:"net_deposit"`
	PnL          decimal.Decimal `json:"pnl"`
}

// UnstakeMaturity CACAO 池存款的锁定期
type UnstakeMaturity struct {
	Mature          bool  `json:"mature"`
	MaturityHeight  int64 `json:"maturity_height"`
	CurrentHeight   int64 `json:"current_height"`
	RemainingBlocks int64 `json:"remaining_blocks"`
}

type nodeNetworkResponse struct {
	NativeTxFeeCacao string `json:"native_tx_fee_cacao"`
}

type accountResponse struct {
	Result struct {
		Value struct {
			Address       string `json:"address"`
			AccountNumber string `json:"account_number"`
			Sequence      string `json:"sequence"`
		} `json:"value"`
	} `json:"result"`
}
