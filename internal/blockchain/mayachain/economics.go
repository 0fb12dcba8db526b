package mayachain

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// AverageBlockTime 出块间隔
	AverageBlockTime = 5 * time.Second
	// MaxBondProviders 单个节点的质押提供者上限
	MaxBondProviders = 8
	// Decimals CACAO 和池子数值的精度
	Decimals = 10
	// DefaultNativeTxFee 节点未返回 native_tx_fee_cacao 时的手续费
	DefaultNativeTxFee = 5_000_000_000
	// NativeDenom 手续费币种
	NativeDenom = "cacao"

	mimirCacaoPoolMaturity = "CACAOPOOLDEPOSITMATURITYBLOCKS"
	basisPoints            = 10_000
)

var (
	baseUnit      = decimal.New(1, Decimals)
	stakeGasFee   = decimal.New(1, -1)
	minStake      = decimal.NewFromInt(1)
	basisPointDiv = decimal.NewFromInt(basisPoints)
)

// parseDecimal 无法解析时按 0 处理
func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// Ownership myBond 占 totalBond 的比例, totalBond 为 0 时返回 0
func Ownership(myBond, totalBond decimal.Decimal) decimal.Decimal {
	if !totalBond.IsPositive() {
		return decimal.Zero
	}
	return myBond.Div(totalBond)
}

// ComputeBondMetrics 按节点的质押提供者计算地址的质押额和扣除运营费后的奖励
func ComputeBondMetrics(node *Node, bondAddress string, apr float64) BondMetrics {
	var myBond, totalBond decimal.Decimal
	for _, p := range node.BondProviders.Providers {
		bond := parseDecimal(p.Bond)
		if p.BondAddress == bondAddress {
			myBond = bond
		}
		totalBond = totalBond.Add(bond)
	}

	operatorFee := parseDecimal(node.BondProviders.NodeOperatorFee).Div(basisPointDiv)
	currentAward := parseDecimal(node.CurrentAward).Mul(decimal.NewFromInt(1).Sub(operatorFee))

	return BondMetrics{
		MyBond:     myBond,
		MyAward:    Ownership(myBond, totalBond).Mul(currentAward),
		APR:        apr,
		NodeStatus: node.Status,
	}
}

// ChurnETA 按剩余区块数估算下次轮换时间, 高度未知或已过返回 nil
func ChurnETA(nextChurnHeight string, current HeightTS) *time.Time {
	next, err := strconv.ParseInt(strings.TrimSpace(nextChurnHeight), 10, 64)
	if err != nil || next <= current.Height {
		return nil
	}
	remaining := next - current.Height
	eta := time.Unix(current.Timestamp, 0).Add(time.Duration(remaining) * AverageBlockTime)
	return &eta
}

// CheckEligibility 依次检查白名单和容量, 第一个不满足的条件即为原因
func CheckEligibility(node *Node, bondAddress string) Eligibility {
	providers := node.BondProviders.Providers
	out := Eligibility{ProviderCount: len(providers), MaxProviders: MaxBondProviders}

	whitelisted := false
	for _, p := range providers {
		if p.BondAddress == bondAddress {
			whitelisted = true
			break
		}
	}
	switch {
	case !whitelisted:
		out.Reason = ReasonNotWhitelisted
	case len(providers) >= MaxBondProviders:
		out.Reason = ReasonNodeAtCapacity
	default:
		out.Eligible = true
	}
	return out
}

// LPUnitsValue (lpUnits / totalUnits) * depth, 换算成 CACAO. totalUnits 为 0 时返回 0.
func LPUnitsValue(lpUnits, totalUnits, depth decimal.Decimal) decimal.Decimal {
	if !totalUnits.IsPositive() {
		return decimal.Zero
	}
	return lpUnits.Mul(depth).Div(totalUnits).Div(baseUnit)
}

// APRFromAPY 日复利 APY 转 APR
func APRFromAPY(apy float64) float64 {
	return (math.Pow(1+apy, 1.0/365) - 1) * 365
}

// APYFromAPR 日复利 APR 转 APY
func APYFromAPR(apr float64) float64 {
	return math.Pow(1+apr/365, 365) - 1
}

// StakeableAmount 余额扣除 0.1 CACAO 手续费预留, 不足 1 CACAO 时返回 0
func StakeableAmount(balance decimal.Decimal) decimal.Decimal {
	stakeable := decimal.Max(decimal.Zero, balance.Sub(stakeGasFee))
	if stakeable.LessThan(minStake) {
		return decimal.Zero
	}
	return stakeable
}

// CacaoPoolAPR 用最新和最早区间的单位净值变化年化. 区间少于两个或份额为 0 时返回 0.
func CacaoPoolAPR(intervals []CacaoPoolInterval) (apr, apy float64) {
	if len(intervals) < 2 {
		return 0, 0
	}

	sorted := make([]CacaoPoolInterval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		return parseDecimal(sorted[i].StartTime).GreaterThan(parseDecimal(sorted[j].StartTime))
	})

	v1, ok := unitValue(sorted[0])
	if !ok {
		return 0, 0
	}
	v0, ok := unitValue(sorted[len(sorted)-1])
	if !ok || !v0.IsPositive() {
		return 0, 0
	}

	roi, _ := v1.Div(v0).Sub(decimal.NewFromInt(1)).Float64()
	apr = roi * (365 / float64(len(intervals)))
	return apr, APYFromAPR(apr)
}

func unitValue(iv CacaoPoolInterval) (decimal.Decimal, bool) {
	depth, err := decimal.NewFromString(iv.CacaoDepth)
	if err != nil {
		return decimal.Zero, false
	}
	units, err := decimal.NewFromString(iv.CacaoPoolUnits)
	if err != nil || !units.IsPositive() {
		return decimal.Zero, false
	}
	return depth.Div(units), true
}

// ComputeCacaoPoolPosition 按地址份额计算当前价值和盈亏, 结果以 CACAO 计
func ComputeCacaoPoolPosition(member *CacaoPoolMember, latest CacaoPoolInterval) CacaoPoolPosition {
	userUnits := parseDecimal(member.LiquidityUnits)
	netDeposit := parseDecimal(member.CacaoDeposit).Sub(parseDecimal(member.CacaoWithdrawn)).Div(baseUnit)

	poolUnits := parseDecimal(latest.CacaoPoolUnits)
	poolDepth := parseDecimal(latest.CacaoDepth).Div(baseUnit)

	share := decimal.Zero
	if poolUnits.IsPositive() {
		share = userUnits.Div(poolUnits)
	}
	current := poolDepth.Mul(share)

	return CacaoPoolPosition{
		Address:      member.CacaoAddress,
		StakedAmount: current,
		UserUnits:    userUnits,
		NetDeposit:   netDeposit,
		PnL:          current.Sub(netDeposit),
	}
}

// ComputeUnstakeMaturity 最后一次存入后需等待 maturityBlocks 个区块才能取出
func ComputeUnstakeMaturity(lastDepositHeight, maturityBlocks, currentHeight int64) UnstakeMaturity {
	maturity := lastDepositHeight + maturityBlocks
	remaining := maturity - currentHeight
	if remaining < 0 {
		remaining = 0
	}
	return UnstakeMaturity{
		Mature:          remaining == 0,
		MaturityHeight:  maturity,
		CurrentHeight:   currentHeight,
		RemainingBlocks: remaining,
	}
}
