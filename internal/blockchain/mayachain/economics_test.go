package mayachain

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func providers(addrs ...string) []BondProvider {
	out := make([]BondProvider, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, BondProvider{BondAddress: a, Bond: "100"})
	}
	return out
}

func TestComputeBondMetrics(t *testing.T) {
	node := &Node{
		Status:       "Active",
		CurrentAward: "1000",
		BondProviders: BondProviders{
			NodeOperatorFee: "2000",
			Providers: []BondProvider{
				{BondAddress: "maya1me", Bond: "300"},
				{BondAddress: "maya1other", Bond: "700"},
			},
		},
	}

	m := ComputeBondMetrics(node, "maya1me", 0.12)
	assert.True(t, decimal.NewFromInt(300).Equal(m.MyBond))
	// 1000 * (1 - 0.2) * 0.3
	assert.True(t, decimal.NewFromInt(240).Equal(m.MyAward), m.MyAward.String())
	assert.Equal(t, 0.12, m.APR)
	assert.Equal(t, "Active", m.NodeStatus)

	absent := ComputeBondMetrics(node, "maya1nobody", 0)
	assert.True(t, absent.MyBond.IsZero())
	assert.True(t, absent.MyAward.IsZero())
}

func TestComputeBondMetrics_ZeroTotalBond(t *testing.T) {
	node := &Node{
		CurrentAward: "1000",
		BondProviders: BondProviders{
			NodeOperatorFee: "500",
			Providers:       []BondProvider{{BondAddress: "maya1me", Bond: "0"}},
		},
	}

	assert.NotPanics(t, func() {
		m := ComputeBondMetrics(node, "maya1me", 0)
		assert.True(t, m.MyAward.IsZero())
	})
	assert.True(t, Ownership(decimal.Zero, decimal.Zero).IsZero())
	assert.True(t, Ownership(decimal.NewFromInt(5), decimal.Zero).IsZero())
}

func TestChurnETA(t *testing.T) {
	current := HeightTS{Height: 1000, Timestamp: 1_700_000_000}

	eta := ChurnETA("1100", current)
	require.NotNil(t, eta)
	assert.Equal(t, time.Unix(1_700_000_000, 0).Add(500*time.Second), *eta)

	assert.Nil(t, ChurnETA("1000", current), "churn height already reached")
	assert.Nil(t, ChurnETA("900", current))
	assert.Nil(t, ChurnETA("", current))
	assert.Nil(t, ChurnETA("soon", current))
}

func TestCheckEligibility(t *testing.T) {
	full := make([]string, 0, MaxBondProviders)
	for i := 0; i < MaxBondProviders; i++ {
		full = append(full, fmt.Sprintf("maya1p%d", i))
	}

	tests := []struct {
		name      string
		providers []string
		address   string
		eligible  bool
		reason    string
	}{
		{"whitelisted with room", []string{"maya1me", "maya1a"}, "maya1me", true, ""},
		{"not whitelisted", []string{"maya1a"}, "maya1me", false, ReasonNotWhitelisted},
		{"not whitelisted and full", full, "maya1me", false, ReasonNotWhitelisted},
		{"whitelisted but full", full, "maya1p3", false, ReasonNodeAtCapacity},
		{"empty node", nil, "maya1me", false, ReasonNotWhitelisted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &Node{BondProviders: BondProviders{Providers: providers(tt.providers...)}}
			e := CheckEligibility(node, tt.address)
			assert.Equal(t, tt.eligible, e.Eligible)
			assert.Equal(t, tt.reason, e.Reason)
			assert.Equal(t, len(tt.providers), e.ProviderCount)
			assert.Equal(t, MaxBondProviders, e.MaxProviders)
		})
	}
}

func TestLPUnitsValue(t *testing.T) {
	v := LPUnitsValue(decimal.NewFromInt(25), decimal.NewFromInt(100), decimal.NewFromInt(40_000_000_000))
	assert.True(t, decimal.NewFromInt(1).Equal(v), v.String())

	assert.True(t, LPUnitsValue(decimal.NewFromInt(25), decimal.Zero, decimal.NewFromInt(1)).IsZero())
}

func TestAPRAPYConversion(t *testing.T) {
	assert.InDelta(t, 0.0, APRFromAPY(0), 1e-12)

	apr := APRFromAPY(0.1)
	assert.InDelta(t, 0.09532, apr, 1e-4)
	assert.InDelta(t, 0.1, APYFromAPR(apr), 1e-9)
}

func TestStakeableAmount(t *testing.T) {
	tests := []struct {
		balance string
		want    string
	}{
		{"10", "9.9"},
		{"1.1", "1"},
		{"1.05", "0"},
		{"0.05", "0"},
		{"0", "0"},
	}
	for _, tt := range tests {
		got := StakeableAmount(decimal.RequireFromString(tt.balance))
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "balance %s: got %s", tt.balance, got)
	}
}

func TestCacaoPoolAPR(t *testing.T) {
	intervals := []CacaoPoolInterval{
		{StartTime: "100", CacaoDepth: "1000", CacaoPoolUnits: "1000"},
		{StartTime: "300", CacaoDepth: "1010", CacaoPoolUnits: "1000"},
		{StartTime: "200", CacaoDepth: "1005", CacaoPoolUnits: "1000"},
	}

	apr, apy := CacaoPoolAPR(intervals)
	// roi 1% over 3 intervals
	assert.InDelta(t, 0.01*365/3, apr, 1e-9)
	assert.InDelta(t, APYFromAPR(apr), apy, 1e-12)
	assert.Equal(t, "100", intervals[0].StartTime, "input is not reordered")

	apr, apy = CacaoPoolAPR(intervals[:1])
	assert.Zero(t, apr)
	assert.Zero(t, apy)

	apr, _ = CacaoPoolAPR([]CacaoPoolInterval{
		{StartTime: "1", CacaoDepth: "10", CacaoPoolUnits: "0"},
		{StartTime: "2", CacaoDepth: "10", CacaoPoolUnits: "5"},
	})
	assert.Zero(t, apr)
}

func TestComputeCacaoPoolPosition(t *testing.T) {
	member := &CacaoPoolMember{
		CacaoAddress:   "maya1me",
		CacaoDeposit:   "150000000000",
		CacaoWithdrawn: "50000000000",
		LiquidityUnits: "250",
	}
	latest := CacaoPoolInterval{CacaoDepth: "1000000000000", CacaoPoolUnits: "1000"}

	pos := ComputeCacaoPoolPosition(member, latest)
	assert.Equal(t, "maya1me", pos.Address)
	assert.True(t, decimal.NewFromInt(25).Equal(pos.StakedAmount), pos.StakedAmount.String())
	assert.True(t, decimal.NewFromInt(10).Equal(pos.NetDeposit), pos.NetDeposit.String())
	assert.True(t, decimal.NewFromInt(15).Equal(pos.PnL), pos.PnL.String())

	empty := ComputeCacaoPoolPosition(member, CacaoPoolInterval{CacaoDepth: "100", CacaoPoolUnits: "0"})
	assert.True(t, empty.StakedAmount.IsZero())
}

func TestComputeUnstakeMaturity(t *testing.T) {
	m := ComputeUnstakeMaturity(1000, 500, 1200)
	assert.Equal(t, UnstakeMaturity{Mature: false, MaturityHeight: 1500, CurrentHeight: 1200, RemainingBlocks: 300}, m)

	m = ComputeUnstakeMaturity(1000, 500, 1600)
	assert.True(t, m.Mature)
	assert.Zero(t, m.RemainingBlocks)
}
