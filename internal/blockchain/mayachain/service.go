package mayachain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"chain-gateway/internal/blockchain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrPoolNotFound 池子不存在
var ErrPoolNotFound = errors.New("pool not found")

const cacaoPoolAPRIntervals = 30

// Service 质押/流动性/CACAO 池的收益计算
type Service struct {
	client *Client
	log    *zap.SugaredLogger
}

// NewService 创建收益计算服务
func NewService(client *Client) *Service {
	return &Service{client: client, log: client.log}
}

// Client 底层 REST 客户端
func (s *Service) Client() *Client { return s.client }

// BondMetrics 地址在某节点的质押额/奖励, APR 取全网 bondingAPY
func (s *Service) BondMetrics(ctx context.Context, nodeAddress, bondAddress string) (*BondMetrics, error) {
	node, err := s.client.Node(ctx, nodeAddress)
	if err != nil {
		return nil, err
	}
	network, err := s.client.Network(ctx)
	if err != nil {
		return nil, err
	}

	metrics := ComputeBondMetrics(node, bondAddress, parseFloat(network.BondingAPY))
	return &metrics, nil
}

// BondedNodes 扫描全部节点找出地址质押过的节点
func (s *Service) BondedNodes(ctx context.Context, address string) (*BondedNodes, error) {
	nodes, err := s.client.Nodes(ctx)
	if err != nil {
		return nil, err
	}

	out := &BondedNodes{Nodes: []BondedNode{}}
	for _, node := range nodes {
		for _, p := range node.BondProviders.Providers {
			if p.BondAddress != address {
				continue
			}
			bond, err := decimal.NewFromString(p.Bond)
			if err != nil {
				s.log.Debugw("skip unparsable bond", "node", node.NodeAddress, "bond", p.Bond)
				continue
			}
			out.Nodes = append(out.Nodes, BondedNode{Status: node.Status, Address: node.NodeAddress, Bond: bond})
			out.TotalBonded = out.TotalBonded.Add(bond)
		}
	}
	return out, nil
}

// NetworkBondInfo 全网质押 APR 和下次轮换的预计时间
func (s *Service) NetworkBondInfo(ctx context.Context) (*NetworkBondInfo, error) {
	network, err := s.client.Network(ctx)
	if err != nil {
		return nil, err
	}
	health, err := s.client.Health(ctx)
	if err != nil {
		return nil, err
	}
	return &NetworkBondInfo{
		APR:           parseFloat(network.BondingAPY),
		NextChurnDate: ChurnETA(network.NextChurnHeight, health.LastMayaNode),
	}, nil
}

// Eligibility 地址能否向节点追加质押
func (s *Service) Eligibility(ctx context.Context, nodeAddress, bondAddress string) (*Eligibility, error) {
	node, err := s.client.Node(ctx, nodeAddress)
	if err != nil {
		return nil, err
	}
	e := CheckEligibility(node, bondAddress)
	return &e, nil
}

// LPPositions 地址在指定池子的 LP 仓位. 没有仓位的池子赎回值为 "0";
// pools 为空时返回地址持有仓位的全部池子. 只返回 available 状态的池子.
func (s *Service) LPPositions(ctx context.Context, address string, pools []string, period string) ([]LiquidityPosition, error) {
	type memberResult struct {
		details *MemberDetails
		err     error
	}
	memberCh := make(chan memberResult, 1)
	go func() {
		details, err := s.client.MemberDetails(ctx, address)
		memberCh <- memberResult{details, err}
	}()

	stats, err := s.client.PoolStats(ctx, period)
	if err != nil {
		return nil, err
	}

	member := <-memberCh
	held := map[string]MemberPool{}
	if member.err != nil {
		s.log.Debugw("member details unavailable", "address", address, "error", member.err)
	} else {
		for _, p := range member.details.Pools {
			held[p.Pool] = p
		}
	}

	wanted := map[string]bool{}
	for _, p := range pools {
		wanted[strings.ToUpper(strings.TrimSpace(p))] = true
	}

	positions := []LiquidityPosition{}
	for _, stat := range stats {
		if !stat.IsAvailable() {
			continue
		}
		mp, ok := held[stat.Asset]
		if len(wanted) > 0 && !wanted[strings.ToUpper(stat.Asset)] {
			continue
		}
		if len(wanted) == 0 && !ok {
			continue
		}
		positions = append(positions, LiquidityPosition{
			RuneRedeemValue:  valueOrZero(mp.RuneAdded),
			AssetRedeemValue: valueOrZero(mp.AssetAdded),
			PoolStats:        stat,
		})
	}
	return positions, nil
}

func valueOrZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// LPUnitsCacaoValue LP 份额对应的 CACAO 价值
func (s *Service) LPUnitsCacaoValue(ctx context.Context, asset string, lpUnits decimal.Decimal) (decimal.Decimal, error) {
	pools, err := s.client.Pools(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	for _, p := range pools {
		if strings.EqualFold(p.Asset, asset) {
			return LPUnitsValue(lpUnits, parseDecimal(p.LPUnits), parseDecimal(p.BalanceCacao)), nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w: %s", ErrPoolNotFound, asset)
}

// CacaoPoolPosition 地址的 CACAO 池仓位
func (s *Service) CacaoPoolPosition(ctx context.Context, address string) (*CacaoPoolPosition, error) {
	member, err := s.client.CacaoPoolMember(ctx, address)
	if err != nil {
		return nil, err
	}
	history, err := s.client.CacaoPoolHistory(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(history.Intervals) == 0 {
		return nil, blockchain.NewDecodeError("fetch cacao pool history", errors.New("no intervals"))
	}

	if member.CacaoAddress == "" {
		member.CacaoAddress = address
	}
	pos := ComputeCacaoPoolPosition(member, history.Intervals[0])
	return &pos, nil
}

// CacaoPoolAPR 最近 30 天的 APR/APY
func (s *Service) CacaoPoolAPR(ctx context.Context) (apr, apy float64, err error) {
	history, err := s.client.CacaoPoolHistory(ctx, cacaoPoolAPRIntervals)
	if err != nil {
		return 0, 0, err
	}
	apr, apy = CacaoPoolAPR(history.Intervals)
	return apr, apy, nil
}

// UnstakeMaturity 地址最后一次存入 CACAO 池后的锁定状态
func (s *Service) UnstakeMaturity(ctx context.Context, address string) (*UnstakeMaturity, error) {
	member, err := s.client.CacaoPoolMember(ctx, address)
	if err != nil {
		return nil, err
	}
	mimir, err := s.client.Mimir(ctx)
	if err != nil {
		return nil, err
	}
	health, err := s.client.Health(ctx)
	if err != nil {
		return nil, err
	}

	lastDeposit, err := strconv.ParseInt(valueOrZero(member.LastDepositHeight), 10, 64)
	if err != nil {
		return nil, blockchain.NewDecodeError("fetch cacao pool member", err)
	}
	m := ComputeUnstakeMaturity(lastDeposit, mimir[mimirCacaoPoolMaturity], health.LastMayaNode.Height)
	return &m, nil
}

// DepositAssets 可以质押进节点的资产列表
func (s *Service) DepositAssets(ctx context.Context) ([]string, error) {
	pools, err := s.client.Pools(ctx)
	if err != nil {
		return nil, err
	}
	assets := []string{}
	for _, p := range pools {
		if p.Bondable {
			assets = append(assets, p.Asset)
		}
	}
	return assets, nil
}
