package gateway

import (
	"context"

	"chain-gateway/internal/blockchain"
	"chain-gateway/internal/blockchain/cosmos"
	"chain-gateway/internal/blockchain/mayachain"
	"chain-gateway/internal/blockchain/tron"
	"chain-gateway/pkg/config"
	"chain-gateway/pkg/httpclient"
	"chain-gateway/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const tronAPIKeyHeader = "TRON-PRO-API-KEY"

// Factory 链标识到网关的映射. 构建后只读.
type Factory struct {
	gateways map[blockchain.Chain]blockchain.Gateway
}

// NewFactory 用已构建的网关创建映射, 同一条链后者覆盖前者
func NewFactory(gateways ...blockchain.Gateway) *Factory {
	f := &Factory{gateways: make(map[blockchain.Chain]blockchain.Gateway, len(gateways))}
	for _, g := range gateways {
		f.gateways[g.Chain()] = g
	}
	return f
}

// Get 按链标识取网关, 不会发起任何网络请求
func (f *Factory) Get(chainID string) (blockchain.Gateway, error) {
	chain, ok := blockchain.ParseChain(chainID)
	if !ok {
		return nil, &blockchain.UnsupportedChainError{Chain: chainID}
	}
	g, ok := f.gateways[chain]
	if !ok {
		return nil, &blockchain.UnsupportedChainError{Chain: chainID}
	}
	return g, nil
}

// DenomTracer 支持 IBC 溯源的网关
func (f *Factory) DenomTracer(chainID string) (blockchain.DenomTracer, error) {
	g, err := f.Get(chainID)
	if err != nil {
		return nil, err
	}
	tracer, ok := g.(blockchain.DenomTracer)
	if !ok {
		return nil, &blockchain.UnsupportedChainError{Chain: chainID, Feature: "ibc denom trace"}
	}
	return tracer, nil
}

// Chains 已注册的链, 顺序固定
func (f *Factory) Chains() []blockchain.Chain {
	out := make([]blockchain.Chain, 0, len(f.gateways))
	for _, c := range blockchain.Chains() {
		if _, ok := f.gateways[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Gateways 已注册的网关, 顺序同 Chains
func (f *Factory) Gateways() []blockchain.Gateway {
	out := make([]blockchain.Gateway, 0, len(f.gateways))
	for _, c := range f.Chains() {
		out = append(out, f.gateways[c])
	}
	return out
}

// Deps 构建网关需要的共享依赖
type Deps struct {
	HTTP       *httpclient.Client
	DenomStore cosmos.DenomTraceStore
	Redis      *redis.Client
	// EVM Tron JSON-RPC 客户端, 为空时按配置拨号
	EVM tron.EVMCaller
}

// Gateways 构建结果
type Gateways struct {
	Factory *Factory
	Tron    *tron.Gateway
	Maya    *mayachain.Service
}

// Build 按配置构建全部链的网关
func Build(ctx context.Context, cfg *config.Config, deps Deps) *Gateways {
	var all []blockchain.Gateway

	var cosmosOpts []cosmos.Option
	if deps.DenomStore != nil {
		cosmosOpts = append(cosmosOpts, cosmos.WithDenomTraceStore(deps.DenomStore))
	}
	for _, chain := range cosmos.Chains() {
		endpoints, _ := cosmos.Lookup(chain)
		endpoints = endpoints.WithBaseURL(cfg.Chains.CosmosOverrides[chain.String()])
		all = append(all, cosmos.NewGateway(endpoints, deps.HTTP, cosmosOpts...))
	}

	tronHTTP := deps.HTTP
	if cfg.Chains.Tron.APIKey != "" {
		tronHTTP = deps.HTTP.With(httpclient.WithHeader(tronAPIKeyHeader, cfg.Chains.Tron.APIKey))
	}
	var tronOpts []tron.Option
	evm := deps.EVM
	if evm == nil && cfg.Chains.Tron.JSONRPCURL != "" {
		client, err := tron.NewEVMClient(ctx, cfg.Chains.Tron.JSONRPCURL, httpclient.NewRetryClient(cfg.HTTPClient).StandardClient())
		if err != nil {
			logger.Warnf("Failed to initialize Tron JSON-RPC client: %v", err)
		} else {
			evm = client
		}
	}
	if evm != nil {
		tronOpts = append(tronOpts, tron.WithEVMCaller(evm))
	}
	tronGateway := tron.NewGateway(cfg.Chains.Tron.APIURL, tronHTTP, tronOpts...)
	all = append(all, tronGateway)

	mayaClient := mayachain.NewClient(cfg.Chains.Maya, deps.HTTP,
		mayachain.WithCacheBackend(cfg.Cache.Backend, deps.Redis, cfg.Cache.TTL))
	all = append(all, mayachain.NewGateway(mayaClient))

	return &Gateways{
		Factory: NewFactory(all...),
		Tron:    tronGateway,
		Maya:    mayachain.NewService(mayaClient),
	}
}
