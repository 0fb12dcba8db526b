package cosmos

import (
	"fmt"
	"net/url"
	"strings"

	"chain-gateway/internal/blockchain"
)

const defaultGasLimit = 200000

// EndpointSet 单条 Cosmos-SDK 链的上游配置. 新增链只需增加一条表项.
type EndpointSet struct {
	Chain   blockchain.Chain
	BaseURL string
	// BankPath balances 或 spendable_balances
	BankPath           string
	SupportsWasm       bool
	SupportsDenomTrace bool
	FeeDenom           string
	FeeAmount          uint64
	GasLimit           uint64
}

var endpointTable = map[blockchain.Chain]EndpointSet{
	blockchain.Gaia: {
		Chain:              blockchain.Gaia,
		BaseURL:            "https://cosmos-rest.publicnode.com",
		BankPath:           "balances",
		SupportsWasm:       true,
		SupportsDenomTrace: true,
		FeeDenom:           "uatom",
		FeeAmount:          7500,
		GasLimit:           defaultGasLimit,
	},
	blockchain.Dydx: {
		Chain:     blockchain.Dydx,
		BaseURL:   "https://dydx-rest.publicnode.com",
		BankPath:  "balances",
		FeeDenom:  "adydx",
		FeeAmount: 2500000000000000,
		GasLimit:  defaultGasLimit,
	},
	blockchain.Kujira: {
		Chain:              blockchain.Kujira,
		BaseURL:            "https://kujira-rest.publicnode.com",
		BankPath:           "balances",
		SupportsWasm:       true,
		SupportsDenomTrace: true,
		FeeDenom:           "ukuji",
		FeeAmount:          7500,
		GasLimit:           defaultGasLimit,
	},
	blockchain.Osmosis: {
		Chain:              blockchain.Osmosis,
		BaseURL:            "https://osmosis-rest.publicnode.com",
		BankPath:           "balances",
		SupportsWasm:       true,
		SupportsDenomTrace: true,
		FeeDenom:           "uosmo",
		FeeAmount:          25000,
		GasLimit:           300000,
	},
	blockchain.Terra: {
		Chain:              blockchain.Terra,
		BaseURL:            "https://terra-lcd.publicnode.com",
		BankPath:           "spendable_balances",
		SupportsWasm:       true,
		SupportsDenomTrace: true,
		FeeDenom:           "uluna",
		FeeAmount:          7500,
		GasLimit:           300000,
	},
	blockchain.TerraClassic: {
		Chain:              blockchain.TerraClassic,
		BaseURL:            "https://terra-classic-lcd.publicnode.com",
		BankPath:           "spendable_balances",
		SupportsWasm:       true,
		SupportsDenomTrace: true,
		FeeDenom:           "uluna",
		FeeAmount:          100000000,
		GasLimit:           300000,
	},
	blockchain.Noble: {
		Chain:     blockchain.Noble,
		BaseURL:   "https://noble-api.polkachu.com",
		BankPath:  "balances",
		FeeDenom:  "uusdc",
		FeeAmount: 20000,
		GasLimit:  defaultGasLimit,
	},
	blockchain.Akash: {
		Chain:     blockchain.Akash,
		BaseURL:   "https://akash-rest.publicnode.com",
		BankPath:  "balances",
		FeeDenom:  "uakt",
		FeeAmount: 3000,
		GasLimit:  defaultGasLimit,
	},
}

// Lookup 查找链配置
func Lookup(chain blockchain.Chain) (EndpointSet, bool) {
	e, ok := endpointTable[chain]
	return e, ok
}

// Chains 已配置的 Cosmos 链
func Chains() []blockchain.Chain {
	out := make([]blockchain.Chain, 0, len(endpointTable))
	for _, c := range blockchain.Chains() {
		if _, ok := endpointTable[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// WithBaseURL 覆盖上游地址
func (e EndpointSet) WithBaseURL(base string) EndpointSet {
	if base != "" {
		e.BaseURL = strings.TrimRight(base, "/")
	}
	return e
}

func (e EndpointSet) BalancesURL(address string) string {
	return fmt.Sprintf("%s/cosmos/bank/v1beta1/%s/%s", e.BaseURL, e.BankPath, url.PathEscape(address))
}

func (e EndpointSet) AccountURL(address string) string {
	return fmt.Sprintf("%s/cosmos/auth/v1beta1/accounts/%s", e.BaseURL, url.PathEscape(address))
}

func (e EndpointSet) BroadcastURL() string {
	return e.BaseURL + "/cosmos/tx/v1beta1/txs"
}

// WasmQueryURL query 为已 base64 编码的查询消息
func (e EndpointSet) WasmQueryURL(contract, query string) string {
	return fmt.Sprintf("%s/cosmwasm/wasm/v1/contract/%s/smart/%s", e.BaseURL, url.PathEscape(contract), url.PathEscape(query))
}

func (e EndpointSet) DenomTraceURL(hash string) string {
	return fmt.Sprintf("%s/ibc/apps/transfer/v1/denom_traces/%s", e.BaseURL, url.PathEscape(hash))
}

func (e EndpointSet) LatestBlockURL() string {
	return e.BaseURL + "/cosmos/base/tendermint/v1beta1/blocks/latest"
}
