package cosmos

import "encoding/json"

type balancesResponse struct {
	Balances []struct {
		Denom  string `json:"denom"`
		Amount string `json:"amount"`
	} `json:"balances"`
}

type wasmBalanceResponse struct {
	Data *struct {
		Balance json.RawMessage `json:"balance"`
	} `json:"data"`
}

// baseAccount 普通账户和 vesting 账户共用的字段
type baseAccount struct {
	Address       string `json:"address"`
	AccountNumber string `json:"account_number"`
	Sequence      string `json:"sequence"`
}

type accountResponse struct {
	Account *struct {
		Type string `json:"@type"`
		baseAccount
		BaseAccount        *baseAccount `json:"base_account"`
		BaseVestingAccount *struct {
			BaseAccount *baseAccount `json:"base_account"`
		} `json:"base_vesting_account"`
	} `json:"account"`
}

// TxResponse 广播返回的交易回执
type TxResponse struct {
	Height    string `json:"height"`
	TxHash    string `json:"txhash"`
	Codespace string `json:"codespace"`
	Code      int    `json:"code"`
	RawLog    string `json:"raw_log"`
}

type broadcastResponse struct {
	TxResponse *TxResponse `json:"tx_response"`
}

type broadcastRequest struct {
	TxBytes string `json:"tx_bytes"`
	Mode    string `json:"mode"`
}

// denomTraceResponse 三种可能: denom_trace / error / code+message
type denomTraceResponse struct {
	DenomTrace *struct {
		Path      string `json:"path"`
		BaseDenom string `json:"base_denom"`
	} `json:"denom_trace"`
	Error   *string `json:"error"`
	Code    *int    `json:"code"`
	Message string  `json:"message"`
}

type blockHeader struct {
	Height string `json:"height"`
	Time   string `json:"time"`
}

type latestBlockResponse struct {
	Block *struct {
		Header blockHeader `json:"header"`
	} `json:"block"`
	SdkBlock *struct {
		Header blockHeader `json:"header"`
	} `json:"sdk_block"`
}
