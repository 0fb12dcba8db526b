package tron

// 资源类型, 空值等同于 BANDWIDTH
const (
	ResourceBandwidth = "BANDWIDTH"
	ResourceEnergy    = "ENERGY"
)

type accountRequest struct {
	Address string `json:"address"`
	Visible bool   `json:"visible"`
}

type accountResponse struct {
	Address  string `json:"address"`
	Balance  int64  `json:"balance"`
	FrozenV2 []struct {
		Type   string `json:"type"`
		Amount int64  `json:"amount"`
	} `json:"frozenV2"`
	UnfrozenV2 []struct {
		UnfreezeAmount     int64 `json:"unfreeze_amount"`
		UnfreezeExpireTime int64 `json:"unfreeze_expire_time"`
	} `json:"unfrozenV2"`
}

// AccountResources 带宽和能量使用情况
type AccountResources struct {
	FreeNetUsed  int64 `json:"freeNetUsed"`
	FreeNetLimit int64 `json:"freeNetLimit"`
	NetUsed      int64 `json:"NetUsed"`
	NetLimit     int64 `json:"NetLimit"`
	EnergyUsed   int64 `json:"EnergyUsed"`
	EnergyLimit  int64 `json:"EnergyLimit"`
}

// AvailableBandwidth (免费额度剩余) + (质押额度剩余)
func (r AccountResources) AvailableBandwidth() int64 {
	return (r.FreeNetLimit - r.FreeNetUsed) + (r.NetLimit - r.NetUsed)
}

// AvailableEnergy 剩余能量
func (r AccountResources) AvailableEnergy() int64 {
	return r.EnergyLimit - r.EnergyUsed
}

// StakedBalances 质押 (单位 SUN)
type StakedBalances struct {
	Bandwidth  int64 `json:"bandwidth"`
	Energy     int64 `json:"energy"`
	Unfreezing int64 `json:"unfreezing"`
}

type chainParametersResponse struct {
	ChainParameter []struct {
		Key   string `json:"key"`
		Value *int64 `json:"value"`
	} `json:"chainParameter"`
}

// ChainParameters 手续费相关的链参数
type ChainParameters struct {
	values map[string]int64
}

func (p ChainParameters) value(key string, fallback int64) int64 {
	if v, ok := p.values[key]; ok {
		return v
	}
	return fallback
}

// BandwidthFeePrice 每字节带宽价格
func (p ChainParameters) BandwidthFeePrice() int64 {
	return p.value("getTransactionFee", 1000)
}

// MemoFee 备注费用, 未设置或为 0 时按 1 TRX 估算
func (p ChainParameters) MemoFee() int64 {
	if v := p.value("getMemoFee", 0); v > 0 {
		return v
	}
	return 1_000_000
}

// CreateAccountFee 激活新账户费用
func (p ChainParameters) CreateAccountFee() int64 {
	return p.value("getCreateAccountFee", 100_000)
}

// CreateAccountFeeInContract 系统合约中激活新账户费用
func (p ChainParameters) CreateAccountFeeInContract() int64 {
	return p.value("getCreateNewAccountFeeInSystemContract", 1_000_000)
}

type nowBlockResponse struct {
	BlockID     string `json:"blockID"`
	BlockHeader *struct {
		RawData *struct {
			Timestamp      uint64 `json:"timestamp"`
			Number         uint64 `json:"number"`
			Version        int    `json:"version"`
			TxTrieRoot     string `json:"txTrieRoot"`
			ParentHash     string `json:"parentHash"`
			WitnessAddress string `json:"witness_address"`
		} `json:"raw_data"`
	} `json:"block_header"`
}

// BlockHeader 构建交易所需的区块头信息
type BlockHeader struct {
	Timestamp      uint64 `json:"timestamp"`
	Expiration     uint64 `json:"expiration"`
	Number         uint64 `json:"number"`
	Version        int    `json:"version"`
	TxTrieRoot     string `json:"tx_trie_root"`
	ParentHash     string `json:"parent_hash"`
	WitnessAddress string `json:"witness_address"`
	// HeaderTimestamp 区块本身的时间戳
	HeaderTimestamp uint64 `json:"header_timestamp"`
}

type triggerConstantRequest struct {
	OwnerAddress     string `json:"owner_address"`
	ContractAddress  string `json:"contract_address"`
	FunctionSelector string `json:"function_selector"`
	Parameter        string `json:"parameter"`
	Visible          bool   `json:"visible"`
}

type triggerConstantResponse struct {
	Result *struct {
		Result  bool   `json:"result"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"result"`
	ConstantResult []string `json:"constant_result"`
	EnergyUsed     int64    `json:"energy_used"`
	EnergyPenalty  int64    `json:"energy_penalty"`
}

type broadcastResponse struct {
	Result  bool   `json:"result"`
	TxID    string `json:"txid"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
