package routers

import (
	"strconv"

	"chain-gateway/internal/blockchain"
	"chain-gateway/internal/blockchain/cosmos"
	"chain-gateway/internal/gateway"
	"chain-gateway/internal/monitor"
	"chain-gateway/pkg/httputil"

	"github.com/gin-gonic/gin"
)

// ChainHandler 统一的链操作接口
type ChainHandler struct {
	factory *gateway.Factory
	monitor *monitor.Service
}

// NewChainHandler 创建链处理器, monitor 可为空
func NewChainHandler(factory *gateway.Factory, mon *monitor.Service) *ChainHandler {
	return &ChainHandler{factory: factory, monitor: mon}
}

// Register 注册只读路由
func (h *ChainHandler) Register(r *gin.RouterGroup) {
	r.GET("/chains", h.ListChains)
	r.GET("/chains/status", h.ChainStatus)
	r.GET("/chains/:chain/balances/:address", h.GetBalances)
	r.GET("/chains/:chain/accounts/:address", h.GetAccount)
	r.GET("/chains/:chain/blocks/latest", h.GetLatestBlock)
	r.POST("/chains/:chain/fees", h.EstimateFee)
	r.GET("/chains/:chain/ibc/denom-traces/:hash", h.GetDenomTrace)
	r.GET("/chains/:chain/ibc/timeout", h.GetIbcTimeout)
}

// RegisterBroadcast 注册需要认证的广播路由
func (h *ChainHandler) RegisterBroadcast(r *gin.RouterGroup) {
	r.POST("/chains/:chain/broadcast", h.Broadcast)
}

// ChainInfo 链标识和链族
type ChainInfo struct {
	Chain  blockchain.Chain  `json:"chain"`
	Family blockchain.Family `json:"family"`
}

// ListChains 已注册的链
func (h *ChainHandler) ListChains(c *gin.Context) {
	chains := h.factory.Chains()
	out := make([]ChainInfo, 0, len(chains))
	for _, chain := range chains {
		family, _ := chain.Family()
		out = append(out, ChainInfo{Chain: chain, Family: family})
	}
	httputil.Success(c, out)
}

// ChainStatus 监控记录的各链最新高度
func (h *ChainHandler) ChainStatus(c *gin.Context) {
	if h.monitor == nil {
		httputil.Success(c, []*monitor.ChainHead{})
		return
	}
	heads, err := h.monitor.Heads(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.Success(c, heads)
}

// GetBalances 查询余额, denom/contract/native 决定查询路径
func (h *ChainHandler) GetBalances(c *gin.Context) {
	gw, err := h.factory.Get(c.Param("chain"))
	if err != nil {
		respondError(c, err)
		return
	}

	native, _ := strconv.ParseBool(c.Query("native"))
	asset := blockchain.Asset{
		Denom:           c.Query("denom"),
		ContractAddress: c.Query("contract"),
		Native:          native,
	}
	balances, err := gw.FetchBalances(c.Request.Context(), c.Param("address"), asset)
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.Success(c, balances)
}

// GetAccount 查询账户序号, 未上链的地址 exists 为 false
func (h *ChainHandler) GetAccount(c *gin.Context) {
	gw, err := h.factory.Get(c.Param("chain"))
	if err != nil {
		respondError(c, err)
		return
	}
	info, err := gw.FetchAccountInfo(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.Success(c, gin.H{"exists": info != nil, "account": info})
}

// GetLatestBlock 最新区块
func (h *ChainHandler) GetLatestBlock(c *gin.Context) {
	gw, err := h.factory.Get(c.Param("chain"))
	if err != nil {
		respondError(c, err)
		return
	}
	block, err := gw.FetchLatestBlock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.Success(c, block)
}

// EstimateFee 估算手续费
func (h *ChainHandler) EstimateFee(c *gin.Context) {
	gw, err := h.factory.Get(c.Param("chain"))
	if err != nil {
		respondError(c, err)
		return
	}
	var intent blockchain.TransactionIntent
	if err := c.ShouldBindJSON(&intent); err != nil {
		httputil.BadRequest(c, httputil.ErrCodeBadRequest, err.Error())
		return
	}
	fee, err := gw.EstimateFee(c.Request.Context(), intent)
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.Success(c, fee)
}

// GetDenomTrace 解析 ibc/<hash>
func (h *ChainHandler) GetDenomTrace(c *gin.Context) {
	tracer, err := h.factory.DenomTracer(c.Param("chain"))
	if err != nil {
		respondError(c, err)
		return
	}
	trace := tracer.FetchIbcDenomTrace(c.Request.Context(), c.Param("hash"))
	if trace == nil {
		httputil.NotFound(c, httputil.ErrCodeNotFound, "denom trace not found")
		return
	}
	httputil.Success(c, trace)
}

// GetIbcTimeout IBC 转账超时时间戳
func (h *ChainHandler) GetIbcTimeout(c *gin.Context) {
	gw, err := h.factory.Get(c.Param("chain"))
	if err != nil {
		respondError(c, err)
		return
	}
	cg, ok := gw.(*cosmos.Gateway)
	if !ok {
		respondError(c, &blockchain.UnsupportedChainError{Chain: c.Param("chain"), Feature: "ibc timeout"})
		return
	}
	timeout, err := cg.FetchIbcTimeout(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.Success(c, gin.H{"timeout": timeout, "memo_timeout": timeout.String()})
}

// BroadcastRequest 广播请求
type BroadcastRequest struct {
	SignedPayload string `json:"signed_payload" binding:"required"`
}

// Broadcast 广播已签名交易
func (h *ChainHandler) Broadcast(c *gin.Context) {
	gw, err := h.factory.Get(c.Param("chain"))
	if err != nil {
		respondError(c, err)
		return
	}
	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, httputil.ErrCodeBadRequest, err.Error())
		return
	}
	res, err := gw.BroadcastTransaction(c.Request.Context(), req.SignedPayload)
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.Success(c, res)
}
