package routers

import (
	"math/big"

	"chain-gateway/internal/blockchain/tron"
	"chain-gateway/pkg/httputil"

	"github.com/gin-gonic/gin"
)

// TronHandler Tron 特有的资源和手续费接口
type TronHandler struct {
	gateway *tron.Gateway
}

// NewTronHandler 创建 Tron 处理器
func NewTronHandler(gateway *tron.Gateway) *TronHandler {
	return &TronHandler{gateway: gateway}
}

// Register 注册路由
func (h *TronHandler) Register(r *gin.RouterGroup) {
	r.GET("/tron/accounts/:address/resources", h.GetResources)
	r.GET("/tron/block-header", h.GetBlockHeader)
	r.POST("/tron/trc20-fee", h.EstimateTRC20Fee)
}

// GetResources 带宽/能量额度和质押余额
func (h *TronHandler) GetResources(c *gin.Context) {
	ctx := c.Request.Context()
	address := c.Param("address")

	resources, err := h.gateway.FetchAccountResources(ctx, address)
	if err != nil {
		respondError(c, err)
		return
	}
	staked, err := h.gateway.FetchStakedBalances(ctx, address)
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.Success(c, gin.H{"resources": resources, "staked": staked})
}

// GetBlockHeader 签名用的区块头引用
func (h *TronHandler) GetBlockHeader(c *gin.Context) {
	header, err := h.gateway.FetchBlockHeader(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.Success(c, header)
}

// TRC20FeeRequest TRC20 转账手续费估算请求
type TRC20FeeRequest struct {
	Owner    string `json:"owner" binding:"required"`
	Contract string `json:"contract" binding:"required"`
	To       string `json:"to" binding:"required"`
	Amount   string `json:"amount" binding:"required"`
}

// EstimateTRC20Fee 模拟执行 transfer 得到能量费用, 单位 sun
func (h *TronHandler) EstimateTRC20Fee(c *gin.Context) {
	var req TRC20FeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, httputil.ErrCodeBadRequest, err.Error())
		return
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || amount.Sign() < 0 {
		httputil.BadRequest(c, httputil.ErrCodeInvalidAmount, "amount must be a non-negative integer")
		return
	}

	fee, err := h.gateway.EstimateTRC20Fee(c.Request.Context(), req.Owner, req.Contract, req.To, amount)
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.Success(c, gin.H{"fee": fee, "denom": "sun"})
}
