package routers

import (
	"strconv"
	"strings"

	"chain-gateway/internal/blockchain/mayachain"
	"chain-gateway/pkg/httputil"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// MayaHandler MayaChain 质押/流动性/CACAO 池接口
type MayaHandler struct {
	service *mayachain.Service
}

// NewMayaHandler 创建 MayaChain 处理器
func NewMayaHandler(service *mayachain.Service) *MayaHandler {
	return &MayaHandler{service: service}
}

// Register 注册路由
func (h *MayaHandler) Register(r *gin.RouterGroup) {
	r.GET("/maya/bond-info", h.GetNetworkBondInfo)
	r.GET("/maya/bonds/:address", h.GetBondedNodes)
	r.GET("/maya/nodes/:node/bond-metrics", h.GetBondMetrics)
	r.GET("/maya/nodes/:node/eligibility", h.GetEligibility)
	r.GET("/maya/lp/:address", h.GetLPPositions)
	r.GET("/maya/pools/:asset/lp-value", h.GetLPUnitsValue)
	r.GET("/maya/cacao-pool/stakeable", h.GetStakeable)
	r.GET("/maya/cacao-pool/:address", h.GetCacaoPool)
	r.GET("/maya/swap-quote", h.GetSwapQuote)
	r.GET("/maya/deposit-assets", h.GetDepositAssets)
}

// GetNetworkBondInfo 全网 APR 和下次轮换时间
func (h *MayaHandler) GetNetworkBondInfo(c *gin.Context) {
	info, err := h.service.NetworkBondInfo(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.Success(c, info)
}

// GetBondedNodes 地址质押过的节点
func (h *MayaHandler) GetBondedNodes(c *gin.Context) {
	nodes, err := h.service.BondedNodes(c.Request.Context(), c.Param("address"))
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.Success(c, nodes)
}

// GetBondMetrics 地址在节点的质押收益
func (h *MayaHandler) GetBondMetrics(c *gin.Context) {
	address, ok := requiredQuery(c, "address")
	if !ok {
		return
	}
	metrics, err := h.service.BondMetrics(c.Request.Context(), c.Param("node"), address)
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.Success(c, metrics)
}

// GetEligibility 地址能否向节点质押
func (h *MayaHandler) GetEligibility(c *gin.Context) {
	address, ok := requiredQuery(c, "address")
	if !ok {
		return
	}
	e, err := h.service.Eligibility(c.Request.Context(), c.Param("node"), address)
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.Success(c, e)
}

// GetLPPositions LP 仓位, pools 以逗号分隔
func (h *MayaHandler) GetLPPositions(c *gin.Context) {
	var pools []string
	if raw := c.Query("pools"); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				pools = append(pools, p)
			}
		}
	}
	positions, err := h.service.LPPositions(c.Request.Context(), c.Param("address"), pools, c.Query("period"))
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.Success(c, positions)
}

// GetLPUnitsValue LP 份额对应的 CACAO
func (h *MayaHandler) GetLPUnitsValue(c *gin.Context) {
	raw, ok := requiredQuery(c, "units")
	if !ok {
		return
	}
	units, err := decimal.NewFromString(raw)
	if err != nil {
		httputil.BadRequest(c, httputil.ErrCodeBadRequest, "invalid units")
		return
	}
	value, err := h.service.LPUnitsCacaoValue(c.Request.Context(), c.Param("asset"), units)
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.Success(c, gin.H{"asset": c.Param("asset"), "cacao_value": value})
}

// GetStakeable 扣除手续费后可存入 CACAO 池的数量
func (h *MayaHandler) GetStakeable(c *gin.Context) {
	raw, ok := requiredQuery(c, "balance")
	if !ok {
		return
	}
	balance, err := decimal.NewFromString(raw)
	if err != nil {
		httputil.BadRequest(c, httputil.ErrCodeBadRequest, "invalid balance")
		return
	}
	httputil.Success(c, gin.H{"stakeable": mayachain.StakeableAmount(balance)})
}

// GetCacaoPool CACAO 池仓位/收益率/锁定期
func (h *MayaHandler) GetCacaoPool(c *gin.Context) {
	ctx := c.Request.Context()
	address := c.Param("address")

	position, err := h.service.CacaoPoolPosition(ctx, address)
	if err != nil {
		respondError(c, err)
		return
	}
	apr, apy, err := h.service.CacaoPoolAPR(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	maturity, err := h.service.UnstakeMaturity(ctx, address)
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.Success(c, gin.H{
		"position": position,
		"apr":      apr,
		"apy":      apy,
		"maturity": maturity,
	})
}

// GetSwapQuote 兑换报价, amount 为最小单位
func (h *MayaHandler) GetSwapQuote(c *gin.Context) {
	var req mayachain.SwapQuoteRequest
	var ok bool
	if req.FromAsset, ok = requiredQuery(c, "from_asset"); !ok {
		return
	}
	if req.ToAsset, ok = requiredQuery(c, "to_asset"); !ok {
		return
	}
	if req.Amount, ok = requiredQuery(c, "amount"); !ok {
		return
	}
	if _, err := decimal.NewFromString(req.Amount); err != nil {
		httputil.BadRequest(c, httputil.ErrCodeInvalidAmount, "invalid amount")
		return
	}
	req.Destination = c.Query("destination")
	req.Affiliate = c.Query("affiliate")

	if req.StreamingInterval, ok = optionalInt(c, "streaming_interval"); !ok {
		return
	}
	if req.AffiliateBps, ok = optionalInt(c, "affiliate_bps"); !ok {
		return
	}

	quote, err := h.service.Client().SwapQuote(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.Success(c, quote)
}

// GetDepositAssets 可质押进节点的资产
func (h *MayaHandler) GetDepositAssets(c *gin.Context) {
	assets, err := h.service.DepositAssets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	httputil.Success(c, gin.H{"assets": assets})
}

func optionalInt(c *gin.Context, key string) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		httputil.BadRequest(c, httputil.ErrCodeBadRequest, "invalid "+key)
		return 0, false
	}
	return n, true
}

func requiredQuery(c *gin.Context, key string) (string, bool) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		httputil.BadRequest(c, httputil.ErrCodeBadRequest, key+" is required")
		return "", false
	}
	return v, true
}
