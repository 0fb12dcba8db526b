package mayachain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"chain-gateway/internal/blockchain"
)

// 报价失败的分类
var (
	ErrSwapAmountTooSmall = errors.New("swap amount too small")
	ErrNoLiquidityPool    = errors.New("no liquidity pool for pair")
)

// SwapQuoteRequest /mayachain/quote/swap 的参数
type SwapQuoteRequest struct {
	FromAsset         string
	ToAsset           string
	Amount            string
	Destination       string
	StreamingInterval int
	Affiliate         string
	AffiliateBps      int
}

func (r SwapQuoteRequest) query() url.Values {
	q := url.Values{}
	q.Set("from_asset", r.FromAsset)
	q.Set("to_asset", r.ToAsset)
	q.Set("amount", r.Amount)
	if r.Destination != "" {
		q.Set("destination", r.Destination)
	}
	q.Set("streaming_interval", strconv.Itoa(r.StreamingInterval))
	if r.Affiliate != "" {
		q.Set("affiliate", r.Affiliate)
		q.Set("affiliate_bps", strconv.Itoa(r.AffiliateBps))
	}
	return q
}

// SwapFees 报价中的费用明细
type SwapFees struct {
	Asset       string `json:"asset"`
	Affiliate   string `json:"affiliate"`
	Outbound    string `json:"outbound"`
	Liquidity   string `json:"liquidity"`
	Total       string `json:"total"`
	SlippageBps int    `json:"slippage_bps"`
	TotalBps    int    `json:"total_bps"`
}

// SwapQuote mayanode 兑换报价
type SwapQuote struct {
	InboundAddress         string   `json:"inbound_address"`
	ExpectedAmountOut      string   `json:"expected_amount_out"`
	Fees                   SwapFees `json:"fees"`
	Memo                   string   `json:"memo"`
	Expiry                 int64    `json:"expiry"`
	RecommendedMinAmountIn string   `json:"recommended_min_amount_in"`
	DustThreshold          string   `json:"dust_threshold"`
	Router                 string   `json:"router,omitempty"`
	OutboundDelaySeconds   int64    `json:"outbound_delay_seconds"`
	TotalSwapSeconds       int64    `json:"total_swap_seconds"`
	Warning                string   `json:"warning,omitempty"`
	Notes                  string   `json:"notes,omitempty"`
}

// SwapError mayanode 拒绝报价时的错误体
type SwapError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	// Err 部分节点版本只返回 {"error": "..."}
	Err string `json:"error"`
}

func (e *SwapError) Error() string {
	return fmt.Sprintf("swap quote rejected: code=%d %s", e.Code, e.message())
}

func (e *SwapError) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err
}

// Is 按错误信息归类, 用于 errors.Is(err, ErrSwapAmountTooSmall) 等
func (e *SwapError) Is(target error) bool {
	msg := strings.ToLower(e.message())
	switch target {
	case ErrSwapAmountTooSmall:
		return strings.Contains(msg, "not enough asset to pay for fees")
	case ErrNoLiquidityPool:
		return strings.Contains(msg, "invalid symbol") ||
			strings.Contains(msg, "bad to asset") ||
			strings.Contains(msg, "bad from asset")
	}
	return false
}

// SwapQuote 请求兑换报价. 节点拒绝时返回 *SwapError, 节点不可达时返回 NetworkError.
func (c *Client) SwapQuote(ctx context.Context, req SwapQuoteRequest) (*SwapQuote, error) {
	const op = "fetch swap quote"

	resp, err := c.http.Get(ctx, c.nodeURL+"/mayachain/quote/swap?"+req.query().Encode())
	if err != nil {
		return nil, blockchain.NewNetworkError(op, err)
	}

	if !resp.OK() {
		var swapErr SwapError
		if json.Unmarshal(resp.Body, &swapErr) == nil && swapErr.message() != "" {
			return nil, &swapErr
		}
		return nil, blockchain.NewNetworkError(op, resp.Err())
	}

	var quote SwapQuote
	if err := json.Unmarshal(resp.Body, &quote); err != nil {
		return nil, blockchain.NewDecodeError(op, err)
	}
	// 部分错误以 200 返回
	if quote.ExpectedAmountOut == "" {
		var swapErr SwapError
		if json.Unmarshal(resp.Body, &swapErr) == nil && swapErr.message() != "" {
			return nil, &swapErr
		}
		return nil, blockchain.NewDecodeError(op, errors.New("missing expected_amount_out"))
	}
	return &quote, nil
}
