package routers

import (
	"errors"

	"chain-gateway/internal/blockchain"
	"chain-gateway/internal/blockchain/mayachain"
	"chain-gateway/pkg/httputil"
	"chain-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

// respondError 按错误类型映射 HTTP 状态
func respondError(c *gin.Context, err error) {
	var (
		networkErr   *blockchain.NetworkError
		decodeErr    *blockchain.DecodeError
		broadcastErr *blockchain.BroadcastError
		swapErr      *mayachain.SwapError
	)

	switch {
	case errors.Is(err, blockchain.ErrUnsupportedChain):
		httputil.NotFound(c, httputil.ErrCodeUnsupportedChain, err.Error())
	case errors.Is(err, mayachain.ErrPoolNotFound):
		httputil.NotFound(c, httputil.ErrCodeNotFound, err.Error())
	case errors.Is(err, blockchain.ErrInvalidAddress):
		httputil.BadRequest(c, httputil.ErrCodeInvalidAddress, err.Error())
	case errors.Is(err, blockchain.ErrInvalidAmount):
		httputil.BadRequest(c, httputil.ErrCodeInvalidAmount, err.Error())
	case errors.As(err, &broadcastErr):
		httputil.UnprocessableEntity(c, httputil.ErrCodeBroadcastRejected, broadcastErr.Message)
	case errors.As(err, &swapErr):
		httputil.UnprocessableEntity(c, httputil.ErrCodeSwapQuoteRejected, swapErr.Error())
	case errors.As(err, &networkErr):
		httputil.BadGateway(c, httputil.ErrCodeUpstreamNetwork, err.Error())
	case errors.As(err, &decodeErr):
		httputil.BadGateway(c, httputil.ErrCodeUpstreamDecode, err.Error())
	default:
		logger.Errorf("unhandled error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		httputil.InternalError(c, err.Error())
	}
}
