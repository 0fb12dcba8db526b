package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// BadRequest 400错误
func BadRequest(c *gin.Context, code int, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    code,
		Message: message,
	})
}

// Unauthorized 401错误
func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, Response{
		Code:    401,
		Message: message,
	})
}

// NotFound 404错误
func NotFound(c *gin.Context, code int, message string) {
	c.JSON(http.StatusNotFound, Response{
		Code:    code,
		Message: message,
	})
}

// InternalError 500错误
func InternalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, Response{
		Code:    500,
		Message: message,
	})
}

// UnprocessableEntity 422错误, 链拒绝了请求
func UnprocessableEntity(c *gin.Context, code int, message string) {
	c.JSON(http.StatusUnprocessableEntity, Response{
		Code:    code,
		Message: message,
	})
}

// TooManyRequests 429错误
func TooManyRequests(c *gin.Context, message string) {
	c.JSON(http.StatusTooManyRequests, Response{
		Code:    429,
		Message: message,
	})
}

// BadGateway 502错误, 上游节点不可用或返回了无法解析的数据
func BadGateway(c *gin.Context, code int, message string) {
	c.JSON(http.StatusBadGateway, Response{
		Code:    code,
		Message: message,
	})
}

// ErrorCode 错误码定义
const (
	ErrCodeSuccess           = 0
	ErrCodeBadRequest        = 400
	ErrCodeUnauthorized      = 401
	ErrCodeNotFound          = 404
	ErrCodeInternalError     = 500
	ErrCodeUnsupportedChain  = 1001
	ErrCodeInvalidAddress    = 1002
	ErrCodeInvalidAmount     = 1003
	ErrCodeBroadcastRejected = 2001
	ErrCodeSwapQuoteRejected = 2002
	ErrCodeUpstreamNetwork   = 3001
	ErrCodeUpstreamDecode    = 3002
)
