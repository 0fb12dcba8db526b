package blockchain

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedChain = errors.New("unsupported chain")
	ErrInvalidAddress   = errors.New("invalid address")
	ErrInvalidAmount    = errors.New("invalid amount")
)

// UnsupportedChainError 工厂无法解析的链或链/功能组合
type UnsupportedChainError struct {
	Chain   string
	Feature string
}

func (e *UnsupportedChainError) Error() string {
	if e.Feature != "" {
		return fmt.Sprintf("unsupported chain: %s does not support %s", e.Chain, e.Feature)
	}
	return fmt.Sprintf("unsupported chain: %s", e.Chain)
}

func (e *UnsupportedChainError) Is(target error) bool { return target == ErrUnsupportedChain }

// NetworkError 传输层失败或上游非2xx
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: network error: %v", e.Op, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError 响应体结构不符
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("%s: decode error: %v", e.Op, e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }

// BroadcastError 链拒绝交易, Message 保留原始响应
type BroadcastError struct {
	Message string
}

func (e *BroadcastError) Error() string { return "broadcast rejected: " + e.Message }

// InvalidAddressError 地址解码失败
type InvalidAddressError struct {
	Address string
	Reason  string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid address %q: %s", e.Address, e.Reason)
}

func (e *InvalidAddressError) Is(target error) bool { return target == ErrInvalidAddress }

// InvalidAmountError 金额不是最小单位的非负整数
type InvalidAmountError struct {
	Amount string
	Reason string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %q: %s", e.Amount, e.Reason)
}

func (e *InvalidAmountError) Is(target error) bool { return target == ErrInvalidAmount }

// NewNetworkError 包装网络错误
func NewNetworkError(op string, err error) error {
	return &NetworkError{Op: op, Err: err}
}

// NewDecodeError 包装解码错误
func NewDecodeError(op string, err error) error {
	return &DecodeError{Op: op, Err: err}
}
