package tron

import (
	"encoding/hex"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/sha3"
)

const (
	transferSignature  = "transfer(address,uint256)"
	balanceOfSignature = "balanceOf(address)"
	wordSize           = 32
)

// Selector 函数签名的 4 字节选择器
func Selector(signature string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return h.Sum(nil)[:4]
}

// EncodeTransferParameter transfer(address,uint256) 的参数块:
// 接收地址左补零到 32 字节, 后接左补零到 32 字节的金额, 返回 hex.
func EncodeTransferParameter(to string, amount *big.Int) (string, error) {
	addr, err := toEVMAddress(to)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(append(
		common.LeftPadBytes(addr.Bytes(), wordSize),
		common.LeftPadBytes(amount.Bytes(), wordSize)...,
	)), nil
}

// balanceOfCallData balanceOf(address) 的完整调用数据
func balanceOfCallData(owner common.Address) []byte {
	return append(Selector(balanceOfSignature), common.LeftPadBytes(owner.Bytes(), wordSize)...)
}
