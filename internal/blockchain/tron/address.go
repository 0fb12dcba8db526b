package tron

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"chain-gateway/internal/blockchain"

	"github.com/FactomProject/basen"
	"github.com/ethereum/go-ethereum/common"
)

const (
	addressPrefix  = 0x41
	rawAddressLen  = 21
	checksumLength = 4
)

var base58 = basen.NewEncoding("123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz")

// DecodeAddress Base58check 地址转 21 字节原始地址 (0x41 开头). 也接受 41 开头的 hex.
func DecodeAddress(address string) ([]byte, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, &blockchain.InvalidAddressError{Address: address, Reason: "empty"}
	}

	if len(address) == rawAddressLen*2 && strings.HasPrefix(address, "41") {
		raw, err := hex.DecodeString(address)
		if err == nil {
			return raw, nil
		}
	}

	decoded, err := base58.DecodeString(address)
	if err != nil {
		return nil, &blockchain.InvalidAddressError{Address: address, Reason: "not base58"}
	}
	if len(decoded) != rawAddressLen+checksumLength {
		return nil, &blockchain.InvalidAddressError{Address: address, Reason: "wrong length"}
	}

	raw, sum := decoded[:rawAddressLen], decoded[rawAddressLen:]
	if !bytes.Equal(checksum(raw), sum) {
		return nil, &blockchain.InvalidAddressError{Address: address, Reason: "checksum mismatch"}
	}
	if raw[0] != addressPrefix {
		return nil, &blockchain.InvalidAddressError{Address: address, Reason: "wrong prefix"}
	}
	return raw, nil
}

// EncodeAddress 21 字节原始地址转 Base58check
func EncodeAddress(raw []byte) (string, error) {
	if len(raw) != rawAddressLen || raw[0] != addressPrefix {
		return "", &blockchain.InvalidAddressError{Address: hex.EncodeToString(raw), Reason: "raw address must be 21 bytes with 0x41 prefix"}
	}
	payload := make([]byte, 0, rawAddressLen+checksumLength)
	payload = append(payload, raw...)
	payload = append(payload, checksum(raw)...)
	return base58.EncodeToString(payload), nil
}

// ValidateAddress 是否为合法的 Tron 地址
func ValidateAddress(address string) bool {
	_, err := DecodeAddress(address)
	return err == nil
}

// toEVMAddress 去掉 0x41 前缀得到 20 字节地址
func toEVMAddress(address string) (common.Address, error) {
	raw, err := DecodeAddress(address)
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(raw[1:]), nil
}

func checksum(payload []byte) []byte {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return second[:checksumLength]
}
