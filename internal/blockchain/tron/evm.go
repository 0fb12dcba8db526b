package tron

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// NewEVMClient 连接 Tron 的 EVM 兼容 JSON-RPC
func NewEVMClient(ctx context.Context, url string, hc *http.Client) (*ethclient.Client, error) {
	opts := []rpc.ClientOption{}
	if hc != nil {
		opts = append(opts, rpc.WithHTTPClient(hc))
	}
	c, err := rpc.DialOptions(ctx, url, opts...)
	if err != nil {
		return nil, err
	}
	return ethclient.NewClient(c), nil
}
