package payout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/config"
	"github.com/stretchr/testify/require"
)

// stubWallet 可编程的钱包桩，按 method/path 返回预设响应
type stubWallet struct {
	api      bool
	rpcFunc  func(method string, params any, result any) error
	apiFunc  func(path string, params any, result any) error
	rpcCalls int
	apiCalls int
}

func (s *stubWallet) IsAPI() bool { return s.api }

func (s *stubWallet) CallRPC(_ context.Context, method string, params any, result any) error {
	s.rpcCalls++
	if s.rpcFunc == nil {
		return errors.New("unexpected rpc call")
	}
	return s.rpcFunc(method, params, result)
}

func (s *stubWallet) CallAPI(_ context.Context, path string, params any, result any) error {
	s.apiCalls++
	if s.apiFunc == nil {
		return errors.New("unexpected api call")
	}
	return s.apiFunc(path, params, result)
}

// fillResult 用 JSON 往返填充 result 指针，模拟真实客户端的解码路径
func fillResult(result any, value any) error {
	if result == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, result)
}

func newFeesConfig() *config.PayoutsConfig {
	cfg := &config.PayoutsConfig{}
	cfg.Coin.Name = "testcoin"
	cfg.Payments.MinPayment = 1000
	cfg.Payments.TransferFee = 50
	cfg.Payments.MinerPayFee = true
	cfg.Payments.Parallelism = 2
	return cfg
}

func TestResolvePoolPaysFee(t *testing.T) {
	cfg := newFeesConfig()
	cfg.Payments.MinerPayFee = false
	f := NewFeeResolver(&stubWallet{}, newTestParser(), cfg)

	balances := map[string]int64{"a": 5000, "b": 3000}
	fees := f.Resolve(context.Background(), balances)

	require.Equal(t, map[string]int64{"a": 0, "b": 0}, fees)
	require.Equal(t, int64(5000), balances["a"])
}

func TestResolveStaticFee(t *testing.T) {
	cfg := newFeesConfig()
	f := NewFeeResolver(&stubWallet{api: false}, newTestParser(), cfg)

	balances := map[string]int64{"a": 5000, "zero": 0}
	fees := f.Resolve(context.Background(), balances)

	require.Equal(t, int64(50), fees["a"])
	require.Equal(t, int64(4950), balances["a"])
	require.Zero(t, fees["zero"])
	require.Zero(t, balances["zero"])
}

func TestResolveDynamicFee(t *testing.T) {
	cfg := newFeesConfig()
	wallet := &stubWallet{
		api: true,
		apiFunc: func(path string, params any, result any) error {
			require.Equal(t, "/transactions/prepare/basic", path)
			return fillResult(result, map[string]any{"fee": 77})
		},
	}
	f := NewFeeResolver(wallet, newTestParser(), cfg)

	balances := map[string]int64{"a": 5000}
	fees := f.Resolve(context.Background(), balances)

	require.Equal(t, int64(77), fees["a"])
	require.Equal(t, int64(4923), balances["a"])
	require.Equal(t, 1, wallet.apiCalls)
}

func TestResolveDynamicFeeSkipsBelowMinimum(t *testing.T) {
	cfg := newFeesConfig()
	wallet := &stubWallet{api: true}
	f := NewFeeResolver(wallet, newTestParser(), cfg)

	// 低于起付额的不发估算请求
	balances := map[string]int64{"small": 500}
	fees := f.Resolve(context.Background(), balances)

	require.Zero(t, fees["small"])
	require.Zero(t, wallet.apiCalls)
}

func TestResolveDynamicFeeFallback(t *testing.T) {
	cfg := newFeesConfig()
	wallet := &stubWallet{
		api: true,
		apiFunc: func(string, any, any) error {
			return errors.New("connection refused")
		},
	}
	f := NewFeeResolver(wallet, newTestParser(), cfg)

	balances := map[string]int64{"a": 5000}
	fees := f.Resolve(context.Background(), balances)

	// 估算失败回退静态手续费
	require.Equal(t, int64(50), fees["a"])
	require.Equal(t, int64(4950), balances["a"])
}
