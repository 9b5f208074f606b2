package payout

import (
	"strings"
	"testing"

	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/config"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/payout/model"
	"github.com/stretchr/testify/require"
)

func newTestBatcher(maxAddresses int, maxTxAmount int64) *Batcher {
	cfg := &config.PayoutsConfig{}
	cfg.Coin.Name = "testcoin"
	cfg.Payments.MaxAddresses = maxAddresses
	cfg.Payments.MaxTransactionAmount = maxTxAmount
	cfg.Payments.Mixin = 3
	cfg.Payments.Priority = 1
	cfg.PoolServer.PaymentId.AddressSeparator = "+"
	return NewBatcher(newTestParser(), cfg)
}

func TestBuildSingleBatch(t *testing.T) {
	b := newTestBatcher(10, 0)

	cmds := b.Build(
		map[string]int64{"addrA": 1000, "addrB": 2000},
		map[string]int64{"addrA": 10, "addrB": 10},
	)
	require.Len(t, cmds, 1)

	cmd := cmds[0]
	require.Equal(t, int64(3000), cmd.Amount)
	require.Equal(t, 3, cmd.Mixin)
	require.Equal(t, 1, cmd.Priority)
	require.Zero(t, cmd.UnlockTime)
	require.Len(t, cmd.Destinations, 2)

	// 遍历顺序为字典序，批次内容确定
	require.Equal(t, "addrA", cmd.Destinations[0].Address)
	require.Equal(t, "addrB", cmd.Destinations[1].Address)
}

func TestBuildSplitsOnMaxAddresses(t *testing.T) {
	b := newTestBatcher(2, 0)

	cmds := b.Build(
		map[string]int64{"a1": 100, "a2": 100, "a3": 100, "a4": 100, "a5": 100},
		map[string]int64{},
	)
	require.Len(t, cmds, 3)
	require.Len(t, cmds[0].Destinations, 2)
	require.Len(t, cmds[1].Destinations, 2)
	require.Len(t, cmds[2].Destinations, 1)
}

func TestBuildPaymentIDExclusive(t *testing.T) {
	b := newTestBatcher(10, 0)
	pid := strings.Repeat("ab", 8)

	cmds := b.Build(
		map[string]int64{
			"addrA":        100,
			"addrB+" + pid: 200,
			"addrC":        300,
		},
		map[string]int64{},
	)
	require.Len(t, cmds, 3)

	// 带 payment id 的目标独占一笔交易
	var pidCmd *model.TransferCommand
	for _, cmd := range cmds {
		if cmd.PaymentID != "" {
			pidCmd = cmd
		}
	}
	require.NotNil(t, pidCmd)
	require.Equal(t, pid, pidCmd.PaymentID)
	require.Len(t, pidCmd.Destinations, 1)
	require.Equal(t, "addrB", pidCmd.Destinations[0].Address)
	// 历史记录用重新拼接后缀的地址
	require.Equal(t, "addrB+"+pid, pidCmd.Payees[0].RecordAddress)
}

func TestBuildIntegratedAddressExclusive(t *testing.T) {
	b := newTestBatcher(10, 0)

	// "24" 解码后前缀 tag 命中集成地址，无后缀也要独占一笔交易
	cmds := b.Build(
		map[string]int64{"24": 100, "addrA": 200, "addrB": 300},
		map[string]int64{},
	)
	require.Len(t, cmds, 2)

	require.Len(t, cmds[0].Destinations, 1)
	require.Equal(t, "24", cmds[0].Destinations[0].Address)
	// payment id 内嵌在地址里，交易级字段保持为空
	require.Empty(t, cmds[0].PaymentID)
	require.Equal(t, "24", cmds[0].Payees[0].RecordAddress)

	require.Len(t, cmds[1].Destinations, 2)
	require.Equal(t, "addrA", cmds[1].Destinations[0].Address)
	require.Equal(t, "addrB", cmds[1].Destinations[1].Address)
}

func TestBuildMaxTransactionAmountClamp(t *testing.T) {
	b := newTestBatcher(10, 1000)

	cmds := b.Build(
		map[string]int64{"addrA": 800, "addrB": 500},
		map[string]int64{},
	)
	require.Len(t, cmds, 1)

	// 第二个目标被截到 200，差额留在余额里下一轮补发
	require.Equal(t, int64(1000), cmds[0].Amount)
	require.Equal(t, int64(200), cmds[0].Destinations[1].Amount)
	require.Equal(t, int64(200), cmds[0].Payees[1].Amount)
}

func TestBuildClampedMutationsMatchSentAmount(t *testing.T) {
	b := newTestBatcher(10, 500)

	cmds := b.Build(
		map[string]int64{"addrA": 800},
		map[string]int64{"addrA": 10},
	)
	require.Len(t, cmds, 1)
	cmd := cmds[0]
	require.Equal(t, int64(500), cmd.Amount)

	// 扣账只扣实际发送的 500，未发送的 300 不动
	key := WorkerKey("testcoin", "addrA")
	require.Equal(t, []model.Mutation{
		{Kind: model.MutHashIncr, Key: key, Field: "paid", Delta: 500},
		{Kind: model.MutHashIncr, Key: key, Field: "balance", Delta: -500},
		{Kind: model.MutHashIncr, Key: key, Field: "balance", Delta: -10},
	}, cmd.Mutations)
}

func TestBuildNoFeeMutationWhenZero(t *testing.T) {
	b := newTestBatcher(10, 0)

	cmds := b.Build(map[string]int64{"addrA": 100}, map[string]int64{})
	require.Len(t, cmds, 1)
	require.Len(t, cmds[0].Mutations, 2)
	for _, m := range cmds[0].Mutations {
		require.Equal(t, model.MutHashIncr, m.Kind)
	}
}

func TestBuildDeterministicOrder(t *testing.T) {
	b := newTestBatcher(3, 0)
	payouts := map[string]int64{
		"z": 1, "y": 2, "x": 3, "w": 4, "v": 5,
	}

	first := b.Build(payouts, map[string]int64{})
	second := b.Build(payouts, map[string]int64{})
	require.Equal(t, first, second)
	require.Equal(t, "v", first[0].Destinations[0].Address)
}

func TestBuildEmpty(t *testing.T) {
	b := newTestBatcher(10, 0)
	require.Empty(t, b.Build(map[string]int64{}, map[string]int64{}))
}
