package payout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/config"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/payout/model"
	"github.com/stretchr/testify/require"
)

// stubStore 内存余额库桩，记录 Apply 收到的全部操作
type stubStore struct {
	mu       sync.Mutex
	keys     []string
	balances map[string]int64
	levels   map[string]int64
	applied  [][]model.Mutation
	applyErr error
}

func (s *stubStore) WorkerKeys(context.Context) ([]string, error) { return s.keys, nil }

func (s *stubStore) FetchBalances(context.Context, []string) (map[string]int64, error) {
	out := make(map[string]int64, len(s.balances))
	for k, v := range s.balances {
		out[k] = v
	}
	return out, nil
}

func (s *stubStore) FetchPayoutLevels(context.Context, []string) (map[string]int64, error) {
	out := make(map[string]int64, len(s.levels))
	for k, v := range s.levels {
		out[k] = v
	}
	return out, nil
}

func (s *stubStore) Apply(_ context.Context, muts []model.Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return s.applyErr
	}
	s.applied = append(s.applied, muts)
	return nil
}

func newDispatcherConfig() *config.PayoutsConfig {
	cfg := &config.PayoutsConfig{}
	cfg.Coin.Name = "testcoin"
	cfg.Payments.Parallelism = 2
	return cfg
}

func TestDispatchSuccess(t *testing.T) {
	store := &stubStore{}
	wallet := &stubWallet{
		rpcFunc: func(method string, params any, result any) error {
			require.Equal(t, "transfer", method)
			return fillResult(result, map[string]any{"tx_hash": "<txABC>", "fee": 40})
		},
	}
	d := NewDispatcher(wallet, defaultProtocol{}, NewUpdater(store), newDispatcherConfig())

	key := WorkerKey("testcoin", "addrA")
	cmd := &model.TransferCommand{
		Destinations: []model.Destination{{Amount: 1000, Address: "addrA"}},
		Amount:       1000,
		Mixin:        3,
		Payees: []model.Payee{
			{Worker: "addrA", Address: "addrA", RecordAddress: "addrA", Amount: 1000, Fee: 40},
		},
		Mutations: []model.Mutation{
			{Kind: model.MutHashIncr, Key: key, Field: "paid", Delta: 1000},
			{Kind: model.MutHashIncr, Key: key, Field: "balance", Delta: -1000},
		},
	}

	outcome := d.Run(context.Background(), []*model.TransferCommand{cmd})
	require.Equal(t, 1, outcome.Sent)
	require.Zero(t, outcome.Failed)
	require.Zero(t, outcome.Critical)

	// 交易哈希去掉包裹定界符后回填
	require.Len(t, outcome.Paid, 1)
	require.Equal(t, "txABC", outcome.Paid[0].TxHash)
	require.Len(t, outcome.Records, 1)
	require.Equal(t, "txABC", outcome.Records[0].TxHash)
	require.Equal(t, int64(40), outcome.Records[0].Fee)

	// 记账清单 = 原扣账操作 + 全池流水 + 单地址流水
	require.Len(t, store.applied, 1)
	muts := store.applied[0]
	require.Len(t, muts, 4)
	require.Equal(t, PaymentsAllKey("testcoin"), muts[2].Key)
	require.Equal(t, "txABC:1000:40:3:1", muts[2].Member)
	require.Equal(t, PaymentsAddrKey("testcoin", "addrA"), muts[3].Key)
	require.Equal(t, "txABC:1000:40:3", muts[3].Member)
}

func TestDispatchWalletRejection(t *testing.T) {
	store := &stubStore{}
	wallet := &stubWallet{
		rpcFunc: func(string, any, any) error {
			return errors.New("wallet unavailable")
		},
	}
	d := NewDispatcher(wallet, defaultProtocol{}, NewUpdater(store), newDispatcherConfig())

	cmd := &model.TransferCommand{
		Destinations: []model.Destination{{Amount: 1000, Address: "addrA"}},
		Amount:       1000,
	}
	outcome := d.Run(context.Background(), []*model.TransferCommand{cmd})

	// 发送失败时余额分毫未动
	require.Equal(t, 1, outcome.Failed)
	require.Zero(t, outcome.Sent)
	require.Zero(t, outcome.Critical)
	require.Empty(t, store.applied)
}

func TestDispatchUnreadableReplyIsCritical(t *testing.T) {
	store := &stubStore{}
	wallet := &stubWallet{
		rpcFunc: func(method string, params any, result any) error {
			// 2xx 但响应里没有交易哈希
			return fillResult(result, map[string]any{"fee": 40})
		},
	}
	d := NewDispatcher(wallet, defaultProtocol{}, NewUpdater(store), newDispatcherConfig())

	cmd := &model.TransferCommand{
		Destinations: []model.Destination{{Amount: 1000, Address: "addrA"}},
		Amount:       1000,
	}
	outcome := d.Run(context.Background(), []*model.TransferCommand{cmd})

	require.Equal(t, 1, outcome.Critical)
	require.Zero(t, outcome.Sent)
	require.Zero(t, outcome.Failed)
	require.Empty(t, store.applied)
}

func TestDispatchLedgerFailureIsCritical(t *testing.T) {
	store := &stubStore{applyErr: errors.New("redis down")}
	wallet := &stubWallet{
		rpcFunc: func(method string, params any, result any) error {
			return fillResult(result, map[string]any{"tx_hash": "txABC", "fee": 40})
		},
	}
	d := NewDispatcher(wallet, defaultProtocol{}, NewUpdater(store), newDispatcherConfig())

	cmd := &model.TransferCommand{
		Destinations: []model.Destination{{Amount: 1000, Address: "addrA"}},
		Amount:       1000,
	}
	outcome := d.Run(context.Background(), []*model.TransferCommand{cmd})

	// 已上链但记账失败：计入 critical，不计成功也不重试
	require.Equal(t, 1, outcome.Critical)
	require.Zero(t, outcome.Sent)
	require.Empty(t, outcome.Paid)
}

func TestDispatchTimestampsUniquePerBatch(t *testing.T) {
	store := &stubStore{}
	wallet := &stubWallet{
		rpcFunc: func(method string, params any, result any) error {
			return fillResult(result, map[string]any{"tx_hash": "txABC", "fee": 0})
		},
	}
	d := NewDispatcher(wallet, defaultProtocol{}, NewUpdater(store), newDispatcherConfig())

	cmds := []*model.TransferCommand{
		{Destinations: []model.Destination{{Amount: 1, Address: "a"}}, Amount: 1},
		{Destinations: []model.Destination{{Amount: 2, Address: "b"}}, Amount: 2},
		{Destinations: []model.Destination{{Amount: 3, Address: "c"}}, Amount: 3},
	}
	outcome := d.Run(context.Background(), cmds)
	require.Equal(t, 3, outcome.Sent)

	seen := make(map[int64]bool)
	for _, r := range outcome.Records {
		require.False(t, seen[r.Timestamp])
		seen[r.Timestamp] = true
	}
}

func TestUpdaterWrapsCriticalError(t *testing.T) {
	store := &stubStore{applyErr: errors.New("redis down")}
	u := NewUpdater(store)

	err := u.Apply(context.Background(), &model.TransferCommand{}, []model.Mutation{
		{Kind: model.MutHashIncr, Key: "k", Field: "balance", Delta: -1},
	})
	require.ErrorIs(t, err, ErrCriticalInconsistency)
}
