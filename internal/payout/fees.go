package payout

import (
	"context"
	"sort"

	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/config"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/logger"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/pkg/utils"
)

// FeeResolver 计算每个 worker 本轮承担的手续费并从工作余额中扣除。
// wallet-api 模式下逐 worker 远程估算，估算失败回退到静态手续费
type FeeResolver struct {
	wallet WalletClient
	parser *AddressParser
	cfg    *config.PayoutsConfig
}

// prepareBasicRequest /transactions/prepare/basic 请求体
type prepareBasicRequest struct {
	Destination string `json:"destination"`
	Amount      int64  `json:"amount"`
	PaymentID   string `json:"paymentID"`
}

type prepareBasicReply struct {
	Fee int64 `json:"fee"`
}

func NewFeeResolver(wallet WalletClient, parser *AddressParser, cfg *config.PayoutsConfig) *FeeResolver {
	return &FeeResolver{wallet: wallet, parser: parser, cfg: cfg}
}

// Resolve 返回 workerId → 手续费，并把手续费从 balances 中就地扣除。
// balances 是本轮的工作副本，跨 worker 的计算顺序不影响结果
func (f *FeeResolver) Resolve(ctx context.Context, balances map[string]int64) map[string]int64 {
	fees := make(map[string]int64, len(balances))

	if !f.cfg.Payments.MinerPayFee {
		for worker := range balances {
			fees[worker] = 0
		}
		return fees
	}

	if !f.wallet.IsAPI() {
		// 无 wallet-api 时不做动态估算，正余额统一扣静态手续费
		for worker, balance := range balances {
			if balance > 0 {
				fees[worker] = f.cfg.Payments.TransferFee
				balances[worker] = balance - f.cfg.Payments.TransferFee
			} else {
				fees[worker] = 0
			}
		}
		return fees
	}

	workers := make([]string, 0, len(balances))
	for worker := range balances {
		workers = append(workers, worker)
	}
	sort.Strings(workers)

	estimated := utils.ParallelMap(workers, f.cfg.Payments.Parallelism,
		func() context.Context { return ctx },
		func(ctx context.Context, worker string) int64 {
			return f.estimate(ctx, worker, balances[worker])
		})

	for i, worker := range workers {
		fees[worker] = estimated[i]
		balances[worker] -= estimated[i]
	}
	return fees
}

// estimate 对单个 worker 做一次费用预估 RPC，失败时回退静态手续费
func (f *FeeResolver) estimate(ctx context.Context, worker string, balance int64) int64 {
	if balance <= f.cfg.Payments.MinPayment {
		return 0
	}

	req := prepareBasicRequest{
		Destination: f.parser.Parse(worker).Address,
		Amount:      balance,
		PaymentID:   "",
	}

	var reply prepareBasicReply
	begin := nowFunc()
	err := f.wallet.CallAPI(ctx, "/transactions/prepare/basic", req, &reply)
	observeWalletLatency("prepare", nowFunc().Sub(begin))
	if err != nil {
		logger.Errorf("** Error with transPrep request to wallet daemon %+v, falling back to static fee: %v", req, err)
		return f.cfg.Payments.TransferFee
	}
	return reply.Fee
}
