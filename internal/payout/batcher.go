package payout

import (
	"sort"

	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/config"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/payout/model"
)

// Batcher 把达标的应付金额打包成满足账本结构约束的聚合交易：
// 单笔目标数不超过 max_addresses，金额不超过 max_transaction_amount，
// 带 payment id 的目标独占一笔交易
type Batcher struct {
	coin         string
	maxAddresses int
	maxTxAmount  int64 // 0 表示不限
	mixin        int
	priority     int
	paymentIdSep string
	parser       *AddressParser
}

func NewBatcher(parser *AddressParser, cfg *config.PayoutsConfig) *Batcher {
	return &Batcher{
		coin:         cfg.Coin.Name,
		maxAddresses: cfg.Payments.MaxAddresses,
		maxTxAmount:  cfg.Payments.MaxTransactionAmount,
		mixin:        cfg.Payments.Mixin,
		priority:     cfg.Payments.Priority,
		paymentIdSep: cfg.PoolServer.PaymentId.AddressSeparator,
		parser:       parser,
	}
}

// Build 对达标 worker 做确定性单趟贪心打包。
// 遍历顺序固定为 worker id 字典序，同样的输入产出同样的批次
func (b *Batcher) Build(payouts, fees map[string]int64) []*model.TransferCommand {
	workers := make([]string, 0, len(payouts))
	for worker := range payouts {
		workers = append(workers, worker)
	}
	sort.Strings(workers)

	var cmds []*model.TransferCommand
	var current *model.TransferCommand

	closeCurrent := func() {
		if current != nil && len(current.Destinations) > 0 {
			cmds = append(cmds, current)
		}
		current = nil
	}

	for _, worker := range workers {
		parsed := b.parser.Parse(worker)

		// 带 payment id 的目标不能与已有目标同笔，先封板当前批次
		if parsed.WithPaymentID && current != nil && len(current.Destinations) > 0 {
			closeCurrent()
		}

		if current == nil {
			current = &model.TransferCommand{
				Mixin:    b.mixin,
				Priority: b.priority,
			}
		}

		// 金额截断保证批次总额不破单笔上限；
		// 未发送的差额不生成扣账操作，留在余额里下一轮补发
		amount := payouts[worker]
		if b.maxTxAmount > 0 && current.Amount+amount > b.maxTxAmount {
			amount = b.maxTxAmount - current.Amount
		}
		if amount <= 0 {
			continue
		}

		recordAddress := parsed.Address
		if parsed.PaymentID != "" {
			recordAddress = parsed.Address + b.paymentIdSep + parsed.PaymentID
		}

		fee := fees[worker]
		workerKey := WorkerKey(b.coin, worker)

		current.Destinations = append(current.Destinations, model.Destination{
			Amount:  amount,
			Address: parsed.Address,
		})
		current.Payees = append(current.Payees, model.Payee{
			Worker:        worker,
			Address:       parsed.Address,
			RecordAddress: recordAddress,
			Amount:        amount,
			Fee:           fee,
		})
		current.Mutations = append(current.Mutations,
			model.Mutation{Kind: model.MutHashIncr, Key: workerKey, Field: "paid", Delta: amount},
			model.Mutation{Kind: model.MutHashIncr, Key: workerKey, Field: "balance", Delta: -amount},
		)
		if fee > 0 {
			current.Mutations = append(current.Mutations,
				model.Mutation{Kind: model.MutHashIncr, Key: workerKey, Field: "balance", Delta: -fee})
		}
		current.Amount += amount
		if parsed.PaymentID != "" {
			current.PaymentID = parsed.PaymentID
		}

		// 封板条件：目标数达到上限 / 金额达到上限 / 目标带 payment id
		if len(current.Destinations) >= b.maxAddresses ||
			(b.maxTxAmount > 0 && current.Amount >= b.maxTxAmount) ||
			parsed.WithPaymentID {
			closeCurrent()
		}
	}
	closeCurrent()

	return cmds
}
