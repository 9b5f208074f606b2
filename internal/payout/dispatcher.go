package payout

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/config"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/payout/model"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/logger"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/pkg/utils"
)

// DispatchOutcome 一轮所有批次发送完成后的汇总
type DispatchOutcome struct {
	Sent     int                   // 发送且记账成功的批次数
	Failed   int                   // 被钱包拒绝的批次数（余额未动，下一轮重试）
	Critical int                   // 已上链但记账失败的批次数
	Paid     []model.Payee         // 成功入账的收款目标（通知与汇总用）
	Records  []model.PaymentRecord // 成功批次的审计记录（归档用）
}

// batchResult 单个批次的发送结果
type batchResult struct {
	payees   []model.Payee
	record   model.PaymentRecord
	sent     bool
	critical bool
}

// Dispatcher 把聚合交易逐批提交给钱包守护进程。
// 批次之间相互独立，受控并发发送；汇总步骤等待全部批次返回后才执行
type Dispatcher struct {
	wallet      WalletClient
	protocol    LedgerProtocol
	updater     *Updater
	coin        string
	parallelism int
}

func NewDispatcher(wallet WalletClient, protocol LedgerProtocol, updater *Updater, cfg *config.PayoutsConfig) *Dispatcher {
	return &Dispatcher{
		wallet:      wallet,
		protocol:    protocol,
		updater:     updater,
		coin:        cfg.Coin.Name,
		parallelism: cfg.Payments.Parallelism,
	}
}

type indexedCmd struct {
	index int
	cmd   *model.TransferCommand
}

// Run 发送全部批次并逐批记账，返回汇总结果。
// 时间戳取周期基准时间加批次序号，保证同周期内流水 key 唯一
func (d *Dispatcher) Run(ctx context.Context, cmds []*model.TransferCommand) DispatchOutcome {
	cycleBase := nowFunc().Unix()

	indexed := make([]indexedCmd, len(cmds))
	for i, cmd := range cmds {
		indexed[i] = indexedCmd{index: i, cmd: cmd}
	}

	results := utils.ParallelMap(indexed, d.parallelism,
		func() context.Context { return ctx },
		func(ctx context.Context, in indexedCmd) batchResult {
			return d.dispatchOne(ctx, in.cmd, cycleBase+int64(in.index))
		})

	var outcome DispatchOutcome
	for _, r := range results {
		switch {
		case r.critical:
			outcome.Critical++
		case r.sent:
			outcome.Sent++
			outcome.Paid = append(outcome.Paid, r.payees...)
			outcome.Records = append(outcome.Records, r.record)
		default:
			outcome.Failed++
		}
	}
	return outcome
}

// dispatchOne 发送单个批次：RPC 失败时余额分毫未动；
// RPC 成功后构造审计记录并把完整记账清单交给 Updater 原子落库
func (d *Dispatcher) dispatchOne(ctx context.Context, cmd *model.TransferCommand, timestamp int64) batchResult {
	req := d.protocol.BuildRequest(cmd)

	var raw json.RawMessage
	var err error
	begin := nowFunc()
	if req.Method != "" {
		err = d.wallet.CallRPC(ctx, req.Method, req.Payload, &raw)
	} else {
		err = d.wallet.CallAPI(ctx, req.Path, req.Payload, &raw)
	}
	observeWalletLatency(d.protocol.Name(), nowFunc().Sub(begin))

	if err != nil {
		metricBatchesFailed.Inc()
		logger.Errorf("Error with %s request to wallet daemon: %v", d.protocol.Name(), err)
		logger.Errorf("Payments failed to send to %+v", cmd.Destinations)
		return batchResult{}
	}

	txHash, feePaid, err := d.protocol.ParseReply(raw)
	if err != nil {
		// 响应 2xx 但无法解析：资金可能已转出而哈希未知，按临界故障处理
		metricCriticalFailures.Inc()
		logger.Errorf("Super critical error! Wallet accepted %s but reply is unreadable, manual check required: %v", d.protocol.Name(), err)
		logger.Errorf("Destinations possibly paid without record: %+v", cmd.Destinations)
		return batchResult{critical: true}
	}
	txHash = strings.Trim(txHash, "<>")

	record := model.PaymentRecord{
		TxHash:    txHash,
		Amount:    cmd.Amount,
		Fee:       feePaid,
		Mixin:     cmd.Mixin,
		DestCount: len(cmd.Destinations),
		Timestamp: timestamp,
	}

	muts := make([]model.Mutation, 0, len(cmd.Mutations)+1+len(cmd.Payees))
	muts = append(muts, cmd.Mutations...)
	muts = append(muts, model.Mutation{
		Kind:   model.MutAppendRecord,
		Key:    PaymentsAllKey(d.coin),
		Score:  timestamp,
		Member: FormatPoolRecord(record),
	})

	payees := make([]model.Payee, len(cmd.Payees))
	for i, payee := range cmd.Payees {
		payee.TxHash = txHash
		payees[i] = payee
		muts = append(muts, model.Mutation{
			Kind:   model.MutAppendRecord,
			Key:    PaymentsAddrKey(d.coin, payee.RecordAddress),
			Score:  timestamp,
			Member: FormatAddressRecord(txHash, payee.Amount, feePaid, cmd.Mixin),
		})
	}

	if err := d.updater.Apply(ctx, cmd, muts); err != nil {
		if !errors.Is(err, ErrCriticalInconsistency) {
			logger.Errorf("unexpected updater error: %v", err)
		}
		return batchResult{critical: true}
	}

	logger.Infof("Payments sent via wallet daemon, tx=%s, amount=%d, fee=%d, destinations=%d",
		txHash, cmd.Amount, feePaid, len(cmd.Destinations))
	metricBatchesSent.Inc()
	metricAmountPaid.Add(float64(cmd.Amount))
	metricWorkersPaid.Add(float64(len(cmd.Payees)))

	return batchResult{payees: payees, record: record, sent: true}
}
