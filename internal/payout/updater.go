package payout

import (
	"context"
	"errors"
	"fmt"

	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/payout/model"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/logger"
)

// ErrCriticalInconsistency 链上转账已成功但余额库记账失败。
// 资金已离开矿池而内部账本未更新，下一轮存在重复支付风险，
// 设计上不做自动补救（盲目重试会直接造成重复转账）
var ErrCriticalInconsistency = errors.New("payments sent but ledger update failed")

// Updater 在转账确认成功后，把批次的记账清单一次性原子写入余额库
type Updater struct {
	store Store
}

func NewUpdater(store Store) *Updater {
	return &Updater{store: store}
}

// Apply 原子执行余额扣减、累计支付递增与流水追加。
// 失败即为系统定义的最高严重级故障，完整打印目标清单便于人工核对
func (u *Updater) Apply(ctx context.Context, cmd *model.TransferCommand, muts []model.Mutation) error {
	if err := u.store.Apply(ctx, muts); err != nil {
		metricCriticalFailures.Inc()
		logger.Errorf("Super critical error! Payments sent yet failing to update balance in redis, double payouts likely to happen: %v", err)
		logger.Errorf("Double payments likely to be sent to %+v", cmd.Destinations)
		return fmt.Errorf("%w: %v", ErrCriticalInconsistency, err)
	}
	return nil
}
