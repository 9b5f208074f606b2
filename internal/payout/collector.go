package payout

import (
	"context"
	"fmt"

	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/config"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/logger"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/utils"
)

// Collector 读取全量 worker 的余额与个人起付额。
// 余额库不可达时返回错误，由调度器放弃本轮
type Collector struct {
	store Store
	cfg   *config.PayoutsConfig
}

func NewCollector(store Store, cfg *config.PayoutsConfig) *Collector {
	return &Collector{store: store, cfg: cfg}
}

// Collect 返回 workerId → 余额、workerId → 生效起付额。
// 两次批量读取针对同一 key 集合；与并发写入竞争时缺失值按 0 处理
func (c *Collector) Collect(ctx context.Context) (map[string]int64, map[string]int64, error) {
	keys, err := c.store.WorkerKeys(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list workers: %w", err)
	}

	balances, err := c.store.FetchBalances(ctx, keys)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch balances: %w", err)
	}

	rawLevels, err := c.store.FetchPayoutLevels(ctx, keys)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch payout levels: %w", err)
	}

	minLevel := c.cfg.Payments.MinPayment
	maxLevel := c.cfg.Payments.MaxPayment

	levels := make(map[string]int64, len(rawLevels))
	for worker, raw := range rawLevels {
		level := raw
		if level == 0 {
			level = minLevel
		}
		if level < minLevel {
			level = minLevel
		}
		if maxLevel > 0 && level > maxLevel {
			level = maxLevel
		}
		levels[worker] = level

		if level != minLevel {
			logger.Infof("Using payout level of %s for %s (default: %s)",
				utils.FormatCoins(level, c.cfg.Coin.Units, c.cfg.Coin.DecimalPlaces),
				worker,
				utils.FormatCoins(minLevel, c.cfg.Coin.Units, c.cfg.Coin.DecimalPlaces))
		}
	}

	return balances, levels, nil
}
