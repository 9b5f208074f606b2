package payout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/payout/model"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/utils"
	"github.com/redis/go-redis/v9"
)

// Store 余额库访问接口。实现必须保证 Apply 的整组操作原子生效
type Store interface {
	WorkerKeys(ctx context.Context) ([]string, error)
	FetchBalances(ctx context.Context, keys []string) (map[string]int64, error)
	FetchPayoutLevels(ctx context.Context, keys []string) (map[string]int64, error)
	Apply(ctx context.Context, muts []model.Mutation) error
}

// RedisStore 基于 redis 的余额库实现，key 布局与历史部署保持兼容：
// {coin}:workers:{workerId} 为 hash（balance / minPayoutLevel / paid），
// {coin}:payments:all 与 {coin}:payments:{address} 为按时间戳排序的支付流水
type RedisStore struct {
	rdb  redis.UniversalClient
	coin string
}

func NewRedisStore(rdb redis.UniversalClient, coin string) *RedisStore {
	return &RedisStore{rdb: rdb, coin: coin}
}

// WorkerKey 拼接 worker hash 的 redis key
func WorkerKey(coin, worker string) string {
	return coin + ":workers:" + worker
}

// PaymentsAllKey 全池支付流水 key
func PaymentsAllKey(coin string) string {
	return coin + ":payments:all"
}

// PaymentsAddrKey 单地址支付流水 key
func PaymentsAddrKey(coin, address string) string {
	return coin + ":payments:" + address
}

// WorkerIDFromKey 从 worker hash key 还原 worker id
func WorkerIDFromKey(key string) string {
	parts := strings.Split(key, ":")
	return parts[len(parts)-1]
}

// FormatPoolRecord 全池流水的 wire 格式：txHash:amount:fee:mixin:destCount
func FormatPoolRecord(r model.PaymentRecord) string {
	return strings.Join([]string{
		r.TxHash,
		strconv.FormatInt(r.Amount, 10),
		strconv.FormatInt(r.Fee, 10),
		strconv.Itoa(r.Mixin),
		strconv.Itoa(r.DestCount),
	}, ":")
}

// FormatAddressRecord 单地址流水的 wire 格式：txHash:amount:fee:mixin
func FormatAddressRecord(txHash string, amount, fee int64, mixin int) string {
	return strings.Join([]string{
		txHash,
		strconv.FormatInt(amount, 10),
		strconv.FormatInt(fee, 10),
		strconv.Itoa(mixin),
	}, ":")
}

func (s *RedisStore) WorkerKeys(ctx context.Context) ([]string, error) {
	keys, err := s.rdb.Keys(ctx, WorkerKey(s.coin, "*")).Result()
	if err != nil {
		return nil, fmt.Errorf("redis keys: %w", err)
	}
	return keys, nil
}

func (s *RedisStore) FetchBalances(ctx context.Context, keys []string) (map[string]int64, error) {
	return s.fetchField(ctx, keys, "balance")
}

func (s *RedisStore) FetchPayoutLevels(ctx context.Context, keys []string) (map[string]int64, error) {
	return s.fetchField(ctx, keys, "minPayoutLevel")
}

// fetchField 一次 pipeline 批量读取所有 worker 的同名 hash 字段。
// 字段缺失或不可解析按 0 处理（与并发写入的已知竞争，按无余额对待）
func (s *RedisStore) fetchField(ctx context.Context, keys []string, field string) (map[string]int64, error) {
	out := make(map[string]int64, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, key := range keys {
		cmds[i] = pipe.HGet(ctx, key, field)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis pipeline hget %s: %w", field, err)
	}

	for i, cmd := range cmds {
		val, err := cmd.Result()
		if err != nil {
			val = "" // redis.Nil → 0
		}
		out[WorkerIDFromKey(keys[i])] = utils.ParseInt64(val)
	}
	return out, nil
}

// Apply 以 TxPipeline（MULTI/EXEC）原子执行整组记账操作
func (s *RedisStore) Apply(ctx context.Context, muts []model.Mutation) error {
	if len(muts) == 0 {
		return nil
	}

	tx := s.rdb.TxPipeline()
	for _, m := range muts {
		switch m.Kind {
		case model.MutHashIncr:
			tx.HIncrBy(ctx, m.Key, m.Field, m.Delta)
		case model.MutAppendRecord:
			tx.ZAdd(ctx, m.Key, redis.Z{Score: float64(m.Score), Member: m.Member})
		default:
			return fmt.Errorf("unknown mutation kind: %d", m.Kind)
		}
	}
	if _, err := tx.Exec(ctx); err != nil {
		return fmt.Errorf("redis tx exec: %w", err)
	}
	return nil
}
