package svc

import (
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/config"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/db"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/mq"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/walletrpc"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/xredis"
	"github.com/redis/go-redis/v9"
)

type PayoutServiceContext struct {
	Cfg      *config.PayoutsConfig
	Redis    redis.UniversalClient
	Wallet   *walletrpc.Client
	Archive  *db.DBClient      // 归档关闭时为 nil
	Notifier *mq.KafkaProducer // 通知关闭时为 nil
}

func NewPayoutServiceContext(c *config.PayoutsConfig) *PayoutServiceContext {
	sc := &PayoutServiceContext{
		Cfg:    c,
		Redis:  xredis.MustSetup(&c.Redis),
		Wallet: walletrpc.NewClient(&c.Wallet),
	}

	if c.Archive.Enabled {
		sc.Archive = MustInitArchive(&c.Archive)
	}
	if c.Notify.Enabled {
		sc.Notifier = mq.MustNewKafkaProducer(&c.Notify.Kafka)
	}
	return sc
}

func (sc *PayoutServiceContext) Close() {
	if sc.Notifier != nil {
		sc.Notifier.Close()
	}
	if sc.Redis != nil {
		_ = sc.Redis.Close()
	}
}
