package payout

import (
	"context"
	"encoding/json"

	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/logger"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/mq"
	iutils "github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/utils"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/pkg/utils"
)

// Notifier 支付完成后的外部通知。通知失败不影响记账结果
type Notifier interface {
	Notify(ctx context.Context, address, event string, params map[string]string) error
}

// NopNotifier 通知关闭时的空实现
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, string, map[string]string) error { return nil }

// KafkaNotifier 把支付事件投递到 Kafka，key 取矿工地址保证同地址事件有序
type KafkaNotifier struct {
	producer *mq.KafkaProducer
}

func NewKafkaNotifier(producer *mq.KafkaProducer) *KafkaNotifier {
	return &KafkaNotifier{producer: producer}
}

type notifyEvent struct {
	EventID uint64            `json:"event_id"`
	Event   string            `json:"event"`
	Address string            `json:"address"`
	Params  map[string]string `json:"params"`
}

func (n *KafkaNotifier) Notify(_ context.Context, address, event string, params map[string]string) error {
	payload := notifyEvent{
		EventID: utils.NotifyEventID(params["TXID"], address),
		Event:   event,
		Address: address,
		Params:  params,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if err := n.producer.Send([]byte(address), data); err != nil {
		logger.Warnf("failed to publish %s event for %s: %v", event, iutils.TruncateAddress(address), err)
		return err
	}
	return nil
}
