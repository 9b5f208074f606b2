package mq

import (
	"fmt"
	"os"
	"strings"

	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/logger"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/utils"
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// KafkaProducerConf 定义 Kafka 生产者配置（适合单 topic 场景）
// 所有时间相关参数单位均为毫秒
type KafkaProducerConf struct {
	Name               string   `json:"name" yaml:"name"`                                 // 用于标识用途，如 notify
	Brokers            []string `json:"brokers" yaml:"brokers"`                           // Kafka 集群 broker 地址列表
	Topic              string   `json:"topic" yaml:"topic"`                               // 写入的 topic 名称
	DeliveryTimeoutMs  int      `json:"delivery_timeout_ms" yaml:"delivery_timeout_ms"`   // 投递超时时间（ms）
	FlushTimeoutMs     int      `json:"flush_timeout_ms" yaml:"flush_timeout_ms"`         // 关闭前 flush 等待时间（ms）
	ReconnectBackoffMs int      `json:"reconnect_backoff_ms" yaml:"reconnect_backoff_ms"` // 重连延迟
	RetryBackoffMs     int      `json:"retry_backoff_ms" yaml:"retry_backoff_ms"`         // 发送失败重试间隔
}

// KafkaProducer 封装了单 topic 的异步生产逻辑
type KafkaProducer struct {
	Producer *kafka.Producer
	Conf     *KafkaProducerConf
	Done     chan struct{}
}

func buildClientID(service string) string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%s-%s", service, hostname, utils.GetLocalIP())
}

// NewKafkaProducer 创建并初始化生产者实例
func NewKafkaProducer(conf *KafkaProducerConf) (*KafkaProducer, error) {
	clientId := buildClientID(conf.Name)
	kconf := &kafka.ConfigMap{
		"bootstrap.servers":   strings.Join(conf.Brokers, ","),
		"client.id":           clientId,
		"acks":                "all",
		"delivery.timeout.ms": conf.DeliveryTimeoutMs,

		// 连接 & 重试相关
		"reconnect.backoff.ms": conf.ReconnectBackoffMs,
		"retry.backoff.ms":     conf.RetryBackoffMs,
	}
	p, err := kafka.NewProducer(kconf)
	if err != nil {
		logger.Errorf("kafka producer create error: %v", err)
		return nil, err
	}
	logger.Infof("kafka producer created, brokers=%v, topic=%s", conf.Brokers, conf.Topic)

	kp := &KafkaProducer{
		Producer: p,
		Conf:     conf,
		Done:     make(chan struct{}),
	}
	go kp.drainEvents()
	return kp, nil
}

// MustNewKafkaProducer 创建生产者，失败时 panic
func MustNewKafkaProducer(conf *KafkaProducerConf) *KafkaProducer {
	kp, err := NewKafkaProducer(conf)
	if err != nil {
		panic(fmt.Sprintf("failed to create kafka producer: %v", err))
	}
	return kp
}

// drainEvents 消费投递回执，失败只记录日志（通知类消息允许丢失）
func (kp *KafkaProducer) drainEvents() {
	for {
		select {
		case <-kp.Done:
			return
		case ev, ok := <-kp.Producer.Events():
			if !ok {
				return
			}
			if m, isMsg := ev.(*kafka.Message); isMsg && m.TopicPartition.Error != nil {
				logger.Errorf("kafka producer delivery failed, topic=%s, key=%s, err=%v",
					kp.Conf.Topic, string(m.Key), m.TopicPartition.Error)
			}
		}
	}
}

// Send 异步写入一条消息，key 用于分区路由
func (kp *KafkaProducer) Send(key, value []byte) error {
	return kp.Producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &kp.Conf.Topic, Partition: kafka.PartitionAny},
		Key:            key,
		Value:          value,
	}, nil)
}

// Close 优雅关闭：flush 未投递消息后释放资源
func (kp *KafkaProducer) Close() {
	flushMs := kp.Conf.FlushTimeoutMs
	if flushMs <= 0 {
		flushMs = 5000
	}
	remaining := kp.Producer.Flush(flushMs)
	if remaining > 0 {
		logger.Warnf("kafka producer closed with %d undelivered messages", remaining)
	}
	close(kp.Done)
	kp.Producer.Close()
	logger.Infof("kafka producer closed, topic=%s", kp.Conf.Topic)
}
