package config

import (
	"fmt"
	"time"

	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/logger"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/mq"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/walletrpc"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/xredis"
)

type MonitorConfig struct {
	Port int `json:"port" yaml:"port"` // 监控端口，0 表示关闭
}

type LogConfig struct {
	Format   string `yaml:"format"`   // 日志格式，可选 "console"（开发调试）或 "json"（结构化，推荐生产使用）
	LogDir   string `yaml:"log_dir"`  // 日志文件目录，可为相对路径或绝对路径
	Level    string `yaml:"level"`    // 日志级别：debug / info / warn / error
	Compress bool   `yaml:"compress"` // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

type CoinConf struct {
	Name          string `yaml:"name"`           // 币种名，同时作为 redis key 前缀（如 "snowflake"）
	Units         int64  `yaml:"units"`          // 1 coin 对应的最小单位数（如 1e12）
	DecimalPlaces int    `yaml:"decimal_places"` // 对外展示保留的小数位
}

type DaemonConf struct {
	Host string `yaml:"host"` // 链上守护进程主机（wallet-api 开钱包时需要）
	Port int    `yaml:"port"` // 链上守护进程端口
}

type PaymentsConf struct {
	Interval             time.Duration `yaml:"interval"`               // 两轮支付之间的固定间隔
	StartDelay           time.Duration `yaml:"start_delay"`            // 启动后首轮支付前的等待时间
	MinPayment           int64         `yaml:"min_payment"`            // 全池最低起付额（最小单位）
	MaxPayment           int64         `yaml:"max_payment"`            // 个人起付额上限，0 表示不限
	Denomination         int64         `yaml:"denomination"`           // 支付粒度，余额截断到其整数倍
	MaxAddresses         int           `yaml:"max_addresses"`          // 单笔交易最多目标地址数
	MaxTransactionAmount int64         `yaml:"max_transaction_amount"` // 单笔交易金额上限，0 表示不限
	Mixin                int           `yaml:"mixin"`                  // 交易混淆度
	Priority             int           `yaml:"priority"`               // 交易优先级
	TransferFee          int64         `yaml:"transfer_fee"`           // 静态转账手续费（最小单位）
	MinerPayFee          bool          `yaml:"miner_pay_fee"`          // 是否由矿工承担手续费
	Parallelism          int           `yaml:"parallelism"`            // 费用估算与交易发送的最大并发数
}

type PaymentIdConf struct {
	AddressSeparator string `yaml:"address_separator"` // 地址与 payment id 的分隔符，默认 "+"
}

type FixedDiffConf struct {
	Enabled          bool   `yaml:"enabled"`           // 是否启用固定难度后缀
	AddressSeparator string `yaml:"address_separator"` // 地址与固定难度的分隔符
}

type PoolServerConf struct {
	PaymentId        PaymentIdConf `yaml:"payment_id"`
	FixedDiff        FixedDiffConf `yaml:"fixed_diff"`
	IntAddressPrefix uint64        `yaml:"int_address_prefix"` // 集成地址的 base58 前缀 tag
}

type NotifyConf struct {
	Enabled bool                 `yaml:"enabled"` // 是否发送支付通知
	Kafka   mq.KafkaProducerConf `yaml:"kafka"`   // 通知投递的 Kafka 生产者配置
}

type ArchiveConf struct {
	Enabled         bool   `yaml:"enabled"`            // 是否归档支付记录到关系库
	Dialect         string `yaml:"dialect"`            // mysql 或 pg
	User            string `yaml:"user"`               // 用户名
	Password        string `yaml:"password"`           // 密码
	Host            string `yaml:"host"`               // 主机名或 IP
	Port            int    `yaml:"port"`               // 端口
	Database        string `yaml:"database"`           // 数据库名
	Timeout         string `yaml:"timeout"`            // 初始连接超时时间（格式如 "5s"）
	MaxOpenConns    int    `yaml:"max_open_conns"`     // 最大连接数
	MaxIdleConns    int    `yaml:"max_idle_conns"`     // 最大空闲连接数
	ConnMaxIdleTime string `yaml:"conn_max_idle_time"` // 空闲连接最大保持时间（如 "5m"）
}

type PayoutsConfig struct {
	Monitor    MonitorConfig        `yaml:"monitor"`       // 监控配置
	LogConf    LogConfig            `yaml:"logger"`        // 日志配置
	Coin       CoinConf             `yaml:"coin"`          // 币种配置
	Redis      xredis.RedisConfig   `yaml:"redis"`         // 余额库配置
	Wallet     walletrpc.WalletConf `yaml:"wallet"`        // 钱包守护进程配置
	Daemon     DaemonConf           `yaml:"daemon"`        // 链上守护进程配置
	DaemonType string               `yaml:"daemon_type"`   // default / bytecoin / snowflake
	Payments   PaymentsConf         `yaml:"payments"`      // 支付参数
	PoolServer PoolServerConf       `yaml:"pool_server"`   // 地址解析相关配置
	Notify     NotifyConf           `yaml:"notifications"` // 支付通知配置
	Archive    ArchiveConf          `yaml:"archive"`       // 支付记录归档配置
}

// EnsureDefaults 补齐缺省配置项，与历史部署保持兼容
func (c *PayoutsConfig) EnsureDefaults() {
	if c.PoolServer.PaymentId.AddressSeparator == "" {
		c.PoolServer.PaymentId.AddressSeparator = "+"
	}
	if c.Payments.Interval <= 0 {
		c.Payments.Interval = 10 * time.Minute
	}
	if c.Payments.StartDelay <= 0 {
		c.Payments.StartDelay = 5 * time.Second
	}
	if c.Payments.Parallelism <= 0 {
		c.Payments.Parallelism = 4
	}
	if c.Coin.Units <= 0 {
		c.Coin.Units = 1
	}
}

// Validate 校验启动必需的配置项
func (c *PayoutsConfig) Validate() error {
	if c.Coin.Name == "" {
		return fmt.Errorf("coin.name is required")
	}
	if c.Payments.Denomination <= 0 {
		return fmt.Errorf("payments.denomination must be positive")
	}
	if c.Payments.MaxAddresses <= 0 {
		return fmt.Errorf("payments.max_addresses must be positive")
	}
	if c.Payments.MinPayment <= 0 {
		return fmt.Errorf("payments.min_payment must be positive")
	}
	if c.Payments.MaxPayment > 0 && c.Payments.MaxPayment < c.Payments.MinPayment {
		return fmt.Errorf("payments.max_payment must be >= payments.min_payment")
	}
	return nil
}
