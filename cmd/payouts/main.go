package main

import (
	"flag"
	"fmt"
	"runtime/debug"

	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/archive"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/config"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/payout"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/configloader"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/logger"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/monitor"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/svc"
	"github.com/zeromicro/go-zero/core/logx"
	zerosvc "github.com/zeromicro/go-zero/core/service"
)

var configFile = flag.String("f", "etc/payouts.yaml", "the config file")

func main() {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("panic: %+v\nstack: %s", r, debug.Stack())
		}
	}()
	defer logger.Sync()

	flag.Parse()
	logger.Infof("Loading config from %s", *configFile)

	// 加载配置
	var c config.PayoutsConfig
	if err := configloader.LoadConfig(*configFile, &c); err != nil {
		panic(fmt.Sprintf("配置加载失败: %v", err))
	}
	c.EnsureDefaults()
	if err := c.Validate(); err != nil {
		panic(fmt.Errorf("配置错误: %w", err))
	}

	// 初始化 zap 日志
	logger.InitLogger(c.LogConf.ToLogOption())
	logx.SetWriter(logger.ZapWriter{})

	// 初始化依赖注入上下文
	svcCtx := svc.NewPayoutServiceContext(&c)
	defer svcCtx.Close()

	// 按守护进程类型选定记账协议
	protocol, err := payout.SelectProtocol(c.DaemonType, svcCtx.Wallet.IsAPI())
	if err != nil {
		logger.Errorf("无效的 daemon_type: %s", c.DaemonType)
		panic(fmt.Errorf("配置错误: %w", err))
	}

	// 组装支付流水线
	store := payout.NewRedisStore(svcCtx.Redis, c.Coin.Name)
	fixedDiffSep := ""
	if c.PoolServer.FixedDiff.Enabled {
		fixedDiffSep = c.PoolServer.FixedDiff.AddressSeparator
	}
	parser := payout.NewAddressParser(c.PoolServer.PaymentId.AddressSeparator, fixedDiffSep, c.PoolServer.IntAddressPrefix)
	collector := payout.NewCollector(store, &c)
	fees := payout.NewFeeResolver(svcCtx.Wallet, parser, &c)
	selector := payout.NewSelector(c.Payments.Denomination)
	batcher := payout.NewBatcher(parser, &c)
	updater := payout.NewUpdater(store)
	dispatcher := payout.NewDispatcher(svcCtx.Wallet, protocol, updater, &c)

	var notifier payout.Notifier = payout.NopNotifier{}
	if svcCtx.Notifier != nil {
		notifier = payout.NewKafkaNotifier(svcCtx.Notifier)
	}

	var archiver payout.Archiver
	if svcCtx.Archive != nil {
		archiver = archive.NewWriter(svcCtx.Archive, c.Coin.Name)
	}

	scheduler := payout.NewScheduler(&c, svcCtx.Wallet, collector, fees, selector, batcher, dispatcher, notifier, archiver)

	// 构造 go-zero ServiceGroup 管理服务
	sg := zerosvc.NewServiceGroup()
	sg.Add(scheduler)

	if c.Monitor.Port > 0 {
		monitorServer := monitor.NewMonitorServer(c.Monitor.Port)
		sg.Add(monitorServer)
	}

	logger.Infof("支付服务启动成功, coin=%s, interval=%s, daemon_type=%s",
		c.Coin.Name, c.Payments.Interval, c.DaemonType)
	sg.Start()
}
