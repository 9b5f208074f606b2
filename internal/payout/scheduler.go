package payout

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/config"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/payout/model"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/logger"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/utils"
)

// Archiver 把成功批次的审计记录落到关系库，失败只记日志
type Archiver interface {
	SavePayments(ctx context.Context, records []model.PaymentRecord, payees []model.Payee) error
}

// Scheduler 定时循环驱动整条支付流水线。
// 每轮结束后等固定间隔再起下一轮，轮次之间不重叠
type Scheduler struct {
	cfg        *config.PayoutsConfig
	wallet     WalletClient
	collector  *Collector
	fees       *FeeResolver
	selector   *Selector
	batcher    *Batcher
	dispatcher *Dispatcher
	notifier   Notifier
	archiver   Archiver

	done chan struct{}
	wg   sync.WaitGroup
}

func NewScheduler(
	cfg *config.PayoutsConfig,
	wallet WalletClient,
	collector *Collector,
	fees *FeeResolver,
	selector *Selector,
	batcher *Batcher,
	dispatcher *Dispatcher,
	notifier Notifier,
	archiver Archiver,
) *Scheduler {
	return &Scheduler{
		cfg:        cfg,
		wallet:     wallet,
		collector:  collector,
		fees:       fees,
		selector:   selector,
		batcher:    batcher,
		dispatcher: dispatcher,
		notifier:   notifier,
		archiver:   archiver,
		done:       make(chan struct{}),
	}
}

// Start 启动支付循环（非阻塞）
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.loop()
}

// Stop 优雅退出，等当前轮跑完
func (s *Scheduler) Stop() {
	close(s.done)
	s.wg.Wait()
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	if s.wallet.IsAPI() {
		s.openWallet()
	}

	// 启动延迟给矿池其他组件留出写入窗口
	if !s.sleep(s.cfg.Payments.StartDelay) {
		return
	}

	for {
		s.safeRunCycle()
		if !s.sleep(s.cfg.Payments.Interval) {
			return
		}
	}
}

// sleep 可被 Stop 打断的等待，返回 false 表示要退出
func (s *Scheduler) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-s.done:
		return false
	}
}

type openWalletRequest struct {
	DaemonHost string `json:"daemonHost"`
	DaemonPort int    `json:"daemonPort"`
	Filename   string `json:"filename"`
	Password   string `json:"password"`
}

// openWallet wallet-api 模式下先打开钱包文件，失败不致命（可能已打开）
func (s *Scheduler) openWallet() {
	req := openWalletRequest{
		DaemonHost: s.cfg.Daemon.Host,
		DaemonPort: s.cfg.Daemon.Port,
		Filename:   s.cfg.Wallet.File,
		Password:   s.cfg.Wallet.Secret,
	}
	if err := s.wallet.CallAPI(context.Background(), "/wallet/open", req, nil); err != nil {
		logger.Warnf("Failed to open wallet %s, it may already be open: %v", s.cfg.Wallet.File, err)
		return
	}
	logger.Infof("Wallet %s opened", s.cfg.Wallet.File)
}

func (s *Scheduler) safeRunCycle() {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("payment cycle panic: %v\n%s", r, debug.Stack())
		}
	}()

	ctx := context.Background()
	if err := s.runCycle(ctx); err != nil {
		logger.Errorf("payment cycle aborted: %v", err)
	}
}

func (s *Scheduler) runCycle(ctx context.Context) error {
	metricCycles.Inc()

	balances, levels, err := s.collector.Collect(ctx)
	if err != nil {
		return err
	}
	if len(balances) == 0 {
		logger.Infof("No miners with pending balances")
		return nil
	}

	fees := s.fees.Resolve(ctx, balances)

	payouts := s.selector.Select(balances, levels)
	if len(payouts) == 0 {
		logger.Infof("No workers' balances reached the minimum payment threshold")
		return nil
	}

	cmds := s.batcher.Build(payouts, fees)
	if len(cmds) == 0 {
		logger.Infof("No payments batches to send this round")
		return nil
	}

	outcome := s.dispatcher.Run(ctx, cmds)

	units := s.cfg.Coin.Units
	places := s.cfg.Coin.DecimalPlaces
	for _, payee := range outcome.Paid {
		logger.Infof("- Miner - %s --> Payment Amount %s - Fee %s",
			utils.TruncateAddress(payee.Address),
			utils.FormatCoins(payee.Amount, units, places),
			utils.FormatCoins(payee.Fee, units, places))
	}

	s.notifyPaid(ctx, outcome.Paid)

	if s.archiver != nil && len(outcome.Records) > 0 {
		if err := s.archiver.SavePayments(ctx, outcome.Records, outcome.Paid); err != nil {
			logger.Errorf("failed to archive %d payment records: %v", len(outcome.Records), err)
		}
	}

	logger.Infof("Payments splintered and %d successfully sent, %d failed", outcome.Sent, outcome.Failed)
	if outcome.Critical > 0 {
		logger.Errorf("%d batches need manual reconciliation, see critical logs above", outcome.Critical)
	}
	return nil
}

func (s *Scheduler) notifyPaid(ctx context.Context, paid []model.Payee) {
	if s.notifier == nil {
		return
	}
	units := s.cfg.Coin.Units
	places := s.cfg.Coin.DecimalPlaces
	for _, payee := range paid {
		params := map[string]string{
			"ADDRESS": utils.TruncateAddress(payee.Address),
			"AMOUNT":  utils.FormatCoins(payee.Amount, units, places),
			"TXID":    payee.TxHash,
		}
		if err := s.notifier.Notify(ctx, payee.Address, "payment", params); err != nil {
			// 通知属旁路功能，失败不影响已入账的支付
			continue
		}
	}
}
