package payout

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payout_cycles_total",
		Help: "Number of payment cycles started",
	})
	metricBatchesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payout_batches_sent_total",
		Help: "Number of transfer batches successfully sent and recorded",
	})
	metricBatchesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payout_batches_failed_total",
		Help: "Number of transfer batches rejected by the wallet daemon",
	})
	metricCriticalFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payout_critical_failures_total",
		Help: "Number of batches sent on chain whose balance update failed",
	})
	metricAmountPaid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payout_amount_total",
		Help: "Total amount paid out in smallest currency units",
	})
	metricWorkersPaid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payout_workers_paid_total",
		Help: "Number of worker payouts completed",
	})
	metricWalletLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payout_wallet_rpc_seconds",
		Help:    "Wallet daemon RPC latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)

// nowFunc 便于测试替换时间源
var nowFunc = time.Now

func observeWalletLatency(method string, d time.Duration) {
	metricWalletLatency.WithLabelValues(method).Observe(d.Seconds())
}
