package archive

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/payout/model"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/db"
	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/pkg/logger"
)

const (
	paymentTxFieldCount    = 7
	paymentEntryFieldCount = 5
	insertBatchSize        = 500
	insertMaxRetries       = 3
)

var (
	paymentTxPlaceholder    = "(" + strings.Repeat("?,", paymentTxFieldCount-1) + "?)"
	paymentEntryPlaceholder = "(" + strings.Repeat("?,", paymentEntryFieldCount-1) + "?)"
)

// Writer 把支付流水镜像到关系库，供报表和对账使用。
// redis 始终是记账的权威数据，这里写失败只影响查询侧
type Writer struct {
	client *db.DBClient
	coin   string
}

func NewWriter(client *db.DBClient, coin string) *Writer {
	return &Writer{client: client, coin: coin}
}

// SavePayments 按批插入交易与明细两张表，重复主键跳过（同一交易可能被重放）
func (w *Writer) SavePayments(ctx context.Context, records []model.PaymentRecord, payees []model.Payee) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("SavePayments panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("SavePayments panic: %v", r)
		}
	}()

	if err := w.saveTransactions(ctx, records); err != nil {
		return err
	}
	return w.saveEntries(ctx, payees)
}

func (w *Writer) saveTransactions(ctx context.Context, records []model.PaymentRecord) error {
	total := len(records)
	for i := 0; i < total; i += insertBatchSize {
		end := min(i+insertBatchSize, total)
		batch := records[i:end]

		var builder strings.Builder
		builder.Grow(256 + len(batch)*(len(paymentTxPlaceholder)+16))
		builder.WriteString("INSERT INTO payment_tx(" +
			"coin,tx_hash,amount,fee,mixin,dest_count,paid_at) VALUES")

		args := make([]any, 0, len(batch)*paymentTxFieldCount)
		for j, r := range batch {
			if j > 0 {
				builder.WriteByte(',')
			}
			builder.WriteString(paymentTxPlaceholder)
			args = append(args, w.coin, r.TxHash, r.Amount, r.Fee, r.Mixin, r.DestCount, r.Timestamp)
		}
		w.appendConflictClause(&builder, "tx_hash")

		if err := w.exec(ctx, builder.String(), args); err != nil {
			return fmt.Errorf("insert payment_tx [%d:%d] failed: %w", i, end, err)
		}
	}
	return nil
}

func (w *Writer) saveEntries(ctx context.Context, payees []model.Payee) error {
	total := len(payees)
	for i := 0; i < total; i += insertBatchSize {
		end := min(i+insertBatchSize, total)
		batch := payees[i:end]

		var builder strings.Builder
		builder.Grow(256 + len(batch)*(len(paymentEntryPlaceholder)+16))
		builder.WriteString("INSERT INTO payment_entry(" +
			"coin,tx_hash,address,amount,fee) VALUES")

		args := make([]any, 0, len(batch)*paymentEntryFieldCount)
		for j, p := range batch {
			if j > 0 {
				builder.WriteByte(',')
			}
			builder.WriteString(paymentEntryPlaceholder)
			args = append(args, w.coin, p.TxHash, p.RecordAddress, p.Amount, p.Fee)
		}
		w.appendConflictClause(&builder, "tx_hash, address")

		if err := w.exec(ctx, builder.String(), args); err != nil {
			return fmt.Errorf("insert payment_entry [%d:%d] failed: %w", i, end, err)
		}
	}
	return nil
}

// appendConflictClause 两种方言的幂等插入写法不同
func (w *Writer) appendConflictClause(builder *strings.Builder, conflictCols string) {
	if w.client.Dialect == db.PG {
		builder.WriteString(" ON CONFLICT (" + conflictCols + ") DO NOTHING")
	} else {
		builder.WriteString(" ON DUPLICATE KEY UPDATE tx_hash = tx_hash")
	}
}

func (w *Writer) exec(ctx context.Context, query string, args []any) error {
	return db.RetryWithBackoff(ctx, insertMaxRetries, func() error {
		return w.client.DB.WithContext(ctx).Exec(query, args...).Error
	})
}
