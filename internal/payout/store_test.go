package payout

import (
	"testing"

	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/payout/model"
	"github.com/stretchr/testify/require"
)

func TestKeyLayout(t *testing.T) {
	require.Equal(t, "testcoin:workers:addrA", WorkerKey("testcoin", "addrA"))
	require.Equal(t, "testcoin:payments:all", PaymentsAllKey("testcoin"))
	require.Equal(t, "testcoin:payments:addrA", PaymentsAddrKey("testcoin", "addrA"))
}

func TestWorkerIDFromKey(t *testing.T) {
	require.Equal(t, "addrA", WorkerIDFromKey("testcoin:workers:addrA"))
	// worker id 本身不含冒号，取最后一段即可
	require.Equal(t, "addrA", WorkerIDFromKey(WorkerKey("testcoin", "addrA")))
}

func TestFormatPoolRecord(t *testing.T) {
	record := model.PaymentRecord{
		TxHash:    "abc123",
		Amount:    5000,
		Fee:       50,
		Mixin:     3,
		DestCount: 2,
	}
	require.Equal(t, "abc123:5000:50:3:2", FormatPoolRecord(record))
}

func TestFormatAddressRecord(t *testing.T) {
	require.Equal(t, "abc123:3000:50:3", FormatAddressRecord("abc123", 3000, 50, 3))
}
