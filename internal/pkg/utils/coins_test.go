package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatCoins(t *testing.T) {
	units := int64(1000000000000) // 1e12

	require.Equal(t, "1", FormatCoins(1000000000000, units, 4))
	require.Equal(t, "1.5", FormatCoins(1500000000000, units, 4))
	require.Equal(t, "0.0001", FormatCoins(100000000, units, 4))
	require.Equal(t, "0", FormatCoins(0, units, 4))
	require.Equal(t, "-2.25", FormatCoins(-2250000000000, units, 4))

	// 小数位截断（非四舍五入）
	require.Equal(t, "1.99", FormatCoins(1999900000000, units, 2))

	// units 不合法时按原值输出
	require.Equal(t, "123", FormatCoins(123, 0, 4))
}

func TestTruncateAddress(t *testing.T) {
	require.Equal(t, "short", TruncateAddress("short"))
	require.Equal(t, "12345678901234", TruncateAddress("12345678901234"))
	require.Equal(t, "1234567...9012345", TruncateAddress("123456789012345"))
}

func TestParseInt64(t *testing.T) {
	require.Equal(t, int64(42), ParseInt64("42"))
	require.Equal(t, int64(42), ParseInt64(" 42 "))
	require.Equal(t, int64(-7), ParseInt64("-7"))
	require.Zero(t, ParseInt64(""))
	require.Zero(t, ParseInt64("abc"))
	require.Zero(t, ParseInt64("12.5"))
}
