package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatCoins 将最小单位的整数金额格式化为人类可读的币值字符串，
// units 为 1 coin 对应的最小单位数（如 1e12），places 为保留的小数位
func FormatCoins(amount int64, units int64, places int) string {
	if units <= 0 {
		return strconv.FormatInt(amount, 10)
	}
	neg := amount < 0
	if neg {
		amount = -amount
	}

	whole := amount / units
	frac := amount % units

	digits := len(strconv.FormatInt(units, 10)) - 1
	fracStr := fmt.Sprintf("%0*d", digits, frac)
	if places < digits {
		fracStr = fracStr[:places]
	}
	fracStr = strings.TrimRight(fracStr, "0")

	out := strconv.FormatInt(whole, 10)
	if fracStr != "" {
		out += "." + fracStr
	}
	if neg {
		out = "-" + out
	}
	return out
}

// TruncateAddress 截断地址用于对外展示（前 7 位 + ... + 后 7 位）
func TruncateAddress(address string) string {
	if len(address) <= 14 {
		return address
	}
	return address[:7] + "..." + address[len(address)-7:]
}

// ParseInt64 宽松解析整数字符串，解析失败返回 0（redis 空值按无余额处理）
func ParseInt64(s string) int64 {
	v, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return v
}
