package utils

import (
	"github.com/cespare/xxhash/v2"
)

// NotifyEventID 根据交易哈希和目标地址计算稳定的通知事件 ID，
// 同一笔支付重发通知时 ID 不变，消费端可据此去重
func NotifyEventID(txHash, address string) uint64 {
	var d xxhash.Digest
	d.Reset()
	_, _ = d.WriteString(txHash)
	_, _ = d.WriteString(":")
	_, _ = d.WriteString(address)
	// 最高 bit 置 0，兼容按正数 int64 存储的消费端
	return d.Sum64() &^ (uint64(1) << 63)
}
