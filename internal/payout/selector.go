package payout

// Selector 过滤达到个人起付额的 worker 并把金额截断到支付粒度的整数倍
type Selector struct {
	denomination int64
}

func NewSelector(denomination int64) *Selector {
	return &Selector{denomination: denomination}
}

// Select 返回 workerId → 应付金额。余数留在余额中等待下一轮。
// 没有任何 worker 达标时返回空 map，由调度器按非错误短路处理
func (s *Selector) Select(balances, levels map[string]int64) map[string]int64 {
	payouts := make(map[string]int64)

	for worker, balance := range balances {
		if balance < levels[worker] {
			continue
		}

		payout := balance - balance%s.denomination
		if payout <= 0 {
			// 截断后不可能为负，防御性跳过
			continue
		}
		payouts[worker] = payout
	}

	return payouts
}
