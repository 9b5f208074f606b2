package model

// Destination 一笔聚合交易中的单个收款目标（上链的 wire 形态）
type Destination struct {
	Amount  int64  `json:"amount"`  // 收款金额（最小单位）
	Address string `json:"address"` // 裸收款地址（不含任何后缀）
}

// Payee 收款目标对应的内部记账信息（不上链）
type Payee struct {
	Worker        string // redis 中的原始 worker id（可能带 payment id / 固定难度后缀）
	Address       string // 剥离全部后缀后的裸地址
	RecordAddress string // 历史记录与通知使用的地址（重新拼接 payment id 后缀）
	Amount        int64  // 实际支付金额（最小单位，可能因单笔上限被截断）
	Fee           int64  // 该 worker 本轮承担的手续费
	TxHash        string // 成功发送后回填的交易哈希
}

// MutationKind 余额库记账操作类型
type MutationKind int

const (
	MutHashIncr     MutationKind = iota // HINCRBY key field delta
	MutAppendRecord                     // ZADD key score member
)

// Mutation 单条结构化记账操作，由 LedgerUpdater 原子批量执行
type Mutation struct {
	Kind   MutationKind
	Key    string // redis key
	Field  string // hash field（仅 MutHashIncr）
	Delta  int64  // 增量（仅 MutHashIncr）
	Score  int64  // 记录时间戳（仅 MutAppendRecord）
	Member string // 记录内容（仅 MutAppendRecord）
}

// TransferCommand 一笔待发送的聚合交易及其记账清单
type TransferCommand struct {
	Destinations []Destination // 收款目标，有序
	Amount       int64         // 目标金额合计
	PaymentID    string        // 本笔交易的 payment id，至多一个；非空时目标必须唯一
	Mixin        int           // 混淆度
	Priority     int           // 优先级
	UnlockTime   int64         // 解锁时间，固定为 0
	Payees       []Payee       // 目标对应的内部记账信息
	Mutations    []Mutation    // 发送成功后要执行的余额/累计记账操作
}

// PaymentRecord 一笔成功交易的审计记录，写入后不可变更
type PaymentRecord struct {
	TxHash    string // 交易哈希（已去除包裹定界符）
	Amount    int64  // 交易支付总额
	Fee       int64  // 实付网络手续费
	Mixin     int    // 混淆度
	DestCount int    // 收款目标数
	Timestamp int64  // 秒级时间戳（同周期内逐批递增保证唯一）
}
