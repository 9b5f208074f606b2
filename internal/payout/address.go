package payout

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/mr-tron/base58"
)

// ParsedDestination worker id 解析结果
type ParsedDestination struct {
	Address       string // 剥离全部后缀后的裸地址
	PaymentID     string // 校验通过的 payment id，可能为空
	WithPaymentID bool   // 该目标是否需要独占一笔交易（带后缀或为集成地址）
}

// AddressParser 负责把 redis 中的 worker id 拆成裸地址与 payment id。
// 解析结果缓存在 LRU 中，同一 worker 每轮重复解析时直接命中
type AddressParser struct {
	paymentIdSep string
	fixedDiffSep string // 空表示未启用固定难度后缀
	intPrefix    uint64 // 集成地址的 base58 前缀 tag
	cache        *lru.Cache
}

func NewAddressParser(paymentIdSep, fixedDiffSep string, intPrefix uint64) *AddressParser {
	cache, err := lru.New(20000)
	if err != nil {
		panic(err)
	}
	return &AddressParser{
		paymentIdSep: paymentIdSep,
		fixedDiffSep: fixedDiffSep,
		intPrefix:    intPrefix,
		cache:        cache,
	}
}

// Parse 解析 worker id。后缀不合法时丢弃 payment id，按普通地址处理
func (p *AddressParser) Parse(worker string) ParsedDestination {
	if val, ok := p.cache.Get(worker); ok {
		return val.(ParsedDestination)
	}

	parsed := p.parse(worker)
	p.cache.Add(worker, parsed)
	return parsed
}

func (p *AddressParser) parse(worker string) ParsedDestination {
	address := worker
	paymentID := ""
	withPaymentID := false

	parts := strings.Split(address, p.paymentIdSep)
	if len(parts) >= 2 {
		address = parts[0]
		paymentID = cleanPaymentID(parts[1])
		if len(paymentID) == 16 || len(paymentID) == 64 {
			withPaymentID = true
		} else {
			paymentID = ""
		}
	} else if p.isIntegratedAddress(address) {
		// 集成地址自带 payment id，无需后缀，但仍须独占一笔交易
		withPaymentID = true
	}

	if p.fixedDiffSep != "" {
		if diffParts := strings.Split(address, p.fixedDiffSep); len(diffParts) >= 2 {
			address = diffParts[0]
		}
	}

	return ParsedDestination{
		Address:       address,
		PaymentID:     paymentID,
		WithPaymentID: withPaymentID,
	}
}

// cleanPaymentID 去掉非字母数字字符
func cleanPaymentID(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			return r
		default:
			return -1
		}
	}, s)
}

// isIntegratedAddress 解码地址并比对 base58 前缀 tag
func (p *AddressParser) isIntegratedAddress(address string) bool {
	if p.intPrefix == 0 {
		return false
	}
	decoded, err := decodeCNBase58(address)
	if err != nil {
		return false
	}
	tag, n := readVarint(decoded)
	if n <= 0 {
		return false
	}
	return tag == p.intPrefix
}

// cryptonote base58 按 8 字节块编码，每个完整块 11 个字符，
// 尾块长度与解码字节数的对应关系固定
var cnBlockDecodedSize = map[int]int{
	0: 0, 2: 1, 3: 2, 5: 3, 6: 4, 7: 5, 9: 6, 10: 7, 11: 8,
}

const (
	cnFullBlockSize        = 8
	cnFullEncodedBlockSize = 11
)

func decodeCNBase58(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("empty address")
	}

	out := make([]byte, 0, len(s)*cnFullBlockSize/cnFullEncodedBlockSize+cnFullBlockSize)
	for i := 0; i < len(s); i += cnFullEncodedBlockSize {
		end := min(i+cnFullEncodedBlockSize, len(s))
		chunk := s[i:end]

		size, ok := cnBlockDecodedSize[len(chunk)]
		if !ok {
			return nil, fmt.Errorf("invalid base58 block length %d", len(chunk))
		}

		raw, err := base58.Decode(chunk)
		if err != nil {
			return nil, err
		}
		if len(raw) > size {
			// 前导 '1' 会解出多余的前导零字节，校验后裁掉
			for _, c := range raw[:len(raw)-size] {
				if c != 0 {
					return nil, fmt.Errorf("base58 block overflow")
				}
			}
			raw = raw[len(raw)-size:]
		}

		// 块按大端数值解码，不足位补前导零
		block := make([]byte, size)
		copy(block[size-len(raw):], raw)
		out = append(out, block...)
	}
	return out, nil
}

// readVarint 读取前缀 varint tag，返回值与消耗的字节数
func readVarint(b []byte) (uint64, int) {
	var val uint64
	var shift uint
	for i, c := range b {
		if i > 9 {
			return 0, -1
		}
		val |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			return val, i + 1
		}
		shift += 7
	}
	return 0, -1
}
