package payout

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Snowflake-coin/snowflake-nodejs-pool/internal/payout/model"
)

// WalletClient 钱包守护进程调用接口，由 walletrpc.Client 实现
type WalletClient interface {
	IsAPI() bool
	CallRPC(ctx context.Context, method string, params any, result any) error
	CallAPI(ctx context.Context, path string, params any, result any) error
}

// Request 一次转账调用的传输描述：Method 非空走 json_rpc，否则走 wallet-api Path
type Request struct {
	Method  string
	Path    string
	Payload any
}

// LedgerProtocol 账本协议变体：不同守护进程的请求字段布局与响应字段名不同，
// 启动时根据 daemon_type 选定一种，运行期不再分支
type LedgerProtocol interface {
	Name() string
	BuildRequest(cmd *model.TransferCommand) Request
	ParseReply(raw json.RawMessage) (txHash string, feePaid int64, err error)
}

// SelectProtocol 解析 daemon_type，返回对应协议变体
func SelectProtocol(daemonType string, walletAPI bool) (LedgerProtocol, error) {
	switch strings.ToLower(daemonType) {
	case "", "default":
		return defaultProtocol{}, nil
	case "bytecoin", "snowflake":
		if walletAPI {
			return bytecoinAPIProtocol{}, nil
		}
		return bytecoinRPCProtocol{}, nil
	default:
		return nil, fmt.Errorf("invalid daemon_type: %s (must be 'default', 'bytecoin' or 'snowflake')", daemonType)
	}
}

// ---------- default: json_rpc transfer ----------

type defaultProtocol struct{}

type transferRequest struct {
	Destinations []model.Destination `json:"destinations"`
	Fee          int64               `json:"fee"`
	Mixin        int                 `json:"mixin"`
	Priority     int                 `json:"priority"`
	UnlockTime   int64               `json:"unlock_time"`
	PaymentID    string              `json:"payment_id,omitempty"`
}

type transferReply struct {
	TxHash string `json:"tx_hash"`
	Fee    int64  `json:"fee"`
}

func (defaultProtocol) Name() string { return "transfer" }

func (defaultProtocol) BuildRequest(cmd *model.TransferCommand) Request {
	return Request{
		Method: "transfer",
		Payload: transferRequest{
			Destinations: cmd.Destinations,
			Fee:          0, // 实付手续费由钱包计算并在响应中返回
			Mixin:        cmd.Mixin,
			Priority:     cmd.Priority,
			UnlockTime:   cmd.UnlockTime,
			PaymentID:    cmd.PaymentID,
		},
	}
}

func (defaultProtocol) ParseReply(raw json.RawMessage) (string, int64, error) {
	var reply transferReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", 0, fmt.Errorf("decode transfer reply: %w", err)
	}
	if reply.TxHash == "" {
		return "", 0, fmt.Errorf("transfer reply missing tx_hash")
	}
	return reply.TxHash, reply.Fee, nil
}

// ---------- bytecoin/snowflake + wallet-api: /transactions/send/advanced ----------

type bytecoinAPIProtocol struct{}

type sendAdvancedRequest struct {
	Destinations []model.Destination `json:"destinations"`
	Mixin        int                 `json:"mixin"`
	UnlockTime   int64               `json:"unlockTime"`
	PaymentID    string              `json:"paymentId,omitempty"`
}

type bytecoinReply struct {
	TransactionHash string `json:"transactionHash"`
	Fee             int64  `json:"fee"`
}

func (bytecoinAPIProtocol) Name() string { return "/transactions/send/advanced" }

func (bytecoinAPIProtocol) BuildRequest(cmd *model.TransferCommand) Request {
	return Request{
		Path: "/transactions/send/advanced",
		Payload: sendAdvancedRequest{
			Destinations: cmd.Destinations,
			Mixin:        cmd.Mixin,
			UnlockTime:   cmd.UnlockTime,
			PaymentID:    cmd.PaymentID,
		},
	}
}

func (bytecoinAPIProtocol) ParseReply(raw json.RawMessage) (string, int64, error) {
	return parseBytecoinReply(raw)
}

// ---------- bytecoin/snowflake json_rpc: sendTransaction ----------

type bytecoinRPCProtocol struct{}

type sendTransactionRequest struct {
	Transfers  []model.Destination `json:"transfers"`
	Anonymity  int                 `json:"anonymity"`
	UnlockTime int64               `json:"unlockTime"`
	PaymentID  string              `json:"paymentId,omitempty"`
}

func (bytecoinRPCProtocol) Name() string { return "sendTransaction" }

func (bytecoinRPCProtocol) BuildRequest(cmd *model.TransferCommand) Request {
	return Request{
		Method: "sendTransaction",
		Payload: sendTransactionRequest{
			Transfers:  cmd.Destinations,
			Anonymity:  cmd.Mixin,
			UnlockTime: cmd.UnlockTime,
			PaymentID:  cmd.PaymentID,
		},
	}
}

func (bytecoinRPCProtocol) ParseReply(raw json.RawMessage) (string, int64, error) {
	return parseBytecoinReply(raw)
}

func parseBytecoinReply(raw json.RawMessage) (string, int64, error) {
	var reply bytecoinReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return "", 0, fmt.Errorf("decode send reply: %w", err)
	}
	if reply.TransactionHash == "" {
		return "", 0, fmt.Errorf("send reply missing transactionHash")
	}
	return reply.TransactionHash, reply.Fee, nil
}
