package walletrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WalletConf 钱包守护进程连接配置
type WalletConf struct {
	Host      string `json:"host" yaml:"host"`             // 钱包守护进程主机
	Port      int    `json:"port" yaml:"port"`             // 钱包守护进程端口
	Api       bool   `json:"api" yaml:"api"`               // true 表示 wallet-api（REST 风格），false 表示 json_rpc
	File      string `json:"file" yaml:"file"`             // 钱包文件名（wallet-api 开钱包用）
	Secret    string `json:"secret" yaml:"secret"`         // 钱包密码（wallet-api 开钱包用）
	TimeoutMs int    `json:"timeout_ms" yaml:"timeout_ms"` // 单次请求超时（ms），0 表示不限
}

// Client 封装对钱包守护进程的两种调用方式：
// json_rpc 方法调用（transfer / sendTransaction 等）和 wallet-api 路径调用
type Client struct {
	baseURL string
	api     bool
	http    *http.Client
}

// rpcEnvelope json_rpc 2.0 请求包
type rpcEnvelope struct {
	JsonRpc string `json:"jsonrpc"`
	Id      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcReply struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func NewClient(conf *WalletConf) *Client {
	return &Client{
		baseURL: fmt.Sprintf("http://%s:%d", conf.Host, conf.Port),
		api:     conf.Api,
		http: &http.Client{
			Timeout: time.Duration(conf.TimeoutMs) * time.Millisecond,
		},
	}
}

// IsAPI 返回是否为 wallet-api 形态的守护进程
func (c *Client) IsAPI() bool {
	return c.api
}

// CallRPC 调用 {base}/json_rpc 上的指定方法，result 接收 result 字段
func (c *Client) CallRPC(ctx context.Context, method string, params any, result any) error {
	body, err := json.Marshal(rpcEnvelope{
		JsonRpc: "2.0",
		Id:      "0",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("walletrpc: marshal %s request: %w", method, err)
	}

	raw, err := c.post(ctx, c.baseURL+"/json_rpc", body)
	if err != nil {
		return fmt.Errorf("walletrpc: %s: %w", method, err)
	}

	var reply rpcReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return fmt.Errorf("walletrpc: decode %s reply: %w", method, err)
	}
	if reply.Error != nil {
		return fmt.Errorf("walletrpc: %s rpc error %d: %s", method, reply.Error.Code, reply.Error.Message)
	}
	if result != nil && len(reply.Result) > 0 {
		if err := json.Unmarshal(reply.Result, result); err != nil {
			return fmt.Errorf("walletrpc: decode %s result: %w", method, err)
		}
	}
	return nil
}

// CallAPI 以 POST JSON 方式调用 wallet-api 路径（如 /wallet/open），
// result 接收整个响应体
func (c *Client) CallAPI(ctx context.Context, path string, params any, result any) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("walletrpc: marshal %s request: %w", path, err)
	}

	raw, err := c.post(ctx, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("walletrpc: %s: %w", path, err)
	}

	if result != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("walletrpc: decode %s reply: %w", path, err)
		}
	}
	return nil
}

func (c *Client) post(ctx context.Context, url string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, truncateBody(raw))
	}
	return raw, nil
}

func truncateBody(b []byte) string {
	const limit = 256
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
