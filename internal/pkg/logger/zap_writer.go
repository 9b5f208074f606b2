package logger

import (
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"
)

// ZapWriter 将 go-zero logx 的输出桥接到全局 zap logger，
// 通过 logx.SetWriter(logger.ZapWriter{}) 注入
type ZapWriter struct{}

var _ logx.Writer = ZapWriter{}

func (w ZapWriter) Alert(v any) {
	sugar.Errorf("%v", v)
}

func (w ZapWriter) Close() error {
	return sugar.Sync()
}

func (w ZapWriter) Debug(v any, fields ...logx.LogField) {
	sugar.Debugf("%v%s", v, formatFields(fields))
}

func (w ZapWriter) Error(v any, fields ...logx.LogField) {
	sugar.Errorf("%v%s", v, formatFields(fields))
}

func (w ZapWriter) Info(v any, fields ...logx.LogField) {
	sugar.Infof("%v%s", v, formatFields(fields))
}

func (w ZapWriter) Severe(v any) {
	sugar.Errorf("%v", v)
}

func (w ZapWriter) Slow(v any, fields ...logx.LogField) {
	sugar.Warnf("%v%s", v, formatFields(fields))
}

func (w ZapWriter) Stack(v any) {
	sugar.Errorf("%v", v)
}

func (w ZapWriter) Stat(v any, fields ...logx.LogField) {
	sugar.Infof("%v%s", v, formatFields(fields))
}

func formatFields(fields []logx.LogField) string {
	if len(fields) == 0 {
		return ""
	}
	out := ""
	for _, f := range fields {
		out += fmt.Sprintf(" %s=%v", f.Key, f.Value)
	}
	return out
}
