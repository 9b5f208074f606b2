package configloader

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig 读取 yaml 配置文件并反序列化到 v，
// 文件内容支持 ${ENV_VAR} 形式的环境变量展开
func LoadConfig(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	expanded := os.Expand(string(data), func(key string) string {
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		// 未定义的变量原样保留，便于发现配置错误
		return "${" + key + "}"
	})

	if err := yaml.Unmarshal([]byte(expanded), v); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
