// Package config 应用配置: 默认值 < 配置文件 (.env / yaml / json) < 环境变量
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultEnvFile 默认配置文件, 首次运行时自动生成
const DefaultEnvFile = ".env"

// Config 应用程序配置
type Config struct {
	// 服务器配置
	Addr string `mapstructure:"addr"`

	// 解析配置
	LookupAPIs      []string      `mapstructure:"lookup_apis"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`

	// 数据文件
	MaxMindDBPath string `mapstructure:"maxmind_db_path"`
	CFCIDRPath    string `mapstructure:"cf_cidr_path"`
	FleetPath     string `mapstructure:"fleet_path"`

	// 日志配置
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

var errInvalidConfig = errors.New("invalid configuration")

// defaultEnv 生成 .env 时写入的内容
const defaultEnv = `ADDR=:8099
LOOKUP_APIS=https://ipapi.co/json/,https://ipwho.is/
REFRESH_INTERVAL=30s
HTTP_TIMEOUT=10s
MAXMIND_DB_PATH=
CF_CIDR_PATH=
FLEET_PATH=
LOG_LEVEL=info
LOG_FORMAT=text
`

// EnsureEnvFile 文件不存在时写入默认 .env
func EnsureEnvFile(path string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return err
	}
	if err := os.WriteFile(path, []byte(defaultEnv), 0644); err != nil {
		return fmt.Errorf("写入默认配置失败: %w", err)
	}
	return nil
}

// DefaultViper 设置了全部默认值并绑定环境变量的 viper 实例
func DefaultViper() *viper.Viper {
	vip := viper.New()

	vip.SetDefault("addr", ":8099")
	vip.SetDefault("lookup_apis", DefaultLookupAPIs)
	vip.SetDefault("refresh_interval", 30*time.Second)
	vip.SetDefault("http_timeout", 10*time.Second)
	vip.SetDefault("maxmind_db_path", "")
	vip.SetDefault("cf_cidr_path", "")
	vip.SetDefault("fleet_path", "")
	vip.SetDefault("log_level", "info")
	vip.SetDefault("log_format", "text")

	// ADDR, LOOKUP_APIS ...
	vip.AutomaticEnv()
	return vip
}

// Load 读取配置; path 为空或是不存在的默认 .env 时只使用默认值和环境变量
func Load(path string) (*Config, error) {
	vip := DefaultViper()

	if path != "" {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			vip.SetConfigFile(path)
			if err := vip.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
			}
		case os.IsNotExist(err) && path == DefaultEnvFile:
		default:
			return nil, fmt.Errorf("配置文件 %s 不可用: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := vip.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidConfig, err)
	}
	cfg.LookupAPIs = splitList(cfg.LookupAPIs)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查取值范围
func (c *Config) Validate() error {
	if len(c.LookupAPIs) == 0 {
		return fmt.Errorf("%w: lookup_apis is empty", errInvalidConfig)
	}
	for _, api := range c.LookupAPIs {
		u, err := url.Parse(api)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: lookup api %q is not an http(s) URL", errInvalidConfig, api)
		}
	}
	if c.RefreshInterval < time.Second {
		return fmt.Errorf("%w: refresh_interval %s is below 1s", errInvalidConfig, c.RefreshInterval)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("%w: http_timeout must be positive", errInvalidConfig)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", errInvalidConfig, c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", errInvalidConfig, c.LogFormat)
	}
	return nil
}

// splitList 兼容环境变量中的逗号分隔写法, 去掉空白和空项
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, s := range strings.Split(item, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
