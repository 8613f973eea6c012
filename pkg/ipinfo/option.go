package ipinfo

import (
	"fmt"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/oschwald/maxminddb-golang/v2"
	"github.com/sinspired/aether/internal/data"
)

const defaultHTTPTimeout = 10 * time.Second

// 默认查询 API, 按顺序尝试
var defaultEndpoints = []string{
	"https://ipapi.co/json/",
	"https://ipwho.is/",
}

// DefaultEndpoints 返回默认 API 列表的副本
func DefaultEndpoints() []string {
	return slices.Clone(defaultEndpoints)
}

// 指定 http 客户端, 默认为  &http.Client{Timeout: 10 * time.Second}
func WithHttpClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client is nil")
		}
		c.httpClient = hc
		return nil
	}
}

// 指定 MaxMind 格式的数据库路径, 支持 .zst 压缩文件; 不指定则不做补全
func WithDBPath(path string) Option {
	return func(c *Client) error {
		if path == "" {
			return fmt.Errorf("mmdb path is empty")
		}
		c.dbPath = path
		// 延迟到 New 打开，避免后续选项覆盖导致泄露
		return nil
	}
}

// 指定 MaxMind 数据库阅读器, 由调用方负责关闭
func WithDBReader(db *maxminddb.Reader) Option {
	return func(c *Client) error {
		if db == nil {
			return fmt.Errorf("mmdb reader is nil")
		}
		c.mmdb = db
		c.ownMMDB = false
		c.dbPath = ""
		return nil
	}
}

// 指定按顺序尝试的查询 API, 默认为内置 API
func WithEndpoints(endpoints ...string) Option {
	return func(c *Client) error {
		c.endpoints = slices.Clone(endpoints)
		return nil
	}
}

// 指定 CDN IP 段, 默认为内置 Cloudflare CDN 段
func WithCDNRanges(ranges map[string][]*net.IPNet) Option {
	return func(c *Client) error {
		c.cdnRanges = ranges
		return nil
	}
}

// 指定请求结果的观察者, 用于指标统计
func WithObserver(o Observer) Option {
	return func(c *Client) error {
		c.observer = o
		return nil
	}
}

// 创建新的 ipinfo 客户端
func New(opts ...Option) (*Client, error) {
	c := &Client{}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	// httpClient 默认
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	if c.mmdb == nil && c.dbPath != "" {
		db, err := data.OpenMaxMindDB(c.dbPath)
		if err != nil {
			return nil, fmt.Errorf("open maxmind db: %w", err)
		}
		c.mmdb = db
		c.ownMMDB = true
	}

	// API 列表兜底
	if len(c.endpoints) == 0 {
		c.endpoints = DefaultEndpoints()
	}

	if c.cdnRanges == nil {
		c.cdnRanges = data.GetCfCdnIPRanges()
	}

	return c, nil
}

// Endpoints 当前客户端使用的 API 列表
func (c *Client) Endpoints() []string {
	return slices.Clone(c.endpoints)
}

// Close 清理资源
func (c *Client) Close() error {
	if c == nil || c.mmdb == nil || !c.ownMMDB {
		return nil
	}
	err := c.mmdb.Close()

	c.mmdb = nil
	c.ownMMDB = false
	return err
}
