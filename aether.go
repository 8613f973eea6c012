// Package aether 出口 IP 解析的对外入口, 详细用法见 pkg/ipinfo
package aether

import (
	"context"
	"net"

	"github.com/oschwald/maxminddb-golang/v2"

	"github.com/sinspired/aether/internal/data"
	"github.com/sinspired/aether/pkg/ipinfo"
)

// Record 归一化后的 IP 信息
type Record = ipinfo.Record

// Resolve 按顺序尝试 endpoints (为空时使用内置 API), 返回第一个成功的记录
func Resolve(ctx context.Context, endpoints ...string) (Record, error) {
	opts := []ipinfo.Option{}
	if len(endpoints) > 0 {
		opts = append(opts, ipinfo.WithEndpoints(endpoints...))
	}
	c, err := ipinfo.New(opts...)
	if err != nil {
		return Record{}, err
	}
	defer c.Close()
	return c.Resolve(ctx)
}

// LoadCloudflareCIDRs 加载 Cloudflare CDN IP 范围, 路径为空时使用内置数据
func LoadCloudflareCIDRs(path string) (map[string][]*net.IPNet, error) {
	return data.LoadCloudflareCIDRs(path)
}

// OpenGeoDB 打开 MaxMind 地理数据库, 支持 .zst 压缩文件
func OpenGeoDB(path string) (*maxminddb.Reader, error) {
	return data.OpenMaxMindDB(path)
}
