package ipinfo

import (
	"net"
	"net/http"

	"github.com/oschwald/maxminddb-golang/v2"
)

// Record 归一化后的出口身份信息，与具体 API 的返回格式无关
type Record struct {
	Address      string   `json:"ip"`
	City         string   `json:"city,omitempty"`
	Region       string   `json:"region,omitempty"`
	Country      string   `json:"country,omitempty"`
	CountryCode  string   `json:"country_code,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	Organization string   `json:"org,omitempty"` // 运营商
	PostalCode   string   `json:"postal,omitempty"`
	TimeZone     string   `json:"timezone,omitempty"`

	IsCDN  bool   `json:"is_cdn"`
	Source string `json:"source,omitempty"` // 返回该记录的 API
}

// Valid 只有地址非空的记录才有效
func (r Record) Valid() bool {
	return r.Address != ""
}

// HasCoordinates 经纬度是否都已知
func (r Record) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Observer 接收每次 API 请求的结果, err 为 nil 表示成功
type Observer interface {
	ObserveAttempt(endpoint string, err error, seconds float64)
}

// IP 信息检测客户端
type Client struct {
	httpClient *http.Client      // 指定 http 客户端
	mmdb       *maxminddb.Reader // 可选, 用于补全缺失的地理字段

	endpoints []string                // 按顺序尝试的查询 API
	cdnRanges map[string][]*net.IPNet // 为空时使用内置 Cloudflare CDN 段
	observer  Observer

	// internal
	dbPath  string // 自定义数据库路径
	ownMMDB bool
}

// 客户端设置
type Option func(*Client) error
