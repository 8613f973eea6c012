package ipinfo

import (
	"errors"
	"fmt"
	"net/netip"
)

// ErrInvalidAddress LookupAddr 的参数不是合法 IP
var ErrInvalidAddress = errors.New("invalid IP address")

// LookupAddr 不访问外部 API, 只用 CDN 段和 MaxMind 数据库描述指定 IP;
// 未配置数据库时只返回地址和 CDN 标记
func (c *Client) LookupAddr(ip string) (Record, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidAddress, ip)
	}

	rec := Record{Address: addr.Unmap().String(), Source: "local"}
	rec.IsCDN = c.CheckCDN(rec.Address)
	if c.mmdb != nil {
		switch err := c.fillFromMaxMind(&rec); {
		case err == nil:
			rec.Source = "maxmind"
		case !errors.Is(err, errNoMaxMindRecord):
			return rec, err
		}
	}
	return rec, nil
}
