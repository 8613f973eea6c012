package ipinfo

import (
	"fmt"
	"log/slog"
	"net"
)

// CheckCDN 检查 IP 是否属于 CDN 段 (默认 Cloudflare)
func (c *Client) CheckCDN(ip string) bool {
	if len(c.cdnRanges) == 0 {
		slog.Debug("CDN IP ranges not loaded")
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}

	version := "ipv6"
	if parsed.To4() != nil {
		version = "ipv4"
	}
	for _, n := range c.cdnRanges[version] {
		if n != nil && n.Contains(parsed) {
			slog.Debug(fmt.Sprintf("IP %s 属于 CDN IP范围: %s", ip, n.String()))
			return true
		}
	}
	return false
}
