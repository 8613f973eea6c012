// Package data 内置数据: Cloudflare CDN 段和 MaxMind 数据库的加载
package data

import (
	_ "embed"
)

// 来源 https://www.cloudflare.com/ips/
var (
	//go:embed cloudflare_cdn_ipv4.txt
	embeddedIPv4 string

	//go:embed cloudflare_cdn_ipv6.txt
	embeddedIPv6 string
)
