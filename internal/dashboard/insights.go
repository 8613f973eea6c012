// Package dashboard 将解析状态和节点目录组合成页面数据, 并渲染 HTML
package dashboard

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sinspired/aether/pkg/ipinfo"
)

// Insight 一条连接分析
type Insight struct {
	Headline string `json:"headline"`
	Accent   string `json:"accent"`
	Detail   string `json:"detail"`
}

const globeEmoji = "🌐"

// FlagEmoji 两位国家代码转为旗帜 emoji, 无效时返回 🌐
func FlagEmoji(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return globeEmoji
	}
	var b strings.Builder
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return globeEmoji
		}
		// 区域指示符 A 为 U+1F1E6
		b.WriteRune(c + 127397)
	}
	return b.String()
}

// RelativeTime 形如 "12s ago", 零值返回 "—"
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "—"
	}
	sec := math.Round(now.Sub(t).Seconds())
	if sec < 0 {
		sec = 0
	}
	if sec < 60 {
		return fmt.Sprintf("%.0fs ago", sec)
	}
	min := math.Round(sec / 60)
	if min < 60 {
		return fmt.Sprintf("%.0fm ago", min)
	}
	hours := math.Round(min / 60)
	if hours < 24 {
		return fmt.Sprintf("%.0fh ago", hours)
	}
	return fmt.Sprintf("%.0fd ago", math.Round(hours/24))
}

// BuildInsights 根据记录和所选节点延迟生成分析条目; rec 为 nil 时只返回占位条目
func BuildInsights(rec *ipinfo.Record, latency int) []Insight {
	if rec == nil {
		return []Insight{{
			Headline: "Resolving Network Footprint",
			Accent:   "Awaiting provider intel",
			Detail:   "We are mapping your ingress path and pulling the carrier graph. Hold tight.",
		}}
	}

	insights := make([]Insight, 0, 3)
	org := orDefault(rec.Organization, "Unknown Operator")
	if strings.Contains(strings.ToLower(org), "vpn") || rec.IsCDN {
		insights = append(insights, Insight{
			Headline: "Shielded Hop Detected",
			Accent:   org,
			Detail:   "Your uplink is encapsulated through a VPN-grade provider. Traffic is obfuscated.",
		})
	} else {
		insights = append(insights, Insight{
			Headline: "Direct Backbone Link",
			Accent:   org,
			Detail:   "We routed your session over a direct ISP uplink. Consider enabling multi-hop for stealth.",
		})
	}

	switch {
	case latency < 40:
		insights = append(insights, Insight{
			Headline: "Ultra-Low Latency",
			Accent:   fmt.Sprintf("%d ms baseline", latency),
			Detail:   "Excellent for streaming, trading, and live collaboration.",
		})
	case latency < 90:
		insights = append(insights, Insight{
			Headline: "Stable Transit Path",
			Accent:   fmt.Sprintf("%d ms transit", latency),
			Detail:   "Optimized for HD streaming and secure browsing.",
		})
	default:
		insights = append(insights, Insight{
			Headline: "Long-Haul Route Active",
			Accent:   fmt.Sprintf("%d ms latency", latency),
			Detail:   "Switch to a closer edge for gaming or low-variance traffic.",
		})
	}

	insights = append(insights, Insight{
		Headline: "Geo Masking Vector",
		Accent:   orDefault(rec.City, "Unknown City") + ", " + orDefault(rec.Country, "Globe"),
		Detail:   "Mask alignment active. Content providers observe this point-of-presence for your session.",
	})
	return insights
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
