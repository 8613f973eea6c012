package dashboard

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sinspired/aether/internal/fleet"
	"github.com/sinspired/aether/internal/resolver"
	"github.com/sinspired/aether/pkg/ipinfo"
)

func ptr(f float64) *float64 { return &f }

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestFlagEmoji(t *testing.T) {
	assert.Equal(t, "🇺🇸", FlagEmoji("US"))
	assert.Equal(t, "🇩🇪", FlagEmoji(" de "))
	assert.Equal(t, "🌐", FlagEmoji(""))
	assert.Equal(t, "🌐", FlagEmoji("USA"))
	assert.Equal(t, "🌐", FlagEmoji("1A"))
}

func TestRelativeTime(t *testing.T) {
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{0, "0s ago"},
		{12 * time.Second, "12s ago"},
		{59 * time.Second, "59s ago"},
		{90 * time.Second, "2m ago"},
		{59 * time.Minute, "59m ago"},
		{3 * time.Hour, "3h ago"},
		{50 * time.Hour, "2d ago"},
		{-5 * time.Second, "0s ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RelativeTime(now.Add(-tt.ago), now), tt.ago.String())
	}
	assert.Equal(t, "—", RelativeTime(time.Time{}, now))
}

func TestBuildInsights(t *testing.T) {
	t.Run("resolving", func(t *testing.T) {
		got := BuildInsights(nil, 10)
		require.Len(t, got, 1)
		assert.Equal(t, "Resolving Network Footprint", got[0].Headline)
	})

	t.Run("vpn operator", func(t *testing.T) {
		got := BuildInsights(&ipinfo.Record{Address: "1.1.1.1", Organization: "Mullvad VPN AB", City: "Oslo", Country: "Norway"}, 18)
		require.Len(t, got, 3)
		assert.Equal(t, "Shielded Hop Detected", got[0].Headline)
		assert.Equal(t, "Mullvad VPN AB", got[0].Accent)
		assert.Equal(t, "Ultra-Low Latency", got[1].Headline)
		assert.Equal(t, "18 ms baseline", got[1].Accent)
		assert.Equal(t, "Oslo, Norway", got[2].Accent)
	})

	t.Run("direct link", func(t *testing.T) {
		got := BuildInsights(&ipinfo.Record{Address: "1.1.1.1"}, 72)
		assert.Equal(t, "Direct Backbone Link", got[0].Headline)
		assert.Equal(t, "Unknown Operator", got[0].Accent)
		assert.Equal(t, "Stable Transit Path", got[1].Headline)
		assert.Equal(t, "72 ms transit", got[1].Accent)
		assert.Equal(t, "Geo Masking Vector", got[2].Headline)
		assert.Equal(t, "Unknown City, Globe", got[2].Accent)
	})

	t.Run("cdn and long haul", func(t *testing.T) {
		got := BuildInsights(&ipinfo.Record{Address: "104.16.1.1", Organization: "Cloudflare", IsCDN: true}, 90)
		assert.Equal(t, "Shielded Hop Detected", got[0].Headline)
		assert.Equal(t, "Long-Haul Route Active", got[1].Headline)
		assert.Equal(t, "90 ms latency", got[1].Accent)
	})

	t.Run("latency boundary", func(t *testing.T) {
		assert.Equal(t, "Stable Transit Path", BuildInsights(&ipinfo.Record{Address: "x"}, 40)[1].Headline)
		assert.Equal(t, "Ultra-Low Latency", BuildInsights(&ipinfo.Record{Address: "x"}, 39)[1].Headline)
	})
}

func TestBuild_Loading(t *testing.T) {
	v := Build(resolver.Snapshot{Status: resolver.StatusLoading}, fleet.Default(), "", "", now)

	assert.Equal(t, Title, v.Title)
	assert.Equal(t, "Resolving…", v.Identity)
	assert.Equal(t, "SYNC", v.Badge)
	assert.Equal(t, "Updated —", v.UpdatedLabel)
	require.Len(t, v.Cards, 4)
	assert.Equal(t, "🌐 —, —", v.Cards[0].Value)
	assert.Equal(t, "Locating region", v.Cards[0].Hint)
	assert.Equal(t, "Reconciling…", v.Cards[1].Value)
	assert.Equal(t, "Timezone sync pending", v.Cards[1].Hint)
	assert.Equal(t, "Encrypted", v.Cards[2].Value)
	assert.Equal(t, "Postal obfuscated", v.Cards[2].Hint)
	assert.Equal(t, "Aether Prime", v.Cards[3].Value)
	assert.Equal(t, "New York, United States • 18 ms", v.Cards[3].Hint)
	require.Len(t, v.Insights, 1)

	assert.Equal(t, "nyc-edge-1", v.Selected)
	require.Len(t, v.Servers, 6)
	assert.True(t, v.Servers[0].Active)
	assert.Equal(t, "🇺🇸", v.Servers[0].Flag)
	assert.Equal(t, "MAINT", v.Servers[3].StatusLabel)
	assert.Equal(t, 4, v.Health.Online)
}

func TestBuild_Ready(t *testing.T) {
	rec := &ipinfo.Record{
		Address:      "203.0.113.9",
		City:         "Sydney",
		Region:       "New South Wales",
		Country:      "Australia",
		CountryCode:  "AU",
		Latitude:     ptr(-33.8688),
		Longitude:    ptr(151.2093),
		Organization: "Telstra",
		PostalCode:   "2000",
		TimeZone:     "Australia/Sydney",
	}
	snap := resolver.Snapshot{Status: resolver.StatusReady, Record: rec, UpdatedAt: now.Add(-12 * time.Second)}
	ua := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	v := Build(snap, fleet.Default(), "syd-aurora-1", ua, now)

	assert.Equal(t, "203.0.113.9", v.Identity)
	assert.Equal(t, "LIVE", v.Badge)
	assert.Equal(t, "Updated 12s ago", v.UpdatedLabel)
	assert.Equal(t, "🇦🇺 Sydney, Australia", v.Cards[0].Value)
	assert.Equal(t, "New South Wales", v.Cards[0].Hint)
	assert.Equal(t, "-33.87°, 151.21°", v.Cards[2].Value)
	assert.Equal(t, "Postal 2000", v.Cards[2].Hint)
	assert.Equal(t, "Aurora Tide", v.Cards[3].Value)
	assert.Equal(t, "syd-aurora-1", v.Selected)
	assert.True(t, v.Servers[3].Active)
	assert.False(t, v.Servers[0].Active)

	require.Len(t, v.Insights, 3)
	assert.Equal(t, "Long-Haul Route Active", v.Insights[1].Headline)
	assert.Equal(t, "104 ms latency", v.Insights[1].Accent)

	assert.Contains(t, v.Client.Browser, "Chrome")
	assert.Contains(t, v.Client.OS, "Windows")
	assert.False(t, v.Client.Bot)
}

func TestBuild_ZeroCoordinates(t *testing.T) {
	rec := &ipinfo.Record{Address: "192.0.2.1", Latitude: ptr(0), Longitude: ptr(0)}
	v := Build(resolver.Snapshot{Status: resolver.StatusReady, Record: rec}, nil, "", "", now)
	assert.Equal(t, "0.00°, 0.00°", v.Cards[2].Value)
}

func TestBuild_StaleError(t *testing.T) {
	rec := &ipinfo.Record{Address: "198.51.100.4", City: "Paris"}
	snap := resolver.Snapshot{
		Status:    resolver.StatusError,
		Record:    rec,
		UpdatedAt: now.Add(-3 * time.Minute),
		Error:     "all endpoints exhausted",
	}

	v := Build(snap, nil, "", "", now)
	assert.Equal(t, "Unavailable", v.Identity)
	assert.Equal(t, "ERROR", v.Badge)
	assert.True(t, v.Stale)
	assert.Equal(t, "Updated 3m ago (stale)", v.UpdatedLabel)
	assert.Equal(t, "all endpoints exhausted", v.Error)
	assert.Contains(t, v.Cards[0].Value, "Paris")

	// 没有节点目录时使用默认延迟
	assert.Equal(t, "Select server", v.Cards[3].Value)
	assert.Equal(t, "120 ms latency", v.Insights[1].Accent)
	assert.Empty(t, v.Servers)
}

func TestRender(t *testing.T) {
	rec := &ipinfo.Record{Address: "203.0.113.9", City: "Berlin", Country: "Germany", CountryCode: "DE"}
	v := Build(resolver.Snapshot{Status: resolver.StatusReady, Record: rec, UpdatedAt: now}, fleet.Default(), "fra-lumen-3", "", now)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, v))
	html := buf.String()

	assert.Contains(t, html, "<title>AetherVPN Command Center</title>")
	assert.Contains(t, html, "203.0.113.9")
	assert.Contains(t, html, "Geo Masking Vector")
	assert.Contains(t, html, "6 global exits")
	assert.Contains(t, html, "Lumen Pillar")
	assert.Contains(t, html, "DOUBLE-HOP")
	assert.Contains(t, html, `class="server active" href="/?server=fra-lumen-3"`)
}

func TestRender_EscapesUpstreamText(t *testing.T) {
	rec := &ipinfo.Record{Address: "203.0.113.9", Organization: "<script>alert(1)</script>"}
	v := Build(resolver.Snapshot{Status: resolver.StatusReady, Record: rec}, fleet.Default(), "", "", now)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, v))
	assert.NotContains(t, buf.String(), "<script>alert(1)</script>")
	assert.Contains(t, buf.String(), "&lt;script&gt;")
}
