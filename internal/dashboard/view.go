package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/mileusna/useragent"

	"github.com/sinspired/aether/internal/fleet"
	"github.com/sinspired/aether/internal/resolver"
	"github.com/sinspired/aether/pkg/ipinfo"
)

// Title 页面标题
const Title = "AetherVPN Command Center"

// defaultLatency 没有可选节点时用于分析的延迟
const defaultLatency = 120

// StatCard 身份面板中的一格
type StatCard struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Hint  string `json:"hint"`
}

// ServerCard 节点列表中的一项
type ServerCard struct {
	fleet.Server
	Flag        string `json:"flag"`
	StatusLabel string `json:"status_label"`
	Active      bool   `json:"active"`
}

// Client 访问者的浏览器信息
type Client struct {
	Browser string `json:"browser,omitempty"`
	OS      string `json:"os,omitempty"`
	Device  string `json:"device,omitempty"`
	Mobile  bool   `json:"mobile"`
	Bot     bool   `json:"bot"`
}

// View 渲染页面或 /api/dashboard 所需的全部数据
type View struct {
	Title        string          `json:"title"`
	Status       resolver.Status `json:"status"`
	Identity     string          `json:"identity"`
	Badge        string          `json:"badge"`
	UpdatedLabel string          `json:"updated_label"`
	Stale        bool            `json:"stale"`
	Error        string          `json:"error,omitempty"`
	Record       *ipinfo.Record  `json:"record,omitempty"`
	Cards        []StatCard      `json:"cards"`
	Insights     []Insight       `json:"insights"`
	Selected     string          `json:"selected"`
	Servers      []ServerCard    `json:"servers"`
	Health       fleet.Health    `json:"health"`
	Client       Client          `json:"client"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

// Build 组合解析状态与节点目录; selectedID 未知时选中第一个节点
func Build(snap resolver.Snapshot, f *fleet.Fleet, selectedID, userAgent string, now time.Time) View {
	v := View{
		Title:       Title,
		Status:      snap.Status,
		Record:      snap.Record,
		Stale:       snap.Stale(),
		Error:       snap.Error,
		Client:      parseClient(userAgent),
		GeneratedAt: now,
	}

	switch {
	case snap.Status == resolver.StatusReady && snap.Record != nil:
		v.Identity = snap.Record.Address
		v.Badge = "LIVE"
	case snap.Status == resolver.StatusLoading:
		v.Identity = "Resolving…"
		v.Badge = "SYNC"
	default:
		v.Identity = "Unavailable"
		v.Badge = "ERROR"
	}

	v.UpdatedLabel = "Updated " + RelativeTime(snap.UpdatedAt, now)
	if v.Stale {
		v.UpdatedLabel += " (stale)"
	}

	latency := defaultLatency
	var selected *fleet.Server
	if f != nil && f.Len() > 0 {
		s := f.Select(selectedID)
		selected = &s
		latency = s.Latency
		v.Selected = s.ID
		v.Health = f.Health()
		for _, srv := range f.Servers() {
			v.Servers = append(v.Servers, ServerCard{
				Server:      srv,
				Flag:        FlagEmoji(srv.CountryCode),
				StatusLabel: srv.Status.Label(),
				Active:      srv.ID == s.ID,
			})
		}
	}

	v.Cards = statCards(snap.Record, selected)
	v.Insights = BuildInsights(snap.Record, latency)
	return v
}

func statCards(rec *ipinfo.Record, gw *fleet.Server) []StatCard {
	if rec == nil {
		rec = &ipinfo.Record{}
	}

	coords := "Encrypted"
	if rec.HasCoordinates() {
		coords = fmt.Sprintf("%.2f°, %.2f°", *rec.Latitude, *rec.Longitude)
	}
	postal := "Postal obfuscated"
	if rec.PostalCode != "" {
		postal = "Postal " + rec.PostalCode
	}

	gateway := StatCard{Label: "Preferred Gateway", Value: "Select server", Hint: "— • 0 ms"}
	if gw != nil {
		gateway.Value = gw.Name
		gateway.Hint = fmt.Sprintf("%s • %d ms", orDefault(gw.Location, "—"), gw.Latency)
	}

	return []StatCard{
		{
			Label: "Geofence",
			Value: fmt.Sprintf("%s %s, %s", FlagEmoji(rec.CountryCode), orDefault(rec.City, "—"), orDefault(rec.Country, "—")),
			Hint:  orDefault(rec.Region, "Locating region"),
		},
		{
			Label: "Carrier Graph",
			Value: orDefault(rec.Organization, "Reconciling…"),
			Hint:  orDefault(rec.TimeZone, "Timezone sync pending"),
		},
		{Label: "Coordinates", Value: coords, Hint: postal},
		gateway,
	}
}

func parseClient(ua string) Client {
	if ua == "" {
		return Client{}
	}
	p := useragent.Parse(ua)
	c := Client{
		Browser: strings.TrimSpace(p.Name + " " + p.Version),
		OS:      strings.TrimSpace(p.OS + " " + p.OSVersion),
		Device:  p.Device,
		Mobile:  p.Mobile || p.Tablet,
		Bot:     p.Bot,
	}
	return c
}
