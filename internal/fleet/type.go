// Package fleet VPN 出口节点目录: 内置默认节点, 可由 YAML 文件覆盖
package fleet

import "fmt"

// Status 节点运行状态
type Status string

const (
	StatusOnline      Status = "online"
	StatusMaintenance Status = "maintenance"
	StatusOffline     Status = "offline"
)

// Label 卡片上显示的短标签
func (s Status) Label() string {
	switch s {
	case StatusOnline:
		return "LIVE"
	case StatusMaintenance:
		return "MAINT"
	default:
		return "DOWN"
	}
}

// Valid 是否为已知状态
func (s Status) Valid() bool {
	switch s {
	case StatusOnline, StatusMaintenance, StatusOffline:
		return true
	}
	return false
}

// Server 一个 VPN 出口节点
type Server struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Location    string   `yaml:"location" json:"location"`
	CountryCode string   `yaml:"country_code" json:"country_code"`
	Latency     int      `yaml:"latency" json:"latency"` // ms
	Load        int      `yaml:"load" json:"load"`       // 百分比
	Status      Status   `yaml:"status" json:"status"`
	Tags        []string `yaml:"tags" json:"tags"`
}

func (s Server) validate() error {
	switch {
	case s.ID == "":
		return fmt.Errorf("server %q: empty id", s.Name)
	case s.Load < 0 || s.Load > 100:
		return fmt.Errorf("server %s: load %d out of range 0-100", s.ID, s.Load)
	case s.Latency < 0:
		return fmt.Errorf("server %s: negative latency %d", s.ID, s.Latency)
	case !s.Status.Valid():
		return fmt.Errorf("server %s: unknown status %q", s.ID, s.Status)
	}
	return nil
}

// Health 节点汇总
type Health struct {
	Online         int     `json:"online"`
	Maintenance    int     `json:"maintenance"`
	Offline        int     `json:"offline"`
	AverageLatency float64 `json:"average_latency"`
	AverageLoad    float64 `json:"average_load"`
}

// Total 节点总数
func (h Health) Total() int {
	return h.Online + h.Maintenance + h.Offline
}
