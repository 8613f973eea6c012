package resolver

import (
	"context"
	"time"

	"github.com/sinspired/aether/pkg/ipinfo"
)

// Status 最近一次解析的状态
type Status string

const (
	StatusLoading Status = "loading" // 首轮解析尚未完成
	StatusReady   Status = "ready"
	StatusError   Status = "error" // 最近一轮所有 API 均失败
)

// Lookup 执行一轮解析, *ipinfo.Client 实现了该接口
type Lookup interface {
	Resolve(ctx context.Context) (ipinfo.Record, error)
}

// CycleObserver 每轮解析结束时回调, err 为 nil 表示成功
type CycleObserver interface {
	ObserveCycle(err error, at time.Time)
}

// Snapshot 对外发布的最新状态; Record 为最近一次成功的结果, 失败时保留
type Snapshot struct {
	Status     Status         `json:"status"`
	Record     *ipinfo.Record `json:"record,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"` // 最近一次成功
	CheckedAt  time.Time      `json:"checked_at"` // 最近一轮结束
	Error      string         `json:"error,omitempty"`
	Refreshing bool           `json:"refreshing"`
	Cycles     uint64         `json:"cycles"`
}

// Stale 解析失败但仍保留上一次成功的记录
func (s Snapshot) Stale() bool {
	return s.Status == StatusError && s.Record != nil
}
