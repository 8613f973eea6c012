package fleet

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyFleet 目录中没有任何节点
var ErrEmptyFleet = errors.New("fleet has no servers")

// Fleet 只读节点目录, 创建后不再修改, 可并发使用
type Fleet struct {
	servers []Server
	index   map[string]int
}

// fileFormat YAML 文件结构
type fileFormat struct {
	Servers []Server `yaml:"servers"`
}

// New 校验并创建目录: id 非空且唯一, 负载 0-100, 延迟非负, 状态已知
func New(servers []Server) (*Fleet, error) {
	if len(servers) == 0 {
		return nil, ErrEmptyFleet
	}
	f := &Fleet{
		servers: cloneServers(servers),
		index:   make(map[string]int, len(servers)),
	}
	for i, s := range f.servers {
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, dup := f.index[s.ID]; dup {
			return nil, fmt.Errorf("duplicate server id %q", s.ID)
		}
		f.servers[i].CountryCode = strings.ToUpper(s.CountryCode)
		f.index[s.ID] = i
	}
	return f, nil
}

// Default 内置目录
func Default() *Fleet {
	f, err := New(defaultServers)
	if err != nil {
		panic(err)
	}
	return f
}

// Load 从 YAML 文件加载目录, 路径为空时使用内置目录
func Load(path string) (*Fleet, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取节点文件失败: %w", err)
	}
	var ff fileFormat
	if err := yaml.Unmarshal(raw, &ff); err != nil {
		return nil, fmt.Errorf("解析节点文件失败: %w", err)
	}
	f, err := New(ff.Servers)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	slog.Info("已加载节点目录", "path", path, "servers", len(f.servers))
	return f, nil
}

// Servers 按配置顺序返回全部节点的副本
func (f *Fleet) Servers() []Server {
	return cloneServers(f.servers)
}

// Len 节点数量
func (f *Fleet) Len() int {
	return len(f.servers)
}

// Find 按 id 查找
func (f *Fleet) Find(id string) (Server, bool) {
	i, ok := f.index[id]
	if !ok {
		return Server{}, false
	}
	return cloneServers(f.servers[i : i+1])[0], true
}

// Select 返回选中的节点, id 未知或为空时返回第一个
func (f *Fleet) Select(id string) Server {
	if s, ok := f.Find(id); ok {
		return s
	}
	return cloneServers(f.servers[:1])[0]
}

// Health 各状态数量以及平均延迟和负载
func (f *Fleet) Health() Health {
	var h Health
	var latency, load int
	for _, s := range f.servers {
		switch s.Status {
		case StatusOnline:
			h.Online++
		case StatusMaintenance:
			h.Maintenance++
		case StatusOffline:
			h.Offline++
		}
		latency += s.Latency
		load += s.Load
	}
	n := float64(len(f.servers))
	h.AverageLatency = float64(latency) / n
	h.AverageLoad = float64(load) / n
	return h
}
