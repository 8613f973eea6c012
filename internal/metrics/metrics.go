// Package metrics 解析过程的 Prometheus 指标
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sinspired/aether/pkg/ipinfo"
)

// Metrics 同时实现 ipinfo.Observer 和 resolver.CycleObserver
type Metrics struct {
	LookupAttempts *prometheus.CounterVec
	LookupDuration *prometheus.HistogramVec
	Cycles         *prometheus.CounterVec
	LastSuccess    prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New 在 reg 上注册全部指标; reg 为 nil 时新建一个独立的注册表
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		LookupAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aether_lookup_attempts_total",
			Help: "Lookup attempts per endpoint, partitioned by outcome",
		}, []string{"endpoint", "outcome"}),
		LookupDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aether_lookup_duration_seconds",
			Help:    "Time spent on a single endpoint lookup",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		Cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "aether_resolution_cycles_total",
			Help: "Completed resolution cycles, partitioned by result",
		}, []string{"result"}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "aether_last_success_timestamp_seconds",
			Help: "Unix time of the last successful resolution cycle",
		}),
		gatherer: reg,
	}
}

// ObserveAttempt 记录一次 API 请求
func (m *Metrics) ObserveAttempt(endpoint string, err error, seconds float64) {
	m.LookupAttempts.WithLabelValues(endpoint, ipinfo.Outcome(err)).Inc()
	m.LookupDuration.WithLabelValues(endpoint).Observe(seconds)
}

// ObserveCycle 记录一轮解析
func (m *Metrics) ObserveCycle(err error, at time.Time) {
	if err != nil {
		m.Cycles.WithLabelValues("failure").Inc()
		return
	}
	m.Cycles.WithLabelValues("success").Inc()
	m.LastSuccess.Set(float64(at.Unix()))
}

// Handler /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
