// Package api HTTP 接口: 仪表盘页面、解析状态、节点目录和运维端点
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sinspired/aether/internal/dashboard"
	"github.com/sinspired/aether/internal/fleet"
	"github.com/sinspired/aether/internal/resolver"
	"github.com/sinspired/aether/pkg/ipinfo"
)

// StateSource 解析状态来源, *resolver.Resolver 实现了该接口
type StateSource interface {
	Snapshot() resolver.Snapshot
	Trigger()
}

// AddrLookup 离线查询指定 IP, *ipinfo.Client 实现了该接口
type AddrLookup interface {
	LookupAddr(ip string) (ipinfo.Record, error)
}

// Handler 持有各路由依赖
type Handler struct {
	state   StateSource
	fleet   *fleet.Fleet
	lookup  AddrLookup
	metrics http.Handler
	logger  *slog.Logger
	now     func() time.Time
}

// Option Handler 设置
type Option func(*Handler)

// WithAddrLookup 启用 /api/lookup/{ip}
func WithAddrLookup(l AddrLookup) Option {
	return func(h *Handler) { h.lookup = l }
}

// WithMetrics 在 /metrics 暴露指标
func WithMetrics(m http.Handler) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithLogger 指定请求日志; 默认使用 slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithClock 用于测试
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// New 创建 Handler; fleet 为 nil 时使用内置目录
func New(state StateSource, f *fleet.Fleet, opts ...Option) *Handler {
	h := &Handler{
		state:  state,
		fleet:  f,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.fleet == nil {
		h.fleet = fleet.Default()
	}
	return h
}

// Routes 完整的路由树
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Recoverer(h.logger))
	r.Use(RequestLogger(h.logger))
	r.Use(CORS)

	h.Register(r)
	return r
}

// Register 在 r 上注册全部路由
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.handleDashboardPage)
	r.Get("/healthz", h.handleHealth)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/", h.handleSnapshot)
		r.Get("/ip", h.handleIP)
		r.Get("/dashboard", h.handleDashboard)
		r.Get("/servers", h.handleServers)
		r.Get("/servers/{id}", h.handleServer)
		r.Get("/lookup/{ip}", h.handleLookup)
		r.Post("/refresh", h.handleRefresh)
	})
}

func (h *Handler) view(r *http.Request) dashboard.View {
	return dashboard.Build(
		h.state.Snapshot(),
		h.fleet,
		r.URL.Query().Get("server"),
		r.UserAgent(),
		h.now(),
	)
}

func (h *Handler) handleDashboardPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := dashboard.Render(w, h.view(r)); err != nil {
		h.logger.ErrorContext(r.Context(), "render dashboard failed",
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.state.Snapshot())
}

func (h *Handler) handleIP(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	if snap.Record == nil {
		msg := "ip not resolved yet"
		if snap.Error != "" {
			msg = snap.Error
		}
		writeError(w, http.StatusServiceUnavailable, msg)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ip":    snap.Record.Address,
		"stale": snap.Stale(),
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.view(r))
}

type serversResponse struct {
	Servers []fleet.Server `json:"servers"`
	Health  fleet.Health   `json:"health"`
}

func (h *Handler) handleServers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, serversResponse{
		Servers: h.fleet.Servers(),
		Health:  h.fleet.Health(),
	})
}

func (h *Handler) handleServer(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, ok := h.fleet.Find(id)
	if !ok {
		writeError(w, http.StatusNotFound, "server not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	if h.lookup == nil {
		writeError(w, http.StatusNotImplemented, "address lookup is disabled")
		return
	}
	rec, err := h.lookup.LookupAddr(chi.URLParam(r, "ip"))
	switch {
	case errors.Is(err, ipinfo.ErrInvalidAddress):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		h.logger.ErrorContext(r.Context(), "address lookup failed",
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
	default:
		writeJSON(w, http.StatusOK, rec)
	}
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	h.state.Trigger()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"resolver": snap.Status,
		"cycles":   snap.Cycles,
	})
}
