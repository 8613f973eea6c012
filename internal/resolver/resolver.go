package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultInterval 定时刷新间隔
const DefaultInterval = 30 * time.Second

// Resolver 启动时解析一次, 之后按固定间隔刷新, 并保存最新结果供并发读取
type Resolver struct {
	lookup   Lookup
	interval time.Duration
	observer CycleObserver
	now      func() time.Time

	mu    sync.RWMutex
	snap  Snapshot
	alive bool

	// sem 容量为 1, 定时任务与 Refresh 共用, 同一时间只有一轮解析
	sem       chan struct{}
	job       cron.Job
	scheduler *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
	inflight  sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// Option 解析器设置
type Option func(*Resolver)

// WithInterval 指定刷新间隔, cron 最小精度为 1 秒
func WithInterval(d time.Duration) Option {
	return func(r *Resolver) {
		if d >= time.Second {
			r.interval = d
		}
	}
}

// WithObserver 指定每轮结束的回调
func WithObserver(o CycleObserver) Option {
	return func(r *Resolver) {
		r.observer = o
	}
}

// WithClock 指定时间来源, 用于测试
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver 创建一个新的 Resolver 实例, 调用 Start 后开始解析
func NewResolver(lookup Lookup, opts ...Option) *Resolver {
	r := &Resolver{
		lookup:   lookup,
		interval: DefaultInterval,
		now:      time.Now,
		snap:     Snapshot{Status: StatusLoading},
		alive:    true,
		sem:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.ctx, r.cancel = context.WithCancel(context.Background())

	logger := cronLogger{}
	r.job = cron.NewChain(cron.SkipIfStillRunning(logger)).Then(cron.FuncJob(r.runCycle))
	r.scheduler = cron.New(cron.WithLogger(logger))
	return r
}

// Start 立即解析一次并开始定时刷新; ctx 结束时等同于调用 Stop
func (r *Resolver) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		if !r.isAlive() {
			return
		}
		r.scheduler.Schedule(cron.Every(r.interval), r.job)
		r.scheduler.Start()
		r.Trigger()

		go func() {
			select {
			case <-ctx.Done():
				r.Stop()
			case <-r.ctx.Done():
			}
		}()
		slog.Info("resolver started", "interval", r.interval.String())
	})
}

// Stop 停止定时刷新, 可重复调用; 进行中的解析结果会被丢弃
func (r *Resolver) Stop() {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.alive = false
		r.snap.Refreshing = false
		r.mu.Unlock()

		r.cancel()
		r.scheduler.Stop()
		slog.Info("resolver stopped")
	})
}

// Wait 等待进行中的解析结束
func (r *Resolver) Wait() {
	r.inflight.Wait()
}

// Trigger 在后台立即执行一轮解析, 上一轮未结束时跳过
func (r *Resolver) Trigger() {
	go r.job.Run()
}

// Snapshot 返回最新发布的状态
func (r *Resolver) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

// Refresh 同步执行一轮解析并返回发布后的状态; 已有一轮在进行时先等待其结束,
// ctx 结束或已停止时直接返回当前状态
func (r *Resolver) Refresh(ctx context.Context) Snapshot {
	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return r.Snapshot()
	case <-r.ctx.Done():
		return r.Snapshot()
	}
	defer func() { <-r.sem }()

	if !r.begin() {
		return r.Snapshot()
	}
	defer r.inflight.Done()

	ctx, cancel := mergeCancel(ctx, r.ctx)
	defer cancel()
	return r.cycle(ctx)
}

func (r *Resolver) runCycle() {
	select {
	case r.sem <- struct{}{}:
	default:
		slog.Debug("resolver cycle already running, skip")
		return
	}
	defer func() { <-r.sem }()

	if !r.begin() {
		return
	}
	defer r.inflight.Done()
	r.cycle(r.ctx)
}

// begin 登记一轮解析, 已停止时返回 false
func (r *Resolver) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.alive {
		return false
	}
	r.inflight.Add(1)
	r.snap.Refreshing = true
	return true
}

func (r *Resolver) cycle(ctx context.Context) Snapshot {
	rec, err := r.lookup.Resolve(ctx)
	at := r.now()

	r.mu.Lock()
	if !r.alive {
		r.mu.Unlock()
		slog.Debug("resolver stopped, discarding late result")
		return r.Snapshot()
	}
	if errors.Is(err, context.Canceled) {
		r.snap.Refreshing = false
		r.mu.Unlock()
		return r.Snapshot()
	}
	if err == nil && !rec.Valid() {
		err = errors.New("resolved record has no address")
	}

	r.snap.Refreshing = false
	r.snap.CheckedAt = at
	r.snap.Cycles++
	if err != nil {
		r.snap.Status = StatusError
		r.snap.Error = err.Error()
	} else {
		r.snap.Status = StatusReady
		r.snap.Record = &rec
		r.snap.UpdatedAt = at
		r.snap.Error = ""
	}
	snap := r.snap
	r.mu.Unlock()

	if r.observer != nil {
		r.observer.ObserveCycle(err, at)
	}
	if err != nil {
		slog.Warn("IP 解析失败", "error", err)
	} else {
		slog.Debug(fmt.Sprintf("IP 解析成功: %s (%s)", rec.Address, rec.Source))
	}
	return snap
}

func (r *Resolver) isAlive() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.alive
}

// mergeCancel 任一 ctx 结束时取消
func mergeCancel(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// cronLogger 将 cron 的日志转到 slog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
