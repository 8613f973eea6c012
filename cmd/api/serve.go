package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sinspired/aether/api"
	"github.com/sinspired/aether/internal/config"
	"github.com/sinspired/aether/internal/fleet"
	"github.com/sinspired/aether/internal/metrics"
	"github.com/sinspired/aether/internal/resolver"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务和定时解析 (默认命令)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *cfgPath)
		},
	}
}

func runServe(ctx context.Context, cfgPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// 自动创建 .env 文件
	if cfgPath == config.DefaultEnvFile {
		if err := config.EnsureEnvFile(cfgPath); err != nil {
			slog.Warn("创建默认配置失败", "error", err)
		}
	}
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	client, err := newClient(cfg, cfg.LookupAPIs, m)
	if err != nil {
		return err
	}
	defer client.Close()

	f, err := fleet.Load(cfg.FleetPath)
	if err != nil {
		return err
	}

	res := resolver.NewResolver(client,
		resolver.WithInterval(cfg.RefreshInterval),
		resolver.WithObserver(m),
	)
	h := api.New(res, f,
		api.WithAddrLookup(client),
		api.WithMetrics(m.Handler()),
		api.WithLogger(slog.Default()),
	)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		res.Start(ctx)
		<-ctx.Done()
		res.Stop()
		res.Wait()
		return nil
	})
	g.Go(func() error {
		slog.Info(fmt.Sprintf("listening on http://localhost%s ...", cfg.Addr),
			"endpoints", cfg.LookupAPIs,
			"interval", cfg.RefreshInterval.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		slog.Info("server stopped")
		return nil
	})

	return g.Wait()
}
