package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/sinspired/aether/internal/config"
	"github.com/sinspired/aether/internal/data"
	"github.com/sinspired/aether/internal/logger"
	"github.com/sinspired/aether/pkg/ipinfo"
)

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:   "aether",
		Short: "Aether 出口 IP 解析与 VPN 节点仪表盘",
		Long: `解析当前出口 IP 的地理位置 (多个 API 依次回退), 定时刷新,
并通过 HTTP 提供仪表盘、JSON 接口和 Prometheus 指标。`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfgPath)
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultEnvFile, "配置文件 (.env / .yaml / .json)")

	root.AddCommand(newServeCmd(&cfgPath))
	root.AddCommand(newResolveCmd(&cfgPath))
	root.AddCommand(newServersCmd(&cfgPath))
	return root
}

// loadConfig 读取配置并初始化全局日志
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if _, err := logger.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newClient 按配置创建 ipinfo 客户端; observer 可为 nil
func newClient(cfg *config.Config, endpoints []string, observer ipinfo.Observer) (*ipinfo.Client, error) {
	cidrs, err := data.LoadCloudflareCIDRs(cfg.CFCIDRPath)
	if err != nil {
		return nil, fmt.Errorf("加载 CDN 段失败: %w", err)
	}

	opts := []ipinfo.Option{
		ipinfo.WithHttpClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		ipinfo.WithEndpoints(endpoints...),
		ipinfo.WithDBPath(cfg.MaxMindDBPath),
		ipinfo.WithCDNRanges(cidrs),
	}
	if observer != nil {
		opts = append(opts, ipinfo.WithObserver(observer))
	}
	return ipinfo.New(opts...)
}
