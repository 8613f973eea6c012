package main

import (
	"encoding/json"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/sinspired/aether/internal/config"
	"github.com/sinspired/aether/pkg/ipinfo"
)

func newResolveCmd(cfgPath *string) *cobra.Command {
	var (
		extended bool
		ip       string
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "执行一轮解析并输出 JSON; 全部 API 失败时返回非零",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			endpoints := cfg.LookupAPIs
			if extended {
				endpoints = config.ExtendedLookupAPIs
			}
			client, err := newClient(cfg, endpoints, nil)
			if err != nil {
				return err
			}
			defer client.Close()

			var rec ipinfo.Record
			if ip != "" {
				rec, err = client.LookupAddr(ip)
			} else {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
				defer stop()
				rec, err = client.Resolve(ctx)
			}
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}
	cmd.Flags().BoolVar(&extended, "extended", false, "使用更长的内置 API 列表")
	cmd.Flags().StringVar(&ip, "ip", "", "离线查询指定 IP (CDN 段 + MaxMind)")
	return cmd
}
