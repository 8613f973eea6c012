package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sinspired/aether/internal/fleet"
)

func newServersCmd(cfgPath *string) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "servers",
		Short: "列出 VPN 节点目录",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return err
			}
			f, err := fleet.Load(cfg.FleetPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Servers []fleet.Server `json:"servers"`
					Health  fleet.Health   `json:"health"`
				}{f.Servers(), f.Health()})
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tLOCATION\tLATENCY\tLOAD\tSTATUS\tTAGS")
			for _, s := range f.Servers() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d ms\t%d%%\t%s\t%s\n",
					s.ID, s.Name, s.Location, s.Latency, s.Load, s.Status.Label(), strings.Join(s.Tags, ","))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			h := f.Health()
			_, err = fmt.Fprintf(out, "\noperational %d/%d, maintenance %d, offline %d, avg latency %.0f ms, avg load %.0f%%\n",
				h.Online, h.Total(), h.Maintenance, h.Offline, h.AverageLatency, h.AverageLoad)
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "输出 JSON")
	return cmd
}
