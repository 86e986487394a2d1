package commands

import (
	"epic-metrics/internal/api"

	"github.com/spf13/cobra"
)

var httpAddr string

var httpCmd = &cobra.Command{
	Use:   "http",
	Short: "Serve the processing API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := httpAddr
		if addr == "" {
			addr = cfg.HTTPAddr
		}

		ctx, cancel := signalContext(cmd)
		defer cancel()

		server := api.NewServer(analyzer, runStore, cfg.EnableMermaidCharts, Version)
		return server.ListenAndServe(ctx, addr)
	},
}

func init() {
	httpCmd.Flags().StringVar(&httpAddr, "addr", "", "listen address (default HTTP_ADDR)")
	rootCmd.AddCommand(httpCmd)
}
