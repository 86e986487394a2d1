package commands

import (
	"epic-metrics/internal/mcp"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd)
		defer cancel()

		server := mcp.NewServer(analyzer, runStore, cfg.EnableMermaidCharts, Version)
		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
