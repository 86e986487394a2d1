package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"epic-metrics/internal/analysis"
	"epic-metrics/internal/config"
	"epic-metrics/internal/history"
	"epic-metrics/internal/logging"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig

	runStore *history.Store
	analyzer *analysis.Analyzer
)

var rootCmd = &cobra.Command{
	Use:   "epic-metrics",
	Short: "Epic progress metrics and completion forecasts from Jira CSV exports",
	Long: `epic-metrics turns a Jira CSV export of an epic into burnup and burndown charts,
velocity, a projected completion date, per-assignee breakdowns, cumulative flow and cycle times.

Without a subcommand it runs as an MCP server on stdio.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		runStore = history.NewStore(cfg.CacheDir)
		if err := runStore.Load(); err != nil {
			log.Warn().Err(err).Msg("Run history unavailable")
		}
		analyzer = analysis.NewAnalyzer(cfg, runStore)

		log.Debug().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("epic-metrics starting")
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func init() {
	rootCmd.Version = Version
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
