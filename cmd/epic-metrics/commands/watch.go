package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"epic-metrics/internal/analysis"
	"epic-metrics/internal/report"
	"epic-metrics/internal/watch"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	watchFlags  overrideFlags
	watchReport bool
)

var headlineStyle = lipgloss.NewStyle().Bold(true)

var watchCmd = &cobra.Command{
	Use:   "watch <export.csv|dir>...",
	Short: "Re-process exports whenever they change on disk",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := watchFlags.request()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext(cmd)
		defer cancel()

		out := cmd.OutOrStdout()
		process := func(path string) {
			req := base
			req.Path = path
			run, err := analyzer.Analyze(ctx, req)
			if err != nil {
				log.Error().Err(err).Str("path", path).Msg("Failed to process export")
				return
			}
			printHeadline(out, run)

			if watchReport {
				reportPath, err := writeReport(run, cfg.ReportDir, "html", report.Options{
					Source:  run.Source,
					Mermaid: cfg.EnableMermaidCharts,
					Now:     req.Now,
				})
				if err != nil {
					log.Error().Err(err).Msg("Failed to write report")
					return
				}
				log.Info().Str("path", reportPath).Msg("Report updated")
			}
		}

		w, err := watch.NewWatcher(watch.DefaultDebounce, process)
		if err != nil {
			return err
		}
		for _, path := range args {
			if err := w.Add(path); err != nil {
				return err
			}
		}

		log.Info().Strs("paths", args).Msg("Watching exports, press Ctrl+C to stop")
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func printHeadline(out io.Writer, run *analysis.Run) {
	res := run.Result
	projected := "no projection"
	if res.ProjectedCompletionDate != nil {
		projected = "projected " + *res.ProjectedCompletionDate
	}
	fmt.Fprintf(out, "%s %.0f/%.0f points (%.1f%%), %.2f points/day, %s\n",
		headlineStyle.Render(run.Source),
		res.CompletedPoints, res.TotalPoints, res.Insights.CompletionPercentage,
		res.AdjustedVelocity, projected)
}

func init() {
	watchFlags.register(watchCmd)
	watchCmd.Flags().BoolVar(&watchReport, "report", false, "rewrite the HTML report after every change")
	rootCmd.AddCommand(watchCmd)
}
