package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"epic-metrics/internal/analysis"
	"epic-metrics/internal/report"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	reportFlags  overrideFlags
	reportOutDir string
	reportFormat string
	reportTitle  string
	reportOpen   bool
)

var reportCmd = &cobra.Command{
	Use:   "report <export.csv>",
	Short: "Write an HTML or Markdown report for a Jira CSV export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := reportFlags.request()
		if err != nil {
			return err
		}
		req.Path = args[0]

		ctx, cancel := signalContext(cmd)
		defer cancel()

		run, err := analyzer.Analyze(ctx, req)
		if err != nil {
			return err
		}

		dir := reportOutDir
		if dir == "" {
			dir = cfg.ReportDir
		}
		path, err := writeReport(run, dir, reportFormat, report.Options{
			Title:   reportTitle,
			Source:  run.Source,
			Mermaid: cfg.EnableMermaidCharts,
			Now:     req.Now,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)

		if reportOpen {
			if err := browser.OpenFile(path); err != nil {
				log.Warn().Err(err).Str("path", path).Msg("Failed to open report in browser")
			}
		}
		return nil
	},
}

func writeReport(run *analysis.Run, dir, format string, opts report.Options) (string, error) {
	name := analysis.ReportName(run.Source)
	switch format {
	case "", "html":
		return report.WriteHTMLFile(dir, name, run.Result, opts)
	case "markdown", "md":
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create report directory: %w", err)
		}
		path := filepath.Join(dir, name+".md")
		if err := os.WriteFile(path, []byte(report.Markdown(run.Result, opts)), 0644); err != nil {
			return "", fmt.Errorf("failed to write report: %w", err)
		}
		return path, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected html or markdown)", format)
	}
}

func init() {
	reportFlags.register(reportCmd)
	reportCmd.Flags().StringVarP(&reportOutDir, "out", "o", "", "output directory (default REPORT_DIR)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "html", "html or markdown")
	reportCmd.Flags().StringVar(&reportTitle, "title", "", "report title")
	reportCmd.Flags().BoolVar(&reportOpen, "open", false, "open the report in the default browser")
	rootCmd.AddCommand(reportCmd)
}
