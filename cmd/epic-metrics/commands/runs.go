package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"epic-metrics/internal/history"
	"epic-metrics/internal/report"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var (
	runsSource string
	runsLimit  int
	runsJSON   bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded analysis runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		runs := runStore.List(runsSource)
		if runsLimit > 0 && len(runs) > runsLimit {
			runs = runs[len(runs)-runsLimit:]
		}

		out := cmd.OutOrStdout()
		if runsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs recorded yet. Use --record with analyze, report or watch.")
			return nil
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
			Headers("PROCESSED", "SOURCE", "POINTS", "VELOCITY", "PROJECTED", "DAYS LEFT", "ID")
		now := time.Now()
		for _, r := range runs {
			t.Row(runRow(r, now)...)
		}
		fmt.Fprintln(out, t.String())
		return nil
	},
}

// runRow formats one history record; the countdown is relative to now.
func runRow(r history.RunRecord, now time.Time) []string {
	projected, left := "-", "-"
	if r.ProjectedCompletionDate != "" {
		projected = r.ProjectedCompletionDate
		left = report.Countdown(r.ProjectedCompletionDate, now)
	}
	return []string{
		r.ProcessedAt.Local().Format(time.DateTime),
		r.Source,
		fmt.Sprintf("%.0f/%.0f", r.CompletedPoints, r.TotalPoints),
		fmt.Sprintf("%.2f", r.Velocity),
		projected,
		left,
		r.ID,
	}
}

func init() {
	runsCmd.Flags().StringVar(&runsSource, "source", "", "only runs of this export file name")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "show at most this many recent runs (0 for all)")
	runsCmd.Flags().BoolVar(&runsJSON, "json", false, "print runs as JSON")
	rootCmd.AddCommand(runsCmd)
}
