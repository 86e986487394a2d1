package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"epic-metrics/internal/analysis"
	"epic-metrics/internal/jira"
	"epic-metrics/internal/report"

	"github.com/spf13/cobra"
)

// overrideFlags are shared by every command that processes an export.
type overrideFlags struct {
	teamMembers int
	velocity    float64
	asOf        string
	record      bool
}

func (f *overrideFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.teamMembers, "team-members", 0, "team size used to rescale the observed velocity")
	cmd.Flags().Float64Var(&f.velocity, "velocity", 0, "fixed velocity in story points per day (disables team rescaling)")
	cmd.Flags().StringVar(&f.asOf, "as-of", "", "project from this day (YYYY-MM-DD) instead of today")
	cmd.Flags().BoolVar(&f.record, "record", false, "append each run to the run history")
}

func (f *overrideFlags) request() (analysis.Request, error) {
	req := analysis.Request{
		TeamMembers: f.teamMembers,
		Velocity:    f.velocity,
		Record:      f.record,
	}
	if f.asOf != "" {
		day, err := jira.ParseDay(f.asOf)
		if err != nil {
			return req, fmt.Errorf("invalid --as-of %q: expected YYYY-MM-DD", f.asOf)
		}
		req.Now = day
	}
	return req, nil
}

var (
	analyzeFlags     overrideFlags
	analyzeJSON      bool
	analyzeNoCharts  bool
	analyzeExportCSV string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <export.csv>...",
	Short: "Process one or more Jira CSV exports and print the metrics",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if analyzeExportCSV != "" && len(args) != 1 {
			return errors.New("--export-csv requires exactly one input file")
		}

		req, err := analyzeFlags.request()
		if err != nil {
			return err
		}
		req.IncludeIssues = analyzeExportCSV != ""

		ctx, cancel := signalContext(cmd)
		defer cancel()

		runs, err := analyzer.AnalyzeFiles(ctx, args, req)
		if err != nil {
			return err
		}

		if analyzeExportCSV != "" {
			if err := exportIssues(analyzeExportCSV, runs[0].Result.Issues); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if analyzeJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if len(runs) == 1 {
				return enc.Encode(runs[0])
			}
			return enc.Encode(runs)
		}

		for i, run := range runs {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprint(out, report.Markdown(run.Result, report.Options{
				Source:  run.Source,
				Mermaid: cfg.EnableMermaidCharts && !analyzeNoCharts,
				Now:     req.Now,
			}))
		}
		return nil
	},
}

func exportIssues(path string, issues []jira.Issue) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return jira.WriteCSV(f, issues)
}

func init() {
	analyzeFlags.register(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the full result as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeNoCharts, "no-charts", false, "omit Mermaid charts from the Markdown output")
	analyzeCmd.Flags().StringVar(&analyzeExportCSV, "export-csv", "", "write the normalized issues to this CSV file")
	rootCmd.AddCommand(analyzeCmd)
}
