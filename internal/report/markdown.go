package report

import (
	"fmt"
	"strings"
	"time"

	"epic-metrics/internal/jira"
	"epic-metrics/internal/stats"
	"epic-metrics/internal/visuals"
)

// Options controls report rendering.
type Options struct {
	Title   string
	Source  string
	Mermaid bool
	Now     time.Time
}

func (o Options) title() string {
	if o.Title != "" {
		return o.Title
	}
	return "Epic Metrics"
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now().UTC()
	}
	return o.Now.UTC()
}

// SummaryRow is one labelled metric in the report header.
type SummaryRow struct {
	Label string
	Value string
}

// Summary returns the headline metrics shared by the Markdown and HTML reports.
// The countdown to the projected date is taken relative to now, so a report of an
// older run can read as overdue.
func Summary(res stats.ProcessedResult, now time.Time) []SummaryRow {
	rows := []SummaryRow{
		{"Issues", fmt.Sprintf("%d (%d resolved)", res.TotalIssues, res.ResolvedIssues)},
		{"Story points", fmt.Sprintf("%s of %s completed", formatNumber(res.CompletedPoints), formatNumber(res.TotalPoints))},
		{"Completion", fmt.Sprintf("%.1f%%", res.Insights.CompletionPercentage)},
		{"Team size", fmt.Sprintf("%d", res.TotalAssignees)},
		{"Observed velocity", fmt.Sprintf("%.2f points/day", res.OriginalVelocity)},
		{"Projection velocity", fmt.Sprintf("%.2f points/day", res.AdjustedVelocity)},
	}

	if res.ProjectedCompletionDate != nil {
		rows = append(rows,
			SummaryRow{"Projected completion", *res.ProjectedCompletionDate},
			SummaryRow{"Days until completion", Countdown(*res.ProjectedCompletionDate, now)},
		)
	} else {
		rows = append(rows, SummaryRow{"Projected completion", "not enough resolved work to project"})
	}
	return rows
}

// Countdown describes the days left until projected, or how overdue it is.
func Countdown(projected string, now time.Time) string {
	days, ok := stats.DaysUntil(projected, now)
	switch {
	case !ok:
		return "-"
	case days > 0:
		return fmt.Sprintf("%d", days)
	case days == 0:
		return "overdue (due today)"
	default:
		return fmt.Sprintf("overdue by %d days", -days)
	}
}

// InsightLines describes the derived insights in plain sentences.
func InsightLines(res stats.ProcessedResult) []string {
	var lines []string
	ins := res.Insights

	if ins.BestWeek != nil {
		lines = append(lines, fmt.Sprintf("Best week: %s to %s with %s points completed.",
			ins.BestWeek.WeekStart, ins.BestWeek.WeekEnd, formatNumber(ins.BestWeek.Points)))
	}
	if ins.MostProductiveAssignee != nil {
		lines = append(lines, fmt.Sprintf("Most productive assignee: %s with %s points completed.",
			ins.MostProductiveAssignee.Name, formatNumber(ins.MostProductiveAssignee.CompletedPoints)))
	}
	if len(res.CycleTime) > 0 {
		lines = append(lines, fmt.Sprintf("Cycle time: %.1f days on average, %.1f days median.",
			ins.AverageCycleTimeDays, ins.MedianCycleTimeDays))
	}

	n := res.Normalization
	if dropped := n.MissingKey + n.InvalidCreated; dropped > 0 {
		lines = append(lines, fmt.Sprintf("%d of %d rows were skipped (missing key or unreadable creation date).", dropped, n.Rows))
	}
	if n.DefaultedPoints > 0 {
		lines = append(lines, fmt.Sprintf("%d issues had no usable estimate and count as %s point.",
			n.DefaultedPoints, formatNumber(jira.DefaultStoryPoints)))
	}
	if bad := n.InvalidUpdated + n.InvalidResolved; bad > 0 {
		lines = append(lines, fmt.Sprintf("%d unreadable updated or resolved dates were ignored.", bad))
	}
	return lines
}

// Markdown renders the full report as Markdown.
func Markdown(res stats.ProcessedResult, opts Options) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", opts.title()))
	if opts.Source != "" {
		sb.WriteString(fmt.Sprintf("Source: `%s`  \n", opts.Source))
	}
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", opts.now().Format(time.RFC3339)))

	sb.WriteString("| Metric | Value |\n|---|---|\n")
	for _, row := range Summary(res, opts.now()) {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", row.Label, row.Value))
	}

	if lines := InsightLines(res); len(lines) > 0 {
		sb.WriteString("\n## Insights\n\n")
		for _, l := range lines {
			sb.WriteString("- " + l + "\n")
		}
	}

	if len(res.AssigneeData) > 0 {
		sb.WriteString("\n## Assignees\n\n| Assignee | Issues | Assigned | Completed |\n|---|---|---|---|\n")
		for _, m := range res.AssigneeData {
			sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s |\n",
				m.Name, m.IssueCount, formatNumber(m.AssignedPoints), formatNumber(m.CompletedPoints)))
		}
	}

	if opts.Mermaid {
		for _, name := range visuals.ChartNames {
			chart, _ := visuals.Render(name, res)
			if chart == "" {
				continue
			}
			sb.WriteString(fmt.Sprintf("\n## %s\n\n%s\n", chartTitles[name], chart))
		}
	}

	return sb.String()
}

var chartTitles = map[string]string{
	visuals.ChartBurnup:    "Burnup",
	visuals.ChartBurndown:  "Burndown",
	visuals.ChartCFD:       "Cumulative Flow",
	visuals.ChartVelocity:  "Weekly Velocity",
	visuals.ChartAssignee:  "Assignee Breakdown",
	visuals.ChartCycleTime: "Cycle Time",
}

func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
