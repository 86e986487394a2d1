package visuals

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"epic-metrics/internal/stats"
)

// Chart names accepted by Render.
const (
	ChartBurnup    = "burnup"
	ChartBurndown  = "burndown"
	ChartCFD       = "cfd"
	ChartVelocity  = "velocity"
	ChartAssignee  = "assignee"
	ChartCycleTime = "cycletime"
)

// ChartNames lists every chart in report order.
var ChartNames = []string{ChartBurnup, ChartBurndown, ChartCFD, ChartVelocity, ChartAssignee, ChartCycleTime}

// ErrUnknownChart is returned by Render for names outside ChartNames.
var ErrUnknownChart = errors.New("unknown chart")

// maxPoints is roughly where xychart labels start to overlap.
const maxPoints = 60

// cycleTimeRows caps the cycle-time listing.
const cycleTimeRows = 20

type plot struct {
	kind string // "line" or "bar"
	data []float64
}

// Render returns the named chart as a fenced Mermaid block, or "" when the result
// has no data for it.
func Render(name string, res stats.ProcessedResult) (string, error) {
	switch name {
	case ChartBurnup:
		return GenerateBurnupChart(res.Burnup), nil
	case ChartBurndown:
		return GenerateBurndownChart(res.Burndown), nil
	case ChartCFD:
		return GenerateCFDChart(res.CumulativeFlow), nil
	case ChartVelocity:
		return GenerateVelocityChart(res.WeeklyVelocity), nil
	case ChartAssignee:
		return GenerateAssigneeChart(res.AssigneeData), nil
	case ChartCycleTime:
		return GenerateCycleTimeTable(res.CycleTime), nil
	default:
		return "", fmt.Errorf("%w %q (expected one of %s)", ErrUnknownChart, name, strings.Join(ChartNames, ", "))
	}
}

// GenerateBurnupChart draws completed points against total scope. The projection
// line follows the completed line until the forecast starts.
func GenerateBurnupChart(chart stats.ChartData) string {
	completed, ok := chart.Find(stats.SeriesCompleted)
	if !ok || len(chart.Labels) == 0 {
		return ""
	}
	scope, _ := chart.Find(stats.SeriesTotalScope)

	plots := []plot{
		{kind: "line", data: carryForward(scope.Data)},
		{kind: "line", data: carryForward(completed.Data)},
	}
	if projected, ok := chart.Find(stats.SeriesProjected); ok {
		plots = append(plots, plot{kind: "line", data: overlay(completed.Data, projected.Data)})
	}
	return renderXYChart("Epic Burnup", "Story Points", chart.Labels, plots)
}

// GenerateBurndownChart draws remaining points, with the projected remaining line
// when a forecast exists.
func GenerateBurndownChart(chart stats.ChartData) string {
	remaining, ok := chart.Find(stats.SeriesRemaining)
	if !ok || len(chart.Labels) == 0 {
		return ""
	}

	plots := []plot{{kind: "line", data: carryForward(remaining.Data)}}
	if projected, ok := chart.Find(stats.SeriesProjectedRemaining); ok {
		plots = append(plots, plot{kind: "line", data: overlay(remaining.Data, projected.Data)})
	}
	return renderXYChart("Epic Burndown", "Remaining Points", chart.Labels, plots)
}

// GenerateCFDChart draws one line per status. xychart has no stacked areas, so
// each line is the cumulative total up to and including its status.
func GenerateCFDChart(chart stats.ChartData) string {
	if len(chart.Labels) == 0 || len(chart.Series) == 0 {
		return ""
	}

	running := make([]float64, len(chart.Labels))
	var plots []plot
	for _, s := range chart.Series {
		values := carryForward(s.Data)
		line := make([]float64, len(running))
		for i := range running {
			if i < len(values) {
				running[i] += values[i]
			}
			line[i] = running[i]
		}
		plots = append(plots, plot{kind: "line", data: line})
	}

	var sb strings.Builder
	sb.WriteString(renderXYChart("Cumulative Flow", "Issues", chart.Labels, plots))
	sb.WriteString("\n\nStacking order (bottom to top): ")
	for i, s := range chart.Series {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(s.Label)
	}
	return sb.String()
}

// GenerateVelocityChart draws weekly completed points as bars with the moving
// average as a line.
func GenerateVelocityChart(weeks []stats.WeeklyVelocity) string {
	if len(weeks) == 0 {
		return ""
	}

	labels := make([]string, len(weeks))
	points := make([]stats.Value, len(weeks))
	averages := make([]stats.Value, len(weeks))
	for i, w := range weeks {
		labels[i] = w.WeekStarting
		points[i] = stats.Some(w.Points)
		averages[i] = w.MovingAverage
	}

	return renderXYChart("Weekly Velocity", "Story Points", labels, []plot{
		{kind: "bar", data: carryForward(points)},
		{kind: "line", data: overlay(points, averages)},
	})
}

// GenerateAssigneeChart compares assigned and completed points per assignee.
func GenerateAssigneeChart(metrics []stats.AssigneeMetric) string {
	if len(metrics) == 0 {
		return ""
	}

	labels := make([]string, len(metrics))
	assigned := make([]float64, len(metrics))
	completed := make([]float64, len(metrics))
	for i, m := range metrics {
		labels[i] = m.Name
		assigned[i] = m.AssignedPoints
		completed[i] = m.CompletedPoints
	}

	return renderXYChart("Points per Assignee", "Story Points", labels, []plot{
		{kind: "bar", data: assigned},
		{kind: "bar", data: completed},
	})
}

// GenerateCycleTimeTable lists the most recent resolutions. Mermaid has no scatter
// chart, so the bubble chart becomes a table.
func GenerateCycleTimeTable(points []stats.CycleTimePoint) string {
	if len(points) == 0 {
		return ""
	}

	start := 0
	if len(points) > cycleTimeRows {
		start = len(points) - cycleTimeRows
	}

	var sb strings.Builder
	sb.WriteString("| Issue | Resolved | Cycle Time (Days) | Story Points |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, p := range points[start:] {
		sb.WriteString(fmt.Sprintf("| %s | %s | %.1f | %s |\n", p.Key, p.Resolved, p.Days, formatPoints(p.StoryPoints)))
	}
	if start > 0 {
		sb.WriteString(fmt.Sprintf("\n_%d earlier resolutions omitted._\n", start))
	}
	return sb.String()
}

func renderXYChart(title, yLabel string, labels []string, plots []plot) string {
	step := 1
	if len(labels) > maxPoints {
		step = int(math.Ceil(float64(len(labels)) / maxPoints))
	}

	var keep []int
	for i := range labels {
		if i%step == 0 || i == len(labels)-1 {
			keep = append(keep, i)
		}
	}

	quoted := make([]string, len(keep))
	for j, i := range keep {
		quoted[j] = fmt.Sprintf("\"%s\"", sanitizeLabel(labels[i]))
	}

	maxY := 0.0
	for _, p := range plots {
		for _, v := range p.data {
			maxY = math.Max(maxY, v)
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s\"\n", title))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(quoted, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"%s\" 0 --> %d\n", yLabel, int(math.Max(1, math.Ceil(maxY*1.1)))))
	for _, p := range plots {
		values := make([]string, len(keep))
		for j, i := range keep {
			v := 0.0
			if i < len(p.data) {
				v = p.data[i]
			}
			values[j] = fmt.Sprintf("%.1f", v)
		}
		sb.WriteString(fmt.Sprintf("    %s [%s]\n", p.kind, strings.Join(values, ", ")))
	}
	sb.WriteString("```")
	return sb.String()
}

// carryForward replaces missing values with the previous valid one (0 before the first).
func carryForward(data []stats.Value) []float64 {
	out := make([]float64, len(data))
	last := 0.0
	for i, v := range data {
		if v.Valid {
			last = v.V
		}
		out[i] = last
	}
	return out
}

// overlay takes top where it is valid and base elsewhere.
func overlay(base, top []stats.Value) []float64 {
	out := carryForward(base)
	for i, v := range top {
		if i < len(out) && v.Valid {
			out[i] = v.V
		}
	}
	return out
}

func sanitizeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func formatPoints(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
