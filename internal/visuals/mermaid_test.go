package visuals

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"epic-metrics/internal/stats"
)

func burnupFixture() stats.ChartData {
	return stats.ChartData{
		Labels: []string{"2023-01-01", "2023-01-02", "2023-01-03", "2023-01-04"},
		Series: []stats.ChartSeries{
			{Label: stats.SeriesCompleted, Data: []stats.Value{stats.Some(0), stats.Some(0), stats.Some(5), stats.None()}},
			{Label: stats.SeriesTotalScope, Data: []stats.Value{stats.Some(5), stats.Some(8), stats.Some(8), stats.None()}},
			{Label: stats.SeriesProjected, Data: []stats.Value{stats.None(), stats.None(), stats.None(), stats.Some(8)}},
		},
	}
}

func TestGenerateBurnupChart(t *testing.T) {
	out := GenerateBurnupChart(burnupFixture())

	for _, want := range []string{
		"```mermaid\nxychart-beta\n",
		`x-axis ["2023-01-01", "2023-01-02", "2023-01-03", "2023-01-04"]`,
		`y-axis "Story Points" 0 --> 9`,
		"line [5.0, 8.0, 8.0, 8.0]",
		"line [0.0, 0.0, 5.0, 5.0]",
		"line [0.0, 0.0, 5.0, 8.0]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("burnup chart missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateBurnupChart_Empty(t *testing.T) {
	if out := GenerateBurnupChart(stats.ChartData{}); out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
}

func TestGenerateCFDChart_Stacks(t *testing.T) {
	chart := stats.ChartData{
		Labels: []string{"d1", "d2"},
		Series: []stats.ChartSeries{
			{Label: "Done", Data: stats.Values([]float64{0, 1})},
			{Label: "To Do", Data: stats.Values([]float64{2, 2})},
		},
	}

	out := GenerateCFDChart(chart)
	if !strings.Contains(out, "line [0.0, 1.0]") || !strings.Contains(out, "line [2.0, 3.0]") {
		t.Errorf("expected cumulative lines:\n%s", out)
	}
	if !strings.Contains(out, "Done, To Do") {
		t.Errorf("expected stacking legend:\n%s", out)
	}
}

func TestGenerateVelocityChart(t *testing.T) {
	weeks := []stats.WeeklyVelocity{
		{WeekStarting: "2023-01-01", Points: 2, MovingAverage: stats.None()},
		{WeekStarting: "2023-01-08", Points: 4, MovingAverage: stats.None()},
		{WeekStarting: "2023-01-15", Points: 6, MovingAverage: stats.Some(4)},
	}

	out := GenerateVelocityChart(weeks)
	if !strings.Contains(out, "bar [2.0, 4.0, 6.0]") || !strings.Contains(out, "line [2.0, 4.0, 4.0]") {
		t.Errorf("unexpected velocity chart:\n%s", out)
	}
}

func TestGenerateAssigneeChart_SanitizesNames(t *testing.T) {
	out := GenerateAssigneeChart([]stats.AssigneeMetric{
		{Name: `Bob "The Builder"`, AssignedPoints: 5, CompletedPoints: 3},
	})
	if !strings.Contains(out, `x-axis ["Bob 'The Builder'"]`) {
		t.Errorf("quotes not sanitized:\n%s", out)
	}
	if !strings.Contains(out, "bar [5.0]") || !strings.Contains(out, "bar [3.0]") {
		t.Errorf("unexpected bars:\n%s", out)
	}
}

func TestGenerateCycleTimeTable_Limit(t *testing.T) {
	var points []stats.CycleTimePoint
	for i := 0; i < cycleTimeRows+5; i++ {
		points = append(points, stats.CycleTimePoint{Key: fmt.Sprintf("P-%d", i), Resolved: "2023-01-01", Days: 1.5, StoryPoints: 2})
	}

	out := GenerateCycleTimeTable(points)
	if strings.Contains(out, "| P-4 |") || !strings.Contains(out, "| P-5 |") {
		t.Errorf("expected the most recent rows only:\n%s", out)
	}
	if !strings.Contains(out, "5 earlier resolutions omitted") {
		t.Errorf("expected omission note:\n%s", out)
	}
}

func TestRenderXYChart_Subsamples(t *testing.T) {
	labels := make([]string, 130)
	data := make([]float64, 130)
	for i := range labels {
		labels[i] = fmt.Sprintf("L%d", i)
		data[i] = float64(i)
	}

	out := renderXYChart("T", "Y", labels, []plot{{kind: "line", data: data}})
	axis := out[strings.Index(out, "x-axis"):]
	axis = axis[:strings.Index(axis, "\n")]
	if n := strings.Count(axis, `"`) / 2; n > maxPoints+1 {
		t.Errorf("expected at most %d labels, got %d", maxPoints+1, n)
	}
	if !strings.Contains(axis, `"L129"`) {
		t.Error("last label must always be kept")
	}
}

func TestRender_UnknownChart(t *testing.T) {
	if _, err := Render("pie", stats.ProcessedResult{}); !errors.Is(err, ErrUnknownChart) {
		t.Errorf("expected ErrUnknownChart, got %v", err)
	}
	for _, name := range ChartNames {
		if _, err := Render(name, stats.ProcessedResult{}); err != nil {
			t.Errorf("Render(%q) failed: %v", name, err)
		}
	}
}
