package stats

import (
	"slices"

	"epic-metrics/internal/jira"

	"github.com/rs/zerolog/log"
)

// Process runs every stage over one normalized issue list and assembles the result.
// It is a pure function of its inputs: the same issues and options (including Now)
// always yield the same result.
func Process(issues []jira.Issue, opts Options) ProcessedResult {
	// 1. Timeline
	axis := BuildDateAxis(issues)

	// 2. Scope and burn on the known axis
	total := TotalPoints(issues)
	burn := CalculateBurn(issues, axis)
	completed := 0.0
	if len(burn) > 0 {
		completed = burn[len(burn)-1].Completed
	}

	// 3. Assignees (feeds the team-size rescale)
	assignees := AggregateAssignees(issues)

	// 4. Velocity and projection
	projection := CalculateProjection(issues, axis, total, completed, len(assignees), opts)

	// 5. Flow and cycle time
	cycleTimes := CalculateCycleTimes(issues)
	weekly := CalculateWeeklyVelocity(issues)

	res := ProcessedResult{
		TotalPoints:     total,
		CompletedPoints: completed,
		TotalIssues:     len(issues),
		ResolvedIssues:  projection.ResolvedIssues,

		DateAxis: axis,
		Burnup:   burnupChart(issues, axis, projection),
		Burndown: burndownChart(issues, axis, total, projection),

		AssigneeData:      assignees,
		AssigneeChartData: AssigneeChart(assignees),
		TotalAssignees:    EffectiveTeamSize(assignees, opts.TeamMembers),

		CumulativeFlow: CalculateCFD(issues, axis),
		CycleTime:      cycleTimes,
		WeeklyVelocity: weekly,
		VelocityChart:  VelocityChart(weekly),

		Velocity:         projection.Velocity,
		OriginalVelocity: projection.OriginalVelocity,
		AdjustedVelocity: projection.AdjustedVelocity,
		DaysToCompletion: projection.DaysToCompletion,
	}

	if projection.HasCompletionDate() {
		date := projection.CompletionDate
		res.ProjectedCompletionDate = &date
	}

	res.Insights = CalculateInsights(total, completed, assignees, cycleTimes, weekly)

	if opts.IncludeIssues {
		res.Issues = slices.Clone(issues)
	}

	log.Debug().
		Int("issues", len(issues)).
		Int("axisDays", len(axis)).
		Float64("totalPoints", total).
		Float64("velocity", projection.AdjustedVelocity).
		Msg("Processed issue set")

	return res
}

// burnupChart lays completed and scope over the extended axis, padding forecast days
// with None, and adds the projection when one exists.
func burnupChart(issues []jira.Issue, axis []string, p Projection) ChartData {
	points := burnOnAxis(issues, axis, p.Axis)

	completed := make([]Value, len(p.Axis))
	scope := make([]Value, len(p.Axis))
	for i, bp := range points {
		if bp == nil {
			continue
		}
		completed[i] = Some(bp.Completed)
		scope[i] = Some(bp.Scope)
	}

	chart := ChartData{
		Labels: slices.Clone(p.Axis),
		Series: []ChartSeries{
			{Label: SeriesCompleted, Data: completed},
			{Label: SeriesTotalScope, Data: scope},
		},
	}
	if p.HasCompletionDate() {
		chart.Series = append(chart.Series, ChartSeries{Label: SeriesProjected, Data: slices.Clone(p.Series)})
	}
	return chart
}

// burndownChart lays remaining points over the extended axis and, when projected,
// the remaining work implied by the projection.
func burndownChart(issues []jira.Issue, axis []string, total float64, p Projection) ChartData {
	points := burnOnAxis(issues, axis, p.Axis)

	remaining := make([]Value, len(p.Axis))
	for i, bp := range points {
		if bp != nil {
			remaining[i] = Some(bp.Remaining)
		}
	}

	chart := ChartData{
		Labels: slices.Clone(p.Axis),
		Series: []ChartSeries{
			{Label: SeriesRemaining, Data: remaining},
		},
	}
	if p.HasCompletionDate() {
		projected := make([]Value, len(p.Series))
		for i, v := range p.Series {
			if v.Valid {
				projected[i] = Some(total - v.V)
			}
		}
		chart.Series = append(chart.Series, ChartSeries{Label: SeriesProjectedRemaining, Data: projected})
	}
	return chart
}

// burnOnAxis computes burn points for every extended-axis day up to the last known
// day; later days are nil.
func burnOnAxis(issues []jira.Issue, axis, extended []string) []*BurnPoint {
	out := make([]*BurnPoint, len(extended))
	if len(axis) == 0 {
		return out
	}
	lastKnown := axis[len(axis)-1]

	var known []string
	var positions []int
	for i, d := range extended {
		if d <= lastKnown {
			known = append(known, d)
			positions = append(positions, i)
		}
	}

	for i, bp := range CalculateBurn(issues, known) {
		bp := bp
		out[positions[i]] = &bp
	}
	return out
}

// CalculateInsights derives headline figures from the stage outputs.
func CalculateInsights(total, completed float64, assignees []AssigneeMetric, cycleTimes []CycleTimePoint, weekly []WeeklyVelocity) Insights {
	days := CycleTimeDays(cycleTimes)
	return Insights{
		CompletionPercentage:   CompletionPercentage(completed, total),
		AverageCycleTimeDays:   CalculateMean(days),
		MedianCycleTimeDays:    CalculateMedian(days),
		BestWeek:               FindBestWeek(weekly),
		MostProductiveAssignee: FindMostProductiveAssignee(assignees),
	}
}

// CompletionPercentage is completed/total as a percentage, or 0 for an empty scope.
func CompletionPercentage(completed, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return completed / total * 100
}

// FindMostProductiveAssignee returns the assignee with the most completed points;
// the first seen wins ties.
func FindMostProductiveAssignee(metrics []AssigneeMetric) *AssigneeMetric {
	if len(metrics) == 0 {
		return nil
	}
	best := metrics[0]
	for _, m := range metrics[1:] {
		if m.CompletedPoints > best.CompletedPoints {
			best = m
		}
	}
	return &best
}
