package stats

import (
	"cmp"
	"math"
	"slices"

	"epic-metrics/internal/jira"
)

// RadiusScale converts sqrt(story points) into a marker radius, so marker area grows
// linearly with the estimate.
const RadiusScale = 4.0

// CalculateCycleTimes returns one point per resolved issue, ordered by resolution day
// then key. Issues resolved before they were created are skipped.
func CalculateCycleTimes(issues []jira.Issue) []CycleTimePoint {
	var points []CycleTimePoint
	for _, issue := range issues {
		if issue.Resolved == nil {
			continue
		}
		days := ElapsedDays(issue.Created, *issue.Resolved)
		if days < 0 {
			continue
		}
		points = append(points, CycleTimePoint{
			Key:         issue.Key,
			Resolved:    jira.Day(*issue.Resolved),
			Days:        days,
			StoryPoints: issue.StoryPoints,
			Radius:      RadiusScale * math.Sqrt(issue.StoryPoints),
		})
	}

	slices.SortStableFunc(points, func(a, b CycleTimePoint) int {
		if c := cmp.Compare(a.Resolved, b.Resolved); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return points
}

// CycleTimeDays extracts the durations from a set of cycle-time points.
func CycleTimeDays(points []CycleTimePoint) []float64 {
	days := make([]float64, len(points))
	for i, p := range points {
		days[i] = p.Days
	}
	return days
}
