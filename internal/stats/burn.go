package stats

import (
	"epic-metrics/internal/jira"
)

// BurnPoint is the accumulated state of the project on one axis day.
type BurnPoint struct {
	Date      string  `json:"date"`
	Completed float64 `json:"completed"`
	Scope     float64 `json:"scope"`
	Remaining float64 `json:"remaining"`
}

// TotalPoints sums the story points of every issue.
func TotalPoints(issues []jira.Issue) float64 {
	total := 0.0
	for _, issue := range issues {
		total += issue.StoryPoints
	}
	return total
}

// CalculateBurn accumulates, for each axis day d, the points resolved on or before d,
// the points created on or before d, and the points still remaining out of the total.
// Completed and scope never decrease along the axis; remaining never increases.
func CalculateBurn(issues []jira.Issue, axis []string) []BurnPoint {
	total := TotalPoints(issues)

	// Day keys are computed once; the per-day scan stays O(issues × axis).
	createdDays := make([]string, len(issues))
	resolvedDays := make([]string, len(issues))
	for i, issue := range issues {
		createdDays[i] = jira.Day(issue.Created)
		if issue.Resolved != nil {
			resolvedDays[i] = jira.Day(*issue.Resolved)
		}
	}

	points := make([]BurnPoint, 0, len(axis))
	for _, d := range axis {
		completed := 0.0
		scope := 0.0
		for i, issue := range issues {
			if resolvedDays[i] != "" && resolvedDays[i] <= d {
				completed += issue.StoryPoints
			}
			if createdDays[i] <= d {
				scope += issue.StoryPoints
			}
		}
		points = append(points, BurnPoint{
			Date:      d,
			Completed: completed,
			Scope:     scope,
			Remaining: total - completed,
		})
	}
	return points
}
