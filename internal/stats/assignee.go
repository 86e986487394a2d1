package stats

import (
	"epic-metrics/internal/jira"
)

// AggregateAssignees groups issues by exact assignee name in first-seen order.
// Issues without an assignee fall into the "Unassigned" bucket.
func AggregateAssignees(issues []jira.Issue) []AssigneeMetric {
	index := make(map[string]int)
	var metrics []AssigneeMetric

	for _, issue := range issues {
		name := issue.AssigneeName()
		i, ok := index[name]
		if !ok {
			i = len(metrics)
			index[name] = i
			metrics = append(metrics, AssigneeMetric{Name: name})
		}

		m := &metrics[i]
		m.IssueCount++
		m.AssignedPoints += issue.StoryPoints
		if issue.IsDone() {
			m.CompletedPoints += issue.StoryPoints
		}
	}

	return metrics
}

// AssigneeChart compares assigned and completed points per assignee.
func AssigneeChart(metrics []AssigneeMetric) ChartData {
	labels := make([]string, len(metrics))
	assigned := make([]Value, len(metrics))
	completed := make([]Value, len(metrics))

	for i, m := range metrics {
		labels[i] = m.Name
		assigned[i] = Some(m.AssignedPoints)
		completed[i] = Some(m.CompletedPoints)
	}

	return ChartData{
		Labels: labels,
		Series: []ChartSeries{
			{Label: SeriesAssigned, Data: assigned},
			{Label: SeriesAssigneeCompleted, Data: completed},
		},
	}
}

// EffectiveTeamSize is the reported headcount: the override when supplied, else the
// number of assignee buckets.
func EffectiveTeamSize(metrics []AssigneeMetric, override int) int {
	if override > 0 {
		return override
	}
	return len(metrics)
}
