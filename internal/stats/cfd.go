package stats

import (
	"slices"

	"epic-metrics/internal/jira"
)

// DoneStatus is the status bucket that also absorbs resolved issues.
const DoneStatus = "Done"

// CalculateCFD counts, for every observed status and axis day d, the issues created
// on or before d that carry that status.
//
// An export has no transition history, so the population is approximated from the
// current status only: the "Done" bucket additionally counts every issue resolved on
// or before d, whatever its stored status. An issue resolved under another terminal
// status therefore appears in both buckets.
func CalculateCFD(issues []jira.Issue, axis []string) ChartData {
	if len(issues) == 0 {
		return ChartData{Labels: slices.Clone(axis)}
	}

	// 1. Identify all statuses present in the data
	statusSet := make(map[string]bool)
	for _, issue := range issues {
		if issue.Status != "" {
			statusSet[issue.Status] = true
		}
	}
	statuses := make([]string, 0, len(statusSet))
	for s := range statusSet {
		statuses = append(statuses, s)
	}
	slices.Sort(statuses)

	createdDays := make([]string, len(issues))
	resolvedDays := make([]string, len(issues))
	for i, issue := range issues {
		createdDays[i] = jira.Day(issue.Created)
		if issue.Resolved != nil {
			resolvedDays[i] = jira.Day(*issue.Resolved)
		}
	}

	// 2. For each status and day, count the population
	series := make([]ChartSeries, 0, len(statuses))
	for _, status := range statuses {
		data := make([]Value, len(axis))
		for di, d := range axis {
			count := 0
			for i, issue := range issues {
				if createdDays[i] > d {
					continue
				}
				if issue.Status == status {
					count++
					continue
				}
				if status == DoneStatus && resolvedDays[i] != "" && resolvedDays[i] <= d {
					count++
				}
			}
			data[di] = Some(float64(count))
		}
		series = append(series, ChartSeries{Label: status, Data: data})
	}

	return ChartData{
		Labels: slices.Clone(axis),
		Series: series,
	}
}
