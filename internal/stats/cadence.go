package stats

import (
	"slices"
	"time"

	"epic-metrics/internal/jira"
)

// MovingAverageWindow is the number of weekly buckets in the trailing average.
const MovingAverageWindow = 3

// CalculateWeeklyVelocity sums resolved story points per Sunday-aligned week, in
// chronological order, with a trailing moving average over MovingAverageWindow weeks.
// Only weeks with at least one resolution produce a bucket.
func CalculateWeeklyVelocity(issues []jira.Issue) []WeeklyVelocity {
	weeks := make(map[time.Time]float64)
	for _, issue := range issues {
		if issue.Resolved == nil {
			continue
		}
		weeks[SnapToWeekStart(*issue.Resolved)] += issue.StoryPoints
	}

	starts := make([]time.Time, 0, len(weeks))
	for w := range weeks {
		starts = append(starts, w)
	}
	slices.SortFunc(starts, func(a, b time.Time) int {
		return a.Compare(b)
	})

	points := make([]float64, len(starts))
	for i, w := range starts {
		points[i] = weeks[w]
	}
	averages := MovingAverage(points, MovingAverageWindow)

	results := make([]WeeklyVelocity, len(starts))
	for i, w := range starts {
		results[i] = WeeklyVelocity{
			WeekStarting:  w.Format(jira.DayLayout),
			Points:        points[i],
			MovingAverage: averages[i],
		}
	}
	return results
}

// VelocityChart renders weekly velocity as bar and moving-average series.
func VelocityChart(weeks []WeeklyVelocity) ChartData {
	labels := make([]string, len(weeks))
	points := make([]Value, len(weeks))
	averages := make([]Value, len(weeks))
	for i, w := range weeks {
		labels[i] = w.WeekStarting
		points[i] = Some(w.Points)
		averages[i] = w.MovingAverage
	}

	return ChartData{
		Labels: labels,
		Series: []ChartSeries{
			{Label: SeriesWeeklyPoints, Data: points},
			{Label: SeriesMovingAverage, Data: averages},
		},
	}
}

// FindBestWeek returns the week with the most resolved points; the earliest wins ties.
func FindBestWeek(weeks []WeeklyVelocity) *BestWeek {
	var best *BestWeek
	for _, w := range weeks {
		if w.Points <= 0 {
			continue
		}
		if best == nil || w.Points > best.Points {
			best = &BestWeek{
				WeekStart: w.WeekStarting,
				WeekEnd:   AddDays(w.WeekStarting, 6),
				Points:    w.Points,
			}
		}
	}
	return best
}
