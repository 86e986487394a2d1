package stats

import (
	"math"
	"slices"
	"time"

	"epic-metrics/internal/jira"
)

// BuildDateAxis collects the distinct calendar days on which any issue was created,
// updated or resolved, in ascending order.
func BuildDateAxis(issues []jira.Issue) []string {
	set := make(map[string]struct{})
	for _, issue := range issues {
		set[jira.Day(issue.Created)] = struct{}{}
		if issue.Updated != nil {
			set[jira.Day(*issue.Updated)] = struct{}{}
		}
		if issue.Resolved != nil {
			set[jira.Day(*issue.Resolved)] = struct{}{}
		}
	}

	axis := make([]string, 0, len(set))
	for d := range set {
		axis = append(axis, d)
	}
	// ISO days sort lexicographically in chronological order.
	slices.Sort(axis)
	return axis
}

// SnapToDay truncates t to midnight UTC of its calendar day.
func SnapToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// SnapToWeekStart returns midnight UTC of the Sunday that starts t's week.
func SnapToWeekStart(t time.Time) time.Time {
	day := SnapToDay(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// DaysBetween returns the whole calendar days from a to b (negative if b precedes a).
func DaysBetween(a, b time.Time) int {
	return int(math.Round(SnapToDay(b).Sub(SnapToDay(a)).Hours() / 24))
}

// ElapsedDays returns the fractional days between two instants.
func ElapsedDays(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}

// AddDays shifts an ISO day by n calendar days.
func AddDays(day string, n int) string {
	t, err := jira.ParseDay(day)
	if err != nil {
		return day
	}
	return t.AddDate(0, 0, n).Format(jira.DayLayout)
}

// DaysUntil returns the calendar days from now to an ISO day. Zero or less means
// the day is today or already past. ok is false when day does not parse.
func DaysUntil(day string, now time.Time) (days int, ok bool) {
	t, err := jira.ParseDay(day)
	if err != nil {
		return 0, false
	}
	return DaysBetween(now, t), true
}
