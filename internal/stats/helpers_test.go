package stats

import (
	"math"
	"testing"
	"time"

	"epic-metrics/internal/jira"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := jira.ParseTime(s)
	if err != nil {
		t.Fatalf("bad test timestamp %q: %v", s, err)
	}
	return ts
}

func timePtr(t *testing.T, s string) *time.Time {
	t.Helper()
	if s == "" {
		return nil
	}
	ts := mustTime(t, s)
	return &ts
}

type issueFixture struct {
	key      string
	status   string
	created  string
	resolved string
	points   float64
	assignee string
}

func makeIssues(t *testing.T, specs ...issueFixture) []jira.Issue {
	t.Helper()
	issues := make([]jira.Issue, 0, len(specs))
	for _, s := range specs {
		issues = append(issues, jira.Issue{
			Key:         s.key,
			Status:      s.status,
			Created:     mustTime(t, s.created),
			Resolved:    timePtr(t, s.resolved),
			StoryPoints: s.points,
			Assignee:    s.assignee,
		})
	}
	return issues
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func assertValues(t *testing.T, name string, got []Value, want []Value) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: expected %d values, got %d (%v)", name, len(want), len(got), got)
	}
	for i := range want {
		if got[i].Valid != want[i].Valid || (want[i].Valid && !almostEqual(got[i].V, want[i].V)) {
			t.Errorf("%s[%d] = %+v, want %+v", name, i, got[i], want[i])
		}
	}
}

var fixedNow = time.Date(2023, 1, 3, 15, 0, 0, 0, time.UTC)
