package stats

import (
	"encoding/json"
	"strconv"

	"epic-metrics/internal/jira"
)

// Value is an optional numeric sample. Invalid values mark "no data" slots in a
// series and serialize as JSON null.
type Value struct {
	V     float64
	Valid bool
}

// Some wraps a present value.
func Some(v float64) Value {
	return Value{V: v, Valid: true}
}

// None is the "no data" sentinel.
func None() Value {
	return Value{}
}

// MarshalJSON encodes the value as a number or null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v.V, 'f', -1, 64), nil
}

// UnmarshalJSON accepts a number or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}

// Values wraps a slice of present values.
func Values(vs []float64) []Value {
	out := make([]Value, len(vs))
	for i, v := range vs {
		out[i] = Some(v)
	}
	return out
}

// ChartSeries is a named sequence aligned one-to-one with a ChartData label axis.
type ChartSeries struct {
	Label string  `json:"label"`
	Data  []Value `json:"data"`
}

// ChartData groups series that share one label axis (dates or assignee names).
type ChartData struct {
	Labels []string      `json:"labels"`
	Series []ChartSeries `json:"series"`
}

// Find returns the series with the given label.
func (c ChartData) Find(label string) (ChartSeries, bool) {
	for _, s := range c.Series {
		if s.Label == label {
			return s, true
		}
	}
	return ChartSeries{}, false
}

// Series labels shared by the processor and renderers.
const (
	SeriesCompleted          = "Completed"
	SeriesTotalScope         = "Total Scope"
	SeriesRemaining          = "Remaining"
	SeriesProjected          = "Projected Completion"
	SeriesProjectedRemaining = "Projected Remaining"
	SeriesAssigned           = "Assigned Points"
	SeriesAssigneeCompleted  = "Completed Points"
	SeriesWeeklyPoints       = "Story Points Completed"
	SeriesMovingAverage      = "3-Week Moving Average"
)

// AssigneeMetric summarizes the work attributed to one assignee.
type AssigneeMetric struct {
	Name            string  `json:"name"`
	CompletedPoints float64 `json:"completedPoints"`
	AssignedPoints  float64 `json:"assignedPoints"`
	IssueCount      int     `json:"issueCount"`
}

// CycleTimePoint is the creation-to-resolution duration of one resolved issue.
type CycleTimePoint struct {
	Key         string  `json:"key"`
	Resolved    string  `json:"resolved"`
	Days        float64 `json:"days"`
	StoryPoints float64 `json:"storyPoints"`
	Radius      float64 `json:"radius"`
}

// WeeklyVelocity is the story points resolved in one Sunday-aligned week.
type WeeklyVelocity struct {
	WeekStarting  string  `json:"weekStarting"`
	Points        float64 `json:"points"`
	MovingAverage Value   `json:"movingAverage"`
}

// BestWeek is the week in which the most story points were resolved.
type BestWeek struct {
	WeekStart string  `json:"weekStart"`
	WeekEnd   string  `json:"weekEnd"`
	Points    float64 `json:"points"`
}

// Insights carries headline figures derived from the other stages.
type Insights struct {
	CompletionPercentage   float64         `json:"completionPercentage"`
	AverageCycleTimeDays   float64         `json:"averageCycleTimeDays"`
	MedianCycleTimeDays    float64         `json:"medianCycleTimeDays"`
	BestWeek               *BestWeek       `json:"bestWeek,omitempty"`
	MostProductiveAssignee *AssigneeMetric `json:"mostProductiveAssignee,omitempty"`
}

// ProcessedResult is the complete output of one processing run.
type ProcessedResult struct {
	TotalPoints     float64 `json:"totalPoints"`
	CompletedPoints float64 `json:"completedPoints"`
	TotalIssues     int     `json:"totalIssues"`
	ResolvedIssues  int     `json:"resolvedIssues"`

	DateAxis []string  `json:"dateAxis"`
	Burnup   ChartData `json:"burnup"`
	Burndown ChartData `json:"burndown"`

	AssigneeData      []AssigneeMetric `json:"assigneeData"`
	AssigneeChartData ChartData        `json:"assigneeChartData"`
	TotalAssignees    int              `json:"totalAssignees"`

	CumulativeFlow ChartData        `json:"cumulativeFlow"`
	CycleTime      []CycleTimePoint `json:"cycleTime"`
	WeeklyVelocity []WeeklyVelocity `json:"weeklyVelocity"`
	VelocityChart  ChartData        `json:"velocityChart"`

	Velocity                float64 `json:"velocity"`
	OriginalVelocity        float64 `json:"originalVelocity"`
	AdjustedVelocity        float64 `json:"adjustedVelocity"`
	ProjectedCompletionDate *string `json:"projectedCompletionDate,omitempty"`
	DaysToCompletion        int     `json:"daysToCompletion"`

	Insights      Insights             `json:"insights"`
	Normalization jira.NormalizeReport `json:"normalization"`
	Issues        []jira.Issue         `json:"issues,omitempty"`
}
