package stats

import (
	"errors"
	"math"
	"slices"
	"time"

	"epic-metrics/internal/jira"
)

// CheckpointInterval is the spacing, in days, of forecast points appended to the axis.
const CheckpointInterval = 7

// ErrInvalidOverride is returned by Options.Validate for non-positive overrides.
var ErrInvalidOverride = errors.New("overrides must be positive")

// Options are the caller-supplied knobs of a processing run.
// Zero values mean "not supplied".
type Options struct {
	// TeamMembers rescales velocity linearly against the observed assignee count.
	TeamMembers int
	// Velocity replaces the observed points/day throughput.
	Velocity float64
	// Now anchors the projection; time.Now() when zero.
	Now time.Time
	// IncludeIssues copies the normalized issues into the result.
	IncludeIssues bool
}

// Validate rejects negative or non-finite overrides.
func (o Options) Validate() error {
	if o.TeamMembers < 0 {
		return ErrInvalidOverride
	}
	if o.Velocity < 0 || math.IsNaN(o.Velocity) || math.IsInf(o.Velocity, 0) {
		return ErrInvalidOverride
	}
	return nil
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// Projection is the output of the velocity and projection stage.
type Projection struct {
	OriginalVelocity float64
	Velocity         float64
	AdjustedVelocity float64
	ResolvedIssues   int
	DaysToCompletion int
	// CompletionDate is empty when no projection could be made.
	CompletionDate string
	// Axis is the input axis extended with forecast checkpoints.
	Axis []string
	// Series is aligned with Axis; days up to the last known day hold None.
	Series []Value
}

// HasCompletionDate reports whether a forecast was produced.
func (p Projection) HasCompletionDate() bool {
	return p.CompletionDate != ""
}

// CalculateObservedVelocity returns resolved points per day across the resolution
// history, and the number of resolved issues. The duration is floored at one day.
func CalculateObservedVelocity(issues []jira.Issue) (float64, int) {
	var first, last time.Time
	resolvedPoints := 0.0
	resolved := 0

	for _, issue := range issues {
		if issue.Resolved == nil {
			continue
		}
		r := *issue.Resolved
		if resolved == 0 || r.Before(first) {
			first = r
		}
		if resolved == 0 || r.After(last) {
			last = r
		}
		resolvedPoints += issue.StoryPoints
		resolved++
	}

	if resolved == 0 {
		return 0, 0
	}

	durationDays := max(1, DaysBetween(first, last))
	return resolvedPoints / float64(durationDays), resolved
}

// CalculateProjection derives the effective velocity and extrapolates the completion
// date from now.
//
// The team-size rescale is linear: velocity × (TeamMembers / observedAssignees). It
// assumes a constant per-person rate with no onboarding ramp or coordination cost,
// and is skipped when a velocity override is active.
func CalculateProjection(issues []jira.Issue, axis []string, totalPoints, completedPoints float64, observedAssignees int, opts Options) Projection {
	original, resolved := CalculateObservedVelocity(issues)

	p := Projection{
		OriginalVelocity: original,
		ResolvedIssues:   resolved,
		Axis:             slices.Clone(axis),
	}
	p.Series = noneSeries(len(p.Axis))

	if resolved == 0 {
		return p
	}

	p.Velocity = original
	if opts.Velocity > 0 {
		p.Velocity = opts.Velocity
	}

	p.AdjustedVelocity = p.Velocity
	if opts.TeamMembers > 0 && observedAssignees > 0 && opts.Velocity <= 0 {
		p.AdjustedVelocity = p.Velocity * (float64(opts.TeamMembers) / float64(observedAssignees))
	}

	if p.AdjustedVelocity <= 0 || len(axis) == 0 {
		return p
	}

	remaining := math.Max(0, totalPoints-completedPoints)
	p.DaysToCompletion = int(math.Ceil(remaining / p.AdjustedVelocity))
	p.CompletionDate = SnapToDay(opts.now()).AddDate(0, 0, p.DaysToCompletion).Format(jira.DayLayout)

	lastKnown := axis[len(axis)-1]
	p.Axis = ExtendAxis(axis, p.CompletionDate)
	p.Series = projectSeries(p.Axis, lastKnown, completedPoints, totalPoints, p.AdjustedVelocity)
	return p
}

// ExtendAxis appends weekly checkpoints after the last known day and the projected
// day itself, unless the projected day is already on the axis.
func ExtendAxis(axis []string, projected string) []string {
	extended := slices.Clone(axis)
	if len(axis) == 0 || slices.Contains(axis, projected) {
		return extended
	}

	lastKnown := axis[len(axis)-1]
	for d := AddDays(lastKnown, CheckpointInterval); d < projected; d = AddDays(d, CheckpointInterval) {
		extended = append(extended, d)
	}
	extended = append(extended, projected)
	slices.Sort(extended)
	return extended
}

func projectSeries(axis []string, lastKnown string, completed, total, velocity float64) []Value {
	series := make([]Value, len(axis))
	last, err := jira.ParseDay(lastKnown)
	if err != nil {
		return noneSeries(len(axis))
	}

	for i, d := range axis {
		if d <= lastKnown {
			series[i] = None()
			continue
		}
		day, err := jira.ParseDay(d)
		if err != nil {
			series[i] = None()
			continue
		}
		projected := completed + velocity*float64(DaysBetween(last, day))
		series[i] = Some(math.Min(projected, total))
	}
	return series
}

func noneSeries(n int) []Value {
	return make([]Value, n)
}
