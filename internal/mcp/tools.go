package mcp

import (
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// AnalyzeInput is the argument of analyze_csv.
type AnalyzeInput struct {
	Path        string  `json:"path,omitempty" jsonschema:"path to a Jira CSV export on the server's filesystem"`
	CSV         string  `json:"csv,omitempty" jsonschema:"raw CSV content, used instead of path"`
	Source      string  `json:"source,omitempty" jsonschema:"display name for inline CSV content"`
	TeamMembers int     `json:"team_members,omitempty" jsonschema:"team size used to rescale the observed velocity"`
	Velocity    float64 `json:"velocity,omitempty" jsonschema:"fixed velocity in story points per day; disables team rescaling"`
	Record      bool    `json:"record,omitempty" jsonschema:"append the run to the persistent run history"`
}

// AnalyzeOutput is the structured summary returned by analyze_csv.
type AnalyzeOutput struct {
	RunID                   string  `json:"run_id"`
	Source                  string  `json:"source"`
	TotalIssues             int     `json:"total_issues"`
	ResolvedIssues          int     `json:"resolved_issues"`
	TotalPoints             float64 `json:"total_points"`
	CompletedPoints         float64 `json:"completed_points"`
	CompletionPercentage    float64 `json:"completion_percentage"`
	TotalAssignees          int     `json:"total_assignees"`
	OriginalVelocity        float64 `json:"original_velocity"`
	AdjustedVelocity        float64 `json:"adjusted_velocity"`
	ProjectedCompletionDate string  `json:"projected_completion_date,omitempty"`
	DaysToCompletion        int     `json:"days_to_completion"`
	SkippedRows             int     `json:"skipped_rows"`
}

// ChartInput is the argument of get_chart.
type ChartInput struct {
	RunID  string `json:"run_id,omitempty" jsonschema:"run returned by analyze_csv; defaults to the latest run"`
	Chart  string `json:"chart" jsonschema:"one of burnup, burndown, cfd, velocity, assignee, cycletime"`
	Format string `json:"format,omitempty" jsonschema:"mermaid (default) or json"`
}

// ChartOutput identifies the chart that was rendered.
type ChartOutput struct {
	RunID  string `json:"run_id"`
	Chart  string `json:"chart"`
	Format string `json:"format"`
}

// ListRunsInput is the argument of list_runs.
type ListRunsInput struct {
	Source string `json:"source,omitempty" jsonschema:"only runs of this export file name"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of most recent runs to return"`
}

// RunSummary is one history entry as returned by list_runs.
type RunSummary struct {
	ID                      string  `json:"id"`
	Source                  string  `json:"source"`
	ProcessedAt             string  `json:"processed_at"`
	TotalIssues             int     `json:"total_issues"`
	TotalPoints             float64 `json:"total_points"`
	CompletedPoints         float64 `json:"completed_points"`
	Velocity                float64 `json:"velocity"`
	ProjectedCompletionDate string  `json:"projected_completion_date,omitempty"`
}

// ListRunsOutput is the result of list_runs.
type ListRunsOutput struct {
	Runs []RunSummary `json:"runs"`
}

func (s *Server) registerTools(server *sdk.Server) {
	sdk.AddTool(server, &sdk.Tool{
		Name: "analyze_csv",
		Description: "Process a Jira CSV export of an epic: burnup and burndown, velocity, projected completion date, " +
			"assignee breakdown, cumulative flow and cycle times. Pass either 'path' or inline 'csv'. " +
			"Guidance: use the returned run_id with 'get_chart' to inspect individual charts.",
	}, s.handleAnalyzeCSV)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "get_chart",
		Description: "Render one chart of an analyzed run as a Mermaid diagram, or return its raw series as JSON.",
	}, s.handleGetChart)

	sdk.AddTool(server, &sdk.Tool{
		Name:        "list_runs",
		Description: "List previously recorded analysis runs, most recent last, to compare projections over time.",
	}, s.handleListRuns)
}
