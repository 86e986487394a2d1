package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"epic-metrics/internal/analysis"
	"epic-metrics/internal/report"
	"epic-metrics/internal/stats"
	"epic-metrics/internal/visuals"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleAnalyzeCSV(ctx context.Context, _ *sdk.CallToolRequest, in AnalyzeInput) (*sdk.CallToolResult, AnalyzeOutput, error) {
	out, text, err := s.analyze(ctx, in)
	if err != nil {
		return nil, AnalyzeOutput{}, err
	}
	return textResult(text), out, nil
}

func (s *Server) handleGetChart(_ context.Context, _ *sdk.CallToolRequest, in ChartInput) (*sdk.CallToolResult, ChartOutput, error) {
	out, text, err := s.chart(in)
	if err != nil {
		return nil, ChartOutput{}, err
	}
	return textResult(text), out, nil
}

func (s *Server) handleListRuns(_ context.Context, _ *sdk.CallToolRequest, in ListRunsInput) (*sdk.CallToolResult, ListRunsOutput, error) {
	out, text, err := s.listRuns(in)
	if err != nil {
		return nil, ListRunsOutput{}, err
	}
	return textResult(text), out, nil
}

func (s *Server) analyze(ctx context.Context, in AnalyzeInput) (AnalyzeOutput, string, error) {
	req := analysis.Request{
		Source:      in.Source,
		Path:        in.Path,
		TeamMembers: in.TeamMembers,
		Velocity:    in.Velocity,
		Record:      in.Record,
	}
	if in.CSV != "" {
		req.Reader = strings.NewReader(in.CSV)
	}
	if req.Reader == nil && req.Path == "" {
		return AnalyzeOutput{}, "", errors.New("either 'path' or 'csv' is required")
	}

	run, err := s.analyzer.Analyze(ctx, req)
	if err != nil {
		return AnalyzeOutput{}, "", err
	}

	res := run.Result
	out := AnalyzeOutput{
		RunID:                run.ID,
		Source:               run.Source,
		TotalIssues:          res.TotalIssues,
		ResolvedIssues:       res.ResolvedIssues,
		TotalPoints:          res.TotalPoints,
		CompletedPoints:      res.CompletedPoints,
		CompletionPercentage: res.Insights.CompletionPercentage,
		TotalAssignees:       res.TotalAssignees,
		OriginalVelocity:     res.OriginalVelocity,
		AdjustedVelocity:     res.AdjustedVelocity,
		DaysToCompletion:     res.DaysToCompletion,
		SkippedRows:          res.Normalization.Rows - res.Normalization.Accepted,
	}
	if res.ProjectedCompletionDate != nil {
		out.ProjectedCompletionDate = *res.ProjectedCompletionDate
	}

	text := report.Markdown(res, report.Options{Source: run.Source})
	text += fmt.Sprintf("\nRun ID: `%s`. Charts: %s.\n", run.ID, strings.Join(visuals.ChartNames, ", "))
	return out, text, nil
}

func (s *Server) chart(in ChartInput) (ChartOutput, string, error) {
	run, err := s.lookupRun(in.RunID)
	if err != nil {
		return ChartOutput{}, "", err
	}

	format := in.Format
	if format == "" {
		format = "mermaid"
	}
	out := ChartOutput{RunID: run.ID, Chart: in.Chart, Format: format}

	switch format {
	case "mermaid":
		if !s.mermaid {
			return ChartOutput{}, "", errors.New("mermaid charts are disabled (ENABLE_MERMAID_CHARTS=false); use format 'json'")
		}
		text, err := visuals.Render(in.Chart, run.Result)
		if err != nil {
			return ChartOutput{}, "", err
		}
		if text == "" {
			text = fmt.Sprintf("No data for the %s chart.", in.Chart)
		}
		return out, text, nil
	case "json":
		data, err := chartData(in.Chart, run.Result)
		if err != nil {
			return ChartOutput{}, "", err
		}
		js, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return ChartOutput{}, "", fmt.Errorf("failed to encode chart: %w", err)
		}
		return out, string(js), nil
	default:
		return ChartOutput{}, "", fmt.Errorf("unknown format %q (expected mermaid or json)", format)
	}
}

func (s *Server) listRuns(in ListRunsInput) (ListRunsOutput, string, error) {
	if s.history == nil {
		return ListRunsOutput{}, "", errors.New("run history is not configured")
	}

	runs := s.history.List(in.Source)
	if in.Limit > 0 && len(runs) > in.Limit {
		runs = runs[len(runs)-in.Limit:]
	}

	out := ListRunsOutput{Runs: make([]RunSummary, 0, len(runs))}
	for _, r := range runs {
		out.Runs = append(out.Runs, RunSummary{
			ID:                      r.ID,
			Source:                  r.Source,
			ProcessedAt:             r.ProcessedAt.Format(time.RFC3339),
			TotalIssues:             r.TotalIssues,
			TotalPoints:             r.TotalPoints,
			CompletedPoints:         r.CompletedPoints,
			Velocity:                r.Velocity,
			ProjectedCompletionDate: r.ProjectedCompletionDate,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return ListRunsOutput{}, "", fmt.Errorf("failed to encode runs: %w", err)
	}
	return out, string(data), nil
}

func (s *Server) lookupRun(id string) (*analysis.Run, error) {
	if id == "" {
		return s.analyzer.Last()
	}
	return s.analyzer.Get(id)
}

func chartData(name string, res stats.ProcessedResult) (any, error) {
	switch name {
	case visuals.ChartBurnup:
		return res.Burnup, nil
	case visuals.ChartBurndown:
		return res.Burndown, nil
	case visuals.ChartCFD:
		return res.CumulativeFlow, nil
	case visuals.ChartVelocity:
		return res.VelocityChart, nil
	case visuals.ChartAssignee:
		return res.AssigneeChartData, nil
	case visuals.ChartCycleTime:
		return res.CycleTime, nil
	default:
		return nil, fmt.Errorf("%w %q", visuals.ErrUnknownChart, name)
	}
}

func textResult(text string) *sdk.CallToolResult {
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: text}},
	}
}
