package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"epic-metrics/internal/analysis"
	"epic-metrics/internal/history"
	"epic-metrics/internal/visuals"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

const epicCSV = `Issue key,Summary,Status,Created,Resolved,Story Points,Assignee
P-1,One,Done,2023-01-01,2023-01-03T12:00:00Z,5,Alice
P-2,Two,To Do,2023-01-02,,3,Bob
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store := history.NewStore(t.TempDir())
	return NewServer(analysis.NewAnalyzer(nil, store), store, true, "test")
}

func TestAnalyze_InlineCSV(t *testing.T) {
	s := newTestServer(t)

	out, text, err := s.analyze(context.Background(), AnalyzeInput{CSV: epicCSV, Source: "epic.csv", Record: true})
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if out.RunID == "" || out.Source != "epic.csv" {
		t.Errorf("unexpected identity: %+v", out)
	}
	if out.TotalPoints != 8 || out.CompletedPoints != 5 || out.TotalAssignees != 2 {
		t.Errorf("unexpected totals: %+v", out)
	}
	if out.ProjectedCompletionDate == "" {
		t.Error("expected a projected completion date")
	}
	if !strings.Contains(text, out.RunID) || !strings.Contains(text, "| Completion | 62.5% |") {
		t.Errorf("unexpected summary text:\n%s", text)
	}
}

func TestAnalyze_RequiresInput(t *testing.T) {
	s := newTestServer(t)
	if _, _, err := s.analyze(context.Background(), AnalyzeInput{}); err == nil {
		t.Error("expected error without path or csv")
	}
}

func TestChart_Formats(t *testing.T) {
	s := newTestServer(t)
	out, _, err := s.analyze(context.Background(), AnalyzeInput{CSV: epicCSV})
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	chartOut, text, err := s.chart(ChartInput{Chart: visuals.ChartBurnup})
	if err != nil {
		t.Fatalf("chart failed: %v", err)
	}
	if chartOut.RunID != out.RunID || chartOut.Format != "mermaid" {
		t.Errorf("unexpected chart output: %+v", chartOut)
	}
	if !strings.Contains(text, "xychart-beta") {
		t.Errorf("expected mermaid output:\n%s", text)
	}

	_, text, err = s.chart(ChartInput{RunID: out.RunID, Chart: visuals.ChartBurndown, Format: "json"})
	if err != nil {
		t.Fatalf("chart failed: %v", err)
	}
	var decoded struct {
		Labels []string `json:"labels"`
	}
	if err := json.Unmarshal([]byte(text), &decoded); err != nil || len(decoded.Labels) == 0 {
		t.Errorf("expected chart JSON, got %q (%v)", text, err)
	}

	if _, _, err := s.chart(ChartInput{Chart: "pie"}); !errors.Is(err, visuals.ErrUnknownChart) {
		t.Errorf("expected ErrUnknownChart, got %v", err)
	}
	if _, _, err := s.chart(ChartInput{RunID: "nope", Chart: visuals.ChartBurnup}); !errors.Is(err, analysis.ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if _, _, err := s.chart(ChartInput{Chart: visuals.ChartBurnup, Format: "svg"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestChart_MermaidDisabled(t *testing.T) {
	s := NewServer(analysis.NewAnalyzer(nil, nil), nil, false, "test")
	if _, _, err := s.analyze(context.Background(), AnalyzeInput{CSV: epicCSV}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.chart(ChartInput{Chart: visuals.ChartBurnup}); err == nil {
		t.Error("expected mermaid to be refused")
	}
	if _, _, err := s.chart(ChartInput{Chart: visuals.ChartBurnup, Format: "json"}); err != nil {
		t.Errorf("json should still work: %v", err)
	}
}

func TestListRuns(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	for _, src := range []string{"a.csv", "b.csv", "a.csv"} {
		if _, _, err := s.analyze(ctx, AnalyzeInput{CSV: epicCSV, Source: src, Record: true}); err != nil {
			t.Fatal(err)
		}
	}
	// Not recorded.
	if _, _, err := s.analyze(ctx, AnalyzeInput{CSV: epicCSV, Source: "a.csv"}); err != nil {
		t.Fatal(err)
	}

	out, text, err := s.listRuns(ListRunsInput{Source: "a.csv"})
	if err != nil {
		t.Fatalf("listRuns failed: %v", err)
	}
	if len(out.Runs) != 2 {
		t.Errorf("expected 2 recorded runs for a.csv, got %d", len(out.Runs))
	}
	var decoded ListRunsOutput
	if err := json.Unmarshal([]byte(text), &decoded); err != nil || len(decoded.Runs) != 2 {
		t.Errorf("expected runs JSON, got %q (%v)", text, err)
	}

	out, _, _ = s.listRuns(ListRunsInput{Limit: 1})
	if len(out.Runs) != 1 {
		t.Errorf("expected limit to apply, got %d", len(out.Runs))
	}

	noHistory := NewServer(analysis.NewAnalyzer(nil, nil), nil, true, "test")
	if _, _, err := noHistory.listRuns(ListRunsInput{}); err == nil {
		t.Error("expected error without history store")
	}
}

func TestMCPServer_InMemorySession(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t)

	clientTransport, serverTransport := sdk.NewInMemoryTransports()
	serverSession, err := s.MCPServer().Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect failed: %v", err)
	}
	defer serverSession.Close()

	client := sdk.NewClient(&sdk.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect failed: %v", err)
	}
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}
	names := make(map[string]bool)
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"analyze_csv", "get_chart", "list_runs"} {
		if !names[want] {
			t.Errorf("tool %s not registered", want)
		}
	}

	res, err := session.CallTool(ctx, &sdk.CallToolParams{
		Name:      "analyze_csv",
		Arguments: map[string]any{"csv": epicCSV, "source": "epic.csv"},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool returned an error: %+v", res.Content)
	}
	text, ok := res.Content[0].(*sdk.TextContent)
	if !ok || !strings.Contains(text.Text, "# Epic Metrics") {
		t.Errorf("unexpected content: %+v", res.Content)
	}
}
