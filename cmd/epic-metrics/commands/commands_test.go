package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"epic-metrics/internal/analysis"
	"epic-metrics/internal/history"
	"epic-metrics/internal/report"
	"epic-metrics/internal/stats"
)

func TestOverrideFlags_Request(t *testing.T) {
	f := overrideFlags{teamMembers: 3, velocity: 1.5, asOf: "2023-02-01", record: true}
	req, err := f.request()
	if err != nil {
		t.Fatalf("request() failed: %v", err)
	}
	if req.TeamMembers != 3 || req.Velocity != 1.5 || !req.Record {
		t.Errorf("unexpected request: %+v", req)
	}
	if !req.Now.Equal(time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Now = %v", req.Now)
	}

	f.asOf = "01/02/2023"
	if _, err := f.request(); err == nil {
		t.Error("expected error for a non-ISO day")
	}
}

func TestWriteReport_Formats(t *testing.T) {
	dir := t.TempDir()
	run := &analysis.Run{ID: "r1", Source: "Checkout Epic.csv", Result: stats.Process(nil, stats.Options{})}
	opts := report.Options{Source: run.Source}

	htmlPath, err := writeReport(run, dir, "html", opts)
	if err != nil {
		t.Fatalf("html report failed: %v", err)
	}
	if htmlPath != filepath.Join(dir, "Checkout-Epic.html") {
		t.Errorf("html path = %s", htmlPath)
	}

	mdPath, err := writeReport(run, dir, "markdown", opts)
	if err != nil {
		t.Fatalf("markdown report failed: %v", err)
	}
	data, err := os.ReadFile(mdPath)
	if err != nil || !strings.HasPrefix(string(data), "# Epic Metrics") {
		t.Errorf("unexpected markdown report: %.40s (%v)", data, err)
	}

	if _, err := writeReport(run, dir, "pdf", opts); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRunRow_Countdown(t *testing.T) {
	now := time.Date(2023, 3, 10, 9, 0, 0, 0, time.UTC)
	rec := history.RunRecord{ID: "r1", Source: "a.csv", ProcessedAt: now.AddDate(0, 0, -14), TotalPoints: 20, CompletedPoints: 5}

	tests := []struct {
		projected string
		projCol   string
		leftCol   string
	}{
		{"2023-03-15", "2023-03-15", "5"},
		{"2023-03-01", "2023-03-01", "overdue by 9 days"},
		{"", "-", "-"},
	}
	for _, tt := range tests {
		rec.ProjectedCompletionDate = tt.projected
		row := runRow(rec, now)
		if row[4] != tt.projCol || row[5] != tt.leftCol {
			t.Errorf("runRow(%q) = %v, want projected %q and %q left", tt.projected, row, tt.projCol, tt.leftCol)
		}
	}
}
