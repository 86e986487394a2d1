package engine

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"epic-metrics/internal/jira"
)

var genNow = time.Date(2023, 3, 1, 12, 0, 0, 0, time.UTC)

func TestGenerate_Shape(t *testing.T) {
	for _, scenario := range []string{"mild", "chaos", "drift"} {
		for _, dist := range []string{"uniform", "weibull"} {
			t.Run(scenario+"/"+dist, func(t *testing.T) {
				issues := Generate(GeneratorConfig{Scenario: scenario, Distribution: dist, Count: 40, Project: "GEN", Seed: 7, Now: genNow})
				if len(issues) != 40 {
					t.Fatalf("expected 40 issues, got %d", len(issues))
				}
				for _, issue := range issues {
					if issue.Created.After(genNow) {
						t.Errorf("%s created in the future", issue.Key)
					}
					if issue.Resolved != nil {
						if issue.Status != "Done" || issue.Resolved.Before(issue.Created) || issue.Resolved.After(genNow) {
							t.Errorf("%s has inconsistent resolution: %+v", issue.Key, issue)
						}
					} else if issue.Status == "Done" {
						t.Errorf("%s is Done without resolution", issue.Key)
					}
					if issue.StoryPoints <= 0 {
						t.Errorf("%s has no points", issue.Key)
					}
				}
			})
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := GeneratorConfig{Scenario: "chaos", Count: 25, Seed: 42, Now: genNow}
	if !reflect.DeepEqual(Generate(cfg), Generate(cfg)) {
		t.Error("same seed should produce the same export")
	}
}

func TestSave_ReadableExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "mock.csv")
	issues := Generate(GeneratorConfig{Count: 15, Seed: 1, Now: genNow})

	if err := Save(path, issues); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	loaded, report, err := jira.LoadIssues(f)
	if err != nil {
		t.Fatalf("LoadIssues failed: %v", err)
	}
	if len(loaded) != len(issues) || report.DefaultedPoints != 0 {
		t.Errorf("loaded %d issues (report %+v), want %d", len(loaded), report, len(issues))
	}
}
