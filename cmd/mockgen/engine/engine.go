package engine

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"epic-metrics/internal/jira"
)

// GeneratorConfig controls the synthetic epic.
type GeneratorConfig struct {
	Scenario     string // "mild", "chaos" or "drift"
	Distribution string // "uniform" or "weibull"
	Count        int
	Project      string
	Seed         uint64
	Now          time.Time
}

var (
	assignees   = []string{"Alice", "Bob", "Carol", "Dave", ""}
	pointScale  = []float64{1, 2, 3, 5, 8}
	wipStatuses = []string{"To Do", "In Progress", "In Review"}
)

// Generate returns Count issues of one epic, created over roughly the last
// Count/2 days. Issues whose sampled cycle time has elapsed are resolved.
func Generate(cfg GeneratorConfig) []jira.Issue {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now().UTC()
	}
	if cfg.Project == "" {
		cfg.Project = "MOCK"
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	epic := fmt.Sprintf("%s-%d", cfg.Project, cfg.Count+1)
	span := math.Max(1, float64(cfg.Count)/2)
	start := cfg.Now.Add(-time.Duration(span*24) * time.Hour)

	issues := make([]jira.Issue, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		progress := float64(i) / math.Max(1, float64(cfg.Count))

		// Scope arrives roughly evenly; chaos front-loads then adds late scope creep.
		offset := progress * span
		if cfg.Scenario == "chaos" && rng.Float64() < 0.25 {
			offset = span * (0.8 + 0.2*rng.Float64())
		}
		created := start.Add(time.Duration(offset*24) * time.Hour).Truncate(time.Minute)

		issue := jira.Issue{
			Key:         fmt.Sprintf("%s-%d", cfg.Project, i+1),
			Summary:     fmt.Sprintf("Synthetic story %d", i+1),
			Created:     created,
			StoryPoints: pointScale[rng.IntN(len(pointScale))],
			Assignee:    assignees[rng.IntN(len(assignees))],
			Epic:        epic,
		}

		duration := sampleDuration(cfg, rng, progress)
		done := created.Add(time.Duration(duration*24) * time.Hour).Truncate(time.Minute)
		if done.Before(cfg.Now) {
			issue.Status = "Done"
			issue.Resolved = &done
			issue.Updated = &done
		} else {
			age := cfg.Now.Sub(created).Hours() / 24
			stage := int(float64(len(wipStatuses)) * age / duration)
			issue.Status = wipStatuses[min(stage, len(wipStatuses)-1)]
			updated := cfg.Now.Truncate(time.Minute)
			issue.Updated = &updated
		}

		issues = append(issues, issue)
	}
	return issues
}

// sampleDuration draws a cycle time in days.
func sampleDuration(cfg GeneratorConfig, rng *rand.Rand, progress float64) float64 {
	k, lambda := 2.5, 6.0
	switch cfg.Scenario {
	case "chaos":
		k = 0.8
		lambda = 9.0
	case "drift":
		k = 2.5 - 1.7*progress
		lambda = 6.0 + 6.0*progress
	}

	if cfg.Distribution == "weibull" {
		return math.Max(0.1, weibullSample(rng, k, lambda))
	}

	d := 2.0 + rng.Float64()*6.0
	if cfg.Scenario == "chaos" && rng.Float64() < 0.2 {
		d += 10 + rng.Float64()*15
	}
	if cfg.Scenario == "drift" {
		d *= 1 + progress
	}
	return d
}

func weibullSample(rng *rand.Rand, k, lambda float64) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 0.0001
	}
	// X = lambda * (-ln(1-u))^(1/k)
	return lambda * math.Pow(-math.Log(1.0-u), 1.0/k)
}

// Save writes the issues as a Jira-style CSV export.
func Save(path string, issues []jira.Issue) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return jira.WriteCSV(f, issues)
}
