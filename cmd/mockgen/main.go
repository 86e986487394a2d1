package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"epic-metrics/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, chaos, drift")
	distribution := flag.String("distribution", "uniform", "Distribution to use: uniform, weibull")
	out := flag.String("out", "./.cache/mock_export.csv", "Output CSV file")
	count := flag.Int("count", 60, "Number of issues to generate")
	project := flag.String("project", "MOCK", "Project key of the generated issues")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario:     *scenario,
		Distribution: *distribution,
		Count:        *count,
		Project:      *project,
		Seed:         *seed,
		Now:          time.Now().UTC(),
	}

	fmt.Printf("Generating scenario '%s' (Distribution: %s, Count: %d) to %s...\n", cfg.Scenario, cfg.Distribution, cfg.Count, *out)

	issues := engine.Generate(cfg)
	if err := engine.Save(*out, issues); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done.")
}
