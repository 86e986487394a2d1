package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"epic-metrics/internal/config"
	"epic-metrics/internal/history"
	"epic-metrics/internal/jira"
	"epic-metrics/internal/stats"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultCacheSize is the number of processed runs kept in memory.
const DefaultCacheSize = 16

// ErrRunNotFound is returned when a run ID is not in the in-memory cache.
var ErrRunNotFound = errors.New("run not found")

// SettingsResolver supplies projection overrides per project key.
type SettingsResolver interface {
	ResolveSettings(projectKey string) config.Settings
}

// Request describes one export to process. Exactly one of Path or Reader is used;
// Reader wins when both are set.
type Request struct {
	Source        string
	Path          string
	Reader        io.Reader
	TeamMembers   int
	Velocity      float64
	Record        bool
	IncludeIssues bool
	Now           time.Time
}

// Run is a processed export.
type Run struct {
	ID       string                `json:"id"`
	Source   string                `json:"source"`
	Settings config.Settings       `json:"settings"`
	Result   stats.ProcessedResult `json:"result"`
}

// Analyzer loads exports, resolves settings, runs the processor and keeps recent runs.
type Analyzer struct {
	settings SettingsResolver
	store    *history.Store

	mu        sync.RWMutex
	runs      map[string]*Run
	order     []string
	cacheSize int
}

// NewAnalyzer creates an analyzer. settings and store may be nil.
func NewAnalyzer(settings SettingsResolver, store *history.Store) *Analyzer {
	return &Analyzer{
		settings:  settings,
		store:     store,
		runs:      make(map[string]*Run),
		cacheSize: DefaultCacheSize,
	}
}

// History returns the backing run store, or nil.
func (a *Analyzer) History() *history.Store {
	return a.store
}

// Analyze processes one export.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	overrides := stats.Options{TeamMembers: req.TeamMembers, Velocity: req.Velocity}
	if err := overrides.Validate(); err != nil {
		return nil, err
	}

	issues, report, err := a.load(req)
	if err != nil {
		return nil, err
	}

	settings := a.resolve(issues, req)
	opts := stats.Options{
		TeamMembers:   settings.TeamMembers,
		Velocity:      settings.Velocity,
		Now:           req.Now,
		IncludeIssues: req.IncludeIssues,
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	res := stats.Process(issues, opts)
	res.Normalization = report

	rec := history.NewRecord(sourceName(req), res, processedAt(req))
	run := &Run{ID: rec.ID, Source: rec.Source, Settings: settings, Result: res}

	if req.Record && a.store != nil {
		if err := a.store.Record(rec); err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
	}
	a.remember(run)

	log.Info().
		Str("run", run.ID).
		Str("source", run.Source).
		Int("issues", res.TotalIssues).
		Float64("velocity", res.AdjustedVelocity).
		Msg("Processed export")
	return run, nil
}

// AnalyzeFiles processes several exports concurrently. Results keep the order of
// paths; the first failure cancels the remaining work.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, paths []string, base Request) ([]*Run, error) {
	runs := make([]*Run, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, path := range paths {
		g.Go(func() error {
			req := base
			req.Path = path
			req.Reader = nil
			req.Source = ""
			run, err := a.Analyze(gctx, req)
			if err != nil {
				return err
			}
			runs[i] = run
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}

// Get returns a cached run by ID.
func (a *Analyzer) Get(id string) (*Run, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	run, ok := a.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, nil
}

// Last returns the most recently processed run.
func (a *Analyzer) Last() (*Run, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if len(a.order) == 0 {
		return nil, fmt.Errorf("%w: no export has been analyzed yet", ErrRunNotFound)
	}
	return a.runs[a.order[len(a.order)-1]], nil
}

func (a *Analyzer) remember(run *Run) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.runs[run.ID] = run
	a.order = append(a.order, run.ID)
	for len(a.order) > a.cacheSize {
		delete(a.runs, a.order[0])
		a.order = a.order[1:]
	}
}

func (a *Analyzer) load(req Request) ([]jira.Issue, jira.NormalizeReport, error) {
	if req.Reader != nil {
		issues, report, err := jira.LoadIssues(req.Reader)
		if err != nil {
			return nil, report, fmt.Errorf("%s: %w", sourceName(req), err)
		}
		return issues, report, nil
	}
	if req.Path == "" {
		return nil, jira.NormalizeReport{}, errors.New("either a CSV path or CSV content is required")
	}
	return jira.LoadFile(req.Path)
}

// resolve layers explicit request overrides over the configured settings for the
// export's dominant project.
func (a *Analyzer) resolve(issues []jira.Issue, req Request) config.Settings {
	var s config.Settings
	if a.settings != nil {
		s = a.settings.ResolveSettings(DominantProject(issues))
	}
	s = s.Merge(config.Settings{TeamMembers: req.TeamMembers, Velocity: req.Velocity})
	if s.TeamMembers > 0 && s.Velocity > 0 {
		log.Info().
			Str("source", sourceName(req)).
			Int("teamMembers", s.TeamMembers).
			Float64("velocity", s.Velocity).
			Bool("velocityFromRequest", req.Velocity > 0).
			Msg("Velocity override in effect, team size rescale skipped")
	}
	return s
}

// DominantProject returns the most frequent project key, first seen wins ties.
func DominantProject(issues []jira.Issue) string {
	counts := make(map[string]int)
	best, bestCount := "", 0
	for _, issue := range issues {
		key := issue.ProjectKey()
		counts[key]++
		if counts[key] > bestCount {
			best, bestCount = key, counts[key]
		}
	}
	return best
}

func sourceName(req Request) string {
	switch {
	case req.Source != "":
		return req.Source
	case req.Path != "":
		return filepath.Base(req.Path)
	default:
		return "inline.csv"
	}
}

func processedAt(req Request) time.Time {
	if req.Now.IsZero() {
		return time.Now()
	}
	return req.Now
}

// ReportName derives a file-safe report name from a source.
func ReportName(source string) string {
	name := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
	if name == "" || name == "." {
		return "epic-report"
	}
	return name
}
