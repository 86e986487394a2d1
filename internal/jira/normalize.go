package jira

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Column candidates per canonical field, in priority order. Header names outside
// these lists are ignored.
var (
	KeyColumns         = []string{"Issue key", "Key"}
	SummaryColumns     = []string{"Summary", "Issue summary"}
	StatusColumns      = []string{"Status"}
	CreatedColumns     = []string{"Created"}
	UpdatedColumns     = []string{"Updated"}
	ResolvedColumns    = []string{"Resolved", "Resolution Date", "Resolution date"}
	AssigneeColumns    = []string{"Assignee", "Assigned To", "Assigned"}
	EpicColumns        = []string{"Epic Link", "Epic", "Custom field (Epic Link)", "Parent"}
	DescriptionColumns = []string{"Description"}
)

// StoryPointColumns lists estimate columns; the first finite, positive value wins.
var StoryPointColumns = []string{
	"Story Points",
	"Story point estimate",
	"Custom field (Story Points)",
	"Custom field (Story point estimate)",
	"Story Point Estimate",
	"Points",
}

// DefaultStoryPoints is assigned when no candidate column holds a usable estimate.
const DefaultStoryPoints = 1.0

// NormalizeReport counts the rows that were dropped or repaired during normalization.
type NormalizeReport struct {
	Rows            int `json:"rows"`
	Accepted        int `json:"accepted"`
	MissingKey      int `json:"missingKey"`
	InvalidCreated  int `json:"invalidCreated"`
	InvalidUpdated  int `json:"invalidUpdated"`
	InvalidResolved int `json:"invalidResolved"`
	DefaultedPoints int `json:"defaultedPoints"`
}

// Row is one header-keyed record from the CSV collaborator.
type Row map[string]string

// Lookup returns the first non-empty value among the candidate columns.
func (r Row) Lookup(candidates []string) string {
	for _, c := range candidates {
		if v := strings.TrimSpace(r[c]); v != "" {
			return v
		}
	}
	return ""
}

// LookupPoints returns the first finite, positive estimate among the candidates.
func (r Row) LookupPoints(candidates []string) (float64, bool) {
	for _, c := range candidates {
		v := strings.TrimSpace(r[c])
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
			continue
		}
		return f, true
	}
	return 0, false
}

// NormalizeRows maps raw CSV rows to canonical issues.
// Rows without a key are dropped silently. Rows whose creation date cannot be parsed
// are dropped and counted; unparseable optional dates are treated as absent.
func NormalizeRows(rows []Row) ([]Issue, NormalizeReport) {
	report := NormalizeReport{Rows: len(rows)}
	issues := make([]Issue, 0, len(rows))

	for i, row := range rows {
		issue, ok := normalizeRow(row, &report)
		if !ok {
			log.Debug().Int("row", i+1).Str("key", issue.Key).Msg("Skipping row")
			continue
		}
		issues = append(issues, issue)
	}

	report.Accepted = len(issues)
	return issues, report
}

func normalizeRow(row Row, report *NormalizeReport) (Issue, bool) {
	issue := Issue{
		Key:         row.Lookup(KeyColumns),
		Summary:     row.Lookup(SummaryColumns),
		Status:      row.Lookup(StatusColumns),
		Assignee:    row.Lookup(AssigneeColumns),
		Epic:        row.Lookup(EpicColumns),
		Description: row.Lookup(DescriptionColumns),
	}

	if issue.Key == "" {
		report.MissingKey++
		return issue, false
	}

	created, err := ParseTime(row.Lookup(CreatedColumns))
	if err != nil {
		report.InvalidCreated++
		return issue, false
	}
	issue.Created = created

	issue.Updated = optionalTime(row.Lookup(UpdatedColumns), &report.InvalidUpdated)
	issue.Resolved = optionalTime(row.Lookup(ResolvedColumns), &report.InvalidResolved)

	if sp, ok := row.LookupPoints(StoryPointColumns); ok {
		issue.StoryPoints = sp
	} else {
		issue.StoryPoints = DefaultStoryPoints
		report.DefaultedPoints++
	}

	return issue, true
}

func optionalTime(raw string, invalid *int) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := ParseTime(raw)
	if err != nil {
		*invalid++
		return nil
	}
	return &t
}
