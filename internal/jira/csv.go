package jira

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNoIssues is returned when an export yields no usable rows.
	ErrNoIssues = errors.New("no data found in the CSV file")
	// ErrNotJiraExport is returned when the header lacks the expected Jira columns.
	ErrNotJiraExport = errors.New("the CSV file does not appear to be a valid Jira export")
)

// requiredHeaderSets lists the column combinations accepted as a Jira export.
var requiredHeaderSets = [][]string{
	{"Key", "Summary", "Status"},
	{"Issue key", "Issue summary", "Status"},
	{"Issue key", "Summary", "Status"},
}

// ReadCSV parses a header-keyed CSV document into rows.
// Jira repeats some headers (e.g., "Sprint"); the first non-empty value per header wins.
func ReadCSV(r io.Reader) ([]string, []Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, ErrNoIssues
		}
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("CSV parsing error: %w", err)
		}
		if isBlank(record) {
			continue
		}

		row := make(Row, len(header))
		for i, name := range header {
			if i >= len(record) {
				break
			}
			if existing := row[name]; existing != "" {
				continue
			}
			row[name] = record[i]
		}
		rows = append(rows, row)
	}

	return header, rows, nil
}

// ValidateHeader reports whether the header looks like a Jira export.
func ValidateHeader(header []string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}

	for _, set := range requiredHeaderSets {
		ok := true
		for _, field := range set {
			if !present[field] {
				ok = false
				break
			}
		}
		if ok {
			return nil
		}
	}
	return ErrNotJiraExport
}

// LoadIssues reads, validates and normalizes a Jira CSV export.
func LoadIssues(r io.Reader) ([]Issue, NormalizeReport, error) {
	header, rows, err := ReadCSV(r)
	if err != nil {
		return nil, NormalizeReport{}, err
	}
	if len(rows) == 0 {
		return nil, NormalizeReport{}, ErrNoIssues
	}
	if err := ValidateHeader(header); err != nil {
		return nil, NormalizeReport{}, err
	}

	issues, report := NormalizeRows(rows)
	if len(issues) == 0 {
		return nil, report, ErrNoIssues
	}
	return issues, report, nil
}

// LoadFile is LoadIssues over a file on disk.
func LoadFile(path string) ([]Issue, NormalizeReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, NormalizeReport{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	issues, report, err := LoadIssues(f)
	if err != nil {
		return nil, report, fmt.Errorf("%s: %w", path, err)
	}
	return issues, report, nil
}

// exportHeader is the column order used by WriteCSV.
var exportHeader = []string{
	"Issue key", "Summary", "Status", "Created", "Updated", "Resolved",
	"Story Points", "Assignee", "Epic Link", "Description",
}

// WriteCSV exports normalized issues in a layout that ReadCSV and NormalizeRows accept.
func WriteCSV(w io.Writer, issues []Issue) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, issue := range issues {
		record := []string{
			issue.Key,
			issue.Summary,
			issue.Status,
			formatTime(&issue.Created),
			formatTime(issue.Updated),
			formatTime(issue.Resolved),
			strconv.FormatFloat(issue.StoryPoints, 'f', -1, 64),
			issue.Assignee,
			issue.Epic,
			issue.Description,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write %s: %w", issue.Key, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
