package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"epic-metrics/internal/stats"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// FileName is the JSONL file kept inside the cache directory.
const FileName = "runs.jsonl"

// RunRecord summarizes one processing run of an export.
type RunRecord struct {
	ID                      string    `json:"id"`
	Source                  string    `json:"source"`
	ProcessedAt             time.Time `json:"processedAt"`
	TotalIssues             int       `json:"totalIssues"`
	TotalPoints             float64   `json:"totalPoints"`
	CompletedPoints         float64   `json:"completedPoints"`
	Velocity                float64   `json:"velocity"`
	ProjectedCompletionDate string    `json:"projectedCompletionDate,omitempty"`
}

// NewRecord builds a record for a processed result with a fresh ID.
func NewRecord(source string, res stats.ProcessedResult, at time.Time) RunRecord {
	rec := RunRecord{
		ID:              uuid.NewString(),
		Source:          source,
		ProcessedAt:     at.UTC(),
		TotalIssues:     res.TotalIssues,
		TotalPoints:     res.TotalPoints,
		CompletedPoints: res.CompletedPoints,
		Velocity:        res.AdjustedVelocity,
	}
	if res.ProjectedCompletionDate != nil {
		rec.ProjectedCompletionDate = *res.ProjectedCompletionDate
	}
	return rec
}

// Store keeps run records in memory, ordered by ProcessedAt, and persists them as JSONL.
type Store struct {
	mu      sync.RWMutex
	saveMu  sync.Mutex // serializes snapshot, write and rename
	path    string
	records []RunRecord
}

// NewStore creates an empty store backed by dir/runs.jsonl.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, FileName)}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Append adds records, skipping IDs already present. It returns the number added.
func (s *Store) Append(records ...RunRecord) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := make(map[string]bool, len(s.records))
	for _, r := range s.records {
		existing[r.ID] = true
	}

	added := 0
	for _, r := range records {
		if r.ID == "" || existing[r.ID] {
			continue
		}
		existing[r.ID] = true
		s.records = append(s.records, r)
		added++
	}

	if added > 0 {
		sort.SliceStable(s.records, func(i, j int) bool {
			return s.records[i].ProcessedAt.Before(s.records[j].ProcessedAt)
		})
	}
	return added
}

// Load merges the records from disk. A missing file is not an error; malformed
// lines are skipped.
func (s *Store) Load() error {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer file.Close()

	var records []RunRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var r RunRecord
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			log.Warn().Err(err).Str("path", s.path).Msg("Skipping invalid JSON line in run history")
			continue
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading run history: %w", err)
	}

	added := s.Append(records...)
	log.Debug().Str("path", s.path).Int("count", added).Msg("Loaded run history")
	return nil
}

// Save writes all records to disk atomically. Concurrent saves are serialized and
// each takes its snapshot under the save lock, so the last rename holds every record.
func (s *Store) Save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	records := make([]RunRecord, len(s.records))
	copy(records, s.records)
	s.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	file, err := os.CreateTemp(filepath.Dir(s.path), FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}
	tmpPath := file.Name()

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for _, r := range records {
		if err := encoder.Encode(r); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to encode run %s: %w", r.ID, err)
		}
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename history file: %w", err)
	}

	log.Debug().Str("path", s.path).Int("count", len(records)).Msg("Run history saved")
	return nil
}

// Record appends a record and saves the store.
func (s *Store) Record(rec RunRecord) error {
	s.Append(rec)
	return s.Save()
}

// List returns a copy of the records for source, oldest first. An empty source
// returns every record.
func (s *Store) List(source string) []RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []RunRecord{}
	for _, r := range s.records {
		if source == "" || r.Source == source {
			out = append(out, r)
		}
	}
	return out
}

// Latest returns the most recent record for source.
func (s *Store) Latest(source string) (RunRecord, bool) {
	runs := s.List(source)
	if len(runs) == 0 {
		return RunRecord{}, false
	}
	return runs[len(runs)-1], true
}

// Count returns the number of stored records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
