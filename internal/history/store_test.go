package history

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"epic-metrics/internal/stats"
)

func TestNewRecord(t *testing.T) {
	date := "2023-02-01"
	res := stats.ProcessedResult{
		TotalIssues:             4,
		TotalPoints:             13,
		CompletedPoints:         5,
		Velocity:                1,
		AdjustedVelocity:        2,
		ProjectedCompletionDate: &date,
	}
	at := time.Date(2023, 1, 20, 9, 0, 0, 0, time.FixedZone("CET", 3600))

	rec := NewRecord("export.csv", res, at)

	if rec.ID == "" {
		t.Error("expected a generated ID")
	}
	if rec.Velocity != 2 {
		t.Errorf("Velocity = %v, want adjusted velocity 2", rec.Velocity)
	}
	if rec.ProjectedCompletionDate != date || rec.TotalPoints != 13 || rec.TotalIssues != 4 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.ProcessedAt.Location() != time.UTC {
		t.Errorf("ProcessedAt should be UTC, got %v", rec.ProcessedAt.Location())
	}

	if other := NewRecord("export.csv", res, at); other.ID == rec.ID {
		t.Error("IDs should be unique per run")
	}
}

func TestStore_AppendDeduplicatesAndOrders(t *testing.T) {
	store := NewStore(t.TempDir())
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	added := store.Append(
		RunRecord{ID: "b", Source: "a.csv", ProcessedAt: base.Add(2 * time.Hour)},
		RunRecord{ID: "a", Source: "a.csv", ProcessedAt: base.Add(time.Hour)},
		RunRecord{ID: "c", Source: "b.csv", ProcessedAt: base.Add(3 * time.Hour)},
	)
	if added != 3 {
		t.Fatalf("expected 3 added, got %d", added)
	}

	if added := store.Append(RunRecord{ID: "a", Source: "a.csv"}, RunRecord{Source: "a.csv"}); added != 0 {
		t.Errorf("duplicate and empty IDs should be skipped, added %d", added)
	}

	runs := store.List("a.csv")
	if len(runs) != 2 || runs[0].ID != "a" || runs[1].ID != "b" {
		t.Errorf("List(a.csv) = %+v", runs)
	}
	if len(store.List("")) != 3 {
		t.Errorf("List(\"\") should return all records")
	}

	latest, ok := store.Latest("a.csv")
	if !ok || latest.ID != "b" {
		t.Errorf("Latest(a.csv) = %+v, %v", latest, ok)
	}
	if _, ok := store.Latest("missing.csv"); ok {
		t.Error("expected no record for unknown source")
	}
}

func TestStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2023, 1, 5, 12, 0, 0, 0, time.UTC)

	store1 := NewStore(dir)
	if err := store1.Record(RunRecord{ID: "run-1", Source: "a.csv", ProcessedAt: at, TotalPoints: 8, ProjectedCompletionDate: "2023-01-10"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store1.Record(RunRecord{ID: "run-2", Source: "a.csv", ProcessedAt: at.Add(time.Hour)}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if tmp, _ := filepath.Glob(store1.Path() + ".*.tmp"); len(tmp) != 0 {
		t.Errorf("temporary files left behind: %v", tmp)
	}

	store2 := NewStore(dir)
	if err := store2.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if store2.Count() != 2 {
		t.Fatalf("expected 2 records, got %d", store2.Count())
	}
	first := store2.List("a.csv")[0]
	if !first.ProcessedAt.Equal(at) || first.TotalPoints != 8 || first.ProjectedCompletionDate != "2023-01-10" {
		t.Errorf("record changed across save/load: %+v", first)
	}
}

func TestStore_LoadTolerant(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	if err := store.Load(); err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}

	content := `{"id":"ok","source":"a.csv","processedAt":"2023-01-01T00:00:00Z"}
not json

{"id":"ok2","source":"a.csv","processedAt":"2023-01-02T00:00:00Z"}
`
	if err := os.WriteFile(store.Path(), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if err := store.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if store.Count() != 2 {
		t.Errorf("expected malformed line to be skipped, got %d records", store.Count())
	}
}

func TestStore_ConcurrentRecord(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	const workers, rounds = 8, 10
	errs := make(chan error, workers*rounds)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				at := base.Add(time.Duration(w*rounds+i) * time.Minute)
				source := fmt.Sprintf("export-%d.csv", w)
				if err := store.Record(NewRecord(source, stats.ProcessedResult{TotalPoints: float64(i)}, at)); err != nil {
					errs <- err
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Record failed: %v", err)
	}

	reloaded := NewStore(dir)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := reloaded.Count(); got != workers*rounds {
		t.Errorf("reloaded %d records, want %d", got, workers*rounds)
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, FileName+".*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}
