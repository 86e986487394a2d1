package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTriggerWatcher(t *testing.T, onChange func(string)) (*Watcher, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "epic.csv")
	if err := os.WriteFile(path, []byte("Key,Summary,Status\n"), 0644); err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(50*time.Millisecond, onChange)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	t.Cleanup(func() { w.watcher.Close() })
	return w, path
}

func TestWatcher_TriggerCoalescesBursts(t *testing.T) {
	var count atomic.Int32
	w, path := newTriggerWatcher(t, func(string) { count.Add(1) })
	defer w.stopAll()

	for i := 0; i < 10; i++ {
		w.trigger(path)
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)

	if got := count.Load(); got != 1 {
		t.Errorf("expected 1 onChange call, got %d", got)
	}

	w.trigger(path)
	time.Sleep(150 * time.Millisecond)
	if got := count.Load(); got != 2 {
		t.Errorf("a later change should fire again, got %d calls", got)
	}
}

func TestWatcher_StopCancelsPending(t *testing.T) {
	var count atomic.Int32
	w, path := newTriggerWatcher(t, func(string) { count.Add(1) })

	w.trigger(path)
	w.stopAll()
	time.Sleep(100 * time.Millisecond)

	if got := count.Load(); got != 0 {
		t.Errorf("expected no onChange after stop, got %d", got)
	}
}

func TestWatcher_SkipsRemovedFile(t *testing.T) {
	var count atomic.Int32
	w, path := newTriggerWatcher(t, func(string) { count.Add(1) })
	defer w.stopAll()

	w.trigger(path)
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)

	if got := count.Load(); got != 0 {
		t.Errorf("removed file should not be reported, got %d calls", got)
	}
}

func TestWatcher_Matches(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "epic.csv")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "exports")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(0, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.watcher.Close()

	if err := w.Add(file); err != nil {
		t.Fatalf("Add(file) failed: %v", err)
	}
	if err := w.Add(sub); err != nil {
		t.Fatalf("Add(dir) failed: %v", err)
	}
	if err := w.Add(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("expected error for a missing path")
	}

	tests := map[string]bool{
		file:                                true,
		filepath.Join(dir, "other.csv"):     false,
		filepath.Join(sub, "a.csv"):         true,
		filepath.Join(sub, "B.CSV"):         true,
		filepath.Join(sub, "notes.txt"):     false,
		filepath.Join(sub, "deep", "x.csv"): false,
	}
	for path, want := range tests {
		if got := w.matches(path); got != want {
			t.Errorf("matches(%s) = %v, want %v", path, got, want)
		}
	}
}

func TestWatcher_ReportsRewrite(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "epic.csv")
	if err := os.WriteFile(file, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var changed []string
	done := make(chan struct{}, 1)
	w, err := NewWatcher(100*time.Millisecond, func(path string) {
		mu.Lock()
		changed = append(changed, path)
		mu.Unlock()
		select {
		case done <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Add(file); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(file, []byte("v2"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(changed) != 1 {
		t.Errorf("expected one debounced change, got %v", changed)
	}
}
