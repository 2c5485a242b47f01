package observability

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/valter-silva-au/sitekit/pkg/models"
)

func newTestEntryLog(t *testing.T) (EntryLog, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history", "entries.jsonl")
	log, err := NewJSONLEntryLog(models.HistoryConfig{Enabled: true, Path: path, MaxSizeMB: 1, MaxBackups: 1})
	if err != nil {
		t.Fatalf("creating entry log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log, path
}

func ts(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func TestEntryLog_WriteAndRead(t *testing.T) {
	log, _ := newTestEntryLog(t)

	now := time.Now().UTC()
	entries := []models.LogEntry{
		{Timestamp: ts(now), Level: models.LevelInfo, Message: "Page loaded", Data: map[string]any{"path": "/"}},
		{Timestamp: ts(now.Add(time.Second)), Level: models.LevelWarn, Message: "Image slow"},
	}
	for _, e := range entries {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing entry: %v", err)
		}
	}

	result, err := log.Read(EntryFilter{})
	if err != nil {
		t.Fatalf("reading entries: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result))
	}
	if result[0].Message != "Page loaded" {
		t.Errorf("expected message 'Page loaded', got %s", result[0].Message)
	}
	if result[1].Level != models.LevelWarn {
		t.Errorf("expected level warn, got %s", result[1].Level)
	}
}

func TestEntryLog_FilterByTimeRange(t *testing.T) {
	log, _ := newTestEntryLog(t)

	base := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	for i, msg := range []string{"first", "second", "third", "fourth"} {
		e := models.LogEntry{Timestamp: ts(base.Add(time.Duration(i) * time.Hour)), Level: models.LevelInfo, Message: msg}
		if err := log.Write(e); err != nil {
			t.Fatalf("writing entry: %v", err)
		}
	}

	since := base.Add(30 * time.Minute)
	until := base.Add(2*time.Hour + 30*time.Minute)
	result, err := log.Read(EntryFilter{Since: &since, Until: &until})
	if err != nil {
		t.Fatalf("reading entries: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 entries in time range, got %d", len(result))
	}
	if result[0].Message != "second" || result[1].Message != "third" {
		t.Errorf("unexpected entries: %q, %q", result[0].Message, result[1].Message)
	}
}

func TestEntryLog_FilterByLevelAndGrep(t *testing.T) {
	log, _ := newTestEntryLog(t)

	now := ts(time.Now())
	for _, e := range []models.LogEntry{
		{Timestamp: now, Level: models.LevelError, Message: "Gallery image failed"},
		{Timestamp: now, Level: models.LevelError, Message: "Nav target missing"},
		{Timestamp: now, Level: models.LevelInfo, Message: "Gallery filtered"},
	} {
		if err := log.Write(e); err != nil {
			t.Fatal(err)
		}
	}

	result, err := log.Read(EntryFilter{Level: models.LevelError, Grep: "gallery"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result) != 1 || result[0].Message != "Gallery image failed" {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestEntryLog_SkipsMalformedLines(t *testing.T) {
	log, path := newTestEntryLog(t)
	if err := log.Write(models.LogEntry{Timestamp: ts(time.Now()), Level: models.LevelInfo, Message: "ok"}); err != nil {
		t.Fatal(err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{not json\n\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	result, err := log.Read(EntryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(result) != 1 {
		t.Errorf("expected malformed lines to be skipped, got %d entries", len(result))
	}
}

func TestEntryLog_EmptyLog(t *testing.T) {
	log, _ := newTestEntryLog(t)

	result, err := log.Read(EntryFilter{})
	if err != nil {
		t.Fatalf("reading empty log: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("expected 0 entries from empty log, got %d", len(result))
	}
}

func TestEntryLog_UnparseableTimestampNeverMatchesTimeBound(t *testing.T) {
	log, _ := newTestEntryLog(t)
	if err := log.Write(models.LogEntry{Timestamp: "yesterday", Level: models.LevelInfo, Message: "x"}); err != nil {
		t.Fatal(err)
	}
	since := time.Time{}
	result, err := log.Read(EntryFilter{Since: &since})
	if err != nil {
		t.Fatal(err)
	}
	if len(result) != 0 {
		t.Errorf("expected entry with bad timestamp to be excluded, got %d", len(result))
	}
}

func TestNewJSONLEntryLog_EmptyPath(t *testing.T) {
	if _, err := NewJSONLEntryLog(models.HistoryConfig{}); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestEntryLog_ConcurrentWrites(t *testing.T) {
	log, _ := newTestEntryLog(t)

	const goroutines = 10
	const entriesPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < entriesPerGoroutine; i++ {
				e := models.LogEntry{
					Timestamp: ts(time.Now()),
					Level:     models.LevelDebug,
					Message:   "concurrent entry",
					Data:      map[string]any{"goroutine": id, "index": i},
				}
				if err := log.Write(e); err != nil {
					t.Errorf("concurrent write error: %v", err)
				}
			}
		}(g)
	}
	wg.Wait()

	result, err := log.Read(EntryFilter{})
	if err != nil {
		t.Fatalf("reading entries after concurrent writes: %v", err)
	}
	if want := goroutines * entriesPerGoroutine; len(result) != want {
		t.Errorf("expected %d entries, got %d", want, len(result))
	}
}
