package diaglog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/valter-silva-au/sitekit/internal/storage"
	"github.com/valter-silva-au/sitekit/pkg/models"
	"pgregory.net/rapid"
)

var levelGen = rapid.SampledFrom(models.AllLevels)

func logAt(l Logger, level models.Level, msg string) {
	switch level {
	case models.LevelDebug:
		l.Debug(msg)
	case models.LevelInfo:
		l.Info(msg)
	case models.LevelWarn:
		l.Warn(msg)
	case models.LevelError:
		l.Error(msg)
	case models.LevelSuccess:
		l.Success(msg)
	}
}

func debugConfig(maxLogs int) models.LoggerConfig {
	cfg := models.DefaultLoggerConfig()
	cfg.Level = "debug"
	cfg.MaxLogs = maxLogs
	return cfg
}

// =============================================================================
// Property 1: Bounded Retention Keeps Newest Entries
// =============================================================================

// Feature: diaglog, Property 1: Bounded Retention Keeps Newest Entries
// *For any* capacity C and N > C log calls, GetLogs SHALL return exactly the
// last C messages in call order.
func TestProperty1_BoundedRetentionKeepsNewest(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(1, 10).Draw(rt, "capacity")
		n := rapid.IntRange(capacity+1, 40).Draw(rt, "n")

		l, err := NewLogger(debugConfig(capacity), Host{Console: &bytes.Buffer{}})
		if err != nil {
			rt.Fatalf("NewLogger: %v", err)
		}

		var sent []string
		for i := 0; i < n; i++ {
			msg := fmt.Sprintf("m%d", i)
			logAt(l, levelGen.Draw(rt, fmt.Sprintf("level_%d", i)), msg)
			sent = append(sent, msg)
		}

		got := messages(l.GetLogs())
		want := sent[n-capacity:]
		if !reflect.DeepEqual(got, want) {
			rt.Errorf("GetLogs = %v, want %v", got, want)
		}
	})
}

// =============================================================================
// Property 2: Buffer Never Exceeds Capacity
// =============================================================================

// Feature: diaglog, Property 2: Buffer Never Exceeds Capacity
// *For any* interleaving of log, clear, start and end operations, the buffer
// length SHALL never exceed the configured capacity.
func TestProperty2_BufferNeverExceedsCapacity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(1, 8).Draw(rt, "capacity")
		l, err := NewLogger(debugConfig(capacity), Host{Console: &bytes.Buffer{}})
		if err != nil {
			rt.Fatalf("NewLogger: %v", err)
		}

		ops := rapid.IntRange(1, 60).Draw(rt, "ops")
		for i := 0; i < ops; i++ {
			switch rapid.IntRange(0, 3).Draw(rt, fmt.Sprintf("op_%d", i)) {
			case 0:
				logAt(l, levelGen.Draw(rt, fmt.Sprintf("level_%d", i)), "x")
			case 1:
				l.ClearLogs()
			case 2:
				l.StartPerformance("mark")
			case 3:
				l.EndPerformance("mark")
			}
			if n := len(l.GetLogs()); n > capacity {
				rt.Fatalf("buffer length %d exceeds capacity %d", n, capacity)
			}
		}
	})
}

// =============================================================================
// Property 3: Clear Leaves At Most The Notice
// =============================================================================

// Feature: diaglog, Property 3: Clear Leaves At Most The Notice
// *For any* prior history and any level threshold, ClearLogs SHALL leave zero
// entries or exactly one "Logs cleared" entry.
func TestProperty3_ClearLeavesAtMostNotice(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cfg := debugConfig(rapid.IntRange(1, 20).Draw(rt, "capacity"))
		cfg.Level = string(levelGen.Draw(rt, "threshold"))
		cfg.Storage = rapid.Bool().Draw(rt, "storage")
		l, err := NewLogger(cfg, Host{Console: &bytes.Buffer{}})
		if err != nil {
			rt.Fatalf("NewLogger: %v", err)
		}

		n := rapid.IntRange(0, 30).Draw(rt, "n")
		for i := 0; i < n; i++ {
			logAt(l, levelGen.Draw(rt, fmt.Sprintf("level_%d", i)), "x")
		}
		l.ClearLogs()

		logs := l.GetLogs()
		switch len(logs) {
		case 0:
		case 1:
			if logs[0].Message != "Logs cleared" {
				rt.Errorf("sole entry after clear = %q", logs[0].Message)
			}
		default:
			rt.Errorf("expected at most one entry after clear, got %d", len(logs))
		}
	})
}

// =============================================================================
// Property 4: Start Then End Yields Non-Negative Duration
// =============================================================================

// Feature: diaglog, Property 4: Start Then End Yields Non-Negative Duration
// *For any* label and elapsed time, StartPerformance followed by
// EndPerformance SHALL return the elapsed duration (never negative) and
// remove the mark.
func TestProperty4_StartEndDuration(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		label := rapid.StringMatching(`[a-z]{1,12}`).Draw(rt, "label")
		elapsed := time.Duration(rapid.Int64Range(0, int64(time.Hour)).Draw(rt, "elapsed"))

		clock := newFakeClock()
		l, err := NewLogger(models.DefaultLoggerConfig(), Host{Console: &bytes.Buffer{}, Clock: clock})
		if err != nil {
			rt.Fatalf("NewLogger: %v", err)
		}

		l.StartPerformance(label)
		clock.Advance(elapsed)
		d, ok := l.EndPerformance(label)

		if !ok {
			rt.Fatal("expected mark to exist")
		}
		if d < 0 || d != elapsed {
			rt.Errorf("duration = %v, want %v", d, elapsed)
		}
		if len(l.PendingMarks()) != 0 {
			rt.Errorf("mark %q not removed", label)
		}
	})
}

// =============================================================================
// Property 5: Ending An Unknown Label Is A No-Op
// =============================================================================

// Feature: diaglog, Property 5: Ending An Unknown Label Is A No-Op
// *For any* history, EndPerformance on a label that was never started SHALL
// return false and leave the buffer unchanged.
func TestProperty5_EndUnknownLabelIsNoOp(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		l, err := NewLogger(debugConfig(50), Host{Console: &bytes.Buffer{}})
		if err != nil {
			rt.Fatalf("NewLogger: %v", err)
		}
		n := rapid.IntRange(0, 20).Draw(rt, "n")
		for i := 0; i < n; i++ {
			logAt(l, levelGen.Draw(rt, fmt.Sprintf("level_%d", i)), "x")
		}
		before := l.GetLogs()

		d, ok := l.EndPerformance("never-started")

		if ok || d != 0 {
			rt.Errorf("EndPerformance = %v, %v; want 0, false", d, ok)
		}
		if after := l.GetLogs(); !reflect.DeepEqual(before, after) {
			rt.Errorf("buffer changed: %d -> %d entries", len(before), len(after))
		}
	})
}

// =============================================================================
// Property 6: Export Matches Buffer
// =============================================================================

// Feature: diaglog, Property 6: Export Matches Buffer
// *For any* buffer contents, the exported document SHALL parse as a JSON
// array with the buffer's length and entries, field for field.
func TestProperty6_ExportMatchesBuffer(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		dl := &recordingDownloader{}
		l, err := NewLogger(debugConfig(rapid.IntRange(1, 30).Draw(rt, "capacity")), Host{
			Console:    &bytes.Buffer{},
			Downloader: dl,
			Env:        StaticEnvironment{Agent: "agent", URL: "https://example.test/"},
		})
		if err != nil {
			rt.Fatalf("NewLogger: %v", err)
		}

		n := rapid.IntRange(0, 40).Draw(rt, "n")
		for i := 0; i < n; i++ {
			msg := rapid.StringMatching(`[a-zA-Z0-9 .,:;!?<>&"-]{0,40}`).Draw(rt, fmt.Sprintf("msg_%d", i))
			logAt(l, levelGen.Draw(rt, fmt.Sprintf("level_%d", i)), msg)
		}
		before := l.GetLogs()

		if _, err := l.ExportLogs(); err != nil {
			rt.Fatalf("ExportLogs: %v", err)
		}

		var exported []models.LogEntry
		if err := json.Unmarshal(dl.data, &exported); err != nil {
			rt.Fatalf("export is not valid JSON: %v", err)
		}
		if len(exported) != len(before) {
			rt.Fatalf("exported %d entries, buffer had %d", len(exported), len(before))
		}
		for i := range before {
			if exported[i] != before[i] {
				rt.Errorf("entry %d differs: got %+v, want %+v", i, exported[i], before[i])
			}
		}
	})
}

// =============================================================================
// Property 7: Disabled Logger Has No Effects
// =============================================================================

// Feature: diaglog, Property 7: Disabled Logger Has No Effects
// *For any* sequence of calls on a disabled logger, buffer length, storage
// contents and console output SHALL stay unchanged.
func TestProperty7_DisabledLoggerHasNoEffects(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		console := &bytes.Buffer{}
		store := storage.NewMemoryStore(0)
		cfg := debugConfig(10)
		cfg.Enabled = false
		cfg.Storage = true
		l, err := NewLogger(cfg, Host{Console: console, Store: store})
		if err != nil {
			rt.Fatalf("NewLogger: %v", err)
		}

		ops := rapid.IntRange(1, 30).Draw(rt, "ops")
		for i := 0; i < ops; i++ {
			switch rapid.IntRange(0, 3).Draw(rt, fmt.Sprintf("op_%d", i)) {
			case 0:
				logAt(l, levelGen.Draw(rt, fmt.Sprintf("level_%d", i)), "x")
			case 1:
				l.ClearLogs()
			case 2:
				l.StartPerformance("p")
			case 3:
				l.EndPerformance("p")
			}
		}

		if n := len(l.GetLogs()); n != 0 {
			rt.Errorf("buffer has %d entries", n)
		}
		if _, ok, _ := store.Get(StorageKey); ok {
			rt.Error("storage was written")
		}
		if console.Len() != 0 {
			rt.Errorf("console output %q", console.String())
		}
	})
}

// =============================================================================
// Property 8: Level Threshold Filters Entries
// =============================================================================

// Feature: diaglog, Property 8: Level Threshold Filters Entries
// *For any* threshold, every recorded entry SHALL be at or above it and every
// call at or above it SHALL be recorded.
func TestProperty8_LevelThresholdFilters(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		threshold := levelGen.Draw(rt, "threshold")
		cfg := debugConfig(100)
		cfg.Level = string(threshold)
		l, err := NewLogger(cfg, Host{Console: &bytes.Buffer{}})
		if err != nil {
			rt.Fatalf("NewLogger: %v", err)
		}

		n := rapid.IntRange(0, 50).Draw(rt, "n")
		want := 0
		for i := 0; i < n; i++ {
			lvl := levelGen.Draw(rt, fmt.Sprintf("level_%d", i))
			if lvl.AtLeast(threshold) {
				want++
			}
			logAt(l, lvl, "x")
		}

		logs := l.GetLogs()
		if len(logs) != want {
			rt.Errorf("recorded %d entries, want %d", len(logs), want)
		}
		for _, e := range logs {
			if !e.Level.AtLeast(threshold) {
				rt.Errorf("entry at %s recorded below threshold %s", e.Level, threshold)
			}
		}
	})
}
