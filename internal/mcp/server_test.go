package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/sitekit/internal/diaglog"
	"github.com/valter-silva-au/sitekit/internal/observability"
	"github.com/valter-silva-au/sitekit/pkg/models"
)

// --- Fake implementations ---

type fakeDownloader struct {
	offered map[string][]byte
	err     error
}

func (f *fakeDownloader) Offer(filename string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.offered == nil {
		f.offered = make(map[string][]byte)
	}
	f.offered[filename] = data
	return "/downloads/" + filename, nil
}

type fakeStatsCalculator struct {
	stats *observability.Stats
	err   error
}

func (f *fakeStatsCalculator) Calculate(_ time.Time) (*observability.Stats, error) {
	return f.stats, f.err
}

// --- Test helpers ---

func newTestLogger(t *testing.T, dl *fakeDownloader) diaglog.Logger {
	t.Helper()
	cfg := models.DefaultLoggerConfig()
	cfg.Level = "debug"
	if dl == nil {
		dl = &fakeDownloader{}
	}
	logger, err := diaglog.NewLogger(cfg, diaglog.Host{
		Console:    &bytes.Buffer{},
		Env:        diaglog.StaticEnvironment{Agent: "test-agent", URL: "http://localhost/"},
		Downloader: dl,
	})
	if err != nil {
		t.Fatalf("creating logger: %v", err)
	}
	return logger
}

// connect starts srv on an in-memory transport and returns a client session.
func connect(t *testing.T, srv *Server) *gomcp.ClientSession {
	t.Helper()

	ctx := context.Background()
	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	t1, t2 := gomcp.NewInMemoryTransports()

	// Connect server (non-blocking).
	go func() {
		_ = srv.MCPServer().Run(ctx, t1)
	}()

	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

// callTool is a helper that connects a client to the server and calls a tool.
func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()
	return callOn(t, connect(t, srv), toolName, args)
}

func callOn(t *testing.T, session *gomcp.ClientSession, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()
	result, err := session.CallTool(context.Background(), &gomcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call tool %s: %v", toolName, err)
	}
	return result
}

// decode reads the tool output from the text content, falling back to the
// structured content.
func decode(t *testing.T, result *gomcp.CallToolResult, out any) {
	t.Helper()
	text := extractText(result)
	if err := json.Unmarshal([]byte(text), out); err == nil {
		return
	}
	if result.StructuredContent == nil {
		t.Fatalf("no decodable output (text was: %s)", text)
	}
	data, _ := json.Marshal(result.StructuredContent)
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshalling structured output: %v", err)
	}
}

// --- Tests ---

func TestLogEntry(t *testing.T) {
	logger := newTestLogger(t, nil)
	srv := NewServer(logger, nil, "test")

	result := callTool(t, srv, "log_entry", map[string]any{
		"level":   "warn",
		"message": "Slow image",
		"data":    map[string]any{"src": "hero.jpg"},
	})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out logEntryOutput
	decode(t, result, &out)
	if out.Buffered != 1 {
		t.Errorf("expected 1 buffered entry, got %d", out.Buffered)
	}

	logs := logger.GetLogs()
	if len(logs) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(logs))
	}
	if logs[0].Level != models.LevelWarn || logs[0].Message != "Slow image" {
		t.Errorf("unexpected entry %+v", logs[0])
	}
	data, ok := logs[0].Data.(map[string]any)
	if !ok || data["src"] != "hero.jpg" {
		t.Errorf("expected data payload, got %#v", logs[0].Data)
	}
}

func TestLogEntryInvalidLevel(t *testing.T) {
	logger := newTestLogger(t, nil)
	srv := NewServer(logger, nil, "test")

	result := callTool(t, srv, "log_entry", map[string]any{"level": "loud", "message": "x"})
	if !result.IsError {
		t.Fatal("expected error result for unknown level")
	}
	if len(logger.GetLogs()) != 0 {
		t.Error("no entry should be recorded for an unknown level")
	}
}

func TestLogEntryEmptyMessageRecorded(t *testing.T) {
	logger := newTestLogger(t, nil)
	srv := NewServer(logger, nil, "test")

	result := callTool(t, srv, "log_entry", map[string]any{"level": "info", "message": ""})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}
	logs := logger.GetLogs()
	if len(logs) != 1 || logs[0].Message != "" {
		t.Errorf("expected one entry with an empty message, got %+v", logs)
	}
}

func TestGetLogsUsesExportFieldNames(t *testing.T) {
	logger := newTestLogger(t, nil)
	logger.Info("hello")
	srv := NewServer(logger, nil, "test")

	var out struct {
		Entries []map[string]any `json:"entries"`
	}
	decode(t, callTool(t, srv, "get_logs", map[string]any{}), &out)
	if len(out.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(out.Entries))
	}
	if out.Entries[0]["userAgent"] != "test-agent" {
		t.Errorf("expected userAgent key, got %v", out.Entries[0])
	}
	if _, ok := out.Entries[0]["user_agent"]; ok {
		t.Error("entries should not use the user_agent key")
	}
}

func TestGetLogsFiltersAndLimits(t *testing.T) {
	logger := newTestLogger(t, nil)
	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")
	srv := NewServer(logger, nil, "test")
	session := connect(t, srv)

	var all getLogsOutput
	decode(t, callOn(t, session, "get_logs", map[string]any{}), &all)
	if all.Count != 4 || all.Entries[0].Message != "d" || all.Entries[0].UserAgent != "test-agent" {
		t.Errorf("unexpected full listing %+v", all)
	}

	var warned getLogsOutput
	decode(t, callOn(t, session, "get_logs", map[string]any{"level": "warn"}), &warned)
	if warned.Count != 2 || warned.Entries[0].Message != "w" || warned.Entries[1].Message != "e" {
		t.Errorf("level filter returned %+v", warned)
	}

	var newest getLogsOutput
	decode(t, callOn(t, session, "get_logs", map[string]any{"limit": 1}), &newest)
	if newest.Count != 1 || newest.Entries[0].Message != "e" {
		t.Errorf("limit returned %+v", newest)
	}

	if r := callOn(t, session, "get_logs", map[string]any{"level": "nope"}); !r.IsError {
		t.Error("expected error for unknown level filter")
	}
}

func TestClearLogs(t *testing.T) {
	logger := newTestLogger(t, nil)
	logger.Info("one")
	logger.Info("two")
	srv := NewServer(logger, nil, "test")

	result := callTool(t, srv, "clear_logs", map[string]any{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}
	var out clearLogsOutput
	decode(t, result, &out)
	if out.Removed != 2 {
		t.Errorf("expected 2 removed, got %d", out.Removed)
	}

	logs := logger.GetLogs()
	if len(logs) != 1 || logs[0].Message != "Logs cleared" {
		t.Errorf("expected only the clear notice, got %+v", logs)
	}
}

func TestExportLogs(t *testing.T) {
	dl := &fakeDownloader{}
	logger := newTestLogger(t, dl)
	logger.Info("exported entry")
	srv := NewServer(logger, nil, "test")

	result := callTool(t, srv, "export_logs", map[string]any{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}
	var out exportLogsOutput
	decode(t, result, &out)
	if out.Count != 1 {
		t.Errorf("expected count 1, got %d", out.Count)
	}
	if len(dl.offered) != 1 {
		t.Fatalf("expected one offered file, got %d", len(dl.offered))
	}
	for name := range dl.offered {
		if out.Location != "/downloads/"+name {
			t.Errorf("Location = %q, want /downloads/%s", out.Location, name)
		}
	}
}

func TestExportLogsFailure(t *testing.T) {
	dl := &fakeDownloader{err: errors.New("disk full")}
	srv := NewServer(newTestLogger(t, dl), nil, "test")

	result := callTool(t, srv, "export_logs", map[string]any{})
	if !result.IsError {
		t.Fatal("expected error result when the download sink fails")
	}
}

func TestGetStats(t *testing.T) {
	oldest := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	newest := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	calc := &fakeStatsCalculator{stats: &observability.Stats{
		EntryCount:   12,
		ByLevel:      map[string]int{"info": 10, "error": 2},
		Measurements: 3,
		AverageMs:    42.5,
		MaxMs:        90,
		SlowestLabel: "gallery",
		OldestEntry:  &oldest,
		NewestEntry:  &newest,
	}}
	srv := NewServer(newTestLogger(t, nil), calc, "test")

	result := callTool(t, srv, "get_stats", map[string]any{"since": "30d"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out statsOutput
	decode(t, result, &out)
	if out.EntryCount != 12 || out.ByLevel["error"] != 2 {
		t.Errorf("unexpected stats %+v", out)
	}
	if out.SlowestLabel != "gallery" || out.MaxMs != 90 {
		t.Errorf("unexpected timing stats %+v", out)
	}
	if out.OldestEntry != "2026-03-01T08:00:00Z" {
		t.Errorf("OldestEntry = %q", out.OldestEntry)
	}
}

func TestGetStatsDisabled(t *testing.T) {
	srv := NewServer(newTestLogger(t, nil), nil, "test")

	result := callTool(t, srv, "get_stats", map[string]any{})
	if !result.IsError {
		t.Fatal("expected error when stats calculator is nil")
	}
	if extractText(result) == "" {
		t.Fatal("expected error message in result content")
	}
}

func TestGetStatsBadSince(t *testing.T) {
	calc := &fakeStatsCalculator{stats: &observability.Stats{}}
	srv := NewServer(newTestLogger(t, nil), calc, "test")

	if result := callTool(t, srv, "get_stats", map[string]any{"since": "soon"}); !result.IsError {
		t.Fatal("expected error for invalid since")
	}
}

// extractText extracts the text from the first TextContent in a CallToolResult.
func extractText(result *gomcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*gomcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
