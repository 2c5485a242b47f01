// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the sitekit diagnostic logger as MCP tools, so an assistant can record,
// inspect, clear and export entries while a page is being worked on.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/sitekit/internal/diaglog"
	"github.com/valter-silva-au/sitekit/internal/observability"
	"github.com/valter-silva-au/sitekit/pkg/models"
)

// Server wraps sitekit services and exposes them as MCP tools.
type Server struct {
	server    *gomcp.Server
	logger    diaglog.Logger
	statsCalc observability.StatsCalculator
}

// NewServer creates a new MCP server over logger. statsCalc may be nil if the
// history file is disabled.
func NewServer(logger diaglog.Logger, statsCalc observability.StatsCalculator, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		logger:    logger,
		statsCalc: statsCalc,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "sitekit", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type logEntryInput struct {
	Level   string `json:"level" jsonschema:"required,severity of the entry (debug, info, success, warn, error)"`
	Message string `json:"message" jsonschema:"required,the log message"`
	Data    any    `json:"data,omitempty" jsonschema:"optional structured payload attached to the entry"`
}

type logEntryOutput struct {
	Message  string `json:"message"`
	Buffered int    `json:"buffered"`
}

type getLogsInput struct {
	Level string `json:"level,omitempty" jsonschema:"only return entries at or above this severity"`
	Limit int    `json:"limit,omitempty" jsonschema:"return at most this many of the newest entries"`
}

// Entries use the same JSON form as the persisted and exported logs.
type getLogsOutput struct {
	Entries []models.LogEntry `json:"entries"`
	Count   int               `json:"count"`
}

type clearLogsInput struct{}

type clearLogsOutput struct {
	Message string `json:"message"`
	Removed int    `json:"removed"`
}

type exportLogsInput struct{}

type exportLogsOutput struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

type getStatsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for stats (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type statsOutput struct {
	EntryCount   int            `json:"entry_count"`
	ByLevel      map[string]int `json:"by_level"`
	Measurements int            `json:"measurements"`
	AverageMs    float64        `json:"average_ms"`
	MaxMs        float64        `json:"max_ms"`
	SlowestLabel string         `json:"slowest_label,omitempty"`
	OldestEntry  string         `json:"oldest_entry,omitempty"`
	NewestEntry  string         `json:"newest_entry,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "log_entry",
		Description: "Record a diagnostic entry at the given level. Entries below the configured minimum level are dropped.",
	}, s.handleLogEntry)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_logs",
		Description: "Return the buffered diagnostic entries, oldest first, with optional level and count limits.",
	}, s.handleGetLogs)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "clear_logs",
		Description: "Empty the diagnostic buffer and its persisted copy.",
	}, s.handleClearLogs)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "export_logs",
		Description: "Export the diagnostic buffer as an indented JSON document and return where it was written.",
	}, s.handleExportLogs)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_stats",
		Description: "Get aggregated statistics from the entry history, including counts per level and performance timings.",
	}, s.handleGetStats)
}

// --- Tool handlers ---

func (s *Server) handleLogEntry(_ context.Context, _ *gomcp.CallToolRequest, input logEntryInput) (*gomcp.CallToolResult, logEntryOutput, error) {
	level, err := models.ParseLevel(input.Level)
	if err != nil {
		return errorResult(err.Error()), logEntryOutput{}, nil
	}

	var data []any
	if input.Data != nil {
		data = []any{input.Data}
	}
	if err := diaglog.LogAt(s.logger, level, input.Message, data...); err != nil {
		return errorResult(err.Error()), logEntryOutput{}, nil
	}

	out := logEntryOutput{
		Message:  fmt.Sprintf("%s entry recorded", level),
		Buffered: len(s.logger.GetLogs()),
	}
	return nil, out, nil
}

func (s *Server) handleGetLogs(_ context.Context, _ *gomcp.CallToolRequest, input getLogsInput) (*gomcp.CallToolResult, getLogsOutput, error) {
	minLevel := models.LevelDebug
	if input.Level != "" {
		level, err := models.ParseLevel(input.Level)
		if err != nil {
			return errorResult(err.Error()), getLogsOutput{}, nil
		}
		minLevel = level
	}
	if input.Limit < 0 {
		return errorResult(fmt.Sprintf("limit must be non-negative, got %d", input.Limit)), getLogsOutput{}, nil
	}

	entries := make([]models.LogEntry, 0)
	for _, e := range s.logger.GetLogs() {
		if e.Level.AtLeast(minLevel) {
			entries = append(entries, e)
		}
	}
	if input.Limit > 0 && len(entries) > input.Limit {
		entries = entries[len(entries)-input.Limit:]
	}

	return nil, getLogsOutput{Entries: entries, Count: len(entries)}, nil
}

func (s *Server) handleClearLogs(_ context.Context, _ *gomcp.CallToolRequest, _ clearLogsInput) (*gomcp.CallToolResult, clearLogsOutput, error) {
	removed := len(s.logger.GetLogs())
	s.logger.ClearLogs()
	out := clearLogsOutput{
		Message: "logs cleared",
		Removed: removed,
	}
	return nil, out, nil
}

func (s *Server) handleExportLogs(_ context.Context, _ *gomcp.CallToolRequest, _ exportLogsInput) (*gomcp.CallToolResult, exportLogsOutput, error) {
	count := len(s.logger.GetLogs())
	location, err := s.logger.ExportLogs()
	if err != nil {
		return errorResult(fmt.Sprintf("exporting logs: %s", err)), exportLogsOutput{}, nil
	}
	return nil, exportLogsOutput{Location: location, Count: count}, nil
}

func (s *Server) handleGetStats(_ context.Context, _ *gomcp.CallToolRequest, input getStatsInput) (*gomcp.CallToolResult, statsOutput, error) {
	if s.statsCalc == nil {
		return errorResult("stats calculator not available (history may be disabled)"), emptyStatsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := observability.ParseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyStatsOutput(), nil
	}

	stats, err := s.statsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating stats: %s", err)), emptyStatsOutput(), nil
	}

	out := statsOutput{
		EntryCount:   stats.EntryCount,
		ByLevel:      stats.ByLevel,
		Measurements: stats.Measurements,
		AverageMs:    stats.AverageMs,
		MaxMs:        stats.MaxMs,
		SlowestLabel: stats.SlowestLabel,
	}
	if out.ByLevel == nil {
		out.ByLevel = make(map[string]int)
	}
	if stats.OldestEntry != nil {
		out.OldestEntry = stats.OldestEntry.Format(time.RFC3339)
	}
	if stats.NewestEntry != nil {
		out.NewestEntry = stats.NewestEntry.Format(time.RFC3339)
	}

	return nil, out, nil
}

// --- Helpers ---

func emptyStatsOutput() statsOutput {
	return statsOutput{ByLevel: make(map[string]int)}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
