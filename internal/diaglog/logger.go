// Package diaglog implements the site's diagnostic logger: leveled entries
// retained in a bounded ring buffer, optionally mirrored to a key-value store,
// echoed to a styled console stream, with labelled performance timing and
// JSON export.
package diaglog

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/valter-silva-au/sitekit/pkg/models"
)

// StorageKey is the store key under which the buffer is mirrored.
const StorageKey = "sitekit_logs"

// timestampLayout matches the ISO-8601 form produced by JavaScript's
// Date.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// Logger is the diagnostic sink shared by the site behaviors.
type Logger interface {
	Debug(message string, data ...any)
	Info(message string, data ...any)
	Warn(message string, data ...any)
	Error(message string, data ...any)
	Success(message string, data ...any)

	StartPerformance(label string)
	EndPerformance(label string) (time.Duration, bool)
	PendingMarks() []string

	GetLogs() []models.LogEntry
	ClearLogs()
	ExportLogs() (string, error)
	Restore() error
}

type logger struct {
	cfg      models.LoggerConfig
	minLevel models.Level
	host     Host
	console  *consoleWriter

	mu    sync.Mutex
	buf   *ringBuffer
	marks map[string]time.Time
}

// NewLogger creates a Logger from cfg. MaxLogs values of zero or less fall
// back to the default capacity. The level setting is a minimum severity:
// entries below it are dropped entirely.
func NewLogger(cfg models.LoggerConfig, host Host) (Logger, error) {
	if cfg.Level == "" {
		cfg.Level = string(models.LevelInfo)
	}
	level, err := models.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	if cfg.MaxLogs <= 0 {
		cfg.MaxLogs = models.DefaultLoggerConfig().MaxLogs
	}
	host = host.withDefaults()

	return &logger{
		cfg:      cfg,
		minLevel: level,
		host:     host,
		console:  newConsoleWriter(host.Console, cfg.Prefix),
		buf:      newRingBuffer(cfg.MaxLogs),
		marks:    make(map[string]time.Time),
	}, nil
}

func (l *logger) Debug(message string, data ...any)   { l.log(models.LevelDebug, message, data) }
func (l *logger) Info(message string, data ...any)    { l.log(models.LevelInfo, message, data) }
func (l *logger) Warn(message string, data ...any)    { l.log(models.LevelWarn, message, data) }
func (l *logger) Error(message string, data ...any)   { l.log(models.LevelError, message, data) }
func (l *logger) Success(message string, data ...any) { l.log(models.LevelSuccess, message, data) }

// LogAt records message through the Logger method matching level.
func LogAt(l Logger, level models.Level, message string, data ...any) error {
	switch level {
	case models.LevelDebug:
		l.Debug(message, data...)
	case models.LevelInfo:
		l.Info(message, data...)
	case models.LevelWarn:
		l.Warn(message, data...)
	case models.LevelError:
		l.Error(message, data...)
	case models.LevelSuccess:
		l.Success(message, data...)
	default:
		return fmt.Errorf("%w: %q", models.ErrUnknownLevel, level)
	}
	return nil
}

func (l *logger) log(level models.Level, message string, data []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record(level, message, payload(data))
}

// payload collapses the variadic data argument into the entry's data field.
func payload(data []any) any {
	switch len(data) {
	case 0:
		return nil
	case 1:
		return data[0]
	default:
		return append([]any(nil), data...)
	}
}

// normalizeData returns data in the form it takes after a JSON round trip,
// which detaches it from the caller's maps and slices. Values JSON cannot
// encode (NaN, channels, funcs) are kept as their %v text so the buffer
// always encodes.
func normalizeData(data any) any {
	if data == nil {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Sprintf("%v", data)
	}
	return out
}

// record appends an entry and fans it out. l.mu must be held.
func (l *logger) record(level models.Level, message string, data any) {
	if !l.cfg.Enabled || !level.AtLeast(l.minLevel) {
		return
	}

	entry := models.LogEntry{
		Timestamp: l.host.Clock.Now().UTC().Format(timestampLayout),
		Level:     level,
		Message:   message,
		Data:      normalizeData(data),
		UserAgent: l.host.Env.UserAgent(),
		URL:       l.host.Env.Location(),
	}
	l.buf.push(entry)

	if l.cfg.Storage {
		l.persist()
	}
	if l.cfg.Console {
		l.console.write(entry)
	}
	for _, s := range l.host.Sinks {
		if err := s.Write(entry); err != nil {
			l.console.warn("Failed to write log history", err)
		}
	}
}

// persist mirrors the whole buffer to the store. Failures only produce a
// console warning; the in-memory entry stays. l.mu must be held.
func (l *logger) persist() {
	data, err := json.Marshal(l.buf.snapshot())
	if err != nil {
		l.console.warn("Failed to save logs to storage", err)
		return
	}
	if err := l.host.Store.Set(StorageKey, string(data)); err != nil {
		l.console.warn("Failed to save logs to storage", err)
	}
}

// StartPerformance records the current time under label, replacing any
// active mark with the same label.
func (l *logger) StartPerformance(label string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.marks[label] = l.host.Clock.Now()
	l.record(models.LevelDebug, "Performance mark started: "+label, nil)
}

// EndPerformance returns the time elapsed since StartPerformance(label) and
// removes the mark. The boolean is false when no mark exists for label, in
// which case nothing is logged.
func (l *logger) EndPerformance(label string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start, ok := l.marks[label]
	if !ok {
		return 0, false
	}
	elapsed := l.host.Clock.Now().Sub(start)
	if elapsed < 0 {
		elapsed = 0
	}
	delete(l.marks, label)

	ms := roundMillis(elapsed)
	l.record(models.LevelInfo, fmt.Sprintf("%s: %.2fms", label, ms), map[string]any{
		"label":      label,
		"durationMs": ms,
	})
	return elapsed, true
}

// roundMillis converts d to milliseconds rounded to two decimal places.
func roundMillis(d time.Duration) float64 {
	ms := float64(d) / float64(time.Millisecond)
	return math.Round(ms*100) / 100
}

// PendingMarks returns the labels of active performance marks, sorted.
func (l *logger) PendingMarks() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	labels := make([]string, 0, len(l.marks))
	for label := range l.marks {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// GetLogs returns a copy of the buffer, oldest first.
func (l *logger) GetLogs() []models.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.snapshot()
}

// ClearLogs empties the buffer and the persisted copy, then records a notice
// that becomes the buffer's only entry.
func (l *logger) ClearLogs() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf.reset()
	if l.cfg.Storage {
		if err := l.host.Store.Remove(StorageKey); err != nil {
			l.console.warn("Failed to remove stored logs", err)
		}
	}
	l.record(models.LevelInfo, "Logs cleared", nil)
}

// ExportLogs hands the buffer to the downloader as an indented JSON array and
// returns the location reported by the downloader.
func (l *logger) ExportLogs() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.MarshalIndent(l.buf.snapshot(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding logs for export: %w", err)
	}

	name := exportFileName(l.host.Clock.Now())
	location, err := l.host.Downloader.Offer(name, data)
	if err != nil {
		return "", fmt.Errorf("exporting logs: %w", err)
	}

	l.record(models.LevelSuccess, "Logs exported", map[string]any{"file": name})
	return location, nil
}

func exportFileName(now time.Time) string {
	ts := strings.ReplaceAll(now.UTC().Format(timestampLayout), ":", "-")
	return "sitekit-logs-" + ts + ".json"
}

// Restore replaces the buffer with the persisted copy, keeping the newest
// entries when the stored array is larger than the buffer. A missing key
// leaves the buffer untouched.
func (l *logger) Restore() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	raw, ok, err := l.host.Store.Get(StorageKey)
	if err != nil {
		return fmt.Errorf("reading stored logs: %w", err)
	}
	if !ok {
		return nil
	}

	var entries []models.LogEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return fmt.Errorf("decoding stored logs: %w", err)
	}
	if n := l.buf.capacity(); len(entries) > n {
		entries = entries[len(entries)-n:]
	}

	l.buf.reset()
	for _, e := range entries {
		l.buf.push(e)
	}
	return nil
}
