package observability

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/valter-silva-au/sitekit/pkg/models"
	"gopkg.in/natefinch/lumberjack.v2"
)

// EntryFilter specifies criteria for reading history entries.
type EntryFilter struct {
	Since *time.Time
	Until *time.Time
	Level models.Level
	Grep  string
}

// EntryLog defines the interface for appending and reading log history.
type EntryLog interface {
	Write(entry models.LogEntry) error
	Read(filter EntryFilter) ([]models.LogEntry, error)
	Close() error
}

// jsonlEntryLog implements EntryLog with a JSONL file rotated by lumberjack.
type jsonlEntryLog struct {
	path string
	out  *lumberjack.Logger
	mu   sync.Mutex
}

// NewJSONLEntryLog creates an EntryLog writing to cfg.Path. The file rotates
// once it reaches cfg.MaxSizeMB, keeping cfg.MaxBackups old files for at most
// cfg.MaxAgeDays.
func NewJSONLEntryLog(cfg models.HistoryConfig) (EntryLog, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("opening entry log: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("opening entry log: creating directory: %w", err)
	}
	return &jsonlEntryLog{
		path: cfg.Path,
		out: &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		},
	}, nil
}

// Write appends a JSON-encoded entry followed by a newline.
func (l *jsonlEntryLog) Write(entry models.LogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshalling entry: %w", err)
	}
	data = append(data, '\n')

	if _, err := l.out.Write(data); err != nil {
		return fmt.Errorf("writing entry: %w", err)
	}
	return nil
}

// Read scans the active history file and returns the entries matching
// filter. Rotated backups are not read.
func (l *jsonlEntryLog) Read(filter EntryFilter) ([]models.LogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening entry log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var entries []models.LogEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry models.LogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue // skip malformed lines
		}

		if matchesEntryFilter(entry, filter) {
			entries = append(entries, entry)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning entry log: %w", err)
	}

	return entries, nil
}

// Close closes the underlying rotating writer.
func (l *jsonlEntryLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.out.Close(); err != nil {
		return fmt.Errorf("closing entry log: %w", err)
	}
	return nil
}

// EntryTime parses an entry's ISO-8601 timestamp.
func EntryTime(e models.LogEntry) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// matchesEntryFilter checks whether an entry satisfies all filter criteria.
// Entries with unparseable timestamps never match a time bound.
func matchesEntryFilter(e models.LogEntry, filter EntryFilter) bool {
	if filter.Since != nil || filter.Until != nil {
		t, ok := EntryTime(e)
		if !ok {
			return false
		}
		if filter.Since != nil && t.Before(*filter.Since) {
			return false
		}
		if filter.Until != nil && t.After(*filter.Until) {
			return false
		}
	}
	if filter.Level != "" && e.Level != filter.Level {
		return false
	}
	if filter.Grep != "" && !strings.Contains(strings.ToLower(e.Message), strings.ToLower(filter.Grep)) {
		return false
	}
	return true
}
