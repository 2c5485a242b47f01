package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownLevel is returned when a level name is not one of the known
// severities.
var ErrUnknownLevel = errors.New("unknown log level")

// Level is the severity of a log entry.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
	LevelSuccess Level = "success"
)

// AllLevels lists every severity in display order.
var AllLevels = []Level{LevelDebug, LevelInfo, LevelSuccess, LevelWarn, LevelError}

// levelRank orders severities for minimum-level filtering. Success is a
// positive-outcome notice and ranks alongside info.
var levelRank = map[Level]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelSuccess: 1,
	LevelWarn:    2,
	LevelError:   3,
}

// ParseLevel converts a case-insensitive level name into a Level.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := levelRank[l]; !ok {
		return "", fmt.Errorf("%w %q: must be one of debug, info, success, warn, error", ErrUnknownLevel, s)
	}
	return l, nil
}

// Valid reports whether l is one of the known severities.
func (l Level) Valid() bool {
	_, ok := levelRank[l]
	return ok
}

// AtLeast reports whether l is as severe as min or more.
func (l Level) AtLeast(min Level) bool {
	return levelRank[l] >= levelRank[min]
}

// LogEntry is one recorded diagnostic event. Entries are values and are never
// modified after creation.
type LogEntry struct {
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Level     Level  `json:"level" yaml:"level"`
	Message   string `json:"message" yaml:"message"`
	Data      any    `json:"data" yaml:"data,omitempty"`
	UserAgent string `json:"userAgent" yaml:"user_agent"`
	URL       string `json:"url" yaml:"url"`
}
