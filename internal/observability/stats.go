package observability

import (
	"fmt"
	"math"
	"time"
)

// Stats holds figures derived from the entry history.
type Stats struct {
	EntryCount   int            `json:"entry_count"`
	ByLevel      map[string]int `json:"by_level"`
	Measurements int            `json:"measurements"`
	AverageMs    float64        `json:"average_ms"`
	MaxMs        float64        `json:"max_ms"`
	SlowestLabel string         `json:"slowest_label,omitempty"`
	OldestEntry  *time.Time     `json:"oldest_entry,omitempty"`
	NewestEntry  *time.Time     `json:"newest_entry,omitempty"`
}

// StatsCalculator derives statistics from the entry history.
type StatsCalculator interface {
	Calculate(since time.Time) (*Stats, error)
}

type statsCalculator struct {
	entryLog EntryLog
}

// NewStatsCalculator creates a StatsCalculator that reads from entryLog.
func NewStatsCalculator(entryLog EntryLog) StatsCalculator {
	return &statsCalculator{entryLog: entryLog}
}

// Calculate reads all entries since the given time and aggregates them.
// Performance measurements are entries whose data carries a numeric
// durationMs field.
func (sc *statsCalculator) Calculate(since time.Time) (*Stats, error) {
	entries, err := sc.entryLog.Read(EntryFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading entries for stats: %w", err)
	}

	s := &Stats{ByLevel: make(map[string]int)}
	s.EntryCount = len(entries)

	var total float64
	for _, e := range entries {
		if t, ok := EntryTime(e); ok {
			if s.OldestEntry == nil {
				s.OldestEntry = &t
			}
			s.NewestEntry = &t
		}
		s.ByLevel[string(e.Level)]++

		ms, label, ok := measurement(e.Data)
		if !ok {
			continue
		}
		s.Measurements++
		total += ms
		if ms >= s.MaxMs {
			s.MaxMs = ms
			s.SlowestLabel = label
		}
	}

	if s.Measurements > 0 {
		s.AverageMs = math.Round(total/float64(s.Measurements)*100) / 100
	}
	return s, nil
}

func measurement(data any) (float64, string, bool) {
	m, ok := data.(map[string]any)
	if !ok {
		return 0, "", false
	}
	ms, ok := m["durationMs"].(float64)
	if !ok {
		return 0, "", false
	}
	label, _ := m["label"].(string)
	return ms, label, true
}
