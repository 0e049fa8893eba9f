package service

import (
	"fmt"
	"sync"
	"time"
)

// SlateMetrics tracks the outcome of one slate build
type SlateMetrics struct {
	mu             sync.RWMutex
	StartTime      time.Time
	Duration       time.Duration
	TotalGames     int
	Predicted      int
	StatsFallbacks int
	UnknownTeams   int
	Errors         int
}

// NewSlateMetrics creates a new metrics tracker
func NewSlateMetrics() *SlateMetrics {
	return &SlateMetrics{
		StartTime: time.Now(),
	}
}

// RecordGame increments the scheduled game count
func (m *SlateMetrics) RecordGame() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalGames++
}

// RecordPredicted increments the resolved game count
func (m *SlateMetrics) RecordPredicted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Predicted++
}

// RecordStatsFallback increments the count of games predicted on neutral stats
func (m *SlateMetrics) RecordStatsFallback() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatsFallbacks++
}

// RecordUnknownTeam increments the count of games naming an unregistered team
func (m *SlateMetrics) RecordUnknownTeam() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UnknownTeams++
}

// RecordError increments error count
func (m *SlateMetrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors++
}

// Finish stamps the build duration
func (m *SlateMetrics) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Duration = time.Since(m.StartTime)
}

// Snapshot returns a copy of the counters
func (m *SlateMetrics) Snapshot() SlateMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return SlateMetrics{
		StartTime:      m.StartTime,
		Duration:       m.Duration,
		TotalGames:     m.TotalGames,
		Predicted:      m.Predicted,
		StatsFallbacks: m.StatsFallbacks,
		UnknownTeams:   m.UnknownTeams,
		Errors:         m.Errors,
	}
}

// String returns a formatted string representation of metrics
func (m *SlateMetrics) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	successRate := float64(0)
	if m.TotalGames > 0 {
		successRate = float64(m.Predicted) / float64(m.TotalGames) * 100
	}

	return fmt.Sprintf(
		"SlateMetrics{Games=%d, Predicted=%d (%.1f%%), Fallbacks=%d, UnknownTeams=%d, Errors=%d, Duration=%v}",
		m.TotalGames,
		m.Predicted,
		successRate,
		m.StatsFallbacks,
		m.UnknownTeams,
		m.Errors,
		m.Duration,
	)
}
