package service

import (
	"fmt"
	"sync"
	"time"
)

// IngestionMetrics tracks statistics about one consensus import
type IngestionMetrics struct {
	mu               sync.RWMutex
	StartTime        time.Time
	Duration         time.Duration
	TotalRows        int
	Stored           int
	Duplicates       int
	ValidationErrors int
	Warnings         int
	Errors           int
}

// NewIngestionMetrics creates a new metrics tracker
func NewIngestionMetrics() *IngestionMetrics {
	return &IngestionMetrics{
		StartTime: time.Now(),
	}
}

// Reset resets all metrics
func (m *IngestionMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StartTime = time.Now()
	m.Duration = 0
	m.TotalRows = 0
	m.Stored = 0
	m.Duplicates = 0
	m.ValidationErrors = 0
	m.Warnings = 0
	m.Errors = 0
}

// RecordStored adds n stored records
func (m *IngestionMetrics) RecordStored(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stored += n
}

// RecordDuplicate increments duplicate count
func (m *IngestionMetrics) RecordDuplicate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Duplicates++
}

// RecordError increments error count
func (m *IngestionMetrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors++
}

// RecordValidationError increments validation error count
func (m *IngestionMetrics) RecordValidationError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ValidationErrors++
}

// RecordWarnings adds n data-quality warnings
func (m *IngestionMetrics) RecordWarnings(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Warnings += n
}

// Finish stamps the run duration
func (m *IngestionMetrics) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Duration = time.Since(m.StartTime)
}

// String returns a formatted string representation of metrics
func (m *IngestionMetrics) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	storedRate := float64(0)
	if m.TotalRows > 0 {
		storedRate = float64(m.Stored) / float64(m.TotalRows) * 100
	}

	return fmt.Sprintf(
		"IngestionMetrics{Total=%d, Stored=%d (%.1f%%), Duplicates=%d, ValidationErrors=%d, Warnings=%d, Errors=%d, Duration=%v}",
		m.TotalRows,
		m.Stored,
		storedRate,
		m.Duplicates,
		m.ValidationErrors,
		m.Warnings,
		m.Errors,
		m.Duration,
	)
}
