package telemetry

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects memory subsystem metrics
type Metrics struct {
	mu sync.RWMutex

	// Counters
	MemoriesStored    int64
	MemoriesRetrieved int64
	MemoriesDeleted   int64
	SearchesRun       int64
	EmbedCalls        int64
	EmbedErrors       int64
	RecordsCompacted  int64
	CompactionRuns    int64

	// Histograms (simplified)
	embedDurations  []time.Duration
	searchDurations []time.Duration

	// Exporter (optional)
	exporter MetricsExporter
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		embedDurations:  make([]time.Duration, 0, 1000),
		searchDurations: make([]time.Duration, 0, 1000),
	}
}

// IncMemoriesStored increments the stored counter
func (m *Metrics) IncMemoriesStored() {
	atomic.AddInt64(&m.MemoriesStored, 1)
}

// IncMemoriesRetrieved increments the retrieved counter
func (m *Metrics) IncMemoriesRetrieved() {
	atomic.AddInt64(&m.MemoriesRetrieved, 1)
}

// IncMemoriesDeleted increments the deleted counter
func (m *Metrics) IncMemoriesDeleted() {
	atomic.AddInt64(&m.MemoriesDeleted, 1)
}

// IncSearches increments the searches counter
func (m *Metrics) IncSearches() {
	atomic.AddInt64(&m.SearchesRun, 1)
}

// IncEmbedCalls increments the embed calls counter
func (m *Metrics) IncEmbedCalls() {
	atomic.AddInt64(&m.EmbedCalls, 1)
}

// IncEmbedErrors increments the embed errors counter
func (m *Metrics) IncEmbedErrors() {
	atomic.AddInt64(&m.EmbedErrors, 1)
}

// AddRecordsCompacted adds n to the compacted records counter and bumps the
// pass counter
func (m *Metrics) AddRecordsCompacted(n int64) {
	atomic.AddInt64(&m.RecordsCompacted, n)
	atomic.AddInt64(&m.CompactionRuns, 1)
}

// RecordEmbedDuration records one embedding call's duration
func (m *Metrics) RecordEmbedDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedDurations = append(m.embedDurations, d)
}

// RecordSearchDuration records one search's duration
func (m *Metrics) RecordSearchDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchDurations = append(m.searchDurations, d)
}

// GetSummary returns a summary of collected metrics
func (m *Metrics) GetSummary() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := map[string]interface{}{
		"memories_stored":    atomic.LoadInt64(&m.MemoriesStored),
		"memories_retrieved": atomic.LoadInt64(&m.MemoriesRetrieved),
		"memories_deleted":   atomic.LoadInt64(&m.MemoriesDeleted),
		"searches_run":       atomic.LoadInt64(&m.SearchesRun),
		"embed_calls":        atomic.LoadInt64(&m.EmbedCalls),
		"embed_errors":       atomic.LoadInt64(&m.EmbedErrors),
		"records_compacted":  atomic.LoadInt64(&m.RecordsCompacted),
		"compaction_runs":    atomic.LoadInt64(&m.CompactionRuns),
	}

	// Add duration stats
	if len(m.embedDurations) > 0 {
		var total time.Duration
		for _, d := range m.embedDurations {
			total += d
		}
		summary["avg_embed_us"] = total.Microseconds() / int64(len(m.embedDurations))
	}

	if len(m.searchDurations) > 0 {
		var total time.Duration
		for _, d := range m.searchDurations {
			total += d
		}
		summary["avg_search_us"] = total.Microseconds() / int64(len(m.searchDurations))
	}

	return summary
}

// Reset resets all metrics
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	atomic.StoreInt64(&m.MemoriesStored, 0)
	atomic.StoreInt64(&m.MemoriesRetrieved, 0)
	atomic.StoreInt64(&m.MemoriesDeleted, 0)
	atomic.StoreInt64(&m.SearchesRun, 0)
	atomic.StoreInt64(&m.EmbedCalls, 0)
	atomic.StoreInt64(&m.EmbedErrors, 0)
	atomic.StoreInt64(&m.RecordsCompacted, 0)
	atomic.StoreInt64(&m.CompactionRuns, 0)

	m.embedDurations = m.embedDurations[:0]
	m.searchDurations = m.searchDurations[:0]
}

// SetExporter attaches a metrics exporter.
func (m *Metrics) SetExporter(e MetricsExporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exporter = e
}

// Flush exports the current metrics snapshot with the given event label.
func (m *Metrics) Flush(event string, labels map[string]string) {
	m.mu.RLock()
	exporter := m.exporter
	m.mu.RUnlock()

	if exporter == nil {
		return
	}

	snapshot := MetricsSnapshot{
		Timestamp: time.Now(),
		Event:     event,
		Metrics:   m.GetSummary(),
		Labels:    labels,
	}
	// Best-effort export.
	_ = exporter.Export(snapshot)
}
