package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MetricsExporter receives point-in-time metric snapshots.
type MetricsExporter interface {
	Export(snapshot MetricsSnapshot) error
	Close() error
}

// MetricsSnapshot is one exported metrics record. Event carries the
// operation that triggered the flush (memory.stored, compaction.completed,
// shutdown, ...).
type MetricsSnapshot struct {
	Timestamp time.Time              `json:"timestamp"`
	Event     string                 `json:"event"`
	Metrics   map[string]interface{} `json:"metrics"`
	Labels    map[string]string      `json:"labels,omitempty"`
}

// JSONFileExporter appends snapshots to a file, one JSON object per line,
// so the metrics log can be tailed or fed to jq while engram runs.
type JSONFileExporter struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJSONFileExporter opens path for appending, creating parent
// directories as needed.
func NewJSONFileExporter(path string) (*JSONFileExporter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create metrics directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics file: %w", err)
	}
	return &JSONFileExporter{file: f, enc: json.NewEncoder(f)}, nil
}

// Export appends one snapshot line. Exporting after Close is an error.
func (e *JSONFileExporter) Export(snapshot MetricsSnapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.file == nil {
		return fmt.Errorf("metrics exporter is closed")
	}
	return e.enc.Encode(snapshot)
}

// Close releases the file; closing twice is a no-op.
func (e *JSONFileExporter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.file == nil {
		return nil
	}
	err := e.file.Close()
	e.file = nil
	return err
}
