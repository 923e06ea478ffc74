package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestJSONFileExporter_Export(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".engram", "metrics.jsonl")

	exporter, err := NewJSONFileExporter(path)
	if err != nil {
		t.Fatal(err)
	}
	defer exporter.Close()

	snapshot := MetricsSnapshot{
		Timestamp: time.Now(),
		Event:     "memory.stored",
		Metrics: map[string]interface{}{
			"memories_stored": int64(5),
			"embed_calls":     int64(12),
		},
		Labels: map[string]string{
			"owner": "user-1",
		},
	}

	if err := exporter.Export(snapshot); err != nil {
		t.Fatal(err)
	}

	// Write another snapshot
	snapshot.Event = "compaction.completed"
	if err := exporter.Export(snapshot); err != nil {
		t.Fatal(err)
	}

	exporter.Close()

	// Read and verify
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	lines := splitLines(string(data))
	if len(lines) != 2 {
		t.Fatalf("expected 2 JSONL lines, got %d", len(lines))
	}

	var parsed MetricsSnapshot
	if err := json.Unmarshal([]byte(lines[0]), &parsed); err != nil {
		t.Fatal(err)
	}
	if parsed.Event != "memory.stored" {
		t.Errorf("expected event 'memory.stored', got %q", parsed.Event)
	}
}

func TestMetrics_FlushWithExporter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metrics.jsonl")

	exporter, err := NewJSONFileExporter(path)
	if err != nil {
		t.Fatal(err)
	}

	m := NewMetrics()
	m.SetExporter(exporter)
	m.IncMemoriesStored()
	m.AddRecordsCompacted(3)

	m.Flush("compaction.completed", map[string]string{"owner": "user-1"})
	exporter.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if len(data) == 0 {
		t.Error("expected non-empty metrics file")
	}

	var snapshot MetricsSnapshot
	if err := json.Unmarshal(data[:len(data)-1], &snapshot); err != nil {
		t.Fatal(err)
	}
	if snapshot.Event != "compaction.completed" {
		t.Errorf("expected event 'compaction.completed', got %q", snapshot.Event)
	}
	if v, ok := snapshot.Metrics["records_compacted"]; !ok || v.(float64) != 3 {
		t.Errorf("expected records_compacted 3, got %v", v)
	}
}

func TestMetrics_FlushWithoutExporter(t *testing.T) {
	m := NewMetrics()
	// Should not panic
	m.Flush("test", nil)
}

func TestMetrics_SummaryCounters(t *testing.T) {
	m := NewMetrics()
	m.IncMemoriesStored()
	m.IncMemoriesStored()
	m.IncMemoriesRetrieved()
	m.IncSearches()
	m.IncEmbedCalls()
	m.IncEmbedErrors()
	m.RecordEmbedDuration(200 * time.Microsecond)
	m.RecordSearchDuration(1 * time.Millisecond)

	s := m.GetSummary()
	if s["memories_stored"].(int64) != 2 {
		t.Errorf("expected 2 stored, got %v", s["memories_stored"])
	}
	if s["memories_retrieved"].(int64) != 1 {
		t.Errorf("expected 1 retrieved, got %v", s["memories_retrieved"])
	}
	if _, ok := s["avg_embed_us"]; !ok {
		t.Error("expected avg_embed_us in summary")
	}
	if _, ok := s["avg_search_us"]; !ok {
		t.Error("expected avg_search_us in summary")
	}

	m.Reset()
	s = m.GetSummary()
	if s["memories_stored"].(int64) != 0 {
		t.Errorf("expected reset counters, got %v", s["memories_stored"])
	}
}

func TestNewOpID_Unique(t *testing.T) {
	a, b := NewOpID(), NewOpID()
	if a == b {
		t.Error("expected distinct op ids")
	}
	if len(a) != 16 {
		t.Errorf("expected 16 hex chars, got %d", len(a))
	}
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
