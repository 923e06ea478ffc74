// Package engram provides a public API for the engram memory system.
//
// Example usage:
//
//	import "github.com/engram-oss/engram/pkg/engram"
//
//	mem, err := engram.Open("")
//	if err != nil { ... }
//	defer mem.Close()
//
//	rec, err := mem.Remember("the gateway deploys blue/green", engram.RememberOptions{
//		Owner: "alice",
//		Tags:  []string{"infra"},
//	})
//
//	hits, err := mem.Search("how do we deploy", engram.SearchOptions{Limit: 5})
package engram

import (
	"github.com/engram-oss/engram/internal/config"
	"github.com/engram-oss/engram/internal/embedding"
	"github.com/engram-oss/engram/internal/event"
	"github.com/engram-oss/engram/internal/memory"
	"github.com/engram-oss/engram/internal/telemetry"

	engramErrors "github.com/engram-oss/engram/internal/errors"
)

// Re-exported types so callers never import internal packages.
type (
	Record           = memory.Record
	RememberOptions  = memory.RememberOptions
	UpdateOptions    = memory.UpdateOptions
	SearchOptions    = memory.SearchOptions
	CompactionReport = memory.CompactionReport
)

// Error codes carried by errors returned from this package.
const (
	CodeConfigInvalid     = engramErrors.CodeConfigInvalid
	CodeEngineUnavailable = engramErrors.CodeEngineUnavailable
	CodeStoreWriteFailed  = engramErrors.CodeStoreWriteFailed
	CodeStoreUnavailable  = engramErrors.CodeStoreUnavailable
	CodeImportMalformed   = engramErrors.CodeImportMalformed
	CodeNotFound          = engramErrors.CodeNotFound
)

// ErrorCode extracts the machine-readable code from an error returned by
// this package, or "" when it carries none.
func ErrorCode(err error) string {
	return engramErrors.AsCode(err)
}

// Memory is an open handle on a memory system. It is safe for concurrent
// use and must be closed when no longer needed.
type Memory struct {
	manager *memory.Manager
}

// Open wires a memory system from configuration. An empty path resolves
// ./engram.yaml, then ~/.engram/engram.yaml, then built-in defaults; a
// non-empty path names the config file to use.
func Open(configPath string) (*Memory, error) {
	cfg, err := config.Resolve(configPath)
	if err != nil {
		return nil, err
	}

	logger := telemetry.NewLogger(cfg.Telemetry.Verbose)
	if cfg.Telemetry.LogFile != "" {
		if err := logger.WithFile(cfg.Telemetry.LogFile); err != nil {
			logger.Warn("Failed to open log file", "path", cfg.Telemetry.LogFile, "error", err)
		}
	}

	metrics := telemetry.NewMetrics()
	if cfg.Telemetry.MetricsFile != "" {
		exporter, err := telemetry.NewJSONFileExporter(cfg.Telemetry.MetricsFile)
		if err != nil {
			logger.Warn("Failed to open metrics file", "path", cfg.Telemetry.MetricsFile, "error", err)
		} else {
			metrics.SetExporter(exporter)
		}
	}

	store, err := memory.NewStore(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	engine, err := embedding.NewEngine(embedding.Config{
		Provider:      cfg.Engine.Provider,
		ModelPath:     cfg.Engine.ModelPath,
		TokenizerPath: cfg.Engine.TokenizerPath,
		LibraryPath:   cfg.Engine.LibraryPath,
		CacheEntries:  cfg.Engine.CacheEntries,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	var bus *event.Bus
	if len(cfg.Hooks) > 0 {
		bus = event.NewBus(logger)
		for _, hc := range cfg.Hooks {
			hook, err := event.BuildHook(event.HookSpec{
				Name:     hc.Name,
				Type:     hc.Type,
				Events:   hc.Events,
				Blocking: hc.Blocking,
				Command:  hc.Command,
				URL:      hc.URL,
				Path:     hc.Path,
				Level:    hc.Level,
			}, logger)
			if err != nil {
				logger.Warn("Skipping invalid hook", "hook", hc.Name, "error", err)
				continue
			}
			bus.Register(hook)
		}
	}

	mgr, err := memory.NewManager(store, engine, memory.ManagerOptions{
		Compaction: memory.CompactionConfig{
			MaxMemories:         cfg.Compaction.MaxMemories,
			MaxAgeDays:          cfg.Compaction.MaxAgeDays,
			SimilarityThreshold: cfg.Compaction.SimilarityThreshold,
			LowAccessThreshold:  cfg.Compaction.LowAccessThreshold,
			SampleSize:          cfg.Compaction.SampleSize,
			MinSample:           cfg.Compaction.MinSample,
			PairRatio:           cfg.Compaction.PairRatio,
		},
		DisableAutoCompact: !cfg.Compaction.AutoEnabled(),
		Logger:             logger,
		Metrics:            metrics,
		Bus:                bus,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Memory{manager: mgr}, nil
}

// Remember stores a new memory and embeds it for semantic search.
func (m *Memory) Remember(content string, opts RememberOptions) (*Record, error) {
	return m.manager.Remember(content, opts)
}

// RememberBatch stores several memories with one embedding pass.
func (m *Memory) RememberBatch(contents []string, opts RememberOptions) ([]*Record, error) {
	return m.manager.RememberBatch(contents, opts)
}

// Get retrieves a memory by id, bumping its access statistics. A missing
// id returns (nil, nil).
func (m *Memory) Get(id string) (*Record, error) {
	return m.manager.Get(id)
}

// Update rewrites a memory's content and re-embeds it, merging in any
// tags and metadata. It reports false when the id does not exist.
func (m *Memory) Update(id, content string, opts UpdateOptions) (bool, error) {
	return m.manager.Update(id, content, opts)
}

// Forget deletes a memory, reporting false when the id does not exist.
func (m *Memory) Forget(id string) (bool, error) {
	return m.manager.Forget(id)
}

// Search returns memories semantically similar to the query.
func (m *Memory) Search(query string, opts SearchOptions) ([]*Record, error) {
	return m.manager.Search(query, opts)
}

// SearchText returns memories whose content or tags contain the query.
func (m *Memory) SearchText(query string, opts SearchOptions) ([]*Record, error) {
	return m.manager.SearchText(query, opts)
}

// SearchByTags returns memories carrying any of the given tags.
func (m *Memory) SearchByTags(tags []string, opts SearchOptions) ([]*Record, error) {
	return m.manager.SearchByTags(tags, opts)
}

// List returns memories newest first.
func (m *Memory) List(owner string, limit, offset int) ([]*Record, error) {
	return m.manager.List(owner, limit, offset)
}

// FindSimilar returns memories semantically close to an existing one.
func (m *Memory) FindSimilar(id string, limit int, threshold float64) ([]*Record, error) {
	return m.manager.FindSimilar(id, limit, threshold)
}

// Count reports how many memories an owner scope holds; an empty owner
// counts everything.
func (m *Memory) Count(owner string) (int, error) {
	return m.manager.Count(owner)
}

// Clear deletes every memory in the scope and reports how many went.
func (m *Memory) Clear(owner string) (int, error) {
	return m.manager.Clear(owner)
}

// Export returns the scope's memories as serializable maps.
func (m *Memory) Export(owner string) ([]map[string]interface{}, error) {
	return m.manager.Export(owner)
}

// Import stores previously exported memories, skipping malformed ones,
// and reports how many were imported.
func (m *Memory) Import(items []map[string]interface{}) (int, error) {
	return m.manager.Import(items)
}

// Compact runs the compaction policy. With force every action runs
// regardless of thresholds.
func (m *Memory) Compact(owner string, force bool) (*CompactionReport, error) {
	if force {
		return m.manager.ForceCompact(owner)
	}
	return m.manager.CompactIfNeeded(owner)
}

// Stats reports store, engine, and usage statistics.
func (m *Memory) Stats() (map[string]interface{}, error) {
	return m.manager.Stats()
}

// Healthy reports whether the store answers queries and the engine is
// ready to embed.
func (m *Memory) Healthy() bool {
	return m.manager.Healthy()
}

// Close releases the store and engine.
func (m *Memory) Close() error {
	return m.manager.Close()
}
