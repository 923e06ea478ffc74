package cli

import (
	"github.com/engram-oss/engram/internal/config"
	"github.com/engram-oss/engram/internal/embedding"
	"github.com/engram-oss/engram/internal/event"
	"github.com/engram-oss/engram/internal/memory"
	"github.com/engram-oss/engram/internal/telemetry"
)

// appRuntime holds the wired stack one command invocation works with.
type appRuntime struct {
	cfg     *config.Config
	logger  *telemetry.Logger
	metrics *telemetry.Metrics
	manager *memory.Manager
}

// openRuntime resolves configuration and wires telemetry, store, engine,
// hooks, and the memory manager. Callers must Close when done.
func openRuntime() (*appRuntime, error) {
	cfg, err := config.Resolve(cfgFile)
	if err != nil {
		return nil, err
	}

	logger := telemetry.NewLogger(verbose || cfg.Telemetry.Verbose)
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

	mgr, err := memory.NewManager(store, engine, memory.ManagerOptions{
		Compaction:         compactionConfig(cfg),
		DisableAutoCompact: !cfg.Compaction.AutoEnabled(),
		Logger:             logger,
		Metrics:            metrics,
		Bus:                buildBus(cfg, logger),
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	return &appRuntime{cfg: cfg, logger: logger, metrics: metrics, manager: mgr}, nil
}

// Close flushes metrics and releases the store and engine.
func (r *appRuntime) Close() error {
	r.metrics.Flush("shutdown", nil)
	return r.manager.Close()
}

// buildBus constructs the event bus from configured hooks. With no hooks
// there is no bus: the manager treats a nil bus as disabled.
func buildBus(cfg *config.Config, logger *telemetry.Logger) *event.Bus {
	if len(cfg.Hooks) == 0 {
		return nil
	}

	bus := event.NewBus(logger)
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
	return bus
}

func compactionConfig(cfg *config.Config) memory.CompactionConfig {
	return memory.CompactionConfig{
		MaxMemories:         cfg.Compaction.MaxMemories,
		MaxAgeDays:          cfg.Compaction.MaxAgeDays,
		SimilarityThreshold: cfg.Compaction.SimilarityThreshold,
		LowAccessThreshold:  cfg.Compaction.LowAccessThreshold,
		SampleSize:          cfg.Compaction.SampleSize,
		MinSample:           cfg.Compaction.MinSample,
		PairRatio:           cfg.Compaction.PairRatio,
	}
}
