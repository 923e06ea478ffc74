package config

// Config represents the full engram configuration (engram.yaml)
type Config struct {
	Version    string           `yaml:"version" json:"version"`
	Store      StoreConfig      `yaml:"store" json:"store"`
	Engine     EngineConfig     `yaml:"engine" json:"engine"`
	Compaction CompactionConfig `yaml:"compaction" json:"compaction"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" json:"telemetry"`
	Hooks      []HookConfig     `yaml:"hooks" json:"hooks"`
}

// StoreConfig configures record persistence
type StoreConfig struct {
	Driver string `yaml:"driver" json:"driver"` // memory, sqlite
	Path   string `yaml:"path" json:"path"`     // database file path (sqlite only)
}

// EngineConfig configures the embedding engine
type EngineConfig struct {
	Provider      string `yaml:"provider" json:"provider"`                                 // fallback, onnx
	ModelPath     string `yaml:"model_path,omitempty" json:"model_path,omitempty"`         // for onnx
	TokenizerPath string `yaml:"tokenizer_path,omitempty" json:"tokenizer_path,omitempty"` // for onnx
	LibraryPath   string `yaml:"library_path,omitempty" json:"library_path,omitempty"`     // onnxruntime shared library override
	CacheEntries  int64  `yaml:"cache_entries" json:"cache_entries"`                       // >0 enables the embedding cache
}

// CompactionConfig tunes when and how aggressively memories are evicted.
type CompactionConfig struct {
	Auto                *bool   `yaml:"auto,omitempty" json:"auto,omitempty"` // run after every mutation; unset means enabled
	MaxMemories         int     `yaml:"max_memories" json:"max_memories"`
	MaxAgeDays          int     `yaml:"max_age_days" json:"max_age_days"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold"`
	LowAccessThreshold  float64 `yaml:"low_access_threshold" json:"low_access_threshold"`
	SampleSize          int     `yaml:"sample_size" json:"sample_size"`
	MinSample           int     `yaml:"min_sample" json:"min_sample"`
	PairRatio           float64 `yaml:"pair_ratio" json:"pair_ratio"`
}

// AutoEnabled reports whether compaction runs after mutations. A config
// that never mentions auto gets the enabled default.
func (c *CompactionConfig) AutoEnabled() bool {
	return c.Auto == nil || *c.Auto
}

// TelemetryConfig configures logging and metrics output
type TelemetryConfig struct {
	Verbose     bool   `yaml:"verbose" json:"verbose"`
	LogFile     string `yaml:"log_file,omitempty" json:"log_file,omitempty"`         // mirror logs to this file
	MetricsFile string `yaml:"metrics_file,omitempty" json:"metrics_file,omitempty"` // JSONL metrics export target
}

// HookConfig defines a single event hook.
type HookConfig struct {
	Name     string   `yaml:"name" json:"name"`
	Type     string   `yaml:"type" json:"type"`     // shell, webhook, file, log
	Events   []string `yaml:"events" json:"events"` // event types to match; empty matches all
	Blocking bool     `yaml:"blocking" json:"blocking"`
	Command  string   `yaml:"command,omitempty" json:"command,omitempty"` // for shell hooks
	URL      string   `yaml:"url,omitempty" json:"url,omitempty"`         // for webhook hooks
	Path     string   `yaml:"path,omitempty" json:"path,omitempty"`       // for file hooks
	Level    string   `yaml:"level,omitempty" json:"level,omitempty"`     // for log hooks (debug, info, warn)
}
