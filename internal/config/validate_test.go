package config

import (
	"strings"
	"testing"

	engramErrors "github.com/engram-oss/engram/internal/errors"
)

func TestValidate_DefaultsPass(t *testing.T) {
	if err := Validate(defaultConfig()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidate_AccumulatesFailures(t *testing.T) {
	cfg := &Config{
		Store:  StoreConfig{Driver: "cassandra"},
		Engine: EngineConfig{Provider: "openai"},
	}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if engramErrors.AsCode(err) != engramErrors.CodeConfigInvalid {
		t.Errorf("expected CONFIG_INVALID, got %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "invalid store driver: cassandra") {
		t.Errorf("expected driver failure in message, got: %s", msg)
	}
	if !strings.Contains(msg, "invalid engine provider: openai") {
		t.Errorf("expected provider failure in message, got: %s", msg)
	}
	if !strings.Contains(msg, "; ") {
		t.Errorf("expected joined failures, got: %s", msg)
	}
}

func TestValidate_SQLiteRequiresPath(t *testing.T) {
	cfg := &Config{Store: StoreConfig{Driver: "sqlite"}}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for sqlite driver without path")
	}
	if !strings.Contains(err.Error(), "store.path is required") {
		t.Errorf("expected path error, got: %v", err)
	}
}

func TestValidate_ONNXRequiresModelFiles(t *testing.T) {
	cfg := &Config{Engine: EngineConfig{Provider: "onnx"}}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error for onnx provider without model files")
	}
	if !strings.Contains(err.Error(), "engine.model_path is required") {
		t.Errorf("expected model_path error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "engine.tokenizer_path is required") {
		t.Errorf("expected tokenizer_path error, got: %v", err)
	}
}

func TestValidate_CompactionBounds(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "negative max_memories",
			mutate:  func(c *Config) { c.Compaction.MaxMemories = -1 },
			wantErr: "compaction.max_memories must be non-negative",
		},
		{
			name:    "negative max_age_days",
			mutate:  func(c *Config) { c.Compaction.MaxAgeDays = -7 },
			wantErr: "compaction.max_age_days must be non-negative",
		},
		{
			name:    "similarity above one",
			mutate:  func(c *Config) { c.Compaction.SimilarityThreshold = 1.5 },
			wantErr: "compaction.similarity_threshold must be between 0 and 1",
		},
		{
			name:    "negative low access threshold",
			mutate:  func(c *Config) { c.Compaction.LowAccessThreshold = -0.2 },
			wantErr: "compaction.low_access_threshold must be between 0 and 1",
		},
		{
			name:    "pair ratio above one",
			mutate:  func(c *Config) { c.Compaction.PairRatio = 2 },
			wantErr: "compaction.pair_ratio must be between 0 and 1",
		},
		{
			name: "min sample exceeds sample size",
			mutate: func(c *Config) {
				c.Compaction.SampleSize = 20
				c.Compaction.MinSample = 30
			},
			wantErr: "compaction.min_sample cannot exceed compaction.sample_size",
		},
		{
			name:    "negative cache entries",
			mutate:  func(c *Config) { c.Engine.CacheEntries = -5 },
			wantErr: "engine.cache_entries must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_Hooks(t *testing.T) {
	tests := []struct {
		name    string
		hooks   []HookConfig
		wantErr string
	}{
		{
			name: "valid hooks",
			hooks: []HookConfig{
				{Name: "audit", Type: "log", Level: "info"},
				{Name: "notify", Type: "webhook", URL: "http://localhost:9000/hook"},
				{Name: "journal", Type: "file", Path: "/tmp/events.jsonl"},
				{Name: "backup", Type: "shell", Command: "true"},
			},
			wantErr: "",
		},
		{
			name:    "missing name",
			hooks:   []HookConfig{{Type: "log"}},
			wantErr: "hook name is required",
		},
		{
			name: "duplicate names",
			hooks: []HookConfig{
				{Name: "audit", Type: "log"},
				{Name: "audit", Type: "log"},
			},
			wantErr: "duplicate hook name: audit",
		},
		{
			name:    "unknown type",
			hooks:   []HookConfig{{Name: "smoke", Type: "smoke-signal"}},
			wantErr: "hook smoke has invalid type: smoke-signal",
		},
		{
			name:    "shell without command",
			hooks:   []HookConfig{{Name: "backup", Type: "shell"}},
			wantErr: "shell hook backup requires a command",
		},
		{
			name:    "webhook without url",
			hooks:   []HookConfig{{Name: "notify", Type: "webhook"}},
			wantErr: "webhook hook notify requires a url",
		},
		{
			name:    "file without path",
			hooks:   []HookConfig{{Name: "journal", Type: "file"}},
			wantErr: "file hook journal requires a path",
		},
		{
			name:    "log with bad level",
			hooks:   []HookConfig{{Name: "audit", Type: "log", Level: "loud"}},
			wantErr: "log hook audit has invalid level: loud",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Hooks = tt.hooks
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestAutoEnabled(t *testing.T) {
	var c CompactionConfig
	if !c.AutoEnabled() {
		t.Error("unset auto should be enabled")
	}

	enabled := true
	c.Auto = &enabled
	if !c.AutoEnabled() {
		t.Error("explicit true should be enabled")
	}

	disabled := false
	c.Auto = &disabled
	if c.AutoEnabled() {
		t.Error("explicit false should be disabled")
	}
}
