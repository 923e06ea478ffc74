package config

import (
	"fmt"
	"strings"

	engramErrors "github.com/engram-oss/engram/internal/errors"
)

// Validate checks the full configuration, accumulating every problem into
// a single CONFIG_INVALID error instead of stopping at the first.
func Validate(cfg *Config) error {
	var errors []string

	// Validate store driver
	validDrivers := map[string]bool{
		"memory": true,
		"sqlite": true,
		"":       true, // empty selects the default driver
	}
	if !validDrivers[cfg.Store.Driver] {
		errors = append(errors, fmt.Sprintf("invalid store driver: %s", cfg.Store.Driver))
	}
	if cfg.Store.Driver == "sqlite" && cfg.Store.Path == "" {
		errors = append(errors, "store.path is required for the sqlite driver")
	}

	// Validate engine provider
	validProviders := map[string]bool{
		"fallback": true,
		"onnx":     true,
		"":         true, // empty selects the default provider
	}
	if !validProviders[cfg.Engine.Provider] {
		errors = append(errors, fmt.Sprintf("invalid engine provider: %s", cfg.Engine.Provider))
	}
	if cfg.Engine.Provider == "onnx" {
		if cfg.Engine.ModelPath == "" {
			errors = append(errors, "engine.model_path is required for the onnx provider")
		}
		if cfg.Engine.TokenizerPath == "" {
			errors = append(errors, "engine.tokenizer_path is required for the onnx provider")
		}
	}
	if cfg.Engine.CacheEntries < 0 {
		errors = append(errors, "engine.cache_entries must be non-negative")
	}

	// Validate compaction tuning
	if cfg.Compaction.MaxMemories < 0 {
		errors = append(errors, "compaction.max_memories must be non-negative")
	}
	if cfg.Compaction.MaxAgeDays < 0 {
		errors = append(errors, "compaction.max_age_days must be non-negative")
	}
	if cfg.Compaction.SimilarityThreshold < 0 || cfg.Compaction.SimilarityThreshold > 1 {
		errors = append(errors, "compaction.similarity_threshold must be between 0 and 1")
	}
	if cfg.Compaction.LowAccessThreshold < 0 || cfg.Compaction.LowAccessThreshold > 1 {
		errors = append(errors, "compaction.low_access_threshold must be between 0 and 1")
	}
	if cfg.Compaction.PairRatio < 0 || cfg.Compaction.PairRatio > 1 {
		errors = append(errors, "compaction.pair_ratio must be between 0 and 1")
	}
	if cfg.Compaction.SampleSize < 0 {
		errors = append(errors, "compaction.sample_size must be non-negative")
	}
	if cfg.Compaction.MinSample < 0 {
		errors = append(errors, "compaction.min_sample must be non-negative")
	}
	if cfg.Compaction.SampleSize > 0 && cfg.Compaction.MinSample > cfg.Compaction.SampleSize {
		errors = append(errors, "compaction.min_sample cannot exceed compaction.sample_size")
	}

	// Validate hooks
	validHookTypes := map[string]bool{
		"shell":   true,
		"webhook": true,
		"file":    true,
		"log":     true,
	}
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"":      true, // empty defaults to info
	}
	hookNames := make(map[string]bool)
	for _, hook := range cfg.Hooks {
		if hook.Name == "" {
			errors = append(errors, "hook name is required")
			continue
		}
		if hookNames[hook.Name] {
			errors = append(errors, fmt.Sprintf("duplicate hook name: %s", hook.Name))
		}
		hookNames[hook.Name] = true

		if !validHookTypes[hook.Type] {
			errors = append(errors, fmt.Sprintf("hook %s has invalid type: %s", hook.Name, hook.Type))
			continue
		}
		switch hook.Type {
		case "shell":
			if hook.Command == "" {
				errors = append(errors, fmt.Sprintf("shell hook %s requires a command", hook.Name))
			}
		case "webhook":
			if hook.URL == "" {
				errors = append(errors, fmt.Sprintf("webhook hook %s requires a url", hook.Name))
			}
		case "file":
			if hook.Path == "" {
				errors = append(errors, fmt.Sprintf("file hook %s requires a path", hook.Name))
			}
		case "log":
			if !validLevels[hook.Level] {
				errors = append(errors, fmt.Sprintf("log hook %s has invalid level: %s", hook.Name, hook.Level))
			}
		}
	}

	if len(errors) > 0 {
		return engramErrors.New(engramErrors.CodeConfigInvalid,
			"config validation failed: "+strings.Join(errors, "; ")).
			WithSuggestion("fix engram.yaml or run 'engram init' to regenerate it")
	}
	return nil
}
