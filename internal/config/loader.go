package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	engramErrors "github.com/engram-oss/engram/internal/errors"
)

// FileName is the config file engram looks for.
const FileName = "engram.yaml"

// Load loads the engram configuration from dir
func Load(dir string) (*Config, error) {
	configFile := filepath.Join(dir, FileName)

	content, err := os.ReadFile(configFile)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if no file exists
			return defaultConfig(), nil
		}
		return nil, engramErrors.Wrap(engramErrors.CodeConfigInvalid, "failed to read config file", err)
	}

	return parse(content)
}

// LoadFile loads an explicitly named config file. Unlike Load, a missing
// file is an error: the caller asked for this exact path.
func LoadFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, engramErrors.Wrap(engramErrors.CodeConfigInvalid, "failed to read config file", err).
			WithSuggestion("check the --config path or run 'engram init'")
	}

	return parse(content)
}

// Resolve returns the configuration in effect: the explicit path when one
// was given, otherwise ./engram.yaml, otherwise ~/.engram/engram.yaml,
// otherwise built-in defaults.
func Resolve(explicit string) (*Config, error) {
	if explicit != "" {
		return LoadFile(explicit)
	}
	if _, err := os.Stat(FileName); err == nil {
		return Load(".")
	}
	return Load(DefaultDir())
}

func parse(content []byte) (*Config, error) {
	// Interpolate environment variables
	content = []byte(interpolateEnv(string(content)))

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, engramErrors.Wrap(engramErrors.CodeConfigInvalid, "failed to parse config", err)
	}

	// Apply defaults
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DefaultDir is where engram keeps its config and database when no
// project-local engram.yaml exists.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".engram"
	}
	return filepath.Join(home, ".engram")
}

// interpolateEnv replaces ${env.VAR} and ${VAR} with environment values
func interpolateEnv(content string) string {
	// Match ${env.VAR} pattern
	envPattern := regexp.MustCompile(`\$\{env\.([^}]+)\}`)
	content = envPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // keep original if not found
	})

	// Match ${VAR} pattern
	varPattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	content = varPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := varPattern.FindStringSubmatch(match)[1]
		// A leftover ${env.X} means the variable was unset; keep it as-is
		if strings.HasPrefix(varName, "env.") {
			return match
		}
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return content
}

func defaultConfig() *Config {
	return &Config{
		Version: "1",
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   filepath.Join(DefaultDir(), "engram.db"),
		},
		Engine: EngineConfig{
			Provider: "fallback",
		},
		Compaction: CompactionConfig{
			MaxMemories:         1000,
			MaxAgeDays:          90,
			SimilarityThreshold: 0.95,
			LowAccessThreshold:  0.1,
			SampleSize:          50,
			MinSample:           10,
			PairRatio:           0.2,
		},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = "1"
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "sqlite"
	}
	if cfg.Store.Driver == "sqlite" && cfg.Store.Path == "" {
		cfg.Store.Path = filepath.Join(DefaultDir(), "engram.db")
	}
	if cfg.Engine.Provider == "" {
		cfg.Engine.Provider = "fallback"
	}
	if cfg.Compaction.MaxMemories == 0 {
		cfg.Compaction.MaxMemories = 1000
	}
	if cfg.Compaction.MaxAgeDays == 0 {
		cfg.Compaction.MaxAgeDays = 90
	}
	if cfg.Compaction.SimilarityThreshold == 0 {
		cfg.Compaction.SimilarityThreshold = 0.95
	}
	if cfg.Compaction.LowAccessThreshold == 0 {
		cfg.Compaction.LowAccessThreshold = 0.1
	}
	if cfg.Compaction.SampleSize == 0 {
		cfg.Compaction.SampleSize = 50
	}
	if cfg.Compaction.MinSample == 0 {
		cfg.Compaction.MinSample = 10
	}
	if cfg.Compaction.PairRatio == 0 {
		cfg.Compaction.PairRatio = 0.2
	}
}
