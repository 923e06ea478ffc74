// Package embedding turns text into fixed-length unit vectors and holds
// the vector math shared by search and compaction.
package embedding

import (
	"math"

	engramErrors "github.com/engram-oss/engram/internal/errors"
)

// Engine providers selectable via config.
const (
	ProviderFallback = "fallback"
	ProviderONNX     = "onnx"
)

// Engine converts text into unit-normalized vectors of a fixed dimension.
// Implementations are chosen once at construction; callers never probe
// capabilities at runtime. None of the methods take a context: embedding
// blocks the calling goroutine for the duration of inference.
type Engine interface {
	// Embed returns the vector for a single text.
	Embed(text string) ([]float32, error)
	// EmbedBatch returns one vector per input text, preserving order.
	EmbedBatch(texts []string) ([][]float32, error)
	// Dimension reports the vector length this engine produces.
	Dimension() int
	// ModelName identifies the backing model for diagnostics.
	ModelName() string
	// Ready reports whether Embed calls can succeed.
	Ready() bool
}

// Config selects and tunes an engine implementation.
type Config struct {
	Provider      string // "fallback" (default) or "onnx"
	ModelPath     string // onnx only
	TokenizerPath string // onnx only
	LibraryPath   string // onnx only; optional onnxruntime shared library override
	CacheEntries  int64  // >0 wraps the engine in a ristretto cache
}

// NewEngine builds the engine named by cfg.Provider. An unknown provider is
// a config error; a provider that fails to initialize is fatal here rather
// than per-call.
func NewEngine(cfg Config) (Engine, error) {
	var (
		eng Engine
		err error
	)
	switch cfg.Provider {
	case "", ProviderFallback:
		eng = NewHashEngine()
	case ProviderONNX:
		eng, err = NewONNXEngine(ONNXConfig{
			ModelPath:     cfg.ModelPath,
			TokenizerPath: cfg.TokenizerPath,
			LibraryPath:   cfg.LibraryPath,
		})
	default:
		return nil, engramErrors.New(engramErrors.CodeConfigInvalid,
			"unknown engine provider: "+cfg.Provider).
			WithSuggestion("set engine.provider to \"fallback\" or \"onnx\" in engram.yaml")
	}
	if err != nil {
		return nil, err
	}
	if cfg.CacheEntries > 0 {
		return NewCachedEngine(eng, cfg.CacheEntries)
	}
	return eng, nil
}

// ONNXConfig configures the model-backed engine. It lives outside the build
// tag so config plumbing compiles with and without onnx support.
type ONNXConfig struct {
	// ModelPath is the path to the ONNX model file.
	ModelPath string
	// TokenizerPath is the path to the tokenizer.json file.
	TokenizerPath string
	// LibraryPath overrides the onnxruntime shared library location.
	LibraryPath string
}

// Normalize scales v to unit length. A vector with exactly zero magnitude is
// returned unchanged; anything else comes back as a fresh slice.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	mag := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / mag)
	}
	return out
}

// CosineSimilarity returns dot(a,b) / (|a|*|b|), or 0.0 when either vector
// is empty, the lengths differ, or either magnitude is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0.0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
