package testutil

import (
	"fmt"
	"sync"

	"github.com/engram-oss/engram/internal/config"
	"github.com/engram-oss/engram/internal/embedding"
	"github.com/engram-oss/engram/internal/telemetry"

	engramErrors "github.com/engram-oss/engram/internal/errors"
)

// ScriptedEngine implements embedding.Engine for testing. Vectors can be
// pinned per text; anything else gets a deterministic derived vector, so
// the same text always embeds the same way.
type ScriptedEngine struct {
	mu         sync.Mutex
	Vectors    map[string][]float32 // pinned responses by exact text
	Dim        int                  // vector length (default 8)
	ShouldFail bool
	FailErr    error
	NotReady   bool
	Calls      []string // every text embedded, in order
}

func (e *ScriptedEngine) Embed(text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.embedLocked(text)
}

func (e *ScriptedEngine) EmbedBatch(texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	vecs := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, err := e.embedLocked(text)
		if err != nil {
			return nil, err
		}
		vecs = append(vecs, v)
	}
	return vecs, nil
}

func (e *ScriptedEngine) embedLocked(text string) ([]float32, error) {
	e.Calls = append(e.Calls, text)

	if e.NotReady {
		return nil, engramErrors.New(engramErrors.CodeEngineUnavailable, "scripted engine not ready")
	}
	if e.ShouldFail {
		if e.FailErr != nil {
			return nil, e.FailErr
		}
		return nil, fmt.Errorf("scripted engine error")
	}

	if v, ok := e.Vectors[text]; ok {
		out := make([]float32, len(v))
		copy(out, v)
		return out, nil
	}

	// Derive a stable vector from the text bytes.
	v := make([]float32, e.dim())
	for i, b := range []byte(text) {
		v[i%len(v)] += float32(b)
	}
	return embedding.Normalize(v), nil
}

func (e *ScriptedEngine) Dimension() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dim()
}

func (e *ScriptedEngine) ModelName() string { return "scripted" }

func (e *ScriptedEngine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.NotReady
}

func (e *ScriptedEngine) dim() int {
	if e.Dim > 0 {
		return e.Dim
	}
	return 8
}

// CallCount returns the number of embed calls made (thread-safe).
func (e *ScriptedEngine) CallCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Calls)
}

// SetShouldFail flips failure injection (thread-safe).
func (e *ScriptedEngine) SetShouldFail(fail bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ShouldFail = fail
}

// TestLogger returns a logger suitable for tests (verbose, no file output).
func TestLogger() *telemetry.Logger {
	return telemetry.NewLogger(true)
}

// TestConfig returns a minimal config for testing.
func TestConfig() *config.Config {
	return &config.Config{
		Version: "1",
		Store:   config.StoreConfig{Driver: "memory"},
		Engine:  config.EngineConfig{Provider: "fallback"},
	}
}
