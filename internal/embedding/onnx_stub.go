//go:build !onnx

package embedding

import (
	engramErrors "github.com/engram-oss/engram/internal/errors"
)

// ONNXEngine is only functional in binaries built with the onnx tag. This
// stub keeps the provider selectable everywhere while making construction
// fail loudly.
type ONNXEngine struct{}

// NewONNXEngine always fails in non-onnx builds.
func NewONNXEngine(cfg ONNXConfig) (*ONNXEngine, error) {
	return nil, engramErrors.New(engramErrors.CodeEngineUnavailable,
		"onnx engine is not compiled into this binary").
		WithSuggestion("rebuild with -tags onnx, or set engine.provider to \"fallback\"")
}

func (e *ONNXEngine) Embed(text string) ([]float32, error) {
	return nil, engramErrors.New(engramErrors.CodeEngineUnavailable, "onnx engine is not ready")
}

func (e *ONNXEngine) EmbedBatch(texts []string) ([][]float32, error) {
	return nil, engramErrors.New(engramErrors.CodeEngineUnavailable, "onnx engine is not ready")
}

func (e *ONNXEngine) Dimension() int { return 0 }

func (e *ONNXEngine) ModelName() string { return "onnx" }

func (e *ONNXEngine) Ready() bool { return false }

func (e *ONNXEngine) Close() error { return nil }
