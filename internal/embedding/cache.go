package embedding

import (
	"io"

	"github.com/dgraph-io/ristretto"

	engramErrors "github.com/engram-oss/engram/internal/errors"
)

// CachedEngine wraps another engine with an in-process ristretto cache so
// repeated texts skip inference. Cached vectors are copied on the way in and
// out; callers can mutate what they get back without poisoning the cache.
type CachedEngine struct {
	inner Engine
	cache *ristretto.Cache
}

// NewCachedEngine caches up to maxEntries embeddings of the inner engine.
func NewCachedEngine(inner Engine, maxEntries int64) (*CachedEngine, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, engramErrors.Wrap(engramErrors.CodeConfigInvalid, "embedding cache init failed", err)
	}
	return &CachedEngine{inner: inner, cache: cache}, nil
}

// Embed returns the cached vector for text, or embeds and caches it.
func (e *CachedEngine) Embed(text string) ([]float32, error) {
	key := e.key(text)
	if v, ok := e.cache.Get(key); ok {
		if vec, ok := v.([]float32); ok {
			return cloneVector(vec), nil
		}
	}
	vec, err := e.inner.Embed(text)
	if err != nil {
		return nil, err
	}
	e.cache.Set(key, cloneVector(vec), 1)
	return vec, nil
}

// EmbedBatch serves what it can from cache and batches the rest through the
// inner engine in one call, preserving input order.
func (e *CachedEngine) EmbedBatch(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int
	for i, t := range texts {
		if v, ok := e.cache.Get(e.key(t)); ok {
			if vec, ok := v.([]float32); ok {
				out[i] = cloneVector(vec)
				continue
			}
		}
		missTexts = append(missTexts, t)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}
	vecs, err := e.inner.EmbedBatch(missTexts)
	if err != nil {
		return nil, err
	}
	for j, vec := range vecs {
		i := missIdx[j]
		out[i] = vec
		e.cache.Set(e.key(texts[i]), cloneVector(vec), 1)
	}
	return out, nil
}

// Dimension delegates to the inner engine.
func (e *CachedEngine) Dimension() int {
	return e.inner.Dimension()
}

// ModelName delegates to the inner engine.
func (e *CachedEngine) ModelName() string {
	return e.inner.ModelName()
}

// Ready delegates to the inner engine.
func (e *CachedEngine) Ready() bool {
	return e.inner.Ready()
}

// Close releases the cache and the inner engine if it holds resources.
func (e *CachedEngine) Close() error {
	e.cache.Close()
	if c, ok := e.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (e *CachedEngine) key(text string) string {
	return e.inner.ModelName() + "\x00" + text
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
