package embedding

import (
	"hash/fnv"
	"math"
	"strings"
)

// HashDimension is the fixed vector length of the fallback engine.
const HashDimension = 128

const hashModelName = "builtin-hash-128"

// semanticClusters nudges related words into shared dimension ranges so the
// fallback produces above-noise similarity for obviously related text. The
// specific groupings are a heuristic, not a semantic model; only determinism,
// unit length, and the 128 dimension are contractual.
var semanticClusters = []struct {
	words []string
	lo    int
	hi    int
}{
	{words: []string{"user", "person", "people", "customer", "name", "who"}, lo: 0, hi: 8},
	{words: []string{"like", "love", "enjoy", "prefer", "hate", "favorite"}, lo: 8, hi: 16},
	{words: []string{"code", "program", "software", "function", "bug", "api"}, lo: 16, hi: 24},
	{words: []string{"time", "date", "day", "week", "month", "schedule"}, lo: 24, hi: 32},
	{words: []string{"file", "document", "note", "report", "page"}, lo: 32, hi: 40},
	{words: []string{"error", "fail", "failed", "crash", "problem", "issue"}, lo: 40, hi: 48},
	{words: []string{"project", "task", "work", "plan", "goal", "deadline"}, lo: 48, hi: 56},
	{words: []string{"data", "memory", "store", "database", "record", "cache"}, lo: 56, hi: 64},
}

const clusterWeight = 0.6

var clusterRange = func() map[string][2]int {
	m := make(map[string][2]int)
	for _, c := range semanticClusters {
		for _, w := range c.words {
			m[w] = [2]int{c.lo, c.hi}
		}
	}
	return m
}()

// HashEngine is the deterministic fallback: no model, no I/O, always ready.
// Same text always yields the same unit-length 128-dim vector.
type HashEngine struct{}

// NewHashEngine creates the fallback engine.
func NewHashEngine() *HashEngine {
	return &HashEngine{}
}

// Embed builds a vector from a base hash of the whole text plus per-word
// scattering, then adds cluster weight for any recognized keywords.
func (e *HashEngine) Embed(text string) ([]float32, error) {
	vec := make([]float32, HashDimension)

	// Base signal from the whole text keeps distinct inputs apart and
	// guarantees a nonzero vector even for empty input.
	seed := fnvHash(text)
	for i := 0; i < HashDimension; i++ {
		seed = nextLCG(seed)
		vec[i] = float32(int64(seed)) / float32(math.MaxInt64) * 0.1
	}

	for _, word := range words(text) {
		seed := fnvHash(word)
		// Scatter each word across a handful of dimensions.
		for i := 0; i < 4; i++ {
			seed = nextLCG(seed)
			dim := int(seed % HashDimension)
			seed = nextLCG(seed)
			vec[dim] += float32(int64(seed)) / float32(math.MaxInt64)
		}
		if r, ok := clusterRange[word]; ok {
			for d := r[0]; d < r[1]; d++ {
				vec[d] += clusterWeight
			}
		}
	}

	return Normalize(vec), nil
}

// EmbedBatch embeds each text in order. The fallback has no batching
// advantage; this exists to satisfy the contract.
func (e *HashEngine) EmbedBatch(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimension returns the fixed fallback dimension.
func (e *HashEngine) Dimension() int {
	return HashDimension
}

// ModelName identifies the fallback for diagnostics.
func (e *HashEngine) ModelName() string {
	return hashModelName
}

// Ready is always true; the fallback has nothing to load.
func (e *HashEngine) Ready() bool {
	return true
}

func words(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'()[]")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func fnvHash(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

func nextLCG(seed uint64) uint64 {
	return seed*6364136223846793005 + 1442695040888963407
}
