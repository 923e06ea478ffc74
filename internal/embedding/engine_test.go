package embedding

import (
	"math"
	"testing"

	engramErrors "github.com/engram-oss/engram/internal/errors"
)

func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestNormalize_UnitMagnitude(t *testing.T) {
	v := Normalize([]float32{3, 4})
	if got := magnitude(v); math.Abs(got-1.0) > 1e-6 {
		t.Errorf("expected magnitude 1.0, got %f", got)
	}
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("unexpected components: %v", v)
	}
}

func TestNormalize_ZeroVectorUnchanged(t *testing.T) {
	in := []float32{0, 0, 0}
	out := Normalize(in)
	if len(out) != 3 {
		t.Fatalf("expected length 3, got %d", len(out))
	}
	for i, x := range out {
		if x != 0 {
			t.Errorf("component %d changed: %f", i, x)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	v := Normalize([]float32{1, 2, 3, 4})
	again := Normalize(v)
	for i := range v {
		if math.Abs(float64(v[i]-again[i])) > 1e-6 {
			t.Fatalf("re-normalizing moved component %d: %f vs %f", i, v[i], again[i])
		}
	}
}

func TestCosineSimilarity_Symmetric(t *testing.T) {
	a := []float32{0.2, 0.5, 0.9, 0.1}
	b := []float32{0.7, 0.3, 0.4, 0.8}
	if ab, ba := CosineSimilarity(a, b), CosineSimilarity(b, a); math.Abs(ab-ba) > 1e-12 {
		t.Errorf("similarity not symmetric: %f vs %f", ab, ba)
	}
}

func TestCosineSimilarity_DegenerateInputs(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
	}{
		{"both empty", nil, nil},
		{"left empty", nil, []float32{1, 2}},
		{"right empty", []float32{1, 2}, nil},
		{"mismatched lengths", []float32{1, 2}, []float32{1, 2, 3}},
		{"zero magnitude left", []float32{0, 0}, []float32{1, 2}},
		{"zero magnitude right", []float32{1, 2}, []float32{0, 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CosineSimilarity(tc.a, tc.b); got != 0.0 {
				t.Errorf("expected 0.0, got %f", got)
			}
		})
	}
}

func TestCosineSimilarity_IdenticalAndOrthogonal(t *testing.T) {
	v := []float32{0.3, 0.6, 0.1}
	if got := CosineSimilarity(v, v); math.Abs(got-1.0) > 1e-6 {
		t.Errorf("identical vectors: expected 1.0, got %f", got)
	}
	if got := CosineSimilarity([]float32{1, 0}, []float32{0, 1}); math.Abs(got) > 1e-12 {
		t.Errorf("orthogonal vectors: expected 0.0, got %f", got)
	}
}

func TestNewEngine_DefaultsToFallback(t *testing.T) {
	eng, err := NewEngine(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if !eng.Ready() {
		t.Error("fallback engine should always be ready")
	}
	if eng.Dimension() != HashDimension {
		t.Errorf("expected dimension %d, got %d", HashDimension, eng.Dimension())
	}
}

func TestNewEngine_UnknownProvider(t *testing.T) {
	_, err := NewEngine(Config{Provider: "quantum"})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if engramErrors.AsCode(err) != engramErrors.CodeConfigInvalid {
		t.Errorf("expected CONFIG_INVALID, got %q", engramErrors.AsCode(err))
	}
}

func TestNewEngine_ONNXWithoutModel(t *testing.T) {
	// Whether or not onnx support is compiled in, a missing model must be
	// fatal at construction with ENGINE_UNAVAILABLE.
	_, err := NewEngine(Config{Provider: ProviderONNX})
	if err == nil {
		t.Fatal("expected construction to fail")
	}
	if engramErrors.AsCode(err) != engramErrors.CodeEngineUnavailable {
		t.Errorf("expected ENGINE_UNAVAILABLE, got %q", engramErrors.AsCode(err))
	}
}

func TestNewEngine_CacheWrap(t *testing.T) {
	eng, err := NewEngine(Config{CacheEntries: 64})
	if err != nil {
		t.Fatal(err)
	}
	cached, ok := eng.(*CachedEngine)
	if !ok {
		t.Fatalf("expected *CachedEngine, got %T", eng)
	}
	defer cached.Close()
	if cached.ModelName() != hashModelName {
		t.Errorf("cache should delegate ModelName, got %q", cached.ModelName())
	}
}
