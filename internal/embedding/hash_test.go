package embedding

import (
	"math"
	"testing"
)

func TestHashEngine_Deterministic(t *testing.T) {
	eng := NewHashEngine()
	a, err := eng.Embed("the user prefers dark mode")
	if err != nil {
		t.Fatal(err)
	}
	b, err := eng.Embed("the user prefers dark mode")
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("component %d differs: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestHashEngine_UnitLength(t *testing.T) {
	eng := NewHashEngine()
	for _, text := range []string{"hello", "a much longer sentence with many words in it", "", "x"} {
		vec, err := eng.Embed(text)
		if err != nil {
			t.Fatal(err)
		}
		if got := magnitude(vec); math.Abs(got-1.0) > 1e-5 {
			t.Errorf("text %q: expected unit magnitude, got %f", text, got)
		}
	}
}

func TestHashEngine_Dimension(t *testing.T) {
	eng := NewHashEngine()
	if eng.Dimension() != 128 {
		t.Fatalf("expected dimension 128, got %d", eng.Dimension())
	}
	vec, err := eng.Embed("check length")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 128 {
		t.Errorf("expected 128 components, got %d", len(vec))
	}
}

func TestHashEngine_DistinctTexts(t *testing.T) {
	eng := NewHashEngine()
	a, _ := eng.Embed("alpha")
	b, _ := eng.Embed("omega")
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("distinct texts produced identical vectors")
	}
}

func TestHashEngine_RelatedTextsScoreHigher(t *testing.T) {
	eng := NewHashEngine()
	a, _ := eng.Embed("i love writing go code")
	b, _ := eng.Embed("i enjoy writing go code")
	c, _ := eng.Embed("rain tomorrow across the coast")

	related := CosineSimilarity(a, b)
	unrelated := CosineSimilarity(a, c)
	if related <= unrelated {
		t.Errorf("expected related texts to score higher: related=%f unrelated=%f", related, unrelated)
	}
}

func TestHashEngine_EmbedBatch(t *testing.T) {
	eng := NewHashEngine()
	texts := []string{"first", "second", "third"}
	batch, err := eng.EmbedBatch(texts)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(batch))
	}
	for i, text := range texts {
		single, _ := eng.Embed(text)
		for j := range single {
			if batch[i][j] != single[j] {
				t.Fatalf("batch vector %d differs from single embed at component %d", i, j)
			}
		}
	}
}

func TestHashEngine_Identity(t *testing.T) {
	eng := NewHashEngine()
	if !eng.Ready() {
		t.Error("hash engine should always be ready")
	}
	if eng.ModelName() == "" {
		t.Error("model name should not be empty")
	}
}
