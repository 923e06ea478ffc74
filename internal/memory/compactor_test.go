package memory

import (
	"fmt"
	"testing"
	"time"
)

func newTestCompactor(t *testing.T, cfg CompactionConfig) (*Compactor, *InMemoryStore) {
	t.Helper()
	store := NewInMemoryStore()
	return NewCompactor(store, cfg, nil), store
}

func seedMany(t *testing.T, s Store, n int, build func(i int) *Record) []*Record {
	t.Helper()
	recs := make([]*Record, 0, n)
	for i := 0; i < n; i++ {
		rec := build(i)
		mustStore(t, s, rec)
		recs = append(recs, rec)
	}
	return recs
}

func TestCompactor_SizeTrigger(t *testing.T) {
	c, store := newTestCompactor(t, CompactionConfig{MaxMemories: 5})
	base := time.Now().UTC()
	seedMany(t, store, 7, func(i int) *Record {
		rec := seedRecord(fmt.Sprintf("m%d", i), "", "note")
		rec.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		return rec
	})

	report, err := c.CompactIfNeeded("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalCompacted != 3 {
		t.Fatalf("expected 3 removed, got %d", report.TotalCompacted)
	}
	if len(report.Triggered) != 1 || report.Triggered[0].Trigger != TriggerSize {
		t.Fatalf("triggered = %+v", report.Triggered)
	}
	if report.Triggered[0].BeforeCount != 7 || report.Triggered[0].AfterCount != 4 {
		t.Errorf("counts = %+v", report.Triggered[0])
	}

	// The oldest records are the ones that go.
	for _, id := range []string{"m0", "m1", "m2"} {
		if rec, _ := store.Retrieve(id); rec != nil {
			t.Errorf("expected %s to be removed", id)
		}
	}
	for _, id := range []string{"m3", "m4", "m5", "m6"} {
		if rec, _ := store.Retrieve(id); rec == nil {
			t.Errorf("expected %s to survive", id)
		}
	}
}

func TestCompactor_SizeTriggerNotFiredAtCap(t *testing.T) {
	c, store := newTestCompactor(t, CompactionConfig{MaxMemories: 5})
	seedMany(t, store, 5, func(i int) *Record {
		return seedRecord(fmt.Sprintf("m%d", i), "", "note")
	})

	report, err := c.CompactIfNeeded("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalCompacted != 0 {
		t.Fatalf("count at cap should not trigger, removed %d", report.TotalCompacted)
	}
	if n, _ := store.Count(""); n != 5 {
		t.Errorf("count = %d", n)
	}
}

func TestCompactor_AgeTrigger(t *testing.T) {
	c, store := newTestCompactor(t, CompactionConfig{MaxAgeDays: 30})
	now := time.Now().UTC()

	expired := seedRecord("expired", "", "backdated 31 days")
	expired.CreatedAt = now.AddDate(0, 0, -31)
	mustStore(t, store, expired)

	fresh := seedRecord("fresh", "", "backdated 29 days")
	fresh.CreatedAt = now.AddDate(0, 0, -29)
	mustStore(t, store, fresh)

	report, err := c.CompactIfNeeded("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalCompacted != 1 {
		t.Fatalf("expected 1 removed, got %d", report.TotalCompacted)
	}
	if len(report.Triggered) != 1 || report.Triggered[0].Trigger != TriggerAge {
		t.Fatalf("triggered = %+v", report.Triggered)
	}

	if rec, _ := store.Retrieve("expired"); rec != nil {
		t.Error("expired record should be removed")
	}
	if rec, _ := store.Retrieve("fresh"); rec == nil {
		t.Error("fresh record should survive")
	}
}

func TestCompactor_DuplicationSkipsSmallScope(t *testing.T) {
	c, store := newTestCompactor(t, CompactionConfig{})
	// Nine identical records: below the minimum sample, so detection never
	// runs even though every pair is a duplicate.
	seedMany(t, store, 9, func(i int) *Record {
		rec := seedRecord(fmt.Sprintf("m%d", i), "", "same thing")
		rec.Embedding = []float32{1, 0}
		return rec
	})

	report, err := c.CompactIfNeeded("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalCompacted != 0 {
		t.Fatalf("small scope should skip duplication, removed %d", report.TotalCompacted)
	}
}

func TestCompactor_DuplicationKeepsHigherAccess(t *testing.T) {
	c, store := newTestCompactor(t, CompactionConfig{})
	base := time.Now().UTC()
	seedMany(t, store, 12, func(i int) *Record {
		rec := seedRecord(fmt.Sprintf("m%d", i), "", "identical content")
		rec.CreatedAt = base.Add(time.Duration(i) * time.Second)
		rec.Embedding = []float32{0.6, 0.8}
		if i == 0 {
			rec.AccessCount = 5 // oldest, but the most used
		}
		return rec
	})

	report, err := c.CompactIfNeeded("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalCompacted != 11 {
		t.Fatalf("expected 11 removed, got %d", report.TotalCompacted)
	}
	if len(report.Triggered) != 1 || report.Triggered[0].Trigger != TriggerDuplication {
		t.Fatalf("triggered = %+v", report.Triggered)
	}

	survivor, _ := store.Retrieve("m0")
	if survivor == nil {
		t.Fatal("high-access record should win every duplicate pairing")
	}
	if n, _ := store.Count(""); n != 1 {
		t.Errorf("count = %d", n)
	}
}

func TestCompactor_DuplicationTieKeepsNewer(t *testing.T) {
	c, store := newTestCompactor(t, CompactionConfig{})
	base := time.Now().UTC()
	seedMany(t, store, 10, func(i int) *Record {
		rec := seedRecord(fmt.Sprintf("m%d", i), "", "identical content")
		rec.CreatedAt = base.Add(time.Duration(i) * time.Second)
		rec.Embedding = []float32{0, 1}
		return rec
	})

	if _, err := c.CompactIfNeeded(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// All access counts tie, so the newest record survives.
	survivor, _ := store.Retrieve("m9")
	if survivor == nil {
		t.Fatal("newest record should survive access-count ties")
	}
	if n, _ := store.Count(""); n != 1 {
		t.Errorf("count = %d", n)
	}
}

func TestCompactor_DuplicationIgnoresDistinctRecords(t *testing.T) {
	c, store := newTestCompactor(t, CompactionConfig{})
	// Twelve records with mutually orthogonal embeddings: detection
	// compares pairs but every similarity is zero, so it never fires.
	seedMany(t, store, 12, func(i int) *Record {
		rec := seedRecord(fmt.Sprintf("m%d", i), "", fmt.Sprintf("topic %d", i))
		vec := make([]float32, 12)
		vec[i] = 1
		rec.Embedding = vec
		return rec
	})

	report, err := c.CompactIfNeeded("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalCompacted != 0 {
		t.Fatalf("distinct records should not be deduplicated, removed %d", report.TotalCompacted)
	}
}

func TestCompactor_ForceCompactDedupesPair(t *testing.T) {
	c, store := newTestCompactor(t, CompactionConfig{})

	popular := seedRecord("popular", "", "how to rotate tls certificates")
	popular.Embedding = []float32{1, 0, 0}
	popular.AccessCount = 5
	mustStore(t, store, popular)

	copycat := seedRecord("copycat", "", "how to rotate tls certs")
	copycat.Embedding = []float32{0.999, 0.01, 0}
	copycat.AccessCount = 1
	mustStore(t, store, copycat)

	report, err := c.ForceCompact("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Triggered) != 4 {
		t.Fatalf("force compact should run all four actions, got %d", len(report.Triggered))
	}

	if rec, _ := store.Retrieve("popular"); rec == nil {
		t.Fatal("higher access count should be kept")
	}
	if rec, _ := store.Retrieve("copycat"); rec != nil {
		t.Fatal("lower access count should be removed")
	}
}

func TestCompactor_RelevanceSparesDominantRecord(t *testing.T) {
	c, store := newTestCompactor(t, CompactionConfig{})
	base := time.Now().UTC()

	dominant := seedRecord("dominant", "", "looked up constantly")
	dominant.CreatedAt = base
	dominant.AccessCount = 1000
	mustStore(t, store, dominant)

	seedMany(t, store, 49, func(i int) *Record {
		rec := seedRecord(fmt.Sprintf("m%d", i), "", "rarely used")
		rec.CreatedAt = base
		rec.AccessCount = 1
		return rec
	})

	report, err := c.CompactIfNeeded("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Triggered) != 1 || report.Triggered[0].Trigger != TriggerRelevance {
		t.Fatalf("triggered = %+v", report.Triggered)
	}
	if report.TotalCompacted != 10 {
		t.Fatalf("expected bottom 20%% of 50 = 10 removed, got %d", report.TotalCompacted)
	}

	if rec, _ := store.Retrieve("dominant"); rec == nil {
		t.Fatal("dominant record must never fall in the bottom set")
	}
	if n, _ := store.Count(""); n != 40 {
		t.Errorf("count = %d", n)
	}
}

func TestCompactor_RelevanceSkipsSmallScope(t *testing.T) {
	c, store := newTestCompactor(t, CompactionConfig{})
	seedMany(t, store, 49, func(i int) *Record {
		return seedRecord(fmt.Sprintf("m%d", i), "", "unread")
	})

	report, err := c.CompactIfNeeded("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalCompacted != 0 {
		t.Fatalf("scope below 50 should not fire relevance, removed %d", report.TotalCompacted)
	}
}

func TestCompactor_RelevanceIgnoresNeverReadScope(t *testing.T) {
	c, store := newTestCompactor(t, CompactionConfig{})
	seedMany(t, store, 100, func(i int) *Record {
		return seedRecord(fmt.Sprintf("m%d", i), "", "stored but never retrieved")
	})

	// With zero accesses across the scope there is no usage signal to
	// rank by, so neither pass may remove anything.
	for run := 1; run <= 2; run++ {
		report, err := c.CompactIfNeeded("")
		if err != nil {
			t.Fatalf("run %d: unexpected error: %v", run, err)
		}
		if report.TotalCompacted != 0 {
			t.Fatalf("run %d removed %d records from a never-read scope", run, report.TotalCompacted)
		}
	}
	if n, _ := store.Count(""); n != 100 {
		t.Errorf("count = %d, want 100", n)
	}
}

func TestCompactor_SecondRunRemovesNothing(t *testing.T) {
	c, store := newTestCompactor(t, CompactionConfig{MaxMemories: 5})
	base := time.Now().UTC()
	seedMany(t, store, 7, func(i int) *Record {
		rec := seedRecord(fmt.Sprintf("m%d", i), "", "note")
		rec.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		return rec
	})

	first, err := c.CompactIfNeeded("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.TotalCompacted == 0 {
		t.Fatal("first run should compact")
	}

	second, err := c.CompactIfNeeded("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.TotalCompacted != 0 {
		t.Fatalf("second run with no writes removed %d", second.TotalCompacted)
	}
}

func TestCompactor_ScopedToOwner(t *testing.T) {
	c, store := newTestCompactor(t, CompactionConfig{MaxMemories: 5})
	base := time.Now().UTC()
	seedMany(t, store, 7, func(i int) *Record {
		rec := seedRecord(fmt.Sprintf("a%d", i), "alice", "crowded scope")
		rec.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		return rec
	})
	seedMany(t, store, 3, func(i int) *Record {
		return seedRecord(fmt.Sprintf("b%d", i), "bob", "quiet scope")
	})

	report, err := c.CompactIfNeeded("alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.TotalCompacted != 3 {
		t.Fatalf("expected 3 removed from alice, got %d", report.TotalCompacted)
	}
	if n, _ := store.Count("bob"); n != 3 {
		t.Errorf("bob's scope should be untouched, count = %d", n)
	}
	if n, _ := store.Count("alice"); n != 4 {
		t.Errorf("alice count = %d", n)
	}
}

func TestCompactor_ZeroConfigGetsDefaults(t *testing.T) {
	c, _ := newTestCompactor(t, CompactionConfig{})
	def := DefaultCompactionConfig()
	if c.cfg != def {
		t.Errorf("cfg = %+v, want defaults %+v", c.cfg, def)
	}
}

func TestCompactor_ReportSerializesCleanly(t *testing.T) {
	report := &CompactionReport{Owner: "alice"}
	report.add(TriggerReport{Trigger: TriggerSize, RemovedCount: 2, BeforeCount: 7, AfterCount: 5})
	report.add(TriggerReport{Trigger: TriggerAge, RemovedCount: 1, BeforeCount: 5, AfterCount: 4})

	if report.TotalCompacted != 3 {
		t.Errorf("total = %d", report.TotalCompacted)
	}
	if len(report.Triggered) != 2 {
		t.Errorf("triggered = %d", len(report.Triggered))
	}
}
