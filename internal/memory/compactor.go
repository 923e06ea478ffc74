package memory

import (
	"sort"
	"time"

	"github.com/engram-oss/engram/internal/embedding"
	"github.com/engram-oss/engram/internal/telemetry"
)

// Compaction trigger names, in evaluation order.
const (
	TriggerSize        = "size"
	TriggerAge         = "age"
	TriggerDuplication = "duplication"
	TriggerRelevance   = "relevance"
)

// CompactionConfig tunes the four eviction triggers. The duplication
// sampling gate values are heuristics, kept configurable on purpose: a
// scope with sparse duplicates may never trip the gate, and that is the
// documented trade-off rather than a bug.
type CompactionConfig struct {
	// MaxMemories caps records per scope; the size trigger trims to 80%.
	MaxMemories int
	// MaxAgeDays evicts anything older.
	MaxAgeDays int
	// SimilarityThreshold marks a pair as duplicates when exceeded.
	SimilarityThreshold float64
	// LowAccessThreshold is the access-share floor for the relevance trigger.
	LowAccessThreshold float64
	// SampleSize is how many recent records duplication detection samples.
	SampleSize int
	// MinSample skips detection entirely below this many sampled records.
	MinSample int
	// PairRatio is the fraction of sampled pairs that must look duplicated
	// before the full scan runs.
	PairRatio float64
}

// DefaultCompactionConfig returns the standard tuning.
func DefaultCompactionConfig() CompactionConfig {
	return CompactionConfig{
		MaxMemories:         1000,
		MaxAgeDays:          90,
		SimilarityThreshold: 0.95,
		LowAccessThreshold:  0.1,
		SampleSize:          50,
		MinSample:           10,
		PairRatio:           0.2,
	}
}

// TriggerReport describes one trigger's action over a scope.
type TriggerReport struct {
	Trigger      string `json:"trigger"`
	RemovedCount int    `json:"removed_count"`
	BeforeCount  int    `json:"before_count"`
	AfterCount   int    `json:"after_count"`
}

// CompactionReport accumulates the trigger reports of one pass.
type CompactionReport struct {
	Owner          string          `json:"owner,omitempty"`
	Triggered      []TriggerReport `json:"triggered,omitempty"`
	TotalCompacted int             `json:"total_compacted"`
}

// Compactor applies the eviction policy to a store. It never errors for
// partial success: records it fails to delete are simply not counted, and
// the pass still reports what it did.
type Compactor struct {
	store  Store
	cfg    CompactionConfig
	logger *telemetry.Logger
}

// NewCompactor builds a compactor over store with the given tuning. Zero or
// negative tunables are replaced by defaults.
func NewCompactor(store Store, cfg CompactionConfig, logger *telemetry.Logger) *Compactor {
	def := DefaultCompactionConfig()
	if cfg.MaxMemories <= 0 {
		cfg.MaxMemories = def.MaxMemories
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = def.MaxAgeDays
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = def.SimilarityThreshold
	}
	if cfg.LowAccessThreshold <= 0 {
		cfg.LowAccessThreshold = def.LowAccessThreshold
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = def.SampleSize
	}
	if cfg.MinSample <= 0 {
		cfg.MinSample = def.MinSample
	}
	if cfg.PairRatio <= 0 {
		cfg.PairRatio = def.PairRatio
	}
	if logger == nil {
		logger = telemetry.NewLogger(false)
	}
	return &Compactor{store: store, cfg: cfg, logger: logger}
}

// CompactIfNeeded evaluates the four triggers in fixed order (size, age,
// duplication, relevance) and runs only the actions whose trigger fires.
// Each trigger sees the store as the previous action left it.
func (c *Compactor) CompactIfNeeded(owner string) (*CompactionReport, error) {
	report := &CompactionReport{Owner: owner}

	count, err := c.store.Count(owner)
	if err != nil {
		return report, err
	}
	if count > c.cfg.MaxMemories {
		tr, err := c.runSize(owner)
		if err != nil {
			return report, err
		}
		report.add(tr)
	}

	fires, err := c.ageTriggerFires(owner)
	if err != nil {
		return report, err
	}
	if fires {
		tr, err := c.runAge(owner)
		if err != nil {
			return report, err
		}
		report.add(tr)
	}

	fires, err = c.duplicationTriggerFires(owner)
	if err != nil {
		return report, err
	}
	if fires {
		tr, err := c.runDuplication(owner)
		if err != nil {
			return report, err
		}
		report.add(tr)
	}

	fires, err = c.relevanceTriggerFires(owner)
	if err != nil {
		return report, err
	}
	if fires {
		tr, err := c.runRelevance(owner)
		if err != nil {
			return report, err
		}
		report.add(tr)
	}

	if report.TotalCompacted > 0 {
		c.logger.Info("compaction removed records",
			"owner", owner, "removed", report.TotalCompacted, "triggers", len(report.Triggered))
	}
	return report, nil
}

// ForceCompact runs all four actions unconditionally, skipping the trigger
// checks. Used for manual cleanup and deterministic testing.
func (c *Compactor) ForceCompact(owner string) (*CompactionReport, error) {
	report := &CompactionReport{Owner: owner}
	for _, run := range []func(string) (TriggerReport, error){
		c.runSize, c.runAge, c.runDuplication, c.runRelevance,
	} {
		tr, err := run(owner)
		if err != nil {
			return report, err
		}
		report.add(tr)
	}
	return report, nil
}

func (r *CompactionReport) add(tr TriggerReport) {
	r.Triggered = append(r.Triggered, tr)
	r.TotalCompacted += tr.RemovedCount
}

// runSize trims the oldest records down to 80% of the cap. Already at or
// below the target is a no-op.
func (c *Compactor) runSize(owner string) (TriggerReport, error) {
	tr := TriggerReport{Trigger: TriggerSize}
	recs, err := c.store.List(owner, 0, 0)
	if err != nil {
		return tr, err
	}
	tr.BeforeCount = len(recs)
	tr.AfterCount = len(recs)

	target := c.cfg.MaxMemories * 4 / 5
	if len(recs) <= target {
		return tr, nil
	}

	sort.Slice(recs, func(i, j int) bool {
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})
	tr.RemovedCount = c.deleteAll(recs[:len(recs)-target])
	tr.AfterCount = tr.BeforeCount - tr.RemovedCount
	return tr, nil
}

func (c *Compactor) ageTriggerFires(owner string) (bool, error) {
	recs, err := c.store.List(owner, 0, 0)
	if err != nil {
		return false, err
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -c.cfg.MaxAgeDays)
	for _, rec := range recs {
		if rec.CreatedAt.Before(cutoff) {
			return true, nil
		}
	}
	return false, nil
}

// runAge deletes every record older than the cutoff, however many that is.
func (c *Compactor) runAge(owner string) (TriggerReport, error) {
	tr := TriggerReport{Trigger: TriggerAge}
	recs, err := c.store.List(owner, 0, 0)
	if err != nil {
		return tr, err
	}
	tr.BeforeCount = len(recs)

	cutoff := time.Now().UTC().AddDate(0, 0, -c.cfg.MaxAgeDays)
	var expired []*Record
	for _, rec := range recs {
		if rec.CreatedAt.Before(cutoff) {
			expired = append(expired, rec)
		}
	}
	tr.RemovedCount = c.deleteAll(expired)
	tr.AfterCount = tr.BeforeCount - tr.RemovedCount
	return tr, nil
}

// duplicationTriggerFires samples the most recent records and decides
// whether the expensive full scan is worth running.
func (c *Compactor) duplicationTriggerFires(owner string) (bool, error) {
	sample, err := c.store.List(owner, c.cfg.SampleSize, 0)
	if err != nil {
		return false, err
	}
	if len(sample) < c.cfg.MinSample {
		return false, nil
	}

	subSize := len(sample) / 4
	if subSize < 10 {
		subSize = 10
	}
	if subSize > len(sample) {
		subSize = len(sample)
	}
	sub := sample[:subSize]

	compared, above := 0, 0
	for i := 0; i < len(sub); i++ {
		if len(sub[i].Embedding) == 0 {
			continue
		}
		for j := i + 1; j < len(sub); j++ {
			if len(sub[j].Embedding) == 0 {
				continue
			}
			compared++
			if embedding.CosineSimilarity(sub[i].Embedding, sub[j].Embedding) > c.cfg.SimilarityThreshold {
				above++
			}
		}
	}
	if compared == 0 {
		return false, nil
	}
	return float64(above)/float64(compared) > c.cfg.PairRatio, nil
}

// runDuplication does the full pairwise scan over embedded records. For
// each duplicate pair the higher access count wins; ties keep the newer
// record. The processed set stops a record from being matched twice or
// removed twice.
func (c *Compactor) runDuplication(owner string) (TriggerReport, error) {
	tr := TriggerReport{Trigger: TriggerDuplication}
	all, err := c.store.List(owner, 0, 0)
	if err != nil {
		return tr, err
	}
	tr.BeforeCount = len(all)

	var recs []*Record
	for _, rec := range all {
		if len(rec.Embedding) > 0 {
			recs = append(recs, rec)
		}
	}

	processed := make(map[string]bool)
	var losers []*Record
	for i := 0; i < len(recs); i++ {
		if processed[recs[i].ID] {
			continue
		}
		for j := i + 1; j < len(recs); j++ {
			if processed[recs[j].ID] {
				continue
			}
			sim := embedding.CosineSimilarity(recs[i].Embedding, recs[j].Embedding)
			if sim <= c.cfg.SimilarityThreshold {
				continue
			}
			loser := pickLoser(recs[i], recs[j])
			processed[loser.ID] = true
			losers = append(losers, loser)
			if loser == recs[i] {
				break
			}
		}
	}
	tr.RemovedCount = c.deleteAll(losers)
	tr.AfterCount = tr.BeforeCount - tr.RemovedCount
	return tr, nil
}

// pickLoser returns the record to remove from a duplicate pair.
func pickLoser(a, b *Record) *Record {
	if a.AccessCount != b.AccessCount {
		if a.AccessCount > b.AccessCount {
			return b
		}
		return a
	}
	// Tie on access: keep the newer record.
	if a.CreatedAt.After(b.CreatedAt) {
		return b
	}
	return a
}

// relevanceTriggerFires when the scope is big enough and too many records
// sit below the access-share floor.
func (c *Compactor) relevanceTriggerFires(owner string) (bool, error) {
	recs, err := c.store.List(owner, 0, 0)
	if err != nil {
		return false, err
	}
	if len(recs) < 50 {
		return false, nil
	}

	total := 0
	for _, rec := range recs {
		total += rec.AccessCount
	}
	// A scope that was never read carries no access signal to rank by.
	// Treating every record as low-access would fire the trigger on each
	// pass and shave another 20% off an unchanged store.
	if total == 0 {
		return false, nil
	}
	low := 0
	for _, rec := range recs {
		if accessShare(rec.AccessCount, total) < c.cfg.LowAccessThreshold {
			low++
		}
	}
	return float64(low)/float64(len(recs)) > 0.3, nil
}

// runRelevance scores every record by blended access share and recency,
// then deletes the bottom 20%.
func (c *Compactor) runRelevance(owner string) (TriggerReport, error) {
	tr := TriggerReport{Trigger: TriggerRelevance}
	recs, err := c.store.List(owner, 0, 0)
	if err != nil {
		return tr, err
	}
	tr.BeforeCount = len(recs)
	tr.AfterCount = len(recs)

	removeN := len(recs) / 5
	if removeN == 0 {
		return tr, nil
	}

	total := 0
	for _, rec := range recs {
		total += rec.AccessCount
	}
	now := time.Now().UTC()
	scores := make(map[string]float64, len(recs))
	for _, rec := range recs {
		share := accessShare(rec.AccessCount, total)
		scores[rec.ID] = 0.7*share + 0.3*(1.0/(rec.AgeDays(now)+1.0))
	}
	sort.Slice(recs, func(i, j int) bool {
		return scores[recs[i].ID] < scores[recs[j].ID]
	})

	tr.RemovedCount = c.deleteAll(recs[:removeN])
	tr.AfterCount = tr.BeforeCount - tr.RemovedCount
	return tr, nil
}

// accessShare is count's fraction of the scope's total accesses. Callers
// must gate on total > 0; with no accesses there is no share to compare.
func accessShare(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(count) / float64(total)
}

// deleteAll removes the given records, counting only confirmed deletes. A
// record that vanished since the scan is an idempotent no-op, not an error.
func (c *Compactor) deleteAll(recs []*Record) int {
	removed := 0
	for _, rec := range recs {
		ok, err := c.store.Delete(rec.ID)
		if err != nil {
			c.logger.Warn("compaction delete failed", "id", rec.ID, "error", err)
			continue
		}
		if ok {
			removed++
		}
	}
	return removed
}
