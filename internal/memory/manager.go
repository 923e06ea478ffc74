package memory

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/engram-oss/engram/internal/embedding"
	engramErrors "github.com/engram-oss/engram/internal/errors"
	"github.com/engram-oss/engram/internal/event"
	"github.com/engram-oss/engram/internal/telemetry"
)

// Manager is the facade callers use: it composes the engine, the store, and
// the compactor into the public memory operations. Every mutating call runs
// the compaction triggers afterwards unless auto compaction is disabled.
type Manager struct {
	store       Store
	engine      embedding.Engine
	compactor   *Compactor
	autoCompact bool
	logger      *telemetry.Logger
	metrics     *telemetry.Metrics
	bus         *event.Bus
}

// ManagerOptions tunes a Manager. The zero value gives default compaction
// settings, auto compaction on, a non-verbose logger, and no event bus.
type ManagerOptions struct {
	Compaction         CompactionConfig
	DisableAutoCompact bool
	Logger             *telemetry.Logger
	Metrics            *telemetry.Metrics
	Bus                *event.Bus
}

// RememberOptions carries the optional attributes of a new memory.
type RememberOptions struct {
	Owner    string
	Tags     []string
	Metadata map[string]any
}

// UpdateOptions carries attributes merged into an updated memory. Tags are
// unioned with the existing set; metadata keys overwrite existing ones.
type UpdateOptions struct {
	Tags     []string
	Metadata map[string]any
}

// SearchOptions scopes and bounds a search. Limit <= 0 means no limit;
// Threshold <= 0 means no similarity floor.
type SearchOptions struct {
	Owner     string
	Limit     int
	Threshold float64
}

// NewManager wires a manager around the given store and engine.
func NewManager(store Store, engine embedding.Engine, opts ManagerOptions) (*Manager, error) {
	if store == nil {
		return nil, engramErrors.New(engramErrors.CodeConfigInvalid, "manager requires a store")
	}
	if engine == nil {
		return nil, engramErrors.New(engramErrors.CodeConfigInvalid, "manager requires an embedding engine")
	}

	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NewLogger(false)
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewMetrics()
	}

	return &Manager{
		store:       store,
		engine:      engine,
		compactor:   NewCompactor(store, opts.Compaction, logger),
		autoCompact: !opts.DisableAutoCompact,
		logger:      logger,
		metrics:     metrics,
		bus:         opts.Bus,
	}, nil
}

// Remember embeds content, persists a new record, and returns it. A refused
// write is fatal: a failed write leaves no record to recover.
func (m *Manager) Remember(content string, opts RememberOptions) (*Record, error) {
	vec, err := m.embed(content)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &Record{
		ID:        uuid.NewString(),
		Owner:     opts.Owner,
		Content:   content,
		Tags:      normalizeTags(opts.Tags),
		Embedding: vec,
		CreatedAt: now,
		UpdatedAt: now,
		Metadata:  opts.Metadata,
	}

	if err := m.persistNew(rec); err != nil {
		return nil, err
	}

	m.logger.Debug("Stored memory", "id", rec.ID, "owner", rec.Owner)
	m.emit(event.MemoryStored, map[string]interface{}{"id": rec.ID, "owner": rec.Owner})
	m.runAutoCompaction(opts.Owner)
	return rec, nil
}

// RememberBatch embeds all contents in one engine call to amortize inference
// cost, persists each record in input order, and compacts once at the end.
func (m *Manager) RememberBatch(contents []string, opts RememberOptions) ([]*Record, error) {
	if len(contents) == 0 {
		return nil, nil
	}

	vecs, err := m.embedBatch(contents)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(contents) {
		return nil, engramErrors.New(engramErrors.CodeEngineUnavailable,
			fmt.Sprintf("engine returned %d embeddings for %d texts", len(vecs), len(contents)))
	}

	now := time.Now().UTC()
	recs := make([]*Record, 0, len(contents))
	for i, content := range contents {
		rec := &Record{
			ID:        uuid.NewString(),
			Owner:     opts.Owner,
			Content:   content,
			Tags:      normalizeTags(opts.Tags),
			Embedding: vecs[i],
			CreatedAt: now,
			UpdatedAt: now,
			Metadata:  opts.Metadata,
		}
		if err := m.persistNew(rec); err != nil {
			return recs, err
		}
		m.emit(event.MemoryStored, map[string]interface{}{"id": rec.ID, "owner": rec.Owner})
		recs = append(recs, rec)
	}

	m.logger.Debug("Stored memory batch", "count", len(recs), "owner", opts.Owner)
	m.runAutoCompaction(opts.Owner)
	return recs, nil
}

// Get returns the record by id, or nil when absent. A hit bumps the
// record's access bookkeeping.
func (m *Manager) Get(id string) (*Record, error) {
	rec, err := m.store.Retrieve(id)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		m.metrics.IncMemoriesRetrieved()
	}
	return rec, nil
}

// Update re-embeds new content, merges tags and metadata into the existing
// record, and persists it. Returns false when the id is unknown.
func (m *Manager) Update(id, content string, opts UpdateOptions) (bool, error) {
	rec, err := m.store.Retrieve(id)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}

	vec, err := m.embed(content)
	if err != nil {
		return false, err
	}

	rec.Content = content
	rec.Embedding = vec
	rec.UpdatedAt = time.Now().UTC()
	rec.MergeTags(opts.Tags)
	rec.MergeMetadata(opts.Metadata)

	ok, err := m.store.Update(rec)
	if err != nil {
		return false, engramErrors.Wrap(engramErrors.CodeStoreWriteFailed, "failed to update memory", err)
	}
	if ok {
		m.logger.Debug("Updated memory", "id", id)
		m.emit(event.MemoryUpdated, map[string]interface{}{"id": id, "owner": rec.Owner})
		m.runAutoCompaction(rec.Owner)
	}
	return ok, nil
}

// Forget deletes the record by id. Returns false when the id is unknown.
func (m *Manager) Forget(id string) (bool, error) {
	ok, err := m.store.Delete(id)
	if err != nil {
		return false, err
	}
	if ok {
		m.metrics.IncMemoriesDeleted()
		m.logger.Debug("Deleted memory", "id", id)
		m.emit(event.MemoryDeleted, map[string]interface{}{"id": id})
	}
	return ok, nil
}

// Search embeds the query and runs a vector search when the store supports
// it, otherwise a text search. A query that cannot be embedded degrades to
// text search rather than failing the read.
func (m *Manager) Search(query string, opts SearchOptions) ([]*Record, error) {
	start := time.Now()

	var (
		recs []*Record
		err  error
	)
	if m.store.SupportsVectorSearch() {
		vec, embErr := m.embed(query)
		if embErr != nil {
			m.logger.Warn("Query embedding failed, falling back to text search", "error", embErr)
			recs, err = m.store.Search(query, opts.Owner, opts.Limit)
		} else {
			recs, err = m.store.VectorSearch(vec, opts.Owner, opts.Limit, opts.Threshold)
		}
	} else {
		recs, err = m.store.Search(query, opts.Owner, opts.Limit)
	}
	if err != nil {
		return nil, err
	}

	m.metrics.IncSearches()
	m.metrics.RecordSearchDuration(time.Since(start))
	m.emit(event.MemorySearched, map[string]interface{}{
		"query":        query,
		"owner":        opts.Owner,
		"limit":        opts.Limit,
		"threshold":    opts.Threshold,
		"result_count": len(recs),
	})
	return recs, nil
}

// SearchText runs a plain text search regardless of vector support.
func (m *Manager) SearchText(query string, opts SearchOptions) ([]*Record, error) {
	recs, err := m.store.Search(query, opts.Owner, opts.Limit)
	if err != nil {
		return nil, err
	}
	m.metrics.IncSearches()
	return recs, nil
}

// SearchByTags returns records ranked by how many of the given tags they
// carry.
func (m *Manager) SearchByTags(tags []string, opts SearchOptions) ([]*Record, error) {
	recs, err := m.store.SearchByTags(tags, opts.Owner, opts.Limit)
	if err != nil {
		return nil, err
	}
	m.metrics.IncSearches()
	return recs, nil
}

// List returns records newest-first.
func (m *Manager) List(owner string, limit, offset int) ([]*Record, error) {
	return m.store.List(owner, limit, offset)
}

// FindSimilar searches with the target record's stored embedding and drops
// the target itself from the results. The search is scoped to the target's
// owner. A record with no stored embedding has no neighbors.
func (m *Manager) FindSimilar(id string, limit int, threshold float64) ([]*Record, error) {
	rec, err := m.store.Retrieve(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, engramErrors.New(engramErrors.CodeNotFound, "memory not found: "+id)
	}
	if len(rec.Embedding) == 0 || !m.store.SupportsVectorSearch() {
		return nil, nil
	}

	// Ask for one extra result so the target's own slot doesn't eat into
	// the caller's limit.
	searchLimit := limit
	if searchLimit > 0 {
		searchLimit++
	}
	found, err := m.store.VectorSearch(rec.Embedding, rec.Owner, searchLimit, threshold)
	if err != nil {
		return nil, err
	}

	out := make([]*Record, 0, len(found))
	for _, r := range found {
		if r.ID == id {
			continue
		}
		out = append(out, r)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	m.metrics.IncSearches()
	return out, nil
}

// Count reports how many records are in scope.
func (m *Manager) Count(owner string) (int, error) {
	return m.store.Count(owner)
}

// Clear removes every record in scope and reports how many were removed.
func (m *Manager) Clear(owner string) (int, error) {
	n, err := m.store.Clear(owner)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.logger.Info("Cleared memories", "owner", owner, "removed", n)
		m.emit(event.StoreCleared, map[string]interface{}{"owner": owner, "removed": n})
	}
	return n, nil
}

// Export serializes every record in scope to the flat map format.
func (m *Manager) Export(owner string) ([]map[string]interface{}, error) {
	recs, err := m.store.List(owner, 0, 0)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(recs))
	for _, rec := range recs {
		out = append(out, RecordToMap(rec))
	}
	m.emit(event.MemoryExported, map[string]interface{}{"owner": owner, "count": len(out)})
	return out, nil
}

// Import stores records from the flat map format and returns how many were
// imported. Malformed records are skipped with a warning; a store failure is
// fatal and aborts the rest of the batch. Compaction runs once per distinct
// owner touched.
func (m *Manager) Import(items []map[string]interface{}) (int, error) {
	imported := 0
	owners := make(map[string]bool)

	for i, item := range items {
		rec, err := RecordFromMap(item)
		if err != nil {
			m.logger.Warn("Skipping malformed import record", "index", i, "error", err)
			continue
		}
		if err := m.persistNew(rec); err != nil {
			return imported, err
		}
		owners[rec.Owner] = true
		imported++
	}

	if imported > 0 {
		m.logger.Info("Imported memories", "count", imported, "skipped", len(items)-imported)
		m.emit(event.MemoryImported, map[string]interface{}{
			"count":   imported,
			"skipped": len(items) - imported,
		})
		for owner := range owners {
			m.runAutoCompaction(owner)
		}
	}
	return imported, nil
}

// CompactIfNeeded evaluates the compaction triggers for the scope and runs
// the actions for those that fire.
func (m *Manager) CompactIfNeeded(owner string) (*CompactionReport, error) {
	report, err := m.compactor.CompactIfNeeded(owner)
	if err != nil {
		return nil, err
	}
	m.finishCompaction(owner, report)
	return report, nil
}

// ForceCompact runs every compaction action unconditionally.
func (m *Manager) ForceCompact(owner string) (*CompactionReport, error) {
	report, err := m.compactor.ForceCompact(owner)
	if err != nil {
		return nil, err
	}
	m.finishCompaction(owner, report)
	return report, nil
}

// Stats aggregates diagnostics from the store, the engine, and the metrics
// counters.
func (m *Manager) Stats() (map[string]interface{}, error) {
	storeStats, err := m.store.Stats()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"store": storeStats,
		"engine": map[string]interface{}{
			"model":     m.engine.ModelName(),
			"dimension": m.engine.Dimension(),
			"ready":     m.engine.Ready(),
		},
		"metrics": m.metrics.GetSummary(),
	}, nil
}

// Healthy reports whether the store answers queries and the engine is ready.
func (m *Manager) Healthy() bool {
	if _, err := m.store.Count(""); err != nil {
		return false
	}
	return m.engine.Ready()
}

// Close releases the store and, when it holds resources, the engine.
func (m *Manager) Close() error {
	if c, ok := m.engine.(io.Closer); ok {
		if err := c.Close(); err != nil {
			m.logger.Warn("Failed to close embedding engine", "error", err)
		}
	}
	return m.store.Close()
}

// persistNew writes a record that must not be lost. Both an error and a
// refused write are fatal here.
func (m *Manager) persistNew(rec *Record) error {
	ok, err := m.store.Store(rec)
	if err != nil {
		return engramErrors.Wrap(engramErrors.CodeStoreWriteFailed, "failed to store memory", err)
	}
	if !ok {
		return engramErrors.New(engramErrors.CodeStoreWriteFailed, "store refused memory write")
	}
	m.metrics.IncMemoriesStored()
	return nil
}

func (m *Manager) embed(text string) ([]float32, error) {
	start := time.Now()
	m.metrics.IncEmbedCalls()
	vec, err := m.engine.Embed(text)
	if err != nil {
		m.metrics.IncEmbedErrors()
		return nil, err
	}
	m.metrics.RecordEmbedDuration(time.Since(start))
	return vec, nil
}

func (m *Manager) embedBatch(texts []string) ([][]float32, error) {
	start := time.Now()
	m.metrics.IncEmbedCalls()
	vecs, err := m.engine.EmbedBatch(texts)
	if err != nil {
		m.metrics.IncEmbedErrors()
		return nil, err
	}
	m.metrics.RecordEmbedDuration(time.Since(start))
	return vecs, nil
}

// runAutoCompaction runs the trigger evaluation after a mutation. Compaction
// problems are logged, never surfaced: the mutation itself already
// succeeded.
func (m *Manager) runAutoCompaction(owner string) {
	if !m.autoCompact {
		return
	}
	report, err := m.compactor.CompactIfNeeded(owner)
	if err != nil {
		m.logger.Warn("Auto compaction failed", "owner", owner, "error", err)
		return
	}
	m.finishCompaction(owner, report)
}

func (m *Manager) finishCompaction(owner string, report *CompactionReport) {
	if report == nil || report.TotalCompacted == 0 {
		return
	}
	m.metrics.AddRecordsCompacted(int64(report.TotalCompacted))
	m.emit(event.CompactionCompleted, map[string]interface{}{
		"owner":           owner,
		"total_compacted": report.TotalCompacted,
		"triggers":        len(report.Triggered),
	})
}

// emit dispatches an event if a bus is attached. A failed blocking hook is
// logged, never propagated into the memory operation that triggered it.
func (m *Manager) emit(t event.EventType, data map[string]interface{}) {
	if err := m.bus.Emit(event.NewEvent(t, data)); err != nil {
		m.logger.Warn("Event hook failed", "event", string(t), "error", err)
	}
}
