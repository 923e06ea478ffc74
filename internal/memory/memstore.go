package memory

import (
	"sync"
	"time"
)

// InMemoryStore is the reference backend: a single id->record map behind one
// mutex. Every public operation holds the lock for its whole duration, full
// scans included. That is deliberate: correctness of compound invariants
// (like Retrieve's access bookkeeping) over concurrency.
type InMemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*Record)}
}

// Store inserts or overwrites by id. A nil record or empty id is refused.
func (s *InMemoryStore) Store(rec *Record) (bool, error) {
	if rec == nil || rec.ID == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec.Clone()
	return true, nil
}

// Retrieve returns a detached copy, bumping access_count and
// last_accessed_at on the authoritative record first.
func (s *InMemoryStore) Retrieve(id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	rec.AccessCount++
	now := time.Now().UTC()
	rec.LastAccessedAt = &now
	return rec.Clone(), nil
}

// Update replaces an existing record; false when the id is unknown.
func (s *InMemoryStore) Update(rec *Record) (bool, error) {
	if rec == nil || rec.ID == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; !ok {
		return false, nil
	}
	s.records[rec.ID] = rec.Clone()
	return true, nil
}

// Delete removes by id; false when the id is unknown.
func (s *InMemoryStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return false, nil
	}
	delete(s.records, id)
	return true, nil
}

// List returns scoped records newest-created-first, paged.
func (s *InMemoryStore) List(owner string, limit, offset int) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.scoped(owner)
	sortNewestFirst(recs)
	return pageRecords(recs, limit, offset), nil
}

// Search matches content and tags case-insensitively.
func (s *InMemoryStore) Search(query, owner string, limit int) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return searchRecords(s.scoped(owner), query, limit), nil
}

// SearchByTags ranks scoped records by matching tag count.
func (s *InMemoryStore) SearchByTags(tags []string, owner string, limit int) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return searchRecordsByTags(s.scoped(owner), tags, limit), nil
}

// VectorSearch ranks embedded scoped records by cosine similarity.
func (s *InMemoryStore) VectorSearch(embedding []float32, owner string, limit int, threshold float64) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return vectorSearchRecords(s.scoped(owner), embedding, limit, threshold), nil
}

// Count reports how many records are in scope.
func (s *InMemoryStore) Count(owner string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner == "" {
		return len(s.records), nil
	}
	n := 0
	for _, rec := range s.records {
		if rec.Owner == owner {
			n++
		}
	}
	return n, nil
}

// Clear removes every scoped record and reports how many were removed.
func (s *InMemoryStore) Clear(owner string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner == "" {
		n := len(s.records)
		s.records = make(map[string]*Record)
		return n, nil
	}
	n := 0
	for id, rec := range s.records {
		if rec.Owner == owner {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

// SupportsVectorSearch is always true for the in-memory backend.
func (s *InMemoryStore) SupportsVectorSearch() bool {
	return true
}

// Stats summarizes the store for diagnostics.
func (s *InMemoryStore) Stats() (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owners := make(map[string]bool)
	embedded := 0
	for _, rec := range s.records {
		if rec.Owner != "" {
			owners[rec.Owner] = true
		}
		if len(rec.Embedding) > 0 {
			embedded++
		}
	}
	return map[string]any{
		"driver":          DriverMemory,
		"total_memories":  len(s.records),
		"owners":          len(owners),
		"with_embeddings": embedded,
	}, nil
}

// Close is a no-op for the in-memory backend.
func (s *InMemoryStore) Close() error {
	return nil
}

// scoped clones every record in scope. Caller must hold the lock. Clones
// keep the scan detached so ranked results can be returned directly.
func (s *InMemoryStore) scoped(owner string) []*Record {
	recs := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		if owner != "" && rec.Owner != owner {
			continue
		}
		recs = append(recs, rec.Clone())
	}
	return recs
}
