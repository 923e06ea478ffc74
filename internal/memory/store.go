package memory

import (
	engramErrors "github.com/engram-oss/engram/internal/errors"
)

// Store drivers selectable via config.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Store persists, lists, and searches records. An empty owner means
// unscoped. None of the methods take a context: every call blocks until it
// completes, and implementations serialize all operations behind one lock
// so compound invariants hold. Any backend must keep Retrieve's access
// bookkeeping side effect to remain substitutable.
type Store interface {
	// Store inserts or overwrites by id. False means the write was refused.
	Store(rec *Record) (bool, error)
	// Retrieve looks up by id, returning nil when absent. On a hit it
	// increments access_count and sets last_accessed_at before returning.
	Retrieve(id string) (*Record, error)
	// Update replaces an existing record; false when the id is unknown.
	Update(rec *Record) (bool, error)
	// Delete removes by id; false when the id is unknown.
	Delete(id string) (bool, error)
	// List returns records newest-created-first. limit <= 0 means all.
	List(owner string, limit, offset int) ([]*Record, error)
	// Search matches query case-insensitively against content and tags.
	// Exact content matches rank first, then descending recency.
	Search(query, owner string, limit int) ([]*Record, error)
	// SearchByTags ranks by matching tag count, then descending recency.
	SearchByTags(tags []string, owner string, limit int) ([]*Record, error)
	// VectorSearch ranks embedded records by cosine similarity to the
	// query vector, dropping results below threshold when threshold > 0.
	VectorSearch(embedding []float32, owner string, limit int, threshold float64) ([]*Record, error)
	// Count reports how many records are in scope.
	Count(owner string) (int, error)
	// Clear removes every record in scope and reports how many.
	Clear(owner string) (int, error)
	// SupportsVectorSearch reports whether VectorSearch is usable.
	SupportsVectorSearch() bool
	// Stats returns a diagnostic summary.
	Stats() (map[string]any, error)
	// Close releases backend resources.
	Close() error
}

// NewStore selects a backend by driver name. "memory" (or empty) is the
// in-memory reference store; "sqlite" persists to path.
func NewStore(driver, path string) (Store, error) {
	switch driver {
	case "", DriverMemory:
		return NewInMemoryStore(), nil
	case DriverSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, engramErrors.New(engramErrors.CodeConfigInvalid,
			"unknown store driver: "+driver).
			WithSuggestion("set store.driver to \"memory\" or \"sqlite\" in engram.yaml")
	}
}
