package memory

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	engramErrors "github.com/engram-oss/engram/internal/errors"
)

// SQLiteStore is the durable backend. It keeps the exact contract of the
// in-memory store, including Retrieve's access bookkeeping, so the two stay
// substitutable. Timestamps are stored as unix nanoseconds; tags, embedding,
// and metadata are JSON columns. Similarity and ranking run in Go over
// scanned rows, through the same helpers the in-memory store uses.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the SQLite database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, engramErrors.New(engramErrors.CodeConfigInvalid,
			"store.path is required for the sqlite driver")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, engramErrors.Wrap(engramErrors.CodeStoreUnavailable, "failed to create store directory", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, engramErrors.Wrap(engramErrors.CodeStoreUnavailable, "failed to open memory database", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, engramErrors.Wrap(engramErrors.CodeStoreUnavailable, "failed to migrate memory database", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		tags TEXT NOT NULL DEFAULT '[]',
		embedding TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		access_count INTEGER NOT NULL DEFAULT 0,
		last_accessed_at INTEGER,
		metadata TEXT NOT NULL DEFAULT '{}'
	);

	CREATE INDEX IF NOT EXISTS idx_memories_owner ON memories(owner);
	CREATE INDEX IF NOT EXISTS idx_memories_created ON memories(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Store inserts or overwrites by id.
func (s *SQLiteStore) Store(rec *Record) (bool, error) {
	if rec == nil || rec.ID == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tags, meta, emb, err := encodeColumns(rec)
	if err != nil {
		return false, err
	}
	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO memories
			(id, owner, content, tags, embedding, created_at, updated_at, access_count, last_accessed_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Owner, rec.Content, tags, emb,
		rec.CreatedAt.UnixNano(), rec.UpdatedAt.UnixNano(),
		rec.AccessCount, nullableNano(rec.LastAccessedAt), meta)
	if err != nil {
		return false, fmt.Errorf("insert memory: %w", err)
	}
	return true, nil
}

// Retrieve bumps access bookkeeping, then returns the updated record.
func (s *SQLiteStore) Retrieve(id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	res, err := s.db.Exec(`
		UPDATE memories SET access_count = access_count + 1, last_accessed_at = ? WHERE id = ?
	`, now.UnixNano(), id)
	if err != nil {
		return nil, fmt.Errorf("touch memory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	row := s.db.QueryRow(selectColumns+" FROM memories WHERE id = ?", id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// Update replaces an existing record; false when the id is unknown.
func (s *SQLiteStore) Update(rec *Record) (bool, error) {
	if rec == nil || rec.ID == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tags, meta, emb, err := encodeColumns(rec)
	if err != nil {
		return false, err
	}
	res, err := s.db.Exec(`
		UPDATE memories
		SET owner = ?, content = ?, tags = ?, embedding = ?, created_at = ?, updated_at = ?, access_count = ?, last_accessed_at = ?, metadata = ?
		WHERE id = ?
	`, rec.Owner, rec.Content, tags, emb,
		rec.CreatedAt.UnixNano(), rec.UpdatedAt.UnixNano(),
		rec.AccessCount, nullableNano(rec.LastAccessedAt), meta, rec.ID)
	if err != nil {
		return false, fmt.Errorf("update memory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes by id; false when the id is unknown.
func (s *SQLiteStore) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM memories WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete memory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// List returns scoped records newest-created-first, paged in SQL.
func (s *SQLiteStore) List(owner string, limit, offset int) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	if offset < 0 {
		offset = 0
	}
	var (
		rows *sql.Rows
		err  error
	)
	if owner == "" {
		rows, err = s.db.Query(selectColumns+`
			FROM memories ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?
		`, limit, offset)
	} else {
		rows, err = s.db.Query(selectColumns+`
			FROM memories WHERE owner = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?
		`, owner, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	return collectRows(rows)
}

// Search matches content and tags case-insensitively.
func (s *SQLiteStore) Search(query, owner string, limit int) ([]*Record, error) {
	recs, err := s.loadScoped(owner)
	if err != nil {
		return nil, err
	}
	return searchRecords(recs, query, limit), nil
}

// SearchByTags ranks scoped records by matching tag count.
func (s *SQLiteStore) SearchByTags(tags []string, owner string, limit int) ([]*Record, error) {
	recs, err := s.loadScoped(owner)
	if err != nil {
		return nil, err
	}
	return searchRecordsByTags(recs, tags, limit), nil
}

// VectorSearch scans embedded rows and ranks them in Go; SQLite has no
// native vector operations.
func (s *SQLiteStore) VectorSearch(embedding []float32, owner string, limit int, threshold float64) ([]*Record, error) {
	recs, err := s.loadScoped(owner)
	if err != nil {
		return nil, err
	}
	return vectorSearchRecords(recs, embedding, limit, threshold), nil
}

// Count reports how many records are in scope.
func (s *SQLiteStore) Count(owner string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	var err error
	if owner == "" {
		err = s.db.QueryRow("SELECT COUNT(*) FROM memories").Scan(&n)
	} else {
		err = s.db.QueryRow("SELECT COUNT(*) FROM memories WHERE owner = ?", owner).Scan(&n)
	}
	return n, err
}

// Clear removes every scoped record and reports how many were removed.
func (s *SQLiteStore) Clear(owner string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		res sql.Result
		err error
	)
	if owner == "" {
		res, err = s.db.Exec("DELETE FROM memories")
	} else {
		res, err = s.db.Exec("DELETE FROM memories WHERE owner = ?", owner)
	}
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// SupportsVectorSearch is true; similarity is computed in Go.
func (s *SQLiteStore) SupportsVectorSearch() bool {
	return true
}

// Stats summarizes the store for diagnostics.
func (s *SQLiteStore) Stats() (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total, embedded, owners int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM memories").Scan(&total); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM memories WHERE embedding IS NOT NULL").Scan(&embedded); err != nil {
		return nil, err
	}
	if err := s.db.QueryRow("SELECT COUNT(DISTINCT owner) FROM memories WHERE owner != ''").Scan(&owners); err != nil {
		return nil, err
	}
	return map[string]any{
		"driver":          DriverSQLite,
		"total_memories":  total,
		"owners":          owners,
		"with_embeddings": embedded,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) loadScoped(owner string) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		rows *sql.Rows
		err  error
	)
	if owner == "" {
		rows, err = s.db.Query(selectColumns + " FROM memories")
	} else {
		rows, err = s.db.Query(selectColumns+" FROM memories WHERE owner = ?", owner)
	}
	if err != nil {
		return nil, err
	}
	return collectRows(rows)
}

const selectColumns = `SELECT id, owner, content, tags, embedding, created_at, updated_at, access_count, last_accessed_at, metadata`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec          Record
		tagsJSON     string
		metaJSON     string
		embJSON      sql.NullString
		createdNano  int64
		updatedNano  int64
		accessedNano sql.NullInt64
	)
	err := row.Scan(&rec.ID, &rec.Owner, &rec.Content, &tagsJSON, &embJSON,
		&createdNano, &updatedNano, &rec.AccessCount, &accessedNano, &metaJSON)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = time.Unix(0, createdNano).UTC()
	rec.UpdatedAt = time.Unix(0, updatedNano).UTC()
	if accessedNano.Valid {
		t := time.Unix(0, accessedNano.Int64).UTC()
		rec.LastAccessedAt = &t
	}
	if tagsJSON != "" && tagsJSON != "[]" {
		if err := json.Unmarshal([]byte(tagsJSON), &rec.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	if embJSON.Valid && embJSON.String != "" {
		if err := json.Unmarshal([]byte(embJSON.String), &rec.Embedding); err != nil {
			return nil, fmt.Errorf("decode embedding: %w", err)
		}
	}
	if metaJSON != "" && metaJSON != "{}" {
		if err := json.Unmarshal([]byte(metaJSON), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return &rec, nil
}

func collectRows(rows *sql.Rows) ([]*Record, error) {
	defer rows.Close()
	var recs []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func encodeColumns(rec *Record) (tags, meta string, emb *string, err error) {
	tags = "[]"
	if len(rec.Tags) > 0 {
		b, err := json.Marshal(rec.Tags)
		if err != nil {
			return "", "", nil, fmt.Errorf("marshal tags: %w", err)
		}
		tags = string(b)
	}
	meta = "{}"
	if len(rec.Metadata) > 0 {
		b, err := json.Marshal(rec.Metadata)
		if err != nil {
			return "", "", nil, fmt.Errorf("marshal metadata: %w", err)
		}
		meta = string(b)
	}
	if len(rec.Embedding) > 0 {
		b, err := json.Marshal(rec.Embedding)
		if err != nil {
			return "", "", nil, fmt.Errorf("marshal embedding: %w", err)
		}
		s := string(b)
		emb = &s
	}
	return tags, meta, emb, nil
}

func nullableNano(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}
