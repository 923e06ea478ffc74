// Package memory implements the semantic memory core: records, the store
// contract with its in-memory and SQLite backends, the compaction policy,
// and the manager facade callers use.
package memory

import (
	"strings"
	"time"
)

// Record is one memory item. The id is assigned at creation and never
// reassigned. The store owns the authoritative copy; everything handed to
// callers is a detached clone, so edits only take effect through Update.
type Record struct {
	ID             string         `json:"id"`
	Owner          string         `json:"owner,omitempty"`
	Content        string         `json:"content"`
	Tags           []string       `json:"tags,omitempty"`
	Embedding      []float32      `json:"embedding,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	AccessCount    int            `json:"access_count"`
	LastAccessedAt *time.Time     `json:"last_accessed_at,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Clone returns a detached copy. Tags, embedding, and the metadata map are
// copied one level deep.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.Tags != nil {
		out.Tags = make([]string, len(r.Tags))
		copy(out.Tags, r.Tags)
	}
	if r.Embedding != nil {
		out.Embedding = make([]float32, len(r.Embedding))
		copy(out.Embedding, r.Embedding)
	}
	if r.LastAccessedAt != nil {
		t := *r.LastAccessedAt
		out.LastAccessedAt = &t
	}
	if r.Metadata != nil {
		out.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}

// AgeDays reports how old the record is at now, in fractional days. Age is
// always derived from created_at, never stored.
func (r *Record) AgeDays(now time.Time) float64 {
	return now.Sub(r.CreatedAt).Hours() / 24
}

// MergeTags unions new tags into the record, preserving existing order and
// appending unseen tags in input order.
func (r *Record) MergeTags(tags []string) {
	if len(tags) == 0 {
		return
	}
	seen := make(map[string]bool, len(r.Tags))
	for _, t := range r.Tags {
		seen[t] = true
	}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		r.Tags = append(r.Tags, t)
	}
}

// MergeMetadata overlays new keys onto the record's metadata; existing keys
// are overwritten.
func (r *Record) MergeMetadata(meta map[string]any) {
	if len(meta) == 0 {
		return
	}
	if r.Metadata == nil {
		r.Metadata = make(map[string]any, len(meta))
	}
	for k, v := range meta {
		r.Metadata[k] = v
	}
}

// normalizeTags trims and dedupes tags, preserving first-seen order. The
// result is always a fresh slice.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
