package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	engramErrors "github.com/engram-oss/engram/internal/errors"
)

// RecordToMap flattens a record into a plain map for export. Timestamps are
// RFC 3339 in UTC with nanosecond precision. Empty optional fields (owner,
// embedding, last_accessed_at, metadata) are omitted; tags always serialize,
// even when empty, so importers see a stable shape.
func RecordToMap(rec *Record) map[string]interface{} {
	if rec == nil {
		return nil
	}
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	m := map[string]interface{}{
		"id":           rec.ID,
		"content":      rec.Content,
		"tags":         tags,
		"created_at":   rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at":   rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
		"access_count": rec.AccessCount,
	}
	if rec.Owner != "" {
		m["owner"] = rec.Owner
	}
	if len(rec.Embedding) > 0 {
		m["embedding"] = rec.Embedding
	}
	if rec.LastAccessedAt != nil {
		m["last_accessed_at"] = rec.LastAccessedAt.UTC().Format(time.RFC3339Nano)
	}
	if len(rec.Metadata) > 0 {
		m["metadata"] = rec.Metadata
	}
	return m
}

// RecordFromMap rebuilds a record from an exported map. Content is the only
// required field; a missing id gets a fresh one so exports from other systems
// can be pulled in. Any field that is present but the wrong shape makes the
// whole record malformed.
func RecordFromMap(m map[string]interface{}) (*Record, error) {
	if m == nil {
		return nil, engramErrors.New(engramErrors.CodeImportMalformed, "record is not an object")
	}

	content, ok := stringField(m, "content")
	if !ok || content == "" {
		return nil, engramErrors.New(engramErrors.CodeImportMalformed, "record is missing content")
	}

	rec := &Record{Content: content}

	id, ok := stringField(m, "id")
	if !ok {
		return nil, malformedField("id")
	}
	if id == "" {
		id = uuid.NewString()
	}
	rec.ID = id

	owner, ok := stringField(m, "owner")
	if !ok {
		return nil, malformedField("owner")
	}
	rec.Owner = owner

	tags, ok := stringSliceField(m, "tags")
	if !ok {
		return nil, malformedField("tags")
	}
	rec.Tags = normalizeTags(tags)

	emb, ok := float32SliceField(m, "embedding")
	if !ok {
		return nil, malformedField("embedding")
	}
	rec.Embedding = emb

	now := time.Now().UTC()
	created, ok := timeField(m, "created_at", now)
	if !ok {
		return nil, malformedField("created_at")
	}
	rec.CreatedAt = created

	updated, ok := timeField(m, "updated_at", created)
	if !ok {
		return nil, malformedField("updated_at")
	}
	if updated.Before(created) {
		updated = created
	}
	rec.UpdatedAt = updated

	if raw, present := m["last_accessed_at"]; present {
		s, isStr := raw.(string)
		if !isStr {
			return nil, malformedField("last_accessed_at")
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, malformedField("last_accessed_at")
		}
		t = t.UTC()
		rec.LastAccessedAt = &t
	}

	count, ok := intField(m, "access_count")
	if !ok {
		return nil, malformedField("access_count")
	}
	if count < 0 {
		count = 0
	}
	rec.AccessCount = count

	meta, ok := metadataField(m, "metadata")
	if !ok {
		return nil, malformedField("metadata")
	}
	rec.Metadata = meta

	return rec, nil
}

func malformedField(name string) error {
	return engramErrors.New(engramErrors.CodeImportMalformed,
		fmt.Sprintf("record field %q is malformed", name))
}

// stringField returns the field's value, or "" when absent. ok is false only
// when the field is present with a non-string value.
func stringField(m map[string]interface{}, key string) (string, bool) {
	raw, present := m[key]
	if !present {
		return "", true
	}
	s, isStr := raw.(string)
	return s, isStr
}

func stringSliceField(m map[string]interface{}, key string) ([]string, bool) {
	raw, present := m[key]
	if !present || raw == nil {
		return nil, true
	}
	switch v := raw.(type) {
	case []string:
		return v, true
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, isStr := item.(string)
			if !isStr {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func float32SliceField(m map[string]interface{}, key string) ([]float32, bool) {
	raw, present := m[key]
	if !present || raw == nil {
		return nil, true
	}
	switch v := raw.(type) {
	case []float32:
		out := make([]float32, len(v))
		copy(out, v)
		return out, true
	case []float64:
		out := make([]float32, len(v))
		for i, f := range v {
			out[i] = float32(f)
		}
		return out, true
	case []interface{}:
		out := make([]float32, 0, len(v))
		for _, item := range v {
			switch n := item.(type) {
			case float64:
				out = append(out, float32(n))
			case float32:
				out = append(out, n)
			case int:
				out = append(out, float32(n))
			default:
				return nil, false
			}
		}
		return out, true
	default:
		return nil, false
	}
}

// timeField parses an RFC 3339 timestamp, tolerating missing fractional
// seconds. Absent fields fall back to the given default.
func timeField(m map[string]interface{}, key string, fallback time.Time) (time.Time, bool) {
	raw, present := m[key]
	if !present {
		return fallback, true
	}
	s, isStr := raw.(string)
	if !isStr {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func intField(m map[string]interface{}, key string) (int, bool) {
	raw, present := m[key]
	if !present {
		return 0, true
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func metadataField(m map[string]interface{}, key string) (map[string]any, bool) {
	raw, present := m[key]
	if !present || raw == nil {
		return nil, true
	}
	switch v := raw.(type) {
	case map[string]any:
		if len(v) == 0 {
			return nil, true
		}
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = val
		}
		return out, true
	case map[string]string:
		if len(v) == 0 {
			return nil, true
		}
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = val
		}
		return out, true
	default:
		return nil, false
	}
}
