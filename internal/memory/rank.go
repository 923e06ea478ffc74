package memory

import (
	"sort"
	"strings"

	"github.com/engram-oss/engram/internal/embedding"
)

// Ranking helpers shared by every store backend. Both the in-memory and
// SQLite stores scan their scoped records into memory and rank here, so the
// ordering contract cannot drift between drivers.

func sortNewestFirst(recs []*Record) {
	sort.Slice(recs, func(i, j int) bool {
		return newerThan(recs[i], recs[j])
	})
}

// newerThan orders by creation time descending, breaking exact ties by id so
// ordering stays deterministic across backends.
func newerThan(a, b *Record) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func pageRecords(recs []*Record, limit, offset int) []*Record {
	if offset > 0 {
		if offset >= len(recs) {
			return nil
		}
		recs = recs[offset:]
	}
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// searchRecords matches query case-insensitively against content and tags.
// Exact content matches rank ahead of everything else, then recency.
func searchRecords(recs []*Record, query string, limit int) []*Record {
	q := strings.ToLower(strings.TrimSpace(query))
	type hit struct {
		rec   *Record
		exact bool
	}
	var hits []hit
	for _, rec := range recs {
		content := strings.ToLower(rec.Content)
		match := strings.Contains(content, q)
		if !match {
			for _, tag := range rec.Tags {
				if strings.Contains(strings.ToLower(tag), q) {
					match = true
					break
				}
			}
		}
		if match {
			hits = append(hits, hit{rec: rec, exact: content == q})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].exact != hits[j].exact {
			return hits[i].exact
		}
		return newerThan(hits[i].rec, hits[j].rec)
	})
	out := make([]*Record, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.rec)
	}
	return pageRecords(out, limit, 0)
}

// searchRecordsByTags ranks by how many of the wanted tags each record
// carries, then by recency. Records with no matching tag are excluded.
func searchRecordsByTags(recs []*Record, tags []string, limit int) []*Record {
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			want[t] = true
		}
	}
	if len(want) == 0 {
		return nil
	}
	type hit struct {
		rec     *Record
		matches int
	}
	var hits []hit
	for _, rec := range recs {
		matches := 0
		for _, tag := range rec.Tags {
			if want[strings.ToLower(tag)] {
				matches++
			}
		}
		if matches > 0 {
			hits = append(hits, hit{rec: rec, matches: matches})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].matches != hits[j].matches {
			return hits[i].matches > hits[j].matches
		}
		return newerThan(hits[i].rec, hits[j].rec)
	})
	out := make([]*Record, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.rec)
	}
	return pageRecords(out, limit, 0)
}

// vectorSearchRecords ranks embedded records by cosine similarity to the
// query vector. Records without an embedding are skipped; a threshold > 0
// drops everything below it.
func vectorSearchRecords(recs []*Record, query []float32, limit int, threshold float64) []*Record {
	type hit struct {
		rec *Record
		sim float64
	}
	var hits []hit
	for _, rec := range recs {
		if len(rec.Embedding) == 0 {
			continue
		}
		sim := embedding.CosineSimilarity(query, rec.Embedding)
		if threshold > 0 && sim < threshold {
			continue
		}
		hits = append(hits, hit{rec: rec, sim: sim})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].sim != hits[j].sim {
			return hits[i].sim > hits[j].sim
		}
		return newerThan(hits[i].rec, hits[j].rec)
	})
	out := make([]*Record, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.rec)
	}
	return pageRecords(out, limit, 0)
}
