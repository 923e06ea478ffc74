package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/engram-oss/engram/internal/memory"
)

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// printRecordsJSON prints records in their serialized map form.
func printRecordsJSON(recs []*memory.Record) error {
	maps := make([]map[string]interface{}, 0, len(recs))
	for _, rec := range recs {
		maps = append(maps, memory.RecordToMap(rec))
	}
	return printJSON(maps)
}

// printRecord prints one record with every populated field.
func printRecord(rec *memory.Record) {
	fmt.Printf("id:        %s\n", rec.ID)
	if rec.Owner != "" {
		fmt.Printf("owner:     %s\n", rec.Owner)
	}
	fmt.Printf("content:   %s\n", rec.Content)
	if len(rec.Tags) > 0 {
		fmt.Printf("tags:      %s\n", strings.Join(rec.Tags, ", "))
	}
	fmt.Printf("created:   %s\n", rec.CreatedAt.Format(time.RFC3339))
	if !rec.UpdatedAt.Equal(rec.CreatedAt) {
		fmt.Printf("updated:   %s\n", rec.UpdatedAt.Format(time.RFC3339))
	}
	if rec.AccessCount > 0 {
		last := ""
		if rec.LastAccessedAt != nil {
			last = fmt.Sprintf(" (last %s)", rec.LastAccessedAt.Format(time.RFC3339))
		}
		fmt.Printf("accessed:  %d times%s\n", rec.AccessCount, last)
	}
	if len(rec.Embedding) > 0 {
		fmt.Printf("embedding: %d dims\n", len(rec.Embedding))
	}
	if len(rec.Metadata) > 0 {
		fmt.Println("metadata:")
		keys := make([]string, 0, len(rec.Metadata))
		for k := range rec.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %s: %v\n", k, rec.Metadata[k])
		}
	}
}

// printRecordList prints a compact two-line summary per record.
func printRecordList(recs []*memory.Record) {
	for _, rec := range recs {
		fmt.Printf("%s  %s\n", shortID(rec.ID), firstLine(rec.Content, 72))
		detail := []string{ageString(rec.CreatedAt)}
		if rec.Owner != "" {
			detail = append(detail, "owner: "+rec.Owner)
		}
		if len(rec.Tags) > 0 {
			detail = append(detail, "tags: "+strings.Join(rec.Tags, ", "))
		}
		if rec.AccessCount > 0 {
			detail = append(detail, fmt.Sprintf("%d hits", rec.AccessCount))
		}
		fmt.Printf("          %s\n", strings.Join(detail, "  "))
	}
}

// shortID returns the first ID segment for display.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// firstLine truncates content to a single line of at most max runes.
func firstLine(s string, max int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max-1]) + "…"
	}
	return s
}

// ageString renders how long ago t was, coarsely.
func ageString(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// parseMetaFlags turns key=value pairs into a metadata map.
func parseMetaFlags(pairs []string) (map[string]interface{}, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --meta %q: expected key=value", pair)
		}
		meta[key] = value
	}
	return meta, nil
}
