package cli

import (
	"strings"
	"testing"
	"time"
)

func TestParseMetaFlags(t *testing.T) {
	meta, err := parseMetaFlags([]string{"source=cli", "rev=3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta["source"] != "cli" || meta["rev"] != "3" {
		t.Errorf("unexpected metadata: %v", meta)
	}

	if _, err := parseMetaFlags([]string{"no-equals"}); err == nil {
		t.Error("expected error for pair without =")
	}
	if _, err := parseMetaFlags([]string{"=value"}); err == nil {
		t.Error("expected error for empty key")
	}

	meta, err = parseMetaFlags(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta != nil {
		t.Errorf("expected nil metadata for no flags, got %v", meta)
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("3f2a1b9c-0000-0000-0000-000000000000"); got != "3f2a1b9c" {
		t.Errorf("expected 3f2a1b9c, got %s", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Errorf("short ids should pass through, got %s", got)
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("one\ntwo", 80); got != "one" {
		t.Errorf("expected first line only, got %q", got)
	}
	long := strings.Repeat("x", 100)
	got := firstLine(long, 10)
	if len([]rune(got)) != 10 {
		t.Errorf("expected 10 runes, got %d", len([]rune(got)))
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("expected ellipsis, got %q", got)
	}
	if got := firstLine("short", 10); got != "short" {
		t.Errorf("expected untouched string, got %q", got)
	}
}

func TestAgeString(t *testing.T) {
	now := time.Now()
	tests := []struct {
		at   time.Time
		want string
	}{
		{now.Add(-10 * time.Second), "just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-50 * time.Hour), "2d ago"},
	}
	for _, tt := range tests {
		if got := ageString(tt.at); got != tt.want {
			t.Errorf("ageString(%v) = %q, want %q", tt.at, got, tt.want)
		}
	}
}
