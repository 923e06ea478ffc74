//go:build onnx

package embedding

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPreprocess_CollapsesWhitespace(t *testing.T) {
	got := preprocess("  deploy\tthe   gateway\n\nblue/green  ")
	want := "deploy the gateway blue/green"
	if got != want {
		t.Errorf("preprocess = %q, want %q", got, want)
	}
}

func TestPreprocess_TruncatesLongInput(t *testing.T) {
	long := strings.Repeat("a", maxContentChars+100)
	got := preprocess(long)
	if len(got) != maxContentChars {
		t.Errorf("len = %d, want %d", len(got), maxContentChars)
	}
}

func TestPreprocess_TruncatesOnRuneBoundary(t *testing.T) {
	// Fill up to one byte short of the limit, then append a multi-byte
	// rune straddling the cut point.
	long := strings.Repeat("a", maxContentChars-1) + "日本語"
	got := preprocess(long)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated output is not valid UTF-8: %q", got[len(got)-8:])
	}
	if len(got) > maxContentChars {
		t.Errorf("len = %d exceeds limit %d", len(got), maxContentChars)
	}
	if !strings.HasSuffix(got, "a") {
		t.Errorf("expected the straddling rune to be dropped, got suffix %q", got[len(got)-4:])
	}
}
