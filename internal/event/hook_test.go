package event

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestShellHook_Matches(t *testing.T) {
	hook := NewShellHook("test", "echo hi", []EventType{MemoryStored, MemoryDeleted}, false)

	if !hook.Matches(MemoryStored) {
		t.Error("should match MemoryStored")
	}
	if !hook.Matches(MemoryDeleted) {
		t.Error("should match MemoryDeleted")
	}
	if hook.Matches(CompactionCompleted) {
		t.Error("should not match CompactionCompleted")
	}
}

func TestShellHook_Execute(t *testing.T) {
	hook := NewShellHook("test", "true", []EventType{MemoryStored}, false)

	ev := NewEvent(MemoryStored, map[string]interface{}{"id": "a"})
	err := hook.Handle(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestShellHook_Failure(t *testing.T) {
	hook := NewShellHook("test", "false", []EventType{MemoryStored}, true)

	ev := NewEvent(MemoryStored, nil)
	err := hook.Handle(ev)
	if err == nil {
		t.Fatal("expected error from failed shell command")
	}
}

func TestShellHook_EnvironmentPassesEvent(t *testing.T) {
	out := filepath.Join(t.TempDir(), "captured.txt")
	hook := NewShellHook("env", `printf '%s' "$ENGRAM_EVENT_TYPE" > `+out, nil, true)

	if err := hook.Handle(NewEvent(MemoryUpdated, nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read capture file: %v", err)
	}
	if string(data) != string(MemoryUpdated) {
		t.Errorf("expected %q in ENGRAM_EVENT_TYPE, got %q", MemoryUpdated, data)
	}
}

func TestWebhookHook_Execute(t *testing.T) {
	var received struct {
		mu   sync.Mutex
		body []byte
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		received.mu.Lock()
		received.body = body
		received.mu.Unlock()
		w.WriteHeader(200)
	}))
	defer server.Close()

	hook := NewWebhookHook("test", server.URL, []EventType{CompactionCompleted}, true)
	ev := NewEvent(CompactionCompleted, map[string]interface{}{"removed": 4})
	err := hook.Handle(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	received.mu.Lock()
	defer received.mu.Unlock()

	var payload Event
	if err := json.Unmarshal(received.body, &payload); err != nil {
		t.Fatalf("failed to parse webhook payload: %v", err)
	}
	if payload.Type != CompactionCompleted {
		t.Errorf("expected CompactionCompleted, got %s", payload.Type)
	}
}

func TestWebhookHook_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer server.Close()

	hook := NewWebhookHook("test", server.URL, []EventType{MemoryImported}, true)
	err := hook.Handle(NewEvent(MemoryImported, nil))
	if err == nil {
		t.Fatal("expected error from 500 status")
	}
}

func TestFileHook_AppendsJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "events.jsonl")
	hook := NewFileHook("audit", path, nil, true)

	if err := hook.Handle(NewEvent(MemoryStored, map[string]interface{}{"id": "m1"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := hook.Handle(NewEvent(MemoryDeleted, map[string]interface{}{"id": "m1"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read audit file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var first Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("failed to parse first line: %v", err)
	}
	if first.Type != MemoryStored {
		t.Errorf("expected MemoryStored, got %s", first.Type)
	}
	if first.Data["id"] != "m1" {
		t.Errorf("expected id m1, got %v", first.Data["id"])
	}
}

func TestLogHook_Execute(t *testing.T) {
	logger := &testLogger{}
	hook := NewLogHook("test", []EventType{MemoryStored}, logger, "info")

	ev := NewEvent(MemoryStored, map[string]interface{}{"id": "a"})
	err := hook.Handle(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// LogHook with a FullLogger calls Info; testLogger implements FullLogger
	// so the warn path won't be used here.
}

func TestLogHook_AlwaysNonBlocking(t *testing.T) {
	hook := NewLogHook("test", nil, &testLogger{}, "debug")
	if hook.IsBlocking() {
		t.Error("log hook should always be non-blocking")
	}
}

func TestBaseHook_MatchesAll(t *testing.T) {
	h := &baseHook{name: "all", events: nil}
	if !h.Matches(MemoryStored) {
		t.Error("nil events should match everything")
	}
	if !h.Matches(StoreCleared) {
		t.Error("nil events should match everything")
	}
}

func TestBaseHook_MatchesNone(t *testing.T) {
	h := &baseHook{name: "specific", events: []EventType{CompactionCompleted}}
	if h.Matches(MemoryStored) {
		t.Error("should not match MemoryStored")
	}
}

func TestBuildHook_Types(t *testing.T) {
	cases := []struct {
		name string
		spec HookSpec
	}{
		{"shell", HookSpec{Name: "s", Type: "shell", Command: "true"}},
		{"webhook", HookSpec{Name: "w", Type: "webhook", URL: "http://localhost:0"}},
		{"file", HookSpec{Name: "f", Type: "file", Path: filepath.Join(t.TempDir(), "e.jsonl")}},
		{"log", HookSpec{Name: "l", Type: "log", Level: "debug"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, err := BuildHook(tc.spec, &testLogger{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if h.Name() != tc.spec.Name {
				t.Errorf("expected name %s, got %s", tc.spec.Name, h.Name())
			}
		})
	}
}

func TestBuildHook_EventFilter(t *testing.T) {
	spec := HookSpec{
		Name:   "filtered",
		Type:   "log",
		Events: []string{"memory.stored", "memory.deleted"},
	}
	h, err := BuildHook(spec, &testLogger{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !h.Matches(MemoryStored) {
		t.Error("should match memory.stored")
	}
	if h.Matches(CompactionCompleted) {
		t.Error("should not match compaction.completed")
	}
}

func TestBuildHook_Invalid(t *testing.T) {
	cases := []struct {
		name string
		spec HookSpec
	}{
		{"unknown type", HookSpec{Name: "x", Type: "smoke-signal"}},
		{"shell without command", HookSpec{Name: "x", Type: "shell"}},
		{"webhook without url", HookSpec{Name: "x", Type: "webhook"}},
		{"file without path", HookSpec{Name: "x", Type: "file"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := BuildHook(tc.spec, nil); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
