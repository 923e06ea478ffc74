package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
)

// Hook processes memory lifecycle events.
type Hook interface {
	// Name returns the hook's identifier.
	Name() string
	// Matches returns true if the hook should handle this event type.
	Matches(t EventType) bool
	// IsBlocking returns true if execution should wait for this hook.
	IsBlocking() bool
	// Handle processes an event. For blocking hooks, an error stops execution.
	Handle(ev Event) error
}

// baseHook provides shared fields for all hook implementations.
type baseHook struct {
	name     string
	events   []EventType
	blocking bool
}

func (h *baseHook) Name() string     { return h.name }
func (h *baseHook) IsBlocking() bool { return h.blocking }
func (h *baseHook) Matches(t EventType) bool {
	if len(h.events) == 0 {
		return true // match all events if no filter specified
	}
	for _, ev := range h.events {
		if ev == t {
			return true
		}
	}
	return false
}

// ShellHook executes a shell command with event data in environment variables.
//
// Environment variables set:
//   - ENGRAM_EVENT_TYPE: the event type string
//   - ENGRAM_EVENT_JSON: JSON-encoded event data
type ShellHook struct {
	baseHook
	Command string
}

func NewShellHook(name, command string, events []EventType, blocking bool) *ShellHook {
	return &ShellHook{
		baseHook: baseHook{name: name, events: events, blocking: blocking},
		Command:  command,
	}
}

func (h *ShellHook) Handle(ev Event) error {
	eventJSON, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	cmd := exec.Command("sh", "-c", h.Command)
	cmd.Env = append(os.Environ(),
		"ENGRAM_EVENT_TYPE="+string(ev.Type),
		"ENGRAM_EVENT_JSON="+string(eventJSON),
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("shell hook %s failed: %w", h.name, err)
	}
	return nil
}

// WebhookHook sends an HTTP POST with event JSON to a URL.
type WebhookHook struct {
	baseHook
	URL     string
	Timeout time.Duration
}

func NewWebhookHook(name, url string, events []EventType, blocking bool) *WebhookHook {
	return &WebhookHook{
		baseHook: baseHook{name: name, events: events, blocking: blocking},
		URL:      url,
		Timeout:  10 * time.Second,
	}
}

func (h *WebhookHook) Handle(ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	client := &http.Client{Timeout: h.Timeout}
	resp, err := client.Post(h.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook %s failed: %w", h.name, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook %s returned status %d", h.name, resp.StatusCode)
	}
	return nil
}

// FileHook appends events to a file as JSONL, one event per line.
// Useful as an audit trail of what the memory layer did and when.
type FileHook struct {
	baseHook
	Path string
	mu   sync.Mutex
}

func NewFileHook(name, path string, events []EventType, blocking bool) *FileHook {
	return &FileHook{
		baseHook: baseHook{name: name, events: events, blocking: blocking},
		Path:     path,
	}
}

func (h *FileHook) Handle(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if dir := filepath.Dir(h.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("file hook %s failed: %w", h.name, err)
		}
	}
	f, err := os.OpenFile(h.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("file hook %s failed: %w", h.name, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("file hook %s failed: %w", h.name, err)
	}
	return nil
}

// LogHook logs events at the configured level. Always non-blocking.
type LogHook struct {
	baseHook
	logger Logger
	level  string // "debug", "info", "warn"
}

// FullLogger extends Logger with additional log levels for the LogHook.
type FullLogger interface {
	Logger
	Info(msg string, keyvals ...interface{})
	Debug(msg string, keyvals ...interface{})
}

func NewLogHook(name string, events []EventType, logger Logger, level string) *LogHook {
	if level == "" {
		level = "info"
	}
	return &LogHook{
		baseHook: baseHook{name: name, events: events, blocking: false},
		logger:   logger,
		level:    level,
	}
}

func (h *LogHook) Handle(ev Event) error {
	msg := fmt.Sprintf("[event] %s", ev.Type)
	keyvals := make([]interface{}, 0, len(ev.Data)*2+2)
	keyvals = append(keyvals, "event_type", string(ev.Type))
	for k, v := range ev.Data {
		keyvals = append(keyvals, k, v)
	}

	if fl, ok := h.logger.(FullLogger); ok {
		switch h.level {
		case "debug":
			fl.Debug(msg, keyvals...)
		case "warn":
			fl.Warn(msg, keyvals...)
		default:
			fl.Info(msg, keyvals...)
		}
	} else {
		// Fallback: use Warn since Logger only guarantees Warn.
		h.logger.Warn(msg, keyvals...)
	}
	return nil
}

// HookSpec describes a hook to construct, typically decoded from configuration.
type HookSpec struct {
	Name     string
	Type     string // shell, webhook, file, log
	Events   []string
	Blocking bool
	Command  string // shell hooks
	URL      string // webhook hooks
	Path     string // file hooks
	Level    string // log hooks
}

// BuildHook constructs a hook from its spec. Unknown types are an error.
func BuildHook(spec HookSpec, logger Logger) (Hook, error) {
	events := make([]EventType, 0, len(spec.Events))
	for _, e := range spec.Events {
		events = append(events, EventType(e))
	}

	switch spec.Type {
	case "shell":
		if spec.Command == "" {
			return nil, fmt.Errorf("shell hook %s requires a command", spec.Name)
		}
		return NewShellHook(spec.Name, spec.Command, events, spec.Blocking), nil
	case "webhook":
		if spec.URL == "" {
			return nil, fmt.Errorf("webhook hook %s requires a url", spec.Name)
		}
		return NewWebhookHook(spec.Name, spec.URL, events, spec.Blocking), nil
	case "file":
		if spec.Path == "" {
			return nil, fmt.Errorf("file hook %s requires a path", spec.Name)
		}
		return NewFileHook(spec.Name, spec.Path, events, spec.Blocking), nil
	case "log":
		return NewLogHook(spec.Name, events, logger, spec.Level), nil
	default:
		return nil, fmt.Errorf("unknown hook type %q for hook %s", spec.Type, spec.Name)
	}
}
