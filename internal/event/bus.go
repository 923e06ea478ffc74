package event

import (
	"fmt"
	"sync"
)

// Logger is the minimal logging surface the bus needs, kept local so the
// package does not depend on telemetry.
type Logger interface {
	Warn(msg string, keyvals ...interface{})
}

// Bus fans memory lifecycle events out to registered hooks. Blocking hooks
// run sequentially in registration order and their first failure surfaces
// to the caller; non-blocking hooks run in goroutines and only log. A nil
// *Bus is the supported "no hooks configured" sink: every method is a
// no-op, so callers never branch on bus presence.
type Bus struct {
	mu      sync.RWMutex
	hooks   []Hook
	enabled bool
	logger  Logger
}

// NewBus creates an enabled bus. A nil logger silences async failures.
func NewBus(logger Logger) *Bus {
	return &Bus{enabled: true, logger: logger}
}

// Register adds a hook to the dispatch list.
func (b *Bus) Register(h Hook) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks = append(b.hooks, h)
}

// SetEnabled turns dispatch on or off without dropping registrations.
func (b *Bus) SetEnabled(enabled bool) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = enabled
}

// Emit dispatches ev to every hook matching its type. It returns the first
// blocking hook failure; async hook failures are logged instead.
func (b *Bus) Emit(ev Event) error {
	for _, h := range b.matching(ev.Type) {
		if h.IsBlocking() {
			if err := b.dispatch(h, ev); err != nil {
				return fmt.Errorf("blocking hook %s failed: %w", h.Name(), err)
			}
			continue
		}
		go func(hook Hook) {
			if err := b.dispatch(hook, ev); err != nil && b.logger != nil {
				b.logger.Warn("Async hook failed",
					"hook", hook.Name(),
					"event", string(ev.Type),
					"error", err,
				)
			}
		}(h)
	}
	return nil
}

// matching snapshots the hooks interested in t, so no lock is held while
// hooks execute. A nil or disabled bus matches nothing.
func (b *Bus) matching(t EventType) []Hook {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.enabled {
		return nil
	}
	var out []Hook
	for _, h := range b.hooks {
		if h.Matches(t) {
			out = append(out, h)
		}
	}
	return out
}

// dispatch runs one hook, converting a panic into an error so a bad hook
// cannot take down the emitting operation.
func (b *Bus) dispatch(h Hook, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook panicked: %v", r)
		}
	}()
	return h.Handle(ev)
}
