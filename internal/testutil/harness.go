package testutil

import (
	"testing"

	"github.com/engram-oss/engram/internal/config"
	"github.com/engram-oss/engram/internal/embedding"
	"github.com/engram-oss/engram/internal/event"
	"github.com/engram-oss/engram/internal/memory"
	"github.com/engram-oss/engram/internal/telemetry"
)

// TestHarness provides everything needed for integration tests:
// a wired manager, event capture, and assertion helpers.
type TestHarness struct {
	T       *testing.T
	Config  *config.Config
	Manager *memory.Manager
	Bus     *event.Bus
	Logger  *telemetry.Logger
	Metrics *telemetry.Metrics
	Events  []event.Event // captured events
}

// NewTestHarness creates a harness over an in-memory store and the
// built-in hash engine, with auto-compaction off so counts stay exact.
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()
	return NewTestHarnessWithStore(t, memory.NewInMemoryStore())
}

// NewTestHarnessWithStore creates a harness over the given store.
func NewTestHarnessWithStore(t *testing.T, store memory.Store) *TestHarness {
	t.Helper()

	logger := TestLogger()
	bus := event.NewBus(logger)
	metrics := telemetry.NewMetrics()

	h := &TestHarness{
		T:       t,
		Config:  TestConfig(),
		Bus:     bus,
		Logger:  logger,
		Metrics: metrics,
		Events:  make([]event.Event, 0),
	}

	// Capture events via a blocking hook so assertions never race.
	bus.Register(&eventCapture{harness: h})

	mgr, err := memory.NewManager(store, embedding.NewHashEngine(), memory.ManagerOptions{
		DisableAutoCompact: true,
		Logger:             logger,
		Metrics:            metrics,
		Bus:                bus,
	})
	if err != nil {
		t.Fatal(err)
	}
	h.Manager = mgr
	t.Cleanup(func() { mgr.Close() })

	return h
}

// AssertEventEmitted checks that an event with the given type was emitted.
func (h *TestHarness) AssertEventEmitted(eventType event.EventType) {
	h.T.Helper()
	for _, e := range h.Events {
		if e.Type == eventType {
			return
		}
	}
	h.T.Errorf("expected event %q to be emitted", eventType)
}

// AssertNoEvent checks that an event type was NOT emitted.
func (h *TestHarness) AssertNoEvent(eventType event.EventType) {
	h.T.Helper()
	for _, e := range h.Events {
		if e.Type == eventType {
			h.T.Errorf("expected event %q NOT to be emitted, but it was", eventType)
			return
		}
	}
}

// EventCount returns the number of events with the given type.
func (h *TestHarness) EventCount(eventType event.EventType) int {
	count := 0
	for _, e := range h.Events {
		if e.Type == eventType {
			count++
		}
	}
	return count
}

// eventCapture is a blocking hook that records events.
type eventCapture struct {
	harness *TestHarness
}

func (c *eventCapture) Name() string                 { return "test-capture" }
func (c *eventCapture) Matches(event.EventType) bool { return true }
func (c *eventCapture) IsBlocking() bool             { return true }

func (c *eventCapture) Handle(ev event.Event) error {
	c.harness.Events = append(c.harness.Events, ev)
	return nil
}
