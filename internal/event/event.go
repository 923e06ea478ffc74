package event

import "time"

// EventType identifies the kind of memory lifecycle event.
type EventType string

const (
	// Record lifecycle
	MemoryStored  EventType = "memory.stored"
	MemoryUpdated EventType = "memory.updated"
	MemoryDeleted EventType = "memory.deleted"

	// Query lifecycle
	MemorySearched EventType = "memory.searched"

	// Bulk operations
	MemoryImported EventType = "memory.imported"
	MemoryExported EventType = "memory.exported"

	// Maintenance
	CompactionCompleted EventType = "compaction.completed"
	StoreCleared        EventType = "store.cleared"
)

// Event carries data about a lifecycle occurrence.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(t EventType, data map[string]interface{}) Event {
	return Event{
		Type:      t,
		Timestamp: time.Now(),
		Data:      data,
	}
}
