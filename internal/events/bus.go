// Package events provides a lightweight in-process pub-sub bus used to make
// sync state observable to collaborators (UI, notification scheduling)
// without the sync core calling into them directly.
package events

import (
	"sync"

	"github.com/reelfocus/reelfocus/internal/model"
)

// Kind is the type of a domain event published by the sync core.
type Kind string

const (
	// EventSyncCompleted fires after a full sync finished all its steps.
	EventSyncCompleted Kind = "sync_completed"
	// EventSyncFailed fires when a full sync aborted on a hard failure.
	EventSyncFailed Kind = "sync_failed"
	// EventEntitiesChanged fires when local entities of a family changed,
	// whether by user action or by a reconcile pass.
	EventEntitiesChanged Kind = "entities_changed"
)

// Event carries the minimum data collaborators need; they can query the
// stores for full records.
type Event struct {
	Kind   Kind
	Family model.Kind // set for EventEntitiesChanged
	Err    string     // set for EventSyncFailed
}

// Bus fans events out to every subscriber over buffered channels.
// Publish never blocks: a subscriber that falls behind misses events.
type Bus struct {
	mu     sync.Mutex
	subs   []chan Event
	buffer int
}

// NewBus creates a bus whose subscriber channels hold buffer events.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 16
	}
	return &Bus{buffer: buffer}
}

// Publish delivers evt to every subscriber that has buffer space.
// It reports whether all subscribers received the event.
func (b *Bus) Publish(evt Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	all := true
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			all = false
		}
	}
	return all
}

// Subscribe returns a read-only channel receiving future events.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, b.buffer)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}
