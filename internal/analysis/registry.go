package analysis

import (
	"sync"
	"time"
)

// Event is one progress notification for an in-flight analysis.
type Event struct {
	Type      string    `json:"event"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// eventBufferSize bounds the per-analysis channel. A full buffer drops the
// oldest-pending semantics in favour of dropping the new event: delivery is
// best-effort and status polling remains the durable path.
const eventBufferSize = 128

// Registry holds the live event channel for each in-flight analysis. A
// channel exists from trigger (or first stream attach) until a terminal
// status is observed and the subscriber releases it.
type Registry struct {
	mu       sync.Mutex
	channels map[int64]chan Event
}

func NewRegistry() *Registry {
	return &Registry{channels: make(map[int64]chan Event)}
}

// Ensure returns the channel for the analysis, creating it if absent.
func (r *Registry) Ensure(analysisID int64) chan Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[analysisID]
	if !ok {
		ch = make(chan Event, eventBufferSize)
		r.channels[analysisID] = ch
	}
	return ch
}

// Lookup returns the channel for the analysis, if one exists.
func (r *Registry) Lookup(analysisID int64) (chan Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[analysisID]
	return ch, ok
}

// Remove drops the channel for the analysis.
func (r *Registry) Remove(analysisID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, analysisID)
}

// Publish delivers the event to the analysis channel without blocking.
// Returns false if no channel exists or the buffer is full.
func (r *Registry) Publish(analysisID int64, e Event) bool {
	r.mu.Lock()
	ch, ok := r.channels[analysisID]
	r.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case ch <- e:
		return true
	default:
		return false
	}
}

// Len reports the number of live channels. Used by tests and health checks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels)
}
