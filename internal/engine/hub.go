package engine

import (
	"sync"
	"time"

	"stagelights/internal/dmx"
	"stagelights/internal/rig"
)

// Frame is what subscribers receive after every cycle.
type Frame struct {
	Universe int
	Time     time.Time
	Values   dmx.Universe
	Report   rig.Report
}

// Subscriber receives frames on C until it unsubscribes.
type Subscriber struct {
	id int
	C  chan Frame
}

// Hub fans frames out to subscribers. Slow subscribers miss frames, the
// publisher never blocks.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]*Subscriber
	nextID int
}

// NewHub returns a hub without subscribers.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]*Subscriber)}
}

// Subscribe registers a subscriber whose channel buffers size frames.
func (h *Hub) Subscribe(size int) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscriber{id: h.nextID, C: make(chan Frame, size)}
	h.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes sub and closes its channel. It is safe to call twice.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub.id]; !ok {
		return
	}
	delete(h.subs, sub.id)
	close(sub.C)
}

// Publish hands f to every subscriber with room in its buffer.
func (h *Hub) Publish(f Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		select {
		case sub.C <- f:
		default:
		}
	}
}

// Count returns the number of subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
