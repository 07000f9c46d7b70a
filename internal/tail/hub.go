// Package tail fans freshly captured events out to live observers, such as
// websocket clients watching a recording as it happens.
package tail

import (
	"sync"

	"github.com/tomy27/input-recorder/internal/event"
)

// Sub is one subscriber's buffered view of the feed.
type Sub struct {
	hub *Hub
	id  int
	ch  chan event.Event
}

// Events is the subscriber's feed. It is closed when the Sub or the Hub
// closes.
func (s *Sub) Events() <-chan event.Event { return s.ch }

// Close detaches the subscriber. Safe to call twice.
func (s *Sub) Close() { s.hub.remove(s.id) }

// Hub is a fan-out of the event feed. Publish never blocks: a subscriber
// that cannot keep up loses events rather than stalling the recorder.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*Sub
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]*Sub)}
}

// Subscribe attaches a subscriber with the given channel buffer. On a
// closed hub the returned Sub's feed is already closed.
func (h *Hub) Subscribe(buffer int) *Sub {
	if buffer < 1 {
		buffer = 1
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	s := &Sub{hub: h, id: h.nextID, ch: make(chan event.Event, buffer)}
	h.nextID++
	if h.closed {
		close(s.ch)
		return s
	}
	h.subs[s.id] = s
	subscribers.Inc()
	return s
}

// Publish offers e to every subscriber, dropping it for any whose buffer
// is full.
func (h *Hub) Publish(e event.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs {
		select {
		case s.ch <- e:
		default:
			dropped.Inc()
		}
	}
}

// CloseAll ends every feed and rejects future subscribers.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, s := range h.subs {
		delete(h.subs, id)
		close(s.ch)
		subscribers.Dec()
	}
}

// Subscribers reports the number of attached subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(s.ch)
		subscribers.Dec()
	}
}
