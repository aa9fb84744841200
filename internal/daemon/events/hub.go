// Package events provides the in-process pub/sub hub the daemon uses to
// tell connected clients that persisted state changed.
package events

import (
	"sync"
	"time"
)

// Type names a kind of event.
type Type string

const (
	// StoreChanged is published when a store document was written, either by
	// a command or by another process editing the file.
	StoreChanged Type = "store_changed"
	// ConfigReload is published when scribe.yml or scribe.toml changed.
	ConfigReload Type = "config_reload"
)

// Event is a single notification. Name is the store or config file name.
type Event struct {
	Type   Type      `json:"event"`
	Name   string    `json:"name"`
	Source string    `json:"source,omitempty"` // "command" or "watcher"
	Time   time.Time `json:"time"`
}

// subscriberBuffer is the channel capacity per subscriber.
const subscriberBuffer = 100

// Hub fans events out to subscribers. It is safe for concurrent use.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	closed      bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Publish delivers e to every subscriber without blocking. Subscribers
// whose buffer is full miss the event.
func (h *Hub) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for ch := range h.subscribers {
		select {
		case ch <- e:
		default:
			// Non-blocking send to prevent slow clients from stalling the daemon
		}
	}
}

// StoreChanged publishes a StoreChanged event for name.
func (h *Hub) StoreChanged(name, source string) {
	h.Publish(Event{Type: StoreChanged, Name: name, Source: source})
}

// ConfigReloaded publishes a ConfigReload event for file.
func (h *Hub) ConfigReloaded(file string) {
	h.Publish(Event{Type: ConfigReload, Name: file, Source: "watcher"})
}

// Subscribe creates a new buffered subscription channel.
func (h *Hub) Subscribe() chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan Event, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch
	}
	h.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[ch]; !ok {
		return
	}
	delete(h.subscribers, ch)
	close(ch)
}

// Subscribers returns the number of active subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close closes every subscription. Later publishes are dropped.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = make(map[chan Event]struct{})
}
