// Package hub streams monitor events to SSE clients. This is the
// observational surface of the monitor: anything that would have gone to a
// tray icon shows up here instead.
package hub

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"signalwarden/internal/monitor"
)

// client is one connected SSE stream.
type client struct {
	id     string
	frames chan []byte
}

// Hub fans monitor events out to every connected SSE client. A slow client
// loses frames, never the connection, and never slows the monitor.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	events  chan monitor.Event
}

// New creates a Hub. Call Run on its own goroutine before broadcasting.
func New() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		events:  make(chan monitor.Event, 256),
	}
}

// Run delivers queued events. Runs for the life of the process.
func (h *Hub) Run() {
	for ev := range h.events {
		h.fanOut(ev)
	}
}

// Broadcast queues an event for delivery. Never blocks the caller.
func (h *Hub) Broadcast(ev monitor.Event) {
	select {
	case h.events <- ev:
	default:
		log.Println("Event channel full, dropping event")
	}
}

// fanOut renders one event as an SSE frame and offers it to every client.
func (h *Hub) fanOut(ev monitor.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", ev.Type, err)
		return
	}
	frame := []byte(fmt.Sprintf("data: %s\n\n", data))

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.frames <- frame:
		default:
			// Client buffer full; this frame is lost to it.
		}
	}
}

func (h *Hub) attach() *client {
	c := &client{
		id:     fmt.Sprintf("%d", time.Now().UnixNano()),
		frames: make(chan []byte, 64),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	log.Printf("SSE client connected: %s (total: %d)", c.id, total)
	return c
}

func (h *Hub) detach(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	total := len(h.clients)
	h.mu.Unlock()
	log.Printf("SSE client disconnected: %s (total: %d)", c.id, total)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles one SSE connection until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	c := h.attach()
	defer h.detach(c)

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case frame := <-c.frames:
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
