// Package handler exposes the read-only status API: the live access point
// set, the persisted network records, and basic loop health.
package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"time"

	"signalwarden/internal/detector"
	"signalwarden/internal/domain"
	"signalwarden/internal/monitor"
)

// Snapshotter provides the monitor's current view of the world.
type Snapshotter interface {
	Snapshot() (detector.State, map[string]domain.KnownNetwork)
	Settings() monitor.Settings
}

// StatusHandler handles status API requests
type StatusHandler struct {
	monitor Snapshotter
	backend string
	started time.Time
}

// NewStatusHandler creates a status handler for the given monitor.
func NewStatusHandler(monitor Snapshotter, backend string) *StatusHandler {
	return &StatusHandler{
		monitor: monitor,
		backend: backend,
		started: time.Now(),
	}
}

// networkView is one row of the networks listing.
type networkView struct {
	domain.KnownNetwork
	Live       bool `json:"live"`
	LiveSignal int  `json:"live_signal,omitempty"`
}

// GetNetworks returns every known network, flagged with live visibility.
func (h *StatusHandler) GetNetworks(w http.ResponseWriter, r *http.Request) {
	live, known := h.monitor.Snapshot()

	views := make([]networkView, 0, len(known))
	for id, n := range known {
		v := networkView{KnownNetwork: n}
		if signal, ok := live[id]; ok {
			v.Live = true
			v.LiveSignal = signal
		}
		views = append(views, v)
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].Identifier < views[j].Identifier
	})

	h.writeJSON(w, views, http.StatusOK)
}

// GetStatus returns loop health and the settings currently in effect.
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	live, known := h.monitor.Snapshot()
	settings := h.monitor.Settings()
	h.writeJSON(w, map[string]interface{}{
		"backend":         h.backend,
		"uptime_seconds":  int(time.Since(h.started).Seconds()),
		"live_networks":   len(live),
		"known_networks":  len(known),
		"scan_interval":   settings.Interval.String(),
		"signal_jump":     settings.SignalJump,
		"close_proximity": settings.CloseProximity,
	}, http.StatusOK)
}

func (h *StatusHandler) writeJSON(w http.ResponseWriter, v interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// Middleware wraps an http.Handler
type Middleware func(http.Handler) http.Handler

// Chain applies middleware in order
func Chain(h http.Handler, middleware ...Middleware) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}

// Recover turns handler panics into 500s instead of killing the process
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("Handler panic: %v", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Logger logs each request with its duration
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}
