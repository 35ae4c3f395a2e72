// Package monitor drives the scan-diff-announce cycle: Scanning, Diffing,
// Announcing, Sleeping, repeated until cancelled. It owns the in-memory
// known-network state; every mutation happens on the loop goroutine, and
// the naming prompt hands its result back over a channel rather than
// touching shared state.
package monitor

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"signalwarden/internal/announce"
	"signalwarden/internal/detector"
	"signalwarden/internal/domain"
	"signalwarden/internal/policy"
	"signalwarden/internal/prompt"
	"signalwarden/internal/repository"
	"signalwarden/internal/scanner"
)

// Settings are the runtime knobs of the loop. They can be swapped while
// the loop runs (config hot-reload).
type Settings struct {
	// Interval between scan cycles (the Sleeping state).
	Interval time.Duration
	// ScanTimeout bounds one scanner call so a hung OS facility cannot
	// stall the loop.
	ScanTimeout time.Duration
	// SignalJump is the strict percentage-point threshold for
	// "moving closer" announcements.
	SignalJump int
	// CloseProximity is the signal above which a new network is
	// announced as very close.
	CloseProximity int
	// PromptTimeout bounds the wait for a naming prompt.
	PromptTimeout time.Duration
	// PromptBlocks makes the cycle wait for the prompt inline instead
	// of collecting the label on a later cycle.
	PromptBlocks bool
}

// DefaultSettings returns the stock thresholds and intervals.
func DefaultSettings() Settings {
	return Settings{
		Interval:       10 * time.Second,
		ScanTimeout:    15 * time.Second,
		SignalJump:     20,
		CloseProximity: 60,
		PromptTimeout:  45 * time.Second,
	}
}

// labelResult carries an async prompt answer back to the loop goroutine.
type labelResult struct {
	identifier string
	label      string
}

// Loop is the monitor state machine.
type Loop struct {
	scanner   scanner.Scanner
	store     repository.Store
	announcer announce.Announcer
	prompter  prompt.Prompter
	bus       *EventBus
	clock     clock.Clock

	mu       sync.Mutex
	settings Settings
	state    detector.State
	known    map[string]*domain.KnownNetwork

	labels   chan labelResult
	pending  map[string]bool
	degraded bool
}

// New creates a monitor loop. known is the store snapshot loaded at
// startup; it becomes the loop-owned cache.
func New(
	sc scanner.Scanner,
	store repository.Store,
	announcer announce.Announcer,
	prompter prompt.Prompter,
	bus *EventBus,
	clk clock.Clock,
	settings Settings,
	known map[string]*domain.KnownNetwork,
) *Loop {
	if known == nil {
		known = make(map[string]*domain.KnownNetwork)
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Loop{
		scanner:   sc,
		store:     store,
		announcer: announcer,
		prompter:  prompter,
		bus:       bus,
		clock:     clk,
		settings:  settings,
		state:     make(detector.State),
		known:     known,
		labels:    make(chan labelResult, 16),
		pending:   make(map[string]bool),
	}
}

// UpdateSettings swaps the runtime knobs; takes effect next cycle.
func (l *Loop) UpdateSettings(s Settings) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settings = s
	log.Printf("Monitor settings updated (interval=%s, signal_jump=%d, close_proximity=%d)",
		s.Interval, s.SignalJump, s.CloseProximity)
}

// Snapshot returns copies of the live state and the known-network cache
// for the status API.
func (l *Loop) Snapshot() (detector.State, map[string]domain.KnownNetwork) {
	l.mu.Lock()
	defer l.mu.Unlock()

	live := make(detector.State, len(l.state))
	for id, sig := range l.state {
		live[id] = sig
	}
	known := make(map[string]domain.KnownNetwork, len(l.known))
	for id, n := range l.known {
		known[id] = *n
	}
	return live, known
}

// Run executes cycles until ctx is cancelled. A cancellation during a
// cycle lets the cycle finish; during Sleeping it returns immediately.
func (l *Loop) Run(ctx context.Context) error {
	l.announcer.SpeakAndLog("Starting signal monitoring")

	for {
		l.runCycle(ctx)

		if ctx.Err() != nil {
			log.Printf("Monitor loop stopped")
			return ctx.Err()
		}

		interval := l.Settings().Interval
		select {
		case <-ctx.Done():
			log.Printf("Monitor loop stopped")
			return ctx.Err()
		case <-l.clock.After(interval):
		}
	}
}

// Settings returns the knobs currently in effect.
func (l *Loop) Settings() Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settings
}

// runCycle performs one Scanning -> Diffing -> Announcing pass. It never
// returns an error: every failure below the loop is either skipped
// (scan) or degrades (store).
func (l *Loop) runCycle(ctx context.Context) {
	settings := l.Settings()
	started := l.clock.Now()

	l.applyPendingLabels(ctx)

	// Scanning
	scanCtx, cancel := context.WithTimeout(ctx, settings.ScanTimeout)
	observations, err := l.scanner.Scan(scanCtx)
	cancel()
	if err != nil {
		// Transient: log, report, keep known-state untouched.
		log.Printf("Scan failed, skipping cycle: %v", err)
		l.bus.Publish(Event{Type: EventScanFailed, Payload: err.Error()})
		return
	}

	// Diffing
	l.mu.Lock()
	previous := l.state
	l.mu.Unlock()
	events := detector.Diff(previous, observations, settings.SignalJump)

	// Persist every observation; failures flip the loop into cache-only
	// operation but never stop it.
	now := l.clock.Now()
	for _, obs := range observations {
		l.persistObservation(ctx, obs, now)
	}

	// Announcing
	pol := policy.Policy{CloseProximity: settings.CloseProximity}
	for _, ev := range events {
		// Disappeared events are reconstructed from bare state; fill in
		// the remembered name so the announcement stays human.
		if ev.Kind == domain.EventDisappeared && ev.DisplayName == "" {
			l.mu.Lock()
			if n, ok := l.known[ev.Identifier]; ok {
				ev.DisplayName = n.DisplayName
			}
			l.mu.Unlock()
		}

		label := l.labelFor(ev.Identifier)

		message := pol.Render(ev, label)
		l.announcer.SpeakAndLog(message)
		l.bus.Publish(Event{Type: EventAnnouncement, Payload: Announcement{Message: message, Change: ev}})

		if ev.Kind == domain.EventAppeared && label == "" {
			l.requestLabel(ctx, ev, settings)
		}
	}

	// Advance the live state only after a successful scan.
	next := detector.UpdatedState(previous, observations)
	l.mu.Lock()
	l.state = next
	l.mu.Unlock()

	l.bus.Publish(Event{Type: EventCycleComplete, Payload: CycleStats{
		Observed: len(observations),
		Changes:  len(events),
		Duration: l.clock.Now().Sub(started),
	}})
}

// persistObservation writes one sighting through to the store and mirrors
// it into the loop cache. Store failure logs once per degradation and the
// cache keeps the loop serviceable.
func (l *Loop) persistObservation(ctx context.Context, obs domain.Observation, now time.Time) {
	if err := l.store.Upsert(ctx, obs, now); err != nil {
		if !l.degraded {
			l.degraded = true
			log.Printf("Store write failed, continuing cache-only: %v", err)
		}
	} else if l.degraded {
		l.degraded = false
		log.Printf("Store writes recovered")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	n, ok := l.known[obs.Identifier]
	if !ok {
		l.known[obs.Identifier] = &domain.KnownNetwork{
			Identifier:  obs.Identifier,
			DisplayName: obs.DisplayName,
			FirstSeen:   now,
			LastSeen:    now,
			LastSignal:  domain.ClampSignal(obs.Signal),
		}
		return
	}
	if obs.DisplayName != "" {
		n.DisplayName = obs.DisplayName
	}
	if now.After(n.LastSeen) {
		n.LastSeen = now
	}
	n.LastSignal = domain.ClampSignal(obs.Signal)
}

func (l *Loop) labelFor(identifier string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n, ok := l.known[identifier]; ok {
		return n.CustomLabel
	}
	return ""
}

// requestLabel asks the naming collaborator for a label. In async mode the
// prompt runs on its own goroutine and the answer is applied at the top of
// a later cycle; in blocking mode the cycle waits (original behavior).
func (l *Loop) requestLabel(ctx context.Context, ev domain.ChangeEvent, settings Settings) {
	if l.pending[ev.Identifier] {
		return
	}
	l.pending[ev.Identifier] = true

	ask := func() labelResult {
		pctx, cancel := context.WithTimeout(context.Background(), settings.PromptTimeout)
		defer cancel()
		label, err := l.prompter.PromptForLabel(pctx, ev.DisplayName, ev.Identifier)
		if err != nil {
			log.Printf("Naming prompt failed for %s: %v", ev.Identifier, err)
			label = ""
		}
		return labelResult{identifier: ev.Identifier, label: label}
	}

	if settings.PromptBlocks {
		l.applyLabel(ctx, ask())
		return
	}

	go func() {
		l.labels <- ask()
	}()
}

// applyPendingLabels drains answers from async prompts. Runs on the loop
// goroutine, so label writes are serialized with everything else.
func (l *Loop) applyPendingLabels(ctx context.Context) {
	for {
		select {
		case res := <-l.labels:
			l.applyLabel(ctx, res)
		default:
			return
		}
	}
}

func (l *Loop) applyLabel(ctx context.Context, res labelResult) {
	delete(l.pending, res.identifier)
	if res.label == "" {
		return
	}

	if err := l.store.SetLabel(ctx, res.identifier, res.label); err != nil {
		log.Printf("Failed to persist label for %s: %v", res.identifier, err)
		if !errors.Is(err, domain.ErrStorageUnavailable) {
			return
		}
		// Storage-unavailable still updates the cache so the session
		// keeps using the name.
	}

	l.mu.Lock()
	if n, ok := l.known[res.identifier]; ok {
		n.CustomLabel = res.label
	} else {
		l.known[res.identifier] = &domain.KnownNetwork{
			Identifier:  res.identifier,
			CustomLabel: res.label,
		}
	}
	l.mu.Unlock()

	message := "Network named " + res.label
	l.announcer.SpeakAndLog(message)
	l.bus.Publish(Event{Type: EventNetworkNamed, Payload: res.label})
}
