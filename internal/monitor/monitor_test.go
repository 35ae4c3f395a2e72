package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"signalwarden/internal/domain"
	"signalwarden/internal/prompt"
	"signalwarden/internal/repository"
)

// ============================================================================
// Fakes
// ============================================================================

// fakeScanner replays a fixed sequence of scan results.
type fakeScanner struct {
	mu      sync.Mutex
	results [][]domain.Observation
	errs    []error
	calls   int
}

func (f *fakeScanner) Name() string { return "fake" }

func (f *fakeScanner) Scan(ctx context.Context) ([]domain.Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.results) {
		return f.results[i], nil
	}
	return nil, nil
}

// fakeStore is an in-memory repository.Store with switchable failure.
type fakeStore struct {
	mu       sync.Mutex
	networks map[string]*domain.KnownNetwork
	failing  bool
}

var _ repository.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{networks: make(map[string]*domain.KnownNetwork)}
}

func (f *fakeStore) LoadAll(ctx context.Context) (map[string]*domain.KnownNetwork, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]*domain.KnownNetwork, len(f.networks))
	for id, n := range f.networks {
		c := *n
		out[id] = &c
	}
	return out, nil
}

func (f *fakeStore) Upsert(ctx context.Context, obs domain.Observation, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return domain.ErrStorageUnavailable
	}
	n, ok := f.networks[obs.Identifier]
	if !ok {
		f.networks[obs.Identifier] = &domain.KnownNetwork{
			Identifier: obs.Identifier, DisplayName: obs.DisplayName,
			FirstSeen: now, LastSeen: now, LastSignal: obs.Signal,
		}
		return nil
	}
	n.LastSeen = now
	n.LastSignal = obs.Signal
	return nil
}

func (f *fakeStore) SetLabel(ctx context.Context, identifier, label string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return domain.ErrStorageUnavailable
	}
	if n, ok := f.networks[identifier]; ok {
		n.CustomLabel = label
	}
	return nil
}

func (f *fakeStore) GetLabel(ctx context.Context, identifier string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n, ok := f.networks[identifier]; ok && n.CustomLabel != "" {
		return n.CustomLabel, true, nil
	}
	return "", false, nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) label(identifier string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n, ok := f.networks[identifier]; ok {
		return n.CustomLabel
	}
	return ""
}

// fakeAnnouncer records every announcement in order.
type fakeAnnouncer struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeAnnouncer) SpeakAndLog(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
}

func (f *fakeAnnouncer) Close() error { return nil }

func (f *fakeAnnouncer) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

// fakePrompter answers with a fixed label and signals when asked. When
// hold is set the prompt stays open until the channel closes.
type fakePrompter struct {
	label string
	asked chan string
	hold  chan struct{}
}

func (f *fakePrompter) PromptForLabel(ctx context.Context, displayName, identifier string) (string, error) {
	if f.asked != nil {
		f.asked <- identifier
	}
	if f.hold != nil {
		select {
		case <-f.hold:
		case <-ctx.Done():
			return "", nil
		}
	}
	return f.label, nil
}

// ============================================================================
// Helpers
// ============================================================================

func obs(id, name string, signal int) domain.Observation {
	return domain.Observation{Identifier: id, DisplayName: name, Signal: signal}
}

func newTestLoop(t *testing.T, sc *fakeScanner, store repository.Store, p prompt.Prompter, known map[string]*domain.KnownNetwork) (*Loop, *fakeAnnouncer) {
	t.Helper()
	if p == nil {
		p = prompt.Headless{}
	}
	ann := &fakeAnnouncer{}
	settings := DefaultSettings()
	settings.PromptTimeout = time.Second
	l := New(sc, store, ann, p, NewEventBus(), clock.NewMock(), settings, known)
	return l, ann
}

// ============================================================================
// Tests
// ============================================================================

func TestCycleAnnouncesChangesInOrder(t *testing.T) {
	sc := &fakeScanner{results: [][]domain.Observation{
		{obs("AA:1", "Home", 45), obs("BB:2", "", 85)},
	}}
	l, ann := newTestLoop(t, sc, newFakeStore(), nil, nil)

	l.runCycle(context.Background())

	// Startup is quiet; the announcements come from the diff, in scan order.
	got := ann.all()
	want := []string{
		"New device detected with signal strength 45%",
		"New device detected very close by with signal strength 85%",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d announcements, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("announcement %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSignalJumpAnnouncedAcrossCycles(t *testing.T) {
	sc := &fakeScanner{results: [][]domain.Observation{
		{obs("AA:1", "Home", 45)},
		{obs("AA:1", "Home", 70)},
	}}
	l, ann := newTestLoop(t, sc, newFakeStore(), nil, nil)

	ctx := context.Background()
	l.runCycle(ctx)
	l.runCycle(ctx)

	got := ann.all()
	last := got[len(got)-1]
	if last != "Device Home moving closer. Signal increased from 45% to 70%" {
		t.Fatalf("unexpected announcement: %q", last)
	}
}

func TestScanFailureSkipsCycleWithoutAdvancingState(t *testing.T) {
	sc := &fakeScanner{
		results: [][]domain.Observation{{obs("AA:1", "Home", 45)}, nil, {obs("AA:1", "Home", 45)}},
		errs:    []error{nil, domain.ErrScanFailed, nil},
	}
	l, ann := newTestLoop(t, sc, newFakeStore(), nil, nil)

	bus := l.bus
	failures := make(chan Event, 4)
	bus.Subscribe(failures)

	ctx := context.Background()
	l.runCycle(ctx) // appeared
	l.runCycle(ctx) // scan failure: no disappearance announcement
	l.runCycle(ctx) // network still known: silence

	got := ann.all()
	if len(got) != 1 {
		t.Fatalf("scan failure must not produce announcements: %v", got)
	}

	sawFailure := false
	for len(failures) > 0 {
		if ev := <-failures; ev.Type == EventScanFailed {
			sawFailure = true
		}
	}
	if !sawFailure {
		t.Fatal("expected a scan_failed event")
	}

	live, _ := l.Snapshot()
	if live["AA:1"] != 45 {
		t.Fatalf("state advanced despite scan failure: %v", live)
	}
}

func TestStoreFailureDegradesButLoopContinues(t *testing.T) {
	store := newFakeStore()
	store.failing = true

	sc := &fakeScanner{results: [][]domain.Observation{
		{obs("AA:1", "Home", 45)},
		{},
	}}
	l, ann := newTestLoop(t, sc, store, nil, nil)

	ctx := context.Background()
	l.runCycle(ctx)
	l.runCycle(ctx)

	got := ann.all()
	if len(got) != 2 {
		t.Fatalf("expected appear + disappear despite store failure, got %v", got)
	}
	if !strings.Contains(got[1], "moved out of range") {
		t.Fatalf("unexpected second announcement: %q", got[1])
	}

	// Cache-only operation still tracks the network.
	_, known := l.Snapshot()
	if _, ok := known["AA:1"]; !ok {
		t.Fatal("known cache lost the network in degraded mode")
	}
}

func TestDisappearedUsesPersistedLabel(t *testing.T) {
	known := map[string]*domain.KnownNetwork{
		"AA:1": {Identifier: "AA:1", DisplayName: "Home", CustomLabel: "neighbor phone"},
	}
	sc := &fakeScanner{results: [][]domain.Observation{
		{obs("AA:1", "Home", 45)},
		{},
	}}
	l, ann := newTestLoop(t, sc, newFakeStore(), nil, known)

	ctx := context.Background()
	l.runCycle(ctx)
	l.runCycle(ctx)

	got := ann.all()
	if got[0] != "Detected neighbor phone" {
		t.Fatalf("labeled network should be greeted, got %q", got[0])
	}
	if got[1] != "Device neighbor phone moved out of range" {
		t.Fatalf("unexpected disappearance announcement: %q", got[1])
	}
}

func TestBlockingPromptPersistsLabel(t *testing.T) {
	store := newFakeStore()
	sc := &fakeScanner{results: [][]domain.Observation{
		{obs("AA:1", "Home", 45)},
	}}
	l, ann := newTestLoop(t, sc, store, &fakePrompter{label: "upstairs AP"}, nil)

	settings := l.Settings()
	settings.PromptBlocks = true
	l.UpdateSettings(settings)

	l.runCycle(context.Background())

	if got := store.label("AA:1"); got != "upstairs AP" {
		t.Fatalf("label not persisted: %q", got)
	}

	got := ann.all()
	last := got[len(got)-1]
	if last != "Network named upstairs AP" {
		t.Fatalf("expected naming announcement, got %v", got)
	}
}

func TestAsyncPromptAppliedOnLaterCycle(t *testing.T) {
	store := newFakeStore()
	asked := make(chan string, 1)
	sc := &fakeScanner{results: [][]domain.Observation{
		{obs("AA:1", "Home", 45)},
	}}
	l, _ := newTestLoop(t, sc, store, &fakePrompter{label: "upstairs AP", asked: asked}, nil)

	ctx := context.Background()
	l.runCycle(ctx)

	select {
	case <-asked:
	case <-time.After(2 * time.Second):
		t.Fatal("prompt was never asked")
	}

	// The answer lands on the label channel shortly after the prompt
	// returns; later cycles pick it up.
	deadline := time.Now().Add(2 * time.Second)
	for l.labelFor("AA:1") == "" {
		if time.Now().After(deadline) {
			t.Fatal("label never applied")
		}
		l.runCycle(ctx)
		time.Sleep(time.Millisecond)
	}

	if got := store.label("AA:1"); got != "upstairs AP" {
		t.Fatalf("label not persisted: %q", got)
	}
}

func TestPromptNotRepeatedWhileOutstanding(t *testing.T) {
	asked := make(chan string, 8)
	// Scanner keeps reporting the same unknown network; prompter never
	// answers within the test.
	results := [][]domain.Observation{}
	for i := 0; i < 3; i++ {
		results = append(results, []domain.Observation{obs("AA:1", "Home", 45)})
	}
	hold := make(chan struct{})
	defer close(hold)
	blocked := &fakePrompter{label: "", asked: asked, hold: hold}
	l, _ := newTestLoop(t, &fakeScanner{results: results}, newFakeStore(), blocked, nil)

	ctx := context.Background()
	l.runCycle(ctx)
	l.runCycle(ctx)
	l.runCycle(ctx)

	select {
	case <-asked:
	case <-time.After(2 * time.Second):
		t.Fatal("prompt was never asked")
	}
	select {
	case id := <-asked:
		t.Fatalf("prompt repeated for %s while outstanding", id)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPersistedTimestampsUseInjectedClock(t *testing.T) {
	mock := clock.NewMock()
	t0 := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	mock.Set(t0)

	store := newFakeStore()
	sc := &fakeScanner{results: [][]domain.Observation{{obs("AA:1", "Home", 45)}}}
	l := New(sc, store, &fakeAnnouncer{}, prompt.Headless{}, NewEventBus(), mock, DefaultSettings(), nil)

	l.runCycle(context.Background())

	_, known := l.Snapshot()
	n, ok := known["AA:1"]
	if !ok {
		t.Fatal("network missing from cache")
	}
	if !n.FirstSeen.Equal(t0) || !n.LastSeen.Equal(t0) {
		t.Fatalf("cache timestamps not from injected clock: first=%v last=%v", n.FirstSeen, n.LastSeen)
	}

	records, err := store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec := records["AA:1"]; !rec.FirstSeen.Equal(t0) || !rec.LastSeen.Equal(t0) {
		t.Fatalf("store timestamps not from injected clock: %+v", rec)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	sc := &fakeScanner{}
	l, ann := newTestLoop(t, sc, newFakeStore(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- l.Run(ctx)
	}()

	// First cycle runs immediately; the mock clock then parks the loop
	// in Sleeping, where cancellation must end it.
	deadline := time.Now().Add(2 * time.Second)
	for len(ann.all()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("loop never started")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop on cancellation")
	}
}
