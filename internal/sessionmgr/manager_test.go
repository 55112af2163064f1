package sessionmgr

import (
	"context"
	"testing"
	"time"

	"github.com/trybotster/ganglion-bridge/internal/apps"
	"github.com/trybotster/ganglion-bridge/internal/session"
)

func newEmptyRegistry() *apps.Registry { return apps.NewRegistry() }

// fakeSession is a minimal session.Session double for exercising CloseAll's
// fan-out without spawning real processes.
type fakeSession struct {
	id       string
	closeGap time.Duration
	done     chan struct{}
	hang     bool
}

func newFakeSession(id string, closeGap time.Duration) *fakeSession {
	return &fakeSession{id: id, closeGap: closeGap, done: make(chan struct{})}
}

func (f *fakeSession) Open(ctx context.Context, width, height int) error { return nil }
func (f *fakeSession) Start(c session.Connector)                         {}

func (f *fakeSession) Close() {
	if f.hang {
		return // never signals done, to exercise the unclosed-count path
	}
	go func() {
		time.Sleep(f.closeGap)
		close(f.done)
	}()
}

func (f *fakeSession) Wait()                                         { <-f.done }
func (f *fakeSession) SendBytes(data []byte) bool                    { return true }
func (f *fakeSession) SendMeta(meta map[string]any) bool             { return true }
func (f *fakeSession) SetTerminalSize(ctx context.Context, w, h int) {}
func (f *fakeSession) SessionID() string                             { return f.id }
func (f *fakeSession) State() session.State                          { return session.Running }

func TestTwoWayMapBijection(t *testing.T) {
	m := newTwoWayMap()
	m.set("R1", "S1")
	m.set("R2", "S2")

	if got, _ := m.getBySessionID("S1"); got != "R1" {
		t.Fatalf("got %q", got)
	}
	if got, _ := m.getByRouteKey("R2"); got != "S2" {
		t.Fatalf("got %q", got)
	}
	if m.len() != 2 {
		t.Fatalf("expected 2 entries, got %d", m.len())
	}

	m.deleteBySessionID("S1")
	if _, ok := m.getBySessionID("S1"); ok {
		t.Fatal("expected S1 removed from reverse map")
	}
	if _, ok := m.getByRouteKey("R1"); ok {
		t.Fatal("expected R1 removed from forward map")
	}
	if m.len() != 1 {
		t.Fatalf("expected 1 entry remaining, got %d", m.len())
	}
}

func TestDeleteBySessionIDIsIdempotent(t *testing.T) {
	m := newTwoWayMap()
	m.set("R1", "S1")
	m.deleteBySessionID("S1")
	m.deleteBySessionID("S1") // must not panic or corrupt state
	if m.len() != 0 {
		t.Fatalf("expected empty map, got %d entries", m.len())
	}
}

func TestNewSessionUnknownSlugReturnsNil(t *testing.T) {
	mgr := New(newEmptyRegistry(), nil, nil)
	s, err := mgr.NewSession(nil, "missing", "S1", "R1", false, 80, 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != nil {
		t.Fatalf("expected nil session for unknown slug, got %v", s)
	}
}

func TestCloseAllConvergesWhenEverySessionCloses(t *testing.T) {
	mgr := New(newEmptyRegistry(), nil, nil)
	for i := 0; i < 5; i++ {
		s := newFakeSession(string(rune('A'+i)), 5*time.Millisecond)
		mgr.mu.Lock()
		mgr.sessions[s.id] = s
		mgr.mu.Unlock()
	}

	unclosed := mgr.CloseAll(context.Background(), time.Second)
	if unclosed != 0 {
		t.Fatalf("expected every session to close within budget, %d did not", unclosed)
	}
}

func TestCloseAllReportsSessionsPastBudget(t *testing.T) {
	mgr := New(newEmptyRegistry(), nil, nil)
	hung := &fakeSession{id: "hung", hang: true, done: make(chan struct{})}
	fast := newFakeSession("fast", 0)
	mgr.mu.Lock()
	mgr.sessions[hung.id] = hung
	mgr.sessions[fast.id] = fast
	mgr.mu.Unlock()

	unclosed := mgr.CloseAll(context.Background(), 50*time.Millisecond)
	if unclosed != 1 {
		t.Fatalf("expected exactly 1 session past budget, got %d", unclosed)
	}
}
