package idle

import (
	"testing"
	"time"
)

type fakeCounter struct{ n int }

func (f *fakeCounter) Count() int { return f.n }

func TestTickClearsIdleOnActiveSession(t *testing.T) {
	counter := &fakeCounter{n: 0}
	exited := false
	m := New(time.Hour, counter, func() { exited = true }, nil)

	m.tick() // idleSince set
	if m.idleSince.IsZero() {
		t.Fatal("expected idleSince to be set on first idle tick")
	}

	counter.n = 1
	m.tick()
	if !m.idleSince.IsZero() {
		t.Fatal("expected idleSince to reset when a session is present")
	}
	if exited {
		t.Fatal("should not have forced exit")
	}
}

func TestTickForcesExitAfterWindow(t *testing.T) {
	counter := &fakeCounter{n: 0}
	exited := false
	m := New(10*time.Millisecond, counter, func() { exited = true }, nil)

	m.tick()
	time.Sleep(20 * time.Millisecond)
	done := m.tick()

	if !done || !exited {
		t.Fatalf("expected forced exit, done=%v exited=%v", done, exited)
	}
}

func TestZeroIdleWaitDisablesMonitor(t *testing.T) {
	m := New(0, &fakeCounter{}, func() { t.Fatal("should never be called") }, nil)
	m.Run(nil) // returns immediately without touching ctx
}
