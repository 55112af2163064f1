package healthcheck

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

type fakeCounter struct{ n int }

func (f fakeCounter) Count() int { return f.n }

func TestHealthzReportsReadyAndSessionCount(t *testing.T) {
	var ready atomic.Bool
	ready.Store(true)
	s := New(fakeCounter{n: 3}, &ready, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d", rec.Code)
	}
	if body := rec.Body.String(); body == "" {
		t.Fatal("expected a body")
	}
}

func TestHealthzReportsNotReady(t *testing.T) {
	var ready atomic.Bool
	s := New(fakeCounter{n: 0}, &ready, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("got status %d", rec.Code)
	}
}
