// Package sessionmgr owns the active-sessions map and the bidirectional
// route<->session index, and creates/locates/tears down sessions.
package sessionmgr

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/trybotster/ganglion-bridge/internal/apps"
	"github.com/trybotster/ganglion-bridge/internal/fdpoller"
	"github.com/trybotster/ganglion-bridge/internal/session"
)

// Manager is the Session Manager component.
type Manager struct {
	registry *apps.Registry
	poller   *fdpoller.Poller
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]session.Session
	routes   *twoWayMap
}

func New(registry *apps.Registry, poller *fdpoller.Poller, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry: registry,
		poller:   poller,
		logger:   logger,
		sessions: make(map[string]session.Session),
		routes:   newTwoWayMap(),
	}
}

// platformSupportsPTY matches the design note's OS-specific gap: PTY
// sessions are refused on platforms lacking a PTY facility.
func platformSupportsPTY() bool {
	return runtime.GOOS != "windows"
}

// NewSession looks up slug in the registry; if present, constructs the right
// Session variant, records it under sessionID/routeKey, opens it at the
// given size, and returns it. Unknown slug returns (nil, nil) — not found is
// not an error.
func (m *Manager) NewSession(ctx context.Context, slug, sessionID, routeKey string, devtools bool, width, height int) (session.Session, error) {
	app, ok := m.registry.Lookup(slug)
	if !ok {
		return nil, nil
	}

	var sess session.Session
	if app.Terminal {
		if !platformSupportsPTY() {
			m.logger.Warn("refusing terminal session on unsupported platform", "slug", slug)
			return nil, nil
		}
		sess = session.NewPTY(app.Command, app.WorkingDirectory, sessionID, m.poller, m.logger)
	} else {
		sess = session.NewFramed(app.Command, app.WorkingDirectory, sessionID, session.FramedOptions{
			Devtools: devtools,
			Logger:   m.logger,
		})
	}

	if err := sess.Open(ctx, width, height); err != nil {
		return nil, fmt.Errorf("sessionmgr: open %q: %w", slug, err)
	}

	m.mu.Lock()
	m.sessions[sessionID] = sess
	m.mu.Unlock()
	m.routes.set(routeKey, sessionID)

	return sess, nil
}

// GetSession looks up a session by its hub-assigned id.
func (m *Manager) GetSession(sessionID string) (session.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

// GetSessionByRouteKey resolves a session by the routing token used inside
// data packets. Per the data model invariant, callers should treat a
// session not in Running state the same as "not found".
func (m *Manager) GetSessionByRouteKey(routeKey string) (session.Session, bool) {
	sessionID, ok := m.routes.getByRouteKey(routeKey)
	if !ok {
		return nil, false
	}
	return m.GetSession(sessionID)
}

// CloseSession forwards Close to the named session, if present.
func (m *Manager) CloseSession(sessionID string) {
	if s, ok := m.GetSession(sessionID); ok {
		s.Close()
	}
}

// OnSessionEnd removes sessionID from both tables atomically. Safe to call
// more than once.
func (m *Manager) OnSessionEnd(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	m.routes.deleteBySessionID(sessionID)
}

// Count returns the number of live sessions, used by the Idle Exit Monitor.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll concurrently closes every live session with an upper time bound.
// It returns the number of sessions that did not finish closing within
// timeout.
func (m *Manager) CloseAll(ctx context.Context, timeout time.Duration) int {
	m.mu.RLock()
	sessions := make([]session.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	if len(sessions) == 0 {
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	remaining := make(chan struct{}, len(sessions))
	for _, s := range sessions {
		s := s
		g.Go(func() error {
			s.Close()
			done := make(chan struct{})
			go func() {
				s.Wait()
				close(done)
			}()
			select {
			case <-done:
				return nil
			case <-gctx.Done():
				remaining <- struct{}{}
				return gctx.Err()
			}
		})
	}
	g.Wait()
	close(remaining)

	unclosed := 0
	for range remaining {
		unclosed++
	}
	if unclosed > 0 {
		m.logger.Warn("close_all: sessions did not close within budget", "count", unclosed)
	}
	return unclosed
}
