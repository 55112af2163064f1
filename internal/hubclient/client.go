// Package hubclient maintains the bridge's single persistent connection to
// the hub: reconnection with backoff, inbound packet dispatch, and outbound
// packet serialization. It is the sole bridge<->hub boundary.
package hubclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/trybotster/ganglion-bridge/internal/apps"
	"github.com/trybotster/ganglion-bridge/internal/codec"
	"github.com/trybotster/ganglion-bridge/internal/retry"
	"github.com/trybotster/ganglion-bridge/internal/sessionmgr"
)

const (
	heartbeatInterval = 15 * time.Second
	handshakeTimeout  = 10 * time.Second
	closeGraceBudget  = 3 * time.Second
	apiKeyHeader      = "GANGLIONAPIKEY"
)

// Status mirrors the transport's connection state for observability.
type Status int32

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Client is the Hub Client component.
type Client struct {
	hubURL      string
	apiKey      string
	devtools    bool
	registry    *apps.Registry
	manager     *sessionmgr.Manager
	logger      *slog.Logger
	onConnected func(bool)

	status atomic.Int32

	connMu sync.Mutex
	conn   *websocket.Conn

	scheduler *retry.Scheduler
}

// Config bundles the validated external inputs the Hub Client is
// constructed from, per the external interfaces description.
type Config struct {
	HubURL   string
	APIKey   string
	Devtools bool
	Registry *apps.Registry
	Manager  *sessionmgr.Manager
	Logger   *slog.Logger

	// OnConnectedEvent mirrors ganglion_client.py's _connected_event: it is
	// called with false at the start of every connect attempt and with true
	// once that attempt's post-connect DeclareApps send has been made
	// (successfully or not — the original sets the event from a finally
	// block). Callers use this to gate external readiness signals.
	OnConnectedEvent func(connected bool)
}

func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	onConnected := cfg.OnConnectedEvent
	if onConnected == nil {
		onConnected = func(bool) {}
	}
	return &Client{
		hubURL:      cfg.HubURL,
		apiKey:      cfg.APIKey,
		devtools:    cfg.Devtools,
		registry:    cfg.Registry,
		manager:     cfg.Manager,
		logger:      logger,
		onConnected: onConnected,
		scheduler:   retry.New(retry.DefaultMinWait, retry.DefaultMaxWait),
	}
}

func (c *Client) GetStatus() Status {
	return Status(c.status.Load())
}

func (c *Client) setStatus(s Status) {
	c.status.Store(int32(s))
}

// Run enters the connect-retry loop until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	for {
		c.onConnected(false)

		attempt, ok := c.scheduler.Next(ctx)
		if !ok || ctx.Err() != nil {
			return ctx.Err()
		}

		c.setStatus(StatusConnecting)
		conn, err := c.dial(ctx)
		if err != nil {
			c.logDialFailure(attempt, err)
			c.setStatus(StatusDisconnected)
			continue
		}

		c.scheduler.Success()
		c.setStatus(StatusConnected)
		c.connMu.Lock()
		c.conn = conn
		c.connMu.Unlock()

		c.postConnect()
		stopHeartbeat := c.startHeartbeat(ctx, conn)

		// Cancelling ctx expires the read deadline so a blocked ReadMessage
		// returns and the loop can shut down.
		stopReadUnblock := context.AfterFunc(ctx, func() { conn.SetReadDeadline(time.Now()) })
		err = c.receiveLoop(ctx, conn)
		stopReadUnblock()
		stopHeartbeat()
		c.setStatus(StatusDisconnected)

		c.connMu.Lock()
		c.conn = nil
		c.connMu.Unlock()

		if ctx.Err() != nil {
			c.gracefulShutdown(conn)
			return ctx.Err()
		}
		c.logger.Warn("hub connection lost, reconnecting", "error", err)
		conn.Close()
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	u, err := url.Parse(c.hubURL)
	if err != nil {
		return nil, fmt.Errorf("hubclient: bad hub url: %w", err)
	}

	header := http.Header{}
	if c.apiKey != "" {
		header.Set(apiKeyHeader, c.apiKey)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
		EnableCompression: true,
	}
	conn, resp, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return nil, fmt.Errorf("hubclient: authentication rejected: %w", err)
		}
		return nil, err
	}
	return conn, nil
}

func (c *Client) logDialFailure(attempt int, err error) {
	if attempt != 1 {
		return
	}
	if isAuthError(err) {
		c.logger.Warn("hub rejected authentication; check configured API key", "error", err)
		return
	}
	c.logger.Warn("failed to connect to hub, will reattempt", "error", err)
}

func isAuthError(err error) bool {
	return err != nil && (containsAny(err.Error(), "authentication rejected"))
}

func containsAny(haystack, needle string) bool {
	return len(haystack) >= len(needle) && indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

func (c *Client) startHeartbeat(ctx context.Context, conn *websocket.Conn) (stop func()) {
	stopCh := make(chan struct{})
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			case <-ticker.C:
				c.connMu.Lock()
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
				c.connMu.Unlock()
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(stopCh) }) }
}

// postConnect sends the post-connect DeclareApps declaration and marks the
// connected event, mirroring ganglion_client.py's post_connect: the event is
// set from a finally block, so it fires whether or not the send succeeded.
func (c *Client) postConnect() {
	defer c.onConnected(true)
	c.sendDeclareApps()
}

func (c *Client) sendDeclareApps() {
	decls := make([]codec.AppDecl, 0)
	for _, app := range c.registry.List(platformSupportsPTY()) {
		decls = append(decls, codec.AppDecl{Name: app.Name, Slug: app.Slug, Color: app.Color, Terminal: app.Terminal})
	}
	c.Send(codec.Packet{Type: codec.TypeDeclareApps, Apps: decls})
}

func platformSupportsPTY() bool {
	return runtime.GOOS != "windows"
}

func (c *Client) receiveLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		pkt, err := codec.Decode(data)
		if err != nil {
			c.logger.Warn("hubclient: decode error", "error", err)
			continue
		}
		if pkt == nil {
			continue // unknown type id: no-op
		}
		c.dispatch(ctx, *pkt)
	}
}

// Send serializes and dispatches packet. Returns false if no channel is
// attached or the send fails.
func (c *Client) Send(pkt codec.Packet) bool {
	data, err := codec.Encode(pkt)
	if err != nil {
		c.logger.Warn("hubclient: encode error", "type", pkt.Type, "error", err)
		return false
	}
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return false
	}
	c.connMu.Lock()
	err = conn.WriteMessage(websocket.BinaryMessage, data)
	c.connMu.Unlock()
	return err == nil
}

func (c *Client) gracefulShutdown(conn *websocket.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), closeGraceBudget)
	defer cancel()
	c.manager.CloseAll(ctx, closeGraceBudget)
	c.scheduler.Done()
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "Close requested"),
		time.Now().Add(time.Second))
	conn.Close()
}

// Stop ends the reconnect loop at the next opportunity, closing any live
// connection so a blocked receive loop unwinds immediately.
func (c *Client) Stop() {
	c.scheduler.Done()
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn != nil {
		conn.Close()
	}
}
