package hubclient

import (
	"context"

	"github.com/trybotster/ganglion-bridge/internal/codec"
)

// dispatch routes one decoded inbound packet to its handler, per the packet
// table in the external interfaces description.
func (c *Client) dispatch(ctx context.Context, pkt codec.Packet) {
	switch pkt.Type {
	case codec.TypePing:
		c.onPing(pkt)
	case codec.TypeLog, codec.TypeInfo:
		c.onLog(pkt)
	case codec.TypeSessionOpen:
		c.onSessionOpen(ctx, pkt)
	case codec.TypeSessionClose:
		c.onSessionClose(pkt)
	case codec.TypeSessionData:
		c.onSessionData(pkt)
	case codec.TypeRoutePing:
		c.onRoutePing(pkt)
	case codec.TypeNotifyTerminalSize:
		c.onNotifyTerminalSize(ctx, pkt)
	case codec.TypeFocus:
		c.onFocusBlur(pkt, "focus")
	case codec.TypeBlur:
		c.onFocusBlur(pkt, "blur")
	case codec.TypeRequestDeliverChunk:
		c.onRequestDeliverChunk(pkt)
	default:
		// Pong, DeclareApps, OpenUrl, BinaryEncodedMessage, DeliverFileStart,
		// RoutePong are client-originated or client-only; nothing to do if
		// one arrives inbound.
	}
}

func (c *Client) onPing(pkt codec.Packet) {
	c.Send(codec.Packet{Type: codec.TypePong, Data: pkt.Data})
}

func (c *Client) onLog(pkt codec.Packet) {
	c.logger.Info("hub message", "message", pkt.Message)
}

func (c *Client) onSessionOpen(ctx context.Context, pkt codec.Packet) {
	sess, err := c.manager.NewSession(ctx, pkt.AppSlug, pkt.SessionID, pkt.RouteKey, c.devtools, pkt.Width, pkt.Height)
	if err != nil {
		c.logger.Warn("session open failed", "slug", pkt.AppSlug, "error", err)
		return
	}
	if sess == nil {
		c.logger.Warn("session open: unknown app slug", "slug", pkt.AppSlug)
		return
	}
	sess.Start(newSessionConnector(c, pkt.SessionID, pkt.RouteKey))
}

func (c *Client) onSessionClose(pkt codec.Packet) {
	c.manager.CloseSession(pkt.SessionID)
}

func (c *Client) onSessionData(pkt codec.Packet) {
	sess, ok := c.manager.GetSessionByRouteKey(pkt.RouteKey)
	if !ok {
		return // route key doesn't resolve to a live session: silently dropped
	}
	sess.SendBytes(pkt.Data)
}

func (c *Client) onRoutePing(pkt codec.Packet) {
	c.Send(codec.Packet{Type: codec.TypeRoutePong, RouteKey: pkt.RouteKey, Message: pkt.Message})
}

func (c *Client) onNotifyTerminalSize(ctx context.Context, pkt codec.Packet) {
	sess, ok := c.manager.GetSession(pkt.SessionID)
	if !ok {
		return
	}
	sess.SetTerminalSize(ctx, pkt.Width, pkt.Height)
}

func (c *Client) onFocusBlur(pkt codec.Packet, kind string) {
	sess, ok := c.manager.GetSessionByRouteKey(pkt.RouteKey)
	if !ok {
		return
	}
	sess.SendMeta(map[string]any{"type": kind})
}

func (c *Client) onRequestDeliverChunk(pkt codec.Packet) {
	sess, ok := c.manager.GetSessionByRouteKey(pkt.RouteKey)
	if !ok {
		return
	}
	sess.SendMeta(map[string]any{
		"type": "deliver_chunk_request",
		"key":  pkt.DeliveryKey,
		"size": pkt.ChunkSize,
	})
}
