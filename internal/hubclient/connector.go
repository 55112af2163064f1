package hubclient

import (
	"path/filepath"

	"github.com/trybotster/ganglion-bridge/internal/codec"
)

// sessionConnector is the small per-session adapter a Session calls back
// into. It holds a reference to the client, never the reverse, avoiding a
// cyclic ownership graph between Session and Hub Client.
type sessionConnector struct {
	client    *Client
	sessionID string
	routeKey  string
}

func newSessionConnector(client *Client, sessionID, routeKey string) *sessionConnector {
	return &sessionConnector{client: client, sessionID: sessionID, routeKey: routeKey}
}

func (sc *sessionConnector) OnData(data []byte) {
	sc.client.Send(codec.Packet{Type: codec.TypeSessionData, RouteKey: sc.routeKey, Data: data})
}

// OnMeta translates the child protocol's inbound metadata sub-types into
// distinct outbound packet types.
func (sc *sessionConnector) OnMeta(meta map[string]any) {
	metaType, _ := meta["type"].(string)
	switch metaType {
	case "open_url":
		url, _ := meta["url"].(string)
		newTab, _ := meta["new_tab"].(bool)
		sc.client.Send(codec.Packet{Type: codec.TypeOpenURL, RouteKey: sc.routeKey, Message: url, NewTab: newTab})
	case "deliver_file_start":
		sc.client.Send(deliverFileStartPacket(sc.routeKey, meta))
	default:
		sc.client.logger.Warn("session connector: unrecognized meta type", "type", metaType)
	}
}

// deliverFileStartPacket builds the outbound DeliverFileStart packet from a
// child's deliver_file_start meta. Only the file's basename is sent upstream
// (ganglion_client.py: Path(meta["path"]).name) — the child's local
// directory layout is never exposed to the hub.
func deliverFileStartPacket(routeKey string, meta map[string]any) codec.Packet {
	key, _ := meta["key"].(string)
	path, _ := meta["path"].(string)
	openMethod, _ := meta["open_method"].(string)
	mimeType, _ := meta["mime_type"].(string)
	encoding, _ := meta["encoding"].(string)
	return codec.Packet{
		Type:        codec.TypeDeliverFileStart,
		RouteKey:    routeKey,
		DeliveryKey: key,
		FileName:    filepath.Base(path),
		OpenMethod:  openMethod,
		MimeType:    mimeType,
		Encoding:    encoding,
	}
}

func (sc *sessionConnector) OnBinaryEncodedMessage(data []byte) {
	sc.client.Send(codec.Packet{Type: codec.TypeBinaryEncodedMessage, RouteKey: sc.routeKey, Data: data})
}

func (sc *sessionConnector) OnClose() {
	sc.client.Send(codec.Packet{Type: codec.TypeSessionClose, SessionID: sc.sessionID, RouteKey: sc.routeKey})
	sc.client.manager.OnSessionEnd(sc.sessionID)
}
