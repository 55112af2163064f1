package hubclient

import (
	"testing"

	"github.com/trybotster/ganglion-bridge/internal/apps"
	"github.com/trybotster/ganglion-bridge/internal/sessionmgr"
)

func TestSessionConnectorOnCloseNotifiesManager(t *testing.T) {
	mgr := sessionmgr.New(apps.NewRegistry(), nil, nil)
	c := New(Config{Manager: mgr, Registry: apps.NewRegistry()})
	sc := newSessionConnector(c, "S1", "R1")
	sc.OnClose()
	if _, ok := mgr.GetSession("S1"); ok {
		t.Fatal("OnClose should have removed the session from the manager")
	}
}

func TestSessionConnectorOnMetaOpenURL(t *testing.T) {
	c := New(Config{})
	sc := newSessionConnector(c, "S1", "R1")
	sc.OnMeta(map[string]any{"type": "open_url", "url": "https://example.com", "new_tab": true})
}

// TestSessionConnectorDeliverFileStartStripsDirectory matches
// ganglion_client.py's Path(meta["path"]).name: only the file's basename
// goes out on the wire, never the child's local directory structure.
func TestSessionConnectorDeliverFileStartStripsDirectory(t *testing.T) {
	pkt := deliverFileStartPacket("R1", map[string]any{
		"key":         "k1",
		"path":        "/home/user/projects/report.pdf",
		"open_method": "download",
		"mime_type":   "application/pdf",
		"encoding":    "binary",
	})
	if pkt.FileName != "report.pdf" {
		t.Fatalf("expected basename %q, got %q", "report.pdf", pkt.FileName)
	}
	if pkt.DeliveryKey != "k1" || pkt.RouteKey != "R1" {
		t.Fatalf("unexpected packet: %+v", pkt)
	}
}
