package session

import (
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger { return slog.Default() }

type fakePoller struct {
	readCh chan []byte
	writes [][]byte
}

func newFakePoller() *fakePoller {
	return &fakePoller{readCh: make(chan []byte, 8)}
}

func (f *fakePoller) AddFile(fd int) <-chan []byte { return f.readCh }
func (f *fakePoller) RemoveFile(fd int)            {}
func (f *fakePoller) Write(fd int, payload []byte) <-chan struct{} {
	f.writes = append(f.writes, payload)
	done := make(chan struct{})
	close(done)
	return done
}

func TestPTYSessionRunLoopForwardsDataAndClosesOnSentinel(t *testing.T) {
	fp := newFakePoller()
	p := &PTYSession{sessionID: "S2", poller: fp, logger: testLogger()}
	conn := newFakeConnector()
	// Fd and Close on a nil *os.File do not panic, so run() needs no real pty
	// in this unit test.
	p.master = nil

	// Feed chunks then the EOF sentinel, mirroring what the poller would
	// publish.
	go func() {
		fp.readCh <- []byte("hello")
		fp.readCh <- nil
	}()

	p.Start(conn)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Wait()
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pty consumer loop did not terminate")
	}
	if len(conn.data) != 1 || string(conn.data[0]) != "hello" {
		t.Fatalf("got %v", conn.data)
	}
	if !conn.closed {
		t.Fatal("expected OnClose to be invoked")
	}
}

func TestPTYSessionSendMetaIsSilentSuccess(t *testing.T) {
	p := &PTYSession{}
	if !p.SendMeta(map[string]any{"type": "resize"}) {
		t.Fatal("SendMeta on a PTY session must always succeed")
	}
}
