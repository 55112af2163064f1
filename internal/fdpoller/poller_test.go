package fdpoller

import (
	"os"
	"testing"
	"time"
)

func TestReadDelivery(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	defer w.Close()

	p := New()
	defer p.Stop()

	ch := p.AddFile(int(r.Fd()))
	if _, err := w.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}

	select {
	case chunk := <-ch:
		if string(chunk) != "hello" {
			t.Fatalf("got %q", chunk)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for read chunk")
	}
}

func TestEOFSentinel(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	p := New()
	defer p.Stop()

	ch := p.AddFile(int(r.Fd()))
	w.Close()

	select {
	case chunk := <-ch:
		if chunk != nil {
			t.Fatalf("expected nil sentinel on EOF, got %q", chunk)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for EOF sentinel")
	}
}

func TestWriteCompletion(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	defer w.Close()

	p := New()
	defer p.Stop()

	p.AddFile(int(w.Fd()))
	done := p.Write(int(w.Fd()), []byte("payload"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("write did not complete in time")
	}

	buf := make([]byte, 7)
	if _, err := r.Read(buf); err != nil {
		t.Fatal(err)
	}
	if string(buf) != "payload" {
		t.Fatalf("got %q", buf)
	}
}

func TestOtherFdsProgressWhenOneConsumerStalls(t *testing.T) {
	r1, w1, _ := os.Pipe()
	r2, w2, _ := os.Pipe()
	defer r1.Close()
	defer w1.Close()
	defer r2.Close()
	defer w2.Close()

	p := New()
	defer p.Stop()

	// ch1 is never read from (stalled consumer); ch2 is actively drained.
	_ = p.AddFile(int(r1.Fd()))
	ch2 := p.AddFile(int(r2.Fd()))

	w1.Write([]byte("stuck"))
	w2.Write([]byte("moving"))

	select {
	case chunk := <-ch2:
		if string(chunk) != "moving" {
			t.Fatalf("got %q", chunk)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second fd did not progress despite a stalled consumer on the first")
	}
}
