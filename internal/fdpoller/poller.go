// Package fdpoller runs a single background goroutine that owns a readiness
// polling loop over raw file descriptors, crossing the boundary between
// blocking kernel I/O and the rest of the bridge's single-threaded session
// logic via channels.
package fdpoller

import (
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const (
	pollTimeoutMillis = 1000
	maxReadBytes      = 32 * 1024
	readQueueDepth    = 64
)

// pendingWrite is one entry of a per-fd write FIFO: a payload plus the
// cursor marking how much of it has already been drained to the fd.
type pendingWrite struct {
	payload []byte
	cursor  int
	done    chan struct{}
}

type fdState struct {
	readCh chan []byte
	writes []*pendingWrite
}

// Poller is the FD Poller component. The zero value is not usable; call New.
type Poller struct {
	mu    sync.Mutex
	fds   map[int]*fdState
	exit  chan struct{}
	exitOnce sync.Once
	wg    sync.WaitGroup
}

// New starts the poller's background goroutine.
func New() *Poller {
	p := &Poller{
		fds:  make(map[int]*fdState),
		exit: make(chan struct{}),
	}
	p.wg.Add(1)
	go p.run()
	return p
}

// AddFile registers fd for read readiness and returns the queue onto which
// received chunks (or a nil sentinel on EOF/error) are published.
func (p *Poller) AddFile(fd int) <-chan []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := &fdState{readCh: make(chan []byte, readQueueDepth)}
	p.fds[fd] = st
	return st.readCh
}

// RemoveFile deregisters fd and forgets all state for it. Safe to call more
// than once.
func (p *Poller) RemoveFile(fd int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.fds, fd)
}

// Write enqueues payload for fd and returns a channel that closes once the
// entire payload has been drained to the fd. The channel is closed at once
// if fd is not registered, and is closed with the rest of the payload
// dropped if a write to fd fails. If fd is removed or the poller stopped
// while the entry is still queued, the channel never closes.
func (p *Poller) Write(fd int, payload []byte) <-chan struct{} {
	done := make(chan struct{})
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.fds[fd]
	if !ok {
		close(done)
		return done
	}
	st.writes = append(st.writes, &pendingWrite{payload: payload, done: done})
	return done
}

// Stop halts the polling loop and releases its goroutine. Registered fds are
// forgotten; it does not close them — callers still own their fds.
func (p *Poller) Stop() {
	p.exitOnce.Do(func() { close(p.exit) })
	p.wg.Wait()
	p.mu.Lock()
	p.fds = make(map[int]*fdState)
	p.mu.Unlock()
}

func (p *Poller) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.exit:
			return
		default:
		}
		p.pollOnce()
	}
}

func (p *Poller) pollOnce() {
	p.mu.Lock()
	pfds := make([]unix.PollFd, 0, len(p.fds))
	order := make([]int, 0, len(p.fds))
	for fd, st := range p.fds {
		events := int16(unix.POLLIN)
		if len(st.writes) > 0 {
			events |= unix.POLLOUT
		}
		pfds = append(pfds, unix.PollFd{Fd: int32(fd), Events: events})
		order = append(order, fd)
	}
	p.mu.Unlock()

	if len(pfds) == 0 {
		time.Sleep(pollTimeoutMillis * time.Millisecond)
		return
	}

	n, err := unix.Poll(pfds, pollTimeoutMillis)
	if err != nil {
		if err == unix.EINTR {
			return
		}
		return
	}
	if n == 0 {
		return
	}

	for i, pfd := range pfds {
		fd := order[i]
		if pfd.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			p.handleReadable(fd)
		}
		if pfd.Revents&unix.POLLOUT != 0 {
			p.handleWritable(fd)
		}
	}
}

func (p *Poller) handleReadable(fd int) {
	p.mu.Lock()
	st, ok := p.fds[fd]
	p.mu.Unlock()
	if !ok {
		return
	}

	buf := make([]byte, maxReadBytes)
	n, err := unix.Read(fd, buf)
	switch {
	case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
		return
	case err == syscall.EINTR:
		return
	case err == syscall.EIO:
		// PTY slave closed; treat like EOF.
		p.postReadSentinel(st)
		return
	case err != nil:
		p.postReadSentinel(st)
		return
	case n == 0:
		p.postReadSentinel(st)
		return
	default:
		chunk := make([]byte, n)
		copy(chunk, buf[:n])
		select {
		case st.readCh <- chunk:
		default:
			// Consumer isn't draining; drop rather than block the poller
			// loop and stall every other fd (testable property: a stalled
			// consumer must not halt the poller thread).
		}
	}
}

func (p *Poller) postReadSentinel(st *fdState) {
	select {
	case st.readCh <- nil:
	default:
	}
}

func (p *Poller) handleWritable(fd int) {
	p.mu.Lock()
	st, ok := p.fds[fd]
	if !ok || len(st.writes) == 0 {
		p.mu.Unlock()
		return
	}
	head := st.writes[0]
	p.mu.Unlock()

	n, err := unix.Write(fd, head.payload[head.cursor:])
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == syscall.EINTR {
			return
		}
		// Unblock the waiter rather than hang it forever on a dead fd.
		p.mu.Lock()
		if len(st.writes) > 0 && st.writes[0] == head {
			st.writes = st.writes[1:]
		}
		p.mu.Unlock()
		close(head.done)
		return
	}

	head.cursor += n
	if head.cursor >= len(head.payload) {
		p.mu.Lock()
		if len(st.writes) > 0 && st.writes[0] == head {
			st.writes = st.writes[1:]
		}
		p.mu.Unlock()
		close(head.done)
	}
}
