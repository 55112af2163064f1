package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"

	"github.com/trybotster/ganglion-bridge/internal/fdpoller"
)

// Poller is the subset of fdpoller.Poller a PTY session needs. Defined here
// so tests can supply a fake without touching real file descriptors.
type Poller interface {
	AddFile(fd int) <-chan []byte
	RemoveFile(fd int)
	Write(fd int, payload []byte) <-chan struct{}
}

var _ Poller = (*fdpoller.Poller)(nil)

// PTYSession hosts a shell (or other command) under a pseudo-terminal,
// forwarding raw bytes in both directions via the FD Poller.
type PTYSession struct {
	command          string
	workingDirectory string
	sessionID        string
	poller           Poller
	logger           *slog.Logger

	mu        sync.Mutex
	state     State
	startTime time.Time
	endTime   time.Time

	cmd    *exec.Cmd
	master *os.File

	connector Connector
	wg        sync.WaitGroup
}

// NewPTY constructs a PTY Session. poller must outlive the session.
func NewPTY(command, workingDirectory, sessionID string, poller Poller, logger *slog.Logger) *PTYSession {
	if logger == nil {
		logger = slog.Default()
	}
	return &PTYSession{
		command:          command,
		workingDirectory: workingDirectory,
		sessionID:        sessionID,
		poller:           poller,
		logger:           logger,
		state:            Pending,
	}
}

func (p *PTYSession) SessionID() string { return p.sessionID }

func (p *PTYSession) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *PTYSession) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	p.logger.Debug("pty session state", "session_id", p.sessionID, "state", s)
}

// Open forks the child under a new controlling pseudo-terminal at the given
// size.
func (p *PTYSession) Open(ctx context.Context, width, height int) error {
	cmd := exec.Command("sh", "-c", p.command)
	cmd.Dir = p.workingDirectory
	cmd.Env = append(os.Environ(),
		"TERM_PROGRAM=ganglion",
		"TERM_PROGRAM_VERSION=1",
	)

	master, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(height), Cols: uint16(width)})
	if err != nil {
		return fmt.Errorf("pty session: spawn %q: %w", p.command, err)
	}

	p.cmd = cmd
	p.master = master
	p.startTime = time.Now()
	p.logger.Debug("opened pty session", "session_id", p.sessionID, "command", p.command)
	return nil
}

func (p *PTYSession) Start(connector Connector) {
	p.connector = connector
	p.wg.Add(1)
	go p.run()
}

func (p *PTYSession) Wait() {
	p.wg.Wait()
}

func (p *PTYSession) run() {
	defer p.wg.Done()
	p.setState(Running)

	fd := int(p.master.Fd())
	readCh := p.poller.AddFile(fd)

	for chunk := range readCh {
		if chunk == nil {
			break
		}
		p.connector.OnData(chunk)
	}

	p.poller.RemoveFile(fd)
	p.master.Close()

	p.mu.Lock()
	p.endTime = time.Now()
	p.mu.Unlock()
	p.setState(Closed)

	if p.connector != nil {
		p.connector.OnClose()
	}
}

func (p *PTYSession) SendBytes(data []byte) bool {
	if p.master == nil {
		return false
	}
	fd := int(p.master.Fd())
	done := p.poller.Write(fd, data)
	<-done
	return true
}

// SendMeta is a silent no-op: PTY sessions have no metadata channel. See
// DESIGN.md Open Question 4.
func (p *PTYSession) SendMeta(meta map[string]any) bool {
	return true
}

func (p *PTYSession) SetTerminalSize(ctx context.Context, width, height int) {
	if p.master == nil {
		return
	}
	if err := pty.Setsize(p.master, &pty.Winsize{Rows: uint16(height), Cols: uint16(width)}); err != nil {
		p.logger.Warn("pty session: resize failed", "session_id", p.sessionID, "error", err)
	}
}

func (p *PTYSession) Close() {
	p.mu.Lock()
	if p.state == Closed || p.state == Closing {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	p.setState(Closing)
	if p.cmd != nil && p.cmd.Process != nil {
		p.cmd.Process.Signal(syscall.SIGHUP)
	}
}
