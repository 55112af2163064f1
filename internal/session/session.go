// Package session hosts the two child-process variants a bridge session can
// be: a framed application subprocess speaking a length-prefixed protocol on
// its stdio, or a shell running under a pseudo-terminal. Both satisfy the
// Session interface so the rest of the bridge can treat them uniformly.
package session

import "context"

// State is the one-directional lifecycle a session passes through.
type State int

const (
	Pending State = iota
	Running
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Running:
		return "Running"
	case Closing:
		return "Closing"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Connector is the capability record a Session calls back into. It is
// supplied at Start and never the reverse — the connector may point at the
// hub client, but the session holds no reference back to the client itself,
// avoiding a cyclic ownership graph.
type Connector interface {
	// OnData is called with opaque session bytes produced by the child.
	OnData(data []byte)
	// OnMeta is called with a decoded JSON metadata object from the child.
	OnMeta(meta map[string]any)
	// OnBinaryEncodedMessage is called with a pre-encoded message the child
	// asked to be forwarded upstream verbatim.
	OnBinaryEncodedMessage(data []byte)
	// OnClose is called exactly once, when the session's driving loop ends.
	OnClose()
}

// Session is the polymorphic entity hosting one child process. Dispatch
// across the Framed/PTY variants is static: callers hold a Session value,
// never a concrete type.
type Session interface {
	// Open spawns the underlying child at the given terminal size.
	Open(ctx context.Context, width, height int) error
	// Start launches the driving loop that pumps child output to connector
	// and returns once the loop has been scheduled (not once it has ended).
	Start(connector Connector)
	// Close begins a graceful shutdown of the child.
	Close()
	// Wait blocks until the driving loop has fully ended.
	Wait()
	// SendBytes writes opaque data to the child. Returns false on failure
	// rather than raising, per the write-path contract.
	SendBytes(data []byte) bool
	// SendMeta writes a metadata object to the child, where supported.
	SendMeta(meta map[string]any) bool
	// SetTerminalSize notifies the child of a terminal dimension change.
	SetTerminalSize(ctx context.Context, width, height int)

	SessionID() string
	State() State
}
