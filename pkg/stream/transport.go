package stream

import (
	"context"
	"fmt"
	"strings"
)

// Dialer opens a connection to a canonical, already-allowed target URL.
type Dialer interface {
	Dial(ctx context.Context, target string) (Conn, error)
}

// Conn is a connection owned by exactly one Worker.
type Conn interface {
	// ReadMessage blocks until one complete message has been reassembled
	// from its frames. A close frame from the peer yields an error wrapping
	// ErrRemoteClosed. Cancelling ctx unblocks the read.
	ReadMessage(ctx context.Context) (MessageType, []byte, error)
	// Close releases the connection. It is safe to call more than once.
	Close() error
}

// Transport names accepted by DialerFor.
const (
	TransportCoder   = "coder"
	TransportGorilla = "gorilla"
)

// DialerFor returns the dialer registered under name. An empty name selects
// the coder transport. maxMessageSize bounds a single message; zero means
// unbounded.
func DialerFor(name string, maxMessageSize int64) (Dialer, error) {
	switch strings.ToLower(name) {
	case "", TransportCoder:
		return &CoderDialer{MaxMessageSize: maxMessageSize}, nil
	case TransportGorilla:
		return &GorillaDialer{MaxMessageSize: maxMessageSize}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, name)
	}
}
