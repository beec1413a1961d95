package stream

// MessageType represents the type of WebSocket message.
type MessageType int

const (
	// MessageText indicates a UTF-8 encoded text message.
	MessageText MessageType = 1
	// MessageBinary indicates a binary message.
	MessageBinary MessageType = 2
)

// String returns the string representation of the message type.
func (t MessageType) String() string {
	switch t {
	case MessageText:
		return "text"
	case MessageBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// State is the lifecycle state of a Worker.
type State int32

const (
	// StateConnecting means a dial is in progress.
	StateConnecting State = iota
	// StateOpen means the connection is established and being read.
	StateOpen
	// StateReconnectWait means the worker is sleeping before the next dial.
	StateReconnectWait
	// StateStopped is terminal.
	StateStopped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnectWait:
		return "reconnect_wait"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
