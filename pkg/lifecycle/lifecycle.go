package lifecycle

// State represents the lifecycle state of a stream connection.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateDisconnected
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnecting:
		return "Connecting"
	case StateStreaming:
		return "Streaming"
	case StateDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// Active reports whether s holds a live transport attempt.
func (s State) Active() bool {
	return s == StateConnecting || s == StateStreaming
}

// EventEmitter is called when lifecycle state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}
