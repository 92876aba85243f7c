// Package lifecycle provides the connection state machine and reconnect
// backoff used by the stream client.
//
// # State Machine
//
// Valid state transitions:
//   - Idle -> Connecting
//   - Connecting -> Streaming, Disconnected, Idle
//   - Streaming -> Disconnected, Idle
//   - Disconnected -> Connecting, Idle
//
// Idle is reached only through an explicit disconnect. Disconnected is
// terminal for one attempt and carries the reason the attempt ended.
//
// # Usage
//
//	manager := lifecycle.NewManager(logger, emitter)
//	if manager.IsActive() {
//	    return // one live attempt at a time
//	}
//	_ = manager.TransitionTo(lifecycle.StateConnecting, "connect")
//
// # Version
//
// Current version: 2.0.0
// Minimum compatible version: 2.0.0
package lifecycle
