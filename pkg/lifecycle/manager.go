package lifecycle

import (
	"errors"
	"sync"

	"github.com/bft-labs/missionfeed/pkg/log"
)

// ErrInvalidTransition is returned by TransitionTo for a transition the
// state machine does not allow.
var ErrInvalidTransition = errors.New("lifecycle: invalid state transition")

var transitions = map[State][]State{
	StateIdle:         {StateConnecting},
	StateConnecting:   {StateStreaming, StateDisconnected, StateIdle},
	StateStreaming:    {StateDisconnected, StateIdle},
	StateDisconnected: {StateConnecting, StateIdle},
}

// Manager tracks the connection state and the reason for the last change.
type Manager struct {
	mu           sync.RWMutex
	state        State
	reason       string
	logger       log.Logger
	eventEmitter EventEmitter
}

// NewManager creates a manager in StateIdle. emitter may be nil.
func NewManager(logger log.Logger, emitter EventEmitter) *Manager {
	return &Manager{
		state:        StateIdle,
		logger:       log.OrNoop(logger),
		eventEmitter: emitter,
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Reason returns the reason recorded with the last transition. For
// StateDisconnected this is why the attempt ended.
func (m *Manager) Reason() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reason
}

// IsActive reports whether a transport attempt is live.
func (m *Manager) IsActive() bool {
	return m.State().Active()
}

// TransitionTo moves to newState. A transition to the current state is
// rejected like any other invalid one.
func (m *Manager) TransitionTo(newState State, reason string) error {
	m.mu.Lock()
	oldState := m.state
	if !allowed(oldState, newState) {
		m.mu.Unlock()
		return ErrInvalidTransition
	}
	m.state = newState
	m.reason = reason
	m.mu.Unlock()

	// Emit outside of lock.
	if m.eventEmitter != nil {
		m.eventEmitter.OnStateChange(oldState, newState, reason)
	}

	m.logger.Debug("state transition",
		log.String("from", oldState.String()),
		log.String("to", newState.String()),
		log.String("reason", reason),
	)
	return nil
}

func allowed(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
