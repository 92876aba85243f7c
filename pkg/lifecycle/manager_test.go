package lifecycle

import (
	"sync"
	"testing"
	"time"
)

// mockEmitter tracks state change events for testing.
type mockEmitter struct {
	mu     sync.Mutex
	events []stateChangeEvent
}

type stateChangeEvent struct {
	previous State
	current  State
	reason   string
}

func (m *mockEmitter) OnStateChange(previous, current State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, stateChangeEvent{previous, current, reason})
}

func (m *mockEmitter) Events() []stateChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]stateChangeEvent{}, m.events...)
}

func TestNewManager(t *testing.T) {
	m := NewManager(nil, nil)

	if m.State() != StateIdle {
		t.Errorf("initial state = %v, want StateIdle", m.State())
	}
	if m.IsActive() {
		t.Error("new manager should not be active")
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "Idle"},
		{StateConnecting, "Connecting"},
		{StateStreaming, "Streaming"},
		{StateDisconnected, "Disconnected"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestManager_TransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		to      State
		wantErr bool
	}{
		{"idle to connecting", StateIdle, StateConnecting, false},
		{"connecting to streaming", StateConnecting, StateStreaming, false},
		{"connecting to disconnected", StateConnecting, StateDisconnected, false},
		{"connecting to idle", StateConnecting, StateIdle, false},
		{"streaming to disconnected", StateStreaming, StateDisconnected, false},
		{"streaming to idle", StateStreaming, StateIdle, false},
		{"disconnected to connecting", StateDisconnected, StateConnecting, false},
		{"disconnected to idle", StateDisconnected, StateIdle, false},

		{"idle to streaming", StateIdle, StateStreaming, true},
		{"idle to idle", StateIdle, StateIdle, true},
		{"idle to disconnected", StateIdle, StateDisconnected, true},
		{"connecting to connecting", StateConnecting, StateConnecting, true},
		{"streaming to connecting", StateStreaming, StateConnecting, true},
		{"disconnected to streaming", StateDisconnected, StateStreaming, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(nil, nil)
			m.state = tt.from

			err := m.TransitionTo(tt.to, "test")

			if (err != nil) != tt.wantErr {
				t.Fatalf("TransitionTo() error = %v, wantErr %v", err, tt.wantErr)
			}
			want := tt.to
			if tt.wantErr {
				want = tt.from
			}
			if m.State() != want {
				t.Errorf("state = %v, want %v", m.State(), want)
			}
		})
	}
}

func TestManager_TransitionTo_EmitsEvents(t *testing.T) {
	emitter := &mockEmitter{}
	m := NewManager(nil, emitter)

	_ = m.TransitionTo(StateConnecting, "connect")
	_ = m.TransitionTo(StateStreaming, "first bytes")
	_ = m.TransitionTo(StateDisconnected, "EOF")
	_ = m.TransitionTo(StateStreaming, "invalid") // rejected, no event

	events := emitter.Events()
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[2].previous != StateStreaming || events[2].current != StateDisconnected {
		t.Errorf("last event = %+v, want Streaming -> Disconnected", events[2])
	}
	if m.Reason() != "EOF" {
		t.Errorf("Reason() = %q, want EOF", m.Reason())
	}
}

func TestBackoff_Fixed(t *testing.T) {
	b := NewFixedBackoff(3 * time.Second)

	if !b.Fixed() {
		t.Fatal("expected fixed backoff")
	}
	for i := 0; i < 5; i++ {
		if d := b.Next(); d != 3*time.Second {
			t.Fatalf("Next() #%d = %v, want 3s", i, d)
		}
	}
}

func TestBackoff_ExponentialCapped(t *testing.T) {
	b := NewBackoff(100*time.Millisecond, 800*time.Millisecond)
	b.rand = func() float64 { return 0.5 } // zero jitter

	want := []time.Duration{100, 200, 400, 800, 800}
	for i, w := range want {
		if d := b.Next(); d != w*time.Millisecond {
			t.Errorf("Next() #%d = %v, want %v", i, d, w*time.Millisecond)
		}
	}

	b.Reset()
	if b.Current() != 100*time.Millisecond {
		t.Errorf("Current() after Reset = %v, want 100ms", b.Current())
	}
}

func TestBackoff_JitterBounds(t *testing.T) {
	b := NewBackoff(time.Second, time.Second*10)
	for i := 0; i < 50; i++ {
		b.Reset()
		d := b.Next()
		if d < 800*time.Millisecond || d > 1200*time.Millisecond {
			t.Fatalf("Next() = %v, want within ±20%% of 1s", d)
		}
	}
}

func TestNewBackoff_Defaults(t *testing.T) {
	b := NewBackoff(0, 0)
	if b.Next() != DefaultReconnectDelay {
		t.Errorf("zero initial should default to %v", DefaultReconnectDelay)
	}
}
