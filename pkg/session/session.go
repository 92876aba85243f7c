package session

import "sync"

// Snapshot is the session state at one point in time.
type Snapshot struct {
	Authenticated bool
	Credential    string
}

// Usable reports whether a connection may be opened with this snapshot.
func (s Snapshot) Usable() bool {
	return s.Authenticated && s.Credential != ""
}

// Provider reports the current session.
type Provider interface {
	Current() Snapshot
}

// ChangeFunc is called with the new snapshot after a session change.
type ChangeFunc func(Snapshot)

// Static is an in-memory Provider updated through Login and Logout.
type Static struct {
	mu       sync.RWMutex
	snap     Snapshot
	onChange ChangeFunc
}

// NewStatic returns a provider that is authenticated when token is
// non-empty.
func NewStatic(token string) *Static {
	return &Static{snap: Snapshot{Authenticated: token != "", Credential: token}}
}

// Current returns the current snapshot.
func (s *Static) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Login stores token and marks the session authenticated.
func (s *Static) Login(token string) {
	s.set(Snapshot{Authenticated: token != "", Credential: token})
}

// Logout clears the credential.
func (s *Static) Logout() {
	s.set(Snapshot{})
}

// OnChange registers fn to be called after Login or Logout. Only one
// callback is kept.
func (s *Static) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *Static) set(snap Snapshot) {
	s.mu.Lock()
	s.snap = snap
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(snap)
	}
}
