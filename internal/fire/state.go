package fire

import "sync"

// Snapshot is a point-in-time view of console state. It is a value
// type; the Fired map is a copy and safe to use after the lock is
// released.
type Snapshot struct {
	Authorized bool
	Armed      bool
	Fired      map[string]bool
}

// State holds the console's mutable in-memory flags behind an RWMutex:
// the operator-authorized flag, the global armed flag, and the
// per-target fired flags. Fired flags are transient; they are cleared
// only by an explicit reset, never by time.
type State struct {
	mu         sync.RWMutex
	authorized bool
	armed      bool
	fired      map[string]bool
}

// NewState creates a State with nothing fired, unauthorized, disarmed.
func NewState() *State {
	return &State{fired: make(map[string]bool)}
}

// Authorized reports whether a successful authorization has been
// recorded.
func (s *State) Authorized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authorized
}

// SetAuthorized records the outcome of an authorization session.
func (s *State) SetAuthorized(v bool) {
	s.mu.Lock()
	s.authorized = v
	s.mu.Unlock()
}

// Armed reports the global fire-enable switch.
func (s *State) Armed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.armed
}

// SetArmed sets the global fire-enable switch.
func (s *State) SetArmed(v bool) {
	s.mu.Lock()
	s.armed = v
	s.mu.Unlock()
}

// Fired reports whether the target has been fired since the last reset.
func (s *State) Fired(t Target) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fired[t.Key()]
}

func (s *State) markFired(t Target) {
	s.mu.Lock()
	s.fired[t.Key()] = true
	s.mu.Unlock()
}

// Reset clears the fired flag of one target.
func (s *State) Reset(t Target) {
	s.mu.Lock()
	delete(s.fired, t.Key())
	s.mu.Unlock()
}

// ResetAll clears every fired flag.
func (s *State) ResetAll() {
	s.mu.Lock()
	s.fired = make(map[string]bool)
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fired := make(map[string]bool, len(s.fired))
	for k, v := range s.fired {
		fired[k] = v
	}
	return Snapshot{Authorized: s.authorized, Armed: s.armed, Fired: fired}
}
