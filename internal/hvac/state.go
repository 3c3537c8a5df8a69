package hvac

import "sync"

// StateStore holds the runtime state record for every registered
// device. Records are created lazily with defaults the first time a
// device is observed, reset when its configuration is edited, and
// removed when the device is deleted so a reused id never inherits
// stale state.
//
// All methods are thread-safe.
type StateStore struct {
	mu     sync.RWMutex
	states map[string]DeviceState
}

// NewStateStore creates an empty state store.
func NewStateStore() *StateStore {
	return &StateStore{states: make(map[string]DeviceState)}
}

// Get returns the state record for a device, creating it with defaults
// if the device has never been observed.
func (s *StateStore) Get(id string) DeviceState {
	s.mu.RLock()
	state, ok := s.states[id]
	s.mu.RUnlock()
	if ok {
		return state
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.states[id]; ok {
		return state
	}
	state = NewDeviceState()
	s.states[id] = state
	return state
}

// Commit stores a new state record for a device.
func (s *StateStore) Commit(id string, state DeviceState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[id] = state
}

// Reset returns a device's record to defaults. Used when the owning
// configuration's protocol or emitter changes.
func (s *StateStore) Reset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[id] = NewDeviceState()
}

// Remove deletes a device's record entirely.
func (s *StateStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, id)
}
