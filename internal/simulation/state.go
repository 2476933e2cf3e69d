package simulation

import (
	"math/rand/v2"
	"sync"
)

// DeviceState is the current simulated physical state of one device. Pure
// runtime state: never persisted, rebuilt from nominal ranges when the
// simulation restarts.
type DeviceState struct {
	Temperature     float64 `json:"temperature"`
	Humidity        float64 `json:"humidity"`
	FlowRate        float64 `json:"flow_rate"`
	Current         float64 `json:"current"`
	Power           float64 `json:"power"`
	CumulativePower float64 `json:"cumulative_power"`
	PowerOutage     bool    `json:"power_outage"`
}

// StateStore holds one state record per actively-simulated device. Writes to
// a given device come only from the cycle currently processing it; the
// engine's cycle mutex enforces that single-writer discipline.
type StateStore struct {
	mu     sync.RWMutex
	states map[string]DeviceState
}

// NewStateStore creates an empty StateStore.
func NewStateStore() *StateStore {
	return &StateStore{states: make(map[string]DeviceState)}
}

// Initialize seeds a device's state uniformly at random within the nominal
// ranges of its type. Cumulative power is seeded from a wide independent
// range representing prior accumulated usage.
func (s *StateStore) Initialize(deviceID string, params TypeParams, rng *rand.Rand) {
	state := DeviceState{
		Temperature:     randomInRange(params.Temperature, rng),
		Humidity:        randomInRange(params.Humidity, rng),
		FlowRate:        randomInRange(params.Flow, rng),
		Current:         randomInRange(params.Current, rng),
		CumulativePower: randomInRange(cumulativePowerSeed, rng),
		PowerOutage:     false,
	}
	state.Power = state.Current * LineVoltage

	s.mu.Lock()
	s.states[deviceID] = state
	s.mu.Unlock()
}

// Get returns a copy of a device's state.
func (s *StateStore) Get(deviceID string) (DeviceState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[deviceID]
	return state, ok
}

// Set replaces a device's state.
func (s *StateStore) Set(deviceID string, state DeviceState) {
	s.mu.Lock()
	s.states[deviceID] = state
	s.mu.Unlock()
}

// Remove drops a device's state when it leaves the active set.
func (s *StateStore) Remove(deviceID string) {
	s.mu.Lock()
	delete(s.states, deviceID)
	s.mu.Unlock()
}

// Clear drops all device states.
func (s *StateStore) Clear() {
	s.mu.Lock()
	s.states = make(map[string]DeviceState)
	s.mu.Unlock()
}

// Snapshot returns a copy of all device states.
func (s *StateStore) Snapshot() map[string]DeviceState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]DeviceState, len(s.states))
	for id, state := range s.states {
		out[id] = state
	}
	return out
}

func randomInRange(r Range, rng *rand.Rand) float64 {
	return r.Min + rng.Float64()*r.Width()
}
