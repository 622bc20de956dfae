package search

import (
	"sync"

	"github.com/forkcast/forkcast-api/internal/geo"
)

// Manager hands out one orchestrator per client. A client has exactly one
// live search session; repeated lookups return the same orchestrator.
type Manager struct {
	fetcher  Fetcher
	locator  geo.LocationProvider
	recorder Recorder

	mu       sync.Mutex
	sessions map[string]*Orchestrator
}

// NewManager creates a session manager. The locator may be nil when the
// geolocation capability is absent.
func NewManager(fetcher Fetcher, locator geo.LocationProvider, recorder Recorder) *Manager {
	return &Manager{
		fetcher:  fetcher,
		locator:  locator,
		recorder: recorder,
		sessions: make(map[string]*Orchestrator),
	}
}

// Session returns the orchestrator for the given client, creating it in
// the Idle phase on first use.
func (m *Manager) Session(clientID string) *Orchestrator {
	m.mu.Lock()
	defer m.mu.Unlock()

	if o, ok := m.sessions[clientID]; ok {
		return o
	}
	o := NewOrchestrator(clientID, m.fetcher, m.locator, m.recorder)
	m.sessions[clientID] = o
	return o
}
