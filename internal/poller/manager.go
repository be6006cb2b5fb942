package poller

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sensei/dashboard/internal/sensei"
)

// Manager owns one poller per project. Multiple dashboard views can be open
// at once; each selected project gets its own refresh loop.
type Manager struct {
	api      Fetcher
	interval time.Duration
	log      zerolog.Logger
	onUpdate func(Snapshot)

	mu      sync.Mutex
	pollers map[int]*Poller
}

func NewManager(api Fetcher, interval time.Duration, log zerolog.Logger, onUpdate func(Snapshot)) *Manager {
	return &Manager{
		api:      api,
		interval: interval,
		log:      log,
		onUpdate: onUpdate,
		pollers:  make(map[int]*Poller),
	}
}

// Ensure seeds the project poller with the given cases and starts it when at
// least one of them is RUNNING. Pollers that went idle on their own are
// pruned lazily here.
func (m *Manager) Ensure(projectID int, cases []sensei.TestCase) *Poller {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, p := range m.pollers {
		if id != projectID && p.State() == Idle {
			delete(m.pollers, id)
		}
	}

	p, ok := m.pollers[projectID]
	if !ok {
		p = New(m.api, projectID, m.interval, m.log, m.onUpdate)
		m.pollers[projectID] = p
	}
	p.Track(cases)
	if p.HasRunning() {
		p.Start()
	}
	return p
}

// Get returns the poller of a project, if one exists.
func (m *Manager) Get(projectID int) (*Poller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pollers[projectID]
	return p, ok
}

// StopAll tears down every poller. Called on server shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	pollers := make([]*Poller, 0, len(m.pollers))
	for _, p := range m.pollers {
		pollers = append(pollers, p)
	}
	m.pollers = make(map[int]*Poller)
	m.mu.Unlock()

	for _, p := range pollers {
		p.Stop()
	}
}
