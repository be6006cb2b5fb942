// Package poller keeps dashboard state fresh by re-fetching tracked test
// cases at a fixed interval while any of them is still running.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sensei/dashboard/internal/sensei"
)

// DefaultInterval matches the refresh cadence of the dashboard views.
const DefaultInterval = 2500 * time.Millisecond

// State of a poller instance.
type State int

const (
	Idle State = iota
	Polling
)

func (s State) String() string {
	if s == Polling {
		return "polling"
	}
	return "idle"
}

// Fetcher is the client subset the poller needs. *sensei.Client and
// *sensei.MockClient both satisfy it.
type Fetcher interface {
	GetTestCases(ctx context.Context, opts sensei.ListOptions) ([]sensei.TestCase, error)
	GetReport(ctx context.Context, testCaseID int) (*sensei.Report, error)
	GetTestErrors(ctx context.Context, testCaseID int) ([]sensei.TestError, error)
}

// Snapshot is a copy of the merged poller state after a tick.
type Snapshot struct {
	ProjectID int
	Cases     map[int]sensei.TestCase
	Reports   map[int]sensei.Report
	Errors    map[int][]sensei.TestError
}

// Poller drives the refresh loop for one project. All updates merge by id so
// a response that races a newer one only ever overwrites its own entry.
type Poller struct {
	api       Fetcher
	projectID int
	interval  time.Duration
	log       zerolog.Logger
	onUpdate  func(Snapshot)

	mu      sync.Mutex
	state   State
	cancel  context.CancelFunc
	done    chan struct{}
	cases   map[int]sensei.TestCase
	reports map[int]sensei.Report
	errs    map[int][]sensei.TestError
}

// New creates an idle poller. onUpdate may be nil; when set it receives a
// state snapshot after every applied tick.
func New(api Fetcher, projectID int, interval time.Duration, log zerolog.Logger, onUpdate func(Snapshot)) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		api:       api,
		projectID: projectID,
		interval:  interval,
		log:       log.With().Int("project", projectID).Logger(),
		onUpdate:  onUpdate,
		cases:     make(map[int]sensei.TestCase),
		reports:   make(map[int]sensei.Report),
		errs:      make(map[int][]sensei.TestError),
	}
}

// Track merges the given cases into the tracked set without starting the loop.
func (p *Poller) Track(cases []sensei.TestCase) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, tc := range cases {
		p.cases[tc.ID] = tc
	}
}

// HasRunning reports whether any tracked case is currently RUNNING.
func (p *Poller) HasRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, tc := range p.cases {
		if tc.Status == sensei.StatusRunning {
			return true
		}
	}
	return false
}

func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Start transitions Idle -> Polling. Starting an already polling instance is
// a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Polling {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.state = Polling
	p.cancel = cancel
	p.done = make(chan struct{})
	p.log.Debug().Dur("interval", p.interval).Msg("poller started")
	go p.loop(ctx, p.done)
}

// Stop transitions Polling -> Idle. The context cancellation aborts any
// in-flight request, so teardown is synchronous. Stopping an idle instance is
// a no-op.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.state == Idle {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	cancel()
	<-done
	p.log.Debug().Msg("poller stopped")
}

func (p *Poller) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer func() {
		p.mu.Lock()
		p.state = Idle
		p.mu.Unlock()
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.tick(ctx) {
				return
			}
		}
	}
}

// tick re-fetches the tracked case list and merges it. For cases that just
// left RUNNING into a terminal status it also pulls the report and error
// aggregates. It returns false once nothing non-terminal is left.
func (p *Poller) tick(ctx context.Context) bool {
	fetched, err := p.api.GetTestCases(ctx, sensei.ListOptions{Project: p.projectID})
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		// Failed ticks keep the interval unchanged.
		p.log.Warn().Err(err).Msg("poll tick failed")
		return true
	}

	type finished struct{ id int }
	var justFinished []finished

	p.mu.Lock()
	for _, tc := range fetched {
		prev, tracked := p.cases[tc.ID]
		p.cases[tc.ID] = tc
		if tracked && prev.Status == sensei.StatusRunning && sensei.IsTerminal(tc.Status) {
			justFinished = append(justFinished, finished{id: tc.ID})
		}
	}
	p.mu.Unlock()

	for _, f := range justFinished {
		report, err := p.api.GetReport(ctx, f.id)
		if err != nil {
			p.log.Warn().Err(err).Int("test_case", f.id).Msg("could not fetch report")
		}
		aggregates, err := p.api.GetTestErrors(ctx, f.id)
		if err != nil {
			p.log.Warn().Err(err).Int("test_case", f.id).Msg("could not fetch error aggregates")
		}

		p.mu.Lock()
		if report != nil {
			p.reports[f.id] = *report
		}
		if aggregates != nil {
			p.errs[f.id] = aggregates
		}
		p.mu.Unlock()
	}

	snapshot := p.Snapshot()
	if p.onUpdate != nil {
		p.onUpdate(snapshot)
	}

	for _, tc := range snapshot.Cases {
		if tc.Status == sensei.StatusRunning || tc.Status == sensei.StatusPending {
			return true
		}
	}
	return false
}

// Snapshot copies the merged state.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := Snapshot{
		ProjectID: p.projectID,
		Cases:     make(map[int]sensei.TestCase, len(p.cases)),
		Reports:   make(map[int]sensei.Report, len(p.reports)),
		Errors:    make(map[int][]sensei.TestError, len(p.errs)),
	}
	for id, tc := range p.cases {
		snap.Cases[id] = tc
	}
	for id, report := range p.reports {
		snap.Reports[id] = report
	}
	for id, aggregates := range p.errs {
		snap.Errors[id] = aggregates
	}
	return snap
}

// MergeReport applies a single report keyed by its test case. Used for
// updates that arrive outside the tick cycle; a stale arrival only replaces
// its own entry.
func (p *Poller) MergeReport(report sensei.Report) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reports[report.TestCase] = report
}
