package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensei/dashboard/internal/sensei"
)

// fakeFetcher serves scripted list responses, one per tick.
type fakeFetcher struct {
	mu        sync.Mutex
	responses [][]sensei.TestCase
	calls     int
	listErr   error
	reports   map[int]sensei.Report
	errs      map[int][]sensei.TestError
}

func (f *fakeFetcher) GetTestCases(_ context.Context, _ sensei.ListOptions) ([]sensei.TestCase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		f.calls++
		return nil, f.listErr
	}
	idx := f.calls
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	f.calls++
	return f.responses[idx], nil
}

func (f *fakeFetcher) GetReport(_ context.Context, id int) (*sensei.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	report, ok := f.reports[id]
	if !ok {
		return nil, errors.New("no report")
	}
	return &report, nil
}

func (f *fakeFetcher) GetTestErrors(_ context.Context, id int) ([]sensei.TestError, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[id], nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestPoller_FetchesReportOnTerminalTransition(t *testing.T) {
	running := sensei.TestCase{ID: 1, Name: "check-1", Project: 7, Status: sensei.StatusRunning}
	completed := running
	completed.Status = sensei.StatusCompleted

	api := &fakeFetcher{
		responses: [][]sensei.TestCase{{completed}},
		reports:   map[int]sensei.Report{1: {ID: 1, TestCase: 1, Total: 10, Passed: 9, Failed: 1}},
		errs:      map[int][]sensei.TestError{},
	}

	var mu sync.Mutex
	var last Snapshot
	p := New(api, 7, 10*time.Millisecond, zerolog.Nop(), func(s Snapshot) {
		mu.Lock()
		last = s
		mu.Unlock()
	})
	p.Track([]sensei.TestCase{running})
	require.True(t, p.HasRunning())
	p.Start()

	waitFor(t, time.Second, func() bool { return p.State() == Idle })

	mu.Lock()
	defer mu.Unlock()
	require.Contains(t, last.Cases, 1)
	assert.Equal(t, sensei.StatusCompleted, last.Cases[1].Status)
	require.Contains(t, last.Reports, 1)
	assert.Equal(t, 9, last.Reports[1].Passed)
}

func TestPoller_StopsWhenNothingRunning(t *testing.T) {
	done := sensei.TestCase{ID: 1, Status: sensei.StatusCompleted, Project: 7}
	api := &fakeFetcher{responses: [][]sensei.TestCase{{done}}}

	p := New(api, 7, 10*time.Millisecond, zerolog.Nop(), nil)
	p.Track([]sensei.TestCase{{ID: 1, Status: sensei.StatusRunning, Project: 7}})
	p.Start()

	waitFor(t, time.Second, func() bool { return p.State() == Idle })
	calls := api.callCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, api.callCount(), "idle poller must not keep fetching")
}

func TestPoller_FailedTickKeepsPolling(t *testing.T) {
	api := &fakeFetcher{listErr: errors.New("backend down")}

	p := New(api, 7, 10*time.Millisecond, zerolog.Nop(), nil)
	p.Track([]sensei.TestCase{{ID: 1, Status: sensei.StatusRunning}})
	p.Start()
	defer p.Stop()

	waitFor(t, time.Second, func() bool { return api.callCount() >= 3 })
	assert.Equal(t, Polling, p.State())
}

func TestPoller_StopIsSynchronousAndIdempotent(t *testing.T) {
	api := &fakeFetcher{responses: [][]sensei.TestCase{{{ID: 1, Status: sensei.StatusRunning}}}}

	p := New(api, 7, 10*time.Millisecond, zerolog.Nop(), nil)
	p.Track([]sensei.TestCase{{ID: 1, Status: sensei.StatusRunning}})
	p.Start()

	waitFor(t, time.Second, func() bool { return api.callCount() >= 1 })
	p.Stop()
	assert.Equal(t, Idle, p.State())
	p.Stop() // no-op on an idle poller

	calls := api.callCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, calls, api.callCount())
}

func TestPoller_MergeByIDKeepsBothReports(t *testing.T) {
	p := New(&fakeFetcher{}, 7, time.Minute, zerolog.Nop(), nil)

	// Reports can arrive in any order; each keyed by its test case.
	p.MergeReport(sensei.Report{ID: 2, TestCase: 2, Passed: 5})
	p.MergeReport(sensei.Report{ID: 1, TestCase: 1, Passed: 8})

	snap := p.Snapshot()
	require.Contains(t, snap.Reports, 1)
	require.Contains(t, snap.Reports, 2)
	assert.Equal(t, 8, snap.Reports[1].Passed)
	assert.Equal(t, 5, snap.Reports[2].Passed)
}

func TestPoller_RestartAfterIdle(t *testing.T) {
	api := &fakeFetcher{responses: [][]sensei.TestCase{{{ID: 1, Status: sensei.StatusCompleted}}}}
	p := New(api, 7, 10*time.Millisecond, zerolog.Nop(), nil)
	p.Track([]sensei.TestCase{{ID: 1, Status: sensei.StatusRunning}})
	p.Start()
	waitFor(t, time.Second, func() bool { return p.State() == Idle })

	// A new run shows up; the same instance can poll again.
	p.Track([]sensei.TestCase{{ID: 2, Status: sensei.StatusRunning}})
	p.Start()
	assert.Equal(t, Polling, p.State())
	p.Stop()
}

func TestManager_EnsureStartsOnlyWithRunningCases(t *testing.T) {
	api := &fakeFetcher{responses: [][]sensei.TestCase{{{ID: 1, Status: sensei.StatusRunning, Project: 7}}}}
	m := NewManager(api, 10*time.Millisecond, zerolog.Nop(), nil)

	idle := m.Ensure(8, []sensei.TestCase{{ID: 3, Status: sensei.StatusCompleted, Project: 8}})
	assert.Equal(t, Idle, idle.State())

	active := m.Ensure(7, []sensei.TestCase{{ID: 1, Status: sensei.StatusRunning, Project: 7}})
	assert.Equal(t, Polling, active.State())

	m.StopAll()
	assert.Equal(t, Idle, active.State())
	_, ok := m.Get(7)
	assert.False(t, ok)
}
