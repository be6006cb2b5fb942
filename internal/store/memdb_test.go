package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) *MemDBStore {
	t.Helper()
	s, err := NewMemDBStore()
	require.NoError(t, err)

	now := time.Now()
	results := []CheckResult{
		{ID: 1, ProjectID: 7, Name: "greeting", Status: "COMPLETED", Total: 10, Passed: 10, AvgLatencyMs: 300, StartedAt: now.Add(-1 * time.Hour)},
		{ID: 2, ProjectID: 7, Name: "greeting", Status: "ERROR", Total: 10, Passed: 4, Failed: 6, ErrorType: "CONNECTOR_CONNECTION", AvgLatencyMs: 900, StartedAt: now.Add(-2 * time.Hour)},
		{ID: 3, ProjectID: 7, Name: "fallback", Status: "COMPLETED", Total: 5, Passed: 5, AvgLatencyMs: 250, StartedAt: now.Add(-3 * time.Hour)},
		{ID: 4, ProjectID: 8, Name: "other-project", Status: "COMPLETED", StartedAt: now.Add(-1 * time.Hour)},
	}
	for _, r := range results {
		require.NoError(t, s.UpsertResult(r))
	}
	return s
}

func TestMemDBStore_ResultsScopedAndOrdered(t *testing.T) {
	s := seed(t)

	results, err := s.Results(7, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 1, results[0].ID, "newest first")

	limited, err := s.Results(7, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestMemDBStore_UpsertReplacesByID(t *testing.T) {
	s := seed(t)

	require.NoError(t, s.UpsertResult(CheckResult{
		ID: 2, ProjectID: 7, Name: "greeting", Status: "COMPLETED",
		Total: 10, Passed: 10, StartedAt: time.Now().Add(-2 * time.Hour),
	}))

	results, err := s.Results(7, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		if r.ID == 2 {
			assert.Equal(t, "COMPLETED", r.Status)
		}
	}
}

func TestMemDBStore_Trends(t *testing.T) {
	s := seed(t)

	trend, err := s.Trends(7, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, trend.TotalRuns)
	assert.InDelta(t, 2.0/3.0, trend.CurrentPassRate, 0.001)
}

func TestMemDBStore_RecentFailures(t *testing.T) {
	s := seed(t)

	failures, err := s.RecentFailures(7, 10)
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, "CONNECTOR_CONNECTION", failures[0].ErrorType)
}

func TestMemDBStore_FlakyCases(t *testing.T) {
	s := seed(t)

	flaky, err := s.FlakyCases(7, 0.1)
	require.NoError(t, err)
	require.Len(t, flaky, 1)
	assert.Equal(t, "greeting", flaky[0].Name)
	assert.InDelta(t, 0.5, flaky[0].FlakyScore, 0.001)

	// fallback never failed, so a tiny threshold still excludes it
	none, err := s.FlakyCases(7, 0.6)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemDBStore_PassRateTrendBuckets(t *testing.T) {
	s, err := NewMemDBStore()
	require.NoError(t, err)

	// midday yesterday so both entries land in the same day bucket
	day := time.Now().Add(-24 * time.Hour).Truncate(24 * time.Hour).Add(12 * time.Hour)
	require.NoError(t, s.UpsertResult(CheckResult{ID: 1, ProjectID: 7, Name: "a", Status: "COMPLETED", StartedAt: day}))
	require.NoError(t, s.UpsertResult(CheckResult{ID: 2, ProjectID: 7, Name: "b", Status: "ERROR", StartedAt: day.Add(time.Minute)}))

	points, err := s.PassRateTrend(7, 7)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 2, points[0].Count)
	assert.InDelta(t, 50.0, points[0].PassRate, 0.001)
}
