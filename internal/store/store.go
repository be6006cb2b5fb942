// Package store persists polled check results locally so the dashboard can
// render trends without hammering the backend API.
package store

import "time"

// CheckResult is one recorded test case outcome.
type CheckResult struct {
	ID           int
	ProjectID    int
	Name         string
	Status       string
	Total        int
	Passed       int
	Failed       int
	AvgLatencyMs float64
	ErrorType    string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// TrendData summarizes a project over a window of days.
type TrendData struct {
	CurrentPassRate float64
	AvgLatencyMs    float64
	TotalRuns       int
}

// DataPoint is one day of aggregated results.
type DataPoint struct {
	Date         time.Time
	PassRate     float64
	AvgLatencyMs float64
	Count        int
}

// FlakyCase flags a check whose outcome flips between runs.
type FlakyCase struct {
	Name        string
	TotalRuns   int
	FailedRuns  int
	PassedRuns  int
	FlakyScore  float64
	LastFailure time.Time
}

type Store interface {
	// UpsertResult inserts or replaces a result by id.
	UpsertResult(result CheckResult) error

	Results(projectID, limit int) ([]CheckResult, error)
	RecentFailures(projectID, limit int) ([]CheckResult, error)
	Trends(projectID, days int) (*TrendData, error)
	PassRateTrend(projectID, days int) ([]DataPoint, error)
	FlakyCases(projectID int, threshold float64) ([]FlakyCase, error)

	Close() error
}
