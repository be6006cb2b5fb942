package store

import (
	"sort"
	"time"

	"github.com/hashicorp/go-memdb"
)

var dbSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		"check_results": {
			Name: "check_results",
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.IntFieldIndex{Field: "ID"},
				},
				"project": {
					Name:    "project",
					Unique:  false,
					Indexer: &memdb.IntFieldIndex{Field: "ProjectID"},
				},
				"status": {
					Name:    "status",
					Unique:  false,
					Indexer: &memdb.StringFieldIndex{Field: "Status"},
				},
			},
		},
	},
}

// MemDBStore is the in-memory Store used when no MySQL DSN is configured
// (local development, tests). Built on hashicorp/go-memdb so reads run
// against consistent snapshots.
type MemDBStore struct {
	db *memdb.MemDB
}

var _ Store = (*MemDBStore)(nil)

func NewMemDBStore() (*MemDBStore, error) {
	db, err := memdb.NewMemDB(dbSchema)
	if err != nil {
		return nil, err
	}
	return &MemDBStore{db: db}, nil
}

func (s *MemDBStore) UpsertResult(r CheckResult) error {
	txn := s.db.Txn(true)
	defer txn.Abort()
	if err := txn.Insert("check_results", &r); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

func (s *MemDBStore) projectResults(projectID int) ([]CheckResult, error) {
	txn := s.db.Txn(false)
	it, err := txn.Get("check_results", "project", projectID)
	if err != nil {
		return nil, err
	}

	var results []CheckResult
	for obj := it.Next(); obj != nil; obj = it.Next() {
		results = append(results, *obj.(*CheckResult))
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].StartedAt.After(results[j].StartedAt)
	})
	return results, nil
}

func (s *MemDBStore) Results(projectID, limit int) ([]CheckResult, error) {
	results, err := s.projectResults(projectID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (s *MemDBStore) RecentFailures(projectID, limit int) ([]CheckResult, error) {
	all, err := s.projectResults(projectID)
	if err != nil {
		return nil, err
	}
	var failures []CheckResult
	for _, r := range all {
		if r.Status == "ERROR" || r.Status == "FAILURE" {
			failures = append(failures, r)
		}
		if limit > 0 && len(failures) == limit {
			break
		}
	}
	return failures, nil
}

func (s *MemDBStore) Trends(projectID, days int) (*TrendData, error) {
	results, err := s.projectResults(projectID)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	trend := &TrendData{}
	var completed int
	var latencySum float64
	for _, r := range results {
		if r.StartedAt.Before(cutoff) {
			continue
		}
		trend.TotalRuns++
		latencySum += r.AvgLatencyMs
		if r.Status == "COMPLETED" {
			completed++
		}
	}
	if trend.TotalRuns > 0 {
		trend.CurrentPassRate = float64(completed) / float64(trend.TotalRuns)
		trend.AvgLatencyMs = latencySum / float64(trend.TotalRuns)
	}
	return trend, nil
}

func (s *MemDBStore) PassRateTrend(projectID, days int) ([]DataPoint, error) {
	results, err := s.projectResults(projectID)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	type bucket struct {
		total      int
		completed  int
		latencySum float64
	}
	buckets := make(map[time.Time]*bucket)
	for _, r := range results {
		if r.StartedAt.Before(cutoff) {
			continue
		}
		day := r.StartedAt.Truncate(24 * time.Hour)
		b, ok := buckets[day]
		if !ok {
			b = &bucket{}
			buckets[day] = b
		}
		b.total++
		b.latencySum += r.AvgLatencyMs
		if r.Status == "COMPLETED" {
			b.completed++
		}
	}

	points := make([]DataPoint, 0, len(buckets))
	for day, b := range buckets {
		points = append(points, DataPoint{
			Date:         day,
			Count:        b.total,
			PassRate:     float64(b.completed) / float64(b.total) * 100,
			AvgLatencyMs: b.latencySum / float64(b.total),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

func (s *MemDBStore) FlakyCases(projectID int, threshold float64) ([]FlakyCase, error) {
	results, err := s.projectResults(projectID)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*FlakyCase)
	for _, r := range results {
		fc, ok := byName[r.Name]
		if !ok {
			fc = &FlakyCase{Name: r.Name}
			byName[r.Name] = fc
		}
		fc.TotalRuns++
		switch r.Status {
		case "ERROR", "FAILURE":
			fc.FailedRuns++
			if r.StartedAt.After(fc.LastFailure) {
				fc.LastFailure = r.StartedAt
			}
		case "COMPLETED":
			fc.PassedRuns++
		}
	}

	var flaky []FlakyCase
	for _, fc := range byName {
		if fc.FailedRuns == 0 || fc.PassedRuns == 0 {
			continue
		}
		fc.FlakyScore = flakyScore(fc.FailedRuns, fc.TotalRuns)
		if fc.FlakyScore >= threshold {
			flaky = append(flaky, *fc)
		}
	}
	sort.Slice(flaky, func(i, j int) bool { return flaky[i].FlakyScore > flaky[j].FlakyScore })
	return flaky, nil
}

func (s *MemDBStore) Close() error {
	return nil
}
