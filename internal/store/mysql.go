package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQLStore persists results in MySQL. Used when SENSEI_MYSQL_DSN is set;
// the memdb store covers everything else.
type MySQLStore struct {
	db *sql.DB
}

var _ Store = (*MySQLStore)(nil)

// ensureParseTime forces parseTime on so DATETIME columns scan into
// time.Time instead of raw bytes.
func ensureParseTime(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid MySQL DSN: %w", err)
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

func NewMySQLStore(dsn string) (*MySQLStore, error) {
	dsn, err := ensureParseTime(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return s, nil
}

func (s *MySQLStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS check_results (
			id INT PRIMARY KEY,
			project_id INT NOT NULL,
			name VARCHAR(255) NOT NULL,
			status VARCHAR(32) NOT NULL,
			total INT DEFAULT 0,
			passed INT DEFAULT 0,
			failed INT DEFAULT 0,
			avg_latency_ms DOUBLE DEFAULT 0,
			error_type VARCHAR(64),
			started_at DATETIME NOT NULL,
			finished_at DATETIME NULL,
			INDEX idx_results_project (project_id, started_at),
			INDEX idx_results_status (status, started_at)
		);`,
	}
	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query %s: %w", query, err)
		}
	}
	return nil
}

func (s *MySQLStore) UpsertResult(r CheckResult) error {
	var finished any
	if !r.FinishedAt.IsZero() {
		finished = r.FinishedAt
	}
	_, err := s.db.Exec(`
		INSERT INTO check_results (id, project_id, name, status, total, passed, failed, avg_latency_ms, error_type, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			status = VALUES(status),
			total = VALUES(total),
			passed = VALUES(passed),
			failed = VALUES(failed),
			avg_latency_ms = VALUES(avg_latency_ms),
			error_type = VALUES(error_type),
			finished_at = VALUES(finished_at)
	`, r.ID, r.ProjectID, r.Name, r.Status, r.Total, r.Passed, r.Failed, r.AvgLatencyMs, r.ErrorType, r.StartedAt, finished)
	return err
}

func (s *MySQLStore) Results(projectID, limit int) ([]CheckResult, error) {
	rows, err := s.db.Query(`
		SELECT id, project_id, name, status, total, passed, failed, avg_latency_ms, COALESCE(error_type, ''), started_at, COALESCE(finished_at, started_at)
		FROM check_results
		WHERE project_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanResults(rows)
}

func (s *MySQLStore) RecentFailures(projectID, limit int) ([]CheckResult, error) {
	rows, err := s.db.Query(`
		SELECT id, project_id, name, status, total, passed, failed, avg_latency_ms, COALESCE(error_type, ''), started_at, COALESCE(finished_at, started_at)
		FROM check_results
		WHERE project_id = ? AND status IN ('ERROR', 'FAILURE')
		ORDER BY started_at DESC
		LIMIT ?
	`, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanResults(rows)
}

func scanResults(rows *sql.Rows) ([]CheckResult, error) {
	var results []CheckResult
	for rows.Next() {
		var r CheckResult
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.Name, &r.Status, &r.Total, &r.Passed, &r.Failed, &r.AvgLatencyMs, &r.ErrorType, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *MySQLStore) Trends(projectID, days int) (*TrendData, error) {
	var total int
	var completed sql.NullFloat64
	var latency sql.NullFloat64
	err := s.db.QueryRow(`
		SELECT COUNT(*),
			SUM(CASE WHEN status = 'COMPLETED' THEN 1 ELSE 0 END),
			AVG(avg_latency_ms)
		FROM check_results
		WHERE project_id = ? AND started_at > NOW() - INTERVAL ? DAY
	`, projectID, days).Scan(&total, &completed, &latency)
	if err != nil {
		return nil, err
	}

	trend := &TrendData{TotalRuns: total, AvgLatencyMs: latency.Float64}
	if total > 0 {
		trend.CurrentPassRate = completed.Float64 / float64(total)
	}
	return trend, nil
}

func (s *MySQLStore) PassRateTrend(projectID, days int) ([]DataPoint, error) {
	rows, err := s.db.Query(`
		SELECT DATE(started_at) AS day,
			COUNT(*) AS total,
			SUM(CASE WHEN status = 'COMPLETED' THEN 1 ELSE 0 END) AS completed,
			AVG(avg_latency_ms) AS latency
		FROM check_results
		WHERE project_id = ? AND started_at > NOW() - INTERVAL ? DAY
		GROUP BY DATE(started_at)
		ORDER BY day ASC
	`, projectID, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []DataPoint
	for rows.Next() {
		var day time.Time
		var total, completed int
		var latency sql.NullFloat64
		if err := rows.Scan(&day, &total, &completed, &latency); err != nil {
			return nil, err
		}
		point := DataPoint{Date: day, Count: total, AvgLatencyMs: latency.Float64}
		if total > 0 {
			point.PassRate = float64(completed) / float64(total) * 100
		}
		points = append(points, point)
	}
	return points, rows.Err()
}

func (s *MySQLStore) FlakyCases(projectID int, threshold float64) ([]FlakyCase, error) {
	rows, err := s.db.Query(`
		SELECT name,
			COUNT(*) AS total,
			SUM(CASE WHEN status IN ('ERROR', 'FAILURE') THEN 1 ELSE 0 END) AS failed,
			SUM(CASE WHEN status = 'COMPLETED' THEN 1 ELSE 0 END) AS passed,
			MAX(CASE WHEN status IN ('ERROR', 'FAILURE') THEN started_at END) AS last_failure
		FROM check_results
		WHERE project_id = ?
		GROUP BY name
		HAVING failed > 0 AND passed > 0
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flaky []FlakyCase
	for rows.Next() {
		var fc FlakyCase
		var lastFailure sql.NullTime
		if err := rows.Scan(&fc.Name, &fc.TotalRuns, &fc.FailedRuns, &fc.PassedRuns, &lastFailure); err != nil {
			return nil, err
		}
		fc.LastFailure = lastFailure.Time
		fc.FlakyScore = flakyScore(fc.FailedRuns, fc.TotalRuns)
		if fc.FlakyScore >= threshold {
			flaky = append(flaky, fc)
		}
	}
	return flaky, rows.Err()
}

// flakyScore is the failure ratio; a case failing every time is broken, not
// flaky, but the HAVING clause already filters those out.
func flakyScore(failed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(failed) / float64(total)
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}
