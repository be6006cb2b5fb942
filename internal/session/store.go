// Package session holds the locally persisted client state: the opaque
// bearer token, the serialized user, the currently selected project and the
// per-project check result caches.
package session

import "time"

// MaxCheckResults bounds the per-project result cache.
const MaxCheckResults = 100

// CheckResult is one cached test case outcome, newest first in the cache.
type CheckResult struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Store is the session state API. Reads report presence explicitly so that
// callers can distinguish "no token" from an empty one. Implementations are
// last-write-wins; no cross-process coordination is attempted.
type Store interface {
	Token() (string, bool)
	SetToken(token string)

	User() (string, bool)
	SetUser(serialized string)

	CurrentProject() (string, bool)
	SetCurrentProject(serialized string)

	// ClearSession removes exactly the token, user and current project keys.
	// Check result caches survive a session reset.
	ClearSession()

	CheckResults(projectID string) []CheckResult
	PushCheckResult(projectID string, result CheckResult)
}
