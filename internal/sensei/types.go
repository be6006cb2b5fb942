package sensei

import "time"

// Status values exchanged with the Sensei backend.
const (
	StatusPending   = "PENDING"
	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusError     = "ERROR"
	StatusStopped   = "STOPPED"
	StatusCancelled = "CANCELLED"
	StatusSuccess   = "SUCCESS"
	StatusFailure   = "FAILURE"
)

// Error type codes attached to diagnostic aggregates.
const (
	ErrorTypeConnectorConnection = "CONNECTOR_CONNECTION"
	ErrorTypeLLM                 = "LLM_ERROR"
	ErrorTypeTimeout             = "TIMEOUT_ERROR"
	ErrorTypeProfileValidation   = "PROFILE_VALIDATION"
	ErrorTypeInternal            = "INTERNAL_ERROR"
)

// IsTerminal reports whether a test case status can no longer change server-side.
func IsTerminal(status string) bool {
	switch status {
	case StatusCompleted, StatusError, StatusStopped:
		return true
	}
	return false
}

type Project struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Connectors  []int     `json:"chatbot_connectors,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

type TestCase struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	Project      int        `json:"project"`
	Status       string     `json:"status"`
	Profile      string     `json:"profile,omitempty"`
	StartedAt    time.Time  `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

type Connector struct {
	ID         int               `json:"id"`
	Name       string            `json:"name"`
	Technology string            `json:"technology"`
	Project    int               `json:"project"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

// Technology describes a supported connector technology and the parameters a
// connector of that kind must provide.
type Technology struct {
	Name       string   `json:"name"`
	Parameters []string `json:"parameters,omitempty"`
}

// Report carries the per-execution conversation metrics of a finished test case.
type Report struct {
	ID           int     `json:"id"`
	TestCase     int     `json:"test_case"`
	Total        int     `json:"total"`
	Passed       int     `json:"passed"`
	Failed       int     `json:"failed"`
	AvgLatencyMs float64 `json:"avg_latency_ms,omitempty"`
	TotalCost    float64 `json:"total_cost,omitempty"`
}

// GlobalReport aggregates the reports of every test case of a project.
type GlobalReport struct {
	Project      int     `json:"project"`
	TotalCases   int     `json:"total_cases"`
	Passed       int     `json:"passed"`
	Failed       int     `json:"failed"`
	AvgLatencyMs float64 `json:"avg_latency_ms,omitempty"`
}

// TestError is a diagnostic aggregate attached to a failed test case.
type TestError struct {
	ID        int    `json:"id"`
	TestCase  int    `json:"test_case"`
	ErrorType string `json:"error_type"`
	Count     int    `json:"count"`
	Message   string `json:"message,omitempty"`
}

type APIKey struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Key       string    `json:"key,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// ListOptions filters test case listings.
type ListOptions struct {
	Project int
	Status  string
	IDs     []int
}

// ValidationResult is returned by the connector validation endpoint.
type ValidationResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// UploadResult is returned after a profile file upload.
type UploadResult struct {
	Uploaded []string `json:"uploaded,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}
