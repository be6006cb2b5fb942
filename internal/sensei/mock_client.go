package sensei

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockClient serves generated data for local development (USE_MOCK=true) and
// for server/CLI tests. Mutating calls update in-memory state so that the
// poller sees realistic status transitions.
type MockClient struct {
	mu         sync.Mutex
	nextID     int
	projects   []Project
	cases      []TestCase
	connectors []Connector
	reports    map[int]Report
	testErrors map[int][]TestError
	apiKeys    []APIKey
}

var _ API = (*MockClient)(nil)

func NewMockClient() *MockClient {
	c := &MockClient{
		reports:    make(map[int]Report),
		testErrors: make(map[int][]TestError),
		nextID:     1000,
	}
	c.generateMockData()
	return c
}

func (c *MockClient) generateMockData() {
	c.projects = []Project{
		{ID: 1, Name: "support-bot", Description: "Customer support assistant", CreatedAt: time.Now().Add(-60 * 24 * time.Hour)},
		{ID: 2, Name: "booking-bot", Description: "Flight booking assistant", CreatedAt: time.Now().Add(-30 * 24 * time.Hour)},
	}

	c.connectors = []Connector{
		{ID: 1, Name: "support-rasa", Technology: "rasa", Project: 1, Parameters: map[string]string{"url": "http://rasa:5005"}},
		{ID: 2, Name: "booking-gpt", Technology: "openai", Project: 2, Parameters: map[string]string{"model": "gpt-4o-mini"}},
	}

	for i := 0; i < 40; i++ {
		status := StatusCompleted
		switch {
		case i%9 == 0:
			status = StatusError
		case i%13 == 0:
			status = StatusStopped
		case i < 2:
			status = StatusRunning
		}

		project := 1 + i%2
		started := time.Now().Add(time.Duration(-i) * time.Hour)
		tc := TestCase{
			ID:        i + 1,
			Name:      fmt.Sprintf("check-%d", i+1),
			Project:   project,
			Status:    status,
			StartedAt: started,
		}
		if IsTerminal(status) {
			finished := started.Add(3 * time.Minute)
			tc.FinishedAt = &finished
			c.reports[tc.ID] = Report{
				ID:           tc.ID,
				TestCase:     tc.ID,
				Total:        20,
				Passed:       18 - i%3,
				Failed:       2 + i%3,
				AvgLatencyMs: 350 + float64(i*7%120),
			}
		}
		if status == StatusError {
			c.testErrors[tc.ID] = []TestError{
				{ID: tc.ID, TestCase: tc.ID, ErrorType: ErrorTypeConnectorConnection, Count: 1, Message: "connector unreachable"},
			}
		}
		c.cases = append(c.cases, tc)
	}

	c.apiKeys = []APIKey{
		{ID: 1, Name: "ci", CreatedAt: time.Now().Add(-14 * 24 * time.Hour)},
	}
}

func (c *MockClient) Login(_ context.Context, username, _ string) (*User, error) {
	return &User{ID: 1, Username: username, Email: username + "@example.com"}, nil
}

func (c *MockClient) Register(_ context.Context, username, email, _ string) (*User, error) {
	return &User{ID: 2, Username: username, Email: email}, nil
}

func (c *MockClient) Logout() {}

func (c *MockClient) GetProjects(context.Context) ([]Project, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Project(nil), c.projects...), nil
}

func (c *MockClient) GetProject(_ context.Context, id int) (*Project, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.projects {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("project %d not found", id)
}

func (c *MockClient) CreateProject(_ context.Context, p Project) (*Project, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.projects {
		if existing.Name == p.Name {
			return nil, &APIError{Kind: KindHTTP, Status: 400, Body: `{"name":["project with this name already exists."]}`}
		}
	}
	c.nextID++
	p.ID = c.nextID
	p.CreatedAt = time.Now()
	c.projects = append(c.projects, p)
	return &p, nil
}

func (c *MockClient) UpdateProject(_ context.Context, p Project) (*Project, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.projects {
		if existing.ID == p.ID {
			c.projects[i] = p
			return &p, nil
		}
	}
	return nil, fmt.Errorf("project %d not found", p.ID)
}

func (c *MockClient) DeleteProject(_ context.Context, id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.projects {
		if existing.ID == id {
			c.projects = append(c.projects[:i], c.projects[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("project %d not found", id)
}

func (c *MockClient) GetTestCases(_ context.Context, opts ListOptions) ([]TestCase, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var result []TestCase
	for _, tc := range c.cases {
		if opts.Project > 0 && tc.Project != opts.Project {
			continue
		}
		if opts.Status != "" && tc.Status != opts.Status {
			continue
		}
		if len(opts.IDs) > 0 && !containsID(opts.IDs, tc.ID) {
			continue
		}
		result = append(result, tc)
	}
	return result, nil
}

func containsID(ids []int, id int) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func (c *MockClient) GetTestCase(_ context.Context, id int) (*TestCase, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tc := range c.cases {
		if tc.ID == id {
			return &tc, nil
		}
	}
	return nil, fmt.Errorf("test case %d not found", id)
}

func (c *MockClient) ExecuteTestCase(_ context.Context, id int) (*TestCase, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, tc := range c.cases {
		if tc.ID == id {
			c.cases[i].Status = StatusRunning
			c.cases[i].StartedAt = time.Now()
			c.cases[i].FinishedAt = nil
			out := c.cases[i]
			return &out, nil
		}
	}
	return nil, fmt.Errorf("test case %d not found", id)
}

func (c *MockClient) StopTestCase(_ context.Context, id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, tc := range c.cases {
		if tc.ID == id {
			c.cases[i].Status = StatusStopped
			now := time.Now()
			c.cases[i].FinishedAt = &now
			return nil
		}
	}
	return fmt.Errorf("test case %d not found", id)
}

func (c *MockClient) DeleteTestCase(_ context.Context, id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, tc := range c.cases {
		if tc.ID == id {
			c.cases = append(c.cases[:i], c.cases[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("test case %d not found", id)
}

func (c *MockClient) GetConnectors(_ context.Context, projectID int) ([]Connector, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var result []Connector
	for _, conn := range c.connectors {
		if projectID > 0 && conn.Project != projectID {
			continue
		}
		result = append(result, conn)
	}
	return result, nil
}

func (c *MockClient) GetConnector(_ context.Context, id int) (*Connector, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, conn := range c.connectors {
		if conn.ID == id {
			return &conn, nil
		}
	}
	return nil, fmt.Errorf("connector %d not found", id)
}

func (c *MockClient) CreateConnector(_ context.Context, conn Connector) (*Connector, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	conn.ID = c.nextID
	c.connectors = append(c.connectors, conn)
	return &conn, nil
}

func (c *MockClient) UpdateConnector(_ context.Context, conn Connector) (*Connector, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.connectors {
		if existing.ID == conn.ID {
			c.connectors[i] = conn
			return &conn, nil
		}
	}
	return nil, fmt.Errorf("connector %d not found", conn.ID)
}

func (c *MockClient) DeleteConnector(_ context.Context, id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.connectors {
		if existing.ID == id {
			c.connectors = append(c.connectors[:i], c.connectors[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("connector %d not found", id)
}

func (c *MockClient) GetConnectorTechnologies(context.Context) ([]Technology, error) {
	return []Technology{
		{Name: "rasa", Parameters: []string{"url"}},
		{Name: "openai", Parameters: []string{"api_key", "model"}},
		{Name: "dialogflow", Parameters: []string{"project_id", "credentials"}},
	}, nil
}

func (c *MockClient) ValidateConnector(context.Context, int) (*ValidationResult, error) {
	return &ValidationResult{OK: true, Message: "connector reachable"}, nil
}

func (c *MockClient) GetReport(_ context.Context, testCaseID int) (*Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	report, ok := c.reports[testCaseID]
	if !ok {
		return nil, fmt.Errorf("no report for test case %d", testCaseID)
	}
	return &report, nil
}

func (c *MockClient) GetGlobalReport(_ context.Context, projectID int) (*GlobalReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	global := GlobalReport{Project: projectID}
	for _, tc := range c.cases {
		if tc.Project != projectID {
			continue
		}
		global.TotalCases++
		if report, ok := c.reports[tc.ID]; ok {
			global.Passed += report.Passed
			global.Failed += report.Failed
		}
	}
	return &global, nil
}

func (c *MockClient) GetTestErrors(_ context.Context, testCaseID int) ([]TestError, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]TestError(nil), c.testErrors[testCaseID]...), nil
}

func (c *MockClient) DownloadGraph(_ context.Context, testCaseID int, format string) ([]byte, error) {
	if format == "" {
		return []byte(fmt.Sprintf(`{"test_case":%d,"nodes":[],"edges":[]}`, testCaseID)), nil
	}
	return []byte("mock-graph-" + format), nil
}

func (c *MockClient) GetAPIKeys(context.Context) ([]APIKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]APIKey(nil), c.apiKeys...), nil
}

func (c *MockClient) CreateAPIKey(_ context.Context, name string) (*APIKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	key := APIKey{ID: c.nextID, Name: name, Key: uuid.NewString(), CreatedAt: time.Now()}
	c.apiKeys = append(c.apiKeys, key)
	return &key, nil
}

func (c *MockClient) DeleteAPIKey(_ context.Context, id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, key := range c.apiKeys {
		if key.ID == id {
			c.apiKeys = append(c.apiKeys[:i], c.apiKeys[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("API key %d not found", id)
}

func (c *MockClient) UploadProfile(_ context.Context, req UploadRequest) (*UploadResult, error) {
	result := &UploadResult{}
	for name := range req.Files {
		result.Uploaded = append(result.Uploaded, name)
	}
	return result, nil
}
