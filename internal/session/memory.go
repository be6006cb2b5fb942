package session

import "sync"

// MemoryStore is the in-process Store implementation used by the dashboard
// server. Access is serialized with a single mutex.
type MemoryStore struct {
	mu      sync.RWMutex
	token   string
	hasTok  bool
	user    string
	hasUser bool
	project string
	hasProj bool
	results map[string][]CheckResult
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[string][]CheckResult)}
}

func (s *MemoryStore) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.hasTok
}

func (s *MemoryStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.hasTok = true
}

func (s *MemoryStore) User() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.hasUser
}

func (s *MemoryStore) SetUser(serialized string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = serialized
	s.hasUser = true
}

func (s *MemoryStore) CurrentProject() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project, s.hasProj
}

func (s *MemoryStore) SetCurrentProject(serialized string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.project = serialized
	s.hasProj = true
}

func (s *MemoryStore) ClearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.hasTok = "", false
	s.user, s.hasUser = "", false
	s.project, s.hasProj = "", false
}

func (s *MemoryStore) CheckResults(projectID string) []CheckResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cached := s.results[projectID]
	out := make([]CheckResult, len(cached))
	copy(out, cached)
	return out
}

func (s *MemoryStore) PushCheckResult(projectID string, result CheckResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[projectID] = pushResult(s.results[projectID], result)
}

// pushResult prepends a result, dropping any stale entry with the same id and
// truncating to MaxCheckResults.
func pushResult(cached []CheckResult, result CheckResult) []CheckResult {
	out := make([]CheckResult, 0, len(cached)+1)
	out = append(out, result)
	for _, r := range cached {
		if r.ID == result.ID {
			continue
		}
		out = append(out, r)
	}
	if len(out) > MaxCheckResults {
		out = out[:MaxCheckResults]
	}
	return out
}
