package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// fileState is the on-disk layout of a FileStore.
type fileState struct {
	Token   *string                  `json:"token,omitempty"`
	User    *string                  `json:"user,omitempty"`
	Project *string                  `json:"current_project,omitempty"`
	Results map[string][]CheckResult `json:"check_results,omitempty"`
}

// FileStore persists the session as a JSON file, used by the CLI so that a
// login survives across invocations. Mutations flush eagerly; a failed flush
// is logged and the in-memory state kept (last-write-wins storage, nothing
// stronger is promised).
type FileStore struct {
	mu    sync.Mutex
	path  string
	state fileState
	log   zerolog.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore loads (or initializes) the session file at path.
func NewFileStore(path string, log zerolog.Logger) (*FileStore, error) {
	s := &FileStore{path: path, log: log}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.state.Results = make(map[string][]CheckResult)
			return s, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("failed to parse session file %s: %w", path, err)
	}
	if s.state.Results == nil {
		s.state.Results = make(map[string][]CheckResult)
	}
	return s, nil
}

func (s *FileStore) flush() {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		s.log.Error().Err(err).Msg("could not serialize session state")
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		s.log.Error().Err(err).Msg("could not create session directory")
		return
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("could not write session file")
	}
}

func (s *FileStore) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Token == nil {
		return "", false
	}
	return *s.state.Token, true
}

func (s *FileStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Token = &token
	s.flush()
}

func (s *FileStore) User() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.User == nil {
		return "", false
	}
	return *s.state.User, true
}

func (s *FileStore) SetUser(serialized string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.User = &serialized
	s.flush()
}

func (s *FileStore) CurrentProject() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Project == nil {
		return "", false
	}
	return *s.state.Project, true
}

func (s *FileStore) SetCurrentProject(serialized string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Project = &serialized
	s.flush()
}

func (s *FileStore) ClearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Token = nil
	s.state.User = nil
	s.state.Project = nil
	s.flush()
}

func (s *FileStore) CheckResults(projectID string) []CheckResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	cached := s.state.Results[projectID]
	out := make([]CheckResult, len(cached))
	copy(out, cached)
	return out
}

func (s *FileStore) PushCheckResult(projectID string, result CheckResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Results[projectID] = pushResult(s.state.Results[projectID], result)
	s.flush()
}
