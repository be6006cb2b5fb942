// Package artifacts caches downloaded graph artifacts on disk so repeated
// report views do not re-download rendered graphs from the backend.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Manager struct {
	cacheDir string
	cacheTTL time.Duration
}

func NewManager(cacheDir string, cacheTTL time.Duration) *Manager {
	return &Manager{
		cacheDir: cacheDir,
		cacheTTL: cacheTTL,
	}
}

func (m *Manager) path(testCaseID int, format string) string {
	return filepath.Join(m.cacheDir, fmt.Sprintf("graph-%d.%s", testCaseID, format))
}

// Get returns the cached artifact for a test case, or ok=false when it is
// missing or older than the TTL.
func (m *Manager) Get(testCaseID int, format string) ([]byte, bool, error) {
	path := m.path(testCaseID, format)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if time.Since(info.ModTime()) > m.cacheTTL {
		os.Remove(path)
		return nil, false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Put stores an artifact. Terminal executions never change, so the TTL is
// only a disk space bound.
func (m *Manager) Put(testCaseID int, format string, data []byte) error {
	if err := os.MkdirAll(m.cacheDir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}
	if err := os.WriteFile(m.path(testCaseID, format), data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}
