package session

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_ClearSessionRemovesExactlySessionKeys(t *testing.T) {
	s := NewMemoryStore()
	s.SetToken("abc123")
	s.SetUser(`{"id":1}`)
	s.SetCurrentProject(`{"id":7}`)
	s.PushCheckResult("7", CheckResult{ID: 1, Status: "COMPLETED"})

	s.ClearSession()

	_, hasToken := s.Token()
	_, hasUser := s.User()
	_, hasProject := s.CurrentProject()
	assert.False(t, hasToken)
	assert.False(t, hasUser)
	assert.False(t, hasProject)

	// Result caches survive a session reset.
	assert.Len(t, s.CheckResults("7"), 1)
}

func TestMemoryStore_CheckResultCacheBounded(t *testing.T) {
	s := NewMemoryStore()
	for i := 0; i < MaxCheckResults+20; i++ {
		s.PushCheckResult("7", CheckResult{ID: i, RecordedAt: time.Now()})
	}

	cached := s.CheckResults("7")
	require.Len(t, cached, MaxCheckResults)
	// Newest first, oldest entries evicted.
	assert.Equal(t, MaxCheckResults+19, cached[0].ID)
	assert.Equal(t, 20, cached[len(cached)-1].ID)
}

func TestMemoryStore_CheckResultReplacesByID(t *testing.T) {
	s := NewMemoryStore()
	s.PushCheckResult("7", CheckResult{ID: 1, Status: "RUNNING"})
	s.PushCheckResult("7", CheckResult{ID: 2, Status: "RUNNING"})
	s.PushCheckResult("7", CheckResult{ID: 1, Status: "COMPLETED"})

	cached := s.CheckResults("7")
	require.Len(t, cached, 2)
	assert.Equal(t, 1, cached[0].ID)
	assert.Equal(t, "COMPLETED", cached[0].Status)
	assert.Equal(t, 2, cached[1].ID)
}

func TestMemoryStore_CachesAreProjectScoped(t *testing.T) {
	s := NewMemoryStore()
	s.PushCheckResult("7", CheckResult{ID: 1})
	s.PushCheckResult("8", CheckResult{ID: 2})

	assert.Len(t, s.CheckResults("7"), 1)
	assert.Len(t, s.CheckResults("8"), 1)
	assert.Empty(t, s.CheckResults("9"))
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s, err := NewFileStore(path, zerolog.Nop())
	require.NoError(t, err)
	s.SetToken("abc123")
	s.SetUser(`{"id":1,"username":"alice"}`)
	s.SetCurrentProject(`{"id":7}`)
	s.PushCheckResult("7", CheckResult{ID: 1, Name: "check-1", Status: "COMPLETED"})

	reloaded, err := NewFileStore(path, zerolog.Nop())
	require.NoError(t, err)

	token, ok := reloaded.Token()
	require.True(t, ok)
	assert.Equal(t, "abc123", token)

	project, ok := reloaded.CurrentProject()
	require.True(t, ok)
	assert.Equal(t, `{"id":7}`, project)

	cached := reloaded.CheckResults("7")
	require.Len(t, cached, 1)
	assert.Equal(t, "check-1", cached[0].Name)
}

func TestFileStore_ClearSessionPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s, err := NewFileStore(path, zerolog.Nop())
	require.NoError(t, err)
	s.SetToken("abc123")
	s.ClearSession()

	reloaded, err := NewFileStore(path, zerolog.Nop())
	require.NoError(t, err)
	_, ok := reloaded.Token()
	assert.False(t, ok)
}

func TestFileStore_MissingFileStartsEmpty(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json"), zerolog.Nop())
	require.NoError(t, err)
	_, ok := s.Token()
	assert.False(t, ok)
}

func TestFileStore_CacheBoundSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := NewFileStore(path, zerolog.Nop())
	require.NoError(t, err)
	for i := 0; i < MaxCheckResults+5; i++ {
		s.PushCheckResult("7", CheckResult{ID: i, Name: fmt.Sprintf("check-%d", i)})
	}

	reloaded, err := NewFileStore(path, zerolog.Nop())
	require.NoError(t, err)
	assert.Len(t, reloaded.CheckResults("7"), MaxCheckResults)
}
