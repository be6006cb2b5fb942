package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, 2500*time.Millisecond, cfg.PollInterval)
	assert.False(t, cfg.IsEnvProduction())
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("SENSEI_API_BASE_URL", "https://api.example.com")
	t.Setenv("SENSEI_POLL_INTERVAL", "5s")
	t.Setenv("SENSEI_ENVIRONMENT", "production")
	t.Setenv("SENSEI_USE_MOCK", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.True(t, cfg.IsEnvProduction())
	assert.True(t, cfg.UseMock)
}
