package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureParseTime(t *testing.T) {
	dsn, err := ensureParseTime("user:pass@tcp(localhost:3306)/sensei")
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")

	// Already set stays set.
	dsn, err = ensureParseTime("user:pass@tcp(localhost:3306)/sensei?parseTime=true&charset=utf8mb4")
	require.NoError(t, err)
	assert.Contains(t, dsn, "parseTime=true")

	_, err = ensureParseTime("not a dsn")
	assert.Error(t, err)
}
