package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	t.Run("NewFileLogger writes to both outputs", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "logs")
		var out bytes.Buffer

		logger, closer, err := NewFileLogger(&out, dir, "info")
		require.NoError(t, err)

		logger.Info("moved tracks", "count", 5)
		logger.Debug("hidden")
		require.NoError(t, closer.Close())

		assert.Contains(t, out.String(), "moved tracks")
		assert.NotContains(t, out.String(), "hidden")

		data, err := os.ReadFile(filepath.Join(dir, LogFileName))
		require.NoError(t, err)
		assert.Contains(t, string(data), "moved tracks")
		assert.Contains(t, string(data), "count=5")
	})

	t.Run("NewFileLogger rejects unknown level", func(t *testing.T) {
		_, _, err := NewFileLogger(&bytes.Buffer{}, t.TempDir(), "loud")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("WithLogger adds fields", func(t *testing.T) {
		var out bytes.Buffer
		logger := WithLogger(NewLogger(&out), "run", "abc")
		logger.Info("hello")
		assert.Contains(t, out.String(), "run=abc")
	})
}

func TestGenerateState(t *testing.T) {
	a, b := GenerateState(), GenerateState()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
	assert.Len(t, GenerateID(), 36)
}
