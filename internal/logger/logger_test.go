package logger

import (
	"os"
	"path/filepath"
	"testing"

	"resync/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitAppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0644))

	require.NoError(t, Init(config.LogConfig{File: path}))
	Log(LevelInfo, "Server listening on port %d", 8080)
	Log(LevelError, "Failed to open file: %s", "missing.bin")
	WithFields(logrus.Fields{"session": "abc"}).Info("Client connected")
	Debugf("not written without verbose")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "previous run\n")
	assert.Contains(t, out, `level=info msg="Server listening on port 8080"`)
	assert.Contains(t, out, `level=error msg="Failed to open file: missing.bin"`)
	assert.Contains(t, out, "session=abc")
	assert.NotContains(t, out, "not written")
}

func TestVerboseEnablesDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")

	require.NoError(t, Init(config.LogConfig{File: path, Verbose: true}))
	Debugf("Received %d of %d bytes", 1024, 4096)
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Received 1024 of 4096 bytes")
}

func TestInitFailsOnUnwritablePath(t *testing.T) {
	err := Init(config.LogConfig{File: filepath.Join(t.TempDir(), "missing", "log.txt")})
	assert.Error(t, err)
	assert.NoError(t, Close())
}
