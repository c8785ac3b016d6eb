package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initializeForTest runs Initialize and restores the once-per-process guard afterwards.
func initializeForTest(t *testing.T, s Settings) *Handle {
	t.Helper()
	t.Cleanup(func() { initialized.Store(false) })

	h, err := Initialize(s)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestInitializeAppendKeepsExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assistant.log")
	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0o644))

	h := initializeForTest(t, Settings{Level: "info", Mode: ModeAppend, File: path})
	h.Info("starting", nil)
	require.NoError(t, h.Close())

	content := readFile(t, path)
	assert.Contains(t, content, "previous run")
	assert.Contains(t, content, "INFO  starting")
}

func TestInitializeAppendCreatesFileAndDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "assistant.log")

	h := initializeForTest(t, Settings{Level: "debug", Mode: ModeAppend, File: path})
	h.Debug("created", nil)
	require.NoError(t, h.Close())

	assert.Contains(t, readFile(t, path), "created")
	assert.Equal(t, path, h.Path())
}

func TestInitializeTruncateDiscardsContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assistant.log")
	require.NoError(t, os.WriteFile(path, []byte("previous run\n"), 0o644))

	h := initializeForTest(t, Settings{Level: "warn", Mode: ModeTruncate, File: path})
	h.Warn("fresh", nil)
	require.NoError(t, h.Close())

	content := readFile(t, path)
	assert.NotContains(t, content, "previous run")
	assert.Contains(t, content, "fresh")
}

func TestInitializeRotateKeepsPreviousLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assistant.log")
	require.NoError(t, os.WriteFile(path, []byte("run one\n"), 0o644))
	require.NoError(t, os.WriteFile(path+".1", []byte("run zero\n"), 0o644))

	h := initializeForTest(t, Settings{Level: "info", Mode: ModeRotate, File: path, Backups: 1})
	h.Info("run two", nil)
	require.NoError(t, h.Close())

	assert.Contains(t, readFile(t, path), "run two")
	assert.Equal(t, "run one\n", readFile(t, path+".1"))
	_, err := os.Stat(path + ".2")
	assert.True(t, os.IsNotExist(err))
}

func TestInitializeRotateShiftsBackups(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assistant.log")
	require.NoError(t, os.WriteFile(path, []byte("run three\n"), 0o644))
	require.NoError(t, os.WriteFile(path+".1", []byte("run two\n"), 0o644))
	require.NoError(t, os.WriteFile(path+".2", []byte("run one\n"), 0o644))

	h := initializeForTest(t, Settings{Level: "info", Mode: ModeRotate, File: path, Backups: 2})
	require.NoError(t, h.Close())

	assert.Equal(t, "run three\n", readFile(t, path+".1"))
	assert.Equal(t, "run two\n", readFile(t, path+".2"))
	assert.Empty(t, readFile(t, path))
}

func TestInitializeRotateWithoutExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assistant.log")

	h := initializeForTest(t, Settings{Level: "info", Mode: ModeRotate, File: path})
	require.NoError(t, h.Close())

	_, err := os.Stat(path + ".1")
	assert.True(t, os.IsNotExist(err))
}

func TestInitializeTwiceFails(t *testing.T) {
	dir := t.TempDir()
	initializeForTest(t, Settings{Level: "info", Mode: ModeAppend, File: filepath.Join(dir, "a.log")})

	_, err := Initialize(Settings{Level: "info", Mode: ModeAppend, File: filepath.Join(dir, "b.log")})
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestInitializeFailureAllowsRetry(t *testing.T) {
	t.Cleanup(func() { initialized.Store(false) })
	dir := t.TempDir()

	_, err := Initialize(Settings{Level: "info", Mode: "sideways", File: filepath.Join(dir, "a.log")})
	require.Error(t, err)

	h, err := Initialize(Settings{Level: "info", Mode: ModeAppend, File: filepath.Join(dir, "a.log")})
	require.NoError(t, err)
	require.NoError(t, h.Close())
}

func TestHandleCloseIsIdempotent(t *testing.T) {
	h := initializeForTest(t, Settings{Level: "info", Mode: ModeAppend, File: filepath.Join(t.TempDir(), "a.log")})

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
	assert.NotPanics(t, func() { h.Info("after close", nil) })
}
