package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAppendsUntilMaxSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	f, err := New(path, WithMaxSize(20))
	require.NoError(t, err)
	defer f.Close()

	n, err := f.Write([]byte("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(data))
}

func TestWriteTruncatesPastMaxSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	f, err := New(path, WithMaxSize(15))
	require.NoError(t, err)
	defer f.Close()

	_, err = f.Write([]byte("0123456789")) // size 10
	require.NoError(t, err)

	_, err = f.Write([]byte("abcdefgh")) // 10+8=18 > 15, triggers truncate first
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abcdefgh", string(data))
}

func TestNewReopensExistingFileWithCorrectSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	f1, err := New(path, WithMaxSize(100))
	require.NoError(t, err)
	_, err = f1.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f1.Close())

	f2, err := New(path, WithMaxSize(100))
	require.NoError(t, err)
	defer f2.Close()
	assert.Equal(t, int64(5), f2.size)
}

func TestSetupWithDebugLogWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	file, err := Setup(path, true)
	require.NoError(t, err)
	require.NotNil(t, file)
	defer file.Close()

	slog.Info("setup-check")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "setup-check")
}

func TestSetupWithoutDebugLogStillConfiguresDefault(t *testing.T) {
	file, err := Setup("", false)
	require.NoError(t, err)
	assert.Nil(t, file)
}
