package plan

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockAcquireRelease(t *testing.T) {
	dir := t.TempDir()
	l := NewLock(dir)

	require.NoError(t, l.Acquire())

	data, err := os.ReadFile(filepath.Join(dir, lockFileName))
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	require.NoError(t, l.Release())
	_, err = os.Stat(filepath.Join(dir, lockFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestLockHeldByLiveProcess(t *testing.T) {
	dir := t.TempDir()

	// Our own PID always counts as live.
	require.NoError(t, NewLock(dir).Acquire())

	err := NewLock(dir).Acquire()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already being worked on")
}

func TestLockReclaimsStale(t *testing.T) {
	t.Run("dead process", func(t *testing.T) {
		dir := t.TempDir()
		// PID 4194305 exceeds the default Linux pid_max; treat as dead.
		require.NoError(t, os.WriteFile(filepath.Join(dir, lockFileName), []byte("4194305"), 0644))

		require.NoError(t, NewLock(dir).Acquire())
	})

	t.Run("garbage content", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, lockFileName), []byte("not-a-pid"), 0644))

		require.NoError(t, NewLock(dir).Acquire())
	})
}

func TestLockReleaseIdempotent(t *testing.T) {
	l := NewLock(t.TempDir())
	require.NoError(t, l.Release())
	require.NoError(t, l.Release())
}
