package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportsWrite(t *testing.T) {
	dir := t.TempDir()
	targets := filepath.Join(dir, "targets.txt")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(targets, []byte("4b\n"), 0o644))

	w, err := New([]string{targets}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(other, []byte("ignored\n"), 0o644))
	require.NoError(t, os.WriteFile(targets, []byte("4b\n121\n"), 0o644))

	select {
	case got := <-w.Changes:
		assert.Equal(t, targets, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestStopClosesChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.txt")
	w, err := New([]string{path}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	w.Stop()

	_, ok := <-w.Changes
	assert.False(t, ok)
}

func TestStartMissingDir(t *testing.T) {
	w, err := New([]string{filepath.Join(t.TempDir(), "missing", "targets.txt")}, nil)
	require.NoError(t, err)
	assert.Error(t, w.Start())
	w.watcher.Close()
}
