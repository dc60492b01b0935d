package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, root string) *Watcher {
	t.Helper()
	w, err := New(30*time.Millisecond, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = w.Start(ctx, root) }()

	// Give the watcher time to register the tree.
	time.Sleep(100 * time.Millisecond)
	return w
}

func waitBatch(t *testing.T, w *Watcher) []FileEvent {
	t.Helper()
	select {
	case events := <-w.Batches():
		return events
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event batch")
		return nil
	}
}

func TestWatcherSeesEligibleCreate(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "new.py"), []byte("x = 1\n"), 0o644))

	events := waitBatch(t, w)
	require.Len(t, events, 1)
	assert.Equal(t, "new.py", events[0].Path)
	assert.Equal(t, OpCreate, events[0].Operation)
}

func TestWatcherIgnoresUnsupportedFiles(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "code.go"), []byte("package x\n"), 0o644))

	events := waitBatch(t, w)
	require.Len(t, events, 1)
	assert.Equal(t, "code.go", events[0].Path)
}

func TestWatcherDeletePassesUnfiltered(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "old.py")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))

	w := startWatcher(t, root)
	require.NoError(t, os.Remove(path))

	events := waitBatch(t, w)
	require.Len(t, events, 1)
	assert.Equal(t, OpDelete, events[0].Operation)
	assert.Equal(t, "old.py", events[0].Path)
}

func TestWatcherIgnoresHiddenDirs(t *testing.T) {
	root := t.TempDir()
	hidden := filepath.Join(root, ".codeturtle")
	require.NoError(t, os.MkdirAll(hidden, 0o755))

	w := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(hidden, "junk.py"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "real.py"), []byte("x = 1\n"), 0o644))

	events := waitBatch(t, w)
	require.Len(t, events, 1)
	assert.Equal(t, "real.py", events[0].Path)
}

func TestWatcherStopIdempotent(t *testing.T) {
	w, err := New(time.Millisecond, nil)
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
