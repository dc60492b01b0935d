package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files under dir, making parent directories as needed.
func writeTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func TestScanPaths_FindsOnlyEligibleFiles(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"a.py":          "print('a')\n",
		"b.md":          "# ignored extension\n",
		"__init__.py":   "",
		"src/handler.go": "package src\n",
		"src/util.ts":   "export {}\n",
	})

	paths, errCount, err := ScanPaths(context.Background(), dir)
	require.NoError(t, err)

	assert.Zero(t, errCount)
	assert.Equal(t, []string{"a.py", "src/handler.go", "src/util.ts"}, paths)
}

func TestScanPaths_SkipsHiddenDirectories(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"main.go":           "package main\n",
		".git/objects/x.py": "not code\n",
		".venv/site.py":     "ignored\n",
	})

	paths, _, err := ScanPaths(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"main.go"}, paths)
}

func TestScanPaths_ResultIsSorted(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"z.go": "package z\n",
		"a.go": "package a\n",
		"m/mid.py": "pass\n",
	})

	paths, _, err := ScanPaths(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.go", "m/mid.py", "z.go"}, paths)
}

func TestScan_RootMustBeDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "not-a-dir.go")
	require.NoError(t, os.WriteFile(file, []byte("package x\n"), 0o644))

	_, err := Scan(context.Background(), file)
	assert.Error(t, err)
}

func TestScan_MissingRootErrors(t *testing.T) {
	_, err := Scan(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestScanPaths_EmptyTree(t *testing.T) {
	paths, errCount, err := ScanPaths(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, errCount)
	assert.Empty(t, paths)
}

func TestScanPaths_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{"a.go": "package a\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := ScanPaths(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}
