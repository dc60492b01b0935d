// Package scanner discovers indexable files for full-scan mode.
// It walks the source tree rooted at ScanPath, prunes hidden directories,
// and applies the classifier to every regular file it sees.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codeturtle/codeturtle/internal/classify"
)

// Result is streamed from Scan as files are discovered.
type Result struct {
	// Path is the discovered file path relative to the scan root.
	Path string
	// Err is set when a directory entry could not be inspected.
	Err error
}

// Scan walks root and streams eligible files over the returned channel.
// The channel is closed when the walk completes or ctx is cancelled.
func Scan(ctx context.Context, root string) (<-chan Result, error) {
	if root == "" {
		root = "."
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve scan root: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root is not a directory: %s", absRoot)
	}

	results := make(chan Result, 64)

	go func() {
		defer close(results)

		walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err != nil {
				// Unreadable entries are reported, not fatal.
				results <- Result{Err: err}
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			rel, relErr := filepath.Rel(absRoot, path)
			if relErr != nil {
				return nil
			}

			if d.IsDir() {
				if rel != "." && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}

			// Symlinks are not followed; only regular files are indexed.
			if !d.Type().IsRegular() {
				return nil
			}

			rel = filepath.ToSlash(rel)
			if !classify.Eligible(rel) {
				return nil
			}

			select {
			case results <- Result{Path: rel}:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})

		if walkErr != nil && walkErr != context.Canceled {
			results <- Result{Err: walkErr}
		}
	}()

	return results, nil
}

// ScanPaths collects every eligible file under root into a sorted slice.
// Per-entry errors are counted but do not abort the scan; a run must not
// fail because one directory was unreadable.
func ScanPaths(ctx context.Context, root string) ([]string, int, error) {
	results, err := Scan(ctx, root)
	if err != nil {
		return nil, 0, err
	}

	var paths []string
	var errCount int
	for r := range results {
		if r.Err != nil {
			errCount++
			continue
		}
		paths = append(paths, r.Path)
	}

	if err := ctx.Err(); err != nil {
		return nil, errCount, err
	}

	// Walk order is filesystem dependent; the resulting set must not be.
	sort.Strings(paths)
	return paths, errCount, nil
}
