// Package changeset resolves the set of file paths to upsert and to delete
// for one sync run. Targeted mode reads explicit newline-delimited change
// lists; full-scan mode walks the source tree. Either way the resolved
// ChangeSet is disjoint, sorted, and immutable for the rest of the run.
package changeset

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/codeturtle/codeturtle/internal/classify"
	cterrors "github.com/codeturtle/codeturtle/internal/errors"
	"github.com/codeturtle/codeturtle/internal/scanner"
)

// ChangeSet is the resolved pair of path sets for one run.
// Upserts and Deletes never share a path: a path listed for both is kept as
// an upsert, whose delete-then-reupsert handling already purges old vectors.
type ChangeSet struct {
	// Upserts are eligible files whose current contents must be indexed.
	Upserts []string

	// Deletes are paths whose vectors must be purged. Never filtered by
	// the classifier: a deleted file's eligibility may no longer be
	// resolvable from its path record alone.
	Deletes []string

	// ScanErrors counts unreadable entries skipped during a full scan.
	ScanErrors int
}

// Options configures resolution.
type Options struct {
	// ScanPath is the root for full-scan mode (default ".").
	ScanPath string

	// UpsertListPath, when set, names a newline-delimited list of paths
	// to upsert. An unreadable named list aborts the run; falling back to
	// a full scan would silently widen a targeted re-index.
	UpsertListPath string

	// DeleteListPath, when set, names a newline-delimited list of paths
	// to purge. A missing delete list is an empty set, not an error.
	DeleteListPath string
}

// Targeted reports whether the options select targeted mode.
func (o Options) Targeted() bool {
	return o.UpsertListPath != "" || o.DeleteListPath != ""
}

// Resolve builds the ChangeSet for one run.
func Resolve(ctx context.Context, opts Options) (*ChangeSet, error) {
	if opts.Targeted() {
		return resolveTargeted(opts)
	}
	return resolveFullScan(ctx, opts.ScanPath)
}

// resolveTargeted reads the explicit change lists.
func resolveTargeted(opts Options) (*ChangeSet, error) {
	cs := &ChangeSet{}

	if opts.UpsertListPath != "" {
		lines, err := readPathList(opts.UpsertListPath)
		if err != nil {
			return nil, cterrors.InputError(
				fmt.Sprintf("cannot read upsert file list %s", opts.UpsertListPath), err)
		}
		for _, path := range lines {
			if classify.Eligible(path) {
				cs.Upserts = append(cs.Upserts, path)
			}
		}
	}

	if opts.DeleteListPath != "" {
		lines, err := readPathList(opts.DeleteListPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, cterrors.InputError(
					fmt.Sprintf("cannot read delete file list %s", opts.DeleteListPath), err)
			}
			// Missing delete list means nothing to delete.
			slog.Warn("delete file list not found, treating as empty",
				slog.String("path", opts.DeleteListPath))
			lines = nil
		}
		cs.Deletes = lines
	}

	cs.normalize()
	return cs, nil
}

// resolveFullScan walks the tree. A full scan never infers deletions; it
// does not see removed files.
func resolveFullScan(ctx context.Context, root string) (*ChangeSet, error) {
	paths, errCount, err := scanner.ScanPaths(ctx, root)
	if err != nil {
		return nil, err
	}

	return &ChangeSet{
		Upserts:    paths,
		ScanErrors: errCount,
	}, nil
}

// normalize sorts, deduplicates, and enforces disjointness.
func (cs *ChangeSet) normalize() {
	cs.Upserts = dedupeSorted(cs.Upserts)
	cs.Deletes = dedupeSorted(cs.Deletes)

	if len(cs.Upserts) == 0 || len(cs.Deletes) == 0 {
		return
	}

	upserts := make(map[string]struct{}, len(cs.Upserts))
	for _, p := range cs.Upserts {
		upserts[p] = struct{}{}
	}

	kept := cs.Deletes[:0]
	for _, p := range cs.Deletes {
		if _, dup := upserts[p]; !dup {
			kept = append(kept, p)
		}
	}
	cs.Deletes = kept
}

// readPathList reads a newline-delimited path list, dropping blank lines
// and surrounding whitespace.
func readPathList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var paths []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}

func dedupeSorted(paths []string) []string {
	if len(paths) == 0 {
		return paths
	}
	sort.Strings(paths)
	out := paths[:1]
	for _, p := range paths[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}
