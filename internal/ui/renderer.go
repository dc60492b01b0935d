// Package ui renders sync progress and results as plain line output,
// styled when stdout is a terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/mattn/go-isatty"

	syncpkg "github.com/codeturtle/codeturtle/internal/sync"
	"github.com/codeturtle/codeturtle/internal/vecstore"
)

// Renderer writes line-oriented progress output.
type Renderer struct {
	mu     sync.Mutex
	out    io.Writer
	styles Styles
}

// NewRenderer creates a renderer for out. Styling is applied only when
// out is a terminal and noColor is false.
func NewRenderer(out io.Writer, noColor bool) *Renderer {
	styles := NoColorStyles()
	if !noColor && isTerminal(out) {
		styles = DefaultStyles()
	}
	return &Renderer{out: out, styles: styles}
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Stagef prints a stage progress line.
func (r *Renderer) Stagef(stage syncpkg.Stage, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.out, "%s %s\n",
		r.styles.Label.Render("["+stage.String()+"]"),
		fmt.Sprintf(format, args...))
}

// Warnf prints a warning line.
func (r *Renderer) Warnf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.out, "%s %s\n",
		r.styles.Warning.Render("WARN:"), fmt.Sprintf(format, args...))
}

// Errorf prints an error line.
func (r *Renderer) Errorf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.out, "%s %s\n",
		r.styles.Error.Render("ERROR:"), fmt.Sprintf(format, args...))
}

// Report prints the run summary.
func (r *Renderer) Report(report *syncpkg.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := r.styles.Success.Render("Sync complete")
	if !report.Success() {
		status = r.styles.Warning.Render("Sync completed with errors")
	}

	_, _ = fmt.Fprintf(r.out, "%s: %d files indexed, %d chunks, %d records purged in %s\n",
		status, report.FilesUpserted, report.ChunksIndexed, report.RecordsPurged,
		report.Duration.Round(10*time.Millisecond))

	if report.FilesFailed > 0 {
		_, _ = fmt.Fprintf(r.out, "  %s %d files skipped as unreadable\n",
			r.styles.Warning.Render("!"), report.FilesFailed)
	}
	if report.BatchesFailed > 0 {
		_, _ = fmt.Fprintf(r.out, "  %s %d batches failed (%d chunks not indexed)\n",
			r.styles.Error.Render("!"), report.BatchesFailed, report.ChunksFailed)
	}
	if report.DeleteErrors > 0 {
		_, _ = fmt.Fprintf(r.out, "  %s %d delete calls failed\n",
			r.styles.Error.Render("!"), report.DeleteErrors)
	}

	_, _ = fmt.Fprintf(r.out, "  %s %d\n", r.styles.Label.Render("index size:"), report.IndexSize)
}

// Stats prints index statistics with per-file chunk counts.
func (r *Renderer) Stats(stats vecstore.Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintln(r.out, r.styles.Header.Render("Index statistics"))
	_, _ = fmt.Fprintf(r.out, "  %s %d\n", r.styles.Label.Render("records:"), stats.Records)
	_, _ = fmt.Fprintf(r.out, "  %s %d\n", r.styles.Label.Render("files:"), stats.Files)
	_, _ = fmt.Fprintf(r.out, "  %s %d\n", r.styles.Label.Render("dimensions:"), stats.Dimensions)
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.styles.Label.Render("model:"), stats.Model)
	if stats.Orphans > 0 {
		_, _ = fmt.Fprintf(r.out, "  %s %d\n", r.styles.Label.Render("orphans:"), stats.Orphans)
	}

	if len(stats.ChunksPerFile) == 0 {
		return
	}

	paths := make([]string, 0, len(stats.ChunksPerFile))
	for path := range stats.ChunksPerFile {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	_, _ = fmt.Fprintln(r.out, r.styles.Label.Render("  chunks per file:"))
	for _, path := range paths {
		_, _ = fmt.Fprintf(r.out, "    %s %d\n", path, stats.ChunksPerFile[path])
	}
}
