// Package classify decides which repository paths are eligible for
// indexing. Eligibility is a pure function of the path: the extension must
// be in the supported set, the base name must not be on the ignore list,
// and no path segment may be hidden (leading dot).
package classify

import (
	"path/filepath"
	"strings"
)

// hiddenPrefix marks path segments skipped during full-tree scans
// (e.g. .git, .codeturtle).
const hiddenPrefix = "."

// supportedExtensions maps indexable extensions to chunker language tags.
var supportedExtensions = map[string]string{
	".py": "python",
	".js": "javascript",
	".ts": "typescript",
	".go": "go",
}

// ignoredNames lists base filenames that are never indexed even when their
// extension is supported.
var ignoredNames = map[string]struct{}{
	"__init__.py": {},
	".DS_Store":   {},
}

// Eligible reports whether path should be indexed.
func Eligible(path string) bool {
	if path == "" {
		return false
	}

	base := filepath.Base(path)
	if _, ignored := ignoredNames[base]; ignored {
		return false
	}

	if _, ok := supportedExtensions[filepath.Ext(path)]; !ok {
		return false
	}

	return !hasHiddenSegment(path)
}

// Language returns the chunker language tag for path, or "" when the
// extension is unsupported.
func Language(path string) string {
	return supportedExtensions[filepath.Ext(path)]
}

// SupportedExtensions returns the extensions the classifier accepts.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(supportedExtensions))
	for ext := range supportedExtensions {
		exts = append(exts, ext)
	}
	return exts
}

// hasHiddenSegment reports whether any segment of path starts with a dot.
// The final segment is checked too: hidden files are not indexable.
func hasHiddenSegment(path string) bool {
	clean := filepath.ToSlash(filepath.Clean(path))
	for _, segment := range strings.Split(clean, "/") {
		if segment == "" || segment == "." || segment == ".." {
			continue
		}
		if strings.HasPrefix(segment, hiddenPrefix) {
			return true
		}
	}
	return false
}
