// Package protect decides which target-repository paths are off limits to
// the merger. Handwritten paths are listed one per line in a plain-text
// pattern file at the target root; version-control metadata and the
// pattern file itself are always protected.
package protect

import (
	"fmt"
	"path"
	"strings"

	"github.com/danieljhkim/revsync/internal/fsops"
)

// FileName is the pattern file name at the target repository root.
const FileName = ".handwritten-files"

// Filter reports whether a target path is protected from overwrite.
//
// A pattern matches its exact path and, as a directory prefix, everything
// beneath it. There is no glob expansion; matching is deterministic.
type Filter struct {
	patterns []string
}

// Parse reads a pattern list, one pattern per line. Blank lines and lines
// starting with '#' are ignored. The pattern file itself, version-control
// metadata, and any extra implicit patterns are always protected.
func Parse(data []byte, implicit ...string) (*Filter, error) {
	patterns := []string{FileName, ".git"}
	patterns = append(patterns, implicit...)

	for i, line := range strings.Split(string(data), "\n") {
		pattern := strings.TrimSpace(line)
		if pattern == "" || strings.HasPrefix(pattern, "#") {
			continue
		}
		if err := fsops.ValidateRelPath(pattern); err != nil {
			return nil, fmt.Errorf("invalid pattern on line %d: %w", i+1, err)
		}
		patterns = append(patterns, normalize(pattern))
	}

	return &Filter{patterns: patterns}, nil
}

// normalize strips trailing slashes so directory patterns and exact paths
// compare identically.
func normalize(pattern string) string {
	return strings.TrimSuffix(path.Clean(strings.ReplaceAll(pattern, "\\", "/")), "/")
}

// IsProtected reports whether the given slash-separated relative path
// matches any pattern exactly or falls under one as a directory prefix.
func (f *Filter) IsProtected(p string) bool {
	p = normalize(p)
	for _, pattern := range f.patterns {
		if p == pattern || strings.HasPrefix(p, pattern+"/") {
			return true
		}
	}
	return false
}

// Patterns returns the effective pattern list, implicit entries included.
func (f *Filter) Patterns() []string {
	out := make([]string, len(f.patterns))
	copy(out, f.patterns)
	return out
}
