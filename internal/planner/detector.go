package planner

import (
	"path"
	"strings"
)

// Detector classifies revisions as model-affecting based on the upstream
// paths they touch.
type Detector struct {
	prefixes []string
}

// NewDetector creates a Detector for the given path prefixes. A prefix
// matches itself and everything beneath it as a directory.
func NewDetector(prefixes []string) *Detector {
	cleaned := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		cleaned = append(cleaned, strings.TrimSuffix(path.Clean(p), "/"))
	}
	return &Detector{prefixes: cleaned}
}

// ModelAffecting reports whether any changed path falls under a
// configured model prefix. A model-affecting revision gets its own mirror
// commit so bisection can isolate model-driven regressions.
func (d *Detector) ModelAffecting(changedPaths []string) bool {
	for _, changed := range changedPaths {
		changed = path.Clean(changed)
		for _, prefix := range d.prefixes {
			if changed == prefix || strings.HasPrefix(changed, prefix+"/") {
				return true
			}
		}
	}
	return false
}
