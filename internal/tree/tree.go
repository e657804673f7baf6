// Package tree provides a virtual file tree and the merge planning that
// reconciles generated output with the target repository.
//
// Trees hold path → content mappings in memory so merges can be computed
// and tested without touching a real filesystem. Applying a plan stages
// every write before the first destination path is swapped, so a
// mid-merge failure never leaves a half-applied target.
package tree

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Tree is an immutable-by-convention mapping from slash-separated relative
// paths to file content.
type Tree struct {
	files map[string][]byte
}

// New creates an empty Tree.
func New() *Tree {
	return &Tree{files: make(map[string][]byte)}
}

// Put records content at the given path.
func (t *Tree) Put(path string, content []byte) {
	t.files[path] = content
}

// Get returns the content at the given path.
func (t *Tree) Get(path string) ([]byte, bool) {
	content, ok := t.files[path]
	return content, ok
}

// Has reports whether the path is present.
func (t *Tree) Has(path string) bool {
	_, ok := t.files[path]
	return ok
}

// Delete removes the path.
func (t *Tree) Delete(path string) {
	delete(t.files, path)
}

// Len returns the number of files.
func (t *Tree) Len() int {
	return len(t.files)
}

// Paths returns all paths in sorted order.
func (t *Tree) Paths() []string {
	paths := make([]string, 0, len(t.files))
	for path := range t.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Filter returns a new Tree holding only the paths keep accepts.
func (t *Tree) Filter(keep func(path string) bool) *Tree {
	out := New()
	for path, content := range t.files {
		if keep(path) {
			out.Put(path, content)
		}
	}
	return out
}

// ReadDir loads a directory into a Tree. Paths for which skip returns
// true are not descended into or loaded.
func ReadDir(root string, skip func(relPath string) bool) (*Tree, error) {
	t := New()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if skip != nil && skip(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", rel, err)
		}
		t.Put(rel, content)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("failed to read tree at %s: %w", root, err)
	}

	return t, nil
}
