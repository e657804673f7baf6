package tree

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/danieljhkim/revsync/internal/fsops"
	"github.com/danieljhkim/revsync/internal/hash"
)

// Change kind constants.
const (
	ChangeAdd    = "add"
	ChangeModify = "modify"
	ChangeDelete = "delete"
)

// Change represents a single planned mutation of the target tree.
type Change struct {
	// Path is the slash-separated relative path.
	Path string

	// Kind is one of ChangeAdd, ChangeModify, ChangeDelete.
	Kind string
}

// MergePlan is the ordered add/modify/delete set produced by PlanMerge.
type MergePlan struct {
	// Changes is the ordered list of mutations; writes precede deletes.
	Changes []Change
}

// Empty reports whether the plan contains no changes.
func (p *MergePlan) Empty() bool {
	return len(p.Changes) == 0
}

// Paths returns the paths touched by the plan, in plan order.
func (p *MergePlan) Paths() []string {
	paths := make([]string, 0, len(p.Changes))
	for _, c := range p.Changes {
		paths = append(paths, c.Path)
	}
	return paths
}

// Counts returns the number of adds, modifies, and deletes.
func (p *MergePlan) Counts() (adds, modifies, deletes int) {
	for _, c := range p.Changes {
		switch c.Kind {
		case ChangeAdd:
			adds++
		case ChangeModify:
			modifies++
		case ChangeDelete:
			deletes++
		}
	}
	return adds, modifies, deletes
}

// ConflictError reports generated output targeting a protected path.
// This always signals a generator regression and is never skipped.
type ConflictError struct {
	// Path is the protected path the generator tried to write.
	Path string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("generated output targets protected path %q", e.Path)
}

// PlanMerge computes the change set that brings target in line with
// generated.
//
// The write-set is every generated path whose content differs from the
// target; a generated path that is protected is a ConflictError. The
// delete-set is every path in record (the previous generated-file record)
// that is absent from generated, still present in target, and not
// protected. A path that was never generated is never deleted.
func PlanMerge(generated, target, record *Tree, isProtected func(string) bool, hasher hash.Hasher) (*MergePlan, error) {
	plan := &MergePlan{}

	for _, path := range generated.Paths() {
		if isProtected(path) {
			return nil, &ConflictError{Path: path}
		}

		content, _ := generated.Get(path)
		existing, ok := target.Get(path)
		if !ok {
			plan.Changes = append(plan.Changes, Change{Path: path, Kind: ChangeAdd})
			continue
		}
		if hasher.HashBytes(existing) != hasher.HashBytes(content) {
			plan.Changes = append(plan.Changes, Change{Path: path, Kind: ChangeModify})
		}
	}

	for _, path := range record.Paths() {
		if generated.Has(path) || isProtected(path) {
			continue
		}
		if target.Has(path) {
			plan.Changes = append(plan.Changes, Change{Path: path, Kind: ChangeDelete})
		}
	}

	return plan, nil
}

// ApplyToTree applies the plan to a virtual target tree.
func (p *MergePlan) ApplyToTree(generated, target *Tree) {
	for _, c := range p.Changes {
		switch c.Kind {
		case ChangeAdd, ChangeModify:
			content, _ := generated.Get(c.Path)
			target.Put(c.Path, content)
		case ChangeDelete:
			target.Delete(c.Path)
		}
	}
}

const stageSuffix = ".revsync-stage"

// Apply executes the plan against the filesystem rooted at root.
//
// All writes are staged to temporary files first; only once every staged
// file exists are destinations swapped via rename and deletions performed.
// A failure during staging removes the staged files and leaves the target
// untouched. Renames are atomic per file, not as a group: a failure
// mid-swap leaves each destination at either its old or its new content,
// never partial, and removes the files still staged.
func (p *MergePlan) Apply(fsys fsops.FS, root string, generated *Tree) error {
	type stagedWrite struct {
		tmp  string
		dest string
	}
	var staged []stagedWrite

	cleanup := func() {
		for _, w := range staged {
			_ = fsys.Remove(w.tmp)
		}
	}

	// Stage phase: write every add/modify beside its destination.
	for _, c := range p.Changes {
		if c.Kind == ChangeDelete {
			continue
		}

		content, ok := generated.Get(c.Path)
		if !ok {
			cleanup()
			return fmt.Errorf("plan references %s missing from generated tree", c.Path)
		}

		dest := filepath.Join(root, filepath.FromSlash(c.Path))
		if err := fsys.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			cleanup()
			return fmt.Errorf("failed to create parent directory for %s: %w", c.Path, err)
		}

		tmp := dest + stageSuffix
		if err := fsys.WriteFile(tmp, content, 0644); err != nil {
			cleanup()
			return fmt.Errorf("failed to stage %s: %w", c.Path, err)
		}
		staged = append(staged, stagedWrite{tmp: tmp, dest: dest})
	}

	// Swap phase: renames within a directory are atomic per file.
	for i, w := range staged {
		if err := fsys.Rename(w.tmp, w.dest); err != nil {
			for _, rest := range staged[i:] {
				_ = fsys.Remove(rest.tmp)
			}
			return fmt.Errorf("failed to swap %s into place: %w", w.dest, err)
		}
	}

	// Delete phase.
	for _, c := range p.Changes {
		if c.Kind != ChangeDelete {
			continue
		}
		dest := filepath.Join(root, filepath.FromSlash(c.Path))
		if err := fsys.Remove(dest); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete %s: %w", c.Path, err)
		}
	}

	return nil
}
