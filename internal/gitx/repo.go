// Package gitx provides an abstraction for the git operations the sync
// engine needs: revision resolution, ancestry queries, history reads, and
// commit creation in the target repository.
//
// Two implementations are provided: ShellRepo, which shells out to the git
// command, and FakeRepo, an in-memory commit DAG for deterministic tests.
package gitx

import (
	"context"
	"fmt"
	"strings"
)

// Commit describes a single revision read from history.
type Commit struct {
	// ID is the full commit identifier.
	ID string

	// Parents are the parent commit identifiers, first parent first.
	Parents []string

	// Author is the author name.
	Author string

	// Message is the full commit message.
	Message string
}

// Subject returns the first line of the commit message.
func (c Commit) Subject() string {
	if i := strings.IndexByte(c.Message, '\n'); i >= 0 {
		return c.Message[:i]
	}
	return c.Message
}

// Repo provides the git operations used by the sync engine.
type Repo interface {
	// ResolveRev resolves a revision expression to a full commit identifier.
	ResolveRev(ctx context.Context, dir, rev string) (string, error)

	// Head returns the full commit identifier of HEAD.
	Head(ctx context.Context, dir string) (string, error)

	// IsAncestor reports whether ancestor is an ancestor of descendant.
	// A revision counts as its own ancestor.
	IsAncestor(ctx context.Context, dir, ancestor, descendant string) (bool, error)

	// RevList returns the first-parent revisions after from up to and
	// including to, oldest first.
	RevList(ctx context.Context, dir, from, to string) ([]string, error)

	// ChangedPaths returns the paths the given revision changed relative
	// to its first parent. Merge commits report their mainline effect.
	ChangedPaths(ctx context.Context, dir, rev string) ([]string, error)

	// Log returns up to limit commits reachable from HEAD, newest first.
	Log(ctx context.Context, dir string, limit int) ([]Commit, error)

	// Checkout checks out the given revision.
	Checkout(ctx context.Context, dir, rev string) error

	// Add stages the given paths (including deletions).
	Add(ctx context.Context, dir string, paths []string) error

	// Commit creates a commit from the staged changes and returns its
	// full identifier.
	Commit(ctx context.Context, dir, message string) (string, error)
}

// OpError describes a failed git operation.
type OpError struct {
	// Dir is the repository the operation ran against.
	Dir string

	// Args are the git arguments.
	Args []string

	// Stderr is the captured standard error output.
	Stderr string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *OpError) Error() string {
	msg := fmt.Sprintf("git %s failed in %s: %v", strings.Join(e.Args, " "), e.Dir, e.Err)
	if e.Stderr != "" {
		msg += ": " + strings.TrimSpace(e.Stderr)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *OpError) Unwrap() error {
	return e.Err
}
