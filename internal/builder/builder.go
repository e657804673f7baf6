// Package builder defines the artifact-builder contract and the
// generator-invoking implementation behind it.
//
// A build takes a generator revision and an examples revision and yields
// a generated file tree plus a version manifest. Builds are idempotent:
// identical inputs produce byte-identical output aside from the pinned
// revision strings in the manifest.
package builder

import (
	"context"
	"fmt"

	"github.com/danieljhkim/revsync/internal/manifest"
	"github.com/danieljhkim/revsync/internal/tree"
)

// Input identifies one build: the upstream revision pair to generate from.
type Input struct {
	// SmithyRsRevision is the generator repository revision.
	SmithyRsRevision string

	// ExamplesRevision is the examples repository revision.
	ExamplesRevision string
}

// Output is the result of a successful build. The tree is owned by the
// caller for one merge iteration and discarded afterwards.
type Output struct {
	// Tree is the generated artifact tree.
	Tree *tree.Tree

	// Manifest pins the revisions the tree was generated from.
	Manifest *manifest.Manifest
}

// Builder produces generated output for a revision pair.
type Builder interface {
	// Build runs the generator for the given input.
	Build(ctx context.Context, in Input) (*Output, error)
}

// Error reports a failed or timed-out generator invocation.
type Error struct {
	// Revision is the generator revision being built.
	Revision string

	// ExitCode is the generator process exit code; -1 when the process
	// was killed or never ran.
	ExitCode int

	// Log is the tail of the generator output.
	Log string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("build failed for revision %s (exit code %d): %v", e.Revision, e.ExitCode, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}
