package builder

import (
	"context"
	"fmt"
	"sync"

	"github.com/danieljhkim/revsync/internal/manifest"
	"github.com/danieljhkim/revsync/internal/tree"
)

// FakeBuilder implements Builder with predetermined trees for testing.
// The manifest of each output pins the revisions from the build input,
// matching the contract of the real generator.
type FakeBuilder struct {
	mu      sync.Mutex
	trees   map[string]*tree.Tree
	pending map[string][]error
	calls   []Input
}

// NewFakeBuilder creates an empty FakeBuilder.
func NewFakeBuilder() *FakeBuilder {
	return &FakeBuilder{
		trees:   make(map[string]*tree.Tree),
		pending: make(map[string][]error),
	}
}

// SetTree sets the tree produced for a generator revision.
func (b *FakeBuilder) SetTree(revision string, t *tree.Tree) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trees[revision] = t
}

// FailNext queues an error returned by the next build of the revision
// before any configured tree is served. Queue multiple to simulate
// repeated transient failures.
func (b *FakeBuilder) FailNext(revision string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[revision] = append(b.pending[revision], err)
}

// Calls returns the inputs of every build performed.
func (b *FakeBuilder) Calls() []Input {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Input, len(b.calls))
	copy(out, b.calls)
	return out
}

// Build serves the configured tree, or a queued error.
func (b *FakeBuilder) Build(ctx context.Context, in Input) (*Output, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, in)

	if queue := b.pending[in.SmithyRsRevision]; len(queue) > 0 {
		err := queue[0]
		b.pending[in.SmithyRsRevision] = queue[1:]
		return nil, err
	}

	configured, ok := b.trees[in.SmithyRsRevision]
	if !ok {
		return nil, &Error{
			Revision: in.SmithyRsRevision,
			ExitCode: 1,
			Err:      fmt.Errorf("no tree configured for revision"),
		}
	}

	// Copy so callers mutating the output never affect later builds.
	out := configured.Filter(func(string) bool { return true })

	return &Output{
		Tree: out,
		Manifest: &manifest.Manifest{
			SmithyRsRevision:          in.SmithyRsRevision,
			AwsDocSdkExamplesRevision: in.ExamplesRevision,
		},
	}, nil
}
