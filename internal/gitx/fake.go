package gitx

import (
	"context"
	"fmt"
	"sync"

	"github.com/danieljhkim/revsync/internal/hash"
)

// FakeRepo implements Repo with in-memory commit DAGs for testing.
// Each directory passed to the interface methods addresses its own
// independent repository.
type FakeRepo struct {
	mu     sync.Mutex
	repos  map[string]*fakeRepoState
	hasher hash.Hasher
	err    error
}

type fakeRepoState struct {
	head       string
	checkedOut string
	commits    map[string]Commit
	changed    map[string][]string
	staged     []string
	seq        int
}

// NewFakeRepo creates a new FakeRepo with no repositories.
func NewFakeRepo() *FakeRepo {
	return &FakeRepo{
		repos:  make(map[string]*fakeRepoState),
		hasher: hash.NewSHA256Hasher(),
	}
}

// SetError sets an error to be returned by all subsequent operations.
func (f *FakeRepo) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// SeedCommit records a commit in the repository at dir and advances HEAD
// to it. Parents must already exist. Intended for test setup.
func (f *FakeRepo) SeedCommit(dir, id string, parents []string, author, message string, changedPaths []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	state := f.state(dir)
	state.commits[id] = Commit{ID: id, Parents: parents, Author: author, Message: message}
	state.changed[id] = changedPaths
	state.head = id
}

// SetHead moves HEAD of the repository at dir to an existing commit.
func (f *FakeRepo) SetHead(dir, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state(dir).head = id
}

// CheckedOut returns the revision last checked out in dir.
func (f *FakeRepo) CheckedOut(dir string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state(dir).checkedOut
}

func (f *FakeRepo) state(dir string) *fakeRepoState {
	state, ok := f.repos[dir]
	if !ok {
		state = &fakeRepoState{
			commits: make(map[string]Commit),
			changed: make(map[string][]string),
		}
		f.repos[dir] = state
	}
	return state
}

// ResolveRev resolves a revision if it exists in the repository at dir.
func (f *FakeRepo) ResolveRev(ctx context.Context, dir, rev string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}

	state := f.state(dir)
	if rev == "HEAD" {
		rev = state.head
	}
	if _, ok := state.commits[rev]; !ok {
		return "", &OpError{Dir: dir, Args: []string{"rev-parse", "--verify", rev}, Err: fmt.Errorf("unknown revision")}
	}
	return rev, nil
}

// Head returns HEAD of the repository at dir.
func (f *FakeRepo) Head(ctx context.Context, dir string) (string, error) {
	return f.ResolveRev(ctx, dir, "HEAD")
}

// IsAncestor walks the parent graph from descendant looking for ancestor.
func (f *FakeRepo) IsAncestor(ctx context.Context, dir, ancestor, descendant string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}

	state := f.state(dir)
	if _, ok := state.commits[ancestor]; !ok {
		return false, nil
	}

	seen := make(map[string]bool)
	queue := []string{descendant}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == ancestor {
			return true, nil
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		queue = append(queue, state.commits[id].Parents...)
	}
	return false, nil
}

// RevList walks the first-parent chain from to back to from and returns
// the revisions after from, oldest first.
func (f *FakeRepo) RevList(ctx context.Context, dir, from, to string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	state := f.state(dir)
	var revs []string
	id := to
	for id != "" && id != from {
		commit, ok := state.commits[id]
		if !ok {
			return nil, &OpError{Dir: dir, Args: []string{"rev-list"}, Err: fmt.Errorf("unknown revision %q", id)}
		}
		revs = append(revs, id)
		if len(commit.Parents) == 0 {
			break
		}
		id = commit.Parents[0]
	}

	for i, j := 0, len(revs)-1; i < j; i, j = i+1, j-1 {
		revs[i], revs[j] = revs[j], revs[i]
	}
	return revs, nil
}

// ChangedPaths returns the recorded changed paths for a revision.
func (f *FakeRepo) ChangedPaths(ctx context.Context, dir, rev string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	state := f.state(dir)
	if _, ok := state.commits[rev]; !ok {
		return nil, &OpError{Dir: dir, Args: []string{"diff-tree", rev}, Err: fmt.Errorf("unknown revision")}
	}
	return state.changed[rev], nil
}

// Log returns up to limit commits following the first-parent chain from
// HEAD, newest first.
func (f *FakeRepo) Log(ctx context.Context, dir string, limit int) ([]Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	state := f.state(dir)
	var commits []Commit
	id := state.head
	for id != "" {
		if limit > 0 && len(commits) >= limit {
			break
		}
		commit, ok := state.commits[id]
		if !ok {
			break
		}
		commits = append(commits, commit)
		if len(commit.Parents) == 0 {
			break
		}
		id = commit.Parents[0]
	}
	return commits, nil
}

// Checkout records the checked-out revision.
func (f *FakeRepo) Checkout(ctx context.Context, dir, rev string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}

	state := f.state(dir)
	if _, ok := state.commits[rev]; !ok {
		return &OpError{Dir: dir, Args: []string{"checkout", rev}, Err: fmt.Errorf("unknown revision")}
	}
	state.checkedOut = rev
	return nil
}

// Add records the staged paths.
func (f *FakeRepo) Add(ctx context.Context, dir string, paths []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}

	f.state(dir).staged = append(f.state(dir).staged, paths...)
	return nil
}

// Commit creates a commit from the staged paths with a content-derived
// identifier and advances HEAD.
func (f *FakeRepo) Commit(ctx context.Context, dir, message string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}

	state := f.state(dir)
	if len(state.staged) == 0 {
		return "", fmt.Errorf("nothing staged to commit")
	}

	state.seq++
	id := f.hasher.HashBytes([]byte(fmt.Sprintf("%s|%d|%s", state.head, state.seq, message)))

	var parents []string
	if state.head != "" {
		parents = []string{state.head}
	}
	state.commits[id] = Commit{ID: id, Parents: parents, Author: "revsync", Message: message}
	state.changed[id] = state.staged
	state.staged = nil
	state.head = id
	return id, nil
}
