package gitx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Record and field separators for parsing `git log` output in one pass.
const (
	logRecordSep = "\x1e"
	logFieldSep  = "\x00"
)

// ShellRepo implements Repo by shelling out to the git command.
type ShellRepo struct {
	logger *zap.Logger
}

// NewShellRepo creates a new ShellRepo.
func NewShellRepo(logger *zap.Logger) *ShellRepo {
	return &ShellRepo{logger: logger}
}

// runGit executes a git command in dir, capturing stdout and stderr.
func (g *ShellRepo) runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	g.logger.Debug("running git", zap.String("dir", dir), zap.Strings("args", args))

	if err := cmd.Run(); err != nil {
		return "", &OpError{Dir: dir, Args: args, Stderr: stderr.String(), Err: err}
	}

	return strings.TrimSpace(stdout.String()), nil
}

// ResolveRev resolves a revision expression to a full commit identifier.
func (g *ShellRepo) ResolveRev(ctx context.Context, dir, rev string) (string, error) {
	out, err := g.runGit(ctx, dir, "rev-parse", "--verify", rev+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("failed to resolve revision %q: %w", rev, err)
	}
	return out, nil
}

// Head returns the full commit identifier of HEAD.
func (g *ShellRepo) Head(ctx context.Context, dir string) (string, error) {
	return g.ResolveRev(ctx, dir, "HEAD")
}

// IsAncestor reports whether ancestor is an ancestor of descendant.
func (g *ShellRepo) IsAncestor(ctx context.Context, dir, ancestor, descendant string) (bool, error) {
	_, err := g.runGit(ctx, dir, "merge-base", "--is-ancestor", ancestor, descendant)
	if err == nil {
		return true, nil
	}

	// Exit code 1 means "not an ancestor"; anything else is a real failure.
	var opErr *OpError
	if errors.As(err, &opErr) {
		var exitErr *exec.ExitError
		if errors.As(opErr.Err, &exitErr) && exitErr.ExitCode() == 1 {
			return false, nil
		}
	}
	return false, err
}

// RevList returns the first-parent revisions after from up to and including
// to, oldest first. Replay follows the first-parent chain so each mirror
// commit corresponds to one mainline revision.
func (g *ShellRepo) RevList(ctx context.Context, dir, from, to string) ([]string, error) {
	out, err := g.runGit(ctx, dir, "rev-list", "--reverse", "--first-parent", from+".."+to)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// ChangedPaths returns the paths the given revision changed relative to
// its first parent. Diffing against the first parent explicitly matters
// for merge commits, which diff-tree otherwise reports as empty; the
// replay window walks the first-parent chain, so a merged pull request
// must surface its mainline effect here.
func (g *ShellRepo) ChangedPaths(ctx context.Context, dir, rev string) ([]string, error) {
	out, err := g.runGit(ctx, dir, "rev-list", "--no-walk", "--parents", rev)
	if err != nil {
		return nil, err
	}
	ids := strings.Fields(out)
	if len(ids) == 0 {
		return nil, &OpError{Dir: dir, Args: []string{"rev-list", "--no-walk", "--parents", rev}, Err: fmt.Errorf("unknown revision")}
	}

	args := []string{"diff-tree", "--no-commit-id", "--name-only", "-r"}
	if len(ids) < 2 {
		args = append(args, "--root", ids[0])
	} else {
		args = append(args, ids[1], ids[0])
	}
	out, err = g.runGit(ctx, dir, args...)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// Log returns up to limit commits reachable from HEAD, newest first.
// Follows the first-parent chain, matching the order commits were mirrored.
func (g *ShellRepo) Log(ctx context.Context, dir string, limit int) ([]Commit, error) {
	args := []string{
		"log", "--first-parent",
		"--format=%H" + logFieldSep + "%P" + logFieldSep + "%an" + logFieldSep + "%B" + logRecordSep,
	}
	if limit > 0 {
		args = append(args, fmt.Sprintf("-n%d", limit))
	}

	out, err := g.runGit(ctx, dir, args...)
	if err != nil {
		// An empty repository has no HEAD to log from.
		var opErr *OpError
		if errors.As(err, &opErr) && strings.Contains(opErr.Stderr, "does not have any commits") {
			return nil, nil
		}
		return nil, err
	}

	var commits []Commit
	for _, record := range strings.Split(out, logRecordSep) {
		record = strings.TrimLeft(record, "\n")
		if record == "" {
			continue
		}
		fields := strings.SplitN(record, logFieldSep, 4)
		if len(fields) != 4 {
			return nil, fmt.Errorf("malformed log record %q", record)
		}
		commit := Commit{
			ID:      fields[0],
			Author:  fields[2],
			Message: strings.TrimRight(fields[3], "\n"),
		}
		if fields[1] != "" {
			commit.Parents = strings.Fields(fields[1])
		}
		commits = append(commits, commit)
	}

	return commits, nil
}

// Checkout checks out the given revision, discarding local modifications.
func (g *ShellRepo) Checkout(ctx context.Context, dir, rev string) error {
	if _, err := g.runGit(ctx, dir, "checkout", "--force", rev); err != nil {
		return fmt.Errorf("failed to checkout %q: %w", rev, err)
	}
	return nil
}

// addBatchSize bounds pathspecs per git invocation so a bulk import of a
// large tree stays clear of OS argument-length limits.
const addBatchSize = 500

// Add stages the given paths, including deletions, in batches.
func (g *ShellRepo) Add(ctx context.Context, dir string, paths []string) error {
	for _, batch := range batchPaths(paths, addBatchSize) {
		args := append([]string{"add", "--all", "--"}, batch...)
		if _, err := g.runGit(ctx, dir, args...); err != nil {
			return fmt.Errorf("failed to stage files: %w", err)
		}
	}
	return nil
}

// batchPaths splits paths into slices of at most size elements.
func batchPaths(paths []string, size int) [][]string {
	var batches [][]string
	for len(paths) > 0 {
		n := size
		if len(paths) < n {
			n = len(paths)
		}
		batches = append(batches, paths[:n])
		paths = paths[n:]
	}
	return batches
}

// Commit creates a commit from the staged changes and returns its identifier.
func (g *ShellRepo) Commit(ctx context.Context, dir, message string) (string, error) {
	// Guard against empty commits: the caller only commits non-empty
	// merges, but a stale index would otherwise slip through.
	staged, err := g.runGit(ctx, dir, "diff", "--cached", "--name-only")
	if err != nil {
		return "", fmt.Errorf("failed to check staged changes: %w", err)
	}
	if staged == "" {
		return "", fmt.Errorf("nothing staged to commit")
	}

	if _, err := g.runGit(ctx, dir, "commit", "-m", message); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	return g.Head(ctx, dir)
}
