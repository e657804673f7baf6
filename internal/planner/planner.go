// Package planner computes which upstream revisions a sync run must
// replay, and classifies each one as model-affecting or not.
package planner

import (
	"context"
	"fmt"

	"github.com/danieljhkim/revsync/internal/gitx"
)

// HistoryDivergenceError reports a last-synced revision that is no longer
// an ancestor of upstream HEAD (rewritten history). The engine refuses to
// guess a resolution.
type HistoryDivergenceError struct {
	// LastSynced is the revision recorded by the ledger.
	LastSynced string

	// Head is the upstream HEAD it is not an ancestor of.
	Head string
}

// Error implements the error interface.
func (e *HistoryDivergenceError) Error() string {
	return fmt.Sprintf("last synced revision %s is not an ancestor of upstream HEAD %s", e.LastSynced, e.Head)
}

// Planner computes ordered revision windows over the upstream repository.
type Planner struct {
	git gitx.Repo
	dir string
}

// New creates a Planner for the upstream repository at dir.
func New(git gitx.Repo, dir string) *Planner {
	return &Planner{git: git, dir: dir}
}

// Window returns the revisions to replay, oldest first, strictly after
// lastSynced and up to and including head. Both arguments must be full
// commit identifiers.
//
// On a first run (lastSynced empty) history is collapsed to head alone,
// importing the current upstream state in one bulk mirror commit instead
// of replaying the full history.
func (p *Planner) Window(ctx context.Context, lastSynced, head string) ([]string, error) {
	if lastSynced == "" {
		return []string{head}, nil
	}
	if lastSynced == head {
		return nil, nil
	}

	ok, err := p.git.IsAncestor(ctx, p.dir, lastSynced, head)
	if err != nil {
		return nil, fmt.Errorf("failed to check ancestry of %s: %w", lastSynced, err)
	}
	if !ok {
		return nil, &HistoryDivergenceError{LastSynced: lastSynced, Head: head}
	}

	revs, err := p.git.RevList(ctx, p.dir, lastSynced, head)
	if err != nil {
		return nil, fmt.Errorf("failed to list revisions after %s: %w", lastSynced, err)
	}
	return revs, nil
}
