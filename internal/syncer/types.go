package syncer

import (
	"github.com/danieljhkim/revsync/internal/ledger"
	"github.com/danieljhkim/revsync/internal/manifest"
)

// RunRequest represents a request to run one sync.
type RunRequest struct {
	// SmithyRsDir is the generator repository location.
	SmithyRsDir string

	// ExamplesDir is the examples repository location.
	ExamplesDir string

	// TargetDir is the target repository location.
	TargetDir string

	// RevisionOverride, when set, syncs to this generator revision
	// instead of upstream HEAD.
	RevisionOverride string
}

// RunResult represents the outcome of one sync run.
type RunResult struct {
	// State is the final run state: StateIdle on success, StateFailed
	// otherwise.
	State State

	// HeadRevision is the generator revision the run targeted.
	HeadRevision string

	// Planned is the number of revisions in the replay window.
	Planned int

	// Built is the number of revisions that went through the generator.
	Built int

	// Committed is the number of mirror commits created.
	Committed int

	// SkippedNonModel is the number of revisions skipped as not
	// model-affecting.
	SkippedNonModel int

	// NoOp is the number of built revisions whose merge changed nothing.
	NoOp int

	// Entries are the ledger entries appended by this run.
	Entries []ledger.Entry

	// FailedRevision is the revision being processed when the run
	// failed, empty on success.
	FailedRevision string
}

// PlanResult represents a dry-run plan: the replay window with
// per-revision classification, computed without building or writing.
type PlanResult struct {
	// HeadRevision is the generator revision the plan targets.
	HeadRevision string

	// LastSynced is the last mirrored revision, empty on a first run.
	LastSynced string

	// Revisions is the ordered (oldest-first) replay window.
	Revisions []PlannedRevision
}

// PlannedRevision is one window entry with its classification.
type PlannedRevision struct {
	// ID is the upstream revision identifier.
	ID string

	// ModelAffecting reports whether the revision touches model paths.
	ModelAffecting bool
}

// StatusResult describes the target repository's sync state.
type StatusResult struct {
	// Manifest is the target version manifest, nil when absent.
	Manifest *manifest.Manifest

	// Entries is the reconstructed ledger, oldest first.
	Entries []ledger.Entry
}
