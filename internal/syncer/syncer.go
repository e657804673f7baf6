// Package syncer drives one sync run end to end: plan the revision
// window, build each model-affecting revision, merge the generated tree
// into the target, and compose one mirror commit per effective change.
//
// A run is logically sequential: each mirror commit's tree is a function
// of the previous committed tree plus exactly one upstream delta. Any
// iteration failure halts the run and leaves the target repository at its
// last successfully committed state.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/danieljhkim/revsync/internal/builder"
	"github.com/danieljhkim/revsync/internal/clock"
	"github.com/danieljhkim/revsync/internal/config"
	"github.com/danieljhkim/revsync/internal/fsops"
	"github.com/danieljhkim/revsync/internal/gitx"
	"github.com/danieljhkim/revsync/internal/hash"
	"github.com/danieljhkim/revsync/internal/ledger"
	"github.com/danieljhkim/revsync/internal/manifest"
	"github.com/danieljhkim/revsync/internal/planner"
	"github.com/danieljhkim/revsync/internal/protect"
	"github.com/danieljhkim/revsync/internal/tree"
)

// Orchestrator coordinates planner, builder, merger, and composer for a
// sync run. It is the main API surface called by the CLI.
type Orchestrator struct {
	git     gitx.Repo
	builder builder.Builder
	fs      fsops.FS
	hasher  hash.Hasher
	clock   clock.Clock
	cfg     *config.Config
	logger  *zap.Logger

	state State
}

// New creates a new Orchestrator with the given dependencies.
func New(
	git gitx.Repo,
	bld builder.Builder,
	fs fsops.FS,
	hasher hash.Hasher,
	clk clock.Clock,
	cfg *config.Config,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		git:     git,
		builder: bld,
		fs:      fs,
		hasher:  hasher,
		clock:   clk,
		cfg:     cfg,
		logger:  logger,
		state:   StateIdle,
	}
}

// transition moves the run state machine and logs the step.
func (o *Orchestrator) transition(s State, fields ...zap.Field) {
	o.state = s
	o.logger.Debug("state transition", append([]zap.Field{zap.String("state", string(s))}, fields...)...)
}

// Run executes one sync run. The returned result is valid even when err
// is non-nil and identifies the offending revision.
func (o *Orchestrator) Run(ctx context.Context, req *RunRequest) (res *RunResult, err error) {
	res = &RunResult{State: StateIdle}

	release, lockErr := acquireLock(filepath.Join(req.TargetDir, LockFileName))
	if lockErr != nil {
		if errors.Is(lockErr, ErrLockHeld) {
			o.logger.Info("sync already in progress, exiting",
				zap.String("target", req.TargetDir),
				zap.String("lock", lockErr.Error()))
		}
		return res, lockErr
	}
	defer release()

	defer func() {
		if err != nil {
			o.transition(StateFailed)
			res.State = StateFailed
		}
	}()

	o.transition(StatePlanning)

	plan, err := o.plan(ctx, req)
	if err != nil {
		return res, err
	}
	res.HeadRevision = plan.head
	res.Planned = len(plan.window)

	if len(plan.window) == 0 {
		o.logger.Info("target is up to date", zap.String("head", plan.head))
		o.transition(StateIdle)
		return res, nil
	}

	filter, err := o.loadFilter(req.TargetDir)
	if err != nil {
		return res, err
	}
	detector := planner.NewDetector(o.cfg.Model.PathPrefixes)
	led := plan.ledger

	targetTree, err := tree.ReadDir(req.TargetDir, skipInternal)
	if err != nil {
		return res, fmt.Errorf("failed to read target tree: %w", err)
	}

	// The generated-file record for the first iteration is everything
	// unprotected in the target: exactly the set previous runs wrote.
	record := targetTree.Filter(func(p string) bool { return !filter.IsProtected(p) })

	o.logger.Info("starting replay",
		zap.String("head", plan.head),
		zap.String("last_synced", plan.lastSynced),
		zap.Int("window", len(plan.window)))

	for i, rev := range plan.window {
		isLast := i == len(plan.window)-1

		changed, err := o.git.ChangedPaths(ctx, req.SmithyRsDir, rev)
		if err != nil {
			res.FailedRevision = rev
			return res, fmt.Errorf("failed to read changed paths of %s: %w", rev, err)
		}

		// Non-model revisions get no build of their own, but the last
		// window entry always builds so the manifest lands on true
		// upstream HEAD.
		if !detector.ModelAffecting(changed) && !isLast {
			res.SkippedNonModel++
			o.logger.Debug("skipping revision without model changes", zap.String("revision", rev))
			continue
		}

		res.FailedRevision = rev
		if err := o.mirror(ctx, req, rev, plan.examplesRev, filter, led, targetTree, &record, res); err != nil {
			return res, err
		}
		res.FailedRevision = ""
	}

	res.Entries = led.Entries()[led.Len()-res.Committed-res.NoOp:]
	o.transition(StateIdle)
	o.logger.Info("sync completed",
		zap.Int("planned", res.Planned),
		zap.Int("built", res.Built),
		zap.Int("committed", res.Committed),
		zap.Int("skipped", res.SkippedNonModel))
	return res, nil
}

// mirror replays a single upstream revision: build, merge, commit.
func (o *Orchestrator) mirror(
	ctx context.Context,
	req *RunRequest,
	rev, examplesRev string,
	filter *protect.Filter,
	led *ledger.Ledger,
	targetTree *tree.Tree,
	record **tree.Tree,
	res *RunResult,
) error {
	o.transition(StateBuilding, zap.String("revision", rev))

	out, err := o.builder.Build(ctx, builder.Input{
		SmithyRsRevision: rev,
		ExamplesRevision: examplesRev,
	})
	if err != nil {
		return err
	}
	res.Built++

	// The engine never writes an unvalidated revision: the manifest must
	// pin exactly the pair this build was asked for.
	if out.Manifest.SmithyRsRevision != rev || out.Manifest.AwsDocSdkExamplesRevision != examplesRev {
		return &builder.Error{
			Revision: rev,
			ExitCode: -1,
			Err: fmt.Errorf("manifest pins %s/%s, expected %s/%s",
				out.Manifest.SmithyRsRevision, out.Manifest.AwsDocSdkExamplesRevision, rev, examplesRev),
		}
	}

	generated := out.Tree
	manifestData, err := out.Manifest.Encode()
	if err != nil {
		return err
	}
	generated.Put(manifest.FileName, manifestData)

	o.transition(StateMerging, zap.String("revision", rev))

	plan, err := tree.PlanMerge(generated, targetTree, *record, filter.IsProtected, o.hasher)
	if err != nil {
		return err
	}

	if plan.Empty() {
		// Idempotent no-op: advance the ledger without an empty commit.
		res.NoOp++
		*record = generated
		o.logger.Info("revision produced no changes", zap.String("revision", rev))
		return led.Append(ledger.Entry{UpstreamRevision: rev, Timestamp: o.clock.Now()})
	}

	if err := plan.Apply(o.fs, req.TargetDir, generated); err != nil {
		return fmt.Errorf("failed to apply merge for %s: %w", rev, err)
	}
	plan.ApplyToTree(generated, targetTree)

	o.transition(StateCommitting, zap.String("revision", rev))

	adds, modifies, deletes := plan.Counts()
	message := ledger.ComposeMessage(out.Manifest, adds+modifies+deletes)

	if err := o.git.Add(ctx, req.TargetDir, plan.Paths()); err != nil {
		return err
	}
	localCommit, err := o.git.Commit(ctx, req.TargetDir, message)
	if err != nil {
		return err
	}

	if err := led.Append(ledger.Entry{
		UpstreamRevision: rev,
		LocalCommit:      localCommit,
		Timestamp:        o.clock.Now(),
	}); err != nil {
		return err
	}
	res.Committed++

	*record = generated
	o.logger.Info("mirrored revision",
		zap.String("upstream", rev),
		zap.String("local", localCommit),
		zap.Int("adds", adds),
		zap.Int("modifies", modifies),
		zap.Int("deletes", deletes))
	return nil
}

// plan resolves the revisions a run operates on and computes the window.
func (o *Orchestrator) plan(ctx context.Context, req *RunRequest) (p runPlan, err error) {
	if req.RevisionOverride != "" {
		p.head, err = o.git.ResolveRev(ctx, req.SmithyRsDir, req.RevisionOverride)
	} else {
		p.head, err = o.git.Head(ctx, req.SmithyRsDir)
	}
	if err != nil {
		return runPlan{}, fmt.Errorf("failed to resolve generator revision: %w", err)
	}

	p.examplesRev, err = o.git.Head(ctx, req.ExamplesDir)
	if err != nil {
		return runPlan{}, fmt.Errorf("failed to resolve examples revision: %w", err)
	}

	p.ledger, err = o.loadLedger(ctx, req.TargetDir)
	if err != nil {
		return runPlan{}, err
	}
	if last, ok := p.ledger.Last(); ok {
		p.lastSynced = last.UpstreamRevision
		// A ledger revision unknown upstream means rewritten history.
		if _, err := o.git.ResolveRev(ctx, req.SmithyRsDir, p.lastSynced); err != nil {
			return runPlan{}, &planner.HistoryDivergenceError{LastSynced: p.lastSynced, Head: p.head}
		}
	}

	p.window, err = planner.New(o.git, req.SmithyRsDir).Window(ctx, p.lastSynced, p.head)
	if err != nil {
		return runPlan{}, err
	}
	return p, nil
}

// runPlan carries everything the planning stage resolved for a run.
type runPlan struct {
	head        string
	examplesRev string
	lastSynced  string
	window      []string
	ledger      *ledger.Ledger
}

// Plan computes the replay window and classification without building or
// writing anything.
func (o *Orchestrator) Plan(ctx context.Context, req *RunRequest) (*PlanResult, error) {
	plan, err := o.plan(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &PlanResult{HeadRevision: plan.head, LastSynced: plan.lastSynced}
	detector := planner.NewDetector(o.cfg.Model.PathPrefixes)
	for _, rev := range plan.window {
		changed, err := o.git.ChangedPaths(ctx, req.SmithyRsDir, rev)
		if err != nil {
			return nil, fmt.Errorf("failed to read changed paths of %s: %w", rev, err)
		}
		result.Revisions = append(result.Revisions, PlannedRevision{
			ID:             rev,
			ModelAffecting: detector.ModelAffecting(changed),
		})
	}
	return result, nil
}

// Status reports the target manifest and the reconstructed ledger.
func (o *Orchestrator) Status(ctx context.Context, targetDir string) (*StatusResult, error) {
	result := &StatusResult{}

	data, err := o.fs.ReadFile(filepath.Join(targetDir, manifest.FileName))
	if err == nil {
		m, parseErr := manifest.Parse(data)
		if parseErr != nil {
			return nil, &config.ParseError{Path: manifest.FileName, Err: parseErr}
		}
		result.Manifest = m
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	led, err := o.loadLedger(ctx, targetDir)
	if err != nil {
		return nil, err
	}
	result.Entries = led.Entries()
	return result, nil
}

// loadLedger reconstructs the ledger from target history.
func (o *Orchestrator) loadLedger(ctx context.Context, targetDir string) (*ledger.Ledger, error) {
	commits, err := o.git.Log(ctx, targetDir, o.cfg.Sync.LedgerDepth)
	if err != nil {
		return nil, fmt.Errorf("failed to read target history: %w", err)
	}
	return ledger.FromHistory(commits)
}

// loadFilter reads the handwritten-file pattern list from the target
// root. A missing pattern file protects only the implicit set.
func (o *Orchestrator) loadFilter(targetDir string) (*protect.Filter, error) {
	data, err := o.fs.ReadFile(filepath.Join(targetDir, protect.FileName))
	if err != nil {
		if os.IsNotExist(err) {
			data = nil
		} else {
			return nil, fmt.Errorf("failed to read %s: %w", protect.FileName, err)
		}
	}

	filter, err := protect.Parse(data, LockFileName)
	if err != nil {
		return nil, &config.ParseError{Path: protect.FileName, Err: err}
	}
	return filter, nil
}

// skipInternal excludes version-control metadata and the run lock from
// target tree snapshots.
func skipInternal(rel string) bool {
	return rel == ".git" || strings.HasPrefix(rel, ".git/") || rel == LockFileName
}

