package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/danieljhkim/revsync/internal/builder"
	"github.com/danieljhkim/revsync/internal/cli"
	"github.com/danieljhkim/revsync/internal/planner"
	"github.com/danieljhkim/revsync/internal/syncer"
	"github.com/danieljhkim/revsync/internal/tree"
)

var version = "dev"

// Exit codes per error kind, so wrappers can react without parsing output.
const (
	exitOK                = 0
	exitFailure           = 1
	exitBuildFailure      = 2
	exitHistoryDivergence = 3
	exitMergeConflict     = 4
	exitLockHeld          = 5
)

func main() {
	cli.SetVersion(version)

	if err := cli.Execute(); err != nil {
		// A held lock is a clean exit, not an error report.
		if !errors.Is(err, syncer.ErrLockHeld) {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
		os.Exit(exitCode(err))
	}
	os.Exit(exitOK)
}

// exitCode maps an error to its exit code.
func exitCode(err error) int {
	var buildErr *builder.Error
	if errors.As(err, &buildErr) {
		return exitBuildFailure
	}
	var divergenceErr *planner.HistoryDivergenceError
	if errors.As(err, &divergenceErr) {
		return exitHistoryDivergence
	}
	var conflictErr *tree.ConflictError
	if errors.As(err, &conflictErr) {
		return exitMergeConflict
	}
	if errors.Is(err, syncer.ErrLockHeld) {
		return exitLockHeld
	}
	return exitFailure
}
