package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/danieljhkim/revsync/internal/builder"
	"github.com/danieljhkim/revsync/internal/planner"
	"github.com/danieljhkim/revsync/internal/syncer"
	"github.com/danieljhkim/revsync/internal/tree"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "build failure",
			err:  &builder.Error{Revision: "u1", ExitCode: 1, Err: errors.New("gradle broke")},
			want: exitBuildFailure,
		},
		{
			name: "wrapped build failure",
			err:  fmt.Errorf("sync: %w", &builder.Error{Revision: "u1", Err: errors.New("x")}),
			want: exitBuildFailure,
		},
		{
			name: "history divergence",
			err:  &planner.HistoryDivergenceError{LastSynced: "a", Head: "b"},
			want: exitHistoryDivergence,
		},
		{
			name: "merge conflict",
			err:  &tree.ConflictError{Path: "README.md"},
			want: exitMergeConflict,
		},
		{
			name: "lock held",
			err:  syncer.ErrLockHeld,
			want: exitLockHeld,
		},
		{
			name: "generic error",
			err:  errors.New("bad flag"),
			want: exitFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
