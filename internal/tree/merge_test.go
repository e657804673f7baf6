package tree

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/revsync/internal/fsops"
	"github.com/danieljhkim/revsync/internal/hash"
)

func notProtected(string) bool { return false }

func TestPlanMerge_AddModifySkip(t *testing.T) {
	hasher := hash.NewSHA256Hasher()

	generated := New()
	generated.Put("sdk/s3/lib.rs", []byte("v2"))
	generated.Put("sdk/ec2/lib.rs", []byte("new"))
	generated.Put("sdk/iam/lib.rs", []byte("same"))

	target := New()
	target.Put("sdk/s3/lib.rs", []byte("v1"))
	target.Put("sdk/iam/lib.rs", []byte("same"))

	plan, err := PlanMerge(generated, target, New(), notProtected, hasher)
	require.NoError(t, err)

	want := []Change{
		{Path: "sdk/ec2/lib.rs", Kind: ChangeAdd},
		{Path: "sdk/s3/lib.rs", Kind: ChangeModify},
	}
	require.Empty(t, cmp.Diff(want, plan.Changes))
}

func TestPlanMerge_DeleteOnlyPreviouslyGenerated(t *testing.T) {
	hasher := hash.NewSHA256Hasher()

	generated := New()
	generated.Put("sdk/s3/lib.rs", []byte("v1"))

	target := New()
	target.Put("sdk/s3/lib.rs", []byte("v1"))
	target.Put("sdk/removed/lib.rs", []byte("old"))
	target.Put("never_generated.txt", []byte("hands off"))

	// Only sdk paths were ever generated.
	record := New()
	record.Put("sdk/s3/lib.rs", nil)
	record.Put("sdk/removed/lib.rs", nil)

	plan, err := PlanMerge(generated, target, record, notProtected, hasher)
	require.NoError(t, err)

	want := []Change{{Path: "sdk/removed/lib.rs", Kind: ChangeDelete}}
	require.Empty(t, cmp.Diff(want, plan.Changes))
}

func TestPlanMerge_ProtectedDeleteIsSkipped(t *testing.T) {
	hasher := hash.NewSHA256Hasher()

	generated := New()
	target := New()
	target.Put("examples/demo.rs", []byte("handwritten"))
	record := New()
	record.Put("examples/demo.rs", nil)

	plan, err := PlanMerge(generated, target, record, func(p string) bool {
		return p == "examples/demo.rs"
	}, hasher)
	require.NoError(t, err)
	require.True(t, plan.Empty())
}

func TestPlanMerge_ConflictOnProtectedPath(t *testing.T) {
	hasher := hash.NewSHA256Hasher()

	generated := New()
	generated.Put("examples/demo.rs", []byte("generator regression"))

	_, err := PlanMerge(generated, New(), New(), func(p string) bool {
		return p == "examples/demo.rs"
	}, hasher)

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	require.Equal(t, "examples/demo.rs", conflict.Path)
}

func TestMergePlan_Counts(t *testing.T) {
	plan := &MergePlan{Changes: []Change{
		{Path: "a", Kind: ChangeAdd},
		{Path: "b", Kind: ChangeAdd},
		{Path: "c", Kind: ChangeModify},
		{Path: "d", Kind: ChangeDelete},
	}}

	adds, modifies, deletes := plan.Counts()
	require.Equal(t, 2, adds)
	require.Equal(t, 1, modifies)
	require.Equal(t, 1, deletes)
}

func TestMergePlan_Apply(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sdk", "old"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sdk", "old", "lib.rs"), []byte("stale"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "some_handwritten"), []byte("keep"), 0644))

	generated := New()
	generated.Put("sdk/s3/lib.rs", []byte("v1"))

	plan := &MergePlan{Changes: []Change{
		{Path: "sdk/s3/lib.rs", Kind: ChangeAdd},
		{Path: "sdk/old/lib.rs", Kind: ChangeDelete},
	}}

	require.NoError(t, plan.Apply(fsops.NewRealFS(), root, generated))

	written, err := os.ReadFile(filepath.Join(root, "sdk", "s3", "lib.rs"))
	require.NoError(t, err)
	require.Equal(t, "v1", string(written))

	_, err = os.Stat(filepath.Join(root, "sdk", "old", "lib.rs"))
	require.True(t, os.IsNotExist(err))

	kept, err := os.ReadFile(filepath.Join(root, "some_handwritten"))
	require.NoError(t, err)
	require.Equal(t, "keep", string(kept))

	// No staging residue.
	matches, err := filepath.Glob(filepath.Join(root, "sdk", "s3", "*"+stageSuffix))
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestMergePlan_ApplyStagingFailureLeavesTargetUntouched(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("original"), 0644))

	generated := New()
	generated.Put("a.txt", []byte("updated"))
	// b.txt is in the plan but missing from the generated tree, so
	// staging fails after a.txt was already staged.
	plan := &MergePlan{Changes: []Change{
		{Path: "a.txt", Kind: ChangeModify},
		{Path: "b.txt", Kind: ChangeAdd},
	}}

	err := plan.Apply(fsops.NewRealFS(), root, generated)
	require.Error(t, err)

	content, readErr := os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, readErr)
	require.Equal(t, "original", string(content), "staging failure must not touch destinations")

	matches, globErr := filepath.Glob(filepath.Join(root, "*"+stageSuffix))
	require.NoError(t, globErr)
	require.Empty(t, matches, "staged files must be cleaned up on failure")
}

func TestMergePlan_ApplySwapFailureCleansStagedFiles(t *testing.T) {
	root := t.TempDir()
	// A generated path that changed from directory to file: the rename
	// onto the existing directory fails mid-swap.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sdk", "gen.rs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sdk", "gen.rs", "inner"), []byte("x"), 0644))

	generated := New()
	generated.Put("aaa.txt", []byte("first"))
	generated.Put("sdk/gen.rs", []byte("now a file"))

	plan := &MergePlan{Changes: []Change{
		{Path: "aaa.txt", Kind: ChangeAdd},
		{Path: "sdk/gen.rs", Kind: ChangeAdd},
	}}

	err := plan.Apply(fsops.NewRealFS(), root, generated)
	require.Error(t, err)

	// Renames already applied stay applied; each destination is either
	// old or new, never partial.
	content, readErr := os.ReadFile(filepath.Join(root, "aaa.txt"))
	require.NoError(t, readErr)
	require.Equal(t, "first", string(content))

	// The file staged for the failed rename is cleaned up.
	_, statErr := os.Stat(filepath.Join(root, "sdk", "gen.rs"+stageSuffix))
	require.True(t, os.IsNotExist(statErr), "staged file must be removed on swap failure")
}

func TestMergePlan_ApplyToTree(t *testing.T) {
	generated := New()
	generated.Put("sdk/s3/lib.rs", []byte("v2"))

	target := New()
	target.Put("sdk/s3/lib.rs", []byte("v1"))
	target.Put("sdk/old/lib.rs", []byte("stale"))

	plan := &MergePlan{Changes: []Change{
		{Path: "sdk/s3/lib.rs", Kind: ChangeModify},
		{Path: "sdk/old/lib.rs", Kind: ChangeDelete},
	}}
	plan.ApplyToTree(generated, target)

	content, _ := target.Get("sdk/s3/lib.rs")
	require.Equal(t, "v2", string(content))
	require.False(t, target.Has("sdk/old/lib.rs"))
}
