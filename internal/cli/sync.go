package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/revsync/internal/syncer"
)

var (
	syncSmithyRsDir string
	syncExamplesDir string
	syncTargetDir   string
	syncRevision    string
)

// syncCmd runs one sync end to end.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replay new upstream revisions into the target repository",
	Long: `Sync computes the upstream revisions not yet mirrored, builds each
model-affecting one, merges the generated output into the target without
touching handwritten files, and creates one mirror commit per change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := newOrchestrator(syncSmithyRsDir)
		if err != nil {
			return err
		}

		result, err := orch.Run(cmd.Context(), &syncer.RunRequest{
			SmithyRsDir:      syncSmithyRsDir,
			ExamplesDir:      syncExamplesDir,
			TargetDir:        syncTargetDir,
			RevisionOverride: syncRevision,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(result)
		}

		headingColor.Printf("sync complete\n")
		fmt.Printf("  head:      %s\n", result.HeadRevision)
		fmt.Printf("  planned:   %d\n", result.Planned)
		fmt.Printf("  built:     %d\n", result.Built)
		fmt.Printf("  committed: %d\n", result.Committed)
		if result.SkippedNonModel > 0 {
			fmt.Printf("  skipped:   %d (no model changes)\n", result.SkippedNonModel)
		}
		if result.Committed == 0 {
			okColor.Println("target already up to date")
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncSmithyRsDir, "smithy-rs", "", "generator repository location")
	syncCmd.Flags().StringVar(&syncExamplesDir, "examples", "", "examples repository location")
	syncCmd.Flags().StringVar(&syncTargetDir, "target", "", "target repository location")
	syncCmd.Flags().StringVar(&syncRevision, "revision", "", "sync to this generator revision instead of HEAD")
	_ = syncCmd.MarkFlagRequired("smithy-rs")
	_ = syncCmd.MarkFlagRequired("examples")
	_ = syncCmd.MarkFlagRequired("target")
}
