package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/revsync/internal/syncer"
)

var (
	planSmithyRsDir string
	planExamplesDir string
	planTargetDir   string
	planRevision    string
)

// planCmd shows what a sync would replay, without building or writing.
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the revision window a sync would replay",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := newOrchestrator(planSmithyRsDir)
		if err != nil {
			return err
		}

		result, err := orch.Plan(cmd.Context(), &syncer.RunRequest{
			SmithyRsDir:      planSmithyRsDir,
			ExamplesDir:      planExamplesDir,
			TargetDir:        planTargetDir,
			RevisionOverride: planRevision,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(result)
		}

		if result.LastSynced == "" {
			warnColor.Println("first run: history collapses to a single bulk import")
		} else {
			fmt.Printf("last synced: %s\n", result.LastSynced)
		}
		fmt.Printf("head:        %s\n", result.HeadRevision)

		if len(result.Revisions) == 0 {
			okColor.Println("target already up to date")
			return nil
		}

		headingColor.Printf("%d revision(s) to replay:\n", len(result.Revisions))
		for _, rev := range result.Revisions {
			marker := " "
			if rev.ModelAffecting {
				marker = "*"
			}
			fmt.Printf("  %s %s\n", marker, rev.ID)
		}
		fmt.Println("revisions marked * touch model paths and get their own mirror commit")
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&planSmithyRsDir, "smithy-rs", "", "generator repository location")
	planCmd.Flags().StringVar(&planExamplesDir, "examples", "", "examples repository location")
	planCmd.Flags().StringVar(&planTargetDir, "target", "", "target repository location")
	planCmd.Flags().StringVar(&planRevision, "revision", "", "plan against this generator revision instead of HEAD")
	_ = planCmd.MarkFlagRequired("smithy-rs")
	_ = planCmd.MarkFlagRequired("examples")
	_ = planCmd.MarkFlagRequired("target")
}
