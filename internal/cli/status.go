package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusTargetDir string

// statusCmd reports the target repository's sync state.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the target manifest and mirrored revisions",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := newOrchestrator("")
		if err != nil {
			return err
		}

		result, err := orch.Status(cmd.Context(), statusTargetDir)
		if err != nil {
			return err
		}

		if jsonOutput {
			return printJSON(result)
		}

		if result.Manifest == nil {
			warnColor.Println("no version manifest: target has never been synced")
		} else {
			headingColor.Println("pinned revisions:")
			fmt.Printf("  smithy-rs:            %s\n", result.Manifest.SmithyRsRevision)
			fmt.Printf("  aws-doc-sdk-examples: %s\n", result.Manifest.AwsDocSdkExamplesRevision)
		}

		if len(result.Entries) == 0 {
			fmt.Println("no mirror commits in target history")
			return nil
		}

		headingColor.Printf("%d mirrored revision(s):\n", len(result.Entries))
		for _, entry := range result.Entries {
			fmt.Printf("  %s -> %s\n", entry.UpstreamRevision, entry.LocalCommit)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusTargetDir, "target", "", "target repository location")
	_ = statusCmd.MarkFlagRequired("target")
}
