// Package cli wires the revsync commands: sync, plan, and status.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/danieljhkim/revsync/internal/builder"
	"github.com/danieljhkim/revsync/internal/clock"
	"github.com/danieljhkim/revsync/internal/config"
	"github.com/danieljhkim/revsync/internal/fsops"
	"github.com/danieljhkim/revsync/internal/gitx"
	"github.com/danieljhkim/revsync/internal/hash"
	"github.com/danieljhkim/revsync/internal/syncer"
)

var (
	// Global flags
	configPath string
	jsonOutput bool
	verbose    bool

	logger *zap.Logger

	headingColor = color.New(color.FgCyan, color.Bold)
	okColor      = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
)

// rootCmd is the root command for revsync.
var rootCmd = &cobra.Command{
	Use:     "revsync",
	Version: "dev",
	Short:   "Mirror upstream generator history into a generated-artifact repository",
	Long: `revsync keeps a generated SDK repository continuously consistent with the
smithy-rs code generator and the examples repository.

It replays upstream history as one mirror commit per model-affecting
revision, never overwrites handwritten files, and resumes from the last
mirrored revision recorded in the target history.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logConfig := zap.NewProductionConfig()
		if verbose {
			logConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = logConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultFileName, "configuration file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit JSON instead of text")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(statusCmd)
}

// newOrchestrator builds an Orchestrator with production collaborators.
func newOrchestrator(smithyRsDir string) (*syncer.Orchestrator, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	git := gitx.NewShellRepo(logger)
	gen := builder.NewGeneratorBuilder(git, smithyRsDir, cfg.Build, logger)
	bld := builder.NewRetrier(gen, cfg.Build.Retries, cfg.Build.BackoffBase(), cfg.Build.BackoffMax(), logger)

	return syncer.New(
		git,
		bld,
		fsops.NewRealFS(),
		hash.NewSHA256Hasher(),
		&clock.RealClock{},
		cfg,
		logger,
	), nil
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
