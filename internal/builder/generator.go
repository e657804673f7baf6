package builder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/danieljhkim/revsync/internal/config"
	"github.com/danieljhkim/revsync/internal/gitx"
	"github.com/danieljhkim/revsync/internal/manifest"
	"github.com/danieljhkim/revsync/internal/tree"
)

// Environment variables passed to the generator command.
const (
	EnvSmithyRsRevision = "REVSYNC_SMITHY_RS_REVISION"
	EnvExamplesRevision = "REVSYNC_EXAMPLES_REVISION"
)

// logTailLimit bounds the amount of generator output kept in an Error.
const logTailLimit = 16 * 1024

// GeneratorBuilder implements Builder by checking out the generator
// repository at the requested revision and running the configured build
// command under a timeout.
type GeneratorBuilder struct {
	git    gitx.Repo
	dir    string
	cfg    config.BuildConfig
	logger *zap.Logger
}

// NewGeneratorBuilder creates a GeneratorBuilder for the generator
// repository at dir.
func NewGeneratorBuilder(git gitx.Repo, dir string, cfg config.BuildConfig, logger *zap.Logger) *GeneratorBuilder {
	return &GeneratorBuilder{git: git, dir: dir, cfg: cfg, logger: logger}
}

// Build checks out the generator revision, runs the generator, and loads
// the generated tree and manifest. A non-zero exit, a stalled process
// killed by the timeout, or a missing/malformed manifest is an *Error.
func (b *GeneratorBuilder) Build(ctx context.Context, in Input) (*Output, error) {
	if err := b.git.Checkout(ctx, b.dir, in.SmithyRsRevision); err != nil {
		return nil, fmt.Errorf("failed to checkout generator revision: %w", err)
	}

	buildCtx, cancel := context.WithTimeout(ctx, b.cfg.Timeout())
	defer cancel()

	cmd := exec.CommandContext(buildCtx, b.cfg.Command[0], b.cfg.Command[1:]...)
	cmd.Dir = b.dir
	cmd.Env = append(os.Environ(),
		EnvSmithyRsRevision+"="+in.SmithyRsRevision,
		EnvExamplesRevision+"="+in.ExamplesRevision,
	)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	b.logger.Info("running generator",
		zap.String("revision", in.SmithyRsRevision),
		zap.Strings("command", b.cfg.Command),
		zap.Duration("timeout", b.cfg.Timeout()))

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if buildCtx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("generator timed out after %s", b.cfg.Timeout())
			exitCode = -1
		}
		return nil, &Error{
			Revision: in.SmithyRsRevision,
			ExitCode: exitCode,
			Log:      logTail(output.Bytes()),
			Err:      err,
		}
	}

	outputDir := filepath.Join(b.dir, filepath.FromSlash(b.cfg.OutputDir))
	generated, err := tree.ReadDir(outputDir, nil)
	if err != nil {
		return nil, &Error{
			Revision: in.SmithyRsRevision,
			ExitCode: -1,
			Log:      logTail(output.Bytes()),
			Err:      fmt.Errorf("failed to read generator output: %w", err),
		}
	}

	manifestData, ok := generated.Get(manifest.FileName)
	if !ok {
		return nil, &Error{
			Revision: in.SmithyRsRevision,
			ExitCode: -1,
			Log:      logTail(output.Bytes()),
			Err:      fmt.Errorf("generator output has no %s", manifest.FileName),
		}
	}
	m, err := manifest.Parse(manifestData)
	if err != nil {
		return nil, &Error{
			Revision: in.SmithyRsRevision,
			ExitCode: -1,
			Log:      logTail(output.Bytes()),
			Err:      err,
		}
	}

	b.logger.Info("generator finished",
		zap.String("revision", in.SmithyRsRevision),
		zap.Int("files", generated.Len()))

	return &Output{Tree: generated, Manifest: m}, nil
}

// logTail returns the last logTailLimit bytes of the generator output.
func logTail(out []byte) string {
	if len(out) > logTailLimit {
		out = out[len(out)-logTailLimit:]
	}
	return string(out)
}
