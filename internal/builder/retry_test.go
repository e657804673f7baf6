package builder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/danieljhkim/revsync/internal/tree"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestRetrier_SucceedsAfterTransientFailures(t *testing.T) {
	fake := NewFakeBuilder()
	fake.SetTree("r1", tree.New())
	fake.FailNext("r1", &Error{Revision: "r1", ExitCode: 1, Err: errors.New("flaky")})
	fake.FailNext("r1", &Error{Revision: "r1", ExitCode: 1, Err: errors.New("flaky")})

	r := NewRetrier(fake, 3, time.Second, time.Minute, zap.NewNop())
	r.sleep = noSleep

	out, err := r.Build(context.Background(), Input{SmithyRsRevision: "r1", ExamplesRevision: "e1"})
	require.NoError(t, err)
	require.Equal(t, "r1", out.Manifest.SmithyRsRevision)
	require.Len(t, fake.Calls(), 3)
}

func TestRetrier_ExhaustsAttempts(t *testing.T) {
	fake := NewFakeBuilder()
	fake.SetTree("r1", tree.New())
	for i := 0; i < 3; i++ {
		fake.FailNext("r1", &Error{Revision: "r1", ExitCode: 7, Err: errors.New("broken")})
	}

	r := NewRetrier(fake, 3, time.Second, time.Minute, zap.NewNop())
	r.sleep = noSleep

	_, err := r.Build(context.Background(), Input{SmithyRsRevision: "r1"})
	var buildErr *Error
	require.True(t, errors.As(err, &buildErr))
	require.Equal(t, 7, buildErr.ExitCode)
	require.Len(t, fake.Calls(), 3)
}

func TestRetrier_DoesNotRetryNonBuildErrors(t *testing.T) {
	fake := NewFakeBuilder()
	fake.SetTree("r1", tree.New())
	fake.FailNext("r1", errors.New("context torn down"))

	r := NewRetrier(fake, 3, time.Second, time.Minute, zap.NewNop())
	r.sleep = noSleep

	_, err := r.Build(context.Background(), Input{SmithyRsRevision: "r1"})
	require.Error(t, err)
	require.Len(t, fake.Calls(), 1)
}

func TestRetrier_Backoff(t *testing.T) {
	r := NewRetrier(nil, 5, 5*time.Second, 30*time.Second, zap.NewNop())

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 1, want: 5 * time.Second},
		{attempt: 2, want: 10 * time.Second},
		{attempt: 3, want: 20 * time.Second},
		{attempt: 4, want: 30 * time.Second}, // clamped
		{attempt: 10, want: 30 * time.Second},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, r.backoff(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestRetrier_StopsOnContextCancel(t *testing.T) {
	fake := NewFakeBuilder()
	fake.SetTree("r1", tree.New())
	fake.FailNext("r1", &Error{Revision: "r1", ExitCode: 1, Err: errors.New("flaky")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRetrier(fake, 3, time.Hour, time.Hour, zap.NewNop())

	_, err := r.Build(ctx, Input{SmithyRsRevision: "r1"})
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, fake.Calls(), 1)
}

func TestFakeBuilder_ManifestPinsInput(t *testing.T) {
	fake := NewFakeBuilder()
	generated := tree.New()
	generated.Put("sdk/s3/lib.rs", []byte("v1"))
	fake.SetTree("r1", generated)

	out, err := fake.Build(context.Background(), Input{SmithyRsRevision: "r1", ExamplesRevision: "e9"})
	require.NoError(t, err)
	require.Equal(t, "r1", out.Manifest.SmithyRsRevision)
	require.Equal(t, "e9", out.Manifest.AwsDocSdkExamplesRevision)

	// The served tree is a copy; mutating it must not leak into later builds.
	out.Tree.Put("junk", []byte("x"))
	again, err := fake.Build(context.Background(), Input{SmithyRsRevision: "r1", ExamplesRevision: "e9"})
	require.NoError(t, err)
	require.False(t, again.Tree.Has("junk"))
}

func TestFakeBuilder_UnknownRevision(t *testing.T) {
	fake := NewFakeBuilder()

	_, err := fake.Build(context.Background(), Input{SmithyRsRevision: "missing"})
	var buildErr *Error
	require.True(t, errors.As(err, &buildErr))
	require.Equal(t, "missing", buildErr.Revision)
}
