package ledger

import (
	"fmt"
	"strings"

	"github.com/danieljhkim/revsync/internal/manifest"
)

// Mirror-commit message trailers. Both upstream revision identifiers are
// embedded verbatim so history is self-describing and the ledger can be
// rebuilt from the commit log alone.
const (
	trailerSmithyRs = "smithy_rs_revision:"
	trailerExamples = "aws_doc_sdk_examples_revision:"
	trailerFiles    = "files_changed:"
)

// ComposeMessage builds the mirror commit message for one replayed
// upstream revision.
func ComposeMessage(m *manifest.Manifest, filesChanged int) string {
	short := m.SmithyRsRevision
	if len(short) > 12 {
		short = short[:12]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Update generated code to smithy-rs %s\n\n", short)
	fmt.Fprintf(&b, "%s %s\n", trailerSmithyRs, m.SmithyRsRevision)
	fmt.Fprintf(&b, "%s %s\n", trailerExamples, m.AwsDocSdkExamplesRevision)
	fmt.Fprintf(&b, "%s %d\n", trailerFiles, filesChanged)
	return b.String()
}

// ParseMessage extracts the upstream revision identifiers from a mirror
// commit message. ok is false when the message is not a mirror commit.
func ParseMessage(message string) (smithyRev, examplesRev string, ok bool) {
	for _, line := range strings.Split(message, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, trailerSmithyRs):
			smithyRev = strings.TrimSpace(strings.TrimPrefix(line, trailerSmithyRs))
		case strings.HasPrefix(line, trailerExamples):
			examplesRev = strings.TrimSpace(strings.TrimPrefix(line, trailerExamples))
		}
	}
	return smithyRev, examplesRev, smithyRev != "" && examplesRev != ""
}
