package ledger

import (
	"strings"
	"testing"

	"github.com/danieljhkim/revsync/internal/manifest"
)

func TestComposeMessage_EmbedsRevisionsVerbatim(t *testing.T) {
	m := &manifest.Manifest{
		SmithyRsRevision:          "0123456789abcdef0123456789abcdef01234567",
		AwsDocSdkExamplesRevision: "fedcba9876543210fedcba9876543210fedcba98",
	}

	msg := ComposeMessage(m, 42)

	if !strings.Contains(msg, m.SmithyRsRevision) {
		t.Error("message missing full smithy-rs revision")
	}
	if !strings.Contains(msg, m.AwsDocSdkExamplesRevision) {
		t.Error("message missing full examples revision")
	}
	if !strings.Contains(msg, "files_changed: 42") {
		t.Error("message missing changed-file count")
	}
	if !strings.HasPrefix(msg, "Update generated code to smithy-rs 0123456789ab") {
		t.Errorf("unexpected subject: %q", msg)
	}
}

func TestParseMessage_Roundtrip(t *testing.T) {
	m := &manifest.Manifest{SmithyRsRevision: "u1", AwsDocSdkExamplesRevision: "e1"}

	smithyRev, examplesRev, ok := ParseMessage(ComposeMessage(m, 3))
	if !ok {
		t.Fatal("ParseMessage() did not recognize a composed message")
	}
	if smithyRev != "u1" || examplesRev != "e1" {
		t.Errorf("parsed %q/%q", smithyRev, examplesRev)
	}
}

func TestParseMessage_NonMirrorCommit(t *testing.T) {
	tests := []string{
		"Fix handwritten README typo",
		"smithy_rs_revision: u1", // half a trailer is not a mirror commit
		"",
	}

	for _, message := range tests {
		if _, _, ok := ParseMessage(message); ok {
			t.Errorf("ParseMessage(%q) = ok, want not ok", message)
		}
	}
}
