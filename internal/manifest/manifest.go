// Package manifest reads and writes the version manifest persisted at the
// target repository root. The manifest pins the exact upstream revisions
// the generated tree was built from, in ordered `key = "value"` TOML pairs.
package manifest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file name at the target repository root.
const FileName = "versions.toml"

// Manifest pins the upstream revisions a generated tree was built from.
// Field order is the serialization order.
type Manifest struct {
	// SmithyRsRevision is the full commit identifier of the code
	// generator repository.
	SmithyRsRevision string `toml:"smithy_rs_revision"`

	// AwsDocSdkExamplesRevision is the full commit identifier of the
	// examples repository.
	AwsDocSdkExamplesRevision string `toml:"aws_doc_sdk_examples_revision"`
}

// Parse decodes and validates a manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	meta, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("malformed manifest: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("malformed manifest: unknown key %q", undecoded[0].String())
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that both revision fields are plausible commit
// identifiers. Resolvability against the source repositories is the
// caller's responsibility.
func (m *Manifest) Validate() error {
	if err := validateRevision("smithy_rs_revision", m.SmithyRsRevision); err != nil {
		return err
	}
	return validateRevision("aws_doc_sdk_examples_revision", m.AwsDocSdkExamplesRevision)
}

func validateRevision(key, rev string) error {
	if rev == "" {
		return fmt.Errorf("manifest missing required key %q", key)
	}
	if strings.ContainsAny(rev, " \t\n") {
		return fmt.Errorf("manifest key %q holds invalid revision %q", key, rev)
	}
	return nil
}

// Encode serializes the manifest as ordered `key = "value"` pairs.
func (m *Manifest) Encode() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}
