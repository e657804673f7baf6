package hash

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHashBytes(t *testing.T) {
	h := NewSHA256Hasher()

	a := h.HashBytes([]byte("content"))
	if a != h.HashBytes([]byte("content")) {
		t.Error("identical content hashed differently")
	}
	if a == h.HashBytes([]byte("other")) {
		t.Error("different content hashed identically")
	}
	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(a))
	}
}

func TestHashFile(t *testing.T) {
	h := NewSHA256Hasher()
	path := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(path, []byte("content"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := h.HashFile(path)
	if err != nil {
		t.Fatalf("HashFile() error: %v", err)
	}
	if got != h.HashBytes([]byte("content")) {
		t.Error("HashFile and HashBytes disagree on identical content")
	}
}

func TestHashFile_Missing(t *testing.T) {
	h := NewSHA256Hasher()
	if _, err := h.HashFile(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("HashFile() on missing file succeeded")
	}
}
