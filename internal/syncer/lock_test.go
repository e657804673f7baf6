package syncer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), LockFileName)

	release, err := acquireLock(path)
	if err != nil {
		t.Fatalf("acquireLock() error: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("lock file missing after acquire: %v", err)
	}

	if _, err := acquireLock(path); !errors.Is(err, ErrLockHeld) {
		t.Errorf("second acquire error = %v, want ErrLockHeld", err)
	}

	release()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("lock file still present after release")
	}

	// Reacquirable after release.
	release2, err := acquireLock(path)
	if err != nil {
		t.Fatalf("reacquire error: %v", err)
	}
	release2()
}

func TestAcquireLock_ReportsLiveHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), LockFileName)
	if err := os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := acquireLock(path)
	if !errors.Is(err, ErrLockHeld) {
		t.Fatalf("error = %v, want ErrLockHeld", err)
	}
	if !strings.Contains(err.Error(), fmt.Sprintf("pid %d", os.Getpid())) {
		t.Errorf("message does not name the holder pid: %q", err)
	}
	if !strings.Contains(err.Error(), "alive") {
		t.Errorf("message does not report the holder as alive: %q", err)
	}
}

func TestAcquireLock_FlagsStaleHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), LockFileName)
	// A pid beyond any real process: the recorded holder is gone.
	if err := os.WriteFile(path, []byte("1073741824\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := acquireLock(path)
	if !errors.Is(err, ErrLockHeld) {
		t.Fatalf("error = %v, want ErrLockHeld", err)
	}
	if !strings.Contains(err.Error(), "stale") {
		t.Errorf("message does not flag the lock as stale: %q", err)
	}
}
