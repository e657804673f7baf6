package syncer

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// LockFileName is the exclusive run lock at the target repository root.
const LockFileName = ".revsync.lock"

// ErrLockHeld indicates another run holds the lock. A run observing this
// exits cleanly rather than blocking.
var ErrLockHeld = errors.New("another sync run holds the lock")

// acquireLock takes the exclusive run lock, returning a release function.
// O_EXCL makes creation the atomic test-and-set.
func acquireLock(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("lock file %s exists%s: %w", path, lockHolder(path), ErrLockHeld)
		}
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}

	fmt.Fprintf(f, "%d\n", os.Getpid())
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to write lock file: %w", err)
	}

	return func() {
		_ = os.Remove(path)
	}, nil
}

// lockHolder describes the process recorded in an existing lock file and
// whether it is still alive, so a lock left behind by a crashed run is
// diagnosable from the message alone.
func lockHolder(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return ""
	}

	liveness := "not running; lock is stale"
	if proc, err := os.FindProcess(pid); err == nil && proc.Signal(syscall.Signal(0)) == nil {
		liveness = "alive"
	}
	return fmt.Sprintf(" (held by pid %d, %s)", pid, liveness)
}
