package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

const lockFileName = "run.lock"

// Lock prevents two coding loops from running against the same plan. The
// working tree has no concurrent-writer protection, so the lock is the only
// thing standing between a plan and two agents editing files at once.
type Lock struct {
	path string
}

// NewLock creates a lock manager for the given plan directory.
func NewLock(planDir string) *Lock {
	return &Lock{path: filepath.Join(planDir, lockFileName)}
}

// Acquire takes the lock, reclaiming it if the recorded process is dead or
// the lock file content is garbage. Returns an error if another live
// process holds it.
func (l *Lock) Acquire() error {
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			_, writeErr := fmt.Fprintf(f, "%d", os.Getpid())
			f.Close()
			if writeErr != nil {
				os.Remove(l.path)
				return fmt.Errorf("failed to write lock file: %w", writeErr)
			}
			return nil
		}
		if !os.IsExist(err) {
			return fmt.Errorf("failed to create lock file: %w", err)
		}

		pid, ok := l.holder()
		if ok && processExists(pid) {
			return fmt.Errorf("plan is already being worked on (PID %d)", pid)
		}

		// Stale or unreadable lock: remove it and retry once.
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale lock file: %w", err)
		}
	}
	return fmt.Errorf("lock acquired by another process during retry")
}

// Release removes the lock file. Idempotent.
func (l *Lock) Release() error {
	err := os.Remove(l.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// holder reads the PID recorded in the lock file. The second result is
// false when the file is missing or does not contain a PID.
func (l *Lock) holder() (int, bool) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	return pid, true
}

// processExists checks for a live process using signal 0, which probes
// without delivering anything.
func processExists(pid int) bool {
	if pid == os.Getpid() {
		return true
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
