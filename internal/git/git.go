// Package git shells out to the git CLI for the few version-control
// operations the workflow needs. The orchestrator never mutates the
// working tree itself.
package git

import (
	"fmt"
	"os/exec"
	"strings"
)

// Status represents the git workspace status.
type Status struct {
	Clean bool
	Files []string
}

// GetStatus returns the git workspace status for the given directory.
// If dir is empty, uses the current working directory.
func GetStatus(dir string) (*Status, error) {
	cmd := exec.Command("git", "status", "--porcelain")
	if dir != "" {
		cmd.Dir = dir
	}

	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	var files []string
	for _, line := range strings.Split(string(output), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		// Porcelain format: XY filename (two status chars, a space, the path).
		if len(line) > 3 {
			files = append(files, line[3:])
		} else {
			files = append(files, strings.TrimSpace(line))
		}
	}

	return &Status{
		Clean: len(files) == 0,
		Files: files,
	}, nil
}

// IsClean returns true if the workspace has no uncommitted changes,
// counting staged, unstaged and untracked files.
func IsClean(dir string) (bool, error) {
	status, err := GetStatus(dir)
	if err != nil {
		return false, err
	}
	return status.Clean, nil
}

// Diff returns the change-set for the current attempt: the worktree diff
// against HEAD plus the names of untracked files, which a plain diff would
// silently omit.
func Diff(dir string) (string, error) {
	cmd := exec.Command("git", "diff", "HEAD")
	if dir != "" {
		cmd.Dir = dir
	}
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git diff failed: %w", err)
	}
	diff := string(output)

	status, err := GetStatus(dir)
	if err != nil {
		return "", err
	}
	if diff == "" && len(status.Files) > 0 {
		diff = "Untracked or modified files:\n" + strings.Join(status.Files, "\n") + "\n"
	}
	return diff, nil
}

// CommitAll stages every change and commits it with the given message.
func CommitAll(dir, message string) error {
	add := exec.Command("git", "add", "-A")
	if dir != "" {
		add.Dir = dir
	}
	if output, err := add.CombinedOutput(); err != nil {
		return fmt.Errorf("git add failed: %v: %s", err, strings.TrimSpace(string(output)))
	}

	commit := exec.Command("git", "commit", "-m", message)
	if dir != "" {
		commit.Dir = dir
	}
	if output, err := commit.CombinedOutput(); err != nil {
		return fmt.Errorf("git commit failed: %v: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
