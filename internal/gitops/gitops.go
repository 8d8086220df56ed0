// Package gitops keeps the books directory under version control.
// Every committed batch gets a matching git commit, so the ledger
// history can be audited and rolled back with ordinary git tooling.
package gitops

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Recorder snapshots a books directory after ledger mutations.
type Recorder struct {
	Dir         string
	AuthorName  string
	AuthorEmail string

	// Disabled turns Record into a no-op; set from config when the
	// operator opts out of auto-commit.
	Disabled bool
}

// Record commits the current state of the books with the given
// message. It is safe to call unconditionally: it does nothing when
// recording is disabled, the books are not a git repository, or
// nothing changed since the last snapshot. Returns the short commit
// hash, or "" when no commit was made.
func (r *Recorder) Record(message string) (string, error) {
	if r.Disabled || !IsRepo(r.Dir) {
		return "", nil
	}
	changed, err := hasChanges(r.Dir)
	if err != nil {
		return "", err
	}
	if !changed {
		return "", nil
	}
	return CommitAll(r.Dir, message, r.AuthorName, r.AuthorEmail)
}

// Init initializes a new git repository at dir.
func Init(dir string) error {
	cmd := exec.Command("git", "init")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git init: %s: %w", bytes.TrimSpace(out), err)
	}
	return nil
}

// CommitAll stages all files and creates a commit. Returns the short
// commit hash. The author identity is also used as the committer, so
// commits work on machines without a global git config.
func CommitAll(dir, message, authorName, authorEmail string) (string, error) {
	identity := append(os.Environ(),
		"GIT_AUTHOR_NAME="+authorName,
		"GIT_AUTHOR_EMAIL="+authorEmail,
		"GIT_COMMITTER_NAME="+authorName,
		"GIT_COMMITTER_EMAIL="+authorEmail,
	)

	add := exec.Command("git", "add", "-A")
	add.Dir = dir
	if out, err := add.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git add: %s: %w", out, err)
	}

	commit := exec.Command("git", "commit", "-m", message)
	commit.Dir = dir
	commit.Env = identity
	if out, err := commit.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", out, err)
	}

	rev := exec.Command("git", "rev-parse", "--short", "HEAD")
	rev.Dir = dir
	out, err := rev.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

func hasChanges(dir string) (bool, error) {
	status := exec.Command("git", "status", "--porcelain")
	status.Dir = dir
	out, err := status.Output()
	if err != nil {
		return false, fmt.Errorf("git status: %w", err)
	}
	return len(bytes.TrimSpace(out)) > 0, nil
}
