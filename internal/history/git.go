// Package history reads version-control state for source documents by
// shelling out to git.
package history

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ErrNoHistory is returned when a path has no commits at all.
var ErrNoHistory = errors.New("path has no commit history")

// Provider answers version-control questions about individual files.
// Implementations other than git only need to satisfy this interface.
type Provider interface {
	// CurrentRevision returns the latest commit touching path, "" if none.
	CurrentRevision(path string) (string, error)
	// IsClean reports whether path has no uncommitted or staged changes.
	IsClean(path string) (bool, error)
	// FileAtRevision returns the file content as of the given revision.
	FileAtRevision(path, rev string) (string, error)
	// Diff returns the unified diff of path between two revisions.
	Diff(path, oldRev, newRev string) (string, error)
	// CommitDistance counts commits touching path between two revisions.
	CommitDistance(path, oldRev, newRev string) (int, error)
}

// Git is a Provider backed by the git CLI.
type Git struct {
	workDir string

	// run executes a git subcommand; replaceable in tests.
	run func(args ...string) (string, error)
}

// NewGit creates a git provider rooted at workDir.
func NewGit(workDir string) *Git {
	g := &Git{workDir: workDir}
	g.run = func(args ...string) (string, error) {
		cmd := exec.Command("git", args...)
		cmd.Dir = g.workDir
		output, err := cmd.CombinedOutput()
		if err != nil {
			return "", fmt.Errorf("git %s: %w\n%s", strings.Join(args, " "), err, string(output))
		}
		return string(output), nil
	}
	return g
}

// CurrentRevision returns the most recent commit hash touching path.
func (g *Git) CurrentRevision(path string) (string, error) {
	out, err := g.run("log", "-n", "1", "--format=%H", "--", path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// IsClean reports whether path has neither unstaged nor staged modifications.
func (g *Git) IsClean(path string) (bool, error) {
	out, err := g.run("status", "--porcelain", "--", path)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) == "", nil
}

// FileAtRevision returns the content of path as of rev.
func (g *Git) FileAtRevision(path, rev string) (string, error) {
	out, err := g.run("show", rev+":"+filepathToSlash(path))
	if err != nil {
		return "", fmt.Errorf("file %s at revision %s: %w", path, rev, err)
	}
	return out, nil
}

// Diff returns the unified diff of path between oldRev and newRev.
func (g *Git) Diff(path, oldRev, newRev string) (string, error) {
	return g.run("diff", oldRev, newRev, "--", path)
}

// CommitDistance counts commits touching path in oldRev..newRev.
func (g *Git) CommitDistance(path, oldRev, newRev string) (int, error) {
	out, err := g.run("rev-list", "--count", oldRev+".."+newRev, "--", path)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("parse commit distance %q: %w", out, err)
	}
	return n, nil
}

// filepathToSlash normalizes a path for the rev:path spec git show expects.
func filepathToSlash(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
