// Package vcs is the git facade the orchestrator drives to move a
// repository between the base/before/after commits of a three-stage
// run. Every operation is wrapped through internal/procexec so its
// timeout and process-group teardown guarantees apply uniformly.
package vcs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/orizon-lang/f2p-analyzer/internal/config"
	"github.com/orizon-lang/f2p-analyzer/internal/procexec"
)

// Git drives the repository at Dir through checkout/diff operations.
type Git struct {
	Dir      string
	Timeouts config.Timeouts
}

// New constructs a Git facade for repoPath.
func New(repoPath string, timeouts config.Timeouts) *Git {
	return &Git{Dir: repoPath, Timeouts: timeouts}
}

// ResetToDefaultBranch checks out the repository's default branch,
// giving runner detection a clean, known starting state. Best-effort:
// any failure is swallowed, matching the original's bare except.
func (g *Git) ResetToDefaultBranch(ctx context.Context) {
	branch := "main"
	res, err := procexec.Run(ctx, g.Dir, 10*time.Second, nil, "git", "symbolic-ref", "refs/remotes/origin/HEAD", "--short")
	if err == nil && res.ExitCode == 0 {
		if b := strings.TrimSpace(res.Stdout); b != "" {
			branch = strings.TrimPrefix(b, "origin/")
		}
	}
	_, _ = procexec.Run(ctx, g.Dir, g.Timeouts.Diff, nil, "git", "checkout", branch, "--force")
}

// ChangedFiles returns every path that differs between baseSHA and
// headSHA (git diff --name-only base...head).
func (g *Git) ChangedFiles(ctx context.Context, baseSHA, headSHA string) []string {
	res, err := procexec.Run(ctx, g.Dir, g.Timeouts.Diff, nil, "git", "diff", "--name-only", baseSHA+"..."+headSHA)
	if err != nil || res.ExitCode != 0 {
		return nil
	}
	return splitLines(res.Stdout)
}

// NewFiles returns the subset of candidateFiles that were added
// (diff-filter=A) between baseSHA and headSHA.
func (g *Git) NewFiles(ctx context.Context, baseSHA, headSHA string, candidateFiles []string) []string {
	res, err := procexec.Run(ctx, g.Dir, g.Timeouts.Diff, nil, "git", "diff", "--name-only", "--diff-filter=A", baseSHA+"..."+headSHA)
	if err != nil || res.ExitCode != 0 {
		return nil
	}
	added := make(map[string]struct{})
	for _, f := range splitLines(res.Stdout) {
		added[f] = struct{}{}
	}
	var out []string
	for _, f := range candidateFiles {
		if _, ok := added[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// CheckoutSHA moves the working tree to sha: fetch it from origin if
// it isn't present locally, discard local modifications, then check
// it out. Returns an error only if the final checkout fails.
func (g *Git) CheckoutSHA(ctx context.Context, sha string) error {
	typeRes, err := procexec.Run(ctx, g.Dir, g.Timeouts.Diff, nil, "git", "cat-file", "-t", sha)
	if err != nil || typeRes.ExitCode != 0 {
		_, _ = procexec.Run(ctx, g.Dir, g.Timeouts.Fetch, nil, "git", "fetch", "origin", sha)
	}

	_, _ = procexec.Run(ctx, g.Dir, g.Timeouts.Diff, nil, "git", "reset", "--hard")
	_, _ = procexec.Run(ctx, g.Dir, g.Timeouts.Diff, nil, "git", "clean", "-fd")

	res, err := procexec.Run(ctx, g.Dir, g.Timeouts.Checkout, nil, "git", "checkout", sha)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("git checkout failed: %s", strings.TrimSpace(res.Stderr))
	}
	return nil
}

// ApplyTestFilesFromHead overlays testFiles from headSHA onto the
// current working tree. Best-effort: a partial or total failure is
// swallowed, since the caller tolerates some test files being absent
// at headSHA.
func (g *Git) ApplyTestFilesFromHead(ctx context.Context, testFiles []string, headSHA string) {
	if len(testFiles) == 0 {
		return
	}
	args := append([]string{"checkout", headSHA, "--"}, testFiles...)
	_, _ = procexec.Run(ctx, g.Dir, g.Timeouts.Diff, nil, "git", args...)
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
