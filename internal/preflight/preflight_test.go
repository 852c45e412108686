package preflight

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/orizon-lang/f2p-analyzer/internal/config"
)

func TestCheckRepoNotFound(t *testing.T) {
	result := Check(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"), "", *config.Default())
	if result.CanRun {
		t.Fatal("expected CanRun=false for a missing repository")
	}
	if len(result.Blockers) != 1 || result.Blockers[0].Code != "REPO_NOT_FOUND" {
		t.Errorf("blockers = %v, want a single REPO_NOT_FOUND blocker", result.Blockers)
	}
}

func TestCheckNoTestFramework(t *testing.T) {
	repo := t.TempDir()
	result := Check(context.Background(), repo, "", *config.Default())
	found := false
	for _, b := range result.Blockers {
		if b.Code == "NO_TEST_FRAMEWORK" {
			found = true
		}
	}
	if !found {
		t.Errorf("blockers = %v, want a NO_TEST_FRAMEWORK blocker for an empty repo", result.Blockers)
	}
	if result.CanRun {
		t.Error("expected CanRun=false when no test framework is detected")
	}
}
