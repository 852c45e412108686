// Package preflight implements the pre-flight contract: a cheap,
// read-only check of whether a repository can plausibly be analyzed,
// without running any install or test stage.
package preflight

import (
	"context"
	"os"
	"path/filepath"

	"github.com/orizon-lang/f2p-analyzer/internal/config"
	"github.com/orizon-lang/f2p-analyzer/internal/registry"
)

// Blocker is a condition that prevents analysis from running at all.
type Blocker struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	InstallHint string `json:"install_hint,omitempty"`
}

// Warning is a non-fatal condition worth surfacing to the caller.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Detected summarizes what the registry found, when anything did.
type Detected struct {
	Framework  string `json:"framework,omitempty"`
	Language   string `json:"language,omitempty"`
	Confidence int    `json:"confidence,omitempty"`
	Runtime    string `json:"runtime,omitempty"`
}

// Result is the pre-flight check's full output.
type Result struct {
	CanRun   bool      `json:"can_run"`
	Blockers []Blocker `json:"blockers"`
	Warnings []Warning `json:"warnings"`
	Detected Detected  `json:"detected"`
}

var lockFiles = []string{
	"package-lock.json", "yarn.lock", "pnpm-lock.yaml",
	"Pipfile.lock", "poetry.lock", "Cargo.lock", "Gemfile.lock",
}

// Check runs the pre-flight contract against repoPath.
func Check(ctx context.Context, repoPath string, languageHint string, cfg config.Config) Result {
	if _, err := os.Stat(repoPath); err != nil {
		return Result{
			CanRun:   false,
			Blockers: []Blocker{{Code: "REPO_NOT_FOUND", Message: "Repository not found: " + repoPath}},
		}
	}

	var result Result
	_ = languageHint

	detected := registry.GetAllDetected(repoPath)
	if len(detected) == 0 {
		result.Blockers = append(result.Blockers, Blocker{Code: "NO_TEST_FRAMEWORK", Message: "No test framework detected"})
	} else {
		best := detected[0]
		result.Detected.Framework = best.Runner.Name()
		result.Detected.Language = best.Runner.Language()
		result.Detected.Confidence = best.Score

		runtimeOK, runtimeMsg := best.Runner.CheckRuntime(ctx)
		if !runtimeOK {
			hint := cfg.InstallHints[best.Runner.Name()]
			if hint == "" {
				hint = "Please install " + best.Runner.Language() + " runtime"
			}
			result.Blockers = append(result.Blockers, Blocker{
				Code:        "MISSING_RUNTIME",
				Message:     best.Runner.Language() + " runtime not found: " + runtimeMsg,
				InstallHint: hint,
			})
		} else {
			result.Detected.Runtime = runtimeMsg
		}
	}

	if !anyExists(repoPath, lockFiles) {
		result.Warnings = append(result.Warnings, Warning{Code: "NO_LOCK_FILE", Message: "No lock file found"})
	}
	if exists(filepath.Join(repoPath, "docker-compose.yml")) || exists(filepath.Join(repoPath, "docker-compose.yaml")) {
		result.Warnings = append(result.Warnings, Warning{Code: "DOCKER_REQUIRED", Message: "docker-compose.yml found"})
	}
	if exists(filepath.Join(repoPath, ".env.example")) || exists(filepath.Join(repoPath, ".env.sample")) {
		result.Warnings = append(result.Warnings, Warning{Code: "ENV_VARS_NEEDED", Message: "Environment variables may be required"})
	}

	result.CanRun = len(result.Blockers) == 0
	return result
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func anyExists(dir string, names []string) bool {
	for _, n := range names {
		if exists(filepath.Join(dir, n)) {
			return true
		}
	}
	return false
}
