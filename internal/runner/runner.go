// Package runner defines the capability contract every language/test
// framework strategy implements: detection, runtime checks, dependency
// installation, and test execution. There is no class hierarchy here,
// only the interface plus the plain value type outcome.RunResult, per
// Design Notes.
package runner

import (
	"context"

	"github.com/orizon-lang/f2p-analyzer/internal/outcome"
)

// Runner is implemented once per (language, framework) pair.
type Runner interface {
	// Name is the runner's stable identifier (e.g. "pytest", "go test"),
	// used to key install hints and to look runners up by name.
	Name() string
	// Language is the human-readable language name (e.g. "Python").
	Language() string

	// Detect returns a confidence score 0-100 that this runner can
	// handle repoPath, based purely on cheap filesystem evidence.
	Detect(repoPath string) int

	// CheckRuntime reports whether the required toolchain is on PATH,
	// and a version string or diagnostic message.
	CheckRuntime(ctx context.Context) (ok bool, versionOrMsg string)

	// RequiredVersion extracts a runtime version requirement from the
	// repo's conventional config files, or "" if none is declared.
	RequiredVersion(repoPath string) string

	// CheckVersionCompatible compares the repo's required version (if
	// any) against the installed runtime using this runner's
	// comparison policy. ok=true, msg="" when no version is required.
	CheckVersionCompatible(ctx context.Context, repoPath string) (ok bool, msg string)

	// Install installs dependencies, idempotently. Never raises; a
	// timeout or tool failure is reported via the bool/message return.
	Install(ctx context.Context, repoPath string, timeoutSeconds int) (ok bool, msg string)

	// Run executes the test suite and returns a normalized RunResult.
	// RunResult.Error is set only when zero tests were collected.
	Run(ctx context.Context, repoPath string, timeoutSeconds int) outcome.RunResult
}
