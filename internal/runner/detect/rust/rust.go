// Package rust implements the cargo test Runner.
package rust

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/orizon-lang/f2p-analyzer/internal/outcome"
	"github.com/orizon-lang/f2p-analyzer/internal/parsers"
	"github.com/orizon-lang/f2p-analyzer/internal/procexec"
	"github.com/orizon-lang/f2p-analyzer/internal/semverx"
)

// Cargo is the cargo test Runner.
type Cargo struct{}

func (Cargo) Name() string     { return "cargo test" }
func (Cargo) Language() string { return "Rust" }

func (Cargo) Detect(repoPath string) int {
	if _, err := os.Stat(filepath.Join(repoPath, "Cargo.toml")); err != nil {
		return 0
	}
	score := 70
	if _, err := os.Stat(filepath.Join(repoPath, "Cargo.lock")); err == nil {
		score += 10
	}
	found := false
	_ = filepath.Walk(filepath.Join(repoPath, "tests"), func(p string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() && strings.HasSuffix(info.Name(), ".rs") {
			found = true
		}
		return nil
	})
	if found {
		score += 20
	}
	if score > 100 {
		score = 100
	}
	return score
}

func (Cargo) CheckRuntime(ctx context.Context) (bool, string) {
	if !procexec.Exists("cargo") {
		return false, "cargo not found"
	}
	res, err := procexec.Run(ctx, ".", 10*time.Second, nil, "cargo", "--version")
	if err != nil {
		return false, err.Error()
	}
	return true, strings.TrimSpace(res.Stdout)
}

var rustToolchainRe = regexp.MustCompile(`channel\s*=\s*"(\d+\.\d+)`)
var cargoVersionOutRe = regexp.MustCompile(`cargo\s+(\d+\.\d+)`)

func (Cargo) RequiredVersion(repoPath string) string {
	data, err := os.ReadFile(filepath.Join(repoPath, "rust-toolchain.toml"))
	if err != nil {
		data, err = os.ReadFile(filepath.Join(repoPath, "rust-toolchain"))
		if err != nil {
			return ""
		}
		s := strings.TrimSpace(string(data))
		if regexp.MustCompile(`^\d+\.\d+`).MatchString(s) {
			return s
		}
		return ""
	}
	if m := rustToolchainRe.FindSubmatch(data); m != nil {
		return string(m[1])
	}
	return ""
}

func (r Cargo) CheckVersionCompatible(ctx context.Context, repoPath string) (bool, string) {
	required := r.RequiredVersion(repoPath)
	if required == "" {
		return true, ""
	}
	ok, versionOut := r.CheckRuntime(ctx)
	if !ok {
		return false, "Rust toolchain not installed"
	}
	m := cargoVersionOutRe.FindStringSubmatch(versionOut)
	if m == nil {
		return true, ""
	}
	if !semverx.Compatible(required, m[1], semverx.MinorMatch) {
		return false, "Repo requires Rust " + required + ", but " + m[1] + " is installed"
	}
	return true, ""
}

func (Cargo) Install(ctx context.Context, repoPath string, timeoutSeconds int) (bool, string) {
	res, err := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil, "cargo", "fetch")
	if err != nil {
		return false, err.Error()
	}
	if res.TimedOut {
		return false, "cargo fetch timed out"
	}
	if res.ExitCode != 0 {
		return false, res.Stderr
	}
	return true, ""
}

func (Cargo) Run(ctx context.Context, repoPath string, timeoutSeconds int) outcome.RunResult {
	res, _ := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil,
		"cargo", "test", "--", "--test-threads=1")
	output := res.Combined

	if res.TimedOut {
		return outcome.RunResult{Error: "cargo test timed out", RawOutput: output}
	}

	result, ok := parsers.ParseCargoTestOutput(output)
	if !ok {
		if res.ExitCode != 0 {
			return outcome.RunResult{Error: "cargo test build failed", RawOutput: output}
		}
		return outcome.RunResult{Error: "No tests found", RawOutput: output}
	}
	result.RawOutput = output
	return result
}

func secToDuration(sec int) time.Duration {
	if sec <= 0 {
		sec = 300
	}
	return time.Duration(sec) * time.Second
}
