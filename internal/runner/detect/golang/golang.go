// Package golang implements the "go test" Runner.
package golang

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

// GoTest is the standard library "go test" Runner.
type GoTest struct{}

func (GoTest) Name() string     { return "go test" }
func (GoTest) Language() string { return "Go" }

func (GoTest) Detect(repoPath string) int {
	if _, err := os.Stat(filepath.Join(repoPath, "go.mod")); err != nil {
		return 0
	}
	score := 60
	found := false
	_ = filepath.Walk(repoPath, func(p string, info os.FileInfo, err error) error {
		if err != nil || found {
			return nil
		}
		if info.IsDir() {
			if info.Name() == "vendor" || info.Name() == "node_modules" || strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(info.Name(), "_test.go") {
			found = true
		}
		return nil
	})
	if found {
		score += 40
	}
	return score
}

func (GoTest) CheckRuntime(ctx context.Context) (bool, string) {
	if !procexec.Exists("go") {
		return false, "Go toolchain not found"
	}
	res, err := procexec.Run(ctx, ".", 10*time.Second, nil, "go", "version")
	if err != nil {
		return false, err.Error()
	}
	return true, strings.TrimSpace(res.Stdout)
}

var goModVersionRe = regexp.MustCompile(`(?m)^go\s+(\d+\.\d+)`)

func (GoTest) RequiredVersion(repoPath string) string {
	data, err := os.ReadFile(filepath.Join(repoPath, "go.mod"))
	if err != nil {
		return ""
	}
	if m := goModVersionRe.FindSubmatch(data); m != nil {
		return string(m[1])
	}
	return ""
}

var goVersionOutputRe = regexp.MustCompile(`go(\d+\.\d+)`)

func (r GoTest) CheckVersionCompatible(ctx context.Context, repoPath string) (bool, string) {
	required := r.RequiredVersion(repoPath)
	if required == "" {
		return true, ""
	}
	ok, versionOut := r.CheckRuntime(ctx)
	if !ok {
		return false, "Go runtime not installed"
	}
	m := goVersionOutputRe.FindStringSubmatch(versionOut)
	if m == nil {
		return true, ""
	}
	current := m[1]
	if !semverx.Compatible(required, current, semverx.MajorOrHigher) {
		return false, "Repo requires Go " + required + " or higher, but " + current + " is installed"
	}
	return true, ""
}

func (GoTest) Install(ctx context.Context, repoPath string, timeoutSeconds int) (bool, string) {
	res, err := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil, "go", "mod", "download")
	if err != nil {
		return false, err.Error()
	}
	if res.TimedOut {
		return false, "go mod download timed out"
	}
	if res.ExitCode != 0 {
		return false, res.Stderr
	}
	return true, ""
}

func (GoTest) Run(ctx context.Context, repoPath string, timeoutSeconds int) outcome.RunResult {
	res, _ := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil,
		"go", "test", "-json", "-count=1", "./...")
	output := res.Combined

	if res.TimedOut {
		return outcome.RunResult{Error: "go test timed out", RawOutput: output}
	}

	result, ok := parsers.ParseGoTestJSON(res.Stdout)
	if !ok {
		if strings.Contains(output, "no Go files") || strings.Contains(output, "no test files") && res.ExitCode == 0 {
			return outcome.RunResult{Error: "No tests found", RawOutput: output}
		}
		if res.ExitCode != 0 {
			return outcome.RunResult{Error: "go test build failed", RawOutput: output}
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
