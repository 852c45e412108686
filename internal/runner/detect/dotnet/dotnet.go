// Package dotnet implements the "dotnet test" Runner (C#, F#, VB.NET).
package dotnet

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/orizon-lang/f2p-analyzer/internal/outcome"
	"github.com/orizon-lang/f2p-analyzer/internal/parsers"
	"github.com/orizon-lang/f2p-analyzer/internal/procexec"
	"github.com/orizon-lang/f2p-analyzer/internal/semverx"
)

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func readFile(path string) (string, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(b), true
}

func secToDuration(sec int) time.Duration {
	if sec <= 0 {
		sec = 300
	}
	return time.Duration(sec) * time.Second
}

func globRecursive(root, pattern string) []string {
	var matches []string
	_ = filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(pattern, info.Name()); ok {
			matches = append(matches, p)
		}
		return nil
	})
	return matches
}

// DotNet is the dotnet test Runner.
type DotNet struct{}

func (DotNet) Name() string     { return "dotnet" }
func (DotNet) Language() string { return "C#" }

func (DotNet) Detect(repoPath string) int {
	score := 0
	slnMatches, _ := filepath.Glob(filepath.Join(repoPath, "*.sln"))
	if len(slnMatches) > 0 {
		score += 40
	}
	csprojFiles := globRecursive(repoPath, "*.csproj")
	if len(csprojFiles) > 0 {
		score += 40
		for _, csproj := range csprojFiles {
			if content, ok := readFile(csproj); ok {
				lower := strings.ToLower(content)
				if strings.Contains(lower, "xunit") || strings.Contains(lower, "nunit") ||
					strings.Contains(lower, "mstest") || strings.Contains(lower, "test") {
					score += 20
					break
				}
			}
		}
	}
	if len(globRecursive(repoPath, "*.fsproj")) > 0 {
		score += 30
	}
	if exists(filepath.Join(repoPath, "global.json")) {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

func (DotNet) CheckRuntime(ctx context.Context) (bool, string) {
	if !procexec.Exists("dotnet") {
		return false, ".NET SDK not found"
	}
	res, err := procexec.Run(ctx, ".", 10*time.Second, nil, "dotnet", "--version")
	if err != nil {
		return false, err.Error()
	}
	return true, ".NET SDK " + strings.TrimSpace(res.Stdout)
}

type globalJSON struct {
	SDK struct {
		Version string `json:"version"`
	} `json:"sdk"`
}

var fsMajorRe = regexp.MustCompile(`^(\d+)`)
var targetFrameworkRe = regexp.MustCompile(`<TargetFramework>net(\d+)`)
var dotnetVersionOutRe = regexp.MustCompile(`(\d+)`)

func (DotNet) RequiredVersion(repoPath string) string {
	if content, ok := readFile(filepath.Join(repoPath, "global.json")); ok {
		var gj globalJSON
		if json.Unmarshal([]byte(content), &gj) == nil && gj.SDK.Version != "" {
			if m := fsMajorRe.FindStringSubmatch(gj.SDK.Version); m != nil {
				return m[1]
			}
		}
	}
	for _, csproj := range globRecursive(repoPath, "*.csproj") {
		if content, ok := readFile(csproj); ok {
			if m := targetFrameworkRe.FindStringSubmatch(content); m != nil {
				return m[1]
			}
		}
	}
	return ""
}

func (r DotNet) CheckVersionCompatible(ctx context.Context, repoPath string) (bool, string) {
	required := r.RequiredVersion(repoPath)
	if required == "" {
		return true, ""
	}
	if !procexec.Exists("dotnet") {
		return false, ".NET SDK not installed"
	}
	res, err := procexec.Run(ctx, ".", 10*time.Second, nil, "dotnet", "--version")
	if err != nil {
		return true, ""
	}
	m := dotnetVersionOutRe.FindStringSubmatch(res.Stdout)
	if m == nil {
		return true, ""
	}
	if !semverx.Compatible(required, m[1], semverx.MajorOrHigher) {
		return false, "Repo requires .NET " + required + " or higher, but " + m[1] + " is installed"
	}
	return true, ""
}

func (DotNet) Install(ctx context.Context, repoPath string, timeoutSeconds int) (bool, string) {
	res, err := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil, "dotnet", "restore")
	if err != nil {
		return false, err.Error()
	}
	if res.ExitCode != 0 {
		return false, "dotnet restore failed: " + res.Stderr
	}
	res2, err2 := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil, "dotnet", "build", "--no-restore")
	if err2 != nil {
		return false, err2.Error()
	}
	if res2.ExitCode != 0 {
		return false, "dotnet build failed: " + res2.Stderr
	}
	return true, ""
}

var dotnetSummaryRe = regexp.MustCompile(`Failed:\s*(\d+),\s*Passed:\s*(\d+),\s*Skipped:\s*(\d+)`)

func (DotNet) Run(ctx context.Context, repoPath string, timeoutSeconds int) outcome.RunResult {
	tmpDir, err := os.MkdirTemp("", "f2p-dotnet-")
	if err != nil {
		tmpDir = os.TempDir()
	}
	defer os.RemoveAll(tmpDir)
	trxPath := filepath.Join(tmpDir, "results.trx")

	res, _ := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil,
		"dotnet", "test", "--no-build", "--logger", "trx;LogFileName="+trxPath, "--verbosity", "normal")
	output := res.Combined

	if res.TimedOut {
		return outcome.RunResult{Error: "dotnet test timed out", RawOutput: output}
	}

	if result, ok := parsers.ParseTRX(trxPath); ok {
		result.RawOutput = output
		return result
	}

	for _, trxFile := range globRecursive(repoPath, "*.trx") {
		if !strings.Contains(trxFile, "TestResults") {
			continue
		}
		if result, ok := parsers.ParseTRX(trxFile); ok && result.TotalTests() > 0 {
			result.RawOutput = output
			return result
		}
	}

	var result outcome.RunResult
	if m := dotnetSummaryRe.FindStringSubmatch(output); m != nil {
		failures, _ := strconv.Atoi(m[1])
		passes, _ := strconv.Atoi(m[2])
		skips, _ := strconv.Atoi(m[3])
		for i := 0; i < passes; i++ {
			result.Passed = append(result.Passed, "test_"+strconv.Itoa(i))
		}
		for i := 0; i < failures; i++ {
			result.Failed = append(result.Failed, "failed_test_"+strconv.Itoa(i))
		}
		for i := 0; i < skips; i++ {
			result.Skipped = append(result.Skipped, "skipped_test_"+strconv.Itoa(i))
		}
		result.Unstable = true
	}
	result.RawOutput = output
	if result.TotalTests() == 0 {
		if strings.Contains(strings.ToLower(output), "no test") {
			result.Error = "No tests found"
		} else if res.ExitCode != 0 {
			result.Error = "dotnet test failed with exit code " + strconv.Itoa(res.ExitCode)
		}
	}
	return result
}
