// Package ruby implements the RSpec and Minitest Runners.
package ruby

import (
	"context"
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

func hasGlobRecursive(dir string, patterns ...string) bool {
	found := false
	_ = filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil || found || info.IsDir() {
			return nil
		}
		for _, pat := range patterns {
			if ok, _ := filepath.Match(pat, info.Name()); ok {
				found = true
				return nil
			}
		}
		return nil
	})
	return found
}

func secToDuration(sec int) time.Duration {
	if sec <= 0 {
		sec = 300
	}
	return time.Duration(sec) * time.Second
}

var rubyVersionFileRe = regexp.MustCompile(`(\d+\.\d+)`)
var gemfileRubyRe = regexp.MustCompile(`(?m)^ruby\s+["'](\d+\.\d+)`)
var rubyVersionOutRe = regexp.MustCompile(`(\d+\.\d+)`)

func requiredRubyVersion(repoPath string) string {
	if content, ok := readFile(filepath.Join(repoPath, ".ruby-version")); ok {
		if m := rubyVersionFileRe.FindStringSubmatch(strings.TrimSpace(content)); m != nil {
			return m[1]
		}
	}
	if content, ok := readFile(filepath.Join(repoPath, "Gemfile")); ok {
		if m := gemfileRubyRe.FindStringSubmatch(content); m != nil {
			return m[1]
		}
	}
	return ""
}

func checkRubyRuntime(ctx context.Context) (bool, string) {
	if !procexec.Exists("ruby") {
		return false, "Ruby not found"
	}
	res, err := procexec.Run(ctx, ".", 10*time.Second, nil, "ruby", "--version")
	if err != nil {
		return false, err.Error()
	}
	return true, strings.TrimSpace(res.Stdout)
}

func currentRubyVersion(ctx context.Context) string {
	ok, version := checkRubyRuntime(ctx)
	if !ok {
		return ""
	}
	if m := rubyVersionOutRe.FindStringSubmatch(version); m != nil {
		return m[1]
	}
	return ""
}

func rubyVersionCompatible(ctx context.Context, repoPath string) (bool, string) {
	required := requiredRubyVersion(repoPath)
	if required == "" {
		return true, ""
	}
	current := currentRubyVersion(ctx)
	if current == "" {
		return false, "Ruby runtime not installed"
	}
	if !semverx.Compatible(required, current, semverx.MinorMatch) {
		return false, "Repo requires Ruby " + required + ", but " + current + " is installed"
	}
	return true, ""
}

func installBundlerDeps(ctx context.Context, repoPath string, timeoutSeconds int) (bool, string) {
	if !procexec.Exists("bundle") {
		res, err := procexec.Run(ctx, repoPath, 60*time.Second, nil, "gem", "install", "bundler")
		if err != nil {
			return false, "Failed to install bundler: " + err.Error()
		}
		if res.ExitCode != 0 {
			return false, "Failed to install bundler: " + res.Stderr
		}
	}
	res, err := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil, "bundle", "install")
	if err != nil {
		return false, err.Error()
	}
	if res.TimedOut {
		return false, "bundle install timed out"
	}
	if res.ExitCode != 0 {
		return false, "bundle install failed: " + res.Stderr
	}
	return true, ""
}

// RSpec is the RSpec Runner.
type RSpec struct{}

func (RSpec) Name() string     { return "rspec" }
func (RSpec) Language() string { return "Ruby" }

func (RSpec) Detect(repoPath string) int {
	score := 0
	if exists(filepath.Join(repoPath, ".rspec")) {
		score += 50
	}
	specDir := filepath.Join(repoPath, "spec")
	if info, err := os.Stat(specDir); err == nil && info.IsDir() {
		score += 30
		if exists(filepath.Join(specDir, "spec_helper.rb")) {
			score += 20
		}
	}
	if content, ok := readFile(filepath.Join(repoPath, "Gemfile")); ok {
		if strings.Contains(strings.ToLower(content), "rspec") {
			score += 30
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

func (RSpec) CheckRuntime(ctx context.Context) (bool, string) { return checkRubyRuntime(ctx) }
func (RSpec) RequiredVersion(repoPath string) string          { return requiredRubyVersion(repoPath) }
func (RSpec) CheckVersionCompatible(ctx context.Context, repoPath string) (bool, string) {
	return rubyVersionCompatible(ctx, repoPath)
}
func (RSpec) Install(ctx context.Context, repoPath string, timeoutSeconds int) (bool, string) {
	return installBundlerDeps(ctx, repoPath, timeoutSeconds)
}

var rspecSummaryRe = regexp.MustCompile(`(\d+)\s+examples?,\s+(\d+)\s+failures?`)

func (RSpec) Run(ctx context.Context, repoPath string, timeoutSeconds int) outcome.RunResult {
	jsonPath := filepath.Join(os.TempDir(), "f2p-rspec-"+strconv.FormatInt(int64(os.Getpid()), 10)+".json")
	defer os.Remove(jsonPath)

	res, _ := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil,
		"bundle", "exec", "rspec", "--format", "json", "--out", jsonPath, "--format", "progress")
	output := res.Combined

	if res.TimedOut {
		return outcome.RunResult{Error: "rspec timed out", RawOutput: output}
	}

	if info, err := os.Stat(jsonPath); err == nil && info.Size() > 0 {
		if result, ok := parsers.ParseRSpecJSON(jsonPath); ok {
			result.RawOutput = output
			return result
		}
	}

	var result outcome.RunResult
	if m := rspecSummaryRe.FindStringSubmatch(output); m != nil {
		total, _ := strconv.Atoi(m[1])
		failures, _ := strconv.Atoi(m[2])
		for i := 0; i < total-failures; i++ {
			result.Passed = append(result.Passed, "example_"+strconv.Itoa(i))
		}
		for i := 0; i < failures; i++ {
			result.Failed = append(result.Failed, "failed_example_"+strconv.Itoa(i))
		}
		result.Unstable = true
	}
	result.RawOutput = output
	if result.TotalTests() == 0 && res.ExitCode != 0 {
		result.Error = "rspec failed with exit code " + strconv.Itoa(res.ExitCode)
	}
	return result
}

// Minitest is the Minitest Runner.
type Minitest struct{}

func (Minitest) Name() string     { return "minitest" }
func (Minitest) Language() string { return "Ruby" }

func (Minitest) Detect(repoPath string) int {
	if !exists(filepath.Join(repoPath, "Gemfile")) {
		return 0
	}
	score := 0
	testDir := filepath.Join(repoPath, "test")
	if info, err := os.Stat(testDir); err == nil && info.IsDir() {
		if hasGlobRecursive(testDir, "*_test.rb", "test_*.rb") {
			score += 40
		}
		if exists(filepath.Join(testDir, "test_helper.rb")) {
			score += 20
		}
	}
	if content, ok := readFile(filepath.Join(repoPath, "Rakefile")); ok {
		if strings.Contains(strings.ToLower(content), "minitest") || strings.Contains(content, "Rake::TestTask") {
			score += 20
		}
	}
	if content, ok := readFile(filepath.Join(repoPath, "Gemfile")); ok {
		if strings.Contains(strings.ToLower(content), "minitest") {
			score += 30
		}
	}
	if (RSpec{}).Detect(repoPath) > 50 {
		score -= 30
		if score < 0 {
			score = 0
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

func (Minitest) CheckRuntime(ctx context.Context) (bool, string) { return checkRubyRuntime(ctx) }
func (Minitest) RequiredVersion(repoPath string) string          { return requiredRubyVersion(repoPath) }
func (Minitest) CheckVersionCompatible(ctx context.Context, repoPath string) (bool, string) {
	return rubyVersionCompatible(ctx, repoPath)
}
func (Minitest) Install(ctx context.Context, repoPath string, timeoutSeconds int) (bool, string) {
	return installBundlerDeps(ctx, repoPath, timeoutSeconds)
}

var minitestSummaryRe = regexp.MustCompile(`(\d+)\s+runs?,\s+(\d+)\s+assertions?,\s+(\d+)\s+failures?,\s+(\d+)\s+errors?,?\s*(\d+)?\s*skips?`)

func (Minitest) Run(ctx context.Context, repoPath string, timeoutSeconds int) outcome.RunResult {
	res, _ := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil, "bundle", "exec", "rake", "test")
	output := res.Combined

	if res.TimedOut {
		return outcome.RunResult{Error: "minitest timed out", RawOutput: output}
	}

	var result outcome.RunResult
	if m := minitestSummaryRe.FindStringSubmatch(output); m != nil {
		runs, _ := strconv.Atoi(m[1])
		failures, _ := strconv.Atoi(m[3])
		errors, _ := strconv.Atoi(m[4])
		skips := 0
		if m[5] != "" {
			skips, _ = strconv.Atoi(m[5])
		}
		passCount := runs - failures - errors - skips
		for i := 0; i < passCount; i++ {
			result.Passed = append(result.Passed, "test_"+strconv.Itoa(i))
		}
		for i := 0; i < failures+errors; i++ {
			result.Failed = append(result.Failed, "failed_test_"+strconv.Itoa(i))
		}
		for i := 0; i < skips; i++ {
			result.Skipped = append(result.Skipped, "skipped_test_"+strconv.Itoa(i))
		}
		result.Unstable = true
	}
	result.RawOutput = output
	if result.TotalTests() == 0 && res.ExitCode != 0 {
		result.Error = "minitest failed with exit code " + strconv.Itoa(res.ExitCode)
	}
	return result
}
