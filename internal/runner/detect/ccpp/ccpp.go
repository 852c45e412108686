// Package ccpp implements the CMake/CTest, Make and GoogleTest Runners.
package ccpp

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

func hasExtRecursive(root string, exts ...string) bool {
	found := false
	_ = filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil || found {
			return nil
		}
		if info.IsDir() {
			if info.Name() == "node_modules" || info.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		for _, ext := range exts {
			if strings.HasSuffix(info.Name(), ext) {
				found = true
				return nil
			}
		}
		return nil
	})
	return found
}

// CMake is the CMake/CTest Runner.
type CMake struct{}

func (CMake) Name() string     { return "cmake" }
func (CMake) Language() string { return "C++" }

func (CMake) Detect(repoPath string) int {
	score := 0
	content, hasCMake := readFile(filepath.Join(repoPath, "CMakeLists.txt"))
	if hasCMake {
		score += 60
	}
	if exists(filepath.Join(repoPath, "build", "CMakeCache.txt")) {
		score += 20
	}
	if hasCMake {
		lower := strings.ToLower(content)
		if strings.Contains(lower, "enable_testing") || strings.Contains(lower, "add_test") {
			score += 30
		}
		if strings.Contains(lower, "gtest") || strings.Contains(lower, "googletest") {
			score += 10
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

func (CMake) CheckRuntime(ctx context.Context) (bool, string) {
	if !procexec.Exists("cmake") {
		return false, "CMake not found"
	}
	res, err := procexec.Run(ctx, ".", 10*time.Second, nil, "cmake", "--version")
	if err != nil {
		return false, err.Error()
	}
	return true, strings.SplitN(strings.TrimSpace(res.Stdout), "\n", 2)[0]
}

func (CMake) RequiredVersion(repoPath string) string { return "" }

func (CMake) CheckVersionCompatible(ctx context.Context, repoPath string) (bool, string) {
	return true, ""
}

func (CMake) Install(ctx context.Context, repoPath string, timeoutSeconds int) (bool, string) {
	_ = os.MkdirAll(filepath.Join(repoPath, "build"), 0o755)
	res, err := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil, "cmake", "-B", "build", "-S", ".")
	if err != nil {
		return false, err.Error()
	}
	if res.ExitCode != 0 {
		return false, "cmake configure failed: " + res.Stderr
	}
	res2, err2 := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil, "cmake", "--build", "build")
	if err2 != nil {
		return false, err2.Error()
	}
	if res2.ExitCode != 0 {
		return false, "cmake build failed: " + res2.Stderr
	}
	return true, ""
}

var ctestSummaryRe = regexp.MustCompile(`(\d+)%\s+tests\s+passed,\s+(\d+)\s+tests\s+failed\s+out\s+of\s+(\d+)`)

func (CMake) Run(ctx context.Context, repoPath string, timeoutSeconds int) outcome.RunResult {
	buildDir := filepath.Join(repoPath, "build")
	res, _ := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil,
		"ctest", "--test-dir", buildDir, "--output-on-failure", "-V")
	output := res.Combined

	if res.TimedOut {
		return outcome.RunResult{Error: "ctest timed out", RawOutput: output}
	}

	var xmlFiles []string
	_ = filepath.Walk(filepath.Join(buildDir, "Testing"), func(p string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() && strings.HasSuffix(p, ".xml") {
			xmlFiles = append(xmlFiles, p)
		}
		return nil
	})
	for _, xf := range xmlFiles {
		if result, ok := parsers.ParseJUnitXML(xf); ok && result.TotalTests() > 0 {
			result.RawOutput = output
			return result
		}
	}

	result, ok := parsers.ParseCTestVerboseText(output)
	if !ok || result.TotalTests() == 0 {
		if m := ctestSummaryRe.FindStringSubmatch(output); m != nil {
			total, _ := strconv.Atoi(m[3])
			failures, _ := strconv.Atoi(m[2])
			var synth outcome.RunResult
			for i := 0; i < total-failures; i++ {
				synth.Passed = append(synth.Passed, "test_"+strconv.Itoa(i))
			}
			for i := 0; i < failures; i++ {
				synth.Failed = append(synth.Failed, "failed_test_"+strconv.Itoa(i))
			}
			synth.Unstable = true
			result = synth
		}
	}
	result.RawOutput = output
	if result.TotalTests() == 0 {
		if strings.Contains(strings.ToLower(output), "no tests were found") {
			result.Error = "No tests found"
		} else if res.ExitCode != 0 {
			result.Error = "ctest failed with exit code " + strconv.Itoa(res.ExitCode)
		}
	}
	return result
}

// Make is the Make-based Runner, used when no CMake setup is present.
type Make struct{}

func (Make) Name() string     { return "make" }
func (Make) Language() string { return "C++" }

var makeNonCMarkers = []string{
	"package.json", "pyproject.toml", "setup.py", "requirements.txt",
	"Gemfile", "Cargo.toml", "go.mod", "pom.xml", "build.gradle",
}

var makeTestTargetRe = regexp.MustCompile(`(?m)^test\s*:`)
var makeCheckTargetRe = regexp.MustCompile(`(?m)^check\s*:`)

func (Make) Detect(repoPath string) int {
	for _, marker := range makeNonCMarkers {
		if exists(filepath.Join(repoPath, marker)) {
			return 0
		}
	}
	if !hasExtRecursive(repoPath, ".c", ".cpp", ".cc") && !hasExtRecursive(repoPath, ".h", ".hpp") {
		return 0
	}
	score := 0
	if content, ok := readFile(filepath.Join(repoPath, "Makefile")); ok {
		score += 40
		if makeTestTargetRe.MatchString(content) {
			score += 40
		}
		if makeCheckTargetRe.MatchString(content) {
			score += 30
		}
	}
	if (CMake{}).Detect(repoPath) > 50 {
		score -= 40
		if score < 0 {
			score = 0
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

func (Make) CheckRuntime(ctx context.Context) (bool, string) {
	if !procexec.Exists("make") {
		return false, "Make not found"
	}
	res, err := procexec.Run(ctx, ".", 10*time.Second, nil, "make", "--version")
	if err != nil {
		return false, err.Error()
	}
	return true, strings.SplitN(strings.TrimSpace(res.Stdout), "\n", 2)[0]
}

func (Make) RequiredVersion(repoPath string) string { return "" }

func (Make) CheckVersionCompatible(ctx context.Context, repoPath string) (bool, string) {
	return true, ""
}

func (Make) Install(ctx context.Context, repoPath string, timeoutSeconds int) (bool, string) {
	if exists(filepath.Join(repoPath, "configure")) {
		res, err := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil, "./configure")
		if err != nil {
			return false, err.Error()
		}
		if res.ExitCode != 0 {
			return false, "configure failed: " + res.Stderr
		}
	}
	res, err := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil, "make")
	if err != nil {
		return false, err.Error()
	}
	if res.ExitCode != 0 {
		return false, "make failed: " + res.Stderr
	}
	return true, ""
}

var makePassRe = regexp.MustCompile(`(?i)(?:PASS|ok|passed):\s*(\S+)`)
var makeFailRe = regexp.MustCompile(`(?i)(?:FAIL|failed|error):\s*(\S+)`)

func (Make) Run(ctx context.Context, repoPath string, timeoutSeconds int) outcome.RunResult {
	var lastOutput string
	var lastExit int
	for _, target := range []string{"test", "check"} {
		res, _ := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil, "make", target)
		output := res.Combined
		lastOutput = output
		lastExit = res.ExitCode
		if res.TimedOut {
			return outcome.RunResult{Error: "make timed out", RawOutput: output}
		}
		if res.ExitCode == 0 || strings.Contains(strings.ToLower(output), "test") {
			result := parseMakeOutput(output, res.ExitCode)
			if result.TotalTests() > 0 || res.ExitCode == 0 {
				return result
			}
		}
	}
	return outcome.RunResult{Error: "No test target found in Makefile", RawOutput: lastOutput + " exit=" + strconv.Itoa(lastExit)}
}

func parseMakeOutput(output string, returncode int) outcome.RunResult {
	var res outcome.RunResult
	for _, m := range makePassRe.FindAllStringSubmatch(output, -1) {
		res.Passed = append(res.Passed, m[1])
	}
	for _, m := range makeFailRe.FindAllStringSubmatch(output, -1) {
		res.Failed = append(res.Failed, m[1])
	}
	res.RawOutput = output
	if res.TotalTests() == 0 && returncode != 0 {
		res.Error = "make test failed with exit code " + strconv.Itoa(returncode)
	}
	return res
}

// GoogleTest is the GoogleTest Runner, delegating build/run to CMake.
type GoogleTest struct{}

func (GoogleTest) Name() string     { return "gtest" }
func (GoogleTest) Language() string { return "C++" }

func (GoogleTest) Detect(repoPath string) int {
	score := 0
	if content, ok := readFile(filepath.Join(repoPath, "CMakeLists.txt")); ok {
		lower := strings.ToLower(content)
		if strings.Contains(lower, "gtest") || strings.Contains(lower, "googletest") {
			score += 60
		}
		if strings.Contains(content, "gtest_discover_tests") || strings.Contains(content, "gtest_add_tests") {
			score += 30
		}
	}
	if exists(filepath.Join(repoPath, "googletest")) || exists(filepath.Join(repoPath, "third_party", "googletest")) {
		score += 20
	}
	found := false
	_ = filepath.Walk(repoPath, func(p string, info os.FileInfo, err error) error {
		if err != nil || found || info.IsDir() {
			return nil
		}
		if !strings.Contains(info.Name(), "test") || !strings.HasSuffix(info.Name(), ".cpp") {
			return nil
		}
		if content, ok := readFile(p); ok {
			if strings.Contains(content, "gtest/gtest.h") || strings.Contains(content, "TEST(") || strings.Contains(content, "TEST_F(") {
				found = true
			}
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

func (GoogleTest) CheckRuntime(ctx context.Context) (bool, string) { return (CMake{}).CheckRuntime(ctx) }
func (GoogleTest) RequiredVersion(repoPath string) string          { return "" }
func (GoogleTest) CheckVersionCompatible(ctx context.Context, repoPath string) (bool, string) {
	return true, ""
}
func (GoogleTest) Install(ctx context.Context, repoPath string, timeoutSeconds int) (bool, string) {
	return (CMake{}).Install(ctx, repoPath, timeoutSeconds)
}
func (GoogleTest) Run(ctx context.Context, repoPath string, timeoutSeconds int) outcome.RunResult {
	return (CMake{}).Run(ctx, repoPath, timeoutSeconds)
}
