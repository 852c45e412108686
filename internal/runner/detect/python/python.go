// Package python implements the pytest and unittest Runners.
package python

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

func readFile(path string) (string, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(b), true
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// pythonExecutable is the interpreter this process would shell out to;
// grounded on the original's sys.executable usage, approximated here
// via PATH lookup since Go has no equivalent of "the interpreter
// running this script".
func pythonExecutable() string {
	for _, c := range []string{"python3", "python"} {
		if procexec.Exists(c) {
			return c
		}
	}
	return "python3"
}

// Pytest is the pytest Runner.
type Pytest struct{}

func (Pytest) Name() string     { return "pytest" }
func (Pytest) Language() string { return "Python" }

func (Pytest) Detect(repoPath string) int {
	score := 0
	if exists(filepath.Join(repoPath, "pytest.ini")) {
		score += 50
	}
	if exists(filepath.Join(repoPath, "conftest.py")) {
		score += 30
	}
	if content, ok := readFile(filepath.Join(repoPath, "pyproject.toml")); ok {
		switch {
		case strings.Contains(content, "[tool.pytest"):
			score += 50
		case strings.Contains(content, "pytest"):
			score += 30
		}
	}
	if content, ok := readFile(filepath.Join(repoPath, "setup.cfg")); ok {
		if strings.Contains(content, "[tool:pytest]") {
			score += 50
		}
	}
	for _, req := range []string{"requirements.txt", "requirements-dev.txt", "requirements-test.txt"} {
		if content, ok := readFile(filepath.Join(repoPath, req)); ok {
			if strings.Contains(strings.ToLower(content), "pytest") {
				score += 20
			}
		}
	}
	for _, dir := range []string{"tests", "test", "t"} {
		testPath := filepath.Join(repoPath, dir)
		info, err := os.Stat(testPath)
		if err != nil || !info.IsDir() {
			continue
		}
		if hasGlob(testPath, "test_*.py") || hasGlob(testPath, "*_test.py") {
			score += 10
		}
		if exists(filepath.Join(testPath, "conftest.py")) {
			score += 20
		}
		if hasRecursiveFile(testPath, "conftest.py") {
			score += 10
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

func hasGlob(dir, pattern string) bool {
	matches, _ := filepath.Glob(filepath.Join(dir, pattern))
	if len(matches) > 0 {
		return true
	}
	found := false
	_ = filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil || found {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(pattern, info.Name()); ok {
			found = true
		}
		return nil
	})
	return found
}

func hasRecursiveFile(dir, name string) bool {
	found := false
	_ = filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil || found {
			return nil
		}
		if !info.IsDir() && info.Name() == name {
			found = true
		}
		return nil
	})
	return found
}

func (Pytest) CheckRuntime(ctx context.Context) (bool, string) {
	return checkPythonRuntime(ctx)
}

func checkPythonRuntime(ctx context.Context) (bool, string) {
	py := pythonExecutable()
	if !procexec.Exists(py) {
		return false, "Python not found"
	}
	res, err := procexec.Run(ctx, ".", 10_000_000_000, nil, py, "--version")
	if err != nil {
		return false, err.Error()
	}
	out := strings.TrimSpace(res.Stdout + res.Stderr)
	return true, out
}

var pyVersionRe = regexp.MustCompile(`(\d+)\.(\d+)`)

func (Pytest) RequiredVersion(repoPath string) string {
	return requiredPythonVersion(repoPath)
}

func requiredPythonVersion(repoPath string) string {
	for _, df := range []string{"Dockerfile", "Dockerfile.local", "docker/Dockerfile"} {
		if content, ok := readFile(filepath.Join(repoPath, df)); ok {
			re := regexp.MustCompile(`(?i)FROM\s+python:(\d+\.\d+)`)
			if m := re.FindStringSubmatch(content); m != nil {
				return m[1]
			}
		}
	}
	if content, ok := readFile(filepath.Join(repoPath, "pyproject.toml")); ok {
		re1 := regexp.MustCompile(`requires-python\s*=\s*["']>=?(\d+\.\d+)`)
		if m := re1.FindStringSubmatch(content); m != nil {
			return m[1]
		}
		re2 := regexp.MustCompile(`python_requires\s*=\s*["']>=?(\d+\.\d+)`)
		if m := re2.FindStringSubmatch(content); m != nil {
			return m[1]
		}
	}
	if content, ok := readFile(filepath.Join(repoPath, "setup.py")); ok {
		re := regexp.MustCompile(`python_requires\s*=\s*["']>=?(\d+\.\d+)`)
		if m := re.FindStringSubmatch(content); m != nil {
			return m[1]
		}
	}
	if content, ok := readFile(filepath.Join(repoPath, "setup.cfg")); ok {
		re := regexp.MustCompile(`python_requires\s*=\s*>=?(\d+\.\d+)`)
		if m := re.FindStringSubmatch(content); m != nil {
			return m[1]
		}
	}
	return ""
}

func currentPythonVersion(ctx context.Context) string {
	ok, version := checkPythonRuntime(ctx)
	if !ok {
		return ""
	}
	if m := pyVersionRe.FindStringSubmatch(version); m != nil {
		return m[1] + "." + m[2]
	}
	return ""
}

func (r Pytest) CheckVersionCompatible(ctx context.Context, repoPath string) (bool, string) {
	return checkPythonVersionCompatible(ctx, repoPath, "Python")
}

func checkPythonVersionCompatible(ctx context.Context, repoPath, language string) (bool, string) {
	required := requiredPythonVersion(repoPath)
	if required == "" {
		return true, ""
	}
	current := currentPythonVersion(ctx)
	if current == "" {
		return false, language + " runtime not installed"
	}
	if !semverx.Compatible(required, current, semverx.MinorMatch) {
		return false, "Repo requires " + language + " " + required + ", but " + current + " is installed"
	}
	return true, ""
}

func (Pytest) Install(ctx context.Context, repoPath string, timeoutSeconds int) (bool, string) {
	py := pythonExecutable()
	var methods [][]string
	if exists(filepath.Join(repoPath, "pyproject.toml")) || exists(filepath.Join(repoPath, "setup.py")) {
		methods = append(methods, []string{py, "-m", "pip", "install", "-e", ".[dev,test]"})
		methods = append(methods, []string{py, "-m", "pip", "install", "-e", "."})
	}
	for _, req := range []string{"requirements-dev.txt", "requirements-test.txt", "requirements.txt"} {
		if exists(filepath.Join(repoPath, req)) {
			methods = append(methods, []string{py, "-m", "pip", "install", "-r", req})
		}
	}
	methods = append(methods, []string{py, "-m", "pip", "install", "pytest"})

	var errs []string
	for _, cmd := range methods {
		res, err := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil, cmd[0], cmd[1:]...)
		if err != nil {
			errs = append(errs, strings.Join(cmd, " ")+": "+err.Error())
			continue
		}
		if res.TimedOut {
			errs = append(errs, strings.Join(cmd, " ")+": timeout")
			continue
		}
		if res.ExitCode != 0 {
			errs = append(errs, strings.Join(cmd, " ")+": "+res.Stderr)
		}
	}

	res, err := procexec.Run(ctx, repoPath, 30_000_000_000, nil, py, "-m", "pytest", "--version")
	if err == nil && !res.TimedOut && res.ExitCode == 0 {
		return true, ""
	}
	return false, strings.Join(errs, "; ")
}

func (Pytest) Run(ctx context.Context, repoPath string, timeoutSeconds int) outcome.RunResult {
	py := pythonExecutable()
	xmlPath := filepath.Join(os.TempDir(), "f2p-pytest-"+randSuffix()+".xml")
	defer os.Remove(xmlPath)

	cmd := []string{py, "-m", "pytest", "-v", "--tb=short", "--junitxml=" + xmlPath, "--continue-on-collection-errors"}
	res, _ := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil, cmd[0], cmd[1:]...)
	output := res.Combined

	if res.TimedOut {
		return outcome.RunResult{Error: "pytest timed out", RawOutput: output}
	}

	result, ok := parsers.Chain(
		func() (outcome.RunResult, bool) {
			if info, err := os.Stat(xmlPath); err == nil && info.Size() > 0 {
				return parsers.ParseJUnitXML(xmlPath)
			}
			return outcome.RunResult{}, false
		},
		func() (outcome.RunResult, bool) { return parsers.ParsePytestVerboseText(output) },
	)
	if !ok {
		lower := strings.ToLower(output)
		if strings.Contains(lower, "no tests ran") || strings.Contains(lower, "collected 0 items") {
			return outcome.RunResult{Error: "No tests found", RawOutput: output}
		}
		if res.ExitCode != 0 {
			return outcome.RunResult{Error: "pytest failed with exit code " + strconv.Itoa(res.ExitCode), RawOutput: output}
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

var randCounter int64

func randSuffix() string {
	randCounter++
	return strconv.FormatInt(randCounter, 10)
}

// Unittest is the Python unittest Runner (no pytest involved).
type Unittest struct{}

func (Unittest) Name() string     { return "unittest" }
func (Unittest) Language() string { return "Python" }

func (Unittest) Detect(repoPath string) int {
	score := 0
	hasTestFiles := false
	for _, dir := range []string{"tests", "test"} {
		testPath := filepath.Join(repoPath, dir)
		info, err := os.Stat(testPath)
		if err != nil || !info.IsDir() {
			continue
		}
		_ = filepath.Walk(testPath, func(p string, fi os.FileInfo, err error) error {
			if err != nil || fi.IsDir() {
				return nil
			}
			if ok, _ := filepath.Match("test_*.py", fi.Name()); !ok {
				return nil
			}
			hasTestFiles = true
			if content, ok := readFile(p); ok {
				if strings.Contains(content, "import unittest") || strings.Contains(content, "from unittest") {
					score += 30
				}
				if strings.Contains(content, "TestCase") {
					score += 20
				}
			}
			return nil
		})
	}
	if hasTestFiles {
		score += 20
	}
	if (Pytest{}).Detect(repoPath) > 50 {
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

func (Unittest) CheckRuntime(ctx context.Context) (bool, string) { return checkPythonRuntime(ctx) }

func (Unittest) RequiredVersion(repoPath string) string { return requiredPythonVersion(repoPath) }

func (r Unittest) CheckVersionCompatible(ctx context.Context, repoPath string) (bool, string) {
	return checkPythonVersionCompatible(ctx, repoPath, "Python")
}

func (Unittest) Install(ctx context.Context, repoPath string, timeoutSeconds int) (bool, string) {
	py := pythonExecutable()
	var methods [][]string
	if exists(filepath.Join(repoPath, "pyproject.toml")) {
		methods = append(methods, []string{py, "-m", "pip", "install", "-e", "."})
	}
	if exists(filepath.Join(repoPath, "setup.py")) {
		methods = append(methods, []string{py, "-m", "pip", "install", "-e", "."})
	}
	for _, req := range []string{"requirements.txt", "requirements-dev.txt"} {
		if exists(filepath.Join(repoPath, req)) {
			methods = append(methods, []string{py, "-m", "pip", "install", "-r", req})
		}
	}
	if len(methods) == 0 {
		return true, ""
	}
	var errs []string
	for _, cmd := range methods {
		res, err := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil, cmd[0], cmd[1:]...)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		if res.ExitCode != 0 {
			errs = append(errs, strings.Join(cmd, " ")+": "+res.Stderr)
		}
	}
	return len(errs) == 0, strings.Join(errs, "; ")
}

func (Unittest) Run(ctx context.Context, repoPath string, timeoutSeconds int) outcome.RunResult {
	py := pythonExecutable()
	res, _ := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil, py, "-m", "unittest", "discover", "-v")
	output := res.Combined
	if res.TimedOut {
		return outcome.RunResult{Error: "unittest timed out", RawOutput: output}
	}
	result, _ := parsers.ParseUnittestVerboseText(output)
	if result.TotalTests() == 0 && res.ExitCode != 0 {
		result.Error = "unittest failed with exit code " + strconv.Itoa(res.ExitCode)
	}
	result.RawOutput = output
	return result
}
