// Package javascript implements the Jest, Vitest, Mocha and node:test
// Runners, including monorepo project-root discovery and package-manager
// resolution shared across all four.
package javascript

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

func secToDuration(sec int) time.Duration {
	if sec <= 0 {
		sec = 300
	}
	return time.Duration(sec) * time.Second
}

var monorepoDirs = []string{"web", "app", "apps", "packages", "frontend", "client", "src"}

type packageJSON struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	Scripts         map[string]string `json:"scripts"`
	Jest            json.RawMessage   `json:"jest"`
	Mocha           json.RawMessage   `json:"mocha"`
	Engines         struct {
		Node string `json:"node"`
	} `json:"engines"`
}

func readPackageJSON(dir string) (*packageJSON, bool) {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return nil, false
	}
	var pkg packageJSON
	if json.Unmarshal(data, &pkg) != nil {
		return nil, false
	}
	return &pkg, true
}

func allDeps(pkg *packageJSON) map[string]bool {
	out := map[string]bool{}
	for k := range pkg.Dependencies {
		out[k] = true
	}
	for k := range pkg.DevDependencies {
		out[k] = true
	}
	return out
}

func anyDep(deps map[string]bool, names ...string) bool {
	for _, n := range names {
		if deps[n] {
			return true
		}
	}
	return false
}

// findProjectRoot locates the JS project root, checking conventional
// monorepo subdirectories when the repo root has no test-framework deps.
func findProjectRoot(repoPath string) string {
	if pkg, ok := readPackageJSON(repoPath); ok {
		if anyDep(allDeps(pkg), "jest", "vitest", "mocha", "@testing-library/react") {
			return repoPath
		}
	}
	for _, sub := range monorepoDirs {
		subPath := filepath.Join(repoPath, sub)
		if exists(filepath.Join(subPath, "package.json")) {
			return subPath
		}
	}
	entries, err := os.ReadDir(repoPath)
	if err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			subPath := filepath.Join(repoPath, e.Name())
			if pkg, ok := readPackageJSON(subPath); ok {
				if anyDep(allDeps(pkg), "jest", "vitest", "mocha") {
					return subPath
				}
			}
		}
	}
	return repoPath
}

// packageManager is npm/yarn/pnpm/bun, resolved by lock-file precedence.
func packageManager(projectRoot string) string {
	switch {
	case exists(filepath.Join(projectRoot, "pnpm-lock.yaml")):
		return "pnpm"
	case exists(filepath.Join(projectRoot, "yarn.lock")):
		return "yarn"
	case exists(filepath.Join(projectRoot, "bun.lockb")):
		return "bun"
	default:
		return "npm"
	}
}

// pmCommands returns (pm, installCmd, runPrefix).
func pmCommands(projectRoot string) (string, []string, []string) {
	pm := packageManager(projectRoot)
	switch pm {
	case "pnpm":
		return pm, []string{"pnpm", "install"}, []string{"pnpm", "exec"}
	case "yarn":
		return pm, []string{"yarn", "install"}, []string{"yarn"}
	case "bun":
		return pm, []string{"bun", "install"}, []string{"bun"}
	default:
		return pm, []string{"npm", "install", "--legacy-peer-deps"}, []string{"npm", "exec", "--"}
	}
}

var nodeVersionFileRe = regexp.MustCompile(`(\d+)`)
var nodeVersionOutRe = regexp.MustCompile(`v?(\d+)`)

func requiredNodeVersion(projectRoot string) string {
	for _, f := range []string{".nvmrc", ".node-version"} {
		if data, err := os.ReadFile(filepath.Join(projectRoot, f)); err == nil {
			if m := nodeVersionFileRe.FindStringSubmatch(strings.TrimSpace(string(data))); m != nil {
				return m[1]
			}
		}
	}
	if pkg, ok := readPackageJSON(projectRoot); ok && pkg.Engines.Node != "" {
		if m := nodeVersionFileRe.FindStringSubmatch(pkg.Engines.Node); m != nil {
			return m[1]
		}
	}
	return ""
}

func checkNodeRuntime(ctx context.Context) (bool, string) {
	if !procexec.Exists("node") {
		return false, "Node.js not found"
	}
	res, err := procexec.Run(ctx, ".", 10*time.Second, nil, "node", "--version")
	if err != nil {
		return false, err.Error()
	}
	return true, strings.TrimSpace(res.Stdout)
}

func nodeVersionCompatible(ctx context.Context, projectRoot string) (bool, string) {
	required := requiredNodeVersion(projectRoot)
	if required == "" {
		return true, ""
	}
	ok, version := checkNodeRuntime(ctx)
	if !ok {
		return false, "Node.js runtime not installed"
	}
	m := nodeVersionOutRe.FindStringSubmatch(version)
	if m == nil {
		return true, ""
	}
	if !semverx.Compatible(required, m[1], semverx.MajorOrHigher) {
		return false, "Repo requires Node.js " + required + " or higher, but " + version + " is installed"
	}
	return true, ""
}

func installJSDeps(ctx context.Context, projectRoot string, timeoutSeconds int) (bool, string) {
	pm, installCmd, _ := pmCommands(projectRoot)
	res, err := procexec.Run(ctx, projectRoot, secToDuration(timeoutSeconds), nil, installCmd[0], installCmd[1:]...)
	if err != nil {
		return false, err.Error()
	}
	if res.TimedOut {
		return false, pm + " install timed out"
	}
	if res.ExitCode != 0 {
		return false, pm + " install failed: " + res.Stderr
	}
	return true, ""
}

var jestConfigFiles = []string{"jest.config.js", "jest.config.ts", "jest.config.mjs", "jest.config.cjs", "jest.config.json"}

func findJestConfig(projectRoot string) string {
	for _, c := range jestConfigFiles {
		if exists(filepath.Join(projectRoot, c)) {
			return c
		}
	}
	return ""
}

// Jest is the Jest Runner.
type Jest struct{}

func (Jest) Name() string     { return "jest" }
func (Jest) Language() string { return "JavaScript" }

func (Jest) Detect(repoPath string) int {
	projectRoot := repoPath
	if !exists(filepath.Join(repoPath, "package.json")) {
		projectRoot = findProjectRoot(repoPath)
	}
	score := 0
	if findJestConfig(projectRoot) != "" {
		score += 50
	}
	pkg, ok := readPackageJSON(projectRoot)
	if ok {
		deps := allDeps(pkg)
		if anyDep(deps, "jest", "@testing-library/jest-dom") {
			score += 30
		}
		if len(pkg.Jest) > 0 {
			score += 40
		}
		testScript := pkg.Scripts["test"]
		if strings.Contains(testScript, "jest") {
			score += 20
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

func (Jest) hasConfigConflict(projectRoot, jestConfig string) bool {
	pkg, ok := readPackageJSON(projectRoot)
	return ok && len(pkg.Jest) > 0 && jestConfig != ""
}

func (Jest) CheckRuntime(ctx context.Context) (bool, string) { return checkNodeRuntime(ctx) }

func (Jest) RequiredVersion(repoPath string) string {
	projectRoot := repoPath
	if !exists(filepath.Join(repoPath, "package.json")) {
		projectRoot = findProjectRoot(repoPath)
	}
	return requiredNodeVersion(projectRoot)
}

func (r Jest) CheckVersionCompatible(ctx context.Context, repoPath string) (bool, string) {
	projectRoot := repoPath
	if !exists(filepath.Join(repoPath, "package.json")) {
		projectRoot = findProjectRoot(repoPath)
	}
	return nodeVersionCompatible(ctx, projectRoot)
}

func (Jest) Install(ctx context.Context, repoPath string, timeoutSeconds int) (bool, string) {
	projectRoot := repoPath
	if !exists(filepath.Join(repoPath, "package.json")) {
		projectRoot = findProjectRoot(repoPath)
	}
	return installJSDeps(ctx, projectRoot, timeoutSeconds)
}

func (r Jest) Run(ctx context.Context, repoPath string, timeoutSeconds int) outcome.RunResult {
	projectRoot := repoPath
	if !exists(filepath.Join(repoPath, "package.json")) {
		projectRoot = findProjectRoot(repoPath)
	}
	jestConfig := findJestConfig(projectRoot)

	pkg, hasPkg := readPackageJSON(projectRoot)
	var testScript string
	isCRA := false
	if hasPkg {
		testScript = pkg.Scripts["test"]
		isCRA = anyDep(allDeps(pkg), "react-scripts") && strings.Contains(testScript, "react-scripts test")
	}
	pm, _, runCmd := pmCommands(projectRoot)

	jsonPath := filepath.Join(os.TempDir(), "f2p-jest-"+strconv.Itoa(os.Getpid())+".json")
	defer os.Remove(jsonPath)

	var cmd []string
	switch {
	case isCRA:
		cmd = append(append([]string{}, runCmd...), "react-scripts", "test", "--json", "--outputFile="+jsonPath, "--watchAll=false", "--passWithNoTests")
	case testScript != "" && strings.Contains(testScript, "jest"):
		switch pm {
		case "yarn":
			cmd = []string{"yarn", "test", "--", "--json", "--outputFile=" + jsonPath, "--passWithNoTests", "--watchAll=false"}
		case "pnpm":
			cmd = []string{"pnpm", "test", "--", "--json", "--outputFile=" + jsonPath, "--passWithNoTests", "--watchAll=false"}
		default:
			cmd = []string{"npm", "test", "--", "--json", "--outputFile=" + jsonPath, "--passWithNoTests", "--watchAll=false"}
		}
	default:
		cmd = append(append([]string{}, runCmd...), "jest", "--json", "--outputFile="+jsonPath, "--passWithNoTests")
		if r.hasConfigConflict(projectRoot, jestConfig) {
			cmd = append(cmd[:len(cmd)-2], append([]string{"--config=" + jestConfig}, cmd[len(cmd)-2:]...)...)
		}
	}

	res, _ := procexec.Run(ctx, projectRoot, secToDuration(timeoutSeconds), nil, cmd[0], cmd[1:]...)
	output := res.Combined

	if res.TimedOut {
		return outcome.RunResult{Error: "Jest timed out", RawOutput: output}
	}

	if info, err := os.Stat(jsonPath); err == nil && info.Size() > 0 {
		if result, ok := parsers.ParseJestJSON(jsonPath); ok {
			result.RawOutput = output
			return result
		}
	}
	if result, ok := parsers.ParseJestJSONBytes([]byte(res.Stdout)); ok {
		result.RawOutput = output
		return result
	}

	result := outcome.RunResult{RawOutput: output}
	if res.ExitCode != 0 {
		result.Error = "Jest failed with exit code " + strconv.Itoa(res.ExitCode)
	}
	return result
}

var vitestConfigFiles = []string{"vitest.config.ts", "vitest.config.js", "vitest.config.mts", "vitest.config.mjs", "vitest.config.cts", "vitest.config.cjs"}

// Vitest is the Vitest Runner.
type Vitest struct{}

func (Vitest) Name() string     { return "vitest" }
func (Vitest) Language() string { return "JavaScript" }

func (Vitest) Detect(repoPath string) int {
	projectRoot := findProjectRoot(repoPath)
	score := 0
	for _, c := range vitestConfigFiles {
		if exists(filepath.Join(projectRoot, c)) {
			score += 60
			break
		}
	}
	if pkg, ok := readPackageJSON(projectRoot); ok {
		deps := allDeps(pkg)
		if anyDep(deps, "vitest", "@vitejs/plugin-react") {
			score += 40
		}
		if strings.Contains(pkg.Scripts["test"], "vitest") {
			score += 30
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

func (Vitest) CheckRuntime(ctx context.Context) (bool, string) { return checkNodeRuntime(ctx) }
func (Vitest) RequiredVersion(repoPath string) string {
	return requiredNodeVersion(findProjectRoot(repoPath))
}
func (Vitest) CheckVersionCompatible(ctx context.Context, repoPath string) (bool, string) {
	return nodeVersionCompatible(ctx, findProjectRoot(repoPath))
}
func (Vitest) Install(ctx context.Context, repoPath string, timeoutSeconds int) (bool, string) {
	return installJSDeps(ctx, findProjectRoot(repoPath), timeoutSeconds)
}

func (Vitest) Run(ctx context.Context, repoPath string, timeoutSeconds int) outcome.RunResult {
	projectRoot := findProjectRoot(repoPath)
	_, _, runCmd := pmCommands(projectRoot)
	cmd := append(append([]string{}, runCmd...), "vitest", "run", "--reporter=json")

	res, _ := procexec.Run(ctx, projectRoot, secToDuration(timeoutSeconds), nil, cmd[0], cmd[1:]...)
	output := res.Combined

	if res.TimedOut {
		return outcome.RunResult{Error: "Vitest timed out", RawOutput: output}
	}

	if result, ok := parsers.ParseJestJSONBytes([]byte(res.Stdout)); ok {
		result.RawOutput = output
		return result
	}

	result := outcome.RunResult{RawOutput: output}
	if res.ExitCode != 0 {
		result.Error = "Vitest failed with exit code " + strconv.Itoa(res.ExitCode)
	}
	return result
}

var mochaConfigFiles = []string{".mocharc.js", ".mocharc.json", ".mocharc.yml", ".mocharc.yaml", "mocha.opts"}

// Mocha is the Mocha Runner.
type Mocha struct{}

func (Mocha) Name() string     { return "mocha" }
func (Mocha) Language() string { return "JavaScript" }

func (Mocha) Detect(repoPath string) int {
	projectRoot := findProjectRoot(repoPath)
	score := 0
	for _, c := range mochaConfigFiles {
		if exists(filepath.Join(projectRoot, c)) {
			score += 50
			break
		}
	}
	if pkg, ok := readPackageJSON(projectRoot); ok {
		if anyDep(allDeps(pkg), "mocha") {
			score += 40
		}
		if len(pkg.Mocha) > 0 {
			score += 20
		}
		if strings.Contains(pkg.Scripts["test"], "mocha") {
			score += 20
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

func (Mocha) CheckRuntime(ctx context.Context) (bool, string) { return checkNodeRuntime(ctx) }
func (Mocha) RequiredVersion(repoPath string) string {
	return requiredNodeVersion(findProjectRoot(repoPath))
}
func (Mocha) CheckVersionCompatible(ctx context.Context, repoPath string) (bool, string) {
	return nodeVersionCompatible(ctx, findProjectRoot(repoPath))
}
func (Mocha) Install(ctx context.Context, repoPath string, timeoutSeconds int) (bool, string) {
	return installJSDeps(ctx, findProjectRoot(repoPath), timeoutSeconds)
}

func (Mocha) Run(ctx context.Context, repoPath string, timeoutSeconds int) outcome.RunResult {
	projectRoot := findProjectRoot(repoPath)
	_, _, runCmd := pmCommands(projectRoot)

	jsonPath := filepath.Join(os.TempDir(), "f2p-mocha-"+strconv.Itoa(os.Getpid())+".json")
	defer os.Remove(jsonPath)

	cmd := append(append([]string{}, runCmd...), "mocha", "--reporter", "json", "--reporter-option", "output="+jsonPath)
	res, _ := procexec.Run(ctx, projectRoot, secToDuration(timeoutSeconds), nil, cmd[0], cmd[1:]...)
	output := res.Combined

	if res.TimedOut {
		return outcome.RunResult{Error: "Mocha timed out", RawOutput: output}
	}

	if info, err := os.Stat(jsonPath); err == nil && info.Size() > 0 {
		if result, ok := parsers.ParseMochaJSON(jsonPath); ok {
			result.RawOutput = output
			return result
		}
	}
	if result, ok := parsers.ParseMochaJSONBytes([]byte(res.Stdout)); ok {
		result.RawOutput = output
		return result
	}

	result := outcome.RunResult{RawOutput: output}
	if res.ExitCode != 0 {
		result.Error = "Mocha failed with exit code " + strconv.Itoa(res.ExitCode)
	}
	return result
}

// NodeTest is the node --test built-in Runner.
type NodeTest struct{}

func (NodeTest) Name() string     { return "node:test" }
func (NodeTest) Language() string { return "JavaScript" }

func (NodeTest) Detect(repoPath string) int {
	projectRoot := repoPath
	if !exists(filepath.Join(repoPath, "package.json")) {
		projectRoot = findProjectRoot(repoPath)
	}
	pkg, ok := readPackageJSON(projectRoot)
	if !ok {
		return 0
	}
	score := 0
	testScript := pkg.Scripts["test"]
	if strings.Contains(testScript, "node --test") ||
		(strings.Contains(testScript, "node --import") && strings.Contains(testScript, "--test")) {
		score += 60
	}
	deps := allDeps(pkg)
	if deps["tsx"] && strings.Contains(testScript, "--test") {
		score += 20
	}
	if deps["@types/node"] {
		score += 10
	}
	testDir := filepath.Join(projectRoot, "test")
	if info, err := os.Stat(testDir); err == nil && info.IsDir() {
		hasTests := false
		_ = filepath.Walk(testDir, func(p string, fi os.FileInfo, err error) error {
			if err == nil && !fi.IsDir() && (strings.HasSuffix(fi.Name(), ".ts") || strings.HasSuffix(fi.Name(), ".js")) {
				hasTests = true
			}
			return nil
		})
		if hasTests {
			score += 10
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

func (NodeTest) CheckRuntime(ctx context.Context) (bool, string) {
	ok, version := checkNodeRuntime(ctx)
	if !ok {
		return false, version
	}
	if m := nodeVersionOutRe.FindStringSubmatch(version); m != nil {
		if major, _ := strconv.Atoi(m[1]); major < 18 {
			return false, "Node.js 18+ required for --test (found " + version + ")"
		}
	}
	return true, version
}

func (NodeTest) RequiredVersion(repoPath string) string {
	projectRoot := repoPath
	if !exists(filepath.Join(repoPath, "package.json")) {
		projectRoot = findProjectRoot(repoPath)
	}
	return requiredNodeVersion(projectRoot)
}

func (NodeTest) CheckVersionCompatible(ctx context.Context, repoPath string) (bool, string) {
	projectRoot := repoPath
	if !exists(filepath.Join(repoPath, "package.json")) {
		projectRoot = findProjectRoot(repoPath)
	}
	return nodeVersionCompatible(ctx, projectRoot)
}

func (NodeTest) Install(ctx context.Context, repoPath string, timeoutSeconds int) (bool, string) {
	projectRoot := repoPath
	if !exists(filepath.Join(repoPath, "package.json")) {
		projectRoot = findProjectRoot(repoPath)
	}
	return installJSDeps(ctx, projectRoot, timeoutSeconds)
}

func nodeTestPMRunCmd(projectRoot string) []string {
	pm := packageManager(projectRoot)
	switch pm {
	case "pnpm":
		return []string{"pnpm"}
	case "yarn":
		return []string{"yarn"}
	case "bun":
		return []string{"bun"}
	default:
		return []string{"npm"}
	}
}

func (NodeTest) Run(ctx context.Context, repoPath string, timeoutSeconds int) outcome.RunResult {
	projectRoot := repoPath
	if !exists(filepath.Join(repoPath, "package.json")) {
		projectRoot = findProjectRoot(repoPath)
	}
	runCmd := append(nodeTestPMRunCmd(projectRoot), "test")

	res, _ := procexec.Run(ctx, projectRoot, secToDuration(timeoutSeconds), nil, runCmd[0], runCmd[1:]...)
	output := res.Combined

	if res.TimedOut {
		return outcome.RunResult{Error: "node --test timed out", RawOutput: output}
	}

	result, _ := parsers.ParseTAPLike(output)
	result.RawOutput = output
	if res.ExitCode != 0 && result.TotalTests() == 0 {
		result.Error = "node --test failed with exit code " + strconv.Itoa(res.ExitCode)
	}
	return result
}
