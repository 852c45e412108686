// Package orchestrator drives the three-stage base/before/after test
// run across every package a PR touches, aggregates the per-package
// results, and hands them to the classifier and validator.
package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/orizon-lang/f2p-analyzer/internal/analysiserr"
	"github.com/orizon-lang/f2p-analyzer/internal/analysislog"
	"github.com/orizon-lang/f2p-analyzer/internal/classifier"
	"github.com/orizon-lang/f2p-analyzer/internal/config"
	"github.com/orizon-lang/f2p-analyzer/internal/langconfig"
	"github.com/orizon-lang/f2p-analyzer/internal/outcome"
	"github.com/orizon-lang/f2p-analyzer/internal/registry"
	"github.com/orizon-lang/f2p-analyzer/internal/report"
	"github.com/orizon-lang/f2p-analyzer/internal/runner"
	"github.com/orizon-lang/f2p-analyzer/internal/vcs"
)

// supportedLanguages is surfaced in NO_TEST_RUNNER diagnostics.
const supportedLanguages = "JavaScript/TypeScript, Python, Go, Rust, Ruby, Java, .NET, C/C++, Scala"

// Analyzer is the F2P/P2P three-stage orchestrator for one repository.
type Analyzer struct {
	RepoPath      string
	Config        config.Config
	LanguageHint  string
	InstallTimout int
	TestTimeout   int
	Log           *analysislog.Logger

	// Retries, when > 0, re-runs each tested package's after stage this
	// many extra times and reports a flaky_after_stage diagnostic when
	// an attempt's outcome disagrees with the first. This never changes
	// classification; it only adds a warning.
	Retries int
}

// New constructs an Analyzer over repoPath.
func New(repoPath string, cfg config.Config, languageHint string, log *analysislog.Logger) *Analyzer {
	if log == nil {
		log = analysislog.Nop()
	}
	return &Analyzer{
		RepoPath:      repoPath,
		Config:        cfg,
		LanguageHint:  languageHint,
		InstallTimout: int(cfg.Timeouts.Install.Seconds()),
		TestTimeout:   int(cfg.Timeouts.Test.Seconds()),
		Log:           log,
	}
}

// Analyze runs the full three-stage analysis for one PR.
func (a *Analyzer) Analyze(ctx context.Context, prNumber int, prTitle, baseSHA, headSHA string, prFiles []string) *report.AnalysisResult {
	result := &report.AnalysisResult{
		PRNumber: prNumber,
		PRTitle:  prTitle,
		BaseSHA:  baseSHA,
		HeadSHA:  headSHA,
	}

	g := vcs.New(a.RepoPath, a.Config.Timeouts)
	g.ResetToDefaultBranch(ctx)

	changedFiles := prFiles
	if len(changedFiles) == 0 {
		changedFiles = g.ChangedFiles(ctx, baseSHA, headSHA)
	}
	if len(changedFiles) == 0 {
		setErr(result, analysiserr.NoChangedFiles())
		return result
	}

	testFiles := a.filterTestFiles(changedFiles)
	if len(testFiles) == 0 {
		setErr(result, analysiserr.NoTestFiles())
		return result
	}

	newTestFiles := g.NewFiles(ctx, baseSHA, headSHA, testFiles)
	hasNewTestFile := len(newTestFiles) > 0
	result.HasNewTestFile = hasNewTestFile

	affectedPackages := a.getAffectedPackages(testFiles)
	if len(affectedPackages) == 0 {
		affectedPackages = []string{a.RepoPath}
	}

	a.Log.Info("Affected packages: %v", relNames(affectedPackages, a.RepoPath))
	a.Log.Info("Found %d changed test files (%d new)", len(testFiles), len(newTestFiles))

	allTestsBase := outcome.Map{}
	allTestsBefore := outcome.Map{}
	allTestsAfter := outcome.Map{}
	var errs []string
	var flakyWarnings []string
	packagesTested := 0
	var packagesNoRunner []string
	var firstPkgLanguage string

	for _, pkgPath := range affectedPackages {
		pkgName := relName(pkgPath, a.RepoPath)
		a.Log.Info("Testing package: %s", pkgName)

		r := registry.GetRunner(pkgPath, a.LanguageHint, a.Config, a.Log)
		if r == nil {
			a.Log.Debug("No test runner for %s, skipping", pkgName)
			packagesNoRunner = append(packagesNoRunner, pkgName)
			continue
		}

		runtimeOK, runtimeMsg := r.CheckRuntime(ctx)
		if !runtimeOK {
			hint := a.Config.InstallHints[r.Name()]
			if hint == "" {
				hint = "Please install " + r.Language() + " runtime"
			}
			a.Log.Warn("%s runtime not available. %s", r.Name(), hint)
			e := analysiserr.MissingRuntime(r.Language(), runtimeMsg)
			errs = append(errs, pkgName+": "+e.Message)
			continue
		}

		versionOK, versionMsg := r.CheckVersionCompatible(ctx, pkgPath)
		if !versionOK {
			a.Log.Warn("%s", versionMsg)
			setErr(result, analysiserr.New(analysiserr.CategoryEnvironment, "RUNTIME_VERSION_MISMATCH", versionMsg,
				map[string]interface{}{"language": r.Language(), "required": r.RequiredVersion(pkgPath)}))
			return result
		}

		if firstPkgLanguage == "" {
			firstPkgLanguage = r.Language()
		}

		a.Log.Info("  Using runner: %s", r.Name())
		var pkgTestFiles []string
		for _, f := range testFiles {
			if pkgPath == a.RepoPath || strings.HasPrefix(f, pkgName+"/") {
				pkgTestFiles = append(pkgTestFiles, f)
			}
		}
		prefix := ""
		if pkgPath != a.RepoPath {
			prefix = "[" + pkgName + "] "
		}

		a.Log.Info("  [1/3] Checking out base (pristine): %s", short(baseSHA))
		baseResult := a.runAtCommit(ctx, g, baseSHA, "base", r, pkgPath, nil, "")
		if baseResult.Error != "" && containsCheckout(baseResult.Error) {
			errs = append(errs, pkgName+" base: "+baseResult.Error)
			continue
		}

		a.Log.Info("  [2/3] Applying test files from head to base")
		beforeResult := a.runAtCommit(ctx, g, baseSHA, "before", r, pkgPath, pkgTestFiles, headSHA)
		if beforeResult.Error != "" && containsCheckout(beforeResult.Error) {
			errs = append(errs, pkgName+" before: "+beforeResult.Error)
			continue
		}

		a.Log.Info("  [3/3] Checking out head: %s", short(headSHA))
		afterResult := a.runAtCommit(ctx, g, headSHA, "after", r, pkgPath, nil, "")
		if afterResult.Error != "" && containsCheckout(afterResult.Error) {
			errs = append(errs, pkgName+" after: "+afterResult.Error)
			continue
		}

		packagesTested++

		if baseResult.Unstable || beforeResult.Unstable || afterResult.Unstable {
			// No structured per-test identifiers were available for at
			// least one stage; a bare pass/fail count can't be merged
			// into the cross-stage status maps without corrupting the
			// classification, so this package's contribution is dropped
			// entirely rather than guessed at.
			errs = append(errs, pkgName+": unstable test identifiers (summary counts only), dropped from classification")
		} else {
			mergeStage(allTestsBase, baseResult, prefix)
			mergeStage(allTestsBefore, beforeResult, prefix)
			mergeStage(allTestsAfter, afterResult, prefix)

			if a.Retries > 0 && afterResult.Error == "" {
				flakyWarnings = append(flakyWarnings, a.checkFlaky(ctx, r, pkgPath, pkgName, afterResult)...)
			}
		}

		if baseResult.Error != "" && beforeResult.Error != "" && afterResult.Error != "" {
			errs = append(errs, pkgName+": Tests failed at all commits")
		}
	}

	if packagesTested == 0 {
		switch {
		case len(packagesNoRunner) > 0:
			e := analysiserr.NoTestRunner(packagesNoRunner)
			e.Message += ". Supported: " + supportedLanguages
			setErr(result, e)
		case len(errs) > 0:
			setErr(result, analysiserr.New(analysiserr.CategoryTransient, "BUILD_FAILED", strings.Join(errs, "; "), nil))
		default:
			setErr(result, analysiserr.New(analysiserr.CategoryConfiguration, "NO_TEST_RUNNER",
				"no test runner detected. Supported languages: "+supportedLanguages, nil))
		}
		return result
	}

	if len(allTestsAfter) == 0 && len(errs) > 0 {
		setErr(result, analysiserr.New(analysiserr.CategoryTransient, "BUILD_FAILED", strings.Join(errs, "; "), nil))
		return result
	}

	result.TestsBase = report.FromStageMap(allTestsBase)
	result.TestsBefore = report.FromStageMap(allTestsBefore)
	result.TestsAfter = report.FromStageMap(allTestsAfter)

	rep := classifier.Classify(allTestsBase, allTestsBefore, allTestsAfter, hasNewTestFile)
	result.F2PTests = sortCopy(rep.FailToPass)
	result.P2PTests = sortCopy(rep.PassToPass)
	result.F2FTests = sortCopy(rep.FailToFail)
	result.P2FTests = sortCopy(rep.PassToFail)
	result.TestFileCount = len(testFiles)
	result.ChangedFileCount = len(changedFiles)
	result.FlakyWarnings = flakyWarnings

	rejection := classifier.Validate(
		result.F2PTests, result.P2PTests,
		allTestsBase, allTestsBefore, allTestsAfter,
		firstPkgLanguage, a.Config.UnstablePatterns,
	)

	if rejection != "" {
		result.RejectionReason = rejection
		result.Success = false
		a.Log.Info("PR #%d rejected: %s", prNumber, rejection)
	} else {
		result.Success = true
		a.Log.Info("Analysis complete for PR #%d", prNumber)
	}

	a.Log.Info("  F2P tests: %d", len(result.F2PTests))
	a.Log.Info("  P2P tests: %d", len(result.P2PTests))
	a.Log.Info("  Verdict: %s", result.Verdict())

	return result
}

// runAtCommit checks out sha, optionally overlays applyTestFiles from
// headSHA, installs dependencies, and runs the suite. Errors are
// prefixed the same way across stages so callers can recognize a
// checkout failure and abandon the package.
func (a *Analyzer) runAtCommit(ctx context.Context, g *vcs.Git, sha, label string, r runner.Runner, pkgPath string, applyTestFiles []string, headSHA string) outcome.RunResult {
	if err := g.CheckoutSHA(ctx, sha); err != nil {
		return outcome.RunResult{Error: "Checkout failed: " + err.Error()}
	}

	if len(applyTestFiles) > 0 && headSHA != "" {
		g.ApplyTestFilesFromHead(ctx, applyTestFiles, headSHA)
	}

	a.Log.Info("Installing dependencies at %s (%s) in %s...", label, short(sha), pkgPath)
	installOK, installMsg := r.Install(ctx, pkgPath, a.InstallTimout)
	if !installOK {
		a.Log.Warn("Install failed: %s", installMsg)
		return outcome.RunResult{Error: "Install failed: " + installMsg}
	}

	a.Log.Info("Running tests at %s (%s) in %s...", label, short(sha), pkgPath)
	result := r.Run(ctx, pkgPath, a.TestTimeout)
	a.Log.Info("    %s: %d passed, %d failed, %d skipped", label, len(result.Passed), len(result.Failed), len(result.Skipped))
	return result
}

// checkFlaky re-runs the after stage a.Retries extra times and reports
// a flaky_after_stage warning for each attempt whose pass/fail map
// disagrees with the first after-stage run. It never mutates
// classification, only collects diagnostics.
func (a *Analyzer) checkFlaky(ctx context.Context, r runner.Runner, pkgPath, pkgName string, first outcome.RunResult) []string {
	var warnings []string
	firstMap := first.ToMap()
	for attempt := 1; attempt <= a.Retries; attempt++ {
		a.Log.Info("  Re-running after stage for flakiness check (attempt %d/%d) in %s...", attempt, a.Retries, pkgName)
		retry := r.Run(ctx, pkgPath, a.TestTimeout)
		if !mapsEqual(firstMap, retry.ToMap()) {
			warnings = append(warnings, "flaky_after_stage: "+pkgName+" disagreed on attempt "+itoa(attempt))
		}
	}
	return warnings
}

func mapsEqual(a, b outcome.Map) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func (a *Analyzer) filterTestFiles(changedFiles []string) []string {
	cfg, hasCfg := langconfig.Get(a.LanguageHint)
	var out []string
	for _, f := range changedFiles {
		if hasCfg {
			if langconfig.IsTestFilePath(f, cfg) {
				out = append(out, f)
			}
		} else if langconfig.IsTestFilePathFallback(f) {
			out = append(out, f)
		}
	}
	return out
}

func (a *Analyzer) isProjectDir(path string) bool {
	for _, marker := range a.Config.ProjectMarkers {
		if _, err := os.Stat(filepath.Join(path, marker)); err == nil {
			return true
		}
	}
	return false
}

func (a *Analyzer) extractPackageFromPath(filePath string) (string, bool) {
	parts := strings.SplitN(filePath, "/", 2)
	if len(parts) < 2 {
		return "", false
	}
	candidate := filepath.Join(a.RepoPath, parts[0])
	info, err := os.Stat(candidate)
	if err != nil || !info.IsDir() {
		return "", false
	}
	if !a.isProjectDir(candidate) {
		return "", false
	}
	return candidate, true
}

func (a *Analyzer) getAffectedPackages(testFiles []string) []string {
	seen := map[string]struct{}{}
	var packages []string
	for _, f := range testFiles {
		if pkg, ok := a.extractPackageFromPath(f); ok {
			if _, dup := seen[pkg]; !dup {
				seen[pkg] = struct{}{}
				packages = append(packages, pkg)
			}
		}
	}
	if len(packages) == 0 {
		if a.isProjectDir(a.RepoPath) {
			return []string{a.RepoPath}
		}
		entries, err := os.ReadDir(a.RepoPath)
		if err == nil {
			for _, e := range entries {
				if !e.IsDir() {
					continue
				}
				sub := filepath.Join(a.RepoPath, e.Name())
				if a.isProjectDir(sub) {
					packages = append(packages, sub)
				}
			}
		}
	}
	sort.Strings(packages)
	return packages
}

// setErr applies a categorized analysiserr.AnalysisError to result's
// plain Error/ErrorCode fields, which is all AnalysisResult exposes
// over the wire (matching the original's plain-string error model).
func setErr(result *report.AnalysisResult, e *analysiserr.AnalysisError) {
	result.Error = e.Message
	result.ErrorCode = e.Code
}

func mergeStage(dst outcome.Map, r outcome.RunResult, prefix string) {
	for _, t := range r.Passed {
		dst[prefix+t] = outcome.Passed
	}
	for _, t := range r.Failed {
		dst[prefix+t] = outcome.Failed
	}
}

func containsCheckout(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "checkout")
}

func relName(path, repoPath string) string {
	if path == repoPath {
		return "."
	}
	rel, err := filepath.Rel(repoPath, path)
	if err != nil {
		return path
	}
	return rel
}

func relNames(paths []string, repoPath string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = relName(p, repoPath)
	}
	return out
}

func short(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

func sortCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
