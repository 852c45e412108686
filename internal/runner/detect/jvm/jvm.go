// Package jvm implements the Maven, Gradle and sbt Runners.
package jvm

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

var pomVersionRe1 = regexp.MustCompile(`<maven\.compiler\.source>(\d+)</maven\.compiler\.source>`)
var pomVersionRe2 = regexp.MustCompile(`<java\.version>(\d+)</java\.version>`)
var gradleVersionRe1 = regexp.MustCompile(`sourceCompatibility\s*=\s*["']?(\d+)`)
var gradleVersionRe2 = regexp.MustCompile(`JavaVersion\.VERSION_(\d+)`)
var javaVersionOutRe = regexp.MustCompile(`version\s*"?(\d+)`)

func requiredJavaVersion(repoPath string) string {
	if content, ok := readFile(filepath.Join(repoPath, "pom.xml")); ok {
		if m := pomVersionRe1.FindStringSubmatch(content); m != nil {
			return m[1]
		}
		if m := pomVersionRe2.FindStringSubmatch(content); m != nil {
			return m[1]
		}
	}
	for _, gf := range []string{"build.gradle", "build.gradle.kts"} {
		if content, ok := readFile(filepath.Join(repoPath, gf)); ok {
			if m := gradleVersionRe1.FindStringSubmatch(content); m != nil {
				return m[1]
			}
			if m := gradleVersionRe2.FindStringSubmatch(content); m != nil {
				return m[1]
			}
		}
	}
	return ""
}

func currentJavaVersion(ctx context.Context) string {
	if !procexec.Exists("java") {
		return ""
	}
	res, err := procexec.Run(ctx, ".", 10*time.Second, nil, "java", "-version")
	if err != nil {
		return ""
	}
	if m := javaVersionOutRe.FindStringSubmatch(res.Stdout + res.Stderr); m != nil {
		return m[1]
	}
	return ""
}

func javaVersionCompatible(ctx context.Context, repoPath string) (bool, string) {
	required := requiredJavaVersion(repoPath)
	if required == "" {
		return true, ""
	}
	current := currentJavaVersion(ctx)
	if current == "" {
		return true, ""
	}
	if !semverx.Compatible(required, current, semverx.MajorOrHigher) {
		return false, "Repo requires Java " + required + " or higher, but " + current + " is installed"
	}
	return true, ""
}

func summaryFallback(output string, returncode int, prefix string) outcome.RunResult {
	result, ok := parsers.SynthesizePlaceholders(output)
	if !ok {
		if returncode != 0 {
			result.Error = prefix + " failed with exit code " + itoa(returncode)
		} else {
			result.Error = "No tests found"
		}
	}
	result.RawOutput = output
	return result
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf []byte
	for n > 0 {
		buf = append([]byte{byte('0' + n%10)}, buf...)
		n /= 10
	}
	if neg {
		buf = append([]byte{'-'}, buf...)
	}
	return string(buf)
}

// Maven is the Maven Runner (Java/Scala/Kotlin via Surefire).
type Maven struct{}

func (Maven) Name() string     { return "maven" }
func (Maven) Language() string { return "Java" }

func (Maven) mvnCmd(repoPath string) string {
	if exists(filepath.Join(repoPath, "mvnw")) {
		return "./mvnw"
	}
	return "mvn"
}

func (Maven) Detect(repoPath string) int {
	score := 0
	if exists(filepath.Join(repoPath, "pom.xml")) {
		score += 70
	}
	if exists(filepath.Join(repoPath, "mvnw")) {
		score += 20
	}
	if exists(filepath.Join(repoPath, "src", "main", "java")) {
		score += 10
	}
	if exists(filepath.Join(repoPath, "src", "test", "java")) {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

func (Maven) CheckRuntime(ctx context.Context) (bool, string) {
	cmd := "java"
	if procexec.Exists("mvn") {
		cmd = "mvn"
	} else if !procexec.Exists("java") {
		return false, "Maven and Java not found"
	}
	args := "--version"
	res, err := procexec.Run(ctx, ".", 30*time.Second, nil, cmd, args)
	if err != nil {
		return false, err.Error()
	}
	return true, strings.SplitN(strings.TrimSpace(res.Stdout), "\n", 2)[0]
}

func (Maven) RequiredVersion(repoPath string) string { return requiredJavaVersion(repoPath) }

func (Maven) CheckVersionCompatible(ctx context.Context, repoPath string) (bool, string) {
	return javaVersionCompatible(ctx, repoPath)
}

func (r Maven) Install(ctx context.Context, repoPath string, timeoutSeconds int) (bool, string) {
	mvn := r.mvnCmd(repoPath)
	res, err := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil, mvn, "dependency:resolve", "-DskipTests", "-q")
	if err != nil {
		return false, err.Error()
	}
	if res.TimedOut {
		return false, "mvn dependency:resolve timed out"
	}
	if res.ExitCode != 0 {
		return false, "mvn dependency:resolve failed: " + res.Stderr
	}
	return true, ""
}

func (r Maven) Run(ctx context.Context, repoPath string, timeoutSeconds int) outcome.RunResult {
	mvn := r.mvnCmd(repoPath)
	res, _ := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil, mvn, "test", "-Dsurefire.useFile=false")
	output := res.Combined

	if res.TimedOut {
		return outcome.RunResult{Error: "mvn test timed out", RawOutput: output}
	}

	surefireDir := filepath.Join(repoPath, "target", "surefire-reports")
	if entries, err := os.ReadDir(surefireDir); err == nil {
		var merged outcome.RunResult
		for _, e := range entries {
			if e.IsDir() || !strings.HasPrefix(e.Name(), "TEST-") {
				continue
			}
			if part, ok := parsers.ParseJUnitXML(filepath.Join(surefireDir, e.Name())); ok {
				merged.Passed = append(merged.Passed, part.Passed...)
				merged.Failed = append(merged.Failed, part.Failed...)
				merged.Skipped = append(merged.Skipped, part.Skipped...)
				merged.DurationS += part.DurationS
			}
		}
		if merged.TotalTests() > 0 {
			merged.RawOutput = output
			return merged
		}
	}

	return summaryFallback(output, res.ExitCode, "mvn test")
}

// Gradle is the Gradle Runner (Java/Scala/Kotlin).
type Gradle struct{}

func (Gradle) Name() string     { return "gradle" }
func (Gradle) Language() string { return "Java" }

func (Gradle) gradleCmd(repoPath string) string {
	if exists(filepath.Join(repoPath, "gradlew")) {
		return "./gradlew"
	}
	return "gradle"
}

func (Gradle) Detect(repoPath string) int {
	score := 0
	if exists(filepath.Join(repoPath, "build.gradle")) {
		score += 60
	}
	if exists(filepath.Join(repoPath, "build.gradle.kts")) {
		score += 60
	}
	if exists(filepath.Join(repoPath, "gradlew")) {
		score += 30
	}
	if exists(filepath.Join(repoPath, "settings.gradle")) || exists(filepath.Join(repoPath, "settings.gradle.kts")) {
		score += 10
	}
	if exists(filepath.Join(repoPath, "src", "main", "java")) {
		score += 10
	}
	if exists(filepath.Join(repoPath, "src", "main", "kotlin")) {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

func (Gradle) CheckRuntime(ctx context.Context) (bool, string) {
	cmd := "java"
	if procexec.Exists("gradle") {
		cmd = "gradle"
	} else if !procexec.Exists("java") {
		return false, "Gradle and Java not found"
	}
	res, err := procexec.Run(ctx, ".", 30*time.Second, nil, cmd, "--version")
	if err != nil {
		return false, err.Error()
	}
	return true, strings.SplitN(strings.TrimSpace(res.Stdout), "\n", 2)[0]
}

func (Gradle) RequiredVersion(repoPath string) string { return requiredJavaVersion(repoPath) }

func (Gradle) CheckVersionCompatible(ctx context.Context, repoPath string) (bool, string) {
	return javaVersionCompatible(ctx, repoPath)
}

func (r Gradle) Install(ctx context.Context, repoPath string, timeoutSeconds int) (bool, string) {
	gradle := r.gradleCmd(repoPath)
	res, err := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil, gradle, "dependencies", "--quiet")
	if err != nil {
		return false, err.Error()
	}
	if res.ExitCode != 0 {
		res2, err2 := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil, gradle, "build", "-x", "test", "--quiet")
		if err2 != nil || res2.ExitCode != 0 {
			return false, "gradle dependencies failed: " + res.Stderr
		}
	}
	return true, ""
}

func (r Gradle) Run(ctx context.Context, repoPath string, timeoutSeconds int) outcome.RunResult {
	gradle := r.gradleCmd(repoPath)
	res, _ := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil, gradle, "test")
	output := res.Combined

	if res.TimedOut {
		return outcome.RunResult{Error: "gradle test timed out", RawOutput: output}
	}

	resultsDir := filepath.Join(repoPath, "build", "test-results", "test")
	if entries, err := os.ReadDir(resultsDir); err == nil {
		var merged outcome.RunResult
		for _, e := range entries {
			if e.IsDir() || !strings.HasPrefix(e.Name(), "TEST-") {
				continue
			}
			if part, ok := parsers.ParseJUnitXML(filepath.Join(resultsDir, e.Name())); ok {
				merged.Passed = append(merged.Passed, part.Passed...)
				merged.Failed = append(merged.Failed, part.Failed...)
				merged.Skipped = append(merged.Skipped, part.Skipped...)
				merged.DurationS += part.DurationS
			}
		}
		if merged.TotalTests() > 0 {
			merged.RawOutput = output
			return merged
		}
	}

	return summaryFallback(output, res.ExitCode, "gradle test")
}

// Sbt is the sbt Runner (Scala).
type Sbt struct{}

func (Sbt) Name() string     { return "sbt" }
func (Sbt) Language() string { return "Scala" }

func (Sbt) Detect(repoPath string) int {
	score := 0
	if exists(filepath.Join(repoPath, "build.sbt")) {
		score += 70
	}
	if exists(filepath.Join(repoPath, "project")) {
		score += 20
		if exists(filepath.Join(repoPath, "project", "build.properties")) {
			score += 10
		}
	}
	if exists(filepath.Join(repoPath, "src", "main", "scala")) {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

func (Sbt) CheckRuntime(ctx context.Context) (bool, string) {
	if !procexec.Exists("sbt") {
		return false, "sbt not found"
	}
	res, err := procexec.Run(ctx, ".", 60*time.Second, nil, "sbt", "--version")
	if err != nil {
		return false, err.Error()
	}
	return true, strings.SplitN(strings.TrimSpace(res.Stdout), "\n", 2)[0]
}

var scalaVersionRe = regexp.MustCompile(`scalaVersion\s*:=\s*["'](\d+\.\d+)`)

func (Sbt) RequiredVersion(repoPath string) string {
	if content, ok := readFile(filepath.Join(repoPath, "build.sbt")); ok {
		if m := scalaVersionRe.FindStringSubmatch(content); m != nil {
			return m[1]
		}
	}
	return ""
}

func (Sbt) CheckVersionCompatible(ctx context.Context, repoPath string) (bool, string) {
	return true, ""
}

func (Sbt) Install(ctx context.Context, repoPath string, timeoutSeconds int) (bool, string) {
	res, err := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil, "sbt", "update")
	if err != nil {
		return false, err.Error()
	}
	if res.ExitCode != 0 {
		return false, "sbt update failed: " + res.Stderr
	}
	return true, ""
}

var sbtPassLineRe = regexp.MustCompile(`\[info\]\s*\+\s*(.+)`)
var sbtFailLineRe = regexp.MustCompile(`\[error\]\s*(.+)`)

func (Sbt) Run(ctx context.Context, repoPath string, timeoutSeconds int) outcome.RunResult {
	res, _ := procexec.Run(ctx, repoPath, secToDuration(timeoutSeconds), nil, "sbt", "test")
	output := res.Combined

	if res.TimedOut {
		return outcome.RunResult{Error: "sbt test timed out", RawOutput: output}
	}

	reportsDir := filepath.Join(repoPath, "target", "test-reports")
	if entries, err := os.ReadDir(reportsDir); err == nil {
		var merged outcome.RunResult
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".xml") {
				continue
			}
			if part, ok := parsers.ParseJUnitXML(filepath.Join(reportsDir, e.Name())); ok {
				merged.Passed = append(merged.Passed, part.Passed...)
				merged.Failed = append(merged.Failed, part.Failed...)
				merged.Skipped = append(merged.Skipped, part.Skipped...)
				merged.DurationS += part.DurationS
			}
		}
		if merged.TotalTests() > 0 {
			merged.RawOutput = output
			return merged
		}
	}

	var result outcome.RunResult
	for _, line := range strings.Split(output, "\n") {
		if m := sbtPassLineRe.FindStringSubmatch(line); m != nil {
			result.Passed = append(result.Passed, strings.TrimSpace(m[1]))
			continue
		}
		if strings.Contains(line, "[error]") && strings.Contains(strings.ToLower(line), "failed") {
			if m := sbtFailLineRe.FindStringSubmatch(line); m != nil {
				result.Failed = append(result.Failed, strings.TrimSpace(m[1]))
			}
		}
	}
	result.RawOutput = output
	if result.TotalTests() == 0 && res.ExitCode != 0 {
		result.Error = "sbt test failed with exit code " + itoa(res.ExitCode)
	}
	return result
}
