// Package report defines AnalysisResult, the SWE-Bench-compatible
// output of a three-stage analysis, and its JSON/text rendering.
package report

import (
	"encoding/json"
	"strings"

	"github.com/orizon-lang/f2p-analyzer/internal/outcome"
)

// StageResult is the normalized outcome of one stage's test run,
// flattened across every affected package.
type StageResult struct {
	Passed  []string `json:"passed"`
	Failed  []string `json:"failed"`
	Skipped []string `json:"skipped"`
}

// TotalTests returns the number of tests this stage accounts for.
func (s StageResult) TotalTests() int {
	return len(s.Passed) + len(s.Failed) + len(s.Skipped)
}

// AnalysisResult is the full output of one PR's F2P/P2P analysis.
type AnalysisResult struct {
	PRNumber int    `json:"pr_number"`
	PRTitle  string `json:"pr_title"`
	BaseSHA  string `json:"base_sha"`
	HeadSHA  string `json:"head_sha"`

	F2PTests []string `json:"f2p_tests"`
	P2PTests []string `json:"p2p_tests"`
	F2FTests []string `json:"f2f_tests"`
	P2FTests []string `json:"p2f_tests"`

	TestsBase   *StageResult `json:"tests_base,omitempty"`
	TestsBefore *StageResult `json:"tests_before,omitempty"`
	TestsAfter  *StageResult `json:"tests_after,omitempty"`

	Success         bool   `json:"success"`
	Error           string `json:"error,omitempty"`
	ErrorCode       string `json:"error_code,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`

	HasNewTestFile   bool `json:"has_new_test_file"`
	TestFileCount    int  `json:"test_file_count"`
	ChangedFileCount int  `json:"changed_file_count"`

	// FlakyWarnings holds flaky_after_stage diagnostics produced when
	// Analyzer.Retries re-runs a package's after stage and an attempt's
	// outcome disagrees with the first. Diagnostic only; classification
	// is unaffected.
	FlakyWarnings []string `json:"flaky_warnings,omitempty"`
}

// HasValidF2P reports whether at least one F2P test was found.
func (r *AnalysisResult) HasValidF2P() bool { return len(r.F2PTests) > 0 }

// HasValidP2P reports whether at least one P2P test was found.
func (r *AnalysisResult) HasValidP2P() bool { return len(r.P2PTests) > 0 }

// Verdict computes the terminal verdict string per the output schema:
// REJECTED:<reason>, BUILD_FAILED, TIMEOUT, NO_TESTS, UNKNOWN, VALID,
// NO_F2P, or NO_P2P.
func (r *AnalysisResult) Verdict() string {
	if r.RejectionReason != "" {
		return "REJECTED:" + r.RejectionReason
	}
	if !r.Success {
		switch r.ErrorCode {
		case "BUILD_FAILED":
			return "BUILD_FAILED"
		case "TIMEOUT":
			return "TIMEOUT"
		case "NO_TESTS":
			return "NO_TESTS"
		}
		return "UNKNOWN"
	}
	if r.HasValidF2P() && r.HasValidP2P() {
		return "VALID"
	}
	if !r.HasValidF2P() {
		return "NO_F2P"
	}
	return "NO_P2P"
}

// dictView is the JSON-serializable projection returned by ToJSON,
// mirroring the original's to_dict counts-plus-lists shape.
type dictView struct {
	PRNumber        int      `json:"pr_number"`
	PRTitle         string   `json:"pr_title"`
	BaseSHA         string   `json:"base_sha"`
	HeadSHA         string   `json:"head_sha"`
	F2PCount        int      `json:"f2p_count"`
	P2PCount        int      `json:"p2p_count"`
	F2FCount        int      `json:"f2f_count"`
	P2FCount        int      `json:"p2f_count"`
	F2PTests        []string `json:"f2p_tests"`
	P2PTests        []string `json:"p2p_tests"`
	F2FTests        []string `json:"f2f_tests"`
	P2FTests        []string `json:"p2f_tests"`
	Success         bool     `json:"success"`
	Verdict         string   `json:"verdict"`
	Error           string   `json:"error,omitempty"`
	ErrorCode       string   `json:"error_code,omitempty"`
	RejectionReason string   `json:"rejection_reason,omitempty"`
	HasNewTestFile  bool     `json:"has_new_test_file"`
	FlakyWarnings   []string `json:"flaky_warnings,omitempty"`
}

// ToJSON renders the result as indented JSON, matching cli.py's
// json.dumps(result.to_dict(), indent=2).
func (r *AnalysisResult) ToJSON() ([]byte, error) {
	v := dictView{
		PRNumber:        r.PRNumber,
		PRTitle:         r.PRTitle,
		BaseSHA:         r.BaseSHA,
		HeadSHA:         r.HeadSHA,
		F2PCount:        len(r.F2PTests),
		P2PCount:        len(r.P2PTests),
		F2FCount:        len(r.F2FTests),
		P2FCount:        len(r.P2FTests),
		F2PTests:        r.F2PTests,
		P2PTests:        r.P2PTests,
		F2FTests:        r.F2FTests,
		P2FTests:        r.P2FTests,
		Success:         r.Success,
		Verdict:         r.Verdict(),
		Error:           r.Error,
		ErrorCode:       r.ErrorCode,
		RejectionReason: r.RejectionReason,
		HasNewTestFile:  r.HasNewTestFile,
		FlakyWarnings:   r.FlakyWarnings,
	}
	return json.MarshalIndent(v, "", "  ")
}

// FromStageMap builds a StageResult from a status Map, sorted for
// deterministic output.
func FromStageMap(m outcome.Map) *StageResult {
	sr := &StageResult{}
	for _, t := range outcome.SortedKeys(m) {
		switch m[t] {
		case outcome.Passed, outcome.XFail:
			sr.Passed = append(sr.Passed, t)
		case outcome.Failed, outcome.Error:
			sr.Failed = append(sr.Failed, t)
		case outcome.Skipped:
			sr.Skipped = append(sr.Skipped, t)
		}
	}
	return sr
}

// Text renders a human-readable summary matching cli.py's non-JSON
// output mode.
func (r *AnalysisResult) Text(verbose bool) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("=", 60) + "\n")
	b.WriteString("F2P/P2P Analysis Result\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	if r.PRNumber != 0 {
		b.WriteString("PR #")
		b.WriteString(itoa(r.PRNumber))
		b.WriteString(": ")
		b.WriteString(r.PRTitle)
		b.WriteString("\n")
	}
	b.WriteString("Base: " + shortSHA(r.BaseSHA) + "\n")
	b.WriteString("Head: " + shortSHA(r.HeadSHA) + "\n\n")

	if r.Success {
		b.WriteString("Analysis completed successfully\n\n")
		b.WriteString("F2P Tests (Fail->Pass): " + itoa(len(r.F2PTests)) + "\n")
		writeSample(&b, r.F2PTests, 10, true)
		b.WriteString("\nP2P Tests (Pass->Pass): " + itoa(len(r.P2PTests)) + "\n")
		if verbose {
			writeSample(&b, r.P2PTests, 10, true)
		}
		b.WriteString("\nVerdict: " + r.Verdict() + "\n")
		switch {
		case r.HasValidF2P() && r.HasValidP2P():
			b.WriteString("PR has valid F2P and P2P tests - ACCEPTED\n")
		case !r.HasValidF2P():
			b.WriteString("PR has no F2P tests - REJECTED\n")
		default:
			b.WriteString("PR has no P2P tests - REJECTED\n")
		}
		if len(r.FlakyWarnings) > 0 {
			b.WriteString("\nWarnings:\n")
			for _, w := range r.FlakyWarnings {
				b.WriteString("  - " + w + "\n")
			}
		}
	} else {
		b.WriteString("Analysis failed\n")
		b.WriteString("Error: " + r.Error + "\n")
		if r.ErrorCode != "" {
			b.WriteString("Code: " + r.ErrorCode + "\n")
		}
	}
	return b.String()
}

func writeSample(b *strings.Builder, items []string, limit int, bullet bool) {
	n := len(items)
	if n > limit {
		n = limit
	}
	for _, t := range items[:n] {
		if bullet {
			b.WriteString("  - ")
		}
		b.WriteString(t)
		b.WriteString("\n")
	}
	if len(items) > limit {
		b.WriteString("  ... and " + itoa(len(items)-limit) + " more\n")
	}
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}
