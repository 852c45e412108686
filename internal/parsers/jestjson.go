package parsers

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/orizon-lang/f2p-analyzer/internal/outcome"
)

type jestAssertion struct {
	FullName       string   `json:"fullName"`
	AncestorTitles []string `json:"ancestorTitles"`
	Title          string   `json:"title"`
	Status         string   `json:"status"`
}

type jestTestResult struct {
	AssertionResults []jestAssertion `json:"assertionResults"`
}

type jestReport struct {
	TestResults []jestTestResult `json:"testResults"`
	StartTime   float64          `json:"startTime"`
	EndTime     float64          `json:"endTime"`
}

// ParseJestJSON parses Jest/Vitest JSON output
// (testResults[].assertionResults[].{fullName|ancestorTitles+title,status}).
func ParseJestJSON(path string) (outcome.RunResult, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return outcome.RunResult{}, false
	}
	return ParseJestJSONBytes(data)
}

// ParseJestJSONBytes parses Jest/Vitest JSON content already in memory.
func ParseJestJSONBytes(data []byte) (outcome.RunResult, bool) {
	var report jestReport
	if err := json.Unmarshal(data, &report); err != nil {
		return outcome.RunResult{}, false
	}

	var res outcome.RunResult
	for _, file := range report.TestResults {
		for _, a := range file.AssertionResults {
			name := a.FullName
			if name == "" {
				parts := append(append([]string{}, a.AncestorTitles...), a.Title)
				name = strings.Join(parts, " ")
			}
			switch a.Status {
			case "passed":
				res.Passed = append(res.Passed, name)
			case "failed":
				res.Failed = append(res.Failed, name)
			case "pending", "skipped", "todo":
				res.Skipped = append(res.Skipped, name)
			}
		}
	}
	if report.StartTime > 0 && report.EndTime > 0 {
		res.DurationS = (report.EndTime - report.StartTime) / 1000.0
	}
	return res, res.TotalTests() > 0
}
