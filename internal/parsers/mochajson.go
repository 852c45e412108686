package parsers

import (
	"encoding/json"
	"os"

	"github.com/orizon-lang/f2p-analyzer/internal/outcome"
)

type mochaTest struct {
	Title     string `json:"title"`
	FullTitle string `json:"fullTitle"`
}

type mochaReport struct {
	Stats struct {
		Duration float64 `json:"duration"`
	} `json:"stats"`
	Passes   []mochaTest `json:"passes"`
	Failures []mochaTest `json:"failures"`
	Pending  []mochaTest `json:"pending"`
}

func mochaName(t mochaTest) string {
	if t.FullTitle != "" {
		return t.FullTitle
	}
	return t.Title
}

// ParseMochaJSON parses Mocha's JSON reporter output: passes[],
// failures[], pending[] keyed by fullTitle|title; stats.duration in ms.
func ParseMochaJSON(path string) (outcome.RunResult, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return outcome.RunResult{}, false
	}
	return ParseMochaJSONBytes(data)
}

// ParseMochaJSONBytes parses Mocha JSON content already in memory.
func ParseMochaJSONBytes(data []byte) (outcome.RunResult, bool) {
	var report mochaReport
	if err := json.Unmarshal(data, &report); err != nil {
		return outcome.RunResult{}, false
	}

	var res outcome.RunResult
	for _, t := range report.Passes {
		res.Passed = append(res.Passed, mochaName(t))
	}
	for _, t := range report.Failures {
		res.Failed = append(res.Failed, mochaName(t))
	}
	for _, t := range report.Pending {
		res.Skipped = append(res.Skipped, mochaName(t))
	}
	res.DurationS = report.Stats.Duration / 1000.0
	return res, res.TotalTests() > 0
}
