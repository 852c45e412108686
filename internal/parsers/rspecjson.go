package parsers

import (
	"encoding/json"
	"os"

	"github.com/orizon-lang/f2p-analyzer/internal/outcome"
)

type rspecExample struct {
	FullDescription string `json:"full_description"`
	Status          string `json:"status"`
}

type rspecReport struct {
	Examples []rspecExample `json:"examples"`
	Summary  struct {
		Duration float64 `json:"duration"`
	} `json:"summary"`
}

// ParseRSpecJSON parses RSpec's JSON formatter output:
// examples[].{full_description,status}.
func ParseRSpecJSON(path string) (outcome.RunResult, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return outcome.RunResult{}, false
	}
	return ParseRSpecJSONBytes(data)
}

// ParseRSpecJSONBytes parses RSpec JSON content already in memory.
func ParseRSpecJSONBytes(data []byte) (outcome.RunResult, bool) {
	var report rspecReport
	if err := json.Unmarshal(data, &report); err != nil {
		return outcome.RunResult{}, false
	}

	var res outcome.RunResult
	for _, ex := range report.Examples {
		switch ex.Status {
		case "passed":
			res.Passed = append(res.Passed, ex.FullDescription)
		case "failed":
			res.Failed = append(res.Failed, ex.FullDescription)
		case "pending", "skipped":
			res.Skipped = append(res.Skipped, ex.FullDescription)
		}
	}
	res.DurationS = report.Summary.Duration
	return res, res.TotalTests() > 0
}
