package parsers

import (
	"encoding/json"
	"strings"

	"github.com/orizon-lang/f2p-analyzer/internal/outcome"
)

type goTestEvent struct {
	Action  string  `json:"Action"`
	Package string  `json:"Package"`
	Test    string  `json:"Test"`
	Elapsed float64 `json:"Elapsed"`
}

// ParseGoTestJSON parses `go test -json` line-delimited events.
// Action in {pass,fail,skip} with Test+Package becomes "pkg::Test".
func ParseGoTestJSON(output string) (outcome.RunResult, bool) {
	var res outcome.RunResult
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var ev goTestEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		if ev.Test == "" {
			continue
		}
		name := ev.Test
		if ev.Package != "" {
			name = ev.Package + "::" + ev.Test
		}
		switch ev.Action {
		case "pass":
			res.Passed = append(res.Passed, name)
			res.DurationS += ev.Elapsed
		case "fail":
			res.Failed = append(res.Failed, name)
			res.DurationS += ev.Elapsed
		case "skip":
			res.Skipped = append(res.Skipped, name)
		}
	}
	return res, res.TotalTests() > 0
}
