package parsers

import (
	"regexp"
	"strings"

	"github.com/orizon-lang/f2p-analyzer/internal/outcome"
)

var cargoLineRe = regexp.MustCompile(`^test\s+([\w:]+)\s+\.\.\.\s+(ok|FAILED|ignored)`)
var cargoDurationRe = regexp.MustCompile(`finished in ([\d.]+)s`)

// ParseCargoTestOutput parses `cargo test` text output lines like
// "test path::to::test ... ok|FAILED|ignored".
func ParseCargoTestOutput(output string) (outcome.RunResult, bool) {
	var res outcome.RunResult
	for _, line := range strings.Split(output, "\n") {
		m := cargoLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		switch m[2] {
		case "ok":
			res.Passed = append(res.Passed, m[1])
		case "FAILED":
			res.Failed = append(res.Failed, m[1])
		case "ignored":
			res.Skipped = append(res.Skipped, m[1])
		}
	}
	if m := cargoDurationRe.FindStringSubmatch(output); m != nil {
		res.DurationS = parseFloatSafe(m[1])
	}
	res.RawOutput = output
	return res, res.TotalTests() > 0
}
