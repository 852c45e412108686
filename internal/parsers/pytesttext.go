package parsers

import (
	"regexp"
	"strings"

	"github.com/orizon-lang/f2p-analyzer/internal/outcome"
)

var pytestLineRe = regexp.MustCompile(`^([\w/.-]+::\w+(?:\[.*?\])?)\s+(PASSED|FAILED|SKIPPED|ERROR)`)
var pytestDurationRe = regexp.MustCompile(`in ([\d.]+)s`)

// ParsePytestVerboseText is the fallback when JUnit XML is unavailable:
// "<path>::<name>[<params>] (PASSED|FAILED|SKIPPED|ERROR)" lines.
func ParsePytestVerboseText(output string) (outcome.RunResult, bool) {
	var res outcome.RunResult
	for _, line := range strings.Split(output, "\n") {
		m := pytestLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		switch m[2] {
		case "PASSED":
			res.Passed = append(res.Passed, m[1])
		case "FAILED", "ERROR":
			res.Failed = append(res.Failed, m[1])
		case "SKIPPED":
			res.Skipped = append(res.Skipped, m[1])
		}
	}
	if m := pytestDurationRe.FindStringSubmatch(output); m != nil {
		res.DurationS = parseFloatSafe(m[1])
	}
	res.RawOutput = output
	return res, res.TotalTests() > 0
}
