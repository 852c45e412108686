package parsers

import (
	"regexp"
	"strings"

	"github.com/orizon-lang/f2p-analyzer/internal/outcome"
)

var unittestLineRe = regexp.MustCompile(`^(\w+)\s+\(([\w.]+)\)\s+\.\.\.\s+(ok|FAIL|ERROR|skipped)`)
var unittestDurationRe = regexp.MustCompile(`Ran \d+ tests? in ([\d.]+)s`)

// ParseUnittestVerboseText parses Python unittest's verbose output:
// "<name> (<mod.Class>) ... (ok|FAIL|ERROR|skipped)".
func ParseUnittestVerboseText(output string) (outcome.RunResult, bool) {
	var res outcome.RunResult
	for _, line := range strings.Split(output, "\n") {
		m := unittestLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		name := m[2] + "::" + m[1]
		switch m[3] {
		case "ok":
			res.Passed = append(res.Passed, name)
		case "FAIL", "ERROR":
			res.Failed = append(res.Failed, name)
		case "skipped":
			res.Skipped = append(res.Skipped, name)
		}
	}
	if m := unittestDurationRe.FindStringSubmatch(output); m != nil {
		res.DurationS = parseFloatSafe(m[1])
	}
	res.RawOutput = output
	return res, res.TotalTests() > 0
}
