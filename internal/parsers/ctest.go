package parsers

import (
	"regexp"
	"strings"

	"github.com/orizon-lang/f2p-analyzer/internal/outcome"
)

var ctestLineRe = regexp.MustCompile(`^Test\s+#\d+:\s+(\S+)\s+\.+\s*(Passed|\*\*\*Failed)`)

// ParseCTestVerboseText parses ctest's verbose output:
// "Test #N: <name> ... (Passed|***Failed)".
func ParseCTestVerboseText(output string) (outcome.RunResult, bool) {
	var res outcome.RunResult
	for _, line := range strings.Split(output, "\n") {
		m := ctestLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		if m[2] == "Passed" {
			res.Passed = append(res.Passed, m[1])
		} else {
			res.Failed = append(res.Failed, m[1])
		}
	}
	res.RawOutput = output
	return res, res.TotalTests() > 0
}
