package parsers

import (
	"regexp"
	"strings"

	"github.com/orizon-lang/f2p-analyzer/internal/outcome"
)

var tapOkRe = regexp.MustCompile(`^(?:✔ |ok \d+ - )(.+)$`)
var tapNotOkRe = regexp.MustCompile(`^(?:✖ |not ok \d+ - )(.+)$`)
var tapSkipRe = regexp.MustCompile(`^⊘ (.+)$`)

// ParseTAPLike parses node --test's TAP-like console output: lines
// starting "✔ / ✖ / ⊘ / ok N - / not ok N -".
func ParseTAPLike(output string) (outcome.RunResult, bool) {
	var res outcome.RunResult
	for _, raw := range strings.Split(output, "\n") {
		line := strings.TrimSpace(raw)
		if m := tapNotOkRe.FindStringSubmatch(line); m != nil {
			res.Failed = append(res.Failed, m[1])
			continue
		}
		if m := tapSkipRe.FindStringSubmatch(line); m != nil {
			res.Skipped = append(res.Skipped, m[1])
			continue
		}
		if m := tapOkRe.FindStringSubmatch(line); m != nil {
			res.Passed = append(res.Passed, m[1])
			continue
		}
	}
	res.RawOutput = output
	return res, res.TotalTests() > 0
}
