package parsers

import (
	"fmt"
	"regexp"

	"github.com/orizon-lang/f2p-analyzer/internal/outcome"
)

var summaryCountRe = regexp.MustCompile(`Tests run:\s*(\d+),\s*Failures?:\s*(\d+)`)

// SynthesizePlaceholders builds an unstable RunResult out of a bare
// summary line (e.g. "Tests run: N, Failures: F") when no structured
// per-test identifiers are available anywhere in the output. The
// resulting identifiers ("test_0", "failed_test_0", ...) only preserve
// counts; callers MUST treat such a result as ineligible for F2P/P2P
// classification, since identifiers are not stable across runs. This
// is reflected by RunResult.Unstable.
func SynthesizePlaceholders(output string) (outcome.RunResult, bool) {
	m := summaryCountRe.FindStringSubmatch(output)
	if m == nil {
		return outcome.RunResult{}, false
	}
	total := atoiSafe(m[1])
	failures := atoiSafe(m[2])
	if total <= 0 {
		return outcome.RunResult{}, false
	}
	if failures > total {
		failures = total
	}
	passed := total - failures

	var res outcome.RunResult
	res.Unstable = true
	for i := 0; i < passed; i++ {
		res.Passed = append(res.Passed, fmt.Sprintf("test_%d", i))
	}
	for i := 0; i < failures; i++ {
		res.Failed = append(res.Failed, fmt.Sprintf("failed_test_%d", i))
	}
	res.RawOutput = output
	return res, true
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int(c-'0')
	}
	return n
}
