package parsers

import "github.com/orizon-lang/f2p-analyzer/internal/outcome"

// Strategy is one parser attempt in a fallback Chain. It returns
// ok=false (never an error) when it found nothing it recognizes.
type Strategy func() (outcome.RunResult, bool)

// Chain tries each strategy in order and returns the first result whose
// TotalTests() > 0. The pytest runner builds one per invocation: its
// JUnit XML report first, then verbose stdout text parsing.
func Chain(strategies ...Strategy) (outcome.RunResult, bool) {
	for _, try := range strategies {
		res, ok := try()
		if ok && res.TotalTests() > 0 {
			return res, true
		}
	}
	return outcome.RunResult{}, false
}
