// Package classifier implements the SWE-Bench-style F2P/P2P/F2F/P2F
// classification (Rule A / Rule B) and the validator that rejects
// incoherent results before they are reported as success.
package classifier

import (
	"regexp"
	"strings"

	"github.com/orizon-lang/f2p-analyzer/internal/outcome"
)

// Report is the four classification buckets produced by Classify.
type Report struct {
	FailToPass []string
	PassToPass []string
	PassToFail []string
	FailToFail []string
}

// Classify applies Rule A when hasNewTestFile is set or tests_before
// is not mixed (both passing and failing present); otherwise Rule B.
//
// Rule A: diff the base/after passing sets, then apply the two
// reclassification passes in order — move an F2P test that was also
// passing in before into P2P, then move a P2P test that was failing
// in before into F2P. Each pass runs exactly once, in that order.
//
// Rule B: direct per-test before/after status cross-tabulation.
func Classify(testsBase, testsBefore, testsAfter outcome.Map, hasNewTestFile bool) Report {
	if hasNewTestFile || !testsBefore.Mixed() {
		return classifyRuleA(testsBase, testsBefore, testsAfter)
	}
	return classifyRuleB(testsBefore, testsAfter)
}

func classifyRuleA(testsBase, testsBefore, testsAfter outcome.Map) Report {
	basePassing := testsBase.Passing()
	afterPassing := testsAfter.Passing()

	var fail2pass, pass2pass []string
	for t := range afterPassing {
		if _, ok := basePassing[t]; ok {
			pass2pass = append(pass2pass, t)
		} else {
			fail2pass = append(fail2pass, t)
		}
	}

	beforePassing := testsBefore.Passing()
	var reclassifyToP2P []string
	for _, t := range fail2pass {
		if _, ok := beforePassing[t]; ok {
			reclassifyToP2P = append(reclassifyToP2P, t)
		}
	}
	if len(reclassifyToP2P) > 0 {
		toMove := make(map[string]struct{}, len(reclassifyToP2P))
		for _, t := range reclassifyToP2P {
			toMove[t] = struct{}{}
		}
		fail2pass = filterOut(fail2pass, toMove)
		pass2pass = appendUnique(pass2pass, reclassifyToP2P)
	}

	beforeFailing := testsBefore.Failing()
	var reclassifyToF2P []string
	for _, t := range pass2pass {
		if _, ok := beforeFailing[t]; ok {
			reclassifyToF2P = append(reclassifyToF2P, t)
		}
	}
	if len(reclassifyToF2P) > 0 {
		toMove := make(map[string]struct{}, len(reclassifyToF2P))
		for _, t := range reclassifyToF2P {
			toMove[t] = struct{}{}
		}
		pass2pass = filterOut(pass2pass, toMove)
		fail2pass = appendUnique(fail2pass, reclassifyToF2P)
	}

	return Report{FailToPass: fail2pass, PassToPass: pass2pass}
}

func classifyRuleB(testsBefore, testsAfter outcome.Map) Report {
	seen := make(map[string]struct{}, len(testsBefore)+len(testsAfter))
	all := make([]string, 0, len(testsBefore)+len(testsAfter))
	for t := range testsBefore {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			all = append(all, t)
		}
	}
	for t := range testsAfter {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			all = append(all, t)
		}
	}

	var report Report
	for _, t := range all {
		before, hasBefore := testsBefore[t]
		after, hasAfter := testsAfter[t]
		switch {
		case hasBefore && before.Failing() && hasAfter && after.Passing():
			report.FailToPass = append(report.FailToPass, t)
		case hasBefore && before.Passing() && hasAfter && after.Passing():
			report.PassToPass = append(report.PassToPass, t)
		case hasBefore && before.Passing() && hasAfter && after.Failing():
			report.PassToFail = append(report.PassToFail, t)
		case hasBefore && before.Failing() && hasAfter && after.Failing():
			report.FailToFail = append(report.FailToFail, t)
		}
	}
	return report
}

func filterOut(list []string, drop map[string]struct{}) []string {
	out := make([]string, 0, len(list))
	for _, t := range list {
		if _, ok := drop[t]; !ok {
			out = append(out, t)
		}
	}
	return out
}

func appendUnique(list []string, add []string) []string {
	seen := make(map[string]struct{}, len(list))
	for _, t := range list {
		seen[t] = struct{}{}
	}
	out := list
	for _, t := range add {
		if _, ok := seen[t]; !ok {
			out = append(out, t)
			seen[t] = struct{}{}
		}
	}
	return out
}

// unstableMatcher holds config.Config.UnstablePatterns compiled once per
// Validate call by compileUnstable, so no regexp.Compile runs per test name.
type unstableMatcher struct {
	res []*regexp.Regexp
}

func compileUnstable(patterns []string) unstableMatcher {
	m := unstableMatcher{res: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		if re, err := regexp.Compile("(?i)" + p); err == nil {
			m.res = append(m.res, re)
		}
	}
	return m
}

func (m unstableMatcher) matches(name string) bool {
	for _, re := range m.res {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// unstableLanguages is the set of languages the validator checks test
// names against the unstable-identifier patterns for.
var unstableLanguages = map[string]struct{}{
	"javascript": {},
	"typescript": {},
	"c++":        {},
	"cpp":        {},
}

// Rejection codes, returned by Validate in this exact checking order.
const (
	RejectEmptyF2P                        = "empty_f2p"
	RejectEmptyP2P                        = "empty_p2p"
	RejectUnstableTestName                = "unstable_test_name"
	RejectDuplicateTestNames              = "duplicate_test_names"
	RejectFailedBaseInP2P                 = "failed_base_in_p2p"
	RejectFailedAfterInF2PP2P             = "failed_after_in_f2p_p2p"
	RejectP2PMissingBaseNotPassingBefore  = "p2p_missing_base_not_passing_before"
	RejectTestNotInAllStages              = "test_not_in_all_stages"
)

// Validate checks a classification result for internal coherence and
// returns a rejection code, or "" if valid. language selects whether
// the unstable-test-name check applies (JS/TS/C++ only).
func Validate(f2p, p2p []string, testsBase, testsBefore, testsAfter outcome.Map, language string, unstablePatterns []string) string {
	if len(f2p) == 0 {
		return RejectEmptyF2P
	}
	if len(p2p) == 0 {
		return RejectEmptyP2P
	}

	allF2PP2P := make([]string, 0, len(f2p)+len(p2p))
	allF2PP2P = append(allF2PP2P, f2p...)
	allF2PP2P = append(allF2PP2P, p2p...)

	if _, ok := unstableLanguages[strings.ToLower(language)]; ok {
		m := compileUnstable(unstablePatterns)
		for _, t := range allF2PP2P {
			if m.matches(t) {
				return RejectUnstableTestName
			}
		}
	}

	seen := make(map[string]struct{}, len(allF2PP2P))
	for _, t := range allF2PP2P {
		if _, ok := seen[t]; ok {
			return RejectDuplicateTestNames
		}
		seen[t] = struct{}{}
	}

	for _, t := range p2p {
		if s, ok := testsBase[t]; ok && s.Failing() {
			return RejectFailedBaseInP2P
		}
	}

	for _, t := range allF2PP2P {
		s, ok := testsAfter[t]
		if !ok || s.Failing() {
			return RejectFailedAfterInF2PP2P
		}
	}

	for _, t := range p2p {
		if _, inBase := testsBase[t]; !inBase {
			if s, inBefore := testsBefore[t]; !inBefore || !s.Passing() {
				return RejectP2PMissingBaseNotPassingBefore
			}
		}
	}

	for _, t := range allF2PP2P {
		_, inBase := testsBase[t]
		_, inBefore := testsBefore[t]
		_, inAfter := testsAfter[t]
		if !inBase && !inBefore && !inAfter {
			return RejectTestNotInAllStages
		}
		ranCount := 0
		if inBase {
			ranCount++
		}
		if inBefore {
			ranCount++
		}
		if inAfter {
			ranCount++
		}
		if ranCount < 3 {
			isNewTestFile := !inBase
			if !isNewTestFile {
				return RejectTestNotInAllStages
			}
		}
	}

	return ""
}
