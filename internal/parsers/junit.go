package parsers

import (
	"encoding/xml"
	"os"

	"github.com/orizon-lang/f2p-analyzer/internal/outcome"
)

type junitTestsuites struct {
	XMLName    xml.Name        `xml:"testsuites"`
	Testsuites []junitTestsuite `xml:"testsuite"`
}

type junitTestsuite struct {
	XMLName   xml.Name       `xml:"testsuite"`
	Testcases []junitTestcase `xml:"testcase"`
}

type junitTestcase struct {
	Classname string        `xml:"classname,attr"`
	Name      string        `xml:"name,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *struct{}     `xml:"failure"`
	Error     *struct{}     `xml:"error"`
	Skipped   *struct{}     `xml:"skipped"`
}

// ParseJUnitXML parses a JUnit XML report (pytest, Maven Surefire,
// Gradle, CTest all emit this format). classname+name become the test
// identifier, nested <failure>/<error> means FAILED, <skipped> means
// SKIPPED, otherwise PASSED. @time attributes are summed for duration.
func ParseJUnitXML(path string) (outcome.RunResult, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return outcome.RunResult{}, false
	}
	return ParseJUnitXMLBytes(data)
}

// ParseJUnitXMLBytes parses JUnit XML content already in memory.
func ParseJUnitXMLBytes(data []byte) (outcome.RunResult, bool) {
	var suites []junitTestsuite

	var multi junitTestsuites
	if err := xml.Unmarshal(data, &multi); err == nil && len(multi.Testsuites) > 0 {
		suites = multi.Testsuites
	} else {
		var single junitTestsuite
		if err := xml.Unmarshal(data, &single); err != nil {
			return outcome.RunResult{}, false
		}
		suites = []junitTestsuite{single}
	}

	var res outcome.RunResult
	var totalTime float64
	for _, suite := range suites {
		for _, tc := range suite.Testcases {
			name := tc.Name
			if tc.Classname != "" {
				name = tc.Classname + "::" + tc.Name
			}
			totalTime += parseFloatSafe(tc.Time)
			switch {
			case tc.Failure != nil || tc.Error != nil:
				res.Failed = append(res.Failed, name)
			case tc.Skipped != nil:
				res.Skipped = append(res.Skipped, name)
			default:
				res.Passed = append(res.Passed, name)
			}
		}
	}
	res.DurationS = totalTime
	return res, res.TotalTests() > 0
}
