package parsers

import (
	"encoding/xml"
	"os"
	"strconv"
	"strings"

	"github.com/orizon-lang/f2p-analyzer/internal/outcome"
)

type trxResults struct {
	XMLName xml.Name         `xml:"TestRun"`
	Results trxResultsWrap   `xml:"Results"`
}

type trxResultsWrap struct {
	UnitTestResults []trxUnitTestResult `xml:"UnitTestResult"`
}

type trxUnitTestResult struct {
	TestName string `xml:"testName,attr"`
	Outcome  string `xml:"outcome,attr"`
	Duration string `xml:"duration,attr"`
}

// ParseTRX parses .NET's TRX (Visual Studio Test Results) XML format:
// <UnitTestResult testName outcome duration>, outcome in
// Passed/Failed/NotExecuted/Inconclusive.
func ParseTRX(path string) (outcome.RunResult, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return outcome.RunResult{}, false
	}
	return ParseTRXBytes(data)
}

// ParseTRXBytes parses TRX content already in memory.
func ParseTRXBytes(data []byte) (outcome.RunResult, bool) {
	var root trxResults
	if err := xml.Unmarshal(data, &root); err != nil {
		return outcome.RunResult{}, false
	}

	var res outcome.RunResult
	var totalTime float64
	for _, r := range root.Results.UnitTestResults {
		totalTime += parseTRXDuration(r.Duration)
		switch r.Outcome {
		case "Passed":
			res.Passed = append(res.Passed, r.TestName)
		case "Failed":
			res.Failed = append(res.Failed, r.TestName)
		case "NotExecuted", "Inconclusive":
			res.Skipped = append(res.Skipped, r.TestName)
		}
	}
	res.DurationS = totalTime
	return res, res.TotalTests() > 0
}

// parseTRXDuration parses HH:MM:SS.mmm into seconds.
func parseTRXDuration(s string) float64 {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0
	}
	h, err1 := strconv.ParseFloat(parts[0], 64)
	m, err2 := strconv.ParseFloat(parts[1], 64)
	sec, err3 := strconv.ParseFloat(parts[2], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0
	}
	return h*3600 + m*60 + sec
}
