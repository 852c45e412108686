package parsers

import (
	"math"
	"reflect"
	"sort"
	"testing"

	"github.com/orizon-lang/f2p-analyzer/internal/outcome"
)

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func TestParseCargoTestOutput(t *testing.T) {
	cases := []struct {
		name       string
		output     string
		wantPassed []string
		wantFailed []string
		wantSkip   []string
		wantOK     bool
	}{
		{
			name: "mixed results with duration",
			output: "running 3 tests\n" +
				"test tests::it_works ... ok\n" +
				"test tests::it_fails ... FAILED\n" +
				"test tests::it_skips ... ignored\n" +
				"test result: FAILED. 1 passed; 1 failed; 1 ignored; finished in 0.42s\n",
			wantPassed: []string{"tests::it_works"},
			wantFailed: []string{"tests::it_fails"},
			wantSkip:   []string{"tests::it_skips"},
			wantOK:     true,
		},
		{
			name:   "no recognizable lines",
			output: "warning: unused import\n",
			wantOK: false,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res, ok := ParseCargoTestOutput(c.output)
			if ok != c.wantOK {
				t.Fatalf("ok = %v, want %v", ok, c.wantOK)
			}
			if !ok {
				return
			}
			if got := sortedCopy(res.Passed); !reflect.DeepEqual(got, sortedCopy(c.wantPassed)) {
				t.Errorf("Passed = %v, want %v", got, c.wantPassed)
			}
			if got := sortedCopy(res.Failed); !reflect.DeepEqual(got, sortedCopy(c.wantFailed)) {
				t.Errorf("Failed = %v, want %v", got, c.wantFailed)
			}
			if got := sortedCopy(res.Skipped); !reflect.DeepEqual(got, sortedCopy(c.wantSkip)) {
				t.Errorf("Skipped = %v, want %v", got, c.wantSkip)
			}
			if res.DurationS != 0.42 {
				t.Errorf("DurationS = %v, want 0.42", res.DurationS)
			}
		})
	}
}

func TestParseCTestVerboseText(t *testing.T) {
	output := "Test #1: unit_math ........... Passed\n" +
		"Test #2: unit_io ............. ***Failed\n"
	res, ok := ParseCTestVerboseText(output)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if got := sortedCopy(res.Passed); !reflect.DeepEqual(got, []string{"unit_math"}) {
		t.Errorf("Passed = %v, want [unit_math]", got)
	}
	if got := sortedCopy(res.Failed); !reflect.DeepEqual(got, []string{"unit_io"}) {
		t.Errorf("Failed = %v, want [unit_io]", got)
	}
}

func TestParseCTestVerboseTextNoMatch(t *testing.T) {
	if _, ok := ParseCTestVerboseText("Total Test time = 1.2 sec\n"); ok {
		t.Error("ok = true, want false for unrecognized output")
	}
}

func TestParseGoTestJSON(t *testing.T) {
	output := `{"Action":"run","Package":"pkg","Test":"TestA"}
{"Action":"pass","Package":"pkg","Test":"TestA","Elapsed":0.1}
{"Action":"fail","Package":"pkg","Test":"TestB","Elapsed":0.2}
{"Action":"skip","Package":"pkg","Test":"TestC"}
{"Action":"pass","Package":"pkg"}
`
	res, ok := ParseGoTestJSON(output)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if got := sortedCopy(res.Passed); !reflect.DeepEqual(got, []string{"pkg::TestA"}) {
		t.Errorf("Passed = %v, want [pkg::TestA]", got)
	}
	if got := sortedCopy(res.Failed); !reflect.DeepEqual(got, []string{"pkg::TestB"}) {
		t.Errorf("Failed = %v, want [pkg::TestB]", got)
	}
	if got := sortedCopy(res.Skipped); !reflect.DeepEqual(got, []string{"pkg::TestC"}) {
		t.Errorf("Skipped = %v, want [pkg::TestC]", got)
	}
	if math.Abs(res.DurationS-0.3) > 1e-9 {
		t.Errorf("DurationS = %v, want 0.3", res.DurationS)
	}
}

func TestParseGoTestJSONGarbage(t *testing.T) {
	if _, ok := ParseGoTestJSON("not json at all\n"); ok {
		t.Error("ok = true, want false")
	}
}

func TestParseJestJSONBytes(t *testing.T) {
	data := []byte(`{
		"startTime": 1000,
		"endTime": 2500,
		"testResults": [{
			"assertionResults": [
				{"fullName": "suite adds", "status": "passed"},
				{"ancestorTitles": ["suite"], "title": "subtracts", "status": "failed"},
				{"fullName": "suite todo", "status": "todo"}
			]
		}]
	}`)
	res, ok := ParseJestJSONBytes(data)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if got := sortedCopy(res.Passed); !reflect.DeepEqual(got, []string{"suite adds"}) {
		t.Errorf("Passed = %v, want [suite adds]", got)
	}
	if got := sortedCopy(res.Failed); !reflect.DeepEqual(got, []string{"suite subtracts"}) {
		t.Errorf("Failed = %v, want [suite subtracts]", got)
	}
	if got := sortedCopy(res.Skipped); !reflect.DeepEqual(got, []string{"suite todo"}) {
		t.Errorf("Skipped = %v, want [suite todo]", got)
	}
	if res.DurationS != 1.5 {
		t.Errorf("DurationS = %v, want 1.5", res.DurationS)
	}
}

func TestParseJestJSONBytesInvalid(t *testing.T) {
	if _, ok := ParseJestJSONBytes([]byte("not json")); ok {
		t.Error("ok = true, want false")
	}
}

func TestParseJestJSONMissingPath(t *testing.T) {
	if _, ok := ParseJestJSON("/nonexistent/path/does/not/exist.json"); ok {
		t.Error("ok = true, want false for missing file")
	}
}

func TestParseJUnitXMLBytesSingleSuite(t *testing.T) {
	data := []byte(`<testsuite>
		<testcase classname="pkg.Foo" name="testA" time="0.5"/>
		<testcase classname="pkg.Foo" name="testB" time="0.25"><failure/></testcase>
		<testcase classname="pkg.Foo" name="testC" time="0.1"><skipped/></testcase>
	</testsuite>`)
	res, ok := ParseJUnitXMLBytes(data)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if got := sortedCopy(res.Passed); !reflect.DeepEqual(got, []string{"pkg.Foo::testA"}) {
		t.Errorf("Passed = %v, want [pkg.Foo::testA]", got)
	}
	if got := sortedCopy(res.Failed); !reflect.DeepEqual(got, []string{"pkg.Foo::testB"}) {
		t.Errorf("Failed = %v, want [pkg.Foo::testB]", got)
	}
	if got := sortedCopy(res.Skipped); !reflect.DeepEqual(got, []string{"pkg.Foo::testC"}) {
		t.Errorf("Skipped = %v, want [pkg.Foo::testC]", got)
	}
	if res.DurationS != 0.85 {
		t.Errorf("DurationS = %v, want 0.85", res.DurationS)
	}
}

func TestParseJUnitXMLBytesMultiSuite(t *testing.T) {
	data := []byte(`<testsuites>
		<testsuite><testcase name="a" classname="X"/></testsuite>
		<testsuite><testcase name="b" classname="Y"><error/></testcase></testsuite>
	</testsuites>`)
	res, ok := ParseJUnitXMLBytes(data)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if len(res.Passed) != 1 || len(res.Failed) != 1 {
		t.Errorf("got Passed=%v Failed=%v, want 1 and 1", res.Passed, res.Failed)
	}
}

func TestParseJUnitXMLBytesInvalid(t *testing.T) {
	if _, ok := ParseJUnitXMLBytes([]byte("not xml")); ok {
		t.Error("ok = true, want false")
	}
}

func TestParseMochaJSONBytes(t *testing.T) {
	data := []byte(`{
		"stats": {"duration": 1500},
		"passes": [{"fullTitle": "a passes"}],
		"failures": [{"title": "b", "fullTitle": ""}],
		"pending": [{"fullTitle": "c pending"}]
	}`)
	res, ok := ParseMochaJSONBytes(data)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if got := sortedCopy(res.Passed); !reflect.DeepEqual(got, []string{"a passes"}) {
		t.Errorf("Passed = %v, want [a passes]", got)
	}
	if got := sortedCopy(res.Failed); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("Failed = %v, want [b] (fallback to title when fullTitle empty)", got)
	}
	if got := sortedCopy(res.Skipped); !reflect.DeepEqual(got, []string{"c pending"}) {
		t.Errorf("Skipped = %v, want [c pending]", got)
	}
	if res.DurationS != 1.5 {
		t.Errorf("DurationS = %v, want 1.5", res.DurationS)
	}
}

func TestSynthesizePlaceholders(t *testing.T) {
	cases := []struct {
		name       string
		output     string
		wantOK     bool
		wantPassed int
		wantFailed int
	}{
		{"normal summary", "Tests run: 5, Failures: 2", true, 3, 2},
		{"all failures clamp", "Tests run: 3, Failures: 9", true, 0, 3},
		{"no summary line", "nothing to see here", false, 0, 0},
		{"zero total", "Tests run: 0, Failures: 0", false, 0, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			res, ok := SynthesizePlaceholders(c.output)
			if ok != c.wantOK {
				t.Fatalf("ok = %v, want %v", ok, c.wantOK)
			}
			if !ok {
				return
			}
			if !res.Unstable {
				t.Error("Unstable = false, want true")
			}
			if len(res.Passed) != c.wantPassed {
				t.Errorf("len(Passed) = %d, want %d", len(res.Passed), c.wantPassed)
			}
			if len(res.Failed) != c.wantFailed {
				t.Errorf("len(Failed) = %d, want %d", len(res.Failed), c.wantFailed)
			}
		})
	}
}

func TestParsePytestVerboseText(t *testing.T) {
	output := "tests/test_a.py::test_one PASSED\n" +
		"tests/test_a.py::test_two[param] FAILED\n" +
		"tests/test_a.py::test_three SKIPPED\n" +
		"===== 1 passed, 1 failed, 1 skipped in 0.33s =====\n"
	res, ok := ParsePytestVerboseText(output)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if got := sortedCopy(res.Passed); !reflect.DeepEqual(got, []string{"tests/test_a.py::test_one"}) {
		t.Errorf("Passed = %v", got)
	}
	if got := sortedCopy(res.Failed); !reflect.DeepEqual(got, []string{"tests/test_a.py::test_two[param]"}) {
		t.Errorf("Failed = %v", got)
	}
	if got := sortedCopy(res.Skipped); !reflect.DeepEqual(got, []string{"tests/test_a.py::test_three"}) {
		t.Errorf("Skipped = %v", got)
	}
	if res.DurationS != 0.33 {
		t.Errorf("DurationS = %v, want 0.33", res.DurationS)
	}
}

func TestParseRSpecJSONBytes(t *testing.T) {
	data := []byte(`{
		"examples": [
			{"full_description": "Foo does a thing", "status": "passed"},
			{"full_description": "Foo fails a thing", "status": "failed"},
			{"full_description": "Foo skips a thing", "status": "pending"}
		],
		"summary": {"duration": 0.77}
	}`)
	res, ok := ParseRSpecJSONBytes(data)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if len(res.Passed) != 1 || len(res.Failed) != 1 || len(res.Skipped) != 1 {
		t.Errorf("got Passed=%v Failed=%v Skipped=%v", res.Passed, res.Failed, res.Skipped)
	}
	if res.DurationS != 0.77 {
		t.Errorf("DurationS = %v, want 0.77", res.DurationS)
	}
}

func TestParseTAPLike(t *testing.T) {
	output := "✔ adds numbers\n" +
		"✖ subtracts numbers\n" +
		"⊘ skips this one\n" +
		"ok 4 - named ok style\n" +
		"not ok 5 - named fail style\n"
	res, ok := ParseTAPLike(output)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if got := sortedCopy(res.Passed); !reflect.DeepEqual(got, []string{"adds numbers", "named ok style"}) {
		t.Errorf("Passed = %v", got)
	}
	if got := sortedCopy(res.Failed); !reflect.DeepEqual(got, []string{"named fail style", "subtracts numbers"}) {
		t.Errorf("Failed = %v", got)
	}
	if got := sortedCopy(res.Skipped); !reflect.DeepEqual(got, []string{"skips this one"}) {
		t.Errorf("Skipped = %v", got)
	}
}

func TestParseTRXBytes(t *testing.T) {
	data := []byte(`<TestRun>
		<Results>
			<UnitTestResult testName="T1" outcome="Passed" duration="00:00:01.500"/>
			<UnitTestResult testName="T2" outcome="Failed" duration="00:00:00.250"/>
			<UnitTestResult testName="T3" outcome="NotExecuted" duration="00:00:00.000"/>
		</Results>
	</TestRun>`)
	res, ok := ParseTRXBytes(data)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if got := sortedCopy(res.Passed); !reflect.DeepEqual(got, []string{"T1"}) {
		t.Errorf("Passed = %v, want [T1]", got)
	}
	if got := sortedCopy(res.Failed); !reflect.DeepEqual(got, []string{"T2"}) {
		t.Errorf("Failed = %v, want [T2]", got)
	}
	if got := sortedCopy(res.Skipped); !reflect.DeepEqual(got, []string{"T3"}) {
		t.Errorf("Skipped = %v, want [T3]", got)
	}
	if res.DurationS != 1.75 {
		t.Errorf("DurationS = %v, want 1.75", res.DurationS)
	}
}

func TestParseTRXDuration(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"00:00:01.500", 1.5},
		{"00:01:00.000", 60},
		{"01:00:00.000", 3600},
		{"garbage", 0},
		{"1:2", 0},
	}
	for _, c := range cases {
		if got := parseTRXDuration(c.in); got != c.want {
			t.Errorf("parseTRXDuration(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseUnittestVerboseText(t *testing.T) {
	output := "test_one (mod.ClassA) ... ok\n" +
		"test_two (mod.ClassA) ... FAIL\n" +
		"test_three (mod.ClassA) ... ERROR\n" +
		"test_four (mod.ClassA) ... skipped 'reason'\n" +
		"Ran 4 tests in 0.12s\n"
	res, ok := ParseUnittestVerboseText(output)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if got := sortedCopy(res.Passed); !reflect.DeepEqual(got, []string{"mod.ClassA::test_one"}) {
		t.Errorf("Passed = %v", got)
	}
	if got := sortedCopy(res.Failed); !reflect.DeepEqual(got, []string{"mod.ClassA::test_three", "mod.ClassA::test_two"}) {
		t.Errorf("Failed = %v", got)
	}
	if got := sortedCopy(res.Skipped); !reflect.DeepEqual(got, []string{"mod.ClassA::test_four"}) {
		t.Errorf("Skipped = %v", got)
	}
	if res.DurationS != 0.12 {
		t.Errorf("DurationS = %v, want 0.12", res.DurationS)
	}
}

func TestParseFloatSafe(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"1.5", 1.5},
		{"not-a-number", 0},
	}
	for _, c := range cases {
		if got := parseFloatSafe(c.in); got != c.want {
			t.Errorf("parseFloatSafe(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestChain(t *testing.T) {
	empty := func() (outcome.RunResult, bool) { return outcome.RunResult{}, false }
	first := func() (outcome.RunResult, bool) {
		return outcome.RunResult{Passed: []string{"a"}}, true
	}
	second := func() (outcome.RunResult, bool) {
		return outcome.RunResult{Passed: []string{"never reached"}}, true
	}

	res, ok := Chain(empty, first, second)
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if got := sortedCopy(res.Passed); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("Passed = %v, want [a] (first strategy with tests wins)", got)
	}
}

func TestChainAllEmpty(t *testing.T) {
	empty := func() (outcome.RunResult, bool) { return outcome.RunResult{}, false }
	_, ok := Chain(empty, empty)
	if ok {
		t.Error("ok = true, want false when no strategy produces tests")
	}
}
