package report

import "testing"

func TestVerdictRejected(t *testing.T) {
	r := &AnalysisResult{RejectionReason: "empty_f2p"}
	if got := r.Verdict(); got != "REJECTED:empty_f2p" {
		t.Errorf("Verdict() = %q, want REJECTED:empty_f2p", got)
	}
}

func TestVerdictErrorCodes(t *testing.T) {
	cases := []struct {
		code string
		want string
	}{
		{"BUILD_FAILED", "BUILD_FAILED"},
		{"TIMEOUT", "TIMEOUT"},
		{"NO_TESTS", "NO_TESTS"},
		{"NO_TEST_RUNNER", "UNKNOWN"},
	}
	for _, c := range cases {
		r := &AnalysisResult{ErrorCode: c.code}
		if got := r.Verdict(); got != c.want {
			t.Errorf("Verdict() with code %q = %q, want %q", c.code, got, c.want)
		}
	}
}

func TestVerdictValidAndPartial(t *testing.T) {
	valid := &AnalysisResult{Success: true, F2PTests: []string{"a"}, P2PTests: []string{"b"}}
	if got := valid.Verdict(); got != "VALID" {
		t.Errorf("Verdict() = %q, want VALID", got)
	}

	noF2P := &AnalysisResult{Success: true, P2PTests: []string{"b"}}
	if got := noF2P.Verdict(); got != "NO_F2P" {
		t.Errorf("Verdict() = %q, want NO_F2P", got)
	}

	noP2P := &AnalysisResult{Success: true, F2PTests: []string{"a"}}
	if got := noP2P.Verdict(); got != "NO_P2P" {
		t.Errorf("Verdict() = %q, want NO_P2P", got)
	}
}

func TestToJSONRoundTrips(t *testing.T) {
	r := &AnalysisResult{
		PRNumber: 42,
		Success:  true,
		F2PTests: []string{"t1"},
		P2PTests: []string{"t2"},
	}
	data, err := r.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	if len(data) == 0 {
		t.Error("ToJSON() returned empty output")
	}
}
