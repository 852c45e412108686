package registry

import (
	"context"
	"testing"

	"github.com/orizon-lang/f2p-analyzer/internal/config"
	"github.com/orizon-lang/f2p-analyzer/internal/outcome"
	"github.com/orizon-lang/f2p-analyzer/internal/runner"
)

// fakeRunner is a minimal runner.Runner for exercising registry logic
// without touching any real language toolchain.
type fakeRunner struct {
	name  string
	lang  string
	score int
	panic bool
}

func (f fakeRunner) Name() string     { return f.name }
func (f fakeRunner) Language() string { return f.lang }
func (f fakeRunner) Detect(repoPath string) int {
	if f.panic {
		panic("boom")
	}
	return f.score
}
func (f fakeRunner) CheckRuntime(ctx context.Context) (bool, string)             { return true, "" }
func (f fakeRunner) RequiredVersion(repoPath string) string                      { return "" }
func (f fakeRunner) CheckVersionCompatible(ctx context.Context, repoPath string) (bool, string) {
	return true, ""
}
func (f fakeRunner) Install(ctx context.Context, repoPath string, timeoutSeconds int) (bool, string) {
	return true, ""
}
func (f fakeRunner) Run(ctx context.Context, repoPath string, timeoutSeconds int) outcome.RunResult {
	return outcome.RunResult{}
}

func TestSafeDetectRecoversFromPanic(t *testing.T) {
	r := fakeRunner{name: "broken", panic: true}
	if got := safeDetect(r, "."); got != 0 {
		t.Errorf("safeDetect on panicking runner = %d, want 0", got)
	}
}

func TestSafeDetectReturnsScore(t *testing.T) {
	r := fakeRunner{name: "ok", score: 42}
	if got := safeDetect(r, "."); got != 42 {
		t.Errorf("safeDetect = %d, want 42", got)
	}
}

func TestOrderedCandidatesUnknownHintReturnsAll(t *testing.T) {
	out := orderedCandidates("Cobol")
	if len(out) != len(All) {
		t.Fatalf("len(out) = %d, want %d (fall back to All)", len(out), len(All))
	}
}

func TestOrderedCandidatesKnownHintLeadsAndDeduplicates(t *testing.T) {
	out := orderedCandidates("Python")
	if len(out) != len(All) {
		t.Fatalf("len(out) = %d, want %d (same set, just reordered)", len(out), len(All))
	}
	if out[0].Name() != "pytest" || out[1].Name() != "unittest" {
		t.Errorf("hinted runners should lead: got [%s %s]", out[0].Name(), out[1].Name())
	}
	seen := make(map[string]int)
	for _, r := range out {
		seen[r.Name()]++
	}
	for name, count := range seen {
		if count != 1 {
			t.Errorf("runner %s appeared %d times, want 1", name, count)
		}
	}
}

func TestGetByName(t *testing.T) {
	if r := GetByName("PYTEST"); r == nil || r.Name() != "pytest" {
		t.Errorf("GetByName is case-insensitive, got %v", r)
	}
	if r := GetByName("does-not-exist"); r != nil {
		t.Errorf("GetByName(unknown) = %v, want nil", r)
	}
}

func TestGetRunnerMissingRepoPath(t *testing.T) {
	cfg := config.Config{RegistryFloor: 10}
	if got := GetRunner("/path/does/not/exist/at/all", "", cfg, nil); got != nil {
		t.Errorf("GetRunner on missing path = %v, want nil", got)
	}
}

func TestGetRunnerBelowFloorReturnsNil(t *testing.T) {
	cfg := config.Config{RegistryFloor: 1000}
	if got := GetRunner(t.TempDir(), "", cfg, nil); got != nil {
		t.Errorf("GetRunner below floor = %v, want nil", got)
	}
}

func TestGetAllDetectedOnEmptyDirHasNoPositiveScores(t *testing.T) {
	out := GetAllDetected(t.TempDir())
	if len(out) != 0 {
		t.Errorf("GetAllDetected on empty dir = %v, want empty (no marker files present)", out)
	}
}
