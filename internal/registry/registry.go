// Package registry auto-detects the best Runner for a repository and
// exposes the secondary "list every candidate" API used by preflight.
package registry

import (
	"os"
	"sort"
	"strings"

	"github.com/orizon-lang/f2p-analyzer/internal/analysislog"
	"github.com/orizon-lang/f2p-analyzer/internal/config"
	"github.com/orizon-lang/f2p-analyzer/internal/runner"
	"github.com/orizon-lang/f2p-analyzer/internal/runner/detect/ccpp"
	"github.com/orizon-lang/f2p-analyzer/internal/runner/detect/dotnet"
	"github.com/orizon-lang/f2p-analyzer/internal/runner/detect/golang"
	"github.com/orizon-lang/f2p-analyzer/internal/runner/detect/javascript"
	"github.com/orizon-lang/f2p-analyzer/internal/runner/detect/jvm"
	"github.com/orizon-lang/f2p-analyzer/internal/runner/detect/python"
	"github.com/orizon-lang/f2p-analyzer/internal/runner/detect/rust"
	"github.com/orizon-lang/f2p-analyzer/internal/runner/detect/ruby"
)

// All is every Runner this registry knows, in priority order within
// each language. Order only matters as a detect() score tiebreaker.
var All = []runner.Runner{
	python.Pytest{},
	python.Unittest{},

	javascript.Vitest{},
	javascript.Jest{},
	javascript.Mocha{},
	javascript.NodeTest{},

	golang.GoTest{},

	rust.Cargo{},

	jvm.Gradle{},
	jvm.Maven{},
	jvm.Sbt{},

	ruby.RSpec{},
	ruby.Minitest{},

	ccpp.GoogleTest{},
	ccpp.CMake{},
	ccpp.Make{},

	dotnet.DotNet{},
}

// ByLanguage narrows candidate order when a language hint is supplied.
var ByLanguage = map[string][]runner.Runner{
	"Python":     {python.Pytest{}, python.Unittest{}},
	"JavaScript": {javascript.Vitest{}, javascript.Jest{}, javascript.Mocha{}, javascript.NodeTest{}},
	"TypeScript": {javascript.Vitest{}, javascript.Jest{}, javascript.Mocha{}, javascript.NodeTest{}},
	"Go":         {golang.GoTest{}},
	"Rust":       {rust.Cargo{}},
	"Java":       {jvm.Gradle{}, jvm.Maven{}},
	"Scala":      {jvm.Sbt{}, jvm.Gradle{}},
	"Kotlin":     {jvm.Gradle{}, jvm.Maven{}},
	"Ruby":       {ruby.RSpec{}, ruby.Minitest{}},
	"C++":        {ccpp.GoogleTest{}, ccpp.CMake{}, ccpp.Make{}},
	"C":          {ccpp.CMake{}, ccpp.Make{}},
	"C#":         {dotnet.DotNet{}},
}

// Detected pairs a Runner with its detect() confidence score.
type Detected struct {
	Runner runner.Runner
	Score  int
}

// GetRunner auto-detects the single best Runner for repoPath. languageHint
// (if recognized) is tried first; candidates are then deduplicated against
// the full All list. Returns nil when no runner clears cfg.RegistryFloor.
func GetRunner(repoPath string, languageHint string, cfg config.Config, log *analysislog.Logger) runner.Runner {
	if log == nil {
		log = analysislog.Nop()
	}
	if _, err := os.Stat(repoPath); err != nil {
		log.Warn("repository path does not exist: %s", repoPath)
		return nil
	}

	candidates := orderedCandidates(languageHint)

	var best runner.Runner
	bestScore := 0
	for _, r := range candidates {
		score := safeDetect(r, repoPath)
		log.Debug("%s: score=%d", r.Name(), score)
		if score > bestScore {
			bestScore = score
			best = r
		}
	}

	if best != nil && bestScore >= cfg.RegistryFloor {
		log.Info("selected runner: %s (score: %d)", best.Name(), bestScore)
		return best
	}
	log.Warn("no suitable test runner found for %s", repoPath)
	return nil
}

// GetAllDetected returns every Runner with score > 0, sorted descending.
func GetAllDetected(repoPath string) []Detected {
	var out []Detected
	for _, r := range All {
		score := safeDetect(r, repoPath)
		if score > 0 {
			out = append(out, Detected{Runner: r, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// GetByName looks up a Runner by its stable Name(), case-insensitively.
func GetByName(name string) runner.Runner {
	lower := strings.ToLower(name)
	for _, r := range All {
		if strings.ToLower(r.Name()) == lower {
			return r
		}
	}
	return nil
}

func orderedCandidates(languageHint string) []runner.Runner {
	hinted, ok := ByLanguage[languageHint]
	if !ok {
		return All
	}
	seen := make(map[string]bool, len(hinted))
	out := make([]runner.Runner, 0, len(All))
	for _, r := range hinted {
		out = append(out, r)
		seen[r.Name()] = true
	}
	for _, r := range All {
		if !seen[r.Name()] {
			out = append(out, r)
		}
	}
	return out
}

// safeDetect isolates a single runner's Detect panic from the whole scan,
// mirroring the registry's tolerance of a single broken detector.
func safeDetect(r runner.Runner, repoPath string) (score int) {
	defer func() {
		if recover() != nil {
			score = 0
		}
	}()
	return r.Detect(repoPath)
}
