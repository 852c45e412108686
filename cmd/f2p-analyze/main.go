// Command f2p-analyze validates PR test changes against the
// base/before/after three-run methodology, classifying each test as
// Fail-to-Pass, Pass-to-Pass, Fail-to-Fail, or Pass-to-Fail.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/orizon-lang/f2p-analyzer/internal/analysislog"
	"github.com/orizon-lang/f2p-analyzer/internal/cli"
	"github.com/orizon-lang/f2p-analyzer/internal/config"
	"github.com/orizon-lang/f2p-analyzer/internal/orchestrator"
	"github.com/orizon-lang/f2p-analyzer/internal/preflight"
	"github.com/orizon-lang/f2p-analyzer/internal/registry"
)

func main() {
	var (
		base         string
		head         string
		prNumber     int
		prTitle      string
		timeout      int
		retries      int
		languageHint string
		doPreflight  bool
		doListRun    bool
		doDetect     bool
		jsonOutput   bool
		verbose      bool
	)

	flag.StringVar(&base, "base", "", "base commit SHA (before the PR)")
	flag.StringVar(&head, "head", "", "head commit SHA (after the PR)")
	flag.IntVar(&prNumber, "pr", 0, "PR number")
	flag.StringVar(&prTitle, "title", "", "PR title")
	flag.IntVar(&timeout, "timeout", 600, "test timeout in seconds")
	flag.IntVar(&retries, "retries", 0, "re-run the after stage this many extra times to flag flaky tests")
	flag.StringVar(&languageHint, "language", "", "language hint for runner detection")
	flag.BoolVar(&doPreflight, "preflight", false, "only run pre-flight check")
	flag.BoolVar(&doListRun, "list-runners", false, "list available test runners")
	flag.BoolVar(&doDetect, "detect", false, "detect test runner for repository")
	flag.BoolVar(&jsonOutput, "json", false, "output as JSON")
	flag.BoolVar(&verbose, "verbose", false, "verbose output")
	flag.BoolVar(&verbose, "v", false, "verbose output (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s <repo_path> [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Analyze a repository for F2P/P2P test coverage.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if doListRun {
		listRunners(jsonOutput)
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}
	repoPath := args[0]

	if _, err := os.Stat(repoPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Repository path does not exist: %s\n", repoPath)
		os.Exit(1)
	}

	ctx := context.Background()

	if doDetect {
		os.Exit(detect(ctx, repoPath, languageHint, jsonOutput))
	}

	if doPreflight {
		os.Exit(runPreflight(ctx, repoPath, languageHint, jsonOutput))
	}

	if base == "" || head == "" {
		fmt.Fprintln(os.Stderr, "Error: --base and --head are required for F2P/P2P analysis")
		flag.Usage()
		os.Exit(2)
	}

	level := analysislog.LevelInfo
	if verbose {
		level = analysislog.LevelDebug
	}
	log := analysislog.New(os.Stderr, level, false)

	cfg := *config.Default()
	cfg.Timeouts.Test = time.Duration(timeout) * time.Second

	az := orchestrator.New(repoPath, cfg, languageHint, log)
	az.Retries = retries
	result := az.Analyze(ctx, prNumber, prTitle, base, head, nil)

	if jsonOutput {
		data, err := result.ToJSON()
		if err != nil {
			cli.ExitWithError("failed to marshal result: %v", err)
		}
		fmt.Println(string(data))
	} else {
		fmt.Print(result.Text(verbose))
	}

	if result.Success && result.HasValidF2P() && result.HasValidP2P() {
		os.Exit(0)
	}
	os.Exit(1)
}

func listRunners(jsonOutput bool) {
	type entry struct {
		Name     string `json:"name"`
		Language string `json:"language"`
	}
	var entries []entry
	for _, r := range registry.All {
		entries = append(entries, entry{Name: r.Name(), Language: r.Language()})
	}
	if jsonOutput {
		data, _ := json.MarshalIndent(entries, "", "  ")
		fmt.Println(string(data))
		return
	}
	fmt.Println("Available test runners:")
	for _, e := range entries {
		fmt.Printf("  %-15s (%s)\n", e.Name, e.Language)
	}
}

func detect(ctx context.Context, repoPath, languageHint string, jsonOutput bool) int {
	r := registry.GetRunner(repoPath, languageHint, *config.Default(), nil)
	if r == nil {
		if jsonOutput {
			data, _ := json.MarshalIndent(map[string]string{"error": "No test runner detected"}, "", "  ")
			fmt.Println(string(data))
		} else {
			fmt.Println("No test runner detected for this repository")
		}
		return 1
	}
	runtimeOK, runtimeMsg := r.CheckRuntime(ctx)
	if jsonOutput {
		data, _ := json.MarshalIndent(map[string]interface{}{
			"name":              r.Name(),
			"language":          r.Language(),
			"runtime_available": runtimeOK,
		}, "", "  ")
		fmt.Println(string(data))
	} else {
		fmt.Printf("Detected runner: %s (%s)\n", r.Name(), r.Language())
		status := "unavailable"
		if runtimeOK {
			status = "available"
		}
		fmt.Printf("Runtime: %s %s\n", status, runtimeMsg)
	}
	return 0
}

func runPreflight(ctx context.Context, repoPath, languageHint string, jsonOutput bool) int {
	result := preflight.Check(ctx, repoPath, languageHint, *config.Default())
	if jsonOutput {
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
	} else {
		status := "Ready"
		if !result.CanRun {
			status = "Cannot run"
		}
		fmt.Printf("Pre-flight check: %s\n", status)
		if result.Detected.Framework != "" {
			fmt.Println("\nDetected:")
			fmt.Printf("  framework: %s\n", result.Detected.Framework)
			fmt.Printf("  language: %s\n", result.Detected.Language)
			fmt.Printf("  confidence: %d\n", result.Detected.Confidence)
			if result.Detected.Runtime != "" {
				fmt.Printf("  runtime: %s\n", result.Detected.Runtime)
			}
		}
		if len(result.Blockers) > 0 {
			fmt.Println("\nBlockers:")
			for _, b := range result.Blockers {
				fmt.Printf("  [%s] %s\n", b.Code, b.Message)
			}
		}
		if len(result.Warnings) > 0 {
			fmt.Println("\nWarnings:")
			for _, w := range result.Warnings {
				fmt.Printf("  [%s] %s\n", w.Code, w.Message)
			}
		}
	}
	if result.CanRun {
		return 0
	}
	return 1
}
