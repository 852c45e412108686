// Package config holds the immutable configuration values the rest of
// the analyzer is constructed with, in place of package-level constants.
package config

import "time"

// InstallHint maps a runner name to human-readable runtime install
// instructions, surfaced in preflight blockers and missing-runtime
// diagnostics.
type InstallHint struct {
	Runner  string
	Message string
}

// Timeouts bounds every external subprocess the analyzer can launch.
type Timeouts struct {
	Checkout time.Duration
	Fetch    time.Duration
	Diff     time.Duration
	Install  time.Duration
	Test     time.Duration
}

// DefaultTimeouts mirrors spec §5: checkout <=60s, fetch <=120s, diff
// <=30s, install default 300s, test default 600s.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Checkout: 60 * time.Second,
		Fetch:    120 * time.Second,
		Diff:     30 * time.Second,
		Install:  300 * time.Second,
		Test:     600 * time.Second,
	}
}

// Config is the immutable, constructor-injected configuration shared by
// the registry and the orchestrator.
type Config struct {
	Timeouts Timeouts

	// ProjectMarkers are the files whose presence in a directory marks
	// it as a Package per the data model.
	ProjectMarkers []string

	// InstallHints maps runner name -> install instructions, used by
	// preflight and by the orchestrator's runtime-missing diagnostics.
	InstallHints map[string]string

	// UnstablePatterns are the case-insensitive regexes the validator
	// rejects F2P/P2P identifiers against for JS/TS/C++ packages.
	UnstablePatterns []string

	// JSMonorepoDirs are the conventional subdirectory names probed when
	// the repository root has no package.json.
	JSMonorepoDirs []string

	// RegistryFloor is the minimum detection score accepted by the
	// runner registry.
	RegistryFloor int
}

// Default returns the analyzer's default configuration.
func Default() *Config {
	return &Config{
		Timeouts: DefaultTimeouts(),
		ProjectMarkers: []string{
			"package.json",
			"pyproject.toml",
			"setup.py",
			"requirements.txt",
			"Gemfile",
			"Cargo.toml",
			"go.mod",
			"pom.xml",
			"build.gradle",
		},
		InstallHints: map[string]string{
			"pytest":     "Install Python: https://python.org/downloads/ or 'sudo apt install python3' / 'brew install python'",
			"unittest":   "Install Python: https://python.org/downloads/ or 'sudo apt install python3' / 'brew install python'",
			"jest":       "Install Node.js: https://nodejs.org/ or 'sudo apt install nodejs' / 'brew install node'",
			"vitest":     "Install Node.js: https://nodejs.org/ or 'sudo apt install nodejs' / 'brew install node'",
			"mocha":      "Install Node.js: https://nodejs.org/ or 'sudo apt install nodejs' / 'brew install node'",
			"node:test":  "Install Node.js: https://nodejs.org/ or 'sudo apt install nodejs' / 'brew install node'",
			"go test":    "Install Go: https://go.dev/dl/ or 'sudo apt install golang' / 'brew install go'",
			"cargo test": "Install Rust: https://rustup.rs/ or curl --proto '=https' --tlsv1.2 -sSf https://sh.rustup.rs | sh",
			"maven":      "Install Maven & Java: 'sudo apt install maven' / 'brew install maven'",
			"gradle":     "Install Gradle & Java: 'sudo apt install gradle' / 'brew install gradle'",
			"sbt":        "Install sbt: https://www.scala-sbt.org/download.html or 'brew install sbt'",
			"rspec":      "Install Ruby: https://www.ruby-lang.org/en/downloads/ or 'sudo apt install ruby' / 'brew install ruby'",
			"minitest":   "Install Ruby: https://www.ruby-lang.org/en/downloads/ or 'sudo apt install ruby' / 'brew install ruby'",
			"cmake":      "Install CMake: https://cmake.org/download/ or 'sudo apt install cmake' / 'brew install cmake'",
			"make":       "Install Make: 'sudo apt install build-essential' / 'xcode-select --install' (macOS)",
			"googletest": "Install CMake: https://cmake.org/download/ or 'sudo apt install cmake' / 'brew install cmake'",
			"dotnet test": "Install .NET SDK: https://dotnet.microsoft.com/download or 'sudo apt install dotnet-sdk-8.0'",
		},
		UnstablePatterns: []string{
			`\d{10,13}`,
			`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`,
			`built in \d+(\.\d+)?s`,
			`in \d+(\.\d+)?\s*(ms|s|sec|seconds)`,
			`[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}`,
			`0x[a-f0-9]{8,}`,
		},
		JSMonorepoDirs: []string{"web", "app", "apps", "packages", "frontend", "client", "src"},
		RegistryFloor:  30,
	}
}
