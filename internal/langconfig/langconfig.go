// Package langconfig supplies per-language test-file-path detection
// rules for the changed-file filter, plus a substring-heuristic
// fallback for languages with no dedicated rule (mirrors the external
// language-config lookup the analyzer falls back on when no language
// hint is supplied).
package langconfig

import "strings"

// Config is one language's test-file-path recognition rule: a set of
// path substrings/suffixes and directory names that mark a changed
// file as a test file.
type Config struct {
	Language string
	// DirMarkers are path components that mark every file beneath them
	// as a test file (e.g. "__tests__", "spec", "test").
	DirMarkers []string
	// NameContains are substrings of the base filename that mark it as
	// a test file (e.g. ".test.", ".spec.", "_test.").
	NameContains []string
	// NameSuffixes are filename suffixes, extension included, that
	// mark a test file (e.g. "_test.go", "Test.java").
	NameSuffixes []string
	// NamePrefixes are filename prefixes that mark a test file (e.g.
	// "test_" for Python).
	NamePrefixes []string
}

// byLanguage holds one Config per recognized language, keyed the same
// way the registry's language hints are spelled.
var byLanguage = map[string]Config{
	"Python": {
		Language:     "Python",
		DirMarkers:   []string{"tests", "test"},
		NamePrefixes: []string{"test_"},
		NameSuffixes: []string{"_test.py"},
	},
	"JavaScript": {
		Language:     "JavaScript",
		DirMarkers:   []string{"__tests__", "test", "tests", "spec"},
		NameContains: []string{".test.", ".spec."},
		NameSuffixes: []string{".test.js", ".spec.js", ".test.jsx", ".spec.jsx"},
	},
	"TypeScript": {
		Language:     "TypeScript",
		DirMarkers:   []string{"__tests__", "test", "tests", "spec"},
		NameContains: []string{".test.", ".spec."},
		NameSuffixes: []string{".test.ts", ".spec.ts", ".test.tsx", ".spec.tsx"},
	},
	"Go": {
		Language:     "Go",
		NameSuffixes: []string{"_test.go"},
	},
	"Rust": {
		Language:   "Rust",
		DirMarkers: []string{"tests"},
		NameContains: []string{
			"test",
		},
	},
	"Java": {
		Language:     "Java",
		NameSuffixes: []string{"Test.java", "Tests.java", "IT.java"},
		NamePrefixes: []string{"Test"},
	},
	"Scala": {
		Language:     "Scala",
		NameSuffixes: []string{"Test.scala", "Spec.scala", "Suite.scala"},
	},
	"Kotlin": {
		Language:     "Kotlin",
		NameSuffixes: []string{"Test.kt", "Tests.kt"},
	},
	"Ruby": {
		Language:     "Ruby",
		DirMarkers:   []string{"spec", "test"},
		NameSuffixes: []string{"_spec.rb", "_test.rb"},
		NamePrefixes: []string{"test_"},
	},
	"C++": {
		Language:     "C++",
		NameContains: []string{"test"},
		NameSuffixes: []string{"_test.cpp", "_test.cc", "Test.cpp"},
	},
	"C": {
		Language:     "C",
		NameContains: []string{"test"},
	},
	"C#": {
		Language:     "C#",
		NameSuffixes: []string{"Test.cs", "Tests.cs"},
	},
}

// Get returns the Config for languageHint, and false if unrecognized.
func Get(languageHint string) (Config, bool) {
	c, ok := byLanguage[languageHint]
	return c, ok
}

// IsTestFilePath reports whether path looks like a test file under cfg.
func IsTestFilePath(path string, cfg Config) bool {
	lower := strings.ToLower(path)
	parts := strings.Split(lower, "/")
	base := parts[len(parts)-1]

	for _, dir := range cfg.DirMarkers {
		d := strings.ToLower(dir)
		for _, p := range parts[:len(parts)-1] {
			if p == d {
				return true
			}
		}
	}
	for _, s := range cfg.NameContains {
		if strings.Contains(base, strings.ToLower(s)) {
			return true
		}
	}
	for _, s := range cfg.NameSuffixes {
		if strings.HasSuffix(base, strings.ToLower(s)) {
			return true
		}
	}
	for _, p := range cfg.NamePrefixes {
		if strings.HasPrefix(base, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// fallbackMarkers is the generic substring heuristic used when no
// language hint is recognized.
var fallbackMarkers = []string{"test", "spec", "__tests__"}

// IsTestFilePathFallback applies the language-agnostic substring
// heuristic to path.
func IsTestFilePathFallback(path string) bool {
	lower := strings.ToLower(path)
	for _, m := range fallbackMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
