// Package analysiserr provides standardized error messaging for the
// F2P/P2P analysis engine, adapted from Orizon's internal/errors
// package to the five error kinds of the analyzer's error model:
// configuration, environment, transient, structural, and internal.
package analysiserr

import "fmt"

// Category represents one of the five kinds of error the analyzer can
// surface.
type Category string

const (
	CategoryConfiguration Category = "CONFIGURATION"
	CategoryEnvironment   Category = "ENVIRONMENT"
	CategoryTransient      Category = "TRANSIENT"
	CategoryStructural     Category = "STRUCTURAL"
	CategoryInternal       Category = "INTERNAL"
)

// AnalysisError is a consistent error format carrying a category, a
// stable code (matching AnalysisResult.error_code / rejection_reason
// values), a human message, and free-form context for diagnostics.
type AnalysisError struct {
	Category Category
	Code     string
	Message  string
	Context  map[string]interface{}
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// New creates an AnalysisError.
func New(category Category, code, message string, context map[string]interface{}) *AnalysisError {
	return &AnalysisError{Category: category, Code: code, Message: message, Context: context}
}

// Configuration errors: unusable repository, no test framework, no
// changed/test files. These are terminal.
func NoChangedFiles() *AnalysisError {
	return New(CategoryConfiguration, "NO_CHANGED_FILES", "could not determine changed files for this PR", nil)
}

func NoTestFiles() *AnalysisError {
	return New(CategoryConfiguration, "NO_TEST_FILES", "no test files changed in PR", nil)
}

func NoTestRunner(packages []string) *AnalysisError {
	return New(CategoryConfiguration, "NO_TEST_RUNNER", "no supported test runner found for affected packages",
		map[string]interface{}{"packages_no_runner": packages})
}

// Environment errors: runtime missing or version-incompatible. Terminal.
func MissingRuntime(language, detail string) *AnalysisError {
	return New(CategoryEnvironment, "MISSING_RUNTIME", fmt.Sprintf("%s runtime not available: %s", language, detail),
		map[string]interface{}{"language": language})
}


// Transient errors: install/test stage failures, recorded per package;
// analysis continues if at least one package completes all three stages.
func StageFailed(pkg, stage, detail string) *AnalysisError {
	return New(CategoryTransient, "BUILD_FAILED", fmt.Sprintf("%s %s: %s", pkg, stage, detail),
		map[string]interface{}{"package": pkg, "stage": stage})
}

func Timeout(pkg, stage string) *AnalysisError {
	return New(CategoryTransient, "TIMEOUT", fmt.Sprintf("%s %s: timed out", pkg, stage),
		map[string]interface{}{"package": pkg, "stage": stage})
}

// Structural errors: empty/contradictory classification output,
// surfaced as a RejectionReason rather than error_code.
func Rejection(code string) *AnalysisError {
	return New(CategoryStructural, code, "analysis rejected: "+code, nil)
}
