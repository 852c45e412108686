package python

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPytestDetectScoresConfigAndTests(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pytest.ini"), "[pytest]\n")
	writeFile(t, filepath.Join(dir, "conftest.py"), "")
	writeFile(t, filepath.Join(dir, "tests", "test_foo.py"), "")
	writeFile(t, filepath.Join(dir, "tests", "conftest.py"), "")
	if got := (Pytest{}).Detect(dir); got != 100 {
		t.Errorf("Pytest.Detect = %d, want 100 (clamped)", got)
	}
}

func TestPytestDetectEmptyDir(t *testing.T) {
	if got := (Pytest{}).Detect(t.TempDir()); got != 0 {
		t.Errorf("Pytest.Detect on empty dir = %d, want 0", got)
	}
}

func TestPytestDetectPyprojectToolSection(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pyproject.toml"), "[tool.pytest.ini_options]\n")
	if got := (Pytest{}).Detect(dir); got != 50 {
		t.Errorf("Pytest.Detect with [tool.pytest...] = %d, want 50", got)
	}
}

func TestUnittestDetectRequiresTestFiles(t *testing.T) {
	if got := (Unittest{}).Detect(t.TempDir()); got != 0 {
		t.Errorf("Unittest.Detect on empty dir = %d, want 0", got)
	}
}

func TestUnittestDetectScoresTestCase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tests", "test_foo.py"), "import unittest\n\nclass FooTest(unittest.TestCase):\n    pass\n")
	if got := (Unittest{}).Detect(dir); got != 70 {
		t.Errorf("Unittest.Detect = %d, want 70", got)
	}
}

func TestUnittestDetectYieldsToPytest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "tests", "test_foo.py"), "import unittest\n\nclass FooTest(unittest.TestCase):\n    pass\n")
	writeFile(t, filepath.Join(dir, "pytest.ini"), "[pytest]\n")
	writeFile(t, filepath.Join(dir, "conftest.py"), "")
	got := (Unittest{}).Detect(dir)
	if got >= 70 {
		t.Errorf("Unittest.Detect = %d, want reduced score when pytest is strongly present", got)
	}
}

func TestRequiredPythonVersionFromPyproject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pyproject.toml"), `requires-python = ">=3.11"`+"\n")
	if got := requiredPythonVersion(dir); got != "3.11" {
		t.Errorf("requiredPythonVersion = %q, want %q", got, "3.11")
	}
}

func TestRequiredPythonVersionFromDockerfile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Dockerfile"), "FROM python:3.9-slim\n")
	if got := requiredPythonVersion(dir); got != "3.9" {
		t.Errorf("requiredPythonVersion = %q, want %q", got, "3.9")
	}
}

func TestRequiredPythonVersionFromSetupCfg(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "setup.cfg"), "[options]\npython_requires = >=3.8\n")
	if got := requiredPythonVersion(dir); got != "3.8" {
		t.Errorf("requiredPythonVersion = %q, want %q", got, "3.8")
	}
}

func TestRequiredPythonVersionAbsent(t *testing.T) {
	if got := requiredPythonVersion(t.TempDir()); got != "" {
		t.Errorf("requiredPythonVersion = %q, want empty", got)
	}
}

func TestCheckPythonVersionCompatibleNoRequirement(t *testing.T) {
	ok, msg := checkPythonVersionCompatible(nil, t.TempDir(), "Python")
	if !ok || msg != "" {
		t.Errorf("checkPythonVersionCompatible with no requirement = (%v, %q), want (true, \"\")", ok, msg)
	}
}
