package ccpp

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

func TestCMakeDetect(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "CMakeLists.txt"), "enable_testing()\nfind_package(GTest REQUIRED)\n")
	if got := (CMake{}).Detect(dir); got != 100 {
		t.Errorf("CMake.Detect = %d, want 100", got)
	}
}

func TestCMakeDetectNoCMakeLists(t *testing.T) {
	if got := (CMake{}).Detect(t.TempDir()); got != 0 {
		t.Errorf("CMake.Detect without CMakeLists.txt = %d, want 0", got)
	}
}

func TestCMakeVersionAlwaysCompatible(t *testing.T) {
	if got := (CMake{}).RequiredVersion(t.TempDir()); got != "" {
		t.Errorf("RequiredVersion = %q, want empty (C/C++ has no pinned-version convention)", got)
	}
	ok, msg := (CMake{}).CheckVersionCompatible(nil, t.TempDir())
	if !ok || msg != "" {
		t.Errorf("CheckVersionCompatible = (%v, %q), want (true, \"\")", ok, msg)
	}
}

func TestMakeDetectRejectsOtherEcosystemMarkers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), "{}")
	writeFile(t, filepath.Join(dir, "main.c"), "int main(){return 0;}")
	if got := (Make{}).Detect(dir); got != 0 {
		t.Errorf("Make.Detect with package.json present = %d, want 0", got)
	}
}

func TestMakeDetectRequiresCSources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Makefile"), "test:\n\t./run\n")
	if got := (Make{}).Detect(dir); got != 0 {
		t.Errorf("Make.Detect without any .c/.cpp files = %d, want 0", got)
	}
}

func TestMakeDetectScoresTestTargets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.c"), "int main(){return 0;}")
	writeFile(t, filepath.Join(dir, "Makefile"), "test:\n\t./run\ncheck:\n\t./run\n")
	if got := (Make{}).Detect(dir); got != 100 {
		t.Errorf("Make.Detect with test+check targets = %d, want 100", got)
	}
}

func TestMakeDetectYieldsToCMake(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.c"), "int main(){return 0;}")
	writeFile(t, filepath.Join(dir, "Makefile"), "test:\n\t./run\n")
	writeFile(t, filepath.Join(dir, "CMakeLists.txt"), "enable_testing()\n")
	if got := (Make{}).Detect(dir); got != 40 {
		t.Errorf("Make.Detect = %d, want 40 (80 base minus 40 CMake deduction)", got)
	}
}

func TestGoogleTestDetect(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "CMakeLists.txt"), "find_package(GTest REQUIRED)\ngtest_discover_tests(mytests)\n")
	writeFile(t, filepath.Join(dir, "src", "mytest.cpp"), "#include <gtest/gtest.h>\nTEST(Foo, Bar) {}\n")
	if got := (GoogleTest{}).Detect(dir); got != 100 {
		t.Errorf("GoogleTest.Detect = %d, want 100", got)
	}
}

func TestGoogleTestVersionAlwaysCompatible(t *testing.T) {
	ok, msg := (GoogleTest{}).CheckVersionCompatible(nil, t.TempDir())
	if !ok || msg != "" {
		t.Errorf("CheckVersionCompatible = (%v, %q), want (true, \"\")", ok, msg)
	}
}
