package javascript

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

func TestFindProjectRootAtRepoRoot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), `{"devDependencies":{"jest":"^29.0.0"}}`)

	if got := findProjectRoot(dir); got != dir {
		t.Errorf("findProjectRoot = %q, want %q (root has a test-framework dep)", got, dir)
	}
}

func TestFindProjectRootMonorepoSubdir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), `{"dependencies":{}}`)
	webDir := filepath.Join(dir, "web")
	writeFile(t, filepath.Join(webDir, "package.json"), `{"devDependencies":{"vitest":"^1.0.0"}}`)

	if got := findProjectRoot(dir); got != webDir {
		t.Errorf("findProjectRoot = %q, want %q (conventional monorepo subdir)", got, webDir)
	}
}

func TestFindProjectRootArbitrarySubdirWithDep(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), `{"dependencies":{}}`)
	sub := filepath.Join(dir, "services-ui")
	writeFile(t, filepath.Join(sub, "package.json"), `{"dependencies":{"mocha":"^10.0.0"}}`)

	if got := findProjectRoot(dir); got != sub {
		t.Errorf("findProjectRoot = %q, want %q (scanned subdir with framework dep)", got, sub)
	}
}

func TestFindProjectRootFallsBackToRepoRoot(t *testing.T) {
	dir := t.TempDir()
	if got := findProjectRoot(dir); got != dir {
		t.Errorf("findProjectRoot = %q, want %q (no evidence anywhere)", got, dir)
	}
}

func TestPackageManagerPrecedence(t *testing.T) {
	cases := []struct {
		name  string
		files []string
		want  string
	}{
		{"pnpm wins", []string{"pnpm-lock.yaml", "yarn.lock"}, "pnpm"},
		{"yarn over bun", []string{"yarn.lock", "bun.lockb"}, "yarn"},
		{"bun alone", []string{"bun.lockb"}, "bun"},
		{"default npm", nil, "npm"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range c.files {
				writeFile(t, filepath.Join(dir, f), "")
			}
			if got := packageManager(dir); got != c.want {
				t.Errorf("packageManager = %q, want %q", got, c.want)
			}
		})
	}
}

func TestJestHasConfigConflict(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), `{"jest":{"testEnvironment":"node"}}`)

	if (Jest{}).hasConfigConflict(dir, "") {
		t.Error("no conflict expected when no standalone jest config file is present")
	}
	if !(Jest{}).hasConfigConflict(dir, "jest.config.js") {
		t.Error("conflict expected: package.json \"jest\" key plus a standalone config file")
	}
}

func TestJestHasConfigConflictNoPackageJSONKey(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), `{"dependencies":{}}`)

	if (Jest{}).hasConfigConflict(dir, "jest.config.js") {
		t.Error("no conflict expected when package.json has no \"jest\" key")
	}
}

func TestJestDetectScoresConfigAndDeps(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "jest.config.js"), "module.exports = {}")
	writeFile(t, filepath.Join(dir, "package.json"), `{
		"devDependencies": {"jest": "^29.0.0"},
		"scripts": {"test": "jest"}
	}`)

	if got := (Jest{}).Detect(dir); got < 90 {
		t.Errorf("Jest.Detect = %d, want >= 90 (config + dep + script all present)", got)
	}
}

func TestVitestDetectRequiresConfigOrDep(t *testing.T) {
	dir := t.TempDir()
	if got := (Vitest{}).Detect(dir); got != 0 {
		t.Errorf("Vitest.Detect on empty dir = %d, want 0", got)
	}
	writeFile(t, filepath.Join(dir, "vitest.config.ts"), "")
	if got := (Vitest{}).Detect(dir); got < 60 {
		t.Errorf("Vitest.Detect with config file = %d, want >= 60", got)
	}
}

func TestRequiredNodeVersionFromNvmrc(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".nvmrc"), "18.12.0\n")
	if got := requiredNodeVersion(dir); got != "18" {
		t.Errorf("requiredNodeVersion = %q, want %q", got, "18")
	}
}

func TestRequiredNodeVersionFromEngines(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), `{"engines":{"node":">=20.0.0"}}`)
	if got := requiredNodeVersion(dir); got != "20" {
		t.Errorf("requiredNodeVersion = %q, want %q", got, "20")
	}
}

func TestRequiredNodeVersionAbsent(t *testing.T) {
	dir := t.TempDir()
	if got := requiredNodeVersion(dir); got != "" {
		t.Errorf("requiredNodeVersion = %q, want empty", got)
	}
}

func TestNodeTestDetectRequiresPackageJSON(t *testing.T) {
	dir := t.TempDir()
	if got := (NodeTest{}).Detect(dir); got != 0 {
		t.Errorf("NodeTest.Detect with no package.json = %d, want 0", got)
	}
}

func TestNodeTestDetectScoresTestScript(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), `{
		"scripts": {"test": "node --test"},
		"devDependencies": {"@types/node": "^20.0.0"}
	}`)
	if got := (NodeTest{}).Detect(dir); got < 70 {
		t.Errorf("NodeTest.Detect = %d, want >= 70", got)
	}
}

func TestMochaDetectScoresConfigAndDep(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".mocharc.json"), "{}")
	writeFile(t, filepath.Join(dir, "package.json"), `{"dependencies":{"mocha":"^10.0.0"}}`)
	if got := (Mocha{}).Detect(dir); got < 90 {
		t.Errorf("Mocha.Detect = %d, want >= 90", got)
	}
}
