package dotnet

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

func TestDetectNoMarkers(t *testing.T) {
	if got := (DotNet{}).Detect(t.TempDir()); got != 0 {
		t.Errorf("Detect on empty dir = %d, want 0", got)
	}
}

func TestDetectSlnAndTestCsproj(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "App.sln"), "")
	writeFile(t, filepath.Join(dir, "tests", "App.Tests.csproj"), "<Project><ItemGroup><PackageReference Include=\"xunit\"/></ItemGroup></Project>")
	if got := (DotNet{}).Detect(dir); got != 100 {
		t.Errorf("Detect with sln + xunit csproj = %d, want 100", got)
	}
}

func TestDetectFsprojOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "App.fsproj"), "")
	if got := (DotNet{}).Detect(dir); got != 30 {
		t.Errorf("Detect with bare .fsproj = %d, want 30", got)
	}
}

func TestRequiredVersionFromGlobalJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "global.json"), `{"sdk":{"version":"8.0.100"}}`)
	if got := (DotNet{}).RequiredVersion(dir); got != "8" {
		t.Errorf("RequiredVersion = %q, want %q", got, "8")
	}
}

func TestRequiredVersionFromTargetFramework(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "App.csproj"), "<Project><PropertyGroup><TargetFramework>net7.0</TargetFramework></PropertyGroup></Project>")
	if got := (DotNet{}).RequiredVersion(dir); got != "7" {
		t.Errorf("RequiredVersion = %q, want %q", got, "7")
	}
}

func TestRequiredVersionAbsent(t *testing.T) {
	if got := (DotNet{}).RequiredVersion(t.TempDir()); got != "" {
		t.Errorf("RequiredVersion = %q, want empty", got)
	}
}

func TestCheckVersionCompatibleNoRequirement(t *testing.T) {
	ok, msg := (DotNet{}).CheckVersionCompatible(nil, t.TempDir())
	if !ok || msg != "" {
		t.Errorf("CheckVersionCompatible with no global.json/csproj = (%v, %q), want (true, \"\")", ok, msg)
	}
}
