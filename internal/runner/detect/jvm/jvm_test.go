package jvm

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

func TestMavenDetect(t *testing.T) {
	dir := t.TempDir()
	if got := (Maven{}).Detect(dir); got != 0 {
		t.Errorf("Maven.Detect on empty dir = %d, want 0", got)
	}
	writeFile(t, filepath.Join(dir, "pom.xml"), "<project/>")
	writeFile(t, filepath.Join(dir, "mvnw"), "")
	if got := (Maven{}).Detect(dir); got != 90 {
		t.Errorf("Maven.Detect with pom.xml+mvnw = %d, want 90", got)
	}
}

func TestMavenMvnCmdPrefersWrapper(t *testing.T) {
	dir := t.TempDir()
	if got := (Maven{}).mvnCmd(dir); got != "mvn" {
		t.Errorf("mvnCmd without wrapper = %q, want mvn", got)
	}
	writeFile(t, filepath.Join(dir, "mvnw"), "")
	if got := (Maven{}).mvnCmd(dir); got != "./mvnw" {
		t.Errorf("mvnCmd with wrapper = %q, want ./mvnw", got)
	}
}

func TestGradleDetect(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "build.gradle.kts"), "")
	writeFile(t, filepath.Join(dir, "gradlew"), "")
	if got := (Gradle{}).Detect(dir); got != 90 {
		t.Errorf("Gradle.Detect = %d, want 90", got)
	}
}

func TestSbtDetect(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "build.sbt"), "")
	writeFile(t, filepath.Join(dir, "project", "build.properties"), "sbt.version=1.9.0")
	if got := (Sbt{}).Detect(dir); got != 100 {
		t.Errorf("Sbt.Detect = %d, want 100", got)
	}
}

func TestRequiredJavaVersionFromPom(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "pom.xml"), "<project><properties><maven.compiler.source>17</maven.compiler.source></properties></project>")
	if got := requiredJavaVersion(dir); got != "17" {
		t.Errorf("requiredJavaVersion = %q, want %q", got, "17")
	}
}

func TestRequiredJavaVersionFromGradleKts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "build.gradle.kts"), "sourceCompatibility = '11'")
	if got := requiredJavaVersion(dir); got != "11" {
		t.Errorf("requiredJavaVersion = %q, want %q", got, "11")
	}
}

func TestRequiredJavaVersionAbsent(t *testing.T) {
	if got := requiredJavaVersion(t.TempDir()); got != "" {
		t.Errorf("requiredJavaVersion = %q, want empty", got)
	}
}

func TestJavaVersionCompatibleNoRequirement(t *testing.T) {
	ok, msg := javaVersionCompatible(nil, t.TempDir())
	if !ok || msg != "" {
		t.Errorf("javaVersionCompatible with no requirement = (%v, %q), want (true, \"\")", ok, msg)
	}
}

func TestItoa(t *testing.T) {
	cases := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{7, "7"},
		{-42, "-42"},
		{123, "123"},
	}
	for _, c := range cases {
		if got := itoa(c.in); got != c.want {
			t.Errorf("itoa(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}
