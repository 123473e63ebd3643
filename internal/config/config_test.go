package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeProject(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "pyproject.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), "pyproject.toml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.OutputDir != "site" {
		t.Errorf("output_dir = %q", cfg.OutputDir)
	}
	if cfg.Port != 8000 || cfg.Host != "127.0.0.1" {
		t.Errorf("server defaults = %s:%d", cfg.Host, cfg.Port)
	}
	if cfg.Python != "python3" || cfg.DocstringStyle != "auto" {
		t.Errorf("python = %q style = %q", cfg.Python, cfg.DocstringStyle)
	}
	if cfg.ExternalLinks || cfg.ExcludeSource {
		t.Error("link and source flags should default off")
	}
	if len(cfg.Modules) != 0 {
		t.Errorf("modules = %v", cfg.Modules)
	}
}

func TestLoad_ProjectTable(t *testing.T) {
	dir := writeProject(t, `
[project]
name = "my-package"

[tool.snakedoc]
modules = ["pkg", "extra"]
port = 9000
title = "My Docs"
exclude_modules = ["tests"]
external_links = true
`)
	cfg, err := Load(dir, "pyproject.toml")
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Modules) != 2 || cfg.Modules[0] != "pkg" || cfg.Modules[1] != "extra" {
		t.Errorf("modules = %v", cfg.Modules)
	}
	if cfg.Port != 9000 || cfg.Title != "My Docs" {
		t.Errorf("port = %d title = %q", cfg.Port, cfg.Title)
	}
	if len(cfg.ExcludeModules) != 1 || cfg.ExcludeModules[0] != "tests" {
		t.Errorf("exclude_modules = %v", cfg.ExcludeModules)
	}
	if !cfg.ExternalLinks {
		t.Error("external_links not read")
	}
}

func TestLoad_ModulesAsString(t *testing.T) {
	dir := writeProject(t, "[tool.snakedoc]\nmodules = \"single\"\n")
	cfg, err := Load(dir, "pyproject.toml")
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Modules) != 1 || cfg.Modules[0] != "single" {
		t.Errorf("modules = %v", cfg.Modules)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SNAKEDOC_PORT", "9999")
	t.Setenv("SNAKEDOC_OUTPUT_DIR", "docs")
	t.Setenv("SNAKEDOC_EXCLUDE_SOURCE", "true")

	cfg, err := Load(t.TempDir(), "pyproject.toml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 9999 {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.OutputDir != "docs" {
		t.Errorf("output_dir = %q", cfg.OutputDir)
	}
	if !cfg.ExcludeSource {
		t.Error("exclude_source not overridden")
	}
}

func TestLoad_BadToml(t *testing.T) {
	dir := writeProject(t, "[tool.snakedoc\nbroken")
	if _, err := Load(dir, "pyproject.toml"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDetectModules_ProjectName(t *testing.T) {
	dir := writeProject(t, "[project]\nname = \"my-package\"\n")
	cfg, err := Load(dir, "pyproject.toml")
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Modules) != 1 || cfg.Modules[0] != "my_package" {
		t.Errorf("modules = %v", cfg.Modules)
	}
}

func TestDetectModules_Flit(t *testing.T) {
	dir := writeProject(t, "[tool.flit.metadata]\nmodule = \"flitmod\"\n")
	cfg, err := Load(dir, "pyproject.toml")
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Modules) != 1 || cfg.Modules[0] != "flitmod" {
		t.Errorf("modules = %v", cfg.Modules)
	}
}

func TestDetectModules_SetupPy(t *testing.T) {
	dir := t.TempDir()
	setup := "from setuptools import setup\nsetup(\n    name=\"legacy\",\n    packages=[\"legacy_pkg\", \"legacy_pkg.sub\"],\n)\n"
	if err := os.WriteFile(filepath.Join(dir, "setup.py"), []byte(setup), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir, "pyproject.toml")
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Modules) != 1 || cfg.Modules[0] != "legacy_pkg" {
		t.Errorf("modules = %v", cfg.Modules)
	}
}

func TestDetectModules_ExplicitWins(t *testing.T) {
	dir := writeProject(t, `
[project]
name = "ignored"

[tool.snakedoc]
modules = "explicit"
`)
	cfg, err := Load(dir, "pyproject.toml")
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Modules) != 1 || cfg.Modules[0] != "explicit" {
		t.Errorf("modules = %v", cfg.Modules)
	}
}

func TestCacheBase_XDGSet(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")
	got := cacheBase()
	want := filepath.Join("/custom/cache", "snakedoc")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCacheBase_HomeDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	got := cacheBase()
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}
	want := filepath.Join(home, ".cache", "snakedoc")
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCacheBase_TmpFallback(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("HOME", "")
	got := cacheBase()
	if !strings.Contains(got, "snakedoc") {
		t.Errorf("expected snakedoc in path, got %q", got)
	}
}

func TestPaths_UnderCacheBase(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/custom/cache")
	if got := DBPath(); got != filepath.Join("/custom/cache", "snakedoc", "index.db") {
		t.Errorf("DBPath = %q", got)
	}
	if got := DumpCacheDir(); got != filepath.Join("/custom/cache", "snakedoc", "dumps") {
		t.Errorf("DumpCacheDir = %q", got)
	}
	if got := LogPath(); got != filepath.Join("/custom/cache", "snakedoc", "mcp.log") {
		t.Errorf("LogPath = %q", got)
	}
}
