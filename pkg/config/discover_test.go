package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()

	// Create .ct in root
	if err := os.MkdirAll(filepath.Join(root, StateDirName), 0o755); err != nil {
		t.Fatal(err)
	}

	// Create a subdirectory
	sub := filepath.Join(root, "catalog", "exports")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	// Should find root from subdirectory
	found, ok := findProjectRoot(sub)
	if !ok {
		t.Error("expected to find project root")
	}
	if found != root {
		t.Errorf("expected %q, got %q", root, found)
	}
}

func TestFindProjectRoot_IgnoresFiles(t *testing.T) {
	root := t.TempDir()
	// A regular file named .ct is not a project marker
	if err := os.WriteFile(filepath.Join(root, StateDirName), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if found, ok := findProjectRoot(root); ok && found == root {
		t.Errorf("file .ct should not mark %q as a project", root)
	}
}

func TestFindProjectConfig_MissingFile(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, StateDirName), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := FindProjectConfig(root); err == nil {
		t.Error("expected error when .ct exists without config.yaml")
	}
}

func TestInitProject(t *testing.T) {
	root := t.TempDir()

	path, created, err := InitProject(root)
	if err != nil {
		t.Fatalf("InitProject: %v", err)
	}
	if !created {
		t.Error("expected config to be created")
	}
	if path != filepath.Join(root, StateDirName, FileName) {
		t.Errorf("unexpected path %q", path)
	}

	// Second call keeps the existing file
	if _, created, err := InitProject(root); err != nil || created {
		t.Errorf("second InitProject: created=%v err=%v", created, err)
	}

	// The example config must load cleanly
	if _, err := LoadConfig(path); err != nil {
		t.Errorf("example config does not load: %v", err)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := expandHome("~/cats.json"); got != filepath.Join(home, "cats.json") {
		t.Errorf("expandHome = %q", got)
	}
	if got := expandHome("/abs/cats.json"); got != "/abs/cats.json" {
		t.Errorf("absolute path changed: %q", got)
	}
}
