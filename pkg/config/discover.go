package config

import (
	"os"
	"path/filepath"
	"strings"
)

// FindProjectConfig searches for .ct/config.yaml starting from dir and walking
// up, stopping at the home directory.
func FindProjectConfig(dir string) (string, error) {
	root, ok := findProjectRoot(dir)
	if !ok {
		return "", os.ErrNotExist
	}
	candidate := filepath.Join(root, StateDirName, FileName)
	if _, err := os.Stat(candidate); err != nil {
		return "", err
	}
	return candidate, nil
}

// DetectCurrentProject attempts to find the current project by walking
// up from the current directory looking for .ct/.
func DetectCurrentProject() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	return findProjectRoot(dir)
}

// findProjectRoot walks up from dir looking for a .ct/ directory.
func findProjectRoot(dir string) (string, bool) {
	home, _ := os.UserHomeDir()

	for {
		stateDir := filepath.Join(dir, StateDirName)
		if info, err := os.Stat(stateDir); err == nil && info.IsDir() {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		// Don't go above home directory
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}

// InitProject creates .ct/config.yaml under dir unless one already exists.
// It returns the config path and whether it was created.
func InitProject(dir string) (string, bool, error) {
	path := filepath.Join(dir, StateDirName, FileName)
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, err
	}
	if err := os.WriteFile(path, []byte(ExampleConfig()), 0o644); err != nil {
		return "", false, err
	}
	return path, true, nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
