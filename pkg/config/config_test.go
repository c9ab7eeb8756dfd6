package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, root, body string) string {
	t.Helper()
	dir := filepath.Join(root, StateDirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// isolate keeps the developer's real user config out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvStateDir, "")
	t.Setenv(EnvSource, "")
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "source:\n  path: shop.db\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, SourceSQLite, cfg.Source.Kind, "kind inferred from extension")
	assert.Equal(t, "sibling", cfg.Tree.AfterMode)
	assert.Equal(t, 4, cfg.Tree.IndentWidth)
	assert.Equal(t, 200, cfg.Watch.DebounceMS)
	assert.True(t, cfg.WatchEnabled())
	assert.True(t, cfg.IconsEnabled())
	assert.Equal(t, "category-tree-expanded", cfg.State.Key)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"BadKind", "source:\n  kind: csv\n  path: x.csv\n", "source.kind must be one of"},
		{"BadAfterMode", "source:\n  path: x.json\ntree:\n  after_mode: before\n", "tree.aftermode must be one of"},
		{"IndentTooWide", "source:\n  path: x.json\ntree:\n  indent_width: 20\n", "tree.indentwidth is out of range"},
		{"NotYAML", "source: [", "parsing config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.body)
			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ProjectConfigResolvesPaths(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeConfig(t, root, "source:\n  path: data/categories.json\ntree:\n  after_mode: reparent\n")
	sub := filepath.Join(root, "nested", "dir")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	cfg, err := Load(sub)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, filepath.Join(root, "data", "categories.json"), cfg.Source.Path)
	assert.Equal(t, filepath.Join(root, ".ct", "state"), cfg.State.Dir)
	assert.Equal(t, filepath.Join(root, ".ct", "ct.log"), cfg.Log.Path)
	assert.Equal(t, "reparent", cfg.Tree.AfterMode)
}

func TestLoad_DefaultsWithoutConfig(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "categories.json"), cfg.Source.Path)
	assert.Equal(t, SourceJSON, cfg.Source.Kind)
}

func TestLoad_UserConfig(t *testing.T) {
	isolate(t)
	xdg := os.Getenv("XDG_CONFIG_HOME")
	require.NoError(t, os.MkdirAll(filepath.Join(xdg, "ct"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(xdg, "ct", FileName), []byte("source:\n  path: /srv/catalog.sqlite\n"), 0o644))

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "/srv/catalog.sqlite", cfg.Source.Path)
	assert.Equal(t, SourceSQLite, cfg.Source.Kind)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeConfig(t, root, "source:\n  path: categories.json\n")
	state := filepath.Join(t.TempDir(), "state")
	t.Setenv(EnvStateDir, state)
	t.Setenv(EnvSource, "catalog.db")

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, state, cfg.State.Dir)
	assert.Equal(t, filepath.Join(root, "catalog.db"), cfg.Source.Path)
	assert.Equal(t, SourceSQLite, cfg.Source.Kind)
}

func TestLoad_LogDisabled(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	writeConfig(t, root, "source:\n  path: c.json\nlog:\n  path: \"-\"\n")

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.False(t, cfg.LogEnabled())
	assert.Equal(t, "-", cfg.Log.Path)
}

func TestInferSourceKind(t *testing.T) {
	for in, want := range map[string]string{
		"a.json":    SourceJSON,
		"a.DB":      SourceSQLite,
		"a.sqlite3": SourceSQLite,
		"noext":     SourceJSON,
	} {
		assert.Equal(t, want, InferSourceKind(in), in)
	}
}
