package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// StateDirName is the per-project directory holding config, state and logs.
const StateDirName = ".ct"

// FileName is the config file inside the state dir.
const FileName = "config.yaml"

// Source kinds
const (
	SourceJSON   = "json"
	SourceSQLite = "sqlite"
)

// Environment overrides
const (
	EnvStateDir = "CT_DIR"
	EnvSource   = "CT_SOURCE"
)

// Config represents the ct configuration file (.ct/config.yaml)
type Config struct {
	// Source is where categories are loaded from and written back to
	Source SourceConfig `yaml:"source" json:"source"`

	// State controls where UI state (expanded rows) is persisted
	State StateConfig `yaml:"state,omitempty" json:"state,omitempty"`

	// Tree tunes the tree component
	Tree TreeConfig `yaml:"tree,omitempty" json:"tree,omitempty"`

	// Watch controls live reload of the source file
	Watch WatchConfig `yaml:"watch,omitempty" json:"watch,omitempty"`

	// Log configures the file logger
	Log LogConfig `yaml:"log,omitempty" json:"log,omitempty"`

	// Root is the project directory the config was found in. Relative paths
	// resolve against it. Not read from YAML.
	Root string `yaml:"-" json:"root,omitempty"`
}

// SourceConfig selects the category store.
type SourceConfig struct {
	// Kind is json or sqlite (default: inferred from Path, else json)
	Kind string `yaml:"kind,omitempty" json:"kind,omitempty" validate:"omitempty,oneof=json sqlite"`

	// Path is the categories file or database (default: categories.json)
	Path string `yaml:"path" json:"path" validate:"required"`
}

// StateConfig locates the persisted expansion set.
type StateConfig struct {
	// Dir holds state files (default: .ct/state)
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty"`

	// Key names the expansion set; trees sharing a key share state
	Key string `yaml:"key,omitempty" json:"key,omitempty" validate:"omitempty,max=128"`
}

// TreeConfig tunes rendering and drop behaviour.
type TreeConfig struct {
	// AfterMode is sibling (default) or reparent
	AfterMode string `yaml:"after_mode,omitempty" json:"after_mode,omitempty" validate:"omitempty,oneof=sibling reparent"`

	// IndentWidth is the number of columns per nesting level (default: 4)
	IndentWidth int `yaml:"indent_width,omitempty" json:"indent_width,omitempty" validate:"gte=0,lte=8"`

	// Icons toggles folder icons (default: true)
	Icons *bool `yaml:"icons,omitempty" json:"icons,omitempty"`
}

// WatchConfig controls the file watcher.
type WatchConfig struct {
	// Enabled turns live reload on (default: true)
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`

	// DebounceMS coalesces bursts of writes (default: 200)
	DebounceMS int `yaml:"debounce_ms,omitempty" json:"debounce_ms,omitempty" validate:"gte=0,lte=60000"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Path of the log file (default: .ct/ct.log). "-" disables logging.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`

	// Debug enables debug level
	Debug bool `yaml:"debug,omitempty" json:"debug,omitempty"`

	// JSON switches to the JSON encoder
	JSON bool `yaml:"json,omitempty" json:"json,omitempty"`
}

var validate = validator.New()

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	icons := true
	watch := true
	return Config{
		Source: SourceConfig{Kind: SourceJSON, Path: "categories.json"},
		State:  StateConfig{Dir: filepath.Join(StateDirName, "state"), Key: "category-tree-expanded"},
		Tree:   TreeConfig{AfterMode: "sibling", IndentWidth: 4, Icons: &icons},
		Watch:  WatchConfig{Enabled: &watch, DebounceMS: 200},
		Log:    LogConfig{Path: filepath.Join(StateDirName, "ct.log")},
	}
}

// applyDefaults fills zero values from DefaultConfig.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Source.Path == "" {
		c.Source.Path = d.Source.Path
	}
	if c.Source.Kind == "" {
		c.Source.Kind = InferSourceKind(c.Source.Path)
	}
	if c.State.Dir == "" {
		c.State.Dir = d.State.Dir
	}
	if c.State.Key == "" {
		c.State.Key = d.State.Key
	}
	if c.Tree.AfterMode == "" {
		c.Tree.AfterMode = d.Tree.AfterMode
	}
	if c.Tree.IndentWidth == 0 {
		c.Tree.IndentWidth = d.Tree.IndentWidth
	}
	if c.Tree.Icons == nil {
		c.Tree.Icons = d.Tree.Icons
	}
	if c.Watch.Enabled == nil {
		c.Watch.Enabled = d.Watch.Enabled
	}
	if c.Watch.DebounceMS == 0 {
		c.Watch.DebounceMS = d.Watch.DebounceMS
	}
	if c.Log.Path == "" {
		c.Log.Path = d.Log.Path
	}
}

// InferSourceKind guesses the store from a file extension.
func InferSourceKind(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return SourceSQLite
	default:
		return SourceJSON
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, formatFieldError(e))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Namespace())
	field = strings.TrimPrefix(field, "config.")
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, e.Param(), e.Value())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range (%s %s)", field, e.Tag(), e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// LoadConfig loads a configuration from a file, applies defaults and
// validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Load resolves the effective configuration for dir (cwd when empty):
// the nearest .ct/config.yaml walking up, else the user config, else
// defaults rooted at dir. Environment overrides are applied last and
// relative paths are made absolute against the project root.
func Load(dir string) (*Config, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return nil, err
		}
	}

	var cfg *Config
	root := dir
	if path, err := FindProjectConfig(dir); err == nil {
		cfg, err = LoadConfig(path)
		if err != nil {
			return nil, err
		}
		root = filepath.Dir(filepath.Dir(path))
	} else if path := UserConfigPath(); path != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			cfg, err = LoadConfig(path)
			if err != nil {
				return nil, err
			}
		}
	}
	if cfg == nil {
		d := DefaultConfig()
		cfg = &d
		cfg.Source.Kind = ""
		cfg.applyDefaults()
	}
	cfg.Root = root

	if v := os.Getenv(EnvStateDir); v != "" {
		cfg.State.Dir = v
	}
	if v := os.Getenv(EnvSource); v != "" {
		cfg.Source.Path = v
		cfg.Source.Kind = InferSourceKind(v)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg.Source.Path = cfg.resolve(cfg.Source.Path)
	cfg.State.Dir = cfg.resolve(cfg.State.Dir)
	if cfg.Log.Path != "-" {
		cfg.Log.Path = cfg.resolve(cfg.Log.Path)
	}
	return cfg, nil
}

func (c *Config) resolve(p string) string {
	p = expandHome(p)
	if filepath.IsAbs(p) || c.Root == "" {
		return p
	}
	return filepath.Join(c.Root, p)
}

// UserConfigPath returns ~/.config/ct/config.yaml (or the platform
// equivalent), or "" when the home directory is unknown.
func UserConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ct", FileName)
}

// LogEnabled reports whether a log file is configured.
func (c *Config) LogEnabled() bool {
	return c.Log.Path != "" && c.Log.Path != "-"
}

// WatchEnabled reports whether live reload is on.
func (c *Config) WatchEnabled() bool {
	return c.Watch.Enabled == nil || *c.Watch.Enabled
}

// IconsEnabled reports whether folder icons are drawn.
func (c *Config) IconsEnabled() bool {
	return c.Tree.Icons == nil || *c.Tree.Icons
}

// ExampleConfig returns a commented starting point written by --init.
func ExampleConfig() string {
	return `# ct configuration
source:
  # json or sqlite; inferred from the extension when omitted
  kind: json
  path: categories.json

state:
  dir: .ct/state
  key: category-tree-expanded

tree:
  # sibling: "after" drops place the category after the target
  # reparent: "after" drops nest under the target like "inside"
  after_mode: sibling
  indent_width: 4
  icons: true

watch:
  enabled: true
  debounce_ms: 200

log:
  path: .ct/ct.log
  debug: false
`
}
