package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitebuilder/internal/errors"
)

// DefaultFile is the configuration file name used when none is given.
const DefaultFile = "sitebuilder.yaml"

// Config represents the application configuration
type Config struct {
	// BaseDir is the project root every relative path resolves against.
	// Load sets it to the directory of the configuration file.
	BaseDir string `yaml:"-"`

	Dir             DirConfig `yaml:"dir"`
	TemplateFormats []string  `yaml:"template_formats"`
	// PathPrefix is the URL prefix the url template function adds.
	PathPrefix string `yaml:"path_prefix"`
	// Passthrough maps sources (project relative) to destinations (output relative).
	Passthrough map[string]string `yaml:"passthrough,omitempty"`
	Output      OutputConfig      `yaml:"output"`
	Sass        SassConfig        `yaml:"sass"`
	CSS         CSSConfig         `yaml:"css"`
	HTML        HTMLConfig        `yaml:"html"`
	Legacy      LegacyConfig      `yaml:"legacy"`
	Build       BuildConfig       `yaml:"build"`
	History     HistoryConfig     `yaml:"history,omitempty"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// DirConfig names the source and output roots. Includes and Data are relative to Input.
type DirConfig struct {
	Input    string `yaml:"input"`
	Output   string `yaml:"output"`
	Includes string `yaml:"includes"`
	Data     string `yaml:"data"`
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Clean bool `yaml:"clean"` // Clean output directory before build
}

// SassConfig configures style-sheet compilation.
type SassConfig struct {
	Binary    string   `yaml:"binary,omitempty"` // dart-sass executable; empty = look up on PATH
	LoadPaths []string `yaml:"load_paths"`       // third-party library directories (project relative)
	Style     string   `yaml:"style"`            // expanded|compressed
	Timeout   string   `yaml:"timeout"`
}

// CSSConfig configures CSS post-processing.
type CSSConfig struct {
	Prefixes []string `yaml:"prefixes"` // vendor prefixes to emit: webkit, moz, ms
	Minify   *bool    `yaml:"minify,omitempty"`
}

// HTMLConfig configures HTML post-processing.
type HTMLConfig struct {
	Minify *bool `yaml:"minify,omitempty"`
}

// LegacyConfig describes the task-based pipeline. Paths are project relative.
type LegacyConfig struct {
	Clean   []string      `yaml:"clean"`
	Fonts   CopyConfig    `yaml:"fonts"`
	Styles  StylesConfig  `yaml:"styles"`
	Scripts ScriptsConfig `yaml:"scripts"`
}

// CopyConfig copies a directory verbatim.
type CopyConfig struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// StylesConfig lists stylesheets concatenated in order into Output.
type StylesConfig struct {
	Sources []string `yaml:"sources"`
	Output  string   `yaml:"output"`
}

// ScriptsConfig lists scripts (files or ** globs) copied into the Output directory.
type ScriptsConfig struct {
	Sources []string `yaml:"sources"`
	Output  string   `yaml:"output"`
	// Concat, when set, concatenates every source into Output/Concat instead of copying.
	Concat string `yaml:"concat,omitempty"`
}

// BuildConfig configures execution.
type BuildConfig struct {
	Concurrency int `yaml:"concurrency"` // max tasks/files in flight; 0 = number of CPUs
}

// HistoryConfig configures the build history database.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"` // SQLite file; empty disables history
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load loads configuration from the specified file, applies defaults and validates it.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.ConfigInvalid(configPath, fmt.Errorf("read: %w", err))
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.ConfigInvalid(configPath, err)
	}

	abs, err := filepath.Abs(filepath.Dir(configPath))
	if err != nil {
		return nil, errors.ConfigInvalid(configPath, err)
	}
	cfg.BaseDir = abs

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML (with ${VAR} expansion) and applies defaults. BaseDir is left empty.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := NewDefaultApplier().ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied, rooted at baseDir.
func Default(baseDir string) *Config {
	cfg := &Config{BaseDir: baseDir}
	_ = NewDefaultApplier().ApplyDefaults(cfg)
	return cfg
}

// Path resolves a project-relative path against BaseDir.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, filepath.FromSlash(p))
}

// InputDir is the absolute source root.
func (c *Config) InputDir() string { return c.Path(c.Dir.Input) }

// OutputDir is the absolute output root of the template/asset builder.
func (c *Config) OutputDir() string { return c.Path(c.Dir.Output) }

// IncludesDir is the absolute includes (layouts and partials) directory.
func (c *Config) IncludesDir() string {
	return filepath.Join(c.InputDir(), filepath.FromSlash(c.Dir.Includes))
}

// DataDir is the absolute global data directory.
func (c *Config) DataDir() string {
	return filepath.Join(c.InputDir(), filepath.FromSlash(c.Dir.Data))
}

// HTMLMinify reports whether the htmlmin transform is enabled.
func (c *Config) HTMLMinify() bool { return c.HTML.Minify == nil || *c.HTML.Minify }

// CSSMinify reports whether CSS minification is enabled.
func (c *Config) CSSMinify() bool { return c.CSS.Minify == nil || *c.CSS.Minify }

// HasTemplateFormat reports whether a template format (extension without dot) is registered.
func (c *Config) HasTemplateFormat(format string) bool {
	for _, f := range c.TemplateFormats {
		if f == format {
			return true
		}
	}
	return false
}
